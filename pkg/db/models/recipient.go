package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

type Recipient struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	FullName            string           `gorm:"column:full_name;not null"`
	Phone               string           `gorm:"column:phone;not null"`
	Email               *string          `gorm:"column:email"`
	DateOfBirth         time.Time        `gorm:"column:date_of_birth;type:date;not null"`
	BloodGroup          enums.BloodGroup `gorm:"column:blood_group;type:blood_group_enum;not null;index"`
	HospitalName        *string          `gorm:"column:hospital_name"`
	MedicalRecordNumber *string          `gorm:"column:medical_record_number"`
	Address             *string          `gorm:"column:address"`
	CreatedBy           uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Recipient) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
