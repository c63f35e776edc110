package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

type Donor struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	FullName          string            `gorm:"column:full_name;not null"`
	Email             *string           `gorm:"column:email;uniqueIndex:donors_email_key"`
	Phone             string            `gorm:"column:phone;not null"`
	DateOfBirth       time.Time         `gorm:"column:date_of_birth;type:date;not null"`
	BloodGroup        enums.BloodGroup  `gorm:"column:blood_group;type:blood_group_enum;not null;index"`
	Address           *string           `gorm:"column:address"`
	MedicalConditions *string           `gorm:"column:medical_conditions"`
	Status            enums.DonorStatus `gorm:"column:status;type:donor_status_enum;not null;default:eligible"`
	LastDonationDate  *time.Time        `gorm:"column:last_donation_date"`
	NextEligibleDate  *time.Time        `gorm:"column:next_eligible_date"`
	CreatedBy         uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Donor) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
