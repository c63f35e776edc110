package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

type Donation struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	DonorID      uuid.UUID        `gorm:"column:donor_id;type:uuid;not null;index"`
	BloodGroup   enums.BloodGroup `gorm:"column:blood_group;type:blood_group_enum;not null"`
	UnitsDonated int              `gorm:"column:units_donated;not null;check:chk_donations_units_positive,units_donated > 0"`
	DonationDate time.Time        `gorm:"column:donation_date;not null;index"`
	Notes        *string          `gorm:"column:notes"`
	CreatedBy    uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`

	Donor *Donor `gorm:"foreignKey:DonorID;references:ID"`
}

func (d *Donation) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
