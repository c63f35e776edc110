package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// BloodRequest asks for units of one group on behalf of a recipient.
type BloodRequest struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID    uuid.UUID           `gorm:"column:recipient_id;type:uuid;not null;index"`
	BloodGroup     enums.BloodGroup    `gorm:"column:blood_group;type:blood_group_enum;not null"`
	UnitsRequested int                 `gorm:"column:units_requested;not null;check:chk_blood_requests_units_positive,units_requested > 0"`
	UrgencyLevel   enums.UrgencyLevel  `gorm:"column:urgency_level;type:urgency_level_enum;not null;default:routine"`
	RequiredBy     *time.Time          `gorm:"column:required_by_date"`
	Notes          *string             `gorm:"column:notes"`
	Status         enums.RequestStatus `gorm:"column:status;type:request_status_enum;not null;default:pending;index"`
	CreatedBy      uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	DecidedBy      *uuid.UUID          `gorm:"column:decided_by;type:uuid"`
	DecidedAt      *time.Time          `gorm:"column:decided_at"`
	RequestDate    time.Time           `gorm:"column:request_date;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Recipient *Recipient `gorm:"foreignKey:RecipientID;references:ID"`
}

func (r *BloodRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
