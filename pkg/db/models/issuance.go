package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// Issuance records units handed out against an approved request. At most one per request.
type Issuance struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	RequestID   uuid.UUID        `gorm:"column:request_id;type:uuid;not null;uniqueIndex:issuances_request_id_key"`
	RecipientID uuid.UUID        `gorm:"column:recipient_id;type:uuid;not null"`
	BloodGroup  enums.BloodGroup `gorm:"column:blood_group;type:blood_group_enum;not null"`
	UnitsIssued int              `gorm:"column:units_issued;not null"`
	IssueDate   time.Time        `gorm:"column:issue_date;not null"`
	IssuedBy    uuid.UUID        `gorm:"column:issued_by;type:uuid;not null"`
	Notes       *string          `gorm:"column:notes"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (i *Issuance) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
