package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

type AuditLog struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Action     enums.AuditAction     `gorm:"column:action;not null;index"`
	EntityType enums.AuditEntityType `gorm:"column:entity_type;not null"`
	EntityID   *string               `gorm:"column:entity_id"`
	Details    json.RawMessage       `gorm:"column:details;type:jsonb"`
	UserID     uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;not null;index"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
