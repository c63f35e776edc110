package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// StockEvent is an append-only record of every applied balance change.
type StockEvent struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	BloodGroup   enums.BloodGroup       `gorm:"column:blood_group;type:blood_group_enum;not null;index"`
	Delta        int                    `gorm:"column:delta;not null"`
	Reason       enums.StockEventReason `gorm:"column:reason;type:stock_event_reason_enum;not null"`
	BalanceAfter int                    `gorm:"column:balance_after;not null"`
	ActorUserID  uuid.UUID              `gorm:"column:actor_user_id;type:uuid;not null"`
	ActorRole    enums.AppRole          `gorm:"column:actor_role;type:app_role_enum;not null"`
	ReferenceID  *uuid.UUID             `gorm:"column:reference_id;type:uuid"`
	Note         *string                `gorm:"column:note"`
	CreatedAt    time.Time              `gorm:"column:created_at;not null;index"`
}

func (e *StockEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
