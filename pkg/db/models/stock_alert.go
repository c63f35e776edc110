package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// StockAlert is raised once per stock_low event and stays open until acknowledged.
type StockAlert struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID           uuid.UUID         `gorm:"column:event_id;type:uuid;not null;uniqueIndex:stock_alerts_event_id_key" json:"event_id"`
	BloodGroup        enums.BloodGroup  `gorm:"column:blood_group;type:blood_group_enum;not null;index" json:"blood_group"`
	Status            enums.StockStatus `gorm:"column:status;not null" json:"status"`
	UnitsAvailable    int               `gorm:"column:units_available;not null" json:"units_available"`
	LowStockThreshold int               `gorm:"column:low_stock_threshold;not null" json:"low_stock_threshold"`
	AcknowledgedBy    *uuid.UUID        `gorm:"column:acknowledged_by;type:uuid" json:"acknowledged_by,omitempty"`
	AcknowledgedAt    *time.Time        `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt         time.Time         `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (a *StockAlert) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
