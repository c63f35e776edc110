package models

import (
	"time"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// BloodStock is the per-group unit balance. Exactly one row exists per group.
type BloodStock struct {
	BloodGroup        enums.BloodGroup `gorm:"column:blood_group;type:blood_group_enum;primaryKey"`
	UnitsAvailable    int              `gorm:"column:units_available;not null;default:0;check:chk_blood_stock_units_non_negative,units_available >= 0"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:10;check:chk_blood_stock_threshold_non_negative,low_stock_threshold >= 0"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;not null"`
}

func (BloodStock) TableName() string { return "blood_stock" }
