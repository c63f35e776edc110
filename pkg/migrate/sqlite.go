package migrate

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// AutoMigrateSQLite builds the schema from the models and seeds one stock row
// per blood group. Used for local sqlite runs and tests.
func AutoMigrateSQLite(ctx context.Context, conn *gorm.DB, defaultThreshold int) error {
	if err := conn.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedBloodStock(ctx, conn, defaultThreshold)
}

// SeedBloodStock inserts a zero balance for any group without a row. Existing rows are untouched.
func SeedBloodStock(ctx context.Context, conn *gorm.DB, threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("threshold must be >= 0")
	}
	now := time.Now().UTC()
	rows := make([]models.BloodStock, 0, len(enums.BloodGroups()))
	for _, group := range enums.BloodGroups() {
		rows = append(rows, models.BloodStock{
			BloodGroup:        group,
			UnitsAvailable:    0,
			LowStockThreshold: threshold,
			UpdatedAt:         now,
		})
	}
	err := conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed blood stock: %w", err)
	}
	return nil
}
