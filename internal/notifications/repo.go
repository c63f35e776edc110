package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// ErrAlertNotFound is returned when an alert id does not exist.
var ErrAlertNotFound = errors.New("stock alert not found")

// Repository exposes persistence helpers for stock alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.StockAlert) error
	List(ctx context.Context, params listAlertsParams) ([]models.StockAlert, error)
	Acknowledge(ctx context.Context, alertID, userID uuid.UUID, now time.Time) (ackResult, error)
	CountOpen(ctx context.Context) (int64, error)
	DeleteAcknowledgedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an alerts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listAlertsParams struct {
	OpenOnly bool
	Group    *enums.BloodGroup
	Limit    int
	Cursor   *pagination.Cursor
}

type ackResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, alert *models.StockAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listAlertsParams) ([]models.StockAlert, error) {
	query := r.db.WithContext(ctx).Model(&models.StockAlert{})
	if params.OpenOnly {
		query = query.Where("acknowledged_at IS NULL")
	}
	if params.Group != nil {
		query = query.Where("blood_group = ?", *params.Group)
	}
	var alerts []models.StockAlert
	if err := pagination.Apply(query, "created_at", params.Cursor, params.Limit).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repositoryImpl) Acknowledge(ctx context.Context, alertID, userID uuid.UUID, now time.Time) (ackResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("id = ? AND acknowledged_at IS NULL", alertID).
		UpdateColumns(map[string]any{
			"acknowledged_at": now,
			"acknowledged_by": userID,
		})
	if result.Error != nil {
		return ackResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return ackResult{Updated: true, Found: true}, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("id = ?", alertID).
		Count(&count).Error; err != nil {
		return ackResult{}, err
	}
	return ackResult{Found: count > 0}, nil
}

func (r *repositoryImpl) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("acknowledged_at IS NULL").
		Count(&count).Error
	return count, err
}

// DeleteAcknowledgedBefore purges alerts acknowledged before cutoff. Open alerts are kept.
func (r *repositoryImpl) DeleteAcknowledgedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Where("acknowledged_at IS NOT NULL AND acknowledged_at < ?", cutoff).
		Delete(&models.StockAlert{})
	return result.RowsAffected, result.Error
}
