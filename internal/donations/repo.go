package donations

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Repository persists donations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, donation *models.Donation) error
	List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.Donation, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Omit("Donor").Create(donation).Error
}

func (r *repository) List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.Donation, error) {
	query := r.db.WithContext(ctx).Model(&models.Donation{}).Preload("Donor")
	if params.DonorID != nil {
		query = query.Where("donor_id = ?", *params.DonorID)
	}
	if params.BloodGroup != nil {
		query = query.Where("blood_group = ?", *params.BloodGroup)
	}
	if params.Since != nil {
		query = query.Where("donation_date >= ?", params.Since.UTC())
	}
	var rows []models.Donation
	if err := pagination.Apply(query, "created_at", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("donation_date >= ?", since.UTC()).
		Count(&count).Error
	return count, err
}
