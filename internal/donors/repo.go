package donors

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// ErrDonorNotFound is returned when a donor id does not exist.
var ErrDonorNotFound = errors.New("donor not found")

// Repository persists donors.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, donor *models.Donor) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Donor, error)
	List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.Donor, error)
	RecordDonation(ctx context.Context, id uuid.UUID, donatedOn, nextEligible time.Time) error
	Count(ctx context.Context) (int64, error)
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

func (r *repository) Create(ctx context.Context, donor *models.Donor) error {
	return r.db.WithContext(ctx).Create(donor).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Donor, error) {
	var donor models.Donor
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&donor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDonorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

func (r *repository) List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.Donor, error) {
	query := r.db.WithContext(ctx).Model(&models.Donor{})
	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := db.ContainsPattern(q)
		query = query.Where(
			`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(email, '')) LIKE ? ESCAPE '\' OR LOWER(CAST(blood_group AS TEXT)) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}
	if params.BloodGroup != nil {
		query = query.Where("blood_group = ?", *params.BloodGroup)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var rows []models.Donor
	if err := pagination.Apply(query, "created_at", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RecordDonation(ctx context.Context, id uuid.UUID, donatedOn, nextEligible time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Donor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_donation_date": donatedOn,
			"next_eligible_date": nextEligible,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDonorNotFound
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Donor{}).Count(&count).Error
	return count, err
}
