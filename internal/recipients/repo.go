package recipients

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// ErrRecipientNotFound is returned when a recipient id does not exist.
var ErrRecipientNotFound = errors.New("recipient not found")

// Repository persists recipients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, recipient *models.Recipient) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Recipient, error)
	List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.Recipient, error)
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

func (r *repository) Create(ctx context.Context, recipient *models.Recipient) error {
	return r.db.WithContext(ctx).Create(recipient).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Recipient, error) {
	var recipient models.Recipient
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&recipient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (r *repository) List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.Recipient, error) {
	query := r.db.WithContext(ctx).Model(&models.Recipient{})
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
	var rows []models.Recipient
	if err := pagination.Apply(query, "created_at", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Recipient{}).Count(&count).Error
	return count, err
}
