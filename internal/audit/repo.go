package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Repository persists audit entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.AuditLog, error)
}

// Filter narrows audit listings.
type Filter struct {
	Action     *enums.AuditAction
	EntityType *enums.AuditEntityType
	EntityID   *string
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

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	var rows []models.AuditLog
	if err := pagination.Apply(query, "created_at", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
