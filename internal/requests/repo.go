package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// ErrRequestNotFound is returned when a request id does not exist.
var ErrRequestNotFound = errors.New("blood request not found")

// Repository persists requests and their issuances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.BloodRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BloodRequest, error)
	List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.BloodRequest, error)
	// Transition moves a request from one status to another and reports
	// whether the row was still in the expected status.
	Transition(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, actorID uuid.UUID, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, status enums.RequestStatus) (int64, error)
	CreateIssuance(ctx context.Context, issuance *models.Issuance) error
	FindIssuanceByRequest(ctx context.Context, requestID uuid.UUID) (*models.Issuance, error)
	ListIssuances(ctx context.Context, params IssuanceListParams, cursor *pagination.Cursor) ([]models.Issuance, error)
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

func (r *repository) Create(ctx context.Context, request *models.BloodRequest) error {
	return r.db.WithContext(ctx).Omit("Recipient").Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BloodRequest, error) {
	var request models.BloodRequest
	err := r.db.WithContext(ctx).
		Preload("Recipient").
		Where("id = ?", id).
		Take(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, params ListParams, cursor *pagination.Cursor) ([]models.BloodRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.BloodRequest{}).Preload("Recipient")
	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := db.ContainsPattern(q)
		recipients := r.db.Model(&models.Recipient{}).
			Select("id").
			Where(`LOWER(full_name) LIKE ? ESCAPE '\'`, pattern)
		query = query.Where(
			`(LOWER(CAST(blood_group AS TEXT)) LIKE ? ESCAPE '\' OR LOWER(CAST(status AS TEXT)) LIKE ? ESCAPE '\' OR recipient_id IN (?))`,
			pattern, pattern, recipients,
		)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.BloodGroup != nil {
		query = query.Where("blood_group = ?", *params.BloodGroup)
	}
	if params.RecipientID != nil {
		query = query.Where("recipient_id = ?", *params.RecipientID)
	}
	var rows []models.BloodRequest
	if err := pagination.Apply(query, "created_at", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, actorID uuid.UUID, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if from == enums.RequestStatusPending {
		updates["decided_by"] = actorID
		updates["decided_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.BloodRequest{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CountByStatus(ctx context.Context, status enums.RequestStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BloodRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateIssuance(ctx context.Context, issuance *models.Issuance) error {
	return r.db.WithContext(ctx).Create(issuance).Error
}

func (r *repository) FindIssuanceByRequest(ctx context.Context, requestID uuid.UUID) (*models.Issuance, error) {
	var issuance models.Issuance
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&issuance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &issuance, nil
}

func (r *repository) ListIssuances(ctx context.Context, params IssuanceListParams, cursor *pagination.Cursor) ([]models.Issuance, error) {
	query := r.db.WithContext(ctx).Model(&models.Issuance{})
	if params.BloodGroup != nil {
		query = query.Where("blood_group = ?", *params.BloodGroup)
	}
	if params.RecipientID != nil {
		query = query.Where("recipient_id = ?", *params.RecipientID)
	}
	var rows []models.Issuance
	if err := pagination.Apply(query, "created_at", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
