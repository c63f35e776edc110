package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Service defines stock alert list/acknowledge operations.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[models.StockAlert], error)
	Acknowledge(ctx context.Context, actor auth.Actor, alertID uuid.UUID) error
	CountOpen(ctx context.Context, actor auth.Actor) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type service struct {
	repo  Repository
	tx    txRunner
	audit auditRecorder
	now   func() time.Time
}

// ListParams configures filtering and pagination for alerts.
type ListParams struct {
	OpenOnly bool
	Group    *enums.BloodGroup
	pagination.Params
}

// NewService returns a stock alert service.
func NewService(repo Repository, tx txRunner, recorder auditRecorder) (Service, error) {
	if repo == nil {
		return nil, errors.New("alerts repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		audit: recorder,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[models.StockAlert], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[models.StockAlert]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.StockAlert]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	alerts, err := s.repo.List(ctx, listAlertsParams{
		OpenOnly: params.OpenOnly,
		Group:    params.Group,
		Limit:    params.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return pagination.Page[models.StockAlert]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock alerts")
	}
	return pagination.Trim(alerts, params.Limit, func(a models.StockAlert) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	}), nil
}

func (s *service) Acknowledge(ctx context.Context, actor auth.Actor, alertID uuid.UUID) error {
	if err := actor.Require(auth.PermAckAlerts); err != nil {
		return err
	}
	if alertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.repo.WithTx(tx).Acknowledge(ctx, alertID, actor.UserID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acknowledge stock alert")
		}
		if !result.Found {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrAlertNotFound, "stock alert not found")
		}
		if !result.Updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock alert already acknowledged")
		}
		return s.audit.RecordTx(ctx, tx, audit.Entry{
			Action:     enums.AuditAlertAcknowledged,
			EntityType: enums.AuditEntityStockAlert,
			EntityID:   alertID.String(),
			Actor:      actor,
		})
	})
}

func (s *service) CountOpen(ctx context.Context, actor auth.Actor) (int64, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return 0, err
	}
	count, err := s.repo.CountOpen(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open stock alerts")
	}
	return count, nil
}
