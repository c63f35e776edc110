package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Entry is one operator action to record.
type Entry struct {
	Action     enums.AuditAction
	EntityType enums.AuditEntityType
	EntityID   string
	Details    map[string]any
	Actor      auth.Actor
}

// LogEntry is the API shape of an audit row.
type LogEntry struct {
	ID         uuid.UUID             `json:"id"`
	Action     enums.AuditAction     `json:"action"`
	EntityType enums.AuditEntityType `json:"entity_type"`
	EntityID   *string               `json:"entity_id,omitempty"`
	Details    json.RawMessage       `json:"details,omitempty"`
	UserID     uuid.UUID             `json:"user_id"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ListParams combines filters with cursor pagination.
type ListParams struct {
	Filter
	pagination.Params
}

// Service records and lists audit entries. Recording always happens inside the
// caller's transaction so the log never disagrees with the data.
type Service interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[LogEntry], error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if entry.Actor.UserID == uuid.Nil {
		return fmt.Errorf("audit entry requires an actor")
	}
	details := map[string]any{"actor_role": entry.Actor.Role}
	for k, v := range entry.Details {
		details[k] = v
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	row := &models.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		Details:    raw,
		UserID:     entry.Actor.UserID,
		CreatedAt:  s.now(),
	}
	if entry.EntityID != "" {
		id := entry.EntityID
		row.EntityID = &id
	}
	return s.repo.WithTx(tx).Create(ctx, row)
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[LogEntry], error) {
	if err := actor.Require(auth.PermReadAudit); err != nil {
		return pagination.Page[LogEntry]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[LogEntry]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params.Filter, cursor, params.Limit)
	if err != nil {
		return pagination.Page[LogEntry]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}
	entries := make([]LogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LogEntry{
			ID:         row.ID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Details:    row.Details,
			UserID:     row.UserID,
			CreatedAt:  row.CreatedAt,
		})
	}
	return pagination.Trim(entries, params.Limit, func(e LogEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	}), nil
}
