package recipients

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
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

// Service manages recipients, the patients blood is requested for.
type Service interface {
	Register(ctx context.Context, actor auth.Actor, input RegisterRecipientInput) (*RecipientDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*RecipientDTO, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[RecipientDTO], error)
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
}

func NewService(repo Repository, tx txRunner, recorder auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recipient repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, audit: recorder}, nil
}

func (s *service) Register(ctx context.Context, actor auth.Actor, input RegisterRecipientInput) (*RecipientDTO, error) {
	if err := actor.Require(auth.PermManageRecipients); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	email := optional(input.Email)
	if email != nil {
		lowered := strings.ToLower(*email)
		if _, err := mail.ParseAddress(lowered); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		email = &lowered
	}
	if !input.BloodGroup.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid blood group %q", input.BloodGroup))
	}
	if input.DateOfBirth.IsZero() || !input.DateOfBirth.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date of birth must be in the past")
	}

	y, m, d := input.DateOfBirth.Date()
	recipient := &models.Recipient{
		FullName:            name,
		Phone:               phone,
		Email:               email,
		DateOfBirth:         time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		BloodGroup:          input.BloodGroup,
		HospitalName:        optional(input.HospitalName),
		MedicalRecordNumber: optional(input.MedicalRecordNumber),
		Address:             optional(input.Address),
		CreatedBy:           actor.UserID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, recipient); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create recipient")
		}
		return s.audit.RecordTx(ctx, tx, audit.Entry{
			Action:     enums.AuditRecipientRegistered,
			EntityType: enums.AuditEntityRecipient,
			EntityID:   recipient.ID.String(),
			Details:    map[string]any{"blood_group": recipient.BloodGroup},
			Actor:      actor,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*recipient)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*RecipientDTO, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	recipient, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrRecipientNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipient not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}
	dto := FromModel(*recipient)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[RecipientDTO], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[RecipientDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[RecipientDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return pagination.Page[RecipientDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipients")
	}
	items := make([]RecipientDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return pagination.Trim(items, params.Limit, func(r RecipientDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	}), nil
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
