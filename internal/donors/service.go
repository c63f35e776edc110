package donors

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
	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Service manages donor registration and lookup.
type Service interface {
	Register(ctx context.Context, actor auth.Actor, input RegisterDonorInput) (*DonorDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*DonorDTO, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[DonorDTO], error)
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

func NewService(repo Repository, tx txRunner, recorder auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("donor repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, audit: recorder, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, actor auth.Actor, input RegisterDonorInput) (*DonorDTO, error) {
	if err := actor.Require(auth.PermManageDonors); err != nil {
		return nil, err
	}
	donor, err := s.buildDonor(actor, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, donor); err != nil {
			if db.IsUniqueViolation(err, "donors_email_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a donor with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create donor")
		}
		return s.audit.RecordTx(ctx, tx, audit.Entry{
			Action:     enums.AuditDonorRegistered,
			EntityType: enums.AuditEntityDonor,
			EntityID:   donor.ID.String(),
			Details:    map[string]any{"blood_group": donor.BloodGroup},
			Actor:      actor,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*donor)
	return &dto, nil
}

func (s *service) buildDonor(actor auth.Actor, input RegisterDonorInput) (*models.Donor, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if !input.BloodGroup.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid blood group %q", input.BloodGroup))
	}
	if input.DateOfBirth.IsZero() || !input.DateOfBirth.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date of birth must be in the past")
	}
	status := input.Status
	if status == "" {
		status = enums.DonorStatusEligible
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid donor status %q", status))
	}
	return &models.Donor{
		FullName:          name,
		Email:             &email,
		Phone:             phone,
		DateOfBirth:       truncateDay(input.DateOfBirth),
		BloodGroup:        input.BloodGroup,
		Address:           trimmedOrNil(input.Address),
		MedicalConditions: trimmedOrNil(input.MedicalConditions),
		Status:            status,
		CreatedBy:         actor.UserID,
	}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*DonorDTO, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	donor, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrDonorNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "donor not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donor")
	}
	dto := FromModel(*donor)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[DonorDTO], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[DonorDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[DonorDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return pagination.Page[DonorDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donors")
	}
	items := make([]DonorDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return pagination.Trim(items, params.Limit, func(d DonorDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
