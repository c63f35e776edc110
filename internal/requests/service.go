package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/internal/recipients"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Service runs the request lifecycle: pending -> approved -> issued, or
// pending -> rejected.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateRequestInput) (*RequestDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*RequestDTO, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[RequestDTO], error)
	Approve(ctx context.Context, actor auth.Actor, id uuid.UUID) (*RequestDTO, error)
	Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*RequestDTO, error)
	Issue(ctx context.Context, actor auth.Actor, id uuid.UUID, input IssueInput) (*IssuanceDTO, error)
	ListIssuances(ctx context.Context, actor auth.Actor, params IssuanceListParams) (pagination.Page[IssuanceDTO], error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledger interface {
	WithinGroup(ctx context.Context, group enums.BloodGroup, fn func(tx *inventory.GroupTx) error) error
}

type recipientLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Recipient, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type service struct {
	repo       Repository
	tx         txRunner
	ledger     ledger
	recipients recipientLookup
	outbox     outboxPublisher
	audit      auditRecorder
	now        func() time.Time
}

// NewService wires the request service.
func NewService(repo Repository, tx txRunner, stock ledger, recipientsRepo recipientLookup, outbox outboxPublisher, recorder auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("request repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if recipientsRepo == nil {
		return nil, fmt.Errorf("recipient repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		ledger:     stock,
		recipients: recipientsRepo,
		outbox:     outbox,
		audit:      recorder,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateRequestInput) (*RequestDTO, error) {
	if err := actor.Require(auth.PermManageRequests); err != nil {
		return nil, err
	}
	if input.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	if !input.BloodGroup.IsValid() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, inventory.ErrUnknownGroup, fmt.Sprintf("unknown blood group %q", input.BloodGroup))
	}
	if input.UnitsRequested <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units requested must be positive")
	}
	urgency := input.UrgencyLevel
	if urgency == "" {
		urgency = enums.UrgencyRoutine
	}
	if !urgency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid urgency level %q", urgency))
	}

	recipient, err := s.recipients.FindByID(ctx, input.RecipientID)
	if errors.Is(err, recipients.ErrRecipientNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipient not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}

	now := s.now()
	request := &models.BloodRequest{
		RecipientID:    recipient.ID,
		BloodGroup:     input.BloodGroup,
		UnitsRequested: input.UnitsRequested,
		UrgencyLevel:   urgency,
		RequiredBy:     input.RequiredBy,
		Notes:          trimmed(input.Notes),
		Status:         enums.RequestStatusPending,
		CreatedBy:      actor.UserID,
		RequestDate:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create blood request")
		}
		return s.recordTransition(ctx, tx, actor, request, enums.EventRequestCreated, enums.AuditRequestCreated, "")
	})
	if err != nil {
		return nil, err
	}
	request.Recipient = recipient
	dto := requestFromModel(*request)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*RequestDTO, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	request, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := requestFromModel(*request)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[RequestDTO], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[RequestDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list blood requests")
	}
	items := make([]RequestDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, requestFromModel(row))
	}
	return pagination.Trim(items, params.Limit, func(r RequestDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	}), nil
}

func (s *service) Approve(ctx context.Context, actor auth.Actor, id uuid.UUID) (*RequestDTO, error) {
	return s.decide(ctx, actor, id, enums.RequestStatusApproved, "")
}

func (s *service) Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*RequestDTO, error) {
	return s.decide(ctx, actor, id, enums.RequestStatusRejected, strings.TrimSpace(reason))
}

func (s *service) decide(ctx context.Context, actor auth.Actor, id uuid.UUID, to enums.RequestStatus, reason string) (*RequestDTO, error) {
	if err := actor.Require(auth.PermManageRequests); err != nil {
		return nil, err
	}
	event, action := enums.EventRequestApproved, enums.AuditRequestApproved
	if to == enums.RequestStatusRejected {
		event, action = enums.EventRequestRejected, enums.AuditRequestRejected
	}

	var out *models.BloodRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !request.Status.CanTransitionTo(to) {
			return transitionConflict(request.Status, to)
		}
		now := s.now()
		ok, err := repo.Transition(ctx, id, request.Status, to, actor.UserID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		if !ok {
			return transitionConflict(request.Status, to)
		}
		request.Status = to
		request.DecidedBy = &actor.UserID
		request.DecidedAt = &now
		if err := s.recordTransition(ctx, tx, actor, request, event, action, reason); err != nil {
			return err
		}
		out = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := requestFromModel(*out)
	return &dto, nil
}

// Issue hands out the requested units. The stock debit, the issuance record and
// the status change commit together or not at all: on InsufficientStock the
// request stays approved and no issuance exists.
func (s *service) Issue(ctx context.Context, actor auth.Actor, id uuid.UUID, input IssueInput) (*IssuanceDTO, error) {
	if err := actor.Require(auth.PermIssueBlood); err != nil {
		return nil, err
	}
	request, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(enums.RequestStatusIssued) {
		return nil, transitionConflict(request.Status, enums.RequestStatusIssued)
	}

	var out IssuanceDTO
	err = s.ledger.WithinGroup(ctx, request.BloodGroup, func(gtx *inventory.GroupTx) error {
		tx := gtx.DB()
		repo := s.repo.WithTx(tx)

		// status may have moved while we waited for the group lock
		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if current.Status != enums.RequestStatusApproved {
			return transitionConflict(current.Status, enums.RequestStatusIssued)
		}

		balance, err := gtx.ApplyDelta(ctx, actor, inventory.DeltaInput{
			Group:       current.BloodGroup,
			Delta:       -current.UnitsRequested,
			Reason:      enums.StockReasonIssuance,
			ReferenceID: &current.ID,
		})
		if err != nil {
			return err
		}

		now := s.now()
		issuance := &models.Issuance{
			RequestID:   current.ID,
			RecipientID: current.RecipientID,
			BloodGroup:  current.BloodGroup,
			UnitsIssued: current.UnitsRequested,
			IssueDate:   now,
			IssuedBy:    actor.UserID,
			Notes:       trimmed(input.Notes),
			CreatedAt:   now,
		}
		if err := repo.CreateIssuance(ctx, issuance); err != nil {
			if db.IsUniqueViolation(err, "issuances_request_id_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "request already issued")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create issuance")
		}

		ok, err := repo.Transition(ctx, current.ID, enums.RequestStatusApproved, enums.RequestStatusIssued, actor.UserID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		if !ok {
			return transitionConflict(current.Status, enums.RequestStatusIssued)
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestIssued,
			AggregateType: enums.AggregateBloodRequest,
			AggregateID:   current.ID.String(),
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.RequestIssuedEvent{
				RequestID:    current.ID,
				IssuanceID:   issuance.ID,
				RecipientID:  current.RecipientID,
				BloodGroup:   current.BloodGroup,
				UnitsIssued:  issuance.UnitsIssued,
				BalanceAfter: balance.UnitsAvailable,
				IssuedAt:     now,
			},
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit request issued")
		}
		if err := s.audit.RecordTx(ctx, tx, audit.Entry{
			Action:     enums.AuditRequestIssued,
			EntityType: enums.AuditEntityRequest,
			EntityID:   current.ID.String(),
			Details: map[string]any{
				"issuance_id":   issuance.ID,
				"blood_group":   current.BloodGroup,
				"units_issued":  issuance.UnitsIssued,
				"balance_after": balance.UnitsAvailable,
			},
			Actor: actor,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record issuance audit")
		}

		out = issuanceFromModel(*issuance)
		after := balance.UnitsAvailable
		out.BalanceAfter = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) ListIssuances(ctx context.Context, actor auth.Actor, params IssuanceListParams) (pagination.Page[IssuanceDTO], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[IssuanceDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[IssuanceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListIssuances(ctx, params, cursor)
	if err != nil {
		return pagination.Page[IssuanceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list issuances")
	}
	items := make([]IssuanceDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, issuanceFromModel(row))
	}
	return pagination.Trim(items, params.Limit, func(i IssuanceDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	}), nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.BloodRequest, error) {
	request, err := repo.FindByID(ctx, id)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "blood request not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blood request")
	}
	return request, nil
}

func (s *service) recordTransition(ctx context.Context, tx *gorm.DB, actor auth.Actor, request *models.BloodRequest, event enums.OutboxEventType, action enums.AuditAction, reason string) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     event,
		AggregateType: enums.AggregateBloodRequest,
		AggregateID:   request.ID.String(),
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
		Data: payloads.RequestStatusEvent{
			RequestID:      request.ID,
			RecipientID:    request.RecipientID,
			BloodGroup:     request.BloodGroup,
			UnitsRequested: request.UnitsRequested,
			UrgencyLevel:   request.UrgencyLevel,
			Status:         request.Status,
			Reason:         reason,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("emit %s", event))
	}
	details := map[string]any{
		"blood_group":     request.BloodGroup,
		"units_requested": request.UnitsRequested,
		"status":          request.Status,
	}
	if reason != "" {
		details["reason"] = reason
	}
	if err := s.audit.RecordTx(ctx, tx, audit.Entry{
		Action:     action,
		EntityType: enums.AuditEntityRequest,
		EntityID:   request.ID.String(),
		Details:    details,
		Actor:      actor,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record request audit")
	}
	return nil
}

func transitionConflict(from, to enums.RequestStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("request cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"status": from, "target": to})
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
