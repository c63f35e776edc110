package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	"github.com/angelmondragon/bloodbank-backend/pkg/metrics"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Service is the blood stock ledger. ApplyDelta (directly or through
// WithinGroup) is the only way units change.
type Service interface {
	Balances(ctx context.Context, actor auth.Actor) ([]Balance, error)
	Balance(ctx context.Context, actor auth.Actor, group enums.BloodGroup) (*Balance, error)
	TotalUnits(ctx context.Context, actor auth.Actor) (int, error)
	LowStock(ctx context.Context, actor auth.Actor) ([]Balance, error)
	Summary(ctx context.Context, actor auth.Actor) (*Summary, error)
	ApplyDelta(ctx context.Context, actor auth.Actor, input DeltaInput) (*Balance, error)
	WithinGroup(ctx context.Context, group enums.BloodGroup, fn func(tx *GroupTx) error) error
	SetThreshold(ctx context.Context, actor auth.Actor, group enums.BloodGroup, threshold int) (*Balance, error)
	Events(ctx context.Context, actor auth.Actor, params EventListParams) (pagination.Page[StockEvent], error)
}

// ChangeNotifier fans committed balance changes out to live subscribers.
type ChangeNotifier interface {
	Publish(ctx context.Context, change BalanceChange) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// ServiceParams wires the ledger dependencies. Notifier and Metrics are optional.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Outbox            outboxEmitter
	Audit             auditRecorder
	Notifier          ChangeNotifier
	Metrics           *metrics.StockMetrics
	Logger            *logger.Logger
	ReadRetryAttempts int
	ReadRetryBackoff  time.Duration
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxEmitter
	audit         auditRecorder
	notifier      ChangeNotifier
	metrics       *metrics.StockMetrics
	logg          *logger.Logger
	locks         groupLocks
	retryAttempts int
	retryBackoff  time.Duration
	now           func() time.Time
}

// NewService builds the ledger.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	attempts := params.ReadRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		outbox:        params.Outbox,
		audit:         params.Audit,
		notifier:      params.Notifier,
		metrics:       params.Metrics,
		logg:          logg,
		locks:         newGroupLocks(),
		retryAttempts: attempts,
		retryBackoff:  params.ReadRetryBackoff,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Balances(ctx context.Context, actor auth.Actor) ([]Balance, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	return s.balances(ctx)
}

func (s *service) balances(ctx context.Context) ([]Balance, error) {
	var rows []models.BloodStock
	err := s.read(ctx, "list balances", func(ctx context.Context) error {
		var err error
		rows, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	byGroup := make(map[enums.BloodGroup]models.BloodStock, len(rows))
	for _, row := range rows {
		byGroup[row.BloodGroup] = row
	}
	out := make([]Balance, 0, len(enums.BloodGroups()))
	for _, group := range enums.BloodGroups() {
		row, ok := byGroup[group]
		if !ok {
			return nil, persistence("list balances", fmt.Errorf("%w: %s", ErrStockRowMissing, group))
		}
		out = append(out, balanceFromModel(row))
	}
	return out, nil
}

func (s *service) Balance(ctx context.Context, actor auth.Actor, group enums.BloodGroup) (*Balance, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	if err := requireGroup(group); err != nil {
		return nil, err
	}
	var row *models.BloodStock
	err := s.read(ctx, "get balance", func(ctx context.Context) error {
		var err error
		row, err = s.repo.Get(ctx, group)
		return err
	})
	if err != nil {
		return nil, err
	}
	balance := balanceFromModel(*row)
	return &balance, nil
}

func (s *service) TotalUnits(ctx context.Context, actor auth.Actor) (int, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return 0, err
	}
	var total int
	err := s.read(ctx, "sum units", func(ctx context.Context) error {
		var err error
		total, err = s.repo.SumUnits(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *service) LowStock(ctx context.Context, actor auth.Actor) ([]Balance, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	all, err := s.balances(ctx)
	if err != nil {
		return nil, err
	}
	return filterLow(all), nil
}

// Summary derives totals from a single read so they always agree with the balances shown.
func (s *service) Summary(ctx context.Context, actor auth.Actor) (*Summary, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	all, err := s.balances(ctx)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Balances: all}
	for _, b := range all {
		summary.TotalUnits += b.UnitsAvailable
	}
	summary.LowGroups = len(filterLow(all))
	return summary, nil
}

func filterLow(all []Balance) []Balance {
	out := make([]Balance, 0, len(all))
	for _, b := range all {
		if b.Status.NeedsAttention() {
			out = append(out, b)
		}
	}
	return out
}

func (s *service) ApplyDelta(ctx context.Context, actor auth.Actor, input DeltaInput) (*Balance, error) {
	perm, err := permissionFor(input.Reason)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(perm); err != nil {
		return nil, err
	}
	if input.Reason == enums.StockReasonManualAdjustment && (input.Note == nil || *input.Note == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manual adjustments require a note")
	}

	var out *Balance
	err = s.WithinGroup(ctx, input.Group, func(tx *GroupTx) error {
		balance, err := tx.ApplyDelta(ctx, actor, input)
		if err != nil {
			return err
		}
		if input.Reason == enums.StockReasonManualAdjustment {
			if err := s.audit.RecordTx(ctx, tx.DB(), audit.Entry{
				Action:     enums.AuditStockAdjusted,
				EntityType: enums.AuditEntityBloodStock,
				EntityID:   input.Group.String(),
				Details: map[string]any{
					"delta":         input.Delta,
					"balance_after": balance.UnitsAvailable,
					"note":          *input.Note,
				},
				Actor: actor,
			}); err != nil {
				return persistence("record adjustment audit", err)
			}
		}
		out = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func permissionFor(reason enums.StockEventReason) (auth.Permission, error) {
	switch reason {
	case enums.StockReasonDonation:
		return auth.PermRecordDonation, nil
	case enums.StockReasonIssuance:
		return auth.PermIssueBlood, nil
	case enums.StockReasonManualAdjustment:
		return auth.PermAdjustStock, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock event reason %q", reason))
	}
}

// WithinGroup holds the group lock for the lifetime of one transaction and runs
// fn inside it. Changes applied through the GroupTx are announced only after the
// transaction commits. Errors from fn are returned unchanged.
func (s *service) WithinGroup(ctx context.Context, group enums.BloodGroup, fn func(tx *GroupTx) error) error {
	if err := requireGroup(group); err != nil {
		return err
	}
	lock := s.locks.get(group)
	lock.Lock()
	started := time.Now()
	defer func() {
		lock.Unlock()
		s.metrics.ObserveLockHeld(group.String(), time.Since(started))
	}()

	gtx := &GroupTx{svc: s, group: group}
	var fnErr error
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		gtx.tx = tx
		fnErr = fn(gtx)
		return fnErr
	})
	if fnErr != nil || err != nil {
		for _, change := range gtx.changes {
			s.metrics.ObserveMutation(group.String(), change.Reason.String(), metrics.ResultError)
		}
		if fnErr != nil {
			return fnErr
		}
		return persistence("commit stock transaction", err)
	}

	s.afterCommit(ctx, gtx.changes)
	return nil
}

func (s *service) afterCommit(ctx context.Context, changes []BalanceChange) {
	for _, change := range changes {
		s.metrics.ObserveMutation(change.BloodGroup.String(), change.Reason.String(), metrics.ResultApplied)
		s.metrics.SetUnits(change.BloodGroup.String(), change.UnitsAvailable)

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"blood_group":     change.BloodGroup,
			"delta":           change.Delta,
			"reason":          change.Reason,
			"units_available": change.UnitsAvailable,
			"status":          change.Status,
		})
		s.logg.Info(logCtx, "stock balance changed")

		if s.notifier == nil {
			continue
		}
		if err := s.notifier.Publish(ctx, change); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "stock change notification failed")
		}
	}
}

func (s *service) SetThreshold(ctx context.Context, actor auth.Actor, group enums.BloodGroup, threshold int) (*Balance, error) {
	if err := actor.Require(auth.PermManageThresholds); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > MaxUnits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("threshold must be between 0 and %d", MaxUnits))
	}

	var out *Balance
	err := s.WithinGroup(ctx, group, func(tx *GroupTx) error {
		repo := s.repo.WithTx(tx.DB())
		before, err := repo.Get(ctx, group)
		if err != nil {
			return persistence("load stock row", err)
		}
		updated, err := repo.SetThreshold(ctx, group, threshold)
		if err != nil {
			return persistence("update threshold", err)
		}
		if !updated {
			return persistence("update threshold", ErrStockRowMissing)
		}
		after := *before
		after.LowStockThreshold = threshold
		balance := balanceFromModel(after)

		previous := Classify(before.UnitsAvailable, before.LowStockThreshold)
		if err := tx.emitLowIfCrossed(ctx, actor, balance, previous); err != nil {
			return err
		}
		if err := s.audit.RecordTx(ctx, tx.DB(), audit.Entry{
			Action:     enums.AuditThresholdChanged,
			EntityType: enums.AuditEntityBloodStock,
			EntityID:   group.String(),
			Details: map[string]any{
				"previous_threshold": before.LowStockThreshold,
				"threshold":          threshold,
			},
			Actor: actor,
		}); err != nil {
			return persistence("record threshold audit", err)
		}
		out = &balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Events(ctx context.Context, actor auth.Actor, params EventListParams) (pagination.Page[StockEvent], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[StockEvent]{}, err
	}
	if params.Group != nil {
		if err := requireGroup(*params.Group); err != nil {
			return pagination.Page[StockEvent]{}, err
		}
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[StockEvent]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var rows []models.StockEvent
	err = s.read(ctx, "list stock events", func(ctx context.Context) error {
		var err error
		rows, err = s.repo.ListEvents(ctx, params.EventFilter, cursor, params.Limit)
		return err
	})
	if err != nil {
		return pagination.Page[StockEvent]{}, err
	}
	events := make([]StockEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, stockEventFromModel(row))
	}
	return pagination.Trim(events, params.Limit, func(e StockEvent) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	}), nil
}

// GroupTx is the handle passed to WithinGroup callbacks. It is only valid
// inside the callback.
type GroupTx struct {
	svc     *service
	group   enums.BloodGroup
	tx      *gorm.DB
	changes []BalanceChange
}

// DB exposes the transaction so callers can write their own rows atomically
// with the balance change.
func (t *GroupTx) DB() *gorm.DB {
	return t.tx
}

// Group is the blood group whose lock is held.
func (t *GroupTx) Group() enums.BloodGroup {
	return t.group
}

// Balance reads the current balance inside the transaction.
func (t *GroupTx) Balance(ctx context.Context) (*Balance, error) {
	row, err := t.svc.repo.WithTx(t.tx).Get(ctx, t.group)
	if err != nil {
		return nil, persistence("load stock row", err)
	}
	balance := balanceFromModel(*row)
	return &balance, nil
}

// ApplyDelta changes the locked group's balance, rejecting any result below
// zero, and records the stock event and outbox rows in the same transaction.
// Permission checks are the caller's responsibility.
func (t *GroupTx) ApplyDelta(ctx context.Context, actor auth.Actor, input DeltaInput) (*Balance, error) {
	s := t.svc
	if input.Group != t.group {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("lock held for %s, delta targets %s", t.group, input.Group))
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if input.Delta > MaxUnits || input.Delta < -MaxUnits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("delta must be within ±%d", MaxUnits))
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock event reason %q", input.Reason))
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	fail := func(result string, err error) (*Balance, error) {
		s.metrics.ObserveMutation(t.group.String(), input.Reason.String(), result)
		return nil, err
	}

	repo := s.repo.WithTx(t.tx)
	before, err := repo.Get(ctx, t.group)
	if err != nil {
		return fail(metrics.ResultError, persistence("load stock row", err))
	}
	if before.UnitsAvailable+input.Delta < 0 {
		return fail(metrics.ResultInsufficient, insufficientStock(t.group, before.UnitsAvailable, -input.Delta))
	}
	if before.UnitsAvailable+input.Delta > MaxUnits {
		return fail(metrics.ResultError, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s balance would exceed %d units", t.group, MaxUnits)))
	}

	now := s.now()
	updated, err := repo.ApplyDelta(ctx, t.group, input.Delta, now)
	if err != nil {
		return fail(metrics.ResultError, persistence("apply delta", err))
	}
	if !updated {
		// another instance moved the balance between our read and the update
		current, err := repo.Get(ctx, t.group)
		if err != nil {
			return fail(metrics.ResultError, persistence("apply delta", err))
		}
		return fail(metrics.ResultInsufficient, insufficientStock(t.group, current.UnitsAvailable, -input.Delta))
	}

	after, err := repo.Get(ctx, t.group)
	if err != nil {
		return fail(metrics.ResultError, persistence("reload stock row", err))
	}
	balance := balanceFromModel(*after)
	previous := Classify(before.UnitsAvailable, before.LowStockThreshold)

	event := &models.StockEvent{
		BloodGroup:   t.group,
		Delta:        input.Delta,
		Reason:       input.Reason,
		BalanceAfter: after.UnitsAvailable,
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		ReferenceID:  input.ReferenceID,
		Note:         input.Note,
		CreatedAt:    now,
	}
	if err := repo.InsertEvent(ctx, event); err != nil {
		return fail(metrics.ResultError, persistence("insert stock event", err))
	}

	if err := s.outbox.Emit(ctx, t.tx, outbox.DomainEvent{
		EventType:     enums.EventStockBalanceChanged,
		AggregateType: enums.AggregateBloodStock,
		AggregateID:   t.group.String(),
		Actor:         actorRef(actor),
		Data: payloads.StockBalanceChangedEvent{
			BloodGroup:        t.group,
			Delta:             input.Delta,
			Reason:            input.Reason,
			UnitsAvailable:    balance.UnitsAvailable,
			LowStockThreshold: balance.LowStockThreshold,
			Status:            balance.Status,
			ReferenceID:       input.ReferenceID,
			UpdatedAt:         balance.UpdatedAt,
		},
		OccurredAt: now,
	}); err != nil {
		return fail(metrics.ResultError, persistence("emit stock event", err))
	}
	if err := t.emitLowIfCrossed(ctx, actor, balance, previous); err != nil {
		return fail(metrics.ResultError, err)
	}

	t.changes = append(t.changes, BalanceChange{
		Balance:        balance,
		Delta:          input.Delta,
		Reason:         input.Reason,
		PreviousStatus: previous,
		ReferenceID:    input.ReferenceID,
		ActorUserID:    actor.UserID,
	})
	return &balance, nil
}

func (t *GroupTx) emitLowIfCrossed(ctx context.Context, actor auth.Actor, balance Balance, previous enums.StockStatus) error {
	if balance.Status == previous || !balance.Status.NeedsAttention() {
		return nil
	}
	err := t.svc.outbox.Emit(ctx, t.tx, outbox.DomainEvent{
		EventType:     enums.EventStockLow,
		AggregateType: enums.AggregateBloodStock,
		AggregateID:   t.group.String(),
		Actor:         actorRef(actor),
		Data: payloads.StockLowEvent{
			BloodGroup:        balance.BloodGroup,
			UnitsAvailable:    balance.UnitsAvailable,
			LowStockThreshold: balance.LowStockThreshold,
			Status:            balance.Status,
			PreviousStatus:    previous,
		},
	})
	if err != nil {
		return persistence("emit stock low event", err)
	}
	return nil
}

func actorRef(actor auth.Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
}
