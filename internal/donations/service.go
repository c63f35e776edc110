package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/internal/donors"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// DefaultIntervalDays is the minimum gap between whole-blood donations.
const DefaultIntervalDays = 56

type Service interface {
	Record(ctx context.Context, actor auth.Actor, input RecordDonationInput) (*DonationDTO, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[DonationDTO], error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type ledger interface {
	WithinGroup(ctx context.Context, group enums.BloodGroup, fn func(tx *inventory.GroupTx) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// ServiceParams wires the donation service.
type ServiceParams struct {
	Repo         Repository
	Donors       donors.Repository
	Ledger       ledger
	Outbox       outboxPublisher
	Audit        auditRecorder
	IntervalDays int
}

type service struct {
	repo     Repository
	donors   donors.Repository
	ledger   ledger
	outbox   outboxPublisher
	audit    auditRecorder
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("donation repository required")
	}
	if params.Donors == nil {
		return nil, fmt.Errorf("donor repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	days := params.IntervalDays
	if days <= 0 {
		days = DefaultIntervalDays
	}
	return &service{
		repo:     params.Repo,
		donors:   params.Donors,
		ledger:   params.Ledger,
		outbox:   params.Outbox,
		audit:    params.Audit,
		interval: time.Duration(days) * 24 * time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Record stores the donation, credits the donor's group and moves the donor's
// eligibility window forward, all in one transaction under the group lock.
func (s *service) Record(ctx context.Context, actor auth.Actor, input RecordDonationInput) (*DonationDTO, error) {
	if err := actor.Require(auth.PermRecordDonation); err != nil {
		return nil, err
	}
	if input.UnitsDonated <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units donated must be positive")
	}
	now := s.now()
	donatedAt := now
	if input.DonationDate != nil {
		donatedAt = input.DonationDate.UTC()
		if donatedAt.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "donation date cannot be in the future")
		}
	}

	donor, err := s.loadDonor(ctx, s.donors, input)
	if err != nil {
		return nil, err
	}

	var out DonationDTO
	err = s.ledger.WithinGroup(ctx, donor.BloodGroup, func(gtx *inventory.GroupTx) error {
		tx := gtx.DB()
		donorRepo := s.donors.WithTx(tx)

		// re-check eligibility under the lock so two concurrent recordings
		// for the same donor cannot both pass
		current, err := s.loadDonor(ctx, donorRepo, input)
		if err != nil {
			return err
		}
		if err := checkEligible(current.Status, current.NextEligibleDate, donatedAt); err != nil {
			return err
		}

		donation := &models.Donation{
			DonorID:      current.ID,
			BloodGroup:   current.BloodGroup,
			UnitsDonated: input.UnitsDonated,
			DonationDate: donatedAt,
			Notes:        trimmed(input.Notes),
			CreatedBy:    actor.UserID,
			CreatedAt:    now,
		}
		if err := s.repo.WithTx(tx).Create(ctx, donation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create donation")
		}

		balance, err := gtx.ApplyDelta(ctx, actor, inventory.DeltaInput{
			Group:       current.BloodGroup,
			Delta:       input.UnitsDonated,
			Reason:      enums.StockReasonDonation,
			ReferenceID: &donation.ID,
		})
		if err != nil {
			return err
		}

		nextEligible := donatedAt.Add(s.interval)
		if err := donorRepo.RecordDonation(ctx, current.ID, donatedAt, nextEligible); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update donor eligibility")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDonationRecorded,
			AggregateType: enums.AggregateDonation,
			AggregateID:   donation.ID.String(),
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.DonationRecordedEvent{
				DonationID:   donation.ID,
				DonorID:      current.ID,
				BloodGroup:   current.BloodGroup,
				UnitsDonated: donation.UnitsDonated,
				BalanceAfter: balance.UnitsAvailable,
				DonationDate: donatedAt,
			},
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit donation recorded")
		}
		if err := s.audit.RecordTx(ctx, tx, audit.Entry{
			Action:     enums.AuditDonationRecorded,
			EntityType: enums.AuditEntityDonation,
			EntityID:   donation.ID.String(),
			Details: map[string]any{
				"donor_id":      current.ID,
				"blood_group":   current.BloodGroup,
				"units_donated": donation.UnitsDonated,
				"balance_after": balance.UnitsAvailable,
			},
			Actor: actor,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record donation audit")
		}

		donation.Donor = current
		out = fromModel(*donation)
		after := balance.UnitsAvailable
		out.BalanceAfter = &after
		next := nextEligible.Format(time.DateOnly)
		out.NextEligibleDate = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (pagination.Page[DonationDTO], error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return pagination.Page[DonationDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[DonationDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return pagination.Page[DonationDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}
	items := make([]DonationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row))
	}
	return pagination.Trim(items, params.Limit, func(d DonationDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) CountSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := s.repo.CountSince(ctx, since)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count donations")
	}
	return count, nil
}

func (s *service) loadDonor(ctx context.Context, repo donors.Repository, input RecordDonationInput) (*models.Donor, error) {
	donor, err := repo.FindByID(ctx, input.DonorID)
	if errors.Is(err, donors.ErrDonorNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "donor not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donor")
	}
	return donor, nil
}

func checkEligible(status enums.DonorStatus, nextEligible *time.Time, donatedAt time.Time) error {
	if status != enums.DonorStatusEligible {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("donor status is %s", status)).
			WithDetails(map[string]any{"status": status})
	}
	if nextEligible != nil && nextEligible.After(donatedAt) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "donor is not yet eligible to donate again").
			WithDetails(map[string]any{"next_eligible_date": nextEligible.UTC().Format(time.DateOnly)})
	}
	return nil
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
