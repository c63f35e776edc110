package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
)

// RecentDonationWindow bounds the "recent donations" counter.
const RecentDonationWindow = 7 * 24 * time.Hour

// Overview is the payload behind the dashboard landing page.
type Overview struct {
	TotalDonors      int64           `json:"total_donors"`
	TotalRecipients  int64           `json:"total_recipients"`
	TotalUnits       int             `json:"total_units"`
	PendingRequests  int64           `json:"pending_requests"`
	ApprovedRequests int64           `json:"approved_requests"`
	RecentDonations  int64           `json:"recent_donations"`
	LowStockGroups   int             `json:"low_stock_groups"`
	OpenAlerts       int64           `json:"open_alerts"`
	Groups           []GroupCoverage `json:"groups"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// GroupCoverage pairs a balance with its units-to-threshold ratio. Coverage is
// nil when the threshold is zero.
type GroupCoverage struct {
	inventory.Balance
	Coverage *decimal.Decimal `json:"coverage,omitempty"`
}

type stockReader interface {
	Summary(ctx context.Context, actor auth.Actor) (*inventory.Summary, error)
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type requestCounter interface {
	CountByStatus(ctx context.Context, status enums.RequestStatus) (int64, error)
}

type donationCounter interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type alertCounter interface {
	CountOpen(ctx context.Context, actor auth.Actor) (int64, error)
}

// Sources lists where each dashboard number comes from.
type Sources struct {
	Stock      stockReader
	Donors     counter
	Recipients counter
	Requests   requestCounter
	Donations  donationCounter
	Alerts     alertCounter
}

type Service interface {
	Overview(ctx context.Context, actor auth.Actor) (*Overview, error)
}

type service struct {
	src Sources
	now func() time.Time
}

func NewService(src Sources) (Service, error) {
	switch {
	case src.Stock == nil:
		return nil, fmt.Errorf("stock reader required")
	case src.Donors == nil:
		return nil, fmt.Errorf("donor counter required")
	case src.Recipients == nil:
		return nil, fmt.Errorf("recipient counter required")
	case src.Requests == nil:
		return nil, fmt.Errorf("request counter required")
	case src.Donations == nil:
		return nil, fmt.Errorf("donation counter required")
	}
	return &service{src: src, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Overview(ctx context.Context, actor auth.Actor) (*Overview, error) {
	if err := actor.Require(auth.PermReadInventory); err != nil {
		return nil, err
	}
	summary, err := s.src.Stock.Summary(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := &Overview{
		TotalUnits:     summary.TotalUnits,
		LowStockGroups: summary.LowGroups,
		Groups:         make([]GroupCoverage, 0, len(summary.Balances)),
		GeneratedAt:    now,
	}
	for _, b := range summary.Balances {
		out.Groups = append(out.Groups, GroupCoverage{Balance: b, Coverage: Coverage(b.UnitsAvailable, b.LowStockThreshold)})
	}

	if out.TotalDonors, err = s.src.Donors.Count(ctx); err != nil {
		return nil, dependency("count donors", err)
	}
	if out.TotalRecipients, err = s.src.Recipients.Count(ctx); err != nil {
		return nil, dependency("count recipients", err)
	}
	if out.PendingRequests, err = s.src.Requests.CountByStatus(ctx, enums.RequestStatusPending); err != nil {
		return nil, dependency("count pending requests", err)
	}
	if out.ApprovedRequests, err = s.src.Requests.CountByStatus(ctx, enums.RequestStatusApproved); err != nil {
		return nil, dependency("count approved requests", err)
	}
	if out.RecentDonations, err = s.src.Donations.CountSince(ctx, now.Add(-RecentDonationWindow)); err != nil {
		return nil, dependency("count recent donations", err)
	}
	if s.src.Alerts != nil {
		if out.OpenAlerts, err = s.src.Alerts.CountOpen(ctx, actor); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Coverage is units / threshold rounded to two places.
func Coverage(units, threshold int) *decimal.Decimal {
	if threshold <= 0 {
		return nil
	}
	ratio := decimal.NewFromInt(int64(units)).DivRound(decimal.NewFromInt(int64(threshold)), 2)
	return &ratio
}

func dependency(op string, err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
