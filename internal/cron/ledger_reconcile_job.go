package cron

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

type ledgerReader interface {
	LedgerTotals(ctx context.Context) ([]inventory.LedgerTotal, error)
}

type unitsGauge interface {
	SetUnits(group string, units int)
}

type LedgerReconcileJobParams struct {
	Logger  *logger.Logger
	Ledger  ledgerReader
	Metrics unitsGauge
}

// Drift is a group whose balance disagrees with its event log.
type Drift struct {
	BloodGroup enums.BloodGroup
	Balance    int
	EventTotal int
}

// NewLedgerReconcileJob compares every balance with the sum of its stock
// events and refreshes the units gauge. It reports drift but never repairs it.
func NewLedgerReconcileJob(params LedgerReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &ledgerReconcileJob{logg: params.Logger, ledger: params.Ledger, metrics: params.Metrics}, nil
}

type ledgerReconcileJob struct {
	logg    *logger.Logger
	ledger  ledgerReader
	metrics unitsGauge
}

func (j *ledgerReconcileJob) Name() string { return "ledger-reconcile" }

func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	drift, err := j.check(ctx)
	if err != nil {
		return fmt.Errorf("ledger reconcile: %w", err)
	}
	if len(drift) == 0 {
		j.logg.Info(ctx, "stock balances match event log")
		return nil
	}
	for _, d := range drift {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"blood_group": d.BloodGroup,
			"balance":     d.Balance,
			"event_total": d.EventTotal,
		}), "stock balance drift")
	}
	return fmt.Errorf("ledger reconcile: %d groups drifted", len(drift))
}

func (j *ledgerReconcileJob) check(ctx context.Context) ([]Drift, error) {
	rows, err := j.ledger.LedgerTotals(ctx)
	if err != nil {
		return nil, err
	}
	var drift []Drift
	for _, row := range rows {
		if j.metrics != nil {
			j.metrics.SetUnits(row.BloodGroup.String(), row.UnitsAvailable)
		}
		if row.EventTotal != row.UnitsAvailable {
			drift = append(drift, Drift{BloodGroup: row.BloodGroup, Balance: row.UnitsAvailable, EventTotal: row.EventTotal})
		}
	}
	sort.Slice(drift, func(a, b int) bool {
		return drift[a].BloodGroup.Ordinal() < drift[b].BloodGroup.Ordinal()
	})
	return drift, nil
}
