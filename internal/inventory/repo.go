package inventory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// ErrStockRowMissing is returned when a group has no seeded blood_stock row.
var ErrStockRowMissing = errors.New("blood stock row missing")

// Repository is the storage surface of the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, group enums.BloodGroup) (*models.BloodStock, error)
	List(ctx context.Context) ([]models.BloodStock, error)
	SumUnits(ctx context.Context) (int, error)
	// ApplyDelta adds delta only when the result stays non-negative and reports
	// whether the row was updated.
	ApplyDelta(ctx context.Context, group enums.BloodGroup, delta int, at time.Time) (bool, error)
	SetThreshold(ctx context.Context, group enums.BloodGroup, threshold int) (bool, error)
	InsertEvent(ctx context.Context, event *models.StockEvent) error
	ListEvents(ctx context.Context, filter EventFilter, cursor *pagination.Cursor, limit int) ([]models.StockEvent, error)
	// LedgerTotals reads every balance next to the sum of its logged deltas in
	// one statement, so both sides come from the same snapshot.
	LedgerTotals(ctx context.Context) ([]LedgerTotal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the ledger repository to a GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, group enums.BloodGroup) (*models.BloodStock, error) {
	var row models.BloodStock
	err := r.db.WithContext(ctx).
		Where("blood_group = ?", group).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStockRowMissing
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) List(ctx context.Context) ([]models.BloodStock, error) {
	var rows []models.BloodStock
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumUnits(ctx context.Context) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.BloodStock{}).
		Select("COALESCE(SUM(units_available), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) ApplyDelta(ctx context.Context, group enums.BloodGroup, delta int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BloodStock{}).
		Where("blood_group = ? AND units_available + ? >= 0", group, delta).
		Updates(map[string]any{
			"units_available": gorm.Expr("units_available + ?", delta),
			"updated_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetThreshold(ctx context.Context, group enums.BloodGroup, threshold int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BloodStock{}).
		Where("blood_group = ?", group).
		UpdateColumn("low_stock_threshold", threshold)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertEvent(ctx context.Context, event *models.StockEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListEvents(ctx context.Context, filter EventFilter, cursor *pagination.Cursor, limit int) ([]models.StockEvent, error) {
	query := r.db.WithContext(ctx).Model(&models.StockEvent{})
	if filter.Group != nil {
		query = query.Where("blood_group = ?", *filter.Group)
	}
	if filter.Reason != nil {
		query = query.Where("reason = ?", *filter.Reason)
	}
	var rows []models.StockEvent
	if err := pagination.Apply(query, "created_at", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) LedgerTotals(ctx context.Context) ([]LedgerTotal, error) {
	var rows []struct {
		BloodGroup     enums.BloodGroup
		UnitsAvailable int64
		EventTotal     int64
	}
	err := r.db.WithContext(ctx).
		Table("blood_stock AS s").
		Select("s.blood_group, s.units_available, COALESCE(SUM(e.delta), 0) AS event_total").
		Joins("LEFT JOIN stock_events e ON e.blood_group = s.blood_group").
		Group("s.blood_group, s.units_available").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make([]LedgerTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, LedgerTotal{
			BloodGroup:     row.BloodGroup,
			UnitsAvailable: int(row.UnitsAvailable),
			EventTotal:     int(row.EventTotal),
		})
	}
	return totals, nil
}
