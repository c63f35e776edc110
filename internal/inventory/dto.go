package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// Balance is the API view of one group's stock.
type Balance struct {
	BloodGroup        enums.BloodGroup  `json:"blood_group"`
	UnitsAvailable    int               `json:"units_available"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	Status            enums.StockStatus `json:"status"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func balanceFromModel(row models.BloodStock) Balance {
	return Balance{
		BloodGroup:        row.BloodGroup,
		UnitsAvailable:    row.UnitsAvailable,
		LowStockThreshold: row.LowStockThreshold,
		Status:            Classify(row.UnitsAvailable, row.LowStockThreshold),
		UpdatedAt:         row.UpdatedAt,
	}
}

// Summary is the aggregate view served by the stock summary endpoint.
type Summary struct {
	TotalUnits int       `json:"total_units"`
	LowGroups  int       `json:"low_groups"`
	Balances   []Balance `json:"balances"`
}

// DeltaInput describes one balance change.
type DeltaInput struct {
	Group       enums.BloodGroup
	Delta       int
	Reason      enums.StockEventReason
	ReferenceID *uuid.UUID
	Note        *string
}

// BalanceChange is what subscribers hear about after a mutation commits.
type BalanceChange struct {
	Balance
	Delta          int                    `json:"delta"`
	Reason         enums.StockEventReason `json:"reason"`
	PreviousStatus enums.StockStatus      `json:"previous_status"`
	ReferenceID    *uuid.UUID             `json:"reference_id,omitempty"`
	ActorUserID    uuid.UUID              `json:"actor_user_id"`
}

// StockEvent is the API view of one ledger log entry.
type StockEvent struct {
	ID           uuid.UUID              `json:"id"`
	BloodGroup   enums.BloodGroup       `json:"blood_group"`
	Delta        int                    `json:"delta"`
	Reason       enums.StockEventReason `json:"reason"`
	BalanceAfter int                    `json:"balance_after"`
	ActorUserID  uuid.UUID              `json:"actor_user_id"`
	ActorRole    enums.AppRole          `json:"actor_role"`
	ReferenceID  *uuid.UUID             `json:"reference_id,omitempty"`
	Note         *string                `json:"note,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

func stockEventFromModel(row models.StockEvent) StockEvent {
	return StockEvent{
		ID:           row.ID,
		BloodGroup:   row.BloodGroup,
		Delta:        row.Delta,
		Reason:       row.Reason,
		BalanceAfter: row.BalanceAfter,
		ActorUserID:  row.ActorUserID,
		ActorRole:    row.ActorRole,
		ReferenceID:  row.ReferenceID,
		Note:         row.Note,
		CreatedAt:    row.CreatedAt,
	}
}

// EventFilter narrows the stock event log.
type EventFilter struct {
	Group  *enums.BloodGroup
	Reason *enums.StockEventReason
}

// EventListParams combines event filters with cursor pagination.
type EventListParams struct {
	EventFilter
	pagination.Params
}

// LedgerTotal pairs a group's stored balance with the sum of its stock events.
type LedgerTotal struct {
	BloodGroup     enums.BloodGroup
	UnitsAvailable int
	EventTotal     int
}
