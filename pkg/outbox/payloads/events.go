package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// StockBalanceChangedEvent carries the committed balance after any ledger mutation.
type StockBalanceChangedEvent struct {
	BloodGroup        enums.BloodGroup       `json:"blood_group"`
	Delta             int                    `json:"delta"`
	Reason            enums.StockEventReason `json:"reason"`
	UnitsAvailable    int                    `json:"units_available"`
	LowStockThreshold int                    `json:"low_stock_threshold"`
	Status            enums.StockStatus      `json:"status"`
	ReferenceID       *uuid.UUID             `json:"reference_id,omitempty"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// StockLowEvent is emitted when a group moves into LOW or OUT_OF_STOCK.
type StockLowEvent struct {
	BloodGroup        enums.BloodGroup  `json:"blood_group"`
	UnitsAvailable    int               `json:"units_available"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	Status            enums.StockStatus `json:"status"`
	PreviousStatus    enums.StockStatus `json:"previous_status"`
}

// RequestStatusEvent covers create/approve/reject transitions.
type RequestStatusEvent struct {
	RequestID      uuid.UUID           `json:"request_id"`
	RecipientID    uuid.UUID           `json:"recipient_id"`
	BloodGroup     enums.BloodGroup    `json:"blood_group"`
	UnitsRequested int                 `json:"units_requested"`
	UrgencyLevel   enums.UrgencyLevel  `json:"urgency_level"`
	Status         enums.RequestStatus `json:"status"`
	Reason         string              `json:"reason,omitempty"`
}

// RequestIssuedEvent is emitted once units leave the bank for a request.
type RequestIssuedEvent struct {
	RequestID    uuid.UUID        `json:"request_id"`
	IssuanceID   uuid.UUID        `json:"issuance_id"`
	RecipientID  uuid.UUID        `json:"recipient_id"`
	BloodGroup   enums.BloodGroup `json:"blood_group"`
	UnitsIssued  int              `json:"units_issued"`
	BalanceAfter int              `json:"balance_after"`
	IssuedAt     time.Time        `json:"issued_at"`
}

// DonationRecordedEvent is emitted when donated units are credited.
type DonationRecordedEvent struct {
	DonationID   uuid.UUID        `json:"donation_id"`
	DonorID      uuid.UUID        `json:"donor_id"`
	BloodGroup   enums.BloodGroup `json:"blood_group"`
	UnitsDonated int              `json:"units_donated"`
	BalanceAfter int              `json:"balance_after"`
	DonationDate time.Time        `json:"donation_date"`
}
