package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateBloodStock   OutboxAggregateType = "blood_stock"
	AggregateBloodRequest OutboxAggregateType = "blood_request"
	AggregateDonation     OutboxAggregateType = "donation"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBloodStock,
	AggregateBloodRequest,
	AggregateDonation,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventStockBalanceChanged OutboxEventType = "stock_balance_changed"
	EventStockLow            OutboxEventType = "stock_low"
	EventRequestCreated      OutboxEventType = "request_created"
	EventRequestApproved     OutboxEventType = "request_approved"
	EventRequestRejected     OutboxEventType = "request_rejected"
	EventRequestIssued       OutboxEventType = "request_issued"
	EventDonationRecorded    OutboxEventType = "donation_recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockBalanceChanged,
	EventStockLow,
	EventRequestCreated,
	EventRequestApproved,
	EventRequestRejected,
	EventRequestIssued,
	EventDonationRecorded,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
