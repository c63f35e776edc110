package enums

import "fmt"

// StockEventReason explains why a balance moved.
type StockEventReason string

const (
	StockReasonDonation         StockEventReason = "donation"
	StockReasonIssuance         StockEventReason = "issuance"
	StockReasonManualAdjustment StockEventReason = "manual_adjustment"
)

var validStockEventReasons = []StockEventReason{
	StockReasonDonation,
	StockReasonIssuance,
	StockReasonManualAdjustment,
}

func (r StockEventReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StockEventReason.
func (r StockEventReason) IsValid() bool {
	for _, candidate := range validStockEventReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockEventReason converts raw input into a StockEventReason.
func ParseStockEventReason(value string) (StockEventReason, error) {
	for _, candidate := range validStockEventReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock event reason %q", value)
}
