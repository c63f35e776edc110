package enums

import "fmt"

// DonorStatus captures whether a donor may currently give blood.
type DonorStatus string

const (
	DonorStatusEligible       DonorStatus = "eligible"
	DonorStatusIneligible     DonorStatus = "ineligible"
	DonorStatusTemporaryDefer DonorStatus = "temporary_defer"
)

var validDonorStatuses = []DonorStatus{
	DonorStatusEligible,
	DonorStatusIneligible,
	DonorStatusTemporaryDefer,
}

// IsValid reports whether the value is a known DonorStatus.
func (d DonorStatus) IsValid() bool {
	for _, candidate := range validDonorStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDonorStatus converts raw input into a DonorStatus.
func ParseDonorStatus(value string) (DonorStatus, error) {
	for _, candidate := range validDonorStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid donor status %q", value)
}
