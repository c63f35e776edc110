package inventory

import (
	"errors"
	"fmt"
	"math"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
)

var (
	// ErrInsufficientStock marks a debit that would take a group below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownGroup marks a label outside the eight tracked groups.
	ErrUnknownGroup = errors.New("unknown blood group")
	// ErrPersistence marks a storage failure; the balance may not have changed.
	ErrPersistence = errors.New("stock persistence failure")
)

// MaxUnits bounds deltas, balances and thresholds to the integer column range.
const MaxUnits = math.MaxInt32

// InsufficientStockDetails is returned to callers alongside ErrInsufficientStock.
type InsufficientStockDetails struct {
	BloodGroup enums.BloodGroup `json:"blood_group"`
	Available  int              `json:"available"`
	Requested  int              `json:"requested"`
}

func insufficientStock(group enums.BloodGroup, available, requested int) error {
	return pkgerrors.Wrap(
		pkgerrors.CodeInsufficientStock,
		ErrInsufficientStock,
		fmt.Sprintf("%s has %d units available, %d requested", group, available, requested),
	).WithDetails(InsufficientStockDetails{
		BloodGroup: group,
		Available:  available,
		Requested:  requested,
	})
}

func unknownGroup(label string) error {
	return pkgerrors.Wrap(
		pkgerrors.CodeValidation,
		ErrUnknownGroup,
		fmt.Sprintf("unknown blood group %q", label),
	).WithDetails(map[string]any{"blood_group": label})
}

func persistence(op string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %s: %w", ErrPersistence, op, err), op+" failed")
}

// ResolveGroup parses a raw label (canonical or slug form) into a tracked group.
func ResolveGroup(label string) (enums.BloodGroup, error) {
	group, err := enums.ParseBloodGroup(label)
	if err != nil {
		return "", unknownGroup(label)
	}
	return group, nil
}

func requireGroup(group enums.BloodGroup) error {
	if !group.IsValid() {
		return unknownGroup(string(group))
	}
	return nil
}
