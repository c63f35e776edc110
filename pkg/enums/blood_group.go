package enums

import (
	"fmt"
	"strings"
)

// BloodGroup is one of the eight ABO/Rh groups tracked by the stock ledger.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// canonical display order; every listing of groups follows it.
var validBloodGroups = []BloodGroup{
	BloodGroupAPos,
	BloodGroupANeg,
	BloodGroupBPos,
	BloodGroupBNeg,
	BloodGroupABPos,
	BloodGroupABNeg,
	BloodGroupOPos,
	BloodGroupONeg,
}

// BloodGroups returns the eight groups in canonical order.
func BloodGroups() []BloodGroup {
	out := make([]BloodGroup, len(validBloodGroups))
	copy(out, validBloodGroups)
	return out
}

func (b BloodGroup) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BloodGroup.
func (b BloodGroup) IsValid() bool {
	return b.Ordinal() >= 0
}

// Ordinal returns the canonical position of the group, or -1 when unknown.
func (b BloodGroup) Ordinal() int {
	for i, candidate := range validBloodGroups {
		if candidate == b {
			return i
		}
	}
	return -1
}

// Slug is a URL-safe form, e.g. "ab-neg" for AB-.
func (b BloodGroup) Slug() string {
	label := strings.ToLower(string(b))
	switch {
	case strings.HasSuffix(label, "+"):
		return strings.TrimSuffix(label, "+") + "-pos"
	case strings.HasSuffix(label, "-"):
		return strings.TrimSuffix(label, "-") + "-neg"
	}
	return label
}

// ParseBloodGroup accepts the canonical label ("AB-") in any case, or its slug ("ab-neg").
func ParseBloodGroup(value string) (BloodGroup, error) {
	trimmed := strings.TrimSpace(value)
	upper := strings.ToUpper(trimmed)
	for _, candidate := range validBloodGroups {
		if string(candidate) == upper || candidate.Slug() == strings.ToLower(trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid blood group %q", value)
}
