package inventory

import (
	"testing"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		units     int
		threshold int
		want      enums.StockStatus
	}{
		{0, 10, enums.StockStatusOutOfStock},
		{0, 0, enums.StockStatusOutOfStock},
		{1, 10, enums.StockStatusLow},
		{9, 10, enums.StockStatusLow},
		{10, 10, enums.StockStatusNormal},
		{11, 10, enums.StockStatusNormal},
		{5, 0, enums.StockStatusNormal},
	}
	for _, tc := range cases {
		if got := Classify(tc.units, tc.threshold); got != tc.want {
			t.Fatalf("Classify(%d, %d) = %s, want %s", tc.units, tc.threshold, got, tc.want)
		}
	}
}

func TestResolveGroup(t *testing.T) {
	group, err := ResolveGroup("ab-neg")
	if err != nil || group != enums.BloodGroupABNeg {
		t.Fatalf("expected AB-, got %q (%v)", group, err)
	}
	if _, err := ResolveGroup("C+"); err == nil {
		t.Fatalf("expected unknown group error")
	}
}
