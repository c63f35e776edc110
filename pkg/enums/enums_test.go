package enums

import "testing"

func TestBloodGroupsCanonicalOrder(t *testing.T) {
	want := []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	got := BloodGroups()
	if len(got) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(got))
	}
	for i, g := range got {
		if g.String() != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], g)
		}
		if g.Ordinal() != i {
			t.Fatalf("ordinal of %s expected %d got %d", g, i, g.Ordinal())
		}
	}

	got[0] = "mutated"
	if BloodGroups()[0] != BloodGroupAPos {
		t.Fatalf("BloodGroups must return a copy")
	}
}

func TestParseBloodGroup(t *testing.T) {
	tests := []struct {
		in      string
		want    BloodGroup
		wantErr bool
	}{
		{in: "AB-", want: BloodGroupABNeg},
		{in: "ab-", want: BloodGroupABNeg},
		{in: " o+ ", want: BloodGroupOPos},
		{in: "ab-neg", want: BloodGroupABNeg},
		{in: "O-NEG", want: BloodGroupONeg},
		{in: "a-pos", want: BloodGroupAPos},
		{in: "C+", wantErr: true},
		{in: "", wantErr: true},
		{in: "AB", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseBloodGroup(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %s got %s (err=%v)", tt.in, tt.want, got, err)
		}
	}
}

func TestBloodGroupSlugRoundTrip(t *testing.T) {
	for _, g := range BloodGroups() {
		parsed, err := ParseBloodGroup(g.Slug())
		if err != nil || parsed != g {
			t.Fatalf("slug %q did not resolve to %s", g.Slug(), g)
		}
	}
	if BloodGroupABPos.Slug() != "ab-pos" {
		t.Fatalf("unexpected slug %q", BloodGroupABPos.Slug())
	}
}

func TestRequestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		ok       bool
	}{
		{RequestStatusPending, RequestStatusApproved, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusApproved, RequestStatusIssued, true},
		{RequestStatusPending, RequestStatusIssued, false},
		{RequestStatusApproved, RequestStatusRejected, false},
		{RequestStatusIssued, RequestStatusApproved, false},
		{RequestStatusRejected, RequestStatusPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Fatalf("%s -> %s expected %v got %v", tt.from, tt.to, tt.ok, got)
		}
	}
	if !RequestStatusIssued.IsTerminal() || !RequestStatusRejected.IsTerminal() || RequestStatusApproved.IsTerminal() {
		t.Fatalf("terminal classification wrong")
	}
}

func TestParseAppRole(t *testing.T) {
	if r, err := ParseAppRole("admin"); err != nil || r != AppRoleAdmin {
		t.Fatalf("expected admin, got %s %v", r, err)
	}
	if _, err := ParseAppRole("owner"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestStockStatusNeedsAttention(t *testing.T) {
	if StockStatusNormal.NeedsAttention() {
		t.Fatalf("normal should not need attention")
	}
	if !StockStatusLow.NeedsAttention() || !StockStatusOutOfStock.NeedsAttention() {
		t.Fatalf("low and out of stock need attention")
	}
}
