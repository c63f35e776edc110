package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
)

type adjustmentBody struct {
	BloodGroup string  `json:"blood_group" validate:"required,blood_group"`
	Delta      int     `json:"delta" validate:"ne=0"`
	Note       *string `json:"note" validate:"required"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"blood_group":"C+","delta":0}`))
	var body adjustmentBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	for _, field := range []string{"blood_group", "delta", "note"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, details)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"blood_group":"A+","delta":1,"note":"x","extra":true}`))
	var body adjustmentBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyAcceptsSlugGroup(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"blood_group":"ab-neg","delta":-2,"note":"expired"}`))
	var body adjustmentBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestParseBloodGroupParam(t *testing.T) {
	tests := []struct {
		raw  string
		want enums.BloodGroup
		ok   bool
	}{
		{raw: "AB%2B", want: enums.BloodGroupABPos, ok: true},
		{raw: "ab-pos", want: enums.BloodGroupABPos, ok: true},
		{raw: "O-", want: enums.BloodGroupONeg, ok: true},
		{raw: "Z", ok: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("group", tt.raw)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

		got, err := ParseBloodGroupParam(req, "group")
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("%s: expected %s got %s (%v)", tt.raw, tt.want, got, err)
		}
		if !tt.ok && err == nil {
			t.Fatalf("%s: expected error", tt.raw)
		}
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc", nil)
	params, err := ParsePagination(req)
	if err != nil || params.Limit != 5 || params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v (%v)", params, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	if _, err := ParsePagination(req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestParseQueryEnum(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?status=approved", nil)
	status, err := ParseQueryEnum(req, "status", enums.ParseRequestStatus)
	if err != nil || status == nil || *status != enums.RequestStatusApproved {
		t.Fatalf("unexpected status %v (%v)", status, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?status=lost", nil)
	if _, err := ParseQueryEnum(req, "status", enums.ParseRequestStatus); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestSanitizeOptional(t *testing.T) {
	blank := "   "
	if SanitizeOptional(&blank, 10) != nil {
		t.Fatalf("blank should become nil")
	}
	long := "  abcdefghijkl "
	if got := SanitizeOptional(&long, 5); got == nil || *got != "abcde" {
		t.Fatalf("unexpected %v", got)
	}
}
