package donations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/internal/donors"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
)

var staff = auth.Actor{UserID: uuid.New(), Role: enums.AppRoleStaff}

type testEnv struct {
	svc    *service
	donors donors.Service
	stock  inventory.Service
	outbox *outbox.Repository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	client := dbtest.Open(t)
	outboxRepo := outbox.NewRepository(client.DB())
	emitter := outbox.NewService(outboxRepo, nil)
	auditSvc, err := audit.NewService(audit.NewRepository(client.DB()))
	require.NoError(t, err)

	stock, err := inventory.NewService(inventory.ServiceParams{
		Repo:   inventory.NewRepository(client.DB()),
		Tx:     client,
		Outbox: emitter,
		Audit:  auditSvc,
	})
	require.NoError(t, err)

	donorRepo := donors.NewRepository(client.DB())
	donorSvc, err := donors.NewService(donorRepo, client, auditSvc)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(client.DB()),
		Donors: donorRepo,
		Ledger: stock,
		Outbox: emitter,
		Audit:  auditSvc,
	})
	require.NoError(t, err)
	return testEnv{svc: svc.(*service), donors: donorSvc, stock: stock, outbox: outboxRepo}
}

func (e testEnv) donor(t *testing.T, email string, group enums.BloodGroup, status enums.DonorStatus) uuid.UUID {
	t.Helper()
	created, err := e.donors.Register(context.Background(), staff, donors.RegisterDonorInput{
		FullName:    "Donor " + email,
		Email:       email,
		Phone:       "555-0123",
		DateOfBirth: time.Date(1992, 3, 4, 0, 0, 0, 0, time.UTC),
		BloodGroup:  group,
		Status:      status,
	})
	require.NoError(t, err)
	return created.ID
}

func TestNewServiceDefaultsInterval(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error for missing repository")
	}
	env := newTestEnv(t)
	if env.svc.interval != DefaultIntervalDays*24*time.Hour {
		t.Fatalf("unexpected interval %s", env.svc.interval)
	}
}

func TestRecordDonationCreditsDonorGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	donorID := env.donor(t, "kojo@example.org", enums.BloodGroupONeg, enums.DonorStatusEligible)

	donation, err := env.svc.Record(ctx, staff, RecordDonationInput{DonorID: donorID, UnitsDonated: 1})
	require.NoError(t, err)
	require.Equal(t, enums.BloodGroupONeg, donation.BloodGroup)
	require.NotNil(t, donation.BalanceAfter)
	require.Equal(t, 1, *donation.BalanceAfter)
	require.NotNil(t, donation.NextEligibleDate)

	balance, err := env.stock.Balance(ctx, staff, enums.BloodGroupONeg)
	require.NoError(t, err)
	require.Equal(t, 1, balance.UnitsAvailable)

	donor, err := env.donors.Get(ctx, staff, donorID)
	require.NoError(t, err)
	require.NotNil(t, donor.LastDonationDate)
	require.Equal(t, *donation.NextEligibleDate, *donor.NextEligibleDate)

	rows, err := env.outbox.ListByAggregate(ctx, enums.AggregateDonation, donation.ID.String())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.EventDonationRecorded, rows[0].EventType)
}

func TestRecordDonationEnforcesInterval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	donorID := env.donor(t, "abena@example.org", enums.BloodGroupAPos, enums.DonorStatusEligible)

	first := time.Now().UTC().Add(-30 * 24 * time.Hour)
	_, err := env.svc.Record(ctx, staff, RecordDonationInput{DonorID: donorID, UnitsDonated: 1, DonationDate: &first})
	require.NoError(t, err)

	_, err = env.svc.Record(ctx, staff, RecordDonationInput{DonorID: donorID, UnitsDonated: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	balance, err := env.stock.Balance(ctx, staff, enums.BloodGroupAPos)
	require.NoError(t, err)
	require.Equal(t, 1, balance.UnitsAvailable)
}

func TestRecordDonationRejectsIneligibleDonor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	donorID := env.donor(t, "kweku@example.org", enums.BloodGroupBPos, enums.DonorStatusTemporaryDefer)

	_, err := env.svc.Record(ctx, staff, RecordDonationInput{DonorID: donorID, UnitsDonated: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	page, err := env.svc.List(ctx, staff, ListParams{DonorID: &donorID})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestRecordDonationValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	donorID := env.donor(t, "efua@example.org", enums.BloodGroupBNeg, enums.DonorStatusEligible)

	tests := []struct {
		name  string
		input RecordDonationInput
		code  pkgerrors.Code
	}{
		{name: "zero units", input: RecordDonationInput{DonorID: donorID}, code: pkgerrors.CodeValidation},
		{name: "future date", input: RecordDonationInput{DonorID: donorID, UnitsDonated: 1, DonationDate: ptr(time.Now().Add(48 * time.Hour))}, code: pkgerrors.CodeValidation},
		{name: "unknown donor", input: RecordDonationInput{DonorID: uuid.New(), UnitsDonated: 1}, code: pkgerrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Record(ctx, staff, tt.input)
			if !pkgerrors.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestListAndCountDonations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-20 * 24 * time.Hour)
	_, err := env.svc.Record(ctx, staff, RecordDonationInput{
		DonorID:      env.donor(t, "old@example.org", enums.BloodGroupOPos, enums.DonorStatusEligible),
		UnitsDonated: 1,
		DonationDate: &old,
	})
	require.NoError(t, err)
	_, err = env.svc.Record(ctx, staff, RecordDonationInput{
		DonorID:      env.donor(t, "new@example.org", enums.BloodGroupOPos, enums.DonorStatusEligible),
		UnitsDonated: 2,
	})
	require.NoError(t, err)

	count, err := env.svc.CountSince(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	group := enums.BloodGroupOPos
	page, err := env.svc.List(ctx, staff, ListParams{BloodGroup: &group})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Items[0].DonorName)
}

func ptr[T any](v T) *T { return &v }
