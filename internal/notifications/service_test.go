package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

var staff = auth.Actor{UserID: uuid.New(), Role: enums.AppRoleStaff}

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	auditSvc, err := audit.NewService(audit.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(repo, client, auditSvc)
	require.NoError(t, err)
	return svc, repo
}

func seedAlert(t *testing.T, repo Repository, group enums.BloodGroup, at time.Time) *models.StockAlert {
	t.Helper()
	alert := &models.StockAlert{
		EventID:           uuid.New(),
		BloodGroup:        group,
		Status:            enums.StockStatusLow,
		UnitsAvailable:    3,
		LowStockThreshold: 10,
		CreatedAt:         at,
	}
	require.NoError(t, repo.Create(context.Background(), alert))
	return alert
}

func TestListAndAcknowledgeAlerts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := seedAlert(t, repo, enums.BloodGroupONeg, base)
	newer := seedAlert(t, repo, enums.BloodGroupABNeg, base.Add(time.Minute))

	page, err := svc.List(ctx, staff, ListParams{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, newer.ID, page.Items[0].ID)

	require.NoError(t, svc.Acknowledge(ctx, staff, older.ID))

	err = svc.Acknowledge(ctx, staff, older.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	err = svc.Acknowledge(ctx, staff, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	open, err := svc.CountOpen(ctx, staff)
	require.NoError(t, err)
	require.EqualValues(t, 1, open)

	page, err = svc.List(ctx, staff, ListParams{OpenOnly: true, Params: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, newer.ID, page.Items[0].ID)

	group := enums.BloodGroupONeg
	page, err = svc.List(ctx, staff, ListParams{Group: &group})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].AcknowledgedBy)
	require.Equal(t, staff.UserID, *page.Items[0].AcknowledgedBy)
}

func TestAcknowledgeRequiresActor(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Acknowledge(context.Background(), auth.Actor{}, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
