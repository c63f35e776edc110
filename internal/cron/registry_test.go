package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/internal/notifications"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
)

func maintenanceJobs(t *testing.T) (*Registry, *recordingGauge) {
	t.Helper()
	client := dbtest.Open(t)

	retention, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger,
		DB:         client,
		Repository: outbox.NewRepository(client.DB()),
	})
	require.NoError(t, err)
	cleanup, err := NewAlertCleanupJob(AlertCleanupJobParams{
		Logger:     quietLogger,
		DB:         client,
		Repository: notifications.NewRepository(client.DB()),
	})
	require.NoError(t, err)
	gauge := &recordingGauge{units: map[string]int{}}
	reconcile, err := NewLedgerReconcileJob(LedgerReconcileJobParams{
		Logger:  quietLogger,
		Ledger:  inventory.NewRepository(client.DB()),
		Metrics: gauge,
	})
	require.NoError(t, err)

	return NewRegistry(retention, nil, cleanup, reconcile), gauge
}

func TestRegistryKeepsMaintenanceJobsInOrder(t *testing.T) {
	registry, _ := maintenanceJobs(t)

	var names []string
	for _, job := range registry.Jobs() {
		names = append(names, job.Name())
	}
	require.Equal(t, []string{"outbox-retention", "alert-cleanup", "ledger-reconcile"}, names)

	jobs := registry.Jobs()
	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}

func TestServiceRunsMaintenanceJobsAgainstDatabase(t *testing.T) {
	registry, gauge := maintenanceJobs(t)
	lock, err := NewRedisLock(&memoryStore{values: map[string]string{}}, "bb:cron:lock:test", time.Minute)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{Logger: quietLogger, Registry: registry, Lock: lock})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	require.Len(t, gauge.units, len(enums.BloodGroups()))
	for group, units := range gauge.units {
		require.Zerof(t, units, "group %s", group)
	}
}
