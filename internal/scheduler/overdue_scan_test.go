package scheduler

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/loans"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/tasks"
)

func setupScheduler(t *testing.T, scanCfg config.OverdueScan) *OverdueScanScheduler {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "scheduler_test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	taskClient, err := tasks.NewClient(dbPath, tasks.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { taskClient.Close() })

	return NewOverdueScanScheduler(
		loans.NewRepository(db.DB),
		taskClient,
		scanCfg,
		config.Audit{RetentionDays: 90},
	)
}

func TestOverdueScanScheduler_Start(t *testing.T) {
	t.Run("starts with a valid schedule", func(t *testing.T) {
		s := setupScheduler(t, config.OverdueScan{Enabled: true, Schedule: "0 * * * *"})

		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()

		assert.True(t, s.IsRunning())
		assert.NotNil(t, s.NextRunTime())
	})

	t.Run("stays idle when disabled", func(t *testing.T) {
		s := setupScheduler(t, config.OverdueScan{Enabled: false, Schedule: "0 * * * *"})

		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
		assert.Nil(t, s.NextRunTime())
	})

	t.Run("rejects a bad schedule", func(t *testing.T) {
		s := setupScheduler(t, config.OverdueScan{Enabled: true, Schedule: "not a schedule"})
		assert.Error(t, s.Start(context.Background()))
	})

	t.Run("starting twice is a no-op", func(t *testing.T) {
		s := setupScheduler(t, config.OverdueScan{Enabled: true, Schedule: "0 * * * *"})

		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()
		require.NoError(t, s.Start(context.Background()))
	})
}

func TestOverdueScanScheduler_Stop(t *testing.T) {
	s := setupScheduler(t, config.OverdueScan{Enabled: true, Schedule: "0 * * * *"})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	assert.False(t, s.IsRunning())

	// Stopping again is harmless
	s.Stop()
}

func TestOverdueScanScheduler_StopReleasesWatcher(t *testing.T) {
	s := setupScheduler(t, config.OverdueScan{Enabled: true, Schedule: "0 * * * *"})

	before := runtime.NumGoroutine()
	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	// The shutdown watcher must exit when Stop is called directly, not wait
	// for the parent context.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}
