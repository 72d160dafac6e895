package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LedgerSync/internal/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func (r *countingRunner) Sync(ctx context.Context) (syncer.Result, error) {
	r.mu.Lock()
	r.calls++
	err := r.err
	r.mu.Unlock()
	if r.done != nil {
		select {
		case r.done <- struct{}{}:
		default:
		}
	}
	return syncer.Result{RecordsProcessed: 1}, err
}

func (r *countingRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testConfig() SyncConfig {
	cfg := NewDefaultSyncConfig()
	cfg.TimeZone = "UTC"
	cfg.StartupSync = false
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestApplyServiceConfig(t *testing.T) {
	cfg := NewDefaultSyncConfig()
	cfg.ApplyServiceConfig(map[string]interface{}{
		"schedule":         "*/10 * * * *",
		"timezone":         "UTC",
		"startup_sync":     false,
		"breaker_failures": 3,
		"breaker_reset":    "1m",
		"run_timeout":      "30s",
	})
	assert.Equal(t, "*/10 * * * *", cfg.Schedule)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.False(t, cfg.StartupSync)
	assert.EqualValues(t, 3, cfg.MaxFailures)
	assert.Equal(t, time.Minute, cfg.ResetTimeout)
	assert.Equal(t, 30*time.Second, cfg.RunTimeout)
}

func TestStartupSyncRuns(t *testing.T) {
	r := &countingRunner{done: make(chan struct{}, 1)}
	cfg := testConfig()
	cfg.StartupSync = true
	svc := NewSyncService(cfg, r, zap.NewNop())
	require.NoError(t, svc.Start())

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup sync did not run")
	}
	require.NoError(t, svc.Stop(context.Background()))
	assert.GreaterOrEqual(t, r.Calls(), 1)
	assert.Contains(t, svc.Health(), "nextRun")
}

func TestStartupSyncFailureDoesNotFailStart(t *testing.T) {
	r := &countingRunner{err: errors.New("remote down")}
	cfg := testConfig()
	cfg.StartupSync = true
	cfg.StartupRetries = 1
	svc := NewSyncService(cfg, r, zap.NewNop())
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Stop(context.Background()))
	assert.LessOrEqual(t, r.Calls(), 2)
}

func TestScheduledRunsTripBreaker(t *testing.T) {
	r := &countingRunner{err: errors.New("remote down")}
	cfg := testConfig()
	cfg.MaxFailures = 2
	svc := NewSyncService(cfg, r, zap.NewNop())
	require.NoError(t, svc.Start())
	defer svc.Stop(context.Background())

	for i := 0; i < 4; i++ {
		svc.runScheduled()
	}
	assert.Equal(t, 2, r.Calls())

	h := svc.Health()
	assert.Equal(t, "open", h["breaker"])
	assert.Equal(t, 2, h["skipped"])
	assert.Equal(t, "remote down", h["lastError"])
}

func TestStartRejectsBadSettings(t *testing.T) {
	cfg := testConfig()
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, NewSyncService(cfg, &countingRunner{}, zap.NewNop()).Start())

	cfg = testConfig()
	cfg.Schedule = "every now and then"
	assert.Error(t, NewSyncService(cfg, &countingRunner{}, zap.NewNop()).Start())
}

func TestStartupSyncAttemptedOnceByDefault(t *testing.T) {
	assert.Equal(t, 0, NewDefaultSyncConfig().StartupRetries)

	r := &countingRunner{err: errors.New("remote down"), done: make(chan struct{}, 1)}
	cfg := testConfig()
	cfg.StartupSync = true
	cfg.StartupRetries = NewDefaultSyncConfig().StartupRetries
	svc := NewSyncService(cfg, r, zap.NewNop())
	require.NoError(t, svc.Start())

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup sync did not run")
	}
	require.NoError(t, svc.Stop(context.Background()))
	assert.Equal(t, 1, r.Calls())
}
