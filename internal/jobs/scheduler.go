package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LedgerSync/internal/config"
	"LedgerSync/internal/logger"
	"LedgerSync/internal/serviceiface"
	"LedgerSync/internal/syncer"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner performs one sync.
type Runner interface {
	Sync(ctx context.Context) (syncer.Result, error)
}

// SyncConfig controls the scheduled sync.
type SyncConfig struct {
	Schedule       string
	TimeZone       string
	StartupSync    bool
	StartupRetries int
	RetryDelay     time.Duration
	MaxFailures    int32
	ResetTimeout   time.Duration
	RunTimeout     time.Duration
}

func NewDefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Schedule:       config.DefaultSyncSchedule,
		TimeZone:       config.DefaultTimeZone,
		StartupSync:    true,
		StartupRetries: 0,
		RetryDelay:     5 * time.Second,
		MaxFailures:    config.BreakerMaxFailures,
		ResetTimeout:   config.BreakerResetTimeout,
		RunTimeout:     config.ScheduledSyncTimeout,
	}
}

// ApplyServiceConfig overrides defaults from a services.yaml config block.
func (c *SyncConfig) ApplyServiceConfig(cfg map[string]interface{}) {
	if cfg == nil {
		return
	}
	if v, ok := cfg["schedule"].(string); ok && v != "" {
		c.Schedule = v
	}
	if v, ok := cfg["timezone"].(string); ok && v != "" {
		c.TimeZone = v
	}
	if v, ok := cfg["startup_sync"].(bool); ok {
		c.StartupSync = v
	}
	if v, ok := cfg["startup_retries"].(int); ok && v >= 0 {
		c.StartupRetries = v
	}
	if v, ok := cfg["breaker_failures"].(int); ok && v > 0 {
		c.MaxFailures = int32(v)
	}
	if v, ok := cfg["breaker_reset"].(string); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.ResetTimeout = d
		}
	}
	if v, ok := cfg["run_timeout"].(string); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.RunTimeout = d
		}
	}
}

// SyncService runs the sync on a cron schedule and once at startup.
// Scheduled runs go through a circuit breaker; overlapping ticks are skipped.
type SyncService struct {
	cfg     SyncConfig
	runner  Runner
	breaker *CircuitBreaker
	log     *zap.Logger

	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	lastRun   time.Time
	lastError string
	skipped   int
}

func NewSyncService(cfg SyncConfig, runner Runner, log *zap.Logger) *SyncService {
	if log == nil {
		log = logger.L()
	}
	return &SyncService{
		cfg:     cfg,
		runner:  runner,
		breaker: NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		log:     log.Named("sync-cron"),
	}
}

// Compile-time check.
var _ serviceiface.Service = (*SyncService)(nil)

func (s *SyncService) Name() string {
	return "cron"
}

func (s *SyncService) Start() error {
	loc, err := time.LoadLocation(s.cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone for sync schedule: %w", err)
	}

	cl := cronLogger{s.log.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.entry, err = s.cron.AddFunc(s.cfg.Schedule, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to schedule sync job %q: %w", s.cfg.Schedule, err)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	logger.Audit("sync job scheduled", zap.String("schedule", s.cfg.Schedule), zap.String("timezone", s.cfg.TimeZone))

	if s.cfg.StartupSync {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runStartup()
		}()
	}
	return nil
}

func (s *SyncService) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
			return fmt.Errorf("waiting for running sync: %w", ctx.Err())
		}
	}
	s.wg.Wait()
	s.log.Info("sync job stopped")
	return nil
}

// runStartup syncs once so the store is populated before the first tick.
// Failures are logged and never stop the process.
func (s *SyncService) runStartup() {
	ctx, cancel := context.WithTimeout(s.ctx, config.StartupSyncTimeout)
	defer cancel()

	err := RetryWithBackoff(ctx, s.log, s.cfg.StartupRetries, s.cfg.RetryDelay, func() error {
		return s.syncOnce(ctx)
	})
	if err != nil {
		s.log.Error("startup sync failed", zap.Error(err))
		return
	}
	s.log.Info("startup sync finished")
}

func (s *SyncService) runScheduled() {
	err := s.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RunTimeout)
		defer cancel()
		return s.syncOnce(ctx)
	})
	if errors.Is(err, ErrCircuitOpen) {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		s.log.Warn("scheduled sync skipped, circuit open", zap.Int("failures", s.breaker.Failures()))
		return
	}
	if err != nil {
		s.log.Error("scheduled sync failed", zap.Error(err), zap.String("breaker", s.breaker.State().String()))
	}
}

func (s *SyncService) syncOnce(ctx context.Context) error {
	_, err := s.runner.Sync(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = time.Now()
	if err != nil {
		s.lastError = err.Error()
		return err
	}
	s.lastError = ""
	return nil
}

// Health describes the schedule and the breaker.
func (s *SyncService) Health() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := map[string]interface{}{
		"schedule": s.cfg.Schedule,
		"breaker":  s.breaker.State().String(),
		"skipped":  s.skipped,
	}
	if !s.lastRun.IsZero() {
		h["lastRun"] = s.lastRun.Format(time.RFC3339)
	}
	if s.lastError != "" {
		h["lastError"] = s.lastError
	}
	if s.cron != nil {
		if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
			h["nextRun"] = next.Format(time.RFC3339)
		}
	}
	return h
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
