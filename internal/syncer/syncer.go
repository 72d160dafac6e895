package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LedgerSync/internal/checksum"
	"LedgerSync/internal/ledger"
	"LedgerSync/internal/notification"
	"LedgerSync/internal/store"
	"LedgerSync/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher returns the current records of a remote source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]ledger.Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]ledger.Record, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]ledger.Record, error) {
	return f(ctx)
}

// Result describes one completed run.
type Result struct {
	RunID            string    `json:"runId"`
	Source           string    `json:"source"`
	RecordsProcessed int       `json:"recordsProcessed"`
	Checksum         string    `json:"checksum"`
	Changed          bool      `json:"changed"`
	Warnings         int       `json:"warnings"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`

	imported bool
}

// Status is a snapshot of the orchestrator's bookkeeping.
type Status struct {
	Running    int     `json:"running"`
	Runs       int     `json:"runs"`
	Failures   int     `json:"failures"`
	LastResult *Result `json:"lastResult,omitempty"`
	LastError  string  `json:"lastError,omitempty"`
	LastRunAt  string  `json:"lastRunAt,omitempty"`
}

// Syncer copies records from a Fetcher into a RecordStore. Concurrent runs
// are allowed; upserts are atomic per key so the last writer wins.
type Syncer struct {
	fetcher Fetcher
	store   store.RecordStore
	source  string
	feed    *notification.NotificationService
	matcher *checksum.Matcher
	log     *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	status Status
}

type Option func(*Syncer)

func WithFeed(feed *notification.NotificationService) Option {
	return func(s *Syncer) { s.feed = feed }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

// WithSource names the remote in results and events.
func WithSource(name string) Option {
	return func(s *Syncer) { s.source = name }
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func New(f Fetcher, st store.RecordStore, opts ...Option) *Syncer {
	s := &Syncer{
		fetcher: f,
		store:   st,
		source:  "remote",
		matcher: checksum.NewMatcher(),
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sync fetches the remote records and upserts each of them in order. The
// first failed upsert aborts the run; rows written before it stay written.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	res := s.begin(s.source)
	s.log.Info("sync started", zap.String("run_id", res.RunID), zap.String("source", res.Source))

	records, err := s.fetcher.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("fetching remote records: %w", err)
		return res, s.fail(res, err)
	}
	return s.persist(ctx, res, records)
}

// Import upserts records obtained outside the remote API, such as an
// uploaded spreadsheet, through the same path as Sync.
func (s *Syncer) Import(ctx context.Context, source string, records []ledger.Record) (Result, error) {
	res := s.begin(source)
	res.imported = true
	s.log.Info("import started", zap.String("run_id", res.RunID), zap.String("source", source), zap.Int("records", len(records)))
	return s.persist(ctx, res, records)
}

func (s *Syncer) persist(ctx context.Context, res Result, records []ledger.Record) (Result, error) {
	report := validation.Inspect(records)
	report.Log(s.log.With(zap.String("run_id", res.RunID)))
	res.Warnings = len(report.Gaps)

	for _, r := range records {
		if err := s.store.Upsert(ctx, r); err != nil {
			return res, s.fail(res, fmt.Errorf("upserting %q after %d records: %w", r.AccountCode, res.RecordsProcessed, err))
		}
		res.RecordsProcessed++
	}

	res.Checksum, res.Changed = s.matcher.Observe(res.Source, records)
	res.FinishedAt = s.now()
	s.finish(res)
	return res, nil
}

func (s *Syncer) begin(source string) Result {
	s.mu.Lock()
	s.status.Running++
	s.mu.Unlock()

	res := Result{RunID: uuid.NewString(), Source: source, StartedAt: s.now()}
	s.publish(notification.Event{Type: notification.SyncStarted, RunID: res.RunID, Source: source})
	return res
}

func (s *Syncer) finish(res Result) {
	s.mu.Lock()
	s.status.Running--
	s.status.Runs++
	s.status.LastResult = &res
	s.status.LastError = ""
	s.status.LastRunAt = res.FinishedAt.Format(time.RFC3339)
	s.mu.Unlock()

	s.log.Info("sync completed",
		zap.String("run_id", res.RunID),
		zap.String("source", res.Source),
		zap.Int("records", res.RecordsProcessed),
		zap.Bool("changed", res.Changed),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)))
	typ := notification.SyncCompleted
	if res.imported {
		typ = notification.ImportDone
	}
	s.publish(notification.Event{
		Type:             typ,
		RunID:            res.RunID,
		Source:           res.Source,
		RecordsProcessed: res.RecordsProcessed,
		Changed:          res.Changed,
	})
}

func (s *Syncer) fail(res Result, err error) error {
	res.FinishedAt = s.now()
	s.mu.Lock()
	s.status.Running--
	s.status.Runs++
	s.status.Failures++
	s.status.LastError = err.Error()
	s.status.LastRunAt = res.FinishedAt.Format(time.RFC3339)
	s.mu.Unlock()

	s.log.Error("sync failed",
		zap.String("run_id", res.RunID),
		zap.String("source", res.Source),
		zap.Int("records", res.RecordsProcessed),
		zap.Error(err))
	s.publish(notification.Event{
		Type:             notification.SyncFailed,
		RunID:            res.RunID,
		Source:           res.Source,
		RecordsProcessed: res.RecordsProcessed,
		Error:            err.Error(),
	})
	return err
}

func (s *Syncer) publish(e notification.Event) {
	if s.feed == nil {
		return
	}
	e.At = s.now()
	s.feed.Publish(e)
}

// Status returns a copy of the run bookkeeping.
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	if st.LastResult != nil {
		r := *st.LastResult
		st.LastResult = &r
	}
	return st
}

// Source is the name used for scheduled runs.
func (s *Syncer) Source() string {
	return s.source
}
