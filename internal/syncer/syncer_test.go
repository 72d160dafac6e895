package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"LedgerSync/internal/ledger"
	"LedgerSync/internal/notification"
	"LedgerSync/internal/remote"
	"LedgerSync/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubFetcher struct {
	mu      sync.Mutex
	records []ledger.Record
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(ctx context.Context) ([]ledger.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]ledger.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func rec(code, name string, debit, credit int64) ledger.Record {
	return ledger.Record{
		AccountCode: code,
		AccountName: name,
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.NewFromInt(credit),
	}
}

func TestSyncUpsertsAllRecords(t *testing.T) {
	st := store.NewMemoryStore()
	feed := notification.NewNotificationService(10)
	f := &stubFetcher{records: []ledger.Record{
		rec("100.01", "KASA", 100, 0),
		rec("100.02", "BANKA", 0, 50),
		rec("", "orphan", 1, 1),
	}}
	s := New(f, st, WithFeed(feed), WithSource("filemaker"))

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.RecordsProcessed)
	assert.Equal(t, "filemaker", res.Source)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Checksum, 64)
	assert.True(t, res.Changed)
	assert.Positive(t, res.Warnings)
	assert.Equal(t, 3, st.Len())

	events := feed.Recent()
	require.Len(t, events, 2)
	assert.Equal(t, notification.SyncStarted, events[0].Type)
	assert.Equal(t, notification.SyncCompleted, events[1].Type)
	assert.Equal(t, 3, events[1].RecordsProcessed)

	res, err = s.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)

	status := s.Status()
	assert.Equal(t, 2, status.Runs)
	assert.Zero(t, status.Failures)
	assert.Zero(t, status.Running)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, res.RunID, status.LastResult.RunID)
}

func TestSyncUpdatesExistingRows(t *testing.T) {
	st := store.NewMemoryStore()
	f := &stubFetcher{records: []ledger.Record{rec("120.01", "ALICI", 10, 0)}}
	s := New(f, st)
	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	f.records = []ledger.Record{rec("120.01", "ALICI", 25, 5)}
	_, err = s.Sync(context.Background())
	require.NoError(t, err)

	e, err := st.Get(context.Background(), "120.01")
	require.NoError(t, err)
	assert.True(t, e.Debit.Equal(decimal.NewFromInt(25)))
	assert.True(t, e.Credit.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 1, st.Len())
}

func TestSyncFetchFailureWritesNothing(t *testing.T) {
	st := store.NewMemoryStore()
	feed := notification.NewNotificationService(10)
	f := &stubFetcher{err: &remote.FetchError{Op: "fetch", URL: "http://x", Status: 503, Err: errors.New("unavailable")}}
	s := New(f, st, WithFeed(feed))

	_, err := s.Sync(context.Background())
	require.Error(t, err)
	var fe *remote.FetchError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, st.Len())

	status := s.Status()
	assert.Equal(t, 1, status.Failures)
	assert.Contains(t, status.LastError, "unavailable")
	assert.Nil(t, status.LastResult)

	events := feed.Recent()
	assert.Equal(t, notification.SyncFailed, events[len(events)-1].Type)
}

func TestSyncAbortsOnFirstUpsertFailure(t *testing.T) {
	st := store.NewMemoryStore()
	boom := errors.New("disk full")
	st.FailOn("320", boom)
	f := &stubFetcher{records: []ledger.Record{
		rec("100", "", 1, 0),
		rec("320", "", 2, 0),
		rec("600", "", 3, 0),
	}}

	res, err := New(f, st).Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var se *store.Error
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, 1, res.RecordsProcessed)

	_, err = st.Get(context.Background(), "100")
	assert.NoError(t, err)
	_, err = st.Get(context.Background(), "600")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncIsReentrant(t *testing.T) {
	st := store.NewMemoryStore()
	f := &stubFetcher{records: []ledger.Record{rec("100.01", "KASA", 1, 0), rec("100.02", "BANKA", 2, 0)}}
	s := New(f, st)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Sync(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 8, s.Status().Runs)
	assert.Zero(t, s.Status().Running)
}

func TestImportPublishesImportEvent(t *testing.T) {
	st := store.NewMemoryStore()
	feed := notification.NewNotificationService(10)
	s := New(&stubFetcher{}, st, WithFeed(feed))

	res, err := s.Import(context.Background(), "upload:mizan.xlsx", []ledger.Record{rec("600.01", "YURTİÇİ SATIŞLAR", 0, 900)})
	require.NoError(t, err)
	assert.Equal(t, "upload:mizan.xlsx", res.Source)
	assert.Equal(t, 1, res.RecordsProcessed)

	events := feed.Recent()
	assert.Equal(t, notification.ImportDone, events[len(events)-1].Type)
}

func TestSyncLogsWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := &stubFetcher{records: []ledger.Record{rec(" ", "x", 0, 0)}}
	_, err := New(f, store.NewMemoryStore(), WithLogger(zap.New(core))).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("ledger record warning").Len())
	assert.Equal(t, 1, logs.FilterMessage("sync completed").Len())
}
