package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LedgerSync/internal/ledger"
	"LedgerSync/internal/notification"
	"LedgerSync/internal/remote"
	"LedgerSync/internal/serviceiface"
	"LedgerSync/internal/store"
	"LedgerSync/internal/syncer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubFetcher struct {
	records []ledger.Record
	err     error
}

func (f *stubFetcher) Fetch(ctx context.Context) ([]ledger.Record, error) {
	return f.records, f.err
}

type staticHealth map[string]interface{}

func (h staticHealth) Health() map[string]interface{} { return h }

func rec(code, name string, debit, credit int64) ledger.Record {
	return ledger.Record{AccountCode: code, AccountName: name, Debit: decimal.NewFromInt(debit), Credit: decimal.NewFromInt(credit)}
}

type fixture struct {
	store   *store.MemoryStore
	fetcher *stubFetcher
	router  http.Handler
	feed    *notification.NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	f := &stubFetcher{records: []ledger.Record{
		rec("100.01", "KASA", 100, 0),
		rec("100.02", "BANKA", 0, 50),
	}}
	feed := notification.NewNotificationService(10)
	d := &Deps{
		Store:   st,
		Syncer:  syncer.New(f, st, syncer.WithFeed(feed)),
		Builder: ledger.NewBuilder(nil),
		Health:  map[string]serviceiface.HealthReporter{"cron": staticHealth{"breaker": "closed"}},
		Now:     func() time.Time { return time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC) },
	}
	return &fixture{
		store:   st,
		fetcher: f,
		feed:    feed,
		router:  NewRouter(d, RouterConfig{CORSOrigins: []string{"http://localhost:3000", "*.vercel.app"}}),
	}
}

func (fx *fixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)

	var out map[string]interface{}
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func (fx *fixture) seed(t *testing.T, records ...ledger.Record) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, fx.store.Upsert(context.Background(), r))
	}
}

func TestSyncThenGetData(t *testing.T) {
	fx := newFixture(t)

	rr, body := fx.do(t, http.MethodPost, "/api/data/sync", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Data synced successfully", body["message"])
	assert.EqualValues(t, 2, body["recordsProcessed"])

	rr, body = fx.do(t, http.MethodGet, "/api/data", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 2, body["count"])
	data := body["data"].([]interface{})
	first := data[0].(map[string]interface{})
	assert.Equal(t, "100.01", first["accountCode"])
	assert.EqualValues(t, 100, first["debit"])
}

func TestGetDataPaged(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, rec("100.01", "KASA", 1, 0), rec("100.02", "BANKA", 2, 0), rec("320.01", "SATICI", 0, 3))

	rr, body := fx.do(t, http.MethodGet, "/api/data?page=2&limit=2", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, body["count"])
	data := body["data"].([]interface{})
	assert.Equal(t, "320.01", data[0].(map[string]interface{})["accountCode"])
	page := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, page["total_records"])
	assert.EqualValues(t, 2, page["total_pages"])

	rr, body = fx.do(t, http.MethodGet, "/api/data?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, body["success"])
}

func TestSyncFailureShape(t *testing.T) {
	fx := newFixture(t)
	fx.fetcher.err = remote.ErrNotConfigured

	rr, body := fx.do(t, http.MethodPost, "/api/data/sync", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Sync failed", body["message"])
	assert.Contains(t, body["error"], remote.ErrNotConfigured.Error())
	assert.Equal(t, "Remote API URLs are not configured", body["hint"])
	assert.Equal(t, "Check if API URLs are configured correctly in .env file", body["note"])
}

func TestSyncStoreFailureShape(t *testing.T) {
	fx := newFixture(t)
	fx.store.FailOn("100.02", errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	rr, body := fx.do(t, http.MethodPost, "/api/data/sync", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, body["error"], "dial tcp 10.0.0.5:5432: connection refused")
	assert.Contains(t, body["error"], "100.02")
	assert.Equal(t, "Database error while processing the request. Please try again.", body["hint"])
	assert.Equal(t, 1, fx.store.Len())
}

func TestGetGroupedData(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, rec("100.01.001", "KASA TL", 5, 0), rec("100.01.002", "KASA USD", 10, 0), rec("120.01.001", "ALICI", 0, 7))

	rr, body := fx.do(t, http.MethodGet, "/api/data/grouped", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	level1 := body["data"].(map[string]interface{})["level1"].(map[string]interface{})
	g100 := level1["100"].(map[string]interface{})
	assert.EqualValues(t, 15, g100["debit"])
	level2 := g100["level2"].(map[string]interface{})
	assert.Contains(t, level2, "100.0")
}

func TestGetTreeIncludesTotals(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, rec("100.01", "KASA", 100, 0), rec("100.02", "BANKA", 0, 50))

	rr, body := fx.do(t, http.MethodGet, "/api/data/tree", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 3, body["count"])
	roots := body["data"].([]interface{})
	require.Len(t, roots, 1)
	root := roots[0].(map[string]interface{})
	assert.Equal(t, "100", root["accountCode"])
	assert.Equal(t, "KASA VE BANKA", root["accountName"])
	assert.Equal(t, true, root["synthesized"])
	assert.EqualValues(t, 100, root["totalDebit"])
	assert.EqualValues(t, 50, root["totalCredit"])
	assert.EqualValues(t, 50, root["net"])
	assert.Len(t, root["children"], 2)
}

func TestGetDebugTotals(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, rec("100.01", "KASA", 100, 0), rec("320.01", "SATICI", 0, 40))

	_, body := fx.do(t, http.MethodGet, "/api/data/debug-totals", nil, "")
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "data")
	assert.EqualValues(t, 2, body["totalRecords"])
	assert.EqualValues(t, 2, body["validAccounts"])
	assert.EqualValues(t, 100, body["totalDebit"])
	assert.EqualValues(t, 40, body["totalCredit"])
	assert.EqualValues(t, 60, body["netBalance"])
	assert.EqualValues(t, 1, body["recordsWithDebit"])
	assert.Len(t, body["sampleRecords"], 2)
}

func TestGetAccount(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, rec("120.01", "ALICILAR", 3, 1))

	rr, body := fx.do(t, http.MethodGet, "/api/data/account/120.01", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ALICILAR", data["accountName"])
	assert.Contains(t, data, "updatedAt")

	rr, body = fx.do(t, http.MethodGet, "/api/data/account/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, false, body["success"])
}

func TestSyncStatus(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, http.MethodPost, "/api/data/sync", nil, "")

	_, body := fx.do(t, http.MethodGet, "/api/data/sync/status", nil, "")
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["runs"])
	assert.NotNil(t, data["lastResult"])
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportCSV(t *testing.T) {
	fx := newFixture(t)
	body, ct := multipartBody(t, "file", "mizan.csv", []byte("hesap_kodu,hesap_adi,borc,alacak\n600.01,YURTİÇİ SATIŞLAR,0,900\n"))

	rr, out := fx.do(t, http.MethodPost, "/api/data/import", body, ct)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.EqualValues(t, 1, out["recordsProcessed"])

	e, err := fx.store.Get(context.Background(), "600.01")
	require.NoError(t, err)
	assert.True(t, e.Credit.Equal(decimal.NewFromInt(900)))

	events := fx.feed.Recent()
	assert.Equal(t, notification.ImportDone, events[len(events)-1].Type)
}

func TestImportRejectsMissingFileAndBadSheet(t *testing.T) {
	fx := newFixture(t)
	body, ct := multipartBody(t, "", "", nil)
	rr, _ := fx.do(t, http.MethodPost, "/api/data/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body, ct = multipartBody(t, "file", "x.csv", []byte("foo,bar\n1,2\n"))
	rr, out := fx.do(t, http.MethodPost, "/api/data/import", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, false, out["success"])
}

func TestExportWorkbook(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t, rec("100.01", "KASA", 100, 0))

	rr, _ := fx.do(t, http.MethodGet, "/api/data/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="mizan_20240630.xlsx"`, rr.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Mizan", "A2")
	require.NoError(t, err)
	assert.Equal(t, "100", v)
}

func TestHealth(t *testing.T) {
	fx := newFixture(t)
	rr, body := fx.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "2024-06-30T08:00:00Z", body["timestamp"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, "closed", services["cron"].(map[string]interface{})["breaker"])
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/data/sync", nil)
	req.Header.Set("Origin", "https://ledger-ui.vercel.app")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://ledger-ui.vercel.app", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000", "*.vercel.app"}
	assert.True(t, originAllowed("http://localhost:3000", allowed))
	assert.True(t, originAllowed("https://x.vercel.app", allowed))
	assert.False(t, originAllowed("https://vercel.app.evil.com", allowed))
	assert.False(t, originAllowed("https://evilvercel.app", allowed))
	assert.False(t, originAllowed("http://localhost:3001", allowed))
}

func TestUnknownRoute(t *testing.T) {
	fx := newFixture(t)
	rr, body := fx.do(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, false, body["success"])

	rr, _ = fx.do(t, http.MethodGet, "/api/data/sync", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
