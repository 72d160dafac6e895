package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"LedgerSync/api/constants"
	"LedgerSync/api/utils"
	"LedgerSync/internal/config"
	"LedgerSync/internal/export"
	"LedgerSync/internal/ledger"
	"LedgerSync/internal/logger"
	"LedgerSync/internal/remote"
	"LedgerSync/internal/serviceiface"
	"LedgerSync/internal/store"
	"LedgerSync/internal/syncer"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deps are the components the handlers work with.
type Deps struct {
	Store   store.RecordStore
	Syncer  *syncer.Syncer
	Builder *ledger.Builder
	// Health is reported under "services" by the health endpoint.
	Health map[string]serviceiface.HealthReporter
	Now    func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// GetData returns every stored record.
func GetData(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, paged, err := utils.ExtractPagination(r)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, constants.ErrBadPagination, err, nil)
			return
		}
		records, err := d.Store.All(r.Context())
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrFetchData, err, nil)
			return
		}
		if !paged {
			RespondWithSuccess(w, map[string]interface{}{
				"data":  records,
				"count": len(records),
			})
			return
		}
		page.SetPaginationStats(len(records))
		start, end := page.Window(len(records))
		RespondWithSuccess(w, map[string]interface{}{
			"data":       records[start:end],
			"count":      end - start,
			"pagination": page,
		})
	}
}

// GetGroupedData returns the fixed three-level grouping of the stored records.
func GetGroupedData(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Store.All(r.Context())
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrFetchGrouped, err, nil)
			return
		}
		RespondWithSuccess(w, map[string]interface{}{
			"data": ledger.BuildGrouped(records),
		})
	}
}

// treeNode is a ledger node with its subtree totals.
type treeNode struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Net         decimal.Decimal `json:"net"`
	Depth       int             `json:"depth"`
	Synthesized bool            `json:"synthesized"`
	Children    []treeNode      `json:"children"`
}

func toTreeNode(n ledger.Node) treeNode {
	t := treeNode{
		AccountCode: n.AccountCode,
		AccountName: n.AccountName,
		Debit:       n.Debit,
		Credit:      n.Credit,
		TotalDebit:  n.TotalDebit(),
		TotalCredit: n.TotalCredit(),
		Depth:       n.Depth,
		Synthesized: n.Synthesized,
		Children:    make([]treeNode, 0, len(n.Children)),
	}
	t.Net = t.TotalDebit.Sub(t.TotalCredit)
	for _, c := range n.Children {
		t.Children = append(t.Children, toTreeNode(c))
	}
	return t
}

// GetTree returns the account forest with subtree totals.
func GetTree(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Store.All(r.Context())
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrFetchTree, err, nil)
			return
		}
		forest := d.Builder.BuildForest(records)
		out := make([]treeNode, 0, len(forest))
		for _, root := range forest {
			out = append(out, toTreeNode(root))
		}
		RespondWithSuccess(w, map[string]interface{}{
			"data":  out,
			"count": ledger.CountNodes(forest),
		})
	}
}

// GetDebugTotals returns whole-ledger totals and a few sample records.
func GetDebugTotals(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Store.All(r.Context())
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrFetchTotals, err, nil)
			return
		}
		s := ledger.Summarize(records)
		RespondWithSuccess(w, map[string]interface{}{
			"totalRecords":      s.TotalRecords,
			"validAccounts":     s.ValidAccounts,
			"totalDebit":        s.TotalDebit,
			"totalCredit":       s.TotalCredit,
			"netBalance":        s.NetBalance,
			"recordsWithDebit":  s.RecordsWithDebit,
			"recordsWithCredit": s.RecordsWithCredit,
			"sampleRecords":     s.SampleRecords,
		})
	}
}

// GetAccount returns one stored row with its timestamps.
func GetAccount(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)[constants.PathVarCode]
		entry, err := d.Store.Get(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			RespondWithError(w, http.StatusNotFound, constants.ErrAccountMissing, nil, map[string]interface{}{"accountCode": code})
			return
		}
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrAccountLookup, err, nil)
			return
		}
		RespondWithSuccess(w, map[string]interface{}{"data": entry})
	}
}

// PostSync runs a sync immediately, outside the scheduler's circuit breaker.
func PostSync(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Audit("manual sync requested", zap.String("remote", clientIP(r)))
		res, err := d.Syncer.Sync(r.Context())
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrSyncFailed, err, map[string]interface{}{
				"note": constants.NoteSyncFailed,
			})
			return
		}
		RespondWithSuccess(w, map[string]interface{}{
			"message":          constants.MsgSyncSuccess,
			"recordsProcessed": res.RecordsProcessed,
			"runId":            res.RunID,
			"changed":          res.Changed,
		})
	}
}

// GetSyncStatus reports the orchestrator's bookkeeping.
func GetSyncStatus(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithSuccess(w, map[string]interface{}{"data": d.Syncer.Status()})
	}
}

// PostImport stores the records of an uploaded xlsx, xls or csv sheet.
func PostImport(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				RespondWithError(w, http.StatusRequestEntityTooLarge, constants.ErrFileTooLarge, err, nil)
				return
			}
			RespondWithError(w, http.StatusBadRequest, constants.ErrFileMissing, err, nil)
			return
		}
		file, header, err := r.FormFile(constants.FormFieldFile)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, constants.ErrFileMissing, err, nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, constants.ErrFileUnreadable, err, nil)
			return
		}
		records, err := remote.ReadSpreadsheet(data)
		if err != nil {
			RespondWithError(w, http.StatusUnprocessableEntity, constants.ErrFileUnreadable, err, nil)
			return
		}

		logger.Audit("ledger import", zap.String("file", header.Filename), zap.Int("records", len(records)))
		res, err := d.Syncer.Import(r.Context(), "upload:"+header.Filename, records)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrImportFailed, err, map[string]interface{}{
				"recordsProcessed": res.RecordsProcessed,
			})
			return
		}
		RespondWithSuccess(w, map[string]interface{}{
			"message":          constants.MsgImportSuccess,
			"recordsProcessed": res.RecordsProcessed,
			"runId":            res.RunID,
			"warnings":         res.Warnings,
		})
	}
}

// GetExport streams the ledger as an xlsx workbook.
func GetExport(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Store.All(r.Context())
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrExportFailed, err, nil)
			return
		}
		var buf bytes.Buffer
		if err := export.WriteWorkbook(&buf, d.Builder.BuildForest(records), records); err != nil {
			RespondWithError(w, http.StatusInternalServerError, constants.ErrExportFailed, err, nil)
			return
		}
		name := fmt.Sprintf("mizan_%s.xlsx", d.now().Format(constants.DateFormatCompact))
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeXLSX)
		w.Header().Set(constants.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// Health reports liveness plus the state of registered services.
func Health(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"status":    constants.StatusOK,
			"timestamp": d.now().UTC().Format(time.RFC3339),
		}
		if len(d.Health) > 0 {
			services := make(map[string]interface{}, len(d.Health))
			for name, h := range d.Health {
				services[name] = h.Health()
			}
			resp["services"] = services
		}
		RespondWithJSON(w, http.StatusOK, resp)
	}
}
