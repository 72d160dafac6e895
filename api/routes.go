package api

import (
	"net/http"

	"LedgerSync/api/constants"
	"LedgerSync/internal/dashboard"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterConfig holds the cross-cutting settings of the router.
type RouterConfig struct {
	CORSOrigins []string
	Events      *dashboard.SSEServer
	Log         *zap.Logger
}

// NewRouter wires every route. Middleware wraps the router rather than
// individual routes so preflight and not-found responses get the same headers.
func NewRouter(d *Deps, cfg RouterConfig) http.Handler {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	router := mux.NewRouter()

	router.HandleFunc(constants.RouteData, GetData(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteGrouped, GetGroupedData(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteTree, GetTree(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteDebugTotals, GetDebugTotals(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteAccount, GetAccount(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteSync, PostSync(d)).Methods(http.MethodPost)
	router.HandleFunc(constants.RouteSyncStatus, GetSyncStatus(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteImport, PostImport(d)).Methods(http.MethodPost)
	router.HandleFunc(constants.RouteExport, GetExport(d)).Methods(http.MethodGet)
	router.HandleFunc(constants.RouteHealth, Health(d)).Methods(http.MethodGet)
	if cfg.Events != nil {
		router.HandleFunc(constants.RouteEvents, cfg.Events.HandleSSE).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, http.StatusNotFound, constants.ErrRouteNotFound, nil, map[string]interface{}{"path": r.URL.Path})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed, nil, nil)
	})
	return RequestLogger(cfg.Log)(SecurityHeaders(CORS(cfg.CORSOrigins)(router)))
}
