package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"LedgerSync/api/constants"
	"LedgerSync/internal/logger"
	"LedgerSync/internal/remote"
	"LedgerSync/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	// amounts are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

// RespondWithJSON writes payload with status.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Warn("writing response failed", zap.Error(err))
	}
}

// RespondWithSuccess writes {"success": true, ...fields}.
func RespondWithSuccess(w http.ResponseWriter, fields map[string]interface{}) {
	resp := map[string]interface{}{"success": true}
	for k, v := range fields {
		resp[k] = v
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// RespondWithError writes {"success": false, "message": msg, "error": err}
// plus any extra fields. Known error types also get a caller friendly "hint".
func RespondWithError(w http.ResponseWriter, status int, msg string, err error, extra map[string]interface{}) {
	resp := map[string]interface{}{
		"success": false,
		"message": msg,
	}
	if err != nil {
		resp["error"] = err.Error()
		if hint := errorHint(err); hint != "" {
			resp["hint"] = hint
		}
		logger.L().Error(msg, zap.Int("status", status), zap.Error(err))
	} else {
		resp["error"] = msg
	}
	for k, v := range extra {
		resp[k] = v
	}
	RespondWithJSON(w, status, resp)
}

// errorHint returns the caller friendly text of known error types.
func errorHint(err error) string {
	var se *store.Error
	if errors.As(err, &se) {
		return se.Message()
	}
	switch {
	case errors.Is(err, remote.ErrNotConfigured):
		return constants.ErrRemoteNotSet
	case errors.Is(err, remote.ErrAuthExpired):
		return constants.ErrRemoteAuth
	}
	return ""
}
