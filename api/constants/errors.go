package constants

// ============================================================================
// DATA ERRORS
// ============================================================================

const (
	ErrFetchData      = "Failed to fetch data"
	ErrBadPagination  = "Invalid pagination parameters"
	ErrFetchGrouped   = "Failed to fetch grouped data"
	ErrFetchTree      = "Failed to build account tree"
	ErrFetchTotals    = "Failed to compute totals"
	ErrAccountMissing = "Account not found"
	ErrAccountLookup  = "Failed to load account"
)

// ============================================================================
// SYNC ERRORS
// ============================================================================

const (
	ErrSyncFailed    = "Sync failed"
	NoteSyncFailed   = "Check if API URLs are configured correctly in .env file"
	ErrRemoteAuth    = "Remote API rejected the configured credentials"
	ErrRemoteNotSet  = "Remote API URLs are not configured"
	ErrRemoteFailure = "Remote API request failed"
)

// ============================================================================
// UPLOAD / EXPORT ERRORS
// ============================================================================

const (
	ErrFileMissing      = "A spreadsheet must be uploaded in the 'file' field"
	ErrFileTooLarge     = "Uploaded file is too large"
	ErrFileUnreadable   = "Uploaded file could not be read as a ledger sheet"
	ErrImportFailed     = "Import failed"
	ErrExportFailed     = "Failed to export ledger"
	ErrMethodNotAllowed = "Method Not Allowed"
	ErrRouteNotFound    = "Route not found"
)

// ============================================================================
// SUCCESS MESSAGES
// ============================================================================

const (
	MsgSyncSuccess   = "Data synced successfully"
	MsgImportSuccess = "Data imported successfully"
	StatusOK         = "OK"
)
