package constants

// Content Types
const (
	ContentTypeJSON  = "application/json"
	ContentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeText  = "Content-Type"
	ContentTypeEvent = "text/event-stream"
)

// Headers
const (
	HeaderAccessControlAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAccessControlMaxAge           = "Access-Control-Max-Age"
	HeaderAccessControlAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderContentDisposition            = "Content-Disposition"
	HeaderVary                          = "Vary"
	HeaderRequestID                     = "X-Request-ID"
)

// Routes
const (
	RouteData        = "/api/data"
	RouteGrouped     = "/api/data/grouped"
	RouteTree        = "/api/data/tree"
	RouteSync        = "/api/data/sync"
	RouteSyncStatus  = "/api/data/sync/status"
	RouteDebugTotals = "/api/data/debug-totals"
	RouteAccount     = "/api/data/account/{code}"
	RouteImport      = "/api/data/import"
	RouteExport      = "/api/data/export.xlsx"
	RouteEvents      = "/api/events"
	RouteHealth      = "/health"
)

// Form fields
const (
	FormFieldFile = "file"
	PathVarCode   = "code"
)

// Date formats
const (
	DateFormatCompact = "20060102"
)
