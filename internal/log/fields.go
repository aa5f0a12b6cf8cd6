// Package log defines the shared vocabulary for structured logging:
// field names, component tags and operation names used across the
// HTTP layer and the workers. Keeping the keys in one place keeps log
// queries stable.
package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldTokenID      = "token_id"
	FieldReceiverName = "receiver_name"
	FieldLocation     = "location"
	FieldMealType     = "meal_type"
	FieldPaymentType  = "payment_type"
	FieldAmountPaise  = "amount_paise"
	FieldExportFormat = "export_format"
	FieldReportKind   = "report_kind"
)

// Standard component names
const (
	ComponentHTTP      = "http"
	ComponentToken     = "token"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

// Standard operation names
const (
	OpIssue  = "issue"
	OpUpdate = "update"
	OpDelete = "delete"
	OpExport = "export"
)
