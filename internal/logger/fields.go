package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Context-level fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the catalog import job ID
	FieldJobID = "job_id"

	// FieldSearchID identifies one search request across service, engine and analytics
	FieldSearchID = "search_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSource is the import source identifier (staging, feed)
	FieldSource = "source"

	// FieldUserID is the authenticated user ID
	FieldUserID = "user_id"

	// FieldSessionID is the anonymous storefront session
	FieldSessionID = "session_id"

	// FieldLocale is the resolved search locale (en, ru)
	FieldLocale = "locale"

	// FieldStrategy is the ranking strategy (exact, fuzzy)
	FieldStrategy = "strategy"

	// FieldOrderID is the order being mutated
	FieldOrderID = "order_id"

	// FieldGemstoneID is the gemstone being written
	FieldGemstoneID = "gemstone_id"
)

// Entry-level metric fields, used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldTotal is the total number of matches before pagination
	FieldTotal = "total"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
