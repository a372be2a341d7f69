package log

// Canonical field name constants for structured logging.
const (
	FieldRequestID = "request_id"
	FieldComponent = "component"
	FieldOp        = "op"
	FieldTool      = "tool"
	FieldURL       = "url"
	FieldPath      = "path"
	FieldDir       = "dir"
)
