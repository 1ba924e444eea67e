package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"

	// Engine identity
	FieldInstance   = "instance"
	FieldDefinition = "definition"
	FieldVersion    = "version"

	// Step fields
	FieldEvent      = "event"
	FieldStep       = "step"
	FieldState      = "state"
	FieldTransition = "transition"
	FieldAction     = "action"
	FieldPhase      = "phase"
	FieldExited     = "exited"
	FieldEntered    = "entered"
	FieldActive     = "active"
	FieldStatus     = "status"
	FieldDuration   = "duration"

	FieldPath = "path"
)
