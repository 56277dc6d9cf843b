package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldEntryID        = "entry_id"
	FieldCategoryID     = "category_id"
	FieldCategory       = "category"
	FieldDate           = "date"
	FieldHours          = "hours"
	FieldMinutes        = "minutes"
	FieldWindowStart    = "window_start"
	FieldWindowEnd      = "window_end"
	FieldCount          = "count"
	FieldEntriesCleared = "entries_cleared"
	FieldCacheHit       = "cache_hit"
	FieldEventKind      = "event_kind"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentService = "service"
	ComponentStorage = "storage"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpSummary  = "summary"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds entry-related fields
func (f LogFields) WithEntry(id int64, date, category string, hours, minutes int) LogFields {
	if id != 0 {
		f[FieldEntryID] = id
	}
	f[FieldDate] = date
	f[FieldCategory] = category
	f[FieldHours] = hours
	f[FieldMinutes] = minutes
	return f
}

// WithCategory adds category-related fields
func (f LogFields) WithCategory(id int64, name string) LogFields {
	if id != 0 {
		f[FieldCategoryID] = id
	}
	if name != "" {
		f[FieldCategory] = name
	}
	return f
}

// WithWindow adds the queried date range
func (f LogFields) WithWindow(start, end string) LogFields {
	f[FieldWindowStart] = start
	f[FieldWindowEnd] = end
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
