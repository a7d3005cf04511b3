package core

// EventLogger records lifecycle events such as syncs and session closes.
// Defined here so core does not import the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
