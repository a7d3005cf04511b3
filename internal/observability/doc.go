// Package observability provides the diagnostic logger and the append-only
// JSONL event log that records syncs and session lifecycle actions.
package observability
