package observability

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event is one line of the event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // e.g. "sync.global", "session.closed"
	Message string         `json:"msg"`
	RunID   string         `json:"run_id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter selects events on Read. Zero fields match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	// Type matches exactly, or by prefix when it ends in ".*"
	// ("session.*" matches every session event).
	Type  string
	Level string
	// Limit keeps only the most recent matches when positive.
	Limit int
}

func (f EventFilter) match(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case f.Level != "" && e.Level != f.Level:
		return false
	}
	if f.Type == "" {
		return true
	}
	if prefix, ok := strings.CutSuffix(f.Type, "*"); ok {
		return strings.HasPrefix(e.Type, prefix)
	}
	return e.Type == f.Type
}

// EventLog appends events and reads them back filtered.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// maxEventLine bounds a single decoded line.
const maxEventLine = 1 << 20

type jsonlEventLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// NewJSONLEventLog opens the JSONL event log at path for appending,
// creating the file and its directory when missing.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Write appends event as one line. Times are stored in UTC and a missing
// time is stamped with the current one.
func (l *jsonlEventLog) Write(event Event) error {
	if event.Type == "" {
		return errors.New("writing event: empty type")
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	event.Time = event.Time.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	return nil
}

// Read returns the events matching filter in file order. Undecodable lines
// are skipped. A missing file reads as empty.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	for sc.Scan() {
		var e Event
		if len(sc.Bytes()) == 0 || json.Unmarshal(sc.Bytes(), &e) != nil {
			continue
		}
		if !filter.match(e) {
			continue
		}
		events = append(events, e)
		// Keep the window bounded while scanning long logs.
		if filter.Limit > 0 && len(events) >= 2*filter.Limit {
			events = append(events[:0], events[len(events)-filter.Limit:]...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[len(events)-filter.Limit:]
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
