package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".claude", "cc-workspace-events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := openTestLog(t)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: now, Level: "INFO", Type: "sync.global", Message: "sync.global", RunID: "run-1", Data: map[string]any{"version": "1.3.0"}},
		{Time: now.Add(time.Second), Level: "WARN", Type: "session.pr_failed", Message: "session.pr_failed", RunID: "run-2", Data: map[string]any{"session": "alpha", "error": "no auth"}},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if !result[0].Time.Equal(now) || result[0].Type != "sync.global" || result[0].RunID != "run-1" {
		t.Errorf("first event = %+v", result[0])
	}
	if result[1].Data["session"] != "alpha" || result[1].Level != "WARN" {
		t.Errorf("second event = %+v", result[1])
	}
}

func TestEventLog_WriteNormalizes(t *testing.T) {
	log, _ := openTestLog(t)
	if err := log.Write(Event{Level: "INFO"}); err == nil {
		t.Error("expected an error for an event without a type")
	}

	local := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	if err := log.Write(Event{Time: local, Level: "INFO", Type: "sync.local"}); err != nil {
		t.Fatal(err)
	}
	before := time.Now().Add(-time.Second)
	if err := log.Write(Event{Level: "INFO", Type: "sync.global"}); err != nil {
		t.Fatal(err)
	}

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Time.Location() != time.UTC || !got[0].Time.Equal(local) {
		t.Errorf("time = %v, want %v in UTC", got[0].Time, local)
	}
	if got[1].Time.Before(before) {
		t.Errorf("zero time not stamped: %v", got[1].Time)
	}
}

func TestEventLog_CreatesDirectory(t *testing.T) {
	_, path := openTestLog(t)
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := openTestLog(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, typ := range []string{"sync.global", "sync.local", "sync.global", "session.closed", "sync.global"} {
		level := "INFO"
		if i == 3 {
			level = "WARN"
		}
		if err := log.Write(Event{Time: base.Add(time.Duration(i) * time.Minute), Level: level, Type: typ, Data: map[string]any{"seq": i}}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		filter  EventFilter
		wantSeq []float64
	}{
		{"type", EventFilter{Type: "sync.global"}, []float64{0, 2, 4}},
		{"type with limit", EventFilter{Type: "sync.global", Limit: 1}, []float64{4}},
		{"level", EventFilter{Level: "WARN"}, []float64{3}},
		{"limit larger than matches", EventFilter{Type: "sync.local", Limit: 10}, []float64{1}},
		{"window", EventFilter{Since: ptr(base.Add(time.Minute)), Until: ptr(base.Add(3 * time.Minute))}, []float64{1, 2, 3}},
		{"no match", EventFilter{Type: "session.deleted"}, nil},
		{"type prefix", EventFilter{Type: "sync.*"}, []float64{0, 1, 2, 4}},
		{"type prefix with limit", EventFilter{Type: "sync.*", Limit: 2}, []float64{2, 4}},
		{"limit across window trims", EventFilter{Limit: 2}, []float64{3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.wantSeq) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.wantSeq))
			}
			for i, e := range got {
				if e.Data["seq"] != tt.wantSeq[i] {
					t.Errorf("event %d seq = %v, want %v", i, e.Data["seq"], tt.wantSeq[i])
				}
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := openTestLog(t)
	if err := log.Write(Event{Time: time.Now(), Level: "INFO", Type: "sync.local"}); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{truncated\n\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	if err := log.Write(Event{Time: time.Now(), Level: "INFO", Type: "sync.local"}); err != nil {
		t.Fatal(err)
	}

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 readable events, got %d", len(got))
	}
}

func TestEventLog_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	for i := 0; i < 2; i++ {
		log, err := NewJSONLEventLog(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := log.Write(Event{Time: time.Now(), Level: "INFO", Type: "sync.global"}); err != nil {
			t.Fatal(err)
		}
		if err := log.Close(); err != nil {
			t.Fatal(err)
		}
	}
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	got, err := log.Read(EventFilter{Type: "sync.global"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events after reopening, got %d", len(got))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log, _ := openTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = log.Write(Event{Time: time.Now(), Level: "INFO", Type: "session.branch_deleted", Data: map[string]any{"seq": i}})
		}(i)
	}
	wg.Wait()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 events, got %d", len(got))
	}
}

func ptr(t time.Time) *time.Time { return &t }
