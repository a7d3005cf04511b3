package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/internal/observability"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// --- Fakes ---

type fakeSessions struct {
	sessions  []models.Session
	corrupt   []string
	details   map[string]*models.SessionDetail
	err       error
	closeRes  *core.CloseResult
	questions []string
	closed    string
}

func (f *fakeSessions) List() ([]models.Session, []string, error) {
	return f.sessions, f.corrupt, f.err
}

func (f *fakeSessions) Status(_ context.Context, name string) (*models.SessionDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details[name], nil
}

// Close asks one question per reported action that has a Repo and replays
// the scripted actions, marking each accepted when the confirmer agrees.
func (f *fakeSessions) Close(_ context.Context, name string, confirm core.Confirmer, report core.CloseReporter) (*core.CloseResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.closed = name
	res := &core.CloseResult{Session: name, Outcome: f.closeRes.Outcome}
	for _, a := range f.closeRes.Actions {
		if a.Kind != core.ActionWarnUnpushed {
			q := string(a.Kind) + " " + a.Repo + "?"
			f.questions = append(f.questions, q)
			a.Accepted = confirm.Confirm(q)
		}
		res.Actions = append(res.Actions, a)
		report.Report(a)
	}
	return res, nil
}

type fakeSync struct {
	global    *core.GlobalInstallResult
	local     *core.LocalSyncResult
	report    *models.ScanReport
	setupErr  error
	forced    bool
	setupArgs []string
	synced    int
}

func (f *fakeSync) InstallGlobal(force bool) (*core.GlobalInstallResult, error) {
	f.forced = force
	return f.global, nil
}

func (f *fakeSync) SyncLocal(string) (*core.LocalSyncResult, error) {
	f.synced++
	return f.local, nil
}

func (f *fakeSync) SetupWorkspace(targetPath, projectName string) (*models.ScanReport, error) {
	f.setupArgs = []string{targetPath, projectName}
	return f.report, f.setupErr
}

func (f *fakeSync) ResolveWorkspace(string) (string, bool) { return "", false }

type fakeVersions struct{ installed string }

func (f fakeVersions) Read() string { return f.installed }
func (f fakeVersions) Write(string) error { return nil }
func (f fakeVersions) NeedsSync(string, bool) bool { return false }

type fakeDoctor struct{ report *core.DoctorReport }

func (f fakeDoctor) Run(string) *core.DoctorReport { return f.report }

type fakeEventLog struct {
	events []observability.Event
	filter observability.EventFilter
}

func (f *fakeEventLog) Write(e observability.Event) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventLog) Read(filter observability.EventFilter) ([]observability.Event, error) {
	f.filter = filter
	var out []observability.Event
	for _, e := range f.events {
		if filter.Type == "" || e.Type == filter.Type {
			out = append(out, e)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

func (f *fakeEventLog) Close() error { return nil }

// --- Helpers ---

// withServices swaps the package service variables for the duration of a
// test.
func withServices(t *testing.T) {
	t.Helper()
	origSync, origVersions, origDoctor := Sync, Versions, DoctorSvc
	origSessions, origEvents := Sessions, EventLog
	origWork, origHome, origName := WorkDir, HomeDir, OrchestratorName
	origConfirmer, origTTY := NewConfirmer, stdinIsTerminal
	t.Cleanup(func() {
		Sync, Versions, DoctorSvc = origSync, origVersions, origDoctor
		Sessions, EventLog = origSessions, origEvents
		WorkDir, HomeDir, OrchestratorName = origWork, origHome, origName
		NewConfirmer, stdinIsTerminal = origConfirmer, origTTY
	})
	Sync, Versions, DoctorSvc, Sessions, EventLog = nil, nil, nil, nil, nil
	OrchestratorName = "orchestrator"
	stdinIsTerminal = func() bool { return false }
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	updateForce = false
	eventsJSON, eventsType, eventsSince, eventsLimit = false, "", "", 20
	completionInstall = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := Execute()
	return out.String(), err
}

func alphaSession() models.Session {
	return models.Session{
		Name:    "alpha",
		Status:  models.SessionActive,
		Created: "2026-03-01T09:00:00Z",
		Repos: map[string]models.RepoBinding{
			"api": {Path: "../api", SourceBranch: "main", SessionBranch: "session/alpha", BranchCreated: true},
			"web": {Path: "../web", SourceBranch: "develop", SessionBranch: "session/alpha"},
		},
	}
}

var testTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
