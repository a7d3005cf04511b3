// Package internal provides the App struct that wires all components of
// cc-workspace together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/valter-silva-au/cc-workspace/assets"
	"github.com/valter-silva-au/cc-workspace/internal/cli"
	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/internal/integration"
	"github.com/valter-silva-au/cc-workspace/internal/observability"
	"github.com/valter-silva-au/cc-workspace/internal/storage"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// App holds all service dependencies of cc-workspace.
type App struct {
	Env             core.Env
	Config          *models.WorkspaceConfig
	OrchestratorDir string
	RunID           string
	Logger          zerolog.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	SessionStore storage.SessionStore

	// Core services
	Versions  core.VersionStore
	Planner   core.SyncPlanner
	Scanner   core.WorkspaceScanner
	Sync      core.ArtifactSynchronizer
	Lifecycle core.SessionLifecycleManager
	Doctor    core.Doctor

	// Integration services
	Runner  integration.CommandRunner
	Git     *integration.GitClient
	Hosting integration.PullRequestCreator

	// Observability
	EventLog observability.EventLog
}

// Options carries process state into NewApp.
type Options struct {
	Home    string
	Cwd     string
	Verbose bool
}

// NewApp creates and wires all components of cc-workspace.
func NewApp(opts Options) (*App, error) {
	app := &App{
		Env:   core.NewEnv(opts.Home, opts.Cwd),
		RunID: uuid.New().String(),
	}

	// --- Configuration ---
	// The user file decides the orchestrator name, which locates the
	// workspace file; both are then read together.
	app.ConfigMgr = core.NewConfigurationManager(opts.Home)
	cfg, err := app.ConfigMgr.Load("")
	if err != nil {
		return nil, err
	}
	resolver := core.NewArtifactSynchronizer(core.SynchronizerConfig{
		Env:     app.Env,
		DirName: cfg.Workspace.DirName,
		Marker:  cfg.Workspace.Marker,
	})
	if orch, ok := resolver.ResolveWorkspace(opts.Cwd); ok {
		app.OrchestratorDir = orch
		if cfg, err = app.ConfigMgr.Load(orch); err != nil {
			return nil, err
		}
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	app.Config = cfg

	// --- Observability ---
	level := cfg.Log.Level
	if opts.Verbose {
		level = zerolog.LevelDebugValue
	}
	app.Logger = observability.NewStderrLogger(level).With().Str("run_id", app.RunID).Logger()

	app.EventLog, err = observability.NewJSONLEventLog(app.Env.EventLogPath())
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.Logger.Debug().Err(err).Msg("event log disabled")
		app.EventLog = nil
	}
	var events *eventLogAdapter
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog, runID: app.RunID}
	}

	// --- Integration services ---
	app.Runner = integration.NewCommandRunner()
	app.Git = integration.NewGitClient(app.Runner, cfg.Timeouts.Git)
	switch cfg.Hosting.Provider {
	case models.HostingGitHubAPI:
		app.Hosting = integration.NewGitHubAPICreator(os.Getenv(cfg.Hosting.TokenEnv), app.Git, cfg.Timeouts.PR)
	default:
		app.Hosting = integration.NewGHCLICreator(app.Runner, cfg.Timeouts.PR)
	}

	// --- Storage layer ---
	app.SessionStore = storage.NewSessionStore()

	// --- Core services ---
	source := assets.GlobalSkills()
	app.Versions = core.NewVersionStore(app.Env)
	app.Planner = core.NewSyncPlanner()
	app.Scanner = core.NewWorkspaceScanner(integration.NewRepoInspector(), app.Logger)
	app.Sync = core.NewArtifactSynchronizer(core.SynchronizerConfig{
		Env:      app.Env,
		Source:   source,
		Version:  core.PackageVersion,
		DirName:  cfg.Workspace.DirName,
		Marker:   cfg.Workspace.Marker,
		Planner:  app.Planner,
		Versions: app.Versions,
		Scanner:  app.Scanner,
		Events:   events.orNil(),
		Logger:   app.Logger,
	})
	if app.OrchestratorDir != "" {
		app.Lifecycle = core.NewSessionLifecycleManager(core.LifecycleConfig{
			OrchestratorDir: app.OrchestratorDir,
			Store:           app.SessionStore,
			VCS:             &vcsAdapter{git: app.Git},
			Hosting:         &hostingAdapter{creator: app.Hosting},
			Events:          events.orNil(),
			Logger:          app.Logger,
			CommitLimit:     cfg.Session.CommitDisplayLimit,
		})
	}
	doctorCfg := core.DoctorConfig{
		Env:      app.Env,
		Source:   source,
		Version:  core.PackageVersion,
		Versions: app.Versions,
		Sync:     app.Sync,
	}
	if events != nil {
		doctorCfg.Events = events
	}
	app.Doctor = core.NewDoctor(doctorCfg)

	// --- Wire CLI ---
	cli.Sync = app.Sync
	cli.Versions = app.Versions
	cli.DoctorSvc = app.Doctor
	if app.Lifecycle != nil {
		cli.Sessions = app.Lifecycle
	}
	cli.EventLog = app.EventLog
	cli.HomeDir = opts.Home
	cli.WorkDir = opts.Cwd
	cli.OrchestratorDir = app.OrchestratorDir
	cli.OrchestratorName = cfg.Workspace.DirName
	cli.PackageVersion = core.PackageVersion

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// VerboseRequested reports whether args carry the root --verbose flag.
// The logger is built before cobra parses flags.
func VerboseRequested(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "-v", "--verbose", "--verbose=true":
			return true
		}
	}
	return false
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger and
// core.EventReader.
type eventLogAdapter struct {
	log   observability.EventLog
	runID string
}

// orNil returns a nil interface for a nil adapter so consumers can test
// the interface against nil.
func (a *eventLogAdapter) orNil() core.EventLogger {
	if a == nil {
		return nil
	}
	return a
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if _, failed := data["error"]; failed {
		level = "WARN"
	}
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventType,
		RunID:   a.runID,
		Data:    data,
	})
}

func (a *eventLogAdapter) LastEvent(eventType string) (time.Time, bool, error) {
	events, err := a.log.Read(observability.EventFilter{Type: eventType, Limit: 1})
	if err != nil {
		return time.Time{}, false, err
	}
	if len(events) == 0 {
		return time.Time{}, false, nil
	}
	return events[len(events)-1].Time, true, nil
}

// vcsAdapter adapts integration.GitClient to core.VCS.
type vcsAdapter struct {
	git *integration.GitClient
}

func (a *vcsAdapter) RepoExists(repoPath string) bool {
	return a.git.RepoExists(repoPath)
}

func (a *vcsAdapter) CommitsNotOn(ctx context.Context, repoPath, branch, base string, limit int) ([]string, error) {
	return a.git.CommitsNotOn(ctx, repoPath, branch, base, limit)
}

func (a *vcsAdapter) UnpushedCommits(ctx context.Context, repoPath, branch string) (core.UnpushedCount, error) {
	n, err := a.git.UnpushedCommits(ctx, repoPath, branch)
	if err != nil {
		return core.UnpushedCount{}, err
	}
	return core.UnpushedCount{Count: n, Known: true}, nil
}

func (a *vcsAdapter) DeleteBranch(ctx context.Context, repoPath, branch string) error {
	return a.git.DeleteBranch(ctx, repoPath, branch)
}

// hostingAdapter adapts integration.PullRequestCreator to core.Hosting.
type hostingAdapter struct {
	creator integration.PullRequestCreator
}

func (a *hostingAdapter) CreatePullRequest(ctx context.Context, repoPath string, pr core.PullRequest) (string, error) {
	return a.creator.CreatePullRequest(ctx, repoPath, integration.PullRequestSpec{
		Base:  pr.Base,
		Head:  pr.Head,
		Title: pr.Title,
		Body:  pr.Body,
	})
}
