package cli

import (
	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	Sync      core.ArtifactSynchronizer
	Versions  core.VersionStore
	DoctorSvc core.Doctor
	// Sessions is nil when no orchestrator directory was found.
	Sessions core.SessionLifecycleManager
	EventLog observability.EventLog

	// HomeDir is the user's home directory.
	HomeDir string
	// WorkDir is the directory ccw was started from.
	WorkDir string
	// OrchestratorDir is the resolved orchestrator directory, if any.
	OrchestratorDir string
	// OrchestratorName is the configured orchestrator directory name.
	OrchestratorName = "orchestrator"
	// PackageVersion is the version of the embedded components.
	PackageVersion = core.PackageVersion
)

// NewConfirmer builds the Confirmer used by session close. Tests replace it.
var NewConfirmer = func() core.Confirmer { return newTerminalConfirmer() }
