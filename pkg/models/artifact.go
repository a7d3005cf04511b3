package models

// ArtifactClass says how the synchronizer treats a managed path.
type ArtifactClass string

const (
	// ArtifactGenerated is rewritten on every sync.
	ArtifactGenerated ArtifactClass = "generated"
	// ArtifactScaffold is created when absent and never overwritten.
	ArtifactScaffold ArtifactClass = "scaffold"
	// ArtifactObsolete is deleted when found.
	ArtifactObsolete ArtifactClass = "obsolete"
	// ArtifactPreserved is never touched after creation.
	ArtifactPreserved ArtifactClass = "preserved"
)

// ArtifactKind distinguishes file artifacts from directory artifacts.
type ArtifactKind string

const (
	KindFile ArtifactKind = "file"
	KindDir  ArtifactKind = "dir"
)

// ArtifactRule classifies the workspace-relative paths matching Pattern
// for versions in [Since, Until). Empty bounds are open.
type ArtifactRule struct {
	ID      string
	Pattern string
	Kind    ArtifactKind
	Class   ArtifactClass
	Since   string
	Until   string
}

// SyncDecision is the planner's verdict on whether a sync must run.
type SyncDecision struct {
	Run       bool
	Reason    string
	Installed string
	Package   string
}

// Actions recorded in an ArtifactChange.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionUnchanged = "unchanged"
	ActionSkipped   = "skipped"
	ActionRemoved   = "removed"
)

// ArtifactChange records what happened to one artifact during a sync.
type ArtifactChange struct {
	Path   string
	Class  ArtifactClass
	Action string
	// Digest is the blake3 digest of the content written, empty for
	// directories and removals.
	Digest string
}

// Changed reports whether the action altered the filesystem.
func (c ArtifactChange) Changed() bool {
	return c.Action == ActionCreated || c.Action == ActionUpdated || c.Action == ActionRemoved
}
