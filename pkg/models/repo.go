package models

// RepoInfo describes a sibling repository found next to the orchestrator.
type RepoInfo struct {
	Name            string `yaml:"name"`
	Path            string `yaml:"path"`
	Type            string `yaml:"type"`
	Branch          string `yaml:"branch,omitempty"`
	HasAgentContext bool   `yaml:"agent_context"`
}

// ScanReport is the result of first-time workspace setup.
type ScanReport struct {
	OrchestratorDir string
	Repos           []RepoInfo
	// MissingContext names the repos without an agent-context document.
	MissingContext []string
	Hooks          int
	Changes        []ArtifactChange
}
