package models

import "time"

// Hosting providers accepted in configuration.
const (
	HostingGH        = "gh"
	HostingGitHubAPI = "github-api"
)

// WorkspaceConfig holds cc-workspace settings read from .ccwconfig via Viper.
type WorkspaceConfig struct {
	Workspace WorkspaceSection `yaml:"workspace" mapstructure:"workspace"`
	Timeouts  TimeoutSection   `yaml:"timeouts" mapstructure:"timeouts"`
	Hosting   HostingSection   `yaml:"hosting" mapstructure:"hosting"`
	Log       LogSection       `yaml:"log" mapstructure:"log"`
	Session   SessionSection   `yaml:"session" mapstructure:"session"`
}

// WorkspaceSection names the orchestrator directory and its marker file.
type WorkspaceSection struct {
	DirName string `yaml:"dir_name" mapstructure:"dir_name"`
	Marker  string `yaml:"marker" mapstructure:"marker"`
}

// TimeoutSection bounds external process calls.
type TimeoutSection struct {
	Git time.Duration `yaml:"git" mapstructure:"git"`
	PR  time.Duration `yaml:"pr" mapstructure:"pr"`
}

// HostingSection selects the pull request backend.
type HostingSection struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	TokenEnv string `yaml:"token_env" mapstructure:"token_env"`
}

// LogSection controls diagnostic logging.
type LogSection struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// SessionSection controls session rendering.
type SessionSection struct {
	CommitDisplayLimit int `yaml:"commit_display_limit" mapstructure:"commit_display_limit"`
}
