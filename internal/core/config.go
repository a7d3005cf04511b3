// Package core contains the business logic of cc-workspace: version
// gating, artifact classification and synchronization, workspace scanning,
// session lifecycle, diagnostics and configuration.
package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// ConfigFileName is looked up in the home directory and in the
// orchestrator directory.
const ConfigFileName = ".ccwconfig"

// ConfigurationManager loads and validates cc-workspace configuration.
type ConfigurationManager interface {
	// Load reads ~/.ccwconfig and, when orchestratorDir is not empty, merges
	// the workspace copy over it. CCW_* environment variables win over both.
	Load(orchestratorDir string) (*models.WorkspaceConfig, error)
	ValidateConfig(cfg *models.WorkspaceConfig) error
}

type viperConfigManager struct {
	homeDir string
}

// NewConfigurationManager creates a ConfigurationManager reading the user
// file from homeDir.
func NewConfigurationManager(homeDir string) ConfigurationManager {
	return &viperConfigManager{homeDir: homeDir}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *models.WorkspaceConfig {
	cfg := &models.WorkspaceConfig{}
	cfg.Workspace.DirName = "orchestrator"
	cfg.Workspace.Marker = "workspace.md"
	cfg.Timeouts.Git = 5 * time.Second
	cfg.Timeouts.PR = 30 * time.Second
	cfg.Hosting.Provider = models.HostingGH
	cfg.Hosting.TokenEnv = "GITHUB_TOKEN"
	cfg.Log.Level = "warn"
	cfg.Session.CommitDisplayLimit = DefaultCommitDisplayLimit
	return cfg
}

func (cm *viperConfigManager) Load(orchestratorDir string) (*models.WorkspaceConfig, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.homeDir)

	v.SetDefault("workspace.dir_name", def.Workspace.DirName)
	v.SetDefault("workspace.marker", def.Workspace.Marker)
	v.SetDefault("timeouts.git", def.Timeouts.Git.String())
	v.SetDefault("timeouts.pr", def.Timeouts.PR.String())
	v.SetDefault("hosting.provider", def.Hosting.Provider)
	v.SetDefault("hosting.token_env", def.Hosting.TokenEnv)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("session.commit_display_limit", def.Session.CommitDisplayLimit)

	v.SetEnvPrefix("CCW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	if orchestratorDir != "" {
		local := filepath.Join(orchestratorDir, ConfigFileName)
		if exists(local) {
			v.SetConfigFile(local)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", local, err)
			}
		}
	}

	cfg := &models.WorkspaceConfig{}
	cfg.Workspace.DirName = v.GetString("workspace.dir_name")
	cfg.Workspace.Marker = v.GetString("workspace.marker")
	cfg.Timeouts.Git = v.GetDuration("timeouts.git")
	cfg.Timeouts.PR = v.GetDuration("timeouts.pr")
	cfg.Hosting.Provider = v.GetString("hosting.provider")
	cfg.Hosting.TokenEnv = v.GetString("hosting.token_env")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Session.CommitDisplayLimit = v.GetInt("session.commit_display_limit")
	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns
// an error naming the offending key.
func (cm *viperConfigManager) ValidateConfig(cfg *models.WorkspaceConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	for key, name := range map[string]string{
		"workspace.dir_name": cfg.Workspace.DirName,
		"workspace.marker":   cfg.Workspace.Marker,
	} {
		if name == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("%s must be a plain name, got %q", key, name)
		}
	}
	if cfg.Timeouts.Git <= 0 {
		return fmt.Errorf("timeouts.git must be positive, got %s", cfg.Timeouts.Git)
	}
	if cfg.Timeouts.PR <= 0 {
		return fmt.Errorf("timeouts.pr must be positive, got %s", cfg.Timeouts.PR)
	}
	switch cfg.Hosting.Provider {
	case models.HostingGH, models.HostingGitHubAPI:
	default:
		return fmt.Errorf("hosting.provider must be %q or %q, got %q", models.HostingGH, models.HostingGitHubAPI, cfg.Hosting.Provider)
	}
	if cfg.Hosting.Provider == models.HostingGitHubAPI && cfg.Hosting.TokenEnv == "" {
		return fmt.Errorf("hosting.token_env must name a variable when hosting.provider is %q", models.HostingGitHubAPI)
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Session.CommitDisplayLimit <= 0 {
		return fmt.Errorf("session.commit_display_limit must be positive, got %d", cfg.Session.CommitDisplayLimit)
	}
	return nil
}
