package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Env locates the user-scoped state that cc-workspace reads and writes.
// It is built once at startup and passed to constructors so nothing below
// the wiring layer consults the process environment.
type Env struct {
	// Home is the user's home directory.
	Home string
	// ClaudeDir is the agent runtime's global directory (normally ~/.claude).
	ClaudeDir string
	// Cwd is the directory the command was invoked from.
	Cwd string
}

// NewEnv returns an Env rooted at home with the default global directory.
func NewEnv(home, cwd string) Env {
	return Env{
		Home:      home,
		ClaudeDir: filepath.Join(home, ".claude"),
		Cwd:       cwd,
	}
}

// VersionFile is the installed-version marker.
func (e Env) VersionFile() string { return filepath.Join(e.ClaudeDir, ".orchestrator-version") }

// GlobalSkillsDir receives mirrored skill directories.
func (e Env) GlobalSkillsDir() string { return filepath.Join(e.ClaudeDir, "skills") }

// GlobalRulesDir receives rule documents.
func (e Env) GlobalRulesDir() string { return filepath.Join(e.ClaudeDir, "rules") }

// GlobalAgentsDir receives agent definitions.
func (e Env) GlobalAgentsDir() string { return filepath.Join(e.ClaudeDir, "agents") }

// EventLogPath is the JSONL event log shared by all workspaces.
func (e Env) EventLogPath() string { return filepath.Join(e.ClaudeDir, "cc-workspace-events.jsonl") }

// VersionStore persists the version of the globally installed components.
type VersionStore interface {
	// Read returns the installed version, or "" when none is recorded or the
	// marker cannot be read.
	Read() string
	// Write records version as installed.
	Write(version string) error
	// NeedsSync reports whether packageVersion must be installed.
	NeedsSync(packageVersion string, force bool) bool
}

type fileVersionStore struct {
	path string
}

// NewVersionStore creates a VersionStore backed by the marker file in env.
func NewVersionStore(env Env) VersionStore {
	return &fileVersionStore{path: env.VersionFile()}
}

func (s *fileVersionStore) Read() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Write replaces the marker through a temporary file in the same directory.
// There is a single writer, so no lock is taken.
func (s *fileVersionStore) Write(version string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writing installed version: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".orchestrator-version-*")
	if err != nil {
		return fmt.Errorf("writing installed version: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(version + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing installed version: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing installed version: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing installed version: %w", err)
	}
	return nil
}

func (s *fileVersionStore) NeedsSync(packageVersion string, force bool) bool {
	return needsSync(s.Read(), packageVersion, force)
}

func needsSync(installed, packageVersion string, force bool) bool {
	if force || installed == "" {
		return true
	}
	return CompareVersions(packageVersion, installed) > 0
}

// CompareVersions returns -1 if a < b, 0 if a == b and 1 if a > b, comparing
// up to three dot-separated numeric components. Missing components count as
// 0. Non-numeric components are not supported and also count as 0.
func CompareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for i := 0; i < 3; i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionParts(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return parts
	}
	for i, field := range strings.SplitN(v, ".", 4) {
		if i == 3 {
			break
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		parts[i] = n
	}
	return parts
}

// versionInRange reports whether v lies in [since, until). Empty bounds are open.
func versionInRange(v, since, until string) bool {
	if since != "" && CompareVersions(v, since) < 0 {
		return false
	}
	if until != "" && CompareVersions(v, until) >= 0 {
		return false
	}
	return true
}
