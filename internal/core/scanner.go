package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// ProjectUnknown is reported when no marker file matches.
const ProjectUnknown = "unknown"

// BranchReader reports the checked-out branch of a repository.
// Defined here so core does not import the integration package.
type BranchReader interface {
	CurrentBranch(repoPath string) (string, error)
}

// WorkspaceScanner enumerates sibling repositories of the orchestrator.
type WorkspaceScanner interface {
	// Scan lists the immediate subdirectories of workspaceDir that carry a
	// .git entry, skipping names in exclude, sorted by name.
	Scan(workspaceDir string, exclude ...string) ([]models.RepoInfo, error)
}

type dirScanner struct {
	branches BranchReader
	logger   zerolog.Logger
}

// NewWorkspaceScanner creates a WorkspaceScanner. branches may be nil, in
// which case no branch is reported.
func NewWorkspaceScanner(branches BranchReader, logger zerolog.Logger) WorkspaceScanner {
	return &dirScanner{
		branches: branches,
		logger:   logger.With().Str("component", "scanner").Logger(),
	}
}

func (s *dirScanner) Scan(workspaceDir string, exclude ...string) ([]models.RepoInfo, error) {
	entries, err := os.ReadDir(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("scanning workspace %s: %w", workspaceDir, err)
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var repos []models.RepoInfo
	for _, e := range entries {
		if !e.IsDir() || skip[e.Name()] {
			continue
		}
		dir := filepath.Join(workspaceDir, e.Name())
		if !exists(filepath.Join(dir, ".git")) {
			continue
		}
		info := models.RepoInfo{
			Name:            e.Name(),
			Path:            dir,
			Type:            DetectProjectType(dir),
			HasAgentContext: exists(filepath.Join(dir, "CLAUDE.md")),
		}
		if s.branches != nil {
			branch, err := s.branches.CurrentBranch(dir)
			if err != nil {
				s.logger.Debug().Err(err).Str("repo", e.Name()).Msg("reading current branch")
			} else {
				info.Branch = branch
			}
		}
		repos = append(repos, info)
	}
	return repos, nil
}

// projectMarkers is checked in order; the first present file wins.
var projectMarkers = []struct {
	files []string
	kind  string
}{
	{[]string{"composer.json"}, "PHP/Laravel"},
	{[]string{"pom.xml"}, "Java/Spring"},
	{[]string{"build.gradle"}, "Java/Gradle"},
	{[]string{"requirements.txt", "pyproject.toml"}, "Python"},
	{[]string{"go.mod"}, "Go"},
	{[]string{"Cargo.toml"}, "Rust"},
}

// packageJSONHints refine a package.json project by substring, in order.
var packageJSONHints = []struct {
	needle string
	kind   string
}{
	{"quasar", "Vue/Quasar"},
	{"nuxt", "Vue/Nuxt"},
	{"next", "React/Next"},
	{`"vue"`, "Vue"},
	{`"react"`, "React"},
}

// DetectProjectType classifies a repository by the marker files it contains.
func DetectProjectType(dir string) string {
	for _, m := range projectMarkers {
		for _, f := range m.files {
			if exists(filepath.Join(dir, f)) {
				return m.kind
			}
		}
	}
	pkg, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return ProjectUnknown
	}
	for _, h := range packageJSONHints {
		if bytes.Contains(pkg, []byte(h.needle)) {
			return h.kind
		}
	}
	return "Node.js"
}

// RenderServiceProfiles renders plans/service-profiles.md: YAML front matter
// listing the repos, followed by one markdown section per repo.
func RenderServiceProfiles(project string, generated time.Time, repos []models.RepoInfo) ([]byte, error) {
	front := struct {
		Project   string            `yaml:"project"`
		Generated string            `yaml:"generated"`
		Repos     []models.RepoInfo `yaml:"repos"`
	}{
		Project:   project,
		Generated: generated.Format("2006-01-02"),
		Repos:     make([]models.RepoInfo, len(repos)),
	}
	for i, r := range repos {
		r.Path = "../" + r.Name
		front.Repos[i] = r
	}
	fm, err := yaml.Marshal(front)
	if err != nil {
		return nil, fmt.Errorf("encoding service profile front matter: %w", err)
	}
	return renderTemplate(tmplServiceProfiles, struct {
		FrontMatter string
		Project     string
		Date        string
		Repos       []models.RepoInfo
	}{string(fm), project, front.Generated, repos})
}

// ParseServiceProfiles reads the repo list back from the front matter of a
// service-profiles document.
func ParseServiceProfiles(data []byte) ([]models.RepoInfo, error) {
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return nil, fmt.Errorf("parsing service profiles: missing front matter")
	}
	fm, _, ok := bytes.Cut(rest, []byte("\n---"))
	if !ok {
		return nil, fmt.Errorf("parsing service profiles: unterminated front matter")
	}
	var front struct {
		Repos []models.RepoInfo `yaml:"repos"`
	}
	if err := yaml.Unmarshal(fm, &front); err != nil {
		return nil, fmt.Errorf("parsing service profiles: %w", err)
	}
	return front.Repos, nil
}
