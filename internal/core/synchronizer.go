package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// reservedSourceDirs are top-level source directories that are not skills.
var reservedSourceDirs = map[string]bool{
	"rules":     true,
	"agents":    true,
	"hooks":     true,
	"templates": true,
}

// Template file names looked up in the orchestrator's templates/ directory
// when seeding scaffold documents.
const (
	workspaceTemplateFile    = "workspace.template.md"
	constitutionTemplateFile = "constitution.template.md"
)

// GlobalInstallResult summarizes an InstallGlobal call.
type GlobalInstallResult struct {
	Decision models.SyncDecision
	Changed  bool
	// Counts holds copied units per category: skills, rules, agents.
	Counts map[string]int
}

// ArtifactFailure is one artifact that could not be synchronized.
type ArtifactFailure struct {
	Path string
	Err  error
}

func (f ArtifactFailure) Error() string { return f.Path + ": " + f.Err.Error() }

// LocalSyncResult summarizes a SyncLocal call.
type LocalSyncResult struct {
	OrchestratorDir string
	Version         string
	Changes         []models.ArtifactChange
	Failures        []ArtifactFailure
	Hooks           int
	Templates       int
}

// Changed reports whether any artifact was created, updated or removed.
func (r *LocalSyncResult) Changed() bool {
	for _, c := range r.Changes {
		if c.Changed() {
			return true
		}
	}
	return false
}

// Err joins the per-artifact failures, or returns nil.
func (r *LocalSyncResult) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// ArtifactSynchronizer installs the global components and keeps workspace
// artifacts in line with the package version.
type ArtifactSynchronizer interface {
	// InstallGlobal mirrors skills, rules and agents into the user's global
	// directory when the planner says so. It aborts on the first failure.
	InstallGlobal(force bool) (*GlobalInstallResult, error)
	// SyncLocal refreshes the workspace found at or below targetDir. It
	// returns nil, nil when no workspace is found there.
	SyncLocal(targetDir string) (*LocalSyncResult, error)
	// SetupWorkspace initializes the orchestrator directory inside
	// targetPath and scans the sibling repositories.
	SetupWorkspace(targetPath, projectName string) (*models.ScanReport, error)
	// ResolveWorkspace returns the orchestrator directory for targetDir.
	ResolveWorkspace(targetDir string) (string, bool)
}

// SynchronizerConfig holds the collaborators of an ArtifactSynchronizer.
type SynchronizerConfig struct {
	Env      Env
	Source   fs.FS
	Version  string
	DirName  string
	Marker   string
	Planner  SyncPlanner
	Versions VersionStore
	Scanner  WorkspaceScanner
	Events   EventLogger
	Logger   zerolog.Logger
	Now      func() time.Time
}

type artifactSynchronizer struct {
	cfg    SynchronizerConfig
	logger zerolog.Logger
}

// NewArtifactSynchronizer creates an ArtifactSynchronizer. Empty fields of
// cfg fall back to the built-in defaults.
func NewArtifactSynchronizer(cfg SynchronizerConfig) ArtifactSynchronizer {
	if cfg.Version == "" {
		cfg.Version = PackageVersion
	}
	if cfg.DirName == "" {
		cfg.DirName = "orchestrator"
	}
	if cfg.Marker == "" {
		cfg.Marker = "workspace.md"
	}
	if cfg.Planner == nil {
		cfg.Planner = NewSyncPlanner()
	}
	if cfg.Versions == nil {
		cfg.Versions = NewVersionStore(cfg.Env)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &artifactSynchronizer{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "synchronizer").Logger(),
	}
}

func (s *artifactSynchronizer) InstallGlobal(force bool) (*GlobalInstallResult, error) {
	installed := s.cfg.Versions.Read()
	decision := s.cfg.Planner.Plan(installed, s.cfg.Version, force)
	result := &GlobalInstallResult{Decision: decision, Counts: map[string]int{}}
	s.logger.Debug().Str("installed", installed).Str("package", s.cfg.Version).
		Bool("run", decision.Run).Str("reason", decision.Reason).Msg("global sync decision")
	if !decision.Run {
		return result, nil
	}

	env := s.cfg.Env
	for _, dir := range []string{env.GlobalSkillsDir(), env.GlobalRulesDir(), env.GlobalAgentsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("installing globals: creating %s: %w", dir, err)
		}
	}

	skills, err := SkillNames(s.cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("installing globals: %w", err)
	}
	for _, name := range skills {
		if _, err := mirrorDir(s.cfg.Source, name, filepath.Join(env.GlobalSkillsDir(), name)); err != nil {
			return nil, fmt.Errorf("installing skill %s: %w", name, err)
		}
		result.Counts["skills"]++
	}

	categories := []struct{ name, dest string }{
		{"rules", env.GlobalRulesDir()},
		{"agents", env.GlobalAgentsDir()},
	}
	for _, c := range categories {
		category, dest := c.name, c.dest
		names, err := listFiles(s.cfg.Source, category, ".md")
		if err != nil {
			return nil, fmt.Errorf("installing %s: %w", category, err)
		}
		for _, name := range names {
			if err := copyFSFile(s.cfg.Source, path.Join(category, name), filepath.Join(dest, name), 0o644); err != nil {
				return nil, fmt.Errorf("installing %s: %w", category, err)
			}
			result.Counts[category]++
		}
	}

	if err := s.cfg.Versions.Write(s.cfg.Version); err != nil {
		return nil, err
	}
	result.Changed = true

	s.logEvent("sync.global", map[string]any{
		"from":   installed,
		"to":     s.cfg.Version,
		"reason": decision.Reason,
		"skills": result.Counts["skills"],
		"rules":  result.Counts["rules"],
		"agents": result.Counts["agents"],
	})
	return result, nil
}

func (s *artifactSynchronizer) ResolveWorkspace(targetDir string) (string, bool) {
	if exists(filepath.Join(targetDir, s.cfg.Marker)) {
		return targetDir, true
	}
	child := filepath.Join(targetDir, s.cfg.DirName)
	if exists(filepath.Join(child, s.cfg.Marker)) {
		return child, true
	}
	return "", false
}

func (s *artifactSynchronizer) SyncLocal(targetDir string) (*LocalSyncResult, error) {
	orch, ok := s.ResolveWorkspace(targetDir)
	if !ok {
		s.logger.Debug().Str("dir", targetDir).Msg("no workspace marker, nothing to sync")
		return nil, nil
	}
	result := &LocalSyncResult{OrchestratorDir: orch, Version: s.cfg.Version}
	s.syncGenerated(orch, result)

	changed := 0
	for _, c := range result.Changes {
		if c.Changed() {
			changed++
		}
	}
	s.logEvent("sync.local", map[string]any{
		"dir":      orch,
		"version":  s.cfg.Version,
		"changed":  changed,
		"failures": len(result.Failures),
	})
	return result, nil
}

// syncGenerated removes obsolete files, creates missing scaffold
// directories and rewrites every generated artifact. Failures are recorded
// per artifact and do not stop the remaining steps.
func (s *artifactSynchronizer) syncGenerated(orch string, res *LocalSyncResult) {
	version := s.cfg.Version
	rules := s.cfg.Planner.Rules(version)

	for _, r := range rulesOf(rules, models.ArtifactObsolete, models.KindFile) {
		if !isLiteralPattern(r.Pattern) {
			continue
		}
		removed, err := removeIfPresent(filepath.Join(orch, filepath.FromSlash(r.Pattern)))
		if err != nil {
			res.Failures = append(res.Failures, ArtifactFailure{Path: r.Pattern, Err: err})
			continue
		}
		if removed {
			res.Changes = append(res.Changes, models.ArtifactChange{Path: r.Pattern, Class: models.ArtifactObsolete, Action: models.ActionRemoved})
		}
	}

	s.ensureScaffoldDirs(orch, rules, res)

	hooks, err := listFiles(s.cfg.Source, "hooks", ".sh")
	if err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: ".claude/hooks", Err: err})
	}
	for _, name := range hooks {
		data, err := fs.ReadFile(s.cfg.Source, path.Join("hooks", name))
		if err != nil {
			res.Failures = append(res.Failures, ArtifactFailure{Path: name, Err: err})
			continue
		}
		if s.generate(orch, ".claude/hooks/"+name, data, 0o755, res) {
			res.Hooks++
		}
	}

	if settings, err := GenerateSettings(version); err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: ".claude/settings.json", Err: err})
	} else {
		s.generate(orch, ".claude/settings.json", settings, 0o644, res)
	}

	if doc, err := AgentContextDocument(version, s.cfg.DirName); err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: "CLAUDE.md", Err: err})
	} else {
		s.generate(orch, "CLAUDE.md", doc, 0o644, res)
	}

	templates, err := listFiles(s.cfg.Source, "templates", ".md")
	if err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: "templates", Err: err})
	}
	for _, name := range templates {
		data, err := fs.ReadFile(s.cfg.Source, path.Join("templates", name))
		if err != nil {
			res.Failures = append(res.Failures, ArtifactFailure{Path: name, Err: err})
			continue
		}
		if s.generate(orch, "templates/"+name, data, 0o644, res) {
			res.Templates++
		}
	}

	if plan, err := GetTemplate(tmplPlan); err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: "plans/_TEMPLATE.md", Err: err})
	} else {
		s.generate(orch, "plans/_TEMPLATE.md", []byte(plan), 0o644, res)
	}
}

func (s *artifactSynchronizer) ensureScaffoldDirs(orch string, rules []models.ArtifactRule, res *LocalSyncResult) {
	for _, r := range rulesOf(rules, models.ArtifactScaffold, models.KindDir) {
		created, err := ensureDir(filepath.Join(orch, filepath.FromSlash(r.Pattern)))
		if err != nil {
			res.Failures = append(res.Failures, ArtifactFailure{Path: r.Pattern, Err: err})
			continue
		}
		if created {
			res.Changes = append(res.Changes, models.ArtifactChange{Path: r.Pattern + "/", Class: models.ArtifactScaffold, Action: models.ActionCreated})
		}
	}
}

// generate writes a GENERATED artifact. Paths the planner does not classify
// as generated at the current version are skipped, so the source tree
// cannot reintroduce an obsolete file.
func (s *artifactSynchronizer) generate(orch, rel string, data []byte, mode os.FileMode, res *LocalSyncResult) bool {
	if class := s.cfg.Planner.Classify(rel, s.cfg.Version); class != models.ArtifactGenerated {
		s.logger.Warn().Str("path", rel).Str("class", string(class)).Msg("skipping artifact not classified as generated")
		return false
	}
	action, digest, err := writeGenerated(filepath.Join(orch, filepath.FromSlash(rel)), data, mode)
	if err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: rel, Err: err})
		return false
	}
	res.Changes = append(res.Changes, models.ArtifactChange{Path: rel, Class: models.ArtifactGenerated, Action: action, Digest: digest})
	return true
}

func (s *artifactSynchronizer) SetupWorkspace(targetPath, projectName string) (*models.ScanReport, error) {
	wsAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("setting up workspace: resolving %s: %w", targetPath, err)
	}
	if projectName == "" {
		projectName = filepath.Base(wsAbs)
	}
	orch := filepath.Join(wsAbs, s.cfg.DirName)
	if err := os.MkdirAll(orch, 0o755); err != nil {
		return nil, fmt.Errorf("setting up workspace: creating %s: %w", orch, err)
	}

	res := &LocalSyncResult{OrchestratorDir: orch, Version: s.cfg.Version}
	s.syncGenerated(orch, res)

	data := struct{ Project string }{projectName}
	scaffolds := []struct {
		rel     string
		content func() ([]byte, error)
	}{
		{"workspace.md", func() ([]byte, error) {
			return seedFromTemplate(orch, workspaceTemplateFile, tmplWorkspace, data)
		}},
		{"constitution.md", func() ([]byte, error) {
			return seedFromTemplate(orch, constitutionTemplateFile, tmplConstitution, data)
		}},
		{".gitignore", func() ([]byte, error) {
			content, err := GetTemplate(tmplGitignore)
			return []byte(content), err
		}},
	}
	for _, sc := range scaffolds {
		if class := s.cfg.Planner.Classify(sc.rel, s.cfg.Version); class != models.ArtifactScaffold {
			continue
		}
		created, err := writeIfAbsent(filepath.Join(orch, sc.rel), sc.content)
		if err != nil {
			res.Failures = append(res.Failures, ArtifactFailure{Path: sc.rel, Err: err})
			continue
		}
		action := models.ActionSkipped
		if created {
			action = models.ActionCreated
		} else {
			s.logger.Warn().Str("path", sc.rel).Msg("already exists, skipped")
		}
		res.Changes = append(res.Changes, models.ArtifactChange{Path: sc.rel, Class: models.ArtifactScaffold, Action: action})
	}

	report := &models.ScanReport{OrchestratorDir: orch}
	if s.cfg.Scanner != nil {
		repos, err := s.cfg.Scanner.Scan(wsAbs, s.cfg.DirName)
		if err != nil {
			return nil, fmt.Errorf("setting up workspace: %w", err)
		}
		report.Repos = repos
	}
	for _, r := range report.Repos {
		if !r.HasAgentContext {
			report.MissingContext = append(report.MissingContext, r.Name)
		}
	}

	profiles, err := RenderServiceProfiles(projectName, s.cfg.Now(), report.Repos)
	if err != nil {
		res.Failures = append(res.Failures, ArtifactFailure{Path: "plans/service-profiles.md", Err: err})
	} else {
		s.generate(orch, "plans/service-profiles.md", profiles, 0o644, res)
	}

	report.Hooks = res.Hooks
	report.Changes = res.Changes

	s.logEvent("workspace.init", map[string]any{
		"dir":      orch,
		"project":  projectName,
		"version":  s.cfg.Version,
		"repos":    len(report.Repos),
		"failures": len(res.Failures),
	})
	if err := res.Err(); err != nil {
		return report, fmt.Errorf("setting up workspace: %w", err)
	}
	return report, nil
}

func (s *artifactSynchronizer) logEvent(eventType string, data map[string]any) {
	if s.cfg.Events == nil {
		return
	}
	if err := s.cfg.Events.LogEvent(eventType, data); err != nil {
		s.logger.Debug().Err(err).Str("type", eventType).Msg("writing event")
	}
}

// seedFromTemplate returns the orchestrator's copy of a reference template
// when present, otherwise the embedded fallback rendered with data.
func seedFromTemplate(orch, templateFile, fallback string, data any) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(orch, "templates", templateFile))
	if err == nil {
		return content, nil
	}
	return renderTemplate(fallback, data)
}

// SkillNames lists the skill directories of a source tree.
func SkillNames(src fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, fmt.Errorf("reading source tree: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !reservedSourceDirs[e.Name()] {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func copyFSFile(src fs.FS, name, dest string, mode os.FileMode) error {
	data, err := fs.ReadFile(src, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}
