package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// PackageVersion is the version of the canonical artifacts shipped in this binary.
const PackageVersion = "4.3.0"

// artifactRules is the versioned classification table for workspace-relative
// paths inside the orchestrator directory. Order matters: the first active
// rule whose pattern matches decides the class.
var artifactRules = []models.ArtifactRule{
	{ID: "hook-block-writes-obsolete", Pattern: ".claude/hooks/block-orchestrator-writes.sh", Kind: models.KindFile, Class: models.ArtifactObsolete, Since: "4.1.4"},
	{ID: "hook-block-writes", Pattern: ".claude/hooks/block-orchestrator-writes.sh", Kind: models.KindFile, Class: models.ArtifactGenerated, Until: "4.1.4"},
	{ID: "hook-guard-checkout-obsolete", Pattern: ".claude/hooks/guard-session-checkout.sh", Kind: models.KindFile, Class: models.ArtifactObsolete, Since: "4.2.0"},
	{ID: "hook-verify-cycle-obsolete", Pattern: ".claude/hooks/verify-cycle-complete.sh", Kind: models.KindFile, Class: models.ArtifactObsolete, Since: "4.2.0"},
	{ID: "hook-worktree-context-obsolete", Pattern: ".claude/hooks/worktree-create-context.sh", Kind: models.KindFile, Class: models.ArtifactObsolete, Since: "4.3.0"},
	{ID: "hook-worktree-context", Pattern: ".claude/hooks/worktree-create-context.sh", Kind: models.KindFile, Class: models.ArtifactGenerated, Since: "4.2.0", Until: "4.3.0"},
	{ID: "hook-scripts", Pattern: ".claude/hooks/*.sh", Kind: models.KindFile, Class: models.ArtifactGenerated},
	{ID: "hooks-dir", Pattern: ".claude/hooks", Kind: models.KindDir, Class: models.ArtifactScaffold},
	{ID: "settings", Pattern: ".claude/settings.json", Kind: models.KindFile, Class: models.ArtifactGenerated},
	{ID: "agent-context", Pattern: "CLAUDE.md", Kind: models.KindFile, Class: models.ArtifactGenerated},
	{ID: "plan-template", Pattern: "plans/_TEMPLATE.md", Kind: models.KindFile, Class: models.ArtifactGenerated},
	{ID: "service-profiles", Pattern: "plans/service-profiles.md", Kind: models.KindFile, Class: models.ArtifactGenerated},
	{ID: "plans", Pattern: "plans/*.md", Kind: models.KindFile, Class: models.ArtifactPreserved},
	{ID: "plans-dir", Pattern: "plans", Kind: models.KindDir, Class: models.ArtifactScaffold},
	{ID: "templates", Pattern: "templates/*.md", Kind: models.KindFile, Class: models.ArtifactGenerated},
	{ID: "templates-dir", Pattern: "templates", Kind: models.KindDir, Class: models.ArtifactScaffold},
	{ID: "project-context", Pattern: "workspace.md", Kind: models.KindFile, Class: models.ArtifactScaffold},
	{ID: "constitution", Pattern: "constitution.md", Kind: models.KindFile, Class: models.ArtifactScaffold},
	{ID: "gitignore", Pattern: ".gitignore", Kind: models.KindFile, Class: models.ArtifactScaffold},
	{ID: "session-records", Pattern: ".sessions/*.json", Kind: models.KindFile, Class: models.ArtifactPreserved},
	{ID: "sessions-dir", Pattern: ".sessions", Kind: models.KindDir, Class: models.ArtifactScaffold},
	{ID: "e2e-config", Pattern: "e2e/e2e-config.md", Kind: models.KindFile, Class: models.ArtifactPreserved},
	{ID: "e2e-reports", Pattern: "e2e/reports/**", Kind: models.KindFile, Class: models.ArtifactPreserved},
	{ID: "e2e-dir", Pattern: "e2e", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
	{ID: "e2e-tests-dir", Pattern: "e2e/tests", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
	{ID: "e2e-chrome-dir", Pattern: "e2e/chrome", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
	{ID: "e2e-scenarios-dir", Pattern: "e2e/chrome/scenarios", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
	{ID: "e2e-screenshots-dir", Pattern: "e2e/chrome/screenshots", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
	{ID: "e2e-gifs-dir", Pattern: "e2e/chrome/gifs", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
	{ID: "e2e-reports-dir", Pattern: "e2e/reports", Kind: models.KindDir, Class: models.ArtifactScaffold, Since: "4.2.0"},
}

// SyncPlanner decides whether a sync must run and classifies managed artifacts.
// It never touches the filesystem.
type SyncPlanner interface {
	// Plan decides whether to run a sync. An empty installed version means
	// nothing is installed yet.
	Plan(installed, packageVersion string, force bool) models.SyncDecision
	// Classify returns the class of a workspace-relative path at version.
	Classify(artifactPath, version string) models.ArtifactClass
	// Rules returns the rules active at version, in table order.
	Rules(version string) []models.ArtifactRule
}

type tableSyncPlanner struct {
	rules []models.ArtifactRule
}

// NewSyncPlanner creates a SyncPlanner over the built-in artifact table.
func NewSyncPlanner() SyncPlanner {
	return &tableSyncPlanner{rules: artifactRules}
}

func (p *tableSyncPlanner) Plan(installed, packageVersion string, force bool) models.SyncDecision {
	d := models.SyncDecision{Installed: installed, Package: packageVersion}
	switch {
	case force:
		d.Run = true
		d.Reason = "forced"
	case installed == "":
		d.Run = true
		d.Reason = "not installed"
	case CompareVersions(packageVersion, installed) > 0:
		d.Run = true
		d.Reason = fmt.Sprintf("upgrade %s -> %s", installed, packageVersion)
	default:
		d.Reason = "up to date"
	}
	return d
}

func (p *tableSyncPlanner) Classify(artifactPath, version string) models.ArtifactClass {
	rel := normalizeArtifactPath(artifactPath)
	for _, r := range p.rules {
		if !versionInRange(version, r.Since, r.Until) {
			continue
		}
		if matchArtifact(r.Pattern, rel) {
			return r.Class
		}
	}
	return models.ArtifactPreserved
}

func (p *tableSyncPlanner) Rules(version string) []models.ArtifactRule {
	var active []models.ArtifactRule
	for _, r := range p.rules {
		if versionInRange(version, r.Since, r.Until) {
			active = append(active, r)
		}
	}
	return active
}

// rulesOf filters rules by class and kind.
func rulesOf(rules []models.ArtifactRule, class models.ArtifactClass, kind models.ArtifactKind) []models.ArtifactRule {
	var out []models.ArtifactRule
	for _, r := range rules {
		if r.Class == class && r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func normalizeArtifactPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(path.Clean(p), "/")
}

// matchArtifact matches a slash path against a rule pattern. A trailing
// "/**" matches everything below the prefix but not the prefix itself;
// otherwise path.Match semantics apply, so "*" stays within one segment.
func matchArtifact(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return strings.HasPrefix(p, prefix+"/")
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}

// isLiteralPattern reports whether pattern names exactly one path.
func isLiteralPattern(pattern string) bool {
	return !strings.ContainsAny(pattern, "*?[")
}
