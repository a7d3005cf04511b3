package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// unconfiguredMarker flags seeded documents the user has not filled in.
const unconfiguredMarker = "[UNCONFIGURED]"

var (
	requiredRules  = []string{"context-hygiene.md", "model-routing.md"}
	requiredAgents = []string{"team-lead.md", "implementer.md", "workspace-init.md", "e2e-validator.md"}
)

// Check is one diagnostic line.
type Check struct {
	Name   string
	OK     bool
	Detail string
	// Fix is the command or action that resolves a failing check.
	Fix string
	// Info marks lines that report state rather than pass or fail.
	Info bool
}

// DoctorReport is the result of a diagnostic run.
type DoctorReport struct {
	Global          []Check
	Local           []Check
	OrchestratorDir string
}

// Failed counts failing checks.
func (r *DoctorReport) Failed() int {
	n := 0
	for _, c := range append(append([]Check{}, r.Global...), r.Local...) {
		if !c.OK && !c.Info {
			n++
		}
	}
	return n
}

// EventReader finds the latest event of a type in the event log.
// Defined here so core does not import the observability package.
type EventReader interface {
	LastEvent(eventType string) (time.Time, bool, error)
}

// Doctor diagnoses the global install and the workspace at a directory.
type Doctor interface {
	Run(cwd string) *DoctorReport
}

// DoctorConfig holds the collaborators of a Doctor.
type DoctorConfig struct {
	Env      Env
	Source   fs.FS
	Version  string
	Versions VersionStore
	Sync     ArtifactSynchronizer
	Events   EventReader
	LookPath func(string) (string, error)
}

type doctor struct {
	cfg DoctorConfig
}

// NewDoctor creates a Doctor.
func NewDoctor(cfg DoctorConfig) Doctor {
	if cfg.Version == "" {
		cfg.Version = PackageVersion
	}
	if cfg.LookPath == nil {
		cfg.LookPath = exec.LookPath
	}
	return &doctor{cfg: cfg}
}

func (d *doctor) Run(cwd string) *DoctorReport {
	report := &DoctorReport{}
	report.Global = d.globalChecks()
	if d.cfg.Sync != nil {
		if orch, ok := d.cfg.Sync.ResolveWorkspace(cwd); ok {
			report.OrchestratorDir = orch
			report.Local = d.localChecks(orch)
		}
	}
	return report
}

func (d *doctor) globalChecks() []Check {
	env := d.cfg.Env
	var checks []Check

	installed := d.cfg.Versions.Read()
	versionCheck := Check{Name: "Installed version", OK: installed == d.cfg.Version, Fix: "ccw update"}
	switch {
	case installed == "":
		versionCheck.Detail = "not installed"
	case installed != d.cfg.Version:
		versionCheck.Detail = fmt.Sprintf("v%s (package is v%s)", installed, d.cfg.Version)
	default:
		versionCheck.Detail = "v" + installed
	}
	checks = append(checks, versionCheck)

	for _, dir := range []string{env.GlobalSkillsDir(), env.GlobalRulesDir(), env.GlobalAgentsDir()} {
		checks = append(checks, Check{
			Name:   d.displayPath(dir) + "/",
			OK:     exists(dir),
			Detail: "missing",
			Fix:    "ccw update --force",
		})
	}

	want := 0
	if names, err := SkillNames(d.cfg.Source); err == nil {
		want = len(names)
	}
	have := countDirs(env.GlobalSkillsDir())
	checks = append(checks, Check{
		Name:   fmt.Sprintf("Skills (%d/%d)", have, want),
		OK:     have >= want,
		Detail: fmt.Sprintf("only %d found", have),
		Fix:    "ccw update --force",
	})

	for _, r := range requiredRules {
		checks = append(checks, Check{Name: "Rule " + r, OK: exists(filepath.Join(env.GlobalRulesDir(), r)), Detail: "missing", Fix: "ccw update --force"})
	}
	for _, a := range requiredAgents {
		checks = append(checks, Check{Name: "Agent " + a, OK: exists(filepath.Join(env.GlobalAgentsDir(), a)), Detail: "missing", Fix: "ccw update --force"})
	}

	_, jqErr := d.cfg.LookPath("jq")
	checks = append(checks, Check{Name: "jq", OK: jqErr == nil, Detail: "not found on PATH, hooks need it to parse their input", Fix: "install jq"})

	if d.cfg.Events != nil {
		last := Check{Name: "Last global sync", Info: true, OK: true, Detail: "none recorded"}
		if at, ok, err := d.cfg.Events.LastEvent("sync.global"); err == nil && ok {
			last.Detail = at.Local().Format(time.RFC3339)
		}
		checks = append(checks, last)
	}
	return checks
}

func (d *doctor) localChecks(orch string) []Check {
	var checks []Check
	for _, rel := range []string{"constitution.md", "plans", "templates", ".claude/hooks", ".sessions", "e2e"} {
		name := rel
		if !strings.HasSuffix(rel, ".md") {
			name += "/"
		}
		checks = append(checks, Check{Name: name, OK: exists(filepath.Join(orch, filepath.FromSlash(rel))), Detail: "missing", Fix: "ccw update"})
	}

	ws, err := os.ReadFile(filepath.Join(orch, "workspace.md"))
	checks = append(checks, Check{
		Name:   "Workspace configured",
		OK:     err == nil && !bytes.Contains(ws, []byte(unconfiguredMarker)),
		Detail: unconfiguredMarker,
		Fix:    "claude --agent workspace-init",
	})

	missing, err := CheckHookConsistency(orch)
	hookCheck := Check{Name: "Hook registration", OK: err == nil && len(missing) == 0, Fix: "ccw update"}
	if err != nil {
		hookCheck.Detail = err.Error()
	} else if len(missing) > 0 {
		hookCheck.Detail = "missing or not executable: " + strings.Join(missing, ", ")
	}
	checks = append(checks, hookCheck)
	return checks
}

// CheckHookConsistency reads .claude/settings.json, tolerating comments and
// trailing commas, and returns the referenced hook scripts that are missing
// or not executable in .claude/hooks.
func CheckHookConsistency(orch string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(orch, ".claude", "settings.json"))
	if err != nil {
		return nil, fmt.Errorf("reading settings.json: %w", err)
	}
	var doc struct {
		Hooks map[string][]models.HookMatcher `json:"hooks"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing settings.json: %w", err)
	}
	seen := make(map[string]bool)
	var missing []string
	for _, matchers := range doc.Hooks {
		for _, m := range matchers {
			for _, h := range m.Hooks {
				script, ok := ScriptFromCommand(h.Command)
				if !ok || seen[script] {
					continue
				}
				seen[script] = true
				info, err := os.Stat(filepath.Join(orch, ".claude", "hooks", script))
				if err != nil || info.Mode().Perm()&0o111 == 0 {
					missing = append(missing, script)
				}
			}
		}
	}
	sort.Strings(missing)
	return missing, nil
}

func (d *doctor) displayPath(p string) string {
	if home := d.cfg.Env.Home; home != "" {
		if rel, err := filepath.Rel(home, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(filepath.Join("~", rel))
		}
	}
	return p
}

func countDirs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			n++
		}
	}
	return n
}
