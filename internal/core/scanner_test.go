package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

type fakeBranches map[string]string

func (f fakeBranches) CurrentBranch(repoPath string) (string, error) {
	b, ok := f[filepath.Base(repoPath)]
	if !ok {
		return "", errors.New("not a git repository")
	}
	return b, nil
}

func makeRepo(t *testing.T, ws, name string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(ws, name, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	for f, content := range files {
		writeFile(t, filepath.Join(ws, name, f), content)
	}
}

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"php", map[string]string{"composer.json": "{}"}, "PHP/Laravel"},
		{"maven", map[string]string{"pom.xml": "<project/>"}, "Java/Spring"},
		{"gradle", map[string]string{"build.gradle": ""}, "Java/Gradle"},
		{"python requirements", map[string]string{"requirements.txt": "flask\n"}, "Python"},
		{"python pyproject", map[string]string{"pyproject.toml": ""}, "Python"},
		{"go", map[string]string{"go.mod": "module x\n"}, "Go"},
		{"rust", map[string]string{"Cargo.toml": ""}, "Rust"},
		{"quasar", map[string]string{"package.json": `{"dependencies":{"quasar":"2","vue":"3"}}`}, "Vue/Quasar"},
		{"nuxt", map[string]string{"package.json": `{"dependencies":{"nuxt":"3"}}`}, "Vue/Nuxt"},
		{"next", map[string]string{"package.json": `{"dependencies":{"next":"14","react":"18"}}`}, "React/Next"},
		{"vue", map[string]string{"package.json": `{"dependencies":{"vue":"3"}}`}, "Vue"},
		{"react", map[string]string{"package.json": `{"dependencies":{"react":"18"}}`}, "React"},
		{"plain node", map[string]string{"package.json": `{"name":"tool"}`}, "Node.js"},
		{"marker order", map[string]string{"composer.json": "{}", "package.json": `{"dependencies":{"vue":"3"}}`}, "PHP/Laravel"},
		{"empty", nil, ProjectUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for f, content := range tt.files {
				writeFile(t, filepath.Join(dir, f), content)
			}
			if got := DetectProjectType(dir); got != tt.want {
				t.Errorf("DetectProjectType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	ws := t.TempDir()
	makeRepo(t, ws, "web", map[string]string{"package.json": `{"dependencies":{"nuxt":"3"}}`})
	makeRepo(t, ws, "api", map[string]string{"go.mod": "module api\n", "CLAUDE.md": "# api\n"})
	makeRepo(t, ws, "orchestrator", nil)
	makeRepo(t, ws, "legacy", nil)
	if err := os.MkdirAll(filepath.Join(ws, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(ws, "README.md"), "readme\n")

	scanner := NewWorkspaceScanner(fakeBranches{"api": "main", "web": "develop"}, zerolog.Nop())
	repos, err := scanner.Scan(ws, "orchestrator")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var names []string
	for _, r := range repos {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "api,legacy,web" {
		t.Fatalf("repos = %v", names)
	}
	api := repos[0]
	if api.Type != "Go" || api.Branch != "main" || !api.HasAgentContext || api.Path != filepath.Join(ws, "api") {
		t.Errorf("api = %+v", api)
	}
	legacy := repos[1]
	if legacy.Type != ProjectUnknown || legacy.Branch != "" || legacy.HasAgentContext {
		t.Errorf("legacy = %+v", legacy)
	}
	if repos[2].Type != "Vue/Nuxt" || repos[2].Branch != "develop" {
		t.Errorf("web = %+v", repos[2])
	}
}

func TestScan_NilBranchReader(t *testing.T) {
	ws := t.TempDir()
	makeRepo(t, ws, "api", nil)

	repos, err := NewWorkspaceScanner(nil, zerolog.Nop()).Scan(ws)
	if err != nil {
		t.Fatal(err)
	}
	if len(repos) != 1 || repos[0].Branch != "" {
		t.Errorf("repos = %+v", repos)
	}
}

func TestScan_MissingDir(t *testing.T) {
	_, err := NewWorkspaceScanner(nil, zerolog.Nop()).Scan(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("expected an error for a missing workspace")
	}
}

func TestServiceProfiles_RoundTrip(t *testing.T) {
	repos := []models.RepoInfo{
		{Name: "api", Path: "/abs/ws/api", Type: "Go", Branch: "main", HasAgentContext: true},
		{Name: "web", Path: "/abs/ws/web", Type: "Vue/Nuxt"},
	}
	data, err := RenderServiceProfiles("acme", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), repos)
	if err != nil {
		t.Fatalf("RenderServiceProfiles: %v", err)
	}
	doc := string(data)
	if !strings.HasPrefix(doc, "---\n") || !strings.Contains(doc, "generated: \"2026-03-01\"") && !strings.Contains(doc, "generated: 2026-03-01") {
		t.Errorf("unexpected front matter:\n%s", doc)
	}
	if strings.Contains(doc, "/abs/ws") {
		t.Error("front matter paths should be relative to the orchestrator")
	}

	parsed, err := ParseServiceProfiles(data)
	if err != nil {
		t.Fatalf("ParseServiceProfiles: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed = %+v", parsed)
	}
	want := models.RepoInfo{Name: "api", Path: "../api", Type: "Go", Branch: "main", HasAgentContext: true}
	if parsed[0] != want {
		t.Errorf("parsed[0] = %+v, want %+v", parsed[0], want)
	}
	if parsed[1].Branch != "" || parsed[1].Path != "../web" {
		t.Errorf("parsed[1] = %+v", parsed[1])
	}
	// The caller's slice is not rewritten.
	if repos[0].Path != "/abs/ws/api" {
		t.Error("RenderServiceProfiles mutated its input")
	}
}

func TestParseServiceProfiles_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"no front matter": "# Service profiles\n",
		"unterminated":    "---\nrepos: []\n",
		"bad yaml":        "---\nrepos: [\n---\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseServiceProfiles([]byte(doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
