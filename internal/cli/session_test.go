package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/internal/storage"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

func TestSessionList(t *testing.T) {
	withServices(t)
	closed := alphaSession()
	closed.Name = "beta"
	closed.Status = models.SessionClosed
	Sessions = &fakeSessions{sessions: []models.Session{alphaSession(), closed}, corrupt: []string{"broken"}}

	out, err := runCLI(t, "session", "list")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	for _, want := range []string{
		".sessions/broken.json",
		"alpha", "[active]", "2 repo(s)", "session/alpha",
		"beta", "[closed]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSessionList_Empty(t *testing.T) {
	withServices(t)
	Sessions = &fakeSessions{}

	out, err := runCLI(t, "session", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No sessions found.") {
		t.Errorf("output = %q", out)
	}
}

func TestSessionCommands_NoWorkspace(t *testing.T) {
	withServices(t)
	for _, args := range [][]string{{"session", "list"}, {"session", "status", "alpha"}, {"session", "close", "alpha"}} {
		_, err := runCLI(t, args...)
		if err == nil || !strings.Contains(err.Error(), "no orchestrator/ found") {
			t.Errorf("%v: err = %v", args, err)
		}
	}
}

func TestSessionStatus(t *testing.T) {
	withServices(t)
	sess := alphaSession()
	sess.Repos["billing"] = models.RepoBinding{Path: "../billing", SourceBranch: "main", SessionBranch: "session/alpha", BranchCreated: true}
	sess.Repos["docs"] = models.RepoBinding{Path: "../docs", SourceBranch: "main", SessionBranch: "session/alpha", BranchCreated: true}
	Sessions = &fakeSessions{details: map[string]*models.SessionDetail{
		"alpha": {
			Session: sess,
			Repos: []models.RepoDetail{
				{Name: "api", Binding: sess.Repos["api"], Commits: []string{"abc1234 add endpoint", "def5678 add tests"}},
				{Name: "billing", Binding: sess.Repos["billing"], AbsPath: "/ws/billing", CommitsErr: fmt.Errorf("%w: /ws/billing", core.ErrRepoMissing)},
				{Name: "docs", Binding: sess.Repos["docs"]},
				{Name: "web", Binding: sess.Repos["web"]},
			},
		},
	}}

	out, err := runCLI(t, "session", "status", "alpha")
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	for _, want := range []string{
		"session/alpha -> main",
		"abc1234", "add endpoint", "def5678",
		"could not read commits (repository not found at /ws/billing)",
		"(no commits yet)",
		"session/alpha -> develop",
		"branch not created",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSessionStatus_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("loading session ghost: %w", storage.ErrSessionNotFound), `session "ghost" not found (run: ccw session list)`},
		{fmt.Errorf("loading session ghost: %w", storage.ErrSessionCorrupt), `session "ghost" cannot be read`},
		{fmt.Errorf("%w: %q", storage.ErrInvalidSessionName, "ghost"), `invalid session name "ghost"`},
	}
	for _, tt := range tests {
		withServices(t)
		Sessions = &fakeSessions{err: tt.err}
		_, err := runCLI(t, "session", "status", "ghost")
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("err = %v, want %q", err, tt.want)
		}
	}
}

func TestSessionStatus_NameRequiredWithoutTerminal(t *testing.T) {
	withServices(t)
	Sessions = &fakeSessions{sessions: []models.Session{alphaSession()}}

	_, err := runCLI(t, "session", "status")
	if err == nil || !strings.Contains(err.Error(), "session name required") {
		t.Errorf("err = %v", err)
	}
}

func TestSessionClose(t *testing.T) {
	withServices(t)
	fake := &fakeSessions{closeRes: &core.CloseResult{
		Outcome: "closed",
		Actions: []core.ActionResult{
			{Kind: core.ActionPullRequest, Repo: "api", Target: "session/alpha", Detail: "https://github.com/acme/api/pull/7"},
			{Kind: core.ActionWarnUnpushed, Repo: "api", Target: "session/alpha", Warning: "2 unpushed commit(s) on session/alpha"},
			{Kind: core.ActionDeleteBranch, Repo: "api", Target: "session/alpha"},
			{Kind: core.ActionRecord, Target: ".sessions/alpha.json", Detail: "closed"},
		},
	}}
	Sessions = fake
	var answers strings.Builder
	NewConfirmer = func() core.Confirmer {
		return newLineConfirmer(strings.NewReader("y\nn\nn\n"), &answers)
	}

	out, err := runCLI(t, "session", "close", "alpha")
	if err != nil {
		t.Fatalf("session close: %v", err)
	}
	if fake.closed != "alpha" {
		t.Errorf("closed %q", fake.closed)
	}
	if len(fake.questions) != 3 {
		t.Errorf("questions = %v", fake.questions)
	}
	for _, want := range []string{
		"Closing session alpha",
		"api: PR created https://github.com/acme/api/pull/7",
		"api: 2 unpushed commit(s) on session/alpha",
		"api: kept branch session/alpha",
		"kept .sessions/alpha.json (status closed)",
		"Session alpha closed.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(answers.String(), "[y/N]") {
		t.Errorf("confirmer prompts = %q", answers.String())
	}
}

func TestSessionClose_ReportsFailures(t *testing.T) {
	withServices(t)
	Sessions = &fakeSessions{closeRes: &core.CloseResult{
		Outcome: "deleted",
		Actions: []core.ActionResult{
			{Kind: core.ActionPullRequest, Repo: "api", Err: errors.New("gh: not logged in")},
			{Kind: core.ActionRecord, Target: ".sessions/alpha.json", Detail: "deleted"},
		},
	}}
	NewConfirmer = func() core.Confirmer { return newLineConfirmer(strings.NewReader("y\ny\n"), &strings.Builder{}) }

	out, err := runCLI(t, "session", "close", "alpha")
	if err != nil {
		t.Fatalf("per-repo failures must not fail the command: %v", err)
	}
	for _, want := range []string{"api: PR failed: gh: not logged in", "deleted .sessions/alpha.json", "Session alpha deleted with 1 failed step(s)."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPickSession(t *testing.T) {
	withServices(t)
	closed := alphaSession()
	closed.Name = "aardvark"
	closed.Status = models.SessionClosed
	closing := alphaSession()
	closing.Name = "beta"
	closing.Status = models.SessionClosing
	Sessions = &fakeSessions{sessions: []models.Session{closed, closing, alphaSession()}}

	tests := []struct {
		name    string
		input   string
		exclude []models.SessionStatus
		want    string
		wantErr string
	}{
		{"active first", "1\n", nil, "alpha", ""},
		{"closed last", "3\n", nil, "aardvark", ""},
		{"retry after invalid", "9\nx\n2\n", []models.SessionStatus{models.SessionClosed}, "beta", ""},
		{"cancel", "q\n", nil, "", "cancelled"},
		{"eof", "", nil, "", "reading selection"},
		{"eof after invalid", "7", nil, "", "reading selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			got, err := pickSession(strings.NewReader(tt.input), &out, tt.exclude...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("pickSession: %v", err)
			}
			if got != tt.want {
				t.Errorf("picked %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPickSession_NothingToPick(t *testing.T) {
	withServices(t)
	closed := alphaSession()
	closed.Status = models.SessionClosed
	Sessions = &fakeSessions{sessions: []models.Session{closed}}

	if _, err := pickSession(strings.NewReader("1\n"), &strings.Builder{}, models.SessionClosed); err == nil {
		t.Error("expected an error when every session is excluded")
	}
}

func TestCompleteSessionNames(t *testing.T) {
	withServices(t)
	closed := alphaSession()
	closed.Name = "archive"
	closed.Status = models.SessionClosed
	beta := alphaSession()
	beta.Name = "beta"
	Sessions = &fakeSessions{sessions: []models.Session{alphaSession(), closed, beta}}

	names, directive := completeSessionNames(models.SessionClosed)(nil, nil, "a")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	if len(names) != 1 || names[0] != "alpha\tactive, api web" {
		t.Errorf("names = %q", names)
	}

	if names, _ := completeSessionNames()(nil, []string{"alpha"}, ""); names != nil {
		t.Errorf("only the first argument completes, got %q", names)
	}
	Sessions = nil
	if names, _ := completeSessionNames()(nil, nil, ""); names != nil {
		t.Errorf("no workspace should complete nothing, got %q", names)
	}
}
