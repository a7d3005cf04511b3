package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTestGitRepo initializes a repository on main with one commit.
func setupTestGitRepo(t *testing.T, dir string) {
	t.Helper()
	requireTool(t, "git")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "user.email", "test@example.com")
	commitFile(t, dir, "README.md", "initial commit")
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func commitFile(t *testing.T, dir, name, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(msg+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-m", msg)
}

// sessionRepo creates a repo with session/alpha two commits ahead of main,
// checked out back on main.
func sessionRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "api")
	setupTestGitRepo(t, dir)
	runGit(t, dir, "checkout", "-b", "session/alpha")
	commitFile(t, dir, "a.txt", "add endpoint")
	commitFile(t, dir, "b.txt", "add tests")
	runGit(t, dir, "checkout", "main")
	return dir
}

func newTestGitClient() *GitClient {
	return NewGitClient(NewCommandRunner(), 10*time.Second)
}

func TestGitClient_RepoExists(t *testing.T) {
	g := newTestGitClient()
	dir := t.TempDir()
	if g.RepoExists(dir) {
		t.Error("plain directory reported as repository")
	}
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !g.RepoExists(dir) {
		t.Error("directory with .git not reported")
	}
}

func TestGitClient_CommitsNotOn(t *testing.T) {
	dir := sessionRepo(t)
	g := newTestGitClient()

	commits, err := g.CommitsNotOn(context.Background(), dir, "session/alpha", "main", 10)
	if err != nil {
		t.Fatalf("CommitsNotOn: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("commits = %q", commits)
	}
	if !strings.HasSuffix(commits[0], " add tests") || !strings.HasSuffix(commits[1], " add endpoint") {
		t.Errorf("commits should be newest first: %q", commits)
	}

	limited, err := g.CommitsNotOn(context.Background(), dir, "session/alpha", "main", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %q", limited)
	}

	none, err := g.CommitsNotOn(context.Background(), dir, "main", "session/alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("main has no commits of its own, got %q", none)
	}
}

func TestGitClient_CommitsNotOnUnknownBranch(t *testing.T) {
	dir := sessionRepo(t)
	if _, err := newTestGitClient().CommitsNotOn(context.Background(), dir, "session/ghost", "main", 10); err == nil {
		t.Error("expected an error for an unknown branch")
	}
}

func TestGitClient_RejectsOptionLikeRefs(t *testing.T) {
	g := NewGitClient(&fakeRunner{}, time.Second)
	ctx := context.Background()
	if _, err := g.CommitsNotOn(ctx, "/repo", "--all", "main", 10); err == nil {
		t.Error("branch starting with - accepted")
	}
	if _, err := g.UnpushedCommits(ctx, "/repo", ""); err == nil {
		t.Error("empty branch accepted")
	}
	if err := g.DeleteBranch(ctx, "/repo", "-D"); err == nil {
		t.Error("option-like branch accepted for deletion")
	}
}

func TestGitClient_UnpushedCommits(t *testing.T) {
	dir := sessionRepo(t)
	g := newTestGitClient()

	// Without remotes every commit on the branch counts.
	n, err := g.UnpushedCommits(context.Background(), dir, "session/alpha")
	if err != nil {
		t.Fatalf("UnpushedCommits: %v", err)
	}
	if n != 3 {
		t.Errorf("unpushed = %d, want 3", n)
	}

	bare := filepath.Join(t.TempDir(), "origin.git")
	if err := os.MkdirAll(bare, 0o755); err != nil {
		t.Fatal(err)
	}
	runGit(t, bare, "init", "--bare", "-b", "main")
	runGit(t, dir, "remote", "add", "origin", bare)
	runGit(t, dir, "push", "origin", "main")

	n, err = g.UnpushedCommits(context.Background(), dir, "session/alpha")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("after pushing main, unpushed = %d, want 2", n)
	}
}

func TestGitClient_DeleteBranch(t *testing.T) {
	dir := sessionRepo(t)
	g := newTestGitClient()

	if err := g.DeleteBranch(context.Background(), dir, "session/alpha"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if out := runGit(t, dir, "branch", "--list", "session/alpha"); strings.TrimSpace(out) != "" {
		t.Errorf("branch still present: %q", out)
	}
	if err := g.DeleteBranch(context.Background(), dir, "session/alpha"); err == nil {
		t.Error("deleting a missing branch should fail")
	}
}

func TestGitClient_RemoteURL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "web")
	setupTestGitRepo(t, dir)
	g := newTestGitClient()

	if _, err := g.RemoteURL(context.Background(), dir); err == nil {
		t.Error("expected an error without origin")
	}
	runGit(t, dir, "remote", "add", "origin", "git@github.com:acme/web.git")
	url, err := g.RemoteURL(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if url != "git@github.com:acme/web.git" {
		t.Errorf("RemoteURL = %q", url)
	}
}
