package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GitClient runs the git queries and mutations needed by session close and
// status. Every call is bounded by the configured timeout.
type GitClient struct {
	runner  CommandRunner
	timeout time.Duration
}

// NewGitClient creates a GitClient.
func NewGitClient(runner CommandRunner, timeout time.Duration) *GitClient {
	return &GitClient{runner: runner, timeout: timeout}
}

// validateRef rejects names git would parse as options.
func validateRef(name string) error {
	if name == "" {
		return fmt.Errorf("empty branch name")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	return nil
}

func (g *GitClient) git(ctx context.Context, repoPath string, args ...string) (string, error) {
	return g.runner.Run(ctx, repoPath, g.timeout, "git", args...)
}

// RepoExists reports whether repoPath holds a git repository.
func (g *GitClient) RepoExists(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, ".git"))
	return err == nil
}

// CommitsNotOn lists up to limit one-line commits reachable from branch but
// not from base, newest first.
func (g *GitClient) CommitsNotOn(ctx context.Context, repoPath, branch, base string, limit int) ([]string, error) {
	if err := validateRef(branch); err != nil {
		return nil, err
	}
	if err := validateRef(base); err != nil {
		return nil, err
	}
	args := []string{"log", "--oneline"}
	if limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(limit))
	}
	args = append(args, branch, "--not", base)
	out, err := g.git(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// UnpushedCommits counts commits on branch that no remote-tracking branch
// contains. A repository without remotes reports every commit.
func (g *GitClient) UnpushedCommits(ctx context.Context, repoPath, branch string) (int, error) {
	if err := validateRef(branch); err != nil {
		return 0, err
	}
	out, err := g.git(ctx, repoPath, "log", "--oneline", branch, "--not", "--remotes")
	if err != nil {
		return 0, err
	}
	return len(splitLines(out)), nil
}

// DeleteBranch force-deletes a local branch; it need not be merged.
func (g *GitClient) DeleteBranch(ctx context.Context, repoPath, branch string) error {
	if err := validateRef(branch); err != nil {
		return err
	}
	_, err := g.git(ctx, repoPath, "branch", "-D", branch)
	return err
}

// RemoteURL returns the URL of the origin remote.
func (g *GitClient) RemoteURL(ctx context.Context, repoPath string) (string, error) {
	out, err := g.git(ctx, repoPath, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
