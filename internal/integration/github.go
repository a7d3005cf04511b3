package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"
)

// PullRequestSpec describes a pull request to open.
type PullRequestSpec struct {
	Base  string
	Head  string
	Title string
	Body  string
}

// PullRequestCreator opens pull requests for a local repository.
type PullRequestCreator interface {
	// CreatePullRequest returns the URL of the new pull request.
	CreatePullRequest(ctx context.Context, repoPath string, pr PullRequestSpec) (string, error)
}

// ghCLICreator shells out to the gh CLI, which resolves the repository
// and credentials from the working directory.
type ghCLICreator struct {
	runner  CommandRunner
	timeout time.Duration
}

// NewGHCLICreator creates a PullRequestCreator backed by `gh pr create`.
func NewGHCLICreator(runner CommandRunner, timeout time.Duration) PullRequestCreator {
	return &ghCLICreator{runner: runner, timeout: timeout}
}

func (c *ghCLICreator) CreatePullRequest(ctx context.Context, repoPath string, pr PullRequestSpec) (string, error) {
	if err := validateRef(pr.Base); err != nil {
		return "", err
	}
	if err := validateRef(pr.Head); err != nil {
		return "", err
	}
	out, err := c.runner.Run(ctx, repoPath, c.timeout, "gh", "pr", "create",
		"--base", pr.Base,
		"--head", pr.Head,
		"--title", pr.Title,
		"--body", pr.Body,
	)
	if err != nil {
		return "", err
	}
	lines := splitLines(out)
	if len(lines) == 0 {
		return "", nil
	}
	// gh prints progress lines first and the URL last.
	return lines[len(lines)-1], nil
}

// apiCreator opens pull requests through the GitHub REST API. The target
// repository is derived from the local origin remote.
type apiCreator struct {
	client  *gh.Client
	git     *GitClient
	timeout time.Duration
}

// NewGitHubAPICreator creates a PullRequestCreator using go-github with a
// personal access token.
func NewGitHubAPICreator(token string, git *GitClient, timeout time.Duration) PullRequestCreator {
	return &apiCreator{
		client:  gh.NewClient(nil).WithAuthToken(token),
		git:     git,
		timeout: timeout,
	}
}

func (c *apiCreator) CreatePullRequest(ctx context.Context, repoPath string, pr PullRequestSpec) (string, error) {
	remote, err := c.git.RemoteURL(ctx, repoPath)
	if err != nil {
		return "", fmt.Errorf("resolving origin remote: %w", err)
	}
	owner, repo, err := ParseGitHubRemote(remote)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	created, _, err := c.client.PullRequests.Create(ctx, owner, repo, &gh.NewPullRequest{
		Title: &pr.Title,
		Body:  &pr.Body,
		Head:  &pr.Head,
		Base:  &pr.Base,
	})
	if err != nil {
		toolErr := &ToolError{Tool: "github-api", Args: []string{"pulls", "create", owner + "/" + repo}, Dir: repoPath, ExitCode: -1, Err: err}
		if ctx.Err() == context.DeadlineExceeded {
			toolErr.Timeout = true
		}
		return "", toolErr
	}
	return created.GetHTMLURL(), nil
}

// normalizeRemote reduces a git remote URL to host/owner/repo. Accepted forms:
//   - git@github.com:org/repo.git
//   - https://github.com/org/repo.git
//   - ssh://git@github.com/org/repo
//   - github.com/org/repo
func normalizeRemote(remote string) string {
	cleaned := strings.TrimSpace(remote)
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://"} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	if at := strings.Index(cleaned, "@"); at >= 0 && at < strings.Index(cleaned+"/", "/") {
		cleaned = cleaned[at+1:]
	}
	// SSH-style colon separator: github.com:org/repo -> github.com/org/repo
	if idx := strings.Index(cleaned, ":"); idx > 0 && !strings.Contains(cleaned[:idx], "/") {
		cleaned = cleaned[:idx] + "/" + cleaned[idx+1:]
	}
	cleaned = strings.TrimSuffix(strings.TrimRight(cleaned, "/"), ".git")
	return cleaned
}

// ParseGitHubRemote extracts owner and repository name from a remote URL.
func ParseGitHubRemote(remote string) (owner, repo string, err error) {
	parts := strings.Split(normalizeRemote(remote), "/")
	if len(parts) < 3 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("invalid remote %q: expected host/owner/repo", remote)
	}
	n := len(parts)
	return parts[n-2], parts[n-1], nil
}
