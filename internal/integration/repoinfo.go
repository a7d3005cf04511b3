package integration

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// RepoInspector reads repository metadata without spawning git.
type RepoInspector struct{}

// NewRepoInspector creates a RepoInspector.
func NewRepoInspector() *RepoInspector {
	return &RepoInspector{}
}

// CurrentBranch returns the short name of the checked-out branch, or the
// abbreviated commit hash when HEAD is detached.
func (r *RepoInspector) CurrentBranch(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", repoPath, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD of %s: %w", repoPath, err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String()[:7], nil
}
