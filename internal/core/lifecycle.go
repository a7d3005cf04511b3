package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// ErrRepoMissing is reported for a binding whose repository is not on disk.
var ErrRepoMissing = errors.New("repository not found")

// DefaultCommitDisplayLimit bounds the commits listed per repo by Status.
const DefaultCommitDisplayLimit = 10

// UnpushedCount is the result of an unpushed-commit query. Known is false
// when the count could not be determined, e.g. without remote tracking.
type UnpushedCount struct {
	Count int
	Known bool
}

// VCS is the version-control collaborator used by the lifecycle manager.
// Defined here so core does not import the integration package.
type VCS interface {
	RepoExists(repoPath string) bool
	// CommitsNotOn lists up to limit commits on branch that are not on
	// base, newest first.
	CommitsNotOn(ctx context.Context, repoPath, branch, base string, limit int) ([]string, error)
	UnpushedCommits(ctx context.Context, repoPath, branch string) (UnpushedCount, error)
	// DeleteBranch force-deletes a local branch.
	DeleteBranch(ctx context.Context, repoPath, branch string) error
}

// PullRequest describes a pull request to open.
type PullRequest struct {
	Base  string
	Head  string
	Title string
	Body  string
}

// Hosting opens pull requests on the code host.
type Hosting interface {
	// CreatePullRequest returns a reference to the new pull request,
	// usually its URL.
	CreatePullRequest(ctx context.Context, repoPath string, pr PullRequest) (string, error)
}

// Confirmer answers yes/no questions, normally by asking the user.
type Confirmer interface {
	Confirm(question string) bool
}

// ActionKind identifies a step of the close flow.
type ActionKind string

const (
	ActionPullRequest  ActionKind = "pull_request"
	ActionWarnUnpushed ActionKind = "unpushed"
	ActionDeleteBranch ActionKind = "delete_branch"
	ActionRecord       ActionKind = "record"
)

// ActionResult is the outcome of one close step.
type ActionResult struct {
	Kind     ActionKind
	Repo     string
	Target   string
	Accepted bool
	// Detail carries the pull request reference or the record disposition.
	Detail  string
	Warning string
	Err     error
}

// CloseReporter receives each close step as it completes.
type CloseReporter interface {
	Report(ActionResult)
}

// SessionRecords is the subset of the session store the lifecycle manager
// needs. Defined here so core does not import the storage package.
type SessionRecords interface {
	List(orchestratorDir string) ([]models.Session, []string, error)
	Load(orchestratorDir, name string) (*models.Session, error)
	Save(orchestratorDir string, session *models.Session) error
	Delete(orchestratorDir, name string) error
}

// CloseResult summarizes a close run.
type CloseResult struct {
	Session string
	// Outcome is "closed" when the record was kept, "deleted" otherwise.
	Outcome string
	Actions []ActionResult
}

// Failed counts the actions that returned an error.
func (r *CloseResult) Failed() int {
	n := 0
	for _, a := range r.Actions {
		if a.Err != nil {
			n++
		}
	}
	return n
}

// SessionLifecycleManager inspects and closes sessions.
type SessionLifecycleManager interface {
	List() ([]models.Session, []string, error)
	Status(ctx context.Context, name string) (*models.SessionDetail, error)
	// Close runs the pull request, branch deletion and record phases in
	// that order. Per-repo failures are reported and do not stop the run.
	Close(ctx context.Context, name string, confirm Confirmer, report CloseReporter) (*CloseResult, error)
}

// LifecycleConfig holds the collaborators of a SessionLifecycleManager.
type LifecycleConfig struct {
	OrchestratorDir string
	Store           SessionRecords
	VCS             VCS
	Hosting         Hosting
	Events          EventLogger
	Logger          zerolog.Logger
	CommitLimit     int
}

type lifecycleManager struct {
	cfg    LifecycleConfig
	logger zerolog.Logger
}

// NewSessionLifecycleManager creates a SessionLifecycleManager for the
// sessions of one orchestrator directory.
func NewSessionLifecycleManager(cfg LifecycleConfig) SessionLifecycleManager {
	if cfg.CommitLimit <= 0 {
		cfg.CommitLimit = DefaultCommitDisplayLimit
	}
	return &lifecycleManager{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "lifecycle").Logger(),
	}
}

// repoPath resolves a binding path against the orchestrator directory.
func (m *lifecycleManager) repoPath(b models.RepoBinding) string {
	if filepath.IsAbs(b.Path) {
		return filepath.Clean(b.Path)
	}
	return filepath.Join(m.cfg.OrchestratorDir, filepath.FromSlash(b.Path))
}

func (m *lifecycleManager) List() ([]models.Session, []string, error) {
	sessions, corrupt, err := m.cfg.Store.List(m.cfg.OrchestratorDir)
	for _, name := range corrupt {
		m.logger.Warn().Str("session", name).Msg("skipping corrupt session record")
	}
	return sessions, corrupt, err
}

func (m *lifecycleManager) Status(ctx context.Context, name string) (*models.SessionDetail, error) {
	sess, err := m.cfg.Store.Load(m.cfg.OrchestratorDir, name)
	if err != nil {
		return nil, err
	}
	detail := &models.SessionDetail{Session: *sess}
	for _, repo := range sess.RepoNames() {
		b := sess.Repos[repo]
		rd := models.RepoDetail{Name: repo, Binding: b, AbsPath: m.repoPath(b)}
		switch {
		case !m.repoExists(rd.AbsPath):
			rd.CommitsErr = fmt.Errorf("%w: %s", ErrRepoMissing, rd.AbsPath)
		case b.BranchCreated:
			commits, err := m.cfg.VCS.CommitsNotOn(ctx, rd.AbsPath, b.SessionBranch, b.SourceBranch, m.cfg.CommitLimit)
			if err != nil {
				m.logger.Debug().Err(err).Str("repo", repo).Msg("reading session commits")
				rd.CommitsErr = err
			} else {
				rd.Commits = commits
			}
		}
		detail.Repos = append(detail.Repos, rd)
	}
	return detail, nil
}

func (m *lifecycleManager) repoExists(p string) bool {
	if m.cfg.VCS != nil {
		return m.cfg.VCS.RepoExists(p)
	}
	_, err := os.Stat(filepath.Join(p, ".git"))
	return err == nil
}

func (m *lifecycleManager) Close(ctx context.Context, name string, confirm Confirmer, report CloseReporter) (*CloseResult, error) {
	orch := m.cfg.OrchestratorDir
	// The first load validates the name before it is used in the lock path.
	if _, err := m.cfg.Store.Load(orch, name); err != nil {
		return nil, err
	}
	unlock, err := lockSession(orch, name)
	if err != nil {
		return nil, fmt.Errorf("closing session %s: %w", name, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			m.logger.Debug().Err(err).Str("session", name).Msg("releasing session lock")
		}
	}()
	// Reload under the lock: a close that finished meanwhile may have
	// deleted or closed the record.
	sess, err := m.cfg.Store.Load(orch, name)
	if err != nil {
		return nil, err
	}
	sess.Status = models.SessionClosing
	if err := m.cfg.Store.Save(orch, sess); err != nil {
		return nil, fmt.Errorf("closing session %s: %w", name, err)
	}

	result := &CloseResult{Session: name}
	emit := func(a ActionResult) {
		result.Actions = append(result.Actions, a)
		if report != nil {
			report.Report(a)
		}
	}

	created := make([]string, 0, len(sess.Repos))
	for _, repo := range sess.RepoNames() {
		if sess.Repos[repo].BranchCreated {
			created = append(created, repo)
		}
	}

	// Pull requests first: a deleted branch can no longer be proposed.
	for _, repo := range created {
		b := sess.Repos[repo]
		q := fmt.Sprintf("Create PR %s -> %s in %s?", b.SessionBranch, b.SourceBranch, repo)
		action := ActionResult{Kind: ActionPullRequest, Repo: repo, Target: b.SessionBranch}
		if !confirm.Confirm(q) {
			emit(action)
			continue
		}
		action.Accepted = true
		ref, err := m.cfg.Hosting.CreatePullRequest(ctx, m.repoPath(b), PullRequest{
			Base:  b.SourceBranch,
			Head:  b.SessionBranch,
			Title: fmt.Sprintf("%s: %s", sess.Name, repo),
			Body:  "Session: " + sess.Name,
		})
		if err != nil {
			action.Err = err
			m.logEvent("session.pr_failed", map[string]any{"session": name, "repo": repo, "error": err.Error()})
		} else {
			action.Detail = ref
			m.logEvent("session.pr_created", map[string]any{"session": name, "repo": repo, "pr": ref})
		}
		emit(action)
	}

	for _, repo := range created {
		b := sess.Repos[repo]
		path := m.repoPath(b)
		q := fmt.Sprintf("Delete branch %s in %s?", b.SessionBranch, repo)
		unpushed, err := m.cfg.VCS.UnpushedCommits(ctx, path, b.SessionBranch)
		if err != nil {
			m.logger.Debug().Err(err).Str("repo", repo).Msg("unpushed commit check failed")
		} else if unpushed.Known && unpushed.Count > 0 {
			warning := fmt.Sprintf("%d unpushed commit(s) on %s", unpushed.Count, b.SessionBranch)
			emit(ActionResult{Kind: ActionWarnUnpushed, Repo: repo, Target: b.SessionBranch, Warning: warning})
			q = fmt.Sprintf("Delete branch %s in %s? (has unpushed commits)", b.SessionBranch, repo)
		}
		action := ActionResult{Kind: ActionDeleteBranch, Repo: repo, Target: b.SessionBranch}
		if !confirm.Confirm(q) {
			emit(action)
			continue
		}
		action.Accepted = true
		if err := m.cfg.VCS.DeleteBranch(ctx, path, b.SessionBranch); err != nil {
			action.Err = err
			m.logEvent("session.branch_failed", map[string]any{"session": name, "repo": repo, "branch": b.SessionBranch, "error": err.Error()})
		} else {
			action.Detail = "deleted"
			m.logEvent("session.branch_deleted", map[string]any{"session": name, "repo": repo, "branch": b.SessionBranch})
		}
		emit(action)
	}

	record := filepath.ToSlash(filepath.Join(".sessions", name+".json"))
	action := ActionResult{Kind: ActionRecord, Target: record}
	if confirm.Confirm(fmt.Sprintf("Delete session file %s?", record)) {
		action.Accepted = true
		if err := m.cfg.Store.Delete(orch, name); err != nil {
			return result, fmt.Errorf("closing session %s: %w", name, err)
		}
		if err := os.Remove(sessionLockPath(orch, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.logger.Debug().Err(err).Str("session", name).Msg("removing session lock file")
		}
		action.Detail = "deleted"
		result.Outcome = "deleted"
		m.logEvent("session.deleted", map[string]any{"session": name})
	} else {
		sess.Status = models.SessionClosed
		if err := m.cfg.Store.Save(orch, sess); err != nil {
			return result, fmt.Errorf("closing session %s: %w", name, err)
		}
		action.Detail = "closed"
		result.Outcome = "closed"
		m.logEvent("session.closed", map[string]any{"session": name, "failed_actions": result.Failed()})
	}
	emit(action)
	return result, nil
}

func (m *lifecycleManager) logEvent(eventType string, data map[string]any) {
	if m.cfg.Events == nil {
		return
	}
	if err := m.cfg.Events.LogEvent(eventType, data); err != nil {
		m.logger.Debug().Err(err).Str("type", eventType).Msg("writing event")
	}
}
