// Package mcp provides an MCP (Model Context Protocol) server that exposes
// read-only cc-workspace state as tools for the agents running in a workspace.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/internal/observability"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// defaultEventLimit bounds recent_events when no limit is given.
const defaultEventLimit = 20

// Server wraps cc-workspace services and exposes them as MCP tools.
// Closing a session is deliberately absent: it needs a human to confirm.
type Server struct {
	server          *gomcp.Server
	sessions        core.SessionLifecycleManager
	versions        core.VersionStore
	eventLog        observability.EventLog
	orchestratorDir string
	packageVersion  string
}

// Config holds the dependencies of a Server. Sessions is nil outside a
// workspace and EventLog is nil when observability is disabled.
type Config struct {
	Sessions        core.SessionLifecycleManager
	Versions        core.VersionStore
	EventLog        observability.EventLog
	OrchestratorDir string
	PackageVersion  string
	Version         string
}

// NewServer creates a new MCP server over the given services.
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	pkg := cfg.PackageVersion
	if pkg == "" {
		pkg = core.PackageVersion
	}

	s := &Server{
		sessions:        cfg.Sessions,
		versions:        cfg.Versions,
		eventLog:        cfg.EventLog,
		orchestratorDir: cfg.OrchestratorDir,
		packageVersion:  pkg,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "ccw", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves MCP over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type sessionListInput struct{}

type sessionSummary struct {
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Created   string   `json:"created"`
	RepoCount int      `json:"repo_count"`
	Repos     []string `json:"repos"`
}

type sessionListOutput struct {
	Sessions []sessionSummary `json:"sessions"`
	Count    int              `json:"count"`
	Corrupt  []string         `json:"corrupt,omitempty"`
}

type sessionStatusInput struct {
	Name string `json:"name" jsonschema:"required,the session name (file stem under .sessions/)"`
}

type repoStatus struct {
	Name          string   `json:"name"`
	Path          string   `json:"path"`
	SourceBranch  string   `json:"source_branch"`
	SessionBranch string   `json:"session_branch"`
	BranchCreated bool     `json:"branch_created"`
	Commits       []string `json:"commits,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type sessionStatusOutput struct {
	Name    string       `json:"name"`
	Status  string       `json:"status"`
	Created string       `json:"created"`
	Repos   []repoStatus `json:"repos"`
}

type syncStatusInput struct{}

type syncStatusOutput struct {
	InstalledVersion string `json:"installed_version,omitempty"`
	PackageVersion   string `json:"package_version"`
	NeedsSync        bool   `json:"needs_sync"`
	OrchestratorDir  string `json:"orchestrator_dir,omitempty"`
}

type recentEventsInput struct {
	Type  string `json:"type,omitempty" jsonschema:"only return events of this type (e.g. sync.global, session.closed)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of events, most recent last. Defaults to 20."`
}

type eventOutput struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

type recentEventsOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "session_list",
		Description: "List the work sessions recorded in the workspace with their status and bound repositories.",
	}, s.handleSessionList)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "session_status",
		Description: "Show one session: per repository, its branch pair and the session-branch commits not yet on the source branch.",
	}, s.handleSessionStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "sync_status",
		Description: "Report the installed global components version against the version shipped by ccw.",
	}, s.handleSyncStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "recent_events",
		Description: "Return recent sync and session lifecycle events from the cc-workspace event log.",
	}, s.handleRecentEvents)
}

// --- Tool handlers ---

func (s *Server) handleSessionList(_ context.Context, _ *gomcp.CallToolRequest, _ sessionListInput) (*gomcp.CallToolResult, sessionListOutput, error) {
	if s.sessions == nil {
		return errorResult("no workspace found: run from the workspace root or the orchestrator directory"), sessionListOutput{}, nil
	}
	sessions, corrupt, err := s.sessions.List()
	if err != nil {
		return errorResult(fmt.Sprintf("listing sessions: %s", err)), sessionListOutput{}, nil
	}
	out := sessionListOutput{
		Sessions: make([]sessionSummary, len(sessions)),
		Count:    len(sessions),
		Corrupt:  corrupt,
	}
	for i, sess := range sessions {
		out.Sessions[i] = sessionSummary{
			Name:      sess.Name,
			Status:    string(sess.Status),
			Created:   sess.Created,
			RepoCount: len(sess.Repos),
			Repos:     sess.RepoNames(),
		}
	}
	return nil, out, nil
}

func (s *Server) handleSessionStatus(ctx context.Context, _ *gomcp.CallToolRequest, input sessionStatusInput) (*gomcp.CallToolResult, sessionStatusOutput, error) {
	if input.Name == "" {
		return errorResult("name is required"), sessionStatusOutput{}, nil
	}
	if s.sessions == nil {
		return errorResult("no workspace found: run from the workspace root or the orchestrator directory"), sessionStatusOutput{}, nil
	}
	detail, err := s.sessions.Status(ctx, input.Name)
	if err != nil {
		return errorResult(fmt.Sprintf("session %s: %s", input.Name, err)), sessionStatusOutput{}, nil
	}
	return nil, detailToOutput(detail), nil
}

func (s *Server) handleSyncStatus(_ context.Context, _ *gomcp.CallToolRequest, _ syncStatusInput) (*gomcp.CallToolResult, syncStatusOutput, error) {
	out := syncStatusOutput{
		PackageVersion:  s.packageVersion,
		OrchestratorDir: s.orchestratorDir,
	}
	if s.versions != nil {
		out.InstalledVersion = s.versions.Read()
		out.NeedsSync = s.versions.NeedsSync(s.packageVersion, false)
	}
	return nil, out, nil
}

func (s *Server) handleRecentEvents(_ context.Context, _ *gomcp.CallToolRequest, input recentEventsInput) (*gomcp.CallToolResult, recentEventsOutput, error) {
	if s.eventLog == nil {
		return errorResult("event log not available (observability may be disabled)"), recentEventsOutput{}, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	events, err := s.eventLog.Read(observability.EventFilter{Type: input.Type, Limit: limit})
	if err != nil {
		return errorResult(fmt.Sprintf("reading events: %s", err)), recentEventsOutput{}, nil
	}
	out := recentEventsOutput{
		Events: make([]eventOutput, len(events)),
		Count:  len(events),
	}
	for i, e := range events {
		out.Events[i] = eventOutput{
			Time:    e.Time.Format(time.RFC3339),
			Level:   e.Level,
			Type:    e.Type,
			Message: e.Message,
			Data:    e.Data,
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func detailToOutput(d *models.SessionDetail) sessionStatusOutput {
	out := sessionStatusOutput{
		Name:    d.Session.Name,
		Status:  string(d.Session.Status),
		Created: d.Session.Created,
		Repos:   make([]repoStatus, len(d.Repos)),
	}
	for i, r := range d.Repos {
		rs := repoStatus{
			Name:          r.Name,
			Path:          r.Binding.Path,
			SourceBranch:  r.Binding.SourceBranch,
			SessionBranch: r.Binding.SessionBranch,
			BranchCreated: r.Binding.BranchCreated,
			Commits:       r.Commits,
		}
		if r.CommitsErr != nil {
			rs.Error = "could not read commits"
			if errors.Is(r.CommitsErr, core.ErrRepoMissing) {
				rs.Error += ": repository not found"
			}
		}
		out.Repos[i] = rs
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
