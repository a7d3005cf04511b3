package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SessionStatus is the lifecycle state of a work session.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionClosing SessionStatus = "closing"
	SessionClosed  SessionStatus = "closed"
)

// Valid reports whether s is one of the known session statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionActive, SessionClosing, SessionClosed:
		return true
	}
	return false
}

// RepoBinding ties one sibling repository to a session through a pair of
// branches. BranchCreated records that the dispatcher created SessionBranch;
// it is not re-verified against the repository.
type RepoBinding struct {
	Path          string `json:"path"`
	SourceBranch  string `json:"source_branch"`
	SessionBranch string `json:"session_branch"`
	BranchCreated bool   `json:"branch_created"`
}

// Session is a named unit of work spanning one or more repositories. It is
// persisted as .sessions/<name>.json inside the orchestrator directory.
//
// Created is kept as the string the dispatcher wrote so records survive a
// load/save cycle byte-for-byte in that field. Fields the dispatcher adds
// that are unknown here are carried in Extra and written back on save.
type Session struct {
	Name    string                 `json:"name"`
	Status  SessionStatus          `json:"status"`
	Created string                 `json:"created"`
	Repos   map[string]RepoBinding `json:"repos"`

	Extra map[string]json.RawMessage `json:"-"`
}

// sessionFields lists the JSON keys owned by Session itself.
var sessionFields = map[string]bool{"name": true, "status": true, "created": true, "repos": true}

type sessionAlias Session

// UnmarshalJSON decodes the known fields and keeps any others in Extra.
func (s *Session) UnmarshalJSON(data []byte) error {
	var a sessionAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if sessionFields[k] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[k] = v
	}
	*s = Session(a)
	return nil
}

// MarshalJSON encodes the known fields followed by Extra. Keys are emitted
// in sorted order so repeated saves are byte-identical.
func (s Session) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+4)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["name"] = s.Name
	out["status"] = s.Status
	out["created"] = s.Created
	repos := s.Repos
	if repos == nil {
		repos = map[string]RepoBinding{}
	}
	out["repos"] = repos
	return json.Marshal(out)
}

// Validate checks the record has the shape the lifecycle manager relies on.
func (s *Session) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("session name is empty")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("session %s: unknown status %q", s.Name, s.Status)
	}
	for name, b := range s.Repos {
		if b.Path == "" {
			return fmt.Errorf("session %s: repo %s has no path", s.Name, name)
		}
		if b.BranchCreated && b.SessionBranch == "" {
			return fmt.Errorf("session %s: repo %s has branch_created without session_branch", s.Name, name)
		}
	}
	return nil
}

// RepoNames returns the bound repository names in sorted order.
func (s *Session) RepoNames() []string {
	names := make([]string, 0, len(s.Repos))
	for name := range s.Repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreatedTime parses Created as RFC 3339. The zero time is returned when
// the dispatcher used another format.
func (s *Session) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, s.Created)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RepoDetail is the live view of one binding produced by a status query.
type RepoDetail struct {
	Name    string
	Binding RepoBinding
	AbsPath string
	// Commits lists session-branch commits absent from the source branch,
	// newest first, one "<sha> <subject>" line each.
	Commits []string
	// CommitsErr is set when the commit listing could not be read.
	CommitsErr error
}

// SessionDetail is the result of a session status query.
type SessionDetail struct {
	Session Session
	Repos   []RepoDetail
}
