package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// SessionsDirName is the directory under the orchestrator holding one JSON
// record per session.
const SessionsDirName = ".sessions"

var (
	// ErrSessionNotFound is returned when no record exists for a name.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCorrupt is returned when a record exists but cannot be decoded.
	ErrSessionCorrupt = errors.New("session record is corrupt")
	// ErrInvalidSessionName is returned for names that cannot be a file stem.
	ErrInvalidSessionName = errors.New("invalid session name")
)

var sessionNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSessionName checks that name can be used as a record file stem.
func ValidateSessionName(name string) error {
	if !sessionNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionName, name)
	}
	return nil
}

// SessionStore loads and persists session records inside an orchestrator
// directory.
type SessionStore interface {
	// List decodes every record, sorted by name. Records that fail to decode
	// are left out and their names returned separately so the caller can
	// report them.
	List(orchestratorDir string) ([]models.Session, []string, error)
	Load(orchestratorDir, name string) (*models.Session, error)
	// Save writes the full record, replacing any previous version.
	Save(orchestratorDir string, session *models.Session) error
	Delete(orchestratorDir, name string) error
}

type jsonSessionStore struct{}

// NewSessionStore creates a SessionStore backed by .sessions/<name>.json files.
func NewSessionStore() SessionStore {
	return &jsonSessionStore{}
}

func sessionsDir(orchestratorDir string) string {
	return filepath.Join(orchestratorDir, SessionsDirName)
}

func sessionPath(orchestratorDir, name string) string {
	return filepath.Join(sessionsDir(orchestratorDir), name+".json")
}

func (s *jsonSessionStore) List(orchestratorDir string) ([]models.Session, []string, error) {
	entries, err := os.ReadDir(sessionsDir(orchestratorDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("listing sessions: %w", err)
	}

	var sessions []models.Session
	var corrupt []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		sess, err := s.Load(orchestratorDir, name)
		if err != nil {
			corrupt = append(corrupt, name)
			continue
		}
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions, corrupt, nil
}

func (s *jsonSessionStore) Load(orchestratorDir, name string) (*models.Session, error) {
	if err := ValidateSessionName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(sessionPath(orchestratorDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading session %s: %w", name, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("loading session %s: %w", name, err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("loading session %s: %w: %v", name, ErrSessionCorrupt, err)
	}
	// The file stem is the session's identity; a differing name field is
	// replaced so later saves land on the same record.
	sess.Name = name
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("loading session %s: %w: %v", name, ErrSessionCorrupt, err)
	}
	return &sess, nil
}

// Save writes through a temporary file and rename. There is no lock: two
// processes saving the same record race and the last rename wins.
func (s *jsonSessionStore) Save(orchestratorDir string, session *models.Session) error {
	if err := ValidateSessionName(session.Name); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("saving session %s: %w", session.Name, err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("saving session %s: marshalling: %w", session.Name, err)
	}
	data = append(data, '\n')

	dir := sessionsDir(orchestratorDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saving session %s: creating directory: %w", session.Name, err)
	}
	tmp, err := os.CreateTemp(dir, "."+session.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("saving session %s: %w", session.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving session %s: %w", session.Name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving session %s: %w", session.Name, err)
	}
	if err := os.Rename(tmpName, sessionPath(orchestratorDir, session.Name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving session %s: %w", session.Name, err)
	}
	return nil
}

func (s *jsonSessionStore) Delete(orchestratorDir, name string) error {
	if err := ValidateSessionName(name); err != nil {
		return err
	}
	if err := os.Remove(sessionPath(orchestratorDir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("deleting session %s: %w", name, ErrSessionNotFound)
		}
		return fmt.Errorf("deleting session %s: %w", name, err)
	}
	return nil
}
