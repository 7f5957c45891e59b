package widget

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ===========================================================================
// Session Store
// The widget's only identity is a random session ID persisted on the
// client. Browsers keep it in localStorage; here it lives in a file.
// Losing the store means losing the conversation history.
// ===========================================================================

// SessionStore persists the widget session ID
type SessionStore interface {
	// Load returns the stored session ID, empty string when absent
	Load() (string, error)

	// Save persists the session ID
	Save(sessionID string) error
}

// FileSessionStore keeps the session ID in a single file
type FileSessionStore struct {
	path string
}

// NewFileSessionStore creates a store at path
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Load reads the session ID from disk
func (s *FileSessionStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the session ID to disk
func (s *FileSessionStore) Save(sessionID string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(sessionID+"\n"), 0o600)
}

// EnsureSession loads the stored session ID or mints and persists a new
// one. This is the read-or-create the widget runs on every boot.
func EnsureSession(store SessionStore) (string, error) {
	sessionID, err := store.Load()
	if err != nil {
		return "", err
	}
	if sessionID != "" {
		return sessionID, nil
	}

	sessionID = uuid.New().String()
	if err := store.Save(sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}
