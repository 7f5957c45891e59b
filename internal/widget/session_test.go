package widget

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestFileSessionStoreLoadMissing(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session"))

	sessionID, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sessionID != "" {
		t.Fatalf("expected empty session ID, got %q", sessionID)
	}
}

func TestFileSessionStoreRoundTrip(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "nested", "session"))

	if err := store.Save("abc-123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	sessionID, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sessionID != "abc-123" {
		t.Fatalf("expected abc-123, got %q", sessionID)
	}
}

func TestEnsureSessionMintsAndPersists(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session"))

	first, err := EnsureSession(store)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("minted session ID is not a uuid: %q", first)
	}

	// A second boot must come back with the same identity
	second, err := EnsureSession(store)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if second != first {
		t.Fatalf("session ID changed across boots: %q vs %q", first, second)
	}
}
