// ABOUTME: Tests for the SQLite kv store implementation
// ABOUTME: Covers round-trips, prefix listing, and persistence across reopen

package kv

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSQLiteStore_SetGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("pointer:lastConversationId", []byte(`"abc123"`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get("pointer:lastConversationId")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `"abc123"` {
		t.Errorf("Get returned %q, want %q", got, `"abc123"`)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("no-such-key")
	if err != ErrNotFound {
		t.Errorf("Get of missing key returned %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("k", []byte("first")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("k", []byte("second")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Get returned %q, want %q", got, "second")
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get("k"); err != ErrNotFound {
		t.Errorf("Get after delete returned %v, want ErrNotFound", err)
	}

	// Deleting an absent key is a no-op
	if err := s.Delete("k"); err != nil {
		t.Errorf("Delete of absent key returned %v, want nil", err)
	}
}

func TestSQLiteStore_ListByPrefix(t *testing.T) {
	s := newTestStore(t)

	entries := map[string]string{
		MessagesKey("abc"): `[]`,
		MessagesKey("def"): `[]`,
		KeyConversationList: `[]`,
	}
	for k, v := range entries {
		if err := s.Set(k, []byte(v)); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}

	keys, err := s.ListByPrefix(MessagesPrefix())
	if err != nil {
		t.Fatalf("ListByPrefix failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("ListByPrefix returned %d keys, want 2: %v", len(keys), keys)
	}
	if keys[0] != MessagesKey("abc") || keys[1] != MessagesKey("def") {
		t.Errorf("ListByPrefix returned %v, want message keys in order", keys)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := s.Set(KeyCurrentJob, []byte(`"job-1"`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(KeyCurrentJob)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `"job-1"` {
		t.Errorf("Get after reopen returned %q, want %q", got, `"job-1"`)
	}
}
