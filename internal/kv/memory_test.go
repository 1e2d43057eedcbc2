// ABOUTME: Tests for the in-memory kv store
// ABOUTME: Verifies Store interface conformance and value isolation

package kv

import "testing"

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()

	if err := m.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := m.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get returned %q, want %q", got, "v")
	}

	if _, err := m.Get("missing"); err != ErrNotFound {
		t.Errorf("Get of missing key returned %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()

	if err := m.Set("k", []byte("abc")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := m.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got[0] = 'x'

	again, err := m.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()

	for _, k := range []string{MessagesKey("b"), MessagesKey("a"), KeyConversationList} {
		if err := m.Set(k, []byte("{}")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	keys, err := m.ListByPrefix(MessagesPrefix())
	if err != nil {
		t.Fatalf("ListByPrefix failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != MessagesKey("a") || keys[1] != MessagesKey("b") {
		t.Errorf("ListByPrefix returned %v, want sorted message keys", keys)
	}
}
