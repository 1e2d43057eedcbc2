// ABOUTME: Tests for the legacy single-conversation migration
// ABOUTME: Verifies one-shot move into the namespaced cache and key deletion

package conv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/reelsync/internal/kv"
)

func TestMigrateLegacy_MovesMessages(t *testing.T) {
	mem := kv.NewMemoryStore()
	cache := NewMessageCache(mem, nil)
	list := NewStore(mem, cache, nil)

	legacy := []Message{
		{Text: "Hi! What video should we make today?"},
		{Text: "make me a video for Take On Me", IsUser: true},
		{Text: "Done!"},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, mem.Set(kv.KeyLegacyMessages, raw))

	id, err := MigrateLegacy(mem, list, cache, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, legacy, cache.Get(id))

	got := list.List()
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "make me a video for Take On Me", got[0].Title)
	assert.Equal(t, "Done!", got[0].LastMessage)

	// Legacy key is gone
	_, err = mem.Get(kv.KeyLegacyMessages)
	assert.Equal(t, kv.ErrNotFound, err)
}

func TestMigrateLegacy_NothingToMigrate(t *testing.T) {
	mem := kv.NewMemoryStore()
	cache := NewMessageCache(mem, nil)
	list := NewStore(mem, cache, nil)

	id, err := MigrateLegacy(mem, list, cache, nil)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, list.List())
}

func TestMigrateLegacy_CorruptValueDiscarded(t *testing.T) {
	mem := kv.NewMemoryStore()
	cache := NewMessageCache(mem, nil)
	list := NewStore(mem, cache, nil)

	require.NoError(t, mem.Set(kv.KeyLegacyMessages, []byte("not json")))

	id, err := MigrateLegacy(mem, list, cache, nil)
	require.NoError(t, err)
	assert.Empty(t, id)

	// Key deleted so the migration never retries
	_, err = mem.Get(kv.KeyLegacyMessages)
	assert.Equal(t, kv.ErrNotFound, err)
}

func TestMigrateLegacy_RunsOnce(t *testing.T) {
	mem := kv.NewMemoryStore()
	cache := NewMessageCache(mem, nil)
	list := NewStore(mem, cache, nil)

	raw, err := json.Marshal([]Message{{Text: "hello", IsUser: true}})
	require.NoError(t, err)
	require.NoError(t, mem.Set(kv.KeyLegacyMessages, raw))

	first, err := MigrateLegacy(mem, list, cache, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := MigrateLegacy(mem, list, cache, nil)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, list.List(), 1)
}
