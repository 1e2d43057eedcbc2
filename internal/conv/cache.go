// ABOUTME: Per-conversation message-log persistence over the kv store
// ABOUTME: Entries are always rewritten in full, never patched incrementally

package conv

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/2389/reelsync/internal/kv"
)

// MessageCache persists the ordered message log of each conversation under
// its own kv key. Corrupt entries are logged and treated as absent.
type MessageCache struct {
	store  kv.Store
	logger *slog.Logger
}

// NewMessageCache creates a message cache over the given kv store.
// Pass nil logger for default.
func NewMessageCache(store kv.Store, logger *slog.Logger) *MessageCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageCache{
		store:  store,
		logger: logger.With("component", "msgcache"),
	}
}

// Get returns the cached messages for a conversation, empty if absent or
// unreadable.
func (c *MessageCache) Get(conversationID string) []Message {
	raw, err := c.store.Get(kv.MessagesKey(conversationID))
	if err != nil {
		return nil
	}

	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		c.logger.Warn("corrupt message cache entry, treating as absent",
			"conversation_id", conversationID,
			"error", err)
		return nil
	}
	return msgs
}

// Set overwrites the cached messages for a conversation in full.
func (c *MessageCache) Set(conversationID string, msgs []Message) error {
	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}
	if err := c.store.Set(kv.MessagesKey(conversationID), raw); err != nil {
		return fmt.Errorf("writing message cache: %w", err)
	}
	return nil
}

// Delete removes the cached messages for a conversation.
func (c *MessageCache) Delete(conversationID string) error {
	return c.store.Delete(kv.MessagesKey(conversationID))
}

// MigrateKey copies the entry under oldID to newID and deletes the old one.
// A missing old entry is a no-op so repeated migrations never clobber the
// new entry. Used only during id promotion.
func (c *MessageCache) MigrateKey(oldID, newID string) error {
	raw, err := c.store.Get(kv.MessagesKey(oldID))
	if err != nil {
		if err == kv.ErrNotFound {
			return nil
		}
		return fmt.Errorf("reading old cache entry: %w", err)
	}

	if err := c.store.Set(kv.MessagesKey(newID), raw); err != nil {
		return fmt.Errorf("writing new cache entry: %w", err)
	}
	return c.store.Delete(kv.MessagesKey(oldID))
}
