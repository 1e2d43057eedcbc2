// ABOUTME: One-shot migration of the legacy single-conversation message log
// ABOUTME: Moves the bare message array under a generated conversation id

package conv

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/reelsync/internal/kv"
)

// MigrateLegacy moves the legacy single-conversation message log, if present,
// into the namespaced cache under a generated conversation id, registers a
// summary for it, and deletes the legacy key. Returns the generated id, or
// empty when there was nothing to migrate.
//
// A corrupt legacy value is logged and discarded; the key is still deleted so
// the migration never runs twice.
func MigrateLegacy(store kv.Store, list *Store, cache *MessageCache, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := store.Get(kv.KeyLegacyMessages)
	if err != nil {
		if err == kv.ErrNotFound {
			return "", nil
		}
		return "", err
	}

	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		logger.Warn("corrupt legacy message log, discarding", "error", err)
		return "", store.Delete(kv.KeyLegacyMessages)
	}

	if len(msgs) == 0 {
		return "", store.Delete(kv.KeyLegacyMessages)
	}

	id := uuid.New().String()
	if err := cache.Set(id, msgs); err != nil {
		return "", err
	}

	title := "Imported conversation"
	for _, m := range msgs {
		if m.IsUser {
			title = TitleFromText(m.Text)
			break
		}
	}
	sum := Summary{
		ID:          id,
		Title:       title,
		LastMessage: msgs[len(msgs)-1].Text,
		UpdatedAt:   time.Now(),
	}
	if err := list.Upsert(sum); err != nil {
		return "", err
	}

	if err := store.Delete(kv.KeyLegacyMessages); err != nil {
		return "", err
	}

	logger.Info("legacy message log migrated", "conversation_id", id, "messages", len(msgs))
	return id, nil
}
