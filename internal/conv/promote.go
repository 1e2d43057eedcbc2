// ABOUTME: Migrates a temporary conversation id to a backend-issued one
// ABOUTME: Touches the summary list, the message cache, and the active pointer

package conv

import (
	"fmt"
	"log/slog"

	"github.com/2389/reelsync/internal/kv"
)

// Promoter rewrites a locally generated temporary conversation id to the
// durable id issued by the backend, across the summary list, the message
// cache, and the durable active pointer.
type Promoter struct {
	store  kv.Store
	list   *Store
	cache  *MessageCache
	logger *slog.Logger
}

// NewPromoter creates a promoter. Pass nil logger for default.
func NewPromoter(store kv.Store, list *Store, cache *MessageCache, logger *slog.Logger) *Promoter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Promoter{
		store:  store,
		list:   list,
		cache:  cache,
		logger: logger.With("component", "promoter"),
	}
}

// Promote replaces oldID with seed.ID everywhere it is tracked. If oldID is
// temporary and still present in the list, its entry is rewritten in place
// (title retained) and moved to the front if needed. Otherwise a summary for
// seed.ID is inserted at the front, unless one already exists.
//
// Repeating a promotion for the same (oldID, newID) pair after the tracked id
// has moved on is harmless: the list and cache are left untouched and only
// the pointer write repeats.
func (p *Promoter) Promote(oldID string, seed Summary) error {
	newID := seed.ID
	if newID == "" {
		return fmt.Errorf("promotion target id is empty")
	}

	replaced := false
	if IsTempID(oldID) {
		var err error
		replaced, err = p.list.ReplaceID(oldID, newID)
		if err != nil {
			return fmt.Errorf("rewriting summary id: %w", err)
		}
	}
	if !replaced {
		if _, exists := p.list.Get(newID); !exists {
			if err := p.list.Upsert(seed); err != nil {
				return fmt.Errorf("inserting promoted summary: %w", err)
			}
		}
	}

	if err := p.cache.MigrateKey(oldID, newID); err != nil {
		return fmt.Errorf("migrating message cache: %w", err)
	}

	if err := p.store.Set(kv.KeyLastConversation, []byte(newID)); err != nil {
		return fmt.Errorf("updating active pointer: %w", err)
	}

	p.logger.Debug("conversation id promoted", "old_id", oldID, "new_id", newID)
	return nil
}
