// ABOUTME: Ordered conversation-summary list and its persistence/reordering rules
// ABOUTME: Recency-driven order with explicit no-op rules to avoid redundant writes

package conv

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/2389/reelsync/internal/kv"
)

// Store maintains the ordered list of conversation summaries. The list is
// recency-ordered: the most recently touched conversation sits at index 0.
type Store struct {
	store  kv.Store
	cache  *MessageCache
	logger *slog.Logger
}

// NewStore creates a conversation store. Pass nil logger for default.
func NewStore(store kv.Store, cache *MessageCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		store:  store,
		cache:  cache,
		logger: logger.With("component", "convstore"),
	}
}

// List returns the persisted summaries in order. A corrupt or absent list is
// logged and treated as empty, never an error.
func (s *Store) List() []Summary {
	raw, err := s.store.Get(kv.KeyConversationList)
	if err != nil {
		return nil
	}

	var list []Summary
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("corrupt conversation list, treating as absent", "error", err)
		return nil
	}
	return list
}

// Get returns the summary with the given id, or false if absent.
func (s *Store) Get(id string) (Summary, bool) {
	for _, sum := range s.List() {
		if sum.ID == id {
			return sum, true
		}
	}
	return Summary{}, false
}

// Upsert inserts or updates a summary. An existing entry whose LastMessage is
// unchanged is left alone entirely, skipping the write. Otherwise the entry's
// fields are updated and, if it was not already first, it moves to the front.
// New entries are inserted at the front.
func (s *Store) Upsert(sum Summary) error {
	list := s.List()

	idx := indexOf(list, sum.ID)
	if idx >= 0 {
		if list[idx].LastMessage == sum.LastMessage {
			// Nothing visible changed, avoid the redundant write
			return nil
		}
		list[idx].LastMessage = sum.LastMessage
		list[idx].UpdatedAt = sum.UpdatedAt
		if sum.Title != "" {
			list[idx].Title = sum.Title
		}
		if idx != 0 {
			updated := list[idx]
			list = append(list[:idx], list[idx+1:]...)
			list = append([]Summary{updated}, list...)
		}
	} else {
		list = append([]Summary{sum}, list...)
	}

	return s.save(list)
}

// MoveToFront reorders an existing summary to index 0. Already-first or
// unknown ids are no-ops.
func (s *Store) MoveToFront(id string) error {
	list := s.List()

	idx := indexOf(list, id)
	if idx <= 0 {
		return nil
	}

	entry := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	list = append([]Summary{entry}, list...)
	return s.save(list)
}

// Remove deletes a summary and purges its message-cache entry.
func (s *Store) Remove(id string) error {
	list := s.List()

	idx := indexOf(list, id)
	if idx >= 0 {
		list = append(list[:idx], list[idx+1:]...)
		if err := s.save(list); err != nil {
			return err
		}
	}

	return s.cache.Delete(id)
}

// ReplaceID rewrites the id of an existing entry in place, retaining its
// title, and moves it to the front if it is not already there. Returns false
// if no entry with oldID exists. Used only during id promotion.
func (s *Store) ReplaceID(oldID, newID string) (bool, error) {
	list := s.List()

	idx := indexOf(list, oldID)
	if idx < 0 {
		return false, nil
	}

	list[idx].ID = newID
	if idx != 0 {
		entry := list[idx]
		list = append(list[:idx], list[idx+1:]...)
		list = append([]Summary{entry}, list...)
	}
	return true, s.save(list)
}

func (s *Store) save(list []Summary) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding conversation list: %w", err)
	}
	if err := s.store.Set(kv.KeyConversationList, raw); err != nil {
		return fmt.Errorf("writing conversation list: %w", err)
	}
	return nil
}

func indexOf(list []Summary, id string) int {
	for i, sum := range list {
		if sum.ID == id {
			return i
		}
	}
	return -1
}
