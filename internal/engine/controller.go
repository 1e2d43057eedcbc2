// ABOUTME: ActiveConversationController: restore-on-start, guarded switching, deletion fallback
// ABOUTME: Stale load results are discarded by identity checks at resolution time

package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/reelsync/internal/backend"
	"github.com/2389/reelsync/internal/conv"
	"github.com/2389/reelsync/internal/kv"
)

// State is the controller's lifecycle state.
type State int

const (
	// StateRestoring is the initial state before Restore has run.
	StateRestoring State = iota
	// StateIdle is a synthetic greeting-only conversation with no id.
	StateIdle
	// StateLoading means a conversation load is in flight.
	StateLoading
	// StateReady means a conversation is active and settled.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Greeting opens every fresh conversation.
const Greeting = "Hey! Name a song and an artist and I'll put together a music video for it."

// HistoryFetcher defines what the controller needs from the backend.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, conversationID string) (*backend.History, error)
}

// Snapshot is a consistent copy of the controller's visible state.
type Snapshot struct {
	State    State
	ActiveID string
	Messages []conv.Message
}

// Controller tracks which conversation is active and what its message list
// is. All async results (restore fetches, switches) are committed only if
// the conversation they were issued for is still the active one.
type Controller struct {
	mu      sync.Mutex
	store   kv.Store
	list    *conv.Store
	cache   *conv.MessageCache
	fetcher HistoryFetcher
	events  *Broadcaster
	logger  *slog.Logger

	state     State
	activeID  string
	messages  []conv.Message
	loadingID string // loading guard: the single load allowed in flight
}

// NewController creates a controller in StateRestoring.
// Pass nil logger for default.
func NewController(store kv.Store, list *conv.Store, cache *conv.MessageCache, fetcher HistoryFetcher, events *Broadcaster, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		list:    list,
		cache:   cache,
		fetcher: fetcher,
		events:  events,
		logger:  logger.With("component", "controller"),
		state:   StateRestoring,
	}
}

// Snapshot returns a copy of the visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]conv.Message, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{State: c.state, ActiveID: c.activeID, Messages: msgs}
}

// ActiveID returns the tracked active conversation id, empty if none.
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Restore resolves the initial conversation on startup: durable pointer ->
// remote history -> cached messages -> synthetic greeting, in that order of
// preference. Remote failure and empty remote history both fall back to the
// cache; the remote copy wins only when it has content.
func (c *Controller) Restore(ctx context.Context) {
	raw, err := c.store.Get(kv.KeyLastConversation)
	if err != nil || len(raw) == 0 {
		c.logger.Debug("no last-active pointer, starting fresh")
		c.ResetToGreeting()
		return
	}
	id := string(raw)

	// Temporary ids are never known to the backend
	if conv.IsTempID(id) {
		c.commitLocal(id)
		return
	}

	hist, err := c.fetcher.FetchHistory(ctx, id)
	if err == nil && len(hist.Messages) > 0 {
		msgs := historyToMessages(hist)
		if err := c.cache.Set(id, msgs); err != nil {
			c.logger.Error("failed to refresh cache from history", "conversation_id", id, "error", err)
		}
		c.commit(id, msgs)
		return
	}
	if err != nil {
		c.logger.Warn("history fetch failed on restore, falling back to cache",
			"conversation_id", id, "error", err)
	}

	cached := c.cache.Get(id)
	if len(cached) > 0 {
		c.commit(id, cached)
		return
	}

	c.ResetToGreeting()
}

// Load switches to the given conversation. It is rejected with
// ErrLoadInFlight while a load for a different id is pending, because that
// other load's result would otherwise land after the user has navigated
// away. The result of this load itself is committed only if the tracked
// active id still equals id when it resolves; otherwise it is discarded
// silently.
func (c *Controller) Load(ctx context.Context, id string) error {
	if id == "" {
		c.ResetToGreeting()
		return nil
	}

	c.mu.Lock()
	if c.loadingID != "" && c.loadingID != id {
		c.mu.Unlock()
		c.logger.Debug("load rejected, another conversation is loading",
			"requested", id, "loading", c.loadingID)
		return ErrLoadInFlight
	}
	c.loadingID = id
	c.activeID = id
	c.state = StateLoading
	c.mu.Unlock()

	if err := c.store.Set(kv.KeyLastConversation, []byte(id)); err != nil {
		c.logger.Error("failed to persist active pointer", "conversation_id", id, "error", err)
	}

	// Temporary ids resolve purely locally
	if conv.IsTempID(id) {
		c.commitLocal(id)
		return nil
	}

	hist, err := c.fetcher.FetchHistory(ctx, id)

	var msgs []conv.Message
	fetched := err == nil && len(hist.Messages) > 0
	if fetched {
		msgs = historyToMessages(hist)
	} else {
		if err != nil {
			c.logger.Warn("history fetch failed, falling back to cache",
				"conversation_id", id, "error", err)
		}
		msgs = c.cache.Get(id)
		if len(msgs) == 0 {
			msgs = greetingMessages()
		}
	}

	c.resolveLoad(id, msgs, fetched)
	return nil
}

// resolveLoad releases the loading guard and commits the result, unless the
// active conversation moved on while the fetch was in flight.
func (c *Controller) resolveLoad(id string, msgs []conv.Message, refreshCache bool) {
	c.mu.Lock()
	if c.loadingID == id {
		c.loadingID = ""
	}
	if c.activeID != id {
		c.mu.Unlock()
		c.logger.Debug("stale load result discarded", "conversation_id", id)
		return
	}
	c.messages = msgs
	c.state = StateReady
	c.mu.Unlock()

	if refreshCache {
		if err := c.cache.Set(id, msgs); err != nil {
			c.logger.Error("failed to refresh cache", "conversation_id", id, "error", err)
		}
	}

	c.events.Publish(Event{Type: EventConversationSwitched, ConversationID: id})
	c.events.Publish(Event{Type: EventMessagesChanged, ConversationID: id})
}

// Delete removes a conversation. If it was the active one, focus falls back
// to the first remaining conversation via a normal Load; with nothing left,
// the controller resets to the synthetic greeting state.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.list.Remove(id); err != nil {
		return err
	}
	c.events.Publish(Event{Type: EventConversationListChanged})

	c.mu.Lock()
	isActive := c.activeID == id
	if c.loadingID == id {
		// A pending load for the deleted conversation can no longer commit
		c.loadingID = ""
	}
	c.mu.Unlock()

	if !isActive {
		return nil
	}

	remaining := c.list.List()
	if len(remaining) > 0 {
		return c.Load(ctx, remaining[0].ID)
	}

	c.ResetToGreeting()
	return nil
}

// ResetToGreeting enters the synthetic single-greeting state: no id, no
// durable pointer. An id is assigned again only once the next exchange
// completes.
func (c *Controller) ResetToGreeting() {
	c.mu.Lock()
	c.activeID = ""
	c.loadingID = ""
	c.messages = greetingMessages()
	c.state = StateIdle
	c.mu.Unlock()

	if err := c.store.Delete(kv.KeyLastConversation); err != nil {
		c.logger.Error("failed to clear active pointer", "error", err)
	}

	c.events.Publish(Event{Type: EventConversationSwitched})
	c.events.Publish(Event{Type: EventMessagesChanged})
}

// AdoptID retargets the controller at a new id without reloading messages.
// Used when a temp id is assigned locally and again when it is promoted.
func (c *Controller) AdoptID(id string) {
	c.mu.Lock()
	c.activeID = id
	c.state = StateReady
	msgs := c.messages
	c.mu.Unlock()

	if err := c.store.Set(kv.KeyLastConversation, []byte(id)); err != nil {
		c.logger.Error("failed to persist active pointer", "conversation_id", id, "error", err)
	}
	if len(msgs) > 0 {
		if err := c.cache.Set(id, msgs); err != nil {
			c.logger.Error("failed to persist messages", "conversation_id", id, "error", err)
		}
	}
}

// Append adds messages to the active conversation and persists the full log.
func (c *Controller) Append(msgs ...conv.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msgs...)
	c.persistLocked()
	id := c.activeID
	c.mu.Unlock()

	c.events.Publish(Event{Type: EventMessagesChanged, ConversationID: id})
}

// RemovePlaceholders strips all processing placeholders. Placeholders are
// removed, never toggled, once the event they waited for resolves.
func (c *Controller) RemovePlaceholders() {
	c.mu.Lock()
	filtered := c.messages[:0]
	for _, m := range c.messages {
		if !m.IsProcessing {
			filtered = append(filtered, m)
		}
	}
	c.messages = filtered
	c.persistLocked()
	id := c.activeID
	c.mu.Unlock()

	c.events.Publish(Event{Type: EventMessagesChanged, ConversationID: id})
}

// persistLocked rewrites the active conversation's cache entry in full.
// Conversations without an id live only in memory until one is assigned.
// Must be called with mu held.
func (c *Controller) persistLocked() {
	if c.activeID == "" {
		return
	}
	if err := c.cache.Set(c.activeID, c.messages); err != nil {
		c.logger.Error("failed to persist messages", "conversation_id", c.activeID, "error", err)
	}
}

// commit makes id the settled active conversation with the given messages.
func (c *Controller) commit(id string, msgs []conv.Message) {
	c.mu.Lock()
	c.activeID = id
	c.loadingID = ""
	c.messages = msgs
	c.state = StateReady
	c.mu.Unlock()

	if err := c.store.Set(kv.KeyLastConversation, []byte(id)); err != nil {
		c.logger.Error("failed to persist active pointer", "conversation_id", id, "error", err)
	}

	c.events.Publish(Event{Type: EventConversationSwitched, ConversationID: id})
	c.events.Publish(Event{Type: EventMessagesChanged, ConversationID: id})
}

// commitLocal resolves id from the cache alone, falling back to a greeting.
func (c *Controller) commitLocal(id string) {
	msgs := c.cache.Get(id)
	if len(msgs) == 0 {
		msgs = greetingMessages()
	}

	c.mu.Lock()
	if c.loadingID == id {
		c.loadingID = ""
	}
	c.mu.Unlock()

	c.commit(id, msgs)
}

func greetingMessages() []conv.Message {
	return []conv.Message{{Text: Greeting}}
}

// historyToMessages converts remote history entries to cache messages.
func historyToMessages(hist *backend.History) []conv.Message {
	msgs := make([]conv.Message, 0, len(hist.Messages))
	for _, m := range hist.Messages {
		msgs = append(msgs, conv.Message{
			Text:   m.Content,
			IsUser: m.Role == "user",
		})
	}
	return msgs
}
