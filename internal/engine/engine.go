// ABOUTME: SyncEngine facade: send, new/load/delete conversation, job handoff
// ABOUTME: Composes the controller, promoter, and poller behind public operations

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/reelsync/internal/backend"
	"github.com/2389/reelsync/internal/conv"
	"github.com/2389/reelsync/internal/kv"
	"github.com/2389/reelsync/internal/poller"
)

// Backend defines the full remote surface the engine consumes.
type Backend interface {
	FetchHistory(ctx context.Context, conversationID string) (*backend.History, error)
	SendChat(ctx context.Context, text, conversationID string) (backend.ChatResult, error)
	FetchJobStatus(ctx context.Context, jobID string) (*backend.JobStatusResult, error)
}

// Engine is the public conversation & job synchronization engine. One engine
// tracks one active conversation and at most one outstanding generation job.
type Engine struct {
	store    kv.Store
	list     *conv.Store
	cache    *conv.MessageCache
	promoter *conv.Promoter
	backend  Backend
	poller   *poller.Poller
	ctrl     *Controller
	events   *Broadcaster
	logger   *slog.Logger

	mu      sync.Mutex
	sending bool
	baseCtx context.Context // long-lived context for background polling
}

// New assembles an engine over the given kv store and backend client.
// Zero pollInterval falls back to the poller default. Pass nil logger for
// default.
func New(store kv.Store, client Backend, pollInterval time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	events := NewBroadcaster(logger)
	cache := conv.NewMessageCache(store, logger)
	list := conv.NewStore(store, cache, logger)

	return &Engine{
		store:    store,
		list:     list,
		cache:    cache,
		promoter: conv.NewPromoter(store, list, cache, logger),
		backend:  client,
		poller:   poller.New(client, store, pollInterval, logger),
		ctrl:     NewController(store, list, cache, client, events, logger),
		events:   events,
		logger:   logger.With("component", "engine"),
		baseCtx:  context.Background(),
	}
}

// Events returns the engine's change broadcaster.
func (e *Engine) Events() *Broadcaster {
	return e.events
}

// Snapshot returns the current visible conversation state.
func (e *Engine) Snapshot() Snapshot {
	return e.ctrl.Snapshot()
}

// Conversations returns the ordered summary list.
func (e *Engine) Conversations() []conv.Summary {
	return e.list.List()
}

// CurrentJob returns the job id under active polling, empty if none.
func (e *Engine) CurrentJob() string {
	return e.poller.CurrentJob()
}

// Start runs the engine's startup sequence: legacy migration, conversation
// restore, and resumption of any job poll left over from a previous run.
// ctx outlives Start; it bounds all background polling.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()

	if migrated, err := conv.MigrateLegacy(e.store, e.list, e.cache, e.logger); err != nil {
		e.logger.Error("legacy migration failed", "error", err)
	} else if migrated != "" {
		if _, err := e.store.Get(kv.KeyLastConversation); err == kv.ErrNotFound {
			if err := e.store.Set(kv.KeyLastConversation, []byte(migrated)); err != nil {
				e.logger.Error("failed to point at migrated conversation", "error", err)
			}
		}
	}

	e.ctrl.Restore(ctx)

	if resumed := e.poller.Resume(ctx, e.onJobSettled); resumed == "" {
		// No job survived the restart; a placeholder persisted mid-poll is
		// now orphaned and must not linger
		e.ctrl.RemovePlaceholders()
	}
}

// Shutdown tears the engine down: the poll interval is cancelled
// unconditionally, whatever state it reached. The durable job pointer stays,
// so the next Start resumes the poll.
func (e *Engine) Shutdown() {
	e.poller.Stop()
}

// Send posts a user message to the active conversation. Blank input and
// overlapping sends are rejected with sentinel errors. Remote failures are
// absorbed: they surface as an inline assistant-attributed message, and Send
// still returns nil.
func (e *Engine) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	e.mu.Lock()
	if e.sending {
		e.mu.Unlock()
		return ErrSendInFlight
	}
	e.sending = true
	baseCtx := e.baseCtx
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.sending = false
		e.mu.Unlock()
	}()

	// A conversation without an id gets a temporary one before the network
	// call goes out, so the exchange is tracked even if the reply is slow
	curID := e.ctrl.ActiveID()
	if curID == "" {
		curID = conv.NewTempID()
		e.ctrl.AdoptID(curID)
		e.upsertSummary(curID, conv.TitleFromText(text), text)
	} else {
		e.upsertSummary(curID, "", text)
	}

	e.ctrl.Append(
		conv.Message{Text: text, IsUser: true},
		conv.Message{IsProcessing: true},
	)

	// Temporary ids are never sent to the backend
	wireID := curID
	if conv.IsTempID(wireID) {
		wireID = ""
	}

	result, err := e.backend.SendChat(ctx, text, wireID)
	if err != nil {
		e.logger.Warn("send failed", "conversation_id", curID, "error", err)
		e.ctrl.RemovePlaceholders()
		e.ctrl.Append(conv.Message{Text: fmt.Sprintf("Sorry, something went wrong sending that: %v", err)})
		return nil
	}

	e.ctrl.RemovePlaceholders()

	// Promote when the backend issued a different id, or ours was temporary
	newID := result.ConversationID()
	if newID != "" && (newID != curID || conv.IsTempID(curID)) {
		seed := conv.Summary{
			ID:          newID,
			Title:       conv.TitleFromText(text),
			LastMessage: text,
			UpdatedAt:   time.Now(),
		}
		if err := e.promoter.Promote(curID, seed); err != nil {
			e.logger.Error("id promotion failed", "old_id", curID, "new_id", newID, "error", err)
		}
		e.ctrl.AdoptID(newID)
		e.events.Publish(Event{Type: EventConversationListChanged, ConversationID: newID})
		curID = newID
	}

	var reply string
	switch r := result.(type) {
	case backend.PlainReply:
		reply = r.Message
	case backend.SongJobCreated:
		reply = fmt.Sprintf("Great choice! I'm putting together a music video for %q by %s. I'll let you know the moment it's ready.", r.Title, r.Artist)
	default:
		reply = "Okay!"
	}

	e.ctrl.Append(conv.Message{Text: reply})
	e.upsertSummary(curID, "", reply)

	if job, ok := result.(backend.SongJobCreated); ok {
		// The job keeps a placeholder visible until it settles
		e.ctrl.Append(conv.Message{IsProcessing: true})
		e.poller.Start(baseCtx, job.JobID, e.onJobSettled)
	}

	return nil
}

// NewConversation starts a fresh greeting-only conversation with no id.
// Any active poll is torn down first.
func (e *Engine) NewConversation() {
	e.poller.Stop()
	e.ctrl.ResetToGreeting()
}

// LoadConversation switches to the given conversation. Switching tears down
// any active poll before the new conversation is shown. Returns
// ErrLoadInFlight while a different load is pending.
func (e *Engine) LoadConversation(ctx context.Context, id string) error {
	e.poller.Stop()
	return e.ctrl.Load(ctx, id)
}

// DeleteConversation removes a conversation and its cached messages. When
// the active conversation is deleted, focus moves to the first remaining
// one; deleting the last conversation resets the engine to a single
// greeting with no active id and no job pointer.
func (e *Engine) DeleteConversation(ctx context.Context, id string) error {
	if id == e.ctrl.ActiveID() {
		e.poller.Stop()
	}

	if err := e.ctrl.Delete(ctx, id); err != nil {
		return err
	}

	if len(e.list.List()) == 0 {
		if err := e.store.Delete(kv.KeyCurrentJob); err != nil {
			e.logger.Error("failed to clear job pointer", "error", err)
		}
	}
	return nil
}

// onJobSettled applies a job outcome to the active conversation. The poller
// only delivers outcomes for polls that were never torn down, so by the time
// this runs the active conversation is still the one that started the job.
func (e *Engine) onJobSettled(outcome poller.Outcome) {
	e.ctrl.RemovePlaceholders()

	var text string
	switch {
	case outcome.TransportFailure:
		text = "I lost my connection while checking on your video. Please try asking again."
	case outcome.Status == backend.JobCompleted:
		text = "Your music video is ready! Head over to your videos to watch it."
	case outcome.Err != "":
		text = outcome.Err
	default:
		text = "Sorry, the video generation failed. Please try again."
	}

	e.ctrl.Append(conv.Message{Text: text})
	if id := e.ctrl.ActiveID(); id != "" {
		e.upsertSummary(id, "", text)
	}

	e.events.Publish(Event{Type: EventJobSettled, JobID: outcome.JobID})
}

// upsertSummary records an exchange on the summary list. Title is only set
// for entries that don't exist yet; existing entries keep theirs.
func (e *Engine) upsertSummary(id, title, lastMessage string) {
	err := e.list.Upsert(conv.Summary{
		ID:          id,
		Title:       title,
		LastMessage: lastMessage,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		e.logger.Error("failed to update summary", "conversation_id", id, "error", err)
		return
	}
	e.events.Publish(Event{Type: EventConversationListChanged, ConversationID: id})
}
