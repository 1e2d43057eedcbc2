// ABOUTME: In-memory fan-out of engine change events to UI subscribers
// ABOUTME: Lets a frontend re-render without polling engine state

package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// EventType identifies what changed.
type EventType string

const (
	// EventMessagesChanged fires whenever the visible message list of the
	// active conversation mutates.
	EventMessagesChanged EventType = "messages_changed"

	// EventConversationSwitched fires when the active conversation changes.
	EventConversationSwitched EventType = "conversation_switched"

	// EventConversationListChanged fires when summaries are added, removed,
	// promoted, or reordered.
	EventConversationListChanged EventType = "conversation_list_changed"

	// EventJobSettled fires when a generation job reaches a terminal state.
	EventJobSettled EventType = "job_settled"
)

// Event is one engine change notification.
type Event struct {
	Type           EventType
	ConversationID string
	JobID          string
}

// Broadcaster provides in-memory pub/sub for engine events. Publishing is
// non-blocking: events are dropped for subscribers whose channels are full.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber. Returns a channel that receives events
// and a subscription id for later unsubscription. The subscription is
// automatically cleaned up when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids are
// a no-op.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	ch, ok := b.subscribers[subID]
	if ok {
		delete(b.subscribers, subID)
	}
	b.mu.Unlock()

	if ok {
		close(ch)
		b.logger.Debug("subscriber removed", "sub_id", subID)
	}
}

// Publish sends an event to all subscribers without blocking.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subID, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"sub_id", subID,
				"event", event.Type)
		}
	}
}
