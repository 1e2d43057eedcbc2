// ABOUTME: Tests for Broadcaster fan-out pub/sub
// ABOUTME: Covers subscribe, publish, unsubscribe, context cancellation, full buffers

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_SingleSubscriberReceivesEvent(t *testing.T) {
	b := NewBroadcaster(nil)

	ch, _ := b.Subscribe(context.Background())

	b.Publish(Event{Type: EventMessagesChanged, ConversationID: "conv-1"})

	select {
	case received := <-ch:
		assert.Equal(t, EventMessagesChanged, received.Type)
		assert.Equal(t, "conv-1", received.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcaster_MultipleSubscribersReceiveSameEvent(t *testing.T) {
	b := NewBroadcaster(nil)

	ch1, _ := b.Subscribe(context.Background())
	ch2, _ := b.Subscribe(context.Background())
	ch3, _ := b.Subscribe(context.Background())

	b.Publish(Event{Type: EventJobSettled, JobID: "job-9"})

	for i, ch := range []<-chan Event{ch1, ch2, ch3} {
		select {
		case received := <-ch:
			assert.Equal(t, "job-9", received.JobID, "subscriber %d got wrong event", i)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)

	ch, subID := b.Subscribe(context.Background())
	b.Unsubscribe(subID)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Publishing after unsubscribe must not panic
	b.Publish(Event{Type: EventMessagesChanged})
}

func TestBroadcaster_UnsubscribeUnknownIDIsNoOp(t *testing.T) {
	b := NewBroadcaster(nil)
	b.Unsubscribe("nope")
}

func TestBroadcaster_ContextCancellationCleansUp(t *testing.T) {
	b := NewBroadcaster(nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancellation")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cleanup")
	}
}

func TestBroadcaster_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroadcaster(nil)

	ch, _ := b.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish(Event{Type: EventMessagesChanged})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	// The buffer holds as much as it could; the rest was dropped
	assert.Len(t, ch, subscriberBufferSize)
}
