// ABOUTME: Cancellable task handle shared by the poller's timer and continuations
// ABOUTME: Cancel stops the loop and invalidates any check still in flight

package poller

import "sync"

// Task is the cancellation token for one polling run. Every status check
// captures the task at its own start and re-checks it when the response
// arrives, so a stop signal that lands mid-flight still discards the result.
type Task struct {
	done chan struct{}
	once sync.Once
}

// NewTask creates a live task.
func NewTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Cancel marks the task as cancelled. Safe to call multiple times.
func (t *Task) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on cancellation, for use in select loops.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
