// Package poller tracks one outstanding video-generation job through a
// cancellable interval-based state machine: Inactive -> Polling(jobID) ->
// Settled. The tracked job id is persisted so polling resumes after a
// restart; teardown cancels the interval without touching the pointer, and a
// response arriving after cancellation is discarded rather than applied.
package poller
