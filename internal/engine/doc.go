// Package engine reconciles conversation state across three sources of
// truth: the remote conversation-history API, the durable local kv store,
// and the in-memory state a UI renders from. A background poller tracks one
// outstanding video-generation job alongside.
//
// # Facade
//
// Engine exposes the public operations:
//
//	eng := engine.New(store, client, pollInterval, logger)
//	eng.Start(ctx)            // migrate, restore, resume polling
//	eng.Send(ctx, text)
//	eng.NewConversation()
//	eng.LoadConversation(ctx, id)
//	eng.DeleteConversation(ctx, id)
//	eng.Shutdown()
//
// # Staleness model
//
// There are no true data races here, only logically-stale async completions:
// a history fetch resolving after the user navigated away, or a job status
// response arriving after the poll was torn down. Correctness comes from
// identity checks at resolution time — every async result is compared
// against the currently tracked conversation or the poll's cancellation
// token, and discarded silently when it no longer matches.
//
// # Failure surface
//
// Remote failures never escape the facade. Reads fall back to the local
// cache; write failures surface as an inline assistant-attributed message in
// the conversation itself. The only errors callers see are guard rejections
// (ErrEmptyMessage, ErrSendInFlight, ErrLoadInFlight).
//
// # Events
//
// State changes fan out through the Broadcaster so a frontend can subscribe
// and re-render instead of polling engine state:
//
//	events, subID := eng.Events().Subscribe(ctx)
package engine
