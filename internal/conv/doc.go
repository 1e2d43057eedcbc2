// Package conv holds the conversation data model and its persistence rules.
//
// # Overview
//
// Three pieces live here:
//
//   - Store: the ordered list of conversation summaries. Order is
//     recency-driven, with explicit no-op rules so unchanged entries never
//     trigger a rewrite.
//   - MessageCache: the per-conversation message log, keyed by conversation
//     id and always rewritten in full.
//   - Promoter: the migration of a locally generated temporary id to the
//     durable id issued by the backend, across list, cache, and the active
//     pointer.
//
// # Temporary ids
//
// A conversation started locally gets an id of shape temp-<timestamp>. The
// backend never learns these; the first successful exchange returns the real
// id and Promote rewrites every trace of the temporary one. Promotion is
// idempotent for a given (old, new) pair.
//
// # Corruption policy
//
// Any persisted value that fails to decode is logged and treated as absent.
// Readers of this package never see a parse error.
package conv
