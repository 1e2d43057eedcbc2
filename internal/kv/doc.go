// Package kv provides the durable key-value capability backing all persisted
// engine state, with a SQLite implementation for production and an in-memory
// implementation for tests and ephemeral runs.
package kv
