// ABOUTME: KeyValueStore capability and the persisted key layout for engine state
// ABOUTME: All durable engine state flows through this interface

package kv

import "errors"

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("key not found")

// Persisted key layout. String keys, JSON values; the pointer keys hold bare
// id strings.
const (
	// KeyLastConversation holds the id of the last active conversation.
	KeyLastConversation = "pointer:lastConversationId"

	// KeyCurrentJob holds the id of the generation job under active polling.
	// Absent when no job is being tracked.
	KeyCurrentJob = "pointer:currentJobId"

	// KeyConversationList holds the ordered list of conversation summaries.
	KeyConversationList = "list:conversations"

	// messagesPrefix namespaces per-conversation message logs.
	messagesPrefix = "cache:messages:"

	// KeyLegacyMessages is the single-conversation message log written by
	// versions that predate the namespaced layout. It holds a bare message
	// array, is read once for migration, and is then deleted.
	KeyLegacyMessages = "chatMessages"
)

// MessagesKey returns the storage key for a conversation's message log.
func MessagesKey(conversationID string) string {
	return messagesPrefix + conversationID
}

// MessagesPrefix returns the key prefix shared by all message logs.
func MessagesPrefix() string {
	return messagesPrefix
}

// Store is the durable key-value capability the engine persists through.
// Implementations must return ErrNotFound from Get for absent keys and
// treat Delete of an absent key as a no-op.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	ListByPrefix(prefix string) ([]string, error)

	// Close releases any resources held by the store
	Close() error
}
