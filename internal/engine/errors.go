// ABOUTME: Sentinel errors for facade-level operation rejection
// ABOUTME: These are guard rejections, not failures; callers may ignore them

package engine

import "errors"

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInFlight is returned by Send while a previous send has not
	// resolved yet.
	ErrSendInFlight = errors.New("a send is already in flight")

	// ErrLoadInFlight is returned by LoadConversation while a load for a
	// different conversation has not resolved yet.
	ErrLoadInFlight = errors.New("another conversation is already loading")
)
