// ABOUTME: Core conversation data types shared across the engine
// ABOUTME: Defines Summary, Message, and temporary id helpers

package conv

import (
	"fmt"
	"strings"
	"time"
)

// tempIDPrefix marks locally generated conversation ids that the backend
// has never seen.
const tempIDPrefix = "temp-"

// Summary is one entry in the ordered conversation list.
// ID is either backend-issued or a temporary id of shape temp-<timestamp>.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message is a single chat message. A message with IsProcessing set is a
// transient placeholder and is removed, not toggled, once its awaited event
// resolves.
type Message struct {
	Text         string `json:"text"`
	IsUser       bool   `json:"isUser"`
	IsProcessing bool   `json:"isProcessing,omitempty"`
}

// NewTempID generates a temporary conversation id. Temporary ids are used
// locally until the backend assigns a durable one.
func NewTempID() string {
	return fmt.Sprintf("%s%d", tempIDPrefix, time.Now().UnixMilli())
}

// IsTempID reports whether id has the temporary shape.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// TitleFromText derives a conversation title from its first user message.
func TitleFromText(text string) string {
	const maxTitle = 40
	text = strings.TrimSpace(text)
	if len(text) <= maxTitle {
		return text
	}
	return strings.TrimSpace(text[:maxTitle]) + "…"
}
