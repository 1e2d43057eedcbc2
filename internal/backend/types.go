// ABOUTME: Wire shapes for the remote conversation/generation API
// ABOUTME: Decodes dynamically-shaped send responses into tagged result variants

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the backend sends a payload that
// doesn't match the contract shape.
var ErrMalformedResponse = errors.New("malformed backend response")

// HistoryMessage is one entry of a remote conversation history.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// History is the remote conversation history for one conversation.
// Messages may be empty or absent; both decode to an empty slice.
type History struct {
	Messages []HistoryMessage `json:"messages"`
}

// JobStatus is the lifecycle state of a video-generation job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStatusResult is one poll of a generation job.
type JobStatusResult struct {
	Status JobStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// ChatResult is the decoded outcome of a send. Exactly one of the two
// variants is returned: PlainReply for a freeform assistant message,
// SongJobCreated when the backend started a video-generation job instead.
type ChatResult interface {
	// ConversationID returns the backend-issued conversation id the reply
	// belongs to.
	ConversationID() string
}

// PlainReply is a freeform assistant text reply.
type PlainReply struct {
	ConvID  string
	Message string
}

// ConversationID implements ChatResult.
func (r PlainReply) ConversationID() string { return r.ConvID }

// SongJobCreated signals that the backend accepted a song request and
// started an asynchronous video-generation job.
type SongJobCreated struct {
	ConvID string
	JobID  string
	Title  string
	Artist string
}

// ConversationID implements ChatResult.
func (r SongJobCreated) ConversationID() string { return r.ConvID }

// sendRequest is the wire shape of a send. ConversationID is omitted for
// new conversations; temporary ids are never sent.
type sendRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// sendResponse is the raw wire shape of a send response before tagging.
type sendResponse struct {
	ConversationID  string `json:"conversation_id"`
	Message         string `json:"message,omitempty"`
	IsSongRequest   bool   `json:"is_song_request,omitempty"`
	SongRequestData *struct {
		JobID  string `json:"job_id"`
		Title  string `json:"title"`
		Artist string `json:"artist"`
	} `json:"song_request_data,omitempty"`
}

// decodeChatResult validates a raw send response and tags it.
func decodeChatResult(raw []byte) (ChatResult, error) {
	var resp sendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.ConversationID == "" {
		return nil, fmt.Errorf("%w: missing conversation_id", ErrMalformedResponse)
	}

	if resp.IsSongRequest {
		data := resp.SongRequestData
		if data == nil || data.JobID == "" {
			return nil, fmt.Errorf("%w: song request without job data", ErrMalformedResponse)
		}
		return SongJobCreated{
			ConvID: resp.ConversationID,
			JobID:  data.JobID,
			Title:  data.Title,
			Artist: data.Artist,
		}, nil
	}

	if resp.Message == "" {
		return nil, fmt.Errorf("%w: reply without message text", ErrMalformedResponse)
	}
	return PlainReply{
		ConvID:  resp.ConversationID,
		Message: resp.Message,
	}, nil
}
