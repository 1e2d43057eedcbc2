// ABOUTME: Tests for the backend HTTP client
// ABOUTME: Covers history tolerance, tagged send decoding, and job status polling

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second, nil), srv
}

func TestFetchHistory(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/history/abc123", r.URL.Path)
		w.Write([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`))
	}))
	defer srv.Close()

	hist, err := c.FetchHistory(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "user", hist.Messages[0].Role)
	assert.Equal(t, "hello", hist.Messages[1].Content)
}

func TestFetchHistory_ToleratesAbsentMessages(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	hist, err := c.FetchHistory(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
}

func TestFetchHistory_ServerError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := c.FetchHistory(context.Background(), "abc123")
	require.Error(t, err)
}

func TestSendChat_PlainReply(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req["message"])
		_, hasConv := req["conversation_id"]
		assert.False(t, hasConv, "empty conversation_id must be omitted")

		w.Write([]byte(`{"conversation_id":"abc123","message":"hi there"}`))
	}))
	defer srv.Close()

	result, err := c.SendChat(context.Background(), "hello", "")
	require.NoError(t, err)

	reply, ok := result.(PlainReply)
	require.True(t, ok, "expected PlainReply, got %T", result)
	assert.Equal(t, "abc123", reply.ConversationID())
	assert.Equal(t, "hi there", reply.Message)
}

func TestSendChat_SongJobCreated(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"conversation_id": "abc123",
			"is_song_request": true,
			"song_request_data": {"job_id": "job-9", "title": "Take On Me", "artist": "a-ha"}
		}`))
	}))
	defer srv.Close()

	result, err := c.SendChat(context.Background(), "make me a video for Take On Me", "abc123")
	require.NoError(t, err)

	job, ok := result.(SongJobCreated)
	require.True(t, ok, "expected SongJobCreated, got %T", result)
	assert.Equal(t, "job-9", job.JobID)
	assert.Equal(t, "Take On Me", job.Title)
	assert.Equal(t, "a-ha", job.Artist)
}

func TestSendChat_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing conversation id", `{"message":"hi"}`},
		{"song request without job data", `{"conversation_id":"abc","is_song_request":true}`},
		{"song request with empty job id", `{"conversation_id":"abc","is_song_request":true,"song_request_data":{}}`},
		{"reply without message", `{"conversation_id":"abc"}`},
		{"not json", `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := c.SendChat(context.Background(), "hello", "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse), "want ErrMalformedResponse, got %v", err)
		})
	}
}

func TestFetchJobStatus(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/job-9/status", r.URL.Path)
		w.Write([]byte(`{"status":"failed","error":"render farm on fire"}`))
	}))
	defer srv.Close()

	status, err := c.FetchJobStatus(context.Background(), "job-9")
	require.NoError(t, err)
	assert.Equal(t, JobFailed, status.Status)
	assert.Equal(t, "render farm on fire", status.Error)
	assert.True(t, status.Status.Terminal())
}

func TestFetchJobStatus_MissingStatus(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := c.FetchJobStatus(context.Background(), "job-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobPending.Terminal())
	assert.False(t, JobProcessing.Terminal())
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
}
