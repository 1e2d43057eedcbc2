// Package backend is the HTTP client for the remote conversation-history and
// video-generation API. The engine treats it as a fallible remote source of
// truth, with the local cache as a staleness-tolerant shadow copy.
//
// Send responses are dynamically shaped on the wire; they are decoded at this
// boundary into tagged ChatResult variants (PlainReply, SongJobCreated) and
// malformed payloads are rejected early with ErrMalformedResponse.
package backend
