// Package mirror defines the interface for best-effort remote mirrors.
//
// A mirror replicates accepted sessions into an external document store.
// Mirror writes happen after the local commit and never gate it: a failed
// mirror call leaves the session local-only, to be reconciled later.
package mirror

import (
	"context"
	"time"
)

// Entry is one accepted session to replicate into a remote document.
type Entry struct {
	Revision   string
	Content    string
	Categories []string
	Timestamp  time.Time
}

// Meta describes the remote document backing a partition.
type Meta struct {
	DocID       string
	URL         string
	Name        string
	LastUpdated time.Time
}

// Result carries the remote document state after a mirror call.
// RefreshedCredential is non-nil when the provider rotated the stored
// credential during the call; the caller is responsible for persisting it.
type Result struct {
	Meta                Meta
	RefreshedCredential []byte
}

// Mirror replicates sessions to a remote document provider.
type Mirror interface {
	// Append writes one entry to the end of the remote document.
	Append(ctx context.Context, credential []byte, docID string, entry Entry) (*Result, error)

	// Info fetches the remote document's current metadata without
	// modifying it.
	Info(ctx context.Context, credential []byte, docID string) (*Result, error)
}

// Authenticator drives the provider's authorization code flow.
type Authenticator interface {
	// AuthURL returns the provider consent URL. The state value is
	// round-tripped through the provider back to the callback.
	AuthURL(state string) string

	// Exchange trades an authorization code for a serialized credential
	// suitable for passing to Mirror calls.
	Exchange(ctx context.Context, code string) ([]byte, error)
}
