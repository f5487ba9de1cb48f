package hub

import (
	"time"
)

// Scope names for session partitions.
const (
	ScopePersonal = "personal"
	ScopeTeam     = "team"
)

// Status is the outcome of a write attempt.
type Status string

const (
	// StatusOK means the session passed the revision check and committed.
	StatusOK Status = "ok"

	// StatusConflict means the caller's base revision was stale. No state
	// changed; the caller must re-read and retry.
	StatusConflict Status = "conflict"
)

// SyncState describes how far an accepted session propagated.
type SyncState string

const (
	// SyncStateSynced means the session committed locally and the remote
	// mirror accepted the replica.
	SyncStateSynced SyncState = "synced"

	// SyncStateLocalOnly means the session committed locally but the
	// mirror write failed or is disabled.
	SyncStateLocalOnly SyncState = "local_only"

	// SyncStateReauthRequired means the session committed locally but the
	// mirror credential can no longer be used; the user must re-run the
	// authorization flow.
	SyncStateReauthRequired SyncState = "reauth_required"
)

// Conflict carries the two revisions that disagreed.
type Conflict struct {
	ExpectedRevision string `json:"expected_revision"`
	ProvidedRevision string `json:"provided_revision"`
}

// WriteRequest is a request to append a session to a partition.
type WriteRequest struct {
	WorkspaceID  string
	Scope        string
	TeamKey      string
	Content      string
	BaseRevision string
}

// WriteResult is the outcome of a write attempt. When Status is
// StatusConflict, only Conflict is populated. LastUpdated is the remote
// document's last-modified time when synced, the local commit time otherwise.
type WriteResult struct {
	Status      Status
	Conflict    *Conflict
	SessionID   string
	Revision    string
	Categories  []string
	LastUpdated time.Time
	SyncState   SyncState
	DocURL      string
}

// ReadRequest is a request for the latest session in a partition.
type ReadRequest struct {
	WorkspaceID string
	Scope       string
	TeamKey     string
	Category    string
}

// ReadResult is the latest session merged with remote document metadata.
// When the mirror is unreachable the Doc fields are zero, Source is
// SourceLocal, and LastUpdated falls back to the local record's timestamp.
type ReadResult struct {
	SessionID   string
	Revision    string
	Content     string
	Categories  []string
	LastUpdated time.Time

	Source         Source
	DocName        string
	DocURL         string
	DocLastUpdated time.Time
}

// Source describes where a read's metadata came from.
type Source string

const (
	// SourceMerged means the local record was merged with live remote
	// document metadata.
	SourceMerged Source = "merged"

	// SourceLocal means the remote was unreachable or disabled and the
	// result reflects the local store alone.
	SourceLocal Source = "local"
)
