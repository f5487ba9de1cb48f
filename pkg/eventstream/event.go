package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionAccepted is emitted after a session passes the
	// revision check and commits to the local store.
	EventTypeSessionAccepted = "memhub.session.accepted"
)

// SessionAcceptedEvent is a transport-neutral event payload for an accepted session.
type SessionAcceptedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Source        EventSource   `json:"source"`
	Session       SessionMeta   `json:"session"`
	Revision      RevisionMeta  `json:"revision"`
	Mirror        *MirrorStatus `json:"mirror,omitempty"`
}

// EventSource identifies where the session originated.
type EventSource struct {
	WorkspaceID string `json:"workspace_id"`
	Scope       string `json:"scope"`
	TeamKey     string `json:"team_key,omitempty"`
}

// SessionMeta captures the accepted session's identity and classification.
type SessionMeta struct {
	SessionID   string    `json:"session_id"`
	Categories  []string  `json:"categories"`
	ContentSize int       `json:"content_size"`
	LastUpdated time.Time `json:"last_updated"`
}

// RevisionMeta captures the ledger transition the session produced.
type RevisionMeta struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// MirrorStatus captures the outcome of the best-effort remote replication.
type MirrorStatus struct {
	SyncState string `json:"sync_state"`
	DocURL    string `json:"doc_url,omitempty"`
}
