// Package store defines the local authoritative store for the memhub system.
//
// The Repository is the single durable source of truth: workspaces, the
// append-only session log, the per-workspace revision ledger, and stored
// mirror credentials all live here. Remote mirrors and storage port backends
// are best-effort collaborators layered on top; the repository is the only
// place with transactional guarantees.
package store

import (
	"context"
	"time"
)

// RevisionInit is the ledger sentinel for a workspace that has never been
// written to.
const RevisionInit = "init"

// Workspace is a named tenant. Workspaces are created explicitly and never
// deleted in-band.
type Workspace struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	DocPersonalID string            `json:"doc_personal_id,omitempty"`
	TeamMap       map[string]string `json:"team_map"`
	Categories    []string          `json:"categories"`
}

// Session is a single memory/handoff entry. Sessions are immutable once
// written; updates are new appends, never in-place mutation.
type Session struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Scope       string    `json:"scope"`
	TeamKey     string    `json:"team_key,omitempty"`
	Revision    string    `json:"revision_id"`
	Content     string    `json:"content"`
	Categories  []string  `json:"categories"`
	LastUpdated time.Time `json:"last_updated"`
}

// Token is an opaque API token issued for a workspace.
type Token struct {
	Token       string    `json:"token"`
	WorkspaceID string    `json:"workspace_id"`
	Scopes      []string  `json:"scopes"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Repository defines the interface for the local authoritative store.
//
// AppendSession is the transactional heart of the system: the ledger read,
// the optimistic revision comparison, the session insert, and the ledger
// advance all happen inside one local transaction. Two concurrent writers
// must not both observe the same current revision as still valid after one
// of them has committed.
type Repository interface {
	// CreateWorkspace creates a workspace and seeds its ledger entry to
	// RevisionInit and its category set to ["GENERAL"].
	CreateWorkspace(ctx context.Context, name, docPersonalID string, teamMap map[string]string) (*Workspace, error)

	// GetWorkspace retrieves a workspace by id.
	// Returns ErrWorkspaceNotFound when it does not exist.
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)

	// ListWorkspaces returns all workspaces.
	ListWorkspaces(ctx context.Context) ([]*Workspace, error)

	// CurrentRevision returns the ledger's current revision for a workspace.
	// Returns RevisionInit when the workspace has never been written to.
	CurrentRevision(ctx context.Context, workspaceID string) (string, error)

	// AppendSession atomically checks the expected revision, inserts the
	// session, and advances the ledger to the session's revision.
	// An empty expectedRevision skips the comparison (last-writer-wins).
	// Returns ErrRevisionConflict when the comparison fails; no mutation
	// occurs in that case.
	AppendSession(ctx context.Context, session *Session, expectedRevision string) error

	// LatestSession returns the most recent session in the
	// (workspace, scope, teamKey) partition. When category is non-empty,
	// returns the most recent session whose category set contains it.
	// Returns ErrSessionNotFound when no session matches.
	LatestSession(ctx context.Context, workspaceID, scope, teamKey, category string) (*Session, error)

	// ListSessions returns up to limit sessions for a workspace,
	// newest first.
	ListSessions(ctx context.Context, workspaceID string, limit int) ([]*Session, error)

	// CreateToken issues a new API token for a workspace.
	CreateToken(ctx context.Context, workspaceID string, scopes []string, expiresAt time.Time) (*Token, error)

	// Credential returns the stored mirror credential blob for a workspace.
	// Returns ErrCredentialNotFound when no credential has been stored.
	Credential(ctx context.Context, workspaceID string) ([]byte, error)

	// SaveCredential stores or replaces the mirror credential blob for a
	// workspace.
	SaveCredential(ctx context.Context, workspaceID string, credential []byte) error

	// Close closes the store and releases any resources.
	Close() error
}
