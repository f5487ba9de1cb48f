// Package inmemory provides an in-memory repository, primarily for tests.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memhub/pkg/store"
)

// Repository implements store.Repository with in-memory maps.
// All operations are safe for concurrent use.
type Repository struct {
	mu          sync.Mutex
	workspaces  map[string]*store.Workspace
	sessions    map[string][]*store.Session
	revisions   map[string]string
	tokens      map[string]*store.Token
	credentials map[string][]byte
	seq         int64
	order       map[string]int64
}

// NewRepository creates a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		workspaces:  make(map[string]*store.Workspace),
		sessions:    make(map[string][]*store.Session),
		revisions:   make(map[string]string),
		tokens:      make(map[string]*store.Token),
		credentials: make(map[string][]byte),
		order:       make(map[string]int64),
	}
}

// CreateWorkspace creates a workspace and seeds its ledger entry.
func (r *Repository) CreateWorkspace(_ context.Context, name, docPersonalID string, teamMap map[string]string) (*store.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if teamMap == nil {
		teamMap = map[string]string{}
	}

	ws := &store.Workspace{
		ID:            uuid.NewString(),
		Name:          name,
		DocPersonalID: docPersonalID,
		TeamMap:       teamMap,
		Categories:    []string{"GENERAL"},
	}

	r.workspaces[ws.ID] = ws
	r.revisions[ws.ID] = store.RevisionInit

	return ws, nil
}

// GetWorkspace retrieves a workspace by id.
func (r *Repository) GetWorkspace(_ context.Context, id string) (*store.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[id]
	if !ok {
		return nil, store.ErrWorkspaceNotFound{ID: id}
	}

	return ws, nil
}

// ListWorkspaces returns all workspaces sorted by name.
func (r *Repository) ListWorkspaces(_ context.Context) ([]*store.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*store.Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		result = append(result, ws)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// CurrentRevision returns the ledger's current revision for a workspace.
func (r *Repository) CurrentRevision(_ context.Context, workspaceID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revision, ok := r.revisions[workspaceID]
	if !ok {
		return store.RevisionInit, nil
	}

	return revision, nil
}

// AppendSession checks the expected revision, records the session, and
// advances the ledger under a single lock acquisition.
func (r *Repository) AppendSession(_ context.Context, session *store.Session, expectedRevision string) error {
	if session == nil {
		return errors.New("cannot append nil session")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.revisions[session.WorkspaceID]
	if !ok {
		current = store.RevisionInit
	}

	if expectedRevision != "" && expectedRevision != current {
		return store.ErrRevisionConflict{Expected: current, Provided: expectedRevision}
	}

	r.seq++
	r.order[session.ID] = r.seq
	r.sessions[session.WorkspaceID] = append(r.sessions[session.WorkspaceID], session)
	r.revisions[session.WorkspaceID] = session.Revision

	return nil
}

// LatestSession returns the most recent session in the partition, optionally
// filtered to the most recent session carrying the given category.
func (r *Repository) LatestSession(_ context.Context, workspaceID, scope, teamKey, category string) (*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := r.sorted(workspaceID)
	for _, session := range candidates {
		if session.Scope != scope {
			continue
		}
		if teamKey != "" && session.TeamKey != teamKey {
			continue
		}
		if category != "" && !hasCategory(session.Categories, category) {
			continue
		}
		return session, nil
	}

	return nil, store.ErrSessionNotFound{WorkspaceID: workspaceID}
}

// ListSessions returns up to limit sessions for a workspace, newest first.
func (r *Repository) ListSessions(_ context.Context, workspaceID string, limit int) ([]*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	result := r.sorted(workspaceID)
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// CreateToken issues a new API token for a workspace.
func (r *Repository) CreateToken(_ context.Context, workspaceID string, scopes []string, expiresAt time.Time) (*store.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scopes == nil {
		scopes = []string{}
	}

	token := &store.Token{
		Token:       uuid.New().String(),
		WorkspaceID: workspaceID,
		Scopes:      scopes,
		ExpiresAt:   expiresAt.UTC(),
	}
	r.tokens[token.Token] = token

	return token, nil
}

// Credential returns the stored mirror credential blob for a workspace.
func (r *Repository) Credential(_ context.Context, workspaceID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	credential, ok := r.credentials[workspaceID]
	if !ok {
		return nil, store.ErrCredentialNotFound{WorkspaceID: workspaceID}
	}

	return credential, nil
}

// SaveCredential stores or replaces the mirror credential blob for a workspace.
func (r *Repository) SaveCredential(_ context.Context, workspaceID string, credential []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.credentials[workspaceID] = credential

	return nil
}

// Close is a no-op for the in-memory repository.
func (r *Repository) Close() error {
	return nil
}

// sorted returns the workspace's sessions newest first. Ties on LastUpdated
// break by insertion order. Callers must hold the lock.
func (r *Repository) sorted(workspaceID string) []*store.Session {
	sessions := r.sessions[workspaceID]
	result := make([]*store.Session, len(sessions))
	copy(result, sessions)

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].LastUpdated.Equal(result[j].LastUpdated) {
			return result[i].LastUpdated.After(result[j].LastUpdated)
		}
		return r.order[result[i].ID] > r.order[result[j].ID]
	})

	return result
}

func hasCategory(categories []string, want string) bool {
	for _, c := range categories {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}
