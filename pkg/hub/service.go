// Package hub implements the session hub: revision-checked local writes with
// best-effort remote mirroring.
//
// The local store is authoritative. A write commits locally first and only
// then attempts the mirror; mirror failures degrade the sync state but never
// roll back or block the commit. Reads merge the local record with live
// remote metadata and fall back to the local record alone when the remote is
// unreachable.
package hub

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/pkg/eventstream"
	"github.com/papercomputeco/memhub/pkg/mirror"
	"github.com/papercomputeco/memhub/pkg/store"
)

// tokenTTL is how long issued API tokens stay valid.
const tokenTTL = 30 * 24 * time.Hour

// Service coordinates the local store, the remote mirror, and the event stream.
type Service struct {
	repo   store.Repository
	mirror mirror.Mirror
	auth   mirror.Authenticator
	events eventstream.Publisher
	logger *zap.Logger
}

// NewService creates a new hub service. The authenticator may be nil when the
// mirror provider has no interactive flow.
func NewService(repo store.Repository, m mirror.Mirror, auth mirror.Authenticator, events eventstream.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		mirror: m,
		auth:   auth,
		events: events,
		logger: logger,
	}
}

// CreateWorkspace creates a workspace with a seeded revision ledger.
func (s *Service) CreateWorkspace(ctx context.Context, name, docPersonalID string, teamMap map[string]string) (*store.Workspace, error) {
	return s.repo.CreateWorkspace(ctx, name, docPersonalID, teamMap)
}

// GetWorkspace retrieves a workspace by id.
func (s *Service) GetWorkspace(ctx context.Context, id string) (*store.Workspace, error) {
	return s.repo.GetWorkspace(ctx, id)
}

// ListWorkspaces returns all workspaces.
func (s *Service) ListWorkspaces(ctx context.Context) ([]*store.Workspace, error) {
	return s.repo.ListWorkspaces(ctx)
}

// CurrentRevision returns the ledger's current revision for a workspace.
func (s *Service) CurrentRevision(ctx context.Context, workspaceID string) (string, error) {
	return s.repo.CurrentRevision(ctx, workspaceID)
}

// CreateToken issues a workspace-scoped API token.
func (s *Service) CreateToken(ctx context.Context, workspaceID string, scopes []string) (*store.Token, error) {
	if _, err := s.repo.GetWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}

	return s.repo.CreateToken(ctx, workspaceID, scopes, time.Now().UTC().Add(tokenTTL))
}

// CreateSession appends a session to a partition. The revision check and the
// commit happen atomically in the store; a stale base revision produces a
// StatusConflict result, not an error, and changes nothing.
func (s *Service) CreateSession(ctx context.Context, req WriteRequest) (*WriteResult, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent{}
	}

	ws, err := s.repo.GetWorkspace(ctx, req.WorkspaceID)
	if err != nil {
		return nil, err
	}

	docID, err := resolveDoc(ws, req.Scope, req.TeamKey)
	if err != nil {
		return nil, err
	}

	previous, err := s.repo.CurrentRevision(ctx, req.WorkspaceID)
	if err != nil {
		return nil, err
	}

	session := &store.Session{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Scope:       req.Scope,
		TeamKey:     req.TeamKey,
		Revision:    uuid.NewString(),
		Content:     req.Content,
		Categories:  DeriveCategories(req.Content),
		LastUpdated: time.Now().UTC(),
	}

	if err := s.repo.AppendSession(ctx, session, req.BaseRevision); err != nil {
		var conflict store.ErrRevisionConflict
		if errors.As(err, &conflict) {
			s.logger.Info("session rejected on stale revision",
				zap.String("workspace_id", req.WorkspaceID),
				zap.String("expected", conflict.Expected),
				zap.String("provided", conflict.Provided),
			)
			return &WriteResult{
				Status: StatusConflict,
				Conflict: &Conflict{
					ExpectedRevision: conflict.Expected,
					ProvidedRevision: conflict.Provided,
				},
			}, nil
		}
		return nil, err
	}

	result := &WriteResult{
		Status:      StatusOK,
		SessionID:   session.ID,
		Revision:    session.Revision,
		Categories:  session.Categories,
		LastUpdated: session.LastUpdated,
	}

	syncState, meta := s.replicate(ctx, req.WorkspaceID, docID, session)
	result.SyncState = syncState
	result.DocURL = meta.URL
	// A synced response carries the remote document's last-modified time,
	// which the provider stamps after the append lands.
	if syncState == SyncStateSynced && !meta.LastUpdated.IsZero() {
		result.LastUpdated = meta.LastUpdated
	}

	s.publish(ctx, req, session, previous, result)

	return result, nil
}

// LatestSession returns the newest session in a partition merged with remote
// document metadata. Remote failures degrade the result to the local record.
func (s *Service) LatestSession(ctx context.Context, req ReadRequest) (*ReadResult, error) {
	ws, err := s.repo.GetWorkspace(ctx, req.WorkspaceID)
	if err != nil {
		return nil, err
	}

	docID, err := resolveDoc(ws, req.Scope, req.TeamKey)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.LatestSession(ctx, req.WorkspaceID, req.Scope, req.TeamKey, req.Category)
	if err != nil {
		return nil, err
	}

	result := &ReadResult{
		SessionID:   session.ID,
		Revision:    session.Revision,
		Content:     session.Content,
		Categories:  session.Categories,
		LastUpdated: session.LastUpdated,
		Source:      SourceLocal,
	}

	if docID == "" {
		return result, nil
	}

	credential, err := s.repo.Credential(ctx, req.WorkspaceID)
	if err != nil {
		if !errors.As(err, &store.ErrCredentialNotFound{}) {
			s.logger.Warn("credential lookup failed, serving local record",
				zap.String("workspace_id", req.WorkspaceID), zap.Error(err))
		}
		return result, nil
	}

	info, err := s.mirror.Info(ctx, credential, docID)
	if err != nil {
		s.logger.Warn("remote metadata fetch failed, serving local record",
			zap.String("workspace_id", req.WorkspaceID),
			zap.String("doc_id", docID),
			zap.Error(err),
		)
		return result, nil
	}

	s.persistRefreshed(ctx, req.WorkspaceID, info.RefreshedCredential)

	result.Source = SourceMerged
	result.DocName = info.Meta.Name
	result.DocURL = info.Meta.URL
	result.DocLastUpdated = info.Meta.LastUpdated
	// The merged view prefers the remote document's last-modified time; the
	// local timestamp stands in only when the provider reports none.
	if !info.Meta.LastUpdated.IsZero() {
		result.LastUpdated = info.Meta.LastUpdated
	}

	return result, nil
}

// ListSessions returns recent sessions for a workspace, newest first.
func (s *Service) ListSessions(ctx context.Context, workspaceID string, limit int) ([]*store.Session, error) {
	return s.repo.ListSessions(ctx, workspaceID, limit)
}

// AuthURL returns the mirror provider's consent URL for a workspace.
func (s *Service) AuthURL(ctx context.Context, workspaceID string) (string, error) {
	if s.auth == nil {
		return "", ErrAuthUnavailable{}
	}
	if _, err := s.repo.GetWorkspace(ctx, workspaceID); err != nil {
		return "", err
	}

	return s.auth.AuthURL(workspaceID), nil
}

// CompleteAuth exchanges an authorization code and stores the resulting
// credential for the workspace.
func (s *Service) CompleteAuth(ctx context.Context, workspaceID, code string) error {
	if s.auth == nil {
		return ErrAuthUnavailable{}
	}

	credential, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return err
	}

	if err := s.repo.SaveCredential(ctx, workspaceID, credential); err != nil {
		return err
	}

	s.logger.Info("mirror credential stored", zap.String("workspace_id", workspaceID))

	return nil
}

// replicate performs the best-effort mirror write for an accepted session.
// It returns the resulting sync state and, when synced, the remote document
// metadata.
func (s *Service) replicate(ctx context.Context, workspaceID, docID string, session *store.Session) (SyncState, mirror.Meta) {
	if docID == "" {
		return SyncStateLocalOnly, mirror.Meta{}
	}

	// A missing credential is passed through as nil so the provider can
	// decide whether that means "disabled" or "needs reauthentication".
	credential, err := s.repo.Credential(ctx, workspaceID)
	if err != nil && !errors.As(err, &store.ErrCredentialNotFound{}) {
		s.logger.Warn("credential lookup failed",
			zap.String("workspace_id", workspaceID), zap.Error(err))
		return SyncStateLocalOnly, mirror.Meta{}
	}

	result, err := s.mirror.Append(ctx, credential, docID, mirror.Entry{
		Revision:   session.Revision,
		Content:    session.Content,
		Categories: session.Categories,
		Timestamp:  session.LastUpdated,
	})
	if err != nil {
		if errors.As(err, &mirror.ErrDisabled{}) {
			return SyncStateLocalOnly, mirror.Meta{}
		}
		if errors.As(err, &mirror.ErrReauthRequired{}) {
			s.logger.Warn("mirror requires reauthentication",
				zap.String("workspace_id", workspaceID), zap.Error(err))
			return SyncStateReauthRequired, mirror.Meta{}
		}
		s.logger.Warn("mirror write failed, session is local-only",
			zap.String("workspace_id", workspaceID),
			zap.String("doc_id", docID),
			zap.Error(err),
		)
		return SyncStateLocalOnly, mirror.Meta{}
	}

	s.persistRefreshed(ctx, workspaceID, result.RefreshedCredential)

	return SyncStateSynced, result.Meta
}

// persistRefreshed stores a rotated mirror credential. A persistence failure
// is logged but not surfaced: the current call already succeeded with the
// fresh credential.
func (s *Service) persistRefreshed(ctx context.Context, workspaceID string, credential []byte) {
	if credential == nil {
		return
	}

	if err := s.repo.SaveCredential(ctx, workspaceID, credential); err != nil {
		s.logger.Warn("failed to persist refreshed credential",
			zap.String("workspace_id", workspaceID), zap.Error(err))
		return
	}

	s.logger.Debug("persisted refreshed mirror credential",
		zap.String("workspace_id", workspaceID))
}

// publish emits the session-accepted event. Publish failures are logged and
// otherwise ignored.
func (s *Service) publish(ctx context.Context, req WriteRequest, session *store.Session, previous string, result *WriteResult) {
	if s.events == nil {
		return
	}

	event := &eventstream.SessionAcceptedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSessionAccepted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			WorkspaceID: req.WorkspaceID,
			Scope:       req.Scope,
			TeamKey:     req.TeamKey,
		},
		Session: eventstream.SessionMeta{
			SessionID:   session.ID,
			Categories:  session.Categories,
			ContentSize: len(session.Content),
			LastUpdated: session.LastUpdated,
		},
		Revision: eventstream.RevisionMeta{
			Previous: previous,
			Current:  session.Revision,
		},
		Mirror: &eventstream.MirrorStatus{
			SyncState: string(result.SyncState),
			DocURL:    result.DocURL,
		},
	}

	if err := s.events.PublishSession(ctx, event); err != nil {
		s.logger.Warn("failed to publish session event",
			zap.String("session_id", session.ID), zap.Error(err))
	}
}

// resolveDoc maps a scope and team key to the workspace's remote document id.
// An empty doc id means the partition has no remote document.
func resolveDoc(ws *store.Workspace, scope, teamKey string) (string, error) {
	switch scope {
	case ScopePersonal:
		return ws.DocPersonalID, nil
	case ScopeTeam:
		docID, ok := ws.TeamMap[teamKey]
		if !ok {
			return "", ErrUnknownTeam{TeamKey: teamKey}
		}
		return docID, nil
	default:
		return "", ErrInvalidScope{Scope: scope}
	}
}
