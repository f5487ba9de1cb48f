// Package postgres provides a PostgreSQL-backed repository for deployments
// that need a shared authoritative store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/papercomputeco/memhub/pkg/store"
)

// Repository implements store.Repository using PostgreSQL via pgx's
// database/sql driver.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new PostgreSQL-backed repository from a DSN.
func NewRepository(dsn string) (*Repository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &Repository{db: db}

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return r, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		doc_personal_id TEXT,
		team_map JSONB NOT NULL DEFAULT '{}',
		categories JSONB NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		workspace_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		team_key TEXT,
		revision_id TEXT NOT NULL,
		content TEXT NOT NULL,
		categories JSONB NOT NULL DEFAULT '[]',
		last_updated TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_partition
		ON sessions(workspace_id, scope, team_key);

	CREATE TABLE IF NOT EXISTS revisions (
		workspace_id TEXT PRIMARY KEY,
		revision_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		scopes JSONB NOT NULL DEFAULT '[]',
		expires_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS credentials (
		workspace_id TEXT PRIMARY KEY,
		credential BYTEA NOT NULL
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// CreateWorkspace creates a workspace and seeds its ledger entry.
func (r *Repository) CreateWorkspace(ctx context.Context, name, docPersonalID string, teamMap map[string]string) (*store.Workspace, error) {
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

	teamJSON, err := json.Marshal(ws.TeamMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal team map: %w", err)
	}
	catJSON, err := json.Marshal(ws.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, doc_personal_id, team_map, categories) VALUES ($1, $2, $3, $4, $5)`,
		ws.ID, ws.Name, ws.DocPersonalID, teamJSON, catJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert workspace: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO revisions (workspace_id, revision_id) VALUES ($1, $2)
		 ON CONFLICT (workspace_id) DO UPDATE SET revision_id = EXCLUDED.revision_id`,
		ws.ID, store.RevisionInit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit workspace: %w", err)
	}

	return ws, nil
}

// GetWorkspace retrieves a workspace by id.
func (r *Repository) GetWorkspace(ctx context.Context, id string) (*store.Workspace, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, doc_personal_id, team_map, categories FROM workspaces WHERE id = $1`, id)

	ws, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrWorkspaceNotFound{ID: id}
	}
	if err != nil {
		return nil, err
	}

	return ws, nil
}

// ListWorkspaces returns all workspaces.
func (r *Repository) ListWorkspaces(ctx context.Context) ([]*store.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, doc_personal_id, team_map, categories FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer rows.Close()

	var result []*store.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ws)
	}

	return result, rows.Err()
}

// CurrentRevision returns the ledger's current revision for a workspace.
func (r *Repository) CurrentRevision(ctx context.Context, workspaceID string) (string, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT revision_id FROM revisions WHERE workspace_id = $1`, workspaceID)

	var revision string
	err := row.Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RevisionInit, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan revision: %w", err)
	}

	return revision, nil
}

// AppendSession atomically checks the expected revision, inserts the session,
// and advances the ledger. The ledger row is locked for the duration of the
// transaction so racing writers serialize on the comparison.
func (r *Repository) AppendSession(ctx context.Context, session *store.Session, expectedRevision string) error {
	if session == nil {
		return errors.New("cannot append nil session")
	}

	catJSON, err := json.Marshal(session.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current := store.RevisionInit
	row := tx.QueryRowContext(ctx,
		`SELECT revision_id FROM revisions WHERE workspace_id = $1 FOR UPDATE`, session.WorkspaceID)
	if err := row.Scan(&current); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	if expectedRevision != "" && expectedRevision != current {
		return store.ErrRevisionConflict{Expected: current, Provided: expectedRevision}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, workspace_id, scope, team_key, revision_id, content, categories, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.WorkspaceID, session.Scope, session.TeamKey,
		session.Revision, session.Content, catJSON, session.LastUpdated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO revisions (workspace_id, revision_id) VALUES ($1, $2)
		 ON CONFLICT (workspace_id) DO UPDATE SET revision_id = EXCLUDED.revision_id`,
		session.WorkspaceID, session.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to advance ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	return nil
}

// LatestSession returns the most recent session in the partition, optionally
// filtered to the most recent session carrying the given category.
func (r *Repository) LatestSession(ctx context.Context, workspaceID, scope, teamKey, category string) (*store.Session, error) {
	query := `SELECT id, workspace_id, scope, team_key, revision_id, content, categories, last_updated
		FROM sessions WHERE workspace_id = $1 AND scope = $2`
	args := []any{workspaceID, scope}

	if teamKey != "" {
		query += ` AND team_key = $3`
		args = append(args, teamKey)
	}
	query += ` ORDER BY last_updated DESC, seq DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		if category == "" || hasCategory(session.Categories, category) {
			return session, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nil, store.ErrSessionNotFound{WorkspaceID: workspaceID}
}

// ListSessions returns up to limit sessions for a workspace, newest first.
func (r *Repository) ListSessions(ctx context.Context, workspaceID string, limit int) ([]*store.Session, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, scope, team_key, revision_id, content, categories, last_updated
		 FROM sessions WHERE workspace_id = $1
		 ORDER BY last_updated DESC, seq DESC LIMIT $2`,
		workspaceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var result []*store.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, session)
	}

	return result, rows.Err()
}

// CreateToken issues a new API token for a workspace.
func (r *Repository) CreateToken(ctx context.Context, workspaceID string, scopes []string, expiresAt time.Time) (*store.Token, error) {
	if scopes == nil {
		scopes = []string{}
	}

	token := &store.Token{
		Token:       uuid.New().String(),
		WorkspaceID: workspaceID,
		Scopes:      scopes,
		ExpiresAt:   expiresAt.UTC(),
	}

	scopesJSON, err := json.Marshal(token.Scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scopes: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tokens (token, workspace_id, scopes, expires_at) VALUES ($1, $2, $3, $4)`,
		token.Token, token.WorkspaceID, scopesJSON, token.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	return token, nil
}

// Credential returns the stored mirror credential blob for a workspace.
func (r *Repository) Credential(ctx context.Context, workspaceID string) ([]byte, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT credential FROM credentials WHERE workspace_id = $1`, workspaceID)

	var credential []byte
	err := row.Scan(&credential)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCredentialNotFound{WorkspaceID: workspaceID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	return credential, nil
}

// SaveCredential stores or replaces the mirror credential blob for a workspace.
func (r *Repository) SaveCredential(ctx context.Context, workspaceID string, credential []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (workspace_id, credential) VALUES ($1, $2)
		 ON CONFLICT (workspace_id) DO UPDATE SET credential = EXCLUDED.credential`,
		workspaceID, credential,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(s scanner) (*store.Workspace, error) {
	var ws store.Workspace
	var docID sql.NullString
	var teamJSON, catJSON []byte

	if err := s.Scan(&ws.ID, &ws.Name, &docID, &teamJSON, &catJSON); err != nil {
		return nil, err
	}

	ws.DocPersonalID = docID.String
	if err := json.Unmarshal(teamJSON, &ws.TeamMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team map: %w", err)
	}
	if err := json.Unmarshal(catJSON, &ws.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}

	return &ws, nil
}

func scanSession(s scanner) (*store.Session, error) {
	var session store.Session
	var teamKey sql.NullString
	var catJSON []byte

	err := s.Scan(&session.ID, &session.WorkspaceID, &session.Scope, &teamKey,
		&session.Revision, &session.Content, &catJSON, &session.LastUpdated)
	if err != nil {
		return nil, err
	}

	session.TeamKey = teamKey.String
	if err := json.Unmarshal(catJSON, &session.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}

	return &session, nil
}

func hasCategory(categories []string, want string) bool {
	for _, c := range categories {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}
