// Package sqlite provides a SQLite-backed storage port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/memhub/pkg/storage"
)

// Port implements storage.Port on SQLite via database/sql.
type Port struct {
	db *sql.DB
}

// NewPort creates a new SQLite-backed storage port.
func NewPort(dbPath string) (*Port, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	p := &Port{db: db}

	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return p, nil
}

func (p *Port) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		workspace TEXT NOT NULL,
		scope TEXT NOT NULL,
		team_key TEXT,
		category TEXT,
		content TEXT NOT NULL,
		revision TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memories_partition
		ON memories(workspace, scope, team_key);
	`

	_, err := p.db.Exec(schema)
	return err
}

// Save stores one record.
func (p *Port) Save(ctx context.Context, req storage.SaveRequest) (*storage.SaveResult, error) {
	id := uuid.NewString()
	revision := uuid.NewString()

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO memories (id, workspace, scope, team_key, category, content, revision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.Workspace, req.Scope, req.TeamKey, req.Category, req.Content,
		revision, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &storage.SaveResult{Accepted: false, Error: err.Error()}, nil
	}

	return &storage.SaveResult{Accepted: true, RecordID: id, NewRevision: revision}, nil
}

// Get returns the newest record in the partition.
func (p *Port) Get(ctx context.Context, workspace, scope, teamKey, category string) (*storage.GetResult, error) {
	query := `SELECT id, content, revision, category, created_at FROM memories
		WHERE workspace = ? AND scope = ?`
	args := []any{workspace, scope}

	if teamKey != "" {
		query += ` AND team_key = ?`
		args = append(args, teamKey)
	}
	if category != "" {
		query += ` AND category = ? COLLATE NOCASE`
		args = append(args, category)
	}
	query += ` ORDER BY datetime(created_at) DESC, rowid DESC LIMIT 1`

	row := p.db.QueryRowContext(ctx, query, args...)

	var id, content, revision, createdAt string
	var cat sql.NullString
	err := row.Scan(&id, &content, &revision, &cat, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &storage.GetResult{Found: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &storage.GetResult{
		Found:   true,
		Content: content,
		Metadata: storage.Metadata{
			RecordID:  id,
			Revision:  revision,
			Category:  cat.String,
			CreatedAt: created,
		},
	}, nil
}

// List returns up to limit record summaries, newest first.
func (p *Port) List(ctx context.Context, scope, teamKey string, limit int) ([]storage.Summary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT id, workspace, scope, team_key, category, content, created_at
		FROM memories WHERE scope = ?`
	args := []any{scope}

	if teamKey != "" {
		query += ` AND team_key = ?`
		args = append(args, teamKey)
	}
	query += ` ORDER BY datetime(created_at) DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var result []storage.Summary
	for rows.Next() {
		var id, workspace, recScope, content, createdAt string
		var team, cat sql.NullString
		if err := rows.Scan(&id, &workspace, &recScope, &team, &cat, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		created, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		result = append(result, storage.Summary{
			RecordID:  id,
			Workspace: workspace,
			Scope:     recScope,
			TeamKey:   team.String,
			Category:  cat.String,
			Preview:   storage.Preview(content),
			CreatedAt: created,
		})
	}

	return result, rows.Err()
}

// Delete hard-deletes all records in the partition.
func (p *Port) Delete(ctx context.Context, workspace, scope, teamKey string) (*storage.DeleteResult, error) {
	query := `DELETE FROM memories WHERE workspace = ? AND scope = ?`
	args := []any{workspace, scope}

	if teamKey != "" {
		query += ` AND team_key = ?`
		args = append(args, teamKey)
	}

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete records: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to count deleted records: %w", err)
	}

	return &storage.DeleteResult{DeletedCount: int(affected)}, nil
}

// Info describes the back end.
func (p *Port) Info(_ context.Context) (*storage.Info, error) {
	return &storage.Info{
		Backend:      "sqlite",
		Capabilities: []string{"save", "get", "list", "delete"},
		Limits:       map[string]string{"delete": "hard delete"},
	}, nil
}

// Close closes the underlying database.
func (p *Port) Close() error {
	return p.db.Close()
}
