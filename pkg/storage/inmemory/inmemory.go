// Package inmemory provides an in-memory storage port, primarily for tests.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memhub/pkg/storage"
)

// Port implements storage.Port with in-memory slices.
type Port struct {
	mu      sync.Mutex
	records []storage.Record
	seq     int64
	order   map[string]int64
}

// NewPort creates a new in-memory storage port.
func NewPort() *Port {
	return &Port{order: make(map[string]int64)}
}

// Save stores one record.
func (p *Port) Save(_ context.Context, req storage.SaveRequest) (*storage.SaveResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	record := storage.Record{
		ID:        uuid.NewString(),
		Workspace: req.Workspace,
		Scope:     req.Scope,
		TeamKey:   req.TeamKey,
		Category:  req.Category,
		Content:   req.Content,
		Revision:  uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	p.seq++
	p.order[record.ID] = p.seq
	p.records = append(p.records, record)

	return &storage.SaveResult{
		Accepted:    true,
		RecordID:    record.ID,
		NewRevision: record.Revision,
	}, nil
}

// Get returns the newest record in the partition.
func (p *Port) Get(_ context.Context, workspace, scope, teamKey, category string) (*storage.GetResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, record := range p.sorted() {
		if record.Workspace != workspace || record.Scope != scope {
			continue
		}
		if teamKey != "" && record.TeamKey != teamKey {
			continue
		}
		if category != "" && !strings.EqualFold(record.Category, category) {
			continue
		}
		return &storage.GetResult{
			Found:   true,
			Content: record.Content,
			Metadata: storage.Metadata{
				RecordID:  record.ID,
				Revision:  record.Revision,
				Category:  record.Category,
				CreatedAt: record.CreatedAt,
			},
		}, nil
	}

	return &storage.GetResult{Found: false}, nil
}

// List returns up to limit record summaries, newest first.
func (p *Port) List(_ context.Context, scope, teamKey string, limit int) ([]storage.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	var result []storage.Summary
	for _, record := range p.sorted() {
		if record.Scope != scope {
			continue
		}
		if teamKey != "" && record.TeamKey != teamKey {
			continue
		}
		result = append(result, storage.Summary{
			RecordID:  record.ID,
			Workspace: record.Workspace,
			Scope:     record.Scope,
			TeamKey:   record.TeamKey,
			Category:  record.Category,
			Preview:   storage.Preview(record.Content),
			CreatedAt: record.CreatedAt,
		})
		if len(result) == limit {
			break
		}
	}

	return result, nil
}

// Delete removes all records in the partition.
func (p *Port) Delete(_ context.Context, workspace, scope, teamKey string) (*storage.DeleteResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.records[:0]
	deleted := 0
	for _, record := range p.records {
		match := record.Workspace == workspace && record.Scope == scope &&
			(teamKey == "" || record.TeamKey == teamKey)
		if match {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	p.records = kept

	return &storage.DeleteResult{DeletedCount: deleted}, nil
}

// Info describes the back end.
func (p *Port) Info(_ context.Context) (*storage.Info, error) {
	return &storage.Info{
		Backend:      "inmemory",
		Capabilities: []string{"save", "get", "list", "delete"},
		Limits:       map[string]string{"durability": "process lifetime"},
	}, nil
}

// Close is a no-op.
func (p *Port) Close() error {
	return nil
}

// sorted returns records newest first, insertion order breaking ties.
// Callers must hold the lock.
func (p *Port) sorted() []storage.Record {
	result := make([]storage.Record, len(p.records))
	copy(result, p.records)

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return p.order[result[i].ID] > p.order[result[j].ID]
	})

	return result
}
