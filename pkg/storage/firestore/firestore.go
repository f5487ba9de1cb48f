// Package firestore provides a Google Cloud Firestore-backed storage port.
package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/papercomputeco/memhub/pkg/storage"
)

const defaultCollection = "memories"

// Port implements storage.Port on a Firestore collection.
type Port struct {
	client     *firestore.Client
	collection string
}

type document struct {
	Workspace  string    `firestore:"workspace"`
	Scope      string    `firestore:"scope"`
	TeamKey    string    `firestore:"team_key,omitempty"`
	Category   string    `firestore:"category,omitempty"`
	CategoryLC string    `firestore:"category_lc,omitempty"`
	Content    string    `firestore:"content"`
	Revision   string    `firestore:"revision"`
	CreatedAt  time.Time `firestore:"created_at"`
}

// NewPort connects to Firestore for the given project. An empty collection
// selects the default.
func NewPort(ctx context.Context, projectID, collection string) (*Port, error) {
	if collection == "" {
		collection = defaultCollection
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Port{client: client, collection: collection}, nil
}

// Save stores one record. Write failures are normalized into the result.
func (p *Port) Save(ctx context.Context, req storage.SaveRequest) (*storage.SaveResult, error) {
	id := uuid.NewString()
	doc := document{
		Workspace:  req.Workspace,
		Scope:      req.Scope,
		TeamKey:    req.TeamKey,
		Category:   req.Category,
		CategoryLC: strings.ToLower(req.Category),
		Content:    req.Content,
		Revision:   uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := p.client.Collection(p.collection).Doc(id).Set(ctx, doc); err != nil {
		return &storage.SaveResult{Accepted: false, Error: err.Error()}, nil
	}

	return &storage.SaveResult{Accepted: true, RecordID: id, NewRevision: doc.Revision}, nil
}

// Get returns the newest record in the partition. Category matching uses the
// lowercased shadow field since Firestore has no case-insensitive queries.
func (p *Port) Get(ctx context.Context, workspace, scope, teamKey, category string) (*storage.GetResult, error) {
	query := p.client.Collection(p.collection).
		Where("workspace", "==", workspace).
		Where("scope", "==", scope)

	if teamKey != "" {
		query = query.Where("team_key", "==", teamKey)
	}
	if category != "" {
		query = query.Where("category_lc", "==", strings.ToLower(category))
	}

	iter := query.OrderBy("created_at", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return &storage.GetResult{Found: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}

	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	return &storage.GetResult{
		Found:   true,
		Content: doc.Content,
		Metadata: storage.Metadata{
			RecordID:  snap.Ref.ID,
			Revision:  doc.Revision,
			Category:  doc.Category,
			CreatedAt: doc.CreatedAt,
		},
	}, nil
}

// List returns up to limit record summaries, newest first.
func (p *Port) List(ctx context.Context, scope, teamKey string, limit int) ([]storage.Summary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := p.client.Collection(p.collection).Where("scope", "==", scope)
	if teamKey != "" {
		query = query.Where("team_key", "==", teamKey)
	}

	iter := query.OrderBy("created_at", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var result []storage.Summary
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate records: %w", err)
		}

		var doc document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}

		result = append(result, storage.Summary{
			RecordID:  snap.Ref.ID,
			Workspace: doc.Workspace,
			Scope:     doc.Scope,
			TeamKey:   doc.TeamKey,
			Category:  doc.Category,
			Preview:   storage.Preview(doc.Content),
			CreatedAt: doc.CreatedAt,
		})
	}

	return result, nil
}

// Delete hard-deletes all records in the partition.
func (p *Port) Delete(ctx context.Context, workspace, scope, teamKey string) (*storage.DeleteResult, error) {
	query := p.client.Collection(p.collection).
		Where("workspace", "==", workspace).
		Where("scope", "==", scope)

	if teamKey != "" {
		query = query.Where("team_key", "==", teamKey)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	deleted := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate records: %w", err)
		}

		if _, err := snap.Ref.Delete(ctx); err != nil {
			return nil, fmt.Errorf("failed to delete record %s: %w", snap.Ref.ID, err)
		}
		deleted++
	}

	return &storage.DeleteResult{DeletedCount: deleted}, nil
}

// Info describes the back end.
func (p *Port) Info(_ context.Context) (*storage.Info, error) {
	return &storage.Info{
		Backend:      "firestore",
		Capabilities: []string{"save", "get", "list", "delete"},
		Limits:       map[string]string{"delete": "hard delete, per-document"},
	}, nil
}

// Close closes the client.
func (p *Port) Close() error {
	return p.client.Close()
}
