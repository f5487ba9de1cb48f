// Package mongo provides a MongoDB-backed storage port.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/papercomputeco/memhub/pkg/storage"
)

const collectionName = "memories"

// Port implements storage.Port on a MongoDB collection.
type Port struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type document struct {
	ID        string    `bson:"_id"`
	Workspace string    `bson:"workspace"`
	Scope     string    `bson:"scope"`
	TeamKey   string    `bson:"team_key,omitempty"`
	Category  string    `bson:"category,omitempty"`
	Content   string    `bson:"content"`
	Revision  string    `bson:"revision"`
	CreatedAt time.Time `bson:"created_at"`
}

// NewPort connects to MongoDB and binds the memories collection.
func NewPort(ctx context.Context, uri, database string) (*Port, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Port{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
	}, nil
}

// Save stores one record. Insert failures are normalized into the result.
func (p *Port) Save(ctx context.Context, req storage.SaveRequest) (*storage.SaveResult, error) {
	doc := document{
		ID:        uuid.NewString(),
		Workspace: req.Workspace,
		Scope:     req.Scope,
		TeamKey:   req.TeamKey,
		Category:  req.Category,
		Content:   req.Content,
		Revision:  uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	if _, err := p.collection.InsertOne(ctx, doc); err != nil {
		return &storage.SaveResult{Accepted: false, Error: err.Error()}, nil
	}

	return &storage.SaveResult{Accepted: true, RecordID: doc.ID, NewRevision: doc.Revision}, nil
}

// Get returns the newest record in the partition.
func (p *Port) Get(ctx context.Context, workspace, scope, teamKey, category string) (*storage.GetResult, error) {
	filter := partitionFilter(workspace, scope, teamKey)
	if category != "" {
		filter["category"] = primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(category) + "$",
			Options: "i",
		}
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc document
	err := p.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &storage.GetResult{Found: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}

	return &storage.GetResult{
		Found:   true,
		Content: doc.Content,
		Metadata: storage.Metadata{
			RecordID:  doc.ID,
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

	filter := bson.M{"scope": scope}
	if teamKey != "" {
		filter["team_key"] = teamKey
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := p.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var result []storage.Summary
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		result = append(result, storage.Summary{
			RecordID:  doc.ID,
			Workspace: doc.Workspace,
			Scope:     doc.Scope,
			TeamKey:   doc.TeamKey,
			Category:  doc.Category,
			Preview:   storage.Preview(doc.Content),
			CreatedAt: doc.CreatedAt,
		})
	}

	return result, cursor.Err()
}

// Delete hard-deletes all records in the partition.
func (p *Port) Delete(ctx context.Context, workspace, scope, teamKey string) (*storage.DeleteResult, error) {
	result, err := p.collection.DeleteMany(ctx, partitionFilter(workspace, scope, teamKey))
	if err != nil {
		return nil, fmt.Errorf("failed to delete records: %w", err)
	}

	return &storage.DeleteResult{DeletedCount: int(result.DeletedCount)}, nil
}

// Info describes the back end.
func (p *Port) Info(_ context.Context) (*storage.Info, error) {
	return &storage.Info{
		Backend:      "mongo",
		Capabilities: []string{"save", "get", "list", "delete"},
		Limits:       map[string]string{"delete": "hard delete"},
	}, nil
}

// Close disconnects the client.
func (p *Port) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.client.Disconnect(ctx)
}

func partitionFilter(workspace, scope, teamKey string) bson.M {
	filter := bson.M{"workspace": workspace, "scope": scope}
	if teamKey != "" {
		filter["team_key"] = teamKey
	}
	return filter
}
