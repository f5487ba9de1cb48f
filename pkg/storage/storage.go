// Package storage defines the uniform memory port: one capability set over
// interchangeable back ends.
//
// The port is constructed once at process startup and shared for the process
// lifetime. Back ends legitimately diverge on delete semantics (hard delete
// vs. archive); callers may rely only on the reported deleted count.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/memhub/pkg/utils"
)

// Record is one stored memory.
type Record struct {
	ID        string    `json:"id"`
	Workspace string    `json:"workspace"`
	Scope     string    `json:"scope"`
	TeamKey   string    `json:"team_key,omitempty"`
	Category  string    `json:"category,omitempty"`
	Content   string    `json:"content"`
	Revision  string    `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveRequest is a request to store one memory.
type SaveRequest struct {
	Workspace string
	Content   string
	Scope     string
	TeamKey   string
	Category  string
}

// SaveResult is the normalized outcome of a save. Backend failures surface as
// Accepted=false with a description, not as a raised error.
type SaveResult struct {
	Accepted    bool   `json:"accepted"`
	RecordID    string `json:"record_id,omitempty"`
	NewRevision string `json:"new_revision,omitempty"`
	Error       string `json:"error,omitempty"`
}

// GetResult is the outcome of a point read. Found=false is a normal outcome,
// not an error, including the category-filter miss.
type GetResult struct {
	Found    bool     `json:"found"`
	Content  string   `json:"content,omitempty"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Metadata describes a returned record.
type Metadata struct {
	RecordID  string    `json:"record_id"`
	Revision  string    `json:"revision"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is one entry in a list result.
type Summary struct {
	RecordID  string    `json:"record_id"`
	Workspace string    `json:"workspace"`
	Scope     string    `json:"scope"`
	TeamKey   string    `json:"team_key,omitempty"`
	Category  string    `json:"category,omitempty"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteResult reports how many records the back end removed or archived.
type DeleteResult struct {
	DeletedCount int `json:"deleted_count"`
}

// Info is a free-form capability descriptor used for diagnostics.
type Info struct {
	Backend      string            `json:"backend"`
	Capabilities []string          `json:"capabilities"`
	Limits       map[string]string `json:"limits,omitempty"`
}

// Port is the uniform storage contract. The core depends only on these five
// operations; vendor-specific extensions stay out of this interface.
type Port interface {
	Save(ctx context.Context, req SaveRequest) (*SaveResult, error)
	Get(ctx context.Context, workspace, scope, teamKey, category string) (*GetResult, error)
	List(ctx context.Context, scope, teamKey string, limit int) ([]Summary, error)
	Delete(ctx context.Context, workspace, scope, teamKey string) (*DeleteResult, error)
	Info(ctx context.Context) (*Info, error)
	Close() error
}

// previewLen bounds the content excerpt carried in list summaries.
const previewLen = 120

// Preview returns a list-friendly excerpt of content.
func Preview(content string) string {
	return utils.Truncate(content, previewLen)
}
