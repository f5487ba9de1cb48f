// Package superthread provides a Superthread-backed storage port. Records are
// documents in a Superthread workspace; delete removes documents through the
// vendor API, which moves them to the vendor trash.
package superthread

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memhub/pkg/storage"
)

const defaultBaseURL = "https://api.superthread.com/v1"

// Config holds Superthread connection settings. BaseURL exists so tests can
// point the port at a local HTTP server.
type Config struct {
	APIKey      string
	WorkspaceID string
	BaseURL     string
	HTTPClient  *http.Client
}

// Port implements storage.Port against the Superthread REST API.
type Port struct {
	apiKey      string
	workspaceID string
	baseURL     string
	httpClient  *http.Client
}

// NewPort creates a new Superthread-backed storage port.
func NewPort(cfg Config) (*Port, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("superthread api key is required")
	}
	if cfg.WorkspaceID == "" {
		return nil, fmt.Errorf("superthread workspace id is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Port{
		apiKey:      cfg.APIKey,
		workspaceID: cfg.WorkspaceID,
		baseURL:     baseURL,
		httpClient:  httpClient,
	}, nil
}

// document is a Superthread workspace document.
type document struct {
	ID        string `json:"id"`
	Workspace string `json:"workspace_id"`
	Scope     string `json:"scope"`
	TeamKey   string `json:"team_key,omitempty"`
	Category  string `json:"category,omitempty"`
	Content   string `json:"content"`
	Revision  string `json:"revision,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (d document) createdAt() time.Time {
	created, _ := time.Parse(time.RFC3339, d.CreatedAt)
	return created
}

// Save creates a workspace document. API failures are normalized into the result.
func (p *Port) Save(ctx context.Context, req storage.SaveRequest) (*storage.SaveResult, error) {
	doc := document{
		Workspace: req.Workspace,
		Scope:     req.Scope,
		TeamKey:   req.TeamKey,
		Category:  req.Category,
		Content:   req.Content,
		Revision:  uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	var created struct {
		ID         string `json:"id"`
		DocumentID string `json:"document_id"`
	}
	err := p.do(ctx, http.MethodPost, p.documentsPath(), nil, doc, &created)
	if err != nil {
		return &storage.SaveResult{Accepted: false, Error: err.Error()}, nil
	}

	recordID := created.ID
	if recordID == "" {
		recordID = created.DocumentID
	}

	return &storage.SaveResult{Accepted: true, RecordID: recordID, NewRevision: doc.Revision}, nil
}

// Get returns the newest document in the partition.
func (p *Port) Get(ctx context.Context, workspace, scope, teamKey, category string) (*storage.GetResult, error) {
	docs, err := p.query(ctx, workspace, scope, teamKey, 10)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if category != "" && !strings.EqualFold(doc.Category, category) {
			continue
		}
		return &storage.GetResult{
			Found:   true,
			Content: doc.Content,
			Metadata: storage.Metadata{
				RecordID:  doc.ID,
				Revision:  doc.Revision,
				Category:  doc.Category,
				CreatedAt: doc.createdAt(),
			},
		}, nil
	}

	return &storage.GetResult{Found: false}, nil
}

// List returns up to limit document summaries, newest first.
func (p *Port) List(ctx context.Context, scope, teamKey string, limit int) ([]storage.Summary, error) {
	if limit <= 0 {
		limit = 10
	}

	docs, err := p.query(ctx, "", scope, teamKey, limit)
	if err != nil {
		return nil, err
	}

	var result []storage.Summary
	for _, doc := range docs {
		result = append(result, storage.Summary{
			RecordID:  doc.ID,
			Workspace: doc.Workspace,
			Scope:     doc.Scope,
			TeamKey:   doc.TeamKey,
			Category:  doc.Category,
			Preview:   storage.Preview(doc.Content),
			CreatedAt: doc.createdAt(),
		})
	}

	return result, nil
}

// Delete removes all documents in the partition via the vendor API.
func (p *Port) Delete(ctx context.Context, workspace, scope, teamKey string) (*storage.DeleteResult, error) {
	docs, err := p.query(ctx, workspace, scope, teamKey, 100)
	if err != nil {
		return nil, err
	}

	deleted := 0
	for _, doc := range docs {
		path := p.documentsPath() + "/" + doc.ID
		if err := p.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
			return nil, fmt.Errorf("failed to delete document %s: %w", doc.ID, err)
		}
		deleted++
	}

	return &storage.DeleteResult{DeletedCount: deleted}, nil
}

// Info describes the back end.
func (p *Port) Info(_ context.Context) (*storage.Info, error) {
	return &storage.Info{
		Backend:      "superthread",
		Capabilities: []string{"save", "get", "list", "delete"},
		Limits: map[string]string{
			"delete": "vendor trash",
		},
	}, nil
}

// Close is a no-op; the port holds no persistent connection.
func (p *Port) Close() error {
	return nil
}

func (p *Port) documentsPath() string {
	return fmt.Sprintf("/workspaces/%s/documents", p.workspaceID)
}

func (p *Port) query(ctx context.Context, workspace, scope, teamKey string, limit int) ([]document, error) {
	params := url.Values{}
	params.Set("scope", scope)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "created_at:desc")
	if workspace != "" {
		params.Set("workspace_id", workspace)
	}
	if teamKey != "" {
		params.Set("team_key", teamKey)
	}

	var docs []document
	if err := p.do(ctx, http.MethodGet, p.documentsPath(), params, nil, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (p *Port) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	endpoint := p.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("superthread request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("superthread returned %d: %s", resp.StatusCode, string(payload))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
