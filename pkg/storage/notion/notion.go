// Package notion provides a Notion-backed storage port. Records are pages in
// a Notion database; delete archives pages rather than destroying them, which
// is this back end's accepted divergence from the hard-deleting adapters.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memhub/pkg/storage"
)

const (
	defaultBaseURL    = "https://api.notion.com"
	defaultAPIVersion = "2022-06-28"
)

// Config holds Notion connection settings. BaseURL exists so tests can point
// the port at a local HTTP server.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
}

// Port implements storage.Port against the Notion REST API.
type Port struct {
	token      string
	databaseID string
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// NewPort creates a new Notion-backed storage port.
func NewPort(cfg Config) (*Port, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &Port{
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: httpClient,
	}, nil
}

// page is the subset of a Notion page the port reads back.
type page struct {
	ID          string `json:"id"`
	CreatedTime string `json:"created_time"`
	Properties  map[string]struct {
		RichText []struct {
			PlainText string `json:"plain_text"`
		} `json:"rich_text"`
	} `json:"properties"`
}

func (p page) prop(name string) string {
	prop, ok := p.Properties[name]
	if !ok || len(prop.RichText) == 0 {
		return ""
	}

	var b strings.Builder
	for _, t := range prop.RichText {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

func (p page) createdAt() time.Time {
	created, _ := time.Parse(time.RFC3339, p.CreatedTime)
	return created
}

func richText(value string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]any{"content": value}},
		},
	}
}

// Save creates a database page. API failures are normalized into the result.
func (p *Port) Save(ctx context.Context, req storage.SaveRequest) (*storage.SaveResult, error) {
	revision := uuid.NewString()

	body := map[string]any{
		"parent": map[string]any{"database_id": p.databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": storage.Preview(req.Content)}},
				},
			},
			"Workspace": richText(req.Workspace),
			"Scope":     richText(req.Scope),
			"TeamKey":   richText(req.TeamKey),
			"Category":  richText(req.Category),
			"Content":   richText(req.Content),
			"Revision":  richText(revision),
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/pages", body, &created); err != nil {
		return &storage.SaveResult{Accepted: false, Error: err.Error()}, nil
	}

	return &storage.SaveResult{Accepted: true, RecordID: created.ID, NewRevision: revision}, nil
}

// Get returns the newest page in the partition.
func (p *Port) Get(ctx context.Context, workspace, scope, teamKey, category string) (*storage.GetResult, error) {
	pages, err := p.query(ctx, queryFilter(workspace, scope, teamKey), 10)
	if err != nil {
		return nil, err
	}

	for _, pg := range pages {
		if category != "" && !strings.EqualFold(pg.prop("Category"), category) {
			continue
		}
		return &storage.GetResult{
			Found:   true,
			Content: pg.prop("Content"),
			Metadata: storage.Metadata{
				RecordID:  pg.ID,
				Revision:  pg.prop("Revision"),
				Category:  pg.prop("Category"),
				CreatedAt: pg.createdAt(),
			},
		}, nil
	}

	return &storage.GetResult{Found: false}, nil
}

// List returns up to limit page summaries, newest first.
func (p *Port) List(ctx context.Context, scope, teamKey string, limit int) ([]storage.Summary, error) {
	if limit <= 0 {
		limit = 10
	}

	pages, err := p.query(ctx, queryFilter("", scope, teamKey), limit)
	if err != nil {
		return nil, err
	}

	var result []storage.Summary
	for _, pg := range pages {
		result = append(result, storage.Summary{
			RecordID:  pg.ID,
			Workspace: pg.prop("Workspace"),
			Scope:     pg.prop("Scope"),
			TeamKey:   pg.prop("TeamKey"),
			Category:  pg.prop("Category"),
			Preview:   storage.Preview(pg.prop("Content")),
			CreatedAt: pg.createdAt(),
		})
	}

	return result, nil
}

// Delete archives all pages in the partition. Archived pages land in the
// Notion trash rather than being destroyed.
func (p *Port) Delete(ctx context.Context, workspace, scope, teamKey string) (*storage.DeleteResult, error) {
	pages, err := p.query(ctx, queryFilter(workspace, scope, teamKey), 100)
	if err != nil {
		return nil, err
	}

	archived := 0
	for _, pg := range pages {
		body := map[string]any{"archived": true}
		if err := p.do(ctx, http.MethodPatch, "/v1/pages/"+pg.ID, body, nil); err != nil {
			return nil, fmt.Errorf("failed to archive page %s: %w", pg.ID, err)
		}
		archived++
	}

	return &storage.DeleteResult{DeletedCount: archived}, nil
}

// Info describes the back end.
func (p *Port) Info(_ context.Context) (*storage.Info, error) {
	return &storage.Info{
		Backend:      "notion",
		Capabilities: []string{"save", "get", "list", "delete"},
		Limits: map[string]string{
			"delete":    "archive only",
			"page_size": "100",
		},
	}, nil
}

// Close is a no-op; the port holds no persistent connection.
func (p *Port) Close() error {
	return nil
}

func (p *Port) query(ctx context.Context, filter map[string]any, limit int) ([]page, error) {
	body := map[string]any{
		"page_size": limit,
		"sorts": []map[string]any{
			{"timestamp": "created_time", "direction": "descending"},
		},
	}
	if filter != nil {
		body["filter"] = filter
	}

	var resp struct {
		Results []page `json:"results"`
	}
	path := fmt.Sprintf("/v1/databases/%s/query", p.databaseID)
	if err := p.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	return resp.Results, nil
}

func (p *Port) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Notion-Version", p.apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notion returned %d: %s", resp.StatusCode, string(payload))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func queryFilter(workspace, scope, teamKey string) map[string]any {
	var conditions []map[string]any

	if workspace != "" {
		conditions = append(conditions, map[string]any{
			"property":  "Workspace",
			"rich_text": map[string]any{"equals": workspace},
		})
	}
	conditions = append(conditions, map[string]any{
		"property":  "Scope",
		"rich_text": map[string]any{"equals": scope},
	})
	if teamKey != "" {
		conditions = append(conditions, map[string]any{
			"property":  "TeamKey",
			"rich_text": map[string]any{"equals": teamKey},
		})
	}

	if len(conditions) == 1 {
		return conditions[0]
	}
	return map[string]any{"and": conditions}
}
