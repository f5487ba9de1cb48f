// Package gdocs mirrors sessions into Google Docs documents, using the Docs
// API for appends and the Drive API for document metadata.
package gdocs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/papercomputeco/memhub/pkg/mirror"
)

const (
	defaultDocsBaseURL  = "https://docs.googleapis.com/v1"
	defaultDriveBaseURL = "https://www.googleapis.com/drive/v3"
)

var scopes = []string{
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/drive.metadata.readonly",
}

// Config holds OAuth client settings and optional endpoint overrides.
// The base URL overrides exist so tests can point the service at a local
// HTTP server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	DocsBaseURL  string
	DriveBaseURL string
	Endpoint     *oauth2.Endpoint
}

// Service implements mirror.Mirror and mirror.Authenticator against the
// Google Docs and Drive REST APIs.
type Service struct {
	oauth      *oauth2.Config
	docsBase   string
	driveBase  string
	httpClient *http.Client
}

// NewService creates a new Google Docs mirror.
func NewService(cfg Config) *Service {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	docsBase := cfg.DocsBaseURL
	if docsBase == "" {
		docsBase = defaultDocsBaseURL
	}
	driveBase := cfg.DriveBaseURL
	if driveBase == "" {
		driveBase = defaultDriveBaseURL
	}

	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		docsBase:   strings.TrimRight(docsBase, "/"),
		driveBase:  strings.TrimRight(driveBase, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Append writes one formatted entry block to the end of the document.
func (s *Service) Append(ctx context.Context, credential []byte, docID string, entry mirror.Entry) (*mirror.Result, error) {
	token, refreshed, err := s.freshToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"requests": []map[string]any{
			{
				"insertText": map[string]any{
					"endOfSegmentLocation": map[string]any{"segmentId": ""},
					"text":                 formatEntry(entry),
				},
			},
		},
	}

	url := fmt.Sprintf("%s/documents/%s:batchUpdate", s.docsBase, docID)
	if err := s.do(ctx, token, http.MethodPost, url, body, nil); err != nil {
		return nil, err
	}

	meta, err := s.fetchMeta(ctx, token, docID)
	if err != nil {
		return nil, err
	}

	return &mirror.Result{Meta: *meta, RefreshedCredential: refreshed}, nil
}

// Info fetches the document's current metadata.
func (s *Service) Info(ctx context.Context, credential []byte, docID string) (*mirror.Result, error) {
	token, refreshed, err := s.freshToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	meta, err := s.fetchMeta(ctx, token, docID)
	if err != nil {
		return nil, err
	}

	return &mirror.Result{Meta: *meta, RefreshedCredential: refreshed}, nil
}

func (s *Service) fetchMeta(ctx context.Context, token *oauth2.Token, docID string) (*mirror.Meta, error) {
	url := fmt.Sprintf("%s/files/%s?fields=id,name,modifiedTime,webViewLink", s.driveBase, docID)

	var file struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		ModifiedTime string `json:"modifiedTime"`
		WebViewLink  string `json:"webViewLink"`
	}
	if err := s.do(ctx, token, http.MethodGet, url, nil, &file); err != nil {
		return nil, err
	}

	modified, _ := time.Parse(time.RFC3339, file.ModifiedTime)

	return &mirror.Meta{
		DocID:       file.ID,
		URL:         file.WebViewLink,
		Name:        file.Name,
		LastUpdated: modified,
	}, nil
}

// freshToken deserializes the credential and refreshes it if expired.
// The second return value is the re-serialized token when the provider
// rotated it, nil otherwise.
func (s *Service) freshToken(ctx context.Context, credential []byte) (*oauth2.Token, []byte, error) {
	if len(credential) == 0 {
		return nil, nil, mirror.ErrReauthRequired{Reason: "no credential stored"}
	}

	var token oauth2.Token
	if err := json.Unmarshal(credential, &token); err != nil {
		return nil, nil, mirror.ErrReauthRequired{Reason: "stored credential is not a valid token"}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	fresh, err := s.oauth.TokenSource(ctx, &token).Token()
	if err != nil {
		return nil, nil, mirror.ErrReauthRequired{Reason: fmt.Sprintf("token refresh failed: %v", err)}
	}

	if fresh.AccessToken == token.AccessToken {
		return fresh, nil, nil
	}

	serialized, err := json.Marshal(fresh)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize refreshed token: %w", err)
	}

	return fresh, serialized, nil
}

func (s *Service) do(ctx context.Context, token *oauth2.Token, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mirror request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return mirror.ErrReauthRequired{Reason: fmt.Sprintf("provider returned %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mirror request returned %d: %s", resp.StatusCode, string(payload))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// formatEntry renders one session as an appended document block.
func formatEntry(entry mirror.Entry) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(entry.Timestamp.UTC().Format(time.RFC3339))
	if len(entry.Categories) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(entry.Categories, ", "))
		b.WriteString("]")
	}
	b.WriteString(" (rev ")
	b.WriteString(entry.Revision)
	b.WriteString(")\n")
	b.WriteString(entry.Content)
	b.WriteString("\n")

	return b.String()
}
