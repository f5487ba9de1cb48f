package gdocs

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/papercomputeco/memhub/pkg/mirror"
)

// AuthURL returns the Google consent URL. The state value carries the
// workspace id through the redirect so the callback can attach the
// credential to the right workspace.
func (s *Service) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a serialized token.
func (s *Service) Exchange(ctx context.Context, code string) ([]byte, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, mirror.ErrReauthRequired{Reason: fmt.Sprintf("code exchange failed: %v", err)}
	}

	serialized, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize token: %w", err)
	}

	return serialized, nil
}
