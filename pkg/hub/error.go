package hub

import "fmt"

// ErrInvalidScope indicates a scope other than "personal" or "team".
type ErrInvalidScope struct {
	Scope string
}

func (e ErrInvalidScope) Error() string {
	return fmt.Sprintf("invalid scope %q", e.Scope)
}

// ErrUnknownTeam indicates a team key with no document mapping in the workspace.
type ErrUnknownTeam struct {
	TeamKey string
}

func (e ErrUnknownTeam) Error() string {
	return fmt.Sprintf("unknown team %q", e.TeamKey)
}

// ErrEmptyContent indicates a write with no session content.
type ErrEmptyContent struct{}

func (e ErrEmptyContent) Error() string {
	return "session content is empty"
}

// ErrAuthUnavailable indicates no authenticator is configured for the
// mirror provider.
type ErrAuthUnavailable struct{}

func (e ErrAuthUnavailable) Error() string {
	return "mirror authentication is not configured"
}
