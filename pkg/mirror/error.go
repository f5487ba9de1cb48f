package mirror

import "fmt"

// ErrReauthRequired indicates the stored credential can no longer be used or
// refreshed and the user must run the authorization flow again.
type ErrReauthRequired struct {
	Reason string
}

func (e ErrReauthRequired) Error() string {
	return fmt.Sprintf("mirror reauthentication required: %s", e.Reason)
}

// ErrDisabled indicates no mirror provider is configured.
type ErrDisabled struct{}

func (e ErrDisabled) Error() string {
	return "mirroring is disabled"
}
