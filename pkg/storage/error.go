package storage

import "fmt"

// ErrUnknownProvider indicates a port provider name with no registered adapter.
type ErrUnknownProvider struct {
	Provider string
}

func (e ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown storage provider %q", e.Provider)
}
