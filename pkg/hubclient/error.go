package hubclient

import "fmt"

// ErrNotFound indicates the server returned 404 for the request.
type ErrNotFound struct {
	Path string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// ErrServer indicates a non-success response from the server.
type ErrServer struct {
	Status int
	Body   string
}

func (e ErrServer) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}
