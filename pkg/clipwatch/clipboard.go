package clipwatch

import "github.com/atotto/clipboard"

// Source reads the shared text buffer being watched.
type Source interface {
	Read() (string, error)
}

// SystemClipboard reads the operating system clipboard.
type SystemClipboard struct{}

// NewSystemClipboard creates a clipboard source backed by the OS clipboard.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// Read returns the current clipboard text.
func (c *SystemClipboard) Read() (string, error) {
	return clipboard.ReadAll()
}
