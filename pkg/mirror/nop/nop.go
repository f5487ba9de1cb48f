// Package nop provides a mirror that refuses every call, for deployments
// without a remote provider.
package nop

import (
	"context"

	"github.com/papercomputeco/memhub/pkg/mirror"
)

// Mirror implements mirror.Mirror by reporting mirroring as disabled.
type Mirror struct{}

// NewMirror creates a new no-op mirror.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Append returns ErrDisabled.
func (m *Mirror) Append(_ context.Context, _ []byte, _ string, _ mirror.Entry) (*mirror.Result, error) {
	return nil, mirror.ErrDisabled{}
}

// Info returns ErrDisabled.
func (m *Mirror) Info(_ context.Context, _ []byte, _ string) (*mirror.Result, error) {
	return nil, mirror.ErrDisabled{}
}
