// Package clipwatch implements the clipboard trigger loop: poll a shared text
// buffer, detect marker-prefixed content, and push it through an uploader.
package clipwatch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMarker is the content prefix that arms the trigger.
const DefaultMarker = "[HANDOFF]"

// Uploader pushes triggered content to the hub.
type Uploader interface {
	Upload(ctx context.Context, content string) error
}

// Config holds trigger loop settings.
type Config struct {
	// Marker is the prefix that content must start with to trigger an
	// upload. Defaults to DefaultMarker.
	Marker string

	// Interval is the poll period. Defaults to one second.
	Interval time.Duration

	// Once exits the loop after the first successful upload.
	Once bool
}

// Watcher polls a Source and invokes the Uploader when marker-prefixed
// content appears.
//
// A trigger fires only when the content hash changes AND the content starts
// with the marker. The hash is recorded on every attempt, success or failure,
// so a failed upload is not retried until the operator copies the content
// again. Uploads run synchronously inside the loop; there is never more than
// one in flight.
type Watcher struct {
	source   Source
	uploader Uploader
	cfg      Config
	logger   *zap.Logger
}

// NewWatcher creates a new trigger loop.
func NewWatcher(source Source, uploader Uploader, cfg Config, logger *zap.Logger) *Watcher {
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	return &Watcher{
		source:   source,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. The pre-existing buffer content
// is hashed first so a marker already on the clipboard does not trigger.
// Cancellation is honored at the poll boundary and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	lastHash := ""
	if initial, err := w.source.Read(); err == nil {
		lastHash = contentHash(initial)
	}

	w.logger.Info("watching for marker",
		zap.String("marker", w.cfg.Marker),
		zap.Duration("interval", w.cfg.Interval),
		zap.Bool("once", w.cfg.Once),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return ctx.Err()
		case <-ticker.C:
		}

		content, err := w.source.Read()
		if err != nil {
			w.logger.Warn("failed to read buffer", zap.Error(err))
			continue
		}

		hash := contentHash(content)
		if hash == "" || hash == lastHash || !matchesMarker(content, w.cfg.Marker) {
			continue
		}

		// Record the hash before the attempt: a failed upload waits for
		// the operator to re-copy rather than retrying the same content.
		lastHash = hash

		if err := w.uploader.Upload(ctx, content); err != nil {
			w.logger.Warn("upload failed, copy the content again to retry", zap.Error(err))
			continue
		}

		w.logger.Info("upload complete")
		if w.cfg.Once {
			return nil
		}
	}
}

func contentHash(content string) string {
	if content == "" {
		return ""
	}
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func matchesMarker(content, marker string) bool {
	stripped := strings.TrimSpace(content)
	return stripped != "" && strings.HasPrefix(stripped, strings.TrimSpace(marker))
}
