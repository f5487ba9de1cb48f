package clipwatch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileTrigger is an alternative trigger source for environments without a
// clipboard: it watches a file and uploads its content when the file is
// rewritten with marker-prefixed text. The same hash and marker gating as the
// polling watcher applies.
type FileTrigger struct {
	path     string
	uploader Uploader
	marker   string
	once     bool
	logger   *zap.Logger
}

// NewFileTrigger creates a trigger watching the given file.
func NewFileTrigger(path string, uploader Uploader, marker string, once bool, logger *zap.Logger) *FileTrigger {
	if marker == "" {
		marker = DefaultMarker
	}

	return &FileTrigger{
		path:     path,
		uploader: uploader,
		marker:   marker,
		once:     once,
		logger:   logger,
	}
}

// Run watches until the context is cancelled. The parent directory is
// watched rather than the file itself so atomic rename-into-place writes are
// seen.
func (t *FileTrigger) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return err
	}

	t.logger.Info("watching file for marker",
		zap.String("path", t.path),
		zap.String("marker", t.marker),
	)

	lastHash := ""
	if initial, err := os.ReadFile(t.path); err == nil {
		lastHash = contentHash(string(initial))
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("file trigger stopped")
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != t.path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			payload, err := os.ReadFile(t.path)
			if err != nil {
				t.logger.Warn("failed to read trigger file", zap.Error(err))
				continue
			}

			content := string(payload)
			hash := contentHash(content)
			if hash == "" || hash == lastHash || !matchesMarker(content, t.marker) {
				continue
			}
			lastHash = hash

			if err := t.uploader.Upload(ctx, content); err != nil {
				t.logger.Warn("upload failed, rewrite the file to retry", zap.Error(err))
				continue
			}

			t.logger.Info("upload complete")
			if t.once {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("watch error", zap.Error(err))
		}
	}
}
