package clipwatch_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/pkg/clipwatch"
)

// fakeSource is a settable in-memory buffer.
type fakeSource struct {
	mu      sync.Mutex
	content string
	err     error
}

func (f *fakeSource) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content, f.err
}

func (f *fakeSource) set(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
}

// fakeUploader records uploads and serves a settable error.
type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, content)
	return nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeUploader) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

var _ = Describe("Watcher", func() {
	var (
		source   *fakeSource
		uploader *fakeUploader
		watcher  *clipwatch.Watcher
		cancel   context.CancelFunc
		done     chan error
	)

	start := func(once bool) {
		watcher = clipwatch.NewWatcher(source, uploader, clipwatch.Config{
			Marker:   "[HANDOFF]",
			Interval: 5 * time.Millisecond,
			Once:     once,
		}, zap.NewNop())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- watcher.Run(ctx) }()
	}

	BeforeEach(func() {
		source = &fakeSource{}
		uploader = &fakeUploader{}
	})

	AfterEach(func() {
		if cancel != nil {
			cancel()
			Eventually(done).Should(Receive())
			cancel = nil
		}
	})

	It("uploads when marker-prefixed content appears", func() {
		start(false)

		source.set("[HANDOFF] wrapped up the migration")

		Eventually(uploader.count).Should(Equal(1))
	})

	It("does not upload content without the marker", func() {
		start(false)

		source.set("just some notes")

		Consistently(uploader.count, 50*time.Millisecond).Should(Equal(0))
	})

	It("does not re-trigger on unchanged content", func() {
		start(false)

		source.set("[HANDOFF] wrapped up the migration")
		Eventually(uploader.count).Should(Equal(1))

		Consistently(uploader.count, 50*time.Millisecond).Should(Equal(1))
	})

	It("ignores marker content already present at startup", func() {
		source.set("[HANDOFF] stale handoff")
		start(false)

		Consistently(uploader.count, 50*time.Millisecond).Should(Equal(0))
	})

	It("does not retry a failed upload until the content changes", func() {
		uploader.setErr(errors.New("server is down"))
		start(false)

		source.set("[HANDOFF] first attempt")
		time.Sleep(30 * time.Millisecond)

		uploader.setErr(nil)
		Consistently(uploader.count, 50*time.Millisecond).Should(Equal(0))

		source.set("[HANDOFF] second attempt")
		Eventually(uploader.count).Should(Equal(1))
	})

	It("exits after the first successful upload in once mode", func() {
		start(true)

		source.set("[HANDOFF] one and done")

		Eventually(done).Should(Receive(BeNil()))
		Expect(uploader.count()).To(Equal(1))
		cancel = nil
	})

	It("stops cleanly on cancellation", func() {
		start(false)

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		cancel = nil
	})
})
