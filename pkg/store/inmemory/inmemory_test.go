package inmemory_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"

	"github.com/papercomputeco/memhub/pkg/store"
	"github.com/papercomputeco/memhub/pkg/store/inmemory"
)

var _ = Describe("Repository", func() {
	var (
		repo *inmemory.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		repo = inmemory.NewRepository()
		ctx = context.Background()
	})

	newSession := func(workspaceID string) *store.Session {
		return &store.Session{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			Scope:       "personal",
			Revision:    uuid.NewString(),
			Content:     "session content",
			Categories:  []string{"GENERAL"},
			LastUpdated: time.Now().UTC(),
		}
	}

	It("seeds a new workspace's ledger to the init sentinel", func() {
		ws, err := repo.CreateWorkspace(ctx, "acme", "", nil)
		Expect(err).NotTo(HaveOccurred())

		revision, err := repo.CurrentRevision(ctx, ws.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(revision).To(Equal(store.RevisionInit))
	})

	It("rejects stale revisions with a conflict error", func() {
		ws, err := repo.CreateWorkspace(ctx, "acme", "", nil)
		Expect(err).NotTo(HaveOccurred())

		first := newSession(ws.ID)
		Expect(repo.AppendSession(ctx, first, store.RevisionInit)).To(Succeed())

		stale := newSession(ws.ID)
		err = repo.AppendSession(ctx, stale, store.RevisionInit)

		var conflict store.ErrRevisionConflict
		Expect(err).To(BeAssignableToTypeOf(conflict))
		conflict = err.(store.ErrRevisionConflict)
		Expect(conflict.Expected).To(Equal(first.Revision))
		Expect(conflict.Provided).To(Equal(store.RevisionInit))
	})

	It("admits exactly one writer when many race on the same revision", func() {
		ws, err := repo.CreateWorkspace(ctx, "acme", "", nil)
		Expect(err).NotTo(HaveOccurred())

		const writers = 16
		var wg sync.WaitGroup
		results := make([]error, writers)

		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = repo.AppendSession(ctx, newSession(ws.ID), store.RevisionInit)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
			} else {
				Expect(err).To(BeAssignableToTypeOf(store.ErrRevisionConflict{}))
			}
		}
		Expect(succeeded).To(Equal(1))
	})

	It("returns the newest session for a partition", func() {
		ws, err := repo.CreateWorkspace(ctx, "acme", "", nil)
		Expect(err).NotTo(HaveOccurred())

		older := newSession(ws.ID)
		older.LastUpdated = time.Now().UTC().Add(-time.Hour)
		Expect(repo.AppendSession(ctx, older, "")).To(Succeed())

		newer := newSession(ws.ID)
		Expect(repo.AppendSession(ctx, newer, "")).To(Succeed())

		got, err := repo.LatestSession(ctx, ws.ID, "personal", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(newer.ID))
	})

	It("breaks timestamp ties by insertion order", func() {
		ws, err := repo.CreateWorkspace(ctx, "acme", "", nil)
		Expect(err).NotTo(HaveOccurred())

		at := time.Now().UTC()
		first := newSession(ws.ID)
		first.LastUpdated = at
		second := newSession(ws.ID)
		second.LastUpdated = at

		Expect(repo.AppendSession(ctx, first, "")).To(Succeed())
		Expect(repo.AppendSession(ctx, second, "")).To(Succeed())

		got, err := repo.LatestSession(ctx, ws.ID, "personal", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(second.ID))
	})

	It("filters reads by category", func() {
		ws, err := repo.CreateWorkspace(ctx, "acme", "", nil)
		Expect(err).NotTo(HaveOccurred())

		bug := newSession(ws.ID)
		bug.LastUpdated = time.Now().UTC().Add(-time.Hour)
		bug.Categories = []string{"BUG"}
		Expect(repo.AppendSession(ctx, bug, "")).To(Succeed())

		general := newSession(ws.ID)
		Expect(repo.AppendSession(ctx, general, "")).To(Succeed())

		got, err := repo.LatestSession(ctx, ws.ID, "personal", "", "bug")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(bug.ID))
	})

	It("round-trips credentials", func() {
		Expect(repo.SaveCredential(ctx, "ws-1", []byte("cred"))).To(Succeed())

		got, err := repo.Credential(ctx, "ws-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("cred")))
	})

	It("returns typed errors for missing records", func() {
		_, err := repo.GetWorkspace(ctx, "missing")
		Expect(err).To(MatchError(store.ErrWorkspaceNotFound{ID: "missing"}))

		_, err = repo.Credential(ctx, "missing")
		Expect(err).To(MatchError(store.ErrCredentialNotFound{WorkspaceID: "missing"}))

		_, err = repo.LatestSession(ctx, "missing", "personal", "", "")
		Expect(err).To(MatchError(store.ErrSessionNotFound{WorkspaceID: "missing"}))
	})
})
