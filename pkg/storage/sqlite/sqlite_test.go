package sqlite_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhub/pkg/storage"
	"github.com/papercomputeco/memhub/pkg/storage/sqlite"
)

var _ = Describe("Port", func() {
	var (
		port *sqlite.Port
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		port, err = sqlite.NewPort(":memory:")
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(port.Close()).To(Succeed())
	})

	save := func(workspace, content, scope, teamKey, category string) *storage.SaveResult {
		result, err := port.Save(ctx, storage.SaveRequest{
			Workspace: workspace,
			Content:   content,
			Scope:     scope,
			TeamKey:   teamKey,
			Category:  category,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Accepted).To(BeTrue())
		return result
	}

	It("round-trips a record through save and get", func() {
		saved := save("ws-1", "remember this", "personal", "", "GENERAL")

		result, err := port.Get(ctx, "ws-1", "personal", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Found).To(BeTrue())
		Expect(result.Content).To(Equal("remember this"))
		Expect(result.Metadata.RecordID).To(Equal(saved.RecordID))
		Expect(result.Metadata.Revision).To(Equal(saved.NewRevision))
	})

	It("returns the newest record for a partition", func() {
		save("ws-1", "first", "personal", "", "")
		save("ws-1", "second", "personal", "", "")

		result, err := port.Get(ctx, "ws-1", "personal", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Content).To(Equal("second"))
	})

	It("returns found=false on a category miss", func() {
		save("ws-1", "general note", "personal", "", "GENERAL")

		result, err := port.Get(ctx, "ws-1", "personal", "", "MEETING")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Found).To(BeFalse())
	})

	It("matches category filters case-insensitively", func() {
		save("ws-1", "standup notes", "personal", "", "MEETING")

		result, err := port.Get(ctx, "ws-1", "personal", "", "meeting")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Found).To(BeTrue())
	})

	It("lists summaries newest first, bounded by the limit", func() {
		for i := 0; i < 5; i++ {
			save("ws-1", "note", "personal", "", "")
		}

		result, err := port.List(ctx, "personal", "", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(HaveLen(3))
	})

	It("hard-deletes the partition and reports the count", func() {
		save("ws-1", "first", "personal", "", "")
		save("ws-1", "second", "personal", "", "")
		save("ws-1", "team note", "team", "eng", "")

		result, err := port.Delete(ctx, "ws-1", "personal", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.DeletedCount).To(Equal(2))

		got, err := port.Get(ctx, "ws-1", "personal", "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Found).To(BeFalse())
	})

	It("describes itself as a hard-deleting back end", func() {
		info, err := port.Info(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Backend).To(Equal("sqlite"))
		Expect(info.Limits).To(HaveKeyWithValue("delete", "hard delete"))
	})
})
