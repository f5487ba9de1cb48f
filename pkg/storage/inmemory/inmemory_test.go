package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhub/pkg/storage"
	"github.com/papercomputeco/memhub/pkg/storage/inmemory"
)

var _ = Describe("Port", func() {
	var (
		port *inmemory.Port
		ctx  context.Context
	)

	BeforeEach(func() {
		port = inmemory.NewPort()
		ctx = context.Background()
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

	Describe("Save", func() {
		It("assigns a record id and a fresh revision", func() {
			result := save("ws-1", "remember this", "personal", "", "")
			Expect(result.RecordID).NotTo(BeEmpty())
			Expect(result.NewRevision).NotTo(BeEmpty())
		})

		It("assigns distinct revisions to successive saves", func() {
			first := save("ws-1", "first", "personal", "", "")
			second := save("ws-1", "second", "personal", "", "")
			Expect(second.NewRevision).NotTo(Equal(first.NewRevision))
		})
	})

	Describe("Get", func() {
		It("returns found=false for an empty partition", func() {
			result, err := port.Get(ctx, "ws-1", "personal", "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Found).To(BeFalse())
		})

		It("returns the newest record", func() {
			save("ws-1", "first", "personal", "", "")
			save("ws-1", "second", "personal", "", "")

			result, err := port.Get(ctx, "ws-1", "personal", "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Found).To(BeTrue())
			Expect(result.Content).To(Equal("second"))
		})

		It("returns found=false when no record carries the category filter", func() {
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
			Expect(result.Metadata.Category).To(Equal("MEETING"))
		})

		It("isolates team partitions by team key", func() {
			save("ws-1", "eng notes", "team", "eng", "")
			save("ws-1", "design notes", "team", "design", "")

			result, err := port.Get(ctx, "ws-1", "team", "eng", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Content).To(Equal("eng notes"))
		})
	})

	Describe("List", func() {
		It("returns summaries newest first, bounded by the limit", func() {
			for i := 0; i < 5; i++ {
				save("ws-1", "note", "personal", "", "")
			}

			result, err := port.List(ctx, "personal", "", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(3))
		})

		It("truncates long content into a preview", func() {
			long := make([]byte, 500)
			for i := range long {
				long[i] = 'x'
			}
			save("ws-1", string(long), "personal", "", "")

			result, err := port.List(ctx, "personal", "", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(result[0].Preview)).To(BeNumerically("<", 200))
			Expect(result[0].Preview).To(HaveSuffix("..."))
		})
	})

	Describe("Delete", func() {
		It("removes the partition and reports the count", func() {
			save("ws-1", "first", "personal", "", "")
			save("ws-1", "second", "personal", "", "")
			save("ws-1", "team note", "team", "eng", "")

			result, err := port.Delete(ctx, "ws-1", "personal", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.DeletedCount).To(Equal(2))

			got, err := port.Get(ctx, "ws-1", "personal", "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Found).To(BeFalse())

			kept, err := port.Get(ctx, "ws-1", "team", "eng", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(kept.Found).To(BeTrue())
		})
	})

	Describe("Info", func() {
		It("names the back end", func() {
			info, err := port.Info(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Backend).To(Equal("inmemory"))
			Expect(info.Capabilities).To(ContainElement("save"))
		})
	})
})
