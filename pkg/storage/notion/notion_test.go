package notion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhub/pkg/storage"
	"github.com/papercomputeco/memhub/pkg/storage/notion"
)

func pageJSON(id, workspace, scope, category, content string) map[string]any {
	richText := func(value string) map[string]any {
		return map[string]any{
			"rich_text": []map[string]any{{"plain_text": value}},
		}
	}
	return map[string]any{
		"id":           id,
		"created_time": "2026-08-31T10:00:00Z",
		"properties": map[string]any{
			"Workspace": richText(workspace),
			"Scope":     richText(scope),
			"Category":  richText(category),
			"Content":   richText(content),
			"Revision":  richText("rev-" + id),
		},
	}
}

var _ = Describe("Port", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	newPort := func(server *httptest.Server) *notion.Port {
		port, err := notion.NewPort(notion.Config{
			Token:      "secret-token",
			DatabaseID: "db-1",
			BaseURL:    server.URL,
		})
		Expect(err).NotTo(HaveOccurred())
		return port
	}

	It("requires a token and a database id", func() {
		_, err := notion.NewPort(notion.Config{DatabaseID: "db-1"})
		Expect(err).To(HaveOccurred())

		_, err = notion.NewPort(notion.Config{Token: "secret"})
		Expect(err).To(HaveOccurred())
	})

	Describe("Save", func() {
		It("creates a database page with the record properties", func() {
			var captured map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/pages"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer secret-token"))
				Expect(r.Header.Get("Notion-Version")).NotTo(BeEmpty())
				Expect(json.NewDecoder(r.Body).Decode(&captured)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]string{"id": "page-1"})
			}))
			defer server.Close()

			port := newPort(server)
			result, err := port.Save(ctx, storage.SaveRequest{
				Workspace: "ws-1",
				Content:   "remember this",
				Scope:     "personal",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Accepted).To(BeTrue())
			Expect(result.RecordID).To(Equal("page-1"))
			Expect(result.NewRevision).NotTo(BeEmpty())
			Expect(captured["parent"]).To(HaveKeyWithValue("database_id", "db-1"))
		})

		It("normalizes API failures into accepted=false", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			port := newPort(server)
			result, err := port.Save(ctx, storage.SaveRequest{
				Workspace: "ws-1",
				Content:   "remember this",
				Scope:     "personal",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Accepted).To(BeFalse())
			Expect(result.Error).To(ContainSubstring("502"))
		})
	})

	Describe("Get", func() {
		It("queries the database newest first and decodes the page", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/databases/db-1/query"))
				json.NewEncoder(w).Encode(map[string]any{
					"results": []map[string]any{
						pageJSON("page-1", "ws-1", "personal", "MEETING", "standup notes"),
					},
				})
			}))
			defer server.Close()

			port := newPort(server)
			result, err := port.Get(ctx, "ws-1", "personal", "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Found).To(BeTrue())
			Expect(result.Content).To(Equal("standup notes"))
			Expect(result.Metadata.Category).To(Equal("MEETING"))
		})

		It("returns found=false on a category miss", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"results": []map[string]any{
						pageJSON("page-1", "ws-1", "personal", "GENERAL", "general note"),
					},
				})
			}))
			defer server.Close()

			port := newPort(server)
			result, err := port.Get(ctx, "ws-1", "personal", "", "MEETING")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Found).To(BeFalse())
		})
	})

	Describe("Delete", func() {
		It("archives every page in the partition", func() {
			archived := map[string]bool{}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodPost:
					json.NewEncoder(w).Encode(map[string]any{
						"results": []map[string]any{
							pageJSON("page-1", "ws-1", "personal", "", "first"),
							pageJSON("page-2", "ws-1", "personal", "", "second"),
						},
					})
				case r.Method == http.MethodPatch:
					var body map[string]any
					Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
					Expect(body).To(HaveKeyWithValue("archived", true))
					archived[r.URL.Path] = true
					w.Write([]byte(`{}`))
				}
			}))
			defer server.Close()

			port := newPort(server)
			result, err := port.Delete(ctx, "ws-1", "personal", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.DeletedCount).To(Equal(2))
			Expect(archived).To(HaveKey("/v1/pages/page-1"))
			Expect(archived).To(HaveKey("/v1/pages/page-2"))
		})
	})

	Describe("Info", func() {
		It("declares archive-only delete semantics", func() {
			port, err := notion.NewPort(notion.Config{Token: "secret", DatabaseID: "db-1"})
			Expect(err).NotTo(HaveOccurred())

			info, err := port.Info(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Backend).To(Equal("notion"))
			Expect(info.Limits).To(HaveKeyWithValue("delete", "archive only"))
		})
	})
})
