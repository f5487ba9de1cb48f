package hubclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhub/pkg/hubclient"
)

var _ = Describe("Client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Push", func() {
		It("submits the write and decodes an accepted response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/sessions"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer api-token"))

				var req hubclient.PushRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req.WorkspaceID).To(Equal("ws-1"))
				Expect(req.ExpectedRevision).To(Equal("init"))

				json.NewEncoder(w).Encode(hubclient.PushResponse{
					Status:     "ok",
					SessionID:  "sess-1",
					Revision:   "rev-1",
					Categories: []string{"GENERAL"},
					SyncState:  "synced",
					DocURL:     "https://docs.example.com/doc-1",
				})
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "api-token")
			resp, err := client.Push(ctx, hubclient.PushRequest{
				WorkspaceID:      "ws-1",
				Scope:            "personal",
				Content:          "[HANDOFF] wrapped up",
				ExpectedRevision: "init",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("ok"))
			Expect(resp.Revision).To(Equal("rev-1"))
			Expect(resp.SyncState).To(Equal("synced"))
		})

		It("decodes a 409 into a conflict response instead of an error", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(hubclient.PushResponse{
					Status: "conflict",
					Conflict: &hubclient.Conflict{
						ExpectedRevision: "rev-2",
						ProvidedRevision: "rev-1",
					},
				})
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			resp, err := client.Push(ctx, hubclient.PushRequest{
				WorkspaceID:      "ws-1",
				Scope:            "personal",
				Content:          "stale write",
				ExpectedRevision: "rev-1",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("conflict"))
			Expect(resp.Conflict.ExpectedRevision).To(Equal("rev-2"))
			Expect(resp.Conflict.ProvidedRevision).To(Equal("rev-1"))
		})
	})

	Describe("Latest", func() {
		It("fetches the newest session with query filters", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/sessions/latest"))
				Expect(r.URL.Query().Get("workspace_id")).To(Equal("ws-1"))
				Expect(r.URL.Query().Get("category")).To(Equal("MEETING"))

				json.NewEncoder(w).Encode(hubclient.PullResponse{
					SessionID:  "sess-1",
					Revision:   "rev-1",
					Content:    "standup notes",
					Categories: []string{"MEETING"},
					Source:     "merged",
					DocURL:     "https://docs.example.com/doc-1",
				})
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			resp, err := client.Latest(ctx, "ws-1", "personal", "", "MEETING")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Content).To(Equal("standup notes"))
			Expect(resp.Source).To(Equal("merged"))
		})

		It("returns a typed error on 404", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			_, err := client.Latest(ctx, "ws-1", "personal", "", "")

			Expect(err).To(BeAssignableToTypeOf(hubclient.ErrNotFound{}))
		})
	})

	Describe("Revision", func() {
		It("fetches the current ledger revision", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/workspaces/ws-1/revision"))
				json.NewEncoder(w).Encode(map[string]string{"revision": "rev-7"})
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			revision, err := client.Revision(ctx, "ws-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(revision).To(Equal("rev-7"))
		})
	})

	Describe("CreateWorkspace", func() {
		It("posts the workspace definition", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/workspaces"))
				json.NewEncoder(w).Encode(hubclient.Workspace{
					ID:   "ws-1",
					Name: "acme",
				})
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			ws, err := client.CreateWorkspace(ctx, "acme", "doc-1", map[string]string{"eng": "doc-eng"})

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.ID).To(Equal("ws-1"))
		})
	})

	Describe("AuthURL", func() {
		It("fetches the consent URL for a workspace", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/auth/google"))
				Expect(r.URL.Query().Get("workspace_id")).To(Equal("ws-1"))
				json.NewEncoder(w).Encode(map[string]string{"auth_url": "https://accounts.example/consent"})
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			authURL, err := client.AuthURL(ctx, "ws-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(authURL).To(Equal("https://accounts.example/consent"))
		})
	})

	Describe("Health", func() {
		It("succeeds on 200", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"ok"}`))
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			Expect(client.Health(ctx)).To(Succeed())
		})

		It("surfaces server errors", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			client := hubclient.NewClient(server.URL, "")
			err := client.Health(ctx)
			Expect(err).To(BeAssignableToTypeOf(hubclient.ErrServer{}))
		})
	})
})
