package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/pkg/hub"
	mirrornop "github.com/papercomputeco/memhub/pkg/mirror/nop"
	"github.com/papercomputeco/memhub/pkg/storage"
	storageinmemory "github.com/papercomputeco/memhub/pkg/storage/inmemory"
	"github.com/papercomputeco/memhub/pkg/store"
	"github.com/papercomputeco/memhub/pkg/store/inmemory"
)

func jsonRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(resp *http.Response, out any) {
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
}

var _ = Describe("API Server", func() {
	var (
		server *Server
		repo   *inmemory.Repository
		ws     *store.Workspace
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		repo = inmemory.NewRepository()
		svc := hub.NewService(repo, mirrornop.NewMirror(), nil, nil, logger)
		server = NewServer(Config{ListenAddr: ":0"}, svc, storageinmemory.NewPort(), nil, logger)

		var err error
		ws, err = repo.CreateWorkspace(context.Background(), "acme", "", map[string]string{"platform": "doc-plat"})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("health", func() {
		It("responds ok", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/health", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("workspaces", func() {
		It("creates a workspace", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/workspaces", CreateWorkspaceRequest{
				Name: "beta",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var created store.Workspace
			decodeBody(resp, &created)
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.Name).To(Equal("beta"))
		})

		It("rejects a workspace without a name", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/workspaces", CreateWorkspaceRequest{}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("lists workspaces", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/workspaces", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var listed []store.Workspace
			decodeBody(resp, &listed)
			Expect(listed).To(HaveLen(1))
		})

		It("gets a workspace by id", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/workspaces/"+ws.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown workspace", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/workspaces/nope", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("reports the seeded ledger revision", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/workspaces/"+ws.ID+"/revision", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Revision string `json:"revision"`
			}
			decodeBody(resp, &body)
			Expect(body.Revision).To(Equal(store.RevisionInit))
		})
	})

	Describe("sessions", func() {
		push := func(content, expectedRevision string) (*http.Response, SessionResponse) {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/sessions", CreateSessionRequest{
				WorkspaceID:      ws.ID,
				Content:          content,
				ExpectedRevision: expectedRevision,
			}))
			Expect(err).NotTo(HaveOccurred())

			var body SessionResponse
			decodeBody(resp, &body)
			return resp, body
		}

		It("accepts a first write against the init sentinel", func() {
			resp, body := push("standup notes from the sync meeting", store.RevisionInit)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body.Status).To(Equal("ok"))
			Expect(body.Revision).NotTo(BeEmpty())
			Expect(body.Categories).To(ContainElement("MEETING"))
			Expect(body.SyncState).To(Equal("local_only"))
		})

		It("rejects a stale revision with the structured conflict payload", func() {
			_, first := push("first entry", store.RevisionInit)

			resp, body := push("second entry", store.RevisionInit)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			Expect(body.Status).To(Equal("conflict"))
			Expect(body.Conflict).NotTo(BeNil())
			Expect(body.Conflict.ExpectedRevision).To(Equal(first.Revision))
			Expect(body.Conflict.ProvidedRevision).To(Equal(store.RevisionInit))
		})

		It("accepts a retry carrying the current revision", func() {
			_, first := push("first entry", store.RevisionInit)

			resp, body := push("second entry", first.Revision)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body.Status).To(Equal("ok"))
		})

		It("returns 404 for an unknown workspace", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/sessions", CreateSessionRequest{
				WorkspaceID: "nope",
				Content:     "orphan",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("rejects empty content", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/sessions", CreateSessionRequest{
				WorkspaceID: ws.ID,
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unmapped team key", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/sessions", CreateSessionRequest{
				WorkspaceID: ws.ID,
				Scope:       hub.ScopeTeam,
				TeamKey:     "ghosts",
				Content:     "team entry",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 when no session exists yet", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/sessions/latest?workspace_id="+ws.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("returns the latest session", func() {
			push("older entry", store.RevisionInit)
			_, second := push("newest entry", "")

			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/sessions/latest?workspace_id="+ws.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body LatestSessionResponse
			decodeBody(resp, &body)
			Expect(body.Content).To(Equal("newest entry"))
			Expect(body.Revision).To(Equal(second.Revision))
			Expect(body.Source).To(Equal("local"))
		})

		It("filters the latest session by category", func() {
			push("bug report: login broken", store.RevisionInit)
			push("plain note", "")

			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/sessions/latest?workspace_id="+ws.ID+"&category=BUG", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body LatestSessionResponse
			decodeBody(resp, &body)
			Expect(body.Content).To(Equal("bug report: login broken"))
		})

		It("lists recent sessions newest first", func() {
			push("older entry", store.RevisionInit)
			push("newest entry", "")

			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/sessions?workspace_id="+ws.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count    int              `json:"count"`
				Sessions []*store.Session `json:"sessions"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(Equal(2))
			Expect(body.Sessions[0].Content).To(Equal("newest entry"))
		})
	})

	Describe("tokens", func() {
		It("issues a workspace token", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/tokens", CreateTokenRequest{
				WorkspaceID: ws.ID,
				Scopes:      []string{"read", "write"},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var token store.Token
			decodeBody(resp, &token)
			Expect(token.Token).NotTo(BeEmpty())
			Expect(token.WorkspaceID).To(Equal(ws.ID))
		})

		It("returns 404 for an unknown workspace", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/tokens", CreateTokenRequest{
				WorkspaceID: "nope",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("auth", func() {
		It("reports the flow unavailable without an authenticator", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/auth/google?workspace_id="+ws.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotImplemented))
		})

		It("rejects a callback missing parameters", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/auth/google/callback", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("memories", func() {
		save := func(workspace, content, category string) storage.SaveResult {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/memories", SaveMemoryRequest{
				Workspace: workspace,
				Content:   content,
				Scope:     hub.ScopePersonal,
				Category:  category,
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result storage.SaveResult
			decodeBody(resp, &result)
			return result
		}

		It("saves a memory through the port", func() {
			result := save("acme", "remember the deploy steps", "")
			Expect(result.Accepted).To(BeTrue())
			Expect(result.RecordID).NotTo(BeEmpty())
			Expect(result.NewRevision).NotTo(BeEmpty())
		})

		It("requires workspace and content", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/memories", SaveMemoryRequest{
				Workspace: "acme",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns the most recent memory", func() {
			save("acme", "older memory", "")
			save("acme", "newest memory", "")

			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/memories/latest?workspace=acme&scope=personal", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result storage.GetResult
			decodeBody(resp, &result)
			Expect(result.Found).To(BeTrue())
			Expect(result.Content).To(Equal("newest memory"))
		})

		It("treats a category miss as found=false, not an error", func() {
			save("acme", "uncategorized memory", "")

			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/memories/latest?workspace=acme&scope=personal&category=BUG", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result storage.GetResult
			decodeBody(resp, &result)
			Expect(result.Found).To(BeFalse())
		})

		It("lists memories with previews", func() {
			save("acme", "first memory", "")
			save("acme", "second memory", "")

			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/memories?scope=personal", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count    int               `json:"count"`
				Memories []storage.Summary `json:"memories"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(Equal(2))
		})

		It("deletes a workspace partition and reports the count", func() {
			save("acme", "first memory", "")
			save("acme", "second memory", "")

			resp, err := server.app.Test(jsonRequest(http.MethodDelete, "/memories?workspace=acme&scope=personal", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result storage.DeleteResult
			decodeBody(resp, &result)
			Expect(result.DeletedCount).To(Equal(2))
		})

		It("describes the configured back end", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodGet, "/memories/info", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var info storage.Info
			decodeBody(resp, &info)
			Expect(info.Backend).To(Equal("inmemory"))
		})
	})
})
