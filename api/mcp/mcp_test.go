package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/api/mcp"
	"github.com/papercomputeco/memhub/pkg/hub"
	mirrornop "github.com/papercomputeco/memhub/pkg/mirror/nop"
	"github.com/papercomputeco/memhub/pkg/store/inmemory"
)

var _ = Describe("MCP Server", func() {
	var (
		server *mcp.Server
		svc    *hub.Service
	)

	BeforeEach(func() {
		repo := inmemory.NewRepository()
		svc = hub.NewService(repo, mirrornop.NewMirror(), nil, nil, zap.NewNop())

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Hub:    svc,
			Logger: zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when hub service is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Logger: zap.NewNop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("hub service is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Hub: svc,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})

		It("creates an empty server in noop mode without a hub", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop.Handler()).NotTo(BeNil())
		})
	})
})
