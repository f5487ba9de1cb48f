// Package servecmder provides the serve command for running the memhub API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/api"
	"github.com/papercomputeco/memhub/api/mcp"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/dotdir"
	"github.com/papercomputeco/memhub/pkg/eventstream"
	eventskafka "github.com/papercomputeco/memhub/pkg/eventstream/kafka"
	eventsnop "github.com/papercomputeco/memhub/pkg/eventstream/nop"
	"github.com/papercomputeco/memhub/pkg/hub"
	"github.com/papercomputeco/memhub/pkg/logger"
	"github.com/papercomputeco/memhub/pkg/mirror"
	"github.com/papercomputeco/memhub/pkg/mirror/gdocs"
	mirrornop "github.com/papercomputeco/memhub/pkg/mirror/nop"
	"github.com/papercomputeco/memhub/pkg/storage"
	"github.com/papercomputeco/memhub/pkg/storage/firestore"
	storageinmemory "github.com/papercomputeco/memhub/pkg/storage/inmemory"
	"github.com/papercomputeco/memhub/pkg/storage/mongo"
	"github.com/papercomputeco/memhub/pkg/storage/notion"
	storagesqlite "github.com/papercomputeco/memhub/pkg/storage/sqlite"
	"github.com/papercomputeco/memhub/pkg/storage/superthread"
	"github.com/papercomputeco/memhub/pkg/store"
	storeinmemory "github.com/papercomputeco/memhub/pkg/store/inmemory"
	"github.com/papercomputeco/memhub/pkg/store/postgres"
	storesqlite "github.com/papercomputeco/memhub/pkg/store/sqlite"
)

const (
	defaultStoreFile = "memhub.db"
	defaultPortFile  = "memories.db"
)

type serveCommander struct {
	listen         string
	storageDriver  string
	sqlitePath     string
	postgresDSN    string
	portProvider   string
	mirrorProvider string
	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	debug     bool
	configDir string
	logger    *zap.Logger
}

const serveLongDesc string = `Run the memhub API server.

The server owns the authoritative local store, the remote document mirror,
the storage port backend, the event stream publisher, and the MCP tool
surface. Pick backends with flags or config keys:

  memhub serve
  memhub serve --storage-driver postgres --postgres-dsn postgres://...
  memhub serve --port-provider mongo
  memhub serve --mirror-provider gdocs --events-provider kafka`

const serveShortDesc string = "Run the memhub API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %v", err)
			}

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAPIListen,
				config.FlagStorageDriver,
				config.FlagSQLite,
				config.FlagPostgresDSN,
				config.FlagPortProvider,
				config.FlagMirrorProvider,
				config.FlagEventsProvider,
				config.FlagEventsBrokers,
				config.FlagEventsTopic,
			})

			return cmder.run(v)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagPortProvider, &cmder.portProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagMirrorProvider, &cmder.mirrorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *serveCommander) run(v *viper.Viper) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	ctx := context.Background()

	repo, err := c.newRepository(v)
	if err != nil {
		return err
	}
	defer repo.Close()

	port, err := c.newStoragePort(ctx, v)
	if err != nil {
		return err
	}
	defer port.Close()

	remote, authenticator := c.newMirror(v)

	events, err := c.newPublisher(v)
	if err != nil {
		return err
	}
	defer events.Close()

	svc := hub.NewService(repo, remote, authenticator, events, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Hub:    svc,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server := api.NewServer(api.Config{
		ListenAddr: v.GetString("api.listen"),
	}, svc, port, mcpServer, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *serveCommander) newRepository(v *viper.Viper) (store.Repository, error) {
	driver := v.GetString("storage.driver")
	switch driver {
	case "sqlite", "":
		path := v.GetString("storage.sqlite_path")
		if path == "" {
			path = c.defaultDBPath(defaultStoreFile)
		}
		repo, err := storesqlite.NewRepository(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		c.logger.Info("using sqlite store", zap.String("path", path))
		return repo, nil

	case "postgres":
		dsn := v.GetString("storage.postgres_dsn")
		if dsn == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
		repo, err := postgres.NewRepository(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		c.logger.Info("using postgres store")
		return repo, nil

	case "inmemory":
		c.logger.Info("using in-memory store")
		return storeinmemory.NewRepository(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", driver)
	}
}

func (c *serveCommander) newStoragePort(ctx context.Context, v *viper.Viper) (storage.Port, error) {
	provider := v.GetString("port.provider")
	switch provider {
	case "sqlite", "":
		path := v.GetString("port.sqlite_path")
		if path == "" {
			path = c.defaultDBPath(defaultPortFile)
		}
		port, err := storagesqlite.NewPort(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite port: %w", err)
		}
		c.logger.Info("using sqlite storage port", zap.String("path", path))
		return port, nil

	case "inmemory":
		c.logger.Info("using in-memory storage port")
		return storageinmemory.NewPort(), nil

	case "mongo":
		port, err := mongo.NewPort(ctx, v.GetString("port.mongo_uri"), v.GetString("port.mongo_database"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect mongo port: %w", err)
		}
		c.logger.Info("using mongo storage port")
		return port, nil

	case "firestore":
		port, err := firestore.NewPort(ctx, v.GetString("port.firestore_project"), v.GetString("port.firestore_collection"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect firestore port: %w", err)
		}
		c.logger.Info("using firestore storage port")
		return port, nil

	case "notion":
		port, err := notion.NewPort(notion.Config{
			Token:      v.GetString("port.notion_api_key"),
			DatabaseID: v.GetString("port.notion_database_id"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure notion port: %w", err)
		}
		c.logger.Info("using notion storage port")
		return port, nil

	case "superthread":
		port, err := superthread.NewPort(superthread.Config{
			APIKey:      v.GetString("port.superthread_api_key"),
			WorkspaceID: v.GetString("port.superthread_workspace"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure superthread port: %w", err)
		}
		c.logger.Info("using superthread storage port")
		return port, nil

	default:
		return nil, storage.ErrUnknownProvider{Provider: provider}
	}
}

func (c *serveCommander) newMirror(v *viper.Viper) (mirror.Mirror, mirror.Authenticator) {
	if v.GetString("mirror.provider") != "gdocs" {
		c.logger.Info("remote mirror disabled")
		return mirrornop.NewMirror(), nil
	}

	svc := gdocs.NewService(gdocs.Config{
		ClientID:     v.GetString("mirror.client_id"),
		ClientSecret: v.GetString("mirror.client_secret"),
		RedirectURL:  v.GetString("mirror.redirect_url"),
	})
	c.logger.Info("using google docs mirror")
	return svc, svc
}

func (c *serveCommander) newPublisher(v *viper.Viper) (eventstream.Publisher, error) {
	if v.GetString("events.provider") != "kafka" {
		return eventsnop.NewPublisher(), nil
	}

	brokers := strings.Split(v.GetString("events.brokers"), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	publisher, err := eventskafka.NewPublisher(eventskafka.Config{
		Brokers: brokers,
		Topic:   v.GetString("events.topic"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure kafka publisher: %w", err)
	}

	c.logger.Info("publishing session events to kafka",
		zap.Strings("brokers", brokers),
		zap.String("topic", v.GetString("events.topic")),
	)
	return publisher, nil
}

// defaultDBPath places database files in the resolved .memhub directory,
// falling back to the working directory when no dot dir exists.
func (c *serveCommander) defaultDBPath(name string) string {
	target, err := dotdir.NewManager().Target(c.configDir)
	if err != nil || target == "" {
		return name
	}
	return filepath.Join(target, name)
}
