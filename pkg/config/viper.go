package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/memhub/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MEMHUB_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MEMHUB_API_LISTEN, MEMHUB_PORT_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MEMHUB_API_LISTEN, MEMHUB_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("MEMHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Port
	v.SetDefault("port.provider", d.Port.Provider)
	v.SetDefault("port.sqlite_path", d.Port.SQLitePath)
	v.SetDefault("port.mongo_uri", d.Port.MongoURI)
	v.SetDefault("port.mongo_database", d.Port.MongoDatabase)
	v.SetDefault("port.firestore_project", d.Port.FirestoreProject)
	v.SetDefault("port.firestore_collection", d.Port.FirestoreCollection)
	v.SetDefault("port.notion_api_key", d.Port.NotionAPIKey)
	v.SetDefault("port.notion_database_id", d.Port.NotionDatabaseID)
	v.SetDefault("port.superthread_api_key", d.Port.SuperthreadAPIKey)
	v.SetDefault("port.superthread_workspace", d.Port.SuperthreadWorkspace)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.api_token", d.Client.APIToken)
	v.SetDefault("client.workspace", d.Client.Workspace)

	// Mirror
	v.SetDefault("mirror.provider", d.Mirror.Provider)
	v.SetDefault("mirror.client_id", d.Mirror.ClientID)
	v.SetDefault("mirror.client_secret", d.Mirror.ClientSecret)
	v.SetDefault("mirror.redirect_url", d.Mirror.RedirectURL)

	// Watch
	v.SetDefault("watch.marker", d.Watch.Marker)
	v.SetDefault("watch.interval_ms", d.Watch.IntervalMS)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
