package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent memhub configuration stored as config.toml
// in the .memhub/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	Port    PortConfig    `toml:"port"`
	API     APIConfig     `toml:"api"`
	Client  ClientConfig  `toml:"client"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Watch   WatchConfig   `toml:"watch"`
	Events  EventsConfig  `toml:"events"`
}

// StorageConfig holds settings for the local authoritative store that backs
// workspaces, sessions, the revision ledger, and stored credentials.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// PortConfig holds settings for the uniform storage port backend selected at
// startup. Provider is one of: sqlite, mongo, firestore, notion, superthread.
type PortConfig struct {
	Provider string `toml:"provider,omitempty"`

	SQLitePath string `toml:"sqlite_path,omitempty"`

	MongoURI      string `toml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database,omitempty"`

	FirestoreProject    string `toml:"firestore_project,omitempty"`
	FirestoreCollection string `toml:"firestore_collection,omitempty"`

	NotionAPIKey     string `toml:"notion_api_key,omitempty"`
	NotionDatabaseID string `toml:"notion_database_id,omitempty"`

	SuperthreadAPIKey    string `toml:"superthread_api_key,omitempty"`
	SuperthreadWorkspace string `toml:"superthread_workspace,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. memhub push, memhub pull, memhub watch).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	APIToken  string `toml:"api_token,omitempty"`
	Workspace string `toml:"workspace,omitempty"`
}

// MirrorConfig holds settings for the remote document mirror.
type MirrorConfig struct {
	Provider     string `toml:"provider,omitempty"`
	ClientID     string `toml:"client_id,omitempty"`
	ClientSecret string `toml:"client_secret,omitempty"`
	RedirectURL  string `toml:"redirect_url,omitempty"`
}

// WatchConfig holds settings for the clipboard trigger loop.
type WatchConfig struct {
	Marker     string `toml:"marker,omitempty"`
	IntervalMS uint   `toml:"interval_ms,omitempty"`
}

// EventsConfig holds event stream publisher settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"port.provider": {
		get: func(c *Config) string { return c.Port.Provider },
		set: func(c *Config, v string) error { c.Port.Provider = v; return nil },
	},
	"port.sqlite_path": {
		get: func(c *Config) string { return c.Port.SQLitePath },
		set: func(c *Config, v string) error { c.Port.SQLitePath = v; return nil },
	},
	"port.mongo_uri": {
		get: func(c *Config) string { return c.Port.MongoURI },
		set: func(c *Config, v string) error { c.Port.MongoURI = v; return nil },
	},
	"port.mongo_database": {
		get: func(c *Config) string { return c.Port.MongoDatabase },
		set: func(c *Config, v string) error { c.Port.MongoDatabase = v; return nil },
	},
	"port.firestore_project": {
		get: func(c *Config) string { return c.Port.FirestoreProject },
		set: func(c *Config, v string) error { c.Port.FirestoreProject = v; return nil },
	},
	"port.firestore_collection": {
		get: func(c *Config) string { return c.Port.FirestoreCollection },
		set: func(c *Config, v string) error { c.Port.FirestoreCollection = v; return nil },
	},
	"port.notion_api_key": {
		get: func(c *Config) string { return c.Port.NotionAPIKey },
		set: func(c *Config, v string) error { c.Port.NotionAPIKey = v; return nil },
	},
	"port.notion_database_id": {
		get: func(c *Config) string { return c.Port.NotionDatabaseID },
		set: func(c *Config, v string) error { c.Port.NotionDatabaseID = v; return nil },
	},
	"port.superthread_api_key": {
		get: func(c *Config) string { return c.Port.SuperthreadAPIKey },
		set: func(c *Config, v string) error { c.Port.SuperthreadAPIKey = v; return nil },
	},
	"port.superthread_workspace": {
		get: func(c *Config) string { return c.Port.SuperthreadWorkspace },
		set: func(c *Config, v string) error { c.Port.SuperthreadWorkspace = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.api_token": {
		get: func(c *Config) string { return c.Client.APIToken },
		set: func(c *Config, v string) error { c.Client.APIToken = v; return nil },
	},
	"client.workspace": {
		get: func(c *Config) string { return c.Client.Workspace },
		set: func(c *Config, v string) error { c.Client.Workspace = v; return nil },
	},
	"mirror.provider": {
		get: func(c *Config) string { return c.Mirror.Provider },
		set: func(c *Config, v string) error { c.Mirror.Provider = v; return nil },
	},
	"mirror.client_id": {
		get: func(c *Config) string { return c.Mirror.ClientID },
		set: func(c *Config, v string) error { c.Mirror.ClientID = v; return nil },
	},
	"mirror.client_secret": {
		get: func(c *Config) string { return c.Mirror.ClientSecret },
		set: func(c *Config, v string) error { c.Mirror.ClientSecret = v; return nil },
	},
	"mirror.redirect_url": {
		get: func(c *Config) string { return c.Mirror.RedirectURL },
		set: func(c *Config, v string) error { c.Mirror.RedirectURL = v; return nil },
	},
	"watch.marker": {
		get: func(c *Config) string { return c.Watch.Marker },
		set: func(c *Config, v string) error { c.Watch.Marker = v; return nil },
	},
	"watch.interval_ms": {
		get: func(c *Config) string {
			if c.Watch.IntervalMS == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Watch.IntervalMS), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for watch.interval_ms: %w", err)
			}
			c.Watch.IntervalMS = uint(n)
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
