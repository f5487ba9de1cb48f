package config

const (
	defaultStorageDriver = "sqlite"
	defaultPortProvider  = "sqlite"

	defaultAPIListen       = ":8091"
	defaultClientAPITarget = "http://localhost:8091"

	defaultMirrorProvider    = "none"
	defaultMirrorRedirectURL = "http://127.0.0.1:8091/auth/google/callback"

	defaultWatchMarker     = "[HANDOFF]"
	defaultWatchIntervalMS = 1000

	defaultEventsProvider = "none"
	defaultEventsTopic    = "memhub.sessions"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Port: PortConfig{
			Provider: defaultPortProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Mirror: MirrorConfig{
			Provider:    defaultMirrorProvider,
			RedirectURL: defaultMirrorRedirectURL,
		},
		Watch: WatchConfig{
			Marker:     defaultWatchMarker,
			IntervalMS: defaultWatchIntervalMS,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
