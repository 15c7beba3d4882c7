package config

const (
	defaultClientAPITarget = "http://localhost:8000"
	defaultClientUserID    = "0"
	defaultClientTimeout   = "30s"

	defaultMalformedPolicy = "skip"

	defaultPersistWorkers   = 3
	defaultPersistQueueSize = 256

	defaultJournalProvider = "memory"

	defaultDevserverListen = ":8000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
			UserID:    defaultClientUserID,
			Timeout:   defaultClientTimeout,
		},
		Chat: ChatConfig{
			MalformedPolicy: defaultMalformedPolicy,
		},
		Persist: PersistConfig{
			Workers:   defaultPersistWorkers,
			QueueSize: defaultPersistQueueSize,
		},
		Journal: JournalConfig{
			Provider: defaultJournalProvider,
		},
		Devserver: DevserverConfig{
			Listen: defaultDevserverListen,
		},
	}
}
