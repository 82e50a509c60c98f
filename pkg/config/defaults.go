package config

const (
	defaultStorageDriver = "sqlite"
	defaultSQLitePath    = "companion.db"
	defaultAPIListen     = ":8000"
	defaultRateLimit     = 120
	defaultCORSOrigins   = "*"

	defaultClientAPITarget = "http://localhost:8000"
	defaultClientUserID    = "1"

	defaultMaxMessages      = 50
	defaultMaxContextLength = 15000
	defaultMaxTopics        = 8
	defaultMaxSessions      = 1000
	defaultIdleTimeout      = "1h"
	defaultCleanupInterval  = "10m"

	defaultTransitionRate = 0.3
	defaultNameRate       = 0.3

	defaultFactIncrement  = 0.1
	defaultMaxConfidence  = 1.0
	defaultThemeInitial   = 0.8
	defaultThemeIncrement = 0.1

	defaultNumWorkers = 3
	defaultQueueSize  = 256

	defaultEventStreamDriver = "none"
	defaultKafkaTopic        = "companion.events"
	defaultRedisChannel      = "companion:events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver:     defaultStorageDriver,
			SQLitePath: defaultSQLitePath,
		},
		API: APIConfig{
			Listen:      defaultAPIListen,
			RateLimit:   defaultRateLimit,
			CORSOrigins: defaultCORSOrigins,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
			UserID:    defaultClientUserID,
		},
		Memory: MemoryConfig{
			MaxMessages:      defaultMaxMessages,
			MaxContextLength: defaultMaxContextLength,
			MaxTopics:        defaultMaxTopics,
			MaxSessions:      defaultMaxSessions,
			IdleTimeout:      defaultIdleTimeout,
			CleanupInterval:  defaultCleanupInterval,
		},
		Response: ResponseConfig{
			TransitionRate: defaultTransitionRate,
			NameRate:       defaultNameRate,
		},
		Facts: FactsConfig{
			FactIncrement:  defaultFactIncrement,
			MaxConfidence:  defaultMaxConfidence,
			ThemeInitial:   defaultThemeInitial,
			ThemeIncrement: defaultThemeIncrement,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
		EventStream: EventStreamConfig{
			Driver:       defaultEventStreamDriver,
			KafkaTopic:   defaultKafkaTopic,
			RedisChannel: defaultRedisChannel,
		},
	}
}
