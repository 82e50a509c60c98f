package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent companion configuration stored as
// config.toml in the .companion/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Memory      MemoryConfig      `toml:"memory"`
	Response    ResponseConfig    `toml:"response"`
	Facts       FactsConfig       `toml:"facts"`
	Worker      WorkerConfig      `toml:"worker"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Logging     LoggingConfig     `toml:"logging"`
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	// Driver is one of "inmemory", "sqlite" or "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// RateLimit is the per-IP request budget per minute. Zero disables it.
	RateLimit   int    `toml:"rate_limit,omitempty"`
	CORSOrigins string `toml:"cors_origins,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server (e.g. companion chat). APITarget is a full URL.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	UserID    string `toml:"user_id,omitempty"`
}

// MemoryConfig bounds conversation memory and live sessions.
type MemoryConfig struct {
	MaxMessages      int    `toml:"max_messages,omitempty"`
	MaxContextLength int    `toml:"max_context_length,omitempty"`
	MaxTopics        int    `toml:"max_topics,omitempty"`
	MaxSessions      int    `toml:"max_sessions,omitempty"`
	IdleTimeout      string `toml:"idle_timeout,omitempty"`
	CleanupInterval  string `toml:"cleanup_interval,omitempty"`
}

// ResponseConfig tunes reply composition.
type ResponseConfig struct {
	TransitionRate float64 `toml:"transition_rate,omitempty"`
	NameRate       float64 `toml:"name_rate,omitempty"`

	// Seed fixes template selection when non-zero.
	Seed uint64 `toml:"seed,omitempty"`
}

// FactsConfig tunes how stored facts and themes are reinforced.
type FactsConfig struct {
	FactIncrement  float64 `toml:"fact_increment,omitempty"`
	MaxConfidence  float64 `toml:"max_confidence,omitempty"`
	ThemeInitial   float64 `toml:"theme_initial,omitempty"`
	ThemeIncrement float64 `toml:"theme_increment,omitempty"`
}

// WorkerConfig sizes the persistence worker pool.
type WorkerConfig struct {
	NumWorkers uint `toml:"num_workers,omitempty"`
	QueueSize  uint `toml:"queue_size,omitempty"`
}

// EventStreamConfig selects where conversation events are published.
type EventStreamConfig struct {
	// Driver is one of "none", "kafka" or "redis".
	Driver       string `toml:"driver,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
	RedisURL     string `toml:"redis_url,omitempty"`
	RedisChannel string `toml:"redis_channel,omitempty"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Debug bool `toml:"debug,omitempty"`
	JSON  bool `toml:"json,omitempty"`
	// File receives JSON records alongside console output when set.
	File string `toml:"file,omitempty"`
}

// SplitList splits a comma-separated setting, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseDuration parses a duration setting, returning fallback when empty.
func ParseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatUint(uint64(*field(c)), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("invalid value for %s: %v is outside [0, 1]", name, f)
			}
			*field(c) = f
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

func choiceKey(name string, choices []string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			for _, choice := range choices {
				if v == choice {
					*field(c) = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for %s: %q (available: %s)", name, v, strings.Join(choices, ", "))
		},
	}
}

// Storage and event stream drivers.
var (
	StorageDrivers     = []string{"inmemory", "sqlite", "postgres"}
	EventStreamDrivers = []string{"none", "kafka", "redis"}
)

// orderedKeys lists every supported key in TOML section order.
var orderedKeys = []string{
	"storage.driver",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"api.listen",
	"api.rate_limit",
	"api.cors_origins",
	"client.api_target",
	"client.user_id",
	"memory.max_messages",
	"memory.max_context_length",
	"memory.max_topics",
	"memory.max_sessions",
	"memory.idle_timeout",
	"memory.cleanup_interval",
	"response.transition_rate",
	"response.name_rate",
	"facts.fact_increment",
	"facts.max_confidence",
	"facts.theme_initial",
	"facts.theme_increment",
	"worker.num_workers",
	"worker.queue_size",
	"eventstream.driver",
	"eventstream.kafka_brokers",
	"eventstream.kafka_topic",
	"eventstream.redis_url",
	"eventstream.redis_channel",
	"logging.debug",
	"logging.json",
	"logging.file",
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver":       choiceKey("storage.driver", StorageDrivers, func(c *Config) *string { return &c.Storage.Driver }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"api.listen":       stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.rate_limit":   intKey("api.rate_limit", func(c *Config) *int { return &c.API.RateLimit }),
	"api.cors_origins": stringKey(func(c *Config) *string { return &c.API.CORSOrigins }),

	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"client.user_id":    stringKey(func(c *Config) *string { return &c.Client.UserID }),

	"memory.max_messages":       intKey("memory.max_messages", func(c *Config) *int { return &c.Memory.MaxMessages }),
	"memory.max_context_length": intKey("memory.max_context_length", func(c *Config) *int { return &c.Memory.MaxContextLength }),
	"memory.max_topics":         intKey("memory.max_topics", func(c *Config) *int { return &c.Memory.MaxTopics }),
	"memory.max_sessions":       intKey("memory.max_sessions", func(c *Config) *int { return &c.Memory.MaxSessions }),
	"memory.idle_timeout":       durationKey("memory.idle_timeout", func(c *Config) *string { return &c.Memory.IdleTimeout }),
	"memory.cleanup_interval":   durationKey("memory.cleanup_interval", func(c *Config) *string { return &c.Memory.CleanupInterval }),

	"response.transition_rate": floatKey("response.transition_rate", func(c *Config) *float64 { return &c.Response.TransitionRate }),
	"response.name_rate":       floatKey("response.name_rate", func(c *Config) *float64 { return &c.Response.NameRate }),

	"facts.fact_increment":  floatKey("facts.fact_increment", func(c *Config) *float64 { return &c.Facts.FactIncrement }),
	"facts.max_confidence":  floatKey("facts.max_confidence", func(c *Config) *float64 { return &c.Facts.MaxConfidence }),
	"facts.theme_initial":   floatKey("facts.theme_initial", func(c *Config) *float64 { return &c.Facts.ThemeInitial }),
	"facts.theme_increment": floatKey("facts.theme_increment", func(c *Config) *float64 { return &c.Facts.ThemeIncrement }),

	"worker.num_workers": uintKey("worker.num_workers", func(c *Config) *uint { return &c.Worker.NumWorkers }),
	"worker.queue_size":  uintKey("worker.queue_size", func(c *Config) *uint { return &c.Worker.QueueSize }),

	"eventstream.driver":        choiceKey("eventstream.driver", EventStreamDrivers, func(c *Config) *string { return &c.EventStream.Driver }),
	"eventstream.kafka_brokers": stringKey(func(c *Config) *string { return &c.EventStream.KafkaBrokers }),
	"eventstream.kafka_topic":   stringKey(func(c *Config) *string { return &c.EventStream.KafkaTopic }),
	"eventstream.redis_url":     stringKey(func(c *Config) *string { return &c.EventStream.RedisURL }),
	"eventstream.redis_channel": stringKey(func(c *Config) *string { return &c.EventStream.RedisChannel }),

	"logging.debug": boolKey("logging.debug", func(c *Config) *bool { return &c.Logging.Debug }),
	"logging.json":  boolKey("logging.json", func(c *Config) *bool { return &c.Logging.JSON }),
	"logging.file":  stringKey(func(c *Config) *string { return &c.Logging.File }),
}
