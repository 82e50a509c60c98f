package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/companion/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	path, err := cfger.ddm.Path(override, configFile)
	if err != nil {
		return nil, err
	}

	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in TOML
// section order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .companion/ directory.
// A missing file yields NewDefaultConfig(). Fields explicitly set in the
// file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fillString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}
	fillFloat := func(dst *float64, def float64) {
		if *dst == 0 {
			*dst = def
		}
	}
	fillUint := func(dst *uint, def uint) {
		if *dst == 0 {
			*dst = def
		}
	}

	fillString(&cfg.Storage.Driver, d.Storage.Driver)
	fillString(&cfg.Storage.SQLitePath, d.Storage.SQLitePath)

	fillString(&cfg.API.Listen, d.API.Listen)
	fillInt(&cfg.API.RateLimit, d.API.RateLimit)
	fillString(&cfg.API.CORSOrigins, d.API.CORSOrigins)

	fillString(&cfg.Client.APITarget, d.Client.APITarget)
	fillString(&cfg.Client.UserID, d.Client.UserID)

	fillInt(&cfg.Memory.MaxMessages, d.Memory.MaxMessages)
	fillInt(&cfg.Memory.MaxContextLength, d.Memory.MaxContextLength)
	fillInt(&cfg.Memory.MaxTopics, d.Memory.MaxTopics)
	fillInt(&cfg.Memory.MaxSessions, d.Memory.MaxSessions)
	fillString(&cfg.Memory.IdleTimeout, d.Memory.IdleTimeout)
	fillString(&cfg.Memory.CleanupInterval, d.Memory.CleanupInterval)

	fillFloat(&cfg.Response.TransitionRate, d.Response.TransitionRate)
	fillFloat(&cfg.Response.NameRate, d.Response.NameRate)

	fillFloat(&cfg.Facts.FactIncrement, d.Facts.FactIncrement)
	fillFloat(&cfg.Facts.MaxConfidence, d.Facts.MaxConfidence)
	fillFloat(&cfg.Facts.ThemeInitial, d.Facts.ThemeInitial)
	fillFloat(&cfg.Facts.ThemeIncrement, d.Facts.ThemeIncrement)

	fillUint(&cfg.Worker.NumWorkers, d.Worker.NumWorkers)
	fillUint(&cfg.Worker.QueueSize, d.Worker.QueueSize)

	fillString(&cfg.EventStream.Driver, d.EventStream.Driver)
	fillString(&cfg.EventStream.KafkaTopic, d.EventStream.KafkaTopic)
	fillString(&cfg.EventStream.RedisChannel, d.EventStream.RedisChannel)
}

// SaveConfig persists the configuration to config.toml in the target .companion/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// DefaultConfigValue returns the built-in default for key.
func DefaultConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}
	return info.get(NewDefaultConfig()), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
