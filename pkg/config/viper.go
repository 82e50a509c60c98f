package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/papercomputeco/companion/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "COMPANION"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the COMPANION_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (COMPANION_API_LISTEN, COMPANION_STORAGE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

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
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves every known key through v's precedence chain and
// returns the resulting Config. Values are validated by the same setters
// used by "companion config set".
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	for _, key := range orderedKeys {
		if err := configKeys[key].set(cfg, v.GetString(key)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	for _, key := range orderedKeys {
		v.SetDefault(key, configKeys[key].get(d))
	}
}

// ChangedKeys lists the keys whose values differ between a and b, in
// ValidConfigKeys order.
func ChangedKeys(a, b *Config) []string {
	var changed []string
	for _, key := range orderedKeys {
		get := configKeys[key].get
		if get(a) != get(b) {
			changed = append(changed, key)
		}
	}
	return changed
}

// WatchConfig calls onChange with the freshly resolved Config and the keys
// that differ from current whenever the config file is written. It does
// nothing when v was not loaded from a file.
func WatchConfig(v *viper.Viper, current *Config, onChange func(next *Config, changed []string, err error)) {
	if v.ConfigFileUsed() == "" {
		return
	}

	var mu sync.Mutex
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		next, err := FromViper(v)
		if err != nil {
			onChange(nil, nil, err)
			return
		}
		changed := ChangedKeys(current, next)
		if len(changed) == 0 {
			return
		}
		current = next
		onChange(next, changed, nil)
	})
	v.WatchConfig()
}
