// Package config the crumb configuration
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/shiroyk/crumb/api"
	"github.com/shiroyk/crumb/cache/bolt"
	"github.com/shiroyk/crumb/cache/redis"
	"github.com/shiroyk/crumb/cache/sqlite"
	"github.com/shiroyk/crumb/fetch"
	"github.com/shiroyk/crumb/lib/utils"
)

const (
	// DefaultPath the default configuration file path
	DefaultPath = "~/.config/crumb/config.yml"
	// EnvPrefix of the environment variables overriding the file,
	// e.g. CRUMB_JAR_STORE, CRUMB_FETCH_RETRY_TIMES.
	EnvPrefix = "CRUMB_"
)

// The cookie stores of Jar.Store
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type configKey struct{}

// NewContext returns a context that contains the given Config.
func NewContext(ctx context.Context, config Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// FromContext returns the Config stored in ctx by NewContext, or the default
// Config if there is none.
func FromContext(ctx context.Context) Config {
	if config, ok := ctx.Value(configKey{}).(Config); ok {
		return config
	}
	return *DefaultConfig()
}

// Jar the cookie jar configuration
type Jar struct {
	// Store one of memory, bolt, sqlite, redis.
	Store string `yaml:"store" env:"STORE"`
	// PublicSuffix rejects cookies whose Domain is a public suffix.
	PublicSuffix bool           `yaml:"public-suffix" env:"PUBLIC_SUFFIX"`
	Bolt         bolt.Options   `yaml:"bolt" envPrefix:"BOLT_"`
	SQLite       sqlite.Options `yaml:"sqlite" envPrefix:"SQLITE_"`
	Redis        redis.Options  `yaml:"redis" envPrefix:"REDIS_"`
}

// Log the logger configuration
type Log struct {
	// Level one of debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
}

// Config The crumb configuration
type Config struct {
	// Jar
	Jar Jar `yaml:"jar" envPrefix:"JAR_"`

	// Fetch
	Fetch fetch.Options `yaml:"fetch" envPrefix:"FETCH_"`

	// API
	API api.Options `yaml:"api" envPrefix:"API_"`

	// Log
	Log Log `yaml:"log" envPrefix:"LOG_"`
}

// Validate reports an unknown store.
func (c *Config) Validate() error {
	switch c.Jar.Store {
	case StoreMemory, StoreBolt, StoreSQLite, StoreRedis:
		return nil
	}
	return fmt.Errorf("unknown jar store %q, expected one of memory, bolt, sqlite, redis", c.Jar.Store)
}

// DefaultConfig The default configuration
func DefaultConfig() *Config {
	return &Config{
		// every command run is a new process, so the stores keep the
		// session cookies
		Jar: Jar{
			Store:        StoreBolt,
			PublicSuffix: true,
			Bolt: bolt.Options{
				Path:          bolt.DefaultPath,
				SweepInterval: bolt.DefaultSweepInterval,
				KeepSession:   true,
			},
			SQLite: sqlite.Options{
				Path:        sqlite.DefaultPath,
				KeepSession: true,
			},
			Redis: redis.Options{
				URL:         redis.DefaultURL,
				Prefix:      redis.DefaultPrefix,
				Timeout:     redis.DefaultTimeout,
				KeepSession: true,
			},
		},
		Fetch: fetch.Options{
			MaxBodySize:    fetch.DefaultMaxBodySize,
			RetryTimes:     fetch.DefaultRetryTimes,
			RetryHTTPCodes: fetch.DefaultRetryHTTPCodes,
			Timeout:        fetch.DefaultTimeout,
		},
		API: api.Options{
			Timeout: api.DefaultTimeout,
			Address: api.DefaultAddress,
		},
		Log: Log{Level: "info"},
	}
}

// ReadConfig read configuration from the file, absent fields keep the
// default values, then the CRUMB_ environment variables override it.
// If the configuration file is not existing then create it with default configuration.
func ReadConfig(path string) (*Config, error) {
	file, err := utils.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	if _, err = os.Stat(file); errors.Is(err, os.ErrNotExist) {
		if err = utils.WriteYaml(file, config); err != nil {
			return nil, err
		}
	} else if err = utils.ReadYaml(file, config); err != nil {
		return nil, err
	}

	if err = env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WriteConfig writes the default configuration to the file,
// fails if the file already exists.
func WriteConfig(path string) error {
	file, err := utils.ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err = os.Stat(file); err == nil {
		return errors.New("configuration file is already exists")
	}
	return utils.WriteYaml(file, DefaultConfig())
}
