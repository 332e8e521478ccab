// Package config loads runtime configuration for the client: default
// server candidates, fallback policy, file-watcher and pool settings, and
// logging setup, following the teacher's viper-backed
// load/defaults/validate pattern. It holds no initialization options.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for an lspclient process.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Fallback   FallbackConfig   `mapstructure:"fallback"`
	Watcher    WatcherConfig    `mapstructure:"watcher"`
	Servers    []ServerConfig   `mapstructure:"servers"`
	Pool       PoolConfig       `mapstructure:"pool"`
}

// LoggingConfig controls the zerolog logger threaded through every
// component.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// FallbackConfig controls the server-candidate fallback chain.
type FallbackConfig struct {
	AutoInstall    bool `mapstructure:"auto_install"`
	DialTimeoutSec int  `mapstructure:"dial_timeout_sec"`
}

// WatcherConfig controls the didChangeWatchedFiles file watcher.
type WatcherConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	DebounceMS     int      `mapstructure:"debounce_ms"`
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// PoolConfig controls pool-based supervision.
type PoolConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	ReplicaCount int  `mapstructure:"replica_count"`
}

// ServerConfig is one entry of the default server-candidate list, read
// from YAML and converted to a supervisor.Candidate by ToCandidate in
// this package.
type ServerConfig struct {
	Name    string   `mapstructure:"name"`
	Kind    string   `mapstructure:"kind"` // local, socket, websocket, container
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Probe   string   `mapstructure:"probe"`
	Network string   `mapstructure:"network"`
	Address string   `mapstructure:"address"`
	URL     string   `mapstructure:"url"`
	Image   string   `mapstructure:"image"`
}

// DefaultWatcherIgnorePatterns mirrors the teacher's defaults, adjusted
// for a generic workspace rather than a single repository checkout.
var DefaultWatcherIgnorePatterns = []string{
	".git",
	"node_modules",
	"vendor",
	".venv",
	"__pycache__",
	"dist",
	"build",
}

// Load reads configuration from configPath (or the default search paths
// when empty), overlaying environment variables prefixed LSPCLIENT_ and
// defaults set by setDefaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("lspclient")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lspclient")
		v.AddConfigPath("/etc/lspclient")
	}

	v.SetEnvPrefix("LSPCLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("fallback.auto_install", true)
	v.SetDefault("fallback.dial_timeout_sec", 30)

	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.debounce_ms", 250)
	v.SetDefault("watcher.ignore_patterns", DefaultWatcherIgnorePatterns)

	v.SetDefault("pool.enabled", false)
	v.SetDefault("pool.replica_count", 1)
}
