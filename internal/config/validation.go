package config

import "fmt"

// Validate checks the loaded configuration for self-consistent values,
// matching the teacher's dedicated per-section validator pattern
// (`validateServer`, `validateWatcher`, etc).
func Validate(cfg *Config) error {
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	if err := validateFallback(&cfg.Fallback); err != nil {
		return err
	}
	if err := validateWatcher(&cfg.Watcher); err != nil {
		return err
	}
	if err := validatePool(&cfg.Pool); err != nil {
		return err
	}
	for i, sc := range cfg.Servers {
		if err := validateServerConfig(i, &sc); err != nil {
			return err
		}
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug|info|warn|error, got %q", cfg.Level)
	}
	switch cfg.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console|json, got %q", cfg.Format)
	}
	return nil
}

func validateFallback(cfg *FallbackConfig) error {
	if cfg.DialTimeoutSec <= 0 {
		return fmt.Errorf("fallback.dial_timeout_sec must be positive, got %d", cfg.DialTimeoutSec)
	}
	return nil
}

func validateWatcher(cfg *WatcherConfig) error {
	if cfg.Enabled && cfg.DebounceMS < 0 {
		return fmt.Errorf("watcher.debounce_ms must not be negative, got %d", cfg.DebounceMS)
	}
	return nil
}

func validatePool(cfg *PoolConfig) error {
	if cfg.Enabled && cfg.ReplicaCount < 1 {
		return fmt.Errorf("pool.replica_count must be at least 1 when pool.enabled is true, got %d", cfg.ReplicaCount)
	}
	return nil
}

func validateServerConfig(index int, cfg *ServerConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("servers[%d].name must not be empty", index)
	}
	switch cfg.Kind {
	case "local":
		if cfg.Command == "" {
			return fmt.Errorf("servers[%d] (%s): kind local requires command", index, cfg.Name)
		}
	case "socket":
		if cfg.Network == "" || cfg.Address == "" {
			return fmt.Errorf("servers[%d] (%s): kind socket requires network and address", index, cfg.Name)
		}
	case "websocket":
		if cfg.URL == "" {
			return fmt.Errorf("servers[%d] (%s): kind websocket requires url", index, cfg.Name)
		}
	case "container":
		if cfg.Image == "" {
			return fmt.Errorf("servers[%d] (%s): kind container requires image", index, cfg.Name)
		}
	default:
		return fmt.Errorf("servers[%d] (%s): unknown kind %q", index, cfg.Name, cfg.Kind)
	}
	return nil
}
