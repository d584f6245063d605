package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the engine and CLI settings.
type Config struct {
	DBPath          string
	MaxDepth        int
	NodeDecimals    int
	ProjectDecimals int
	LogFile         string
	LogCalls        bool
	Locale          string
}

// DefaultConfig returns a Config with the stock engine settings. DBPath is
// left empty and resolved against the home directory by ResolveDBPath.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        8,
		NodeDecimals:    0,
		ProjectDecimals: 1,
		Locale:          "en",
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for any unset or malformed values.
func Load() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CRONOGRAMA_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CRONOGRAMA_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxDepth = n
		}
	}
	applyDecimalsEnv(&cfg.NodeDecimals, "CRONOGRAMA_NODE_DECIMALS")
	applyDecimalsEnv(&cfg.ProjectDecimals, "CRONOGRAMA_PROJECT_DECIMALS")
	if v := os.Getenv("CRONOGRAMA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("CRONOGRAMA_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("CRONOGRAMA_LOCALE"); v != "" {
		cfg.Locale = v
	}

	return cfg
}

// ResolveDBPath returns DBPath, or ~/.cronograma/cronograma.db when unset.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".cronograma", "cronograma.db"), nil
}

func applyDecimalsEnv(dst *int, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 6 {
		return
	}
	*dst = n
}
