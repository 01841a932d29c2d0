package config

import (
	"os"
	"path/filepath"
)

// Dir returns the XDG config directory for ScriptFlow (~/.config/scriptflow
// by default), creating it if needed. XDG_CONFIG_HOME is respected.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}

	dir := filepath.Join(base, "scriptflow")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// Path returns the full path of the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SessionDBPath returns the session database location for a config,
// defaulting to sessions.db under the config directory.
func SessionDBPath(cfg *Config) (string, error) {
	if cfg.SessionDB != "" {
		return cfg.SessionDB, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.db"), nil
}
