// Package config resolves karapace's process-level configuration: where the
// content-addressable store lives and how verbose logging should be, each
// following an env-var-over-YAML-file-over-default chain.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// FileConfig is the on-disk schema of ~/.config/karapace/config.yml.
type FileConfig struct {
	Store string `yaml:"store,omitempty"`
	Log   string `yaml:"log,omitempty"`
}

// RuntimeConfig is the fully resolved configuration karapace runs with.
type RuntimeConfig struct {
	StoreRoot string // root of the content-addressable store
	LogLevel  string // logrus level name
}

// ConfigPath returns the path to the user's config file. A package-level var
// so tests can redirect it, the same pattern the teacher uses for
// RuntimeConfigPath.
var ConfigPath = defaultConfigPath

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrIO, "determining config directory: %w", err)
	}
	return filepath.Join(dir, "karapace", "config.yml"), nil
}

// defaultStoreDir returns the default store root under the user's data/cache
// home, used when neither an env var nor the config file sets one.
func defaultStoreDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrIO, "determining cache directory: %w", err)
	}
	return filepath.Join(dir, "karapace", "store"), nil
}

// Load reads the config file, returning a zero-value FileConfig if it
// doesn't exist.
func Load() (*FileConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return &FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, errs.Wrap(errs.ErrIO, "reading %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrSerialization, "parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to the config file, creating its directory as needed.
func Save(cfg *FileConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.ErrIO, "creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.ErrSerialization, "marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrIO, "writing %s: %w", path, err)
	}
	return nil
}

// Resolve computes the effective RuntimeConfig: env vars take precedence
// over the config file, which takes precedence over built-in defaults.
func Resolve() (*RuntimeConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	storeRoot, err := resolveStoreRoot(cfg.Store)
	if err != nil {
		return nil, err
	}

	return &RuntimeConfig{
		StoreRoot: storeRoot,
		LogLevel:  resolveValue(os.Getenv("KARAPACE_LOG"), cfg.Log, "info"),
	}, nil
}

func resolveStoreRoot(cfgVal string) (string, error) {
	if v := os.Getenv("KARAPACE_STORE"); v != "" {
		return v, nil
	}
	if cfgVal != "" {
		return cfgVal, nil
	}
	return defaultStoreDir()
}

// resolveValue returns the first non-empty value in (env, config, default)
// precedence order.
func resolveValue(envVal, cfgVal, defaultVal string) string {
	if envVal != "" {
		return envVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	return defaultVal
}

// validLogLevels mirrors logrus's parseable level names.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "panic": true,
}

// ValidateLogLevel rejects a level name logrus.ParseLevel would reject,
// giving a clearer error earlier in the resolve chain.
func ValidateLogLevel(level string) error {
	if !validLogLevels[level] {
		return fmt.Errorf("log level %q is not one of trace, debug, info, warn, error, fatal, panic", level)
	}
	return nil
}
