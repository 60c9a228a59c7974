package remote

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/marcoallegretti/karapace/internal/errs"
)

const keyringService = "karapace-remote"

// RemoteConfig addresses a remote store. The auth token, if any, is never
// written to disk alongside url — it lives in the OS keychain, keyed on the
// trimmed url, so a leaked config file never leaks a credential.
type RemoteConfig struct {
	URL string `json:"url"`
}

// NewRemoteConfig trims a trailing slash from url, matching the original's
// normalization so "https://x/" and "https://x" address the same remote.
func NewRemoteConfig(url string) *RemoteConfig {
	return &RemoteConfig{URL: strings.TrimRight(url, "/")}
}

// SetToken stores token in the OS keychain under this remote's url.
func (c *RemoteConfig) SetToken(token string) error {
	if err := keyring.Set(keyringService, c.URL, token); err != nil {
		return errs.Wrap(errs.ErrRemote, "storing auth token for %s: %w", c.URL, err)
	}
	return nil
}

// Token retrieves this remote's auth token from the OS keychain. It returns
// ("", nil) when no token was ever set, rather than an error, since most
// remotes are unauthenticated.
func (c *RemoteConfig) Token() (string, error) {
	token, err := keyring.Get(keyringService, c.URL)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", nil
		}
		return "", errs.Wrap(errs.ErrRemote, "retrieving auth token for %s: %w", c.URL, err)
	}
	return token, nil
}

// ClearToken removes any stored token for this remote.
func (c *RemoteConfig) ClearToken() error {
	if err := keyring.Delete(keyringService, c.URL); err != nil && err != keyring.ErrNotFound {
		return errs.Wrap(errs.ErrRemote, "clearing auth token for %s: %w", c.URL, err)
	}
	return nil
}

// defaultRemoteConfigPath returns ~/.config/karapace/remote.json.
func defaultRemoteConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrRemote, "resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "karapace", "remote.json"), nil
}

// LoadDefaultRemoteConfig loads the remote config from its default path.
func LoadDefaultRemoteConfig() (*RemoteConfig, error) {
	path, err := defaultRemoteConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadRemoteConfig(path)
}

// LoadRemoteConfig reads and decodes a remote config file.
func LoadRemoteConfig(path string) (*RemoteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRemote, "reading remote config %s: %w", path, err)
	}
	var c RemoteConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errs.Wrap(errs.ErrRemote, "decoding remote config %s: %w", path, err)
	}
	return &c, nil
}

// SaveRemoteConfig writes the remote config file (url only; the token stays
// in the keychain).
func SaveRemoteConfig(path string, c *RemoteConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.ErrRemote, "creating remote config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrRemote, "encoding remote config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrRemote, "writing remote config %s: %w", path, err)
	}
	return nil
}
