// Package settings persists the client-side configuration: which backend
// to talk to and where downloaded artifacts land.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"remix-console/internal/api"
	"remix-console/internal/store"
)

// EnvBackendURL overrides the stored backend URL when set.
const EnvBackendURL = "REMIX_CONSOLE_URL"

const configDirName = "remix-console"

type Settings struct {
	UpdatedAt  string `json:"updated_at,omitempty"`
	BackendURL string `json:"backend_url,omitempty"`
	// OutputDir is where download writes artifacts when no target is given.
	OutputDir string `json:"output_dir,omitempty"`
	// UploadConcurrency caps concurrent category batches, 0 means default.
	UploadConcurrency int `json:"upload_concurrency,omitempty"`
}

// DefaultPath is the settings file under the user config directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, configDirName, "settings.json"), nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		return path, nil
	}
	return DefaultPath()
}

// Read loads settings from path, or from the default location when path
// is empty. A missing file yields zero settings, not an error.
func Read(path string) (Settings, error) {
	p, err := resolvePath(path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := store.ReadJSON(p, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	return normalize(s), nil
}

// Save normalizes, validates, stamps, and atomically writes the settings,
// returning what was stored.
func Save(path string, s Settings) (Settings, error) {
	p, err := resolvePath(path)
	if err != nil {
		return Settings{}, err
	}
	norm := normalize(s)
	if norm.BackendURL != "" {
		if err := validateBackendURL(norm.BackendURL); err != nil {
			return Settings{}, err
		}
	}
	norm.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := store.WriteJSON(p, norm); err != nil {
		return Settings{}, err
	}
	return norm, nil
}

func normalize(raw Settings) Settings {
	norm := raw
	norm.BackendURL = strings.TrimRight(strings.TrimSpace(norm.BackendURL), "/")
	norm.OutputDir = strings.TrimSpace(norm.OutputDir)
	if norm.UploadConcurrency < 0 {
		norm.UploadConcurrency = 0
	}
	return norm
}

func validateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("backend url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("backend url %q: missing host", raw)
	}
	return nil
}

// ResolveBackendURL decides which backend to talk to: an explicit flag
// beats the environment, which beats the stored setting, which beats the
// built-in default.
func ResolveBackendURL(override string, stored Settings) string {
	if v := strings.TrimSpace(override); v != "" {
		return strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		return strings.TrimRight(v, "/")
	}
	if stored.BackendURL != "" {
		return stored.BackendURL
	}
	return api.DefaultBaseURL
}
