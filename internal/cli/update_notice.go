package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"remix-console/internal/api"
	"remix-console/internal/logx"
	"remix-console/internal/model"
	"remix-console/internal/settings"
	"remix-console/internal/store"
)

const (
	updateCheckInterval      = 24 * time.Hour
	updateNotificationWindow = 12 * time.Hour
	updateCheckTimeout       = 2 * time.Second

	envDisableUpdateNotice = "REMIX_CONSOLE_NO_UPDATE_NOTICE"
)

type updateNoticeCache struct {
	LastChecked  string `json:"last_checked,omitempty"`
	HasUpdate    bool   `json:"has_update,omitempty"`
	Ahead        int    `json:"ahead,omitempty"`
	LastNotified string `json:"last_notified,omitempty"`
}

// maybePrintUpdateHint nudges toward `remix-console update` when the
// backend reports it is behind its remote. The check is throttled through
// an on-disk cache and must never fail a command, so every error path
// just returns.
func maybePrintUpdateHint(args []string) {
	if shouldSkipUpdateHint(args) {
		return
	}

	cachePath, err := updateNoticeCachePath()
	if err != nil {
		return
	}

	cache := loadUpdateNoticeCache(cachePath)
	now := time.Now().UTC()

	lastChecked, hasLastChecked := parseRFC3339(cache.LastChecked)
	if !hasLastChecked || now.Sub(lastChecked) >= updateCheckInterval {
		check, fetchErr := fetchUpdateCheck()
		if fetchErr == nil && check.Error == "" {
			cache.HasUpdate = check.HasUpdate
			cache.Ahead = check.Ahead
			cache.LastChecked = now.Format(time.RFC3339)
			saveUpdateNoticeCache(cachePath, cache)
		}
	}
	if !cache.HasUpdate {
		return
	}

	lastNotified, hasLastNotified := parseRFC3339(cache.LastNotified)
	if hasLastNotified && now.Sub(lastNotified) < updateNotificationWindow {
		return
	}

	fmt.Fprintf(os.Stderr, "backend update available: %d commit(s) behind. Run: remix-console update\n", cache.Ahead)
	cache.LastNotified = now.Format(time.RFC3339)
	saveUpdateNoticeCache(cachePath, cache)
}

func shouldSkipUpdateHint(args []string) bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envDisableUpdateNotice)), "1") {
		return true
	}
	if len(args) == 0 {
		return true
	}
	if args[0] == "update" {
		return true
	}
	for _, arg := range args {
		trimmed := strings.TrimSpace(arg)
		if trimmed == "--json" || strings.HasPrefix(trimmed, "--json=") {
			return true
		}
	}
	return false
}

func updateNoticeCachePath() (string, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil || strings.TrimSpace(cacheRoot) == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", homeErr
		}
		cacheRoot = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheRoot, "remix-console", "update-check.json"), nil
}

func loadUpdateNoticeCache(cachePath string) updateNoticeCache {
	var cache updateNoticeCache
	if err := store.ReadJSON(cachePath, &cache); err != nil {
		return updateNoticeCache{}
	}
	return cache
}

func saveUpdateNoticeCache(cachePath string, cache updateNoticeCache) {
	_ = store.WriteJSON(cachePath, cache)
}

func parseRFC3339(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// fetchUpdateCheck asks the backend with a short budget so a slow or
// absent backend cannot stall the command that just finished.
func fetchUpdateCheck() (model.UpdateCheck, error) {
	stored, err := settings.Read("")
	if err != nil {
		stored = settings.Settings{}
	}
	client := api.New(api.Options{
		BaseURL:        settings.ResolveBackendURL("", stored),
		RequestTimeout: updateCheckTimeout,
		Logger:         logx.Nop(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
	defer cancel()
	return client.CheckUpdate(ctx)
}
