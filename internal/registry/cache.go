package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skillpack-cli/skillpack/internal/types"
)

// loadCache reads the registry cache file. Returns false when no usable
// cache exists; a corrupt cache file is treated as absent.
func (c *Client) loadCache() (*types.CachedRegistry, bool) {
	data, err := os.ReadFile(c.paths.RegistryCacheFile)
	if err != nil {
		return nil, false
	}

	var cached types.CachedRegistry
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("ignoring corrupt registry cache", "path", c.paths.RegistryCacheFile, "error", err)
		return nil, false
	}
	return &cached, true
}

// saveCache persists the registry with the current fetch time. Full
// overwrite; the registry client owns this file exclusively.
func (c *Client) saveCache(reg *types.SkillsRegistry) error {
	cached := types.CachedRegistry{
		FetchedAt: time.Now().UnixMilli(),
		Registry:  *reg,
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.paths.RegistryCacheFile), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(c.paths.RegistryCacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry cache: %w", err)
	}
	return nil
}

func (c *Client) cacheExpired(cached *types.CachedRegistry) bool {
	fetchedAt := time.UnixMilli(cached.FetchedAt)
	return time.Since(fetchedAt) >= c.cfg.CacheTTL
}

// CacheAge returns how long ago the registry cache was written, and whether
// a cache exists at all.
func (c *Client) CacheAge() (time.Duration, bool) {
	cached, ok := c.loadCache()
	if !ok {
		return 0, false
	}
	return time.Since(time.UnixMilli(cached.FetchedAt)), true
}

// ClearCache removes the registry cache file. Missing file is not an error.
func (c *Client) ClearCache() error {
	if err := os.Remove(c.paths.RegistryCacheFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove registry cache: %w", err)
	}
	return nil
}
