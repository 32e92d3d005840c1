// Package registry fetches the skills catalog from the primary CDN host
// with retry and backoff, falls back to a secondary host, and keeps a
// time-boxed local cache. The client prioritizes availability over
// freshness: a stale catalog is always better than no catalog for an
// offline developer.
package registry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skillpack-cli/skillpack/internal/config"
	"github.com/skillpack-cli/skillpack/internal/types"
)

// Client talks to the catalog hosts. Construct one per CLI invocation; the
// resolved registry is memoized on the instance, not in package state.
type Client struct {
	cfg    config.Config
	paths  config.Paths
	http   *resty.Client
	once   *resty.Client
	logger Logger

	registry *types.SkillsRegistry
}

// NewClient creates a catalog client. The primary transport retries
// transient failures with exponential backoff; the fallback transport makes
// a single attempt.
func NewClient(cfg config.Config, paths config.Paths) *Client {
	primary := resty.New()
	primary.SetTimeout(cfg.Timeout)
	primary.SetRetryCount(cfg.MaxRetries)
	primary.SetRetryWaitTime(cfg.RetryBaseDelay)
	primary.SetRetryMaxWaitTime(cfg.RetryMaxDelay)
	primary.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return isRetryableStatus(r.StatusCode())
	})
	primary.SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
		attempt := 0
		if r != nil && r.Request != nil {
			attempt = r.Request.Attempt - 1
		}
		return withJitter(backoffDelay(cfg.RetryBaseDelay, cfg.RetryMaxDelay, attempt), cfg.RetryMaxDelay), nil
	})
	primary.SetHeader("User-Agent", "skillpack-cli/1.0")

	fallback := resty.New()
	fallback.SetTimeout(cfg.Timeout)
	fallback.SetHeader("User-Agent", "skillpack-cli/1.0")

	if cfg.Proxy != "" {
		primary.SetProxy(cfg.Proxy)
		fallback.SetProxy(cfg.Proxy)
	}

	return &Client{
		cfg:    cfg,
		paths:  paths,
		http:   primary,
		once:   fallback,
		logger: NoOpLogger{},
	}
}

// SetLogger sets the logger. Default is a NoOpLogger.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// isRetryableStatus reports whether an HTTP status is worth retrying.
// 408, 429 and 5xx are transient; any other 4xx is permanent.
func isRetryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

// backoffDelay is base * 2^attempt, capped. Jitter is added separately so
// the deterministic part stays testable.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		return max
	}
	return d
}

func withJitter(d, max time.Duration) time.Duration {
	jittered := d + rand.N(d/2+1)
	if jittered > max {
		return max
	}
	return jittered
}

// FetchRegistry returns the skills catalog.
//
// Resolution order: fresh in-memory copy, fresh cache file (unless
// forceRefresh), primary host with retries, fallback host once, stale cache
// as last resort. Returns an error only when no registry has ever been
// cached and every host is unreachable.
func (c *Client) FetchRegistry(ctx context.Context, forceRefresh bool) (*types.SkillsRegistry, error) {
	if c.registry != nil && !forceRefresh {
		return c.registry, nil
	}

	if !forceRefresh {
		if cached, ok := c.loadCache(); ok && !c.cacheExpired(cached) {
			c.logger.Debug("using cached registry", "path", c.paths.RegistryCacheFile)
			reg := cached.Registry
			c.registry = &reg
			return c.registry, nil
		}
	}

	reg, fetchErr := c.fetchRegistryRemote(ctx)
	if fetchErr == nil {
		if err := c.saveCache(reg); err != nil {
			c.logger.Warn("failed to persist registry cache", "error", err)
		}
		c.registry = reg
		return reg, nil
	}

	c.logger.Warn("registry fetch failed, checking for stale cache", "error", fetchErr)

	if cached, ok := c.loadCache(); ok {
		reg := cached.Registry
		c.registry = &reg
		return c.registry, nil
	}

	return nil, &RegistryError{
		Type:    ErrorTypeUnavailable,
		Message: "registry unavailable and no cache exists",
		Err:     fetchErr,
	}
}

// fetchRegistryRemote pulls and decodes the catalog, primary host first. A
// malformed payload counts the same as a failed fetch, so the fallback host
// still gets its single attempt before the caller resorts to a stale cache.
func (c *Client) fetchRegistryRemote(ctx context.Context) (*types.SkillsRegistry, error) {
	reg, primaryErr := c.getRegistry(ctx, c.http, c.cfg.RegistryURL())
	if primaryErr == nil {
		return reg, nil
	}

	c.logger.Warn("primary registry fetch failed, trying fallback host", "error", primaryErr)

	reg, fallbackErr := c.getRegistry(ctx, c.once, c.cfg.FallbackRegistryURL())
	if fallbackErr == nil {
		return reg, nil
	}

	return nil, &RegistryError{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("both hosts failed (fallback: %v)", fallbackErr),
		Err:     primaryErr,
	}
}

func (c *Client) getRegistry(ctx context.Context, client *resty.Client, url string) (*types.SkillsRegistry, error) {
	body, err := c.get(ctx, client, url)
	if err != nil {
		return nil, err
	}
	return decodeRegistry(body)
}

// DownloadFile fetches one file of one skill through the shared transport:
// primary host with retries, then the fallback host once.
func (c *Client) DownloadFile(ctx context.Context, skillPath, file string) ([]byte, error) {
	return c.fetchWithFallback(ctx, c.cfg.FileURL(skillPath, file), c.cfg.FallbackFileURL(skillPath, file))
}

func (c *Client) fetchWithFallback(ctx context.Context, primaryURL, fallbackURL string) ([]byte, error) {
	body, primaryErr := c.get(ctx, c.http, primaryURL)
	if primaryErr == nil {
		return body, nil
	}

	c.logger.Warn("primary fetch failed, trying fallback host", "url", primaryURL, "error", primaryErr)

	body, fallbackErr := c.get(ctx, c.once, fallbackURL)
	if fallbackErr == nil {
		return body, nil
	}

	return nil, &RegistryError{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("both hosts failed (fallback: %v)", fallbackErr),
		Err:     primaryErr,
	}
}

func (c *Client) get(ctx context.Context, client *resty.Client, url string) ([]byte, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &RegistryError{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("request to %s failed", url),
			Err:     err,
		}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RegistryError{
			Type:    ErrorTypeHTTP,
			Message: fmt.Sprintf("%s returned %d", url, resp.StatusCode()),
		}
	}
	return resp.Body(), nil
}

// GetSkillMetadata looks up one catalog entry by name.
func (c *Client) GetSkillMetadata(ctx context.Context, name string) (*types.SkillMetadata, error) {
	reg, err := c.FetchRegistry(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range reg.Skills {
		if reg.Skills[i].Name == name {
			return &reg.Skills[i], nil
		}
	}
	return nil, &RegistryError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("skill '%s' not found in registry", name),
	}
}

// GetRemoteSkills returns all catalog entries.
func (c *Client) GetRemoteSkills(ctx context.Context) ([]types.SkillMetadata, error) {
	reg, err := c.FetchRegistry(ctx, false)
	if err != nil {
		return nil, err
	}
	return reg.Skills, nil
}

// CategoryInfo is a catalog category together with its id.
type CategoryInfo struct {
	ID          string
	Name        string
	Description string
}

// GetRemoteCategories returns the catalog categories sorted by display name.
func (c *Client) GetRemoteCategories(ctx context.Context) ([]CategoryInfo, error) {
	reg, err := c.FetchRegistry(ctx, false)
	if err != nil {
		return nil, err
	}

	categories := make([]CategoryInfo, 0, len(reg.Categories))
	for id, cat := range reg.Categories {
		categories = append(categories, CategoryInfo{
			ID:          id,
			Name:        cat.Name,
			Description: cat.Description,
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}
