// Package config resolves the engine configuration and on-disk layout for
// one CLI invocation. Values come from viper (config file plus SKILLPACK_*
// environment overrides) with hard defaults matching the hosted catalog.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	// DefaultRegistryURL is the primary CDN root for catalog and skill files.
	DefaultRegistryURL = "https://cdn.skillpack.dev/catalog"
	// DefaultFallbackURL is the secondary host, tried once after the primary
	// retry budget is exhausted.
	DefaultFallbackURL = "https://raw.githubusercontent.com/skillpack-cli/skills-catalog"
	// DefaultRef is the catalog version/ref used to build CDN URLs. The
	// SKILLPACK_REGISTRY_REF environment variable overrides it.
	DefaultRef = "main"

	// RegistryFile is the catalog file name under <base>/<ref>/.
	RegistryFile = "skills-registry.json"

	configDirName = ".skillpack"
)

// Config carries the tunables of the registry client and downloader.
type Config struct {
	PrimaryBaseURL string
	FallbackURL    string
	Ref            string
	Proxy          string

	Timeout                time.Duration
	MaxRetries             int
	RetryBaseDelay         time.Duration
	RetryMaxDelay          time.Duration
	MaxConcurrentDownloads int
	CacheTTL               time.Duration
}

// Default returns the built-in configuration, before viper overlays.
func Default() Config {
	return Config{
		PrimaryBaseURL:         DefaultRegistryURL,
		FallbackURL:            DefaultFallbackURL,
		Ref:                    DefaultRef,
		Timeout:                15 * time.Second,
		MaxRetries:             3,
		RetryBaseDelay:         500 * time.Millisecond,
		RetryMaxDelay:          8 * time.Second,
		MaxConcurrentDownloads: 10,
		CacheTTL:               24 * time.Hour,
	}
}

// Load overlays viper-resolved settings on the defaults.
func Load() Config {
	cfg := Default()
	if v := viper.GetString("registry_url"); v != "" {
		cfg.PrimaryBaseURL = v
	}
	if v := viper.GetString("fallback_url"); v != "" {
		cfg.FallbackURL = v
	}
	if v := viper.GetString("registry_ref"); v != "" {
		cfg.Ref = v
	}
	cfg.Proxy = viper.GetString("proxy")
	return cfg
}

// RegistryURL builds the primary catalog URL for the configured ref.
func (c Config) RegistryURL() string {
	return fmt.Sprintf("%s/%s/%s", c.PrimaryBaseURL, c.Ref, RegistryFile)
}

// FallbackRegistryURL builds the secondary catalog URL.
func (c Config) FallbackRegistryURL() string {
	return fmt.Sprintf("%s/%s/%s", c.FallbackURL, c.Ref, RegistryFile)
}

// FileURL builds the primary URL for one file of one skill.
func (c Config) FileURL(skillPath, file string) string {
	return fmt.Sprintf("%s/%s/skills/%s/%s", c.PrimaryBaseURL, c.Ref, skillPath, file)
}

// FallbackFileURL builds the secondary URL for one file of one skill.
func (c Config) FallbackFileURL(skillPath, file string) string {
	return fmt.Sprintf("%s/%s/skills/%s/%s", c.FallbackURL, c.Ref, skillPath, file)
}

// Paths is the on-disk layout. The cache root holds the registry cache file
// and the skills cache subdirectory; the home directory holds the global
// lock file and the global canonical skill copies.
type Paths struct {
	CacheRoot         string
	RegistryCacheFile string
	SkillsCacheDir    string

	HomeDir    string
	GlobalDir  string // ~/.skillpack
	GlobalLock string
}

// ResolvePaths builds the default layout from the XDG cache home and the
// user home directory.
func ResolvePaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	cacheRoot := filepath.Join(xdg.CacheHome, "skillpack")
	globalDir := filepath.Join(home, configDirName)
	return Paths{
		CacheRoot:         cacheRoot,
		RegistryCacheFile: filepath.Join(cacheRoot, "registry-cache.json"),
		SkillsCacheDir:    filepath.Join(cacheRoot, "skills"),
		HomeDir:           home,
		GlobalDir:         globalDir,
		GlobalLock:        filepath.Join(globalDir, "skills-lock.json"),
	}, nil
}

// ProjectLock is the project-scope lock file path under projectDir.
func ProjectLock(projectDir string) string {
	return filepath.Join(projectDir, ".skillpack-lock.json")
}

// CanonicalDir is the canonical shared-copy root for a scope: one full copy
// of a skill lives here and every agent target in the same scope symlinks
// to it.
func (p Paths) CanonicalDir(global bool, projectDir string) string {
	if global {
		return filepath.Join(p.GlobalDir, "skills")
	}
	return filepath.Join(projectDir, configDirName, "skills")
}
