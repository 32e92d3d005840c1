// Package downloader pulls a skill's file set into the local cache through
// the registry client's transport, in bounded-concurrency batches, and
// writes a content-hash sidecar used for later update diffing.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/skillpack-cli/skillpack/internal/config"
	"github.com/skillpack-cli/skillpack/internal/pathsafe"
	"github.com/skillpack-cli/skillpack/internal/registry"
	"github.com/skillpack-cli/skillpack/internal/types"
)

const (
	// EntryPointFile is the document every skill must carry. Its presence
	// at the sanitized cache path, not directory existence, defines
	// "cached locally".
	EntryPointFile = "SKILL.md"

	// SidecarFile is the per-skill cache metadata, written only after the
	// whole file set downloads successfully.
	SidecarFile = ".skill-meta.json"
)

// Downloader owns the per-skill cache directories and their sidecar files.
type Downloader struct {
	client    *registry.Client
	cacheDir  string
	batchSize int
	logger    Logger
}

// New creates a Downloader over the registry client's transport.
func New(client *registry.Client, cfg config.Config, paths config.Paths) *Downloader {
	batch := cfg.MaxConcurrentDownloads
	if batch < 1 {
		batch = 1
	}
	return &Downloader{
		client:    client,
		cacheDir:  paths.SkillsCacheDir,
		batchSize: batch,
		logger:    NoOpLogger{},
	}
}

// SetLogger sets the logger. Default is a NoOpLogger.
func (d *Downloader) SetLogger(logger Logger) {
	d.logger = logger
}

// SkillCachePath is the sanitized cache directory for a skill name.
func (d *Downloader) SkillCachePath(name string) string {
	return filepath.Join(d.cacheDir, pathsafe.Sanitize(name))
}

// IsSkillCached reports whether the skill's entry-point file exists at its
// cache path. Partial download leftovers do not count.
func (d *Downloader) IsSkillCached(name string) bool {
	_, err := os.Stat(filepath.Join(d.SkillCachePath(name), EntryPointFile))
	return err == nil
}

// DownloadSkill pulls every file of the skill into its cache directory.
// Files are fetched in sequential batches of batchSize, all fetches within
// a batch concurrent. If any file fails the whole download fails; files
// already on disk are kept for inspection but the sidecar is not written,
// so the skill stays "not cached" and a retry re-attempts everything.
func (d *Downloader) DownloadSkill(ctx context.Context, skill *types.SkillMetadata) (string, error) {
	skillDir := d.SkillCachePath(skill.Name)
	if !pathsafe.IsPathSafe(d.cacheDir, skillDir) {
		return "", &DownloadError{
			Type:    ErrorTypeSecurity,
			Message: fmt.Sprintf("skill '%s' resolves outside the cache directory", skill.Name),
		}
	}

	if err := os.MkdirAll(skillDir, 0755); err != nil {
		return "", &DownloadError{
			Type:    ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to create cache directory for '%s'", skill.Name),
			Err:     err,
		}
	}

	total := len(skill.Files)
	downloaded := 0

	for _, batch := range partitionFiles(skill.Files, d.batchSize) {
		var wg sync.WaitGroup
		var mu sync.Mutex

		for _, file := range batch {
			wg.Add(1)
			go func(file string) {
				defer wg.Done()

				if err := d.downloadFile(ctx, skill, skillDir, file); err != nil {
					d.logger.Warn("file download failed", "skill", skill.Name, "file", file, "error", err)
					return
				}

				mu.Lock()
				downloaded++
				mu.Unlock()
			}(file)
		}
		wg.Wait()
	}

	if downloaded < total {
		return "", &DownloadError{
			Type:    ErrorTypePartial,
			Message: fmt.Sprintf("only %d/%d files downloaded successfully for skill '%s'", downloaded, total, skill.Name),
		}
	}

	if skill.ContentHash != "" {
		if localHash, err := ComputeContentHash(skillDir, skill.Files); err == nil && localHash != skill.ContentHash {
			d.logger.Warn("downloaded content does not match registry hash",
				"skill", skill.Name, "registry", skill.ContentHash, "local", localHash)
		}
		if err := d.writeSidecar(skillDir, skill.ContentHash); err != nil {
			return "", err
		}
	}

	d.logger.Info("skill downloaded", "skill", skill.Name, "files", total, "path", skillDir)
	return skillDir, nil
}

// EnsureSkillDownloaded returns the cache path, downloading first if the
// skill is not cached yet.
func (d *Downloader) EnsureSkillDownloaded(ctx context.Context, name string) (string, error) {
	if d.IsSkillCached(name) {
		return d.SkillCachePath(name), nil
	}

	skill, err := d.client.GetSkillMetadata(ctx, name)
	if err != nil {
		return "", &DownloadError{
			Type:    ErrorTypeMetadata,
			Message: fmt.Sprintf("no metadata for skill '%s'", name),
			Err:     err,
		}
	}
	return d.DownloadSkill(ctx, skill)
}

// ForceDownloadSkill clears the skill's cache directory and re-downloads
// unconditionally. Used by explicit update commands.
func (d *Downloader) ForceDownloadSkill(ctx context.Context, name string) (string, error) {
	skill, err := d.client.GetSkillMetadata(ctx, name)
	if err != nil {
		return "", &DownloadError{
			Type:    ErrorTypeMetadata,
			Message: fmt.Sprintf("no metadata for skill '%s'", name),
			Err:     err,
		}
	}

	skillDir := d.SkillCachePath(name)
	if pathsafe.IsPathSafe(d.cacheDir, skillDir) {
		if err := os.RemoveAll(skillDir); err != nil {
			return "", &DownloadError{
				Type:    ErrorTypeFilesystem,
				Message: fmt.Sprintf("failed to clear cache for '%s'", name),
				Err:     err,
			}
		}
	}
	return d.DownloadSkill(ctx, skill)
}

// ReadSkillMeta reads the skill's cache sidecar, if present.
func (d *Downloader) ReadSkillMeta(name string) (*types.CachedSkillMeta, bool) {
	data, err := os.ReadFile(filepath.Join(d.SkillCachePath(name), SidecarFile))
	if err != nil {
		return nil, false
	}

	var meta types.CachedSkillMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// CachedSkillCount counts cache directories holding an entry-point file.
func (d *Downloader) CachedSkillCount() int {
	entries, err := os.ReadDir(d.cacheDir)
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() && d.IsSkillCached(entry.Name()) {
			count++
		}
	}
	return count
}

// ClearCache removes every per-skill cache directory.
func (d *Downloader) ClearCache() error {
	if err := os.RemoveAll(d.cacheDir); err != nil {
		return &DownloadError{
			Type:    ErrorTypeFilesystem,
			Message: "failed to clear skills cache",
			Err:     err,
		}
	}
	return nil
}

func (d *Downloader) downloadFile(ctx context.Context, skill *types.SkillMetadata, skillDir, file string) error {
	dest := filepath.Join(skillDir, filepath.FromSlash(file))
	if !pathsafe.IsPathSafe(skillDir, dest) {
		return &DownloadError{
			Type:    ErrorTypeSecurity,
			Message: fmt.Sprintf("file '%s' escapes the skill directory", file),
		}
	}

	data, err := d.client.DownloadFile(ctx, skill.Path, file)
	if err != nil {
		return &DownloadError{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to fetch '%s'", file),
			Err:     err,
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return &DownloadError{
			Type:    ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to create directory for '%s'", file),
			Err:     err,
		}
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return &DownloadError{
			Type:    ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to write '%s'", file),
			Err:     err,
		}
	}
	return nil
}

func (d *Downloader) writeSidecar(skillDir, contentHash string) error {
	meta := types.CachedSkillMeta{
		ContentHash:  contentHash,
		DownloadedAt: time.Now(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &DownloadError{
			Type:    ErrorTypeFilesystem,
			Message: "failed to marshal skill sidecar",
			Err:     err,
		}
	}
	if err := os.WriteFile(filepath.Join(skillDir, SidecarFile), data, 0644); err != nil {
		return &DownloadError{
			Type:    ErrorTypeFilesystem,
			Message: "failed to write skill sidecar",
			Err:     err,
		}
	}
	return nil
}

// partitionFiles splits files into consecutive batches of at most size.
func partitionFiles(files []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}
	return batches
}
