package types

import "time"

// InstallMethod is how a skill's content reaches an agent directory.
type InstallMethod string

const (
	MethodCopy    InstallMethod = "copy"
	MethodSymlink InstallMethod = "symlink"
)

// SkillMetadata is one catalog entry. Immutable once fetched; the server
// regenerates the whole registry between publishes.
type SkillMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Path        string   `json:"path"`
	Files       []string `json:"files"`
	Author      string   `json:"author,omitempty"`
	Version     string   `json:"version,omitempty"`
	ContentHash string   `json:"contentHash,omitempty"`
}

// Category describes one catalog category.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SkillsRegistry is the unit of catalog truth, fetched as a whole and
// never partially updated.
type SkillsRegistry struct {
	Version     string              `json:"version"`
	GeneratedAt time.Time           `json:"generatedAt"`
	BaseURL     string              `json:"baseUrl"`
	Categories  map[string]Category `json:"categories"`
	Skills      []SkillMetadata     `json:"skills"`
}

// CachedRegistry is the on-disk registry cache. FetchedAt is unix
// milliseconds.
type CachedRegistry struct {
	FetchedAt int64          `json:"fetchedAt"`
	Registry  SkillsRegistry `json:"registry"`
}

// CachedSkillMeta is the per-skill sidecar written only after a skill's
// entire file set downloads successfully.
type CachedSkillMeta struct {
	ContentHash  string    `json:"contentHash"`
	DownloadedAt time.Time `json:"downloadedAt"`
}

// SkillLockEntry records one installed skill for one lock scope.
type SkillLockEntry struct {
	Name        string        `json:"name"`
	Source      string        `json:"source"`
	ContentHash string        `json:"contentHash,omitempty"`
	InstalledAt time.Time     `json:"installedAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Agents      []string      `json:"agents"`
	Method      InstallMethod `json:"method"`
	Global      bool          `json:"global"`
	Version     string        `json:"version,omitempty"`
}

// SkillLockFile is the durable record of installed skills for one scope.
type SkillLockFile struct {
	Version int                       `json:"version"`
	Skills  map[string]SkillLockEntry `json:"skills"`
}

// InstallResult is the per (skill, agent) outcome of an install operation.
// Ephemeral; only its effect on the lock entry is persisted.
type InstallResult struct {
	Agent             string        `json:"agent"`
	Skill             string        `json:"skill"`
	Path              string        `json:"path"`
	Method            InstallMethod `json:"method"`
	Success           bool          `json:"success"`
	Error             string        `json:"error,omitempty"`
	UsedGlobalSymlink bool          `json:"usedGlobalSymlink,omitempty"`
	SymlinkFailed     bool          `json:"symlinkFailed,omitempty"`
}
