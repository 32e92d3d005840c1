// Package lockfile is the durable record of installed skills. One lock file
// per scope (project-local vs global/home). Reads are self-healing: a
// missing or corrupt file yields a fresh empty lock. Writes go through a
// backup copy plus temp-file rename so an interrupted process never leaves
// a torn lock file.
package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/skillpack-cli/skillpack/internal/types"
)

// CurrentVersion is the lock file schema version. Version 1 predates the
// method/global fields; entries are migrated in memory on read.
const CurrentVersion = 2

// BackupSuffix is appended to the lock path for the previous-version copy.
const BackupSuffix = ".backup"

// Store reads and writes one scope's lock file.
type Store struct {
	path string
}

// Mutating operations on the same lock path are serialized within the
// process. Concurrent invocations of the CLI against the same lock file
// are a documented limitation, not handled here.
var lockMutexes sync.Map

// NewStore creates a store for the lock file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the lock file location.
func (s *Store) Path() string {
	return s.path
}

// Read loads the lock file. Any read or parse failure yields a fresh empty
// lock of the current version; corruption is self-healing, never fatal.
func (s *Store) Read() *types.SkillLockFile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return emptyLock()
	}

	var lock types.SkillLockFile
	if err := json.Unmarshal(data, &lock); err != nil {
		return emptyLock()
	}
	if lock.Version < 1 || lock.Version > CurrentVersion {
		return emptyLock()
	}
	if lock.Skills == nil {
		lock.Skills = make(map[string]types.SkillLockEntry)
	}

	migrate(&lock)
	return &lock
}

// Write persists the lock file: the current on-disk file is copied to a
// .backup sibling (best-effort), the new content goes to a temp file in the
// same directory, and the temp file is renamed over the real path. Write
// failures propagate so callers can warn that the install may be untracked.
func (s *Store) Write(lock *types.SkillLockFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	// Backup is best-effort; there is nothing to back up on first write.
	if prev, err := os.ReadFile(s.path); err == nil {
		_ = os.WriteFile(s.path+BackupSuffix, prev, 0644)
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock file: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary lock file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace lock file: %w", err)
	}
	return nil
}

// AddSkill adds or refreshes one entry. The original installedAt of an
// existing entry is preserved; updatedAt always advances.
func (s *Store) AddSkill(entry types.SkillLockEntry) error {
	mu := s.mutex()
	mu.Lock()
	defer mu.Unlock()

	lock := s.Read()

	now := time.Now()
	if existing, ok := lock.Skills[entry.Name]; ok {
		entry.InstalledAt = existing.InstalledAt
	} else if entry.InstalledAt.IsZero() {
		entry.InstalledAt = now
	}
	entry.UpdatedAt = now
	if entry.Agents == nil {
		entry.Agents = []string{}
	}

	lock.Skills[entry.Name] = entry
	return s.Write(lock)
}

// RemoveSkill deletes one entry. Removing an absent entry is a no-op.
func (s *Store) RemoveSkill(name string) error {
	mu := s.mutex()
	mu.Lock()
	defer mu.Unlock()

	lock := s.Read()
	if _, ok := lock.Skills[name]; !ok {
		return nil
	}
	delete(lock.Skills, name)
	return s.Write(lock)
}

// GetSkill returns one entry, if present.
func (s *Store) GetSkill(name string) (types.SkillLockEntry, bool) {
	entry, ok := s.Read().Skills[name]
	return entry, ok
}

// AllSkills returns every locked entry.
func (s *Store) AllSkills() map[string]types.SkillLockEntry {
	return s.Read().Skills
}

func (s *Store) mutex() *sync.Mutex {
	mu, _ := lockMutexes.LoadOrStore(s.path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func emptyLock() *types.SkillLockFile {
	return &types.SkillLockFile{
		Version: CurrentVersion,
		Skills:  make(map[string]types.SkillLockEntry),
	}
}

// migrate upgrades older entries in memory: missing method defaults to
// copy, global to false, agents to an empty list. The upgraded shape is
// only persisted by the next write.
func migrate(lock *types.SkillLockFile) {
	if lock.Version == CurrentVersion {
		for name, entry := range lock.Skills {
			if entry.Agents == nil {
				entry.Agents = []string{}
				lock.Skills[name] = entry
			}
		}
		return
	}

	for name, entry := range lock.Skills {
		if entry.Method == "" {
			entry.Method = types.MethodCopy
		}
		if entry.Agents == nil {
			entry.Agents = []string{}
		}
		lock.Skills[name] = entry
	}
	lock.Version = CurrentVersion
}
