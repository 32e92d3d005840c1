package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skillpack-cli/skillpack/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "skills-lock.json"))
}

func TestReadSelfHealing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{
			name:  "missing file",
			setup: func(t *testing.T, path string) {},
		},
		{
			name: "corrupt JSON",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
					t.Fatalf("setup: %v", err)
				}
			},
		},
		{
			name: "wrong shape",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte(`["array"]`), 0644); err != nil {
					t.Fatalf("setup: %v", err)
				}
			},
		},
		{
			name: "unknown future version",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte(`{"version": 99, "skills": {}}`), 0644); err != nil {
					t.Fatalf("setup: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			tt.setup(t, store.Path())

			lock := store.Read()
			if lock == nil {
				t.Fatal("Read() returned nil")
			}
			if lock.Version != CurrentVersion {
				t.Errorf("version = %d, want %d", lock.Version, CurrentVersion)
			}
			if lock.Skills == nil || len(lock.Skills) != 0 {
				t.Errorf("skills = %v, want empty map", lock.Skills)
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	installedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	lock := &types.SkillLockFile{
		Version: CurrentVersion,
		Skills: map[string]types.SkillLockEntry{
			"api-designer": {
				Name:        "api-designer",
				Source:      "registry",
				ContentHash: "sha256:abc",
				InstalledAt: installedAt,
				UpdatedAt:   updatedAt,
				Agents:      []string{"claude", "cursor"},
				Method:      types.MethodSymlink,
				Global:      true,
				Version:     "1.2.0",
			},
		},
	}

	if err := store.Write(lock); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := store.Read()
	entry, ok := got.Skills["api-designer"]
	if !ok {
		t.Fatal("entry missing after round trip")
	}
	want := lock.Skills["api-designer"]
	if entry.Name != want.Name || entry.Source != want.Source ||
		entry.ContentHash != want.ContentHash || entry.Method != want.Method ||
		entry.Global != want.Global || entry.Version != want.Version {
		t.Errorf("entry = %+v, want %+v", entry, want)
	}
	if !entry.InstalledAt.Equal(installedAt) || !entry.UpdatedAt.Equal(updatedAt) {
		t.Errorf("timestamps not preserved: %v / %v", entry.InstalledAt, entry.UpdatedAt)
	}
	if len(entry.Agents) != 2 || entry.Agents[0] != "claude" || entry.Agents[1] != "cursor" {
		t.Errorf("agents = %v, want [claude cursor]", entry.Agents)
	}
}

func TestWriteCreatesBackup(t *testing.T) {
	store := newTestStore(t)

	first := emptyLock()
	first.Skills["a"] = types.SkillLockEntry{Name: "a", Method: types.MethodCopy, Agents: []string{}}
	if err := store.Write(first); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	// First write has nothing to back up.
	if _, err := os.Stat(store.Path() + BackupSuffix); !os.IsNotExist(err) {
		t.Error("backup exists after first write")
	}

	second := emptyLock()
	second.Skills["b"] = types.SkillLockEntry{Name: "b", Method: types.MethodCopy, Agents: []string{}}
	if err := store.Write(second); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	backup, err := os.ReadFile(store.Path() + BackupSuffix)
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	var prev types.SkillLockFile
	if err := json.Unmarshal(backup, &prev); err != nil {
		t.Fatalf("backup is not valid JSON: %v", err)
	}
	if _, ok := prev.Skills["a"]; !ok {
		t.Error("backup does not hold the previous version")
	}
}

func TestMigrationDefaults(t *testing.T) {
	store := newTestStore(t)

	v1 := `{
		"version": 1,
		"skills": {
			"old-skill": {
				"name": "old-skill",
				"source": "registry",
				"installedAt": "2025-01-01T00:00:00Z",
				"updatedAt": "2025-01-01T00:00:00Z"
			}
		}
	}`
	if err := os.WriteFile(store.Path(), []byte(v1), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	lock := store.Read()
	if lock.Version != CurrentVersion {
		t.Errorf("version = %d, want %d", lock.Version, CurrentVersion)
	}
	entry := lock.Skills["old-skill"]
	if entry.Method != types.MethodCopy {
		t.Errorf("migrated method = %q, want %q", entry.Method, types.MethodCopy)
	}
	if entry.Global {
		t.Error("migrated global = true, want false")
	}
	if entry.Agents == nil {
		t.Error("migrated agents is nil, want empty list")
	}

	// Migration is in-memory only until something writes.
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	var onDisk map[string]interface{}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("unmarshal lock file: %v", err)
	}
	if onDisk["version"].(float64) != 1 {
		t.Error("migration was persisted without a write")
	}
}

func TestAddSkillPreservesInstalledAt(t *testing.T) {
	store := newTestStore(t)

	if err := store.AddSkill(types.SkillLockEntry{
		Name:   "api-designer",
		Source: "registry",
		Method: types.MethodSymlink,
		Agents: []string{"claude"},
	}); err != nil {
		t.Fatalf("AddSkill() error = %v", err)
	}

	firstEntry, ok := store.GetSkill("api-designer")
	if !ok {
		t.Fatal("entry missing after AddSkill")
	}
	if firstEntry.InstalledAt.IsZero() {
		t.Fatal("installedAt not set on first add")
	}

	time.Sleep(5 * time.Millisecond)

	if err := store.AddSkill(types.SkillLockEntry{
		Name:   "api-designer",
		Source: "registry",
		Method: types.MethodSymlink,
		Agents: []string{"claude", "cursor"},
	}); err != nil {
		t.Fatalf("second AddSkill() error = %v", err)
	}

	secondEntry, _ := store.GetSkill("api-designer")
	if !secondEntry.InstalledAt.Equal(firstEntry.InstalledAt) {
		t.Errorf("installedAt changed on re-add: %v vs %v", secondEntry.InstalledAt, firstEntry.InstalledAt)
	}
	if !secondEntry.UpdatedAt.After(firstEntry.UpdatedAt) {
		t.Errorf("updatedAt did not advance: %v vs %v", secondEntry.UpdatedAt, firstEntry.UpdatedAt)
	}
	if len(secondEntry.Agents) != 2 {
		t.Errorf("agents = %v, want both agents", secondEntry.Agents)
	}
}

func TestRemoveSkill(t *testing.T) {
	store := newTestStore(t)

	if err := store.AddSkill(types.SkillLockEntry{Name: "a", Method: types.MethodCopy}); err != nil {
		t.Fatalf("AddSkill() error = %v", err)
	}
	if err := store.RemoveSkill("a"); err != nil {
		t.Fatalf("RemoveSkill() error = %v", err)
	}
	if _, ok := store.GetSkill("a"); ok {
		t.Error("entry still present after removal")
	}

	// Removing an absent entry is a no-op.
	if err := store.RemoveSkill("missing"); err != nil {
		t.Errorf("RemoveSkill() on absent entry error = %v", err)
	}
}

func TestWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	// A directory at the lock path makes the rename fail.
	lockPath := filepath.Join(dir, "skills-lock.json")
	if err := os.MkdirAll(lockPath, 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	store := NewStore(lockPath)
	if err := store.Write(emptyLock()); err == nil {
		t.Error("Write() error = nil, want propagation of write failure")
	}
	if _, err := os.Stat(lockPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after failed write")
	}
}
