package updater

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/skillpack-cli/skillpack/internal/config"
	"github.com/skillpack-cli/skillpack/internal/downloader"
	"github.com/skillpack-cli/skillpack/internal/registry"
	"github.com/skillpack-cli/skillpack/internal/types"
)

type plannerEnv struct {
	planner *Planner
	paths   config.Paths
}

func newPlannerEnv(t *testing.T, skills []types.SkillMetadata) *plannerEnv {
	t.Helper()

	reg := types.SkillsRegistry{Version: "1.0.0", Categories: map[string]types.Category{}, Skills: skills}
	regData, err := json.Marshal(reg)
	if err != nil {
		t.Fatalf("marshal registry: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(regData)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.PrimaryBaseURL = server.URL
	cfg.FallbackURL = server.URL
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond

	root := t.TempDir()
	paths := config.Paths{
		CacheRoot:         root,
		RegistryCacheFile: filepath.Join(root, "registry-cache.json"),
		SkillsCacheDir:    filepath.Join(root, "skills"),
	}

	client := registry.NewClient(cfg, paths)
	dl := downloader.New(client, cfg, paths)
	return &plannerEnv{
		planner: NewPlanner(client, dl),
		paths:   paths,
	}
}

// cacheSkill plants a cached skill: entry-point file, plus a sidecar when
// localHash is non-empty.
func (e *plannerEnv) cacheSkill(t *testing.T, name, localHash string) {
	t.Helper()
	dir := filepath.Join(e.paths.SkillsCacheDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir skill cache: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, downloader.EntryPointFile), []byte("# skill"), 0644); err != nil {
		t.Fatalf("write entry point: %v", err)
	}
	if localHash == "" {
		return
	}
	meta := types.CachedSkillMeta{ContentHash: localHash, DownloadedAt: time.Now()}
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal sidecar: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, downloader.SidecarFile), data, 0644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
}

func TestNeedsUpdateDecisionTable(t *testing.T) {
	tests := []struct {
		name         string
		registryHash string
		cached       bool
		localHash    string
		want         bool
	}{
		{
			name:         "not cached needs update",
			registryHash: "sha256:new",
			cached:       false,
			want:         true,
		},
		{
			name:         "cached but registry has no hash assumes up to date",
			registryHash: "",
			cached:       true,
			localHash:    "sha256:old",
			want:         false,
		},
		{
			name:         "cached with registry hash but no local hash backfills",
			registryHash: "sha256:new",
			cached:       true,
			localHash:    "",
			want:         true,
		},
		{
			name:         "matching hashes up to date",
			registryHash: "sha256:same",
			cached:       true,
			localHash:    "sha256:same",
			want:         false,
		},
		{
			name:         "differing hashes need update",
			registryHash: "sha256:new",
			cached:       true,
			localHash:    "sha256:old",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newPlannerEnv(t, []types.SkillMetadata{
				{Name: "skill", Path: "dev/skill", Files: []string{"SKILL.md"}, ContentHash: tt.registryHash},
			})
			if tt.cached {
				env.cacheSkill(t, "skill", tt.localHash)
			}

			got, err := env.planner.NeedsUpdate(context.Background(), "skill")
			if err != nil {
				t.Fatalf("NeedsUpdate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NeedsUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetUpdatableSkillsPartition(t *testing.T) {
	env := newPlannerEnv(t, []types.SkillMetadata{
		{Name: "a", Path: "dev/a", Files: []string{"SKILL.md"}, ContentHash: "sha256:a"},
		{Name: "b", Path: "dev/b", Files: []string{"SKILL.md"}, ContentHash: "sha256:b-new"},
		{Name: "c", Path: "dev/c", Files: []string{"SKILL.md"}, ContentHash: "sha256:c"},
	})
	env.cacheSkill(t, "a", "sha256:a")
	env.cacheSkill(t, "b", "sha256:b-old")
	env.cacheSkill(t, "c", "sha256:c")

	plan, err := env.planner.GetUpdatableSkills(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetUpdatableSkills() error = %v", err)
	}

	if !reflect.DeepEqual(plan.ToUpdate, []string{"b"}) {
		t.Errorf("toUpdate = %v, want [b]", plan.ToUpdate)
	}
	if !reflect.DeepEqual(plan.UpToDate, []string{"a", "c"}) {
		t.Errorf("upToDate = %v, want [a c]", plan.UpToDate)
	}
}

func TestGetUpdatableSkillsUnknownSkill(t *testing.T) {
	env := newPlannerEnv(t, []types.SkillMetadata{
		{Name: "a", Path: "dev/a", Files: []string{"SKILL.md"}, ContentHash: "sha256:a"},
	})
	env.cacheSkill(t, "a", "sha256:a")
	env.cacheSkill(t, "ghost", "sha256:ghost")

	plan, err := env.planner.GetUpdatableSkills(context.Background(), []string{"a", "ghost"})
	if err != nil {
		t.Fatalf("GetUpdatableSkills() error = %v", err)
	}
	if len(plan.ToUpdate) != 0 {
		t.Errorf("toUpdate = %v, want empty", plan.ToUpdate)
	}
	if !reflect.DeepEqual(plan.UpToDate, []string{"a", "ghost"}) {
		t.Errorf("upToDate = %v, want [a ghost]", plan.UpToDate)
	}
}
