// Package updater decides which installed skills need re-downloading by
// comparing locally-cached content hashes against the registry's current
// ones. It never mutates state itself.
package updater

import (
	"context"

	"github.com/skillpack-cli/skillpack/internal/downloader"
	"github.com/skillpack-cli/skillpack/internal/registry"
)

// Planner partitions skills into needs-update and up-to-date.
type Planner struct {
	client *registry.Client
	dl     *downloader.Downloader
	logger Logger
}

// Plan is the partition produced by GetUpdatableSkills. Both slices keep
// the input order.
type Plan struct {
	ToUpdate []string
	UpToDate []string
}

// NewPlanner creates a Planner over the registry client and downloader.
func NewPlanner(client *registry.Client, dl *downloader.Downloader) *Planner {
	return &Planner{
		client: client,
		dl:     dl,
		logger: NoOpLogger{},
	}
}

// SetLogger sets the logger. Default is a NoOpLogger.
func (p *Planner) SetLogger(logger Logger) {
	p.logger = logger
}

// NeedsUpdate reports whether a skill's cache is behind the registry.
//
// Decision table:
//   - not cached at all: true
//   - cached, registry has no hash: false (no hash data must never force a
//     spurious re-download)
//   - cached, registry has a hash, local sidecar has none: true, to
//     backfill the hash
//   - both hashes present: true iff they differ
func (p *Planner) NeedsUpdate(ctx context.Context, name string) (bool, error) {
	if !p.dl.IsSkillCached(name) {
		return true, nil
	}

	skill, err := p.client.GetSkillMetadata(ctx, name)
	if err != nil {
		return false, err
	}
	if skill.ContentHash == "" {
		return false, nil
	}

	meta, ok := p.dl.ReadSkillMeta(name)
	if !ok || meta.ContentHash == "" {
		return true, nil
	}
	return meta.ContentHash != skill.ContentHash, nil
}

// GetUpdatableSkills applies NeedsUpdate to every name. A skill whose
// check fails (e.g. it vanished from the registry) is reported up to date
// and logged; the check must never invent work it cannot verify.
func (p *Planner) GetUpdatableSkills(ctx context.Context, names []string) (Plan, error) {
	var plan Plan
	for _, name := range names {
		needs, err := p.NeedsUpdate(ctx, name)
		if err != nil {
			p.logger.Warn("update check failed", "skill", name, "error", err)
			plan.UpToDate = append(plan.UpToDate, name)
			continue
		}
		if needs {
			plan.ToUpdate = append(plan.ToUpdate, name)
		} else {
			plan.UpToDate = append(plan.UpToDate, name)
		}
	}
	return plan, nil
}
