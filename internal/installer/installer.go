// Package installer materializes downloaded skills into agent skill
// directories, symlink-first with fallback to copying, and keeps the lock
// file in step with what actually landed on disk.
package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skillpack-cli/skillpack/internal/config"
	"github.com/skillpack-cli/skillpack/internal/lockfile"
	"github.com/skillpack-cli/skillpack/internal/pathsafe"
	"github.com/skillpack-cli/skillpack/internal/types"
)

// AlreadyExists marks the informational no-op result for a target that is
// already present. Existing targets are never overwritten implicitly.
const AlreadyExists = "Already exists"

// SkillInfo is a resolved skill: its name plus the local content path the
// downloader produced.
type SkillInfo struct {
	Name        string
	SourcePath  string
	ContentHash string
	Version     string
}

// Options selects scope, method and project root for an install.
type Options struct {
	Global     bool
	Method     types.InstallMethod
	ProjectDir string
}

// RemoveOptions selects scope and the lockfile guard for a removal.
type RemoveOptions struct {
	Global     bool
	Force      bool
	ProjectDir string
}

// RemoveResult is the per-agent outcome of a removal.
type RemoveResult struct {
	Agent   string
	Path    string
	Success bool
	Error   string
}

// Installer owns the agent target directories and the canonical shared-copy
// directory for each scope.
type Installer struct {
	paths  config.Paths
	logger Logger
}

// New creates an Installer.
func New(paths config.Paths) *Installer {
	return &Installer{
		paths:  paths,
		logger: NoOpLogger{},
	}
}

// SetLogger sets the logger. Default is a NoOpLogger.
func (i *Installer) SetLogger(logger Logger) {
	i.logger = logger
}

// LockStore returns the lock store for a scope.
func (i *Installer) LockStore(global bool, projectDir string) *lockfile.Store {
	if global {
		return lockfile.NewStore(i.paths.GlobalLock)
	}
	return lockfile.NewStore(config.ProjectLock(projectDir))
}

// InstallSkill installs one skill for every requested agent. Per-agent
// failures never abort the other agents; the caller gets one result each.
// The scope's lock entry is refreshed only when at least one agent got a
// fresh install. The returned error is a lock write failure, surfaced so
// the caller can warn that the install may be untracked.
func (i *Installer) InstallSkill(info SkillInfo, agents []string, opts Options) ([]types.InstallResult, error) {
	results := make([]types.InstallResult, 0, len(agents))
	var succeeded []string
	freshInstall := false
	sawSymlink := false

	for _, agentID := range agents {
		res := i.installForAgent(info, agentID, opts)
		results = append(results, res)

		if !res.Success {
			continue
		}
		succeeded = append(succeeded, agentID)
		if res.Error != AlreadyExists {
			freshInstall = true
			if res.Method == types.MethodSymlink {
				sawSymlink = true
			}
		}
	}

	if !freshInstall {
		return results, nil
	}

	method := opts.Method
	if method == types.MethodSymlink && !sawSymlink {
		// Every fresh install fell back to copying.
		method = types.MethodCopy
	}

	store := i.LockStore(opts.Global, opts.ProjectDir)
	entry := types.SkillLockEntry{
		Name:        info.Name,
		Source:      "registry",
		ContentHash: info.ContentHash,
		Agents:      mergeAgents(store, info.Name, succeeded),
		Method:      method,
		Global:      opts.Global,
		Version:     info.Version,
	}
	if err := store.AddSkill(entry); err != nil {
		return results, &InstallError{
			Type:    ErrorTypeLockfile,
			Message: fmt.Sprintf("installed '%s' but failed to update lock file", info.Name),
			Err:     err,
		}
	}
	return results, nil
}

// ReinstallSkill clears the existing agent targets and the scope's canonical
// copy for a skill, then installs it again. Used after a forced re-download so
// agents pick up the new content instead of hitting the already-exists no-op.
func (i *Installer) ReinstallSkill(info SkillInfo, agents []string, opts Options) ([]types.InstallResult, error) {
	safe := pathsafe.Sanitize(info.Name)

	if err := os.RemoveAll(filepath.Join(i.paths.CanonicalDir(opts.Global, opts.ProjectDir), safe)); err != nil {
		i.logger.Warn("failed to clear canonical copy", "skill", info.Name, "error", err)
	}

	for _, agentID := range agents {
		agent, ok := LookupAgent(agentID)
		if !ok {
			continue
		}
		base := agent.TargetBase(opts.Global, i.paths.HomeDir, opts.ProjectDir)
		target := filepath.Join(base, safe)
		if !pathsafe.IsPathSafe(base, target) {
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			i.logger.Warn("failed to clear agent target", "skill", info.Name, "path", target, "error", err)
		}
	}

	return i.InstallSkill(info, agents, opts)
}

func (i *Installer) installForAgent(info SkillInfo, agentID string, opts Options) types.InstallResult {
	res := types.InstallResult{
		Agent:  agentID,
		Skill:  info.Name,
		Method: opts.Method,
	}

	agent, ok := LookupAgent(agentID)
	if !ok {
		res.Error = fmt.Sprintf("unknown agent '%s'", agentID)
		return res
	}

	base := agent.TargetBase(opts.Global, i.paths.HomeDir, opts.ProjectDir)
	target := filepath.Join(base, pathsafe.Sanitize(info.Name))
	res.Path = target

	if !pathsafe.IsPathSafe(base, target) {
		res.Error = fmt.Sprintf("security: target for '%s' escapes the agent directory", info.Name)
		return res
	}

	if pathExists(target) {
		res.Success = true
		res.Error = AlreadyExists
		return res
	}

	if err := os.MkdirAll(base, 0755); err != nil {
		res.Error = fmt.Sprintf("failed to create agent directory: %v", err)
		return res
	}

	if opts.Method == types.MethodSymlink {
		return i.installSymlink(info, target, opts, res)
	}

	if err := copyDir(info.SourcePath, target, agentCopyExcludes); err != nil {
		res.Error = fmt.Sprintf("copy failed: %v", err)
		return res
	}
	res.Success = true
	res.Method = types.MethodCopy
	return res
}

// installSymlink tries three tiers in order, each only on failure of the
// previous: link to a pre-existing global shared copy, materialize a
// canonical copy for this scope and link to it, and finally a plain copy.
func (i *Installer) installSymlink(info SkillInfo, target string, opts Options, res types.InstallResult) types.InstallResult {
	safe := pathsafe.Sanitize(info.Name)

	globalCanonical := filepath.Join(i.paths.CanonicalDir(true, ""), safe)
	if pathExists(globalCanonical) {
		if err := os.Symlink(globalCanonical, target); err == nil {
			res.Success = true
			res.Method = types.MethodSymlink
			res.UsedGlobalSymlink = true
			return res
		}
		i.logger.Warn("global shared link failed", "skill", info.Name, "target", target)
	}

	canonical := filepath.Join(i.paths.CanonicalDir(opts.Global, opts.ProjectDir), safe)
	if err := i.ensureCanonicalCopy(info.SourcePath, canonical); err != nil {
		i.logger.Warn("canonical copy failed", "skill", info.Name, "error", err)
	} else if err := os.Symlink(canonical, target); err == nil {
		res.Success = true
		res.Method = types.MethodSymlink
		return res
	}

	// Symlinks unavailable here (filesystem, privilege, platform). Clear
	// any partial target and fall through to a full copy.
	os.RemoveAll(target)
	if err := copyDir(info.SourcePath, target, agentCopyExcludes); err != nil {
		res.Error = fmt.Sprintf("symlink and copy both failed: %v", err)
		return res
	}
	res.Success = true
	res.Method = types.MethodCopy
	res.SymlinkFailed = true
	return res
}

// ensureCanonicalCopy materializes the canonical shared copy once. Creation
// is staged and renamed into place, so concurrent installs of the same
// skill can race on it safely; the existence check makes it idempotent.
func (i *Installer) ensureCanonicalCopy(src, canonical string) error {
	if pathExists(canonical) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(canonical), 0755); err != nil {
		return err
	}

	staging := fmt.Sprintf("%s.tmp.%d", canonical, time.Now().UnixNano())
	if err := copyDir(src, staging, nil); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := os.Rename(staging, canonical); err != nil {
		os.RemoveAll(staging)
		if pathExists(canonical) {
			return nil
		}
		return err
	}
	return nil
}

// RemoveSkill deletes the canonical shared copy and each agent target for
// one skill, then drops the lock entry. Unless forced, a skill absent from
// the scope's lock file is refused: this tool only removes what it
// installed.
func (i *Installer) RemoveSkill(name string, agents []string, opts RemoveOptions) ([]RemoveResult, error) {
	store := i.LockStore(opts.Global, opts.ProjectDir)
	if !opts.Force {
		if _, ok := store.GetSkill(name); !ok {
			return nil, &InstallError{
				Type:    ErrorTypeNotLocked,
				Message: fmt.Sprintf("skill '%s' is not tracked in this scope's lock file (use --force to remove anyway)", name),
			}
		}
	}

	safe := pathsafe.Sanitize(name)

	// Canonical copy removal is best-effort.
	if err := os.RemoveAll(filepath.Join(i.paths.CanonicalDir(opts.Global, opts.ProjectDir), safe)); err != nil {
		i.logger.Warn("failed to remove canonical copy", "skill", name, "error", err)
	}

	results := make([]RemoveResult, 0, len(agents))
	for _, agentID := range agents {
		res := RemoveResult{Agent: agentID}

		agent, ok := LookupAgent(agentID)
		if !ok {
			res.Error = fmt.Sprintf("unknown agent '%s'", agentID)
			results = append(results, res)
			continue
		}

		base := agent.TargetBase(opts.Global, i.paths.HomeDir, opts.ProjectDir)
		target := filepath.Join(base, safe)
		res.Path = target

		if !pathsafe.IsPathSafe(base, target) {
			res.Error = fmt.Sprintf("security: target for '%s' escapes the agent directory", name)
			results = append(results, res)
			continue
		}

		if err := os.RemoveAll(target); err != nil {
			res.Error = fmt.Sprintf("failed to remove: %v", err)
		} else {
			res.Success = true
		}
		results = append(results, res)
	}

	// Lock entry removal happens regardless of per-agent outcomes.
	if err := store.RemoveSkill(name); err != nil {
		return results, &InstallError{
			Type:    ErrorTypeLockfile,
			Message: fmt.Sprintf("failed to remove '%s' from the lock file", name),
			Err:     err,
		}
	}
	return results, nil
}

// Tidy removes dangling skill symlinks from every known agent directory in
// the given scope. Returns the removed paths.
func (i *Installer) Tidy(global bool, projectDir string) ([]string, error) {
	var removed []string
	for _, agent := range knownAgents {
		base := agent.TargetBase(global, i.paths.HomeDir, projectDir)
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			link := filepath.Join(base, entry.Name())
			if _, err := os.Stat(link); err == nil {
				continue
			}
			if err := os.Remove(link); err != nil {
				i.logger.Warn("failed to remove dangling symlink", "path", link, "error", err)
				continue
			}
			removed = append(removed, link)
		}
	}
	return removed, nil
}

// pathExists uses Lstat so existing symlinks count even when their target
// is gone.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func mergeAgents(store *lockfile.Store, name string, agents []string) []string {
	merged := agents
	if existing, ok := store.GetSkill(name); ok {
		seen := make(map[string]bool, len(agents))
		for _, a := range agents {
			seen[a] = true
		}
		for _, a := range existing.Agents {
			if !seen[a] {
				merged = append(merged, a)
			}
		}
	}
	return merged
}
