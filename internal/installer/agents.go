package installer

import (
	"path/filepath"
)

// Agent is a target AI coding tool with its own skills directory
// convention. ProjectDir is relative to the project root, GlobalDir to the
// user's home directory.
type Agent struct {
	ID          string
	DisplayName string
	ProjectDir  string
	GlobalDir   string
}

var knownAgents = []Agent{
	{
		ID:          "claude",
		DisplayName: "Claude Code",
		ProjectDir:  filepath.Join(".claude", "skills"),
		GlobalDir:   filepath.Join(".claude", "skills"),
	},
	{
		ID:          "cursor",
		DisplayName: "Cursor",
		ProjectDir:  filepath.Join(".cursor", "skills"),
		GlobalDir:   filepath.Join(".cursor", "skills"),
	},
	{
		ID:          "opencode",
		DisplayName: "OpenCode",
		ProjectDir:  filepath.Join(".opencode", "skills"),
		GlobalDir:   filepath.Join(".config", "opencode", "skill"),
	},
	{
		ID:          "codex",
		DisplayName: "Codex",
		ProjectDir:  filepath.Join(".codex", "skills"),
		GlobalDir:   filepath.Join(".codex", "skills"),
	},
	{
		ID:          "windsurf",
		DisplayName: "Windsurf",
		ProjectDir:  filepath.Join(".windsurf", "skills"),
		GlobalDir:   filepath.Join(".windsurf", "skills"),
	},
	{
		ID:          "copilot",
		DisplayName: "GitHub Copilot",
		ProjectDir:  filepath.Join(".github", "skills"),
		GlobalDir:   filepath.Join(".copilot", "skills"),
	},
}

// KnownAgents returns every supported agent.
func KnownAgents() []Agent {
	agents := make([]Agent, len(knownAgents))
	copy(agents, knownAgents)
	return agents
}

// KnownAgentIDs returns the ids of every supported agent.
func KnownAgentIDs() []string {
	ids := make([]string, 0, len(knownAgents))
	for _, agent := range knownAgents {
		ids = append(ids, agent.ID)
	}
	return ids
}

// LookupAgent finds an agent by id.
func LookupAgent(id string) (Agent, bool) {
	for _, agent := range knownAgents {
		if agent.ID == id {
			return agent, true
		}
	}
	return Agent{}, false
}

// TargetBase resolves the skills directory for one agent and scope.
func (a Agent) TargetBase(global bool, homeDir, projectDir string) string {
	if global {
		return filepath.Join(homeDir, a.GlobalDir)
	}
	return filepath.Join(projectDir, a.ProjectDir)
}
