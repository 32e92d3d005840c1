package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/skillpack-cli/skillpack/internal/installer"
	"github.com/skillpack-cli/skillpack/internal/types"
	"github.com/spf13/cobra"
)

var (
	installAgents []string
	installGlobal bool
	installMethod string
	installForce  bool
)

func init() {
	installCmd.Flags().StringSliceVarP(&installAgents, "agent", "a", []string{"claude"}, "agents to install for (claude, cursor, opencode, codex, windsurf, copilot)")
	installCmd.Flags().BoolVarP(&installGlobal, "global", "g", false, "install into the user-level agent directories")
	installCmd.Flags().StringVarP(&installMethod, "method", "m", "symlink", "install method: symlink or copy")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "re-download skill content even if it is already cached")
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install <skill>...",
	Short: "Install skills from the catalog",
	Long: `Download skills from the skillpack catalog and install them into the
skill directories of the selected agents.

Examples:
  skillpack install api-designer
  skillpack install api-designer code-reviewer --agent claude,cursor
  skillpack install api-designer --global --method copy`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeInstall(args)
	},
}

func executeInstall(names []string) error {
	method, err := parseMethod(installMethod)
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	opts := installer.Options{Global: installGlobal, Method: method}
	if !opts.Global {
		if opts.ProjectDir, err = projectDir(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	failed := 0
	for _, name := range names {
		if err := installOne(ctx, eng, name, opts); err != nil {
			color.Red("✗ %s: %v", name, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d skills failed to install", failed, len(names))
	}
	return nil
}

func installOne(ctx context.Context, eng *engine, name string, opts installer.Options) error {
	meta, err := eng.client.GetSkillMetadata(ctx, name)
	if err != nil {
		return err
	}

	var srcPath string
	if installForce {
		srcPath, err = eng.dl.ForceDownloadSkill(ctx, name)
	} else {
		srcPath, err = eng.dl.EnsureSkillDownloaded(ctx, name)
	}
	if err != nil {
		return err
	}

	info := installer.SkillInfo{
		Name:        meta.Name,
		SourcePath:  srcPath,
		ContentHash: meta.ContentHash,
		Version:     meta.Version,
	}

	results, lockErr := eng.inst.InstallSkill(info, installAgents, opts)
	printInstallResults(results)
	if lockErr != nil {
		color.Yellow("  warning: %v", lockErr)
	}

	for _, res := range results {
		if !res.Success {
			return errors.New("one or more agents failed")
		}
	}
	return nil
}

func printInstallResults(results []types.InstallResult) {
	for _, res := range results {
		switch {
		case !res.Success:
			color.Red("✗ %s → %s: %s", res.Skill, res.Agent, res.Error)
		case res.Error == installer.AlreadyExists:
			color.Yellow("• %s → %s: already exists, skipped", res.Skill, res.Agent)
		case res.SymlinkFailed:
			color.Yellow("✓ %s → %s (symlink unavailable, copied to %s)", res.Skill, res.Agent, res.Path)
		case res.UsedGlobalSymlink:
			color.Green("✓ %s → %s (linked to global copy)", res.Skill, res.Agent)
		default:
			color.Green("✓ %s → %s (%s) %s", res.Skill, res.Agent, res.Method, res.Path)
		}
	}
}

func parseMethod(raw string) (types.InstallMethod, error) {
	switch raw {
	case string(types.MethodSymlink):
		return types.MethodSymlink, nil
	case string(types.MethodCopy):
		return types.MethodCopy, nil
	}
	return "", fmt.Errorf("invalid method '%s': must be symlink or copy", raw)
}
