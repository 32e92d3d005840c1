package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/skillpack-cli/skillpack/internal/installer"
	"github.com/skillpack-cli/skillpack/internal/lockfile"
	"github.com/skillpack-cli/skillpack/internal/types"
	"github.com/spf13/cobra"
)

var (
	updateCheck  bool
	updateGlobal bool
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "report which skills have updates without installing them")
	updateCmd.Flags().BoolVarP(&updateGlobal, "global", "g", false, "update skills tracked in the user-level lock file")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [skill]...",
	Short: "Update installed skills to the catalog's content",
	Long: `Compare installed skills against the catalog's content hashes and
re-download the ones that changed. Without arguments, every skill tracked in
the scope's lock file is checked.

Examples:
  skillpack update
  skillpack update api-designer
  skillpack update --check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeUpdate(args)
	},
}

func executeUpdate(names []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	dir := ""
	if !updateGlobal {
		if dir, err = projectDir(); err != nil {
			return err
		}
	}
	store := eng.inst.LockStore(updateGlobal, dir)

	if len(names) == 0 {
		for name := range store.AllSkills() {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	if len(names) == 0 {
		fmt.Println("No skills installed in this scope.")
		return nil
	}

	ctx := context.Background()
	plan, err := eng.planner.GetUpdatableSkills(ctx, names)
	if err != nil {
		return err
	}

	if updateCheck {
		for _, name := range plan.ToUpdate {
			color.Yellow("• %s: update available", name)
		}
		for _, name := range plan.UpToDate {
			fmt.Printf("  %s: up to date\n", name)
		}
		fmt.Printf("\n%d of %d skills have updates\n", len(plan.ToUpdate), len(names))
		return nil
	}

	if len(plan.ToUpdate) == 0 {
		fmt.Println("All skills are up to date.")
		return nil
	}

	failed := 0
	for _, name := range plan.ToUpdate {
		if err := updateOne(ctx, eng, store, name, dir); err != nil {
			color.Red("✗ %s: %v", name, err)
			failed++
			continue
		}
		color.Green("✓ %s updated", name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d skills failed to update", failed, len(plan.ToUpdate))
	}
	return nil
}

func updateOne(ctx context.Context, eng *engine, store *lockfile.Store, name, dir string) error {
	meta, err := eng.client.GetSkillMetadata(ctx, name)
	if err != nil {
		return err
	}

	srcPath, err := eng.dl.ForceDownloadSkill(ctx, name)
	if err != nil {
		return err
	}

	agents := []string{"claude"}
	method := types.MethodSymlink
	if entry, ok := store.GetSkill(name); ok {
		if len(entry.Agents) > 0 {
			agents = entry.Agents
		}
		if entry.Method != "" {
			method = entry.Method
		}
	}

	info := installer.SkillInfo{
		Name:        meta.Name,
		SourcePath:  srcPath,
		ContentHash: meta.ContentHash,
		Version:     meta.Version,
	}
	opts := installer.Options{Global: updateGlobal, Method: method, ProjectDir: dir}

	results, lockErr := eng.inst.ReinstallSkill(info, agents, opts)
	for _, res := range results {
		if !res.Success {
			return fmt.Errorf("agent %s: %s", res.Agent, res.Error)
		}
	}
	return lockErr
}
