package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/skillpack-cli/skillpack/internal/installer"
	"github.com/spf13/cobra"
)

var (
	removeAgents []string
	removeGlobal bool
	removeForce  bool
	removeYes    bool
)

func init() {
	removeCmd.Flags().StringSliceVarP(&removeAgents, "agent", "a", nil, "agents to remove from (default: the agents recorded in the lock file)")
	removeCmd.Flags().BoolVarP(&removeGlobal, "global", "g", false, "remove from the user-level agent directories")
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "remove even when the skill is not tracked in the lock file")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove <skill>...",
	Short: "Remove installed skills",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRemove(args)
	},
}

func executeRemove(names []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	opts := installer.RemoveOptions{Global: removeGlobal, Force: removeForce}
	if !opts.Global {
		if opts.ProjectDir, err = projectDir(); err != nil {
			return err
		}
	}

	store := eng.inst.LockStore(opts.Global, opts.ProjectDir)
	failed := 0
	for _, name := range names {
		if !removeYes {
			confirmed, err := promptForConfirmation(name)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Printf("Skipped '%s'.\n", name)
				continue
			}
		}

		agents := removeAgents
		if len(agents) == 0 {
			if entry, ok := store.GetSkill(name); ok {
				agents = entry.Agents
			} else {
				agents = installer.KnownAgentIDs()
			}
		}

		results, err := eng.inst.RemoveSkill(name, agents, opts)
		for _, res := range results {
			if res.Success {
				color.Green("✓ removed %s from %s (%s)", name, res.Agent, res.Path)
			} else {
				color.Red("✗ %s from %s: %s", name, res.Agent, res.Error)
				failed++
			}
		}
		if err != nil {
			color.Red("✗ %s: %v", name, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d removal steps failed", failed)
	}
	return nil
}

func promptForConfirmation(name string) (bool, error) {
	fmt.Printf("Are you sure you want to remove skill '%s'? [y/N]: ", name)

	var response string
	_, err := fmt.Scanln(&response)
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		if err.Error() == "unexpected newline" {
			return false, nil
		}
		return false, fmt.Errorf("failed to read user input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
