package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tidyGlobal bool

func init() {
	tidyCmd.Flags().BoolVarP(&tidyGlobal, "global", "g", false, "tidy the user-level agent directories")
	rootCmd.AddCommand(tidyCmd)
}

var tidyCmd = &cobra.Command{
	Use:   "tidy",
	Short: "Remove dangling skill symlinks",
	Long: `Scan the agent skill directories of the current scope and delete
symlinks whose canonical copy no longer exists.

Examples:
  skillpack tidy
  skillpack tidy --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeTidy()
	},
}

func executeTidy() error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	dir := ""
	if !tidyGlobal {
		if dir, err = projectDir(); err != nil {
			return err
		}
	}

	removed, err := eng.inst.Tidy(tidyGlobal, dir)
	if err != nil {
		return fmt.Errorf("tidy failed: %w", err)
	}

	if len(removed) == 0 {
		fmt.Println("Nothing to tidy.")
		return nil
	}

	for _, path := range removed {
		fmt.Printf("• removed %s\n", path)
	}
	fmt.Printf("\nRemoved %d dangling symlinks\n", len(removed))

	return nil
}
