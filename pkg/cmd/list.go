package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const (
	dateFormat = "2006-01-02 15:04"
	emptyMsg   = "No skills installed in this scope."
	usageHint  = "Use 'skillpack install <skill>' to install one."
)

var listGlobal bool

func init() {
	listCmd.Flags().BoolVarP(&listGlobal, "global", "g", false, "list the user-level lock file instead of the project's")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed skills",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeList()
	},
}

// executeList reads the scope's lock file and displays a table of all
// installed skills.
func executeList() error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	dir := ""
	if !listGlobal {
		if dir, err = projectDir(); err != nil {
			return err
		}
	}

	skills := eng.inst.LockStore(listGlobal, dir).AllSkills()
	if len(skills) == 0 {
		fmt.Println(emptyMsg)
		fmt.Println(usageHint)
		return nil
	}

	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	table := newCatalogTable()
	table.Header("Name", "Version", "Method", "Scope", "Agents", "Updated At")

	for _, name := range names {
		entry := skills[name]
		version := entry.Version
		if version == "" {
			version = "-"
		}
		scope := "project"
		if entry.Global {
			scope = "global"
		}
		table.Append(entry.Name, version, string(entry.Method), scope, strings.Join(entry.Agents, ", "), entry.UpdatedAt.Format(dateFormat))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nTotal: %d skills\n", len(skills))

	return nil
}
