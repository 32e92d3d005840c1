package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var (
	searchCategory   string
	searchCategories bool
	searchRefresh    bool
)

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "only show skills in this category")
	searchCmd.Flags().BoolVar(&searchCategories, "categories", false, "list the catalog's categories instead of skills")
	searchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "bypass the cached registry and fetch a fresh copy")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the skill catalog",
	Long: `Search the catalog by name and description. Without a query, every
available skill is listed.

Examples:
  skillpack search
  skillpack search review
  skillpack search --category engineering
  skillpack search --categories`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		return executeSearch(query)
	},
}

func executeSearch(query string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if searchRefresh {
		if _, err := eng.client.FetchRegistry(ctx, true); err != nil {
			return err
		}
	}

	if searchCategories {
		return printCategories(ctx, eng)
	}

	skills, err := eng.client.GetRemoteSkills(ctx)
	if err != nil {
		return err
	}

	query = strings.ToLower(query)
	table := newCatalogTable()
	table.Header("Name", "Category", "Version", "Description")

	matches := 0
	for _, skill := range skills {
		if searchCategory != "" && skill.Category != searchCategory {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(skill.Name), query) &&
			!strings.Contains(strings.ToLower(skill.Description), query) {
			continue
		}
		version := skill.Version
		if version == "" {
			version = "-"
		}
		table.Append(skill.Name, skill.Category, version, skill.Description)
		matches++
	}

	if matches == 0 {
		fmt.Println("No skills matched.")
		return nil
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nTotal: %d skills\n", matches)

	return nil
}

func printCategories(ctx context.Context, eng *engine) error {
	categories, err := eng.client.GetRemoteCategories(ctx)
	if err != nil {
		return err
	}

	table := newCatalogTable()
	table.Header("ID", "Name", "Description")
	for _, cat := range categories {
		table.Append(cat.ID, cat.Name, cat.Description)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func newCatalogTable() *tablewriter.Table {
	cnf := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	}
	return tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(cnf))
}
