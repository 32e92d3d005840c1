package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	cacheClearRegistry bool
	cacheClearSkills   bool
)

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearRegistry, "registry", false, "clear only the registry cache")
	cacheClearCmd.Flags().BoolVar(&cacheClearSkills, "skills", false, "clear only the downloaded skill content")
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location, registry age and skill count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		fmt.Println("cache dir:", eng.paths.CacheRoot)

		if age, ok := eng.client.CacheAge(); ok {
			fmt.Printf("registry cache: %s old (ttl %s)\n", age.Round(time.Second), eng.cfg.CacheTTL)
		} else {
			fmt.Println("registry cache: none")
		}

		fmt.Printf("cached skills: %d\n", eng.dl.CachedSkillCount())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the registry cache and downloaded skill content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		// Without a selector both caches are cleared.
		all := !cacheClearRegistry && !cacheClearSkills

		if all || cacheClearRegistry {
			if err := eng.client.ClearCache(); err != nil {
				return fmt.Errorf("failed to clear registry cache: %w", err)
			}
			fmt.Println("• registry cache cleared")
		}
		if all || cacheClearSkills {
			if err := eng.dl.ClearCache(); err != nil {
				return fmt.Errorf("failed to clear skill cache: %w", err)
			}
			fmt.Println("• skill content cache cleared")
		}
		return nil
	},
}
