package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeys are the settings the config command accepts. Everything else is
// rejected so typos don't silently land in the config file.
var configKeys = []string{"registry_url", "fallback_url", "registry_ref", "proxy"}

// configWriteMu serializes viper config writes within this process.
var configWriteMu sync.Mutex

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeConfigList()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeConfigGet(args[0])
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeConfigSet(args[0], args[1])
	},
}

func validConfigKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

func executeConfigList() error {
	fmt.Println("config file:", viper.ConfigFileUsed())
	for _, key := range configKeys {
		fmt.Printf("%s: %s\n", key, viper.GetString(key))
	}
	return nil
}

func executeConfigGet(key string) error {
	if !validConfigKey(key) {
		return fmt.Errorf("unknown config key '%s'", key)
	}
	fmt.Println(viper.GetString(key))
	return nil
}

func executeConfigSet(key, value string) error {
	if !validConfigKey(key) {
		return fmt.Errorf("unknown config key '%s'", key)
	}

	configWriteMu.Lock()
	defer configWriteMu.Unlock()

	viper.Set(key, value)

	path := viper.ConfigFileUsed()
	if path == "" {
		return fmt.Errorf("no config file resolved; run any command once to create it")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("%s = %s\n", key, value)
	return nil
}
