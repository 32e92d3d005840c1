package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInitViper(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(*testing.T) string
		checkFunc func(*testing.T, string)
	}{
		{
			name: "creates new config file when it doesn't exist",
			setupFunc: func(t *testing.T) string {
				t.Helper()
				return t.TempDir()
			},
			checkFunc: func(t *testing.T, homeDir string) {
				t.Helper()
				configPath := filepath.Join(homeDir, ".skillpack", "config.json")

				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					t.Errorf("config file was not created at %s", configPath)
					return
				}

				data, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}

				var config map[string]interface{}
				if err := json.Unmarshal(data, &config); err != nil {
					t.Fatalf("failed to unmarshal config: %v", err)
				}

				for _, key := range []string{"registry_url", "fallback_url", "registry_ref", "proxy"} {
					if value, ok := config[key]; !ok || value != "" {
						t.Errorf("expected %s to be empty string, got %v", key, value)
					}
				}
			},
		},
		{
			name: "reads existing config file",
			setupFunc: func(t *testing.T) string {
				t.Helper()
				homeDir := t.TempDir()
				configDir := filepath.Join(homeDir, ".skillpack")
				if err := os.MkdirAll(configDir, 0755); err != nil {
					t.Fatalf("failed to create config dir: %v", err)
				}

				configPath := filepath.Join(configDir, "config.json")
				testConfig := map[string]interface{}{
					"registry_url": "https://mirror.example.com/catalog",
					"registry_ref": "v2",
					"proxy":        "http://proxy.example.com:8080",
				}

				data, err := json.MarshalIndent(testConfig, "", "  ")
				if err != nil {
					t.Fatalf("failed to marshal test config: %v", err)
				}

				if err := os.WriteFile(configPath, data, 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				return homeDir
			},
			checkFunc: func(t *testing.T, homeDir string) {
				t.Helper()

				if url := viper.GetString("registry_url"); url != "https://mirror.example.com/catalog" {
					t.Errorf("expected registry_url to be the mirror, got '%s'", url)
				}

				if ref := viper.GetString("registry_ref"); ref != "v2" {
					t.Errorf("expected registry_ref to be 'v2', got '%s'", ref)
				}

				if proxy := viper.GetString("proxy"); proxy != "http://proxy.example.com:8080" {
					t.Errorf("expected proxy to be 'http://proxy.example.com:8080', got '%s'", proxy)
				}
			},
		},
		{
			name: "environment overrides the config file",
			setupFunc: func(t *testing.T) string {
				t.Helper()
				homeDir := t.TempDir()
				configDir := filepath.Join(homeDir, ".skillpack")
				if err := os.MkdirAll(configDir, 0755); err != nil {
					t.Fatalf("failed to create config dir: %v", err)
				}

				configPath := filepath.Join(configDir, "config.json")
				data := []byte(`{"registry_ref": "main"}`)
				if err := os.WriteFile(configPath, data, 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				t.Setenv("SKILLPACK_REGISTRY_REF", "release-2026")
				return homeDir
			},
			checkFunc: func(t *testing.T, homeDir string) {
				t.Helper()

				if ref := viper.GetString("registry_ref"); ref != "release-2026" {
					t.Errorf("expected registry_ref from environment, got '%s'", ref)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			homeDir := tt.setupFunc(t)
			t.Setenv("HOME", homeDir)

			viper.Reset()

			initViper()

			if tt.checkFunc != nil {
				tt.checkFunc(t, homeDir)
			}
		})
	}
}

func TestMain(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	viper.Reset()

	t.Run("main executes without panicking", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("main() panicked: %v", r)
			}
		}()

		os.Args = []string{"skillpack", "--help"}
		main()
	})
}
