package cmd

import (
	"fmt"
	"os"

	"github.com/skillpack-cli/skillpack/internal/config"
	"github.com/skillpack-cli/skillpack/internal/downloader"
	"github.com/skillpack-cli/skillpack/internal/installer"
	"github.com/skillpack-cli/skillpack/internal/registry"
	"github.com/skillpack-cli/skillpack/internal/updater"
)

// engine bundles the pieces every command needs. Commands build one per
// invocation instead of sharing package-level state.
type engine struct {
	cfg     config.Config
	paths   config.Paths
	client  *registry.Client
	dl      *downloader.Downloader
	inst    *installer.Installer
	planner *updater.Planner
}

func newEngine() (*engine, error) {
	cfg := config.Load()

	paths, err := config.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	client := registry.NewClient(cfg, paths)
	dl := downloader.New(client, cfg, paths)

	return &engine{
		cfg:     cfg,
		paths:   paths,
		client:  client,
		dl:      dl,
		inst:    installer.New(paths),
		planner: updater.NewPlanner(client, dl),
	}, nil
}

func projectDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return dir, nil
}
