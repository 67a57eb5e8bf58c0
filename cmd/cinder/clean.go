package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the cinder build cache",
	Long:  "Remove cached build results, using cinder.toml to locate a project-local cache if one is configured.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(_ *cobra.Command, args []string) error {
	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	manifest, root, manifestFound, err := loadNearestManifest(baseDir)
	if err != nil {
		return err
	}
	cache, err := openBuildCache(manifest, root, manifestFound)
	if err != nil {
		return fmt.Errorf("failed to open build cache: %w", err)
	}
	if err := cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear build cache: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "build cache cleared\n")
	return nil
}
