// Package project locates and reads the cinder.toml manifest that
// configures a build: the package identity, the target, and backend
// options.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file the project root is identified by.
const ManifestName = "cinder.toml"

// FindManifest walks from startDir toward the filesystem root and returns
// the path of the first cinder.toml it sees. ok is false when no ancestor
// directory carries one.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	start, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve %q: %w", startDir, err)
	}
	for dir := start; ; {
		candidate := filepath.Join(dir, ManifestName)
		switch _, err := os.Stat(candidate); {
		case err == nil:
			return candidate, true, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("stat %s: %w", candidate, err)
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", false, nil
		}
		dir = next
	}
}

// FindProjectRoot resolves the directory that owns the nearest manifest.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifest, ok, err := FindManifest(startDir)
	if !ok || err != nil {
		return "", false, err
	}
	return filepath.Dir(manifest), true, nil
}
