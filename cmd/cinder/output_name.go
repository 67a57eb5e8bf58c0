package main

import (
	"path/filepath"
	"strings"
)

func outputNameFromArtifact(artifactPath string) string {
	base := filepath.Base(artifactPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".s"
}
