// Package version records the build fingerprint of the cinder binary.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// Stamped at release time via -ldflags. Empty values mean a local build.
var (
	number     = "0.1.0-dev"
	GitCommit  = ""
	GitMessage = ""
	BuildDate  = ""
)

// Version is the release number with each semver component colorized.
// The color package degrades to plain text when stdout is not a terminal.
var Version = Render(number)

var componentColors = [...]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Render colorizes the major, minor, and patch components of a semver
// string. Any pre-release or build-metadata suffix stays plain.
func Render(v string) string {
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.Split(core, ".")
	for i := range parts {
		if i < len(componentColors) {
			parts[i] = componentColors[i].Sprint(parts[i])
		}
	}
	return strings.Join(parts, ".") + suffix
}
