package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestRender_SuffixStaysPlain(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = orig }()

	got := Render("1.2.3-rc.1")
	if !strings.HasSuffix(got, "-rc.1") {
		t.Errorf("Render = %q, pre-release suffix was rewritten", got)
	}
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("Render = %q, semver components not colorized", got)
	}
}

func TestRender_PlainWhenColorDisabled(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	if got := Render("0.1.0-dev"); got != "0.1.0-dev" {
		t.Errorf("Render = %q, want 0.1.0-dev", got)
	}
	if got := Render("2.0.0+build.7"); got != "2.0.0+build.7" {
		t.Errorf("Render = %q, want 2.0.0+build.7", got)
	}
}

func TestVersion_HasDefault(t *testing.T) {
	if Version == "" {
		t.Error("Version is empty without ldflags")
	}
}
