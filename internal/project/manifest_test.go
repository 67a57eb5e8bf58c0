package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
version = "1.2.3"

[target]
arch = "aarch64"
convention = "aapcs64"

[build]
artifact = "demo.cnpr"
output = "out/demo.s"
emit_comments = true
jobs = 4
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Package.Name != "demo" || m.Package.Version != "1.2.3" {
		t.Errorf("package section = %+v", m.Package)
	}
	if m.Target.Arch != "aarch64" || m.Target.Convention != "aapcs64" {
		t.Errorf("target section = %+v", m.Target)
	}
	if m.Build.Artifact != "demo.cnpr" || m.Build.Output != "out/demo.s" {
		t.Errorf("build section = %+v", m.Build)
	}
	if !m.Build.EmitComments || m.Build.Jobs != 4 {
		t.Errorf("build options = %+v", m.Build)
	}
}

func TestLoadManifest_RequiresPackageName(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[build]
artifact = "demo.cnpr"
`)
	_, err := LoadManifest(path)
	if err == nil {
		t.Fatal("manifest without package.name accepted")
	}
	if !strings.Contains(err.Error(), "package.name") {
		t.Errorf("error %q does not name the missing key", err)
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), ManifestName)); err == nil {
		t.Fatal("missing manifest accepted")
	}
}

func TestLoadManifest_RejectsBadTOML(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `[package`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("malformed manifest accepted")
	}
}

func TestFindManifest_WalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "[package]\nname = \"demo\"\n")

	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, ok, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("FindManifest failed: %v", err)
	}
	if !ok {
		t.Fatal("manifest not found from nested directory")
	}
	if got != want {
		t.Errorf("FindManifest = %q, want %q", got, want)
	}

	gotRoot, ok, err := FindProjectRoot(nested)
	if err != nil || !ok {
		t.Fatalf("FindProjectRoot = %v, %v", ok, err)
	}
	if gotRoot != root {
		t.Errorf("FindProjectRoot = %q, want %q", gotRoot, root)
	}
}

func TestFindManifest_NotFound(t *testing.T) {
	_, ok, err := FindManifest(t.TempDir())
	if err != nil {
		t.Fatalf("FindManifest failed: %v", err)
	}
	if ok {
		t.Error("manifest reported found in empty tree")
	}
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest("fresh")
	if m.Package.Name != "fresh" || m.Package.Version == "" {
		t.Errorf("DefaultManifest = %+v", m.Package)
	}
}

func TestDigest_CombineIsOrderSensitive(t *testing.T) {
	a := HashBytes([]byte("a"))
	b := HashBytes([]byte("b"))
	content := HashBytes([]byte("body"))

	if Combine(content, a, b) == Combine(content, b, a) {
		t.Error("dependency order does not affect the combined digest")
	}
	if Combine(content, a, b) != Combine(content, a, b) {
		t.Error("combined digest is not deterministic")
	}
}
