package project

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Manifest mirrors cinder.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Target  TargetSection  `toml:"target"`
	Build   BuildSection   `toml:"build"`
}

// PackageSection identifies the package.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TargetSection selects the code generation target.
type TargetSection struct {
	// Arch is one of x86_64, aarch64, wasm32. Empty means x86_64.
	Arch string `toml:"arch"`
	// Convention is one of sysv-amd64, ms-x64, aapcs64, wasm-c. Empty
	// picks the architecture's default.
	Convention string `toml:"convention"`
}

// BuildSection holds backend options.
type BuildSection struct {
	// Artifact is the path of the typed-AST artifact to lower, relative
	// to the project root.
	Artifact string `toml:"artifact"`
	// Output is the assembly output path. Empty derives it from the
	// artifact name.
	Output string `toml:"output"`
	// EmitComments enables debug comments in the generated assembly.
	EmitComments bool `toml:"emit_comments"`
	// Jobs bounds code generation parallelism. Zero means one worker
	// per CPU.
	Jobs int `toml:"jobs"`
	// CacheDir overrides the statistics cache location.
	CacheDir string `toml:"cache_dir"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%s: package.name is required", path)
	}
	return &m, nil
}

// DefaultManifest returns the manifest used when no cinder.toml exists.
func DefaultManifest(name string) *Manifest {
	return &Manifest{
		Package: PackageSection{Name: name, Version: "0.1.0"},
	}
}
