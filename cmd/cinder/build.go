package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cinder/internal/codegen"
	"cinder/internal/driver"
	"cinder/internal/prof"
	"cinder/internal/project"
)

const noCinderTomlMessage = "no cinder.toml found; pass an artifact path or run `cinder init` first"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [artifact]",
	Short: "Lower a program artifact to assembly",
	Long:  "Lower a typed program artifact to assembly, using cinder.toml for target and output defaults.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func buildExecution(cmd *cobra.Command, args []string) error {
	archValue, err := cmd.Flags().GetString("arch")
	if err != nil {
		return err
	}
	convValue, err := cmd.Flags().GetString("convention")
	if err != nil {
		return err
	}
	outputValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	comments, err := cmd.Flags().GetBool("comments")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	showStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return err
	}

	cpuProfile, err := cmd.Flags().GetString("cpu-profile")
	if err != nil {
		return err
	}
	memProfile, err := cmd.Flags().GetString("mem-profile")
	if err != nil {
		return err
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	if cpuProfile != "" {
		if err := prof.StartCPU(cpuProfile); err != nil {
			return err
		}
		defer prof.StopCPU()
	}
	if memProfile != "" {
		defer func() {
			if werr := prof.WriteMem(memProfile); werr != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", werr)
			}
		}()
	}

	manifest, root, manifestFound, err := loadNearestManifest(".")
	if err != nil {
		return err
	}

	artifactPath, err := resolveArtifactPath(args, manifest, root, manifestFound)
	if err != nil {
		return err
	}

	arch, conv, err := resolveTarget(archValue, convValue, manifest)
	if err != nil {
		return err
	}

	if !comments && manifestFound {
		comments = manifest.Build.EmitComments
	}
	if jobs == 0 && manifestFound {
		jobs = manifest.Build.Jobs
	}

	outputPath := outputValue
	if outputPath == "" && manifestFound && manifest.Build.Output != "" {
		outputPath = filepath.Join(root, manifest.Build.Output)
	}
	if outputPath == "" {
		outputPath = outputNameFromArtifact(artifactPath)
	}

	req := driver.BuildRequest{
		ArtifactPath:   artifactPath,
		Arch:           arch,
		Convention:     conv,
		EmitComments:   comments,
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
	}

	if !noCache {
		cache, cacheErr := openBuildCache(manifest, root, manifestFound)
		if cacheErr != nil {
			fmt.Fprintf(os.Stderr, "warning: build cache unavailable: %v\n", cacheErr)
		} else {
			req.Cache = cache
		}
	}

	if verbose {
		logger, logErr := zap.NewDevelopment()
		if logErr != nil {
			return logErr
		}
		defer func() { _ = logger.Sync() }()
		req.Logger = logger
	}

	useTUI := shouldUseTUI(uiModeValue) && !verbose
	var res *driver.BuildResult
	if useTUI {
		symbols, symErr := listFunctionSymbols(artifactPath)
		if symErr != nil {
			return symErr
		}
		res, err = runBuildWithUI(cmd.Context(), "cinder build", symbols, req)
	} else {
		res, err = driver.Build(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, res.Assembly, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if res.FromCache {
		fmt.Fprintln(os.Stdout, "(cached)")
	}
	if showStats {
		printBuildStats(os.Stdout, res.Stats)
	}
	if showTimings {
		printPhaseTimings(os.Stdout, res.Timing)
	}
	fmt.Fprintf(os.Stdout, "built %s\n", formatPathForOutput(root, outputPath))
	return nil
}

func loadNearestManifest(startDir string) (*project.Manifest, string, bool, error) {
	manifestPath, ok, err := project.FindManifest(startDir)
	if err != nil {
		return nil, "", false, err
	}
	if !ok {
		return nil, "", false, nil
	}
	manifest, err := project.LoadManifest(manifestPath)
	if err != nil {
		return nil, "", false, err
	}
	return manifest, filepath.Dir(manifestPath), true, nil
}

func resolveArtifactPath(args []string, manifest *project.Manifest, root string, manifestFound bool) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if manifestFound && manifest.Build.Artifact != "" {
		return filepath.Join(root, manifest.Build.Artifact), nil
	}
	return "", errors.New(noCinderTomlMessage)
}

func resolveTarget(archValue, convValue string, manifest *project.Manifest) (codegen.TargetArch, codegen.CallingConvention, error) {
	archStr := archValue
	if archStr == "" && manifest != nil {
		archStr = manifest.Target.Arch
	}
	arch, err := codegen.ParseArch(archStr)
	if err != nil {
		return 0, 0, err
	}

	convStr := convValue
	if convStr == "" && manifest != nil {
		convStr = manifest.Target.Convention
	}
	if convStr == "" {
		return arch, codegen.DefaultConvention(arch), nil
	}
	conv, err := codegen.ParseConvention(convStr)
	if err != nil {
		return 0, 0, err
	}
	return arch, conv, nil
}

func openBuildCache(manifest *project.Manifest, root string, manifestFound bool) (*driver.DiskCache, error) {
	if manifestFound && manifest.Build.CacheDir != "" {
		dir := manifest.Build.CacheDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		return driver.OpenDiskCacheAt(dir)
	}
	return driver.OpenDiskCache("cinder")
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func init() {
	buildCmd.Flags().String("arch", "", "target architecture (x86_64, aarch64, wasm32)")
	buildCmd.Flags().String("convention", "", "calling convention (sysv-amd64, ms-x64, aapcs64, wasm-c)")
	buildCmd.Flags().StringP("output", "o", "", "assembly output path")
	buildCmd.Flags().Bool("comments", false, "emit debug comments in the assembly")
	buildCmd.Flags().Int("jobs", 0, "generation workers (0 = one per CPU)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the build cache")
	buildCmd.Flags().Bool("stats", false, "print generation statistics")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	buildCmd.Flags().Int("max-diagnostics", 0, "cap reported lowering failures (0 = default cap)")
	buildCmd.Flags().String("cpu-profile", "", "write a CPU profile to the given path")
	buildCmd.Flags().String("mem-profile", "", "write a heap profile to the given path")
}
