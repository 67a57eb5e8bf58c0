// Package driver orchestrates a backend build: it loads a typed-AST
// artifact, instantiates generics, generates code for every function in
// parallel, and renders the combined assembly. Builds are cached on disk
// keyed by the artifact digest.
package driver

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"cinder/internal/ast"
	"cinder/internal/buildpipeline"
	"cinder/internal/codegen"
	"cinder/internal/diag"
	"cinder/internal/mono"
	"cinder/internal/observ"
	"cinder/internal/project"
)

// BuildRequest configures one backend build.
type BuildRequest struct {
	// ArtifactPath names the msgpack program artifact to lower.
	ArtifactPath string
	// Arch and Convention select the target. Zero values mean x86_64
	// with the System V ABI.
	Arch       codegen.TargetArch
	Convention codegen.CallingConvention
	// EmitComments enables debug comments in the output.
	EmitComments bool
	// Jobs bounds generation parallelism; zero means one per CPU.
	Jobs int
	// MaxDiagnostics caps how many lowering failures one build reports.
	// Zero picks the default cap.
	MaxDiagnostics int
	// Progress receives pipeline events; nil disables reporting.
	Progress buildpipeline.ProgressSink
	// Logger receives structured build logs; nil disables logging.
	Logger *zap.Logger
	// Cache holds per-artifact results; nil disables caching.
	Cache *DiskCache
}

// BuildResult is the outcome of a successful build.
type BuildResult struct {
	// Assembly is the rendered output for the whole program.
	Assembly []byte
	// Functions holds per-function results in declaration order.
	Functions []FunctionResult
	// Instantiations counts distinct generic instances created.
	Instantiations int
	// Stats aggregates the per-function counters.
	Stats AggregateStats
	// Timing reports the per-phase durations.
	Timing observ.Report
	// FromCache is set when the result was served from the disk cache.
	FromCache bool
}

// FunctionResult is the outcome of lowering one function.
type FunctionResult struct {
	Symbol   string
	Assembly []byte
	Stats    codegen.Stats
	Elapsed  time.Duration
}

// Build runs the backend pipeline for one artifact.
func Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := req.Progress
	if sink == nil {
		sink = buildpipeline.NopSink{}
	}
	timer := observ.NewTimer()

	loadPhase := timer.Begin(string(buildpipeline.StageLoad))
	sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking})

	data, err := os.ReadFile(req.ArtifactPath)
	if err != nil {
		sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusError, Err: err})
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	digest := project.HashBytes(data)

	if req.Cache != nil {
		var payload CachePayload
		if ok, cerr := req.Cache.Get(digest, &payload); cerr == nil && ok {
			logger.Info("build served from cache",
				zap.String("artifact", req.ArtifactPath),
				zap.Int("assembly_bytes", len(payload.Assembly)))
			timer.End(loadPhase, "cache hit")
			sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusDone})
			return &BuildResult{
				Assembly:  payload.Assembly,
				Stats:     payload.Stats,
				Timing:    timer.Report(),
				FromCache: true,
			}, nil
		}
	}

	program, err := ast.UnmarshalArtifact(data)
	if err != nil {
		sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusError, Err: err})
		return nil, err
	}
	timer.End(loadPhase, fmt.Sprintf("%d functions", len(program.Funcs)))
	sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusDone})

	registry := mono.NewRegistry(program)
	bag := diag.NewBag(req.MaxDiagnostics)

	genPhase := timer.Begin(string(buildpipeline.StageGenerate))
	funcs, err := generateFunctions(ctx, program, registry, req, sink, bag, logger)
	if err != nil {
		return nil, err
	}
	timer.End(genPhase, "")

	renderPhase := timer.Begin(string(buildpipeline.StageRender))
	sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageRender, Status: buildpipeline.StatusWorking})
	assembly := concatAssembly(funcs)
	timer.End(renderPhase, fmt.Sprintf("%d bytes", len(assembly)))
	sink.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageRender, Status: buildpipeline.StatusDone})

	stats := aggregateStats(funcs)
	result := &BuildResult{
		Assembly:       assembly,
		Functions:      funcs,
		Instantiations: registry.Len(),
		Stats:          stats,
		Timing:         timer.Report(),
	}

	for _, dead := range registry.DeadInstances() {
		logger.Warn("generic instance never retained", zap.String("instance", dead.Key))
	}
	logger.Info("build finished",
		zap.Int("functions", len(funcs)),
		zap.Int("instantiations", result.Instantiations),
		zap.Int64("instructions", stats.Instructions),
		zap.Int64("spills", stats.RegisterSpills))

	if req.Cache != nil {
		payload := CachePayload{
			Schema:   cacheSchemaVersion,
			Assembly: assembly,
			Stats:    stats,
			Timing:   result.Timing,
		}
		if cerr := req.Cache.Put(digest, &payload); cerr != nil {
			logger.Warn("failed to write build cache", zap.Error(cerr))
		}
	}
	return result, nil
}

func concatAssembly(funcs []FunctionResult) []byte {
	var out []byte
	for _, f := range funcs {
		out = append(out, f.Assembly...)
	}
	return out
}
