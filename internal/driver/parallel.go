package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cinder/internal/ast"
	"cinder/internal/buildpipeline"
	"cinder/internal/codegen"
	"cinder/internal/diag"
	"cinder/internal/mono"
	"cinder/internal/source"
)

// generateFunctions lowers every function of the program in parallel.
// Each worker owns a full generator so buffers, register files, and label
// spaces never contend; the shared instantiation registry and the
// diagnostic bag are the only cross-worker state. Lowering failures do
// not cancel the remaining functions: they land in the bag so one build
// reports every broken function at once. Results come back in declaration
// order regardless of completion order.
func generateFunctions(
	ctx context.Context,
	program *ast.Program,
	registry *mono.Registry,
	req BuildRequest,
	sink buildpipeline.ProgressSink,
	bag *diag.Bag,
	logger *zap.Logger,
) ([]FunctionResult, error) {
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	cfg := codegen.Config{
		Arch:         req.Arch,
		Convention:   req.Convention,
		EmitComments: req.EmitComments,
	}

	results := make([]FunctionResult, len(program.Funcs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)

	for i, fn := range program.Funcs {
		i, fn := i, fn
		symbol := codegen.MangleFunc(fn)
		sink.OnEvent(buildpipeline.Event{Symbol: symbol, Stage: buildpipeline.StageGenerate, Status: buildpipeline.StatusQueued})

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			sink.OnEvent(buildpipeline.Event{Symbol: symbol, Stage: buildpipeline.StageGenerate, Status: buildpipeline.StatusWorking})

			gen, err := codegen.NewGenerator(cfg, program)
			if err != nil {
				return err
			}
			gen.SetInstantiator(registry)

			if err := gen.GenerateFunction(fn); err != nil {
				sink.OnEvent(buildpipeline.Event{
					Symbol: symbol,
					Stage:  buildpipeline.StageGenerate,
					Status: buildpipeline.StatusError,
					Err:    err,
				})
				logger.Error("function generation failed", zap.String("symbol", symbol), zap.Error(err))
				bag.Add(diag.FromError(err).WithNote(source.Span{}, "in function "+symbol))
				return nil
			}

			var buf bytes.Buffer
			if err := gen.RenderAssembly(&buf); err != nil {
				bag.Add(diag.FromError(err).WithNote(source.Span{}, "rendering "+symbol))
				return nil
			}

			elapsed := time.Since(start)
			results[i] = FunctionResult{
				Symbol:   symbol,
				Assembly: buf.Bytes(),
				Stats:    gen.Stats(),
				Elapsed:  elapsed,
			}
			sink.OnEvent(buildpipeline.Event{
				Symbol:  symbol,
				Stage:   buildpipeline.StageGenerate,
				Status:  buildpipeline.StatusDone,
				Elapsed: elapsed,
			})
			logger.Debug("function generated",
				zap.String("symbol", symbol),
				zap.Int64("instructions", results[i].Stats.Instructions),
				zap.Duration("elapsed", elapsed))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if bag.HasErrors() {
		return nil, diagnosticsError(bag)
	}
	return results, nil
}

// diagnosticsError flattens the collected diagnostics into one error so
// the driver's callers see every failed function, not just the first.
func diagnosticsError(bag *diag.Bag) error {
	bag.Sort()
	items := bag.Items()
	var b strings.Builder
	fmt.Fprintf(&b, "code generation failed with %d diagnostics:", len(items))
	for _, d := range items {
		b.WriteString("\n  ")
		b.WriteString(d.Code.String())
		b.WriteByte(' ')
		b.WriteString(d.Message)
		for _, note := range d.Notes {
			b.WriteString(" (")
			b.WriteString(note.Msg)
			b.WriteByte(')')
		}
	}
	return errors.New(b.String())
}
