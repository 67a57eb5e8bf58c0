package codegen

import (
	"fmt"
	"sync/atomic"

	"fortio.org/safecast"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/types"
)

// Config selects the target and the emission options for one Generator.
type Config struct {
	Arch         TargetArch
	Convention   CallingConvention
	EmitComments bool
}

// Stats aggregates per-generator counters. All fields are written with
// atomic operations; read them only through the accessor.
type Stats struct {
	Instructions   int64
	BytesEstimated int64
	RegisterSpills int64
	PeakPressure   int64
	LabelsCreated  int64
	FunctionsDone  int64
}

// Generator lowers typed functions to instructions for one target. Each
// generator owns its instruction buffer, register file and label space.
// A generator lowers one function at a time; create one generator per
// worker for parallel builds.
type Generator struct {
	cfg     Config
	conv    *ConventionInfo
	enc     Encoder
	buf     *InstructionBuffer
	regs    *RegisterAllocator
	labels  *LabelManager
	program *ast.Program
	inst    Instantiator

	// Per-function state, reset by GenerateFunction.
	locals         *LocalSymbolTable
	fn             *ast.FuncDecl
	loopStack      []loopLabels
	pendingComment string

	labelsCreated atomic.Int64
	functionsDone atomic.Int64
}

type loopLabels struct {
	head string
	end  string
}

// NewGenerator builds a generator for the given configuration. The program
// supplies struct layouts and function signatures for call lowering and
// may be nil for tests that lower expressions only.
func NewGenerator(cfg Config, program *ast.Program) (*Generator, error) {
	conv := ConventionFor(cfg.Convention)
	enc, err := EncoderFor(cfg.Arch)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:     cfg,
		conv:    conv,
		enc:     enc,
		regs:    NewRegisterAllocator(conv),
		labels:  NewLabelManager(),
		program: program,
	}
	g.buf = NewInstructionBuffer(256, enc.EstimateSize)
	return g, nil
}

// Convention exposes the active calling convention record.
func (g *Generator) Convention() *ConventionInfo { return g.conv }

// Buffer exposes the instruction buffer for rendering and inspection.
func (g *Generator) Buffer() *InstructionBuffer { return g.buf }

// Allocator exposes the register allocator, mainly for tests.
func (g *Generator) Allocator() *RegisterAllocator { return g.regs }

// Labels exposes the label manager.
func (g *Generator) Labels() *LabelManager { return g.labels }

// Stats snapshots the generator's counters.
func (g *Generator) Stats() Stats {
	return Stats{
		Instructions:   int64(g.buf.Len()),
		BytesEstimated: int64(g.buf.ByteSize()),
		RegisterSpills: int64(g.regs.Spills()),
		PeakPressure:   int64(g.regs.PeakPressure()),
		LabelsCreated:  g.labelsCreated.Load(),
		FunctionsDone:  g.functionsDone.Load(),
	}
}

// emit appends one instruction and returns its buffer index. A pending
// comment attaches to the emitted instruction.
func (g *Generator) emit(in *Instruction) int {
	if g.pendingComment != "" {
		if in.Comment == "" {
			in.WithComment(g.pendingComment)
		}
		g.pendingComment = ""
	}
	return g.buf.Add(in)
}

// comment queues a debug comment for the next emitted instruction when
// comment emission is enabled.
func (g *Generator) comment(format string, args ...any) {
	if !g.cfg.EmitComments {
		return
	}
	g.pendingComment = fmt.Sprintf(format, args...)
}

// newLabel mints a label and counts it.
func (g *Generator) newLabel(kind LabelKind) string {
	g.labelsCreated.Add(1)
	return g.labels.Create(kind)
}

// defineLabel binds a label at the current end of the buffer.
func (g *Generator) defineLabel(name string) {
	g.labels.Define(name, g.buf.Len())
}

// pushLoop records the labels of an enclosing loop for break/continue.
func (g *Generator) pushLoop(head, end string) {
	g.loopStack = append(g.loopStack, loopLabels{head: head, end: end})
}

func (g *Generator) popLoop() {
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

func (g *Generator) currentLoop() (loopLabels, bool) {
	if len(g.loopStack) == 0 {
		return loopLabels{}, false
	}
	return g.loopStack[len(g.loopStack)-1], true
}

// errorf wraps a lowering failure with its diagnostic code.
func (g *Generator) errorf(code diag.Code, format string, args ...any) error {
	return fmt.Errorf("%s: %s", code, fmt.Sprintf(format, args...))
}

// sizeOf returns the byte size of a type, defaulting to a word for
// unknown or unsized types.
func (g *Generator) sizeOf(t *types.Type) int32 {
	if t == nil {
		return 8
	}
	if t.Size > 0 {
		if s, err := safecast.Conv[int32](t.Size); err == nil {
			return s
		}
	}
	return 8
}
