package codegen

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/types"
)

// GenerateFunction lowers one function declaration. Per-function state from
// a previous call is discarded; the instruction buffer and label space are
// shared across functions of the same generator.
func (g *Generator) GenerateFunction(fn *ast.FuncDecl) error {
	g.fn = fn
	g.locals = NewLocalSymbolTable()
	g.loopStack = g.loopStack[:0]

	symbol := MangleFunc(fn)
	g.labels.Define(symbol, g.buf.Len())
	g.comment("function %s", symbol)

	// Declare every local up front so the frame size is known before the
	// prologue is emitted. The walk covers let bindings, pattern bindings,
	// and loop variables.
	for _, p := range fn.Params {
		if _, err := g.locals.Declare(p.Name, g.sizeOf(p.Type), true); err != nil {
			return g.errorf(diag.CodegenABIViolation, "function %s: %v", fn.Name, err)
		}
	}
	if err := g.declareFrame(fn.Body); err != nil {
		return g.errorf(diag.CodegenABIViolation, "function %s: %v", fn.Name, err)
	}

	g.emitPrologue()
	if err := g.spillParameters(fn); err != nil {
		return err
	}

	if fn.Body != nil {
		if err := g.lowerStmt(fn.Body); err != nil {
			return err
		}
	}

	// Fall-through return for unit functions and bodies whose last
	// statement is not a return.
	g.emitEpilogue()
	g.functionsDone.Add(1)
	return nil
}

// emitPrologue saves the caller frame, establishes the new frame register,
// and reserves stack space. The reserved size is already rounded so the
// stack pointer stays 16-byte aligned at every call site.
func (g *Generator) emitPrologue() {
	g.emit(NewInstruction(OpPush, RegOp(g.conv.FrameReg)))
	g.emit(NewMov(g.conv.FrameReg, g.conv.StackReg))
	if size := g.locals.FrameSize(); size > 0 {
		g.emit(NewInstruction(OpSub, RegOp(g.conv.StackReg), ImmOp(int64(size))))
	}
}

// emitEpilogue tears the frame down and returns.
func (g *Generator) emitEpilogue() {
	g.emit(NewMov(g.conv.StackReg, g.conv.FrameReg))
	g.emit(NewInstruction(OpPop, RegOp(g.conv.FrameReg)))
	g.emit(NewRet())
}

// spillParameters copies incoming parameters from their ABI locations into
// the frame slots declared for them. Register parameters store directly;
// stack parameters copy through the return register, which is dead this
// early in the function.
func (g *Generator) spillParameters(fn *ast.FuncDecl) error {
	locs := g.regs.AssignParameters(paramTypesOf(fn))
	for i, p := range fn.Params {
		local, ok := g.locals.Lookup(p.Name)
		if !ok {
			return g.errorf(diag.CodegenABIViolation, "parameter %q has no frame slot", p.Name)
		}
		loc := locs[i]
		g.comment("param %s", p.Name)
		if loc.OnStack {
			scratch := g.conv.IntReturnReg
			g.emit(NewLoad(scratch, g.conv.FrameReg, int32(loc.StackOffset)))
			g.emit(NewStore(g.conv.FrameReg, local.Offset, scratch))
			continue
		}
		if loc.Reg.IsFloat() {
			g.emit(NewInstruction(OpMovsd, MemOp(g.conv.FrameReg, RegNone, 1, local.Offset), RegOp(loc.Reg)))
			continue
		}
		g.emit(NewStore(g.conv.FrameReg, local.Offset, loc.Reg))
	}
	return nil
}

func paramTypesOf(fn *ast.FuncDecl) []*types.Type {
	out := make([]*types.Type, len(fn.Params))
	for i, p := range fn.Params {
		out[i] = p.Type
	}
	return out
}

// emitCall lowers a call to an already-mangled symbol with evaluated
// argument registers. Integer arguments land in the convention's parameter
// registers; overflow arguments push right to left with padding that keeps
// the stack pointer 16-byte aligned across the call. The result register
// is freshly allocated and holds the return value.
func (g *Generator) emitCall(symbol string, args []Register, resultFloat bool) (Register, error) {
	nextInt, nextFloat := 0, 0
	var stackArgs []Register
	for _, r := range args {
		if r.IsFloat() {
			if nextFloat < len(g.conv.FloatParamRegs) {
				if r != g.conv.FloatParamRegs[nextFloat] {
					g.emit(NewInstruction(OpMovsd, RegOp(g.conv.FloatParamRegs[nextFloat]), RegOp(r)))
				}
				nextFloat++
				continue
			}
		} else if nextInt < len(g.conv.IntParamRegs) {
			if r != g.conv.IntParamRegs[nextInt] {
				g.emit(NewMov(g.conv.IntParamRegs[nextInt], r))
			}
			nextInt++
			continue
		}
		stackArgs = append(stackArgs, r)
	}

	padded := len(stackArgs)%2 == 1
	if padded {
		g.emit(NewInstruction(OpSub, RegOp(g.conv.StackReg), ImmOp(8)))
	}
	for i := len(stackArgs) - 1; i >= 0; i-- {
		g.emit(NewInstruction(OpPush, RegOp(stackArgs[i])))
	}

	g.emit(NewCall(symbol))

	if cleanup := len(stackArgs) * 8; cleanup > 0 || padded {
		total := int64(cleanup)
		if padded {
			total += 8
		}
		g.emit(NewInstruction(OpAdd, RegOp(g.conv.StackReg), ImmOp(total)))
	}

	for _, r := range args {
		g.regs.Free(r)
	}

	if resultFloat {
		dst, err := g.allocateFloatReg()
		if err != nil {
			return RegNone, err
		}
		g.emit(NewInstruction(OpMovsd, RegOp(dst), RegOp(g.conv.FloatReturnReg)))
		return dst, nil
	}
	dst, err := g.allocateReg()
	if err != nil {
		return RegNone, err
	}
	g.emit(NewMov(dst, g.conv.IntReturnReg))
	return dst, nil
}

// allocateReg checks out a caller-saved-preferred register or fails with a
// coded error. Lowering never spills automatically; exhaustion is reported
// to the caller and counted by the allocator.
func (g *Generator) allocateReg() (Register, error) {
	r := g.regs.AllocateClass(false, true)
	if r == RegNone {
		return RegNone, g.errorf(diag.CodegenRegisterAllocFailed, "integer register file exhausted in %s", g.fnName())
	}
	return r, nil
}

// allocateFloatReg checks out a floating register with the same policy.
func (g *Generator) allocateFloatReg() (Register, error) {
	r := g.regs.AllocateClass(true, true)
	if r == RegNone {
		return RegNone, g.errorf(diag.CodegenRegisterAllocFailed, "floating register file exhausted in %s", g.fnName())
	}
	return r, nil
}

func (g *Generator) fnName() string {
	if g.fn == nil {
		return "<expr>"
	}
	return g.fn.Name
}
