package codegen

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
)

// lowerStmt lowers one statement. Statement lowering owns every register
// it allocates; nothing stays live across statement boundaries except
// frame slots.
func (g *Generator) lowerStmt(s *ast.Stmt) error {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case ast.StmtLet:
		return g.lowerLet(s)
	case ast.StmtIf:
		return g.lowerIf(s)
	case ast.StmtIfLet:
		return g.lowerIfLet(s)
	case ast.StmtFor:
		return g.lowerFor(s)
	case ast.StmtReturn:
		return g.lowerReturn(s)
	case ast.StmtExpr:
		r, err := g.lowerExprOrPair(s.Expr.X)
		if err != nil {
			return err
		}
		g.regs.Free(r.Lo)
		g.regs.Free(r.Hi)
		return nil
	case ast.StmtBlock:
		for _, inner := range s.Block.Stmts {
			if err := g.lowerStmt(inner); err != nil {
				return err
			}
		}
		return nil
	case ast.StmtBreak:
		loop, ok := g.currentLoop()
		if !ok {
			return g.errorf(diag.CodegenInvalidInstruction, "break outside a loop in %s", g.fnName())
		}
		g.emit(NewJump(loop.end))
		return nil
	case ast.StmtContinue:
		loop, ok := g.currentLoop()
		if !ok {
			return g.errorf(diag.CodegenInvalidInstruction, "continue outside a loop in %s", g.fnName())
		}
		g.emit(NewJump(loop.head))
		return nil
	case ast.StmtMatch:
		return g.lowerMatch(s)
	}
	return g.errorf(diag.CodegenUnsupportedOperation,
		"statement kind %d not supported in %s", s.Kind, g.fnName())
}

// lowerLet evaluates the initializer and stores it into the binding's
// frame slot. Aggregate initializers copy by words from the value's
// address; 128-bit initializers store both halves.
func (g *Generator) lowerLet(s *ast.Stmt) error {
	local, ok := g.locals.Lookup(s.Let.Name)
	if !ok {
		return g.errorf(diag.CodegenInvalidInstruction,
			"let binding %q has no frame slot in %s", s.Let.Name, g.fnName())
	}
	if s.Let.Init == nil {
		return nil
	}
	g.comment("let %s", s.Let.Name)

	if s.Let.Init.Type.Is128Bit() || (s.Let.Init.Type == nil && s.Let.Type.Is128Bit()) {
		pair, err := g.lower128Expr(s.Let.Init)
		if err != nil {
			return err
		}
		g.emit128Store(g.conv.FrameReg, local.Offset, pair)
		g.free128(pair)
		return nil
	}

	v, err := g.lowerExpr(s.Let.Init)
	if err != nil {
		return err
	}
	if isAggregate(s.Let.Init.Type) {
		err = g.copyWords(g.conv.FrameReg, local.Offset, v, local.Size)
		g.regs.Free(v)
		return err
	}
	if v.IsFloat() {
		g.emit(NewInstruction(OpMovsd, MemOp(g.conv.FrameReg, RegNone, 1, local.Offset), RegOp(v)))
	} else {
		g.emit(NewStore(g.conv.FrameReg, local.Offset, v))
	}
	g.regs.Free(v)
	return nil
}

// copyWords copies size bytes from the address in src to [dstBase+dstOff]
// one word at a time through a scratch register.
func (g *Generator) copyWords(dstBase Register, dstOff int32, src Register, size int32) error {
	scratch, err := g.allocateReg()
	if err != nil {
		return err
	}
	for off := int32(0); off < size; off += 8 {
		g.emit(NewLoad(scratch, src, off))
		g.emit(NewStore(dstBase, dstOff+off, scratch))
	}
	g.regs.Free(scratch)
	return nil
}

func (g *Generator) lowerIf(s *ast.Stmt) error {
	cond, err := g.lowerExpr(s.If.Cond)
	if err != nil {
		return err
	}

	elseLabel := g.newLabel(LabelGeneric)
	endLabel := elseLabel
	if s.If.Else != nil {
		endLabel = g.newLabel(LabelGeneric)
	}

	g.emit(NewInstruction(OpTest, RegOp(cond), RegOp(cond)))
	g.regs.Free(cond)
	g.emit(NewCondJump(OpJz, elseLabel, HintNone))

	if err := g.lowerStmt(s.If.Then); err != nil {
		return err
	}
	if s.If.Else != nil {
		g.emit(NewJump(endLabel))
		g.defineLabel(elseLabel)
		if err := g.lowerStmt(s.If.Else); err != nil {
			return err
		}
	}
	g.defineLabel(endLabel)
	return nil
}

// lowerIfLet tests one pattern against a value and runs the then branch
// with the pattern's bindings in scope.
func (g *Generator) lowerIfLet(s *ast.Stmt) error {
	value, err := g.lowerExpr(s.IfLet.Value)
	if err != nil {
		return err
	}

	elseLabel := g.newLabel(LabelGeneric)
	endLabel := elseLabel
	if s.IfLet.Else != nil {
		endLabel = g.newLabel(LabelGeneric)
	}

	if err := g.emitPatternTest(s.IfLet.Pattern, value, s.IfLet.Value.Type, elseLabel); err != nil {
		g.regs.Free(value)
		return err
	}
	if err := g.emitPatternBindings(s.IfLet.Pattern, value, s.IfLet.Value.Type); err != nil {
		g.regs.Free(value)
		return err
	}
	g.regs.Free(value)

	if err := g.lowerStmt(s.IfLet.Then); err != nil {
		return err
	}
	if s.IfLet.Else != nil {
		g.emit(NewJump(endLabel))
		g.defineLabel(elseLabel)
		if err := g.lowerStmt(s.IfLet.Else); err != nil {
			return err
		}
	}
	g.defineLabel(endLabel)
	return nil
}

// lowerFor lowers a counting loop: the variable runs from zero up to the
// integer bound produced by the iterable expression.
func (g *Generator) lowerFor(s *ast.Stmt) error {
	if s.For.Iterable == nil || isAggregate(s.For.Iterable.Type) {
		return g.errorf(diag.CodegenUnsupportedOperation,
			"for loop iterable must be an integer bound in %s", g.fnName())
	}
	local, ok := g.locals.Lookup(s.For.Var)
	if !ok {
		return g.errorf(diag.CodegenInvalidInstruction,
			"loop variable %q has no frame slot in %s", s.For.Var, g.fnName())
	}

	bound, err := g.lowerExpr(s.For.Iterable)
	if err != nil {
		return err
	}

	zero, err := g.allocateReg()
	if err != nil {
		g.regs.Free(bound)
		return err
	}
	g.emit(NewInstruction(OpXor, RegOp(zero), RegOp(zero)))
	g.emit(NewStore(g.conv.FrameReg, local.Offset, zero))
	g.regs.Free(zero)

	head := g.newLabel(LabelLoopHead)
	end := g.newLabel(LabelLoopEnd)
	g.pushLoop(head, end)
	defer g.popLoop()

	g.defineLabel(head)
	cur, err := g.allocateReg()
	if err != nil {
		g.regs.Free(bound)
		return err
	}
	g.emit(NewLoad(cur, g.conv.FrameReg, local.Offset))
	g.emit(NewCmp(cur, bound))
	g.regs.Free(cur)
	g.emit(NewCondJump(OpJge, end, HintUnlikely))

	if err := g.lowerStmt(s.For.Body); err != nil {
		g.regs.Free(bound)
		return err
	}

	// Increment through memory so the body is free to clobber registers.
	g.emit(NewInstruction(OpInc, MemOp(g.conv.FrameReg, RegNone, 1, local.Offset)))
	g.emit(NewJump(head))
	g.defineLabel(end)
	g.regs.Free(bound)
	return nil
}

func (g *Generator) lowerReturn(s *ast.Stmt) error {
	if s.Return.Value != nil {
		if s.Return.Value.Type.Is128Bit() {
			pair, err := g.lower128Expr(s.Return.Value)
			if err != nil {
				return err
			}
			// 128-bit results return in the RDX:RAX-style pair of the
			// convention: low half in the integer return register, high
			// half in the second dividend register.
			g.emit(NewMov(g.conv.IntReturnReg, pair.Lo))
			g.emit(NewMov(Register(regRDX), pair.Hi))
			g.free128(pair)
		} else {
			v, err := g.lowerExpr(s.Return.Value)
			if err != nil {
				return err
			}
			if v.IsFloat() {
				g.emit(NewInstruction(OpMovsd, RegOp(g.conv.FloatReturnReg), RegOp(v)))
			} else if v != g.conv.IntReturnReg {
				g.emit(NewMov(g.conv.IntReturnReg, v))
			}
			g.regs.Free(v)
		}
	}
	g.emitEpilogue()
	return nil
}

// lowerExprOrPair lowers an expression of any width. Scalars come back in
// Lo with Hi set to RegNone.
func (g *Generator) lowerExprOrPair(e *ast.Expr) (RegPair, error) {
	if e.Type.Is128Bit() {
		return g.lower128Expr(e)
	}
	r, err := g.lowerExpr(e)
	if err != nil {
		return RegPair{Lo: RegNone, Hi: RegNone}, err
	}
	return RegPair{Lo: r, Hi: RegNone}, nil
}
