package codegen

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/matchopt"
	"cinder/internal/types"
)

// lowerMatch dispatches a match statement using the strategy the analyzer
// picked: a jump table for dense integer arms, a binary search for many
// sparse ones, and sequential pattern tests otherwise.
func (g *Generator) lowerMatch(s *ast.Stmt) error {
	value, err := g.lowerExpr(s.Match.Value)
	if err != nil {
		return err
	}

	decision := matchopt.Analyze(&s.Match)
	g.comment("match dispatch: %s", decision.Strategy)

	endLabel := g.newLabel(LabelMatchEnd)
	switch decision.Strategy {
	case matchopt.StrategyJumpTable:
		err = g.emitJumpTableMatch(s, decision, value, endLabel)
	case matchopt.StrategyBinarySearch:
		err = g.emitBinarySearchMatch(s, decision, value, endLabel)
	default:
		err = g.emitSequentialMatch(s, value, endLabel)
	}
	g.regs.Free(value)
	if err != nil {
		return err
	}
	g.defineLabel(endLabel)
	return nil
}

// emitSequentialMatch tests arms in source order. Each arm gets a label so
// a failed pattern test falls through to the next arm.
func (g *Generator) emitSequentialMatch(s *ast.Stmt, value Register, endLabel string) error {
	valueType := s.Match.Value.Type
	for i, arm := range s.Match.Arms {
		nextLabel := endLabel
		if i != len(s.Match.Arms)-1 {
			nextLabel = g.newLabel(LabelMatchArm)
		}

		if err := g.emitPatternTest(arm.Pattern, value, valueType, nextLabel); err != nil {
			return err
		}
		if err := g.emitPatternBindings(arm.Pattern, value, valueType); err != nil {
			return err
		}
		if arm.Guard != nil {
			guard, err := g.lowerExpr(arm.Guard)
			if err != nil {
				return err
			}
			g.emit(NewInstruction(OpTest, RegOp(guard), RegOp(guard)))
			g.regs.Free(guard)
			g.emit(NewCondJump(OpJz, nextLabel, HintNone))
		}
		if err := g.lowerStmt(arm.Body); err != nil {
			return err
		}
		g.emit(NewJump(endLabel))

		if nextLabel != endLabel {
			g.defineLabel(nextLabel)
		}
	}
	return nil
}

// emitJumpTableMatch emits a bounds check, an indirect jump through a
// table of arm addresses, the table itself, and the arm bodies. The
// analyzer only picks this shape for all-integer arm lists, so unmatched
// values exit past the match; table slots with no arm do the same.
func (g *Generator) emitJumpTableMatch(s *ast.Stmt, d matchopt.Decision, value Register, endLabel string) error {
	// Out-of-range scrutinees match nothing.
	g.emit(NewInstruction(OpCmp, RegOp(value), ImmOp(d.Min)))
	g.emit(NewCondJump(OpJl, endLabel, HintUnlikely))
	g.emit(NewInstruction(OpCmp, RegOp(value), ImmOp(d.Max)))
	g.emit(NewCondJump(OpJg, endLabel, HintUnlikely))

	idx, err := g.allocateReg()
	if err != nil {
		return err
	}
	g.emit(NewMov(idx, value))
	if d.Min != 0 {
		g.emit(NewInstruction(OpSub, RegOp(idx), ImmOp(d.Min)))
	}

	tableLabel := g.newLabel(LabelJumpTable)
	g.emit(NewInstruction(OpJmp, LabelMemOp(tableLabel, idx, 8)))
	g.regs.Free(idx)

	// Table entries, one per value in [Min, Max].
	armLabels := make(map[int64]string, len(d.Cases))
	for _, c := range d.Cases {
		armLabels[c.Value] = g.newLabel(LabelMatchArm)
	}
	g.defineLabel(tableLabel)
	for v := d.Min; v <= d.Max; v++ {
		target := endLabel
		if l, ok := armLabels[v]; ok {
			target = l
		}
		g.emit(NewInstruction(OpQuad, LabelOp(target)))
	}

	for _, c := range d.Cases {
		g.defineLabel(armLabels[c.Value])
		if err := g.lowerStmt(s.Match.Arms[c.Arm].Body); err != nil {
			return err
		}
		g.emit(NewJump(endLabel))
	}
	return nil
}

// emitBinarySearchMatch bisects the sorted case values. Each comparison
// either hits an arm or halves the remaining range; misses exit past the
// match.
func (g *Generator) emitBinarySearchMatch(s *ast.Stmt, d matchopt.Decision, value Register, endLabel string) error {
	armLabels := make([]string, len(d.Cases))
	for i := range d.Cases {
		armLabels[i] = g.newLabel(LabelMatchArm)
	}

	g.emitBisect(d.Cases, armLabels, 0, len(d.Cases)-1, value, endLabel)

	for i, c := range d.Cases {
		g.defineLabel(armLabels[i])
		if err := g.lowerStmt(s.Match.Arms[c.Arm].Body); err != nil {
			return err
		}
		g.emit(NewJump(endLabel))
	}
	return nil
}

// emitBisect emits the comparison tree over cases[lo..hi].
func (g *Generator) emitBisect(cases []matchopt.Case, armLabels []string, lo, hi int, value Register, defaultLabel string) {
	if lo > hi {
		g.emit(NewJump(defaultLabel))
		return
	}
	mid := (lo + hi) / 2
	g.emit(NewInstruction(OpCmp, RegOp(value), ImmOp(cases[mid].Value)))
	g.emit(NewCondJump(OpJe, armLabels[mid], HintNone))

	if lo == hi {
		g.emit(NewJump(defaultLabel))
		return
	}
	rightLabel := g.newLabel(LabelGeneric)
	g.emit(NewCondJump(OpJge, rightLabel, HintNone))
	g.emitBisect(cases, armLabels, lo, mid-1, value, defaultLabel)
	g.defineLabel(rightLabel)
	g.emitBisect(cases, armLabels, mid+1, hi, value, defaultLabel)
}

// emitPatternTest emits the checks that decide whether value matches p,
// jumping to failLabel on mismatch. Bindings are not written here; a test
// must be free of side effects because sequential dispatch runs it for
// arms that end up not taken.
func (g *Generator) emitPatternTest(p *ast.Pattern, value Register, valueType *types.Type, failLabel string) error {
	if p == nil {
		return g.errorf(diag.CodegenInvalidInstruction, "nil pattern in %s", g.fnName())
	}
	switch p.Kind {
	case ast.PatWildcard, ast.PatBind:
		return nil

	case ast.PatInt:
		g.emit(NewInstruction(OpCmp, RegOp(value), ImmOp(p.Int.Value)))
		g.emit(NewCondJump(OpJne, failLabel, HintNone))
		return nil

	case ast.PatRange:
		g.emit(NewInstruction(OpCmp, RegOp(value), ImmOp(p.Range.Start)))
		g.emit(NewCondJump(OpJl, failLabel, HintNone))
		g.emit(NewInstruction(OpCmp, RegOp(value), ImmOp(p.Range.End)))
		g.emit(NewCondJump(OpJg, failLabel, HintNone))
		return nil

	case ast.PatEnum:
		variant := valueType.VariantByName(p.Enum.VariantName)
		if variant == nil {
			return g.errorf(diag.CodegenInvalidInstruction,
				"enum %s has no variant %q", p.Enum.EnumName, p.Enum.VariantName)
		}
		tag, err := g.allocateReg()
		if err != nil {
			return err
		}
		g.comment("test %s::%s", p.Enum.EnumName, p.Enum.VariantName)
		g.emit(NewLoad(tag, value, 0))
		g.emit(NewInstruction(OpCmp, RegOp(tag), ImmOp(int64(variant.Tag))))
		g.regs.Free(tag)
		g.emit(NewCondJump(OpJne, failLabel, HintNone))
		return nil

	case ast.PatStruct:
		// Struct patterns are irrefutable; only their bindings matter.
		return nil
	}
	return g.errorf(diag.CodegenUnsupportedOperation,
		"pattern kind %d not supported in %s", p.Kind, g.fnName())
}

// emitPatternBindings stores the values a matched pattern binds into their
// frame slots.
func (g *Generator) emitPatternBindings(p *ast.Pattern, value Register, valueType *types.Type) error {
	switch p.Kind {
	case ast.PatBind:
		return g.bindValue(p.Bind.Name, value)

	case ast.PatEnum:
		if p.Enum.Binding == "" {
			return nil
		}
		payload, err := g.allocateReg()
		if err != nil {
			return err
		}
		g.emit(NewLoad(payload, value, enumPayloadOffset))
		err = g.bindValue(p.Enum.Binding, payload)
		g.regs.Free(payload)
		return err

	case ast.PatStruct:
		for _, f := range p.Struct.Fields {
			if f.Binding == "" {
				continue
			}
			field := valueType.FieldByName(f.Name)
			if field == nil {
				return g.errorf(diag.CodegenInvalidInstruction,
					"struct %s has no field %q", valueType, f.Name)
			}
			fv, err := g.allocateReg()
			if err != nil {
				return err
			}
			g.emit(NewLoad(fv, value, int32(field.Offset)))
			if err := g.bindValue(f.Binding, fv); err != nil {
				g.regs.Free(fv)
				return err
			}
			g.regs.Free(fv)
		}
		return nil
	}
	return nil
}

// bindValue stores a register into the frame slot of a named binding.
func (g *Generator) bindValue(name string, value Register) error {
	local, ok := g.locals.Lookup(name)
	if !ok {
		return g.errorf(diag.CodegenInvalidInstruction,
			"binding %q has no frame slot in %s", name, g.fnName())
	}
	g.comment("bind %s", name)
	g.emit(NewStore(g.conv.FrameReg, local.Offset, value))
	return nil
}
