package codegen

import (
	"math"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/types"
)

// Instantiator resolves a generic struct application to a concrete type
// layout. The monomorphization registry implements it; tests may stub it.
type Instantiator interface {
	Instantiate(structName string, typeArgs []*types.Type) (*types.Type, error)
}

// SetInstantiator wires the generic instantiation registry. Lowering of
// generic struct literals fails without one.
func (g *Generator) SetInstantiator(inst Instantiator) {
	g.inst = inst
}

// lowerExpr lowers an expression and returns the register holding its
// value. The caller owns the register and frees it when the value dies.
// 128-bit expressions never reach this path; statement lowering routes
// them through register pairs first.
func (g *Generator) lowerExpr(e *ast.Expr) (Register, error) {
	if e == nil {
		return RegNone, g.errorf(diag.CodegenInvalidInstruction, "nil expression in %s", g.fnName())
	}
	if e.Type.Is128Bit() {
		return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
			"128-bit value used where a single register is required in %s", g.fnName())
	}

	switch e.Kind {
	case ast.ExprIntLit:
		dst, err := g.allocateReg()
		if err != nil {
			return RegNone, err
		}
		g.emit(NewMovImm(dst, e.IntLit.Value()))
		return dst, nil

	case ast.ExprBoolLit:
		dst, err := g.allocateReg()
		if err != nil {
			return RegNone, err
		}
		v := int64(0)
		if e.BoolLit.Value {
			v = 1
		}
		g.emit(NewMovImm(dst, v))
		return dst, nil

	case ast.ExprFloatLit:
		return g.lowerFloatLit(e.FloatLit.Value)

	case ast.ExprIdent:
		local, ok := g.locals.Lookup(e.Ident.Name)
		if !ok {
			return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
				"undefined local %q in %s", e.Ident.Name, g.fnName())
		}
		// Aggregates are represented by address; scalars by value.
		if isAggregate(e.Type) {
			return g.lowerAddress(e)
		}
		if e.Type.IsFloat() {
			dst, err := g.allocateFloatReg()
			if err != nil {
				return RegNone, err
			}
			g.emit(NewInstruction(OpMovsd, RegOp(dst), MemOp(g.conv.FrameReg, RegNone, 1, local.Offset)))
			return dst, nil
		}
		dst, err := g.allocateReg()
		if err != nil {
			return RegNone, err
		}
		g.comment("load %s", e.Ident.Name)
		g.emit(NewLoad(dst, g.conv.FrameReg, local.Offset))
		return dst, nil

	case ast.ExprBinary:
		return g.lowerBinary(e)

	case ast.ExprUnary:
		return g.lowerUnary(e)

	case ast.ExprAssign:
		return g.lowerAssign(e)

	case ast.ExprCall:
		return g.lowerCall(e)

	case ast.ExprAssociatedCall:
		return g.lowerAssociatedCall(e)

	case ast.ExprField, ast.ExprIndex:
		if e.Kind == ast.ExprIndex && !isAggregate(e.Type) && !e.Type.IsFloat() {
			if reg, ok, err := g.lowerScaledIndexLoad(e); ok || err != nil {
				return reg, err
			}
		}
		addr, err := g.lowerAddress(e)
		if err != nil {
			return RegNone, err
		}
		if isAggregate(e.Type) {
			return addr, nil
		}
		if e.Type.IsFloat() {
			dst, ferr := g.allocateFloatReg()
			if ferr != nil {
				g.regs.Free(addr)
				return RegNone, ferr
			}
			g.emit(NewInstruction(OpMovsd, RegOp(dst), MemOp(addr, RegNone, 1, 0)))
			g.regs.Free(addr)
			return dst, nil
		}
		g.emit(NewLoad(addr, addr, 0))
		return addr, nil

	case ast.ExprStructLit:
		return g.lowerStructLit(e)

	case ast.ExprArrayLit:
		return g.lowerArrayLit(e)

	case ast.ExprTupleLit:
		return g.lowerTupleLit(e)

	case ast.ExprEnumVariant:
		return g.lowerEnumVariant(e)
	}

	return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
		"expression kind %d not supported in %s", e.Kind, g.fnName())
}

// lowerFloatLit materializes a double constant through an integer scratch
// register holding its bit pattern.
func (g *Generator) lowerFloatLit(v float64) (Register, error) {
	scratch, err := g.allocateReg()
	if err != nil {
		return RegNone, err
	}
	dst, err := g.allocateFloatReg()
	if err != nil {
		g.regs.Free(scratch)
		return RegNone, err
	}
	g.emit(NewMovImm(scratch, int64(math.Float64bits(v))))
	g.emit(NewInstruction(OpMovq, RegOp(dst), RegOp(scratch)))
	g.regs.Free(scratch)
	return dst, nil
}

// lowerBinary lowers arithmetic, bitwise, comparison, and short-circuit
// operators. Results accumulate into the left operand's register.
func (g *Generator) lowerBinary(e *ast.Expr) (Register, error) {
	op := e.Binary.Op

	if op == ast.BinAnd || op == ast.BinOr {
		return g.lowerShortCircuit(e)
	}
	if e.Binary.Left.Type.Is128Bit() {
		if op.IsComparison() {
			return g.lower128Comparison(e)
		}
		return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
			"128-bit value used where a single register is required in %s", g.fnName())
	}

	left, err := g.lowerExpr(e.Binary.Left)
	if err != nil {
		return RegNone, err
	}
	right, err := g.lowerExpr(e.Binary.Right)
	if err != nil {
		g.regs.Free(left)
		return RegNone, err
	}

	if op.IsComparison() {
		return g.lowerComparison(op, left, right, e.Binary.Left.Type)
	}

	switch op {
	case ast.BinAdd:
		g.emit(NewInstruction(OpAdd, RegOp(left), RegOp(right)))
	case ast.BinSub:
		g.emit(NewInstruction(OpSub, RegOp(left), RegOp(right)))
	case ast.BinMul:
		g.emit(NewInstruction(OpImul, RegOp(left), RegOp(right)))
	case ast.BinDiv, ast.BinMod:
		return g.lowerDivMod(op, left, right, e.Binary.Left.Type)
	case ast.BinBitAnd:
		g.emit(NewInstruction(OpAnd, RegOp(left), RegOp(right)))
	case ast.BinBitOr:
		g.emit(NewInstruction(OpOr, RegOp(left), RegOp(right)))
	case ast.BinBitXor:
		g.emit(NewInstruction(OpXor, RegOp(left), RegOp(right)))
	case ast.BinShl:
		g.emit(NewInstruction(OpShl, RegOp(left), RegOp(right)))
	case ast.BinShr:
		g.emit(NewInstruction(OpShr, RegOp(left), RegOp(right)))
	default:
		g.regs.Free(left)
		g.regs.Free(right)
		return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
			"binary operator %d not supported in %s", op, g.fnName())
	}

	g.regs.Free(right)
	return left, nil
}

// lowerComparison emits cmp plus a set-condition-code into the low byte of
// the left register. Signedness of the operands picks between signed and
// unsigned condition codes.
func (g *Generator) lowerComparison(op ast.BinaryOp, left, right Register, operandType *types.Type) (Register, error) {
	signed := operandType == nil || operandType.IsSigned()

	g.emit(NewCmp(left, right))
	g.regs.Free(right)

	cond := comparisonCond(op, signed)
	g.emit(NewMovImm(left, 0))
	g.emit(NewSet(cond, left))
	return left, nil
}

func comparisonCond(op ast.BinaryOp, signed bool) Cond {
	switch op {
	case ast.BinEq:
		return CondE
	case ast.BinNe:
		return CondNE
	case ast.BinLt:
		if signed {
			return CondL
		}
		return CondB
	case ast.BinLe:
		if signed {
			return CondLE
		}
		return CondBE
	case ast.BinGt:
		if signed {
			return CondG
		}
		return CondA
	case ast.BinGe:
		if signed {
			return CondGE
		}
		return CondAE
	}
	return CondNone
}

// lowerDivMod routes division through the convention's fixed dividend
// registers. RDX:RAX holds the widened dividend; the quotient lands in RAX
// and the remainder in RDX.
func (g *Generator) lowerDivMod(op ast.BinaryOp, left, right Register, operandType *types.Type) (Register, error) {
	signed := operandType == nil || operandType.IsSigned()

	rax := Register(regRAX)
	rdx := Register(regRDX)

	g.emit(NewMov(rax, left))
	if signed {
		g.emit(NewInstruction(OpCqo))
		g.emit(NewInstruction(OpIdiv, RegOp(right)))
	} else {
		g.emit(NewInstruction(OpXor, RegOp(rdx), RegOp(rdx)))
		g.emit(NewInstruction(OpDiv, RegOp(right)))
	}
	if op == ast.BinMod {
		g.emit(NewMov(left, rdx))
	} else {
		g.emit(NewMov(left, rax))
	}
	g.regs.Free(right)
	return left, nil
}

// lowerShortCircuit lowers && and || with a skip label so the right
// operand only evaluates when it can affect the result.
func (g *Generator) lowerShortCircuit(e *ast.Expr) (Register, error) {
	left, err := g.lowerExpr(e.Binary.Left)
	if err != nil {
		return RegNone, err
	}

	done := g.newLabel(LabelShortCircuit)
	g.emit(NewInstruction(OpTest, RegOp(left), RegOp(left)))
	if e.Binary.Op == ast.BinAnd {
		g.emit(NewCondJump(OpJz, done, HintNone))
	} else {
		g.emit(NewCondJump(OpJnz, done, HintNone))
	}

	right, err := g.lowerExpr(e.Binary.Right)
	if err != nil {
		g.regs.Free(left)
		return RegNone, err
	}
	g.emit(NewMov(left, right))
	g.regs.Free(right)

	g.defineLabel(done)
	return left, nil
}

// lowerUnary lowers negation, logical not, bitwise not, and dereference.
func (g *Generator) lowerUnary(e *ast.Expr) (Register, error) {
	operand, err := g.lowerExpr(e.Unary.Operand)
	if err != nil {
		return RegNone, err
	}
	switch e.Unary.Op {
	case ast.UnNeg:
		g.emit(NewInstruction(OpNeg, RegOp(operand)))
	case ast.UnNot:
		// Booleans are strictly 0 or 1, so logical not is a bit flip.
		g.emit(NewInstruction(OpXor, RegOp(operand), ImmOp(1)))
	case ast.UnBitNot:
		g.emit(NewInstruction(OpNot, RegOp(operand)))
	case ast.UnDeref:
		g.emit(NewLoad(operand, operand, 0))
	default:
		g.regs.Free(operand)
		return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
			"unary operator %d not supported in %s", e.Unary.Op, g.fnName())
	}
	return operand, nil
}

// lowerAddress computes the address of an lvalue into a fresh register.
func (g *Generator) lowerAddress(e *ast.Expr) (Register, error) {
	switch e.Kind {
	case ast.ExprIdent:
		local, ok := g.locals.Lookup(e.Ident.Name)
		if !ok {
			return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
				"undefined local %q in %s", e.Ident.Name, g.fnName())
		}
		dst, err := g.allocateReg()
		if err != nil {
			return RegNone, err
		}
		g.emit(NewInstruction(OpLea, RegOp(dst), MemOp(g.conv.FrameReg, RegNone, 1, local.Offset)))
		return dst, nil

	case ast.ExprField:
		obj := e.Field.Object
		base, err := g.lowerObjectAddress(obj)
		if err != nil {
			return RegNone, err
		}
		structType := obj.Type
		if structType != nil && structType.Kind == types.KindPointer {
			structType = structType.Elem
		}
		field := structType.FieldByName(e.Field.Name)
		if field == nil {
			g.regs.Free(base)
			return RegNone, g.errorf(diag.CodegenInvalidInstruction,
				"type %s has no field %q", structType, e.Field.Name)
		}
		if field.Offset != 0 {
			g.emit(NewInstruction(OpAdd, RegOp(base), ImmOp(int64(field.Offset))))
		}
		return base, nil

	case ast.ExprIndex:
		base, err := g.lowerObjectAddress(e.Index.Object)
		if err != nil {
			return RegNone, err
		}
		idx, err := g.lowerExpr(e.Index.Index)
		if err != nil {
			g.regs.Free(base)
			return RegNone, err
		}
		elemSize := g.sizeOf(e.Type)
		switch elemSize {
		case 1, 2, 4, 8:
			g.emit(NewInstruction(OpLea, RegOp(base), MemOp(base, idx, elemSize, 0)))
		default:
			g.emit(NewInstruction(OpImul, RegOp(idx), ImmOp(int64(elemSize))))
			g.emit(NewInstruction(OpAdd, RegOp(base), RegOp(idx)))
		}
		g.regs.Free(idx)
		return base, nil

	case ast.ExprUnary:
		if e.Unary.Op == ast.UnDeref {
			return g.lowerExpr(e.Unary.Operand)
		}
	}
	return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
		"expression is not addressable in %s", g.fnName())
}

// isAggregate reports whether values of t live in memory and are passed
// around by address during lowering.
func isAggregate(t *types.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case types.KindStruct, types.KindEnum, types.KindArray, types.KindTuple:
		return true
	}
	return false
}

// lowerObjectAddress produces the base address of a field or index target.
// Pointer-typed objects contribute their value; aggregate objects
// contribute their storage address.
func (g *Generator) lowerObjectAddress(obj *ast.Expr) (Register, error) {
	if obj.Type != nil && obj.Type.Kind == types.KindPointer {
		return g.lowerExpr(obj)
	}
	return g.lowerAddress(obj)
}

// lowerScaledIndexLoad loads a scalar element through [base + index*scale]
// in one instruction when the element size is a hardware scale. ok is false
// when the caller must fall back to the address-then-load path.
func (g *Generator) lowerScaledIndexLoad(e *ast.Expr) (reg Register, ok bool, err error) {
	scale := g.sizeOf(e.Type)
	switch scale {
	case 1, 2, 4, 8:
	default:
		return RegNone, false, nil
	}
	base, err := g.lowerObjectAddress(e.Index.Object)
	if err != nil {
		return RegNone, true, err
	}
	idx, err := g.lowerExpr(e.Index.Index)
	if err != nil {
		g.regs.Free(base)
		return RegNone, true, err
	}
	g.emit(NewIndexedLoad(base, base, idx, scale))
	g.regs.Free(idx)
	return base, true, nil
}
