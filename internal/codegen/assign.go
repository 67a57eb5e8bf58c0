package codegen

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
)

// lowerAssign stores a value into an lvalue target. Assignments are
// expressions: the value register is returned to the caller still live so
// chained assignments and uses of the assigned value cost nothing extra.
func (g *Generator) lowerAssign(e *ast.Expr) (Register, error) {
	target := e.Assign.Target
	value := e.Assign.Value

	if value.Type.Is128Bit() {
		if err := g.lower128Assign(target, value); err != nil {
			return RegNone, err
		}
		// The 128-bit pair lives in memory; yield the target address so
		// the expression still has a value.
		return g.lowerAddress(target)
	}

	switch target.Kind {
	case ast.ExprIdent:
		local, ok := g.locals.Lookup(target.Ident.Name)
		if !ok {
			return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
				"assignment to undefined local %q in %s", target.Ident.Name, g.fnName())
		}
		v, err := g.lowerExpr(value)
		if err != nil {
			return RegNone, err
		}
		g.comment("store %s", target.Ident.Name)
		if v.IsFloat() {
			g.emit(NewInstruction(OpMovsd, MemOp(g.conv.FrameReg, RegNone, 1, local.Offset), RegOp(v)))
		} else {
			g.emit(NewStore(g.conv.FrameReg, local.Offset, v))
		}
		return v, nil

	case ast.ExprField, ast.ExprIndex:
		addr, err := g.lowerAddress(target)
		if err != nil {
			return RegNone, err
		}
		v, err := g.lowerExpr(value)
		if err != nil {
			g.regs.Free(addr)
			return RegNone, err
		}
		if v.IsFloat() {
			g.emit(NewInstruction(OpMovsd, MemOp(addr, RegNone, 1, 0), RegOp(v)))
		} else {
			g.emit(NewStore(addr, 0, v))
		}
		g.regs.Free(addr)
		return v, nil

	case ast.ExprUnary:
		if target.Unary.Op != ast.UnDeref {
			break
		}
		ptr, err := g.lowerExpr(target.Unary.Operand)
		if err != nil {
			return RegNone, err
		}
		v, err := g.lowerExpr(value)
		if err != nil {
			g.regs.Free(ptr)
			return RegNone, err
		}
		g.emit(NewStore(ptr, 0, v))
		g.regs.Free(ptr)
		return v, nil
	}

	return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
		"assignment target is not an lvalue in %s", g.fnName())
}
