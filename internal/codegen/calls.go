package codegen

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/types"
)

// Symbol mangling is the contract between call sites and function labels.
// The scheme is flat and collision-free as long as user identifiers avoid
// the reserved separators:
//
//	plain function     name
//	instance method    Struct_instance_name
//	associated func    Struct_associated_name
//	enum constructor   Enum_Variant_new
//
// Mangled names depend only on declaration names and concrete type names,
// so they are stable across builds and build machines.

// MangleFunc returns the symbol for a function declaration.
func MangleFunc(fn *ast.FuncDecl) string {
	if fn.StructName == "" {
		return fn.Name
	}
	if fn.IsInstance {
		return fn.StructName + "_instance_" + fn.Name
	}
	return fn.StructName + "_associated_" + fn.Name
}

// MangleMethod returns the symbol for a method of a named struct.
func MangleMethod(structName, method string, instance bool) string {
	if instance {
		return structName + "_instance_" + method
	}
	return structName + "_associated_" + method
}

// lowerCall lowers plain calls and instance method calls. The callee shape
// decides the symbol: identifiers call free functions, field accesses call
// instance methods with the object as the implicit first argument.
func (g *Generator) lowerCall(e *ast.Expr) (Register, error) {
	callee := e.Call.Func
	if callee == nil {
		return RegNone, g.errorf(diag.CodegenInvalidInstruction, "call without a callee in %s", g.fnName())
	}

	switch callee.Kind {
	case ast.ExprIdent:
		args, err := g.lowerArgs(nil, e.Call.Args)
		if err != nil {
			return RegNone, err
		}
		g.comment("call %s", callee.Ident.Name)
		return g.emitCall(callee.Ident.Name, args, e.Type.IsFloat())

	case ast.ExprField:
		recv := callee.Field.Object
		structName, err := g.receiverTypeName(recv)
		if err != nil {
			return RegNone, err
		}
		recvAddr, err := g.lowerObjectAddress(recv)
		if err != nil {
			return RegNone, err
		}
		args, err := g.lowerArgs([]Register{recvAddr}, e.Call.Args)
		if err != nil {
			g.regs.Free(recvAddr)
			return RegNone, err
		}
		symbol := MangleMethod(structName, callee.Field.Name, true)
		g.comment("call %s", symbol)
		return g.emitCall(symbol, args, e.Type.IsFloat())
	}

	return RegNone, g.errorf(diag.CodegenUnsupportedOperation,
		"indirect calls are not supported in %s", g.fnName())
}

// lowerAssociatedCall lowers a type-qualified static call.
func (g *Generator) lowerAssociatedCall(e *ast.Expr) (Register, error) {
	args, err := g.lowerArgs(nil, e.Associated.Args)
	if err != nil {
		return RegNone, err
	}
	symbol := MangleMethod(e.Associated.StructName, e.Associated.FuncName, false)
	g.comment("call %s", symbol)
	return g.emitCall(symbol, args, e.Type.IsFloat())
}

// lowerArgs evaluates arguments left to right, appending to any implicit
// prefix already evaluated. On error every evaluated register is freed.
func (g *Generator) lowerArgs(prefix []Register, args []*ast.Expr) ([]Register, error) {
	out := prefix
	for _, a := range args {
		r, err := g.lowerExpr(a)
		if err != nil {
			for _, prev := range out {
				g.regs.Free(prev)
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// receiverTypeName resolves the concrete struct name of a method receiver.
func (g *Generator) receiverTypeName(recv *ast.Expr) (string, error) {
	t := recv.Type
	if t != nil && t.Kind == types.KindPointer {
		t = t.Elem
	}
	if t == nil || t.Kind != types.KindStruct || t.Name == "" {
		return "", g.errorf(diag.CodegenInvalidInstruction,
			"method receiver has no struct type in %s", g.fnName())
	}
	return t.Name, nil
}
