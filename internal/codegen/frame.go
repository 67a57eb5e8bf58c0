package codegen

import (
	"cinder/internal/ast"
)

// declareFrame walks a function body and reserves frame slots for every
// binding and every aggregate-literal temporary before any code is
// emitted. Knowing the full frame up front lets the prologue reserve the
// exact stack size in one instruction.
func (g *Generator) declareFrame(s *ast.Stmt) error {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case ast.StmtLet:
		g.declareName(s.Let.Name, g.sizeOf(s.Let.Type))
		return g.declareExprFrame(s.Let.Init)

	case ast.StmtIf:
		if err := g.declareExprFrame(s.If.Cond); err != nil {
			return err
		}
		if err := g.declareFrame(s.If.Then); err != nil {
			return err
		}
		return g.declareFrame(s.If.Else)

	case ast.StmtIfLet:
		g.declarePattern(s.IfLet.Pattern)
		if err := g.declareExprFrame(s.IfLet.Value); err != nil {
			return err
		}
		if err := g.declareFrame(s.IfLet.Then); err != nil {
			return err
		}
		return g.declareFrame(s.IfLet.Else)

	case ast.StmtFor:
		g.declareName(s.For.Var, 8)
		if err := g.declareExprFrame(s.For.Iterable); err != nil {
			return err
		}
		return g.declareFrame(s.For.Body)

	case ast.StmtReturn:
		return g.declareExprFrame(s.Return.Value)

	case ast.StmtExpr:
		return g.declareExprFrame(s.Expr.X)

	case ast.StmtBlock:
		for _, inner := range s.Block.Stmts {
			if err := g.declareFrame(inner); err != nil {
				return err
			}
		}
		return nil

	case ast.StmtMatch:
		if err := g.declareExprFrame(s.Match.Value); err != nil {
			return err
		}
		for _, arm := range s.Match.Arms {
			g.declarePattern(arm.Pattern)
			if err := g.declareExprFrame(arm.Guard); err != nil {
				return err
			}
			if err := g.declareFrame(arm.Body); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// declareExprFrame reserves literal temporaries inside an expression tree.
func (g *Generator) declareExprFrame(e *ast.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.ExprBinary:
		if err := g.declareExprFrame(e.Binary.Left); err != nil {
			return err
		}
		return g.declareExprFrame(e.Binary.Right)

	case ast.ExprUnary:
		return g.declareExprFrame(e.Unary.Operand)

	case ast.ExprAssign:
		if err := g.declareExprFrame(e.Assign.Target); err != nil {
			return err
		}
		return g.declareExprFrame(e.Assign.Value)

	case ast.ExprCall:
		if err := g.declareExprFrame(e.Call.Func); err != nil {
			return err
		}
		for _, a := range e.Call.Args {
			if err := g.declareExprFrame(a); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprAssociatedCall:
		for _, a := range e.Associated.Args {
			if err := g.declareExprFrame(a); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprField:
		return g.declareExprFrame(e.Field.Object)

	case ast.ExprIndex:
		if err := g.declareExprFrame(e.Index.Object); err != nil {
			return err
		}
		return g.declareExprFrame(e.Index.Index)

	case ast.ExprStructLit:
		layout, err := g.structLayout(e)
		if err != nil {
			return err
		}
		g.declareName(litSlotName(e.Span), int32(layout.Size))
		for _, init := range e.StructLit.Inits {
			if err := g.declareExprFrame(init.Value); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprArrayLit:
		g.declareName(litSlotName(e.Span), g.sizeOf(e.Type))
		for _, elem := range e.ArrayLit.Elems {
			if err := g.declareExprFrame(elem); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprTupleLit:
		g.declareName(litSlotName(e.Span), g.sizeOf(e.Type))
		for _, elem := range e.TupleLit.Elems {
			if err := g.declareExprFrame(elem); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprEnumVariant:
		g.declareName(litSlotName(e.Span), g.sizeOf(e.Type))
		return g.declareExprFrame(e.Variant.Payload)
	}
	return nil
}

// declarePattern reserves slots for the bindings a pattern introduces.
func (g *Generator) declarePattern(p *ast.Pattern) {
	if p == nil {
		return
	}
	switch p.Kind {
	case ast.PatEnum:
		if p.Enum.Binding != "" {
			g.declareName(p.Enum.Binding, 8)
		}
	case ast.PatStruct:
		for _, f := range p.Struct.Fields {
			if f.Binding != "" {
				g.declareName(f.Binding, 8)
			}
		}
	case ast.PatBind:
		g.declareName(p.Bind.Name, 8)
	}
}

// declareName reserves a slot, tolerating redeclaration. Match arms may
// bind the same name in several disjoint arms; the slot is shared.
func (g *Generator) declareName(name string, size int32) {
	if name == "" || name == "_" {
		return
	}
	if _, ok := g.locals.Lookup(name); ok {
		return
	}
	// Declare only fails on duplicates, which the lookup above excludes.
	_, _ = g.locals.Declare(name, size, false)
}
