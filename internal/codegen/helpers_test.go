package codegen

import (
	"strings"
	"testing"

	"cinder/internal/ast"
	"cinder/internal/types"
)

// AST builders shared by the lowering tests.

func tI64() *types.Type  { return types.NewPrimitive(types.PrimI64) }
func tI128() *types.Type { return types.NewPrimitive(types.PrimI128) }
func tBool() *types.Type { return types.NewPrimitive(types.PrimBool) }
func tF64() *types.Type  { return types.NewPrimitive(types.PrimF64) }

func intLit(v int64, t *types.Type) *ast.Expr {
	hi := uint64(0)
	if v < 0 {
		hi = ^uint64(0)
	}
	return &ast.Expr{
		Kind:   ast.ExprIntLit,
		Type:   t,
		IntLit: ast.IntLitExpr{Lo: uint64(v), Hi: hi},
	}
}

func identExpr(name string, t *types.Type) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprIdent, Type: t, Ident: ast.IdentExpr{Name: name}}
}

func binExpr(op ast.BinaryOp, left, right *ast.Expr, t *types.Type) *ast.Expr {
	return &ast.Expr{
		Kind:   ast.ExprBinary,
		Type:   t,
		Binary: ast.BinaryExpr{Op: op, Left: left, Right: right},
	}
}

func indexExpr(object, index *ast.Expr, t *types.Type) *ast.Expr {
	return &ast.Expr{
		Kind:  ast.ExprIndex,
		Type:  t,
		Index: ast.IndexExpr{Object: object, Index: index},
	}
}

func retStmt(value *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtReturn, Return: ast.ReturnStmt{Value: value}}
}

func letStmt(name string, t *types.Type, init *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtLet, Let: ast.LetStmt{Name: name, Type: t, Init: init}}
}

func blockStmt(stmts ...*ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtBlock, Block: ast.BlockStmt{Stmts: stmts}}
}

func fnDecl(name string, params []ast.Param, result *types.Type, body *ast.Stmt) *ast.FuncDecl {
	return &ast.FuncDecl{Name: name, Params: params, Result: result, Body: body}
}

// generate lowers one function on a fresh x86-64 generator and returns the
// generator plus the rendered assembly.
func generate(t *testing.T, fn *ast.FuncDecl) (*Generator, string) {
	t.Helper()
	g, err := NewGenerator(Config{Arch: ArchX86_64}, &ast.Program{Funcs: []*ast.FuncDecl{fn}})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if err := g.GenerateFunction(fn); err != nil {
		t.Fatalf("GenerateFunction(%s) failed: %v", fn.Name, err)
	}
	var b strings.Builder
	if err := g.RenderAssembly(&b); err != nil {
		t.Fatalf("RenderAssembly failed: %v", err)
	}
	return g, b.String()
}

// countOps counts buffered instructions with the given opcode.
func countOps(g *Generator, op Opcode) int {
	n := 0
	for _, in := range g.Buffer().Snapshot() {
		if in.Op == op {
			n++
		}
	}
	return n
}
