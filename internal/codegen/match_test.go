package codegen

import (
	"strings"
	"testing"

	"cinder/internal/ast"
)

func intArm(value, result int64) ast.MatchArm {
	return ast.MatchArm{
		Pattern: &ast.Pattern{Kind: ast.PatInt, Int: ast.IntPattern{Value: value}},
		Body:    retStmt(intLit(result, tI64())),
	}
}

func wildcardArm(result int64) ast.MatchArm {
	return ast.MatchArm{
		Pattern: &ast.Pattern{Kind: ast.PatWildcard},
		Body:    retStmt(intLit(result, tI64())),
	}
}

func matchFn(name string, arms []ast.MatchArm) *ast.FuncDecl {
	match := &ast.Stmt{
		Kind: ast.StmtMatch,
		Match: ast.MatchStmt{
			Value: identExpr("x", tI64()),
			Arms:  arms,
		},
	}
	body := blockStmt(match, retStmt(intLit(-1, tI64())))
	return fnDecl(name, []ast.Param{{Name: "x", Type: tI64()}}, tI64(), body)
}

func TestMatch_DenseArmsEmitJumpTable(t *testing.T) {
	arms := make([]ast.MatchArm, 0, 10)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v, v*10))
	}
	g, asm := generate(t, matchFn("dense", arms))

	if n := countOps(g, OpQuad); n != 10 {
		t.Errorf("table entry count = %d, want 10", n)
	}
	if !strings.Contains(asm, "[.jt_") {
		t.Errorf("indirect jump through the table label missing:\n%s", asm)
	}
	// Bounds checks guard both ends of the table.
	if !strings.Contains(asm, "jl") || !strings.Contains(asm, "jg") {
		t.Errorf("table bounds checks missing:\n%s", asm)
	}
}

func TestMatch_TrailingWildcardStaysSequential(t *testing.T) {
	// Mixing a wildcard into otherwise dense integer arms rules the jump
	// table out; the wildcard arm runs through ordinary sequential tests.
	arms := make([]ast.MatchArm, 0, 11)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v, v))
	}
	arms = append(arms, wildcardArm(99))
	g, _ := generate(t, matchFn("dense_default", arms))

	if n := countOps(g, OpQuad); n != 0 {
		t.Errorf("mixed-pattern match emitted %d table entries, want 0", n)
	}
}

func TestMatch_SparseArmsUseBinarySearch(t *testing.T) {
	values := []int64{1, 17, 33, 99, 150, 201, 500, 700, 900, 1200}
	arms := make([]ast.MatchArm, 0, len(values))
	for _, v := range values {
		arms = append(arms, intArm(v, v))
	}
	g, asm := generate(t, matchFn("sparse", arms))

	if n := countOps(g, OpQuad); n != 0 {
		t.Errorf("sparse match emitted %d table entries, want 0", n)
	}
	// The bisection tree tests equality at every node and branches on
	// ordering.
	if countOps(g, OpJe) == 0 {
		t.Errorf("no equality tests in the search tree:\n%s", asm)
	}
	if countOps(g, OpJge) == 0 {
		t.Errorf("no ordering branches in the search tree:\n%s", asm)
	}
}

func TestMatch_GuardForcesSequential(t *testing.T) {
	arms := make([]ast.MatchArm, 0, 10)
	for v := int64(0); v < 10; v++ {
		arm := intArm(v, v)
		if v == 3 {
			arm.Guard = &ast.Expr{Kind: ast.ExprBoolLit, Type: tBool(), BoolLit: ast.BoolLitExpr{Value: true}}
		}
		arms = append(arms, arm)
	}
	g, asm := generate(t, matchFn("guarded", arms))

	if n := countOps(g, OpQuad); n != 0 {
		t.Errorf("guarded match emitted %d table entries, want 0", n)
	}
	// The guard itself evaluates and tests before the arm body runs.
	if !strings.Contains(asm, "test") {
		t.Errorf("guard test missing:\n%s", asm)
	}
}

func TestMatch_RangePattern(t *testing.T) {
	arms := []ast.MatchArm{
		{
			Pattern: &ast.Pattern{Kind: ast.PatRange, Range: ast.RangePattern{Start: 10, End: 20}},
			Body:    retStmt(intLit(1, tI64())),
		},
		wildcardArm(0),
	}
	g, asm := generate(t, matchFn("ranged", arms))

	if n := countOps(g, OpQuad); n != 0 {
		t.Errorf("range match emitted %d table entries, want 0", n)
	}
	// Inclusive bounds: below-start and above-end both reject.
	if !strings.Contains(asm, "jl") || !strings.Contains(asm, "jg") {
		t.Errorf("range bounds tests missing:\n%s", asm)
	}
}

func TestMatch_RegisterHygiene(t *testing.T) {
	arms := make([]ast.MatchArm, 0, 10)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v, v))
	}
	g, _ := generate(t, matchFn("clean", arms))
	if p := g.Allocator().Pressure(); p != 0 {
		t.Errorf("register pressure %d after match lowering, want 0", p)
	}
}
