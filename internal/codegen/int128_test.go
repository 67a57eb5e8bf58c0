package codegen

import (
	"strings"
	"testing"

	"cinder/internal/ast"
)

func wideParams() []ast.Param {
	return []ast.Param{
		{Name: "a", Type: tI128()},
		{Name: "b", Type: tI128()},
	}
}

func TestInt128_AddUsesCarryChain(t *testing.T) {
	body := blockStmt(retStmt(binExpr(ast.BinAdd, identExpr("a", tI128()), identExpr("b", tI128()), tI128())))
	fn := fnDecl("wide_add", wideParams(), tI128(), body)
	g, asm := generate(t, fn)

	if !strings.Contains(asm, "adc") {
		t.Errorf("128-bit add does not propagate the carry:\n%s", asm)
	}
	if countOps(g, OpAdc) != 1 {
		t.Errorf("adc count = %d, want 1", countOps(g, OpAdc))
	}
}

func TestInt128_SubUsesBorrowChain(t *testing.T) {
	body := blockStmt(retStmt(binExpr(ast.BinSub, identExpr("a", tI128()), identExpr("b", tI128()), tI128())))
	fn := fnDecl("wide_sub", wideParams(), tI128(), body)
	g, _ := generate(t, fn)

	if countOps(g, OpSbb) != 1 {
		t.Errorf("sbb count = %d, want 1", countOps(g, OpSbb))
	}
}

func TestInt128_MulPartialProducts(t *testing.T) {
	body := blockStmt(retStmt(binExpr(ast.BinMul, identExpr("a", tI128()), identExpr("b", tI128()), tI128())))
	fn := fnDecl("wide_mul", wideParams(), tI128(), body)
	g, _ := generate(t, fn)

	// Three partial products: hi*lo, lo*hi, lo*lo.
	if n := countOps(g, OpImul); n != 3 {
		t.Errorf("imul count = %d, want 3", n)
	}
}

func TestInt128_DivisionFailsClosed(t *testing.T) {
	for _, op := range []ast.BinaryOp{ast.BinDiv, ast.BinMod} {
		body := blockStmt(retStmt(binExpr(op, identExpr("a", tI128()), identExpr("b", tI128()), tI128())))
		fn := fnDecl("wide_div", wideParams(), tI128(), body)
		g, err := NewGenerator(Config{Arch: ArchX86_64}, &ast.Program{Funcs: []*ast.FuncDecl{fn}})
		if err != nil {
			t.Fatalf("NewGenerator failed: %v", err)
		}
		if err := g.GenerateFunction(fn); err == nil {
			t.Errorf("operator %d: 128-bit division generated code instead of failing", op)
		}
	}
}

func TestInt128_ComparisonIsTwoStage(t *testing.T) {
	body := blockStmt(retStmt(binExpr(ast.BinLt, identExpr("a", tI128()), identExpr("b", tI128()), tBool())))
	fn := fnDecl("wide_lt", wideParams(), tBool(), body)
	g, asm := generate(t, fn)

	// High words compare first with signed condition codes, low words
	// compare unsigned after the je to the low-word stage.
	if n := countOps(g, OpCmp); n != 2 {
		t.Errorf("cmp count = %d, want 2", n)
	}
	if !strings.Contains(asm, "setl") {
		t.Errorf("signed high-word set missing:\n%s", asm)
	}
	if !strings.Contains(asm, "setb") {
		t.Errorf("unsigned low-word set missing:\n%s", asm)
	}
	if p := g.Allocator().Pressure(); p != 0 {
		t.Errorf("register pressure %d after comparison, want 0", p)
	}
}

func TestInt128_NegationTwosComplement(t *testing.T) {
	body := blockStmt(retStmt(&ast.Expr{
		Kind:  ast.ExprUnary,
		Type:  tI128(),
		Unary: ast.UnaryExpr{Op: ast.UnNeg, Operand: identExpr("a", tI128())},
	}))
	fn := fnDecl("wide_neg", wideParams()[:1], tI128(), body)
	g, _ := generate(t, fn)

	if n := countOps(g, OpNot); n != 2 {
		t.Errorf("not count = %d, want 2", n)
	}
	if n := countOps(g, OpAdc); n != 1 {
		t.Errorf("adc count = %d, want 1 for the carry into the high word", n)
	}
}

func TestInt128_ReturnUsesPairRegisters(t *testing.T) {
	body := blockStmt(retStmt(identExpr("a", tI128())))
	fn := fnDecl("wide_id", wideParams()[:1], tI128(), body)
	g, asm := generate(t, fn)

	// Low half returns in rax, high half in rdx.
	if !strings.Contains(asm, "rax") || !strings.Contains(asm, "rdx") {
		t.Errorf("pair return registers missing:\n%s", asm)
	}
	if p := g.Allocator().Pressure(); p != 0 {
		t.Errorf("register pressure %d after generation, want 0", p)
	}
}

func TestInt128_LiteralMaterializesBothWords(t *testing.T) {
	lit := &ast.Expr{
		Kind:   ast.ExprIntLit,
		Type:   tI128(),
		IntLit: ast.IntLitExpr{Lo: 0xFFFFFFFFFFFFFFFF, Hi: 0x1},
	}
	fn := fnDecl("wide_lit", nil, tI128(), blockStmt(retStmt(lit)))
	_, asm := generate(t, fn)

	if !strings.Contains(asm, "mov") {
		t.Fatalf("no moves emitted:\n%s", asm)
	}
	// The high word immediate must survive as its own materialization.
	if !strings.Contains(asm, ", 1") {
		t.Errorf("high word immediate missing:\n%s", asm)
	}
}
