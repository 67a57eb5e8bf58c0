package matchopt

import (
	"testing"

	"cinder/internal/ast"
)

func intArm(v int64) ast.MatchArm {
	return ast.MatchArm{Pattern: &ast.Pattern{Kind: ast.PatInt, Int: ast.IntPattern{Value: v}}}
}

func wildcardArm() ast.MatchArm {
	return ast.MatchArm{Pattern: &ast.Pattern{Kind: ast.PatWildcard}}
}

func bindArm(name string) ast.MatchArm {
	return ast.MatchArm{Pattern: &ast.Pattern{Kind: ast.PatBind, Bind: ast.BindPattern{Name: name}}}
}

func matchOf(arms ...ast.MatchArm) *ast.MatchStmt {
	return &ast.MatchStmt{Arms: arms}
}

func TestAnalyze_DenseRangePicksJumpTable(t *testing.T) {
	arms := make([]ast.MatchArm, 0, 10)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v))
	}
	d := Analyze(matchOf(arms...))

	if d.Strategy != StrategyJumpTable {
		t.Fatalf("Strategy = %s, want jump-table", d.Strategy)
	}
	if d.Min != 0 || d.Max != 9 || d.TableSize != 10 {
		t.Errorf("bounds = [%d, %d] size %d, want [0, 9] size 10", d.Min, d.Max, d.TableSize)
	}
}

func TestAnalyze_TrailingWildcardForcesSequential(t *testing.T) {
	// A wildcard is a non-integer pattern even in trailing position, and
	// any non-integer pattern disables both optimized strategies.
	arms := make([]ast.MatchArm, 0, 11)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v))
	}
	arms = append(arms, wildcardArm())
	d := Analyze(matchOf(arms...))

	if d.Strategy != StrategySequential {
		t.Fatalf("Strategy = %s with a trailing wildcard, want sequential", d.Strategy)
	}
}

func TestAnalyze_BindingArmForcesSequential(t *testing.T) {
	d := Analyze(matchOf(intArm(0), intArm(1), intArm(2), bindArm("other")))
	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s with a binding arm, want sequential", d.Strategy)
	}
}

func TestAnalyze_SparseValuesPickBinarySearch(t *testing.T) {
	values := []int64{1, 17, 33, 99, 150, 201, 500, 700, 900, 1200}
	arms := make([]ast.MatchArm, 0, len(values))
	for _, v := range values {
		arms = append(arms, intArm(v))
	}
	d := Analyze(matchOf(arms...))

	if d.Strategy != StrategyBinarySearch {
		t.Fatalf("Strategy = %s, want binary-search", d.Strategy)
	}
	// Cases come back sorted regardless of the source order.
	for i := 1; i < len(d.Cases); i++ {
		if d.Cases[i-1].Value >= d.Cases[i].Value {
			t.Fatalf("cases not sorted at %d: %v", i, d.Cases)
		}
	}
}

func TestAnalyze_FewSparseArmsStaySequential(t *testing.T) {
	d := Analyze(matchOf(intArm(0), intArm(100), intArm(5000), intArm(70000)))
	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s, want sequential", d.Strategy)
	}
}

func TestAnalyze_BinarySearchArmFloor(t *testing.T) {
	sparse := func(n int) *ast.MatchStmt {
		arms := make([]ast.MatchArm, 0, n)
		for i := 0; i < n; i++ {
			arms = append(arms, intArm(int64(i*1000)))
		}
		return matchOf(arms...)
	}

	if d := Analyze(sparse(7)); d.Strategy != StrategySequential {
		t.Errorf("7 arms: Strategy = %s, want sequential", d.Strategy)
	}
	if d := Analyze(sparse(8)); d.Strategy != StrategyBinarySearch {
		t.Errorf("8 arms: Strategy = %s, want binary-search", d.Strategy)
	}
}

func TestAnalyze_TableRangeBoundary(t *testing.T) {
	dense := func(n int64) *ast.MatchStmt {
		arms := make([]ast.MatchArm, 0, n)
		for v := int64(0); v < n; v++ {
			arms = append(arms, intArm(v))
		}
		return matchOf(arms...)
	}

	d := Analyze(dense(MaxTableRange))
	if d.Strategy != StrategyJumpTable {
		t.Fatalf("span %d: Strategy = %s, want jump-table", MaxTableRange, d.Strategy)
	}
	if d.TableSize != MaxTableRange {
		t.Errorf("TableSize = %d, want %d", d.TableSize, MaxTableRange)
	}

	// One slot past the limit falls back even though every slot is filled.
	// The arm count still clears the binary search floor.
	d = Analyze(dense(MaxTableRange + 1))
	if d.Strategy != StrategyBinarySearch {
		t.Errorf("span %d: Strategy = %s, want binary-search", MaxTableRange+1, d.Strategy)
	}
}

func TestAnalyze_WideRangeRejectsTable(t *testing.T) {
	// Range 0..300 exceeds MaxTableRange even though both arms are dense
	// in count.
	d := Analyze(matchOf(intArm(0), intArm(300)))
	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s, want sequential", d.Strategy)
	}
}

func TestAnalyze_FillThreshold(t *testing.T) {
	// 4 values across a span of 7 fills 57%, below the 3/4 floor.
	d := Analyze(matchOf(intArm(0), intArm(2), intArm(4), intArm(6)))
	if d.Strategy == StrategyJumpTable {
		t.Error("underfilled table accepted")
	}

	// 3 values across a span of 4 fills exactly 75%.
	d = Analyze(matchOf(intArm(0), intArm(1), intArm(3)))
	if d.Strategy != StrategyJumpTable {
		t.Errorf("Strategy = %s at the fill boundary, want jump-table", d.Strategy)
	}
}

func TestAnalyze_GuardDisablesOptimization(t *testing.T) {
	arms := make([]ast.MatchArm, 0, 10)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v))
	}
	arms[4].Guard = &ast.Expr{Kind: ast.ExprBoolLit}
	d := Analyze(matchOf(arms...))

	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s with a guard present, want sequential", d.Strategy)
	}
}

func TestAnalyze_DuplicateValuesDisableOptimization(t *testing.T) {
	arms := make([]ast.MatchArm, 0, 10)
	for v := int64(0); v < 10; v++ {
		arms = append(arms, intArm(v))
	}
	arms[9] = intArm(3)
	d := Analyze(matchOf(arms...))

	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s with duplicate values, want sequential", d.Strategy)
	}
}

func TestAnalyze_MidListDefaultDisablesOptimization(t *testing.T) {
	d := Analyze(matchOf(intArm(0), wildcardArm(), intArm(1), intArm(2)))
	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s with a shadowing default, want sequential", d.Strategy)
	}
}

func TestAnalyze_NonIntegerPatternsStaySequential(t *testing.T) {
	enumArm := ast.MatchArm{Pattern: &ast.Pattern{
		Kind: ast.PatEnum,
		Enum: ast.EnumPattern{EnumName: "Shape", VariantName: "Circle"},
	}}
	d := Analyze(matchOf(enumArm, wildcardArm()))
	if d.Strategy != StrategySequential {
		t.Errorf("Strategy = %s for enum arms, want sequential", d.Strategy)
	}
}

func TestAnalyze_EmptyAndNil(t *testing.T) {
	if d := Analyze(nil); d.Strategy != StrategySequential {
		t.Error("nil match not sequential")
	}
	if d := Analyze(matchOf()); d.Strategy != StrategySequential {
		t.Error("empty match not sequential")
	}
}
