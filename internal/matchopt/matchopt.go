// Package matchopt decides the dispatch strategy for match statements over
// integer scrutinees. It only inspects the arm patterns; emitting the
// chosen dispatch is the code generator's job, which keeps this package
// free of target concerns and trivially testable.
package matchopt

import (
	"sort"

	"cinder/internal/ast"
)

// Strategy is the chosen dispatch shape for one match statement.
type Strategy uint8

const (
	// StrategySequential tests arms top to bottom. Always correct; the
	// fallback whenever neither optimization applies.
	StrategySequential Strategy = iota
	// StrategyJumpTable indexes a dense table by scrutinee value.
	StrategyJumpTable
	// StrategyBinarySearch bisects a sorted value list.
	StrategyBinarySearch
)

func (s Strategy) String() string {
	switch s {
	case StrategyJumpTable:
		return "jump-table"
	case StrategyBinarySearch:
		return "binary-search"
	}
	return "sequential"
}

// Thresholds for the two optimized strategies. A jump table needs a dense
// value range; a binary search needs enough arms to beat the sequential
// chain it replaces.
const (
	// MaxTableRange is the widest value span a jump table may cover.
	MaxTableRange = 256
	// MinTableFillNum/MinTableFillDen is the minimum fraction of table
	// slots that must hold a real arm: 3/4.
	MinTableFillNum = 3
	MinTableFillDen = 4
	// MinBinarySearchArms is the fewest integer arms worth bisecting.
	MinBinarySearchArms = 8
)

// Case is one integer arm in value order.
type Case struct {
	Value int64
	// Arm indexes into the original MatchStmt.Arms slice.
	Arm int
}

// Decision is the analysis result for one match statement.
type Decision struct {
	Strategy Strategy

	// Cases lists the integer arms sorted by value. Empty for
	// StrategySequential when the arms are not all-integer.
	Cases []Case

	// Min and Max bound the case values. Meaningful only when Cases is
	// non-empty.
	Min int64
	Max int64

	// TableSize is Max-Min+1 for StrategyJumpTable, zero otherwise.
	TableSize int
}

// Analyze inspects the arms of a match statement and picks a strategy.
//
// The optimized strategies require every arm to be a distinct integer
// literal pattern with no guard; a wildcard, binding, or any other
// non-integer pattern anywhere in the list forces sequential dispatch. A
// jump table is chosen when the value range spans at most MaxTableRange
// slots and at least three quarters of those slots are filled. A binary
// search is chosen when the table test fails but there are at least
// MinBinarySearchArms arms. The two strategies are mutually exclusive by
// construction: the table is considered first and the search only when
// the table was rejected.
func Analyze(m *ast.MatchStmt) Decision {
	seq := Decision{Strategy: StrategySequential}
	if m == nil || len(m.Arms) == 0 {
		return seq
	}

	cases := make([]Case, 0, len(m.Arms))
	seen := make(map[int64]bool, len(m.Arms))

	for i, arm := range m.Arms {
		if arm.Guard != nil {
			// Guards reintroduce arbitrary control flow into the
			// dispatch, so any guard forces sequential testing.
			return seq
		}
		if arm.Pattern == nil || arm.Pattern.Kind != ast.PatInt {
			// Dispatch is only rewritten for pure integer matches.
			// Wildcards and bindings count as non-integer here even in
			// trailing position: the optimized shapes have no slot for
			// a default arm.
			return seq
		}
		v := arm.Pattern.Int.Value
		if seen[v] {
			// Duplicate values would make table slots ambiguous.
			return seq
		}
		seen[v] = true
		cases = append(cases, Case{Value: v, Arm: i})
	}
	if len(cases) == 0 {
		return seq
	}

	sort.Slice(cases, func(a, b int) bool { return cases[a].Value < cases[b].Value })
	min := cases[0].Value
	max := cases[len(cases)-1].Value
	span := max - min + 1

	d := Decision{
		Strategy: StrategySequential,
		Cases:    cases,
		Min:      min,
		Max:      max,
	}

	if span <= MaxTableRange && int64(len(cases))*MinTableFillDen >= span*MinTableFillNum {
		d.Strategy = StrategyJumpTable
		d.TableSize = int(span)
		return d
	}
	if len(cases) >= MinBinarySearchArms {
		d.Strategy = StrategyBinarySearch
	}
	return d
}
