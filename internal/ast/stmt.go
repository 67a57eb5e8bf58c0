package ast

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// StmtKind enumerates statement node kinds.
type StmtKind uint8

const (
	// StmtLet binds a new local variable.
	StmtLet StmtKind = iota
	// StmtIf is a conditional with optional else branch.
	StmtIf
	// StmtIfLet tests a pattern against a value.
	StmtIfLet
	// StmtFor is a counting loop over an iterable.
	StmtFor
	// StmtReturn leaves the current function.
	StmtReturn
	// StmtExpr evaluates an expression for its side effects.
	StmtExpr
	// StmtBlock is a sequence of statements.
	StmtBlock
	// StmtBreak jumps to the innermost loop exit.
	StmtBreak
	// StmtContinue jumps to the innermost loop continue point.
	StmtContinue
	// StmtMatch dispatches over pattern arms.
	StmtMatch
)

// Stmt is a statement node. Kind selects the active payload.
type Stmt struct {
	Kind StmtKind
	Span source.Span

	Let    LetStmt
	If     IfStmt
	IfLet  IfLetStmt
	For    ForStmt
	Return ReturnStmt
	Expr   ExprStmt
	Block  BlockStmt
	Match  MatchStmt
}

// LetStmt declares and initializes a local variable.
type LetStmt struct {
	Name string
	Type *types.Type
	Init *Expr
}

// IfStmt branches on a boolean condition.
type IfStmt struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt // nil when absent
}

// IfLetStmt branches on whether Pattern matches Value.
type IfLetStmt struct {
	Pattern *Pattern
	Value   *Expr
	Then    *Stmt
	Else    *Stmt // nil when absent
}

// ForStmt iterates Var over Iterable.
type ForStmt struct {
	Var      string
	Iterable *Expr
	Body     *Stmt
}

// ReturnStmt optionally carries a return value.
type ReturnStmt struct {
	Value *Expr // nil for bare return
}

// ExprStmt wraps an expression evaluated as a statement.
type ExprStmt struct {
	X *Expr
}

// BlockStmt is an ordered statement sequence.
type BlockStmt struct {
	Stmts []*Stmt
}

// MatchArm is one arm of a match statement: a pattern, an optional guard
// expression, and a body.
type MatchArm struct {
	Pattern *Pattern
	Guard   *Expr // nil when absent
	Body    *Stmt
}

// MatchStmt dispatches Value over Arms in order.
type MatchStmt struct {
	Value *Expr
	Arms  []MatchArm
}
