// Package ast defines the typed syntax tree the frontend hands to the
// backend. Every node optionally carries a resolved type descriptor; codegen
// trusts the types but defends against missing ones with conservative
// register-width lowering.
package ast

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// ExprKind enumerates expression node kinds.
type ExprKind uint8

const (
	// ExprIdent references a local variable or parameter by name.
	ExprIdent ExprKind = iota
	// ExprIntLit is an integer literal, up to 128 bits wide.
	ExprIntLit
	// ExprBoolLit is a boolean literal.
	ExprBoolLit
	// ExprFloatLit is a floating-point literal.
	ExprFloatLit
	// ExprBinary is a binary operator application.
	ExprBinary
	// ExprUnary is a unary operator application.
	ExprUnary
	// ExprAssign is an assignment; assignments are expressions and yield
	// the assigned value.
	ExprAssign
	// ExprCall is a regular or method call.
	ExprCall
	// ExprAssociatedCall is a type-qualified static call, Struct::func().
	ExprAssociatedCall
	// ExprField is a field access, object.field.
	ExprField
	// ExprIndex is an index access, object[index].
	ExprIndex
	// ExprStructLit is a struct literal, possibly of a generic struct.
	ExprStructLit
	// ExprArrayLit is an array literal.
	ExprArrayLit
	// ExprTupleLit is a tuple literal.
	ExprTupleLit
	// ExprEnumVariant constructs an enum variant value.
	ExprEnumVariant
)

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
)

// IsComparison reports whether the operator yields a boolean from an
// ordered or equality comparison.
func (op BinaryOp) IsComparison() bool {
	return op >= BinEq && op <= BinGe
}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	UnNeg UnaryOp = iota
	UnNot
	UnBitNot
	UnDeref
)

// Expr is an expression node. Kind selects the active payload; the rest stay
// zero. Pointers are shared within one Program and must not be mutated by
// the backend.
type Expr struct {
	Kind ExprKind
	Span source.Span
	// Type is the resolved type from semantic analysis, nil if the
	// frontend could not type the node.
	Type *types.Type

	Ident      IdentExpr
	IntLit     IntLitExpr
	BoolLit    BoolLitExpr
	FloatLit   FloatLitExpr
	Binary     BinaryExpr
	Unary      UnaryExpr
	Assign     AssignExpr
	Call       CallExpr
	Associated AssociatedCallExpr
	Field      FieldExpr
	Index      IndexExpr
	StructLit  StructLitExpr
	ArrayLit   ArrayLitExpr
	TupleLit   TupleLitExpr
	Variant    EnumVariantExpr
}

// IdentExpr references a name resolved by the frontend.
type IdentExpr struct {
	Name string
}

// IntLitExpr holds an integer literal as a 128-bit pair. For values that fit
// in 64 bits, Hi is the sign extension of Lo.
type IntLitExpr struct {
	Lo uint64
	Hi uint64
}

// Value returns the literal truncated to 64 bits.
func (l IntLitExpr) Value() int64 {
	return int64(l.Lo)
}

// BoolLitExpr is a boolean literal.
type BoolLitExpr struct {
	Value bool
}

// FloatLitExpr is a floating-point literal.
type FloatLitExpr struct {
	Value float64
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

// UnaryExpr applies Op to Operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand *Expr
}

// AssignExpr stores Value into Target. The target shape decides the store
// lowering: identifier, field access, index access, or dereference.
type AssignExpr struct {
	Target *Expr
	Value  *Expr
}

// CallExpr calls Func with Args. Func is an identifier for plain calls and a
// field access for instance method calls.
type CallExpr struct {
	Func *Expr
	Args []*Expr
}

// AssociatedCallExpr is a static, type-qualified call.
type AssociatedCallExpr struct {
	StructName string
	FuncName   string
	Args       []*Expr
}

// FieldExpr reads a named field from Object.
type FieldExpr struct {
	Object *Expr
	Name   string
}

// IndexExpr reads an element of Object at Index.
type IndexExpr struct {
	Object *Expr
	Index  *Expr
}

// FieldInit is one field initializer in a struct literal.
type FieldInit struct {
	Name  string
	Value *Expr
}

// StructLitExpr builds a struct value. TypeArgs is non-empty only for
// generic struct literals; the backend resolves the concrete layout through
// the instantiation registry.
type StructLitExpr struct {
	StructName string
	TypeArgs   []*types.Type
	Inits      []FieldInit
}

// ArrayLitExpr builds an array value.
type ArrayLitExpr struct {
	Elems []*Expr
}

// TupleLitExpr builds a tuple value.
type TupleLitExpr struct {
	Elems []*Expr
}

// EnumVariantExpr constructs an enum variant, optionally with a payload.
type EnumVariantExpr struct {
	EnumName    string
	VariantName string
	Payload     *Expr
}
