package ast

import (
	"cinder/internal/source"
)

// PatternKind enumerates match pattern shapes.
type PatternKind uint8

const (
	// PatInt matches one integer literal value.
	PatInt PatternKind = iota
	// PatEnum matches an enum variant, optionally binding its payload.
	PatEnum
	// PatStruct destructures a struct, binding named fields.
	PatStruct
	// PatWildcard matches anything without binding.
	PatWildcard
	// PatRange matches an inclusive integer range.
	PatRange
	// PatBind matches anything and binds the value to a name.
	PatBind
)

// Pattern is a match pattern node. Kind selects the active payload.
type Pattern struct {
	Kind PatternKind
	Span source.Span

	Int    IntPattern
	Enum   EnumPattern
	Struct StructPattern
	Range  RangePattern
	Bind   BindPattern
}

// IntPattern matches exactly Value.
type IntPattern struct {
	Value int64
}

// EnumPattern matches a variant of a named enum. Binding, when non-empty,
// names the local that receives the variant payload.
type EnumPattern struct {
	EnumName    string
	VariantName string
	Binding     string
}

// FieldPattern binds one struct field inside a struct pattern.
type FieldPattern struct {
	Name    string
	Binding string
}

// StructPattern destructures a struct value.
type StructPattern struct {
	StructName string
	Fields     []FieldPattern
}

// RangePattern matches Start..=End.
type RangePattern struct {
	Start int64
	End   int64
}

// BindPattern binds the matched value to Name.
type BindPattern struct {
	Name string
}
