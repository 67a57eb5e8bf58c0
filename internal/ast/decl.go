package ast

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// Param is one function parameter with its resolved type.
type Param struct {
	Name string
	Type *types.Type
	Span source.Span
}

// FuncDecl is a function the backend generates code for. Methods carry the
// owning struct name so call mangling stays stable.
type FuncDecl struct {
	Name string
	// StructName is non-empty for methods and associated functions.
	StructName string
	// IsInstance distinguishes instance methods from associated functions
	// when StructName is set.
	IsInstance bool
	Params     []Param
	Result     *types.Type // nil for unit result
	Body       *Stmt
	Span       source.Span
}

// TypeParam is one declared generic parameter of a struct.
type TypeParam struct {
	Name string
	// Constraint names a required capability, empty when unconstrained.
	// The frontend validates constraint satisfaction; the instantiation
	// registry re-checks it defensively.
	Constraint string
}

// StructField is one declared field of a struct.
type StructField struct {
	Name string
	Type *types.Type
}

// StructDecl declares a struct. Generic structs keep their unsubstituted
// field types; the instantiation registry produces concrete layouts.
type StructDecl struct {
	Name       string
	TypeParams []TypeParam
	Fields     []StructField
	Span       source.Span
}

// Program is one compilation unit as produced by the frontend.
type Program struct {
	Funcs   []*FuncDecl
	Structs []*StructDecl
}

// StructByName returns the declaration for name, or nil.
func (p *Program) StructByName(name string) *StructDecl {
	if p == nil {
		return nil
	}
	for _, s := range p.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}
