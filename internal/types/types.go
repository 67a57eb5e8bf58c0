// Package types defines the resolved type descriptors the frontend attaches
// to AST nodes. Codegen reads sizes, field offsets, and primitive kinds from
// these descriptors; it never computes type information itself.
package types

import (
	"strconv"
	"strings"
)

// Kind discriminates the type descriptor union.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindPointer
	KindStruct
	KindEnum
	KindArray
	KindSlice
	KindTuple
	// KindParam is an unsubstituted generic type parameter. Descriptors
	// containing params only appear inside generic struct declarations;
	// monomorphization replaces them before codegen sees a value of the
	// type.
	KindParam
)

// Primitive enumerates the built-in scalar types.
type Primitive uint8

const (
	PrimInvalid Primitive = iota
	PrimUnit
	PrimBool
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimF32
	PrimF64
)

var primitiveNames = [...]string{
	PrimInvalid: "invalid",
	PrimUnit:    "unit",
	PrimBool:    "bool",
	PrimI8:      "i8",
	PrimI16:     "i16",
	PrimI32:     "i32",
	PrimI64:     "i64",
	PrimI128:    "i128",
	PrimU8:      "u8",
	PrimU16:     "u16",
	PrimU32:     "u32",
	PrimU64:     "u64",
	PrimU128:    "u128",
	PrimF32:     "f32",
	PrimF64:     "f64",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "invalid"
}

var primitiveSizes = [...]int{
	PrimInvalid: 0,
	PrimUnit:    0,
	PrimBool:    1,
	PrimI8:      1,
	PrimI16:     2,
	PrimI32:     4,
	PrimI64:     8,
	PrimI128:    16,
	PrimU8:      1,
	PrimU16:     2,
	PrimU32:     4,
	PrimU64:     8,
	PrimU128:    16,
	PrimF32:     4,
	PrimF64:     8,
}

// Field is one struct field with its resolved byte offset.
type Field struct {
	Name   string
	Type   *Type
	Offset int
}

// Variant is one variant of a tagged enum with its discriminant.
type Variant struct {
	Name    string
	Tag     uint32
	Payload *Type // nil for payload-free variants
}

// Type is a resolved type descriptor. The active fields depend on Kind; the
// rest stay zero. Descriptors are shared and must be treated as immutable
// after the frontend produces them.
type Type struct {
	Kind  Kind
	Size  int
	Align int

	// KindPrimitive
	Prim Primitive

	// KindPointer, KindArray, KindSlice
	Elem *Type

	// KindArray
	Len int

	// KindStruct, KindEnum
	Name string

	// KindStruct
	Fields []Field
	// TypeParams holds the declared parameter names of a generic struct.
	// Empty for concrete structs.
	TypeParams []string

	// KindEnum
	Variants []Variant

	// KindTuple
	Elems   []*Type
	Offsets []int

	// KindParam
	ParamName string
}

// NewPrimitive returns a descriptor for a built-in scalar.
func NewPrimitive(p Primitive) *Type {
	size := 0
	if int(p) < len(primitiveSizes) {
		size = primitiveSizes[p]
	}
	align := size
	if align == 0 {
		align = 1
	}
	if align > 8 {
		align = 8
	}
	return &Type{Kind: KindPrimitive, Prim: p, Size: size, Align: align}
}

// NewParam returns an unsubstituted generic parameter descriptor.
func NewParam(name string) *Type {
	return &Type{Kind: KindParam, ParamName: name, Size: 8, Align: 8}
}

// Is128Bit reports whether t is one of the two 128-bit integer primitives.
func (t *Type) Is128Bit() bool {
	if t == nil || t.Kind != KindPrimitive {
		return false
	}
	return t.Prim == PrimI128 || t.Prim == PrimU128
}

// IsFloat reports whether t is a floating-point primitive.
func (t *Type) IsFloat() bool {
	if t == nil || t.Kind != KindPrimitive {
		return false
	}
	return t.Prim == PrimF32 || t.Prim == PrimF64
}

// IsSigned reports whether t is a signed integer primitive.
func (t *Type) IsSigned() bool {
	if t == nil || t.Kind != KindPrimitive {
		return false
	}
	switch t.Prim {
	case PrimI8, PrimI16, PrimI32, PrimI64, PrimI128:
		return true
	}
	return false
}

// FieldByName returns the field descriptor for name, or nil.
func (t *Type) FieldByName(name string) *Field {
	if t == nil || t.Kind != KindStruct {
		return nil
	}
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// VariantByName returns the variant descriptor for name, or nil.
func (t *Type) VariantByName(name string) *Variant {
	if t == nil || t.Kind != KindEnum {
		return nil
	}
	for i := range t.Variants {
		if t.Variants[i].Name == name {
			return &t.Variants[i]
		}
	}
	return nil
}

// String renders a stable, deterministic name for the type. Generic
// instantiation keys and mangled symbol names are built from this string, so
// the rendering must never depend on pointer identity or map order.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Prim.String()
	case KindPointer:
		return "*" + t.Elem.String()
	case KindStruct, KindEnum:
		return t.Name
	case KindArray:
		return "[" + strconv.Itoa(t.Len) + "]" + t.Elem.String()
	case KindSlice:
		return "[]" + t.Elem.String()
	case KindTuple:
		var b strings.Builder
		b.WriteByte('(')
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(e.String())
		}
		b.WriteByte(')')
		return b.String()
	case KindParam:
		return t.ParamName
	}
	return "invalid"
}
