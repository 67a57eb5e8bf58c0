package codegen

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/source"
	"cinder/internal/types"
)

// Aggregate literals materialize into anonymous frame slots reserved during
// the frame pre-pass. The value of a literal expression is the slot's
// address; copies out of the slot are the consumer's concern.

// litSlotName derives the deterministic frame-slot name for a literal at a
// source position. The pre-pass and the lowering must agree on it.
func litSlotName(span source.Span) string {
	return fmt.Sprintf("$lit_%d_%d", span.File, span.Start)
}

// litSlot finds the reserved slot for a literal and leas its address.
func (g *Generator) litSlot(span source.Span) (Local, Register, error) {
	local, ok := g.locals.Lookup(litSlotName(span))
	if !ok {
		return Local{}, RegNone, g.errorf(diag.CodegenInvalidInstruction,
			"literal at offset %d has no reserved frame slot in %s", span.Start, g.fnName())
	}
	addr, err := g.allocateReg()
	if err != nil {
		return Local{}, RegNone, err
	}
	g.emit(NewInstruction(OpLea, RegOp(addr), MemOp(g.conv.FrameReg, RegNone, 1, local.Offset)))
	return local, addr, nil
}

// structLayout resolves the concrete layout for a struct literal. Generic
// literals go through the instantiation registry.
func (g *Generator) structLayout(e *ast.Expr) (*types.Type, error) {
	lit := e.StructLit
	if len(lit.TypeArgs) == 0 {
		if e.Type == nil || e.Type.Kind != types.KindStruct {
			return nil, g.errorf(diag.CodegenInvalidInstruction,
				"struct literal %s has no resolved layout", lit.StructName)
		}
		return e.Type, nil
	}
	if g.inst == nil {
		return nil, g.errorf(diag.GenericUnknownStruct,
			"generic literal %s has no instantiation registry", lit.StructName)
	}
	return g.inst.Instantiate(lit.StructName, lit.TypeArgs)
}

// lowerStructLit stores each field initializer into the literal's frame
// slot at its layout offset and yields the slot address.
func (g *Generator) lowerStructLit(e *ast.Expr) (Register, error) {
	layout, err := g.structLayout(e)
	if err != nil {
		return RegNone, err
	}
	_, addr, err := g.litSlot(e.Span)
	if err != nil {
		return RegNone, err
	}

	g.comment("struct literal %s", layout.String())
	for _, init := range e.StructLit.Inits {
		field := layout.FieldByName(init.Name)
		if field == nil {
			g.regs.Free(addr)
			return RegNone, g.errorf(diag.CodegenInvalidInstruction,
				"struct %s has no field %q", layout, init.Name)
		}
		if err := g.storeAt(addr, int32(field.Offset), init.Value); err != nil {
			g.regs.Free(addr)
			return RegNone, err
		}
	}
	return addr, nil
}

// lowerArrayLit stores each element at its index offset.
func (g *Generator) lowerArrayLit(e *ast.Expr) (Register, error) {
	_, addr, err := g.litSlot(e.Span)
	if err != nil {
		return RegNone, err
	}
	elemSize := int32(8)
	if e.Type != nil && e.Type.Kind == types.KindArray && e.Type.Elem != nil {
		elemSize = g.sizeOf(e.Type.Elem)
	}
	for i, elem := range e.ArrayLit.Elems {
		if err := g.storeAt(addr, int32(i)*elemSize, elem); err != nil {
			g.regs.Free(addr)
			return RegNone, err
		}
	}
	return addr, nil
}

// lowerTupleLit stores each element at its layout offset.
func (g *Generator) lowerTupleLit(e *ast.Expr) (Register, error) {
	_, addr, err := g.litSlot(e.Span)
	if err != nil {
		return RegNone, err
	}
	for i, elem := range e.TupleLit.Elems {
		off := int32(i) * 8
		if e.Type != nil && e.Type.Kind == types.KindTuple && i < len(e.Type.Offsets) {
			off = int32(e.Type.Offsets[i])
		}
		if err := g.storeAt(addr, off, elem); err != nil {
			g.regs.Free(addr)
			return RegNone, err
		}
	}
	return addr, nil
}

// lowerEnumVariant materializes a tagged value: the discriminant in the
// first word of the slot, the payload in the second.
func (g *Generator) lowerEnumVariant(e *ast.Expr) (Register, error) {
	variant := e.Type.VariantByName(e.Variant.VariantName)
	if variant == nil {
		return RegNone, g.errorf(diag.CodegenInvalidInstruction,
			"enum %s has no variant %q", e.Variant.EnumName, e.Variant.VariantName)
	}
	_, addr, err := g.litSlot(e.Span)
	if err != nil {
		return RegNone, err
	}

	g.comment("construct %s::%s", e.Variant.EnumName, e.Variant.VariantName)
	tag, err := g.allocateReg()
	if err != nil {
		g.regs.Free(addr)
		return RegNone, err
	}
	g.emit(NewMovImm(tag, int64(variant.Tag)))
	g.emit(NewStore(addr, 0, tag))
	g.regs.Free(tag)

	if e.Variant.Payload != nil {
		if err := g.storeAt(addr, enumPayloadOffset, e.Variant.Payload); err != nil {
			g.regs.Free(addr)
			return RegNone, err
		}
	}
	return addr, nil
}

// enumPayloadOffset is where a variant payload starts inside an enum slot.
// The discriminant occupies one full word so payloads stay aligned.
const enumPayloadOffset = 8

// storeAt evaluates value and stores it at [base+disp]. Float values take
// the movsd path; everything else stores a word.
func (g *Generator) storeAt(base Register, disp int32, value *ast.Expr) error {
	v, err := g.lowerExpr(value)
	if err != nil {
		return err
	}
	if v.IsFloat() {
		g.emit(NewInstruction(OpMovsd, MemOp(base, RegNone, 1, disp), RegOp(v)))
	} else {
		g.emit(NewStore(base, disp, v))
	}
	g.regs.Free(v)
	return nil
}
