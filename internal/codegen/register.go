package codegen

import (
	"fmt"
)

// Register identifies one physical location in the active register file.
// Integer registers occupy indices 0..30, floating registers 32..63, so the
// whole file always fits in a single 64-bit allocation mask.
type Register int8

const (
	// RegNone means "no register": allocation failed or the operand has
	// no register component.
	RegNone Register = -1
	// RegImmediate marks operands that are pure immediates and need no
	// register at all.
	RegImmediate Register = -2
)

// floatBase is the index of the first floating register. Integer register
// indices stay strictly below it.
const floatBase = 32

// IntReg returns the i-th integer register of the active file.
func IntReg(i int) Register {
	return Register(i)
}

// FloatReg returns the i-th floating register of the active file.
func FloatReg(i int) Register {
	return Register(floatBase + i)
}

// IsValid reports whether r names a real register (not a sentinel).
func (r Register) IsValid() bool {
	return r >= 0
}

// IsFloat reports whether r belongs to the floating register class.
func (r Register) IsFloat() bool {
	return r >= floatBase
}

// Index returns the position of r within its class.
func (r Register) Index() int {
	if r.IsFloat() {
		return int(r - floatBase)
	}
	return int(r)
}

// Bit returns the allocation-mask bit for r. Only valid registers have one.
func (r Register) Bit() uint64 {
	return uint64(1) << uint(r)
}

func (r Register) String() string {
	switch {
	case r == RegNone:
		return "none"
	case r == RegImmediate:
		return "imm"
	case r.IsFloat():
		return fmt.Sprintf("f%d", r.Index())
	default:
		return fmt.Sprintf("r%d", r.Index())
	}
}

// Conventional x86-64 integer register indices. The encoder maps these to
// hardware names; the allocator only sees indices and masks.
const (
	regRAX Register = iota
	regRCX
	regRDX
	regRBX
	regRSP
	regRBP
	regRSI
	regRDI
	regR8
	regR9
	regR10
	regR11
	regR12
	regR13
	regR14
	regR15
)
