package codegen

import (
	"fmt"
)

// TargetArch selects the instruction encoder and register file.
type TargetArch uint8

const (
	ArchX86_64 TargetArch = iota
	ArchAArch64
	ArchWasm32
)

func (a TargetArch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchAArch64:
		return "aarch64"
	case ArchWasm32:
		return "wasm32"
	}
	return "unknown"
}

// ParseArch maps a manifest string onto a TargetArch.
func ParseArch(s string) (TargetArch, error) {
	switch s {
	case "x86_64", "amd64", "":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchAArch64, nil
	case "wasm32":
		return ArchWasm32, nil
	}
	return ArchX86_64, fmt.Errorf("unknown target architecture %q", s)
}

// CallingConvention selects parameter-passing registers and the
// caller/callee-saved partition.
type CallingConvention uint8

const (
	ConvSystemVAMD64 CallingConvention = iota
	ConvMicrosoftX64
	ConvAAPCS64
	ConvWasmC
)

func (c CallingConvention) String() string {
	switch c {
	case ConvSystemVAMD64:
		return "sysv-amd64"
	case ConvMicrosoftX64:
		return "ms-x64"
	case ConvAAPCS64:
		return "aapcs64"
	case ConvWasmC:
		return "wasm-c"
	}
	return "unknown"
}

// ParseConvention maps a manifest string onto a CallingConvention.
func ParseConvention(s string) (CallingConvention, error) {
	switch s {
	case "sysv", "sysv-amd64", "":
		return ConvSystemVAMD64, nil
	case "ms-x64", "win64":
		return ConvMicrosoftX64, nil
	case "aapcs", "aapcs64":
		return ConvAAPCS64, nil
	case "wasm-c":
		return ConvWasmC, nil
	}
	return ConvSystemVAMD64, fmt.Errorf("unknown calling convention %q", s)
}

// DefaultConvention returns the conventional ABI for an architecture.
func DefaultConvention(arch TargetArch) CallingConvention {
	switch arch {
	case ArchAArch64:
		return ConvAAPCS64
	case ArchWasm32:
		return ConvWasmC
	default:
		return ConvSystemVAMD64
	}
}

// ConventionInfo is the immutable per-ABI configuration record. One instance
// is selected at generator construction and shared read-only afterwards;
// there is no hidden global register-table state.
type ConventionInfo struct {
	Name string

	// Register file shape.
	IntRegCount   int
	FloatRegCount int

	// Partition of the full register file into ABI classes. The two
	// masks are disjoint and together cover every register in the file.
	CallerSavedMask uint64
	CalleeSavedMask uint64

	// Parameter-passing sequences, in assignment order.
	IntParamRegs   []Register
	FloatParamRegs []Register

	// Return-value registers.
	IntReturnReg   Register
	FloatReturnReg Register

	// Frame and stack registers. They live in the callee-saved mask but
	// lowering addresses locals through them directly.
	FrameReg Register
	StackReg Register
}

// regRange builds a mask covering integer registers [lo, hi].
func regRange(lo, hi Register) uint64 {
	var m uint64
	for r := lo; r <= hi; r++ {
		m |= r.Bit()
	}
	return m
}

// floatRange builds a mask covering floating registers [lo, hi] by class
// index.
func floatRange(lo, hi int) uint64 {
	var m uint64
	for i := lo; i <= hi; i++ {
		m |= FloatReg(i).Bit()
	}
	return m
}

var sysvAMD64 = ConventionInfo{
	Name:          "sysv-amd64",
	IntRegCount:   16,
	FloatRegCount: 16,
	// RAX, RCX, RDX, RSI, RDI, R8-R11 and every XMM register are
	// caller-saved under System V.
	CallerSavedMask: regRAX.Bit() | regRCX.Bit() | regRDX.Bit() |
		regRSI.Bit() | regRDI.Bit() | regRange(regR8, regR11) |
		floatRange(0, 15),
	CalleeSavedMask: regRBX.Bit() | regRSP.Bit() | regRBP.Bit() |
		regRange(regR12, regR15),
	IntParamRegs:   []Register{regRDI, regRSI, regRDX, regRCX, regR8, regR9},
	FloatParamRegs: []Register{FloatReg(0), FloatReg(1), FloatReg(2), FloatReg(3), FloatReg(4), FloatReg(5), FloatReg(6), FloatReg(7)},
	IntReturnReg:   regRAX,
	FloatReturnReg: FloatReg(0),
	FrameReg:       regRBP,
	StackReg:       regRSP,
}

var microsoftX64 = ConventionInfo{
	Name:          "ms-x64",
	IntRegCount:   16,
	FloatRegCount: 16,
	CallerSavedMask: regRAX.Bit() | regRCX.Bit() | regRDX.Bit() |
		regRange(regR8, regR11) | floatRange(0, 5),
	CalleeSavedMask: regRBX.Bit() | regRSP.Bit() | regRBP.Bit() |
		regRSI.Bit() | regRDI.Bit() | regRange(regR12, regR15) |
		floatRange(6, 15),
	IntParamRegs:   []Register{regRCX, regRDX, regR8, regR9},
	FloatParamRegs: []Register{FloatReg(0), FloatReg(1), FloatReg(2), FloatReg(3)},
	IntReturnReg:   regRAX,
	FloatReturnReg: FloatReg(0),
	FrameReg:       regRBP,
	StackReg:       regRSP,
}

var aapcs64 = ConventionInfo{
	Name:          "aapcs64",
	IntRegCount:   31,
	FloatRegCount: 32,
	// X0-X17 are caller-saved (X16/X17 are linker scratch); V0-V7 and
	// V16-V31 are caller-saved, V8-V15 callee-saved (low halves).
	CallerSavedMask: regRange(IntReg(0), IntReg(17)) |
		floatRange(0, 7) | floatRange(16, 31),
	CalleeSavedMask: regRange(IntReg(18), IntReg(30)) | floatRange(8, 15),
	IntParamRegs: []Register{
		IntReg(0), IntReg(1), IntReg(2), IntReg(3),
		IntReg(4), IntReg(5), IntReg(6), IntReg(7),
	},
	FloatParamRegs: []Register{
		FloatReg(0), FloatReg(1), FloatReg(2), FloatReg(3),
		FloatReg(4), FloatReg(5), FloatReg(6), FloatReg(7),
	},
	IntReturnReg:   IntReg(0),
	FloatReturnReg: FloatReg(0),
	FrameReg:       IntReg(29),
	// SP encodes as register 31 on AArch64; it sits outside the
	// allocatable file (IntRegCount is 31) but lowering still needs a
	// handle for it.
	StackReg: IntReg(31),
}

// WASM has no hardware registers; the encoder maps this virtual file onto
// function locals. The register model stays uniform so lowering does not
// branch on the target.
var wasmC = ConventionInfo{
	Name:            "wasm-c",
	IntRegCount:     16,
	FloatRegCount:   16,
	CallerSavedMask: regRange(IntReg(0), IntReg(15)) | floatRange(0, 15),
	CalleeSavedMask: 0,
	IntParamRegs: []Register{
		IntReg(0), IntReg(1), IntReg(2), IntReg(3),
	},
	FloatParamRegs: []Register{
		FloatReg(0), FloatReg(1), FloatReg(2), FloatReg(3),
	},
	IntReturnReg:   IntReg(0),
	FloatReturnReg: FloatReg(0),
	FrameReg:       IntReg(15),
	StackReg:       IntReg(14),
}

// ConventionFor returns the configuration record for a calling convention.
// The returned pointer is shared and must be treated as read-only.
func ConventionFor(conv CallingConvention) *ConventionInfo {
	switch conv {
	case ConvMicrosoftX64:
		return &microsoftX64
	case ConvAAPCS64:
		return &aapcs64
	case ConvWasmC:
		return &wasmC
	default:
		return &sysvAMD64
	}
}
