package codegen

import (
	"fmt"
	"strings"
)

// Opcode enumerates the closed, target-independent instruction set lowering
// emits. Encoders map opcodes to target mnemonics and size estimates.
type Opcode uint8

const (
	OpMov Opcode = iota
	OpMovq
	OpMovsd
	OpLea
	OpAdd
	OpAdc
	OpSub
	OpSbb
	OpImul
	OpMul
	OpIdiv
	OpDiv
	OpCqo
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpTest
	OpCmp
	OpJmp
	OpJe
	OpJne
	OpJl
	OpJle
	OpJg
	OpJge
	OpJb
	OpJbe
	OpJa
	OpJae
	OpJz
	OpJnz
	OpSet
	OpCall
	OpRet
	OpPush
	OpPop
	OpInc
	// OpQuad is a data pseudo-op: one pointer-width table entry holding
	// a label address. Jump-table emission is its only producer.
	OpQuad
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpMov:   "mov",
	OpMovq:  "movq",
	OpMovsd: "movsd",
	OpLea:   "lea",
	OpAdd:   "add",
	OpAdc:   "adc",
	OpSub:   "sub",
	OpSbb:   "sbb",
	OpImul:  "imul",
	OpMul:   "mul",
	OpIdiv:  "idiv",
	OpDiv:   "div",
	OpCqo:   "cqo",
	OpNeg:   "neg",
	OpNot:   "not",
	OpAnd:   "and",
	OpOr:    "or",
	OpXor:   "xor",
	OpShl:   "shl",
	OpShr:   "shr",
	OpTest:  "test",
	OpCmp:   "cmp",
	OpJmp:   "jmp",
	OpJe:    "je",
	OpJne:   "jne",
	OpJl:    "jl",
	OpJle:   "jle",
	OpJg:    "jg",
	OpJge:   "jge",
	OpJb:    "jb",
	OpJbe:   "jbe",
	OpJa:    "ja",
	OpJae:   "jae",
	OpJz:    "jz",
	OpJnz:   "jnz",
	OpSet:   "set",
	OpCall:  "call",
	OpRet:   "ret",
	OpPush:  "push",
	OpPop:   "pop",
	OpInc:   "inc",
	OpQuad:  "dq",
}

func (op Opcode) String() string {
	if op < numOpcodes {
		return opcodeNames[op]
	}
	return "invalid"
}

// IsBranch reports whether the opcode transfers control to a label operand.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpJmp, OpJe, OpJne, OpJl, OpJle, OpJg, OpJge,
		OpJb, OpJbe, OpJa, OpJae, OpJz, OpJnz, OpCall:
		return true
	}
	return false
}

// Cond is a condition code for OpSet and the conditional jumps.
type Cond uint8

const (
	CondNone Cond = iota
	CondE
	CondNE
	CondL
	CondLE
	CondG
	CondGE
	// Unsigned orderings: below / below-equal / above / above-equal.
	CondB
	CondBE
	CondA
	CondAE
	CondZ
	CondNZ
)

func (c Cond) String() string {
	switch c {
	case CondE:
		return "e"
	case CondNE:
		return "ne"
	case CondL:
		return "l"
	case CondLE:
		return "le"
	case CondG:
		return "g"
	case CondGE:
		return "ge"
	case CondB:
		return "b"
	case CondBE:
		return "be"
	case CondA:
		return "a"
	case CondAE:
		return "ae"
	case CondZ:
		return "z"
	case CondNZ:
		return "nz"
	}
	return ""
}

// BranchHint carries an optional static prediction for conditional jumps.
type BranchHint uint8

const (
	HintNone BranchHint = iota
	HintLikely
	HintUnlikely
)

// OperandKind discriminates the operand union.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandMemory
	OperandLabel
)

// Operand is one instruction operand. Kind selects the active fields.
type Operand struct {
	Kind OperandKind

	Reg Register
	Imm int64

	// Memory addressing: [Base + Index*Scale + Disp]. Index is RegNone
	// for plain base+displacement addressing. When Base is RegNone the
	// Label field names a symbolic base instead, which is how indirect
	// jumps address their tables.
	Base  Register
	Index Register
	Scale int32
	Disp  int32

	Label string
}

// Reg wraps a register operand.
func RegOp(r Register) Operand {
	return Operand{Kind: OperandRegister, Reg: r}
}

// ImmOp wraps an immediate operand.
func ImmOp(v int64) Operand {
	return Operand{Kind: OperandImmediate, Imm: v, Reg: RegImmediate}
}

// MemOp wraps a memory operand with full addressing components.
func MemOp(base, index Register, scale, disp int32) Operand {
	return Operand{Kind: OperandMemory, Base: base, Index: index, Scale: scale, Disp: disp}
}

// LabelMemOp wraps a memory operand addressed off a symbolic base.
func LabelMemOp(label string, index Register, scale int32) Operand {
	return Operand{Kind: OperandMemory, Base: RegNone, Index: index, Scale: scale, Label: label}
}

// LabelOp wraps a label reference operand.
func LabelOp(name string) Operand {
	return Operand{Kind: OperandLabel, Label: name}
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandRegister:
		return o.Reg.String()
	case OperandImmediate:
		return fmt.Sprintf("$%d", o.Imm)
	case OperandMemory:
		base := o.Base.String()
		if o.Base == RegNone && o.Label != "" {
			base = o.Label
		}
		if o.Index.IsValid() {
			return fmt.Sprintf("[%s+%s*%d%+d]", base, o.Index, o.Scale, o.Disp)
		}
		return fmt.Sprintf("[%s%+d]", base, o.Disp)
	case OperandLabel:
		return o.Label
	}
	return "?"
}

// Instruction is one lowered machine operation. Instances are built by the
// factory functions below, appended to exactly one InstructionBuffer, and
// never mutated afterwards.
type Instruction struct {
	Op       Opcode
	Operands []Operand
	Cond     Cond
	Hint     BranchHint
	Comment  string
}

// NewInstruction builds an instruction from an opcode and operand list.
func NewInstruction(op Opcode, operands ...Operand) *Instruction {
	return &Instruction{Op: op, Operands: operands}
}

// NewMov builds a register-to-register move.
func NewMov(dst, src Register) *Instruction {
	return NewInstruction(OpMov, RegOp(dst), RegOp(src))
}

// NewMovImm builds an immediate load.
func NewMovImm(dst Register, v int64) *Instruction {
	return NewInstruction(OpMov, RegOp(dst), ImmOp(v))
}

// NewCall builds a direct call to a named symbol.
func NewCall(symbol string) *Instruction {
	return NewInstruction(OpCall, LabelOp(symbol))
}

// NewRet builds a return.
func NewRet() *Instruction {
	return NewInstruction(OpRet)
}

// NewJump builds an unconditional jump to a label.
func NewJump(label string) *Instruction {
	return NewInstruction(OpJmp, LabelOp(label))
}

// NewCondJump builds a conditional jump with an optional prediction hint.
func NewCondJump(op Opcode, label string, hint BranchHint) *Instruction {
	in := NewInstruction(op, LabelOp(label))
	in.Hint = hint
	return in
}

// NewSet builds a set-condition-code into the low byte of dst.
func NewSet(cond Cond, dst Register) *Instruction {
	in := NewInstruction(OpSet, RegOp(dst))
	in.Cond = cond
	return in
}

// NewCmp builds a register-register compare.
func NewCmp(left, right Register) *Instruction {
	return NewInstruction(OpCmp, RegOp(left), RegOp(right))
}

// NewLoad builds a load from [base+disp] into dst.
func NewLoad(dst, base Register, disp int32) *Instruction {
	return NewInstruction(OpMov, RegOp(dst), MemOp(base, RegNone, 1, disp))
}

// NewStore builds a store of src into [base+disp].
func NewStore(base Register, disp int32, src Register) *Instruction {
	return NewInstruction(OpMov, MemOp(base, RegNone, 1, disp), RegOp(src))
}

// NewIndexedLoad builds a load through [base + index*scale].
func NewIndexedLoad(dst, base, index Register, scale int32) *Instruction {
	return NewInstruction(OpMov, RegOp(dst), MemOp(base, index, scale, 0))
}

// WithComment attaches a debug comment and returns the instruction.
func (in *Instruction) WithComment(c string) *Instruction {
	in.Comment = c
	return in
}

func (in *Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	if in.Op == OpSet {
		b.WriteString(in.Cond.String())
	}
	for i, o := range in.Operands {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(o.String())
	}
	if in.Comment != "" {
		b.WriteString("  ; ")
		b.WriteString(in.Comment)
	}
	return b.String()
}
