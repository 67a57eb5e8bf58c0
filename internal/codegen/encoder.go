package codegen

import (
	"fmt"
	"strings"
)

// Encoder renders target-independent instructions for one architecture.
// Implementations are stateless and safe for concurrent use.
type Encoder interface {
	// Arch names the target this encoder serves.
	Arch() TargetArch
	// RegisterName spells a register in the target's assembly syntax.
	RegisterName(r Register) string
	// EstimateSize reports the encoded size of one instruction in bytes.
	// Estimates feed the buffer's byte accounting and need not be exact
	// for variable-length targets.
	EstimateSize(in *Instruction) int
	// Render formats one instruction as a line of target assembly.
	Render(in *Instruction) string
}

// EncoderFor selects the encoder for a parsed target.
func EncoderFor(arch TargetArch) (Encoder, error) {
	switch arch {
	case ArchX86_64:
		return x8664Encoder{}, nil
	case ArchAArch64:
		return aarch64Encoder{}, nil
	case ArchWasm32:
		return wasm32Encoder{}, nil
	}
	return nil, fmt.Errorf("no encoder for target %q", arch)
}

var x8664IntNames = [16]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

type x8664Encoder struct{}

func (x8664Encoder) Arch() TargetArch { return ArchX86_64 }

func (x8664Encoder) RegisterName(r Register) string {
	switch {
	case r == RegNone:
		return "<none>"
	case r == RegImmediate:
		return "<imm>"
	case r.IsFloat():
		return fmt.Sprintf("xmm%d", r.Index())
	case int(r) < len(x8664IntNames):
		return x8664IntNames[r]
	}
	return fmt.Sprintf("r?%d", int(r))
}

func (x8664Encoder) EstimateSize(in *Instruction) int {
	switch in.Op {
	case OpQuad:
		return 8
	case OpRet:
		return 1
	case OpPush, OpPop, OpInc, OpNeg, OpNot:
		return 2
	case OpJmp, OpJe, OpJne, OpJl, OpJle, OpJg, OpJge,
		OpJb, OpJbe, OpJa, OpJae, OpJz, OpJnz:
		// Assume rel32 form; the assembler may shorten to rel8.
		return 5
	case OpCall:
		return 5
	case OpMovsd, OpMovq:
		return 5
	case OpSet:
		return 3
	case OpMov:
		for _, o := range in.Operands {
			if o.Kind == OperandImmediate {
				return 10
			}
			if o.Kind == OperandMemory {
				return 7
			}
		}
		return 3
	default:
		return 4
	}
}

func (e x8664Encoder) Render(in *Instruction) string {
	return renderIntel(e, in)
}

type aarch64Encoder struct{}

func (aarch64Encoder) Arch() TargetArch { return ArchAArch64 }

func (aarch64Encoder) RegisterName(r Register) string {
	switch {
	case r == RegNone:
		return "<none>"
	case r == RegImmediate:
		return "<imm>"
	case r.IsFloat():
		return fmt.Sprintf("d%d", r.Index())
	case r.Index() == 31:
		return "sp"
	}
	return fmt.Sprintf("x%d", r.Index())
}

// Fixed-width ISA: every instruction encodes to one 32-bit word. Wide
// immediates cost extra movk words.
func (aarch64Encoder) EstimateSize(in *Instruction) int {
	if in.Op == OpQuad {
		return 8
	}
	if in.Op == OpMov {
		for _, o := range in.Operands {
			if o.Kind == OperandImmediate && (o.Imm > 0xFFFF || o.Imm < 0) {
				return 8
			}
		}
	}
	return 4
}

func (e aarch64Encoder) Render(in *Instruction) string {
	return renderIntel(e, in)
}

type wasm32Encoder struct{}

func (wasm32Encoder) Arch() TargetArch { return ArchWasm32 }

func (wasm32Encoder) RegisterName(r Register) string {
	switch {
	case r == RegNone:
		return "<none>"
	case r == RegImmediate:
		return "<imm>"
	case r.IsFloat():
		return fmt.Sprintf("$f%d", r.Index())
	}
	return fmt.Sprintf("$r%d", r.Index())
}

// LEB128 opcodes plus operand indices; a small constant is close enough
// for pressure accounting.
func (wasm32Encoder) EstimateSize(in *Instruction) int {
	return 2 + 2*len(in.Operands)
}

func (e wasm32Encoder) Render(in *Instruction) string {
	return renderIntel(e, in)
}

// renderIntel formats an instruction in dst-first syntax with the target's
// register spellings. All three encoders share the layout; only names and
// size estimates differ.
func renderIntel(e Encoder, in *Instruction) string {
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
		b.WriteString(renderOperand(e, o))
	}
	if in.Comment != "" {
		b.WriteString("  ; ")
		b.WriteString(in.Comment)
	}
	return b.String()
}

func renderOperand(e Encoder, o Operand) string {
	switch o.Kind {
	case OperandRegister:
		return e.RegisterName(o.Reg)
	case OperandImmediate:
		return fmt.Sprintf("%d", o.Imm)
	case OperandMemory:
		base := e.RegisterName(o.Base)
		if o.Base == RegNone && o.Label != "" {
			base = o.Label
		}
		if o.Index.IsValid() {
			return fmt.Sprintf("[%s + %s*%d %+d]", base, e.RegisterName(o.Index), o.Scale, o.Disp)
		}
		if o.Disp == 0 {
			return fmt.Sprintf("[%s]", base)
		}
		return fmt.Sprintf("[%s %+d]", base, o.Disp)
	case OperandLabel:
		return o.Label
	}
	return "?"
}
