package codegen

import (
	"testing"
)

func fixedEstimate(*Instruction) int { return 4 }

func TestBuffer_AddAndCounters(t *testing.T) {
	b := NewInstructionBuffer(4, fixedEstimate)

	idx := b.Add(NewRet())
	if idx != 0 {
		t.Errorf("first Add returned index %d, want 0", idx)
	}
	b.Add(NewMov(regRAX, regRCX))
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
	if b.ByteSize() != 8 {
		t.Errorf("ByteSize = %d, want 8", b.ByteSize())
	}
}

func TestBuffer_InsertClampsIndex(t *testing.T) {
	b := NewInstructionBuffer(4, fixedEstimate)
	b.Add(NewMov(regRAX, regRCX))
	b.Add(NewRet())

	// Insert between the two.
	b.Insert(1, NewMovImm(regRDX, 7))
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	if b.At(1).Op != OpMov || b.At(1).Operands[1].Kind != OperandImmediate {
		t.Errorf("instruction at 1 = %s, want the inserted mov imm", b.At(1))
	}

	// Out-of-range indexes clamp instead of panicking.
	b.Insert(-5, NewRet())
	b.Insert(99, NewRet())
	if b.Len() != 5 {
		t.Fatalf("Len = %d after clamped inserts, want 5", b.Len())
	}
	if b.At(0).Op != OpRet || b.At(4).Op != OpRet {
		t.Error("clamped inserts did not land at the ends")
	}
}

func TestBuffer_Remove(t *testing.T) {
	b := NewInstructionBuffer(4, fixedEstimate)
	b.Add(NewMov(regRAX, regRCX))
	b.Add(NewRet())

	if !b.Remove(0) {
		t.Fatal("Remove(0) = false, want true")
	}
	if b.Len() != 1 || b.At(0).Op != OpRet {
		t.Errorf("unexpected buffer contents after remove: len=%d", b.Len())
	}
	if b.ByteSize() != 4 {
		t.Errorf("ByteSize = %d after remove, want 4", b.ByteSize())
	}
	if b.Remove(7) {
		t.Error("Remove(7) = true for out-of-range index")
	}
}

func TestBuffer_SnapshotIsStable(t *testing.T) {
	b := NewInstructionBuffer(4, fixedEstimate)
	b.Add(NewRet())

	snap := b.Snapshot()
	b.Add(NewMov(regRAX, regRCX))
	if len(snap) != 1 {
		t.Errorf("snapshot grew with the buffer: len=%d", len(snap))
	}
}
