package codegen

import (
	"sync"
	"sync/atomic"
)

// InstructionBuffer is a growable, thread-safe sequence of instructions.
// Append is amortized O(1); Insert and Remove shift the tail and are meant
// for peephole passes, not the hot emission path.
type InstructionBuffer struct {
	mu           sync.Mutex
	instructions []*Instruction

	count     atomic.Int64
	byteCount atomic.Int64

	estimate func(*Instruction) int
}

// NewInstructionBuffer allocates an empty buffer. estimate reports the
// encoded size of an instruction in bytes and may be nil, in which case
// byte accounting stays at zero.
func NewInstructionBuffer(capacity int, estimate func(*Instruction) int) *InstructionBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &InstructionBuffer{
		instructions: make([]*Instruction, 0, capacity),
		estimate:     estimate,
	}
}

// Add appends an instruction and returns its index.
func (b *InstructionBuffer) Add(in *Instruction) int {
	b.mu.Lock()
	b.instructions = append(b.instructions, in)
	idx := len(b.instructions) - 1
	b.mu.Unlock()

	b.count.Add(1)
	b.byteCount.Add(int64(b.sizeOf(in)))
	return idx
}

// Insert places an instruction at index, shifting later instructions right.
// Out-of-range indices clamp to the nearest end.
func (b *InstructionBuffer) Insert(index int, in *Instruction) {
	b.mu.Lock()
	if index < 0 {
		index = 0
	}
	if index > len(b.instructions) {
		index = len(b.instructions)
	}
	b.instructions = append(b.instructions, nil)
	copy(b.instructions[index+1:], b.instructions[index:])
	b.instructions[index] = in
	b.mu.Unlock()

	b.count.Add(1)
	b.byteCount.Add(int64(b.sizeOf(in)))
}

// Remove deletes the instruction at index. It reports whether the index
// was in range.
func (b *InstructionBuffer) Remove(index int) bool {
	b.mu.Lock()
	if index < 0 || index >= len(b.instructions) {
		b.mu.Unlock()
		return false
	}
	removed := b.instructions[index]
	copy(b.instructions[index:], b.instructions[index+1:])
	b.instructions = b.instructions[:len(b.instructions)-1]
	b.mu.Unlock()

	b.count.Add(-1)
	b.byteCount.Add(-int64(b.sizeOf(removed)))
	return true
}

// At returns the instruction at index, or nil when out of range.
func (b *InstructionBuffer) At(index int) *Instruction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.instructions) {
		return nil
	}
	return b.instructions[index]
}

// Len returns the current instruction count without taking the lock.
func (b *InstructionBuffer) Len() int {
	return int(b.count.Load())
}

// ByteSize returns the estimated encoded size of the buffer in bytes.
func (b *InstructionBuffer) ByteSize() int {
	return int(b.byteCount.Load())
}

// Snapshot copies the current instruction sequence for iteration. The
// returned slice is independent of later mutation.
func (b *InstructionBuffer) Snapshot() []*Instruction {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Instruction, len(b.instructions))
	copy(out, b.instructions)
	return out
}

func (b *InstructionBuffer) sizeOf(in *Instruction) int {
	if b.estimate == nil || in == nil {
		return 0
	}
	return b.estimate(in)
}
