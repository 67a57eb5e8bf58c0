package codegen

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"cinder/internal/types"
)

// RegisterAllocator tracks which physical registers are checked out. It is
// pool-based: two bitmask pools partition the file by ABI class, and
// allocation scans the preferred pool in fixed index order before falling
// back to the other. There is no automatic spilling; exhaustion returns
// RegNone and bumps the spill counter, and the caller decides what to do.
//
// Allocate, Free, and IsAllocated share one mutex so they are linearizable
// with respect to each other. Code generation for a single function runs on
// one goroutine today, but the driver may share an allocator between
// function generators in the future, and the statistics counters are read
// concurrently already.
type RegisterAllocator struct {
	mu        sync.Mutex
	allocated uint64

	conv *ConventionInfo

	pressure     atomic.Int64
	peakPressure atomic.Int64
	spills       atomic.Int64
}

// NewRegisterAllocator builds an allocator over the register file of conv.
func NewRegisterAllocator(conv *ConventionInfo) *RegisterAllocator {
	return &RegisterAllocator{conv: conv}
}

// Allocate checks out one free register, preferring the caller-saved pool
// when preferCallerSaved is set. Returns RegNone when both pools are
// exhausted; that failure increments the spill counter, and the caller is
// responsible for spill handling.
func (a *RegisterAllocator) Allocate(preferCallerSaved bool) Register {
	a.mu.Lock()
	defer a.mu.Unlock()

	first, second := a.conv.CallerSavedMask, a.conv.CalleeSavedMask
	if !preferCallerSaved {
		first, second = second, first
	}

	r := a.takeLocked(first)
	if r == RegNone {
		r = a.takeLocked(second)
	}
	if r == RegNone {
		a.spills.Add(1)
		return RegNone
	}

	p := a.pressure.Add(1)
	for {
		peak := a.peakPressure.Load()
		if p <= peak || a.peakPressure.CompareAndSwap(peak, p) {
			break
		}
	}
	return r
}

// AllocateClass behaves like Allocate restricted to one register class.
// Integer values must never land in floating registers even when the
// integer file is exhausted, so class-aware lowering uses this instead of
// the plain pool scan.
func (a *RegisterAllocator) AllocateClass(float, preferCallerSaved bool) Register {
	classMask := regClassMask(float)

	a.mu.Lock()
	defer a.mu.Unlock()

	first, second := a.conv.CallerSavedMask, a.conv.CalleeSavedMask
	if !preferCallerSaved {
		first, second = second, first
	}

	r := a.takeLocked(first & classMask)
	if r == RegNone {
		r = a.takeLocked(second & classMask)
	}
	if r == RegNone {
		a.spills.Add(1)
		return RegNone
	}

	p := a.pressure.Add(1)
	for {
		peak := a.peakPressure.Load()
		if p <= peak || a.peakPressure.CompareAndSwap(peak, p) {
			break
		}
	}
	return r
}

// regClassMask covers the integer or floating half of the register file.
func regClassMask(float bool) uint64 {
	// Shift a variable, not the constant: a constant shift would be
	// evaluated at arbitrary precision and overflow uint64.
	fl := ^uint64(0)
	fl <<= floatBase
	if float {
		return fl
	}
	return ^fl
}

// takeLocked claims the lowest-index free register inside pool, or RegNone.
// The frame and stack registers count toward the pool so the ABI partition
// stays complete, but locals address through them, so they are handed out
// only once every other register in the pool is taken. Caller holds the
// mutex.
func (a *RegisterAllocator) takeLocked(pool uint64) Register {
	free := pool &^ a.allocated
	if free == 0 {
		return RegNone
	}
	if preferred := free &^ (a.conv.FrameReg.Bit() | a.conv.StackReg.Bit()); preferred != 0 {
		free = preferred
	}
	idx := bits.TrailingZeros64(free)
	a.allocated |= uint64(1) << uint(idx)
	return Register(idx)
}

// Free returns a register to its pool. Freeing RegNone, RegImmediate, or a
// register that is not currently allocated is a no-op, not an error: error
// paths free unconditionally and must stay idempotent.
func (a *RegisterAllocator) Free(r Register) {
	if !r.IsValid() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.allocated&r.Bit() == 0 {
		return
	}
	a.allocated &^= r.Bit()
	a.pressure.Add(-1)
}

// IsAllocated reports whether r is currently checked out.
func (a *RegisterAllocator) IsAllocated(r Register) bool {
	if !r.IsValid() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated&r.Bit() != 0
}

// Pressure returns the number of currently outstanding allocations.
func (a *RegisterAllocator) Pressure() int {
	return int(a.pressure.Load())
}

// PeakPressure returns the historical maximum of Pressure.
func (a *RegisterAllocator) PeakPressure() int {
	return int(a.peakPressure.Load())
}

// Spills returns the cumulative count of failed allocations.
func (a *RegisterAllocator) Spills() int {
	return int(a.spills.Load())
}

// ParamLocation is where one parameter lives on function entry: either a
// register, or a stack slot at StackOffset bytes above the frame base.
type ParamLocation struct {
	Reg         Register
	StackOffset int
	OnStack     bool
}

// AssignParameters maps an ordered parameter-type list onto the
// convention's parameter registers. Integer and pointer parameters consume
// the integer sequence, floating parameters the float sequence; once a
// sequence runs out, parameters of that class move to 8-byte-aligned stack
// slots in declaration order.
func (a *RegisterAllocator) AssignParameters(paramTypes []*types.Type) []ParamLocation {
	out := make([]ParamLocation, len(paramTypes))
	nextInt, nextFloat := 0, 0
	// First stack slot sits above the saved frame pointer and return
	// address.
	stackOff := 16
	for i, t := range paramTypes {
		if t.IsFloat() {
			if nextFloat < len(a.conv.FloatParamRegs) {
				out[i] = ParamLocation{Reg: a.conv.FloatParamRegs[nextFloat]}
				nextFloat++
				continue
			}
		} else {
			if nextInt < len(a.conv.IntParamRegs) {
				out[i] = ParamLocation{Reg: a.conv.IntParamRegs[nextInt]}
				nextInt++
				continue
			}
		}
		out[i] = ParamLocation{Reg: RegNone, StackOffset: stackOff, OnStack: true}
		stackOff += 8
	}
	return out
}
