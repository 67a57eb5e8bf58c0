package codegen

import (
	"fmt"
	"sync"
)

// Local describes one stack-resident symbol inside a function frame.
// Offsets are negative displacements from the frame register.
type Local struct {
	Name    string
	Offset  int32
	Size    int32
	IsParam bool
}

// LocalSymbolTable tracks the stack slots of a single function. Slots are
// assigned monotonically; the table never reuses freed space.
type LocalSymbolTable struct {
	mu      sync.Mutex
	byName  map[string]Local
	nextOff int32
}

// NewLocalSymbolTable allocates an empty frame table.
func NewLocalSymbolTable() *LocalSymbolTable {
	return &LocalSymbolTable{byName: make(map[string]Local)}
}

// Declare reserves a stack slot of the given size for name and returns its
// frame offset. Declaring an existing name is an error; shadowing is the
// front end's job.
func (t *LocalSymbolTable) Declare(name string, size int32, isParam bool) (int32, error) {
	if size <= 0 {
		size = 8
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; ok {
		return 0, fmt.Errorf("local %q declared twice in one frame", name)
	}
	t.nextOff -= alignSlot(size)
	l := Local{Name: name, Offset: t.nextOff, Size: size, IsParam: isParam}
	t.byName[name] = l
	return l.Offset, nil
}

// Lookup finds a declared local by name.
func (t *LocalSymbolTable) Lookup(name string) (Local, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.byName[name]
	return l, ok
}

// FrameSize returns the total reserved stack space, rounded up to 16 bytes
// so the frame preserves call-site alignment.
func (t *LocalSymbolTable) FrameSize() int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := -t.nextOff
	if rem := size % 16; rem != 0 {
		size += 16 - rem
	}
	return size
}

// Len returns the number of declared locals.
func (t *LocalSymbolTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byName)
}

// alignSlot rounds a slot size up to 8 bytes so every local starts on a
// natural boundary.
func alignSlot(size int32) int32 {
	if rem := size % 8; rem != 0 {
		size += 8 - rem
	}
	return size
}
