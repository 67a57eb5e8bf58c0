package codegen

import (
	"fmt"
	"sync"

	"cinder/internal/diag"
)

// LabelKind names the control-flow construct a label belongs to. The kind
// only affects the generated prefix, never resolution.
type LabelKind uint8

const (
	LabelGeneric LabelKind = iota
	LabelLoopHead
	LabelLoopEnd
	LabelMatchArm
	LabelMatchEnd
	LabelShortCircuit
	LabelJumpTable
)

var labelPrefixes = map[LabelKind]string{
	LabelGeneric:      "L",
	LabelLoopHead:     "loop_head",
	LabelLoopEnd:      "loop_end",
	LabelMatchArm:     "match_arm",
	LabelMatchEnd:     "match_end",
	LabelShortCircuit: "sc",
	LabelJumpTable:    "jt",
}

// LabelManager creates unique labels and records where each is defined in
// the instruction stream. Creation and definition may interleave freely;
// Resolve only succeeds after Define.
type LabelManager struct {
	mu      sync.Mutex
	next    uint64
	defined map[string]int
}

// NewLabelManager allocates an empty manager.
func NewLabelManager() *LabelManager {
	return &LabelManager{defined: make(map[string]int)}
}

// Create mints a fresh label name for the given kind. Names are unique for
// the lifetime of the manager.
func (m *LabelManager) Create(kind LabelKind) string {
	m.mu.Lock()
	id := m.next
	m.next++
	m.mu.Unlock()

	prefix := labelPrefixes[kind]
	if prefix == "" {
		prefix = labelPrefixes[LabelGeneric]
	}
	return fmt.Sprintf(".%s_%d", prefix, id)
}

// Define binds a label to an instruction offset. Redefining a label keeps
// the latest offset; lowering never redefines in practice.
func (m *LabelManager) Define(name string, offset int) {
	m.mu.Lock()
	m.defined[name] = offset
	m.mu.Unlock()
}

// Resolve returns the instruction offset a label was defined at.
func (m *LabelManager) Resolve(name string) (int, error) {
	m.mu.Lock()
	offset, ok := m.defined[name]
	m.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%s: label %q is referenced but never defined", diag.CodegenLabelNotFound, name)
	}
	return offset, nil
}

// Snapshot copies the current label table for rendering.
func (m *LabelManager) Snapshot() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.defined))
	for name, off := range m.defined {
		out[name] = off
	}
	return out
}

// Defined reports whether a label has been bound to an offset.
func (m *LabelManager) Defined(name string) bool {
	m.mu.Lock()
	_, ok := m.defined[name]
	m.mu.Unlock()
	return ok
}
