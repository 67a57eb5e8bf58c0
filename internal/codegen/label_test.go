package codegen

import (
	"strings"
	"testing"
)

func TestLabelManager_CreateUniqueNames(t *testing.T) {
	m := NewLabelManager()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := m.Create(LabelLoopHead)
		if seen[name] {
			t.Fatalf("label %q minted twice", name)
		}
		seen[name] = true
		if !strings.HasPrefix(name, ".loop_head_") {
			t.Fatalf("label %q lacks the loop_head prefix", name)
		}
	}
}

func TestLabelManager_KindPrefixes(t *testing.T) {
	m := NewLabelManager()

	cases := []struct {
		kind   LabelKind
		prefix string
	}{
		{LabelGeneric, ".L_"},
		{LabelLoopEnd, ".loop_end_"},
		{LabelMatchArm, ".match_arm_"},
		{LabelMatchEnd, ".match_end_"},
		{LabelShortCircuit, ".sc_"},
		{LabelJumpTable, ".jt_"},
	}
	for _, tc := range cases {
		name := m.Create(tc.kind)
		if !strings.HasPrefix(name, tc.prefix) {
			t.Errorf("Create(%d) = %q, want prefix %q", tc.kind, name, tc.prefix)
		}
	}
}

func TestLabelManager_DefineAndResolve(t *testing.T) {
	m := NewLabelManager()
	name := m.Create(LabelGeneric)

	if m.Defined(name) {
		t.Errorf("label %q reported defined before Define", name)
	}
	m.Define(name, 42)
	if !m.Defined(name) {
		t.Errorf("label %q reported undefined after Define", name)
	}
	off, err := m.Resolve(name)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", name, err)
	}
	if off != 42 {
		t.Errorf("Resolve(%q) = %d, want 42", name, off)
	}
}

func TestLabelManager_ResolveUndefined(t *testing.T) {
	m := NewLabelManager()

	_, err := m.Resolve(".L_999")
	if err == nil {
		t.Fatal("Resolve of an undefined label succeeded")
	}
	if !strings.Contains(err.Error(), "CN7004") {
		t.Errorf("error %q does not carry the label-not-found code", err)
	}
}
