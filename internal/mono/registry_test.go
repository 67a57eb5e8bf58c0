package mono

import (
	"strings"
	"testing"

	"cinder/internal/ast"
	"cinder/internal/types"
)

func i64() *types.Type { return types.NewPrimitive(types.PrimI64) }
func i32() *types.Type { return types.NewPrimitive(types.PrimI32) }
func f64() *types.Type { return types.NewPrimitive(types.PrimF64) }

func boxProgram() *ast.Program {
	return &ast.Program{Structs: []*ast.StructDecl{
		{
			Name:       "Box",
			TypeParams: []ast.TypeParam{{Name: "T"}},
			Fields:     []ast.StructField{{Name: "value", Type: types.NewParam("T")}},
		},
		{
			Name:       "Pair",
			TypeParams: []ast.TypeParam{{Name: "A"}, {Name: "B"}},
			Fields: []ast.StructField{
				{Name: "first", Type: types.NewParam("A")},
				{Name: "second", Type: types.NewParam("B")},
			},
		},
		{
			Name:       "Counter",
			TypeParams: []ast.TypeParam{{Name: "T", Constraint: "Integer"}},
			Fields:     []ast.StructField{{Name: "count", Type: types.NewParam("T")}},
		},
	}}
}

func TestRegistry_InstantiateComputesLayout(t *testing.T) {
	r := NewRegistry(boxProgram())

	concrete, err := r.Instantiate("Pair", []*types.Type{i32(), i64()})
	if err != nil {
		t.Fatalf("Instantiate(Pair) failed: %v", err)
	}
	if concrete.Name != "Pair_i32_i64" {
		t.Errorf("concrete name = %q, want Pair_i32_i64", concrete.Name)
	}
	// i32 at 0, i64 aligned up to 8, total 16 aligned to 8.
	if concrete.Fields[0].Offset != 0 || concrete.Fields[1].Offset != 8 {
		t.Errorf("field offsets = %d, %d, want 0, 8",
			concrete.Fields[0].Offset, concrete.Fields[1].Offset)
	}
	if concrete.Size != 16 || concrete.Align != 8 {
		t.Errorf("layout = size %d align %d, want 16 and 8", concrete.Size, concrete.Align)
	}
}

func TestRegistry_Deduplicates(t *testing.T) {
	r := NewRegistry(boxProgram())

	a, err := r.Lookup("Box", []*types.Type{i64()})
	if err != nil {
		t.Fatalf("first Lookup failed: %v", err)
	}
	b, err := r.Lookup("Box", []*types.Type{i64()})
	if err != nil {
		t.Fatalf("second Lookup failed: %v", err)
	}
	if a != b {
		t.Error("equal applications produced distinct instances")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	if _, err := r.Lookup("Box", []*types.Type{i32()}); err != nil {
		t.Fatalf("Lookup(Box[i32]) failed: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d after a second argument set, want 2", r.Len())
	}
}

func TestRegistry_ArityMismatch(t *testing.T) {
	r := NewRegistry(boxProgram())

	_, err := r.Instantiate("Box", []*types.Type{i64(), i64()})
	if err == nil {
		t.Fatal("arity mismatch accepted")
	}
	if !strings.Contains(err.Error(), "CN7102") {
		t.Errorf("error %q does not carry the arity code", err)
	}
}

func TestRegistry_UnknownStruct(t *testing.T) {
	r := NewRegistry(boxProgram())

	_, err := r.Instantiate("Missing", []*types.Type{i64()})
	if err == nil {
		t.Fatal("unknown struct accepted")
	}
	if !strings.Contains(err.Error(), "CN7101") {
		t.Errorf("error %q does not carry the unknown-struct code", err)
	}
}

func TestRegistry_ConstraintChecks(t *testing.T) {
	r := NewRegistry(boxProgram())

	if _, err := r.Instantiate("Counter", []*types.Type{i32()}); err != nil {
		t.Errorf("integer argument rejected: %v", err)
	}
	_, err := r.Instantiate("Counter", []*types.Type{f64()})
	if err == nil {
		t.Fatal("float argument satisfied an Integer constraint")
	}
	if !strings.Contains(err.Error(), "CN7103") {
		t.Errorf("error %q does not carry the constraint code", err)
	}
}

func TestRegistry_UnknownConstraintAccepted(t *testing.T) {
	program := &ast.Program{Structs: []*ast.StructDecl{{
		Name:       "Exotic",
		TypeParams: []ast.TypeParam{{Name: "T", Constraint: "Hashable"}},
		Fields:     []ast.StructField{{Name: "v", Type: types.NewParam("T")}},
	}}}
	r := NewRegistry(program)

	if _, err := r.Instantiate("Exotic", []*types.Type{f64()}); err != nil {
		t.Errorf("unknown constraint rejected: %v", err)
	}
}

func TestRegistry_RefCounting(t *testing.T) {
	r := NewRegistry(boxProgram())

	inst, err := r.Lookup("Box", []*types.Type{i64()})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(r.DeadInstances()) != 1 {
		t.Errorf("unretained instance not reported dead")
	}

	inst.Retain()
	inst.Retain()
	if inst.Refs() != 2 {
		t.Errorf("Refs = %d, want 2", inst.Refs())
	}
	if len(r.DeadInstances()) != 0 {
		t.Error("retained instance reported dead")
	}

	inst.Release()
	inst.Release()
	inst.Release() // over-release clamps at zero
	if inst.Refs() != 0 {
		t.Errorf("Refs = %d after releases, want 0", inst.Refs())
	}
}

func TestRegistry_InstancesInCreationOrder(t *testing.T) {
	r := NewRegistry(boxProgram())

	_, _ = r.Lookup("Box", []*types.Type{i64()})
	_, _ = r.Lookup("Pair", []*types.Type{i32(), i32()})
	_, _ = r.Lookup("Box", []*types.Type{i32()})

	insts := r.Instances()
	want := []string{"Box<i64>", "Pair<i32,i32>", "Box<i32>"}
	if len(insts) != len(want) {
		t.Fatalf("instance count = %d, want %d", len(insts), len(want))
	}
	for i, k := range want {
		if insts[i].Key != k {
			t.Errorf("instance %d key = %q, want %q", i, insts[i].Key, k)
		}
	}
}

func TestRegistry_SelfReferenceCycle(t *testing.T) {
	selfType := &types.Type{
		Kind:       types.KindStruct,
		Name:       "Loop",
		TypeParams: []string{"T"},
	}
	program := &ast.Program{Structs: []*ast.StructDecl{{
		Name:       "Loop",
		TypeParams: []ast.TypeParam{{Name: "T"}},
		Fields:     []ast.StructField{{Name: "next", Type: selfType}},
	}}}
	r := NewRegistry(program)

	_, err := r.Instantiate("Loop", []*types.Type{i64()})
	if err == nil {
		t.Fatal("self-referential instantiation did not cycle")
	}
	if !strings.Contains(err.Error(), "CN7104") {
		t.Errorf("error %q does not carry the cycle code", err)
	}
}

func TestConcreteName_Sanitization(t *testing.T) {
	ptr := &types.Type{Kind: types.KindPointer, Elem: i64(), Size: 8, Align: 8}
	name := ConcreteName("Box", []*types.Type{ptr})
	if strings.ContainsAny(name, "*<>[](), ") {
		t.Errorf("concrete name %q contains separator characters", name)
	}
}

func TestInstanceKey_Deterministic(t *testing.T) {
	a := InstanceKey("Pair", []*types.Type{i32(), i64()})
	b := InstanceKey("Pair", []*types.Type{i32(), i64()})
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if a == InstanceKey("Pair", []*types.Type{i64(), i32()}) {
		t.Error("argument order ignored in key")
	}
}
