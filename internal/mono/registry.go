// Package mono instantiates generic struct declarations into concrete type
// layouts. The registry deduplicates instantiations, validates arity and
// constraints, detects instantiation cycles, and assigns each instance a
// deterministic concrete name that symbol mangling can build on.
package mono

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/types"
)

// Instance is one concrete instantiation of a generic struct.
type Instance struct {
	// Key identifies the instantiation: the declaration name plus the
	// deterministic rendering of its type arguments.
	Key string
	// Name is the concrete struct name, safe to embed in symbols.
	Name string
	// Type is the substituted, laid-out struct descriptor.
	Type *types.Type
	// Args are the concrete type arguments, in declaration order.
	Args []*types.Type

	refs atomic.Int64
}

// Retain bumps the advisory reference count. Counts feed dead-instance
// reporting; they never unregister an instance.
func (in *Instance) Retain() { in.refs.Add(1) }

// Release drops one reference. Releasing below zero clamps at zero.
func (in *Instance) Release() {
	for {
		cur := in.refs.Load()
		if cur == 0 {
			return
		}
		if in.refs.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Refs reads the current advisory reference count.
func (in *Instance) Refs() int64 { return in.refs.Load() }

// Registry holds every instantiation made from one program. Lookups and
// creations are linearizable; concurrent requests for the same key return
// the same instance.
type Registry struct {
	mu         sync.Mutex
	program    *ast.Program
	instances  map[string]*Instance
	inProgress map[string]bool
	order      []string
}

// NewRegistry builds an empty registry over a program's declarations.
func NewRegistry(program *ast.Program) *Registry {
	return &Registry{
		program:    program,
		instances:  make(map[string]*Instance),
		inProgress: make(map[string]bool),
	}
}

// Instantiate resolves a generic struct application to its concrete
// layout, creating the instance on first use. It implements the code
// generator's Instantiator interface.
func (r *Registry) Instantiate(structName string, typeArgs []*types.Type) (*types.Type, error) {
	inst, err := r.Lookup(structName, typeArgs)
	if err != nil {
		return nil, err
	}
	inst.Retain()
	return inst.Type, nil
}

// Lookup returns the instance for a struct application, creating it when
// absent.
func (r *Registry) Lookup(structName string, typeArgs []*types.Type) (*Instance, error) {
	key := InstanceKey(structName, typeArgs)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(structName, typeArgs, key)
}

func (r *Registry) lookupLocked(structName string, typeArgs []*types.Type, key string) (*Instance, error) {
	if inst, ok := r.instances[key]; ok {
		return inst, nil
	}
	if r.inProgress[key] {
		return nil, fmt.Errorf("%s: instantiation cycle through %s", diag.GenericInstantiationCycle, key)
	}

	decl := r.program.StructByName(structName)
	if decl == nil {
		return nil, fmt.Errorf("%s: unknown generic struct %q", diag.GenericUnknownStruct, structName)
	}
	if len(decl.TypeParams) != len(typeArgs) {
		return nil, fmt.Errorf("%s: %s expects %d type arguments, got %d",
			diag.GenericArityMismatch, structName, len(decl.TypeParams), len(typeArgs))
	}
	for i, tp := range decl.TypeParams {
		if err := checkConstraint(tp, typeArgs[i]); err != nil {
			return nil, err
		}
	}

	r.inProgress[key] = true
	defer delete(r.inProgress, key)

	concrete, err := r.substituteLocked(decl, typeArgs)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		Key:  key,
		Name: concrete.Name,
		Type: concrete,
		Args: typeArgs,
	}
	r.instances[key] = inst
	r.order = append(r.order, key)
	return inst, nil
}

// substituteLocked builds the concrete struct descriptor: every parameter
// reference in the field types is replaced by its argument and the layout
// is recomputed. Caller holds the registry mutex with key in progress.
func (r *Registry) substituteLocked(decl *ast.StructDecl, typeArgs []*types.Type) (*types.Type, error) {
	byParam := make(map[string]*types.Type, len(decl.TypeParams))
	for i, tp := range decl.TypeParams {
		byParam[tp.Name] = typeArgs[i]
	}

	concrete := &types.Type{
		Kind: types.KindStruct,
		Name: ConcreteName(decl.Name, typeArgs),
	}

	offset := 0
	align := 1
	for _, f := range decl.Fields {
		ft, err := r.substituteType(f.Type, byParam, typeArgs)
		if err != nil {
			return nil, err
		}
		fa := ft.Align
		if fa <= 0 {
			fa = 8
		}
		if rem := offset % fa; rem != 0 {
			offset += fa - rem
		}
		concrete.Fields = append(concrete.Fields, types.Field{Name: f.Name, Type: ft, Offset: offset})
		offset += ft.Size
		if fa > align {
			align = fa
		}
	}
	if rem := offset % align; rem != 0 {
		offset += align - rem
	}
	concrete.Size = offset
	concrete.Align = align
	return concrete, nil
}

// substituteType rewrites one field type, replacing parameters and
// recursively instantiating generic struct references. A self-referential
// generic field re-enters lookupLocked and trips the in-progress check.
func (r *Registry) substituteType(t *types.Type, byParam map[string]*types.Type, typeArgs []*types.Type) (*types.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("%s: field with no type descriptor", diag.GenericUnknownStruct)
	}
	switch t.Kind {
	case types.KindParam:
		arg, ok := byParam[t.ParamName]
		if !ok {
			return nil, fmt.Errorf("%s: unbound type parameter %q", diag.GenericArityMismatch, t.ParamName)
		}
		return arg, nil

	case types.KindPointer, types.KindArray, types.KindSlice:
		elem, err := r.substituteType(t.Elem, byParam, typeArgs)
		if err != nil {
			return nil, err
		}
		if elem == t.Elem {
			return t, nil
		}
		out := *t
		out.Elem = elem
		if t.Kind == types.KindArray {
			out.Size = elem.Size * t.Len
			out.Align = elem.Align
		}
		return &out, nil

	case types.KindTuple:
		out := *t
		out.Elems = nil
		changed := false
		for _, e := range t.Elems {
			se, err := r.substituteType(e, byParam, typeArgs)
			if err != nil {
				return nil, err
			}
			changed = changed || se != e
			out.Elems = append(out.Elems, se)
		}
		if !changed {
			return t, nil
		}
		return &out, nil

	case types.KindStruct:
		if len(t.TypeParams) == 0 {
			return t, nil
		}
		// A generic struct reference inside a generic struct applies the
		// enclosing instantiation's arguments positionally.
		inst, err := r.lookupLocked(t.Name, typeArgs, InstanceKey(t.Name, typeArgs))
		if err != nil {
			return nil, err
		}
		return inst.Type, nil
	}
	return t, nil
}

// Instances lists all instantiations in creation order. The order is
// deterministic for a deterministic sequence of lookups.
func (r *Registry) Instances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Instance, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.instances[key])
	}
	return out
}

// Len reports the number of distinct instantiations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// InstanceKey renders the deduplication key for a struct application.
// Type argument rendering is deterministic, so equal applications always
// collide.
func InstanceKey(structName string, typeArgs []*types.Type) string {
	var b strings.Builder
	b.WriteString(structName)
	b.WriteByte('<')
	for i, a := range typeArgs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return b.String()
}

// ConcreteName derives the symbol-safe concrete struct name for an
// instantiation: the declaration name followed by sanitized argument
// names.
func ConcreteName(structName string, typeArgs []*types.Type) string {
	parts := make([]string, 0, len(typeArgs)+1)
	parts = append(parts, structName)
	for _, a := range typeArgs {
		parts = append(parts, sanitizeTypeName(a.String()))
	}
	return strings.Join(parts, "_")
}

var typeNameSanitizer = strings.NewReplacer(
	"*", "ptr_",
	"[]", "slice_",
	"[", "arr", "]", "_",
	"(", "tup_", ")", "",
	",", "_",
	"<", "_", ">", "",
	" ", "",
)

func sanitizeTypeName(s string) string {
	return typeNameSanitizer.Replace(s)
}

// DeadInstances lists instances whose advisory reference count is zero,
// sorted by key. Diagnostics use it to warn about instantiations nothing
// retained.
func (r *Registry) DeadInstances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Instance
	for _, inst := range r.instances {
		if inst.Refs() == 0 {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key < out[b].Key })
	return out
}
