package testkit

import (
	"fmt"

	"cinder/internal/ast"
)

// CheckProgramInvariants runs a minimal set of structural invariants on a
// decoded program artifact:
// 1) every function has a name, a body, and fully typed parameters
// 2) no two functions share a (struct, name) pair
// 3) every struct has a name, typed fields, and distinct type parameters
func CheckProgramInvariants(p *ast.Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}

	seen := make(map[string]bool, len(p.Funcs))
	for i, fn := range p.Funcs {
		if fn == nil {
			return fmt.Errorf("nil function at index %d", i)
		}
		if fn.Name == "" {
			return fmt.Errorf("function at index %d has no name", i)
		}
		if fn.Body == nil {
			return fmt.Errorf("function %s has no body", fn.Name)
		}
		key := fn.StructName + "::" + fn.Name
		if fn.IsInstance {
			key += "#instance"
		}
		if seen[key] {
			return fmt.Errorf("duplicate function %s", key)
		}
		seen[key] = true
		for _, param := range fn.Params {
			if param.Name == "" {
				return fmt.Errorf("function %s has an unnamed parameter", fn.Name)
			}
			if param.Type == nil {
				return fmt.Errorf("function %s: parameter %q has no type", fn.Name, param.Name)
			}
		}
	}

	structsSeen := make(map[string]bool, len(p.Structs))
	for i, st := range p.Structs {
		if st == nil {
			return fmt.Errorf("nil struct at index %d", i)
		}
		if st.Name == "" {
			return fmt.Errorf("struct at index %d has no name", i)
		}
		if structsSeen[st.Name] {
			return fmt.Errorf("duplicate struct %s", st.Name)
		}
		structsSeen[st.Name] = true
		params := make(map[string]bool, len(st.TypeParams))
		for _, tp := range st.TypeParams {
			if tp.Name == "" {
				return fmt.Errorf("struct %s has an unnamed type parameter", st.Name)
			}
			if params[tp.Name] {
				return fmt.Errorf("struct %s repeats type parameter %s", st.Name, tp.Name)
			}
			params[tp.Name] = true
		}
		for _, field := range st.Fields {
			if field.Name == "" {
				return fmt.Errorf("struct %s has an unnamed field", st.Name)
			}
			if field.Type == nil && len(st.TypeParams) == 0 {
				return fmt.Errorf("struct %s: field %q has no type", st.Name, field.Name)
			}
		}
	}
	return nil
}
