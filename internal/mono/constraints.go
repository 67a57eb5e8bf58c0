package mono

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/types"
)

// Constraint names the frontend understands. The registry re-checks them
// defensively because an artifact may have been produced by a different
// frontend build.
const (
	constraintInteger = "Integer"
	constraintNumeric = "Numeric"
	constraintSized   = "Sized"
)

func checkConstraint(tp ast.TypeParam, arg *types.Type) error {
	if tp.Constraint == "" {
		return nil
	}
	if arg == nil {
		return fmt.Errorf("%s: nil type argument for parameter %s", diag.GenericConstraintViolated, tp.Name)
	}
	ok := true
	switch tp.Constraint {
	case constraintInteger:
		ok = isInteger(arg)
	case constraintNumeric:
		ok = isInteger(arg) || arg.IsFloat()
	case constraintSized:
		ok = arg.Size > 0
	default:
		// Unknown constraints were validated by the frontend that wrote
		// the artifact; the registry only re-checks the ones it knows.
		return nil
	}
	if !ok {
		return fmt.Errorf("%s: type %s does not satisfy constraint %s on parameter %s",
			diag.GenericConstraintViolated, arg, tp.Constraint, tp.Name)
	}
	return nil
}

func isInteger(t *types.Type) bool {
	if t == nil || t.Kind != types.KindPrimitive {
		return false
	}
	switch t.Prim {
	case types.PrimI8, types.PrimI16, types.PrimI32, types.PrimI64, types.PrimI128,
		types.PrimU8, types.PrimU16, types.PrimU32, types.PrimU64, types.PrimU128:
		return true
	}
	return false
}
