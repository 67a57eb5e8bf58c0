package fuzztests

import (
	"testing"

	"cinder/internal/ast"
	"cinder/internal/types"
)

const maxSeedBytes = 64 << 10 // 64 KiB cap for the corpus

func addCorpusSeeds(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("CNPR"))
	f.Add([]byte("not an artifact"))

	for _, program := range seedPrograms() {
		data, err := ast.MarshalArtifact(program)
		if err != nil {
			continue
		}
		f.Add(clampSeed(data))
		// Truncated and corrupted variants of every valid seed.
		if len(data) > 4 {
			f.Add(clampSeed(data[:len(data)/2]))
			mangled := append([]byte(nil), data...)
			mangled[len(mangled)-1] ^= 0xff
			f.Add(clampSeed(mangled))
		}
	}
}

func seedPrograms() []*ast.Program {
	i64 := types.NewPrimitive(types.PrimI64)
	retZero := &ast.Stmt{
		Kind: ast.StmtReturn,
		Return: ast.ReturnStmt{
			Value: &ast.Expr{Kind: ast.ExprIntLit, Type: i64},
		},
	}
	return []*ast.Program{
		{},
		{
			Funcs: []*ast.FuncDecl{
				{Name: "main", Result: i64, Body: retZero},
			},
		},
		{
			Funcs: []*ast.FuncDecl{
				{
					Name: "add",
					Params: []ast.Param{
						{Name: "a", Type: i64},
						{Name: "b", Type: i64},
					},
					Result: i64,
					Body:   retZero,
				},
			},
			Structs: []*ast.StructDecl{
				{
					Name:       "Box",
					TypeParams: []ast.TypeParam{{Name: "T"}},
					Fields:     []ast.StructField{{Name: "value", Type: types.NewParam("T")}},
				},
			},
		},
	}
}

func clampSeed(data []byte) []byte {
	if len(data) <= maxSeedBytes {
		return append([]byte(nil), data...)
	}
	return append([]byte(nil), data[:maxSeedBytes]...)
}
