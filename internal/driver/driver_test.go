package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinder/internal/ast"
	"cinder/internal/buildpipeline"
	"cinder/internal/types"
)

func writeTestArtifact(t *testing.T) string {
	t.Helper()
	i64 := types.NewPrimitive(types.PrimI64)
	program := &ast.Program{
		Funcs: []*ast.FuncDecl{
			{
				Name:   "main",
				Result: i64,
				Body: &ast.Stmt{Kind: ast.StmtReturn, Return: ast.ReturnStmt{Value: &ast.Expr{
					Kind:   ast.ExprIntLit,
					Type:   i64,
					IntLit: ast.IntLitExpr{Lo: 7},
				}}},
			},
			{
				Name:   "helper",
				Params: []ast.Param{{Name: "x", Type: i64}},
				Result: i64,
				Body: &ast.Stmt{Kind: ast.StmtReturn, Return: ast.ReturnStmt{Value: &ast.Expr{
					Kind: ast.ExprIdent, Type: i64, Ident: ast.IdentExpr{Name: "x"},
				}}},
			},
		},
	}
	data, err := ast.MarshalArtifact(program)
	if err != nil {
		t.Fatalf("MarshalArtifact failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "prog.cnpr")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestBuild_EndToEnd(t *testing.T) {
	res, err := Build(context.Background(), BuildRequest{
		ArtifactPath: writeTestArtifact(t),
		Jobs:         2,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	asm := string(res.Assembly)
	if !strings.Contains(asm, "main:") || !strings.Contains(asm, "helper:") {
		t.Fatalf("labels missing from assembly:\n%s", asm)
	}
	if len(res.Functions) != 2 {
		t.Fatalf("function results = %d, want 2", len(res.Functions))
	}
	if res.Functions[0].Symbol != "main" || res.Functions[1].Symbol != "helper" {
		t.Errorf("results out of declaration order: %s, %s",
			res.Functions[0].Symbol, res.Functions[1].Symbol)
	}
	if res.Stats.Functions != 2 || res.Stats.Instructions == 0 {
		t.Errorf("aggregate stats = %+v", res.Stats)
	}
	if res.FromCache {
		t.Error("uncached build reported as cached")
	}
}

func TestBuild_CacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	path := writeTestArtifact(t)

	first, err := Build(context.Background(), BuildRequest{ArtifactPath: path, Cache: cache})
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if first.FromCache {
		t.Fatal("first build reported as cached")
	}

	second, err := Build(context.Background(), BuildRequest{ArtifactPath: path, Cache: cache})
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second build missed the cache")
	}
	if string(second.Assembly) != string(first.Assembly) {
		t.Error("cached assembly differs from the original build")
	}
	if second.Stats != first.Stats {
		t.Errorf("cached stats %+v differ from %+v", second.Stats, first.Stats)
	}
}

func TestBuild_CollectsEveryFailure(t *testing.T) {
	i128 := types.NewPrimitive(types.PrimI128)
	badFn := func(name string) *ast.FuncDecl {
		return &ast.FuncDecl{
			Name:   name,
			Params: []ast.Param{{Name: "a", Type: i128}, {Name: "b", Type: i128}},
			Result: i128,
			Body: &ast.Stmt{Kind: ast.StmtReturn, Return: ast.ReturnStmt{Value: &ast.Expr{
				Kind: ast.ExprBinary,
				Type: i128,
				Binary: ast.BinaryExpr{
					Op:    ast.BinDiv,
					Left:  &ast.Expr{Kind: ast.ExprIdent, Type: i128, Ident: ast.IdentExpr{Name: "a"}},
					Right: &ast.Expr{Kind: ast.ExprIdent, Type: i128, Ident: ast.IdentExpr{Name: "b"}},
				},
			}}},
		}
	}
	data, err := ast.MarshalArtifact(&ast.Program{Funcs: []*ast.FuncDecl{badFn("quot"), badFn("rem")}})
	if err != nil {
		t.Fatalf("MarshalArtifact failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.cnpr")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	_, err = Build(context.Background(), BuildRequest{ArtifactPath: path})
	if err == nil {
		t.Fatal("unsupported lowering accepted")
	}
	msg := err.Error()
	if !strings.Contains(msg, "quot") || !strings.Contains(msg, "rem") {
		t.Errorf("error does not name both failing functions:\n%s", msg)
	}
	if !strings.Contains(msg, "CN7005") {
		t.Errorf("error does not carry the diagnostic code:\n%s", msg)
	}
}

func TestBuild_MissingArtifact(t *testing.T) {
	_, err := Build(context.Background(), BuildRequest{
		ArtifactPath: filepath.Join(t.TempDir(), "absent.cnpr"),
	})
	if err == nil {
		t.Fatal("missing artifact accepted")
	}
}

func TestBuild_RejectsCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cnpr")
	if err := os.WriteFile(path, []byte("not an artifact"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Build(context.Background(), BuildRequest{ArtifactPath: path}); err == nil {
		t.Fatal("corrupt artifact accepted")
	}
}

func TestBuild_ReportsProgress(t *testing.T) {
	events := make(chan buildpipeline.Event, 64)
	_, err := Build(context.Background(), BuildRequest{
		ArtifactPath: writeTestArtifact(t),
		Progress:     buildpipeline.ChannelSink{Ch: events},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	close(events)

	seen := map[buildpipeline.Stage]bool{}
	var doneSymbols int
	for evt := range events {
		seen[evt.Stage] = true
		if evt.Symbol != "" && evt.Status == buildpipeline.StatusDone {
			doneSymbols++
		}
	}
	for _, stage := range []buildpipeline.Stage{
		buildpipeline.StageLoad, buildpipeline.StageGenerate, buildpipeline.StageRender,
	} {
		if !seen[stage] {
			t.Errorf("no event for stage %q", stage)
		}
	}
	if doneSymbols != 2 {
		t.Errorf("per-function done events = %d, want 2", doneSymbols)
	}
}
