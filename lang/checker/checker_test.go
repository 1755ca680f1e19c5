package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/lexer"
	"github.com/blacklua-lang/blacklua/lang/parser"
	"github.com/blacklua-lang/blacklua/lang/token"
	"github.com/blacklua-lang/blacklua/lang/types"
)

func checkSource(t *testing.T, src string) ([]ast.Stmt, bool, []string) {
	t.Helper()
	f := token.NewFile("test.bl", len(src))
	toks := lexer.ScanAll(f, []byte(src), nil)
	p := parser.New(toks, func(token.SourceRange, string) { t.Fatal("unexpected parse error") })
	prog := p.ParseProgram()
	require.False(t, p.Failed())

	var errs []string
	ok := Check(prog, func(rng token.SourceRange, msg string) { errs = append(errs, msg) })
	return prog, ok, errs
}

func TestCheckVarDeclPromotion(t *testing.T) {
	prog, ok, errs := checkSource(t, "long d = 3;")
	require.True(t, ok, "%v", errs)
	decl := prog[0].(*ast.VarDeclStmt)
	require.Equal(t, types.LongType, decl.Resolved)
	_, isCast := decl.Init.(*ast.CastExpr)
	require.True(t, isCast, "expected implicit cast from int literal to long")
}

func TestCheckRedeclarationError(t *testing.T) {
	_, ok, errs := checkSource(t, "int i = 1; int i = 2;")
	require.False(t, ok)
	require.NotEmpty(t, errs)
}

func TestCheckUndeclaredIdentifier(t *testing.T) {
	_, ok, errs := checkSource(t, "int x = y;")
	require.False(t, ok)
	require.Contains(t, errs[0], "undeclared")
}

func TestCheckFunctionCallArity(t *testing.T) {
	_, ok, errs := checkSource(t, `
int add(int a, int b) { return a + b; }
int main() { int x = add(1); return x; }
`)
	require.False(t, ok)
	require.NotEmpty(t, errs)
}

func TestCheckFunctionCallImplicitPromotion(t *testing.T) {
	prog, ok, errs := checkSource(t, `
long scale(long x) { return x; }
long main() { return scale(2); }
`)
	require.True(t, ok, "%v", errs)
	main := prog[1].(*ast.FunctionDeclStmt)
	ret := main.Body.Stmts[0].(*ast.ReturnStmt)
	call := ret.Value.(*ast.CallExpr)
	_, isCast := call.Args[0].(*ast.CastExpr)
	require.True(t, isCast)
}

func TestCheckReturnTypeMismatch(t *testing.T) {
	_, ok, errs := checkSource(t, `string f() { return 1; }`)
	require.False(t, ok)
	require.NotEmpty(t, errs)
}

func TestCheckReturnOutsideFunction(t *testing.T) {
	_, ok, errs := checkSource(t, "return 1;")
	require.False(t, ok)
	require.Contains(t, errs[0], "non-function scope")
}

func TestCheckStructFieldAccess(t *testing.T) {
	prog, ok, errs := checkSource(t, `
struct Point { int x; int y; }
int main() { Point p; return p.x; }
`)
	require.True(t, ok, "%v", errs)
	main := prog[1].(*ast.FunctionDeclStmt)
	ret := main.Body.Stmts[1].(*ast.ReturnStmt)
	member := ret.Value.(*ast.MemberExpr)
	require.Equal(t, types.IntType, member.ResolvedType())
	_ = prog
}

func TestCheckStructMethodCallAndSelf(t *testing.T) {
	prog, ok, errs := checkSource(t, `
struct Point {
    int x;
    int getX() { return self.x; }
}
int main() { Point p; return p.getX(); }
`)
	require.True(t, ok, "%v", errs)
	sd := prog[0].(*ast.StructDeclStmt)
	require.Len(t, sd.Methods, 1)
	require.Equal(t, types.IntType, sd.Methods[0].ResolvedReturn)
}

func TestCheckAssignToNonLvalueIsError(t *testing.T) {
	_, ok, errs := checkSource(t, "int main() { 1 + 2 = 3; return 0; }")
	require.False(t, ok)
	require.NotEmpty(t, errs)
}

func TestCheckExternMismatchRedefinition(t *testing.T) {
	_, ok, errs := checkSource(t, `
extern int Log(int x);
int Log(int x) { return x; }
`)
	require.False(t, ok)
	require.NotEmpty(t, errs)
}

func TestCheckArrayIndexing(t *testing.T) {
	prog, ok, errs := checkSource(t, `
int main() { int[] xs; return xs[0]; }
`)
	require.True(t, ok, "%v", errs)
	main := prog[0].(*ast.FunctionDeclStmt)
	ret := main.Body.Stmts[1].(*ast.ReturnStmt)
	access := ret.Value.(*ast.ArrayAccessExpr)
	require.Equal(t, types.IntType, access.ResolvedType())
}

func TestCheckExplicitCastAllowsNumericConversion(t *testing.T) {
	prog, ok, errs := checkSource(t, "int i = (int) 3.5;")
	require.True(t, ok, "%v", errs)
	decl := prog[0].(*ast.VarDeclStmt)
	require.Equal(t, types.IntType, decl.Resolved)
}

func TestCheckExplicitCastRejectsStruct(t *testing.T) {
	_, ok, errs := checkSource(t, `
struct P { int x; }
int main() { P p; int i = (int) p; return i; }
`)
	require.False(t, ok)
	require.NotEmpty(t, errs)
}
