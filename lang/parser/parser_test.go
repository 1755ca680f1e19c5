package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/lexer"
	"github.com/blacklua-lang/blacklua/lang/token"
)

func parseProgram(t *testing.T, src string) ([]ast.Stmt, *Parser) {
	t.Helper()
	f := token.NewFile("test.bl", len(src))
	toks := lexer.ScanAll(f, []byte(src), func(pos token.Position, msg string) {
		t.Logf("lex error: %s", msg)
	})
	var errs []string
	p := New(toks, func(rng token.SourceRange, msg string) { errs = append(errs, msg) })
	stmts := p.ParseProgram()
	require.Empty(t, errs, "%v", errs)
	return stmts, p
}

func TestParseVarDecl(t *testing.T) {
	stmts, p := parseProgram(t, "int i = 99;")
	require.False(t, p.Failed())
	require.Len(t, stmts, 1)
	decl, ok := stmts[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	require.Equal(t, "i", decl.Name)
	require.Equal(t, "int", decl.TypeName.Name)
	require.NotNil(t, decl.Init)
}

func TestParseStructTypedVarDecl(t *testing.T) {
	stmts, _ := parseProgram(t, "Point p;")
	require.Len(t, stmts, 1)
	decl, ok := stmts[0].(*ast.VarDeclStmt)
	require.True(t, ok)
	require.Equal(t, "Point", decl.TypeName.Name)
}

func TestParseFunctionDecl(t *testing.T) {
	stmts, _ := parseProgram(t, "int add(int x, int y) { return x + y; }")
	require.Len(t, stmts, 1)
	fn, ok := stmts[0].(*ast.FunctionDeclStmt)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.NotNil(t, fn.Body)
	require.False(t, fn.Extern)
}

func TestParseExternFunctionDecl(t *testing.T) {
	stmts, _ := parseProgram(t, "extern int Add(int a, int b);")
	fn, ok := stmts[0].(*ast.FunctionDeclStmt)
	require.True(t, ok)
	require.True(t, fn.Extern)
	require.Nil(t, fn.Body)
}

func TestParseStructDecl(t *testing.T) {
	stmts, _ := parseProgram(t, "struct P { int x; int y; }")
	sd, ok := stmts[0].(*ast.StructDeclStmt)
	require.True(t, ok)
	require.Equal(t, "P", sd.Name)
	require.Len(t, sd.Fields, 2)
}

func TestParseStructWithMethod(t *testing.T) {
	stmts, _ := parseProgram(t, "struct P { int x; int getX() { return self.x; } }")
	sd := stmts[0].(*ast.StructDeclStmt)
	require.Len(t, sd.Fields, 1)
	require.Len(t, sd.Methods, 1)
	require.Equal(t, "getX", sd.Methods[0].Name)
}

func TestParseWhile(t *testing.T) {
	src := `
int While() {
    int i = 0;
    while (i < 10) { i += 1; }
    return i - 1;
}
`
	stmts, _ := parseProgram(t, src)
	fn := stmts[0].(*ast.FunctionDeclStmt)
	require.Len(t, fn.Body.Stmts, 3)
	_, ok := fn.Body.Stmts[1].(*ast.WhileStmt)
	require.True(t, ok)
}

func TestParseFor(t *testing.T) {
	src := "int main() { for (int i = 0; i < 10; i += 1) { } return 0; }"
	stmts, _ := parseProgram(t, src)
	fn := stmts[0].(*ast.FunctionDeclStmt)
	forStmt, ok := fn.Body.Stmts[0].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, forStmt.Prologue)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Epilogue)
}

func TestParseCastVsParen(t *testing.T) {
	stmts, _ := parseProgram(t, "double d = (double) 3;")
	decl := stmts[0].(*ast.VarDeclStmt)
	cast, ok := decl.Init.(*ast.CastExpr)
	require.True(t, ok)
	require.Equal(t, "double", cast.TypeName.Name)

	stmts2, _ := parseProgram(t, "int x = (1 + 2);")
	decl2 := stmts2[0].(*ast.VarDeclStmt)
	_, ok = decl2.Init.(*ast.ParenExpr)
	require.True(t, ok)
}

func TestParsePrecedence(t *testing.T) {
	stmts, _ := parseProgram(t, "int a = 2 + 3 * 4;")
	decl := stmts[0].(*ast.VarDeclStmt)
	bin := decl.Init.(*ast.BinaryExpr)
	require.Equal(t, ast.Add, bin.Op)
	rhs := bin.RHS.(*ast.BinaryExpr)
	require.Equal(t, ast.Mul, rhs.Op)
}

func TestParseMemberAndArrayAccess(t *testing.T) {
	stmts, _ := parseProgram(t, "int x = p.x + arr[0];")
	decl := stmts[0].(*ast.VarDeclStmt)
	bin := decl.Init.(*ast.BinaryExpr)
	_, ok := bin.LHS.(*ast.MemberExpr)
	require.True(t, ok)
	_, ok = bin.RHS.(*ast.ArrayAccessExpr)
	require.True(t, ok)
}

func TestParseMethodCall(t *testing.T) {
	stmts, _ := parseProgram(t, "int x = p.getX();")
	decl := stmts[0].(*ast.VarDeclStmt)
	_, ok := decl.Init.(*ast.MethodCallExpr)
	require.True(t, ok)
}

func TestParseErrorSetsFailedButKeepsGoing(t *testing.T) {
	f := token.NewFile("t.bl", len("int x = ;"))
	toks := lexer.ScanAll(f, []byte("int x = ;"), nil)
	var errs []string
	p := New(toks, func(rng token.SourceRange, msg string) { errs = append(errs, msg) })
	p.ParseProgram()
	require.True(t, p.Failed())
	require.NotEmpty(t, errs)
}
