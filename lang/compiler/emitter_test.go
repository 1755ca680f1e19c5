package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/checker"
	"github.com/blacklua-lang/blacklua/lang/compiler"
	"github.com/blacklua-lang/blacklua/lang/lexer"
	"github.com/blacklua-lang/blacklua/lang/parser"
	"github.com/blacklua-lang/blacklua/lang/token"
)

func checkedAST(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	f := token.NewFile("test.bl", len(src))
	toks := lexer.ScanAll(f, []byte(src), func(pos token.Position, msg string) { t.Fatalf("lex error: %s", msg) })
	p := parser.New(toks, func(rng token.SourceRange, msg string) { t.Fatalf("parse error: %s", msg) })
	prog := p.ParseProgram()
	require.False(t, p.Failed())
	require.True(t, checker.Check(prog, func(rng token.SourceRange, msg string) { t.Fatalf("type error: %s", msg) }))
	return prog
}

// TestEmitIsPure exercises the emitter-purity property: emitting the same
// checked AST twice must produce byte-identical instruction streams,
// since Emit carries no state across calls besides what it derives from
// the AST itself.
func TestEmitIsPure(t *testing.T) {
	prog := checkedAST(t, `
int fib(int n) {
    if (n < 2) { return n; }
    return fib(n - 1) + fib(n - 2);
}
`)
	a := compiler.Emit(prog)
	b := compiler.Emit(prog)
	require.Equal(t, a.Instrs, b.Instrs)
	require.Equal(t, a.Consts, b.Consts)
	require.Equal(t, a.GlobalBytes, b.GlobalBytes)
}

func TestEmitRecordsFunctionCallingConvention(t *testing.T) {
	prog := checkedAST(t, `int add(int x, int y) { return x + y; }`)
	p := compiler.Emit(prog)
	fi, ok := p.Funcs["add"]
	require.True(t, ok)
	require.False(t, fi.Extern)
	require.Equal(t, []int32{4, 4}, fi.ParamSizes)
	require.Equal(t, int32(4), fi.ReturnSize)
}

func TestEmitExternFunctionHasNoAddress(t *testing.T) {
	prog := checkedAST(t, `extern int Native(int x);`)
	p := compiler.Emit(prog)
	fi, ok := p.Funcs["Native"]
	require.True(t, ok)
	require.True(t, fi.Extern)
}

func TestEmitGlobalsAreLocatedByName(t *testing.T) {
	prog := checkedAST(t, `
int a = 1;
double b = 2.0;
`)
	p := compiler.Emit(prog)
	ga, ok := p.Globals["a"]
	require.True(t, ok)
	require.Equal(t, int32(0), ga.Offset)
	require.Equal(t, int32(4), ga.Size)

	gb, ok := p.Globals["b"]
	require.True(t, ok)
	require.Equal(t, int32(4), gb.Offset)
	require.Equal(t, int32(8), gb.Size)
	require.Equal(t, int32(12), p.GlobalBytes)
}

func TestDisassembleHasOneLabelPerFunction(t *testing.T) {
	prog := checkedAST(t, `
int square(int x) { return x * x; }
int cube(int x) { return x * x * x; }
`)
	p := compiler.Emit(prog)
	listing := compiler.Disassemble(p)
	require.NotEmpty(t, listing)
	// square, cube, and the synthetic global-init function each start
	// their own label block.
	require.Equal(t, 3, strings.Count(listing, ":\n"))
}
