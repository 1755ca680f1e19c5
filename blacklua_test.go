package blacklua_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua"
	"github.com/blacklua-lang/blacklua/lang/vm"
)

func TestCompileAndCallRoundTrip(t *testing.T) {
	ctx := blacklua.NewContext()
	prog, err := ctx.CompileString(`
int triple(int x) { return x * 3; }
`)
	require.NoError(t, err)
	require.NoError(t, ctx.Run(prog, "m"))
	require.NoError(t, ctx.Call("triple", "m"))
}

func TestCompileStringReportsDiagnostics(t *testing.T) {
	ctx := blacklua.NewContext()
	var got []string
	ctx.SetCompilerErrorHandler(func(line, col int, file, msg string) {
		got = append(got, msg)
	})
	_, err := ctx.CompileString("int x = ;")
	require.Error(t, err)
	var cf *blacklua.CompileFailed
	require.ErrorAs(t, err, &cf)
	require.NotEmpty(t, got)
}

func TestPushGlobalAndGetInt(t *testing.T) {
	ctx := blacklua.NewContext()
	prog, err := ctx.CompileString(`int answer = 42;`)
	require.NoError(t, err)
	require.NoError(t, ctx.Run(prog, "m"))

	require.NoError(t, ctx.PushGlobal("answer"))
	require.Equal(t, int32(42), ctx.GetInt(0))
	ctx.Pop(4)
}

func TestAddExternBoundBeforeRun(t *testing.T) {
	ctx := blacklua.NewContext()
	ctx.AddExtern("Double", func(m *vm.VM) error {
		x := m.PopInt64(4)
		m.PushInt64(x*2, 4)
		return nil
	})
	prog, err := ctx.CompileString(`
extern int Double(int x);
int useIt() { return Double(10); }
`)
	require.NoError(t, err)
	require.NoError(t, ctx.Run(prog, "m"))
	require.NoError(t, ctx.Call("useIt", "m"))
}

func TestDisassembleProducesListing(t *testing.T) {
	ctx := blacklua.NewContext()
	prog, err := ctx.CompileString(`int id(int x) { return x; }`)
	require.NoError(t, err)
	listing := blacklua.Disassemble(prog)
	require.NotEmpty(t, listing)
}
