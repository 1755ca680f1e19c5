package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua/lang/checker"
	"github.com/blacklua-lang/blacklua/lang/compiler"
	"github.com/blacklua-lang/blacklua/lang/lexer"
	"github.com/blacklua-lang/blacklua/lang/parser"
	"github.com/blacklua-lang/blacklua/lang/token"
	"github.com/blacklua-lang/blacklua/lang/vm"
)

// compile lexes, parses, type-checks and emits src, failing the test on
// any error at any stage, mirroring internal/maincmd's pipeline but
// without the CLI plumbing around it.
func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	f := token.NewFile("test.bl", len(src))
	toks := lexer.ScanAll(f, []byte(src), func(pos token.Position, msg string) {
		t.Fatalf("lex error: %s", msg)
	})
	p := parser.New(toks, func(rng token.SourceRange, msg string) { t.Fatalf("parse error: %s", msg) })
	prog := p.ParseProgram()
	require.False(t, p.Failed())
	require.True(t, checker.Check(prog, func(rng token.SourceRange, msg string) { t.Fatalf("type error: %s", msg) }))
	return compiler.Emit(prog)
}

func runInit(t *testing.T, m *vm.VM) {
	t.Helper()
	_, err := m.Call(compiler.InitFuncName, nil)
	require.NoError(t, err)
}

func TestCallReturnsArithmeticResult(t *testing.T) {
	prog := compile(t, `
int add(int x, int y) { return x + y; }
`)
	m := vm.New(prog)
	runInit(t, m)

	args := make([]byte, 8)
	encodeLE32(args[0:4], 19)
	encodeLE32(args[4:8], 23)
	ret, err := m.Call("add", args)
	require.NoError(t, err)
	require.Equal(t, int32(42), decodeLE32(ret))
}

func TestUnsignedComparisonDoesNotSignExtend(t *testing.T) {
	prog := compile(t, `
bool cmp() {
    uint a = 4294967295u;
    uint b = 1u;
    return a > b;
}
`)
	m := vm.New(prog)
	runInit(t, m)
	ret, err := m.Call("cmp", nil)
	require.NoError(t, err)
	require.Equal(t, byte(1), ret[0])
}

func TestIntegerOverflowWraps(t *testing.T) {
	prog := compile(t, `
int overflow() {
    int a = 2147483647;
    a += 1;
    return a;
}
`)
	m := vm.New(prog)
	runInit(t, m)
	ret, err := m.Call("overflow", nil)
	require.NoError(t, err)
	require.Equal(t, int32(-2147483648), decodeLE32(ret))
}

func TestDivisionByZeroFaults(t *testing.T) {
	prog := compile(t, `
int boom() {
    int a = 1;
    int b = 0;
    return a / b;
}
`)
	m := vm.New(prog)
	runInit(t, m)
	_, err := m.Call("boom", nil)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
}

func TestGlobalInitRunsInDeclarationOrder(t *testing.T) {
	prog := compile(t, `
int a = 1;
int b = a + 1;
int readB() { return b; }
`)
	m := vm.New(prog)
	runInit(t, m)
	ret, err := m.Call("readB", nil)
	require.NoError(t, err)
	require.Equal(t, int32(2), decodeLE32(ret))
}

func TestBindExternIsCallable(t *testing.T) {
	prog := compile(t, `
extern int Double(int x);
int useExtern() { return Double(21); }
`)
	m := vm.New(prog)
	m.BindExtern("Double", func(m *vm.VM) error {
		x := m.PopInt64(4)
		m.PushInt64(x*2, 4)
		return nil
	})
	runInit(t, m)
	ret, err := m.Call("useExtern", nil)
	require.NoError(t, err)
	require.Equal(t, int32(42), decodeLE32(ret))
}

func encodeLE32(dst []byte, v int32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

func decodeLE32(raw []byte) int32 {
	return int32(uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24)
}
