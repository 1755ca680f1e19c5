package stdlib_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua/internal/stdlib"
	"github.com/blacklua-lang/blacklua/lang/compiler"
	"github.com/blacklua-lang/blacklua/lang/vm"
)

// newExternVM builds a VM around a Program whose only functions are the
// stdlib externs themselves, so a test can Call one directly without
// compiling a whole BlackLua source file first.
func newExternVM(t *testing.T) *vm.VM {
	t.Helper()
	funcs := make(map[string]compiler.FuncInfo)
	for _, name := range []string{
		"bl__array__init__", "bl__array__copy__", "bl__array__destruct__", "bl__array__index__",
		"bl__string__init__", "bl__string__copy__", "bl__string__destruct__", "bl__string__construct_from_literal__",
	} {
		funcs[name] = compiler.FuncInfo{Extern: true}
	}
	m := vm.New(&compiler.Program{Funcs: funcs})
	stdlib.Register(m)
	return m
}

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func le64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func handleOf(t *testing.T, ret []byte) int64 {
	t.Helper()
	require.Len(t, ret, 8)
	return int64(binary.LittleEndian.Uint64(ret))
}

func TestArrayInitIsEmpty(t *testing.T) {
	m := newExternVM(t)
	ret, err := m.Call("bl__array__init__", le32(4))
	require.NoError(t, err)
	handle := handleOf(t, ret)
	require.Equal(t, 0, m.ArrayLen(handle, 4))
}

func TestArrayIndexOutOfRangeFaults(t *testing.T) {
	m := newExternVM(t)
	ret, err := m.Call("bl__array__init__", le32(4))
	require.NoError(t, err)
	handle := handleOf(t, ret)

	args := append(append(le64(handle), le32(0)...), le32(4)...)
	_, err = m.Call("bl__array__index__", args)
	require.Error(t, err)
}

func TestArrayCopyIsIndependent(t *testing.T) {
	m := newExternVM(t)
	orig := m.AllocArray(2, 4)
	copy(m.HeapBytes(orig), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	ret, err := m.Call("bl__array__copy__", le64(orig))
	require.NoError(t, err)
	cp := handleOf(t, ret)
	require.NotEqual(t, orig, cp)

	origData, cpData := m.HeapBytes(orig), m.HeapBytes(cp)
	require.Equal(t, origData, cpData)
	cpData[0] = 0xFF
	require.NotEqual(t, origData[0], cpData[0], "copy must not alias the source array")
}

func TestStringConstructFromLiteralRoundTrips(t *testing.T) {
	m := newExternVM(t)
	lit := m.AdoptBytes([]byte("hi"))
	ret, err := m.Call("bl__string__construct_from_literal__", le64(lit))
	require.NoError(t, err)
	handle := handleOf(t, ret)
	require.Equal(t, "hi", string(m.HeapBytes(handle)))
}
