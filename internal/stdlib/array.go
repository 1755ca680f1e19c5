// Package stdlib implements the extern builtins a BlackLua program can
// call without a host binding one itself: the array and string runtime
// support spec.md calls out as "partially unimplemented... TODO" in the
// original (src/black_lua/internal/stdlib/array.cpp, string.cpp left
// every body as BLUA_ASSERT(false, "TODO") save for bl__string__init__
// and bl__string__destruct__). These are filled in here against the
// VM's heap (lang/vm.VM.AllocArray/HeapBytes), rather than the original's
// hand-managed `new`/`delete` buffer, since Go already owns allocation
// and garbage collection for every heap object the VM hands out a handle
// to.
package stdlib

import (
	"github.com/blacklua-lang/blacklua/lang/vm"
)

// Register binds every stdlib extern onto m, under the same
// `bl__array__*`/`bl__string__*` names the emitter produces for
// CallExtern instructions targeting them (spec.md §4.6).
func Register(m *vm.VM) {
	m.BindExtern("bl__array__init__", ArrayInit)
	m.BindExtern("bl__array__copy__", ArrayCopy)
	m.BindExtern("bl__array__destruct__", ArrayDestruct)
	m.BindExtern("bl__array__index__", ArrayIndex)

	m.BindExtern("bl__string__init__", StringInit)
	m.BindExtern("bl__string__copy__", StringCopy)
	m.BindExtern("bl__string__destruct__", StringDestruct)
	m.BindExtern("bl__string__construct_from_literal__", StringConstructFromLiteral)
}

// ArrayInit matches array.cpp's commented-out bl__array__init__: given
// the array's element size, allocate a fresh zero-length array and
// return its handle. Capacity growth (the original's Size/Capacity
// bookkeeping for amortized append) has no counterpart yet since
// spec.md never exposes an array-append operation — every array this
// VM sees is fixed-length from the moment the `new` opcode or this
// extern allocates it.
func ArrayInit(m *vm.VM) error {
	elemSize := m.PopInt64(4)
	handle := m.AllocArray(0, int32(elemSize))
	m.PushHandle(handle)
	return nil
}

// ArrayCopy matches array.cpp's commented-out bl__array__copy__: a deep
// byte-for-byte copy of src into a freshly allocated array.
func ArrayCopy(m *vm.VM) error {
	src := m.PopHandle()
	data := m.HeapBytes(src)
	cp := make([]byte, len(data))
	copy(cp, data)
	m.PushHandle(m.AdoptBytes(cp))
	return nil
}

// ArrayDestruct matches array.cpp's commented-out bl__array__destruct__.
// The VM heap is garbage-collected by Go, so there is no buffer to free;
// it pops the array handle and does nothing else. The emitter emits no
// call to it.
func ArrayDestruct(m *vm.VM) error {
	m.PopHandle()
	return nil
}

// ArrayIndex matches array.cpp's commented-out bl__array__index__ and is
// the sole path the emitter generates for `arr[i]` (spec.md §4.4's
// ArrayAccess rule): given an array, an index and the element size, push
// a raw copy of that element, exactly elementSize bytes wide. Array
// elements are stored inline in the array's backing bytes, handle-typed
// (struct/array/string) elements included, so handing back the raw bytes
// is correct whether the element is a primitive or itself a handle.
func ArrayIndex(m *vm.VM) error {
	elemSize := int32(m.PopInt64(4))
	index := m.PopInt64(4)
	handle := m.PopHandle()
	data := m.HeapBytes(handle)
	if index < 0 || int(index)*int(elemSize)+int(elemSize) > len(data) {
		return &vm.RuntimeError{Msg: "bl__array__index__: index out of range"}
	}
	off := int(index) * int(elemSize)
	elem := make([]byte, elemSize)
	copy(elem, data[off:off+int(elemSize)])
	m.PushRaw(elem)
	return nil
}
