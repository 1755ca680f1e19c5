package stdlib

import "github.com/blacklua-lang/blacklua/lang/vm"

// StringInit matches string.cpp's bl__string__init__: the one extern the
// original fully implemented (a new empty string buffer). Strings here
// are immutable heap byte slices rather than the original's growable
// DynamicBuffer with a small/large-string split, since BlackLua has no
// in-place string mutation operator for this to matter to.
func StringInit(m *vm.VM) error {
	m.PushHandle(m.AdoptBytes([]byte{}))
	return nil
}

// StringCopy matches string.cpp's commented-out bl__string__copy__:
// strings are immutable, so a "copy" can safely share the source's
// backing bytes rather than duplicating them.
func StringCopy(m *vm.VM) error {
	src := m.PopHandle()
	m.PushHandle(src)
	return nil
}

// StringDestruct matches string.cpp's bl__string__destruct__. As with
// ArrayDestruct, Go's garbage collector owns the backing bytes; it pops
// the string handle and does nothing else. The emitter emits no call to it.
func StringDestruct(m *vm.VM) error {
	m.PopHandle()
	return nil
}

// StringConstructFromLiteral matches string.cpp's commented-out
// bl__string__construct_from_literal__: build a string object from a
// literal's bytes (the PushConst-interned constant-pool entry the
// emitter already heap-allocates via lang/vm's string-constant cache),
// returning a fresh handle rather than aliasing the constant pool entry
// so the two can't be confused for the same object identity.
func StringConstructFromLiteral(m *vm.VM) error {
	lit := m.PopString()
	m.PushHandle(m.AdoptBytes([]byte(lit)))
	return nil
}
