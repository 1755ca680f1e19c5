package vm

// This file implements the native call boundary (spec.md §4.6): the Pop*/
// Push* methods a bound Native reads its arguments with and pushes its
// return value with. They operate on the same operand stack as bytecode
// execution, so a Native sees exactly the bytes its declared parameter
// types would occupy, in the order they were pushed by the caller.

// PopInt64 pops a signed integer of width size bytes (1, 2, 4, or 8).
func (m *VM) PopInt64(size int32) int64 { return m.popIntSigned(size, true) }

// PopUint64 pops an unsigned integer of width size bytes.
func (m *VM) PopUint64(size int32) uint64 { return uint64(m.popIntSigned(size, false)) }

// PopFloat32 pops a 4-byte IEEE-754 float.
func (m *VM) PopFloat32() float32 { return float32(decodeFloat(m.popCopy(4))) }

// PopFloat64 pops an 8-byte IEEE-754 float.
func (m *VM) PopFloat64() float64 { return decodeFloat(m.popCopy(8)) }

// PopBool pops a 1-byte boolean.
func (m *VM) PopBool() bool { return m.popInt(1) != 0 }

// PopHandle pops an 8-byte struct/array/string reference without
// resolving it, for natives that pass handles through opaquely.
func (m *VM) PopHandle() int64 { return m.popInt(8) }

// PopString pops a string reference and returns its contents. Strings are
// immutable once constructed, so returning a Go string copy (rather than
// a live view into the heap) is safe.
func (m *VM) PopString() string {
	handle := m.popInt(8)
	return string(m.resolveHeap(handle))
}

// PopArray pops an array reference and returns its raw backing bytes,
// elemSize wide per element, for a native that needs direct access.
func (m *VM) PopArray(elemSize int32) []byte {
	return m.popArray()
}

// PushInt64 pushes a signed integer of width size bytes.
func (m *VM) PushInt64(v int64, size int32) { m.pushInt(v, size) }

// PushUint64 pushes an unsigned integer of width size bytes.
func (m *VM) PushUint64(v uint64, size int32) { m.pushInt(int64(v), size) }

// PushFloat32 pushes a 4-byte IEEE-754 float.
func (m *VM) PushFloat32(v float32) {
	buf := make([]byte, 4)
	encodeFloat(buf, float64(v))
	m.pushBytes(buf)
}

// PushFloat64 pushes an 8-byte IEEE-754 float.
func (m *VM) PushFloat64(v float64) {
	buf := make([]byte, 8)
	encodeFloat(buf, v)
	m.pushBytes(buf)
}

// PushBool pushes a 1-byte boolean.
func (m *VM) PushBool(v bool) { m.pushInt(boolByte(v), 1) }

// PushHandle pushes a raw struct/array/string reference.
func (m *VM) PushHandle(h int64) { m.pushInt(h, 8) }

// PushRaw pushes data's bytes directly, unboxed: for a native like
// bl__array__index__ whose return width is only known at the call site
// (the array's static element size), not a fixed Go type.
func (m *VM) PushRaw(data []byte) { m.pushBytes(data) }

// PushString heap-allocates s and pushes a fresh string reference to it.
func (m *VM) PushString(s string) { m.pushInt(m.allocHeap([]byte(s)), 8) }
