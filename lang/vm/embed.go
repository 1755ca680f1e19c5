package vm

import "github.com/blacklua-lang/blacklua/lang/compiler"

// This file exposes the bits of VM state the root blacklua package's
// Context needs to implement spec.md §6's PushGlobal and GetBool..
// GetPointer, without handing out the raw stack itself.

// Program returns the compiled program this VM was constructed from, so a
// host can look up a global's offset and size by name.
func (m *VM) Program() *compiler.Program { return m.prog }

// GlobalBytes returns a copy of size bytes at offset within the global
// variable region (the first prog.GlobalBytes of the stack).
func (m *VM) GlobalBytes(offset, size int32) []byte {
	buf := make([]byte, size)
	copy(buf, m.stack[offset:offset+size])
	return buf
}

// DecodeBool, DecodeInt and DecodeFloat expose the stack's byte encoding
// to a host reading a result buffer built from Call/PushGlobal output,
// e.g. blacklua.Context's GetBool..GetPointer family.
func DecodeBool(raw []byte) bool { return raw[0] != 0 }

func DecodeInt(raw []byte, signed bool) int64 { return decodeInt(raw, signed) }

func DecodeFloat(raw []byte) float64 { return decodeFloat(raw) }
