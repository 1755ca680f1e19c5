package vm

import (
	"encoding/binary"
	"math"

	"github.com/blacklua-lang/blacklua/lang/compiler"
)

// pushBytes appends b to the operand stack, growing the backing slice as
// needed (Go's append already grows geometrically, standing in for
// spec.md §4.5's explicit PushBytes doubling strategy).
func (m *VM) pushBytes(b []byte) {
	m.stack = append(m.stack[:m.sp], b...)
	m.sp += len(b)
}

// popCopy returns a copy of the top n bytes and shrinks the stack past
// them. A copy is required whenever the bytes must survive a later append
// to m.stack, since append may reallocate the backing array.
func (m *VM) popCopy(n int32) []byte {
	start := m.sp - int(n)
	out := make([]byte, n)
	copy(out, m.stack[start:m.sp])
	m.sp = start
	return out
}

// popInto copies the top len(dst) bytes into dst (which must itself be a
// slice into m.stack) and shrinks the stack past them.
func (m *VM) popInto(dst []byte) {
	n := len(dst)
	start := m.sp - n
	copy(dst, m.stack[start:m.sp])
	m.sp = start
}

// popAddr pops an 8-byte struct handle and resolves it to the struct's
// backing bytes on the heap (see heapObj).
func (m *VM) popAddr() []byte {
	handle := m.popInt(8)
	return m.resolveHeap(handle)
}

// popArray pops an 8-byte array handle and resolves it to the array's
// backing bytes on the heap.
func (m *VM) popArray() []byte {
	handle := m.popInt(8)
	return m.resolveHeap(handle)
}

// popInt pops a value whose signedness doesn't affect the result (a
// handle, a jump condition, an array index within range): both decodings
// agree for every value that fits in an int64, which every supported
// width up to 8 bytes does.
func (m *VM) popInt(size int32) int64 {
	raw := m.popCopy(size)
	return decodeInt(raw, true)
}

// popIntSigned pops a value whose bit pattern must be interpreted
// according to signed, e.g. a uint32 operand where 0xFFFFFFFF means
// 4294967295, not -1.
func (m *VM) popIntSigned(size int32, signed bool) int64 {
	raw := m.popCopy(size)
	return decodeInt(raw, signed)
}

func (m *VM) pushInt(v int64, size int32) {
	buf := make([]byte, size)
	encodeInt(buf, v)
	m.pushBytes(buf)
}

func (m *VM) pushConst(in compiler.Instr) {
	c := m.prog.Consts[in.A]
	if c.IsString {
		m.pushInt(m.stringConstHandle(in.A, c.Str), 8)
		return
	}
	buf := make([]byte, c.Size)
	encodeInt(buf, int64(c.Bits))
	m.pushBytes(buf)
}

// stringConstHandle returns the heap handle for the idx'th constant pool
// entry, allocating it on first use and reusing it thereafter so repeated
// pushes of the same string literal share one heap object.
func (m *VM) stringConstHandle(idx int32, s string) int64 {
	if m.stringConsts == nil {
		m.stringConsts = make(map[int32]int64)
	}
	if h, ok := m.stringConsts[idx]; ok {
		return h
	}
	h := m.allocHeap([]byte(s))
	m.stringConsts[idx] = h
	return h
}

func decodeInt(raw []byte, signed bool) int64 {
	var u uint64
	for i := len(raw) - 1; i >= 0; i-- {
		u = u<<8 | uint64(raw[i])
	}
	if !signed {
		return int64(u)
	}
	switch len(raw) {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

func encodeInt(dst []byte, v int64) {
	u := uint64(v)
	for i := range dst {
		dst[i] = byte(u)
		u >>= 8
	}
}

func decodeFloat(raw []byte) float64 {
	if len(raw) == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(raw))
}

func encodeFloat(dst []byte, v float64) {
	if len(dst) == 4 {
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
		return
	}
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}

func boolByte(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// --- arithmetic/comparison helpers ---

func (m *VM) unaryInt(size int32, signed bool, f func(int64) int64) {
	v := m.popIntSigned(size, signed)
	m.pushInt(wrapInt(f(v), size, signed), size)
}

func (m *VM) unaryFloat(size int32, f func(float64) float64) {
	raw := m.popCopy(size)
	v := decodeFloat(raw)
	buf := make([]byte, size)
	encodeFloat(buf, f(v))
	m.pushBytes(buf)
}

// binInt, binFloat and cmpInt pop the emitter's operand order: lhs is
// pushed last (emitBinary emits rhs, then lhs) and so comes off the stack
// first.
func (m *VM) binInt(size int32, signed bool, f func(a, b int64) int64) {
	a := m.popIntSigned(size, signed)
	b := m.popIntSigned(size, signed)
	m.pushInt(wrapInt(f(a, b), size, signed), size)
}

func (m *VM) binFloat(size int32, f func(a, b float64) float64) {
	araw := m.popCopy(size)
	braw := m.popCopy(size)
	a := decodeFloat(araw)
	b := decodeFloat(braw)
	buf := make([]byte, size)
	encodeFloat(buf, f(a, b))
	m.pushBytes(buf)
}

func (m *VM) cmpInt(size int32, signed bool, pred func(cmp int) bool) {
	a := m.popIntSigned(size, signed)
	b := m.popIntSigned(size, signed)
	var cmp int
	if signed {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		ua, ub := uint64(a), uint64(b)
		switch {
		case ua < ub:
			cmp = -1
		case ua > ub:
			cmp = 1
		}
	}
	m.pushInt(boolByte(pred(cmp)), 1)
}

func (m *VM) cmpFloat(size int32, pred func(a, b float64) bool) {
	araw := m.popCopy(size)
	braw := m.popCopy(size)
	a := decodeFloat(araw)
	b := decodeFloat(braw)
	m.pushInt(boolByte(pred(a, b)), 1)
}

// wrapInt truncates v to size bytes, matching spec.md §4.5's two's
// complement wraparound on overflow.
func wrapInt(v int64, size int32, signed bool) int64 {
	buf := make([]byte, size)
	encodeInt(buf, v)
	return decodeInt(buf, signed)
}

func (m *VM) castIToI(in compiler.Instr) {
	raw := m.popCopy(in.SrcSize)
	v := decodeInt(raw, in.SrcSigned)
	m.pushInt(wrapInt(v, in.Size, in.Signed), in.Size)
}

func (m *VM) castIToF(in compiler.Instr) {
	raw := m.popCopy(in.SrcSize)
	v := decodeInt(raw, in.SrcSigned)
	var f float64
	if in.SrcSigned {
		f = float64(v)
	} else {
		f = float64(uint64(v))
	}
	buf := make([]byte, in.Size)
	encodeFloat(buf, f)
	m.pushBytes(buf)
}

func (m *VM) castFToI(in compiler.Instr) {
	raw := m.popCopy(in.SrcSize)
	f := decodeFloat(raw)
	var v int64
	if in.Signed {
		v = int64(f)
	} else {
		v = int64(uint64(f))
	}
	m.pushInt(wrapInt(v, in.Size, in.Signed), in.Size)
}

func (m *VM) castFToF(in compiler.Instr) {
	raw := m.popCopy(in.SrcSize)
	f := decodeFloat(raw)
	buf := make([]byte, in.Size)
	encodeFloat(buf, f)
	m.pushBytes(buf)
}
