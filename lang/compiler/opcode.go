// Package compiler implements BlackLua's bytecode emitter and its
// pseudo-assembly disassembler. The opcode set is grounded on
// original_source/internal/vm.hpp's OpCodeType enum (PushBytes/Store/Get/
// Copy/Label/Jmp/Call/CallExtern/Ret and the Integral/Floating arithmetic
// and comparison families); the instruction encoding (one Op plus a small
// fixed set of int32/string operand fields, rather than vm.hpp's
// std::variant union) follows the teacher's lang/compiler/opcode.go shape
// of "one Opcode byte plus an optional immediate operand".
package compiler

import "fmt"

// Op identifies a bytecode instruction.
type Op uint8

const ( //nolint:revive
	Nop Op = iota

	// stack/memory operations. A local is addressed by its byte offset A
	// from the current frame base; Size is the operand's width in bytes.
	PushConst  // A=const index, Size=width            -> push value
	Pop        // Size=width                           pop -
	Dup        // Size=width                           x -> x x
	LoadLocal  // A=slot, Size=width                   -> push copy of slot
	StoreLocal // A=slot, Size=width                   x -> (store into slot)
	// globals live in a fixed region at the base of the VM's slot array,
	// outside every call frame, so they need addressing distinct from
	// LoadLocal/StoreLocal's current-frame-relative slot numbers.
	LoadGlobal  // A=byte offset from slot-array base, Size=width  -> push copy
	StoreGlobal // A=byte offset from slot-array base, Size=width  x -> (store)
	LoadField  // A=byte offset from struct base, Size=width   struct -> field
	StoreField // A=byte offset from struct base, Size=width   struct value -> -
	NewArray   // Size=element width                   n -> arrayref
	NewStruct  // Size=struct byte size                -> structref, zeroed
	IndexLoad  // Size=element width                   arrayref index -> elem
	IndexStore // Size=element width                   arrayref index value -> -

	// scope management: PushScope/PopScope bracket a compound statement's
	// locals. The VM executes them as no-ops, since local offsets are fixed
	// at compile time.
	PushScope
	PopScope

	// control flow. Label marks a jump or call target with label id A;
	// Jmp/JmpIfFalse carry the target's label id as A, which the VM maps to
	// an instruction index through the label table it builds in New.
	Label
	Jmp
	JmpIfFalse

	// calls. Call invokes the user function whose entry label id is A, with
	// its arguments already pushed (their total width comes from the
	// function's FuncInfo.ParamSizes); CallExtern looks Name up in the
	// host's native registry instead of a label (spec.md §4.6).
	Call
	CallExtern
	Ret
	RetValue // Size=width: pop the return value, unwind the frame, push it back

	// arithmetic/comparison, split by integral vs floating-point operand
	// kind per vm.hpp's AddIntegral/AddFloating family; both operands and
	// the result share Size.
	NegI
	NegF
	AddI
	SubI
	MulI
	DivI
	ModI
	AddF
	SubF
	MulF
	DivF
	ModF

	BitAnd
	BitOr
	BitXor
	Not

	EqI
	NeqI
	LtI
	LeI
	GtI
	GeI
	EqF
	NeqF
	LtF
	LeF
	GtF
	GeF

	// conversions, per vm.hpp's Cast{Integral,Floating}To{Integral,Floating}.
	CastIToI
	CastIToF
	CastFToI
	CastFToF
)

var opNames = [...]string{
	Nop:        "nop",
	PushConst:  "push.const",
	Pop:        "pop",
	Dup:        "dup",
	LoadLocal:   "load.local",
	StoreLocal:  "store.local",
	LoadGlobal:  "load.global",
	StoreGlobal: "store.global",
	LoadField:  "load.field",
	StoreField: "store.field",
	NewArray:   "new.array",
	NewStruct:  "new.struct",
	IndexLoad:  "index.load",
	IndexStore: "index.store",
	PushScope:  "push.scope",
	PopScope:   "pop.scope",
	Label:      "label",
	Jmp:        "jmp",
	JmpIfFalse: "jmp.iffalse",
	Call:       "call",
	CallExtern: "call.extern",
	Ret:        "ret",
	RetValue:   "ret.value",
	NegI:       "neg.i",
	NegF:       "neg.f",
	AddI:       "add.i",
	SubI:       "sub.i",
	MulI:       "mul.i",
	DivI:       "div.i",
	ModI:       "mod.i",
	AddF:       "add.f",
	SubF:       "sub.f",
	MulF:       "mul.f",
	DivF:       "div.f",
	ModF:       "mod.f",
	BitAnd:     "bit.and",
	BitOr:      "bit.or",
	BitXor:     "bit.xor",
	Not:        "not",
	EqI:        "eq.i",
	NeqI:       "neq.i",
	LtI:        "lt.i",
	LeI:        "le.i",
	GtI:        "gt.i",
	GeI:        "ge.i",
	EqF:        "eq.f",
	NeqF:       "neq.f",
	LtF:        "lt.f",
	LeF:        "le.f",
	GtF:        "gt.f",
	GeF:        "ge.f",
	CastIToI:   "cast.i2i",
	CastIToF:   "cast.i2f",
	CastFToI:   "cast.f2i",
	CastFToF:   "cast.f2f",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// Instr is one bytecode instruction. Not every field is meaningful for
// every Op; see the per-Op stack-picture comments above. Rather than a
// distinct opcode per numeric width (spec.md §3's Add_i8../Add_u64../
// Add_f32/f64 family), width and signedness are carried as operand fields
// alongside a single integral-or-floating Op, collapsing the per-type
// opcode explosion while preserving the same runtime semantics; the
// disassembler reconstructs the spec's "add i32"-style type suffix from
// Size+Signed at print time (documented as a deliberate simplification in
// DESIGN.md).
type Instr struct {
	Op     Op
	A      int32  // slot index, const index, field offset, or label id (jumps/calls)
	Size   int32  // result/destination operand width in bytes
	Signed bool   // result/destination signedness, meaningful for *I and Cast* ops
	// SrcSize/SrcSigned describe the operand's width and signedness for the
	// Cast* ops, which convert between two distinct types; unused otherwise.
	SrcSize   int32
	SrcSigned bool
	Name      string // extern call signature (CallExtern only)
	Line      int    // source line; the emitter leaves it zero and neither the disassembler nor the VM reads it
}
