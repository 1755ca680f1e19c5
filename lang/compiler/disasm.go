package compiler

import (
	"fmt"
	"io"
	"strings"
)

// typeSuffix renders the disassembler's "i32"/"u16"/"f64"-style type tag
// for an instruction's result width, mirroring the teacher's lang/compiler
// asm.go convention of a terse type-tagged mnemonic per opcode.
func typeSuffix(size int32, signed, floating bool) string {
	if floating {
		switch size {
		case 4:
			return "f32"
		default:
			return "f64"
		}
	}
	prefix := "i"
	if !signed {
		prefix = "u"
	}
	return fmt.Sprintf("%s%d", prefix, size*8)
}

func isFloatOp(op Op) bool {
	switch op {
	case NegF, AddF, SubF, MulF, DivF, ModF, EqF, NeqF, LtF, LeF, GtF, GeF:
		return true
	default:
		return false
	}
}

func arithMnemonic(op Op) string {
	switch op {
	case NegI, NegF:
		return "neg"
	case AddI, AddF:
		return "add"
	case SubI, SubF:
		return "sub"
	case MulI, MulF:
		return "mul"
	case DivI, DivF:
		return "div"
	case ModI, ModF:
		return "mod"
	case EqI, EqF:
		return "eq"
	case NeqI, NeqF:
		return "neq"
	case LtI, LtF:
		return "lt"
	case LeI, LeF:
		return "le"
	case GtI, GtF:
		return "gt"
	case GeI, GeF:
		return "ge"
	default:
		return op.String()
	}
}

// Disassemble renders p as indented pseudo-assembly text, per spec.md §6:
// one instruction per line, labels printed bare with a trailing colon and
// their successors indented one level, jumps/calls referencing the label
// id they target.
func Disassemble(p *Program) string {
	var b strings.Builder
	WriteDisassembly(&b, p)
	return b.String()
}

// WriteDisassembly writes p's disassembly to w.
func WriteDisassembly(w io.Writer, p *Program) {
	indent := ""
	for _, in := range p.Instrs {
		if in.Op == Label {
			fmt.Fprintf(w, "%d:\n", in.A)
			indent = "    "
			continue
		}
		fmt.Fprintf(w, "%s%s\n", indent, disasmLine(in))
	}
}

func disasmLine(in Instr) string {
	switch in.Op {
	case Nop:
		return "nop"
	case PushConst:
		return fmt.Sprintf("push const[%d]", in.A)
	case Pop:
		return "pop"
	case Dup:
		return fmt.Sprintf("dup %d", in.Size)
	case LoadLocal:
		return fmt.Sprintf("get local (%d,%d)", in.A, in.Size)
	case StoreLocal:
		return fmt.Sprintf("store local (%d,%d)", in.A, in.Size)
	case LoadGlobal:
		return fmt.Sprintf("get global (%d,%d)", in.A, in.Size)
	case StoreGlobal:
		return fmt.Sprintf("store global (%d,%d)", in.A, in.Size)
	case LoadField:
		return fmt.Sprintf("get field +%d (%d)", in.A, in.Size)
	case StoreField:
		return fmt.Sprintf("store field +%d (%d)", in.A, in.Size)
	case NewArray:
		return fmt.Sprintf("new array (%d)", in.Size)
	case NewStruct:
		return fmt.Sprintf("new struct (%d)", in.Size)
	case IndexLoad:
		return fmt.Sprintf("index get (%d)", in.Size)
	case IndexStore:
		return fmt.Sprintf("index store (%d)", in.Size)
	case PushScope:
		return "push scope"
	case PopScope:
		return "pop scope"
	case Jmp:
		return fmt.Sprintf("jmp %d", in.A)
	case JmpIfFalse:
		return fmt.Sprintf("jf %d", in.A)
	case Call:
		return fmt.Sprintf("call %d", in.A)
	case CallExtern:
		return fmt.Sprintf("call extern %s", in.Name)
	case Ret:
		return "ret"
	case RetValue:
		return fmt.Sprintf("ret value (%d)", in.Size)
	case NegI, NegF, AddI, AddF, SubI, SubF, MulI, MulF, DivI, DivF, ModI, ModF,
		EqI, EqF, NeqI, NeqF, LtI, LtF, LeI, LeF, GtI, GtF, GeI, GeF:
		return fmt.Sprintf("%s %s", arithMnemonic(in.Op), typeSuffix(in.Size, in.Signed, isFloatOp(in.Op)))
	case BitAnd:
		return fmt.Sprintf("and i%d", in.Size*8)
	case BitOr:
		return fmt.Sprintf("or i%d", in.Size*8)
	case BitXor:
		return fmt.Sprintf("xor i%d", in.Size*8)
	case Not:
		return "not"
	case CastIToI, CastIToF, CastFToI, CastFToF:
		return fmt.Sprintf("cast %s %s", typeSuffix(in.SrcSize, in.SrcSigned, in.Op == CastFToI || in.Op == CastFToF),
			typeSuffix(in.Size, in.Signed, in.Op == CastIToF || in.Op == CastFToF))
	default:
		return in.Op.String()
	}
}
