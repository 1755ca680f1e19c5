// Package types implements BlackLua's VariableType model: the canonical
// representation of a resolved type, struct layout computation, and the
// conversion-cost rules the type checker and emitter use to reconcile two
// operand types. Grounded on original_source's
// internal/compiler/variable_type.hpp (exact kind set, struct layout,
// GetTypeSize) and on the teacher's habit (lang/types/value.go) of a small
// closed kind enum with one struct per kind's extra data.
package types

import "fmt"

// Kind enumerates the primitive and composite type kinds a VariableType can
// take (spec.md §3).
type Kind int8

const (
	Invalid Kind = iota
	Void
	Bool
	Char
	Short
	Int
	Long
	Float
	Double
	String
	Array
	Struct
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Array:
		return "array"
	case Struct:
		return "struct"
	default:
		return "invalid"
	}
}

// Field is one member of a StructLayout: its name, byte offset from the
// struct's start, and resolved type.
type Field struct {
	Name   string
	Offset int
	Type   *VariableType
}

// StructLayout describes a declared struct's fields, in declaration order,
// laid out with no alignment padding (spec.md §9: "deliberate
// simplification... for bit-exact compatibility with the reference
// disassembly").
type StructLayout struct {
	Name   string
	Fields []Field
	Size   int
}

// FieldByName returns the Field named name, or nil if no such field exists.
func (s *StructLayout) FieldByName(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// MethodSymbol is the synthetic global-table name under which a struct
// method is compiled (spec.md §4.3: "Struct__Method").
func MethodSymbol(structName, methodName string) string {
	return structName + "__" + methodName
}

// VariableType is the canonical resolved type of an expression, variable,
// or struct field.
type VariableType struct {
	Kind Kind

	// Signed is meaningful only for integral kinds (Bool/Char/Short/Int/Long).
	Signed bool
	// Elem is the element type, set only when Kind == Array.
	Elem *VariableType
	// Layout is set only when Kind == Struct.
	Layout *StructLayout
}

// IsIntegral reports whether t is one of the integral kinds.
func (t *VariableType) IsIntegral() bool {
	switch t.Kind {
	case Bool, Char, Short, Int, Long:
		return true
	default:
		return false
	}
}

// IsFloatingPoint reports whether t is Float or Double.
func (t *VariableType) IsFloatingPoint() bool {
	return t.Kind == Float || t.Kind == Double
}

// IsSigned reports the type's signedness; meaningless (always true) outside
// the integral kinds.
func (t *VariableType) IsSigned() bool {
	if !t.IsIntegral() {
		return true
	}
	return t.Signed
}

// String renders the type the way the disassembler and diagnostics expect:
// an unsigned prefix for unsigned integrals, "T[]" for arrays, and the
// struct name for structs.
func (t *VariableType) String() string {
	switch t.Kind {
	case Array:
		return fmt.Sprintf("%s[]", t.Elem.String())
	case Struct:
		return t.Layout.Name
	default:
		prefix := ""
		if t.IsIntegral() && !t.Signed {
			prefix = "u"
		}
		return prefix + t.Kind.String()
	}
}

// Equal reports whether two types are the same kind (structs and arrays
// compare by their nested shape; spec.md's VariableType equality is
// kind-only, mirrored here but extended one level for composite kinds so
// that e.g. int[] != float[]).
func (t *VariableType) Equal(other *VariableType) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case Array:
		return t.Elem.Equal(other.Elem)
	case Struct:
		return t.Layout == other.Layout || t.Layout.Name == other.Layout.Name
	default:
		return t.Signed == other.Signed || !t.IsIntegral()
	}
}

// Size returns the type's size as it occupies a stack slot, field or
// local: a byte count for every primitive kind, and a uniform 8-byte
// handle for String, Array and Struct (spec.md §3's "string and array
// are pointer-sized" extended to struct, which the VM heap also
// addresses by handle — see lang/vm/heap.go's heapObj). A struct's own
// inline byte count (the sum of its field sizes, naturally packed) for
// sizing the heap allocation behind that handle is t.Layout.Size, not
// this function.
func Size(t *VariableType) int {
	switch t.Kind {
	case Void:
		return 0
	case Bool, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	case String, Array, Struct:
		return 8 // pointer-sized on the VM's 64-bit byte stack
	default:
		return 0
	}
}

// NewStructLayout computes a StructLayout from fields in declaration order,
// assigning each field's offset as the running total of prior sizes
// (spec.md §4.3: "offset equal to the running total of prior sizes").
func NewStructLayout(name string, fieldNames []string, fieldTypes []*VariableType) *StructLayout {
	layout := &StructLayout{Name: name}
	offset := 0
	for i, fname := range fieldNames {
		ft := fieldTypes[i]
		layout.Fields = append(layout.Fields, Field{Name: fname, Offset: offset, Type: ft})
		offset += Size(ft)
	}
	layout.Size = offset
	return layout
}

// Cost summarizes the relationship between a source and destination type
// for the purpose of choosing between a no-op, an implicit conversion, or
// requiring an explicit cast (spec.md §4.3).
type Cost int8

const (
	// Incompatible means no implicit or explicit conversion exists (e.g.
	// struct to int).
	Incompatible Cost = iota
	// None: identical kind and signedness, no conversion needed.
	None
	// Promotion: same family (integral or floating), destination wider.
	Promotion
	// Narrowing: same family, destination narrower.
	Narrowing
	// RequiresExplicitCast: integral<->floating, or otherwise only legal
	// with an explicit Cast expression.
	RequiresExplicitCast
)

// ConversionCost computes the cost of implicitly converting a value of
// type from to type to, per spec.md §4.3's conversion-cost model.
func ConversionCost(from, to *VariableType) Cost {
	if from == nil || to == nil {
		return Incompatible
	}
	if from.Equal(to) {
		return None
	}
	switch {
	case from.Kind == Struct || to.Kind == Struct:
		return Incompatible
	case from.Kind == Array || to.Kind == Array:
		return Incompatible
	case from.Kind == String || to.Kind == String:
		return Incompatible
	case from.Kind == Void || to.Kind == Void:
		return Incompatible
	}

	fromIntegral, toIntegral := from.IsIntegral(), to.IsIntegral()
	fromFloat, toFloat := from.IsFloatingPoint(), to.IsFloatingPoint()

	switch {
	case fromIntegral && toIntegral:
		if from.Signed != to.Signed {
			return RequiresExplicitCast
		}
		if Size(to) > Size(from) {
			return Promotion
		}
		if Size(to) < Size(from) {
			return Narrowing
		}
		return None
	case fromFloat && toFloat:
		if Size(to) > Size(from) {
			return Promotion
		}
		if Size(to) < Size(from) {
			return Narrowing
		}
		return None
	case fromIntegral && toFloat, fromFloat && toIntegral:
		return RequiresExplicitCast
	default:
		return Incompatible
	}
}

// CanExplicitlyCast reports whether an explicit Cast expression may convert
// from to to. Every numeric pair (integral or floating, any signedness) is
// explicitly castable; structs, arrays, strings, and void are not.
func CanExplicitlyCast(from, to *VariableType) bool {
	if from == nil || to == nil {
		return false
	}
	numeric := func(t *VariableType) bool { return t.IsIntegral() || t.IsFloatingPoint() }
	return numeric(from) && numeric(to)
}

// Convenience singletons for the primitive kinds with default signedness.
var (
	VoidType   = &VariableType{Kind: Void}
	BoolType   = &VariableType{Kind: Bool, Signed: true}
	CharType   = &VariableType{Kind: Char, Signed: true}
	UCharType  = &VariableType{Kind: Char, Signed: false}
	ShortType  = &VariableType{Kind: Short, Signed: true}
	UShortType = &VariableType{Kind: Short, Signed: false}
	IntType    = &VariableType{Kind: Int, Signed: true}
	UIntType   = &VariableType{Kind: Int, Signed: false}
	LongType   = &VariableType{Kind: Long, Signed: true}
	ULongType  = &VariableType{Kind: Long, Signed: false}
	FloatType  = &VariableType{Kind: Float, Signed: true}
	DoubleType = &VariableType{Kind: Double, Signed: true}
	StringType = &VariableType{Kind: String}
)

// ArrayOf returns a new array type with the given element type.
func ArrayOf(elem *VariableType) *VariableType {
	return &VariableType{Kind: Array, Elem: elem}
}

// StructOf wraps a StructLayout as a VariableType.
func StructOf(layout *StructLayout) *VariableType {
	return &VariableType{Kind: Struct, Layout: layout}
}

// Primitive maps a primitive type-name spelling (spec.md §6: "primitive
// types void/bool/char/uchar/short/ushort/int/uint/long/ulong/float/double/
// string") to its canonical VariableType, or returns nil if name is not one
// of them.
func Primitive(name string) *VariableType {
	switch name {
	case "void":
		return VoidType
	case "bool":
		return BoolType
	case "char":
		return CharType
	case "uchar":
		return UCharType
	case "short":
		return ShortType
	case "ushort":
		return UShortType
	case "int":
		return IntType
	case "uint":
		return UIntType
	case "long":
		return LongType
	case "ulong":
		return ULongType
	case "float":
		return FloatType
	case "double":
		return DoubleType
	case "string":
		return StringType
	default:
		return nil
	}
}
