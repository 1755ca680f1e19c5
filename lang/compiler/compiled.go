package compiler

// Const is one entry in a Program's constant pool. Bits holds the raw bit
// pattern for numeric constants (so e.g. a float's IEEE-754 bits are
// stored directly, matching the VM's byte-stack model); IsString
// distinguishes a string literal (Str holds its data; the VM heap-
// allocates it once, on first use, and pushes a handle) from an 8-byte
// numeric constant, which Str=="" alone cannot do since an empty string
// literal and an all-zero 8-byte integer are otherwise indistinguishable.
type Const struct {
	Size     int32
	Bits     uint64
	Str      string
	IsString bool
}

// FuncInfo records where a compiled function lives and its calling
// convention: the byte width of each parameter (pushed by the caller, in
// order) and of the return value.
type FuncInfo struct {
	Addr       int32
	Extern     bool
	ParamSizes []int32
	ReturnSize int32
}

// GlobalInfo locates a global variable within the first GlobalBytes of the
// VM's stack, for hosts that read globals by name (spec.md §6's
// PushGlobal) rather than by compiled address.
type GlobalInfo struct {
	Offset int32
	Size   int32
}

// Program is a whole compiled BlackLua translation unit: its linear
// instruction stream, constant pool, function table, and the total byte
// size reserved for global variables (laid out as the first stack slots,
// before any function is called).
type Program struct {
	Instrs      []Instr
	Consts      []Const
	Funcs       map[string]FuncInfo
	Globals     map[string]GlobalInfo
	GlobalBytes int32
}
