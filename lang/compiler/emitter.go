// Package compiler implements BlackLua's bytecode emitter and its
// pseudo-assembly disassembler (see opcode.go's package doc for the opcode
// set's grounding). Emission follows spec.md §4.4's per-AST-shape and
// per-expression-form rules against a compile-time mirror of the VM's
// stack-slot layout: a stack of lexical scopes mapping name to byte offset,
// reset per function, plus a single global-variable region laid out ahead
// of any function call.
//
// The specification describes emission as two passes (intern every
// constant, then generate code); here both happen in one recursive walk,
// since a Program's constant pool is fully built by the time Emit returns
// regardless of insertion order — the VM never begins executing mid-walk.
// This collapses the two passes without changing observable behavior, and
// is recorded as a deliberate simplification in DESIGN.md.
package compiler

import (
	"fmt"
	"math"

	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/types"
)

// InvariantError is raised when the emitter encounters an AST shape that a
// correctly type-checked program should never produce (spec.md §7's
// "Compile invariant violation" category) — e.g. an lvalue-less assignment
// target, or a BadExpr/BadStmt placeholder reaching the emitter because the
// checker was skipped after a failed parse.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "compile invariant violation: " + e.Msg }

func invariantf(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

type localVar struct {
	offset int32
	size   int32
	typ    *types.VariableType
}

type loopLabels struct {
	breakLabel, continueLabel int32
}

type funcScope struct {
	scopes  []map[string]localVar
	highOff int32 // high-water mark of bytes reserved, becomes the frame size
	curOff  int32
	loops   []loopLabels
}

type globalVar struct {
	offset int32
	size   int32
}

// Emitter lowers a type-checked BlackLua AST into a Program. Use Emit
// rather than constructing an Emitter directly.
type Emitter struct {
	instrs   []Instr
	consts   []Const
	constIdx map[Const]int32
	funcs    map[string]FuncInfo

	globals     map[string]globalVar
	globalBytes int32

	fn       *funcScope
	labelSeq int32

	globalInitBody []ast.Stmt
}

// InitFuncName is the synthetic no-argument function that runs every
// top-level variable initializer in declaration order; a host embedding
// the VM must Call it once before calling any other function (an Open
// Question spec.md leaves to the host — resolved here, see DESIGN.md).
const InitFuncName = "__blacklua_init__"

func newEmitter() *Emitter {
	return &Emitter{
		constIdx: make(map[Const]int32),
		funcs:    make(map[string]FuncInfo),
		globals:  make(map[string]globalVar),
	}
}

// Emit lowers prog (already accepted by checker.Check) into a Program. It
// panics with *InvariantError if prog contains a shape a type-checked
// program cannot produce; callers that accept untrusted input should
// recover around the call.
func Emit(prog []ast.Stmt) *Program {
	e := newEmitter()
	for _, s := range prog {
		e.declareGlobalSlot(s)
	}
	e.emitInitFunc()
	for _, s := range prog {
		e.emitTopLevel(s)
	}
	globals := make(map[string]GlobalInfo, len(e.globals))
	for name, g := range e.globals {
		globals[name] = GlobalInfo{Offset: g.offset, Size: g.size}
	}
	return &Program{
		Instrs:      e.instrs,
		Consts:      e.consts,
		Funcs:       e.funcs,
		Globals:     globals,
		GlobalBytes: e.globalBytes,
	}
}

func (e *Emitter) emit(in Instr) int32 {
	idx := int32(len(e.instrs))
	e.instrs = append(e.instrs, in)
	return idx
}

func (e *Emitter) newLabel() int32 {
	id := e.labelSeq
	e.labelSeq++
	return id
}

func (e *Emitter) placeLabel(id int32) {
	e.emit(Instr{Op: Label, A: id})
}

func sizeOf(t *types.VariableType) int32 { return int32(types.Size(t)) }

// --- globals ---

func (e *Emitter) declareGlobalSlot(s ast.Stmt) {
	vd, ok := s.(*ast.VarDeclStmt)
	if !ok {
		return
	}
	sz := sizeOf(vd.Resolved)
	e.globals[vd.Name] = globalVar{offset: e.globalBytes, size: sz}
	e.globalBytes += sz
	if vd.Init != nil || vd.Resolved.Kind == types.Struct {
		e.globalInitBody = append(e.globalInitBody, vd)
	}
}

// emitInitFunc compiles InitFuncName, the synthetic function that runs
// every global initializer in declaration order, mirroring spec.md §4.4's
// VarDecl emission rule (evaluate Init, Copy into the variable's slot) but
// targeting LoadGlobal/StoreGlobal addressing instead of a call frame.
func (e *Emitter) emitInitFunc() {
	label := e.newLabel()
	e.funcs[InitFuncName] = FuncInfo{Addr: label}
	e.placeLabel(label)
	prevFn := e.fn
	e.fn = &funcScope{}
	for _, s := range e.globalInitBody {
		vd := s.(*ast.VarDeclStmt)
		sz := sizeOf(vd.Resolved)
		if vd.Init != nil {
			e.emitExpr(vd.Init)
		} else {
			e.emitStructAlloc(vd.Resolved)
		}
		g := e.globals[vd.Name]
		e.emit(Instr{Op: StoreGlobal, A: g.offset, Size: sz})
	}
	e.emit(Instr{Op: Ret})
	e.fn = prevFn
}

// --- top level ---

func (e *Emitter) emitTopLevel(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		// handled by emitInitFunc
	case *ast.FunctionDeclStmt:
		e.emitFunction(s, "")
	case *ast.StructDeclStmt:
		for _, m := range s.Methods {
			e.emitFunction(m, s.Name)
		}
	case *ast.BadStmt:
		invariantf("BadStmt reached the emitter at %v", s.Range())
	default:
		invariantf("unexpected top-level statement %T", s)
	}
}

func paramSizes(fd *ast.FunctionDeclStmt, structName string) []int32 {
	var sizes []int32
	if structName != "" {
		sizes = append(sizes, 8) // self, pointer-sized
	}
	for _, p := range fd.Params {
		sizes = append(sizes, sizeOf(p.Resolved))
	}
	return sizes
}

func (e *Emitter) emitFunction(fd *ast.FunctionDeclStmt, structName string) {
	name := fd.Name
	if structName != "" {
		name = types.MethodSymbol(structName, fd.Name)
	}
	retSize := sizeOf(fd.ResolvedReturn)
	if fd.Extern {
		e.funcs[name] = FuncInfo{Extern: true, ParamSizes: paramSizes(fd, structName), ReturnSize: retSize}
		return
	}

	label := e.newLabel()
	e.funcs[name] = FuncInfo{Addr: label, ParamSizes: paramSizes(fd, structName), ReturnSize: retSize}
	e.placeLabel(label)

	prevFn := e.fn
	e.fn = &funcScope{}
	e.pushScope()
	if structName != "" {
		e.declareLocal("self", 8, nil)
	}
	for _, p := range fd.Params {
		e.declareLocal(p.Name, sizeOf(p.Resolved), p.Resolved)
	}
	bodyStart := len(e.instrs)
	e.emitCompound(fd.Body)
	if locals := e.fn.highOff - e.fn.curOff; locals > 0 {
		// reserve the frame's local-variable bytes above the arguments
		reserve := Instr{Op: PushConst, A: e.intern(Const{Size: locals}), Size: locals}
		e.instrs = append(e.instrs[:bodyStart+1], e.instrs[bodyStart:]...)
		e.instrs[bodyStart] = reserve
	}
	e.popScope()
	if fd.ResolvedReturn == nil || fd.ResolvedReturn.Kind == types.Void {
		e.emit(Instr{Op: Ret})
	}
	e.fn = prevFn
}

// --- compile-time scope stack ---

func (e *Emitter) pushScope() {
	e.fn.scopes = append(e.fn.scopes, make(map[string]localVar))
	e.emit(Instr{Op: PushScope})
}

func (e *Emitter) popScope() {
	top := e.fn.scopes[len(e.fn.scopes)-1]
	var freed int32
	for _, v := range top {
		freed += v.size
	}
	e.fn.curOff -= freed
	e.fn.scopes = e.fn.scopes[:len(e.fn.scopes)-1]
	e.emit(Instr{Op: PopScope})
}

func (e *Emitter) declareLocal(name string, size int32, typ *types.VariableType) localVar {
	v := localVar{offset: e.fn.curOff, size: size, typ: typ}
	e.fn.scopes[len(e.fn.scopes)-1][name] = v
	e.fn.curOff += size
	if e.fn.curOff > e.fn.highOff {
		e.fn.highOff = e.fn.curOff
	}
	return v
}

func (e *Emitter) lookupLocal(name string) (localVar, bool) {
	if e.fn == nil {
		return localVar{}, false
	}
	for i := len(e.fn.scopes) - 1; i >= 0; i-- {
		if v, ok := e.fn.scopes[i][name]; ok {
			return v, true
		}
	}
	return localVar{}, false
}

// --- statements ---

func (e *Emitter) emitCompound(c *ast.CompoundStmt) {
	e.pushScope()
	for _, s := range c.Stmts {
		e.emitStmt(s)
	}
	e.popScope()
}

// emitStmtAsBody emits s as a loop/if body: a bare CompoundStmt brackets
// its own scope already; any other statement form gets none, matching
// spec.md §4.2's "a body may be a single statement or a brace block".
func (e *Emitter) emitStmtAsBody(s ast.Stmt) {
	if c, ok := s.(*ast.CompoundStmt); ok {
		e.emitCompound(c)
		return
	}
	e.emitStmt(s)
}

func (e *Emitter) emitStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		e.emitLocalVarDecl(s)
	case *ast.CompoundStmt:
		e.emitCompound(s)
	case *ast.ExprStmt:
		e.emitExpr(s.Expr)
		e.emit(Instr{Op: Pop, Size: sizeOf(s.Expr.ResolvedType())})
	case *ast.IfStmt:
		e.emitIf(s)
	case *ast.WhileStmt:
		e.emitWhile(s)
	case *ast.DoWhileStmt:
		e.emitDoWhile(s)
	case *ast.ForStmt:
		e.emitFor(s)
	case *ast.ReturnStmt:
		e.emitReturn(s)
	case *ast.BreakStmt:
		loop := e.fn.loops[len(e.fn.loops)-1]
		e.emit(Instr{Op: Jmp, A: loop.breakLabel})
	case *ast.ContinueStmt:
		loop := e.fn.loops[len(e.fn.loops)-1]
		e.emit(Instr{Op: Jmp, A: loop.continueLabel})
	case *ast.BadStmt:
		invariantf("BadStmt reached the emitter at %v", s.Range())
	default:
		invariantf("unexpected statement %T", s)
	}
}

func (e *Emitter) emitLocalVarDecl(s *ast.VarDeclStmt) {
	v := e.declareLocal(s.Name, sizeOf(s.Resolved), s.Resolved)
	switch {
	case s.Init != nil:
		e.emitExpr(s.Init)
		e.emit(Instr{Op: StoreLocal, A: v.offset, Size: v.size})
	case s.Resolved.Kind == types.Struct:
		e.emitStructAlloc(s.Resolved)
		e.emit(Instr{Op: StoreLocal, A: v.offset, Size: v.size})
	}
}

// emitStructAlloc pushes a handle to a freshly zeroed instance of typ,
// for a struct-typed local/global declared without an initializer: a
// bare `Point p;` must still give p a live object, not a nil reference,
// since field stores/loads always go through the handle (types.Size's
// uniform 8 bytes for Struct, never typ.Layout.Size).
func (e *Emitter) emitStructAlloc(typ *types.VariableType) {
	e.emit(Instr{Op: NewStruct, Size: int32(typ.Layout.Size)})
}

func (e *Emitter) emitIf(s *ast.IfStmt) {
	e.emitExpr(s.Cond)
	elseLabel := e.newLabel()
	e.emit(Instr{Op: JmpIfFalse, A: elseLabel, Size: 1})
	e.emitStmtAsBody(s.Body)
	if s.Else == nil {
		e.placeLabel(elseLabel)
		return
	}
	endLabel := e.newLabel()
	e.emit(Instr{Op: Jmp, A: endLabel})
	e.placeLabel(elseLabel)
	e.emitStmtAsBody(s.Else)
	e.placeLabel(endLabel)
}

func (e *Emitter) emitWhile(s *ast.WhileStmt) {
	condLabel := e.newLabel()
	endLabel := e.newLabel()
	e.placeLabel(condLabel)
	e.emitExpr(s.Cond)
	e.emit(Instr{Op: JmpIfFalse, A: endLabel, Size: 1})
	e.fn.loops = append(e.fn.loops, loopLabels{breakLabel: endLabel, continueLabel: condLabel})
	e.emitStmtAsBody(s.Body)
	e.fn.loops = e.fn.loops[:len(e.fn.loops)-1]
	e.emit(Instr{Op: Jmp, A: condLabel})
	e.placeLabel(endLabel)
}

func (e *Emitter) emitDoWhile(s *ast.DoWhileStmt) {
	bodyLabel := e.newLabel()
	condLabel := e.newLabel()
	endLabel := e.newLabel()
	e.placeLabel(bodyLabel)
	e.fn.loops = append(e.fn.loops, loopLabels{breakLabel: endLabel, continueLabel: condLabel})
	e.emitStmtAsBody(s.Body)
	e.fn.loops = e.fn.loops[:len(e.fn.loops)-1]
	e.placeLabel(condLabel)
	e.emitExpr(s.Cond)
	e.emit(Instr{Op: JmpIfFalse, A: endLabel, Size: 1})
	e.emit(Instr{Op: Jmp, A: bodyLabel})
	e.placeLabel(endLabel)
}

func (e *Emitter) emitFor(s *ast.ForStmt) {
	e.pushScope()
	if s.Prologue != nil {
		e.emitStmt(s.Prologue)
	}
	condLabel := e.newLabel()
	epilogueLabel := e.newLabel()
	endLabel := e.newLabel()
	e.placeLabel(condLabel)
	if s.Cond != nil {
		e.emitExpr(s.Cond)
		e.emit(Instr{Op: JmpIfFalse, A: endLabel, Size: 1})
	}
	e.fn.loops = append(e.fn.loops, loopLabels{breakLabel: endLabel, continueLabel: epilogueLabel})
	e.emitStmtAsBody(s.Body)
	e.fn.loops = e.fn.loops[:len(e.fn.loops)-1]
	e.placeLabel(epilogueLabel)
	if s.Epilogue != nil {
		e.emitStmt(s.Epilogue)
	}
	e.emit(Instr{Op: Jmp, A: condLabel})
	e.placeLabel(endLabel)
	e.popScope()
}

func (e *Emitter) emitReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		e.emit(Instr{Op: Ret})
		return
	}
	e.emitExpr(s.Value)
	e.emit(Instr{Op: RetValue, Size: sizeOf(s.Value.ResolvedType())})
}

// --- expressions ---

func (e *Emitter) emitExpr(ex ast.Expr) {
	switch ex := ex.(type) {
	case *ast.ConstantExpr:
		e.emitConstant(ex)
	case *ast.VarRefExpr:
		e.emitVarRef(ex)
	case *ast.SelfExpr:
		v, ok := e.lookupLocal("self")
		if !ok {
			invariantf("self referenced outside a method at %v", ex.Range())
		}
		e.emit(Instr{Op: LoadLocal, A: v.offset, Size: v.size})
	case *ast.ArrayAccessExpr:
		e.emitArrayAccess(ex)
	case *ast.MemberExpr:
		e.emitMember(ex)
	case *ast.MethodCallExpr:
		e.emitMethodCall(ex)
	case *ast.CallExpr:
		e.emitCall(ex)
	case *ast.ParenExpr:
		e.emitExpr(ex.Inner)
	case *ast.CastExpr:
		e.emitCast(ex)
	case *ast.UnaryExpr:
		e.emitUnary(ex)
	case *ast.BinaryExpr:
		e.emitBinary(ex)
	case *ast.BadExpr:
		invariantf("BadExpr reached the emitter at %v", ex.Range())
	default:
		invariantf("unexpected expression %T", ex)
	}
}

// emitConstant pushes a literal's value. A string literal additionally
// routes through the bl__string__construct_from_literal__ native (spec.md
// §4.6): PushConst only stages a handle to the constant pool's cached
// literal bytes, and the extern turns that into a fresh string object so
// the literal's storage and the expression's value are never aliased.
func (e *Emitter) emitConstant(c *ast.ConstantExpr) {
	idx := e.intern(constFor(c))
	e.emit(Instr{Op: PushConst, A: idx, Size: sizeOf(c.ResolvedType())})
	if c.ConstKind == ast.ConstString {
		e.emit(Instr{Op: CallExtern, Name: "bl__string__construct_from_literal__", Size: 8})
	}
}

func constFor(c *ast.ConstantExpr) Const {
	switch c.ConstKind {
	case ast.ConstString:
		return Const{Size: 8, Str: c.Str, IsString: true}
	case ast.ConstFloat:
		return Const{Size: 4, Bits: uint64(math.Float32bits(float32(c.Float)))}
	case ast.ConstDouble:
		return Const{Size: 8, Bits: math.Float64bits(c.Float)}
	case ast.ConstBool:
		if c.Bool {
			return Const{Size: 1, Bits: 1}
		}
		return Const{Size: 1, Bits: 0}
	case ast.ConstChar:
		return Const{Size: 1, Bits: uint64(uint8(c.Int))}
	case ast.ConstInt, ast.ConstUInt:
		return Const{Size: 4, Bits: uint64(uint32(c.Int))}
	case ast.ConstLong, ast.ConstULong:
		return Const{Size: 8, Bits: uint64(c.Int)}
	default:
		invariantf("unknown constant kind %v", c.ConstKind)
		return Const{}
	}
}

func (e *Emitter) intern(c Const) int32 {
	if idx, ok := e.constIdx[c]; ok {
		return idx
	}
	idx := int32(len(e.consts))
	e.consts = append(e.consts, c)
	e.constIdx[c] = idx
	return idx
}

func (e *Emitter) emitVarRef(v *ast.VarRefExpr) {
	if lv, ok := e.lookupLocal(v.Name); ok {
		e.emit(Instr{Op: LoadLocal, A: lv.offset, Size: lv.size})
		return
	}
	if g, ok := e.globals[v.Name]; ok {
		e.emit(Instr{Op: LoadGlobal, A: g.offset, Size: g.size})
		return
	}
	invariantf("undeclared identifier %q reached the emitter", v.Name)
}

// emitArrayAccess implements spec.md §4.4's ArrayAccess rule: push the
// parent array and the index, then call the bound bl__array__index__
// native (internal/stdlib.ArrayIndex) with (array, index, elementSize),
// which returns the indexed element on top of the stack.
func (e *Emitter) emitArrayAccess(a *ast.ArrayAccessExpr) {
	e.emitExpr(a.Parent)
	e.emitExpr(a.Index)
	elemSize := sizeOf(a.ResolvedType())
	e.emitSizeConst(elemSize)
	e.emit(Instr{Op: CallExtern, Name: "bl__array__index__", Size: elemSize})
}

// emitSizeConst pushes a compile-time-known byte width as a plain int
// constant, for native calls whose calling convention takes an explicit
// size argument (bl__array__index__'s elementSize).
func (e *Emitter) emitSizeConst(size int32) {
	idx := e.intern(Const{Size: 4, Bits: uint64(uint32(size))})
	e.emit(Instr{Op: PushConst, A: idx, Size: 4})
}

func (e *Emitter) emitMember(m *ast.MemberExpr) {
	parentType := m.Parent.ResolvedType()
	field := parentType.Layout.FieldByName(m.Name)
	if field == nil {
		invariantf("unknown field %q on struct %s reached the emitter", m.Name, parentType.Layout.Name)
	}
	e.emitExpr(m.Parent)
	e.emit(Instr{Op: LoadField, A: int32(field.Offset), Size: sizeOf(field.Type)})
}

func (e *Emitter) emitMethodCall(m *ast.MethodCallExpr) {
	parentType := m.Parent.ResolvedType()
	name := types.MethodSymbol(parentType.Layout.Name, m.Name)
	fi, ok := e.funcs[name]
	if !ok {
		invariantf("unresolved method %q reached the emitter", name)
	}
	e.emitExpr(m.Parent) // self
	for _, a := range m.Args {
		e.emitExpr(a)
	}
	e.emitCallInstr(fi, name)
}

func (e *Emitter) emitCall(c *ast.CallExpr) {
	fi, ok := e.funcs[c.Name]
	if !ok {
		invariantf("unresolved call to %q reached the emitter", c.Name)
	}
	for _, a := range c.Args {
		e.emitExpr(a)
	}
	e.emitCallInstr(fi, c.Name)
}

func (e *Emitter) emitCallInstr(fi FuncInfo, name string) {
	if fi.Extern {
		e.emit(Instr{Op: CallExtern, Name: name, Size: fi.ReturnSize})
		return
	}
	e.emit(Instr{Op: Call, A: fi.Addr, Size: fi.ReturnSize})
}

func (e *Emitter) emitCast(c *ast.CastExpr) {
	src := c.Inner.ResolvedType()
	dst := c.ResolvedType()
	e.emitExpr(c.Inner)

	srcFloat, dstFloat := src.IsFloatingPoint(), dst.IsFloatingPoint()
	in := Instr{
		Size: sizeOf(dst), Signed: dst.IsSigned(),
		SrcSize: sizeOf(src), SrcSigned: src.IsSigned(),
	}
	switch {
	case !srcFloat && !dstFloat:
		in.Op = CastIToI
	case !srcFloat && dstFloat:
		in.Op = CastIToF
	case srcFloat && !dstFloat:
		in.Op = CastFToI
	default:
		in.Op = CastFToF
	}
	e.emit(in)
}

func (e *Emitter) emitUnary(u *ast.UnaryExpr) {
	e.emitExpr(u.Inner)
	t := u.Inner.ResolvedType()
	switch u.Op {
	case ast.Negate:
		if t.IsFloatingPoint() {
			e.emit(Instr{Op: NegF, Size: sizeOf(t)})
		} else {
			e.emit(Instr{Op: NegI, Size: sizeOf(t), Signed: t.IsSigned()})
		}
	case ast.Not:
		e.emit(Instr{Op: Not, Size: sizeOf(t)})
	default:
		invariantf("unknown unary operator %v", u.Op)
	}
}

func (e *Emitter) emitBinary(b *ast.BinaryExpr) {
	if b.Op == ast.Assign {
		e.emitAssign(b.LHS, b.RHS)
		return
	}
	if b.Op.IsInPlace() {
		e.emitInPlace(b)
		return
	}
	if b.Op == ast.LogicalAnd || b.Op == ast.LogicalOr {
		e.emitShortCircuit(b)
		return
	}
	e.emitExpr(b.RHS)
	e.emitExpr(b.LHS)
	e.emitOp(b.Op, b.LHS.ResolvedType())
}

// emitShortCircuit emits && and || with the usual skip-the-right-operand
// control flow, rather than a strict two-operand opcode, since BlackLua's
// boolean operators must not evaluate RHS when the result is already
// determined by LHS. && short-circuits (keeping lhs as the result) as soon
// as lhs is false; || short-circuits (keeping lhs) as soon as lhs is true,
// tested by negating the duplicate before the (false-only) JmpIfFalse.
func (e *Emitter) emitShortCircuit(b *ast.BinaryExpr) {
	e.emitExpr(b.LHS)
	shortLabel := e.newLabel()
	endLabel := e.newLabel()
	e.emit(Instr{Op: Dup, Size: 1})
	if b.Op == ast.LogicalOr {
		e.emit(Instr{Op: Not, Size: 1})
	}
	e.emit(Instr{Op: JmpIfFalse, A: shortLabel, Size: 1})
	e.emit(Instr{Op: Pop, Size: 1})
	e.emitExpr(b.RHS)
	e.emit(Instr{Op: Jmp, A: endLabel})
	e.placeLabel(shortLabel)
	e.placeLabel(endLabel)
}

// emitOp emits the arithmetic/comparison opcode for a non-assigning binary
// operator given the (already-matched, per the checker) operand type t.
func (e *Emitter) emitOp(op ast.BinaryOp, t *types.VariableType) {
	sz := sizeOf(t)
	signed := t.IsSigned()
	flt := t.IsFloatingPoint()
	var in Instr
	switch op {
	case ast.Add:
		in = Instr{Op: pick(flt, AddF, AddI), Size: sz, Signed: signed}
	case ast.Sub:
		in = Instr{Op: pick(flt, SubF, SubI), Size: sz, Signed: signed}
	case ast.Mul:
		in = Instr{Op: pick(flt, MulF, MulI), Size: sz, Signed: signed}
	case ast.Div:
		in = Instr{Op: pick(flt, DivF, DivI), Size: sz, Signed: signed}
	case ast.Mod:
		in = Instr{Op: pick(flt, ModF, ModI), Size: sz, Signed: signed}
	case ast.BitAnd:
		in = Instr{Op: BitAnd, Size: sz}
	case ast.BitOr:
		in = Instr{Op: BitOr, Size: sz}
	case ast.BitXor:
		in = Instr{Op: BitXor, Size: sz}
	case ast.Less:
		in = Instr{Op: pick(flt, LtF, LtI), Size: sz, Signed: signed}
	case ast.LessEq:
		in = Instr{Op: pick(flt, LeF, LeI), Size: sz, Signed: signed}
	case ast.Greater:
		in = Instr{Op: pick(flt, GtF, GtI), Size: sz, Signed: signed}
	case ast.GreaterEq:
		in = Instr{Op: pick(flt, GeF, GeI), Size: sz, Signed: signed}
	case ast.EqualOp:
		in = Instr{Op: pick(flt, EqF, EqI), Size: sz, Signed: signed}
	case ast.NotEqual:
		in = Instr{Op: pick(flt, NeqF, NeqI), Size: sz, Signed: signed}
	default:
		invariantf("unexpected binary operator %v", op)
	}
	e.emit(in)
}

func pick(cond bool, t, f Op) Op {
	if cond {
		return t
	}
	return f
}

// emitAssign emits a plain assignment lhs = rhs, leaving the assigned value
// on the stack as the expression's own result (so `x = (y = 5)` and
// `f(x = 5)` work). VarRef assignment dup-and-stores so the original value
// is reused directly. Member/ArrayAccess assignment instead pushes the
// address operand(s) (struct, or array+index) ahead of the value and
// stores, then re-reads lhs fresh for the result: the VM's Store ops
// consume their address operands, leaving nothing to dup around once the
// value has already been computed, and BlackLua's lvalue parents are
// always side-effect-free (plain variable/field/index chains, never a call
// result), so re-evaluating one costs an extra load, never a repeated
// effect.
func (e *Emitter) emitAssign(lhs, rhs ast.Expr) {
	switch lhs := lhs.(type) {
	case *ast.VarRefExpr:
		e.emitExpr(rhs)
		e.emit(Instr{Op: Dup, Size: sizeOf(rhs.ResolvedType())})
		e.storeVarRef(lhs)
	case *ast.MemberExpr:
		field := lhs.Parent.ResolvedType().Layout.FieldByName(lhs.Name)
		e.emitExpr(lhs.Parent)
		e.emitExpr(rhs)
		e.emit(Instr{Op: StoreField, A: int32(field.Offset), Size: sizeOf(field.Type)})
		e.emitExpr(lhs)
	case *ast.ArrayAccessExpr:
		elemSize := sizeOf(lhs.ResolvedType())
		e.emitExpr(lhs.Parent)
		e.emitExpr(lhs.Index)
		e.emitExpr(rhs)
		e.emit(Instr{Op: IndexStore, Size: elemSize})
		e.emitExpr(lhs)
	default:
		invariantf("non-lvalue assignment target %T reached the emitter", lhs)
	}
}

func (e *Emitter) storeVarRef(v *ast.VarRefExpr) {
	if lv, ok := e.lookupLocal(v.Name); ok {
		e.emit(Instr{Op: StoreLocal, A: lv.offset, Size: lv.size})
		return
	}
	if g, ok := e.globals[v.Name]; ok {
		e.emit(Instr{Op: StoreGlobal, A: g.offset, Size: g.size})
		return
	}
	invariantf("undeclared assignment target %q reached the emitter", v.Name)
}

// storeInto is emitInPlace's store-back step for VarRef targets: combined,
// the already type-checked result of combining lhs's current value with
// rhs, is on top of the stack and is dup'd and stored via the variable's
// fixed slot. Member/ArrayAccess targets never reach it; emitInPlace emits
// their StoreField/IndexStore itself.
func (e *Emitter) storeInto(lhs ast.Expr, combined ast.Expr) {
	switch lhs := lhs.(type) {
	case *ast.VarRefExpr:
		e.emit(Instr{Op: Dup, Size: sizeOf(combined.ResolvedType())})
		e.storeVarRef(lhs)
	default:
		invariantf("storeInto only handles VarRef targets; %T routes through emitInPlace directly", lhs)
	}
}

// emitInPlace emits a compound-assignment form (+=, -=, ...): read lhs,
// combine with rhs, write the result back, matching spec.md §4.4's
// "in-place forms copy the result back into lhs" rule. Like emitAssign,
// the expression's own value is the freshly stored result.
func (e *Emitter) emitInPlace(b *ast.BinaryExpr) {
	plain := inPlaceBase(b.Op)
	switch lhs := b.LHS.(type) {
	case *ast.VarRefExpr:
		e.emitExpr(b.RHS)
		e.emitExpr(lhs)
		e.emitOp(plain, lhs.ResolvedType())
		e.storeInto(lhs, b.LHS)
	case *ast.MemberExpr:
		field := lhs.Parent.ResolvedType().Layout.FieldByName(lhs.Name)
		e.emitExpr(lhs.Parent) // addr kept on the stack for the store below
		e.emitExpr(b.RHS)
		e.emitExpr(lhs.Parent) // re-read (side-effect-free) to load the current field value
		e.emit(Instr{Op: LoadField, A: int32(field.Offset), Size: sizeOf(field.Type)})
		e.emitOp(plain, field.Type)
		e.emit(Instr{Op: StoreField, A: int32(field.Offset), Size: sizeOf(field.Type)})
		e.emitExpr(lhs)
	case *ast.ArrayAccessExpr:
		elemSize := sizeOf(lhs.ResolvedType())
		e.emitExpr(lhs.Parent) // addr operands kept on the stack for the store below
		e.emitExpr(lhs.Index)
		e.emitExpr(b.RHS)
		e.emitExpr(lhs) // fresh read of arr[idx]; re-evaluates parent+index once more
		e.emitOp(plain, lhs.ResolvedType())
		e.emit(Instr{Op: IndexStore, Size: elemSize})
		e.emitExpr(lhs)
	default:
		invariantf("non-lvalue in-place target %T reached the emitter", lhs)
	}
}

func inPlaceBase(op ast.BinaryOp) ast.BinaryOp {
	switch op {
	case ast.AddAssign:
		return ast.Add
	case ast.SubAssign:
		return ast.Sub
	case ast.MulAssign:
		return ast.Mul
	case ast.DivAssign:
		return ast.Div
	case ast.ModAssign:
		return ast.Mod
	case ast.BitAndAssign:
		return ast.BitAnd
	case ast.BitOrAssign:
		return ast.BitOr
	case ast.BitXorAssign:
		return ast.BitXor
	default:
		invariantf("unexpected in-place operator %v", op)
		return ast.Add
	}
}
