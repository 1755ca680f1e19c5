// Package blacklua is the embedding API spec.md §6 describes: a host
// compiles source into a Program, instantiates it as a named module, and
// drives it through Run/Call, reading results back off a small typed
// stack (PushGlobal, the GetBool..GetPointer family, Pop) in the style of
// a C-callable scripting engine. It is a thin façade over lang/lexer,
// lang/parser, lang/checker, lang/compiler and lang/vm — every one of
// those packages is independently usable without it.
package blacklua

import (
	"fmt"
	"os"

	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/checker"
	"github.com/blacklua-lang/blacklua/lang/compiler"
	"github.com/blacklua-lang/blacklua/lang/lexer"
	"github.com/blacklua-lang/blacklua/lang/parser"
	"github.com/blacklua-lang/blacklua/lang/token"
	"github.com/blacklua-lang/blacklua/lang/vm"
)

// Program is an opaque handle to a compiled translation unit, returned by
// CompileFile/CompileString. It carries no VM state of its own; Run
// instantiates it as a named module.
type Program struct {
	prog *compiler.Program
}

// Disassemble returns p's pseudo-assembly listing (spec.md §6's
// Disassemble, taking the Program itself rather than a Context method, so
// it needs no running module).
func Disassemble(p *Program) string {
	return compiler.Disassemble(p.prog)
}

// module is one instantiated Program: its VM plus the small typed stack a
// host reads Call/PushGlobal results from.
type module struct {
	vm  *vm.VM
	buf []byte
}

// Context is the embedding entry point: one Context can hold several
// named module instances (spec.md's moduleName parameter to Run/Call),
// share one set of bound externs across all of them, and route every
// stage's diagnostics to a single pair of host-supplied handlers.
//
// The zero value is not usable; construct one with NewContext.
type Context struct {
	externs map[string]vm.Native
	modules map[string]*module
	cur     *module // the module most recently touched by Run or Call

	runtimeErrHandler func(msg string)
	compileErrHandler func(line, col int, file, msg string)
}

// NewContext constructs an empty Context with no modules and no externs
// bound yet.
func NewContext() *Context {
	return &Context{
		externs: make(map[string]vm.Native),
		modules: make(map[string]*module),
	}
}

// SetRuntimeErrorHandler registers fn to receive the message of every
// RuntimeError a Run or Call raises (spec.md §7: runtime errors are
// reported through this callback, not returned as a Go error at the call
// site that triggered them deep in the VM, though Run/Call still return
// one too for a host that prefers to check it directly).
func (c *Context) SetRuntimeErrorHandler(fn func(msg string)) {
	c.runtimeErrHandler = fn
}

// SetCompilerErrorHandler registers fn to receive every diagnostic a
// CompileFile/CompileString call produces, across all four compile-time
// stages (lex, parse, type check, emitter invariant).
func (c *Context) SetCompilerErrorHandler(fn func(line, col int, file, msg string)) {
	c.compileErrHandler = fn
}

// AddExtern registers fn under name. It is bound into every module
// already instantiated by Run as well as every one instantiated
// afterward, so a host may call AddExtern either before or after Run.
func (c *Context) AddExtern(name string, fn vm.Native) {
	c.externs[name] = fn
	for _, m := range c.modules {
		m.vm.BindExtern(name, fn)
	}
}

// CompileFile reads and compiles the source file at path.
func (c *Context) CompileFile(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.compile(path, src)
}

// CompileString compiles text as if it were a source file named
// "<string>".
func (c *Context) CompileString(text string) (*Program, error) {
	return c.compile("<string>", []byte(text))
}

func (c *Context) compile(filename string, src []byte) (*Program, error) {
	var errs []*CompileError
	file := token.NewFile(filename, len(src))

	report := func(stage Stage, pos token.Position, msg string) {
		errs = append(errs, &CompileError{Stage: stage, File: pos.Filename, Line: pos.Line, Col: pos.Col, Msg: msg})
		if c.compileErrHandler != nil {
			c.compileErrHandler(pos.Line, pos.Col, pos.Filename, msg)
		}
	}
	reportRange := func(stage Stage) func(token.SourceRange, string) {
		return func(rng token.SourceRange, msg string) { report(stage, file.Position(rng.Start), msg) }
	}

	toks := lexer.ScanAll(file, src, func(pos token.Position, msg string) { report(StageLex, pos, msg) })
	if len(errs) > 0 {
		return nil, &CompileFailed{Errs: errs}
	}

	p := parser.New(toks, reportRange(StageParse))
	prog := p.ParseProgram()
	if p.Failed() || len(errs) > 0 {
		return nil, &CompileFailed{Errs: errs}
	}

	if !checker.Check(prog, reportRange(StageType)) {
		return nil, &CompileFailed{Errs: errs}
	}

	compiled, err := emitSafe(prog)
	if err != nil {
		report(StageInvariant, token.Position{Filename: filename}, err.Error())
		return nil, &CompileFailed{Errs: errs}
	}
	return &Program{prog: compiled}, nil
}

// emitSafe recovers the *InvariantError compiler.Emit panics with on a
// malformed AST (one a correctly type-checked program cannot itself
// produce) and reports it like any other compile error, rather than
// letting it cross the embedding boundary as a panic.
func emitSafe(prog []ast.Stmt) (compiled *compiler.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ierr, ok := r.(*compiler.InvariantError); ok {
				err = ierr
				return
			}
			panic(r)
		}
	}()
	return compiler.Emit(prog), nil
}

// Run calls program's synthetic initializer, then
// stores the resulting VM as moduleName, ready for Call. Externs already
// registered via AddExtern are bound before the initializer runs.
func (c *Context) Run(program *Program, moduleName string) error {
	m := &module{vm: vm.New(program.prog)}
	for name, fn := range c.externs {
		m.vm.BindExtern(name, fn)
	}
	ret, err := m.vm.Call(compiler.InitFuncName, nil)
	if err != nil {
		c.reportRuntime(err)
		return err
	}
	m.buf = ret
	c.modules[moduleName] = m
	c.cur = m
	return nil
}

// Call invokes functionName in moduleName with no arguments and leaves
// its encoded return value on top of that module's small result stack,
// readable via the GetBool..GetPointer family.
func (c *Context) Call(functionName, moduleName string) error {
	m, ok := c.modules[moduleName]
	if !ok {
		return fmt.Errorf("blacklua: no such module %q (Run it first)", moduleName)
	}
	ret, err := m.vm.Call(functionName, nil)
	if err != nil {
		c.reportRuntime(err)
		return err
	}
	m.buf = ret
	c.cur = m
	return nil
}

func (c *Context) reportRuntime(err error) {
	if c.runtimeErrHandler != nil {
		c.runtimeErrHandler(err.Error())
	}
}

// PushGlobal appends the named global variable's current value, read from
// the most recently Run or Call'd module, to that module's result stack.
func (c *Context) PushGlobal(name string) error {
	if c.cur == nil {
		return fmt.Errorf("blacklua: PushGlobal: no module has been run yet")
	}
	g, ok := c.cur.vm.Program().Globals[name]
	if !ok {
		return fmt.Errorf("blacklua: no such global %q", name)
	}
	c.cur.buf = append(c.cur.buf, c.cur.vm.GlobalBytes(g.Offset, g.Size)...)
	return nil
}

// Pop discards the last n bytes most recently pushed onto the current
// module's result stack (by Call's return value, or PushGlobal).
func (c *Context) Pop(n int) {
	if c.cur == nil {
		return
	}
	if n > len(c.cur.buf) {
		n = len(c.cur.buf)
	}
	c.cur.buf = c.cur.buf[:len(c.cur.buf)-n]
}

// slot resolves a GetBool..GetPointer slotIndex against the current
// module's result buffer: negative counts backward from the top (the most
// recently pushed byte), positive counts forward from the base (the
// oldest byte still on the stack), matching spec.md §6.
func (c *Context) slot(slotIndex int, size int) []byte {
	if c.cur == nil {
		return make([]byte, size)
	}
	buf := c.cur.buf
	off := slotIndex
	if slotIndex < 0 {
		off = len(buf) + slotIndex
	}
	if off < 0 || off+size > len(buf) {
		return make([]byte, size)
	}
	return buf[off : off+size]
}

func (c *Context) GetBool(slotIndex int) bool { return vm.DecodeBool(c.slot(slotIndex, 1)) }
func (c *Context) GetChar(slotIndex int) int8  { return int8(vm.DecodeInt(c.slot(slotIndex, 1), true)) }
func (c *Context) GetShort(slotIndex int) int16 {
	return int16(vm.DecodeInt(c.slot(slotIndex, 2), true))
}
func (c *Context) GetInt(slotIndex int) int32 {
	return int32(vm.DecodeInt(c.slot(slotIndex, 4), true))
}
func (c *Context) GetLong(slotIndex int) int64 { return vm.DecodeInt(c.slot(slotIndex, 8), true) }
func (c *Context) GetFloat(slotIndex int) float32 {
	return float32(vm.DecodeFloat(c.slot(slotIndex, 4)))
}
func (c *Context) GetDouble(slotIndex int) float64 { return vm.DecodeFloat(c.slot(slotIndex, 8)) }
func (c *Context) GetPointer(slotIndex int) int64  { return vm.DecodeInt(c.slot(slotIndex, 8), false) }
