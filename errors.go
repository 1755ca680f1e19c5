package blacklua

import "fmt"

// Stage identifies which pipeline phase produced a CompileError, per
// spec.md §7's error taxonomy: a source file runs through lexing,
// parsing, and type checking in order, and the emitter's invariant checks
// after that, before it ever reaches the VM.
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageType
	StageInvariant
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex error"
	case StageParse:
		return "parse error"
	case StageType:
		return "type error"
	case StageInvariant:
		return "compile invariant violation"
	default:
		return "compile error"
	}
}

// CompileError is one diagnostic raised while compiling a source unit,
// with the (line, col, file, message) shape spec.md §6's
// SetCompilerErrorHandler callback is given.
type CompileError struct {
	Stage Stage
	File  string
	Line  int
	Col   int
	Msg   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Col, e.Stage, e.Msg)
}

// CompileFailed is returned by CompileFile/CompileString when one or more
// pipeline stages reported an error; per spec.md §7, a failure at any
// stage aborts compilation with a null program rather than attempting to
// compile an unsound AST further. Errs holds every diagnostic collected
// before compilation gave up, in the order stages ran.
type CompileFailed struct {
	Errs []*CompileError
}

func (e *CompileFailed) Error() string {
	if len(e.Errs) == 0 {
		return "compilation failed"
	}
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e.Errs[0], len(e.Errs)-1)
}
