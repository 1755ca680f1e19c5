package maincmd

import (
	"fmt"
	"io"
	"os"

	"github.com/blacklua-lang/blacklua/internal/errlist"
	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/checker"
	"github.com/blacklua-lang/blacklua/lang/compiler"
	"github.com/blacklua-lang/blacklua/lang/lexer"
	"github.com/blacklua-lang/blacklua/lang/parser"
	"github.com/blacklua-lang/blacklua/lang/token"
)

// unit is one compiled source file, carried through however far a
// subcommand needs to take it (spec.md §3: BlackLua compiles one source
// unit at a time, so there is no cross-file linking to model here). Its
// diagnostics accumulate in an errlist.List (go/scanner's ErrorList)
// rather than a hand-rolled slice of strings, the way the teacher's
// lang/scanner package reports lex/parse errors.
type unit struct {
	path    string
	file    *token.File
	toks    []token.Token
	prog    []ast.Stmt
	errs    errlist.List
	checked bool
}

func (u *unit) errorf(rng token.SourceRange, format string, args ...any) {
	pos := u.file.Position(rng.Start)
	u.errs.Add(errlist.GoPos(pos), fmt.Sprintf(format, args...))
}

// lexFile reads and lexes path into a *unit without parsing it, for the
// tokenize subcommand's pure-lex-phase output.
func lexFile(path string) (*unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file := token.NewFile(path, len(src))
	u := &unit{path: path, file: file}
	u.toks = lexer.ScanAll(file, src, func(pos token.Position, msg string) {
		u.errs.Add(errlist.GoPos(pos), msg)
	})
	return u, nil
}

// lexAndParse reads path, lexes it, and parses it into a *unit. The *unit
// is nil only when path cannot be read; on a parse failure it is returned
// with the error so callers can report u.errs.
func lexAndParse(path string) (*unit, error) {
	u, err := lexFile(path)
	if err != nil {
		return nil, err
	}
	p := parser.New(u.toks, func(rng token.SourceRange, msg string) { u.errorf(rng, "%s", msg) })
	u.prog = p.ParseProgram()
	if p.Failed() {
		return u, fmt.Errorf("%s: parse failed", path)
	}
	return u, nil
}

// check runs the type checker over an already-parsed unit.
func (u *unit) check() error {
	ok := checker.Check(u.prog, func(rng token.SourceRange, msg string) { u.errorf(rng, "%s", msg) })
	u.checked = ok
	if !ok {
		return fmt.Errorf("%s: type check failed", u.path)
	}
	return nil
}

// printErrors writes every accumulated diagnostic to w, sorted by
// position, the way go/scanner.PrintError does.
func (u *unit) printErrors(w io.Writer) {
	u.errs.Sort()
	errlist.PrintError(w, u.errs)
}

// emit type-checks (if not already done) and emits bytecode for u.
func (u *unit) emit() (*compiler.Program, error) {
	if !u.checked {
		if err := u.check(); err != nil {
			return nil, err
		}
	}
	return compiler.Emit(u.prog), nil
}
