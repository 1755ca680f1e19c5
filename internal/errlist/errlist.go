// Package errlist accumulates compile-time diagnostics (lex, parse, and
// type errors) the way the teacher's lang/scanner package does: by
// re-exporting go/scanner's battle-tested ErrorList rather than hand-rolling
// a sortable error list.
package errlist

import (
	gotoken "go/token"

	"go/scanner"

	"github.com/blacklua-lang/blacklua/lang/token"
)

type (
	// Error is one positioned diagnostic.
	Error = scanner.Error
	// List accumulates Errors and sorts them by position on Sort, via the
	// same rules as go/scanner; Sort does not remove duplicates.
	List = scanner.ErrorList
)

// PrintError writes err to w the way go/scanner does, one line per
// diagnostic when err is a *List.
var PrintError = scanner.PrintError

// GoPos converts our own token.Position (line/col within one BlackLua
// source file) into the go/token.Position that go/scanner.ErrorList.Add
// expects.
func GoPos(p token.Position) gotoken.Position {
	return gotoken.Position{Filename: p.Filename, Line: p.Line, Column: p.Col}
}
