package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/blacklua-lang/blacklua/lang/ast"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(stdio, args...)
}

// ParseFiles parses each file independently and dumps the resulting AST
// with ast.Fprint, matching the teacher's ParseFiles shape (ast.Printer
// over parser.ParseFiles's chunks) adapted to BlackLua's single-file
// parser.New/ParseProgram API.
func ParseFiles(stdio mainer.Stdio, files ...string) error {
	var failed error
	for _, path := range files {
		u, err := lexAndParse(path)
		if u == nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			failed = err
			continue
		}
		if err != nil {
			u.printErrors(stdio.Stderr)
			failed = err
			continue
		}
		for _, s := range u.prog {
			ast.Fprint(stdio.Stdout, s)
		}
	}
	return failed
}
