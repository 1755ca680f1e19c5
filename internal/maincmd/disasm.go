package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/blacklua-lang/blacklua/lang/compiler"
)

func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFiles(stdio, args...)
}

// DisasmFiles compiles each file through the checker and emitter and
// writes the resulting bytecode's pseudo-assembly text (spec.md §6), one
// file at a time, preceded by its path when disassembling more than one.
func DisasmFiles(stdio mainer.Stdio, files ...string) error {
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
		prog, err := u.emit()
		if err != nil {
			u.printErrors(stdio.Stderr)
			failed = err
			continue
		}
		if len(files) > 1 {
			fmt.Fprintf(stdio.Stdout, "; %s\n", path)
		}
		compiler.WriteDisassembly(stdio.Stdout, prog)
	}
	return failed
}
