package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/blacklua-lang/blacklua/internal/stdlib"
	"github.com/blacklua-lang/blacklua/lang/compiler"
	"github.com/blacklua-lang/blacklua/lang/vm"
)

// EntryFunc is the function Run calls after global initialization.
const EntryFunc = "main"

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("run: at least one file must be provided")
	}
	return RunFile(stdio, args[0], EntryFunc)
}

// RunFile compiles path and calls entry in a fresh VM, after first calling
// compiler.InitFuncName to populate global variables (spec.md §4.5's
// calling convention for top-level initializers). Output the called
// function produces is whatever its extern/native bodies write to stdio;
// RunFile itself only reports a non-nil error.
func RunFile(stdio mainer.Stdio, path, entry string) error {
	u, err := lexAndParse(path)
	if u == nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	if err != nil {
		u.printErrors(stdio.Stderr)
		return err
	}
	prog, err := u.emit()
	if err != nil {
		u.printErrors(stdio.Stderr)
		return err
	}

	m := vm.New(prog)
	stdlib.Register(m)

	if _, err := m.Call(compiler.InitFuncName, nil); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	if _, err := m.Call(entry, nil); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	return nil
}
