package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/blacklua-lang/blacklua/lang/ast"
)

func (c *Cmd) Check(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CheckFiles(stdio, args...)
}

// CheckFiles parses and type-checks each file independently, printing the
// resolved AST (types and inserted casts included) on success or the
// accumulated diagnostics on failure. Plays the role the teacher's Resolve
// command plays for its dynamic-language resolver pass, generalized to
// BlackLua's static type checker (lang/checker).
func CheckFiles(stdio mainer.Stdio, files ...string) error {
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
		if err := u.check(); err != nil {
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
