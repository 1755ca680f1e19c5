package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

// TokenizeFiles lexes each file independently and prints "file:line:col:
// KIND text" for every token, including the terminal EOF, matching the
// teacher's TokenizeFiles shape (lang/scanner.ScanFiles + token.FormatPos)
// adapted to BlackLua's single-file-per-unit token.File.
func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	var failed error
	for _, path := range files {
		u, err := lexFile(path)
		if err != nil && u == nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			failed = err
			continue
		}
		for _, tok := range u.toks {
			pos := u.file.Position(tok.Range.Start)
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", pos.Filename, pos.Line, pos.Col, tok.Kind)
			if tok.Text != "" {
				fmt.Fprintf(stdio.Stdout, " %s", tok.Text)
			}
			fmt.Fprintln(stdio.Stdout)
		}
		if len(u.errs) > 0 {
			u.printErrors(stdio.Stderr)
			failed = fmt.Errorf("%s: lex errors", path)
		}
	}
	return failed
}
