package maincmd_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua"
	"github.com/blacklua-lang/blacklua/internal/filetest"
)

// TestSamplePrograms compiles and runs every fixture under
// testdata/programs. It asserts end-to-end behavior (compile,
// instantiate, call "main") rather than diffing a golden pseudo-assembly
// or AST dump, since that dump isn't something worth pinning byte-for-
// byte across every future emitter change — a fixture that still
// compiles, links and returns without a runtime fault is the invariant
// worth protecting here.
func TestSamplePrograms(t *testing.T) {
	dir := filepath.Join("testdata", "programs")
	for _, fi := range filetest.SourceFiles(t, dir, ".bl") {
		t.Run(fi.Name(), func(t *testing.T) {
			ctx := blacklua.NewContext()
			var diags []string
			ctx.SetCompilerErrorHandler(func(line, col int, file, msg string) {
				diags = append(diags, msg)
			})

			prog, err := ctx.CompileFile(filepath.Join(dir, fi.Name()))
			require.NoError(t, err, "%v", diags)
			require.NoError(t, ctx.Run(prog, fi.Name()))
			require.NoError(t, ctx.Call("main", fi.Name()))
		})
	}
}
