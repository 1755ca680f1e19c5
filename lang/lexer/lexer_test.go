package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blacklua-lang/blacklua/lang/token"
)

func scan(t *testing.T, src string) ([]token.Token, []string) {
	t.Helper()
	var errs []string
	f := token.NewFile("test.bl", len(src))
	toks := ScanAll(f, []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})
	return toks, errs
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks, errs := scan(t, "int x = foo;")
	require.Empty(t, errs)
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []token.Kind{
		token.INTTYPE, token.IDENT, token.ASSIGN, token.IDENT, token.SEMI, token.EOF,
	}, kinds)
	require.Equal(t, "x", toks[1].Text)
	require.Equal(t, "foo", toks[3].Text)
}

func TestScanNumericSuffixes(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
	}{
		{"123", token.INTLIT},
		{"123u", token.UINTLIT},
		{"123l", token.LONGLIT},
		{"123ul", token.ULONGLIT},
		{"123lu", token.ULONGLIT},
		{"1.5", token.DOUBLELIT},
		{"1.5f", token.FLOATLIT},
	}
	for _, c := range cases {
		toks, errs := scan(t, c.src)
		require.Empty(t, errs, c.src)
		require.Equal(t, c.kind, toks[0].Kind, c.src)
		require.Equal(t, c.src, toks[0].Text, c.src)
	}
}

func TestScanCharAndStringLiterals(t *testing.T) {
	toks, errs := scan(t, `'a' "hello"`)
	require.Empty(t, errs)
	require.Equal(t, token.CHARLIT, toks[0].Kind)
	require.Equal(t, "a", toks[0].Text)
	require.Equal(t, token.STRINGLIT, toks[1].Kind)
	require.Equal(t, "hello", toks[1].Text)
}

func TestScanUnterminatedStringReportsErrorButContinues(t *testing.T) {
	toks, errs := scan(t, `"abc`)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "unterminated string")
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Equal(t, token.EOF, toks[1].Kind)
}

func TestScanOperatorsAndCompoundForms(t *testing.T) {
	toks, errs := scan(t, "+ += - -= == != <= && || ^^")
	require.Empty(t, errs)
	want := []token.Kind{
		token.PLUS, token.PLUS_EQ, token.MINUS, token.MINUS_EQ,
		token.EQ, token.NEQ, token.LE, token.AMP_AMP, token.PIPE_PIPE, token.CARET_CARET,
		token.EOF,
	}
	got := make([]token.Kind, len(toks))
	for i, tok := range toks {
		got[i] = tok.Kind
	}
	require.Equal(t, want, got)
}

func TestScanLineComment(t *testing.T) {
	toks, errs := scan(t, "int x; // trailing comment\nint y;")
	require.Empty(t, errs)
	require.Len(t, toks, 7) // int x ; int y ; EOF
}

func TestSourceRangeDelimitsMatchedText(t *testing.T) {
	src := "int abcdef;"
	toks, _ := scan(t, src)
	ident := toks[1]
	require.Equal(t, "abcdef", ident.Text)
	require.Equal(t, ident.Text, src[ident.Range.Start:ident.Range.End])
}

func TestScanIsDeterministic(t *testing.T) {
	src := "int a = 1 + 2 * (3 - 4) / 5;"
	toks1, _ := scan(t, src)
	toks2, _ := scan(t, src)
	require.Equal(t, toks1, toks2)
}
