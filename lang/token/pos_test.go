package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilePosition(t *testing.T) {
	// "ab\ncde\nf" — lines start at byte offsets 0, 3, 7.
	f := NewFile("test.bl", 8)
	f.AddLine(3)
	f.AddLine(7)

	cases := []struct {
		pos      Pos
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
	}
	for _, c := range cases {
		got := f.Position(c.pos)
		require.Equal(t, c.wantLine, got.Line, "pos %d", c.pos)
		require.Equal(t, c.wantCol, got.Col, "pos %d", c.pos)
		require.Equal(t, "test.bl", got.Filename)
	}
}

func TestFileAddLineIgnoresOutOfOrder(t *testing.T) {
	f := NewFile("t", 10)
	f.AddLine(5)
	f.AddLine(3) // out of order, ignored
	f.AddLine(5) // duplicate, ignored
	require.Equal(t, []int{0, 5}, f.lines)
}

func TestFileSet(t *testing.T) {
	fs := NewFileSet()
	require.Nil(t, fs.File())
	f := fs.AddFile("a.bl", 4)
	require.Same(t, f, fs.File())
	require.Equal(t, Position{Filename: "a.bl", Line: 1, Col: 1}, fs.Position(0))
}

func TestSourceRangeIsValid(t *testing.T) {
	require.False(t, SourceRange{}.IsValid())
	require.True(t, SourceRange{Start: 0, End: 1}.IsValid())
}
