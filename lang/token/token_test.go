package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		require.NotEqual(t, "", k.String())
	}
	require.Equal(t, "illegal token", Kind(-1).String())
	require.Equal(t, "illegal token", maxKind.String())
}

func TestLookup(t *testing.T) {
	cases := []struct {
		ident string
		want  Kind
	}{
		{"if", IF},
		{"else", ELSE},
		{"while", WHILE},
		{"for", FOR},
		{"struct", STRUCT},
		{"extern", EXTERN},
		{"self", SELF},
		{"int", INTTYPE},
		{"double", DOUBLETYPE},
		{"true", TRUE},
		{"false", FALSE},
		{"notAKeyword", IDENT},
		{"x", IDENT},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Lookup(c.ident), c.ident)
	}
}

func TestIsKeywordIsTypeName(t *testing.T) {
	require.True(t, IF.IsKeyword())
	require.True(t, INTTYPE.IsKeyword())
	require.True(t, INTTYPE.IsTypeName())
	require.False(t, IF.IsTypeName())
	require.False(t, IDENT.IsKeyword())
	require.False(t, PLUS.IsKeyword())
}
