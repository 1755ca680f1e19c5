package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversionCost(t *testing.T) {
	cases := []struct {
		name     string
		from, to *VariableType
		want     Cost
	}{
		{"identical int", IntType, IntType, None},
		{"int to long widens", IntType, LongType, Promotion},
		{"long to int narrows", LongType, IntType, Narrowing},
		{"float to double widens", FloatType, DoubleType, Promotion},
		{"int to uint sign mismatch", IntType, UIntType, RequiresExplicitCast},
		{"int to float needs cast", IntType, FloatType, RequiresExplicitCast},
		{"float to int needs cast", FloatType, IntType, RequiresExplicitCast},
		{"struct incompatible", StructOf(&StructLayout{Name: "P"}), IntType, Incompatible},
		{"array incompatible", ArrayOf(IntType), IntType, Incompatible},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, ConversionCost(c.from, c.to))
		})
	}
}

func TestCanExplicitlyCast(t *testing.T) {
	require.True(t, CanExplicitlyCast(IntType, FloatType))
	require.True(t, CanExplicitlyCast(IntType, UIntType))
	require.False(t, CanExplicitlyCast(IntType, StringType))
	require.False(t, CanExplicitlyCast(StructOf(&StructLayout{Name: "P"}), IntType))
}

func TestStructLayoutNoPadding(t *testing.T) {
	layout := NewStructLayout("P", []string{"x", "y", "flag"}, []*VariableType{IntType, IntType, BoolType})
	require.Equal(t, 9, layout.Size)
	require.Equal(t, 0, layout.FieldByName("x").Offset)
	require.Equal(t, 4, layout.FieldByName("y").Offset)
	require.Equal(t, 8, layout.FieldByName("flag").Offset)
}

func TestSize(t *testing.T) {
	require.Equal(t, 1, Size(BoolType))
	require.Equal(t, 1, Size(CharType))
	require.Equal(t, 2, Size(ShortType))
	require.Equal(t, 4, Size(IntType))
	require.Equal(t, 4, Size(FloatType))
	require.Equal(t, 8, Size(LongType))
	require.Equal(t, 8, Size(DoubleType))
	require.Equal(t, 8, Size(StringType))
	require.Equal(t, 8, Size(ArrayOf(IntType)))
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "int", IntType.String())
	require.Equal(t, "uint", UIntType.String())
	require.Equal(t, "int[]", ArrayOf(IntType).String())
	require.Equal(t, "P", StructOf(&StructLayout{Name: "P"}).String())
}

func TestMethodSymbol(t *testing.T) {
	require.Equal(t, "P__move", MethodSymbol("P", "move"))
}

func TestPrimitive(t *testing.T) {
	require.Equal(t, IntType, Primitive("int"))
	require.Equal(t, UIntType, Primitive("uint"))
	require.Nil(t, Primitive("notatype"))
}
