package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFprintRendersNestedExpression(t *testing.T) {
	lhs := &VarRefExpr{Name: "x"}
	rhs := &ConstantExpr{ConstKind: ConstInt, Int: 3}
	bin := &BinaryExpr{Op: Add, LHS: lhs, RHS: rhs}

	var sb strings.Builder
	Fprint(&sb, bin)
	out := sb.String()

	require.Contains(t, out, "BinaryOp(+)")
	require.Contains(t, out, "VarRef(x)")
	require.Contains(t, out, "Constant(3)")
}

func TestFprintFunctionDecl(t *testing.T) {
	fn := &FunctionDeclStmt{
		Name:           "add",
		ReturnTypeName: TypeForm{Name: "int"},
		Params: []*ParamDeclStmt{
			{Name: "x", TypeName: TypeForm{Name: "int"}},
		},
		Body: &CompoundStmt{Stmts: []Stmt{&ReturnStmt{Value: &VarRefExpr{Name: "x"}}}},
	}
	var sb strings.Builder
	Fprint(&sb, fn)
	out := sb.String()
	require.Contains(t, out, "FunctionDecl(add) -> int extern=false")
	require.Contains(t, out, "ParamDecl(x: int)")
	require.Contains(t, out, "Return")
}

func TestSdumpIncludesFieldNames(t *testing.T) {
	out := Sdump(&VarRefExpr{Name: "y"})
	require.Contains(t, out, "Name:")
}
