package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Fprint writes an indented, human-readable dump of n to w, one node per
// line, following the teacher's per-node Format helper but rendering via a
// small recursive switch instead of the fmt.Formatter verb protocol (this
// AST has no quasi-lossless source-reconstruction requirement to drive
// that machinery). Mirrors spec.md §2 item 8's "AST dumper" surface.
func Fprint(w io.Writer, n Node) {
	fprintNode(w, n, 0)
}

func indent(w io.Writer, depth int) { fmt.Fprint(w, strings.Repeat("  ", depth)) }

func fprintNode(w io.Writer, n Node, depth int) {
	indent(w, depth)
	switch v := n.(type) {
	case *ConstantExpr:
		fmt.Fprintf(w, "Constant(%v)\n", constValue(v))
	case *VarRefExpr:
		fmt.Fprintf(w, "VarRef(%s)\n", v.Name)
	case *ArrayAccessExpr:
		fmt.Fprintln(w, "ArrayAccess")
		fprintNode(w, v.Parent, depth+1)
		fprintNode(w, v.Index, depth+1)
	case *SelfExpr:
		fmt.Fprintln(w, "Self")
	case *MemberExpr:
		fmt.Fprintf(w, "Member(%s)\n", v.Name)
		fprintNode(w, v.Parent, depth+1)
	case *MethodCallExpr:
		fmt.Fprintf(w, "MethodCall(%s)\n", v.Name)
		fprintNode(w, v.Parent, depth+1)
		for _, a := range v.Args {
			fprintNode(w, a, depth+1)
		}
	case *CallExpr:
		fmt.Fprintf(w, "Call(%s, extern=%t)\n", v.Name, v.Extern)
		for _, a := range v.Args {
			fprintNode(w, a, depth+1)
		}
	case *ParenExpr:
		fmt.Fprintln(w, "Paren")
		fprintNode(w, v.Inner, depth+1)
	case *CastExpr:
		fmt.Fprintf(w, "Cast(%s)\n", typeFormString(v.TypeName))
		fprintNode(w, v.Inner, depth+1)
	case *UnaryExpr:
		fmt.Fprintf(w, "UnaryOp(%s)\n", unaryOpString(v.Op))
		fprintNode(w, v.Inner, depth+1)
	case *BinaryExpr:
		fmt.Fprintf(w, "BinaryOp(%s)\n", binaryOpString(v.Op))
		fprintNode(w, v.LHS, depth+1)
		fprintNode(w, v.RHS, depth+1)
	case *BadExpr:
		fmt.Fprintln(w, "BadExpr")
	case *CompoundStmt:
		fmt.Fprintln(w, "Compound")
		for _, s := range v.Stmts {
			fprintNode(w, s, depth+1)
		}
	case *ExprStmt:
		fmt.Fprintln(w, "ExprStmt")
		fprintNode(w, v.Expr, depth+1)
	case *VarDeclStmt:
		fmt.Fprintf(w, "VarDecl(%s: %s)\n", v.Name, typeFormString(v.TypeName))
		if v.Init != nil {
			fprintNode(w, v.Init, depth+1)
		}
	case *ParamDeclStmt:
		fmt.Fprintf(w, "ParamDecl(%s: %s)\n", v.Name, typeFormString(v.TypeName))
	case *FunctionDeclStmt:
		fmt.Fprintf(w, "FunctionDecl(%s) -> %s extern=%t\n", v.Name, typeFormString(v.ReturnTypeName), v.Extern)
		for _, p := range v.Params {
			fprintNode(w, p, depth+1)
		}
		if v.Body != nil {
			fprintNode(w, v.Body, depth+1)
		}
	case *StructDeclStmt:
		fmt.Fprintf(w, "StructDecl(%s)\n", v.Name)
		for _, f := range v.Fields {
			indent(w, depth+1)
			fmt.Fprintf(w, "FieldDecl(%s: %s)\n", f.Name, typeFormString(f.TypeName))
		}
		for _, m := range v.Methods {
			fprintNode(w, m, depth+1)
		}
	case *WhileStmt:
		fmt.Fprintln(w, "While")
		fprintNode(w, v.Cond, depth+1)
		fprintNode(w, v.Body, depth+1)
	case *DoWhileStmt:
		fmt.Fprintln(w, "DoWhile")
		fprintNode(w, v.Body, depth+1)
		fprintNode(w, v.Cond, depth+1)
	case *ForStmt:
		fmt.Fprintln(w, "For")
		if v.Prologue != nil {
			fprintNode(w, v.Prologue, depth+1)
		}
		if v.Cond != nil {
			fprintNode(w, v.Cond, depth+1)
		}
		if v.Epilogue != nil {
			fprintNode(w, v.Epilogue, depth+1)
		}
		fprintNode(w, v.Body, depth+1)
	case *IfStmt:
		fmt.Fprintln(w, "If")
		fprintNode(w, v.Cond, depth+1)
		fprintNode(w, v.Body, depth+1)
		if v.Else != nil {
			fprintNode(w, v.Else, depth+1)
		}
	case *ReturnStmt:
		fmt.Fprintln(w, "Return")
		if v.Value != nil {
			fprintNode(w, v.Value, depth+1)
		}
	case *BreakStmt:
		fmt.Fprintln(w, "Break")
	case *ContinueStmt:
		fmt.Fprintln(w, "Continue")
	case *BadStmt:
		fmt.Fprintln(w, "BadStmt")
	default:
		fmt.Fprintln(w, "<unknown node>")
	}
}

func constValue(c *ConstantExpr) any {
	switch c.ConstKind {
	case ConstBool:
		return c.Bool
	case ConstFloat, ConstDouble:
		return c.Float
	case ConstString:
		return c.Str
	default:
		return c.Int
	}
}

func typeFormString(t TypeForm) string {
	if t.IsArray {
		return t.Name + "[]"
	}
	return t.Name
}

func unaryOpString(op UnaryOp) string {
	if op == Not {
		return "!"
	}
	return "-"
}

var binaryOpNames = map[BinaryOp]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%",
	AddAssign: "+=", SubAssign: "-=", MulAssign: "*=", DivAssign: "/=", ModAssign: "%=",
	Less: "<", LessEq: "<=", Greater: ">", GreaterEq: ">=", EqualOp: "==", NotEqual: "!=",
	Assign: "=", BitAnd: "&", BitOr: "|", BitXor: "^",
	BitAndAssign: "&=", BitOrAssign: "|=", BitXorAssign: "^=",
	LogicalAnd: "&&", LogicalOr: "||",
}

func binaryOpString(op BinaryOp) string { return binaryOpNames[op] }

// Sdump renders n with go-spew, for debug tooling that wants the full
// struct shape rather than the condensed Fprint form (SPEC_FULL.md §2:
// "structured dumps of AST/bytecode/VM state").
func Sdump(n Node) string { return spew.Sdump(n) }
