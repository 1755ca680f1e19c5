// Package ast defines BlackLua's two top-level sum types, Expr and Stmt
// (spec.md §3), plus the textual type-form the parser produces and the
// checker resolves. Node shapes are closed (one Go struct per variant, an
// unexported marker method) so the checker and emitter's switches are
// exhaustive, following the teacher's lang/ast package structure
// (Node/Expr/Stmt interfaces, one struct per production) generalized from
// the teacher's quasi-lossless scripting AST to BlackLua's typed C-like
// one.
package ast

import (
	"github.com/blacklua-lang/blacklua/lang/token"
	"github.com/blacklua-lang/blacklua/lang/types"
)

// Node is implemented by every AST node.
type Node interface {
	Range() token.SourceRange
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
	// ResolvedType returns the type the checker annotated this expression
	// with, or nil before the checker runs.
	ResolvedType() *types.VariableType
	SetResolvedType(*types.VariableType)
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// TypeForm is the parser's textual spelling of a type: a primitive keyword
// or struct identifier, optionally followed by "[]" (spec.md §4.2: "Types
// are stored textually in the AST and resolved in §4.3").
type TypeForm struct {
	Name    string
	IsArray bool
	Rng     token.SourceRange
}

// Range implements Node.
func (t TypeForm) Range() token.SourceRange { return t.Rng }

// exprBase is embedded by every Expr to supply the Range/ResolvedType
// bookkeeping common to all of them.
type exprBase struct {
	Rng      token.SourceRange
	Resolved *types.VariableType
}

func (e *exprBase) Range() token.SourceRange                 { return e.Rng }
func (e *exprBase) ResolvedType() *types.VariableType         { return e.Resolved }
func (e *exprBase) SetResolvedType(t *types.VariableType)     { e.Resolved = t }
func (*exprBase) exprNode()                                   {}

// stmtBase supplies the Range bookkeeping common to every Stmt.
type stmtBase struct {
	Rng token.SourceRange
}

func (s *stmtBase) Range() token.SourceRange { return s.Rng }
func (*stmtBase) stmtNode()                  {}

// ConstKind identifies which literal family a ConstantExpr holds.
type ConstKind int8

const (
	ConstBool ConstKind = iota
	ConstChar
	ConstInt
	ConstUInt
	ConstLong
	ConstULong
	ConstFloat
	ConstDouble
	ConstString
)

// ConstantExpr is a literal value (spec.md §3:
// "Constant(bool|char|int{signed?}|long{signed?}|float|double|string)").
type ConstantExpr struct {
	exprBase
	ConstKind ConstKind
	Bool      bool
	Int       int64  // holds Char/Int/UInt/Long/ULong bit patterns
	Float     float64 // holds Float/Double
	Str       string
}

// VarRefExpr references a declared variable or global by name.
type VarRefExpr struct {
	exprBase
	Name string
}

// ArrayAccessExpr is parent[index].
type ArrayAccessExpr struct {
	exprBase
	Parent Expr
	Index  Expr
}

// SelfExpr is the `self` keyword inside a method body.
type SelfExpr struct {
	exprBase
}

// MemberExpr is parent.name (a struct field access).
type MemberExpr struct {
	exprBase
	Parent Expr
	Name   string
}

// MethodCallExpr is parent.name(args).
type MethodCallExpr struct {
	exprBase
	Parent Expr
	Name   string
	Args   []Expr
}

// CallExpr is name(args): a user function call, or an extern call when
// Extern is true (resolved by name against the host's native registry
// rather than a label).
type CallExpr struct {
	exprBase
	Name   string
	Args   []Expr
	Extern bool
}

// ParenExpr is a parenthesized expression, kept as its own node so casts
// can be disambiguated from grouping during parsing.
type ParenExpr struct {
	exprBase
	Inner Expr
}

// CastExpr is (TypeName) inner.
type CastExpr struct {
	exprBase
	TypeName TypeForm
	Inner    Expr
}

// UnaryOp identifies a prefix unary operator.
type UnaryOp int8

const (
	Negate UnaryOp = iota
	Not
)

// UnaryExpr is a prefix unary operation.
type UnaryExpr struct {
	exprBase
	Op    UnaryOp
	Inner Expr
}

// BinaryOp enumerates every binary operator spec.md §3 lists, including the
// in-place compound-assignment forms.
type BinaryOp int8

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	Less
	LessEq
	Greater
	GreaterEq
	EqualOp
	NotEqual
	Assign
	BitAnd
	BitOr
	BitXor
	BitAndAssign
	BitOrAssign
	BitXorAssign
	LogicalAnd
	LogicalOr
)

// IsInPlace reports whether op both reads and writes its left operand
// (+=, -=, *=, /=, %=, &=, |=, ^=).
func (op BinaryOp) IsInPlace() bool {
	switch op {
	case AddAssign, SubAssign, MulAssign, DivAssign, ModAssign, BitAndAssign, BitOrAssign, BitXorAssign:
		return true
	default:
		return false
	}
}

// BinaryExpr is a binary operation, including plain assignment (op ==
// Assign).
type BinaryExpr struct {
	exprBase
	Op       BinaryOp
	LHS, RHS Expr
}

// CompoundStmt is a brace-delimited list of statements, spec.md's "{ ... }"
// block; the emitter wraps it in a runtime stack frame.
type CompoundStmt struct {
	stmtBase
	Stmts []Stmt
}

// VarDeclStmt declares a local or global variable, with an optional
// initializer.
type VarDeclStmt struct {
	stmtBase
	Name     string
	TypeName TypeForm
	Init     Expr
	Resolved *types.VariableType
}

// ParamDeclStmt declares one function or method parameter.
type ParamDeclStmt struct {
	stmtBase
	Name     string
	TypeName TypeForm
	Resolved *types.VariableType
}

// FunctionDeclStmt declares a function (or, when embedded in a
// StructDeclStmt, a method). Body is nil for an extern declaration.
type FunctionDeclStmt struct {
	stmtBase
	Name           string
	Params         []*ParamDeclStmt
	ReturnTypeName TypeForm
	Body           *CompoundStmt
	Extern         bool
	ResolvedReturn *types.VariableType
}

// FieldDecl is one struct field declaration.
type FieldDecl struct {
	Rng      token.SourceRange
	Name     string
	TypeName TypeForm
	Resolved *types.VariableType
}

// Range implements Node.
func (f FieldDecl) Range() token.SourceRange { return f.Rng }

// StructDeclStmt declares a struct's fields and methods.
type StructDeclStmt struct {
	stmtBase
	Name    string
	Fields  []FieldDecl
	Methods []*FunctionDeclStmt
}

// WhileStmt is while (cond) body.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body Stmt
}

// DoWhileStmt is do body while (cond);.
type DoWhileStmt struct {
	stmtBase
	Body Stmt
	Cond Expr
}

// ForStmt is for (prologue; cond; epilogue) body. Any of Prologue, Cond,
// Epilogue may be nil (an omitted clause).
type ForStmt struct {
	stmtBase
	Prologue Stmt
	Cond     Expr
	Epilogue Stmt
	Body     Stmt
}

// IfStmt is if (cond) body [else elseArm]. Else is nil when there is no
// else arm.
type IfStmt struct {
	stmtBase
	Cond Expr
	Body Stmt
	Else Stmt
}

// ExprStmt is an expression evaluated for its side effects and discarded
// (spec.md §4.2: "Any other statement is an expression statement").
type ExprStmt struct {
	stmtBase
	Expr Expr
}

// ReturnStmt returns Value (nil for a void return).
type ReturnStmt struct {
	stmtBase
	Value Expr
}

// BreakStmt is `break;`.
type BreakStmt struct{ stmtBase }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ stmtBase }

// BadExpr is a parser-error placeholder, letting the parser keep scanning
// for further diagnostics without cascading panics (spec.md §4.2).
type BadExpr struct{ exprBase }

// BadStmt is the statement-level equivalent of BadExpr.
type BadStmt struct{ stmtBase }
