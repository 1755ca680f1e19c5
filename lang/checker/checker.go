// Package checker implements BlackLua's type checker: it walks a parsed
// program, resolves every TypeForm to a types.VariableType, builds the
// global symbol and struct tables, and annotates the AST with resolved
// types and implicit casts. Its scope-stack shape (a linked/slice stack of
// name->binding maps, pushed on block entry and popped on exit) is grounded
// on the teacher's lang/resolver package; the actual rules enforced —
// redeclaration, conversion cost, implicit-cast insertion, return-type and
// call-argument checking — are grounded on
// original_source/internal/compiler/type_checker.cpp, since the teacher's
// resolver (a dynamic-language binding resolver) has no type system to
// mirror directly.
package checker

import (
	"fmt"

	"github.com/blacklua-lang/blacklua/internal/arena"
	"github.com/blacklua-lang/blacklua/lang/ast"
	"github.com/blacklua-lang/blacklua/lang/token"
	"github.com/blacklua-lang/blacklua/lang/types"
)

// symbol is a top-level declaration: a variable, function, or method.
type symbol struct {
	typ        *types.VariableType
	isFunc     bool
	extern     bool
	paramTypes []*types.VariableType
}

// scope is one lexical block's variable bindings, linked to its parent.
// returnType is non-nil only inside a function or method body, letting
// CheckNodeReturn (here, checkReturn) validate that return is legal and
// type-check its value against the enclosing function's declared return
// type, mirroring the original's Scope::ReturnType field.
type scope struct {
	parent     *scope
	vars       map[string]*types.VariableType
	returnType *types.VariableType
}

func (s *scope) lookup(name string) (*types.VariableType, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Checker performs one type-checking pass over a parsed program.
type Checker struct {
	err func(rng token.SourceRange, msg string)

	globals map[string]*symbol
	structs map[string]*types.StructLayout

	cur    *scope
	castArena arena.Arena[ast.CastExpr]

	failed bool
}

// New creates a Checker. errHandler is invoked for every type error found;
// checking continues afterward so multiple errors can be reported in one
// pass (mirroring the parser's recovery behavior).
func New(errHandler func(token.SourceRange, string)) *Checker {
	return &Checker{
		err:     errHandler,
		globals: make(map[string]*symbol),
		structs: make(map[string]*types.StructLayout),
	}
}

// Failed reports whether any type error was recorded.
func (c *Checker) Failed() bool { return c.failed }

func (c *Checker) errorf(rng token.SourceRange, format string, args ...any) {
	c.failed = true
	if c.err != nil {
		c.err(rng, fmt.Sprintf(format, args...))
	}
}

func (c *Checker) pushScope(returnType *types.VariableType) {
	rt := returnType
	if rt == nil && c.cur != nil {
		rt = c.cur.returnType
	}
	c.cur = &scope{parent: c.cur, vars: make(map[string]*types.VariableType), returnType: rt}
}

func (c *Checker) popScope() { c.cur = c.cur.parent }

// declareLocal adds name to the innermost scope, reporting a redeclaration
// error if name is already bound there (spec.md §4.3: "redeclaration in
// the same scope is an error").
func (c *Checker) declareLocal(rng token.SourceRange, name string, t *types.VariableType) {
	if _, ok := c.cur.vars[name]; ok {
		c.errorf(rng, "redeclaring identifier: %s", name)
		return
	}
	c.cur.vars[name] = t
}

// Check type-checks prog in place, annotating every Expr/VarDeclStmt/
// ParamDeclStmt/FunctionDeclStmt/FieldDecl with its resolved type and
// rewriting implicit-cast sites into CastExpr nodes. It returns false if
// any error was recorded, mirroring TypeChecker::IsValid in the original.
func Check(prog []ast.Stmt, errHandler func(token.SourceRange, string)) bool {
	c := New(errHandler)
	c.checkProgram(prog)
	return !c.failed
}

// checkProgram runs two passes over the top-level declarations: first
// registering every struct layout and function/extern signature so forward
// references and mutual recursion resolve, then checking bodies and
// top-level variable initializers in source order. Grounded on the
// original's two-step "declare struct/function signature, then check
// scope contents" shape, generalized to a whole-program forward pass since
// our parser (unlike the original's incremental compiler) has the full
// top-level statement list available up front.
func (c *Checker) checkProgram(prog []ast.Stmt) {
	for _, s := range prog {
		c.declareTopLevel(s)
	}
	c.cur = &scope{vars: make(map[string]*types.VariableType)}
	for _, s := range prog {
		c.checkTopLevel(s)
	}
	c.cur = nil
}

func (c *Checker) declareTopLevel(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.StructDeclStmt:
		c.declareStruct(v)
	case *ast.FunctionDeclStmt:
		c.declareFunction(v, "")
	}
}

func (c *Checker) declareStruct(decl *ast.StructDeclStmt) {
	if _, ok := c.structs[decl.Name]; ok {
		c.errorf(decl.Rng, "redeclaring struct: %s", decl.Name)
		return
	}
	fieldNames := make([]string, len(decl.Fields))
	fieldTypes := make([]*types.VariableType, len(decl.Fields))
	for i := range decl.Fields {
		fieldNames[i] = decl.Fields[i].Name
		fieldTypes[i] = c.resolveTypeForm(decl.Fields[i].TypeName)
	}
	layout := types.NewStructLayout(decl.Name, fieldNames, fieldTypes)
	c.structs[decl.Name] = layout
	for i := range decl.Fields {
		decl.Fields[i].Resolved = fieldTypes[i]
	}
	for _, m := range decl.Methods {
		c.declareFunction(m, decl.Name)
	}
}

func (c *Checker) declareFunction(decl *ast.FunctionDeclStmt, structName string) {
	name := decl.Name
	if structName != "" {
		name = types.MethodSymbol(structName, decl.Name)
	}
	if existing, ok := c.globals[name]; ok {
		if decl.Body != nil && existing.extern {
			c.errorf(decl.Rng, "defining function marked extern: %s", decl.Name)
		} else if decl.Body == nil && !existing.extern {
			// a second extern declaration of an already-defined function is
			// allowed to pass through silently; redeclaration checks focus on
			// the body-defining case, per the original's behavior.
		}
	}
	retType := c.resolveTypeForm(decl.ReturnTypeName)
	paramTypes := make([]*types.VariableType, len(decl.Params))
	for i, p := range decl.Params {
		paramTypes[i] = c.resolveTypeForm(p.TypeName)
		p.Resolved = paramTypes[i]
	}
	c.globals[name] = &symbol{typ: retType, isFunc: true, extern: decl.Extern, paramTypes: paramTypes}
	decl.ResolvedReturn = retType
}

func (c *Checker) checkTopLevel(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.VarDeclStmt:
		c.checkVarDecl(v)
	case *ast.FunctionDeclStmt:
		c.checkFunctionBody(v, "")
	case *ast.StructDeclStmt:
		for _, m := range v.Methods {
			c.checkFunctionBody(m, v.Name)
		}
	case *ast.ReturnStmt:
		c.checkReturn(v)
	}
}

func (c *Checker) checkVarDecl(decl *ast.VarDeclStmt) {
	t := c.resolveTypeForm(decl.TypeName)
	decl.Resolved = t
	c.declareLocal(decl.Rng, decl.Name, t)
	if decl.Init != nil {
		initType := c.checkExpr(decl.Init)
		cost := types.ConversionCost(initType, t)
		if cost == types.RequiresExplicitCast || cost == types.Incompatible {
			c.errorf(decl.Rng, "cannot implicitly cast from %s to %s", initType, t)
		} else if cost != types.None {
			decl.Init = c.insertCast(decl.Init, t, initType)
		}
	}
}

func (c *Checker) checkFunctionBody(decl *ast.FunctionDeclStmt, structName string) {
	if decl.Body == nil {
		return
	}
	retType := decl.ResolvedReturn
	if retType == nil {
		retType = c.resolveTypeForm(decl.ReturnTypeName)
		decl.ResolvedReturn = retType
	}
	c.pushScope(retType)
	if structName != "" {
		if layout, ok := c.structs[structName]; ok {
			c.cur.vars["self"] = types.StructOf(layout)
		}
	}
	for _, p := range decl.Params {
		p.Resolved = c.resolveTypeForm(p.TypeName)
		c.declareLocal(p.Rng, p.Name, p.Resolved)
	}
	for _, st := range decl.Body.Stmts {
		c.checkStmt(st)
	}
	c.popScope()
}

// checkStmt checks one statement within a function body.
func (c *Checker) checkStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.CompoundStmt:
		c.pushScope(nil)
		for _, st := range v.Stmts {
			c.checkStmt(st)
		}
		c.popScope()
	case *ast.VarDeclStmt:
		c.checkVarDecl(v)
	case *ast.ExprStmt:
		c.checkExpr(v.Expr)
	case *ast.WhileStmt:
		c.checkExpr(v.Cond)
		c.checkStmt(v.Body)
	case *ast.DoWhileStmt:
		c.checkStmt(v.Body)
		c.checkExpr(v.Cond)
	case *ast.ForStmt:
		c.pushScope(nil)
		if v.Prologue != nil {
			c.checkStmt(v.Prologue)
		}
		if v.Cond != nil {
			c.checkExpr(v.Cond)
		}
		if v.Epilogue != nil {
			c.checkStmt(v.Epilogue)
		}
		c.checkStmt(v.Body)
		c.popScope()
	case *ast.IfStmt:
		c.checkExpr(v.Cond)
		c.checkStmt(v.Body)
		if v.Else != nil {
			c.checkStmt(v.Else)
		}
	case *ast.ReturnStmt:
		c.checkReturn(v)
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.BadStmt:
		// nothing to check
	}
}

func (c *Checker) checkReturn(ret *ast.ReturnStmt) {
	if c.cur == nil || c.cur.returnType == nil {
		c.errorf(ret.Rng, "cannot return from a non-function scope")
		return
	}
	if ret.Value == nil {
		if c.cur.returnType.Kind != types.Void {
			c.errorf(ret.Rng, "missing return value for non-void function")
		}
		return
	}
	exprType := c.checkExpr(ret.Value)
	cost := types.ConversionCost(exprType, c.cur.returnType)
	switch cost {
	case types.Incompatible, types.RequiresExplicitCast:
		c.errorf(ret.Rng, "cannot implicitly cast from %s to %s", exprType, c.cur.returnType)
	case types.None:
	default:
		ret.Value = c.insertCast(ret.Value, c.cur.returnType, exprType)
	}
}

// checkExpr type-checks expr, returning its resolved type (never nil: an
// unresolvable expression resolves to types.VoidType so callers can keep
// walking without nil-checking).
func (c *Checker) checkExpr(expr ast.Expr) *types.VariableType {
	t := c.checkExprImpl(expr)
	if t == nil {
		t = types.VoidType
	}
	expr.SetResolvedType(t)
	return t
}

func (c *Checker) checkExprImpl(expr ast.Expr) *types.VariableType {
	switch v := expr.(type) {
	case *ast.ConstantExpr:
		return c.constantType(v)
	case *ast.VarRefExpr:
		if t, ok := c.cur.lookup(v.Name); ok {
			return t
		}
		if sym, ok := c.globals[v.Name]; ok && !sym.isFunc {
			return sym.typ
		}
		c.errorf(v.Rng, "undeclared identifier %s", v.Name)
		return types.VoidType
	case *ast.SelfExpr:
		if t, ok := c.cur.lookup("self"); ok {
			return t
		}
		c.errorf(v.Rng, "self used outside a method")
		return types.VoidType
	case *ast.ArrayAccessExpr:
		parentType := c.checkExpr(v.Parent)
		c.checkExpr(v.Index)
		if parentType.Kind != types.Array {
			c.errorf(v.Rng, "indexed expression is not an array")
			return types.VoidType
		}
		return parentType.Elem
	case *ast.MemberExpr:
		parentType := c.checkExpr(v.Parent)
		if parentType.Kind != types.Struct {
			c.errorf(v.Rng, "member access on non-struct type %s", parentType)
			return types.VoidType
		}
		field := parentType.Layout.FieldByName(v.Name)
		if field == nil {
			c.errorf(v.Rng, "unknown field %s on struct %s", v.Name, parentType.Layout.Name)
			return types.VoidType
		}
		return field.Type
	case *ast.MethodCallExpr:
		return c.checkMethodCall(v)
	case *ast.CallExpr:
		return c.checkCall(v)
	case *ast.ParenExpr:
		return c.checkExpr(v.Inner)
	case *ast.CastExpr:
		srcType := c.checkExpr(v.Inner)
		dstType := c.resolveTypeForm(v.TypeName)
		if !types.CanExplicitlyCast(srcType, dstType) {
			c.errorf(v.Rng, "cannot cast from %s to %s", srcType, dstType)
		}
		return dstType
	case *ast.UnaryExpr:
		return c.checkExpr(v.Inner)
	case *ast.BinaryExpr:
		return c.checkBinary(v)
	case *ast.BadExpr:
		return types.VoidType
	default:
		return types.VoidType
	}
}

func (c *Checker) constantType(v *ast.ConstantExpr) *types.VariableType {
	switch v.ConstKind {
	case ast.ConstBool:
		return types.BoolType
	case ast.ConstChar:
		return types.CharType
	case ast.ConstInt:
		return types.IntType
	case ast.ConstUInt:
		return types.UIntType
	case ast.ConstLong:
		return types.LongType
	case ast.ConstULong:
		return types.ULongType
	case ast.ConstFloat:
		return types.FloatType
	case ast.ConstDouble:
		return types.DoubleType
	case ast.ConstString:
		return types.StringType
	default:
		return types.VoidType
	}
}

func (c *Checker) checkMethodCall(v *ast.MethodCallExpr) *types.VariableType {
	parentType := c.checkExpr(v.Parent)
	if parentType.Kind != types.Struct {
		c.errorf(v.Rng, "method call on non-struct type %s", parentType)
		return types.VoidType
	}
	sig := types.MethodSymbol(parentType.Layout.Name, v.Name)
	sym, ok := c.globals[sig]
	if !ok {
		c.errorf(v.Rng, "no matching method to call: %s", v.Name)
		return types.VoidType
	}
	c.checkCallArgs(v.Rng, v.Name, sym, v.Args)
	return sym.typ
}

func (c *Checker) checkCall(v *ast.CallExpr) *types.VariableType {
	sym, ok := c.globals[v.Name]
	if !ok || !sym.isFunc {
		c.errorf(v.Rng, "undeclared identifier %s", v.Name)
		for _, a := range v.Args {
			c.checkExpr(a)
		}
		return types.VoidType
	}
	v.Extern = sym.extern
	c.checkCallArgs(v.Rng, v.Name, sym, v.Args)
	return sym.typ
}

// checkCallArgs checks arity, then each argument's type against the
// matching parameter, inserting an implicit cast where the conversion cost
// allows it (spec.md §4.3 / original's FunctionCallExpr handling).
func (c *Checker) checkCallArgs(rng token.SourceRange, name string, sym *symbol, args []ast.Expr) {
	if len(args) != len(sym.paramTypes) {
		c.errorf(rng, "no matching function to call: %s", name)
		for _, a := range args {
			c.checkExpr(a)
		}
		return
	}
	for i, a := range args {
		argType := c.checkExpr(a)
		paramType := sym.paramTypes[i]
		cost := types.ConversionCost(argType, paramType)
		switch cost {
		case types.Incompatible, types.RequiresExplicitCast:
			c.errorf(rng, "mismatched function argument types, parameter type is %s, while argument type is %s", paramType, argType)
		case types.None:
		default:
			args[i] = c.insertCast(a, paramType, argType)
		}
	}
}

// checkBinary type-checks a binary expression, reconciling mismatched
// operand types by casting the narrower side up (assignment always casts
// the right-hand side, per the original's "cannot cast the left side of an
// assignment" rule), and resolving the result type: the left operand's
// type for arithmetic/assignment forms, bool for comparisons.
func (c *Checker) checkBinary(v *ast.BinaryExpr) *types.VariableType {
	lhsType := c.checkExpr(v.LHS)
	rhsType := c.checkExpr(v.RHS)

	cost := types.ConversionCost(lhsType, rhsType)
	switch cost {
	case types.None:
	case types.Incompatible, types.RequiresExplicitCast:
		c.errorf(v.Rng, "mismatched types, have %s and %s", lhsType, rhsType)
	default:
		if v.Op == ast.Assign || types.Size(lhsType) > types.Size(rhsType) {
			v.RHS = c.insertCast(v.RHS, lhsType, rhsType)
		} else {
			v.LHS = c.insertCast(v.LHS, rhsType, lhsType)
			lhsType = rhsType
		}
	}

	if v.Op == ast.Assign && !isLValue(v.LHS) {
		c.errorf(v.LHS.Range(), "expression must be a modifiable lvalue")
	}

	switch v.Op {
	case ast.Less, ast.LessEq, ast.Greater, ast.GreaterEq, ast.EqualOp, ast.NotEqual:
		return types.BoolType
	default:
		return lhsType
	}
}

func isLValue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.VarRefExpr, *ast.MemberExpr, *ast.ArrayAccessExpr:
		return true
	default:
		return false
	}
}

// insertCast wraps inner in an arena-allocated CastExpr targeting dst,
// preserving inner's original source range (spec.md §4.3: "implicit casts
// are represented as synthesized CastExpr nodes wrapping the original
// subtree"), mirroring the original's InsertImplicitCast node-replacement.
func (c *Checker) insertCast(inner ast.Expr, dst, src *types.VariableType) ast.Expr {
	n := c.castArena.New()
	n.Rng = inner.Range()
	n.TypeName = ast.TypeForm{Name: dst.String(), Rng: inner.Range()}
	n.Inner = inner
	n.SetResolvedType(dst)
	return n
}

// resolveTypeForm resolves a parsed TypeForm to its canonical
// VariableType: a primitive, a previously declared struct, or (with
// IsArray set) an array of either.
func (c *Checker) resolveTypeForm(tf ast.TypeForm) *types.VariableType {
	var base *types.VariableType
	if p := types.Primitive(tf.Name); p != nil {
		base = p
	} else if layout, ok := c.structs[tf.Name]; ok {
		base = types.StructOf(layout)
	} else {
		c.errorf(tf.Rng, "undeclared identifier %s", tf.Name)
		base = types.VoidType
	}
	if tf.IsArray {
		return types.ArrayOf(base)
	}
	return base
}
