package sema

import (
	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
)

// IsLvalue reports whether n is one of the three lvalue node kinds spec.md
// names: a variable reference, a not-yet-flipped declaration, or a
// dereference. (This rewrite never actually flips VarDecl to Var at
// codegen time — see ast.Var's doc comment — and the parser wraps every
// identifier reference in an ast.Var, but the predicate still accepts a
// VarDecl.)
func IsLvalue(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.Var:
		return true
	case *ast.VarDecl:
		return true
	case *ast.Unary:
		return v.Op == ast.UDeref
	}
	return false
}

// IsZero reports whether n is the integer literal 0, used to recognize a
// literal-zero divisor and a null-pointer-constant comparison/assignment.
func IsZero(n ast.Node) bool {
	c, ok := n.(*ast.Constant)
	return ok && c.Type == ctype.IntType && c.IVal == 0
}

// IsNull reports whether n may stand in for a null pointer constant: the
// literal 0 with no further requirement on its static type.
func IsNull(n ast.Node) bool {
	return IsZero(n)
}

// Convert wraps expr in an ast.ArithConv to target t, unless expr is
// already of type t.
func Convert(expr ast.Node, t *ctype.Type) ast.Node {
	if expr.Ctype() == t {
		return expr
	}
	return ast.NewArithConv(expr, t)
}
