// Package sema holds the parser's semantic-analysis support: the scoped
// symbol environment, the type-checking predicates (lvalue-ness,
// null/zero literals) that original_source's parser.c inlines throughout
// parse_*_expr, and Convert for inserting arithmetic conversions. The
// arithmetic vs. pointer operand rules themselves stay in the parser.
package sema

import "github.com/skx/cc/internal/ast"

// Symbol is whatever an identifier can resolve to in scope: a variable
// declaration or a function (declared or defined).
type Symbol struct {
	VarDecl  *ast.VarDecl
	FuncDecl *ast.FuncDecl
	FuncDef  *ast.FuncDef
}

// Env is one link in the scope chain: a set of bindings plus a pointer to
// the enclosing scope. The chain is rooted at the global environment,
// matching spec.md's "tree rooted at the parser's global scope" invariant.
type Env struct {
	parent *Env
	table  map[string]*Symbol
}

// NewGlobal creates the root environment, pre-populated by the caller with
// the puts/printf prelude.
func NewGlobal() *Env {
	return &Env{table: make(map[string]*Symbol)}
}

// Child creates a fresh scope nested inside e, for a function body or a
// nested compound statement.
func (e *Env) Child() *Env {
	return &Env{parent: e, table: make(map[string]*Symbol)}
}

// Parent returns the enclosing scope, or nil at the global root.
func (e *Env) Parent() *Env { return e.parent }

// Define binds name to sym in this scope. Redefinition within the same
// scope overwrites, matching original_source's non-strict dict insert for
// shadowing parameters/locals; callers that need to reject redeclaration
// check LookupLocal first.
func (e *Env) Define(name string, sym *Symbol) {
	e.table[name] = sym
}

// Lookup walks the scope chain from e outward and returns the first
// binding found, or nil if name is never bound.
func (e *Env) Lookup(name string) *Symbol {
	for s := e; s != nil; s = s.parent {
		if sym, ok := s.table[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal reports whether name is bound directly in e, without
// walking to enclosing scopes — used to detect redeclaration within one
// block.
func (e *Env) LookupLocal(name string) *Symbol {
	return e.table[name]
}
