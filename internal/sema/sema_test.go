package sema

import (
	"testing"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
)

func TestEnvLookupWalksParentChain(t *testing.T) {
	global := NewGlobal()
	decl := ast.NewVarDecl("x", ctype.IntType)
	global.Define("x", &Symbol{VarDecl: decl})

	child := global.Child()
	if sym := child.Lookup("x"); sym == nil || sym.VarDecl != decl {
		t.Fatalf("expected child scope to see global binding for x")
	}
	if sym := child.LookupLocal("x"); sym != nil {
		t.Fatalf("LookupLocal should not see the parent's binding")
	}
}

func TestEnvShadowing(t *testing.T) {
	global := NewGlobal()
	outer := ast.NewVarDecl("x", ctype.IntType)
	global.Define("x", &Symbol{VarDecl: outer})

	child := global.Child()
	inner := ast.NewVarDecl("x", ctype.FloatType)
	child.Define("x", &Symbol{VarDecl: inner})

	if sym := child.Lookup("x"); sym.VarDecl != inner {
		t.Fatalf("expected the inner binding to shadow the outer one")
	}
	if sym := global.Lookup("x"); sym.VarDecl != outer {
		t.Fatalf("expected the outer binding to be unaffected by shadowing")
	}
}

func TestIsLvalue(t *testing.T) {
	decl := ast.NewVarDecl("x", ctype.IntType)
	v := ast.NewVar("x", decl)
	deref := ast.NewUnary(ast.UDeref, v, ctype.IntType)
	neg := ast.NewUnary(ast.UNeg, v, ctype.IntType)

	if !IsLvalue(v) {
		t.Errorf("a Var should be an lvalue")
	}
	if !IsLvalue(deref) {
		t.Errorf("a dereference should be an lvalue")
	}
	if IsLvalue(neg) {
		t.Errorf("a negation should not be an lvalue")
	}
	if IsLvalue(ast.NewConstantInt(0)) {
		t.Errorf("a constant should not be an lvalue")
	}
}

func TestIsZeroAndIsNull(t *testing.T) {
	zero := ast.NewConstantInt(0)
	one := ast.NewConstantInt(1)
	if !IsZero(zero) {
		t.Errorf("expected the integer literal 0 to be recognized as zero")
	}
	if IsZero(one) {
		t.Errorf("expected the integer literal 1 not to be recognized as zero")
	}
	if !IsNull(zero) {
		t.Errorf("expected the integer literal 0 to stand in for a null pointer constant")
	}
}

func TestConvertIsNoopForMatchingType(t *testing.T) {
	c := ast.NewConstantInt(1)
	if Convert(c, ctype.IntType) != ast.Node(c) {
		t.Fatalf("Convert should return expr unchanged when already of type t")
	}
}

func TestConvertWrapsArithConv(t *testing.T) {
	c := ast.NewConstantInt(1)
	converted := Convert(c, ctype.FloatType)
	ac, ok := converted.(*ast.ArithConv)
	if !ok {
		t.Fatalf("expected Convert to produce an *ast.ArithConv, got %T", converted)
	}
	if ac.Ctype() != ctype.FloatType {
		t.Fatalf("expected the wrapped expression's type to be float")
	}
}
