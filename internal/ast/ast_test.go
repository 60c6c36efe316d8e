package ast

import (
	"testing"

	"github.com/skx/cc/internal/ctype"
)

func TestNewVarReflectsDeclType(t *testing.T) {
	decl := NewVarDecl("x", ctype.FloatType)
	v := NewVar("x", decl)
	if v.Ctype() != ctype.FloatType {
		t.Fatalf("Var.Ctype() = %s, want float", v.Ctype())
	}
	if v.Decl != decl {
		t.Fatalf("Var.Decl does not point at the originating VarDecl")
	}
}

func TestNewPrefixAndPostfixDistinguishForm(t *testing.T) {
	decl := NewVarDecl("x", ctype.IntType)
	v := NewVar("x", decl)

	post := NewPostfix(PInc, v, ctype.IntType)
	if post.Prefix {
		t.Fatalf("NewPostfix should build a post-form node (Prefix = false)")
	}

	pre := NewPrefix(PInc, v, ctype.IntType)
	if !pre.Prefix {
		t.Fatalf("NewPrefix should build a pre-form node (Prefix = true)")
	}
}

func TestSetTypeOverridesResolvedType(t *testing.T) {
	c := NewConstantInt(1)
	SetType(c, ctype.DoubleType)
	if c.Ctype() != ctype.DoubleType {
		t.Fatalf("SetType did not update Ctype()")
	}
}

func TestDeclListHoldsOrderedDecls(t *testing.T) {
	a := NewVarDecl("a", ctype.IntType)
	b := NewVarInit(NewVarDecl("b", ctype.IntType), NewConstantInt(2))
	list := &DeclList{Decls: []Node{a, b}}
	if len(list.Decls) != 2 || list.Decls[0] != Node(a) || list.Decls[1] != Node(b) {
		t.Fatalf("DeclList did not preserve its declarator order")
	}
	if list.Ctype() != nil {
		t.Fatalf("DeclList should have no type of its own")
	}
}

func TestNewArrayInitPreservesElems(t *testing.T) {
	target := NewVarDecl("arr", ctype.NewArray(ctype.IntType, 3))
	elems := []Node{NewConstantInt(1), NewConstantInt(2)}
	init := NewArrayInit(target, elems)
	if len(init.Elems) != 2 {
		t.Fatalf("expected 2 initializer elements, got %d", len(init.Elems))
	}
	if init.Ctype() != target.Ctype() {
		t.Fatalf("ArrayInit's type should match its target's array type")
	}
}

func TestNewFuncCallType(t *testing.T) {
	sig := &ctype.FuncSig{Return: ctype.IntType, Params: []*ctype.Type{ctype.IntType}}
	call := NewFuncCall("f", sig, []Node{NewConstantInt(1)}, ctype.IntType)
	if call.Ctype() != ctype.IntType {
		t.Fatalf("FuncCall.Ctype() = %s, want int", call.Ctype())
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Args))
	}
}
