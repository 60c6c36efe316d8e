package codegen

import (
	"strconv"

	"github.com/skx/cc/internal/ast"
)

// intArgRegs names the six System V integer argument registers, indexed
// by width: 8-byte, 4-byte, 1-byte.
var intArgRegs = [6][3]string{
	{"%rdi", "%edi", "%dil"},
	{"%rsi", "%esi", "%sil"},
	{"%rdx", "%edx", "%dl"},
	{"%rcx", "%ecx", "%cl"},
	{"%r8", "%r8d", "%r8b"},
	{"%r9", "%r9d", "%r9b"},
}

func intArgReg(i, size int) string {
	row := intArgRegs[i]
	switch size {
	case 8:
		return row[0]
	case 1:
		return row[2]
	default:
		return row[1]
	}
}

func floatArgReg(i int) string {
	return "%xmm" + strconv.Itoa(i)
}

// genFuncDef emits one function's prologue, body and epilogue, per
// spec.md §4.3's "Stack frame construction" protocol.
func (g *Generator) genFuncDef(fn *ast.FuncDef) error {
	g.offset = 0

	g.emit("\t.globl %s", fn.Name)
	g.emit("\t.type %s, @function", fn.Name)
	g.emit("%s:", fn.Name)
	g.emit("\tpushq %%rbp")
	g.emit("\tmovq %%rsp, %%rbp")

	for _, p := range fn.Params {
		g.assignOffset(p)
	}
	frame := alignUp(g.offset, 8)
	if frame > 0 {
		g.emit("\tsubq $%d, %%rsp", frame)
	}

	intIdx, floatIdx := 0, 0
	for _, p := range fn.Params {
		if isFloatType(p.Ctype()) {
			g.emit("\tmovs%s %s, -%d(%%rbp)", floatSuffix(p.Ctype()), floatArgReg(floatIdx), p.Offset)
			floatIdx++
		} else {
			size := p.Ctype().Size
			if size < 4 {
				size = 4
			}
			g.emit("\tmov%s %s, -%d(%%rbp)", intSuffixForSize(size), intArgReg(intIdx, size), p.Offset)
			intIdx++
		}
	}

	if err := g.genCompoundStmt(fn.Body); err != nil {
		return err
	}

	g.emit("\tleave")
	g.emit("\tret")
	return nil
}

func intSuffixForSize(size int) string {
	switch size {
	case 8:
		return "q"
	case 1:
		return "b"
	default:
		return "l"
	}
}

// localDeclsOf returns the VarDecl nodes directly introduced by stmts, in
// order, without recursing into nested compound statements or control-flow
// bodies (those manage their own frame slice on their own entry/exit, per
// spec.md §4.3's per-compound-statement bump/restore rule).
func localDeclsOf(stmts []ast.Node) []*ast.VarDecl {
	var decls []*ast.VarDecl
	var add func(n ast.Node)
	add = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.VarDecl:
			decls = append(decls, v)
		case *ast.VarInit:
			decls = append(decls, v.Target)
		case *ast.ArrayInit:
			decls = append(decls, v.Target)
		case *ast.DeclList:
			for _, d := range v.Decls {
				add(d)
			}
		}
	}
	for _, s := range stmts {
		add(s)
	}
	return decls
}
