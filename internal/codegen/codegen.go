// Package codegen walks a type-annotated AST and emits GNU AT&T x86-64
// System V assembly text. Its shape — a struct holding the output writer
// plus label/offset counters, and one gen* method per node kind — follows
// skx/math-compiler's compiler/generator.go, but every template is
// rewritten for this subset's scalar-register (not x87 stack) ABI and
// translated from original_source/src/gen.c's Intel-flavored approach
// into GNU assembler mnemonics and operand order.
package codegen

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
)

// Generator emits one translation unit's worth of assembly. The zero
// value is not usable; construct with New.
type Generator struct {
	out strings.Builder
	rodata strings.Builder

	jumpSeq int
	dataSeq int

	offset int // current distance, in bytes, between %rsp and %rbp

	negF32Label string
	negF64Label string
	one64Label  string
}

// New creates an empty Generator.
func New() *Generator {
	return &Generator{}
}

func (g *Generator) emit(format string, args ...interface{}) {
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteByte('\n')
}

func (g *Generator) emitRaw(s string) {
	g.out.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		g.out.WriteByte('\n')
	}
}

func (g *Generator) newJumpLabel() string {
	l := fmt.Sprintf(".L%d", g.jumpSeq)
	g.jumpSeq++
	return l
}

func (g *Generator) newDataLabel() string {
	l := fmt.Sprintf(".LC%d", g.dataSeq)
	g.dataSeq++
	return l
}

// Compile emits the full translation unit and returns the assembly text.
func (g *Generator) Compile(funcs []*ast.FuncDef) (string, error) {
	g.emit("\t.text")
	for _, fn := range funcs {
		if err := g.genFuncDef(fn); err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	sb.WriteString(g.out.String())
	if g.rodata.Len() > 0 {
		sb.WriteString("\t.section .rodata\n")
		sb.WriteString(g.rodata.String())
	}
	return sb.String(), nil
}

func alignUp(n, a int) int {
	if a <= 0 {
		return n
	}
	return (n + a - 1) / a * a
}

// sizeAlign returns the byte size and the stack alignment a declaration
// of type t requires, per spec.md §4.3 step 2: pointers and 8-byte
// scalars align to 8, everything else aligns to at least 4, arrays
// consume element_size*length and align like one element, except that
// an array whose total size is exactly 8 bytes aligns to 8.
func sizeAlign(t *ctype.Type) (size, align int) {
	switch t.Kind {
	case ctype.Array:
		size = t.Elem.Size * t.Len
		align = t.Elem.Size
	default:
		size = t.Size
		align = t.Size
	}
	if align < 4 {
		align = 4
	}
	elemKind := t.Kind
	if t.Kind == ctype.Array {
		elemKind = t.Elem.Kind
	}
	if elemKind == ctype.Pointer || size == 8 {
		align = 8
	}
	return
}

func (g *Generator) assignOffset(decl *ast.VarDecl) {
	size, align := sizeAlign(decl.Ctype())
	g.offset = alignUp(g.offset+size, align)
	decl.Offset = g.offset
}

func isFloatType(t *ctype.Type) bool {
	return t.Kind == ctype.Float || t.Kind == ctype.Double
}

// floatSuffix returns the precision letter that completes a scalar-SSE
// mnemonic written as "movs%s", "adds%s", "ucomis%s" and so on: "s" for
// float (movss), "d" for double (movsd).
func floatSuffix(t *ctype.Type) string {
	return lo.Ternary(t.Kind == ctype.Float, "s", "d")
}

// intSuffix returns the mnemonic size suffix for an integer-width
// operation: "l" for 4-byte, "q" for 8-byte (pointers).
func intSuffix(t *ctype.Type) string {
	if t.Size == 8 {
		return "q"
	}
	return "l"
}

// regName returns the width-appropriate name of a general register for
// t's size (8, 4, or 1 bytes).
func regName(reg string, size int) string {
	names := map[string][4]string{
		// [8-byte, 4-byte, 1-byte via al-style, unused]
		"a": {"%rax", "%eax", "%al", ""},
		"c": {"%rcx", "%ecx", "%cl", ""},
		"d": {"%rdx", "%edx", "%dl", ""},
	}
	row, ok := names[reg]
	if !ok {
		return reg
	}
	switch size {
	case 8:
		return row[0]
	case 1:
		return row[2]
	default:
		return row[1]
	}
}
