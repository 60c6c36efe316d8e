// Package compiler is the top-level facade over the lexer/parser/codegen
// pipeline. It keeps skx/math-compiler's shape -- a small object exposing
// New, SetDebug and Compile, with the lex/parse/emit stages hidden behind
// it -- but the three steps underneath now run this subset's own
// internal/parser (tokenizing, building and type-checking the AST in one
// pass) and internal/codegen (the System V x86-64 generator), in place of
// the teacher's RPN tokenizer/instruction-list/generator trio.
package compiler

import (
	"fmt"
	"io"

	"github.com/skx/cc/internal/codegen"
	"github.com/skx/cc/internal/parser"
)

// Compiler holds the state for one compilation.
type Compiler struct {
	// name identifies the input for diagnostics; it has no effect on
	// the generated assembly.
	name string

	// source is the full program text to compile.
	source string

	// debug controls whether a marker comment is prepended to the
	// generated assembly.
	debug bool
}

// New creates a new compiler for the contents of input, identified by
// name in any diagnostics it produces.
func New(name string, input io.Reader) (*Compiler, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &Compiler{name: name, source: string(data)}, nil
}

// SetDebug changes the debug-flag for our output.
func (c *Compiler) SetDebug(val bool) {
	c.debug = val
}

// Compile converts the input program into a collection of AMD64
// assembly, by parsing it into a type-checked AST and handing that to
// the code generator.
func (c *Compiler) Compile() (string, error) {
	p := parser.New(c.name, c.source)
	funcs, err := p.ParseTranslationUnit()
	if err != nil {
		return "", err
	}

	gen := codegen.New()
	out, err := gen.Compile(funcs)
	if err != nil {
		return "", err
	}

	if c.debug {
		out = fmt.Sprintf("\t# debug: %s compiled from %d function(s)\n%s", c.name, len(funcs), out)
	}
	return out, nil
}
