// Package parser implements the recursive-descent parser and inline
// semantic checker: it consumes the token stream from internal/lexer and
// builds the internal/ast tree, resolving every expression's type and
// rejecting ill-typed programs with a diag.Error. It follows the grammar
// and conversion rules of original_source/src/parser.c, translated from
// its tagged-union node constructors into the named ast.Node variants.
package parser

import (
	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
	"github.com/skx/cc/internal/diag"
	"github.com/skx/cc/internal/lexer"
	"github.com/skx/cc/internal/sema"
	"github.com/skx/cc/internal/token"
)

// Parser recognizes one translation unit (a sequence of function
// definitions) from a single lexer.
type Parser struct {
	lex *lexer.Lexer
	env *sema.Env

	// curFunc is the function definition currently being parsed, used to
	// type-check `return` statements against its declared return type.
	curFunc *ast.FuncDef

	// pending holds tokens pushed back by unget, most-recently-ungotten
	// last. The lexer itself only ever holds one token of lookahead;
	// routing unget through here lets the parser push back more than one
	// token (e.g. parseParamList's `(void` lookahead) without tripping
	// the lexer's "Unget called twice" contract.
	pending []*token.Token
}

// New creates a Parser over src, with the global environment pre-seeded
// with the puts/printf prelude (spec.md §4.2, §9).
func New(file, src string) *Parser {
	p := &Parser{
		lex: lexer.New(file, src),
		env: sema.NewGlobal(),
	}
	builtinInit(p.env)
	return p
}

func builtinInit(env *sema.Env) {
	charPtr := ctype.NewPointer(ctype.CharType)
	puts := &ast.FuncDecl{
		Name: "puts",
		Sig:  &ctype.FuncSig{Return: ctype.IntType, Params: []*ctype.Type{charPtr}},
	}
	env.Define("puts", &sema.Symbol{FuncDecl: puts})

	printf := &ast.FuncDecl{
		Name: "printf",
		Sig:  &ctype.FuncSig{Return: ctype.IntType, Params: []*ctype.Type{charPtr}, Variadic: true},
	}
	env.Define("printf", &sema.Symbol{FuncDecl: printf})
}

// errorf raises a fatal diagnostic anchored at t's position, formatted by
// diag.Errorf. Taking the token here keeps call sites close to
// original_source's errorf(parser, node, fmt, ...) invocations.
func (p *Parser) errorf(t *token.Token, format string, args ...interface{}) error {
	return diag.Errorf(t.File, t.Line, format, args...)
}

func (p *Parser) next() (*token.Token, error) {
	if n := len(p.pending); n > 0 {
		t := p.pending[n-1]
		p.pending = p.pending[:n-1]
		return t, nil
	}
	return p.lex.Next()
}

func (p *Parser) peek() (*token.Token, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	p.unget(t)
	return t, nil
}

func (p *Parser) unget(t *token.Token) {
	p.pending = append(p.pending, t)
}

// expectPunct consumes the next token and requires it to be the given
// punctuator, else raises "expected '%s'".
func (p *Parser) expectPunct(s token.Sub) (*token.Token, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if !t.IsPunct(s) {
		return nil, p.errorf(t, "expected '%s', got '%s'", punctText(s), t.Text())
	}
	return t, nil
}

func punctText(s token.Sub) string {
	for _, p := range token.Punctuators {
		if p.Sub == s {
			return p.Text
		}
	}
	return "?"
}

// ParseTranslationUnit parses the whole input: zero or more function
// definitions (this subset has no file-scope variable declarations).
func (p *Parser) ParseTranslationUnit() ([]*ast.FuncDef, error) {
	var funcs []*ast.FuncDef
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.EOF {
			break
		}
		fn, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}
	return funcs, nil
}
