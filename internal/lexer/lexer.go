// Package lexer turns a character stream into the token stream the parser
// consumes. It follows the shape of skx/math-compiler's lexer (a rune
// buffer with a read/peek cursor) generalized to the full punctuator,
// keyword, character- and string-literal, and numeric-literal rules of
// the C subset, plus the line/column/prev-column tracking original_source's
// lexer.c performs so diagnostics can report an accurate position.
package lexer

import (
	"github.com/skx/cc/internal/diag"
	"github.com/skx/cc/internal/token"
)

// Lexer converts a rune buffer into tokens. The zero value is not usable;
// construct with New.
type Lexer struct {
	file string
	src  []rune
	pos  int // index of the next unread rune

	line, col     int
	prevCol       int

	pushed   *token.Token
	hasPushed bool
}

// New binds a Lexer to the named source's full contents.
func New(file, input string) *Lexer {
	return &Lexer{
		file: file,
		src:  []rune(input),
		line: 1,
		col:  0,
	}
}

func (l *Lexer) getChar() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.prevCol = l.col
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) ungetChar(ch rune) {
	l.pos--
	if ch == '\n' {
		l.line--
		l.col = l.prevCol
	} else {
		l.col--
	}
}

func (l *Lexer) peekChar() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

// errorf formats a fatal lexical diagnostic anchored at the lexer's current
// position.
func (l *Lexer) errorf(format string, args ...interface{}) error {
	return diag.Errorf(l.file, l.line, format, args...)
}

// Unget pushes back exactly one token. Calling it while a token is still
// pending (twice without an intervening Next, or right after a Peek, which
// leaves its token pushed back) is a contract violation and panics,
// matching the "pushing twice is a fatal contract violation" rule.
func (l *Lexer) Unget(t *token.Token) {
	if l.hasPushed {
		panic("lexer: Unget called with a token already pending")
	}
	l.pushed = t
	l.hasPushed = true
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (*token.Token, error) {
	t, err := l.Next()
	if err != nil {
		return nil, err
	}
	l.Unget(t)
	return t, nil
}

// Next consumes and returns the next token, or a Token with Kind == EOF
// when the source is exhausted.
func (l *Lexer) Next() (*token.Token, error) {
	if l.hasPushed {
		t := l.pushed
		l.pushed = nil
		l.hasPushed = false
		return t, nil
	}

	l.skipWhitespace()

	line, col := l.line, l.col
	ch, ok := l.peekChar()
	if !ok {
		return &token.Token{Kind: token.EOF, File: l.file, Line: line, Col: col}, nil
	}

	switch {
	case isDigit(ch):
		return l.lexNumber(line, col)
	case ch == '_' || isLetter(ch):
		return l.lexIdentifier(line, col)
	case ch == '\'':
		return l.lexChar(line, col)
	case ch == '"':
		return l.lexString(line, col)
	default:
		return l.lexPunct(line, col)
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		ch, ok := l.peekChar()
		if !ok {
			return
		}
		switch ch {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			l.getChar()
		default:
			return
		}
	}
}

func isDigit(ch rune) bool  { return ch >= '0' && ch <= '9' }
func isLetter(ch rune) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }

func (l *Lexer) lexIdentifier(line, col int) (*token.Token, error) {
	var runes []rune
	for {
		ch, ok := l.peekChar()
		if !ok || !(ch == '_' || isLetter(ch) || isDigit(ch)) {
			break
		}
		l.getChar()
		runes = append(runes, ch)
	}
	name := string(runes)
	if sub, ok := token.Keywords[name]; ok {
		return &token.Token{Kind: token.Keyword, Sub: sub, File: l.file, Line: line, Col: col}, nil
	}
	return &token.Token{Kind: token.Identifier, Lit: name, File: l.file, Line: line, Col: col}, nil
}

// lexNumber accepts digits, an optional fractional part, an optional
// exponent, and an optional f/F suffix. A bare integer directly followed
// by f/F (no '.' or exponent) is rejected, matching the rule in spec §4.1.
func (l *Lexer) lexNumber(line, col int) (*token.Token, error) {
	var runes []rune
	hasFraction := false
	hasExponent := false

	for {
		ch, ok := l.peekChar()
		if !ok || !isDigit(ch) {
			break
		}
		l.getChar()
		runes = append(runes, ch)
	}

	if ch, ok := l.peekChar(); ok && ch == '.' {
		hasFraction = true
		l.getChar()
		runes = append(runes, ch)
		for {
			ch, ok := l.peekChar()
			if !ok || !isDigit(ch) {
				break
			}
			l.getChar()
			runes = append(runes, ch)
		}
	}

	if ch, ok := l.peekChar(); ok && (ch == 'e' || ch == 'E') {
		hasExponent = true
		save := l.pos
		l.getChar()
		runes = append(runes, ch)
		if s, ok := l.peekChar(); ok && (s == '+' || s == '-') {
			l.getChar()
			runes = append(runes, s)
		}
		digits := 0
		for {
			ch, ok := l.peekChar()
			if !ok || !isDigit(ch) {
				break
			}
			l.getChar()
			runes = append(runes, ch)
			digits++
		}
		if digits == 0 {
			// no digits after 'e'/'E': the read position is reset to the
			// 'e', but the literal is not re-lexed without it, since
			// original_source treats a malformed exponent as fatal.
			l.pos = save
			return nil, l.errorf("malformed exponent in numeric literal")
		}
	}

	if ch, ok := l.peekChar(); ok && (ch == 'f' || ch == 'F') {
		if !hasFraction && !hasExponent {
			return nil, l.errorf("invalid suffix 'f' on integer literal")
		}
		l.getChar()
		runes = append(runes, ch)
	}

	return &token.Token{Kind: token.Number, Lit: string(runes), File: l.file, Line: line, Col: col}, nil
}

var escapes = map[rune]rune{
	'\'': '\'',
	'"':  '"',
	'?':  '?',
	'\\': '\\',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

func (l *Lexer) lexEscape() (rune, error) {
	ch, ok := l.getChar()
	if !ok {
		return 0, l.errorf("unterminated escape sequence")
	}
	if mapped, ok := escapes[ch]; ok {
		return mapped, nil
	}
	return 0, l.errorf("unknown escape sequence '\\%c'", ch)
}

func (l *Lexer) lexChar(line, col int) (*token.Token, error) {
	l.getChar() // opening quote
	ch, ok := l.getChar()
	if !ok {
		return nil, l.errorf("unterminated character literal")
	}
	var value rune
	if ch == '\\' {
		v, err := l.lexEscape()
		if err != nil {
			return nil, err
		}
		value = v
	} else {
		value = ch
	}
	closing, ok := l.getChar()
	if !ok || closing != '\'' {
		return nil, l.errorf("unterminated character literal")
	}
	return &token.Token{Kind: token.Character, IVal: int64(value), File: l.file, Line: line, Col: col}, nil
}

func (l *Lexer) lexString(line, col int) (*token.Token, error) {
	l.getChar() // opening quote
	var runes []rune
	for {
		ch, ok := l.getChar()
		if !ok {
			return nil, l.errorf("unterminated string literal")
		}
		if ch == '"' {
			break
		}
		if ch == '\\' {
			v, err := l.lexEscape()
			if err != nil {
				return nil, err
			}
			runes = append(runes, v)
			continue
		}
		runes = append(runes, ch)
	}
	return &token.Token{Kind: token.String, Lit: string(runes), File: l.file, Line: line, Col: col}, nil
}

func (l *Lexer) lexPunct(line, col int) (*token.Token, error) {
	for _, p := range token.Punctuators {
		if l.matchAt(p.Text) {
			for range []rune(p.Text) {
				l.getChar()
			}
			return &token.Token{Kind: token.Punctuator, Sub: p.Sub, File: l.file, Line: line, Col: col}, nil
		}
	}
	ch, _ := l.peekChar()
	return nil, l.errorf("unrecognized character '%c'", ch)
}

func (l *Lexer) matchAt(text string) bool {
	runes := []rune(text)
	if l.pos+len(runes) > len(l.src) {
		return false
	}
	for i, r := range runes {
		if l.src[l.pos+i] != r {
			return false
		}
	}
	return true
}
