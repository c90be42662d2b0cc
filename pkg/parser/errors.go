package parser

import (
	"fmt"

	"github.com/compilium/compilium-go/pkg/lexer"
)

// SyntaxError reports a token the grammar cannot accept.
type SyntaxError struct {
	File  string
	Line  int
	Token string // offending token text, empty at end of input
	Msg   string
}

func (e *SyntaxError) Error() string {
	at := "end of input"
	if e.Token != "" {
		at = fmt.Sprintf("'%s'", e.Token)
	}
	return fmt.Sprintf("%s: syntax error at %s: %s", position(e.File, e.Line), at, e.Msg)
}

// SemanticError reports a well-formed construct the compiler does not
// support, such as a multi-word base type.
type SemanticError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *SemanticError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", position(e.File, e.Line), e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", position(e.File, e.Line), e.Msg)
}

func (e *SemanticError) Unwrap() error { return e.Err }

func position(file string, line int) string {
	if file == "" {
		return fmt.Sprintf("line %d", line)
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// bailout carries a fatal error up to the entry point that recovers it.
type bailout struct {
	err error
}

func (p *Parser) fail(err error) {
	panic(bailout{err: err})
}

// syntaxErrorAt aborts the parse at tok.
func (p *Parser) syntaxErrorAt(tok lexer.Token, format string, args ...any) {
	p.fail(&SyntaxError{File: tok.File, Line: tok.Line, Token: tok.Text, Msg: fmt.Sprintf(format, args...)})
}

// syntaxError aborts the parse at the next token, or at the end of input
// positioned after the last token.
func (p *Parser) syntaxError(format string, args ...any) {
	if tok, ok := p.s.Peek(); ok {
		p.syntaxErrorAt(tok, format, args...)
	}
	last := p.s.Last()
	p.fail(&SyntaxError{File: last.File, Line: last.Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) semanticError(tok lexer.Token, err error, format string, args ...any) {
	p.fail(&SemanticError{File: tok.File, Line: tok.Line, Msg: fmt.Sprintf(format, args...), Err: err})
}

// catch turns a bailout into the returned error. It must be deferred
// directly by every exported entry point.
func (p *Parser) catch(errp *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*errp = b.err
	}
}
