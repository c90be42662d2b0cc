// Package parser implements a recursive descent parser for the C subset.
//
// Every production returns nil without consuming input when it does not
// match; productions that consume tokens before failing rewind the stream
// with Seek or Unpop. Errors that no alternative can recover from abort the
// whole parse.
package parser

import (
	"io"
	"log/slog"
	"math"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/lexer"
)

// Parser parses a token sequence into a cabs AST
type Parser struct {
	s      *lexer.Stream
	scope  *cabs.Scope
	logger *slog.Logger
	unary  map[int]memoEntry
}

type memoEntry struct {
	node cabs.Node
	end  int
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger for debug records. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithScope parses against an existing identifier context, so typedef
// names and enum constants bound by an earlier parse stay visible.
func WithScope(s *cabs.Scope) Option {
	return func(p *Parser) {
		if s != nil {
			p.scope = s
		}
	}
}

// New creates a new Parser over tokens
func New(tokens []lexer.Token, opts ...Option) *Parser {
	p := &Parser{
		s:      lexer.NewStream(tokens),
		scope:  cabs.NewScope(nil),
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		unary:  make(map[int]memoEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scope returns the identifier context the parser binds typedef names and
// enum constants in.
func (p *Parser) Scope() *cabs.Scope { return p.scope }

// Pos returns the stream cursor.
func (p *Parser) Pos() int { return p.s.Pos() }

// Parse parses a whole translation unit: a list of *cabs.FuncDef and
// *cabs.Decl items.
func (p *Parser) Parse() (unit *cabs.List, err error) {
	defer p.catch(&err)
	return p.parseTranslationUnit(), nil
}

// ParseStatement parses exactly one statement and requires the input to
// end after it.
func (p *Parser) ParseStatement() (stmt cabs.Node, err error) {
	defer p.catch(&err)
	stmt = p.parseStmt()
	p.expectEnd()
	return stmt, nil
}

// ParseDeclaration parses exactly one declaration and requires the input
// to end after it.
func (p *Parser) ParseDeclaration() (decl *cabs.Decl, err error) {
	defer p.catch(&err)
	decl = p.parseDecl()
	if decl == nil {
		p.syntaxError("expected declaration")
	}
	p.expectEnd()
	return decl, nil
}

// Parse parses tokens as a translation unit.
func Parse(tokens []lexer.Token, opts ...Option) (*cabs.List, error) {
	return New(tokens, opts...).Parse()
}

// ParseStatement lexes and parses a single statement from source text.
func ParseStatement(src string, opts ...Option) (cabs.Node, error) {
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens, opts...).ParseStatement()
}

// ParseDeclaration lexes and parses a single declaration from source text.
func ParseDeclaration(src string, opts ...Option) (*cabs.Decl, error) {
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens, opts...).ParseDeclaration()
}

func (p *Parser) parseTranslationUnit() *cabs.List {
	// translation-unit:
	//   [function-definition | declaration]+
	unit := cabs.NewList()
	for !p.s.AtEnd() {
		var item cabs.Node
		if f := p.parseFuncDef(); f != nil {
			item = f
			p.logger.Debug("read function definition", "name", f.Name())
		} else if d := p.parseDecl(); d != nil {
			item = d
			p.logger.Debug("read declaration", "declarators", d.InitDeclarators.Len())
		} else {
			break
		}
		unit.Append(item)
	}
	if tok, ok := p.s.Peek(); ok {
		p.syntaxErrorAt(tok, "unexpected token")
	}
	return unit
}

func (p *Parser) expect(text string) lexer.Token {
	tok, ok := p.s.Consume(text)
	if !ok {
		p.syntaxError("expected '%s'", text)
	}
	return tok
}

func (p *Parser) expectEnd() {
	if tok, ok := p.s.Peek(); ok {
		p.syntaxErrorAt(tok, "unexpected token")
	}
}

// parseSeparated parses elem [sep elem]*. A separator with no element
// after it is pushed back and ends the list.
func (p *Parser) parseSeparated(elem func() cabs.Node, sep string) *cabs.List {
	first := elem()
	if first == nil {
		return nil
	}
	list := cabs.NewList(first)
	for {
		if _, ok := p.s.Consume(sep); !ok {
			break
		}
		next := elem()
		if next == nil {
			p.s.Unpop()
			break
		}
		list.Append(next)
	}
	return list
}

// parseName accepts any non-keyword identifier: declared names, struct
// tags and member names.
func (p *Parser) parseName() *cabs.Ident {
	tok, ok := p.s.Peek()
	if !ok || tok.Kind != lexer.Identifier || lexer.IsKeyword(tok) {
		return nil
	}
	p.s.Pop()
	return &cabs.Ident{Token: tok}
}

// parseIdent accepts an identifier that is neither a keyword nor bound in
// the identifier context.
func (p *Parser) parseIdent() *cabs.Ident {
	tok, ok := p.s.Peek()
	if !ok || tok.Kind != lexer.Identifier || lexer.IsKeyword(tok) {
		return nil
	}
	if _, bound := p.scope.Lookup(tok.Text); bound {
		return nil
	}
	p.s.Pop()
	return &cabs.Ident{Token: tok}
}

func (p *Parser) parseIdentNode() cabs.Node {
	if id := p.parseIdent(); id != nil {
		return id
	}
	return nil
}

func (p *Parser) parseIdentList() *cabs.List {
	return p.parseSeparated(p.parseIdentNode, ",")
}

// isTypedefName reports whether tok names a type bound by an earlier
// typedef. It is the only place the grammar consults the identifier
// context to decide between a type and an expression.
func (p *Parser) isTypedefName(tok lexer.Token) bool {
	if tok.Kind != lexer.Identifier {
		return false
	}
	_, ok := p.scope.LookupType(tok.Text)
	return ok
}
