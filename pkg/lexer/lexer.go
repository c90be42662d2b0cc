// Package lexer turns C source text into the flat token sequence the parser
// consumes. Multi-character operators are merged here, and the one supported
// preprocessor directive, #include "file", is expanded in place.
package lexer

import (
	"fmt"
	"strings"
)

// Error is a lexical error with its source position.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Lexer tokenizes C source code
type Lexer struct {
	input    string
	pos      int  // current position in input
	readPos  int  // next reading position
	ch       byte // current character
	line     int
	file     string
	resolver *IncludeResolver
}

// New creates a new Lexer for the given input. Include directives are
// resolved relative to the working directory.
func New(input string) *Lexer {
	return NewFile("", input, nil)
}

// NewFile creates a Lexer for the contents of file. A nil resolver gets a
// fresh one with no extra search paths.
func NewFile(file, input string, r *IncludeResolver) *Lexer {
	if r == nil {
		r = NewIncludeResolver()
	}
	l := &Lexer{input: input, line: 1, file: file, resolver: r}
	l.readChar()
	return l
}

// Tokenize is a convenience wrapper around NewFile(...).Tokenize().
func Tokenize(file, input string, r *IncludeResolver) ([]Token, error) {
	return NewFile(file, input, r).Tokenize()
}

// TokenizeFile reads and tokenizes a file on disk.
func TokenizeFile(file string, r *IncludeResolver) ([]Token, error) {
	if r == nil {
		r = NewIncludeResolver()
	}
	content, err := r.read(file)
	if err != nil {
		return nil, err
	}
	if err := r.push(file); err != nil {
		return nil, err
	}
	defer r.pop()
	return NewFile(file, content, r).Tokenize()
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &Error{File: l.file, Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

// Tokenize consumes the whole input.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		l.skipWhitespace()
		if l.ch == 0 {
			return tokens, nil
		}
		if l.ch == '#' {
			included, err := l.directive()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, included...)
			continue
		}
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) nextToken() (Token, error) {
	tok := Token{File: l.file, Line: l.line}
	switch {
	case isLetter(l.ch):
		tok.Kind = Identifier
		tok.Text = l.readIdentifier()
		return tok, nil
	case isDigit(l.ch):
		// Read a whole pp-number so "0x1f" stays one token and "12ab" is
		// rejected by the parser as a malformed literal.
		tok.Kind = Integer
		tok.Text = l.readIdentifier()
		return tok, nil
	case l.ch == '"' || l.ch == '\'':
		quote := l.ch
		text, err := l.readQuoted(quote)
		if err != nil {
			return tok, err
		}
		tok.Kind = StringLiteral
		if quote == '\'' {
			tok.Kind = CharacterLiteral
		}
		tok.Text = text
		return tok, nil
	}

	punct := l.readPunctuator()
	if punct == "" {
		return tok, l.errorf("unexpected character %q", l.ch)
	}
	tok.Kind = Punctuator
	tok.Text = punct
	return tok, nil
}

// readPunctuator consumes the longest punctuator at the cursor.
func (l *Lexer) readPunctuator() string {
	begin := l.pos
	c := l.ch
	switch c {
	case '[', ']', '(', ')', '{', '}', '~', '?', ':', ';', ',':
		l.readChar()
	case '|', '&', '+':
		// | || |=   & && &=   + ++ +=
		l.readChar()
		if l.ch == c || l.ch == '=' {
			l.readChar()
		}
	case '-':
		// - -- -= ->
		l.readChar()
		if l.ch == '-' || l.ch == '=' || l.ch == '>' {
			l.readChar()
		}
	case '=', '!', '*', '/', '%', '^':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
		}
	case '<', '>':
		// < << <= <<=
		l.readChar()
		if l.ch == c {
			l.readChar()
			if l.ch == '=' {
				l.readChar()
			}
		} else if l.ch == '=' {
			l.readChar()
		}
	case '.':
		l.readChar()
		if l.ch == '.' && l.peekChar() == '.' {
			l.readChar()
			l.readChar()
		}
	default:
		return ""
	}
	return l.input[begin:l.pos]
}

// directive handles a '#' line. Only #include "file" is supported; the
// returned tokens are those of the included file.
func (l *Lexer) directive() ([]Token, error) {
	line := l.line
	l.readChar() // consume '#'
	var sb strings.Builder
	for l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' && l.peekChar() == '\n' {
			l.readChar()
			l.readChar()
			sb.WriteByte(' ')
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}

	sub := &Lexer{input: sb.String(), line: line, file: l.file, resolver: l.resolver}
	sub.readChar()
	words, err := sub.Tokenize()
	if err != nil {
		return nil, err
	}
	if len(words) == 0 || !words[0].Is("include") {
		name := ""
		if len(words) > 0 {
			name = words[0].Text
		}
		return nil, &Error{File: l.file, Line: line, Msg: fmt.Sprintf("unknown preprocessor directive %q", name)}
	}
	if len(words) < 2 || words[1].Kind != StringLiteral {
		return nil, &Error{File: l.file, Line: line, Msg: "expected string literal after #include"}
	}

	l.resolver.SetCurrentFile(l.file)
	path, err := l.resolver.Resolve(words[1].Text)
	if err != nil {
		return nil, &Error{File: l.file, Line: line, Msg: err.Error()}
	}
	return TokenizeFile(path, l.resolver)
}

func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume /
			l.readChar() // consume *
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar() // consume *
				l.readChar() // consume /
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func (l *Lexer) readQuoted(quote byte) (string, error) {
	l.readChar() // consume opening quote
	pos := l.pos
	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			return "", l.errorf("unterminated %s literal", literalName(quote))
		}
		if l.ch == '\\' {
			l.readChar() // skip escape char
			if l.ch == 0 {
				return "", l.errorf("unterminated %s literal", literalName(quote))
			}
		}
		l.readChar()
	}
	text := l.input[pos:l.pos]
	l.readChar() // consume closing quote
	return text, nil
}

func literalName(quote byte) string {
	if quote == '"' {
		return "string"
	}
	return "character"
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
