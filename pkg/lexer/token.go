package lexer

import "fmt"

// TokenKind is the lexical category of a token. Keywords are identifiers;
// the parser tells them apart by text.
type TokenKind int

const (
	Identifier TokenKind = iota
	Integer
	StringLiteral
	CharacterLiteral
	Punctuator
)

var kindNames = map[TokenKind]string{
	Identifier:       "IDENT",
	Integer:          "INT",
	StringLiteral:    "STRING",
	CharacterLiteral: "CHAR",
	Punctuator:       "PUNCT",
}

func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a lexical token. String and character literal text is
// stored without the surrounding quotes and with escapes left as written.
type Token struct {
	Kind TokenKind
	Text string
	File string
	Line int
}

// Is reports whether t is a punctuator or identifier spelled s.
// Literal tokens never match, so a string literal "=" is not an operator.
func (t Token) Is(s string) bool {
	if t.Kind != Punctuator && t.Kind != Identifier {
		return false
	}
	return t.Text == s
}

// Pos renders the token position as file:line.
func (t Token) Pos() string {
	if t.File == "" {
		return fmt.Sprintf("line %d", t.Line)
	}
	return fmt.Sprintf("%s:%d", t.File, t.Line)
}

func (t Token) String() string {
	return fmt.Sprintf("(%s %q at %s)", t.Kind, t.Text, t.Pos())
}

// NewToken creates a token with no source position, used for synthesized
// operators such as the '*' and '+' of subscript sugar.
func NewToken(kind TokenKind, text string) Token {
	return Token{Kind: kind, Text: text}
}

var keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extern": true,
	"float": true, "for": true, "goto": true, "if": true,
	"inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "_Bool": true, "_Complex": true,
	"_Imaginary": true,
}

// IsKeyword reports whether an identifier token is a C keyword.
func IsKeyword(t Token) bool {
	return t.Kind == Identifier && keywords[t.Text]
}
