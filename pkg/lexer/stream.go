package lexer

// Stream is a cursor over an immutable token slice. Tokens are never
// consumed destructively, so any position can be restored with Seek.
type Stream struct {
	tokens []Token
	pos    int
}

// NewStream creates a stream positioned at the first token.
func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Pos returns the cursor, 0 <= Pos() <= Len().
func (s *Stream) Pos() int { return s.pos }

// Len returns the number of tokens.
func (s *Stream) Len() int { return len(s.tokens) }

// Seek moves the cursor to pos, clamped to the valid range.
func (s *Stream) Seek(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(s.tokens):
		pos = len(s.tokens)
	}
	s.pos = pos
}

// AtEnd reports whether all tokens have been consumed.
func (s *Stream) AtEnd() bool { return s.pos >= len(s.tokens) }

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (Token, bool) {
	if s.AtEnd() {
		return Token{}, false
	}
	return s.tokens[s.pos], true
}

// Pop consumes and returns the next token.
func (s *Stream) Pop() (Token, bool) {
	tok, ok := s.Peek()
	if ok {
		s.pos++
	}
	return tok, ok
}

// Unpop steps the cursor back by one token.
func (s *Stream) Unpop() {
	if s.pos > 0 {
		s.pos--
	}
}

// IsNext reports whether the next token is the punctuator or identifier text.
func (s *Stream) IsNext(text string) bool {
	tok, ok := s.Peek()
	return ok && tok.Is(text)
}

// IsNextKind reports whether the next token has the given kind.
func (s *Stream) IsNextKind(kind TokenKind) bool {
	tok, ok := s.Peek()
	return ok && tok.Kind == kind
}

// IsNextIn reports whether the next token is one of texts.
func (s *Stream) IsNextIn(texts ...string) bool {
	tok, ok := s.Peek()
	if !ok {
		return false
	}
	for _, text := range texts {
		if tok.Is(text) {
			return true
		}
	}
	return false
}

// Consume pops the next token if it is text.
func (s *Stream) Consume(text string) (Token, bool) {
	if !s.IsNext(text) {
		return Token{}, false
	}
	return s.Pop()
}

// Last returns the most recently consumed token, or the final token when
// nothing has been consumed yet. It is used to position end-of-input errors.
func (s *Stream) Last() Token {
	if len(s.tokens) == 0 {
		return Token{}
	}
	if s.pos == 0 {
		return s.tokens[0]
	}
	return s.tokens[s.pos-1]
}
