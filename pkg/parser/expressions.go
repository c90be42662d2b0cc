package parser

import (
	"strconv"
	"strings"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/ctypes"
	"github.com/compilium/compilium-go/pkg/lexer"
)

var assignOps = []string{"=", "*=", "/=", "%=", "+=", "-=", "<<=", ">>=", "&=", "^=", "|="}

func (p *Parser) parseExpression() cabs.Node {
	// expression:
	//   assignment-expression [, assignment-expression]*
	return p.parseLeftAssoc(p.parseAssignExpr, ",")
}

// parseLeftAssoc parses sub [op sub]* and folds to the left.
func (p *Parser) parseLeftAssoc(sub func() cabs.Node, ops ...string) cabs.Node {
	last := sub()
	for last != nil && p.s.IsNextIn(ops...) {
		op, _ := p.s.Pop()
		right := sub()
		if right == nil {
			p.syntaxError("expected expression after '%s'", op.Text)
			return nil
		}
		last = &cabs.BinaryOp{Op: op, Left: last, Right: right}
	}
	return last
}

func (p *Parser) parseAssignExpr() cabs.Node {
	// assignment-expression:
	//   conditional-expression
	//   unary-expression assignment-operator assignment-expression
	start := p.s.Pos()
	left := p.parseUnaryExpr()
	if left == nil || !p.s.IsNextIn(assignOps...) {
		p.s.Seek(start)
		return p.parseConditionalExpr()
	}
	op, _ := p.s.Pop()
	right := p.parseAssignExpr()
	if right == nil {
		p.s.Seek(start)
		return p.parseConditionalExpr()
	}
	return &cabs.BinaryOp{Op: op, Left: left, Right: right}
}

func (p *Parser) parseConditionalExpr() cabs.Node {
	cond := p.parseLogicalOrExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.s.Consume("?"); !ok {
		return cond
	}
	then := p.parseExpression()
	if then == nil {
		p.syntaxError("expected expression after '?'")
		return nil
	}
	p.expect(":")
	els := p.parseConditionalExpr()
	if els == nil {
		p.syntaxError("expected expression after ':'")
		return nil
	}
	return &cabs.Conditional{Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseLogicalOrExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseLogicalAndExpr, "||")
}

func (p *Parser) parseLogicalAndExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseInclusiveOrExpr, "&&")
}

func (p *Parser) parseInclusiveOrExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseExclusiveOrExpr, "|")
}

func (p *Parser) parseExclusiveOrExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseAndExpr, "^")
}

func (p *Parser) parseAndExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseEqualityExpr, "&")
}

func (p *Parser) parseEqualityExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseRelationalExpr, "==", "!=")
}

func (p *Parser) parseRelationalExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseShiftExpr, "<", ">", "<=", ">=")
}

func (p *Parser) parseShiftExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseAdditiveExpr, "<<", ">>")
}

func (p *Parser) parseAdditiveExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseMultiplicativeExpr, "+", "-")
}

func (p *Parser) parseMultiplicativeExpr() cabs.Node {
	return p.parseLeftAssoc(p.parseCastExpr, "*", "/", "%")
}

func (p *Parser) parseCastExpr() cabs.Node {
	// cast-expression:
	//   unary-expression
	//   ( type-name ) cast-expression
	if _, ok := p.s.Consume("("); !ok {
		return p.parseUnaryExpr()
	}
	to := p.parseTypeName()
	if to == nil {
		p.s.Unpop()
		return p.parseUnaryExpr()
	}
	p.expect(")")
	operand := p.parseCastExpr()
	if operand == nil {
		p.syntaxError("expected expression after cast")
		return nil
	}
	return &cabs.Cast{To: to, Operand: operand}
}

// parseUnaryExpr is memoized by start position: the assignment rule parses
// a unary-expression speculatively and the conditional rule it falls back
// to parses the same one again.
func (p *Parser) parseUnaryExpr() cabs.Node {
	start := p.s.Pos()
	if m, ok := p.unary[start]; ok {
		p.s.Seek(m.end)
		return m.node
	}
	n := p.unaryExpr()
	p.unary[start] = memoEntry{node: n, end: p.s.Pos()}
	return n
}

func (p *Parser) unaryExpr() cabs.Node {
	if p.s.IsNextIn("&", "*", "+", "-", "~", "!") {
		op, _ := p.s.Pop()
		operand := p.parseCastExpr()
		if operand == nil {
			p.syntaxError("expected operand after '%s'", op.Text)
			return nil
		}
		return &cabs.UnaryPreOp{Op: op, Operand: operand}
	}
	if p.s.IsNextIn("++", "--") {
		op, _ := p.s.Pop()
		operand := p.parseUnaryExpr()
		if operand == nil {
			p.syntaxError("expected operand after '%s'", op.Text)
			return nil
		}
		return &cabs.UnaryPreOp{Op: op, Operand: operand}
	}
	if op, ok := p.s.Consume("sizeof"); ok {
		if operand := p.parseUnaryExpr(); operand != nil {
			return &cabs.UnaryPreOp{Op: op, Operand: operand}
		}
		p.expect("(")
		to := p.parseTypeName()
		if to == nil {
			p.syntaxError("expected type name after sizeof")
			return nil
		}
		p.expect(")")
		if _, err := ctypes.Sizeof(to.Type); err != nil {
			p.semanticError(op, err, "invalid sizeof operand")
		}
		return &cabs.UnaryPreOp{Op: op, Operand: to}
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() cabs.Node {
	// postfix-expression:
	//   primary-expression
	//   postfix-expression [ expression ]
	//   postfix-expression ( argument-expression-list_opt )
	//   postfix-expression . identifier
	//   postfix-expression -> identifier
	//   postfix-expression ++
	//   postfix-expression --
	last := p.parsePrimaryExpr()
	if last == nil {
		return nil
	}
	for {
		if _, ok := p.s.Consume("("); ok {
			args := p.parseSeparated(p.parseAssignExpr, ",")
			if args == nil {
				args = cabs.NewList()
			}
			p.expect(")")
			last = &cabs.FuncCall{Callee: last, Args: args}
		} else if open, ok := p.s.Consume("["); ok {
			index := p.parseExpression()
			if index == nil {
				p.syntaxError("expected subscript expression")
				return nil
			}
			p.expect("]")
			// a[i] is *(a + i)
			last = &cabs.UnaryPreOp{
				Op:      synthesize(open, "*"),
				Operand: &cabs.BinaryOp{Op: synthesize(open, "+"), Left: last, Right: index},
			}
		} else if p.s.IsNextIn("++", "--") {
			op, _ := p.s.Pop()
			last = &cabs.UnaryPostOp{Op: op, Operand: last}
		} else if p.s.IsNextIn(".", "->") {
			op, _ := p.s.Pop()
			member := p.parseName()
			if member == nil {
				p.syntaxError("expected member name after '%s'", op.Text)
				return nil
			}
			last = &cabs.BinaryOp{Op: op, Left: last, Right: member}
		} else {
			break
		}
	}
	return last
}

// synthesize makes a punctuator that did not appear in the source,
// positioned at the token it was derived from.
func synthesize(at lexer.Token, text string) lexer.Token {
	return lexer.Token{Kind: lexer.Punctuator, Text: text, File: at.File, Line: at.Line}
}

func (p *Parser) parsePrimaryExpr() cabs.Node {
	tok, ok := p.s.Peek()
	if !ok {
		return nil
	}
	switch tok.Kind {
	case lexer.Integer:
		p.s.Pop()
		v, valid := parseInteger(tok.Text)
		if !valid {
			p.syntaxErrorAt(tok, "%s is not valid as integer", tok.Text)
		}
		return &cabs.IntegerLiteral{Value: v, Token: tok}
	case lexer.CharacterLiteral:
		p.s.Pop()
		v, valid := charValue(tok.Text)
		if !valid {
			p.syntaxErrorAt(tok, "malformed character literal")
		}
		return &cabs.IntegerLiteral{Value: v, Token: tok}
	case lexer.StringLiteral:
		p.s.Pop()
		return &cabs.StringLiteral{Token: tok}
	case lexer.Identifier:
		if lit, ok := p.scope.LookupConstant(tok.Text); ok {
			p.s.Pop()
			return lit
		}
		return p.parseIdentNode()
	}
	if _, ok := p.s.Consume("("); ok {
		expr := p.parseExpression()
		if expr == nil {
			p.s.Unpop()
			return nil
		}
		p.expect(")")
		return expr
	}
	return nil
}

// parseInteger reads a decimal, octal (leading 0) or hex (0x) literal.
func parseInteger(s string) (int64, bool) {
	if strings.ContainsAny(s, "_oObB") && !strings.HasPrefix(strings.ToLower(s), "0x") {
		return 0, false
	}
	if strings.Contains(s, "_") {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 0, 64)
	return v, err == nil
}

// charValue returns the byte value of a character literal body.
func charValue(text string) (int64, bool) {
	if len(text) == 1 && text[0] != '\\' {
		return int64(text[0]), true
	}
	if len(text) != 2 || text[0] != '\\' {
		return 0, false
	}
	switch text[1] {
	case '\\':
		return '\\', true
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case '0':
		return 0, true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	}
	return 0, false
}
