package parser

import (
	"github.com/compilium/compilium-go/pkg/cabs"
)

func (p *Parser) parseStmt() cabs.Node {
	// statement:
	//   compound-statement
	//   selection-statement
	//   iteration-statement
	//   jump-statement
	//   expression-statement
	switch {
	case p.s.IsNext("{"):
		return p.parseCompoundStmt()
	case p.s.IsNext("if"):
		return p.parseSelectionStmt()
	case p.s.IsNextIn("while", "for"):
		return p.parseIterationStmt()
	case p.s.IsNextIn("return", "break", "continue"):
		return p.parseJumpStmt()
	}
	return p.parseExprStmt()
}

func (p *Parser) parseCompoundStmt() *cabs.CompoundStmt {
	// compound-statement:
	//   { [declaration | statement]* }
	if _, ok := p.s.Consume("{"); !ok {
		return nil
	}
	items := cabs.NewList()
	for !p.s.IsNext("}") && !p.s.AtEnd() {
		if d := p.parseDecl(); d != nil {
			items.Append(d)
			continue
		}
		items.Append(p.parseStmt())
	}
	p.expect("}")
	return &cabs.CompoundStmt{Items: items}
}

func (p *Parser) parseExprStmt() *cabs.ExprStmt {
	// expression-statement:
	//   expression_opt ;
	expr := p.parseExpression()
	p.expect(";")
	return &cabs.ExprStmt{Expr: expr}
}

func (p *Parser) parseSelectionStmt() *cabs.IfStmt {
	p.s.Pop()
	p.expect("(")
	cond := p.parseExpression()
	if cond == nil {
		p.syntaxError("expected condition")
		return nil
	}
	p.expect(")")
	stmt := &cabs.IfStmt{Cond: cond, Then: p.parseStmt()}
	if _, ok := p.s.Consume("else"); ok {
		stmt.Else = p.parseStmt()
	}
	return stmt
}

func (p *Parser) parseIterationStmt() cabs.Node {
	kw, _ := p.s.Pop()
	p.expect("(")
	if kw.Text == "while" {
		cond := p.parseExpression()
		if cond == nil {
			p.syntaxError("expected condition")
			return nil
		}
		p.expect(")")
		return &cabs.WhileStmt{Cond: cond, Body: p.parseStmt()}
	}

	stmt := &cabs.ForStmt{}
	if d := p.parseDecl(); d != nil {
		stmt.Init = d
	} else {
		stmt.Init = p.parseExpression()
		p.expect(";")
	}
	stmt.Cond = p.parseExpression()
	p.expect(";")
	stmt.Update = p.parseExpression()
	p.expect(")")
	stmt.Body = p.parseStmt()
	return stmt
}

func (p *Parser) parseJumpStmt() *cabs.JumpStmt {
	tok, _ := p.s.Pop()
	stmt := &cabs.JumpStmt{Keyword: &cabs.Keyword{Token: tok}}
	if tok.Text == "return" {
		stmt.Param = p.parseExpression()
	}
	p.expect(";")
	return stmt
}
