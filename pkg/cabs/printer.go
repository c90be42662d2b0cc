package cabs

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/compilium/compilium-go/pkg/lexer"
)

// Printer outputs the AST as C source. Compound subexpressions are always
// parenthesized, so the output parses back to the same tree.
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintTranslationUnit prints every top-level function definition and
// declaration of a parsed file.
func (p *Printer) PrintTranslationUnit(unit *List) {
	if unit == nil {
		return
	}
	for i, item := range unit.Items {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		p.PrintNode(item)
	}
}

// PrintNode prints any node: expressions without a trailing newline,
// statements and definitions as lines.
func (p *Printer) PrintNode(n Node) {
	switch n := n.(type) {
	case *FuncDef:
		p.printFuncDef(n)
	case *Decl:
		p.writeIndent()
		p.printDecl(n)
		fmt.Fprintln(p.w, ";")
	case *ExprStmt, *CompoundStmt, *IfStmt, *WhileStmt, *ForStmt, *JumpStmt:
		p.printStmt(n)
	case *List:
		p.PrintTranslationUnit(n)
	default:
		p.printExpr(n)
	}
}

// String renders n in C source form.
func String(n Node) string {
	var sb strings.Builder
	NewPrinter(&sb).PrintNode(n)
	return sb.String()
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printFuncDef(f *FuncDef) {
	p.writeIndent()
	p.printSpecs(f.Specs)
	fmt.Fprint(p.w, " ")
	p.printDeclarator(f.Declarator)
	fmt.Fprintln(p.w)
	p.printBlock(f.Body)
}

func (p *Printer) printSpecs(specs *List) {
	if specs == nil {
		return
	}
	for i, spec := range specs.Items {
		if i > 0 {
			fmt.Fprint(p.w, " ")
		}
		switch s := spec.(type) {
		case *Keyword:
			fmt.Fprint(p.w, s.Token.Text)
		case *TypeName:
			p.printTypeName(s)
		case *StructSpec:
			p.printStructSpec(s)
		case *EnumSpec:
			p.printEnumSpec(s)
		default:
			fmt.Fprintf(p.w, "/* unknown specifier %T */", spec)
		}
	}
}

func (p *Printer) printTypeName(t *TypeName) {
	if t.Name != "" {
		fmt.Fprint(p.w, t.Name)
		return
	}
	if t.Type == nil {
		fmt.Fprint(p.w, "/* untyped */")
		return
	}
	fmt.Fprint(p.w, t.Type.String())
}

func (p *Printer) printStructSpec(s *StructSpec) {
	fmt.Fprint(p.w, "struct")
	if s.Tag != "" {
		fmt.Fprintf(p.w, " %s", s.Tag)
	}
	if s.Members == nil {
		return
	}
	fmt.Fprint(p.w, " {")
	for _, m := range s.Members.Items {
		sd, ok := m.(*StructDecl)
		if !ok {
			continue
		}
		fmt.Fprint(p.w, " ")
		p.printSpecs(sd.Specs)
		if sd.Declarators.Len() > 0 {
			fmt.Fprint(p.w, " ")
			p.printDeclaratorList(sd.Declarators)
		}
		fmt.Fprint(p.w, ";")
	}
	fmt.Fprint(p.w, " }")
}

func (p *Printer) printEnumSpec(e *EnumSpec) {
	fmt.Fprint(p.w, "enum")
	if e.Tag != "" {
		fmt.Fprintf(p.w, " %s", e.Tag)
	}
	fmt.Fprint(p.w, " {")
	for i, tok := range e.Enumerators {
		if i > 0 {
			fmt.Fprint(p.w, ",")
		}
		fmt.Fprintf(p.w, " %s", tok.Text)
	}
	fmt.Fprint(p.w, " }")
}

func (p *Printer) printDecl(d *Decl) {
	p.printSpecs(d.Specs)
	if d.InitDeclarators.Len() > 0 {
		fmt.Fprint(p.w, " ")
		p.printDeclaratorList(d.InitDeclarators)
	}
}

func (p *Printer) printDeclaratorList(l *List) {
	for i, n := range l.Items {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		if d, ok := n.(*Declarator); ok {
			p.printDeclarator(d)
		}
	}
}

func (p *Printer) printDeclarator(d *Declarator) {
	if d == nil {
		return
	}
	fmt.Fprint(p.w, strings.Repeat("*", d.Pointer.Depth()))
	p.printDirect(d.Direct)
	if d.Initializer != nil {
		fmt.Fprint(p.w, " = ")
		p.printAssignExpr(d.Initializer)
	}
}

func (p *Printer) printDirect(dd *DirectDeclarator) {
	if dd == nil {
		return
	}
	p.printDirect(dd.Inner)
	switch dd.Kind {
	case DirectIdent:
		p.printExpr(dd.Data)
	case DirectParamList, DirectIdentList:
		fmt.Fprint(p.w, "(")
		if l, ok := dd.Data.(*List); ok {
			for i, item := range l.Items {
				if i > 0 {
					fmt.Fprint(p.w, ", ")
				}
				p.printParam(item)
			}
		}
		fmt.Fprint(p.w, ")")
	case DirectArray:
		fmt.Fprint(p.w, "[")
		if dd.Data != nil {
			p.printAssignExpr(dd.Data)
		}
		fmt.Fprint(p.w, "]")
	}
}

func (p *Printer) printParam(n Node) {
	switch n := n.(type) {
	case *ParamDecl:
		p.printSpecs(n.Specs)
		if n.Declarator != nil {
			fmt.Fprint(p.w, " ")
			p.printDeclarator(n.Declarator)
		}
	case *Keyword:
		fmt.Fprint(p.w, n.Token.Text)
	default:
		p.printExpr(n)
	}
}

func (p *Printer) printBlock(b *CompoundStmt) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	if b != nil && b.Items != nil {
		for _, item := range b.Items.Items {
			p.printItem(item)
		}
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printItem(n Node) {
	if d, ok := n.(*Decl); ok {
		p.writeIndent()
		p.printDecl(d)
		fmt.Fprintln(p.w, ";")
		return
	}
	p.printStmt(n)
}

// printSub prints a statement nested under if/while/for: blocks stay at
// the current level, anything else is indented one step.
func (p *Printer) printSub(n Node) {
	if b, ok := n.(*CompoundStmt); ok {
		p.printBlock(b)
		return
	}
	p.indent++
	p.printStmt(n)
	p.indent--
}

func (p *Printer) printStmt(stmt Node) {
	switch s := stmt.(type) {
	case *CompoundStmt:
		p.printBlock(s)
		return
	case *Decl:
		p.printItem(s)
		return
	}
	p.writeIndent()
	switch s := stmt.(type) {
	case *ExprStmt:
		if s.Expr != nil {
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case *JumpStmt:
		fmt.Fprint(p.w, s.Kind())
		if s.Param != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Param)
		}
		fmt.Fprintln(p.w, ";")
	case *IfStmt:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printSub(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printSub(s.Else)
		}
	case *WhileStmt:
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printSub(s.Body)
	case *ForStmt:
		fmt.Fprint(p.w, "for (")
		switch init := s.Init.(type) {
		case nil:
		case *Decl:
			p.printDecl(init)
		default:
			p.printExpr(init)
		}
		fmt.Fprint(p.w, ";")
		if s.Cond != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Cond)
		}
		fmt.Fprint(p.w, ";")
		if s.Update != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Update)
		}
		fmt.Fprintln(p.w, ")")
		p.printSub(s.Body)
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

// isAtomic reports whether n prints without surrounding parentheses in
// operand position. Negative literals parenthesize themselves.
func isAtomic(n Node) bool {
	switch n := n.(type) {
	case *Ident, *IntegerLiteral, *StringLiteral, *FuncCall, *UnaryPostOp:
		return true
	case *BinaryOp:
		return isMemberOp(n.Op)
	}
	return false
}

func isMemberOp(op lexer.Token) bool {
	return op.Text == "." || op.Text == "->"
}

func (p *Printer) printOperand(n Node) {
	if isAtomic(n) {
		p.printExpr(n)
		return
	}
	fmt.Fprint(p.w, "(")
	p.printExpr(n)
	fmt.Fprint(p.w, ")")
}

// printAssignExpr prints an expression where a bare comma would be read as
// a separator.
func (p *Printer) printAssignExpr(n Node) {
	if b, ok := n.(*BinaryOp); ok && b.Op.Text == "," {
		p.printOperand(n)
		return
	}
	p.printExpr(n)
}

func (p *Printer) printExpr(expr Node) {
	switch e := expr.(type) {
	case nil:
	case *Ident:
		fmt.Fprint(p.w, e.Token.Text)
	case *IntegerLiteral:
		p.printInteger(e)
	case *StringLiteral:
		fmt.Fprintf(p.w, "\"%s\"", e.Token.Text)
	case *BinaryOp:
		p.printBinary(e)
	case *UnaryPreOp:
		p.printUnary(e)
	case *UnaryPostOp:
		p.printOperand(e.Operand)
		fmt.Fprint(p.w, e.Op.Text)
	case *Cast:
		fmt.Fprint(p.w, "(")
		p.printTypeName(e.To)
		fmt.Fprint(p.w, ")")
		p.printOperand(e.Operand)
	case *FuncCall:
		p.printOperand(e.Callee)
		fmt.Fprint(p.w, "(")
		if e.Args != nil {
			for i, arg := range e.Args.Items {
				if i > 0 {
					fmt.Fprint(p.w, ", ")
				}
				p.printAssignExpr(arg)
			}
		}
		fmt.Fprint(p.w, ")")
	case *Conditional:
		p.printOperand(e.Cond)
		fmt.Fprint(p.w, " ? ")
		p.printOperand(e.Then)
		fmt.Fprint(p.w, " : ")
		p.printOperand(e.Else)
	case *TypeName:
		p.printTypeName(e)
	case *Keyword:
		fmt.Fprint(p.w, e.Token.Text)
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}

func (p *Printer) printInteger(lit *IntegerLiteral) {
	switch {
	case lit.Value < 0:
		fmt.Fprintf(p.w, "(%d)", lit.Value)
	case lit.Token.Kind == lexer.CharacterLiteral:
		fmt.Fprintf(p.w, "'%s'", lit.Token.Text)
	case lit.Token.Kind == lexer.Integer && lit.Token.Text != "":
		fmt.Fprint(p.w, lit.Token.Text)
	default:
		fmt.Fprint(p.w, strconv.FormatInt(lit.Value, 10))
	}
}

func (p *Printer) printUnary(u *UnaryPreOp) {
	if u.Op.Text == "sizeof" {
		if t, ok := u.Operand.(*TypeName); ok {
			fmt.Fprint(p.w, "sizeof(")
			p.printTypeName(t)
			fmt.Fprint(p.w, ")")
			return
		}
		fmt.Fprint(p.w, "sizeof ")
		p.printOperand(u.Operand)
		return
	}
	fmt.Fprint(p.w, u.Op.Text)
	p.printOperand(u.Operand)
}

func (p *Printer) printBinary(b *BinaryOp) {
	if isMemberOp(b.Op) {
		p.printOperand(b.Left)
		fmt.Fprint(p.w, b.Op.Text)
		p.printExpr(b.Right)
		return
	}
	if b.Op.Text == "," {
		p.printOperand(b.Left)
		fmt.Fprint(p.w, ", ")
		p.printOperand(b.Right)
		return
	}
	p.printOperand(b.Left)
	fmt.Fprintf(p.w, " %s ", b.Op.Text)
	p.printOperand(b.Right)
}
