package cabs

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Dump writes an indented tree of n, one node per line. Source positions
// and literal spellings are left out, so two trees that differ only in
// where they were read from dump identically.
func Dump(w io.Writer, n Node) {
	d := &dumper{w: w}
	d.node("", n)
}

// DumpString returns the Dump output for n.
func DumpString(n Node) string {
	var sb strings.Builder
	Dump(&sb, n)
	return sb.String()
}

type dumper struct {
	w     io.Writer
	depth int
}

func (d *dumper) line(label, format string, args ...any) {
	fmt.Fprint(d.w, strings.Repeat("  ", d.depth))
	if label != "" {
		fmt.Fprintf(d.w, "%s: ", label)
	}
	fmt.Fprintf(d.w, format, args...)
	fmt.Fprintln(d.w)
}

func (d *dumper) children(kids ...func()) {
	d.depth++
	for _, k := range kids {
		k()
	}
	d.depth--
}

func (d *dumper) child(label string, n Node) func() {
	return func() { d.node(label, n) }
}

func (d *dumper) node(label string, n Node) {
	if n != nil {
		if v := reflect.ValueOf(n); v.Kind() == reflect.Pointer && v.IsNil() {
			n = nil
		}
	}
	switch n := n.(type) {
	case nil:
		d.line(label, "<nil>")
	case *Ident:
		d.line(label, "Ident %s", n.Token.Text)
	case *IntegerLiteral:
		d.line(label, "IntegerLiteral %d", n.Value)
	case *StringLiteral:
		d.line(label, "StringLiteral %q", n.Token.Text)
	case *BinaryOp:
		d.line(label, "BinaryOp %s", n.Op.Text)
		d.children(d.child("left", n.Left), d.child("right", n.Right))
	case *UnaryPreOp:
		d.line(label, "UnaryPreOp %s", n.Op.Text)
		d.children(d.child("", n.Operand))
	case *UnaryPostOp:
		d.line(label, "UnaryPostOp %s", n.Op.Text)
		d.children(d.child("", n.Operand))
	case *Cast:
		d.line(label, "Cast")
		d.children(d.child("to", n.To), d.child("", n.Operand))
	case *FuncCall:
		d.line(label, "FuncCall")
		d.children(d.child("callee", n.Callee), d.child("args", n.Args))
	case *Conditional:
		d.line(label, "Conditional")
		d.children(d.child("cond", n.Cond), d.child("then", n.Then), d.child("else", n.Else))
	case *Pointer:
		d.line(label, "Pointer %d", n.Depth())
	case *DirectDeclarator:
		d.line(label, "DirectDeclarator %s", n.Kind)
		kids := []func(){}
		if n.Inner != nil {
			kids = append(kids, d.child("inner", n.Inner))
		}
		if n.Data != nil || n.Kind != DirectArray {
			kids = append(kids, d.child("data", n.Data))
		}
		d.children(kids...)
	case *Declarator:
		d.line(label, "Declarator")
		kids := []func(){}
		if n.Pointer != nil {
			kids = append(kids, d.child("pointer", n.Pointer))
		}
		kids = append(kids, d.child("direct", n.Direct))
		if n.Initializer != nil {
			kids = append(kids, d.child("init", n.Initializer))
		}
		d.children(kids...)
	case *Decl:
		d.line(label, "Decl")
		kids := []func(){d.child("specs", n.Specs)}
		if n.InitDeclarators != nil {
			kids = append(kids, d.child("declarators", n.InitDeclarators))
		}
		d.children(kids...)
	case *ParamDecl:
		d.line(label, "ParamDecl")
		kids := []func(){d.child("specs", n.Specs)}
		if n.Declarator != nil {
			kids = append(kids, d.child("declarator", n.Declarator))
		}
		d.children(kids...)
	case *StructSpec:
		d.line(label, "StructSpec %s", n.Tag)
		if n.Members != nil {
			d.children(d.child("members", n.Members))
		}
	case *StructDecl:
		d.line(label, "StructDecl")
		d.children(d.child("specs", n.Specs), d.child("declarators", n.Declarators))
	case *EnumSpec:
		names := make([]string, len(n.Enumerators))
		for i, tok := range n.Enumerators {
			names[i] = tok.Text
		}
		d.line(label, "EnumSpec %s {%s}", n.Tag, strings.Join(names, ", "))
	case *Keyword:
		d.line(label, "Keyword %s", n.Token.Text)
	case *TypeName:
		if n.Name != "" {
			d.line(label, "TypeName %s %v", n.Name, n.Type)
		} else {
			d.line(label, "TypeName %v", n.Type)
		}
	case *ExprStmt:
		d.line(label, "ExprStmt")
		if n.Expr != nil {
			d.children(d.child("", n.Expr))
		}
	case *CompoundStmt:
		d.line(label, "CompoundStmt")
		d.children(d.child("", n.Items))
	case *IfStmt:
		d.line(label, "IfStmt")
		kids := []func(){d.child("cond", n.Cond), d.child("then", n.Then)}
		if n.Else != nil {
			kids = append(kids, d.child("else", n.Else))
		}
		d.children(kids...)
	case *WhileStmt:
		d.line(label, "WhileStmt")
		d.children(d.child("cond", n.Cond), d.child("body", n.Body))
	case *ForStmt:
		d.line(label, "ForStmt")
		d.children(d.child("init", n.Init), d.child("cond", n.Cond),
			d.child("update", n.Update), d.child("body", n.Body))
	case *JumpStmt:
		d.line(label, "JumpStmt %s", n.Kind())
		if n.Param != nil {
			d.children(d.child("", n.Param))
		}
	case *List:
		d.line(label, "List %d", len(n.Items))
		kids := make([]func(), len(n.Items))
		for i, item := range n.Items {
			kids[i] = d.child("", item)
		}
		d.children(kids...)
	case *FuncDef:
		d.line(label, "FuncDef %s", n.Name())
		d.children(d.child("specs", n.Specs), d.child("declarator", n.Declarator),
			d.child("body", n.Body))
	default:
		d.line(label, "%T", n)
	}
}
