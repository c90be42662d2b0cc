// Package cabs defines the abstract syntax tree produced by the parser and
// rewritten by the optimizer. The variant set is closed: every node is one
// of the pointer types below and passes dispatch with a type switch.
package cabs

import (
	"github.com/compilium/compilium-go/pkg/ctypes"
	"github.com/compilium/compilium-go/pkg/lexer"
)

// Node is the base interface for all AST nodes
type Node interface {
	implCabsNode()
}

// Ident is an identifier reference or declared name.
type Ident struct {
	Token lexer.Token
}

// IntegerLiteral is an integer constant. Token keeps the spelling the value
// was read from; synthesized negative values spell "-N".
type IntegerLiteral struct {
	Value int64
	Token lexer.Token
}

// StringLiteral keeps the literal text as written, escapes included.
type StringLiteral struct {
	Token lexer.Token
}

// BinaryOp is a binary operator, assignment, comma, or member access
// ('.' and '->' with an Ident on the right).
type BinaryOp struct {
	Op    lexer.Token
	Left  Node
	Right Node
}

// UnaryPreOp is a prefix operator, including sizeof. The operand of
// sizeof(type) is a *TypeName.
type UnaryPreOp struct {
	Op      lexer.Token
	Operand Node
}

// UnaryPostOp is x++ or x--.
type UnaryPostOp struct {
	Op      lexer.Token
	Operand Node
}

// Cast is (type) operand.
type Cast struct {
	To      *TypeName
	Operand Node
}

// FuncCall is callee(args). Args is never nil.
type FuncCall struct {
	Callee Node
	Args   *List
}

// Conditional is cond ? then : else.
type Conditional struct {
	Cond Node
	Then Node
	Else Node
}

// Pointer is one '*' of a declarator; Inner is the next one, if any.
type Pointer struct {
	Inner *Pointer
}

// Depth counts the '*' levels of the chain.
func (p *Pointer) Depth() int {
	n := 0
	for ; p != nil; p = p.Inner {
		n++
	}
	return n
}

// DirectKind says what a DirectDeclarator link carries.
type DirectKind int

const (
	DirectIdent     DirectKind = iota // Data is *Ident
	DirectParamList                   // Data is *List of *ParamDecl (and a trailing "..." *Keyword)
	DirectIdentList                   // Data is *List of *Ident, possibly empty
	DirectArray                       // Data is the dimension expression, or nil
)

func (k DirectKind) String() string {
	names := []string{"ident", "params", "idents", "array"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// DirectDeclarator is a link in the chain name, name(...), name[...].
// The innermost link is always DirectIdent.
type DirectDeclarator struct {
	Inner *DirectDeclarator
	Kind  DirectKind
	Data  Node
}

// Declarator is pointer_opt direct-declarator, with an optional initializer
// expression when it appears in an init-declarator list.
type Declarator struct {
	Pointer     *Pointer
	Direct      *DirectDeclarator
	Initializer Node
}

// Ident returns the declared name.
func (d *Declarator) Ident() *Ident {
	if d == nil {
		return nil
	}
	dd := d.Direct
	for dd != nil && dd.Kind != DirectIdent {
		dd = dd.Inner
	}
	if dd == nil {
		return nil
	}
	id, _ := dd.Data.(*Ident)
	return id
}

// Name returns the declared name, or "" for an abstract declarator.
func (d *Declarator) Name() string {
	if id := d.Ident(); id != nil {
		return id.Token.Text
	}
	return ""
}

// Params returns the outermost parameter list of a function declarator.
func (d *Declarator) Params() *List {
	if d == nil {
		return nil
	}
	for dd := d.Direct; dd != nil; dd = dd.Inner {
		if dd.Kind == DirectParamList || dd.Kind == DirectIdentList {
			l, _ := dd.Data.(*List)
			return l
		}
	}
	return nil
}

// Decl is a declaration: specifiers and an optional init-declarator list.
type Decl struct {
	Specs           *List
	InitDeclarators *List // nil when absent
}

// IsTypedef reports whether the specifier list starts a typedef.
func (d *Decl) IsTypedef() bool {
	return HasKeyword(d.Specs, "typedef")
}

// ParamDecl is one function parameter; Declarator may be nil.
type ParamDecl struct {
	Specs      *List
	Declarator *Declarator
}

// StructSpec is struct tag_opt { members }_opt.
type StructSpec struct {
	Tag     string
	Members *List // *StructDecl items; nil for a reference to a tagged struct
}

// StructDecl is one member line of a struct body.
type StructDecl struct {
	Specs       *List
	Declarators *List
}

// EnumSpec is enum tag_opt { A, B, ... }. Enumerators take their ordinal.
type EnumSpec struct {
	Tag         string
	Enumerators []lexer.Token
}

// Keyword is a keyword specifier or jump keyword.
type Keyword struct {
	Token lexer.Token
}

// TypeName is a resolved type: the target of a cast, the operand of
// sizeof(type), or a typedef binding. Name is the typedef name, if any.
type TypeName struct {
	Name string
	Type ctypes.Type
}

// ExprStmt is expression_opt ';'.
type ExprStmt struct {
	Expr Node
}

// CompoundStmt is { items }.
type CompoundStmt struct {
	Items *List
}

// IfStmt is if (cond) then else_opt.
type IfStmt struct {
	Cond Node
	Then Node
	Else Node
}

// WhileStmt is while (cond) body.
type WhileStmt struct {
	Cond Node
	Body Node
}

// ForStmt is for (init; cond; update) body. Init is a *Decl or an
// expression; every clause may be nil.
type ForStmt struct {
	Init   Node
	Cond   Node
	Update Node
	Body   Node
}

// JumpStmt is return, break or continue.
type JumpStmt struct {
	Keyword *Keyword
	Param   Node
}

// Kind returns the jump keyword text.
func (j *JumpStmt) Kind() string {
	return j.Keyword.Token.Text
}

// List is an ordered sequence of nodes; order is meaningful.
type List struct {
	Items []Node
}

// NewList creates a list holding items.
func NewList(items ...Node) *List {
	return &List{Items: append([]Node{}, items...)}
}

// Len returns the number of items; a nil list is empty.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// Append adds n at the end.
func (l *List) Append(n Node) {
	l.Items = append(l.Items, n)
}

// FuncDef is a function definition.
type FuncDef struct {
	Specs      *List
	Declarator *Declarator
	Body       *CompoundStmt
}

// Name returns the function name.
func (f *FuncDef) Name() string {
	return f.Declarator.Name()
}

// HasKeyword reports whether a specifier list contains the keyword kw.
func HasKeyword(specs *List, kw string) bool {
	if specs == nil {
		return false
	}
	for _, n := range specs.Items {
		if k, ok := n.(*Keyword); ok && k.Token.Text == kw {
			return true
		}
	}
	return false
}

// Marker methods for interface implementation
func (*Ident) implCabsNode()            {}
func (*IntegerLiteral) implCabsNode()   {}
func (*StringLiteral) implCabsNode()    {}
func (*BinaryOp) implCabsNode()         {}
func (*UnaryPreOp) implCabsNode()       {}
func (*UnaryPostOp) implCabsNode()      {}
func (*Cast) implCabsNode()             {}
func (*FuncCall) implCabsNode()         {}
func (*Conditional) implCabsNode()      {}
func (*Pointer) implCabsNode()          {}
func (*DirectDeclarator) implCabsNode() {}
func (*Declarator) implCabsNode()       {}
func (*Decl) implCabsNode()             {}
func (*ParamDecl) implCabsNode()        {}
func (*StructSpec) implCabsNode()       {}
func (*StructDecl) implCabsNode()       {}
func (*EnumSpec) implCabsNode()         {}
func (*Keyword) implCabsNode()          {}
func (*TypeName) implCabsNode()         {}
func (*ExprStmt) implCabsNode()         {}
func (*CompoundStmt) implCabsNode()     {}
func (*IfStmt) implCabsNode()           {}
func (*WhileStmt) implCabsNode()        {}
func (*ForStmt) implCabsNode()          {}
func (*JumpStmt) implCabsNode()         {}
func (*List) implCabsNode()             {}
func (*FuncDef) implCabsNode()          {}
