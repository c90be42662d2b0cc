package cabs

import (
	"strings"
	"testing"

	"github.com/compilium/compilium-go/pkg/ctypes"
	"github.com/compilium/compilium-go/pkg/lexer"
)

func punct(s string) lexer.Token { return lexer.NewToken(lexer.Punctuator, s) }

func ident(s string) *Ident { return &Ident{Token: lexer.NewToken(lexer.Identifier, s)} }

func intLit(v int64) *IntegerLiteral {
	return &IntegerLiteral{Value: v}
}

func TestPrintExpr(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"ident", ident("x"), "x"},
		{"literal", intLit(42), "42"},
		{"negative literal", intLit(-5), "(-5)"},
		{"negative operand", &BinaryOp{Op: punct("/"), Left: ident("x"), Right: intLit(-4)}, "x / (-4)"},
		{"hex spelling kept", &IntegerLiteral{Value: 31, Token: lexer.NewToken(lexer.Integer, "0x1F")}, "0x1F"},
		{"char literal", &IntegerLiteral{Value: 10, Token: lexer.NewToken(lexer.CharacterLiteral, `\n`)}, `'\n'`},
		{"string", &StringLiteral{Token: lexer.NewToken(lexer.StringLiteral, `hi\n`)}, `"hi\n"`},
		{"binary", &BinaryOp{Op: punct("+"), Left: ident("a"), Right: intLit(1)}, "a + 1"},
		{"nested binary", &BinaryOp{
			Op:    punct("*"),
			Left:  &BinaryOp{Op: punct("+"), Left: ident("a"), Right: ident("b")},
			Right: ident("c"),
		}, "(a + b) * c"},
		{"member", &BinaryOp{Op: punct("->"), Left: ident("p"), Right: ident("next")}, "p->next"},
		{"deref member", &BinaryOp{
			Op:    punct("."),
			Left:  &UnaryPreOp{Op: punct("*"), Operand: ident("p")},
			Right: ident("a"),
		}, "(*p).a"},
		{"double negation", &UnaryPreOp{Op: punct("-"), Operand: &UnaryPreOp{Op: punct("-"), Operand: ident("x")}}, "-(-x)"},
		{"postfix", &UnaryPostOp{Op: punct("++"), Operand: ident("i")}, "i++"},
		{"cast", &Cast{To: &TypeName{Type: ctypes.Pointer(ctypes.Char())}, Operand: ident("p")}, "(char*)p"},
		{"sizeof type", &UnaryPreOp{Op: lexer.NewToken(lexer.Identifier, "sizeof"), Operand: &TypeName{Type: ctypes.Int()}}, "sizeof(int)"},
		{"sizeof expr", &UnaryPreOp{Op: lexer.NewToken(lexer.Identifier, "sizeof"), Operand: ident("x")}, "sizeof x"},
		{"call", &FuncCall{Callee: ident("f"), Args: NewList(
			ident("a"),
			&BinaryOp{Op: punct(","), Left: ident("b"), Right: ident("c")},
		)}, "f(a, (b, c))"},
		{"conditional", &Conditional{Cond: ident("c"), Then: intLit(1), Else: intLit(2)}, "c ? 1 : 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.node); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func funcDef() *FuncDef {
	param := &ParamDecl{
		Specs: NewList(&Keyword{Token: lexer.NewToken(lexer.Identifier, "int")}),
		Declarator: &Declarator{Direct: &DirectDeclarator{
			Kind: DirectIdent, Data: ident("n"),
		}},
	}
	decl := &Declarator{Direct: &DirectDeclarator{
		Kind:  DirectParamList,
		Data:  NewList(param),
		Inner: &DirectDeclarator{Kind: DirectIdent, Data: ident("f")},
	}}
	ret := &JumpStmt{
		Keyword: &Keyword{Token: lexer.NewToken(lexer.Identifier, "return")},
		Param:   &BinaryOp{Op: punct("*"), Left: ident("n"), Right: intLit(2)},
	}
	return &FuncDef{
		Specs:      NewList(&Keyword{Token: lexer.NewToken(lexer.Identifier, "int")}),
		Declarator: decl,
		Body:       &CompoundStmt{Items: NewList(ret)},
	}
}

func TestPrintFuncDef(t *testing.T) {
	var sb strings.Builder
	NewPrinter(&sb).PrintTranslationUnit(NewList(funcDef()))
	want := "int f(int n)\n{\n  return n * 2;\n}\n"
	if sb.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestPrintStatements(t *testing.T) {
	ret := func(v int64) Node {
		return &JumpStmt{Keyword: &Keyword{Token: lexer.NewToken(lexer.Identifier, "return")}, Param: intLit(v)}
	}
	stmt := &IfStmt{
		Cond: ident("x"),
		Then: ret(1),
		Else: &ForStmt{Body: &CompoundStmt{Items: NewList(
			&ExprStmt{},
			&WhileStmt{Cond: ident("y"), Body: &JumpStmt{Keyword: &Keyword{Token: lexer.NewToken(lexer.Identifier, "break")}}},
		)}},
	}
	want := strings.Join([]string{
		"if (x)",
		"  return 1;",
		"else",
		"  for (;;)",
		"  {",
		"    ;",
		"    while (y)",
		"      break;",
		"  }",
		"",
	}, "\n")
	if got := String(stmt); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintDecl(t *testing.T) {
	decl := &Decl{
		Specs: NewList(
			&Keyword{Token: lexer.NewToken(lexer.Identifier, "char")},
		),
		InitDeclarators: NewList(
			&Declarator{
				Pointer: &Pointer{},
				Direct:  &DirectDeclarator{Kind: DirectIdent, Data: ident("s")},
			},
			&Declarator{
				Direct:      &DirectDeclarator{Kind: DirectIdent, Data: ident("c")},
				Initializer: &IntegerLiteral{Value: 97, Token: lexer.NewToken(lexer.CharacterLiteral, "a")},
			},
			&Declarator{Direct: &DirectDeclarator{
				Kind:  DirectArray,
				Data:  intLit(4),
				Inner: &DirectDeclarator{Kind: DirectIdent, Data: ident("buf")},
			}},
		),
	}
	if got, want := String(decl), "char *s, c = 'a', buf[4];\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	st := &Decl{Specs: NewList(&StructSpec{Tag: "pt", Members: NewList(&StructDecl{
		Specs:       NewList(&Keyword{Token: lexer.NewToken(lexer.Identifier, "int")}),
		Declarators: NewList(&Declarator{Direct: &DirectDeclarator{Kind: DirectIdent, Data: ident("x")}}),
	})})}
	if got, want := String(st), "struct pt { int x; };\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	en := &Decl{Specs: NewList(&EnumSpec{Enumerators: []lexer.Token{
		lexer.NewToken(lexer.Identifier, "A"), lexer.NewToken(lexer.Identifier, "B"),
	}})}
	if got, want := String(en), "enum { A, B };\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDeclaratorAccessors(t *testing.T) {
	f := funcDef()
	if f.Name() != "f" {
		t.Errorf("Name() = %q, want f", f.Name())
	}
	params := f.Declarator.Params()
	if params.Len() != 1 {
		t.Fatalf("Params().Len() = %d, want 1", params.Len())
	}
	if pd := params.Items[0].(*ParamDecl); pd.Declarator.Name() != "n" {
		t.Errorf("param name = %q, want n", pd.Declarator.Name())
	}
	var nilDecl *Declarator
	if nilDecl.Name() != "" || nilDecl.Params() != nil {
		t.Error("nil declarator should have no name and no params")
	}
}

func TestDumpIgnoresPositions(t *testing.T) {
	a := &BinaryOp{Op: punct("+"), Left: ident("x"), Right: &IntegerLiteral{Value: 1, Token: lexer.NewToken(lexer.Integer, "1")}}
	b := &BinaryOp{
		Op:    lexer.Token{Kind: lexer.Punctuator, Text: "+", File: "b.c", Line: 9},
		Left:  &Ident{Token: lexer.Token{Kind: lexer.Identifier, Text: "x", File: "b.c", Line: 9}},
		Right: &IntegerLiteral{Value: 1, Token: lexer.NewToken(lexer.Integer, "0x1")},
	}
	if DumpString(a) != DumpString(b) {
		t.Errorf("dumps differ:\n%s\n%s", DumpString(a), DumpString(b))
	}
	want := "BinaryOp +\n  left: Ident x\n  right: IntegerLiteral 1\n"
	if DumpString(a) != want {
		t.Errorf("DumpString() = %q, want %q", DumpString(a), want)
	}
}

func TestDumpNilSlots(t *testing.T) {
	got := DumpString(&FuncDef{})
	if !strings.Contains(got, "body: <nil>") || !strings.Contains(got, "specs: <nil>") {
		t.Errorf("nil slots not dumped:\n%s", got)
	}
}

func TestScope(t *testing.T) {
	global := NewScope(nil)
	global.Bind("myint", &TypeName{Name: "myint", Type: ctypes.Int()})
	global.Bind("B", intLit(1))

	inner := NewScope(global)
	inner.Bind("B", &TypeName{Name: "B", Type: ctypes.Char()})

	if tn, ok := inner.LookupType("myint"); !ok || !ctypes.Equal(tn.Type, ctypes.Int()) {
		t.Errorf("LookupType(myint) = %v, %v", tn, ok)
	}
	if _, ok := inner.LookupConstant("B"); ok {
		t.Error("inner binding of B should shadow the enum constant")
	}
	if lit, ok := global.LookupConstant("B"); !ok || lit.Value != 1 {
		t.Errorf("LookupConstant(B) = %v, %v", lit, ok)
	}
	if _, ok := global.LookupType("B"); ok {
		t.Error("enum constant must not be a type name")
	}
	if _, ok := inner.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
	if inner.Parent() != global {
		t.Error("Parent() should return the enclosing scope")
	}
	if names := inner.Names(); len(names) != 1 || names[0] != "B" {
		t.Errorf("Names() = %v", names)
	}
}
