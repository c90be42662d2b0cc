package parser

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/ctypes"
	"github.com/compilium/compilium-go/pkg/lexer"
	"gopkg.in/yaml.v3"
)

// ParseFile represents the parse.yaml file structure
type ParseFile struct {
	Expressions []ExprCase    `yaml:"expressions"`
	Errors      []ErrorCase   `yaml:"errors"`
	Programs    []ProgramCase `yaml:"programs"`
}

// ExprCase is a returned expression and its fully parenthesized form.
type ExprCase struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
	Expr  string `yaml:"expr"`
}

// ErrorCase is an input that must be rejected.
type ErrorCase struct {
	Name     string `yaml:"name"`
	Input    string `yaml:"input"`
	Kind     string `yaml:"kind"`
	Contains string `yaml:"contains"`
}

// ProgramCase is a translation unit that must survive printing.
type ProgramCase struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
}

func loadParseFile(t *testing.T) ParseFile {
	t.Helper()
	data, err := os.ReadFile("../../testdata/parse.yaml")
	if err != nil {
		t.Fatalf("failed to read parse.yaml: %v", err)
	}
	var f ParseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("failed to parse parse.yaml: %v", err)
	}
	return f
}

func tokenize(t *testing.T, src string) []lexer.Token {
	t.Helper()
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	return tokens
}

func parseUnit(t *testing.T, src string, opts ...Option) *cabs.List {
	t.Helper()
	unit, err := Parse(tokenize(t, src), opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return unit
}

// returned digs the expression of the first statement of the function at
// index i of unit, which must be a return.
func returned(t *testing.T, unit *cabs.List, i int) cabs.Node {
	t.Helper()
	if unit.Len() <= i {
		t.Fatalf("expected at least %d items, got %d", i+1, unit.Len())
	}
	fn, ok := unit.Items[i].(*cabs.FuncDef)
	if !ok {
		t.Fatalf("expected *cabs.FuncDef, got %T", unit.Items[i])
	}
	if fn.Body.Items.Len() == 0 {
		t.Fatalf("function %s has an empty body", fn.Name())
	}
	ret, ok := fn.Body.Items.Items[0].(*cabs.JumpStmt)
	if !ok || ret.Kind() != "return" {
		t.Fatalf("expected return statement, got %T", fn.Body.Items.Items[0])
	}
	return ret.Param
}

// exprString renders an expression with every compound node parenthesized.
func exprString(n cabs.Node) string {
	switch e := n.(type) {
	case *cabs.Ident:
		return e.Token.Text
	case *cabs.IntegerLiteral:
		return strconv.FormatInt(e.Value, 10)
	case *cabs.StringLiteral:
		return `"` + e.Token.Text + `"`
	case *cabs.TypeName:
		if e.Type != nil {
			return e.Type.String()
		}
		return e.Name
	case *cabs.BinaryOp:
		return fmt.Sprintf("(%s %s %s)", exprString(e.Left), e.Op.Text, exprString(e.Right))
	case *cabs.UnaryPreOp:
		if e.Op.Text == "sizeof" {
			return fmt.Sprintf("(sizeof %s)", exprString(e.Operand))
		}
		return fmt.Sprintf("(%s%s)", e.Op.Text, exprString(e.Operand))
	case *cabs.UnaryPostOp:
		return fmt.Sprintf("(%s%s)", exprString(e.Operand), e.Op.Text)
	case *cabs.Cast:
		return fmt.Sprintf("((%s)%s)", exprString(e.To), exprString(e.Operand))
	case *cabs.FuncCall:
		args := make([]string, 0, e.Args.Len())
		for _, a := range e.Args.Items {
			args = append(args, exprString(a))
		}
		return fmt.Sprintf("%s(%s)", exprString(e.Callee), strings.Join(args, ", "))
	case *cabs.Conditional:
		return fmt.Sprintf("(%s ? %s : %s)", exprString(e.Cond), exprString(e.Then), exprString(e.Else))
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("<%T>", n)
}

func TestParseExpressionsYAML(t *testing.T) {
	for _, tc := range loadParseFile(t).Expressions {
		t.Run(tc.Name, func(t *testing.T) {
			unit := parseUnit(t, "int f() { return "+tc.Input+"; }")
			if got := exprString(returned(t, unit, 0)); got != tc.Expr {
				t.Errorf("expected %s, got %s", tc.Expr, got)
			}
		})
	}
}

func TestParseErrorsYAML(t *testing.T) {
	for _, tc := range loadParseFile(t).Errors {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := Parse(tokenize(t, tc.Input))
			if err == nil {
				t.Fatalf("expected error for %q", tc.Input)
			}
			switch tc.Kind {
			case "syntax":
				var se *SyntaxError
				if !errors.As(err, &se) {
					t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
				}
			case "semantic":
				var se *SemanticError
				if !errors.As(err, &se) {
					t.Fatalf("expected *SemanticError, got %T: %v", err, err)
				}
			default:
				t.Fatalf("unknown error kind %q", tc.Kind)
			}
			if !strings.Contains(err.Error(), tc.Contains) {
				t.Errorf("expected error containing %q, got %q", tc.Contains, err.Error())
			}
		})
	}
}

func TestPrintedProgramsReparse(t *testing.T) {
	for _, tc := range loadParseFile(t).Programs {
		t.Run(tc.Name, func(t *testing.T) {
			first := parseUnit(t, tc.Input)

			var buf bytes.Buffer
			cabs.NewPrinter(&buf).PrintTranslationUnit(first)

			second, err := Parse(tokenize(t, buf.String()))
			if err != nil {
				t.Fatalf("printed program does not parse: %v\n%s", err, buf.String())
			}
			if want, got := cabs.DumpString(first), cabs.DumpString(second); want != got {
				t.Errorf("tree changed after printing\nprinted:\n%s\nbefore:\n%s\nafter:\n%s", buf.String(), want, got)
			}
		})
	}
}

func TestFailedProductionsRewind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		matched func(p *Parser) bool
	}{
		{"type name", "x)", func(p *Parser) bool { return p.parseTypeName() != nil }},
		{"function definition", "int x;", func(p *Parser) bool { return p.parseFuncDef() != nil }},
		{"declarator", "*;", func(p *Parser) bool { return p.parseDeclarator() != nil }},
		{"parenthesis without expression", "()", func(p *Parser) bool { return p.parsePrimaryExpr() != nil }},
		{"unary", ";", func(p *Parser) bool { return p.parseUnaryExpr() != nil }},
		{"declaration", "x = 1;", func(p *Parser) bool { return p.parseDecl() != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tokenize(t, tt.input))
			if tt.matched(p) {
				t.Fatal("expected no match")
			}
			if p.Pos() != 0 {
				t.Errorf("expected cursor at 0, got %d", p.Pos())
			}
		})
	}
}

func TestProductionsStopAtTheirEnd(t *testing.T) {
	tests := []struct {
		name  string
		input string
		parse func(p *Parser) cabs.Node
		end   int
	}{
		{"assignment falls back to conditional", "a + b", (*Parser).parseAssignExpr, 3},
		{"assignment", "a = 1", (*Parser).parseAssignExpr, 3},
		{"unary stops before assignment", "a = 1", (*Parser).parseUnaryExpr, 1},
		{"parenthesized primary", "(x)", (*Parser).parseCastExpr, 3},
		{"cast", "(int)x", (*Parser).parseCastExpr, 4},
		{"trailing separator is pushed back", "a, b, )", func(p *Parser) cabs.Node {
			return p.parseSeparated(p.parseIdentNode, ",")
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tokenize(t, tt.input))
			if n := tt.parse(p); n == nil {
				t.Fatal("expected a match")
			}
			if p.Pos() != tt.end {
				t.Errorf("expected cursor at %d, got %d", tt.end, p.Pos())
			}
		})
	}
}

func TestTypedefVisibleOnlyAfterDeclaration(t *testing.T) {
	unit := parseUnit(t, `
int f() { return (T)-x; }
typedef int T;
int g() { return (T)-x; }
`)
	before := returned(t, unit, 0)
	if got := exprString(before); got != "(T - x)" {
		t.Errorf("before typedef: expected subtraction, got %s", got)
	}
	after := returned(t, unit, 2)
	cast, ok := after.(*cabs.Cast)
	if !ok {
		t.Fatalf("after typedef: expected *cabs.Cast, got %T", after)
	}
	if cast.To.Name != "T" || !ctypes.Equal(cast.To.Type, ctypes.Int()) {
		t.Errorf("expected cast to T (int), got %s (%v)", cast.To.Name, cast.To.Type)
	}
}

func TestTypedefPointerType(t *testing.T) {
	p := New(tokenize(t, "typedef char **argv_t;"))
	if _, err := p.Parse(); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tn, ok := p.Scope().LookupType("argv_t")
	if !ok {
		t.Fatal("argv_t is not bound")
	}
	want := ctypes.PointerDepth(ctypes.Char(), 2)
	if !ctypes.Equal(tn.Type, want) {
		t.Errorf("expected %s, got %s", want, tn.Type)
	}
}

func TestEnumConstantsBecomeLiterals(t *testing.T) {
	unit := parseUnit(t, "enum { A, B, C, }; int f() { return B; }")
	got := returned(t, unit, 1)
	lit, ok := got.(*cabs.IntegerLiteral)
	if !ok {
		t.Fatalf("expected *cabs.IntegerLiteral, got %T", got)
	}
	if lit.Value != 1 {
		t.Errorf("expected 1, got %d", lit.Value)
	}
	if want := cabs.DumpString(&cabs.IntegerLiteral{Value: 1}); cabs.DumpString(got) != want {
		t.Errorf("expected dump %q, got %q", want, cabs.DumpString(got))
	}
}

func TestMissingInitializerPosition(t *testing.T) {
	_, err := Parse(tokenize(t, "int x = ;"))
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if se.Token != ";" || se.Line != 1 {
		t.Errorf("expected error at ';' on line 1, got %q on line %d", se.Token, se.Line)
	}
}

func TestErrorLineNumbers(t *testing.T) {
	_, err := Parse(tokenize(t, "int f() {\n  return 1\n}\n"))
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if se.Line != 3 {
		t.Errorf("expected line 3, got %d", se.Line)
	}
	if want := "line 3: syntax error at '}': expected ';'"; se.Error() != want {
		t.Errorf("expected %q, got %q", want, se.Error())
	}
}

func TestSizeofVoidWrapsCause(t *testing.T) {
	_, err := Parse(tokenize(t, "int f() { return sizeof(void); }"))
	if !errors.Is(err, ctypes.ErrNoSize) {
		t.Errorf("expected error wrapping ctypes.ErrNoSize, got %v", err)
	}
}

func TestDeepParentheses(t *testing.T) {
	const depth = 40
	src := "int f() { return " + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth) + "; }"
	unit := parseUnit(t, src)
	if got := exprString(returned(t, unit, 0)); got != "1" {
		t.Errorf("expected 1, got %s", got)
	}
}

func TestParseStatement(t *testing.T) {
	stmt, err := ParseStatement("{ int t = n; n = t - 1; }")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	block, ok := stmt.(*cabs.CompoundStmt)
	if !ok {
		t.Fatalf("expected *cabs.CompoundStmt, got %T", stmt)
	}
	if block.Items.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", block.Items.Len())
	}
	if _, ok := block.Items.Items[0].(*cabs.Decl); !ok {
		t.Errorf("expected declaration first, got %T", block.Items.Items[0])
	}

	if _, err := ParseStatement("x = 1; y = 2;"); err == nil {
		t.Error("expected error for two statements")
	}
}

func TestParseDeclaration(t *testing.T) {
	decl, err := ParseDeclaration("int a, *b;")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if decl.InitDeclarators.Len() != 2 {
		t.Fatalf("expected 2 declarators, got %d", decl.InitDeclarators.Len())
	}
	b := decl.InitDeclarators.Items[1].(*cabs.Declarator)
	if b.Name() != "b" || b.Pointer.Depth() != 1 {
		t.Errorf("expected *b, got depth %d name %s", b.Pointer.Depth(), b.Name())
	}

	_, err = ParseDeclaration("x;")
	if err == nil || !strings.Contains(err.Error(), "expected declaration") {
		t.Errorf("expected 'expected declaration' error, got %v", err)
	}
}

func TestWithScope(t *testing.T) {
	scope := cabs.NewScope(nil)
	scope.Bind("T", &cabs.TypeName{Name: "T", Type: ctypes.Int()})
	stmt, err := ParseStatement("return (T)-x;", WithScope(scope))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ret := stmt.(*cabs.JumpStmt)
	if _, ok := ret.Param.(*cabs.Cast); !ok {
		t.Errorf("expected cast with scope, got %T", ret.Param)
	}

	stmt, err = ParseStatement("return (T)-x;")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, ok := stmt.(*cabs.JumpStmt).Param.(*cabs.BinaryOp); !ok {
		t.Errorf("expected subtraction without scope, got %T", stmt.(*cabs.JumpStmt).Param)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	parseUnit(t, "typedef int T; enum { A }; int f() { return A; }", WithLogger(logger))

	out := buf.String()
	for _, want := range []string{
		`msg="bound typedef" name=T type=int`,
		`msg="bound enum constant" name=A value=0`,
		`msg="read function definition" name=f`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}
