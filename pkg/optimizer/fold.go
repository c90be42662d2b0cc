package optimizer

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/lexer"
)

// ErrDivisionByZero is wrapped by the FoldError for a constant '/' or '%'
// whose right operand is zero.
var ErrDivisionByZero = errors.New("integer division by zero")

// FoldError reports a constant expression that has no value.
type FoldError struct {
	File string
	Line int
	Expr string // the offending expression in C form
	Err  error
}

func (e *FoldError) Error() string {
	pos := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		pos = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	return fmt.Sprintf("%s: cannot fold %s: %v", pos, e.Expr, e.Err)
}

func (e *FoldError) Unwrap() error { return e.Err }

// ConstantPropagation folds a unary '-' or '+' applied to an integer
// literal, or one of + - * / % applied to two integer literals, into a
// fresh literal. It returns the node that should take n's place and
// whether folding happened; n itself is never modified.
func ConstantPropagation(n cabs.Node) (cabs.Node, bool, error) {
	switch e := n.(type) {
	case *cabs.UnaryPreOp:
		v, ok := e.Operand.(*cabs.IntegerLiteral)
		if !ok {
			return n, false, nil
		}
		switch e.Op.Text {
		case "-":
			return literal(-v.Value, e.Op), true, nil
		case "+":
			return literal(v.Value, e.Op), true, nil
		}
	case *cabs.BinaryOp:
		l, ok := e.Left.(*cabs.IntegerLiteral)
		if !ok {
			return n, false, nil
		}
		r, ok := e.Right.(*cabs.IntegerLiteral)
		if !ok {
			return n, false, nil
		}
		var v int64
		switch e.Op.Text {
		case "+":
			v = l.Value + r.Value
		case "-":
			v = l.Value - r.Value
		case "*":
			v = l.Value * r.Value
		case "/", "%":
			if r.Value == 0 {
				return n, false, &FoldError{File: e.Op.File, Line: e.Op.Line, Expr: cabs.String(e), Err: ErrDivisionByZero}
			}
			if e.Op.Text == "/" {
				v = l.Value / r.Value
			} else {
				v = l.Value % r.Value
			}
		default:
			return n, false, nil
		}
		return literal(v, e.Op), true, nil
	}
	return n, false, nil
}

// literal synthesizes an integer literal positioned at the token it
// replaces. The token always spells the magnitude as a plain decimal
// number; a negative value gets a '-' patched onto the front.
func literal(v int64, at lexer.Token) *cabs.IntegerLiteral {
	tok := lexer.NewToken(lexer.Integer, strconv.FormatUint(magnitude(v), 10))
	tok.File, tok.Line = at.File, at.Line
	if v < 0 {
		tok.Text = "-" + tok.Text
	}
	return &cabs.IntegerLiteral{Value: v, Token: tok}
}

func magnitude(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
