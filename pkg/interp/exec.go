package interp

import (
	"fmt"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/ctypes"
)

type control int

const (
	ctlNext control = iota
	ctlBreak
	ctlContinue
	ctlReturn
)

// frame is one function activation: a stack of block scopes.
type frame struct {
	in     *Interp
	fn     string
	depth  int
	scopes []map[string]*variable
}

func (f *frame) push() { f.scopes = append(f.scopes, make(map[string]*variable)) }
func (f *frame) pop()  { f.scopes = f.scopes[:len(f.scopes)-1] }

func (f *frame) lookup(name string) (*variable, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if v, ok := f.scopes[i][name]; ok {
			return v, true
		}
	}
	v, ok := f.in.globals[name]
	return v, ok
}

func (f *frame) errorf(err error, format string, args ...any) error {
	return &RuntimeError{Func: f.fn, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (f *frame) step() error {
	f.in.steps++
	if f.in.limit > 0 && f.in.steps > f.in.limit {
		return &RuntimeError{Func: f.fn, Err: ErrStepsExceeded}
	}
	return nil
}

// declare binds the names of a declaration in the innermost scope.
func (f *frame) declare(d *cabs.Decl) error {
	if d.IsTypedef() || d.InitDeclarators == nil {
		return nil
	}
	for _, item := range d.InitDeclarators.Items {
		decl, ok := item.(*cabs.Declarator)
		if !ok {
			continue
		}
		if decl.Params() != nil {
			// prototype
			continue
		}
		for dd := decl.Direct; dd != nil; dd = dd.Inner {
			if dd.Kind == cabs.DirectArray {
				return f.errorf(ErrUnsupported, "array %s", decl.Name())
			}
		}
		v := &variable{typ: declType(d.Specs, decl)}
		if decl.Initializer != nil {
			x, err := f.eval(decl.Initializer)
			if err != nil {
				return err
			}
			v.store(x)
		}
		f.scopes[len(f.scopes)-1][decl.Name()] = v
	}
	return nil
}

func (f *frame) exec(n cabs.Node) (control, int64, error) {
	if err := f.step(); err != nil {
		return ctlNext, 0, err
	}
	switch s := n.(type) {
	case nil:
		return ctlNext, 0, nil
	case *cabs.Decl:
		return ctlNext, 0, f.declare(s)
	case *cabs.CompoundStmt:
		f.push()
		defer f.pop()
		if s.Items == nil {
			return ctlNext, 0, nil
		}
		for _, item := range s.Items.Items {
			ctl, val, err := f.exec(item)
			if err != nil || ctl != ctlNext {
				return ctl, val, err
			}
		}
		return ctlNext, 0, nil
	case *cabs.ExprStmt:
		if s.Expr == nil {
			return ctlNext, 0, nil
		}
		_, err := f.eval(s.Expr)
		return ctlNext, 0, err
	case *cabs.IfStmt:
		c, err := f.eval(s.Cond)
		if err != nil {
			return ctlNext, 0, err
		}
		if c != 0 {
			return f.exec(s.Then)
		}
		if s.Else != nil {
			return f.exec(s.Else)
		}
		return ctlNext, 0, nil
	case *cabs.WhileStmt:
		for {
			c, err := f.eval(s.Cond)
			if err != nil {
				return ctlNext, 0, err
			}
			if c == 0 {
				return ctlNext, 0, nil
			}
			ctl, val, err := f.exec(s.Body)
			if err != nil || ctl == ctlReturn {
				return ctl, val, err
			}
			if ctl == ctlBreak {
				return ctlNext, 0, nil
			}
		}
	case *cabs.ForStmt:
		return f.execFor(s)
	case *cabs.JumpStmt:
		switch s.Kind() {
		case "break":
			return ctlBreak, 0, nil
		case "continue":
			return ctlContinue, 0, nil
		}
		if s.Param == nil {
			return ctlReturn, 0, nil
		}
		v, err := f.eval(s.Param)
		return ctlReturn, v, err
	}
	return ctlNext, 0, f.errorf(ErrUnsupported, "statement %T", n)
}

func (f *frame) execFor(s *cabs.ForStmt) (control, int64, error) {
	f.push()
	defer f.pop()
	switch init := s.Init.(type) {
	case nil:
	case *cabs.Decl:
		if err := f.declare(init); err != nil {
			return ctlNext, 0, err
		}
	default:
		if _, err := f.eval(init); err != nil {
			return ctlNext, 0, err
		}
	}
	for {
		if s.Cond != nil {
			c, err := f.eval(s.Cond)
			if err != nil {
				return ctlNext, 0, err
			}
			if c == 0 {
				return ctlNext, 0, nil
			}
		}
		ctl, val, err := f.exec(s.Body)
		if err != nil || ctl == ctlReturn {
			return ctl, val, err
		}
		if ctl == ctlBreak {
			return ctlNext, 0, nil
		}
		if s.Update != nil {
			if _, err := f.eval(s.Update); err != nil {
				return ctlNext, 0, err
			}
		}
	}
}

func (f *frame) eval(n cabs.Node) (int64, error) {
	if err := f.step(); err != nil {
		return 0, err
	}
	switch e := n.(type) {
	case *cabs.IntegerLiteral:
		return e.Value, nil
	case *cabs.Ident:
		v, ok := f.lookup(e.Token.Text)
		if !ok {
			return 0, f.errorf(ErrUndefined, "variable %s", e.Token.Text)
		}
		return v.val, nil
	case *cabs.BinaryOp:
		return f.evalBinary(e)
	case *cabs.UnaryPreOp:
		return f.evalUnary(e)
	case *cabs.UnaryPostOp:
		v, err := f.lvalue(e.Operand)
		if err != nil {
			return 0, err
		}
		old := v.val
		if e.Op.Text == "++" {
			v.store(old + 1)
		} else {
			v.store(old - 1)
		}
		return old, nil
	case *cabs.Cast:
		x, err := f.eval(e.Operand)
		if err != nil {
			return 0, err
		}
		tmp := &variable{typ: e.To.Type}
		return tmp.store(x), nil
	case *cabs.Conditional:
		c, err := f.eval(e.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return f.eval(e.Then)
		}
		return f.eval(e.Else)
	case *cabs.FuncCall:
		name := ""
		if id, ok := e.Callee.(*cabs.Ident); ok {
			name = id.Token.Text
		}
		if name == "" {
			return 0, f.errorf(ErrUnsupported, "indirect call")
		}
		var args []int64
		if e.Args != nil {
			for _, a := range e.Args.Items {
				x, err := f.eval(a)
				if err != nil {
					return 0, err
				}
				args = append(args, x)
			}
		}
		return f.in.call(name, args, f.depth+1)
	}
	return 0, f.errorf(ErrUnsupported, "expression %s", cabs.String(n))
}

// lvalue resolves an assignable expression. Only plain variables are
// assignable.
func (f *frame) lvalue(n cabs.Node) (*variable, error) {
	id, ok := n.(*cabs.Ident)
	if !ok {
		return nil, f.errorf(ErrUnsupported, "assignment to %s", cabs.String(n))
	}
	v, ok := f.lookup(id.Token.Text)
	if !ok {
		return nil, f.errorf(ErrUndefined, "variable %s", id.Token.Text)
	}
	return v, nil
}

func (f *frame) evalUnary(e *cabs.UnaryPreOp) (int64, error) {
	switch e.Op.Text {
	case "sizeof":
		return f.sizeof(e.Operand)
	case "++", "--":
		v, err := f.lvalue(e.Operand)
		if err != nil {
			return 0, err
		}
		if e.Op.Text == "++" {
			return v.store(v.val + 1), nil
		}
		return v.store(v.val - 1), nil
	}
	x, err := f.eval(e.Operand)
	if err != nil {
		return 0, err
	}
	switch e.Op.Text {
	case "-":
		return -x, nil
	case "+":
		return x, nil
	case "~":
		return ^x, nil
	case "!":
		return truth(x == 0), nil
	}
	return 0, f.errorf(ErrUnsupported, "operator %s", e.Op.Text)
}

func (f *frame) sizeof(operand cabs.Node) (int64, error) {
	t, err := f.typeOf(operand)
	if err != nil {
		return 0, f.errorf(err, "sizeof %s", cabs.String(operand))
	}
	size, err := ctypes.Sizeof(t)
	if err != nil {
		return 0, f.errorf(err, "sizeof")
	}
	return int64(size), nil
}

// typeOf returns the static type of an expression without evaluating it.
// Anything it cannot see through is an int.
func (f *frame) typeOf(n cabs.Node) (ctypes.Type, error) {
	switch e := n.(type) {
	case *cabs.TypeName:
		return e.Type, nil
	case *cabs.Cast:
		return e.To.Type, nil
	case *cabs.Ident:
		if v, ok := f.lookup(e.Token.Text); ok {
			return v.typ, nil
		}
	case *cabs.UnaryPreOp:
		switch e.Op.Text {
		case "*":
			t, err := f.typeOf(e.Operand)
			if err != nil {
				return nil, err
			}
			return ctypes.Deref(t)
		case "&":
			t, err := f.typeOf(e.Operand)
			if err != nil {
				return nil, err
			}
			return ctypes.Pointer(t), nil
		}
	}
	return ctypes.Int(), nil
}

var compoundOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"<<=": "<<", ">>=": ">>", "&=": "&", "^=": "^", "|=": "|",
}

func (f *frame) evalBinary(e *cabs.BinaryOp) (int64, error) {
	switch e.Op.Text {
	case ",":
		if _, err := f.eval(e.Left); err != nil {
			return 0, err
		}
		return f.eval(e.Right)
	case "&&", "||":
		l, err := f.eval(e.Left)
		if err != nil {
			return 0, err
		}
		if (e.Op.Text == "&&") == (l == 0) {
			return truth(l != 0), nil
		}
		r, err := f.eval(e.Right)
		if err != nil {
			return 0, err
		}
		return truth(r != 0), nil
	case "=":
		v, err := f.lvalue(e.Left)
		if err != nil {
			return 0, err
		}
		r, err := f.eval(e.Right)
		if err != nil {
			return 0, err
		}
		return v.store(r), nil
	case ".", "->":
		return 0, f.errorf(ErrUnsupported, "member access %s", cabs.String(e))
	}
	if op, ok := compoundOps[e.Op.Text]; ok {
		v, err := f.lvalue(e.Left)
		if err != nil {
			return 0, err
		}
		r, err := f.eval(e.Right)
		if err != nil {
			return 0, err
		}
		x, err := f.arith(op, v.val, r)
		if err != nil {
			return 0, err
		}
		return v.store(x), nil
	}
	l, err := f.eval(e.Left)
	if err != nil {
		return 0, err
	}
	r, err := f.eval(e.Right)
	if err != nil {
		return 0, err
	}
	return f.arith(e.Op.Text, l, r)
}

func (f *frame) arith(op string, l, r int64) (int64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			return 0, f.errorf(ErrDivisionByZero, "%d %s %d", l, op, r)
		}
		if op == "/" {
			return l / r, nil
		}
		return l % r, nil
	case "<<", ">>":
		if r < 0 || r > 63 {
			return 0, f.errorf(ErrShiftOutOfRange, "%d %s %d", l, op, r)
		}
		if op == "<<" {
			return l << r, nil
		}
		return l >> r, nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "==":
		return truth(l == r), nil
	case "!=":
		return truth(l != r), nil
	case "<":
		return truth(l < r), nil
	case ">":
		return truth(l > r), nil
	case "<=":
		return truth(l <= r), nil
	case ">=":
		return truth(l >= r), nil
	}
	return 0, f.errorf(ErrUnsupported, "operator %s", op)
}

func truth(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
