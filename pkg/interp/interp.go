// Package interp evaluates the integer subset of a parsed translation
// unit. It exists to check that optimized trees compute what the source
// computes, and backs the run command.
package interp

import (
	"errors"
	"fmt"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/ctypes"
)

// Sentinel errors wrapped by RuntimeError.
var (
	ErrUndefined       = errors.New("undefined")
	ErrUnsupported     = errors.New("unsupported")
	ErrDivisionByZero  = errors.New("integer division by zero")
	ErrDepthExceeded   = errors.New("call depth exceeded")
	ErrStepsExceeded   = errors.New("step limit exceeded")
	ErrArgumentCount   = errors.New("wrong number of arguments")
	ErrShiftOutOfRange = errors.New("shift count out of range")
)

// RuntimeError reports a failure while evaluating Func.
type RuntimeError struct {
	Func string
	Msg  string
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("in %s: %v", e.Func, e.Err)
	}
	return fmt.Sprintf("in %s: %s: %v", e.Func, e.Msg, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Default limits.
const (
	DefaultMaxDepth  = 10000
	DefaultStepLimit = 50_000_000
)

// Interp holds the functions and globals of one translation unit.
type Interp struct {
	funcs    map[string]*cabs.FuncDef
	globals  map[string]*variable
	maxDepth int
	steps    int
	limit    int
}

// Option configures an Interp.
type Option func(*Interp)

// WithMaxDepth bounds the call depth.
func WithMaxDepth(n int) Option {
	return func(in *Interp) { in.maxDepth = n }
}

// WithStepLimit bounds the number of statements and expressions evaluated
// by a single Call.
func WithStepLimit(n int) Option {
	return func(in *Interp) { in.limit = n }
}

type variable struct {
	typ ctypes.Type
	val int64
}

// store assigns v, truncated to the variable's type.
func (v *variable) store(x int64) int64 {
	if t, ok := v.typ.(ctypes.Tint); ok && t.Size == ctypes.IChar {
		x = int64(int8(x))
	}
	v.val = x
	return x
}

// New collects the function definitions of unit and evaluates the
// initializers of its global variables.
func New(unit *cabs.List, opts ...Option) (*Interp, error) {
	in := &Interp{
		funcs:    make(map[string]*cabs.FuncDef),
		globals:  make(map[string]*variable),
		maxDepth: DefaultMaxDepth,
		limit:    DefaultStepLimit,
	}
	for _, opt := range opts {
		opt(in)
	}
	if unit == nil {
		return in, nil
	}
	g := &frame{in: in, fn: "<global>"}
	g.push()
	for _, item := range unit.Items {
		switch n := item.(type) {
		case *cabs.FuncDef:
			in.funcs[n.Name()] = n
		case *cabs.Decl:
			if err := g.declare(n); err != nil {
				return nil, err
			}
		}
	}
	for name, v := range g.scopes[0] {
		in.globals[name] = v
	}
	return in, nil
}

// Call evaluates the function name with args bound to its parameters.
func (in *Interp) Call(name string, args ...int64) (int64, error) {
	in.steps = 0
	return in.call(name, args, 0)
}

// Has reports whether unit defines a function called name.
func (in *Interp) Has(name string) bool {
	_, ok := in.funcs[name]
	return ok
}

func (in *Interp) call(name string, args []int64, depth int) (int64, error) {
	fn, ok := in.funcs[name]
	if !ok {
		return 0, &RuntimeError{Func: name, Msg: "function " + name, Err: ErrUndefined}
	}
	if depth >= in.maxDepth {
		return 0, &RuntimeError{Func: name, Err: ErrDepthExceeded}
	}
	params, err := paramsOf(fn)
	if err != nil {
		return 0, &RuntimeError{Func: name, Msg: "parameters", Err: err}
	}
	if len(params) != len(args) {
		return 0, &RuntimeError{
			Func: name,
			Msg:  fmt.Sprintf("want %d, got %d", len(params), len(args)),
			Err:  ErrArgumentCount,
		}
	}

	f := &frame{in: in, fn: name, depth: depth}
	f.push()
	for i, p := range params {
		v := &variable{typ: p.typ}
		v.store(args[i])
		f.scopes[0][p.name] = v
	}
	ctl, val, err := f.exec(fn.Body)
	if err != nil {
		return 0, err
	}
	if ctl == ctlReturn {
		return val, nil
	}
	return 0, nil
}

type param struct {
	name string
	typ  ctypes.Type
}

func paramsOf(fn *cabs.FuncDef) ([]param, error) {
	list := fn.Declarator.Params()
	if list == nil {
		return nil, nil
	}
	var params []param
	for _, item := range list.Items {
		switch p := item.(type) {
		case *cabs.ParamDecl:
			t := declType(p.Specs, p.Declarator)
			if _, ok := t.(ctypes.Tvoid); ok && p.Declarator == nil {
				// f(void)
				continue
			}
			params = append(params, param{name: p.Declarator.Name(), typ: t})
		case *cabs.Ident:
			params = append(params, param{name: p.Token.Text, typ: ctypes.Int()})
		case *cabs.Keyword:
			return nil, fmt.Errorf("variadic functions: %w", ErrUnsupported)
		}
	}
	return params, nil
}

// declType resolves the type of a declared name. Specifiers the parser
// accepts but the evaluator has no model for fall back to int.
func declType(specs *cabs.List, d *cabs.Declarator) ctypes.Type {
	var base ctypes.Type = ctypes.Int()
	if specs != nil {
		for _, s := range specs.Items {
			switch s := s.(type) {
			case *cabs.Keyword:
				switch s.Token.Text {
				case "char":
					base = ctypes.Char()
				case "void":
					base = ctypes.Void()
				}
			case *cabs.TypeName:
				base = s.Type
			}
		}
	}
	if d == nil {
		return base
	}
	return ctypes.PointerDepth(base, d.Pointer.Depth())
}
