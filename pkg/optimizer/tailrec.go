package optimizer

import (
	"errors"
	"fmt"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/parser"
)

// accumulator names the local that collects the addends of the rewritten
// tail calls.
const accumulator = "_accumulator"

// IsTailRecursiveFunction reports whether some return statement in fn's
// body has the form return fn(arg) + e or return fn(arg), where neither
// arg nor e calls fn.
func IsTailRecursiveFunction(fn *cabs.FuncDef) bool {
	name := fn.Name()
	found := false
	eachReturn(fn.Body, false, func(ret *cabs.JumpStmt, _ bool) {
		if _, _, ok := tailCall(name, ret.Param); ok {
			found = true
		}
	})
	return found
}

// OptimizeRecursiveFunction turns a tail-recursive function of one
// parameter into a loop:
//
//	{ int _accumulator = 0; for (;;) <body>; return _accumulator; }
//
// where each return fn(arg) + e becomes
// { _accumulator += (e); (param) = (arg); continue; }, return fn(arg)
// becomes { (param) = (arg); continue; } and any other return e becomes
// { _accumulator += (e); break; }. The addend is evaluated before param
// is reassigned, and continue keeps statements after a rewritten return
// from running. It reports whether fn was
// rewritten; a function the rewrite cannot handle is left as it is.
func OptimizeRecursiveFunction(fn *cabs.FuncDef, opts Options) (bool, error) {
	return New(opts).optimizeRecursiveFunction(fn)
}

func (o *Optimizer) optimizeRecursiveFunction(fn *cabs.FuncDef) (bool, error) {
	if !IsTailRecursiveFunction(fn) {
		return false, nil
	}
	param, err := tailRecursionParam(fn)
	if err != nil {
		o.logger.Debug("tail recursion not eliminated", "function", fn.Name(), "reason", err)
		return false, nil
	}

	body, err := o.rewriteReturns(fn.Body, fn.Name(), param)
	if err != nil {
		return false, err
	}
	skeleton, err := parser.ParseStatement(
		fmt.Sprintf("{ int %s = 0; for (;;) ; return %s; }", accumulator, accumulator),
		parser.WithScope(o.scope))
	if err != nil {
		return false, err
	}
	block := skeleton.(*cabs.CompoundStmt)
	block.Items.Items[1].(*cabs.ForStmt).Body = body
	fn.Body = block
	o.logger.Debug("eliminated tail recursion", "function", fn.Name(), "param", param)
	return true, nil
}

// tailRecursionParam returns the name of fn's only parameter, or the
// reason the loop rewrite would change what fn computes.
func tailRecursionParam(fn *cabs.FuncDef) (string, error) {
	params := fn.Declarator.Params()
	if params.Len() != 1 {
		return "", errors.New("function does not take exactly one parameter")
	}
	pd, ok := params.Items[0].(*cabs.ParamDecl)
	if !ok || pd.Declarator.Name() == "" {
		return "", errors.New("parameter has no name")
	}
	if mentions(fn.Body, accumulator) {
		return "", fmt.Errorf("body already uses %s", accumulator)
	}
	// The rewritten call assigns the parameter by name.
	if declares(fn.Body, pd.Declarator.Name()) {
		return "", fmt.Errorf("body redeclares parameter %s", pd.Declarator.Name())
	}

	name := fn.Name()
	var reason error
	tails := 0
	eachReturn(fn.Body, false, func(ret *cabs.JumpStmt, inLoop bool) {
		switch {
		case reason != nil:
		case inLoop:
			reason = errors.New("return inside a loop")
		case ret.Param == nil:
			reason = errors.New("return without a value")
		default:
			if _, _, ok := tailCall(name, ret.Param); ok {
				tails++
			}
		}
	})
	if reason != nil {
		return "", reason
	}
	if countCalls(fn.Body, name) != tails {
		return "", errors.New("recursive call outside tail position")
	}
	if !terminates(fn.Body) {
		return "", errors.New("control can reach the end of the body")
	}
	return pd.Declarator.Name(), nil
}

// eachReturn calls f for every return statement reachable through
// blocks, branches and loops, telling it whether the return sits inside
// a loop.
func eachReturn(n cabs.Node, inLoop bool, f func(ret *cabs.JumpStmt, inLoop bool)) {
	switch s := n.(type) {
	case *cabs.CompoundStmt:
		if s == nil || s.Items == nil {
			return
		}
		for _, item := range s.Items.Items {
			eachReturn(item, inLoop, f)
		}
	case *cabs.IfStmt:
		eachReturn(s.Then, inLoop, f)
		if s.Else != nil {
			eachReturn(s.Else, inLoop, f)
		}
	case *cabs.WhileStmt:
		eachReturn(s.Body, true, f)
	case *cabs.ForStmt:
		eachReturn(s.Body, true, f)
	case *cabs.JumpStmt:
		if s.Kind() == "return" {
			f(s, inLoop)
		}
	}
}

// tailCall matches fn(arg) and fn(arg) + addend, returning the call and
// the addend (nil for a bare call).
func tailCall(name string, e cabs.Node) (*cabs.FuncCall, cabs.Node, bool) {
	if call, ok := selfCall(name, e); ok {
		return call, nil, true
	}
	b, ok := e.(*cabs.BinaryOp)
	if !ok || b.Op.Text != "+" {
		return nil, nil, false
	}
	call, ok := selfCall(name, b.Left)
	if !ok || countCalls(b.Right, name) > 0 {
		return nil, nil, false
	}
	return call, b.Right, true
}

func selfCall(name string, e cabs.Node) (*cabs.FuncCall, bool) {
	c, ok := e.(*cabs.FuncCall)
	if !ok || calleeName(c) != name || c.Args.Len() != 1 {
		return nil, false
	}
	if countCalls(c.Args, name) > 0 {
		return nil, false
	}
	return c, true
}

// terminates reports whether every path through n ends in a return.
func terminates(n cabs.Node) bool {
	switch s := n.(type) {
	case *cabs.JumpStmt:
		return s.Kind() == "return"
	case *cabs.CompoundStmt:
		if s == nil || s.Items.Len() == 0 {
			return false
		}
		return terminates(s.Items.Items[len(s.Items.Items)-1])
	case *cabs.IfStmt:
		return s.Else != nil && terminates(s.Then) && terminates(s.Else)
	}
	return false
}

// rewriteReturns replaces every return outside loops with the statement
// that feeds the accumulator, and returns the node that takes n's place.
func (o *Optimizer) rewriteReturns(n cabs.Node, fn, param string) (cabs.Node, error) {
	switch s := n.(type) {
	case *cabs.CompoundStmt:
		if s.Items == nil {
			break
		}
		for i, item := range s.Items.Items {
			r, err := o.rewriteReturns(item, fn, param)
			if err != nil {
				return nil, err
			}
			s.Items.Items[i] = r
		}
	case *cabs.IfStmt:
		then, err := o.rewriteReturns(s.Then, fn, param)
		if err != nil {
			return nil, err
		}
		s.Then = then
		if s.Else != nil {
			els, err := o.rewriteReturns(s.Else, fn, param)
			if err != nil {
				return nil, err
			}
			s.Else = els
		}
	case *cabs.JumpStmt:
		if s.Kind() == "return" {
			return o.feedAccumulator(s.Param, fn, param)
		}
	}
	return n, nil
}

func (o *Optimizer) feedAccumulator(value cabs.Node, fn, param string) (cabs.Node, error) {
	call, addend, ok := tailCall(fn, value)
	var src string
	switch {
	case !ok:
		src = fmt.Sprintf("{ %s += (%s); break; }", accumulator, cabs.String(value))
	case addend == nil:
		src = fmt.Sprintf("{ (%s) = (%s); continue; }", param, cabs.String(call.Args.Items[0]))
	default:
		src = fmt.Sprintf("{ %s += (%s); (%s) = (%s); continue; }",
			accumulator, cabs.String(addend), param, cabs.String(call.Args.Items[0]))
	}
	return parser.ParseStatement(src, parser.WithScope(o.scope))
}
