// Package optimizer rewrites a parsed translation unit in place: constant
// folding, division by powers of two as shifts, and tail-recursive
// functions as loops.
package optimizer

import (
	"io"
	"log/slog"
	"math"

	"github.com/compilium/compilium-go/pkg/cabs"
)

// Options selects the passes Optimize runs.
type Options struct {
	ConstantFolding   bool
	StrengthReduction bool
	TailRecursion     bool

	// Scope is the identifier context the unit was parsed in. Statements
	// synthesized by the tail recursion pass are parsed against it so
	// typedef names keep their meaning.
	Scope *cabs.Scope

	// Logger receives debug records for every rewrite; nil discards.
	Logger *slog.Logger
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	return Options{ConstantFolding: true, StrengthReduction: true, TailRecursion: true}
}

// Optimizer applies the passes selected by its Options.
type Optimizer struct {
	opts   Options
	scope  *cabs.Scope
	logger *slog.Logger
}

// New creates an optimizer.
func New(opts Options) *Optimizer {
	o := &Optimizer{opts: opts, scope: opts.Scope, logger: opts.Logger}
	if o.scope == nil {
		o.scope = cabs.NewScope(nil)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return o
}

// Optimize rewrites n and everything beneath it, children before parents,
// and returns the node that takes n's place. Lists, blocks and function
// definitions are rewritten in place and returned as they are.
func Optimize(n cabs.Node, opts Options) (cabs.Node, error) {
	return New(opts).Optimize(n)
}

// Optimize is the package-level Optimize with o's options.
func (o *Optimizer) Optimize(n cabs.Node) (cabs.Node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case *cabs.List:
		return n, o.list(n)
	case *cabs.FuncDef:
		if n.Body != nil {
			if err := o.list(n.Body.Items); err != nil {
				return nil, err
			}
		}
		if o.opts.TailRecursion {
			if _, err := o.optimizeRecursiveFunction(n); err != nil {
				return nil, err
			}
		}
		return n, nil
	case *cabs.Decl:
		return n, o.list(n.InitDeclarators)
	case *cabs.Declarator:
		for dd := n.Direct; dd != nil; dd = dd.Inner {
			if dd.Kind != cabs.DirectArray {
				continue
			}
			if err := o.slot(&dd.Data); err != nil {
				return nil, err
			}
		}
		return n, o.slot(&n.Initializer)
	case *cabs.CompoundStmt:
		return n, o.list(n.Items)
	case *cabs.ExprStmt:
		return n, o.slot(&n.Expr)
	case *cabs.JumpStmt:
		return n, o.slot(&n.Param)
	case *cabs.IfStmt:
		return n, o.slots(&n.Cond, &n.Then, &n.Else)
	case *cabs.WhileStmt:
		return n, o.slots(&n.Cond, &n.Body)
	case *cabs.ForStmt:
		return n, o.slots(&n.Init, &n.Cond, &n.Update, &n.Body)
	case *cabs.Conditional:
		return n, o.slots(&n.Cond, &n.Then, &n.Else)
	case *cabs.Cast:
		return n, o.slot(&n.Operand)
	case *cabs.UnaryPostOp:
		return n, o.slot(&n.Operand)
	case *cabs.FuncCall:
		if err := o.slot(&n.Callee); err != nil {
			return nil, err
		}
		return n, o.list(n.Args)
	case *cabs.UnaryPreOp:
		if _, ok := n.Operand.(*cabs.TypeName); ok {
			return n, nil
		}
		if err := o.slot(&n.Operand); err != nil {
			return nil, err
		}
		return o.expr(n)
	case *cabs.BinaryOp:
		if err := o.slots(&n.Left, &n.Right); err != nil {
			return nil, err
		}
		return o.expr(n)
	}
	return n, nil
}

// expr applies folding and then strength reduction to an operator node
// whose operands are already optimized.
func (o *Optimizer) expr(n cabs.Node) (cabs.Node, error) {
	if o.opts.ConstantFolding {
		folded, ok, err := ConstantPropagation(n)
		if err != nil {
			return nil, err
		}
		if ok {
			o.logger.Debug("folded constant", "expr", cabs.String(n), "value", cabs.String(folded))
			n = folded
		}
	}
	if o.opts.StrengthReduction {
		before := cabs.String(n)
		if StrengthReduction(n) {
			o.logger.Debug("reduced division to shift", "expr", before, "result", cabs.String(n))
		}
	}
	return n, nil
}

func (o *Optimizer) slot(p *cabs.Node) error {
	if *p == nil {
		return nil
	}
	n, err := o.Optimize(*p)
	if err != nil {
		return err
	}
	*p = n
	return nil
}

func (o *Optimizer) slots(ps ...*cabs.Node) error {
	for _, p := range ps {
		if err := o.slot(p); err != nil {
			return err
		}
	}
	return nil
}

func (o *Optimizer) list(l *cabs.List) error {
	if l == nil {
		return nil
	}
	for i := range l.Items {
		if err := o.slot(&l.Items[i]); err != nil {
			return err
		}
	}
	return nil
}
