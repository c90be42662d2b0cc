package optimizer

import "github.com/compilium/compilium-go/pkg/cabs"

// inspect calls f for n and then, while f returns true, for each node
// beneath it in source order.
func inspect(n cabs.Node, f func(cabs.Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range children(n) {
		inspect(c, f)
	}
}

func children(n cabs.Node) []cabs.Node {
	var kids []cabs.Node
	add := func(ns ...cabs.Node) {
		for _, c := range ns {
			if c != nil {
				kids = append(kids, c)
			}
		}
	}
	list := func(l *cabs.List) {
		if l != nil {
			add(l.Items...)
		}
	}
	switch n := n.(type) {
	case *cabs.List:
		list(n)
	case *cabs.FuncDef:
		if n.Declarator != nil {
			add(n.Declarator)
		}
		if n.Body != nil {
			add(n.Body)
		}
	case *cabs.Decl:
		list(n.InitDeclarators)
	case *cabs.Declarator:
		if n.Direct != nil {
			add(n.Direct)
		}
		add(n.Initializer)
	case *cabs.DirectDeclarator:
		if n.Inner != nil {
			add(n.Inner)
		}
		add(n.Data)
	case *cabs.ParamDecl:
		if n.Declarator != nil {
			add(n.Declarator)
		}
	case *cabs.CompoundStmt:
		list(n.Items)
	case *cabs.ExprStmt:
		add(n.Expr)
	case *cabs.IfStmt:
		add(n.Cond, n.Then, n.Else)
	case *cabs.WhileStmt:
		add(n.Cond, n.Body)
	case *cabs.ForStmt:
		add(n.Init, n.Cond, n.Update, n.Body)
	case *cabs.JumpStmt:
		add(n.Param)
	case *cabs.BinaryOp:
		add(n.Left, n.Right)
	case *cabs.UnaryPreOp:
		add(n.Operand)
	case *cabs.UnaryPostOp:
		add(n.Operand)
	case *cabs.Cast:
		add(n.Operand)
	case *cabs.FuncCall:
		add(n.Callee)
		list(n.Args)
	case *cabs.Conditional:
		add(n.Cond, n.Then, n.Else)
	}
	return kids
}

// calleeName returns the name of a directly called function, or "".
func calleeName(c *cabs.FuncCall) string {
	if id, ok := c.Callee.(*cabs.Ident); ok {
		return id.Token.Text
	}
	return ""
}

// countCalls counts the calls to name anywhere beneath n.
func countCalls(n cabs.Node, name string) int {
	count := 0
	inspect(n, func(m cabs.Node) bool {
		if c, ok := m.(*cabs.FuncCall); ok && calleeName(c) == name {
			count++
		}
		return true
	})
	return count
}

// mentions reports whether an identifier spelled name appears beneath n.
func mentions(n cabs.Node, name string) bool {
	found := false
	inspect(n, func(m cabs.Node) bool {
		if id, ok := m.(*cabs.Ident); ok && id.Token.Text == name {
			found = true
		}
		return !found
	})
	return found
}

// declares reports whether a declaration under n introduces name.
func declares(n cabs.Node, name string) bool {
	found := false
	inspect(n, func(m cabs.Node) bool {
		if d, ok := m.(*cabs.Decl); ok && d.InitDeclarators != nil {
			for _, item := range d.InitDeclarators.Items {
				if dd, ok := item.(*cabs.Declarator); ok && dd.Name() == name {
					found = true
				}
			}
		}
		return !found
	})
	return found
}
