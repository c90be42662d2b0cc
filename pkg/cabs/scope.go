package cabs

// Scope maps names to the nodes they are bound to: typedef names to
// *TypeName, enum constants to *IntegerLiteral. Lookups walk from the
// innermost scope outward.
type Scope struct {
	parent *Scope
	names  map[string]Node
}

// NewScope creates a scope chained to parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, names: make(map[string]Node)}
}

// Parent returns the enclosing scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Bind binds name in this scope, shadowing outer bindings.
func (s *Scope) Bind(name string, n Node) {
	s.names[name] = n
}

// Lookup finds the innermost binding of name.
func (s *Scope) Lookup(name string) (Node, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if n, ok := sc.names[name]; ok {
			return n, true
		}
	}
	return nil, false
}

// LookupType returns the type a typedef name stands for.
func (s *Scope) LookupType(name string) (*TypeName, bool) {
	n, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}
	t, ok := n.(*TypeName)
	return t, ok
}

// LookupConstant returns the literal an enum constant stands for.
func (s *Scope) LookupConstant(name string) (*IntegerLiteral, bool) {
	n, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}
	lit, ok := n.(*IntegerLiteral)
	return lit, ok
}

// Names returns the names bound directly in this scope.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	return names
}
