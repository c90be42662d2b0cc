// Package ctypes defines the minimal C type representation used for
// declarations, casts and sizeof: void, char, int and pointers to them.
package ctypes

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSize is returned when sizing a type that has no size, such as void.
	ErrNoSize = errors.New("type has no size")
	// ErrNotPointer is returned when dereferencing a non-pointer type.
	ErrNotPointer = errors.New("type is not a pointer")
)

// Type is the interface for all C types
type Type interface {
	implType()
	String() string
}

// IntSize represents the size of integer types
type IntSize int

const (
	IChar IntSize = iota
	IInt
)

func (s IntSize) String() string {
	names := []string{"ichar", "iint"}
	if int(s) < len(names) {
		return names[s]
	}
	return "?"
}

// Tvoid represents the void type
type Tvoid struct{}

// Tint represents char and int.
type Tint struct {
	Size IntSize
}

// Tpointer represents pointer types
type Tpointer struct {
	Elem Type
}

func (Tvoid) implType()    {}
func (Tint) implType()     {}
func (Tpointer) implType() {}

func (Tvoid) String() string { return "void" }

func (t Tint) String() string {
	if t.Size == IChar {
		return "char"
	}
	return "int"
}

func (t Tpointer) String() string {
	if t.Elem == nil {
		return "void*"
	}
	return t.Elem.String() + "*"
}

// Void returns the void type
func Void() Type { return Tvoid{} }

// Char returns the char type
func Char() Type { return Tint{Size: IChar} }

// Int returns the int type
func Int() Type { return Tint{Size: IInt} }

// Pointer returns a pointer to the given type
func Pointer(elem Type) Type { return Tpointer{Elem: elem} }

// PointerDepth wraps t in n pointer levels.
func PointerDepth(t Type, n int) Type {
	for i := 0; i < n; i++ {
		t = Pointer(t)
	}
	return t
}

// Sizeof returns the storage size in bytes: char 1, int 8, pointers 8.
func Sizeof(t Type) (int, error) {
	switch tt := t.(type) {
	case Tpointer:
		return 8, nil
	case Tint:
		if tt.Size == IChar {
			return 1, nil
		}
		return 8, nil
	}
	return 0, fmt.Errorf("sizeof %v: %w", t, ErrNoSize)
}

// Deref returns the type a pointer points to.
func Deref(t Type) (Type, error) {
	if p, ok := t.(Tpointer); ok {
		return p.Elem, nil
	}
	return nil, fmt.Errorf("dereference of %v: %w", t, ErrNotPointer)
}

// Equal checks if two types are equal
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch ta := a.(type) {
	case Tvoid:
		_, ok := b.(Tvoid)
		return ok
	case Tint:
		tb, ok := b.(Tint)
		return ok && ta.Size == tb.Size
	case Tpointer:
		tb, ok := b.(Tpointer)
		return ok && Equal(ta.Elem, tb.Elem)
	}
	return false
}
