package shape

import "fmt"

// Kind enumerates the shape of a single document position.
type Kind int

const (
	KindAny Kind = iota
	KindNull
	KindString
	KindInt
	KindDouble
	KindBool
	KindObject
	KindArray
)

// String returns the lowercase name used in error messages and CUE schemas.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Shape describes one position in a document tree.
// Fields is populated only for KindObject, Elem only for KindArray.
type Shape struct {
	Kind   Kind
	Fields map[string]Shape
	Elem   *Shape
}

// Of returns a scalar (or open) shape of the given kind.
func Of(k Kind) Shape {
	return Shape{Kind: k}
}

// Any returns the open-world shape. All lookups on it succeed.
func Any() Shape {
	return Shape{Kind: KindAny}
}

// Document returns an object shape with the given fields.
// The map is cloned; callers keep ownership of their argument.
func Document(fields map[string]Shape) Shape {
	cloned := make(map[string]Shape, len(fields))
	for k, v := range fields {
		cloned[k] = v.Clone()
	}
	return Shape{Kind: KindObject, Fields: cloned}
}

// List returns an array shape with the given element shape.
func List(elem Shape) Shape {
	e := elem.Clone()
	return Shape{Kind: KindArray, Elem: &e}
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	out := Shape{Kind: s.Kind}
	if s.Fields != nil {
		out.Fields = make(map[string]Shape, len(s.Fields))
		for k, v := range s.Fields {
			out.Fields[k] = v.Clone()
		}
	}
	if s.Elem != nil {
		e := s.Elem.Clone()
		out.Elem = &e
	}
	return out
}

// Equal reports structural equality.
func (s Shape) Equal(other Shape) bool {
	if s.Kind != other.Kind {
		return false
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for k, v := range s.Fields {
		ov, ok := other.Fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	if (s.Elem == nil) != (other.Elem == nil) {
		return false
	}
	if s.Elem != nil && !s.Elem.Equal(*other.Elem) {
		return false
	}
	return true
}

// IsAny reports whether the shape is the open-world shape.
func (s Shape) IsAny() bool {
	return s.Kind == KindAny
}
