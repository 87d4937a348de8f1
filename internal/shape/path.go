package shape

import (
	"fmt"
	"strings"
)

// SplitPath splits a dotted field path into segments.
// Rejects empty paths, empty segments, and "$"-prefixed paths - expression
// field references carry the "$" sigil, shape paths never do.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}
	if strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("field path %q must not carry the $ sigil", path)
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("field path %q has an empty segment at position %d", path, i)
		}
	}
	return segments, nil
}

// FieldAt resolves a dotted path against the shape.
// Arrays are traversed implicitly: the segment is retried against the
// element shape. Lookups on KindAny always succeed with Any.
func (s Shape) FieldAt(path string) (Shape, bool) {
	segments, err := SplitPath(path)
	if err != nil {
		return Shape{}, false
	}
	return s.fieldAt(segments)
}

func (s Shape) fieldAt(segments []string) (Shape, bool) {
	if len(segments) == 0 {
		return s.Clone(), true
	}

	switch s.Kind {
	case KindAny:
		return Any(), true
	case KindObject:
		field, ok := s.Fields[segments[0]]
		if !ok {
			return Shape{}, false
		}
		return field.fieldAt(segments[1:])
	case KindArray:
		if s.Elem == nil {
			return Shape{}, false
		}
		return s.Elem.fieldAt(segments)
	default:
		return Shape{}, false
	}
}

// WithField returns a copy of the shape with the field at path set to
// fieldShape. Missing intermediate segments become objects; an existing
// non-object intermediate is overwritten with an object, matching how a
// set stage materializes nested paths. Setting through an array applies to
// the element shape. Setting on Any stays Any.
func (s Shape) WithField(path string, fieldShape Shape) (Shape, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return Shape{}, err
	}
	return s.withField(segments, fieldShape), nil
}

func (s Shape) withField(segments []string, fieldShape Shape) Shape {
	if s.Kind == KindAny {
		return Any()
	}

	if s.Kind == KindArray && s.Elem != nil {
		elem := s.Elem.withField(segments, fieldShape)
		return List(elem)
	}

	// Non-object positions are overwritten with a fresh object.
	out := Shape{Kind: KindObject, Fields: make(map[string]Shape)}
	if s.Kind == KindObject {
		for k, v := range s.Fields {
			out.Fields[k] = v.Clone()
		}
	}

	head := segments[0]
	if len(segments) == 1 {
		out.Fields[head] = fieldShape.Clone()
		return out
	}

	child, ok := out.Fields[head]
	if !ok {
		child = Shape{Kind: KindObject, Fields: map[string]Shape{}}
	}
	out.Fields[head] = child.withField(segments[1:], fieldShape)
	return out
}

// WithoutField returns a copy of the shape with the field at path removed.
// Removing an absent field is a no-op, matching unset semantics.
// Removing from Any stays Any.
func (s Shape) WithoutField(path string) (Shape, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return Shape{}, err
	}
	return s.withoutField(segments), nil
}

func (s Shape) withoutField(segments []string) Shape {
	switch s.Kind {
	case KindAny:
		return Any()
	case KindArray:
		if s.Elem == nil {
			return s.Clone()
		}
		elem := s.Elem.withoutField(segments)
		return List(elem)
	case KindObject:
		out := Shape{Kind: KindObject, Fields: make(map[string]Shape, len(s.Fields))}
		for k, v := range s.Fields {
			out.Fields[k] = v.Clone()
		}

		head := segments[0]
		if len(segments) == 1 {
			delete(out.Fields, head)
			return out
		}
		child, ok := out.Fields[head]
		if !ok {
			return out
		}
		out.Fields[head] = child.withoutField(segments[1:])
		return out
	default:
		return s.Clone()
	}
}

// Project returns an object shape containing only the listed paths.
// Paths absent from the shape are skipped - the existence check is the
// validate package's concern, not projection's. Projecting Any stays Any.
func (s Shape) Project(paths []string) (Shape, error) {
	if s.Kind == KindAny {
		return Any(), nil
	}

	out := Shape{Kind: KindObject, Fields: make(map[string]Shape)}
	for _, path := range paths {
		segments, err := SplitPath(path)
		if err != nil {
			return Shape{}, err
		}
		field, ok := s.fieldAt(segments)
		if !ok {
			continue
		}
		out = out.withField(segments, field)
	}
	return out, nil
}
