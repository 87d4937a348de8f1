package stage

import (
	"fmt"
	"sort"

	"github.com/pipewright/pipewright/internal/expr"
	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/shape"
)

// wireAssignments renders {"<op>": {"path": <exprWire>, ...}}.
// Shared by Set and AddFields, which differ only in operator name.
func wireAssignments(op string, fields map[string]expr.Expr) (ir.Object, error) {
	body := make(ir.Object, len(fields))
	for path, e := range fields {
		if _, err := shape.SplitPath(path); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if e == nil {
			return nil, fmt.Errorf("%s %q: nil expression", op, path)
		}
		w, err := e.Wire()
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", op, path, err)
		}
		body[path] = w
	}
	return ir.Object{op: body}, nil
}

// assignmentRefs collects the expressions' field refs in sorted-key order.
func assignmentRefs(fields map[string]expr.Expr) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var refs []string
	seen := make(map[string]struct{})
	for _, k := range keys {
		if fields[k] == nil {
			continue
		}
		for _, r := range fields[k].Refs() {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			refs = append(refs, r)
		}
	}
	return refs
}

// transformAssignments applies set semantics: every assigned path gets the
// shape of its expression, evaluated against the stage input.
func transformAssignments(in shape.Shape, fields map[string]expr.Expr) (shape.Shape, error) {
	return transformAssignmentsOnto(in, in, fields)
}

// transformAssignmentsOnto evaluates expressions against eval but applies
// the field additions to base. Project uses this split: computed fields
// see the stage input while the output starts from the narrowed shape.
func transformAssignmentsOnto(eval, base shape.Shape, fields map[string]expr.Expr) (shape.Shape, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := base
	for _, path := range keys {
		e := fields[path]
		if e == nil {
			return shape.Shape{}, fmt.Errorf("%q: nil expression", path)
		}
		next, err := out.WithField(path, exprShape(e, eval))
		if err != nil {
			return shape.Shape{}, err
		}
		out = next
	}
	return out, nil
}

// exprShape derives the full shape an expression produces. Doc and Arr
// literals keep their structure; everything else collapses to its kind.
func exprShape(e expr.Expr, in shape.Shape) shape.Shape {
	switch v := e.(type) {
	case expr.Doc:
		fields := make(map[string]shape.Shape, len(v))
		for k, sub := range v {
			fields[k] = exprShape(sub, in)
		}
		return shape.Document(fields)
	case expr.Arr:
		if len(v) == 0 {
			return shape.List(shape.Any())
		}
		elem := exprShape(v[0], in)
		for _, sub := range v[1:] {
			if !exprShape(sub, in).Equal(elem) {
				elem = shape.Any()
				break
			}
		}
		return shape.List(elem)
	case expr.Field:
		resolved, ok := in.FieldAt(string(v))
		if !ok {
			return shape.Any()
		}
		return resolved
	default:
		return shape.Of(e.Kind(in))
	}
}

// wireRoot validates and wires a root-replacement expression.
func wireRoot(e expr.Expr) (ir.Value, error) {
	if e == nil {
		return nil, fmt.Errorf("nil root expression")
	}
	return e.Wire()
}

// rootRefs returns the refs of a root-replacement expression.
func rootRefs(e expr.Expr) []string {
	if e == nil {
		return nil
	}
	return e.Refs()
}

// transformRoot swaps the document shape for the replacement expression's
// shape. The replacement must be a document; a known non-document is
// rejected, an unknown kind degrades to Any.
func transformRoot(in shape.Shape, e expr.Expr, op string) (shape.Shape, error) {
	if e == nil {
		return shape.Shape{}, fmt.Errorf("%s: nil root expression", op)
	}

	s := exprShape(e, in)
	switch s.Kind {
	case shape.KindObject:
		return s, nil
	case shape.KindAny:
		return shape.Any(), nil
	default:
		return shape.Shape{}, fmt.Errorf("%s: replacement root must be a document, got %s", op, s.Kind)
	}
}
