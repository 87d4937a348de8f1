package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/shape"
)

// Expr is a sealed interface over expression nodes.
//
// Wire returns the operator-object form sent to the database.
// Refs returns the field paths (without the "$" sigil) the expression
// reads from the current document.
// Kind returns the expression's result kind under the given input shape;
// pass shape.Any() when no shape is known.
type Expr interface {
	exprNode() // Marker method - seals interface to this package

	Wire() (ir.Value, error)
	Refs() []string
	Kind(in shape.Shape) shape.Kind
}

// Field references a field of the current document by dotted path.
// The path is stored WITHOUT the "$" sigil; Wire adds it.
type Field string

func (Field) exprNode() {}

// Wire returns the "$path" reference string.
func (f Field) Wire() (ir.Value, error) {
	if _, err := shape.SplitPath(string(f)); err != nil {
		return nil, fmt.Errorf("field reference: %w", err)
	}
	return ir.String("$" + string(f)), nil
}

// Refs returns the referenced path itself.
func (f Field) Refs() []string {
	return []string{string(f)}
}

// Kind resolves the field against the input shape.
func (f Field) Kind(in shape.Shape) shape.Kind {
	resolved, ok := in.FieldAt(string(f))
	if !ok {
		return shape.KindAny
	}
	return resolved.Kind
}

// Literal wraps a constant wire value.
type Literal struct {
	Value ir.Value
}

func (Literal) exprNode() {}

// Wire returns the constant. A string constant starting with "$" is
// wrapped in $literal so the database does not misread it as a field
// reference.
func (l Literal) Wire() (ir.Value, error) {
	v := l.Value
	if v == nil {
		v = ir.Null{}
	}
	if s, ok := v.(ir.String); ok && strings.HasPrefix(string(s), "$") {
		return ir.Object{"$literal": s}, nil
	}
	return v, nil
}

// Refs returns nil - constants reference nothing.
func (Literal) Refs() []string { return nil }

// Kind returns the kind of the wrapped value.
func (l Literal) Kind(shape.Shape) shape.Kind {
	switch l.Value.(type) {
	case nil, ir.Null:
		return shape.KindNull
	case ir.String:
		return shape.KindString
	case ir.Int:
		return shape.KindInt
	case ir.Double:
		return shape.KindDouble
	case ir.Bool:
		return shape.KindBool
	case ir.Array:
		return shape.KindArray
	case ir.Object:
		return shape.KindObject
	default:
		return shape.KindAny
	}
}

// Lit is a shorthand Literal constructor.
func Lit(v ir.Value) Literal { return Literal{Value: v} }

// Str is a shorthand for a string literal.
func Str(s string) Literal { return Literal{Value: ir.String(s)} }

// Int is a shorthand for an integer literal.
func Int(n int64) Literal { return Literal{Value: ir.Int(n)} }

// Dbl is a shorthand for a double literal.
func Dbl(f float64) Literal { return Literal{Value: ir.Double(f)} }

// Doc is a literal subdocument with embedded expressions.
type Doc map[string]Expr

func (Doc) exprNode() {}

// Wire returns the document with each value in wire form.
func (d Doc) Wire() (ir.Value, error) {
	obj := make(ir.Object, len(d))
	for k, e := range d {
		w, err := e.Wire()
		if err != nil {
			return nil, fmt.Errorf("doc field %q: %w", k, err)
		}
		obj[k] = w
	}
	return obj, nil
}

// Refs returns the union of the embedded expressions' refs.
// Keys are visited in sorted order so error reporting is deterministic.
func (d Doc) Refs() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var refs []string
	for _, k := range keys {
		refs = append(refs, d[k].Refs()...)
	}
	return dedup(refs)
}

// Kind returns KindObject.
func (Doc) Kind(shape.Shape) shape.Kind { return shape.KindObject }

// Arr is a literal array with embedded expressions.
type Arr []Expr

func (Arr) exprNode() {}

// Wire returns the array with each element in wire form.
func (a Arr) Wire() (ir.Value, error) {
	out := make(ir.Array, len(a))
	for i, e := range a {
		w, err := e.Wire()
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		out[i] = w
	}
	return out, nil
}

// Refs returns the union of the elements' refs.
func (a Arr) Refs() []string {
	var refs []string
	for _, e := range a {
		refs = append(refs, e.Refs()...)
	}
	return dedup(refs)
}

// Kind returns KindArray.
func (Arr) Kind(shape.Shape) shape.Kind { return shape.KindArray }

// Add sums its operands. Wire form: {"$add": [...]}.
type Add struct {
	Operands []Expr
}

func (Add) exprNode() {}

func (a Add) Wire() (ir.Value, error) {
	return wireOperator("$add", a.Operands)
}

func (a Add) Refs() []string { return unionRefs(a.Operands) }

// Kind is KindInt when every operand is an int, KindDouble when all
// operands are numeric, KindAny otherwise.
func (a Add) Kind(in shape.Shape) shape.Kind {
	return numericKind(a.Operands, in)
}

// Subtract computes Left - Right. Wire form: {"$subtract": [l, r]}.
type Subtract struct {
	Left  Expr
	Right Expr
}

func (Subtract) exprNode() {}

func (s Subtract) Wire() (ir.Value, error) {
	return wireOperator("$subtract", []Expr{s.Left, s.Right})
}

func (s Subtract) Refs() []string { return unionRefs([]Expr{s.Left, s.Right}) }

func (s Subtract) Kind(in shape.Shape) shape.Kind {
	return numericKind([]Expr{s.Left, s.Right}, in)
}

// Multiply multiplies its operands. Wire form: {"$multiply": [...]}.
type Multiply struct {
	Operands []Expr
}

func (Multiply) exprNode() {}

func (m Multiply) Wire() (ir.Value, error) {
	return wireOperator("$multiply", m.Operands)
}

func (m Multiply) Refs() []string { return unionRefs(m.Operands) }

func (m Multiply) Kind(in shape.Shape) shape.Kind {
	return numericKind(m.Operands, in)
}

// Divide computes Left / Right. Division always yields a double.
// Wire form: {"$divide": [l, r]}.
type Divide struct {
	Left  Expr
	Right Expr
}

func (Divide) exprNode() {}

func (d Divide) Wire() (ir.Value, error) {
	return wireOperator("$divide", []Expr{d.Left, d.Right})
}

func (d Divide) Refs() []string { return unionRefs([]Expr{d.Left, d.Right}) }

func (Divide) Kind(shape.Shape) shape.Kind { return shape.KindDouble }

// Concat concatenates string operands. Wire form: {"$concat": [...]}.
type Concat struct {
	Operands []Expr
}

func (Concat) exprNode() {}

func (c Concat) Wire() (ir.Value, error) {
	return wireOperator("$concat", c.Operands)
}

func (c Concat) Refs() []string { return unionRefs(c.Operands) }

func (Concat) Kind(shape.Shape) shape.Kind { return shape.KindString }

// Cond selects Then or Else based on If.
// Wire form: {"$cond": {"if": ..., "then": ..., "else": ...}}.
type Cond struct {
	If   Expr
	Then Expr
	Else Expr
}

func (Cond) exprNode() {}

func (c Cond) Wire() (ir.Value, error) {
	ifW, err := c.If.Wire()
	if err != nil {
		return nil, fmt.Errorf("$cond if: %w", err)
	}
	thenW, err := c.Then.Wire()
	if err != nil {
		return nil, fmt.Errorf("$cond then: %w", err)
	}
	elseW, err := c.Else.Wire()
	if err != nil {
		return nil, fmt.Errorf("$cond else: %w", err)
	}
	return ir.Object{"$cond": ir.Object{
		"if":   ifW,
		"then": thenW,
		"else": elseW,
	}}, nil
}

func (c Cond) Refs() []string { return unionRefs([]Expr{c.If, c.Then, c.Else}) }

// Kind is the common kind of both branches, KindAny when they differ.
func (c Cond) Kind(in shape.Shape) shape.Kind {
	thenK := c.Then.Kind(in)
	if elseK := c.Else.Kind(in); elseK != thenK {
		return shape.KindAny
	}
	return thenK
}

// wireOperator renders {"<op>": [operands...]}.
func wireOperator(op string, operands []Expr) (ir.Value, error) {
	arr := make(ir.Array, len(operands))
	for i, e := range operands {
		if e == nil {
			return nil, fmt.Errorf("%s operand %d is nil", op, i)
		}
		w, err := e.Wire()
		if err != nil {
			return nil, fmt.Errorf("%s operand %d: %w", op, i, err)
		}
		arr[i] = w
	}
	return ir.Object{op: arr}, nil
}

// unionRefs collects refs from all operands, first occurrence wins.
func unionRefs(operands []Expr) []string {
	var refs []string
	for _, e := range operands {
		if e == nil {
			continue
		}
		refs = append(refs, e.Refs()...)
	}
	return dedup(refs)
}

func dedup(refs []string) []string {
	if len(refs) < 2 {
		return refs
	}
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// numericKind folds operand kinds: all ints stay int, any double widens
// to double, anything non-numeric (or unknown) gives KindAny.
func numericKind(operands []Expr, in shape.Shape) shape.Kind {
	result := shape.KindInt
	for _, e := range operands {
		if e == nil {
			return shape.KindAny
		}
		switch e.Kind(in) {
		case shape.KindInt:
		case shape.KindDouble:
			result = shape.KindDouble
		default:
			return shape.KindAny
		}
	}
	return result
}
