package expr

import (
	"fmt"
	"strings"

	"github.com/pipewright/pipewright/internal/ir"
)

// FromWire parses a wire value back into an expression tree.
// Used by the manifest loader, which decodes YAML stage definitions into
// ir values first.
//
// Parsing rules:
//   - "$path" strings become Field references
//   - single-key objects whose key starts with "$" become operators
//   - other objects become Doc literals with values parsed recursively
//   - arrays become Arr literals with elements parsed recursively
//   - everything else is a Literal
func FromWire(v ir.Value) (Expr, error) {
	switch val := v.(type) {
	case ir.String:
		if strings.HasPrefix(string(val), "$") {
			path := strings.TrimPrefix(string(val), "$")
			f := Field(path)
			if _, err := f.Wire(); err != nil {
				return nil, err
			}
			return f, nil
		}
		return Literal{Value: val}, nil

	case ir.Object:
		if op, ok := singleOperatorKey(val); ok {
			return parseOperator(op, val[op])
		}
		doc := make(Doc, len(val))
		for k, elem := range val {
			if strings.HasPrefix(k, "$") {
				return nil, fmt.Errorf("operator key %q must be the only key of its object", k)
			}
			parsed, err := FromWire(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			doc[k] = parsed
		}
		return doc, nil

	case ir.Array:
		arr := make(Arr, len(val))
		for i, elem := range val {
			parsed, err := FromWire(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = parsed
		}
		return arr, nil

	case nil:
		return Literal{Value: ir.Null{}}, nil

	default:
		return Literal{Value: val}, nil
	}
}

// singleOperatorKey reports whether the object is a single-entry operator
// object like {"$add": [...]}.
func singleOperatorKey(obj ir.Object) (string, bool) {
	if len(obj) != 1 {
		return "", false
	}
	for k := range obj {
		if strings.HasPrefix(k, "$") {
			return k, true
		}
	}
	return "", false
}

func parseOperator(op string, arg ir.Value) (Expr, error) {
	switch op {
	case "$literal":
		return Literal{Value: arg}, nil

	case "$add":
		operands, err := parseOperands(op, arg, 1, -1)
		if err != nil {
			return nil, err
		}
		return Add{Operands: operands}, nil

	case "$multiply":
		operands, err := parseOperands(op, arg, 1, -1)
		if err != nil {
			return nil, err
		}
		return Multiply{Operands: operands}, nil

	case "$concat":
		operands, err := parseOperands(op, arg, 1, -1)
		if err != nil {
			return nil, err
		}
		return Concat{Operands: operands}, nil

	case "$subtract":
		operands, err := parseOperands(op, arg, 2, 2)
		if err != nil {
			return nil, err
		}
		return Subtract{Left: operands[0], Right: operands[1]}, nil

	case "$divide":
		operands, err := parseOperands(op, arg, 2, 2)
		if err != nil {
			return nil, err
		}
		return Divide{Left: operands[0], Right: operands[1]}, nil

	case "$cond":
		return parseCond(arg)

	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

// parseOperands parses an operator argument array with arity bounds.
// max < 0 means unbounded.
func parseOperands(op string, arg ir.Value, min, max int) ([]Expr, error) {
	arr, ok := arg.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("%s expects an array of operands, got %T", op, arg)
	}
	if len(arr) < min {
		return nil, fmt.Errorf("%s expects at least %d operand(s), got %d", op, min, len(arr))
	}
	if max >= 0 && len(arr) > max {
		return nil, fmt.Errorf("%s expects at most %d operand(s), got %d", op, max, len(arr))
	}

	operands := make([]Expr, len(arr))
	for i, elem := range arr {
		parsed, err := FromWire(elem)
		if err != nil {
			return nil, fmt.Errorf("%s operand %d: %w", op, i, err)
		}
		operands[i] = parsed
	}
	return operands, nil
}

// parseCond accepts both $cond forms: the object form with if/then/else
// keys and the positional three-element array form.
func parseCond(arg ir.Value) (Expr, error) {
	switch val := arg.(type) {
	case ir.Object:
		ifV, okIf := val["if"]
		thenV, okThen := val["then"]
		elseV, okElse := val["else"]
		if !okIf || !okThen || !okElse || len(val) != 3 {
			return nil, fmt.Errorf("$cond object form requires exactly if, then, else")
		}
		ifE, err := FromWire(ifV)
		if err != nil {
			return nil, fmt.Errorf("$cond if: %w", err)
		}
		thenE, err := FromWire(thenV)
		if err != nil {
			return nil, fmt.Errorf("$cond then: %w", err)
		}
		elseE, err := FromWire(elseV)
		if err != nil {
			return nil, fmt.Errorf("$cond else: %w", err)
		}
		return Cond{If: ifE, Then: thenE, Else: elseE}, nil

	case ir.Array:
		operands, err := parseOperands("$cond", val, 3, 3)
		if err != nil {
			return nil, err
		}
		return Cond{If: operands[0], Then: operands[1], Else: operands[2]}, nil

	default:
		return nil, fmt.Errorf("$cond expects an object or a three-element array, got %T", arg)
	}
}
