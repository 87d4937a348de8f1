package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pipewright/pipewright/internal/expr"
	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/stage"
)

// parseStage converts one YAML stage entry into a stage descriptor.
func parseStage(node *yaml.Node) (stage.Stage, error) {
	op, body, err := operatorKey(node)
	if err != nil {
		return nil, err
	}

	switch op {
	case "$match":
		return parseMatch(body)
	case "$set":
		fields, err := parseAssignments(body)
		if err != nil {
			return nil, fmt.Errorf("$set: %w", err)
		}
		return stage.Set{Fields: fields}, nil
	case "$addFields":
		fields, err := parseAssignments(body)
		if err != nil {
			return nil, fmt.Errorf("$addFields: %w", err)
		}
		return stage.AddFields{Fields: fields}, nil
	case "$unset":
		return parseUnset(body)
	case "$project":
		return parseProject(body)
	case "$sort":
		return parseSort(body)
	case "$limit":
		n, err := parseCount64(body)
		if err != nil {
			return nil, fmt.Errorf("$limit: %w", err)
		}
		return stage.Limit{N: n}, nil
	case "$skip":
		n, err := parseCount64(body)
		if err != nil {
			return nil, fmt.Errorf("$skip: %w", err)
		}
		return stage.Skip{N: n}, nil
	case "$count":
		var field string
		if err := body.Decode(&field); err != nil || field == "" {
			return nil, fmt.Errorf("$count expects a field name string")
		}
		return stage.Count{Field: field}, nil
	case "$replaceRoot":
		return parseReplaceRoot(body)
	case "$replaceWith":
		e, err := parseExpr(body)
		if err != nil {
			return nil, fmt.Errorf("$replaceWith: %w", err)
		}
		return stage.ReplaceWith{NewRoot: e}, nil
	default:
		return nil, fmt.Errorf("unknown stage operator %q", op)
	}
}

// parseValue decodes a YAML node into an ir value.
func parseValue(node *yaml.Node) (ir.Value, error) {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	return ir.FromGo(raw)
}

// parseExpr decodes a YAML node into an expression tree.
func parseExpr(node *yaml.Node) (expr.Expr, error) {
	v, err := parseValue(node)
	if err != nil {
		return nil, err
	}
	return expr.FromWire(v)
}

func parseMatch(body *yaml.Node) (stage.Stage, error) {
	var raw map[string]any
	if err := body.Decode(&raw); err != nil {
		return nil, fmt.Errorf("$match expects a mapping of path to value: %w", err)
	}
	conditions := make(map[string]ir.Value, len(raw))
	for path, v := range raw {
		converted, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("$match %q: %w", path, err)
		}
		conditions[path] = converted
	}
	return stage.Match{Conditions: conditions}, nil
}

func parseAssignments(body *yaml.Node) (map[string]expr.Expr, error) {
	var raw map[string]any
	if err := body.Decode(&raw); err != nil {
		return nil, fmt.Errorf("expects a mapping of path to expression: %w", err)
	}
	fields := make(map[string]expr.Expr, len(raw))
	for path, v := range raw {
		converted, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		parsed, err := expr.FromWire(converted)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		fields[path] = parsed
	}
	return fields, nil
}

func parseUnset(body *yaml.Node) (stage.Stage, error) {
	var single string
	if err := body.Decode(&single); err == nil {
		return stage.Unset{Paths: []string{single}}, nil
	}
	var many []string
	if err := body.Decode(&many); err != nil {
		return nil, fmt.Errorf("$unset expects a path or a list of paths")
	}
	return stage.Unset{Paths: many}, nil
}

func parseProject(body *yaml.Node) (stage.Stage, error) {
	var raw map[string]any
	if err := body.Decode(&raw); err != nil {
		return nil, fmt.Errorf("$project expects a mapping: %w", err)
	}
	var p stage.Project
	for path, v := range raw {
		// 1 (or true) includes the path; anything else is a computed field.
		switch inc := v.(type) {
		case int:
			if inc == 1 {
				p.Paths = append(p.Paths, path)
				continue
			}
			return nil, fmt.Errorf("$project %q: inclusion must be 1", path)
		case bool:
			if inc {
				p.Paths = append(p.Paths, path)
				continue
			}
			return nil, fmt.Errorf("$project %q: exclusion form is not supported", path)
		}
		converted, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("$project %q: %w", path, err)
		}
		parsed, err := expr.FromWire(converted)
		if err != nil {
			return nil, fmt.Errorf("$project %q: %w", path, err)
		}
		if p.Computed == nil {
			p.Computed = make(map[string]expr.Expr)
		}
		p.Computed[path] = parsed
	}
	return p, nil
}

// parseSort walks the mapping node directly so key order survives -
// yaml.v3 maps would lose the sort priority.
func parseSort(body *yaml.Node) (stage.Stage, error) {
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("$sort expects a mapping of path to 1 or -1")
	}
	var keys []stage.SortKey
	for i := 0; i+1 < len(body.Content); i += 2 {
		path := body.Content[i].Value
		var dir int
		if err := body.Content[i+1].Decode(&dir); err != nil {
			return nil, fmt.Errorf("$sort %q: %w", path, err)
		}
		switch dir {
		case 1:
			keys = append(keys, stage.SortKey{Path: path})
		case -1:
			keys = append(keys, stage.SortKey{Path: path, Desc: true})
		default:
			return nil, fmt.Errorf("$sort %q: direction must be 1 or -1, got %d", path, dir)
		}
	}
	return stage.Sort{Keys: keys}, nil
}

func parseCount64(body *yaml.Node) (int64, error) {
	var n int64
	if err := body.Decode(&n); err != nil {
		return 0, fmt.Errorf("expects an integer: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("must be non-negative, got %d", n)
	}
	return n, nil
}

func parseReplaceRoot(body *yaml.Node) (stage.Stage, error) {
	if body.Kind != yaml.MappingNode || len(body.Content) != 2 || body.Content[0].Value != "newRoot" {
		return nil, fmt.Errorf("$replaceRoot expects {newRoot: <expression>}")
	}
	e, err := parseExpr(body.Content[1])
	if err != nil {
		return nil, fmt.Errorf("$replaceRoot: %w", err)
	}
	return stage.ReplaceRoot{NewRoot: e}, nil
}
