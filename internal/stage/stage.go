package stage

import (
	"fmt"
	"sort"

	"github.com/pipewright/pipewright/internal/expr"
	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/shape"
)

// Stage is a sealed interface over pipeline stage descriptors.
//
// Name returns the wire operator ("$set", "$unset", ...).
// Wire returns the single-key stage object sent to the database.
// Refs returns the field paths the stage reads from its input document.
// Transform applies the stage's effect to a document shape.
type Stage interface {
	stageNode() // Marker method - seals interface to this package

	Name() string
	Wire() (ir.Object, error)
	Refs() []string
	Transform(in shape.Shape) (shape.Shape, error)
}

// Set adds or overwrites computed fields. Wire form: {"$set": {...}}.
//
// Dotted keys materialize nested documents, so Set{"meta.tier": ...}
// produces a meta subdocument when none exists.
type Set struct {
	Fields map[string]expr.Expr
}

func (Set) stageNode() {}

// Name returns "$set".
func (Set) Name() string { return "$set" }

func (s Set) Wire() (ir.Object, error) {
	return wireAssignments(s.Name(), s.Fields)
}

func (s Set) Refs() []string {
	return assignmentRefs(s.Fields)
}

func (s Set) Transform(in shape.Shape) (shape.Shape, error) {
	return transformAssignments(in, s.Fields)
}

// AddFields is the aggregation-spelling twin of Set.
// Wire form: {"$addFields": {...}}. Identical shape semantics.
type AddFields struct {
	Fields map[string]expr.Expr
}

func (AddFields) stageNode() {}

// Name returns "$addFields".
func (AddFields) Name() string { return "$addFields" }

func (a AddFields) Wire() (ir.Object, error) {
	return wireAssignments(a.Name(), a.Fields)
}

func (a AddFields) Refs() []string {
	return assignmentRefs(a.Fields)
}

func (a AddFields) Transform(in shape.Shape) (shape.Shape, error) {
	return transformAssignments(in, a.Fields)
}

// Unset removes fields. Wire form: {"$unset": "path"} for a single path,
// {"$unset": ["a", "b"]} otherwise.
type Unset struct {
	Paths []string
}

func (Unset) stageNode() {}

// Name returns "$unset".
func (Unset) Name() string { return "$unset" }

func (u Unset) Wire() (ir.Object, error) {
	for _, p := range u.Paths {
		if _, err := shape.SplitPath(p); err != nil {
			return nil, fmt.Errorf("$unset: %w", err)
		}
	}
	if len(u.Paths) == 1 {
		return ir.Object{"$unset": ir.String(u.Paths[0])}, nil
	}
	arr := make(ir.Array, len(u.Paths))
	for i, p := range u.Paths {
		arr[i] = ir.String(p)
	}
	return ir.Object{"$unset": arr}, nil
}

// Refs returns the removed paths - unsetting a field reads its location.
func (u Unset) Refs() []string {
	return append([]string(nil), u.Paths...)
}

func (u Unset) Transform(in shape.Shape) (shape.Shape, error) {
	out := in
	for _, p := range u.Paths {
		next, err := out.WithoutField(p)
		if err != nil {
			return shape.Shape{}, fmt.Errorf("$unset %q: %w", p, err)
		}
		out = next
	}
	return out, nil
}

// Project narrows the document to the listed paths plus computed fields.
// Wire form: {"$project": {"name": 1, "total": {"$multiply": [...]}}}.
type Project struct {
	Paths    []string
	Computed map[string]expr.Expr
}

func (Project) stageNode() {}

// Name returns "$project".
func (Project) Name() string { return "$project" }

func (p Project) Wire() (ir.Object, error) {
	body := make(ir.Object, len(p.Paths)+len(p.Computed))
	for _, path := range p.Paths {
		if _, err := shape.SplitPath(path); err != nil {
			return nil, fmt.Errorf("$project: %w", err)
		}
		body[path] = ir.Int(1)
	}
	for path, e := range p.Computed {
		w, err := e.Wire()
		if err != nil {
			return nil, fmt.Errorf("$project %q: %w", path, err)
		}
		body[path] = w
	}
	return ir.Object{"$project": body}, nil
}

func (p Project) Refs() []string {
	refs := append([]string(nil), p.Paths...)
	refs = append(refs, assignmentRefs(p.Computed)...)
	return refs
}

func (p Project) Transform(in shape.Shape) (shape.Shape, error) {
	out, err := in.Project(p.Paths)
	if err != nil {
		return shape.Shape{}, fmt.Errorf("$project: %w", err)
	}
	if len(p.Computed) > 0 {
		// Computed fields evaluate against the stage INPUT document.
		out2, err := transformAssignmentsOnto(in, out, p.Computed)
		if err != nil {
			return shape.Shape{}, fmt.Errorf("$project: %w", err)
		}
		out = out2
	}
	return out, nil
}

// Match filters documents by field equality. Wire form:
// {"$match": {"status": "active"}}. Shape passes through unchanged.
type Match struct {
	Conditions map[string]ir.Value
}

func (Match) stageNode() {}

// Name returns "$match".
func (Match) Name() string { return "$match" }

func (m Match) Wire() (ir.Object, error) {
	body := make(ir.Object, len(m.Conditions))
	for path, v := range m.Conditions {
		if _, err := shape.SplitPath(path); err != nil {
			return nil, fmt.Errorf("$match: %w", err)
		}
		if v == nil {
			v = ir.Null{}
		}
		body[path] = v
	}
	return ir.Object{"$match": body}, nil
}

func (m Match) Refs() []string {
	paths := make([]string, 0, len(m.Conditions))
	for path := range m.Conditions {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Transform is the identity - filtering never reshapes documents.
func (Match) Transform(in shape.Shape) (shape.Shape, error) {
	return in, nil
}

// SortKey is one key of a Sort stage.
type SortKey struct {
	Path string
	Desc bool
}

// Sort orders the stream. Wire form: {"$sort": {"age": -1, "name": 1}}.
//
// The wire object cannot express key priority; multi-key sorts rely on the
// canonical key ordering of the serialized form. Single-key sorts are
// unambiguous.
type Sort struct {
	Keys []SortKey
}

func (Sort) stageNode() {}

// Name returns "$sort".
func (Sort) Name() string { return "$sort" }

func (s Sort) Wire() (ir.Object, error) {
	body := make(ir.Object, len(s.Keys))
	for _, k := range s.Keys {
		if _, err := shape.SplitPath(k.Path); err != nil {
			return nil, fmt.Errorf("$sort: %w", err)
		}
		dir := ir.Int(1)
		if k.Desc {
			dir = ir.Int(-1)
		}
		body[k.Path] = dir
	}
	return ir.Object{"$sort": body}, nil
}

func (s Sort) Refs() []string {
	paths := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		paths[i] = k.Path
	}
	return paths
}

// Transform is the identity.
func (Sort) Transform(in shape.Shape) (shape.Shape, error) {
	return in, nil
}

// Limit caps the stream length. Wire form: {"$limit": n}.
type Limit struct {
	N int64
}

func (Limit) stageNode() {}

// Name returns "$limit".
func (Limit) Name() string { return "$limit" }

func (l Limit) Wire() (ir.Object, error) {
	return ir.Object{"$limit": ir.Int(l.N)}, nil
}

func (Limit) Refs() []string { return nil }

// Transform is the identity.
func (Limit) Transform(in shape.Shape) (shape.Shape, error) {
	return in, nil
}

// Skip drops leading documents. Wire form: {"$skip": n}.
type Skip struct {
	N int64
}

func (Skip) stageNode() {}

// Name returns "$skip".
func (Skip) Name() string { return "$skip" }

func (s Skip) Wire() (ir.Object, error) {
	return ir.Object{"$skip": ir.Int(s.N)}, nil
}

func (Skip) Refs() []string { return nil }

// Transform is the identity.
func (Skip) Transform(in shape.Shape) (shape.Shape, error) {
	return in, nil
}

// Count collapses the stream to {"<field>": <int>}.
// Wire form: {"$count": "field"}.
type Count struct {
	Field string
}

func (Count) stageNode() {}

// Name returns "$count".
func (Count) Name() string { return "$count" }

func (c Count) Wire() (ir.Object, error) {
	if _, err := shape.SplitPath(c.Field); err != nil {
		return nil, fmt.Errorf("$count: %w", err)
	}
	return ir.Object{"$count": ir.String(c.Field)}, nil
}

func (Count) Refs() []string { return nil }

// Transform replaces the whole shape with the counter document.
func (c Count) Transform(shape.Shape) (shape.Shape, error) {
	return shape.Document(map[string]shape.Shape{
		c.Field: shape.Of(shape.KindInt),
	}), nil
}

// ReplaceRoot swaps the document root.
// Wire form: {"$replaceRoot": {"newRoot": <expr>}}.
type ReplaceRoot struct {
	NewRoot expr.Expr
}

func (ReplaceRoot) stageNode() {}

// Name returns "$replaceRoot".
func (ReplaceRoot) Name() string { return "$replaceRoot" }

func (r ReplaceRoot) Wire() (ir.Object, error) {
	w, err := wireRoot(r.NewRoot)
	if err != nil {
		return nil, fmt.Errorf("$replaceRoot: %w", err)
	}
	return ir.Object{"$replaceRoot": ir.Object{"newRoot": w}}, nil
}

func (r ReplaceRoot) Refs() []string {
	return rootRefs(r.NewRoot)
}

func (r ReplaceRoot) Transform(in shape.Shape) (shape.Shape, error) {
	return transformRoot(in, r.NewRoot, r.Name())
}

// ReplaceWith is the shorthand spelling of ReplaceRoot.
// Wire form: {"$replaceWith": <expr>}.
type ReplaceWith struct {
	NewRoot expr.Expr
}

func (ReplaceWith) stageNode() {}

// Name returns "$replaceWith".
func (ReplaceWith) Name() string { return "$replaceWith" }

func (r ReplaceWith) Wire() (ir.Object, error) {
	w, err := wireRoot(r.NewRoot)
	if err != nil {
		return nil, fmt.Errorf("$replaceWith: %w", err)
	}
	return ir.Object{"$replaceWith": w}, nil
}

func (r ReplaceWith) Refs() []string {
	return rootRefs(r.NewRoot)
}

func (r ReplaceWith) Transform(in shape.Shape) (shape.Shape, error) {
	return transformRoot(in, r.NewRoot, r.Name())
}
