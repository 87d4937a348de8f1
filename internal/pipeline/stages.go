package pipeline

import (
	"github.com/pipewright/pipewright/internal/expr"
	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/stage"
)

// Stage lifts any stage descriptor into a StageFunc.
// All constructors below are thin wrappers over it.
func Stage(s stage.Stage) StageFunc {
	return func(acc Accumulator) Accumulator {
		return acc.Append(s)
	}
}

// Set returns a stage function that adds or overwrites computed fields.
func Set(fields map[string]expr.Expr) StageFunc {
	return Stage(stage.Set{Fields: fields})
}

// AddFields returns a stage function spelled $addFields on the wire.
func AddFields(fields map[string]expr.Expr) StageFunc {
	return Stage(stage.AddFields{Fields: fields})
}

// Unset returns a stage function that removes the given field paths.
func Unset(paths ...string) StageFunc {
	return Stage(stage.Unset{Paths: paths})
}

// Project returns a stage function that narrows the document to the given
// paths.
func Project(paths ...string) StageFunc {
	return Stage(stage.Project{Paths: paths})
}

// ProjectComputed returns a projection with additional computed fields.
func ProjectComputed(paths []string, computed map[string]expr.Expr) StageFunc {
	return Stage(stage.Project{Paths: paths, Computed: computed})
}

// Match returns a stage function that filters by field equality.
func Match(conditions map[string]ir.Value) StageFunc {
	return Stage(stage.Match{Conditions: conditions})
}

// Sort returns a stage function that orders the stream.
func Sort(keys ...stage.SortKey) StageFunc {
	return Stage(stage.Sort{Keys: keys})
}

// Limit returns a stage function that caps the stream length.
func Limit(n int64) StageFunc {
	return Stage(stage.Limit{N: n})
}

// Skip returns a stage function that drops leading documents.
func Skip(n int64) StageFunc {
	return Stage(stage.Skip{N: n})
}

// Count returns a stage function that collapses the stream to a counter.
func Count(field string) StageFunc {
	return Stage(stage.Count{Field: field})
}

// ReplaceRoot returns a stage function that swaps the document root.
func ReplaceRoot(newRoot expr.Expr) StageFunc {
	return Stage(stage.ReplaceRoot{NewRoot: newRoot})
}

// ReplaceWith returns the shorthand spelling of ReplaceRoot.
func ReplaceWith(newRoot expr.Expr) StageFunc {
	return Stage(stage.ReplaceWith{NewRoot: newRoot})
}
