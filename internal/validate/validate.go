// Package validate checks pipelines against document shapes before
// dispatch.
//
// The builder itself never validates; this pass is where dangling field
// references, illegal update stages, and impossible root replacements are
// caught. Validation folds each stage's shape transform over the declared
// input shape, checking the stage's field references against the shape it
// actually receives - stage three sees the document produced by stages one
// and two, not the collection schema.
package validate

import (
	"fmt"

	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/shape"
	"github.com/pipewright/pipewright/internal/stage"
)

// Result contains the outcome of validating one pipeline.
//
// Validation is advisory in the same way shape tracking is: an open-world
// (Any) input shape turns reference checks into no-ops, so Result.Valid
// never gives false negatives for pipelines it cannot reason about.
type Result struct {
	// Valid is true when no errors were found.
	Valid bool

	// Errors lists everything wrong, one entry per finding.
	// Empty when Valid is true.
	Errors []StageError

	// Output is the document shape the pipeline produces.
	// Meaningful even for invalid pipelines: a failing stage degrades
	// the shape to Any and the walk continues, so one broken stage does
	// not hide findings in later stages.
	Output shape.Shape
}

// StageError locates one finding within a pipeline.
type StageError struct {
	// Index is the zero-based stage position.
	Index int

	// Stage is the wire operator name ("$set", ...).
	Stage string

	// Message describes the finding.
	Message string
}

// Error formats the finding with its position.
func (e StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %s", e.Index, e.Stage, e.Message)
}

// updateStages is the stage whitelist for update pipelines.
// Document databases accept only these four operators in update form.
var updateStages = map[string]bool{
	"$set":         true,
	"$unset":       true,
	"$replaceRoot": true,
	"$replaceWith": true,
}

// Pipeline validates a pipeline against an input document shape.
// Pass shape.Any() to skip reference checking and only enforce
// flavor rules.
//
// Pipeline is a pure function with no side effects.
func Pipeline(p pipeline.Pipeline, input shape.Shape) Result {
	v := &validator{current: input}

	for i, s := range p.Stages() {
		if p.Flavor() == pipeline.FlavorUpdate && !updateStages[s.Name()] {
			v.addError(i, s, "not allowed in update pipelines (only $set, $unset, $replaceRoot, $replaceWith)")
		}
		v.checkRefs(i, s)
		v.apply(i, s)
	}

	return Result{
		Valid:  len(v.errors) == 0,
		Errors: v.errors,
		Output: v.current,
	}
}

// validator accumulates findings while folding shapes over the stages.
type validator struct {
	current shape.Shape
	errors  []StageError
}

func (v *validator) addError(index int, s stage.Stage, format string, args ...any) {
	v.errors = append(v.errors, StageError{
		Index:   index,
		Stage:   s.Name(),
		Message: fmt.Sprintf(format, args...),
	})
}

// checkRefs verifies every field path the stage reads exists on the shape
// the stage receives. Open-world shapes satisfy every reference.
func (v *validator) checkRefs(index int, s stage.Stage) {
	for _, ref := range s.Refs() {
		if _, ok := v.current.FieldAt(ref); !ok {
			v.addError(index, s, "references unknown field %q", ref)
		}
	}
}

// apply folds the stage's transform into the running shape.
// A failing transform records the error and degrades the shape to Any so
// later stages still get checked.
func (v *validator) apply(index int, s stage.Stage) {
	next, err := s.Transform(v.current)
	if err != nil {
		v.addError(index, s, "%v", err)
		v.current = shape.Any()
		return
	}
	v.current = next
}
