// Package compiler turns CUE document schemas into shapes.
//
// A schema file declares one or more collections under the "schema" path:
//
//	schema: users: {
//		name:   string
//		age:    int
//		score:  float
//		active: bool
//		meta: {tier: string}
//		tags: [...string]
//	}
//
// CompileSchema maps CUE kinds onto shape kinds; the resulting shapes feed
// pipeline validation, so a pipeline can be checked against the collection
// it will run on before anything reaches a database.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/pipewright/pipewright/internal/shape"
)

// CompileSchema parses a CUE value into a document shape.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the collection struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schema: users: {name: string}`)
//	s, err := CompileSchema(v.LookupPath(cue.ParsePath("schema.users")))
func CompileSchema(v cue.Value) (shape.Shape, error) {
	if err := v.Err(); err != nil {
		return shape.Shape{}, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return shape.Shape{}, &CompileError{
			Field:   "schema",
			Message: fmt.Sprintf("collection schema must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	return compileValue(v, "")
}

// compileValue maps one CUE value onto a shape. field carries the dotted
// path for error messages.
func compileValue(v cue.Value, field string) (shape.Shape, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return shape.Of(shape.KindString), nil
	case cue.IntKind:
		return shape.Of(shape.KindInt), nil
	case cue.FloatKind, cue.NumberKind:
		return shape.Of(shape.KindDouble), nil
	case cue.BoolKind:
		return shape.Of(shape.KindBool), nil
	case cue.NullKind:
		return shape.Of(shape.KindNull), nil
	case cue.TopKind:
		return shape.Any(), nil
	case cue.StructKind:
		return compileStruct(v, field)
	case cue.ListKind:
		return compileList(v, field)
	default:
		return shape.Shape{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func compileStruct(v cue.Value, field string) (shape.Shape, error) {
	iter, err := v.Fields()
	if err != nil {
		return shape.Shape{}, formatCUEError(err)
	}

	fields := make(map[string]shape.Shape)
	for iter.Next() {
		name := iter.Label()
		child := field + "." + name
		if field == "" {
			child = name
		}
		fs, err := compileValue(iter.Value(), child)
		if err != nil {
			return shape.Shape{}, err
		}
		fields[name] = fs
	}
	return shape.Document(fields), nil
}

// compileList resolves the element type of open lists like [...string].
// Lists without a resolvable element pattern get an Any element.
func compileList(v cue.Value, field string) (shape.Shape, error) {
	elem := v.LookupPath(cue.MakePath(cue.AnyIndex))
	if !elem.Exists() {
		return shape.List(shape.Any()), nil
	}
	es, err := compileValue(elem, field+"[]")
	if err != nil {
		return shape.Shape{}, err
	}
	return shape.List(es), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
