// Package pipeline composes stage descriptors into pipelines.
//
// The builder is deliberately thin: it folds StageFuncs left to right over
// an empty accumulator and freezes the result. It performs no validation,
// never inspects stage contents, and has no failure path of its own - a
// panicking StageFunc propagates unchanged and no partial pipeline is
// observable.
//
// TWO FLAVORS, ONE STAGE FUNCTION:
//
// Aggregation (read) and Update (write) pipelines are built from the same
// StageFunc values. A stage function is written once:
//
//	promote := pipeline.Set(map[string]expr.Expr{"tier": expr.Str("gold")})
//
//	read  := pipeline.Aggregation(pipeline.Match(...), promote)
//	write := pipeline.Update(promote, pipeline.Unset("legacy_tier"))
//
// Whether a stage is legal for a flavor (update pipelines accept only
// $set, $unset, $replaceRoot and $replaceWith) is the validate package's
// concern, checked before dispatch - exactly like field-reference checks.
//
// ORDER:
//
// Stage order in the result always equals argument order. The fold is
// strict, sequential, and pure; building the same stage functions twice
// yields structurally equal pipelines.
package pipeline
