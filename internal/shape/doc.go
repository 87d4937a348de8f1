// Package shape models the shape of documents flowing through a pipeline.
//
// The original builder tracked document shape statically; here the same
// bookkeeping runs at runtime, ahead of dispatch. Each pipeline stage knows
// how it transforms a Shape (set adds fields, unset removes them, project
// narrows, replaceRoot swaps the whole document) and the validate package
// folds those transforms over a declared input shape to catch dangling
// field references before a pipeline ever reaches a database.
//
// FIELD PATHS:
//
// Paths are dotted ("address.city"). A path segment that lands on an array
// descends into the element shape and resumes with the same segment, which
// mirrors how document databases traverse arrays of subdocuments:
//
//	items.price    on  {items: [{price: double}]}  →  double
//
// OPEN WORLD:
//
// KindAny is the escape hatch for unknown shape. Every lookup on Any
// succeeds with Any, and transforms of Any stay Any, so validation degrades
// to a no-op instead of rejecting pipelines it cannot reason about.
//
// Shapes are immutable: every transform returns a structurally fresh value
// and never aliases mutable state with its receiver.
package shape
