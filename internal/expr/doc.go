// Package expr defines the computed-value expression tree used inside
// pipeline stages.
//
// Expr is a sealed interface - only types in this package implement it.
// The marker method pattern keeps type switches in the stage layer
// exhaustive and prevents external expression types from bypassing
// field-reference tracking.
//
// Expression types:
//   - Field: a "$path" reference into the current document
//   - Literal: a constant wire value
//   - Doc, Arr: literal documents and arrays with embedded expressions
//   - Add, Subtract, Multiply, Divide: arithmetic operators
//   - Concat: string concatenation
//   - Cond: if/then/else selection
//
// Every expression reports the field paths it references (Refs) so the
// validation pass can check them against the document shape flowing
// through the pipeline, and its result kind under a given input shape
// (Kind) so stage transforms can record what they produce.
package expr
