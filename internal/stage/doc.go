// Package stage defines the pipeline stage descriptors.
//
// Stage is a sealed interface - only types in this package implement it.
// The marker method pattern keeps type switches in the wire compiler and
// the validator exhaustive, and prevents external stage types from
// bypassing shape tracking.
//
// Stage types:
//   - Set, AddFields: add or overwrite computed fields
//   - Unset: remove fields
//   - Project: narrow the document to listed and computed fields
//   - Match: filter documents by field equality
//   - Sort, Limit, Skip: ordering and windowing
//   - Count: collapse the stream to a single counter document
//   - ReplaceRoot, ReplaceWith: swap the document root
//
// A stage is plain descriptor data. The pipeline builder never inspects
// it; the wire compiler asks for Wire(), and the validator asks for Refs()
// and Transform(). Stages perform no validation of their own content -
// that is the validate package's pass, run before dispatch.
package stage
