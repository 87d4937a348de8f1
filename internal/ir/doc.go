// Package ir defines the wire value model for document pipelines.
//
// Every pipeline stage ultimately serializes to a tree of ir.Value nodes,
// the JSON-compatible subset a document database accepts: null, string,
// 64-bit integer, double, bool, array, object.
//
// SEALED INTERFACE:
//
// Value is sealed with a marker method. Only the types in this package
// implement it, which keeps type switches in the wire compiler exhaustive
// and prevents callers from smuggling arbitrary Go values into a pipeline.
//
// CANONICAL FORM:
//
// MarshalCanonical produces a deterministic byte form used for
// content-addressed pipeline identity:
//   - object keys sorted by UTF-16 code units (RFC 8785 ordering)
//   - strings NFC normalized at the serialization boundary
//   - no HTML escaping
//   - doubles must be finite (NaN and Inf are rejected)
//
// Two pipelines with the same stages always hash to the same PipelineID,
// regardless of the order their descriptor maps were populated in.
package ir
