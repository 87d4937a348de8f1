// Package wire compiles pipelines to their database wire form.
//
// The wire form is a JSON array of single-key stage objects, exactly what a
// document database's aggregate or update command accepts:
//
//	[{"$match": {"status": "active"}}, {"$set": {"tier": "gold"}}]
//
// Compilation is deterministic: the same pipeline always produces the same
// ir.Array, and Marshal emits RFC 8785 canonical JSON, so wire bytes are
// stable across processes and releases. That stability is what makes
// content-addressed pipeline IDs meaningful.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/pipeline"
)

// Compile converts a pipeline to its wire array.
// Stage order is preserved exactly; each stage contributes one object.
func Compile(p pipeline.Pipeline) (ir.Array, error) {
	stages := p.Stages()
	out := make(ir.Array, len(stages))
	for i, s := range stages {
		obj, err := s.Wire()
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, s.Name(), err)
		}
		out[i] = obj
	}
	return out, nil
}

// Marshal compiles a pipeline and serializes it as canonical JSON.
// The output is byte-for-byte reproducible.
func Marshal(p pipeline.Pipeline) ([]byte, error) {
	arr, err := Compile(p)
	if err != nil {
		return nil, err
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return nil, fmt.Errorf("canonicalize pipeline: %w", err)
	}
	return data, nil
}

// MarshalIndent compiles a pipeline and serializes it with indentation for
// human consumption. Key order matches the canonical form; only whitespace
// differs.
func MarshalIndent(p pipeline.Pipeline) ([]byte, error) {
	data, err := Marshal(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("indent pipeline: %w", err)
	}
	return buf.Bytes(), nil
}

// ID computes the content-addressed pipeline identifier.
// Two pipelines that compile to the same wire form share an ID regardless
// of how they were constructed.
func ID(p pipeline.Pipeline) (string, error) {
	arr, err := Compile(p)
	if err != nil {
		return "", err
	}
	return ir.PipelineID(arr)
}
