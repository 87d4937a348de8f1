package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPipeline = "pipewright/pipeline/v1"
	DomainStage    = "pipewright/stage/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PipelineID computes the content-addressed ID for a compiled pipeline.
// The ID is stable across processes and key insertion order: two pipelines
// with identical stages always produce the same ID.
func PipelineID(stages Array) (string, error) {
	canonical, err := MarshalCanonical(stages)
	if err != nil {
		return "", fmt.Errorf("PipelineID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPipeline, canonical), nil
}

// StageID computes the content-addressed ID for a single stage descriptor.
func StageID(stage Object) (string, error) {
	canonical, err := MarshalCanonical(stage)
	if err != nil {
		return "", fmt.Errorf("StageID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStage, canonical), nil
}

// MustPipelineID is like PipelineID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPipelineID(stages Array) string {
	id, err := PipelineID(stages)
	if err != nil {
		panic(err)
	}
	return id
}
