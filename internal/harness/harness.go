// Package harness provides test helpers for asserting pipeline wire forms.
//
// Golden files pin the exact canonical bytes a pipeline compiles to, so
// any change to stage encoding, key ordering, or canonicalization shows up
// as a test diff instead of a silently changed content hash.
package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/wire"
)

// AssertWireGolden compares the pipeline's canonical wire bytes against
// the golden file testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertWireGolden(t *testing.T, name string, p pipeline.Pipeline) {
	t.Helper()

	data, err := wire.Marshal(p)
	if err != nil {
		t.Fatalf("compile pipeline for golden %q: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// AssertWireEqual fails unless both pipelines compile to identical wire
// bytes. Useful for checking that a manifest and a hand-built pipeline
// agree without pinning a golden file.
func AssertWireEqual(t *testing.T, want, got pipeline.Pipeline) {
	t.Helper()

	wantData, err := wire.Marshal(want)
	if err != nil {
		t.Fatalf("compile want pipeline: %v", err)
	}
	gotData, err := wire.Marshal(got)
	if err != nil {
		t.Fatalf("compile got pipeline: %v", err)
	}
	if string(wantData) != string(gotData) {
		t.Errorf("wire forms differ:\nwant: %s\ngot:  %s", wantData, gotData)
	}
}
