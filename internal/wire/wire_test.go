package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/expr"
	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/stage"
)

func samplePipeline() pipeline.Pipeline {
	return pipeline.Aggregation(
		pipeline.Match(map[string]ir.Value{"status": ir.String("active")}),
		pipeline.Set(map[string]expr.Expr{"tier": expr.Str("gold")}),
		pipeline.Unset("password"),
	)
}

func TestCompile_PreservesStageOrder(t *testing.T) {
	arr, err := Compile(samplePipeline())
	require.NoError(t, err)
	require.Len(t, arr, 3)

	assert.Equal(t, ir.Object{"$match": ir.Object{"status": ir.String("active")}}, arr[0])
	assert.Equal(t, ir.Object{"$set": ir.Object{"tier": ir.String("gold")}}, arr[1])
	assert.Equal(t, ir.Object{"$unset": ir.String("password")}, arr[2])
}

func TestCompile_EmptyPipeline(t *testing.T) {
	arr, err := Compile(pipeline.Aggregation())
	require.NoError(t, err)
	assert.Empty(t, arr)
}

func TestCompile_StageErrorCarriesPosition(t *testing.T) {
	p := pipeline.Aggregation(
		pipeline.Limit(1),
		pipeline.Unset("$bad"),
	)

	_, err := Compile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage 1 ($unset)")
}

func TestMarshal_CanonicalBytes(t *testing.T) {
	data, err := Marshal(samplePipeline())
	require.NoError(t, err)

	want := `[{"$match":{"status":"active"}},{"$set":{"tier":"gold"}},{"$unset":"password"}]`
	assert.Equal(t, want, string(data))
}

func TestMarshal_Deterministic(t *testing.T) {
	first, err := Marshal(samplePipeline())
	require.NoError(t, err)
	second, err := Marshal(samplePipeline())
	require.NoError(t, err)

	assert.Equal(t, first, second, "wire bytes are reproducible")
}

func TestMarshalIndent_IsValidJSON(t *testing.T) {
	data, err := MarshalIndent(samplePipeline())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)
	assert.Contains(t, string(data), "\n", "indented output spans lines")
}

func TestID_StableAcrossConstruction(t *testing.T) {
	// Same wire form built two different ways.
	direct := pipeline.Update(
		pipeline.Set(map[string]expr.Expr{"a": expr.Int(1)}),
	)
	viaParts := pipeline.Update(
		pipeline.Stage(stage.Set{Fields: map[string]expr.Expr{"a": expr.Int(1)}}),
	)

	idA, err := ID(direct)
	require.NoError(t, err)
	idB, err := ID(viaParts)
	require.NoError(t, err)

	assert.Equal(t, idA, idB)
	assert.Len(t, idA, 64, "hex-encoded SHA-256")
}

func TestID_DiffersByStageOrder(t *testing.T) {
	ab := pipeline.Aggregation(
		pipeline.Unset("a"),
		pipeline.Unset("b"),
	)
	ba := pipeline.Aggregation(
		pipeline.Unset("b"),
		pipeline.Unset("a"),
	)

	idAB, err := ID(ab)
	require.NoError(t, err)
	idBA, err := ID(ba)
	require.NoError(t, err)

	assert.NotEqual(t, idAB, idBA, "stage order is part of pipeline identity")
}

