package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/shape"
)

func compileCollection(t *testing.T, source, path string) (shape.Shape, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	require.NoError(t, v.Err())
	return CompileSchema(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileSchema_ScalarKinds(t *testing.T) {
	source := `
schema: users: {
	name:   string
	age:    int
	score:  float
	active: bool
	extra:  _
}
`
	s, err := compileCollection(t, source, "schema.users")
	require.NoError(t, err)

	require.Equal(t, shape.KindObject, s.Kind)
	assert.Equal(t, shape.KindString, s.Fields["name"].Kind)
	assert.Equal(t, shape.KindInt, s.Fields["age"].Kind)
	assert.Equal(t, shape.KindDouble, s.Fields["score"].Kind)
	assert.Equal(t, shape.KindBool, s.Fields["active"].Kind)
	assert.Equal(t, shape.KindAny, s.Fields["extra"].Kind)
}

func TestCompileSchema_NumberIsDouble(t *testing.T) {
	source := `schema: metrics: {value: number}`

	s, err := compileCollection(t, source, "schema.metrics")
	require.NoError(t, err)
	assert.Equal(t, shape.KindDouble, s.Fields["value"].Kind)
}

func TestCompileSchema_NestedObject(t *testing.T) {
	source := `
schema: users: {
	meta: {
		tier:  string
		since: int
	}
}
`
	s, err := compileCollection(t, source, "schema.users")
	require.NoError(t, err)

	meta := s.Fields["meta"]
	require.Equal(t, shape.KindObject, meta.Kind)
	assert.Equal(t, shape.KindString, meta.Fields["tier"].Kind)
	assert.Equal(t, shape.KindInt, meta.Fields["since"].Kind)
}

func TestCompileSchema_OpenList(t *testing.T) {
	source := `
schema: orders: {
	tags:  [...string]
	items: [...{sku: string, qty: int}]
}
`
	s, err := compileCollection(t, source, "schema.orders")
	require.NoError(t, err)

	tags := s.Fields["tags"]
	require.Equal(t, shape.KindArray, tags.Kind)
	require.NotNil(t, tags.Elem)
	assert.Equal(t, shape.KindString, tags.Elem.Kind)

	items := s.Fields["items"]
	require.Equal(t, shape.KindArray, items.Kind)
	require.NotNil(t, items.Elem)
	require.Equal(t, shape.KindObject, items.Elem.Kind)
	assert.Equal(t, shape.KindString, items.Elem.Fields["sku"].Kind)
	assert.Equal(t, shape.KindInt, items.Elem.Fields["qty"].Kind)
}

func TestCompileSchema_RejectsNonStruct(t *testing.T) {
	source := `schema: users: string`

	_, err := compileCollection(t, source, "schema.users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a struct")
}

func TestCompileSchema_FeedsValidation(t *testing.T) {
	// The compiled shape resolves dotted paths the same way hand-built
	// shapes do.
	source := `
schema: users: {
	name: string
	meta: {tier: string}
}
`
	s, err := compileCollection(t, source, "schema.users")
	require.NoError(t, err)

	got, ok := s.FieldAt("meta.tier")
	require.True(t, ok)
	assert.Equal(t, shape.KindString, got.Kind)
	_, ok = s.FieldAt("meta.missing")
	assert.False(t, ok)
}

func TestCompileSchemaSource_MultipleCollections(t *testing.T) {
	source := `
schema: users:  {name: string}
schema: orders: {total: float}
`
	schemas, err := CompileSchemaSource(source)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, shape.KindString, schemas["users"].Fields["name"].Kind)
	assert.Equal(t, shape.KindDouble, schemas["orders"].Fields["total"].Kind)
}

func TestCompileSchemaSource_NoSchemaDeclared(t *testing.T) {
	_, err := CompileSchemaSource(`other: {a: int}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema declarations")
}

func TestLoadSchemas_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.cue"), []byte(`
schema: users: {
	name: string
	age:  int
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.cue"), []byte(`
schema: orders: {
	total: float
}
`), 0o644))

	schemas, err := LoadSchemas(dir)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, shape.KindInt, schemas["users"].Fields["age"].Kind)
	assert.Equal(t, shape.KindDouble, schemas["orders"].Fields["total"].Kind)
}

func TestLoadSchemas_MissingDirectory(t *testing.T) {
	_, err := LoadSchemas("/nonexistent/schemas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema directory not found")
}

func TestLoadSchemas_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSchemas(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func TestCompileError_FormatsWithoutPosition(t *testing.T) {
	err := &CompileError{Field: "schema", Message: "boom"}
	assert.Equal(t, "schema: boom", err.Error())
}
