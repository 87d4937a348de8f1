package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/shape"
)

func priceShape() shape.Shape {
	return shape.Document(map[string]shape.Shape{
		"price":    shape.Of(shape.KindDouble),
		"quantity": shape.Of(shape.KindInt),
		"first":    shape.Of(shape.KindString),
		"last":     shape.Of(shape.KindString),
	})
}

func TestField_Wire(t *testing.T) {
	w, err := Field("price").Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.String("$price"), w)
}

func TestField_WireNestedPath(t *testing.T) {
	w, err := Field("address.city").Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.String("$address.city"), w)
}

func TestField_WireRejectsInvalidPath(t *testing.T) {
	_, err := Field("a..b").Wire()
	assert.Error(t, err)
}

func TestField_KindResolvesAgainstShape(t *testing.T) {
	assert.Equal(t, shape.KindDouble, Field("price").Kind(priceShape()))
	assert.Equal(t, shape.KindAny, Field("missing").Kind(priceShape()))
	assert.Equal(t, shape.KindAny, Field("price").Kind(shape.Any()))
}

func TestLiteral_Wire(t *testing.T) {
	w, err := Lit(ir.Int(25)).Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(25), w)
}

func TestLiteral_DollarStringWrappedInLiteral(t *testing.T) {
	// A constant that LOOKS like a field reference must not be sent bare.
	w, err := Str("$price").Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Object{"$literal": ir.String("$price")}, w)
}

func TestLiteral_NilValueBecomesNull(t *testing.T) {
	w, err := Literal{}.Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, w)
}

func TestMultiply_Wire(t *testing.T) {
	e := Multiply{Operands: []Expr{Field("price"), Field("quantity")}}

	w, err := e.Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Object{
		"$multiply": ir.Array{ir.String("$price"), ir.String("$quantity")},
	}, w)
}

func TestConcat_Wire(t *testing.T) {
	e := Concat{Operands: []Expr{Field("first"), Str(" "), Field("last")}}

	w, err := e.Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Object{
		"$concat": ir.Array{ir.String("$first"), ir.String(" "), ir.String("$last")},
	}, w)
}

func TestCond_Wire(t *testing.T) {
	e := Cond{If: Field("active"), Then: Str("yes"), Else: Str("no")}

	w, err := e.Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Object{"$cond": ir.Object{
		"if":   ir.String("$active"),
		"then": ir.String("yes"),
		"else": ir.String("no"),
	}}, w)
}

func TestRefs_UnionWithoutDuplicates(t *testing.T) {
	e := Add{Operands: []Expr{
		Field("price"),
		Multiply{Operands: []Expr{Field("price"), Field("quantity")}},
	}}

	assert.Equal(t, []string{"price", "quantity"}, e.Refs())
}

func TestRefs_LiteralsContributeNothing(t *testing.T) {
	e := Concat{Operands: []Expr{Str("a"), Str("b")}}
	assert.Empty(t, e.Refs())
}

func TestKind_ArithmeticWidening(t *testing.T) {
	s := priceShape()

	intOnly := Add{Operands: []Expr{Field("quantity"), Int(1)}}
	assert.Equal(t, shape.KindInt, intOnly.Kind(s), "int + int stays int")

	widened := Add{Operands: []Expr{Field("quantity"), Field("price")}}
	assert.Equal(t, shape.KindDouble, widened.Kind(s), "int + double widens")

	unknown := Add{Operands: []Expr{Field("quantity"), Field("missing")}}
	assert.Equal(t, shape.KindAny, unknown.Kind(s), "unknown operand poisons the kind")
}

func TestKind_DivideAlwaysDouble(t *testing.T) {
	e := Divide{Left: Field("quantity"), Right: Int(2)}
	assert.Equal(t, shape.KindDouble, e.Kind(priceShape()))
}

func TestKind_CondBranchAgreement(t *testing.T) {
	same := Cond{If: Field("x"), Then: Str("a"), Else: Str("b")}
	assert.Equal(t, shape.KindString, same.Kind(shape.Any()))

	mixed := Cond{If: Field("x"), Then: Str("a"), Else: Int(1)}
	assert.Equal(t, shape.KindAny, mixed.Kind(shape.Any()))
}

func TestDoc_WireAndRefs(t *testing.T) {
	d := Doc{
		"total": Multiply{Operands: []Expr{Field("price"), Field("quantity")}},
		"label": Str("checkout"),
	}

	w, err := d.Wire()
	require.NoError(t, err)
	assert.Equal(t, ir.Object{
		"total": ir.Object{"$multiply": ir.Array{ir.String("$price"), ir.String("$quantity")}},
		"label": ir.String("checkout"),
	}, w)

	assert.Equal(t, []string{"price", "quantity"}, d.Refs())
}
