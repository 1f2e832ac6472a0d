package shape

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereSampleOnAxes(t *testing.T) {
	sphere := NewSphere(mgl32.Ident4(), 2, Union)

	axes := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for _, axis := range axes {
		if got := sphere.Sample(axis, 0); got != -1 {
			t.Errorf("Expected -1 at %v, got %f", axis, got)
		}
		if got := sphere.Sample(axis.Mul(5), 0); got != 3 {
			t.Errorf("Expected 3 at %v, got %f", axis.Mul(5), got)
		}
	}
}

func TestSampleInvariantUnderRigidTransform(t *testing.T) {
	rigid := mgl32.Translate3D(3, -2, 7).
		Mul4(mgl32.HomogRotate3D(mgl32.DegToRad(37), mgl32.Vec3{1, 2, 0.5}.Normalize()))

	shapes := []Shape{
		NewSphere(mgl32.Ident4(), 1.5, Union),
		NewRoundedBox(mgl32.Ident4(), mgl32.Vec3{2, 3, 4}, 0.25, Union),
		NewRoundedCylinder(mgl32.Ident4(), 3, 1, 0.2, Union),
		NewTorus(mgl32.Ident4(), 0.4, 2, Union),
	}
	points := []mgl32.Vec3{{0.3, 0.1, -0.2}, {2, 1, 0.5}, {-1.5, 2.5, 3}, {0, 0, 0}}

	for _, s := range shapes {
		moved := s.WithTransform(rigid)
		for _, p := range points {
			want := s.Sample(p, 0.3)
			got := moved.Sample(mgl32.TransformCoordinate(p, rigid), 0.3)
			assert.InDelta(t, want, got, 1e-4, "%s at %v", s.Kind(), p)
		}
	}
}

func TestCombinators(t *testing.T) {
	values := []float32{-3, -0.5, 0, 0.25, 4}
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, min(a, b), Join(a, b))
			assert.Equal(t, max(a, b), Intersect(a, b))
			assert.Equal(t, Intersect(a, -b), Subtract(a, b))
		}
	}
}

func TestSmoothUnionSymmetricAndMonotonic(t *testing.T) {
	assert.InDelta(t, SmoothUnion(-1, 3, 32), SmoothUnion(3, -1, 32), 1e-6)
	assert.Less(t, SmoothUnion(-2, 3, 32), SmoothUnion(-1, 3, 32))
}

func TestPrimitiveDistances(t *testing.T) {
	// Box corner region is rounded by the edge radius
	assert.InDelta(t, 1.0, SampleBoxRounded(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{2, 2, 2}, 0), 1e-6)
	assert.InDelta(t, -1.0, SampleBoxRounded(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2}, 0), 1e-6)
	assert.InDelta(t, math.Sqrt(3), SampleBoxRounded(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{2, 2, 2}, 0), 1e-6)

	assert.InDelta(t, 1.0, SampleCylinderRounded(mgl32.Vec3{3, 0, 0}, 2, 4, 0), 1e-6)
	assert.InDelta(t, 0.5, SampleCylinderRounded(mgl32.Vec3{0, 2.5, 0}, 2, 4, 0), 1e-6)
	assert.InDelta(t, -2.0, SampleCylinderRounded(mgl32.Vec3{}, 2, 4, 0), 1e-6)

	assert.InDelta(t, -0.5, SampleTorus(mgl32.Vec3{3, 0, 0}, 0.5, 3), 1e-6)
	assert.InDelta(t, 2.5, SampleTorus(mgl32.Vec3{}, 0.5, 3), 1e-6)
}

func TestRoundedBoxMatchesSdfx(t *testing.T) {
	const round = 0.3
	reference, err := sdf.Box3D(v3.Vec{X: 2, Y: 3, Z: 4}, round)
	require.NoError(t, err)

	box := NewRoundedBox(mgl32.Ident4(), mgl32.Vec3{2, 3, 4}, round, Union)
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1.2, 0.3, -0.7}, {2, 2, 3}, {-0.9, 1.4, 1.9}} {
		want := reference.Evaluate(toV3(p))
		assert.InDelta(t, want, box.Sample(p, round), 1e-5, "at %v", p)
	}
}

func TestListSampleFold(t *testing.T) {
	a := NewSphere(mgl32.Ident4(), 2, Union)
	b := NewSphere(mgl32.Translate3D(1, 0, 0), 1, Subtraction)
	c := NewRoundedBox(mgl32.Ident4(), mgl32.Vec3{10, 1, 10}, 0, Intersection)

	p := mgl32.Vec3{-1, 0.25, 0}
	want := Intersect(Subtract(Join(1, a.Sample(p, 0)), b.Sample(p, 0)), c.Sample(p, 0))
	assert.Equal(t, want, List{a, b, c}.Sample(p, 0))

	assert.Equal(t, float32(1), List{}.Sample(p, 0), "empty list samples as outside")
}

func TestListBoundsUnionsOnly(t *testing.T) {
	list := List{
		NewSphere(mgl32.Translate3D(-5, 0, 0), 1, Union),
		NewSphere(mgl32.Translate3D(50, 0, 0), 10, Subtraction),
		NewRoundedBox(mgl32.Translate3D(5, 0, 0), mgl32.Vec3{2, 4, 2}, 0, Union),
	}

	bounds := list.Bounds()
	assert.True(t, bounds.Min.ApproxEqual(mgl32.Vec3{-6, -2, -1}), "min %v", bounds.Min)
	assert.True(t, bounds.Max.ApproxEqual(mgl32.Vec3{6, 2, 1}), "max %v", bounds.Max)
	assert.Len(t, list.Unions(), 2)
}

func TestListBoundsEmpty(t *testing.T) {
	list := List{NewSphere(mgl32.Ident4(), 3, Subtraction)}

	bounds := list.Bounds()
	assert.True(t, bounds.IsZero())
	assert.Equal(t, mgl32.Vec3{}, bounds.Center())
	assert.Nil(t, list.SDF3(0, 1))
}

func TestListEqual(t *testing.T) {
	a := List{NewSphere(mgl32.Ident4(), 1, Union)}
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b[0] = b[0].WithOperation(Subtraction)
	assert.False(t, a.Equal(b))
}

func TestSDF3Adapter(t *testing.T) {
	list := List{NewSphere(mgl32.Ident4(), 2, Union)}
	solid := list.SDF3(0, 0.5)
	require.NotNil(t, solid)

	assert.InDelta(t, -2.0, solid.Evaluate(v3.Vec{}), 1e-6)
	box := solid.BoundingBox()
	assert.InDelta(t, -2.5, box.Min.X, 1e-6)
	assert.InDelta(t, 2.5, box.Max.Z, 1e-6)
}

func TestParseNames(t *testing.T) {
	for _, k := range []Kind{Sphere, RoundedBox, RoundedCylinder, Torus} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	for _, op := range []Operation{Union, Intersection, Subtraction} {
		parsed, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
	_, err := ParseKind("cone")
	assert.Error(t, err)
}
