package island

import (
	"math"
	"sync"
	"testing"

	"IslandBuilder/internal/meshio"
	"IslandBuilder/internal/shape"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// quietSettings turns off every noise source and the smoothing so the field is the raw
// distance of the shapes.
func quietSettings() Settings {
	s := DefaultSettings()
	s.Voxels.VoxelSize = mgl32.Vec3{0.5, 0.5, 0.5}
	s.Voxels.DensityAmplitude = 0
	s.Voxels.OffsetAmplitude = mgl32.Vec3{}
	s.Voxels.StriationAmplitude = 0
	s.Voxels.SmoothIterations = 0
	s.Voxels.EdgeRadius = 0.5
	return s
}

func newQuiet(t *testing.T, shapes shape.List) *Data {
	t.Helper()
	d := New(zaptest.NewLogger(t))
	d.SetSettings(quietSettings())
	d.SetShapes(shapes)
	return d
}

func sphere(radius float32, op shape.Operation) shape.Shape {
	return shape.NewSphere(mgl32.Ident4(), radius, op)
}

func TestBakeSphereVolume(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(5, shape.Union)})

	require.NoError(t, d.BakePreview())

	assert.Equal(t, [3]int{32, 32, 32}, d.Dimensions())
	expected := float32(4.0 / 3.0 * math.Pi * 125)
	assert.InEpsilon(t, expected, d.Volume(), 0.05)

	preview := d.MeshPreview()
	require.NotNil(t, preview)
	assert.False(t, preview.IsEmpty())
	assert.Len(t, preview.Islands(), 1)

	for _, p := range preview.Positions {
		assert.InDelta(t, 5, p.Len(), 0.3)
	}
}

func TestBakeTwoIslands(t *testing.T) {
	cube := mgl32.Vec3{4, 4, 4}
	d := newQuiet(t, shape.List{
		shape.NewRoundedBox(mgl32.Translate3D(-10, 0, 0), cube, 0.5, shape.Union),
		shape.NewRoundedBox(mgl32.Translate3D(10, 0, 0), cube, 0.5, shape.Union),
	})

	require.NoError(t, d.BakeAll())
	assert.True(t, d.Baked())

	baked := d.MeshBaked()
	require.NotNil(t, baked)
	assert.Len(t, baked.Islands(), 2)
	assert.Len(t, baked.Normals, baked.VertexCount())
	assert.Len(t, baked.Colors, baked.VertexCount())
	assert.Len(t, baked.UV1, baked.VertexCount())
	assert.Len(t, baked.UV2, baked.VertexCount())

	hulls := d.Hulls()
	require.Len(t, hulls, 2)
	assert.Less(t, hulls[0].Bounds().Max.X(), float32(0))
	assert.Greater(t, hulls[1].Bounds().Min.X(), float32(0))
}

func TestBakeConvexHulls(t *testing.T) {
	cube := mgl32.Vec3{4, 4, 4}
	d := newQuiet(t, shape.List{
		shape.NewRoundedBox(mgl32.Translate3D(-10, 0, 0), cube, 0.5, shape.Union),
		shape.NewRoundedBox(mgl32.Translate3D(10, 0, 0), cube, 0.5, shape.Union),
	})
	require.NoError(t, d.BakeCollision())
	plain := d.Hulls()
	require.Len(t, plain, 2)

	c := d.Settings().Collision
	c.Convex = true
	assert.True(t, d.SetCollisionSettings(c))
	assert.Nil(t, d.Hulls())

	require.NoError(t, d.BakeCollision())
	convex := d.Hulls()
	require.Len(t, convex, 2)
	for i, h := range convex {
		assert.Less(t, h.TriangleCount(), plain[i].TriangleCount(), "hull %d", i)
		assert.Len(t, h.Islands(), 1)
	}
}

func TestBakeCarvedAway(t *testing.T) {
	d := newQuiet(t, shape.List{
		sphere(3, shape.Union),
		sphere(5, shape.Subtraction),
	})

	require.NoError(t, d.BakeAll())
	assert.True(t, d.MeshPreview().IsEmpty())
	assert.True(t, d.MeshBaked().IsEmpty())
	assert.Zero(t, d.Volume())
	assert.Empty(t, d.Hulls())
}

func TestBakeWithoutShapes(t *testing.T) {
	d := New(nil)

	require.NoError(t, d.BakeAll())
	assert.True(t, d.Bounds().IsZero())
	assert.Nil(t, d.Voxels())
	assert.True(t, d.MeshBaked().IsEmpty())
	assert.Zero(t, d.Volume())
	assert.Nil(t, d.Hulls())
}

func TestBakeWithNoise(t *testing.T) {
	s := DefaultSettings()
	s.Voxels.VoxelSize = mgl32.Vec3{0.5, 0.5, 0.5}
	s.Mesh.OcclusionEnabled = true
	s.Mesh.OcclusionSamples = 1

	bake := func() *Data {
		d := New(zaptest.NewLogger(t))
		d.SetSettings(s)
		d.SetShapes(shape.List{sphere(4, shape.Union)})
		require.NoError(t, d.BakeAll())
		return d
	}

	a, b := bake(), bake()
	assert.Equal(t, a.Volume(), b.Volume())
	assert.Equal(t, a.MeshBaked(), b.MeshBaked(), "bakes are deterministic")
	assert.False(t, a.MeshBaked().IsEmpty())

	// Noise widens the bounds past the bare sphere
	assert.Less(t, a.Bounds().Min.X(), float32(-4-0.5*2*3))
}

func TestCascade(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(3, shape.Union)})
	require.NoError(t, d.BakeAll())

	baked, hulls := d.MeshBaked(), d.Hulls()
	generation := d.Generation()

	// Unchanged values keep every cache
	assert.False(t, d.SetSettings(d.Settings()))
	assert.False(t, d.SetShapes(d.Shapes()))
	assert.Equal(t, generation, d.Generation())

	collision := d.Settings().Collision
	collision.Dropout++
	assert.True(t, d.SetCollisionSettings(collision))
	assert.Nil(t, d.Hulls())
	assert.Same(t, baked, d.MeshBaked())
	assert.NotNil(t, d.MeshPreview())
	assert.Greater(t, d.Generation(), generation)

	require.NoError(t, d.BakeCollision())
	hulls = d.Hulls()

	m := d.Settings().Mesh
	m.DirtMax = 0.5
	assert.True(t, d.SetMeshSettings(m))
	assert.Nil(t, d.MeshBaked())
	assert.Equal(t, hulls, d.Hulls())
	assert.NotNil(t, d.Voxels())

	require.NoError(t, d.BakeMesh())
	tweaks := d.Settings().Tweaks
	tweaks.MaskW = 2
	assert.True(t, d.SetTweaks(tweaks))
	assert.Nil(t, d.MeshBaked())
	assert.NotNil(t, d.MeshPreview(), "the mask coordinate only touches the render mesh")
	assert.Equal(t, hulls, d.Hulls())

	tweaks.Seed = 42
	assert.True(t, d.SetTweaks(tweaks))
	assert.Nil(t, d.Voxels())
	assert.Nil(t, d.MeshPreview())
	assert.Nil(t, d.Hulls())
	assert.True(t, d.Bounds().IsZero())

	require.NoError(t, d.BakeAll())
	assert.True(t, d.SetShapes(shape.List{sphere(2, shape.Union)}))
	assert.Nil(t, d.Voxels())
	assert.Nil(t, d.MeshBaked())
	assert.False(t, d.Baked())
}

func TestClearKeepsDependents(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(3, shape.Union)})
	require.NoError(t, d.BakeAll())
	bounds := d.Bounds()
	generation := d.Generation()

	d.ClearVoxels()
	d.ClearPreview()
	assert.Nil(t, d.Voxels())
	assert.Nil(t, d.MeshPreview())
	assert.NotNil(t, d.MeshBaked())
	assert.NotNil(t, d.Hulls())
	assert.Equal(t, bounds, d.Bounds())
	assert.Equal(t, generation, d.Generation())

	// Everything downstream is still cached, so nothing rebakes
	require.NoError(t, d.BakeAll())
	assert.Nil(t, d.Voxels())

	d.ClearAll()
	assert.Nil(t, d.MeshBaked())
	assert.Nil(t, d.Hulls())
	require.NoError(t, d.BakeAll())
	assert.NotNil(t, d.Voxels())
	assert.True(t, d.Baked())

	d.DirtyVoxels()
	assert.Nil(t, d.Voxels())
	assert.False(t, d.Baked())
	assert.Greater(t, d.Generation(), generation)
}

func TestBakeRejectsReentry(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(3, shape.Union)})

	require.True(t, d.baking.CAS(false, true))
	assert.True(t, d.Baking())
	assert.ErrorIs(t, d.BakeVoxels(), ErrBakeInProgress)
	assert.ErrorIs(t, d.BakeAll(), ErrBakeInProgress)
	d.baking.Store(false)

	assert.NoError(t, d.BakeVoxels())
	assert.False(t, d.Baking())
}

func TestConcurrentBakesHoldTheFlag(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(4, shape.Union)})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = d.run(func() error {
				if d.Baking() {
					return nil
				}
				t.Error("run executed without holding the bake flag")
				return nil
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrBakeInProgress)
		}
	}
	assert.False(t, d.Baking())
}

func TestBoundsLimit(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(5000, shape.Union)})
	err := d.BakeVoxels()
	assert.ErrorContains(t, err, "exceed")
	assert.Nil(t, d.Voxels())
}

func TestBoundsLimitTinyVoxels(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(5, shape.Union)})
	v := d.Settings().Voxels
	v.VoxelSize = mgl32.Vec3{4.7e-6, 4.7e-6, 4.7e-6}
	require.NoError(t, v.Validate())
	d.SetVoxelSettings(v)

	assert.ErrorContains(t, d.BakeBoundingBox(), "exceed")
	assert.ErrorContains(t, d.BakeVoxels(), "exceed")
	assert.Nil(t, d.Voxels())
	assert.True(t, d.Bounds().IsZero())
}

func TestReferenceMesh(t *testing.T) {
	d := newQuiet(t, shape.List{sphere(5, shape.Union)})

	ref := d.ReferenceMesh(48)
	require.False(t, ref.IsEmpty())
	assert.Len(t, ref.Islands(), 1)
	for i, p := range ref.Positions {
		assert.InDelta(t, 5, p.Len(), 0.3)
		assert.Greater(t, ref.Normals[i].Dot(p), float32(0), "vertex %d normal points outward", i)
	}
	for i, tri := range ref.Triangles {
		if ref.Area(tri) < 1e-4 {
			continue
		}
		toCenter := ref.Centerpoint(tri).Mul(-1)
		assert.Greater(t, ref.Normal(tri).Dot(toCenter), float32(0), "triangle %d is wound inward", i)
	}

	empty := New(nil).ReferenceMesh(0)
	assert.True(t, empty.IsEmpty())
}

func TestExport(t *testing.T) {
	cube := mgl32.Vec3{4, 4, 4}
	d := newQuiet(t, shape.List{
		shape.NewRoundedBox(mgl32.Translate3D(-10, 0, 0), cube, 0.5, shape.Union),
		shape.NewRoundedBox(mgl32.Translate3D(10, 0, 0), cube, 0.5, shape.Union),
	})

	bundle, summary, err := d.Export()
	require.NoError(t, err)
	assert.Contains(t, string(summary), `"hull_count": 2`)

	decoded, err := meshio.DecodeBundle(bundle)
	require.NoError(t, err)
	require.Len(t, decoded.Hulls, 2)

	restored, err := decoded.Mesh.ToTriangleMesh()
	require.NoError(t, err)
	assert.Equal(t, d.MeshBaked().TriangleCount(), restored.TriangleCount())
	assert.Len(t, restored.Colors, restored.VertexCount())
}
