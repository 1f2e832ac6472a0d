package nets

import (
	"math"
	"testing"

	"IslandBuilder/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldFrom(t *testing.T, dims [3]int, sdf func(p mgl32.Vec3) float32) *volume.Volume {
	t.Helper()
	v, err := volume.New(dims, 0)
	require.NoError(t, err)
	for i := range v.Data() {
		x, y, z := v.Delinearize(i)
		v.Data()[i] = sdf(mgl32.Vec3{float32(x), float32(y), float32(z)})
	}
	v.SetPadding(1, 10)
	return v
}

func TestChunkCounts(t *testing.T) {
	assert.Equal(t, [3]int{1, 1, 1}, ChunkCounts([3]int{1, 44, 20}))
	assert.Equal(t, [3]int{2, 3, 1}, ChunkCounts([3]int{45, 100, 44}))
}

func TestCellEdges(t *testing.T) {
	seen := map[[2]int]bool{}
	for _, e := range cellEdges {
		assert.False(t, seen[e], "edge %v listed twice", e)
		seen[e] = true

		diff := 0
		for axis := 0; axis < 3; axis++ {
			if cornerOffsets[e[0]][axis] != cornerOffsets[e[1]][axis] {
				diff++
			}
		}
		assert.Equal(t, 1, diff, "edge %v is not axis aligned", e)
	}
	assert.Len(t, seen, 12)
}

func TestExtractSphere(t *testing.T) {
	center := mgl32.Vec3{11.5, 11.5, 11.5}
	const radius = 8
	v := fieldFrom(t, [3]int{24, 24, 24}, func(p mgl32.Vec3) float32 {
		return p.Sub(center).Len() - radius
	})

	m, vol, err := Extract(v, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, 1)
	require.NoError(t, err)
	require.False(t, m.IsEmpty())
	require.Len(t, m.Normals, m.VertexCount())

	for i, p := range m.Positions {
		assert.InDelta(t, radius, p.Sub(center).Len(), 0.5, "vertex %d at %v", i, p)
		assert.Greater(t, m.Normals[i].Dot(p.Sub(center)), float32(0), "vertex %d normal points inward", i)
	}
	for i, tri := range m.Triangles {
		toCenter := center.Sub(m.Centerpoint(tri))
		assert.Greater(t, m.Normal(tri).Dot(toCenter), float32(0), "triangle %d faces outward", i)
	}

	expected := 4.0 / 3.0 * math.Pi * radius * radius * radius
	assert.InEpsilon(t, expected, vol, 0.05)
}

func TestExtractScalesAndOffsets(t *testing.T) {
	center := mgl32.Vec3{8, 8, 8}
	v := fieldFrom(t, [3]int{17, 17, 17}, func(p mgl32.Vec3) float32 {
		return p.Sub(center).Len() - 5
	})

	unit, unitVolume, err := Extract(v, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, 1)
	require.NoError(t, err)
	scaled, scaledVolume, err := Extract(v, mgl32.Vec3{0.5, 2, 1}, mgl32.Vec3{10, 0, -3}, 1)
	require.NoError(t, err)

	require.Equal(t, unit.VertexCount(), scaled.VertexCount())
	for i, p := range unit.Positions {
		want := mgl32.Vec3{p[0]*0.5 + 10, p[1] * 2, p[2] - 3}
		assert.True(t, scaled.Positions[i].ApproxEqualThreshold(want, 1e-4), "vertex %d: %v vs %v", i, scaled.Positions[i], want)
	}
	assert.InDelta(t, unitVolume, scaledVolume, 1e-3)
}

func TestExtractAcrossChunkSeams(t *testing.T) {
	// a capsule running through three chunks along x
	a := mgl32.Vec3{8, 15, 15}
	b := mgl32.Vec3{92, 15, 15}
	v := fieldFrom(t, [3]int{100, 30, 30}, func(p mgl32.Vec3) float32 {
		ab := b.Sub(a)
		h := mgl32.Clamp(p.Sub(a).Dot(ab)/ab.Dot(ab), 0, 1)
		return p.Sub(a.Add(ab.Mul(h))).Len() - 6.3
	})
	require.Equal(t, [3]int{3, 1, 1}, ChunkCounts(v.Dimensions()))

	m, _, err := Extract(v, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, 2)
	require.NoError(t, err)
	require.False(t, m.IsEmpty())

	m.Optimize(1e-4)

	edges := m.EdgeMap()
	for _, e := range edges.Edges {
		require.GreaterOrEqual(t, e.Right, 0, "open edge %v at %v", e.Edge, m.Positions[e.Edge[0]])
	}
	assert.Len(t, m.Islands(), 1)
	// closed genus zero surface
	assert.Equal(t, 2, m.VertexCount()-len(edges.Edges)+m.TriangleCount())
}

func TestExtractEmptyField(t *testing.T) {
	v, err := volume.New([3]int{50, 10, 10}, 10)
	require.NoError(t, err)

	m, vol, err := Extract(v, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, 0)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
	assert.Equal(t, float32(0), vol)
}

func TestExtractCountsOverlapOnce(t *testing.T) {
	// fully inside apart from the padding; chunk windows overlap but samples count once
	v := fieldFrom(t, [3]int{90, 5, 5}, func(mgl32.Vec3) float32 { return -1 })

	_, vol, err := Extract(v, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(88*3*3), vol)
}

func TestExtractNilVolume(t *testing.T) {
	_, _, err := Extract(nil, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, 1)
	assert.Error(t, err)
}
