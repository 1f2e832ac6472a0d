// Package mesh holds the indexed triangle meshes produced by the bake pipeline and the
// passes that clean them up and bake per-vertex attributes.
//
// Triangles are wound so that cross(b-a, c-a) points into the solid; outward vertex
// normals are therefore the negated face normals.
package mesh

import (
	"slices"

	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// degenerateNormalEpsilon is the squared cross product length below which a face has no usable normal
const degenerateNormalEpsilon = 1e-6

// Triangle is three indices into the vertex arrays.
type Triangle [3]int

// TriangleMesh is an index buffer plus parallel per-vertex attribute arrays.
// Attribute arrays other than Positions are either empty or exactly one entry per vertex.
type TriangleMesh struct {
	Triangles []Triangle
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Colors    []mgl32.Vec4
	UV1       []mgl32.Vec2
	UV2       []mgl32.Vec2
}

// New creates a mesh from triangles and vertex data. normals may be nil.
func New(triangles []Triangle, positions, normals []mgl32.Vec3) *TriangleMesh {
	return &TriangleMesh{
		Triangles: triangles,
		Positions: positions,
		Normals:   normals,
	}
}

// Clone returns a deep copy.
func (m *TriangleMesh) Clone() *TriangleMesh {
	return &TriangleMesh{
		Triangles: slices.Clone(m.Triangles),
		Positions: slices.Clone(m.Positions),
		Normals:   slices.Clone(m.Normals),
		Colors:    slices.Clone(m.Colors),
		UV1:       slices.Clone(m.UV1),
		UV2:       slices.Clone(m.UV2),
	}
}

// VertexCount returns the number of vertices.
func (m *TriangleMesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *TriangleMesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty reports whether the mesh has no triangles.
func (m *TriangleMesh) IsEmpty() bool {
	return m == nil || len(m.Triangles) == 0
}

// Join appends other to m, shifting its indices past m's vertices.
// An attribute survives only if both meshes carry it for every vertex.
func (m *TriangleMesh) Join(other *TriangleMesh) {
	if other == nil {
		return
	}
	offset := len(m.Positions)
	count := len(other.Positions)

	m.Normals = joinAttribute(m.Normals, other.Normals, offset, count)
	m.Colors = joinAttribute(m.Colors, other.Colors, offset, count)
	m.UV1 = joinAttribute(m.UV1, other.UV1, offset, count)
	m.UV2 = joinAttribute(m.UV2, other.UV2, offset, count)
	m.Positions = append(m.Positions, other.Positions...)

	for _, tri := range other.Triangles {
		m.Triangles = append(m.Triangles, Triangle{tri[0] + offset, tri[1] + offset, tri[2] + offset})
	}
}

func joinAttribute[T any](dst, src []T, dstCount, srcCount int) []T {
	if len(dst) != dstCount || len(src) != srcCount {
		return nil
	}
	return append(dst, src...)
}

// Vertices returns the three corner positions of a triangle.
func (m *TriangleMesh) Vertices(tri Triangle) (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	return m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
}

// Normal returns the unit face normal of a triangle, or Up when the triangle is degenerate.
func (m *TriangleMesh) Normal(tri Triangle) mgl32.Vec3 {
	a, b, c := m.Vertices(tri)
	cross := b.Sub(a).Cross(c.Sub(a))
	if cross.LenSqr() <= degenerateNormalEpsilon {
		return geom.Up
	}
	return cross.Normalize()
}

// Area returns the surface area of a triangle.
func (m *TriangleMesh) Area(tri Triangle) float32 {
	a, b, c := m.Vertices(tri)
	return b.Sub(a).Cross(c.Sub(a)).Len() * 0.5
}

// Centerpoint returns the centroid of a triangle.
func (m *TriangleMesh) Centerpoint(tri Triangle) mgl32.Vec3 {
	a, b, c := m.Vertices(tri)
	return a.Add(b).Add(c).Mul(1.0 / 3.0)
}

// SurfaceArea returns the summed area of all triangles.
func (m *TriangleMesh) SurfaceArea() float32 {
	var total float32
	for _, tri := range m.Triangles {
		total += m.Area(tri)
	}
	return total
}

// Bounds returns the box around every vertex.
func (m *TriangleMesh) Bounds() geom.BoundingBox {
	if len(m.Positions) == 0 {
		return geom.BoundingBox{}
	}
	bounds := geom.BoundingBox{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		bounds.Min = geom.MinVec(bounds.Min, p)
		bounds.Max = geom.MaxVec(bounds.Max, p)
	}
	return bounds
}

// Indices returns the flattened index buffer.
func (m *TriangleMesh) Indices() []int {
	indices := make([]int, 0, len(m.Triangles)*3)
	for _, tri := range m.Triangles {
		indices = append(indices, tri[0], tri[1], tri[2])
	}
	return indices
}

// Flatten returns positions, normals and indices as flat arrays for upload to a host engine.
// normals is nil when the mesh has none.
func (m *TriangleMesh) Flatten() (positions, normals []float32, indices []uint32) {
	positions = make([]float32, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		positions = append(positions, p[0], p[1], p[2])
	}

	if len(m.Normals) == len(m.Positions) && len(m.Normals) > 0 {
		normals = make([]float32, 0, len(m.Normals)*3)
		for _, n := range m.Normals {
			normals = append(normals, n[0], n[1], n[2])
		}
	}

	indices = make([]uint32, 0, len(m.Triangles)*3)
	for _, tri := range m.Triangles {
		indices = append(indices, uint32(tri[0]), uint32(tri[1]), uint32(tri[2]))
	}
	return positions, normals, indices
}

// Submesh returns a mesh holding the listed triangles over a copy of every vertex.
// Unreferenced vertices stay until RemoveUnused runs.
func (m *TriangleMesh) Submesh(triangles []int) *TriangleMesh {
	sub := &TriangleMesh{
		Triangles: make([]Triangle, 0, len(triangles)),
		Positions: slices.Clone(m.Positions),
	}
	for _, t := range triangles {
		sub.Triangles = append(sub.Triangles, m.Triangles[t])
	}
	return sub
}
