package mesh

import (
	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// NormalsSmooth returns one outward normal per vertex: the area-weighted average of the
// incident face normals, negated to undo the inward winding. Vertices without incident
// area get Up.
func (m *TriangleMesh) NormalsSmooth() []mgl32.Vec3 {
	sums := make([]mgl32.Vec3, len(m.Positions))

	for _, tri := range m.Triangles {
		weighted := m.Normal(tri).Mul(m.Area(tri))
		for _, index := range tri {
			sums[index] = sums[index].Add(weighted)
		}
	}

	normals := make([]mgl32.Vec3, len(sums))
	for i, sum := range sums {
		normals[i] = geom.NormalizeOr(sum.Mul(-1), geom.Up)
	}
	return normals
}

// BakeNormalsSmooth replaces the vertex normals with NormalsSmooth.
func (m *TriangleMesh) BakeNormalsSmooth() {
	m.Normals = m.NormalsSmooth()
}
