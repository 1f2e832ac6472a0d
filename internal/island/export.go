package island

import (
	"fmt"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/mesh"
	"IslandBuilder/internal/meshio"
	"IslandBuilder/internal/shape"

	"github.com/deadsy/sdfx/render"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultReferenceCells is the marching cubes resolution along the longest axis.
const DefaultReferenceCells = 128

// ReferenceMesh renders the shapes without noise or smoothing using marching cubes.
// It is independent of the voxel pipeline and useful to check a bake against.
// Winding and normals follow the baked meshes.
func (d *Data) ReferenceMesh(cells int) *mesh.TriangleMesh {
	if cells <= 0 {
		cells = DefaultReferenceCells
	}
	solid := d.shapes.SDF3(d.settings.Voxels.EdgeRadius, geom.MaxElement(d.settings.Voxels.VoxelSize)*2)
	if solid == nil {
		return &mesh.TriangleMesh{}
	}

	triangles := render.ToTriangles(solid, render.NewMarchingCubesUniform(cells))

	m := &mesh.TriangleMesh{
		Triangles: make([]mesh.Triangle, 0, len(triangles)),
		Positions: make([]mgl32.Vec3, 0, len(triangles)*3),
	}
	for _, tri := range triangles {
		base := len(m.Positions)
		for j := 0; j < 3; j++ {
			m.Positions = append(m.Positions, shape.FromV3(tri[j]))
		}
		// Marching cubes winds outward
		m.Triangles = append(m.Triangles, mesh.Triangle{base, base + 2, base + 1})
	}

	m.Optimize(1e-4)
	m.BakeNormalsSmooth()

	d.log.Debug("rendered reference mesh",
		zap.Int("cells", cells),
		zap.Int("triangles", m.TriangleCount()),
	)
	return m
}

// Export bakes what is missing and encodes the render mesh with its hulls, plus a
// JSON summary of the result.
func (d *Data) Export() (bundle []byte, summary []byte, err error) {
	if err := d.BakeAll(); err != nil {
		return nil, nil, err
	}

	hulls := make([]*meshio.SerializedMesh, 0, len(d.hulls))
	for _, h := range d.hulls {
		hulls = append(hulls, meshio.FromTriangleMesh(h))
	}

	bundle, err = meshio.EncodeBundle(meshio.Bundle{
		Mesh:  meshio.FromTriangleMesh(d.baked),
		Hulls: hulls,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("export: %w", err)
	}

	summary, err = meshio.SummaryJSON(d.bounds, d.volume, d.baked, d.hulls)
	if err != nil {
		return nil, nil, fmt.Errorf("export summary: %w", err)
	}
	return bundle, summary, nil
}
