// Package hull splits an island mesh into per-shape collision meshes.
package hull

import (
	"fmt"

	"IslandBuilder/internal/mesh"
	"IslandBuilder/internal/parallel"
	"IslandBuilder/internal/shape"
)

// DefaultMinTriangles is the smallest hull worth keeping.
const DefaultMinTriangles = 6

// Options controls partitioning and per-hull simplification.
type Options struct {
	EdgeRadius    float32
	MergeDistance float32

	// DecimationAngle in radians; zero disables decimation
	DecimationAngle float32
	Iterations      int
	Dropout         int

	MinTriangles int

	// Convex replaces each hull with the convex hull of its vertices. Buckets whose
	// vertices are flat are dropped.
	Convex bool
}

// Partition assigns every triangle of source to the union shape whose surface is
// nearest to the triangle's centroid and returns one simplified mesh per shape, in
// shape order. Hulls with fewer than MinTriangles triangles are dropped.
//
// Only union shapes own hulls. A triangle can end up with a shape that a later
// intersection or subtraction carved away, so such a hull may stick out of the mesh.
func Partition(source *mesh.TriangleMesh, shapes shape.List, opts Options) ([]*mesh.TriangleMesh, error) {
	unions := shapes.Unions()
	if source.IsEmpty() || len(unions) == 0 {
		return nil, nil
	}
	minTriangles := opts.MinTriangles
	if minTriangles <= 0 {
		minTriangles = DefaultMinTriangles
	}

	welded := source.Clone()
	welded.Optimize(opts.MergeDistance)

	buckets := Assign(welded, unions, opts.EdgeRadius)

	hulls, err := parallel.Map(len(buckets), func(i int) *mesh.TriangleMesh {
		if len(buckets[i]) == 0 {
			return nil
		}
		h := welded.Submesh(buckets[i])
		if opts.Convex {
			h.Optimize(0)
			c, err := Convex(h.Positions)
			if err != nil {
				return nil
			}
			return c
		}
		if opts.DecimationAngle > 0 {
			h.DecimatePlanar(opts.DecimationAngle, opts.Iterations, opts.Dropout)
		}
		h.Optimize(0)
		return h
	})
	if err != nil {
		return nil, fmt.Errorf("collision partition: %w", err)
	}

	kept := hulls[:0]
	for _, h := range hulls {
		if h != nil && h.TriangleCount() >= minTriangles {
			kept = append(kept, h)
		}
	}
	return kept, nil
}

// Assign returns, per shape, the indices of the triangles whose centroid samples closest
// to that shape. Ties go to the earlier shape.
func Assign(m *mesh.TriangleMesh, shapes shape.List, edgeRadius float32) [][]int {
	buckets := make([][]int, len(shapes))
	if len(shapes) == 0 {
		return buckets
	}

	for t, tri := range m.Triangles {
		center := m.Centerpoint(tri)

		best := 0
		bestDistance := shapes[0].Sample(center, edgeRadius)
		for s := 1; s < len(shapes); s++ {
			if d := shapes[s].Sample(center, edgeRadius); d < bestDistance {
				best, bestDistance = s, d
			}
		}
		buckets[best] = append(buckets[best], t)
	}
	return buckets
}
