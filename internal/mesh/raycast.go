package mesh

import (
	"errors"
	"math"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/parallel"

	"github.com/go-gl/mathgl/mgl32"
)

// occlusionRayOffset is how far behind a vertex the occlusion ray starts.
const occlusionRayOffset = 1000.0

// RaycastHit describes the nearest triangle a ray struck.
type RaycastHit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
	Triangle int
}

// Raycast returns the nearest triangle hit along the ray.
//
// A triangle only counts when the ray origin lies on the side its face normal points to,
// unless hitBackfaces is set. maxDepth > 0 skips triangles whose plane is further than
// maxDepth from the origin.
func (m *TriangleMesh) Raycast(ray geom.Ray, maxDepth float32, hitBackfaces bool) (RaycastHit, bool) {
	best := RaycastHit{Distance: float32(math.Inf(1)), Triangle: -1}

	for t, tri := range m.Triangles {
		a, b, c := m.Vertices(tri)
		normal := m.Normal(tri)

		depth := geom.PlaneFromPoints(normal, a).SignedDistance(ray.Origin)
		if depth < 0 && !hitBackfaces {
			continue
		}
		if maxDepth > 0 && mgl32.Abs(depth) > maxDepth {
			continue
		}

		hit, distance, point := geom.RayIntersectTriangle(ray, a, b, c)
		if !hit || distance >= best.Distance {
			continue
		}
		best = RaycastHit{Point: point, Normal: normal, Distance: distance, Triangle: t}
	}

	return best, best.Triangle >= 0
}

// AmbientOcclusion returns one occlusion value per vertex in [0, 1], where 1 is unoccluded.
//
// Each vertex casts a ray along its normal from far behind the surface. A hit
// closer than radius to the vertex contributes 1 - distance/radius; the contributions are
// averaged and square-rooted. Vertices without a qualifying hit stay at 1.
//
// Every sample follows the same ray, so a single cast stands in for them. seed is reserved
// for jittered sample directions and does not change the result yet.
func (m *TriangleMesh) AmbientOcclusion(samples int, radius float32, seed uint32, groupSize int) ([]float32, error) {
	if len(m.Normals) != len(m.Positions) {
		return nil, errors.New("ambient occlusion: mesh needs one normal per vertex")
	}

	occlusion := make([]float32, len(m.Positions))
	for i := range occlusion {
		occlusion[i] = 1
	}
	if samples <= 0 || radius <= 0 || len(m.Triangles) == 0 {
		return occlusion, nil
	}
	if groupSize <= 0 {
		groupSize = parallel.GroupSize(len(m.Positions))
	}

	err := parallel.ForEach(parallel.Split(len(m.Positions), groupSize), func(r parallel.Range) {
		for i := r.Min; i < r.Max; i++ {
			occlusion[i] = m.vertexOcclusion(i, radius)
		}
	})
	if err != nil {
		return nil, err
	}
	return occlusion, nil
}

func (m *TriangleMesh) vertexOcclusion(vertex int, radius float32) float32 {
	point := m.Positions[vertex]
	normal := m.Normals[vertex]

	ray := geom.Ray{
		Origin:    point.Sub(normal.Mul(occlusionRayOffset)),
		Direction: normal,
	}

	hit, ok := m.Raycast(ray, 0, false)
	if !ok {
		return 1
	}
	distance := hit.Point.Sub(point).Len()
	if distance >= radius {
		return 1
	}
	return float32(math.Sqrt(float64(1 - distance/radius)))
}
