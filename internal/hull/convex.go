package hull

import (
	"errors"
	"fmt"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerate is returned by Convex when the points do not span a volume.
var ErrDegenerate = errors.New("convex hull: points are degenerate")

// minConvexExtent is the smallest bounding box diagonal Convex accepts.
const minConvexExtent = 1e-3

// convexFace is a hull triangle wound so its plane normal points away from the hull,
// with the points that still lie in front of it.
type convexFace struct {
	tri     mesh.Triangle
	plane   geom.Plane
	outside []int
	dead    bool
}

// Convex returns the convex hull of points using QuickHull. Interior and duplicate
// points are left out, and the result is compacted to the hull's own vertices.
// Triangles follow the mesh winding, so face normals point into the hull.
//
// Fewer than four points, or points that are collinear or coplanar, return ErrDegenerate.
func Convex(points []mgl32.Vec3) (*mesh.TriangleMesh, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("%w: %d points", ErrDegenerate, len(points))
	}
	bounds := pointBounds(points)
	size := bounds.Size()
	if size.Len() <= minConvexExtent {
		return nil, fmt.Errorf("%w: bounds %v too small", ErrDegenerate, size)
	}
	tolerance := 1e-5 * (size.X() + size.Y() + size.Z())

	simplex, err := initialSimplex(points, bounds, tolerance)
	if err != nil {
		return nil, err
	}

	center := mgl32.Vec3{}
	for _, i := range simplex {
		center = center.Add(points[i])
	}
	center = center.Mul(0.25)

	faces := make([]*convexFace, 0, 4)
	for _, order := range [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		f := newConvexFace(points, simplex[order[0]], simplex[order[1]], simplex[order[2]])
		if f.plane.SignedDistance(center) > 0 {
			f = newConvexFace(points, f.tri[0], f.tri[2], f.tri[1])
		}
		faces = append(faces, f)
	}

	inSimplex := make([]bool, len(points))
	for _, i := range simplex {
		inSimplex[i] = true
	}
	pending := make([]int, 0, len(points))
	for i := range points {
		if !inSimplex[i] {
			pending = append(pending, i)
		}
	}
	assignOutside(points, pending, faces, nil, tolerance)

	for {
		face := nextFace(faces)
		if face == nil {
			break
		}
		apex := furthest(points, face)

		// Every face the apex sees is replaced by a fan from the apex to the horizon
		var visible []*convexFace
		edges := make(map[[2]int]struct{})
		for _, f := range faces {
			if f.dead || f.plane.SignedDistance(points[apex]) <= tolerance {
				continue
			}
			visible = append(visible, f)
			for k := 0; k < 3; k++ {
				edges[[2]int{f.tri[k], f.tri[(k+1)%3]}] = struct{}{}
			}
		}

		var orphans []int
		created := make([]*convexFace, 0, len(visible)+2)
		for _, f := range visible {
			f.dead = true
			for _, p := range f.outside {
				if p != apex {
					orphans = append(orphans, p)
				}
			}
			f.outside = nil

			for k := 0; k < 3; k++ {
				a, b := f.tri[k], f.tri[(k+1)%3]
				if _, shared := edges[[2]int{b, a}]; shared {
					continue
				}
				created = append(created, newConvexFace(points, a, b, apex))
			}
		}

		faces = append(faces, created...)
		assignOutside(points, orphans, created, faces, tolerance)
	}

	return convexMesh(points, faces), nil
}

func newConvexFace(points []mgl32.Vec3, a, b, c int) *convexFace {
	pa, pb, pc := points[a], points[b], points[c]
	normal := geom.NormalizeOr(pb.Sub(pa).Cross(pc.Sub(pa)), mgl32.Vec3{})
	return &convexFace{
		tri:   mesh.Triangle{a, b, c},
		plane: geom.PlaneFromPoints(normal, pa),
	}
}

// assignOutside hands each point to the first face it lies in front of, trying first
// before rest. Points in front of none are inside the hull and dropped.
func assignOutside(points []mgl32.Vec3, indices []int, first, rest []*convexFace, tolerance float32) {
	for _, p := range indices {
		if !claim(points, p, first, tolerance) {
			claim(points, p, rest, tolerance)
		}
	}
}

func claim(points []mgl32.Vec3, p int, faces []*convexFace, tolerance float32) bool {
	for _, f := range faces {
		if !f.dead && f.plane.SignedDistance(points[p]) > tolerance {
			f.outside = append(f.outside, p)
			return true
		}
	}
	return false
}

func nextFace(faces []*convexFace) *convexFace {
	for _, f := range faces {
		if !f.dead && len(f.outside) > 0 {
			return f
		}
	}
	return nil
}

func furthest(points []mgl32.Vec3, f *convexFace) int {
	best, bestDistance := f.outside[0], float32(0)
	for _, p := range f.outside {
		if d := f.plane.SignedDistance(points[p]); d > bestDistance {
			best, bestDistance = p, d
		}
	}
	return best
}

// initialSimplex picks the two extremes along the widest axis, the point furthest from
// their line and the point furthest from the plane through all three.
func initialSimplex(points []mgl32.Vec3, bounds geom.BoundingBox, tolerance float32) ([4]int, error) {
	var simplex [4]int
	simplex[0], simplex[1] = distant(points, bounds)

	from, to := points[simplex[0]], points[simplex[1]]
	if to.Sub(from).Len() <= tolerance {
		return simplex, fmt.Errorf("%w: points coincide", ErrDegenerate)
	}
	var lineDistance float32
	simplex[2], lineDistance = distantLine(points, from, to)
	if lineDistance <= tolerance {
		return simplex, fmt.Errorf("%w: points are collinear", ErrDegenerate)
	}

	c := points[simplex[2]]
	plane := geom.PlaneFromPoints(to.Sub(from).Cross(c.Sub(from)).Normalize(), from)
	var planeDistance float32
	simplex[3], planeDistance = distantPlane(points, plane)
	if planeDistance <= tolerance {
		return simplex, fmt.Errorf("%w: points are coplanar", ErrDegenerate)
	}
	return simplex, nil
}

func pointBounds(points []mgl32.Vec3) geom.BoundingBox {
	b := geom.BoundingBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = geom.MinVec(b.Min, p)
		b.Max = geom.MaxVec(b.Max, p)
	}
	return b
}

// distant returns the lowest and highest point along the box's widest axis.
func distant(points []mgl32.Vec3, bounds geom.BoundingBox) (int, int) {
	size := bounds.Size()
	axis := 0
	for i := 1; i < 3; i++ {
		if size[i] > size[axis] {
			axis = i
		}
	}

	lo, hi := 0, 0
	for i, p := range points {
		if p[axis] < points[lo][axis] {
			lo = i
		}
		if p[axis] > points[hi][axis] {
			hi = i
		}
	}
	return lo, hi
}

// distantLine returns the point furthest from the infinite line through from and to.
func distantLine(points []mgl32.Vec3, from, to mgl32.Vec3) (int, float32) {
	direction := to.Sub(from).Normalize()
	best, bestDistance := 0, float32(0)
	for i, p := range points {
		if d := direction.Cross(p.Sub(from)).Len(); d > bestDistance {
			best, bestDistance = i, d
		}
	}
	return best, bestDistance
}

// distantPlane returns the point furthest from the plane, on either side.
func distantPlane(points []mgl32.Vec3, plane geom.Plane) (int, float32) {
	best, bestDistance := 0, float32(0)
	for i, p := range points {
		d := plane.SignedDistance(p)
		if d < 0 {
			d = -d
		}
		if d > bestDistance {
			best, bestDistance = i, d
		}
	}
	return best, bestDistance
}

// convexMesh collects the live faces over just the vertices they use, flipping each
// face to the inward mesh winding.
func convexMesh(points []mgl32.Vec3, faces []*convexFace) *mesh.TriangleMesh {
	remap := make(map[int]int)
	m := &mesh.TriangleMesh{}
	vertex := func(i int) int {
		if j, ok := remap[i]; ok {
			return j
		}
		remap[i] = len(m.Positions)
		m.Positions = append(m.Positions, points[i])
		return remap[i]
	}
	for _, f := range faces {
		if f.dead {
			continue
		}
		a, b, c := vertex(f.tri[0]), vertex(f.tri[1]), vertex(f.tri[2])
		m.Triangles = append(m.Triangles, mesh.Triangle{a, c, b})
	}
	return m
}
