package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (ray Ray) At(t float32) mgl32.Vec3 {
	return ray.Origin.Add(ray.Direction.Mul(t))
}

// Plane is the set of points p with Normal·p == Distance.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// PlaneFromPoints builds the plane through a triangle, using the given face normal.
func PlaneFromPoints(normal, point mgl32.Vec3) Plane {
	return Plane{Normal: normal, Distance: normal.Dot(point)}
}

// SignedDistance returns how far p lies in front of the plane (negative when behind).
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) - p.Distance
}

// RayIntersectTriangle tests if a ray intersects a triangle from either side
// Returns: (intersected, distance, intersection point)
// Uses Möller-Trumbore algorithm
func RayIntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (bool, float32, mgl32.Vec3) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return false, 0, mgl32.Vec3{} // Ray is parallel to triangle
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return false, 0, mgl32.Vec3{}
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return false, 0, mgl32.Vec3{}
	}

	// Calculate t to find intersection point
	t := f * edge2.Dot(q)

	if t > epsilon {
		return true, t, ray.At(t)
	}

	return false, 0, mgl32.Vec3{} // Line intersection but not ray intersection
}
