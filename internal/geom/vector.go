// Package geom has the small geometric building blocks shared by the bake stages:
// bounding boxes, component-wise vector helpers and ray intersection tests.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Up is the fallback direction for degenerate normals.
var Up = mgl32.Vec3{0, 1, 0}

// MinVec returns the component-wise minimum.
func MinVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// MaxVec returns the component-wise maximum.
func MaxVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// AbsVec returns the component-wise absolute value.
func AbsVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{mgl32.Abs(v[0]), mgl32.Abs(v[1]), mgl32.Abs(v[2])}
}

// MulVec returns the component-wise product.
func MulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// MaxElement returns the largest component.
func MaxElement(v mgl32.Vec3) float32 {
	return max(v[0], v[1], v[2])
}

// NormalizeOr normalizes v, returning fallback when v has (near) zero length.
func NormalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	lenSq := v.LenSqr()
	if lenSq <= 1e-12 || math.IsNaN(float64(lenSq)) || math.IsInf(float64(lenSq), 0) {
		return fallback
	}
	return v.Mul(1 / float32(math.Sqrt(float64(lenSq))))
}

// TransformPoint applies the affine transform m to a point.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Remap maps value from the [inMin, inMax] window onto [outMin, outMax].
// A zero-width input window maps everything to outMin.
func Remap(value, inMin, inMax, outMin, outMax float32) float32 {
	span := inMax - inMin
	if span == 0 {
		return outMin
	}
	return outMin + (value-inMin)/span*(outMax-outMin)
}
