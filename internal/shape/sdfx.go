package shape

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
)

// solid exposes a shape list to the sdfx renderers.
type solid struct {
	list       List
	edgeRadius float32
	box        sdf.Box3
}

// SDF3 wraps the list as an sdfx solid bounded by the union shapes, grown by margin.
// Returns nil when the list has nothing to render.
func (l List) SDF3(edgeRadius, margin float32) sdf.SDF3 {
	bounds := l.Bounds()
	if bounds.IsZero() {
		return nil
	}
	bounds = bounds.Expand(margin)

	return &solid{
		list:       l.Clone(),
		edgeRadius: edgeRadius,
		box: sdf.Box3{
			Min: toV3(bounds.Min),
			Max: toV3(bounds.Max),
		},
	}
}

// Evaluate returns the list distance at p.
func (s *solid) Evaluate(p v3.Vec) float64 {
	return float64(s.list.Sample(FromV3(p), s.edgeRadius))
}

// BoundingBox returns the render bounds.
func (s *solid) BoundingBox() sdf.Box3 {
	return s.box
}

func toV3(v mgl32.Vec3) v3.Vec {
	return v3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// FromV3 converts an sdfx vector to mgl32.
func FromV3(v v3.Vec) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
