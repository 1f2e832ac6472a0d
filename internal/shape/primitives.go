package shape

import (
	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// SampleSphere is the distance to a sphere at the origin.
func SampleSphere(p mgl32.Vec3, radius float32) float32 {
	return p.Len() - radius
}

// SampleBoxRounded is the distance to an origin-centered box of full size dimensions
// whose edges are rounded by edgeRadius.
func SampleBoxRounded(p, dimensions mgl32.Vec3, edgeRadius float32) float32 {
	edge := mgl32.Vec3{edgeRadius, edgeRadius, edgeRadius}
	q := geom.AbsVec(p).Sub(dimensions.Mul(0.5)).Add(edge)
	outside := geom.MaxVec(q, mgl32.Vec3{}).Len()
	return outside + min(geom.MaxElement(q), 0) - edgeRadius
}

// SampleCylinderRounded is the distance to a Y-aligned cylinder with rounded rims.
func SampleCylinderRounded(p mgl32.Vec3, radius, height, edgeRadius float32) float32 {
	dx := mgl32.Vec2{p.X(), p.Z()}.Len() - radius + edgeRadius
	dy := mgl32.Abs(p.Y()) - height*0.5 + edgeRadius

	outside := mgl32.Vec2{max(dx, 0), max(dy, 0)}.Len()
	return outside + min(max(dx, dy), 0) - edgeRadius
}

// SampleTorus is the distance to a torus in the XZ plane.
func SampleTorus(p mgl32.Vec3, ringThickness, radius float32) float32 {
	q := mgl32.Vec2{mgl32.Vec2{p.X(), p.Z()}.Len() - radius, p.Y()}
	return q.Len() - ringThickness
}
