// Package shape defines the whitebox primitives an island is carved from, their signed
// distance functions and how a list of them combines into one field.
//
// Distances are negative inside a shape and positive outside.
package shape

import (
	"fmt"
	"math"

	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind selects the distance function of a shape.
type Kind uint8

const (
	Sphere Kind = iota
	RoundedBox
	RoundedCylinder
	Torus
)

func (k Kind) String() string {
	switch k {
	case Sphere:
		return "sphere"
	case RoundedBox:
		return "box"
	case RoundedCylinder:
		return "cylinder"
	case Torus:
		return "torus"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "sphere":
		return Sphere, nil
	case "box", "rounded_box":
		return RoundedBox, nil
	case "cylinder", "rounded_cylinder":
		return RoundedCylinder, nil
	case "torus":
		return Torus, nil
	}
	return 0, fmt.Errorf("unknown shape kind %q", name)
}

// Operation is how a shape combines with everything before it in a list.
type Operation uint8

const (
	Union Operation = iota
	Intersection
	Subtraction
)

func (op Operation) String() string {
	switch op {
	case Union:
		return "union"
	case Intersection:
		return "intersection"
	case Subtraction:
		return "subtraction"
	}
	return fmt.Sprintf("Operation(%d)", uint8(op))
}

// ParseOperation converts an operation name back into an Operation.
func ParseOperation(name string) (Operation, error) {
	switch name {
	case "", "union":
		return Union, nil
	case "intersection":
		return Intersection, nil
	case "subtraction":
		return Subtraction, nil
	}
	return 0, fmt.Errorf("unknown shape operation %q", name)
}

// Combine folds distance b into the running distance a.
func (op Operation) Combine(a, b float32) float32 {
	switch op {
	case Intersection:
		return Intersect(a, b)
	case Subtraction:
		return Subtract(a, b)
	}
	return Join(a, b)
}

// Join returns the union of two distances.
func Join(a, b float32) float32 {
	return min(a, b)
}

// Intersect returns the intersection of two distances.
func Intersect(a, b float32) float32 {
	return max(a, b)
}

// Subtract removes b from a.
func Subtract(a, b float32) float32 {
	return Intersect(a, -b)
}

// SmoothUnion joins two distances with exponential blending; k = 32 gives a tight blend.
func SmoothUnion(a, b, k float32) float32 {
	res := math.Exp(float64(-k*a)) + math.Exp(float64(-k*b))
	return float32(-math.Log10(math.Max(res, 0.0001))) / k
}

// Shape is one primitive with its world transform. Shapes are values: copying one is
// cheap and a constructed shape is never mutated by the pipeline.
type Shape struct {
	kind      Kind
	operation Operation

	radius     float32    // sphere, cylinder and torus radius
	ring       float32    // torus ring thickness, or the stored edge rounding of boxes and cylinders
	dimensions mgl32.Vec3 // box size, cylinder height in Y

	transform    mgl32.Mat4
	transformInv mgl32.Mat4
}

// NewSphere creates a sphere primitive.
func NewSphere(transform mgl32.Mat4, radius float32, op Operation) Shape {
	return Shape{
		kind:         Sphere,
		operation:    op,
		radius:       radius,
		transform:    transform,
		transformInv: transform.Inv(),
	}
}

// NewRoundedBox creates a box of the given full dimensions.
func NewRoundedBox(transform mgl32.Mat4, dimensions mgl32.Vec3, edgeRadius float32, op Operation) Shape {
	return Shape{
		kind:         RoundedBox,
		operation:    op,
		ring:         edgeRadius,
		dimensions:   dimensions,
		transform:    transform,
		transformInv: transform.Inv(),
	}
}

// NewRoundedCylinder creates a Y-aligned cylinder.
func NewRoundedCylinder(transform mgl32.Mat4, height, radius, edgeRadius float32, op Operation) Shape {
	return Shape{
		kind:         RoundedCylinder,
		operation:    op,
		radius:       radius,
		ring:         edgeRadius,
		dimensions:   mgl32.Vec3{1, height, 1},
		transform:    transform,
		transformInv: transform.Inv(),
	}
}

// NewTorus creates a torus lying in the XZ plane.
func NewTorus(transform mgl32.Mat4, ringThickness, radius float32, op Operation) Shape {
	return Shape{
		kind:         Torus,
		operation:    op,
		radius:       radius,
		ring:         ringThickness,
		dimensions:   mgl32.Vec3{1, 1, 1},
		transform:    transform,
		transformInv: transform.Inv(),
	}
}

func (s Shape) Kind() Kind                   { return s.kind }
func (s Shape) Operation() Operation         { return s.operation }
func (s Shape) Radius() float32              { return s.radius }
func (s Shape) Ring() float32                { return s.ring }
func (s Shape) Dimensions() mgl32.Vec3       { return s.dimensions }
func (s Shape) Transform() mgl32.Mat4        { return s.transform }
func (s Shape) TransformInverse() mgl32.Mat4 { return s.transformInv }

// WithTransform returns a copy of the shape placed at transform.
func (s Shape) WithTransform(transform mgl32.Mat4) Shape {
	s.transform = transform
	s.transformInv = transform.Inv()
	return s
}

// WithOperation returns a copy of the shape using op.
func (s Shape) WithOperation(op Operation) Shape {
	s.operation = op
	return s
}

// Sample returns the distance from the world-space point to the shape surface.
// edgeRadius rounds box and cylinder edges; the other primitives ignore it.
func (s Shape) Sample(at mgl32.Vec3, edgeRadius float32) float32 {
	local := geom.TransformPoint(s.transformInv, at)

	switch s.kind {
	case RoundedBox:
		return SampleBoxRounded(local, s.dimensions, edgeRadius)
	case RoundedCylinder:
		return SampleCylinderRounded(local, s.radius, s.dimensions.Y(), edgeRadius)
	case Torus:
		return SampleTorus(local, s.ring, s.radius)
	}
	return SampleSphere(local, s.radius)
}

// LocalBounds returns the untransformed box around the shape.
func (s Shape) LocalBounds() geom.BoundingBox {
	switch s.kind {
	case RoundedBox:
		half := s.dimensions.Mul(0.5)
		return geom.BoundingBox{Min: half.Mul(-1), Max: half}
	case RoundedCylinder:
		halfHeight := s.dimensions.Y() * 0.5
		return geom.BoundingBox{
			Min: mgl32.Vec3{-s.radius, -halfHeight, -s.radius},
			Max: mgl32.Vec3{s.radius, halfHeight, s.radius},
		}
	case Torus:
		width := s.radius + s.ring
		return geom.BoundingBox{
			Min: mgl32.Vec3{-width, -s.ring, -width},
			Max: mgl32.Vec3{width, s.ring, width},
		}
	}
	r := s.radius
	return geom.BoundingBox{Min: mgl32.Vec3{-r, -r, -r}, Max: mgl32.Vec3{r, r, r}}
}

// Bounds returns the world-space box around the shape.
func (s Shape) Bounds() geom.BoundingBox {
	return s.LocalBounds().Transform(s.transform)
}
