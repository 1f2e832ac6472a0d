package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BoundingBox is an axis-aligned box described by its minimum and maximum corners.
type BoundingBox struct {
	Min mgl32.Vec3 `json:"min" yaml:"min"`
	Max mgl32.Vec3 `json:"max" yaml:"max"`
}

// NewBoundingBox returns a box spanning the two corners, in any order.
func NewBoundingBox(a, b mgl32.Vec3) BoundingBox {
	return BoundingBox{Min: MinVec(a, b), Max: MaxVec(a, b)}
}

// Size returns the box extents on each axis.
func (b BoundingBox) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Volume returns the box volume. Inverted boxes have zero volume.
func (b BoundingBox) Volume() float32 {
	size := b.Size()
	if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
		return 0
	}
	return size.X() * size.Y() * size.Z()
}

// IsZero reports whether the box encloses no volume.
func (b BoundingBox) IsZero() bool {
	return b.Volume() <= 0
}

// Contains reports whether the point lies inside or on the box.
func (b BoundingBox) Contains(p mgl32.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Expand grows the box by margin on every side.
func (b BoundingBox) Expand(margin float32) BoundingBox {
	return b.ExpandVec(mgl32.Vec3{margin, margin, margin})
}

// ExpandVec grows the box by a per-axis margin on every side.
func (b BoundingBox) ExpandVec(margin mgl32.Vec3) BoundingBox {
	return BoundingBox{Min: b.Min.Sub(margin), Max: b.Max.Add(margin)}
}

// Join returns the smallest box enclosing both boxes.
func (b BoundingBox) Join(other BoundingBox) BoundingBox {
	return BoundingBox{Min: MinVec(b.Min, other.Min), Max: MaxVec(b.Max, other.Max)}
}

// Transform returns the world-space box enclosing this box after the affine transform m.
// Per axis the transformed basis columns contribute their min and max, plus the translation.
func (b BoundingBox) Transform(m mgl32.Mat4) BoundingBox {
	translation := m.Col(3).Vec3()
	low := translation
	high := translation

	for axis := 0; axis < 3; axis++ {
		column := m.Col(axis).Vec3()
		a := column.Mul(b.Min[axis])
		c := column.Mul(b.Max[axis])
		low = low.Add(MinVec(a, c))
		high = high.Add(MaxVec(a, c))
	}

	return BoundingBox{Min: low, Max: high}
}

// GridDimensions returns how many cells of cellSize are needed to cover the box on each axis.
func (b BoundingBox) GridDimensions(cellSize mgl32.Vec3) [3]int {
	size := b.Size()
	var dim [3]int
	for axis := 0; axis < 3; axis++ {
		if cellSize[axis] <= 0 || size[axis] <= 0 {
			return [3]int{}
		}
		dim[axis] = int(math.Ceil(float64(size[axis] / cellSize[axis])))
	}
	return dim
}
