package shape

import (
	"slices"

	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// outsideDistance seeds the fold, so an empty list (or a list that opens with a
// subtraction) samples as empty space.
const outsideDistance float32 = 1.0

// List is an ordered set of shapes. Order matters: each shape combines with the
// result of everything before it.
type List []Shape

// Sample folds the list left to right at point.
func (l List) Sample(point mgl32.Vec3, edgeRadius float32) float32 {
	d := outsideDistance
	for _, s := range l {
		d = s.operation.Combine(d, s.Sample(point, edgeRadius))
	}
	return d
}

// Unions returns the union-tagged shapes in list order.
func (l List) Unions() List {
	var unions List
	for _, s := range l {
		if s.operation == Union {
			unions = append(unions, s)
		}
	}
	return unions
}

// Bounds returns the world box around every union shape.
// Without union shapes this is the zero box at the origin, which means nothing to build.
func (l List) Bounds() geom.BoundingBox {
	var bounds geom.BoundingBox
	first := true
	for _, s := range l {
		if s.operation != Union {
			continue
		}
		if first {
			bounds = s.Bounds()
			first = false
			continue
		}
		bounds = bounds.Join(s.Bounds())
	}
	return bounds
}

// Equal reports whether both lists hold the same shapes in the same order.
func (l List) Equal(other List) bool {
	return slices.Equal(l, other)
}

// Clone returns a copy that does not share storage with l.
func (l List) Clone() List {
	return slices.Clone(l)
}
