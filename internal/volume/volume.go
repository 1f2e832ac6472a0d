// Package volume stores the dense voxel field an island is meshed from, as one flat
// buffer indexed through explicit strides.
package volume

import (
	"fmt"

	"IslandBuilder/internal/parallel"
)

// Volume is a dense 3D grid of float32 samples in x-fastest order.
type Volume struct {
	data       []float32
	dimensions [3]int
	strides    [3]int
}

// MaxLen is the largest sample count New allocates.
const MaxLen = 1 << 30

// FitsWithin reports whether a grid of dimensions holds at most limit samples.
// The product is built axis by axis so it never overflows.
func FitsWithin(dimensions [3]int, limit int) bool {
	total := 1
	for _, d := range dimensions {
		if d < 0 {
			return false
		}
		if d == 0 {
			return true
		}
		if d > limit/total {
			return false
		}
		total *= d
	}
	return true
}

// New allocates a grid of the given dimensions with every sample set to fill.
func New(dimensions [3]int, fill float32) (*Volume, error) {
	for axis, d := range dimensions {
		if d <= 0 {
			return nil, fmt.Errorf("volume dimension %d must be positive, got %d", axis, d)
		}
	}

	if !FitsWithin(dimensions, MaxLen) {
		return nil, fmt.Errorf("volume of %v samples exceeds the limit of %d", dimensions, MaxLen)
	}

	size := dimensions[0] * dimensions[1] * dimensions[2]
	data := make([]float32, size)
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}

	return &Volume{
		data:       data,
		dimensions: dimensions,
		strides:    [3]int{1, dimensions[0], dimensions[0] * dimensions[1]},
	}, nil
}

// Dimensions returns the sample count on each axis.
func (v *Volume) Dimensions() [3]int {
	return v.dimensions
}

// Len returns the total number of samples.
func (v *Volume) Len() int {
	return len(v.data)
}

// Data exposes the backing buffer. Callers must not resize it.
func (v *Volume) Data() []float32 {
	return v.data
}

// Linearize converts grid coordinates to a buffer index, clamping each coordinate into the grid.
func (v *Volume) Linearize(x, y, z int) int {
	x = clamp(x, 0, v.dimensions[0]-1)
	y = clamp(y, 0, v.dimensions[1]-1)
	z = clamp(z, 0, v.dimensions[2]-1)
	return v.LinearizeFast(x, y, z)
}

// LinearizeFast converts in-range grid coordinates to a buffer index without clamping.
func (v *Volume) LinearizeFast(x, y, z int) int {
	return x*v.strides[0] + y*v.strides[1] + z*v.strides[2]
}

// Delinearize converts a buffer index back to grid coordinates.
func (v *Volume) Delinearize(i int) (x, y, z int) {
	z = i / v.strides[2]
	i -= z * v.strides[2]
	y = i / v.strides[1]
	x = i - y*v.strides[1]
	return x, y, z
}

// Get returns the sample at the clamped coordinates.
func (v *Volume) Get(x, y, z int) float32 {
	return v.data[v.Linearize(x, y, z)]
}

// Set writes the sample at in-range coordinates.
func (v *Volume) Set(x, y, z int, value float32) {
	v.data[v.LinearizeFast(x, y, z)] = value
}

// IsMargin reports whether the cell lies within margin cells of any face.
func (v *Volume) IsMargin(x, y, z, margin int) bool {
	return x < margin || y < margin || z < margin ||
		x >= v.dimensions[0]-margin ||
		y >= v.dimensions[1]-margin ||
		z >= v.dimensions[2]-margin
}

// SetPadding forces every sample within margin cells of a face to value.
func (v *Volume) SetPadding(margin int, value float32) {
	if margin <= 0 {
		return
	}
	for i := range v.data {
		x, y, z := v.Delinearize(i)
		if v.IsMargin(x, y, z, margin) {
			v.data[i] = value
		}
	}
}

// Workers partitions the buffer into contiguous ranges of groupSize samples.
func (v *Volume) Workers(groupSize int) []parallel.Range {
	return parallel.Split(len(v.data), groupSize)
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	data := make([]float32, len(v.data))
	copy(data, v.data)
	return &Volume{data: data, dimensions: v.dimensions, strides: v.strides}
}

// sameShape reports whether other can be used as a read/write partner of v.
func (v *Volume) sameShape(other *Volume) bool {
	return other != nil && other.dimensions == v.dimensions
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
