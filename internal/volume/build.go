package volume

import (
	"errors"
	"fmt"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/noise"
	"IslandBuilder/internal/parallel"
	"IslandBuilder/internal/shape"

	"github.com/go-gl/mathgl/mgl32"
)

// BuildOptions controls how a shape list is sampled into a grid.
type BuildOptions struct {
	Dimensions [3]int
	// Transform maps grid coordinates to world space (voxel scale, then bounds offset)
	Transform  mgl32.Mat4
	EdgeRadius float32

	// Optional warp applied to the sample position before evaluating shapes
	OffsetNoise *noise.Perlin3D
	OffsetW     float32
	// Optional additive perturbation of the sampled distance
	DensityNoise *noise.Perlin1D
	DensityW     float32

	GroupSize int
}

// GridTransform returns the grid-to-world transform for a grid of voxelSize cells
// whose first sample sits at origin.
func GridTransform(voxelSize, origin mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(origin[0], origin[1], origin[2]).
		Mul4(mgl32.Scale3D(voxelSize[0], voxelSize[1], voxelSize[2]))
}

// Build samples the shape list into a new grid. Each worker range is filled independently.
func Build(shapes shape.List, opts BuildOptions) (*Volume, error) {
	if len(shapes) == 0 {
		return nil, errors.New("volume build: no shapes")
	}

	v, err := New(opts.Dimensions, 0)
	if err != nil {
		return nil, fmt.Errorf("volume build: %w", err)
	}

	groupSize := opts.GroupSize
	if groupSize <= 0 {
		groupSize = parallel.GroupSize(v.Len())
	}

	err = parallel.ForEach(v.Workers(groupSize), func(r parallel.Range) {
		for i := r.Min; i < r.Max; i++ {
			x, y, z := v.Delinearize(i)
			position := geom.TransformPoint(opts.Transform, mgl32.Vec3{float32(x), float32(y), float32(z)})

			if opts.OffsetNoise != nil {
				position = position.Add(opts.OffsetNoise.Sample(position, opts.OffsetW))
			}

			sample := shapes.Sample(position, opts.EdgeRadius)
			if opts.DensityNoise != nil {
				sample += opts.DensityNoise.Sample(position, opts.DensityW)
			}
			v.data[i] = sample
		}
	})
	if err != nil {
		return nil, fmt.Errorf("volume build: %w", err)
	}

	return v, nil
}

// AddNoise adds a noise field, sampled at each cell's world position, to every sample in place.
func (v *Volume) AddNoise(field *noise.Perlin1D, transform mgl32.Mat4, w float32, groupSize int) error {
	if field == nil || field.Amplitude == 0 {
		return nil
	}
	if groupSize <= 0 {
		groupSize = parallel.GroupSize(v.Len())
	}

	return parallel.ForEach(v.Workers(groupSize), func(r parallel.Range) {
		for i := r.Min; i < r.Max; i++ {
			x, y, z := v.Delinearize(i)
			position := geom.TransformPoint(transform, mgl32.Vec3{float32(x), float32(y), float32(z)})
			v.data[i] += field.Sample(position, w)
		}
	})
}
