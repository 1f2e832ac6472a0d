package volume

import (
	"errors"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/parallel"
)

// Blur writes a smoothed copy of v into out. Each sample is interpolated by weight
// towards the mean of the (2*radius+1)^3 cube around it, with coordinates clamped at
// the grid edges. v is only read, so the result does not depend on worker order.
//
// The cube sum is separable, so it runs as three 1D passes.
func (v *Volume) Blur(radius int, weight float32, groupSize int, out *Volume) error {
	if !v.sameShape(out) || out == v {
		return errors.New("blur: output must be a distinct volume of the same dimensions")
	}
	if radius <= 0 || weight == 0 {
		copy(out.data, v.data)
		return nil
	}
	if groupSize <= 0 {
		groupSize = parallel.GroupSize(v.Len())
	}

	workers := v.Workers(groupSize)
	scratch := make([]float32, len(v.data))

	// Sums along X land in scratch, along Y in out, along Z back in scratch
	passes := []struct {
		src, dst []float32
		axis     int
	}{
		{v.data, scratch, 0},
		{scratch, out.data, 1},
		{out.data, scratch, 2},
	}
	for _, pass := range passes {
		err := parallel.ForEach(workers, func(r parallel.Range) {
			v.sumAxis(pass.src, pass.dst, pass.axis, radius, r)
		})
		if err != nil {
			return err
		}
	}

	count := float32(2*radius + 1)
	count = count * count * count

	return parallel.ForEach(workers, func(r parallel.Range) {
		for i := r.Min; i < r.Max; i++ {
			out.data[i] = geom.Lerp(v.data[i], scratch[i]/count, weight)
		}
	})
}

// sumAxis writes, for every index in r, the clamped window sum of src along axis.
func (v *Volume) sumAxis(src, dst []float32, axis, radius int, r parallel.Range) {
	for i := r.Min; i < r.Max; i++ {
		x, y, z := v.Delinearize(i)
		coord := [3]int{x, y, z}
		center := coord[axis]

		var sum float32
		for offset := -radius; offset <= radius; offset++ {
			coord[axis] = center + offset
			sum += src[v.Linearize(coord[0], coord[1], coord[2])]
		}
		dst[i] = sum
	}
}

// BlurIterations blurs the field repeatedly, alternating between two buffers, and
// returns the final field. v itself is left untouched when iterations > 0.
func (v *Volume) BlurIterations(iterations, radius int, weight float32, groupSize int) (*Volume, error) {
	if iterations <= 0 || radius <= 0 {
		return v, nil
	}

	current := v
	spare, err := New(v.dimensions, 0)
	if err != nil {
		return nil, err
	}

	for i := 0; i < iterations; i++ {
		if err := current.Blur(radius, weight, groupSize, spare); err != nil {
			return nil, err
		}
		// Never write back into the caller's field
		if current == v {
			current, spare = spare, nil
			if i+1 < iterations {
				if spare, err = New(v.dimensions, 0); err != nil {
					return nil, err
				}
			}
			continue
		}
		current, spare = spare, current
	}

	return current, nil
}
