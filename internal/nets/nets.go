// Package nets turns a voxel field into a triangle mesh with chunked surface nets and
// estimates the enclosed volume on the way.
package nets

import (
	"errors"
	"fmt"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/mesh"
	"IslandBuilder/internal/parallel"
	"IslandBuilder/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ChunkSize is the number of samples copied per chunk along each axis
	ChunkSize = 48
	// ChunkStride is the distance between chunk origins; neighbours overlap by the rest
	ChunkStride = 44

	// cellSpan covers every cell an owned edge can touch: local [0, ChunkStride]
	cellSpan = ChunkStride + 1
)

// cornerOffsets lists the eight corners of a cell, bit i selecting +1 on axis i.
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// cellEdges lists the twelve corner pairs joined by a cell edge.
var cellEdges = func() [12][2]int {
	var edges [12][2]int
	n := 0
	for corner := 0; corner < 8; corner++ {
		for bit := 1; bit < 8; bit <<= 1 {
			if corner&bit == 0 {
				edges[n] = [2]int{corner, corner | bit}
				n++
			}
		}
	}
	return edges
}()

// ChunkCounts returns how many chunks cover a grid of the given dimensions.
func ChunkCounts(dimensions [3]int) [3]int {
	var counts [3]int
	for axis, d := range dimensions {
		counts[axis] = (d + ChunkStride - 1) / ChunkStride
	}
	return counts
}

// Extract meshes the zero crossing of v. Negative samples are inside.
//
// voxelSize and origin place sample (x, y, z) at origin + (x, y, z)·voxelSize. Chunks are
// meshed in parallel, chunksPerTask at a time, and joined in chunk order; vertices
// duplicated along chunk seams are left for the caller to weld. The second result is the
// number of inside samples times the voxel volume.
func Extract(v *volume.Volume, voxelSize, origin mgl32.Vec3, chunksPerTask int) (*mesh.TriangleMesh, float32, error) {
	if v == nil {
		return nil, 0, errors.New("surface nets: nil volume")
	}
	if chunksPerTask <= 0 {
		chunksPerTask = 1
	}

	counts := ChunkCounts(v.Dimensions())
	total := counts[0] * counts[1] * counts[2]
	results := make([]chunk, total)

	err := parallel.ForEach(parallel.Split(total, chunksPerTask), func(r parallel.Range) {
		for i := r.Min; i < r.Max; i++ {
			c := [3]int{i % counts[0], i / counts[0] % counts[1], i / (counts[0] * counts[1])}
			results[i] = newChunk(v, [3]int{c[0] * ChunkStride, c[1] * ChunkStride, c[2] * ChunkStride})
			results[i].extract(voxelSize, origin)
		}
	})
	if err != nil {
		return nil, 0, fmt.Errorf("surface nets: %w", err)
	}

	out := &mesh.TriangleMesh{}
	inside := 0
	for i := range results {
		inside += results[i].inside
		if !results[i].mesh.IsEmpty() {
			out.Join(results[i].mesh)
		}
	}

	return out, float32(inside) * voxelSize[0] * voxelSize[1] * voxelSize[2], nil
}

// chunk is one ChunkSize³ window of the field, stored positive-inside.
type chunk struct {
	origin [3]int
	field  []float32
	inside int
	mesh   *mesh.TriangleMesh
}

func newChunk(v *volume.Volume, origin [3]int) chunk {
	dims := v.Dimensions()
	data := v.Data()
	c := chunk{origin: origin, field: make([]float32, ChunkSize*ChunkSize*ChunkSize)}

	for z := 0; z < ChunkSize; z++ {
		for y := 0; y < ChunkSize; y++ {
			for x := 0; x < ChunkSize; x++ {
				gx, gy, gz := origin[0]+x, origin[1]+y, origin[2]+z
				value := data[v.Linearize(gx, gy, gz)]
				c.field[c.at(x, y, z)] = -value

				owned := x < ChunkStride && y < ChunkStride && z < ChunkStride &&
					gx < dims[0] && gy < dims[1] && gz < dims[2]
				if owned && value < 0 {
					c.inside++
				}
			}
		}
	}
	return c
}

func (c *chunk) at(x, y, z int) int {
	return x + y*ChunkSize + z*ChunkSize*ChunkSize
}

func (c *chunk) sample(p [3]int) float32 {
	return c.field[c.at(p[0], p[1], p[2])]
}

func cellAt(x, y, z int) int {
	return x + y*cellSpan + z*cellSpan*cellSpan
}

// extract places one vertex in every sign-changing cell and one quad across every
// sign-changing edge this chunk owns. An edge is owned when its origin lies in local
// [1, ChunkStride] on every axis, so each global edge belongs to exactly one chunk.
func (c *chunk) extract(voxelSize, origin mgl32.Vec3) {
	m := &mesh.TriangleMesh{}
	cells := make([]int32, cellSpan*cellSpan*cellSpan)

	for z := 0; z < cellSpan; z++ {
		for y := 0; y < cellSpan; y++ {
			for x := 0; x < cellSpan; x++ {
				cells[cellAt(x, y, z)] = -1

				var corners [8]float32
				mask := 0
				for k, off := range cornerOffsets {
					corners[k] = c.field[c.at(x+off[0], y+off[1], z+off[2])]
					if corners[k] > 0 {
						mask |= 1 << k
					}
				}
				if mask == 0 || mask == 0xff {
					continue
				}

				offset, normal := cellVertex(&corners)
				position := mgl32.Vec3{
					(float32(c.origin[0]+x)+offset[0])*voxelSize[0] + origin[0],
					(float32(c.origin[1]+y)+offset[1])*voxelSize[1] + origin[1],
					(float32(c.origin[2]+z)+offset[2])*voxelSize[2] + origin[2],
				}

				cells[cellAt(x, y, z)] = int32(len(m.Positions))
				m.Positions = append(m.Positions, position)
				m.Normals = append(m.Normals, normal)
			}
		}
	}

	for z := 1; z <= ChunkStride; z++ {
		for y := 1; y <= ChunkStride; y++ {
			for x := 1; x <= ChunkStride; x++ {
				p := [3]int{x, y, z}
				for axis := 0; axis < 3; axis++ {
					c.emitQuad(m, cells, p, axis)
				}
			}
		}
	}

	m.RemoveUnused()
	c.mesh = m
}

// emitQuad connects the four cells around the edge from p along axis when the field
// changes sign across it. Triangles wind so their face normal points into the solid.
func (c *chunk) emitQuad(m *mesh.TriangleMesh, cells []int32, p [3]int, axis int) {
	q := p
	q[axis]++
	inside := c.sample(p) > 0
	if inside == (c.sample(q) > 0) {
		return
	}

	b, d := (axis+1)%3, (axis+2)%3
	cell := func(db, dd int) int32 {
		at := p
		at[b] -= db
		at[d] -= dd
		return cells[cellAt(at[0], at[1], at[2])]
	}

	v0, v1, v2, v3 := cell(1, 1), cell(0, 1), cell(0, 0), cell(1, 0)
	if v0 < 0 || v1 < 0 || v2 < 0 || v3 < 0 {
		return
	}

	// v0→v1→v2 turns about +axis
	if inside {
		m.Triangles = append(m.Triangles,
			mesh.Triangle{int(v0), int(v3), int(v2)},
			mesh.Triangle{int(v0), int(v2), int(v1)},
		)
	} else {
		m.Triangles = append(m.Triangles,
			mesh.Triangle{int(v0), int(v1), int(v2)},
			mesh.Triangle{int(v0), int(v2), int(v3)},
		)
	}
}

// cellVertex returns the mean of the edge crossings inside a unit cell and the outward
// normal estimated from the corner differences.
func cellVertex(corners *[8]float32) (mgl32.Vec3, mgl32.Vec3) {
	var sum mgl32.Vec3
	crossings := 0
	for _, e := range cellEdges {
		fa, fb := corners[e[0]], corners[e[1]]
		if (fa > 0) == (fb > 0) {
			continue
		}
		t := fa / (fa - fb)
		a, b := cornerOffsets[e[0]], cornerOffsets[e[1]]
		for axis := 0; axis < 3; axis++ {
			sum[axis] += float32(a[axis]) + t*float32(b[axis]-a[axis])
		}
		crossings++
	}

	// positive inside, so the field grows inward
	gradient := mgl32.Vec3{
		corners[1] - corners[0] + corners[3] - corners[2] + corners[5] - corners[4] + corners[7] - corners[6],
		corners[2] - corners[0] + corners[3] - corners[1] + corners[6] - corners[4] + corners[7] - corners[5],
		corners[4] - corners[0] + corners[5] - corners[1] + corners[6] - corners[2] + corners[7] - corners[3],
	}

	return sum.Mul(1 / float32(crossings)), geom.NormalizeOr(gradient.Mul(-1), geom.Up)
}
