package mesh

import (
	"math"

	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// Optimize welds vertices closer than mergeDistance, drops degenerate triangles and
// then compacts the vertex arrays. The order of the three passes matters.
func (m *TriangleMesh) Optimize(mergeDistance float32) {
	m.MergeByDistance(mergeDistance)
	m.RemoveDegenerate()
	m.RemoveUnused()
}

// MergeByDistance welds every vertex lying within distance of an earlier surviving vertex
// into the lowest such vertex, moving the survivor to their midpoint. Since survivors move,
// passes repeat until no two survivors are within distance. It returns how many vertices
// were merged away.
//
// Candidates come from a hash grid of distance-sized cells, which finds the same survivor
// a full scan of the earlier vertices would.
func (m *TriangleMesh) MergeByDistance(distance float32) int {
	count := len(m.Positions)
	if distance <= 0 || count < 2 {
		return 0
	}
	threshold := distance * distance

	alive := make([]bool, count)
	for i := range alive {
		alive[i] = true
	}
	remap := make([]int, count)

	total := 0
	for {
		for i := range remap {
			remap[i] = i
		}

		grid := newWeldGrid(distance)
		for i, p := range m.Positions {
			if alive[i] {
				grid.insert(i, p)
			}
		}

		merged := 0
		for i := 1; i < count; i++ {
			if !alive[i] {
				continue
			}

			target := -1
			grid.visit(m.Positions[i], func(j int) {
				if j >= i || (target >= 0 && j > target) {
					return
				}
				if m.Positions[i].Sub(m.Positions[j]).LenSqr() <= threshold {
					target = j
				}
			})
			if target < 0 {
				continue
			}

			moved := midpoint(m.Positions[i], m.Positions[target])
			grid.move(target, m.Positions[target], moved)
			m.Positions[target] = moved

			grid.remove(i, m.Positions[i])
			alive[i] = false
			remap[i] = target
			merged++
		}

		if merged == 0 {
			return total
		}
		m.RemapIndices(remap)
		total += merged
	}
}

type weldKey [3]int64

// weldGrid buckets vertex indices by position. Every point within the cell size of p
// lies in one of the 27 cells around p's cell.
type weldGrid struct {
	size  float32
	cells map[weldKey][]int
}

func newWeldGrid(size float32) *weldGrid {
	return &weldGrid{size: size, cells: make(map[weldKey][]int)}
}

func (g *weldGrid) key(p mgl32.Vec3) weldKey {
	return weldKey{
		int64(math.Floor(float64(p[0] / g.size))),
		int64(math.Floor(float64(p[1] / g.size))),
		int64(math.Floor(float64(p[2] / g.size))),
	}
}

func (g *weldGrid) insert(index int, p mgl32.Vec3) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], index)
}

func (g *weldGrid) remove(index int, p mgl32.Vec3) {
	k := g.key(p)
	bucket := g.cells[k]
	for n, other := range bucket {
		if other == index {
			bucket[n] = bucket[len(bucket)-1]
			g.cells[k] = bucket[:len(bucket)-1]
			return
		}
	}
}

func (g *weldGrid) move(index int, from, to mgl32.Vec3) {
	if g.key(from) == g.key(to) {
		return
	}
	g.remove(index, from)
	g.insert(index, to)
}

func (g *weldGrid) visit(p mgl32.Vec3, fn func(index int)) {
	center := g.key(p)
	for dz := int64(-1); dz <= 1; dz++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dx := int64(-1); dx <= 1; dx++ {
				for _, index := range g.cells[weldKey{center[0] + dx, center[1] + dy, center[2] + dz}] {
					fn(index)
				}
			}
		}
	}
}

// RemapIndices replaces every triangle index i with remap[i].
func (m *TriangleMesh) RemapIndices(remap []int) {
	for t := range m.Triangles {
		for k := 0; k < 3; k++ {
			m.Triangles[t][k] = remap[m.Triangles[t][k]]
		}
	}
}

// SwapIndices applies (from, to) replacements to the triangles, in order.
func (m *TriangleMesh) SwapIndices(pairs [][2]int) {
	for _, pair := range pairs {
		for t := range m.Triangles {
			for k := 0; k < 3; k++ {
				if m.Triangles[t][k] == pair[0] {
					m.Triangles[t][k] = pair[1]
				}
			}
		}
	}
}

// RemoveDegenerate drops triangles that reference the same vertex more than once.
// It returns the number of triangles removed.
func (m *TriangleMesh) RemoveDegenerate() int {
	kept := m.Triangles[:0]
	for _, tri := range m.Triangles {
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			continue
		}
		kept = append(kept, tri)
	}
	removed := len(m.Triangles) - len(kept)
	m.Triangles = kept
	return removed
}

// RemoveUnused compacts the vertex arrays down to referenced vertices and remaps the triangles.
// It returns the number of vertices removed.
func (m *TriangleMesh) RemoveUnused() int {
	count := len(m.Positions)
	used := make([]bool, count)
	for _, tri := range m.Triangles {
		used[tri[0]] = true
		used[tri[1]] = true
		used[tri[2]] = true
	}

	remap := make([]int, count)
	next := 0
	for i, u := range used {
		if u {
			remap[i] = next
			next++
		} else {
			remap[i] = -1
		}
	}
	if next == count {
		return 0
	}

	m.Positions = compact(m.Positions, remap, next)
	m.Normals = compact(m.Normals, remap, next)
	m.Colors = compact(m.Colors, remap, next)
	m.UV1 = compact(m.UV1, remap, next)
	m.UV2 = compact(m.UV2, remap, next)
	m.RemapIndices(remap)

	return count - next
}

// compact keeps the entries whose remap target is not -1. Arrays that do not match the
// vertex count are dropped.
func compact[T any](values []T, remap []int, size int) []T {
	if len(values) != len(remap) {
		return nil
	}
	out := make([]T, size)
	for i, target := range remap {
		if target >= 0 {
			out[target] = values[i]
		}
	}
	return out
}

// appendVertex adds a vertex halfway between a and b, averaging every attribute the mesh carries.
func (m *TriangleMesh) appendVertex(a, b int) int {
	count := len(m.Positions)
	index := count

	if len(m.Normals) == count {
		m.Normals = append(m.Normals, geom.NormalizeOr(m.Normals[a].Add(m.Normals[b]), geom.Up))
	}
	if len(m.Colors) == count {
		m.Colors = append(m.Colors, m.Colors[a].Add(m.Colors[b]).Mul(0.5))
	}
	if len(m.UV1) == count {
		m.UV1 = append(m.UV1, m.UV1[a].Add(m.UV1[b]).Mul(0.5))
	}
	if len(m.UV2) == count {
		m.UV2 = append(m.UV2, m.UV2[a].Add(m.UV2[b]).Mul(0.5))
	}
	m.Positions = append(m.Positions, midpoint(m.Positions[a], m.Positions[b]))

	return index
}

func midpoint(a, b mgl32.Vec3) mgl32.Vec3 {
	return a.Add(b).Mul(0.5)
}
