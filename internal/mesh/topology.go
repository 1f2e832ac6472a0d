package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Edge is a directed edge between two vertex indices.
type Edge [2]int

// Reverse returns the edge pointing the other way.
func (e Edge) Reverse() Edge {
	return Edge{e[1], e[0]}
}

// EdgeFaces is an edge with the triangle on its left and, when the mesh continues across
// it, the triangle on its right. Right is -1 on open borders.
type EdgeFaces struct {
	Edge  Edge
	Left  int
	Right int
}

// EdgeMap lists every edge of a mesh once, in the order the triangles first introduce them.
type EdgeMap struct {
	Edges []EdgeFaces
	index map[Edge]int
}

// Find returns the entry for e in either direction.
func (em *EdgeMap) Find(e Edge) (EdgeFaces, bool) {
	if i, ok := em.index[e]; ok {
		return em.Edges[i], true
	}
	if i, ok := em.index[e.Reverse()]; ok {
		return em.Edges[i], true
	}
	return EdgeFaces{}, false
}

// EdgeMap builds the edge adjacency of the mesh. A triangle walking an existing edge in
// reverse becomes that edge's right face; anything else starts a new entry.
func (m *TriangleMesh) EdgeMap() *EdgeMap {
	em := &EdgeMap{
		Edges: make([]EdgeFaces, 0, len(m.Triangles)*3/2),
		index: make(map[Edge]int, len(m.Triangles)*3/2),
	}

	for t, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			e := Edge{tri[k], tri[(k+1)%3]}

			if i, ok := em.index[e.Reverse()]; ok && em.Edges[i].Right < 0 {
				em.Edges[i].Right = t
				continue
			}
			if _, ok := em.index[e]; ok {
				// non-manifold: a second face walks the same direction
				continue
			}
			em.index[e] = len(em.Edges)
			em.Edges = append(em.Edges, EdgeFaces{Edge: e, Left: t, Right: -1})
		}
	}

	return em
}

// FaceAngle returns the angle in radians between the normals of triangles a and b.
func (m *TriangleMesh) FaceAngle(a, b int) float32 {
	dot := m.Normal(m.Triangles[a]).Dot(m.Normal(m.Triangles[b]))
	return float32(math.Acos(float64(mgl32.Clamp(dot, -1, 1))))
}

// EdgeCollapse merges the two endpoints of e into a new vertex at their midpoint and
// returns its index. Triangles that collapse to a line are left for RemoveDegenerate.
func (m *TriangleMesh) EdgeCollapse(e Edge) int {
	merged := m.appendVertex(e[0], e[1])
	m.SwapIndices([][2]int{{e[0], merged}, {e[1], merged}})
	return merged
}

// DecimatePlanar collapses edges between faces whose normals differ by less than angle
// radians. Each pass touches every vertex at most once and ends by dropping degenerate
// triangles. Passes stop after iterations, once a pass collapses no more than dropout
// edges, or when nothing is left. It returns the total number of collapsed edges.
func (m *TriangleMesh) DecimatePlanar(angle float32, iterations, dropout int) int {
	total := 0
	for i := 0; i < iterations && len(m.Triangles) > 0; i++ {
		collapsed := m.decimatePass(angle)
		total += collapsed
		if collapsed <= dropout {
			break
		}
	}
	m.RemoveUnused()
	return total
}

func (m *TriangleMesh) decimatePass(angle float32) int {
	edges := m.EdgeMap()

	count := len(m.Positions)
	remap := make([]int, count)
	for i := range remap {
		remap[i] = i
	}
	touched := make([]bool, count)

	collapsed := 0
	for _, ef := range edges.Edges {
		if ef.Right < 0 {
			continue
		}
		a, b := ef.Edge[0], ef.Edge[1]
		if touched[a] || touched[b] {
			continue
		}
		if m.FaceAngle(ef.Left, ef.Right) >= angle {
			continue
		}

		merged := m.appendVertex(a, b)
		remap = append(remap, merged)
		touched = append(touched, true)
		remap[a] = merged
		remap[b] = merged
		touched[a] = true
		touched[b] = true
		collapsed++
	}

	if collapsed > 0 {
		m.RemapIndices(remap)
		m.RemoveDegenerate()
	}
	return collapsed
}

// Islands groups triangles into connected components through shared vertices. Components
// are ordered by their lowest triangle index, and triangles within one stay ascending.
func (m *TriangleMesh) Islands() [][]int {
	parent := make([]int, len(m.Positions))
	for i := range parent {
		parent[i] = i
	}

	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	for _, tri := range m.Triangles {
		union(tri[0], tri[1])
		union(tri[1], tri[2])
	}

	slot := make(map[int]int)
	var islands [][]int
	for t, tri := range m.Triangles {
		root := find(tri[0])
		s, ok := slot[root]
		if !ok {
			s = len(islands)
			slot[root] = s
			islands = append(islands, nil)
		}
		islands[s] = append(islands[s], t)
	}
	return islands
}
