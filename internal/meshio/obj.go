package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"IslandBuilder/internal/logger"
	"IslandBuilder/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// WriteOBJ writes positions, normals and the first UV channel as a Wavefront OBJ.
// OBJ faces wind counter-clockwise when seen from outside, so every triangle is flipped.
func WriteOBJ(w io.Writer, m *mesh.TriangleMesh) error {
	bw := bufio.NewWriter(w)
	count := len(m.Positions)
	hasNormals := len(m.Normals) == count && count > 0
	hasUV := len(m.UV1) == count && count > 0

	fmt.Fprintf(bw, "# %d vertices, %d triangles\n", count, len(m.Triangles))
	for _, p := range m.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	if hasUV {
		for _, uv := range m.UV1 {
			fmt.Fprintf(bw, "vt %g %g\n", uv[0], uv[1])
		}
	}
	if hasNormals {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
		}
	}

	for _, tri := range m.Triangles {
		bw.WriteString("f")
		for _, index := range [3]int{tri[0], tri[2], tri[1]} {
			i := index + 1
			switch {
			case hasUV && hasNormals:
				fmt.Fprintf(bw, " %d/%d/%d", i, i, i)
			case hasNormals:
				fmt.Fprintf(bw, " %d//%d", i, i)
			case hasUV:
				fmt.Fprintf(bw, " %d/%d", i, i)
			default:
				fmt.Fprintf(bw, " %d", i)
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// faceVertex is one corner of an OBJ face. Missing references are -1.
type faceVertex struct {
	position int
	texCoord int
	normal   int
}

// ReadOBJ parses the geometry of a Wavefront OBJ. Quads and larger polygons are fanned
// into triangles, and each distinct position/uv/normal combination becomes one vertex.
// Materials, groups and everything else are ignored.
func ReadOBJ(r io.Reader) (*mesh.TriangleMesh, error) {
	var (
		positions []mgl32.Vec3
		normals   []mgl32.Vec3
		texCoords []mgl32.Vec2
		corners   []faceVertex
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "v", "vn":
			values, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			v := mgl32.Vec3{values[0], values[1], values[2]}
			if parts[0] == "v" {
				positions = append(positions, v)
			} else {
				normals = append(normals, v)
			}
		case "vt":
			values, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			texCoords = append(texCoords, mgl32.Vec2{values[0], values[1]})
		case "f":
			face, err := parseFace(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			if len(face) > 4 {
				logger.Log.Debug("fanning obj polygon", zap.Int("line", line), zap.Int("vertices", len(face)))
			}
			for i := 1; i < len(face)-1; i++ {
				corners = append(corners, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	m := &mesh.TriangleMesh{}
	withNormals := len(normals) > 0
	withUV := len(texCoords) > 0
	unique := make(map[faceVertex]int, len(corners))

	vertex := func(c faceVertex) (int, error) {
		if index, ok := unique[c]; ok {
			return index, nil
		}
		if c.position < 0 || c.position >= len(positions) {
			return 0, fmt.Errorf("obj: vertex index %d out of range", c.position+1)
		}
		index := len(m.Positions)
		m.Positions = append(m.Positions, positions[c.position])
		if withNormals {
			var n mgl32.Vec3
			if c.normal >= 0 && c.normal < len(normals) {
				n = normals[c.normal]
			}
			m.Normals = append(m.Normals, n)
		}
		if withUV {
			var uv mgl32.Vec2
			if c.texCoord >= 0 && c.texCoord < len(texCoords) {
				uv = texCoords[c.texCoord]
			}
			m.UV1 = append(m.UV1, uv)
		}
		unique[c] = index
		return index, nil
	}

	for i := 0; i+2 < len(corners); i += 3 {
		var tri mesh.Triangle
		for j := 0; j < 3; j++ {
			index, err := vertex(corners[i+j])
			if err != nil {
				return nil, err
			}
			tri[j] = index
		}
		m.Triangles = append(m.Triangles, mesh.Triangle{tri[0], tri[2], tri[1]})
	}
	return m, nil
}

func parseFloats(parts []string, count int) ([]float32, error) {
	if len(parts) < count {
		return nil, fmt.Errorf("want %d values, got %d", count, len(parts))
	}
	values := make([]float32, count)
	for i := range values {
		v, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", parts[i], err)
		}
		values[i] = float32(v)
	}
	return values, nil
}

func parseFace(parts []string) ([]faceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(parts))
	}
	face := make([]faceVertex, 0, len(parts))
	for _, part := range parts {
		refs := strings.Split(part, "/")
		corner := faceVertex{texCoord: -1, normal: -1}

		// OBJ indices start at 1
		position, err := strconv.Atoi(refs[0])
		if err != nil {
			return nil, fmt.Errorf("invalid vertex index %q: %w", refs[0], err)
		}
		corner.position = position - 1

		if len(refs) > 1 && refs[1] != "" {
			texCoord, err := strconv.Atoi(refs[1])
			if err != nil {
				return nil, fmt.Errorf("invalid texture coordinate index %q: %w", refs[1], err)
			}
			corner.texCoord = texCoord - 1
		}
		if len(refs) > 2 && refs[2] != "" {
			normal, err := strconv.Atoi(refs[2])
			if err != nil {
				return nil, fmt.Errorf("invalid normal index %q: %w", refs[2], err)
			}
			corner.normal = normal - 1
		}
		face = append(face, corner)
	}
	return face, nil
}
