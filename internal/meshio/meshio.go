// Package meshio writes baked islands to the compact binary format hosts load at runtime,
// plus a small JSON summary.
package meshio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/gzip"
)

const (
	meshMagic   uint32 = 0x4C534948 // "HISL"
	bundleMagic uint32 = 0x42534948 // "HISB"
	version     uint32 = 1

	// maxArrayLength guards against allocating from a corrupt length prefix
	maxArrayLength = 1 << 28

	// readChunk caps how many elements are allocated ahead of the data backing them
	readChunk = 1 << 16
)

// Attribute flags stored in front of every mesh body
const (
	flagNormals uint32 = 1 << iota
	flagColors
	flagUV1
	flagUV2
)

// SerializedMesh contains all data needed to reconstruct a mesh at runtime
type SerializedMesh struct {
	Positions []float32 `json:"positions,omitempty"`
	Normals   []float32 `json:"normals,omitempty"`
	Colors    []float32 `json:"colors,omitempty"`
	UV1       []float32 `json:"uv1,omitempty"`
	UV2       []float32 `json:"uv2,omitempty"`
	Indices   []int32   `json:"indices,omitempty"`
}

// Bundle is a render mesh with its collision hulls.
type Bundle struct {
	Mesh  *SerializedMesh
	Hulls []*SerializedMesh
}

// FromTriangleMesh flattens a mesh into serializable arrays.
func FromTriangleMesh(m *mesh.TriangleMesh) *SerializedMesh {
	s := &SerializedMesh{
		Positions: flattenVec3(m.Positions),
		Indices:   make([]int32, 0, len(m.Triangles)*3),
	}
	count := len(m.Positions)
	if len(m.Normals) == count && count > 0 {
		s.Normals = flattenVec3(m.Normals)
	}
	if len(m.Colors) == count && count > 0 {
		s.Colors = make([]float32, 0, count*4)
		for _, c := range m.Colors {
			s.Colors = append(s.Colors, c[0], c[1], c[2], c[3])
		}
	}
	if len(m.UV1) == count && count > 0 {
		s.UV1 = flattenVec2(m.UV1)
	}
	if len(m.UV2) == count && count > 0 {
		s.UV2 = flattenVec2(m.UV2)
	}
	for _, tri := range m.Triangles {
		s.Indices = append(s.Indices, int32(tri[0]), int32(tri[1]), int32(tri[2]))
	}
	return s
}

// ToTriangleMesh reconstructs a mesh, validating array sizes and indices.
func (s *SerializedMesh) ToTriangleMesh() (*mesh.TriangleMesh, error) {
	if len(s.Positions)%3 != 0 {
		return nil, fmt.Errorf("positions length %d is not a multiple of 3", len(s.Positions))
	}
	if len(s.Indices)%3 != 0 {
		return nil, fmt.Errorf("indices length %d is not a multiple of 3", len(s.Indices))
	}
	count := len(s.Positions) / 3

	m := &mesh.TriangleMesh{Positions: unflattenVec3(s.Positions)}

	if s.Normals != nil {
		if len(s.Normals) != count*3 {
			return nil, fmt.Errorf("normals length %d does not match %d vertices", len(s.Normals), count)
		}
		m.Normals = unflattenVec3(s.Normals)
	}
	if s.Colors != nil {
		if len(s.Colors) != count*4 {
			return nil, fmt.Errorf("colors length %d does not match %d vertices", len(s.Colors), count)
		}
		m.Colors = make([]mgl32.Vec4, count)
		for i := range m.Colors {
			m.Colors[i] = mgl32.Vec4{s.Colors[i*4], s.Colors[i*4+1], s.Colors[i*4+2], s.Colors[i*4+3]}
		}
	}
	for _, uv := range []struct {
		name string
		src  []float32
		dst  *[]mgl32.Vec2
	}{{"uv1", s.UV1, &m.UV1}, {"uv2", s.UV2, &m.UV2}} {
		if uv.src == nil {
			continue
		}
		if len(uv.src) != count*2 {
			return nil, fmt.Errorf("%s length %d does not match %d vertices", uv.name, len(uv.src), count)
		}
		*uv.dst = unflattenVec2(uv.src)
	}

	m.Triangles = make([]mesh.Triangle, len(s.Indices)/3)
	for t := range m.Triangles {
		for k := 0; k < 3; k++ {
			index := int(s.Indices[t*3+k])
			if index < 0 || index >= count {
				return nil, fmt.Errorf("triangle %d references vertex %d of %d", t, index, count)
			}
			m.Triangles[t][k] = index
		}
	}
	return m, nil
}

// EncodeMeshBinary encodes mesh data to compressed binary format
func EncodeMeshBinary(m *SerializedMesh) ([]byte, error) {
	return encode(meshMagic, func(w io.Writer) error {
		return writeMesh(w, m)
	})
}

// DecodeMeshBinary decodes compressed binary mesh data
func DecodeMeshBinary(data []byte) (*SerializedMesh, error) {
	var m *SerializedMesh
	err := decode(data, meshMagic, func(r io.Reader) error {
		var err error
		m, err = readMesh(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeBundle writes the render mesh followed by every hull into one compressed stream.
func EncodeBundle(b Bundle) ([]byte, error) {
	if b.Mesh == nil {
		b.Mesh = &SerializedMesh{}
	}
	return encode(bundleMagic, func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, int32(len(b.Hulls))); err != nil {
			return err
		}
		if err := writeMesh(w, b.Mesh); err != nil {
			return fmt.Errorf("mesh: %w", err)
		}
		for i, h := range b.Hulls {
			if err := writeMesh(w, h); err != nil {
				return fmt.Errorf("hull %d: %w", i, err)
			}
		}
		return nil
	})
}

// DecodeBundle reads a stream written by EncodeBundle.
func DecodeBundle(data []byte) (Bundle, error) {
	var b Bundle
	err := decode(data, bundleMagic, func(r io.Reader) error {
		var hulls int32
		if err := binary.Read(r, binary.LittleEndian, &hulls); err != nil {
			return err
		}
		if hulls < 0 || hulls > maxArrayLength {
			return fmt.Errorf("invalid hull count %d", hulls)
		}

		var err error
		if b.Mesh, err = readMesh(r); err != nil {
			return fmt.Errorf("mesh: %w", err)
		}
		// The count is only a claim until every hull has been read
		b.Hulls = make([]*SerializedMesh, 0, min(int(hulls), readChunk))
		for i := 0; i < int(hulls); i++ {
			h, err := readMesh(r)
			if err != nil {
				return fmt.Errorf("hull %d: %w", i, err)
			}
			b.Hulls = append(b.Hulls, h)
		}
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Summary is the host-facing description of a baked island.
type Summary struct {
	Bounds        geom.BoundingBox `json:"bounds"`
	Volume        float32          `json:"volume"`
	Vertices      int              `json:"vertices"`
	Triangles     int              `json:"triangles"`
	SurfaceArea   float32          `json:"surface_area"`
	HullCount     int              `json:"hull_count"`
	HullTriangles []int            `json:"hull_triangles"`
}

// SummaryJSON describes the baked mesh and hulls as indented JSON.
func SummaryJSON(bounds geom.BoundingBox, volume float32, baked *mesh.TriangleMesh, hulls []*mesh.TriangleMesh) ([]byte, error) {
	summary := Summary{
		Bounds:        bounds,
		Volume:        volume,
		HullTriangles: make([]int, 0, len(hulls)),
		HullCount:     len(hulls),
	}
	if baked != nil {
		summary.Vertices = baked.VertexCount()
		summary.Triangles = baked.TriangleCount()
		summary.SurfaceArea = baked.SurfaceArea()
	}
	for _, h := range hulls {
		summary.HullTriangles = append(summary.HullTriangles, h.TriangleCount())
	}
	return json.MarshalIndent(summary, "", "  ")
}

func encode(magic uint32, body func(w io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)

	if err := binary.Write(gzWriter, binary.LittleEndian, magic); err != nil {
		return nil, err
	}
	if err := binary.Write(gzWriter, binary.LittleEndian, version); err != nil {
		return nil, err
	}
	if err := body(gzWriter); err != nil {
		return nil, err
	}
	if err := gzWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decode(data []byte, magic uint32, body func(r io.Reader) error) error {
	gzReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	var header [2]uint32
	if err := binary.Read(gzReader, binary.LittleEndian, &header); err != nil {
		return err
	}
	if header[0] != magic {
		return fmt.Errorf("invalid mesh file magic: %x", header[0])
	}
	if header[1] != version {
		return fmt.Errorf("unsupported mesh version: %d", header[1])
	}
	return body(gzReader)
}

func writeMesh(w io.Writer, m *SerializedMesh) error {
	flags := uint32(0)
	if m.Normals != nil {
		flags |= flagNormals
	}
	if m.Colors != nil {
		flags |= flagColors
	}
	if m.UV1 != nil {
		flags |= flagUV1
	}
	if m.UV2 != nil {
		flags |= flagUV2
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return err
	}

	if err := writeFloat32Slice(w, m.Positions); err != nil {
		return err
	}
	for _, optional := range []struct {
		flag uint32
		data []float32
	}{{flagNormals, m.Normals}, {flagColors, m.Colors}, {flagUV1, m.UV1}, {flagUV2, m.UV2}} {
		if flags&optional.flag == 0 {
			continue
		}
		if err := writeFloat32Slice(w, optional.data); err != nil {
			return err
		}
	}
	return writeInt32Slice(w, m.Indices)
}

func readMesh(r io.Reader) (*SerializedMesh, error) {
	var flags uint32
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return nil, err
	}

	m := &SerializedMesh{}
	var err error
	if m.Positions, err = readFloat32Slice(r); err != nil {
		return nil, err
	}
	for _, optional := range []struct {
		flag uint32
		dst  *[]float32
	}{{flagNormals, &m.Normals}, {flagColors, &m.Colors}, {flagUV1, &m.UV1}, {flagUV2, &m.UV2}} {
		if flags&optional.flag == 0 {
			continue
		}
		if *optional.dst, err = readFloat32Slice(r); err != nil {
			return nil, err
		}
	}
	if m.Indices, err = readInt32Slice(r); err != nil {
		return nil, err
	}
	return m, nil
}

// Helper functions for binary encoding
func writeFloat32Slice(w io.Writer, data []float32) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func writeInt32Slice(w io.Writer, data []int32) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readLength(r io.Reader) (int, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	if count < 0 || count > maxArrayLength {
		return 0, fmt.Errorf("invalid array length %d", count)
	}
	return int(count), nil
}

func readFloat32Slice(r io.Reader) ([]float32, error) {
	return readSlice[float32](r)
}

func readInt32Slice(r io.Reader) ([]int32, error) {
	return readSlice[int32](r)
}

// readSlice reads a length-prefixed array in chunks so a truncated stream fails
// before the full claimed length is allocated.
func readSlice[T float32 | int32](r io.Reader) ([]T, error) {
	count, err := readLength(r)
	if err != nil {
		return nil, err
	}
	data := make([]T, 0, min(count, readChunk))
	for len(data) < count {
		chunk := make([]T, min(count-len(data), readChunk))
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		data = append(data, chunk...)
	}
	return data, nil
}

func flattenVec3(values []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(values)*3)
	for _, v := range values {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

func flattenVec2(values []mgl32.Vec2) []float32 {
	out := make([]float32, 0, len(values)*2)
	for _, v := range values {
		out = append(out, v[0], v[1])
	}
	return out
}

func unflattenVec3(data []float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(data)/3)
	for i := range out {
		out[i] = mgl32.Vec3{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return out
}

func unflattenVec2(data []float32) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(data)/2)
	for i := range out {
		out[i] = mgl32.Vec2{data[i*2], data[i*2+1]}
	}
	return out
}
