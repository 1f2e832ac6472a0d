package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"IslandBuilder/internal/meshio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scene = `
settings:
  voxels:
    voxel_size: [0.5, 0.5, 0.5]
    smooth_iterations: 1
    edge_radius: 0.5
shapes:
  - kind: sphere
    radius: 3
  - kind: box
    position: [6, 0, 0]
    dimensions: [3, 3, 3]
`

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(scene), 0o644))

	out := filepath.Join(dir, "out")
	require.NoError(t, run(scenePath, "", out, 32, true))

	raw, err := os.ReadFile(filepath.Join(out, "island.mesh"))
	require.NoError(t, err)
	bundle, err := meshio.DecodeBundle(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.Mesh.Indices)

	raw, err = os.ReadFile(filepath.Join(out, "island.json"))
	require.NoError(t, err)
	var summary meshio.Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Greater(t, summary.Volume, float32(0))
	assert.Equal(t, len(bundle.Hulls), summary.HullCount)

	f, err := os.Open(filepath.Join(out, "island.obj"))
	require.NoError(t, err)
	defer f.Close()
	obj, err := meshio.ReadOBJ(f)
	require.NoError(t, err)
	assert.Equal(t, len(bundle.Mesh.Indices)/3, obj.TriangleCount())

	raw, err = os.ReadFile(filepath.Join(out, "reference.mesh"))
	require.NoError(t, err)
	ref, err := meshio.DecodeMeshBinary(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, ref.Positions)
}

func TestRunReportsMissingScene(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "nope.yaml"), "", t.TempDir(), 0, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
