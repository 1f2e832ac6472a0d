package island

import (
	"os"
	"path/filepath"
	"testing"

	"IslandBuilder/internal/noise"
	"IslandBuilder/internal/shape"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, 3, s.Voxels.Padding)
	assert.Equal(t, mgl32.Vec3{0.275, 0.275, 0.275}, s.Voxels.VoxelSize)
	assert.Equal(t, float32(0.04), s.Mesh.MergeDistance)
	assert.False(t, s.Mesh.OcclusionEnabled)
	assert.Equal(t, float32(2), s.Collision.DecimationAngle)
	assert.False(t, s.Collision.Convex)
	assert.Equal(t, noise.BasisPerlin, s.Tweaks.basis())
}

func TestValidateReportsEveryField(t *testing.T) {
	s := DefaultSettings()
	s.Voxels.Padding = -1
	s.Voxels.VoxelSize = mgl32.Vec3{0.5, 0, 0.5}
	s.Mesh.OcclusionStrength = 2
	s.Collision.DecimationAngle = 270
	s.Tweaks.NoiseBasis = "simplex"

	err := s.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.ErrorContains(t, err, "padding")
	assert.ErrorContains(t, err, "voxel_size")
	assert.ErrorContains(t, err, "occlusion_strength")
	assert.ErrorContains(t, err, "decimation_angle")
}

func TestUnknownBasisFallsBack(t *testing.T) {
	assert.Equal(t, noise.BasisPerlin, Tweaks{NoiseBasis: "nope"}.basis())
	assert.Equal(t, noise.BasisImproved, Tweaks{NoiseBasis: string(noise.BasisImproved)}.basis())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettingsYAML(t *testing.T) {
	path := writeFile(t, "island.yaml", `
voxels:
  voxel_size: [0.5, 0.5, 0.5]
  smooth_iterations: 2
mesh:
  occlusion_enabled: true
tweaks:
  seed: 7
  noise_basis: improved
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, s.Voxels.VoxelSize)
	assert.Equal(t, 2, s.Voxels.SmoothIterations)
	assert.True(t, s.Mesh.OcclusionEnabled)
	assert.Equal(t, uint32(7), s.Tweaks.Seed)
	assert.Equal(t, noise.BasisImproved, s.Tweaks.basis())

	// Untouched fields keep their defaults
	assert.Equal(t, 3, s.Voxels.Padding)
	assert.Equal(t, DefaultCollisionSettings(), s.Collision)
}

func TestLoadSettingsJSON(t *testing.T) {
	path := writeFile(t, "island.json", `{"collision": {"dropout": 2, "iterations": 10, "convex": true}}`)

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Collision.Dropout)
	assert.Equal(t, 10, s.Collision.Iterations)
	assert.True(t, s.Collision.Convex)
	assert.Equal(t, DefaultVoxelSettings(), s.Voxels)
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadSettings(writeFile(t, "broken.json", `{"voxels": `))
	assert.ErrorContains(t, err, "broken.json")

	_, err = LoadSettings(writeFile(t, "invalid.yaml", "mesh:\n  occlusion_samples: 0\n"))
	assert.ErrorContains(t, err, "occlusion_samples")
}

const sceneYAML = `
settings:
  voxels:
    voxel_size: [0.5, 0.5, 0.5]
shapes:
  - kind: sphere
    radius: 5
  - kind: rounded_box
    operation: subtraction
    position: [0, 4, 0]
    dimensions: [4, 2, 4]
  - kind: torus
    operation: intersection
    rotation_degrees: [90, 0, 0]
    ring: 1
    radius: 3
  - kind: rounded_cylinder
    position: [10, 0, 0]
    scale: [2, 1, 2]
    height: 4
    radius: 1
`

func TestParseScene(t *testing.T) {
	settings, shapes, err := ParseScene([]byte(sceneYAML))
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, settings.Voxels.VoxelSize)
	assert.Equal(t, DefaultMeshSettings(), settings.Mesh)

	require.Len(t, shapes, 4)
	assert.Equal(t, shape.Sphere, shapes[0].Kind())
	assert.Equal(t, shape.Union, shapes[0].Operation())
	assert.Equal(t, shape.Subtraction, shapes[1].Operation())
	assert.Equal(t, shape.Intersection, shapes[2].Operation())
	assert.Equal(t, shape.RoundedCylinder, shapes[3].Kind())

	assert.InDelta(t, -5, shapes[0].Sample(mgl32.Vec3{}, 0), 1e-5)
	assert.Equal(t, mgl32.Vec3{0, 4, 0}, shapes[1].Transform().Col(3).Vec3())

	// The cylinder is scaled by two on X
	assert.InDelta(t, 2, shapes[3].Transform().Col(0).Vec3().Len(), 1e-5)
	assert.Len(t, shapes.Unions(), 2)
}

func TestShapeSpecTransform(t *testing.T) {
	spec := ShapeSpec{
		Position:        mgl32.Vec3{1, 2, 3},
		RotationDegrees: mgl32.Vec3{0, 90, 0},
	}
	m := spec.Transform()

	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 2, p.Z(), 1e-5)
}

func TestParseSceneErrors(t *testing.T) {
	_, _, err := ParseScene([]byte("shapes:\n  - kind: pyramid\n"))
	assert.ErrorContains(t, err, "shape 0")

	_, _, err = ParseScene([]byte("shapes:\n  - kind: sphere\n    radius: 1\n  - kind: sphere\n    operation: xor\n"))
	assert.ErrorContains(t, err, "shape 1")

	_, _, err = ParseScene([]byte("shapes:\n  - kind: sphere\n    scale: [1, 0, 1]\n"))
	assert.ErrorContains(t, err, "not invertible")

	_, _, err = ParseScene([]byte("settings:\n  voxels:\n    padding: -2\n"))
	assert.ErrorContains(t, err, "padding")

	_, _, err = ParseScene([]byte("shapes: {"))
	assert.Error(t, err)
}

func TestLoadScene(t *testing.T) {
	settings, shapes, err := LoadScene(writeFile(t, "scene.yaml", sceneYAML))
	require.NoError(t, err)
	assert.Len(t, shapes, 4)

	d := New(nil)
	assert.True(t, d.SetSettings(settings))
	assert.True(t, d.SetShapes(shapes))
	assert.Equal(t, shapes, d.Shapes())
}
