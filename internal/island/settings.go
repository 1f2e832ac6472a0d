package island

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"IslandBuilder/internal/noise"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// VoxelSettings controls how shapes are sampled into the voxel field.
type VoxelSettings struct {
	// Empty cells kept around the shapes on every side
	Padding   int        `json:"padding" yaml:"padding"`
	VoxelSize mgl32.Vec3 `json:"voxel_size" yaml:"voxel_size"`

	DensityFrequency mgl32.Vec3 `json:"density_frequency" yaml:"density_frequency"`
	DensityAmplitude float32    `json:"density_amplitude" yaml:"density_amplitude"`
	OffsetFrequency  mgl32.Vec3 `json:"offset_frequency" yaml:"offset_frequency"`
	OffsetAmplitude  mgl32.Vec3 `json:"offset_amplitude" yaml:"offset_amplitude"`

	// Rounding applied to box and cylinder edges
	EdgeRadius float32 `json:"edge_radius" yaml:"edge_radius"`

	SmoothIterations int     `json:"smooth_iterations" yaml:"smooth_iterations"`
	SmoothRadius     int     `json:"smooth_radius" yaml:"smooth_radius"`
	SmoothWeight     float32 `json:"smooth_weight" yaml:"smooth_weight"`

	StriationFrequency mgl32.Vec3 `json:"striation_frequency" yaml:"striation_frequency"`
	StriationAmplitude float32    `json:"striation_amplitude" yaml:"striation_amplitude"`

	// Voxels handled per parallel task
	WorkerGroupSize int `json:"worker_group_size" yaml:"worker_group_size"`
}

// MeshSettings controls clean-up and attribute baking of the render mesh.
type MeshSettings struct {
	MergeDistance float32 `json:"merge_distance" yaml:"merge_distance"`

	OcclusionEnabled  bool    `json:"occlusion_enabled" yaml:"occlusion_enabled"`
	OcclusionRadius   float32 `json:"occlusion_radius" yaml:"occlusion_radius"`
	OcclusionStrength float32 `json:"occlusion_strength" yaml:"occlusion_strength"`
	OcclusionSamples  int     `json:"occlusion_samples" yaml:"occlusion_samples"`

	DirtMin      float32 `json:"dirt_min" yaml:"dirt_min"`
	DirtMax      float32 `json:"dirt_max" yaml:"dirt_max"`
	DirtExponent float32 `json:"dirt_exponent" yaml:"dirt_exponent"`

	SandMin      float32 `json:"sand_min" yaml:"sand_min"`
	SandMax      float32 `json:"sand_max" yaml:"sand_max"`
	SandExponent float32 `json:"sand_exponent" yaml:"sand_exponent"`

	MaskFrequency mgl32.Vec3 `json:"mask_frequency" yaml:"mask_frequency"`
}

// CollisionSettings controls the collision hulls.
type CollisionSettings struct {
	MergeDistance float32 `json:"merge_distance" yaml:"merge_distance"`
	// In degrees; zero disables decimation
	DecimationAngle float32 `json:"decimation_angle" yaml:"decimation_angle"`
	Iterations      int     `json:"iterations" yaml:"iterations"`
	Dropout         int     `json:"dropout" yaml:"dropout"`
	// Convex bakes the convex hull of each shape's triangles instead of the triangles themselves
	Convex bool `json:"convex" yaml:"convex"`
}

// Tweaks vary the noise of an island without changing its shape settings.
type Tweaks struct {
	Seed       uint32  `json:"seed" yaml:"seed"`
	DensityW   float32 `json:"density_w" yaml:"density_w"`
	OffsetW    float32 `json:"offset_w" yaml:"offset_w"`
	StriationW float32 `json:"striation_w" yaml:"striation_w"`
	MaskW      float32 `json:"mask_w" yaml:"mask_w"`
	NoiseBasis string  `json:"noise_basis" yaml:"noise_basis"`
}

// Settings bundles everything that shapes a bake.
type Settings struct {
	Voxels    VoxelSettings     `json:"voxels" yaml:"voxels"`
	Mesh      MeshSettings      `json:"mesh" yaml:"mesh"`
	Collision CollisionSettings `json:"collision" yaml:"collision"`
	Tweaks    Tweaks            `json:"tweaks" yaml:"tweaks"`
}

// DefaultVoxelSettings returns the voxel settings islands are tuned for.
func DefaultVoxelSettings() VoxelSettings {
	return VoxelSettings{
		Padding:            3,
		VoxelSize:          mgl32.Vec3{0.275, 0.275, 0.275},
		DensityFrequency:   mgl32.Vec3{1, 1, 1},
		DensityAmplitude:   0.1,
		OffsetFrequency:    mgl32.Vec3{0.3, 0.3, 0.3},
		OffsetAmplitude:    mgl32.Vec3{0.2, 0.2, 0.2},
		EdgeRadius:         1.6,
		SmoothIterations:   4,
		SmoothRadius:       3,
		SmoothWeight:       0.95,
		StriationFrequency: mgl32.Vec3{0.2, 1, 0.2},
		StriationAmplitude: 0.15,
		WorkerGroupSize:    48 * 48 * 48,
	}
}

// DefaultMeshSettings returns the mesh settings islands are tuned for.
func DefaultMeshSettings() MeshSettings {
	return MeshSettings{
		MergeDistance:     0.04,
		OcclusionEnabled:  false,
		OcclusionRadius:   8,
		OcclusionStrength: 0.8,
		OcclusionSamples:  32,
		DirtMin:           -0.2,
		DirtMax:           0.8,
		DirtExponent:      1,
		SandMin:           0.65,
		SandMax:           1,
		SandExponent:      2.6,
		MaskFrequency:     mgl32.Vec3{0.75, 0.33, 0.75},
	}
}

// DefaultCollisionSettings returns the collision settings islands are tuned for.
func DefaultCollisionSettings() CollisionSettings {
	return CollisionSettings{
		MergeDistance:   0.15,
		DecimationAngle: 2,
		Iterations:      100,
		Dropout:         8,
	}
}

// DefaultTweaks returns neutral tweaks using classic Perlin noise.
func DefaultTweaks() Tweaks {
	return Tweaks{NoiseBasis: string(noise.BasisPerlin)}
}

// DefaultSettings returns every default at once.
func DefaultSettings() Settings {
	return Settings{
		Voxels:    DefaultVoxelSettings(),
		Mesh:      DefaultMeshSettings(),
		Collision: DefaultCollisionSettings(),
		Tweaks:    DefaultTweaks(),
	}
}

// Validate reports every out-of-range field.
func (s VoxelSettings) Validate() error {
	var err error
	if s.Padding < 0 {
		err = multierr.Append(err, fmt.Errorf("padding must be >= 0, got %d", s.Padding))
	}
	if s.VoxelSize[0] <= 0 || s.VoxelSize[1] <= 0 || s.VoxelSize[2] <= 0 {
		err = multierr.Append(err, fmt.Errorf("voxel_size must be > 0, got %v", s.VoxelSize))
	}
	if s.SmoothIterations < 0 {
		err = multierr.Append(err, fmt.Errorf("smooth_iterations must be >= 0, got %d", s.SmoothIterations))
	}
	if s.SmoothRadius < 0 {
		err = multierr.Append(err, fmt.Errorf("smooth_radius must be >= 0, got %d", s.SmoothRadius))
	}
	if s.SmoothWeight < 0 || s.SmoothWeight > 1 {
		err = multierr.Append(err, fmt.Errorf("smooth_weight must be in [0, 1], got %g", s.SmoothWeight))
	}
	if s.WorkerGroupSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("worker_group_size must be > 0, got %d", s.WorkerGroupSize))
	}
	return err
}

// Validate reports every out-of-range field.
func (s MeshSettings) Validate() error {
	var err error
	if s.MergeDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("merge_distance must be >= 0, got %g", s.MergeDistance))
	}
	if s.OcclusionRadius <= 0 {
		err = multierr.Append(err, fmt.Errorf("occlusion_radius must be > 0, got %g", s.OcclusionRadius))
	}
	if s.OcclusionStrength < 0 || s.OcclusionStrength > 1 {
		err = multierr.Append(err, fmt.Errorf("occlusion_strength must be in [0, 1], got %g", s.OcclusionStrength))
	}
	if s.OcclusionSamples < 1 {
		err = multierr.Append(err, fmt.Errorf("occlusion_samples must be >= 1, got %d", s.OcclusionSamples))
	}
	return err
}

// Validate reports every out-of-range field.
func (s CollisionSettings) Validate() error {
	var err error
	if s.MergeDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("collision merge_distance must be >= 0, got %g", s.MergeDistance))
	}
	if s.DecimationAngle < 0 || s.DecimationAngle > 180 {
		err = multierr.Append(err, fmt.Errorf("decimation_angle must be in [0, 180], got %g", s.DecimationAngle))
	}
	if s.Iterations < 0 {
		err = multierr.Append(err, fmt.Errorf("iterations must be >= 0, got %d", s.Iterations))
	}
	return err
}

// Validate checks the noise basis name.
func (t Tweaks) Validate() error {
	_, err := noise.ParseBasisKind(t.NoiseBasis)
	return err
}

// Validate reports every out-of-range field of every section.
func (s Settings) Validate() error {
	return multierr.Combine(
		s.Voxels.Validate(),
		s.Mesh.Validate(),
		s.Collision.Validate(),
		s.Tweaks.Validate(),
	)
}

// basis returns the noise basis the tweaks select, falling back to Perlin.
func (t Tweaks) basis() noise.BasisKind {
	kind, err := noise.ParseBasisKind(t.NoiseBasis)
	if err != nil {
		return noise.BasisPerlin
	}
	return kind
}

// LoadSettings reads settings from a YAML (.yaml, .yml) or JSON file. Fields the file
// leaves out keep their defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	raw, err := os.ReadFile(path)
	if err != nil {
		return settings, err
	}
	if err := unmarshalByExtension(path, raw, &settings); err != nil {
		return settings, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return settings, nil
}

func unmarshalByExtension(path string, raw []byte, out any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, out)
	default:
		return json.Unmarshal(raw, out)
	}
}
