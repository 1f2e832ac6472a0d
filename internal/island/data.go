// Package island owns the bake pipeline of one island: its settings, its shapes and the
// cached results of every stage from the voxel field to the collision hulls.
package island

import (
	"errors"
	"fmt"
	"time"

	"IslandBuilder/internal/geom"
	"IslandBuilder/internal/hull"
	"IslandBuilder/internal/logger"
	"IslandBuilder/internal/mesh"
	"IslandBuilder/internal/nets"
	"IslandBuilder/internal/noise"
	"IslandBuilder/internal/shape"
	"IslandBuilder/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ErrBakeInProgress is returned when a bake starts while another one is still running.
var ErrBakeInProgress = errors.New("island: bake already in progress")

// paddingValue is written into the border cells so the surface never touches the grid edge
const paddingValue float32 = 10.0

// maxVoxels caps the grid a single bake may allocate
const maxVoxels = 1 << 28

// stage is one cached step of the pipeline.
type stage int

const (
	stageVoxels stage = iota
	stagePreview
	stageMesh
	stageCollision
	stageCount
)

var stageNames = [stageCount]string{"voxels", "preview", "mesh", "collision"}

func (s stage) String() string {
	return stageNames[s]
}

// dependents lists the stages built from each stage. Dropping a stage drops these too.
var dependents = [stageCount][]stage{
	stageVoxels:  {stagePreview},
	stagePreview: {stageMesh, stageCollision},
}

// Data holds the inputs of an island and the lazily baked outputs derived from them.
//
// Bakes must not run concurrently with setters on the same Data. A second bake started
// while one is running fails with ErrBakeInProgress.
type Data struct {
	log *zap.Logger

	settings Settings
	shapes   shape.List

	valid [stageCount]bool

	bounds     geom.BoundingBox
	dimensions [3]int
	voxels     *volume.Volume

	preview *mesh.TriangleMesh
	volume  float32

	baked *mesh.TriangleMesh
	hulls []*mesh.TriangleMesh

	generation atomic.Uint64
	baking     atomic.Bool
}

// New creates an island with default settings and no shapes. A nil logger uses the
// process-wide one.
func New(log *zap.Logger) *Data {
	if log == nil {
		log = logger.Log
	}
	return &Data{
		log:      log.Named("island"),
		settings: DefaultSettings(),
	}
}

// Generation increments every time a cache is invalidated.
func (d *Data) Generation() uint64 {
	return d.generation.Load()
}

// Baking reports whether a bake is running.
func (d *Data) Baking() bool {
	return d.baking.Load()
}

// invalidate drops s and, transitively, everything built from it.
func (d *Data) invalidate(s stage) {
	generation := d.generation.Inc()
	d.drop(s)
	d.log.Debug("invalidated", zap.Stringer("stage", s), zap.Uint64("generation", generation))
}

func (d *Data) drop(s stage) {
	d.clear(s)
	if s == stageVoxels {
		d.bounds = geom.BoundingBox{}
		d.dimensions = [3]int{}
	}
	for _, dependent := range dependents[s] {
		d.drop(dependent)
	}
}

// clear frees the cache of a single stage.
func (d *Data) clear(s stage) {
	d.valid[s] = false
	switch s {
	case stageVoxels:
		d.voxels = nil
	case stagePreview:
		d.preview = nil
		d.volume = 0
	case stageMesh:
		d.baked = nil
	case stageCollision:
		d.hulls = nil
	}
}

// SetShapes replaces the shape list. It reports whether anything changed.
func (d *Data) SetShapes(shapes shape.List) bool {
	if d.shapes.Equal(shapes) {
		return false
	}
	d.shapes = shapes.Clone()
	d.invalidate(stageVoxels)
	return true
}

// SetVoxelSettings replaces the voxel settings. It reports whether anything changed.
func (d *Data) SetVoxelSettings(s VoxelSettings) bool {
	if d.settings.Voxels == s {
		return false
	}
	d.settings.Voxels = s
	d.invalidate(stageVoxels)
	return true
}

// SetMeshSettings replaces the mesh settings. Only the baked mesh is dropped.
func (d *Data) SetMeshSettings(s MeshSettings) bool {
	if d.settings.Mesh == s {
		return false
	}
	d.settings.Mesh = s
	d.invalidate(stageMesh)
	return true
}

// SetCollisionSettings replaces the collision settings. Only the hulls are dropped.
func (d *Data) SetCollisionSettings(s CollisionSettings) bool {
	if d.settings.Collision == s {
		return false
	}
	d.settings.Collision = s
	d.invalidate(stageCollision)
	return true
}

// SetTweaks replaces the tweaks. A change to the mask coordinate alone only rebakes
// the mesh attributes; anything else rebuilds the field.
func (d *Data) SetTweaks(t Tweaks) bool {
	old := d.settings.Tweaks
	if old == t {
		return false
	}
	d.settings.Tweaks = t

	old.MaskW = t.MaskW
	if old == t {
		d.invalidate(stageMesh)
	} else {
		d.invalidate(stageVoxels)
	}
	return true
}

// SetSettings applies every section, invalidating only what changed.
func (d *Data) SetSettings(s Settings) bool {
	changed := d.SetVoxelSettings(s.Voxels)
	changed = d.SetMeshSettings(s.Mesh) || changed
	changed = d.SetCollisionSettings(s.Collision) || changed
	changed = d.SetTweaks(s.Tweaks) || changed
	return changed
}

// DirtyVoxels drops the field and everything built from it.
func (d *Data) DirtyVoxels() {
	d.invalidate(stageVoxels)
}

// ClearVoxels frees the voxel field, keeping its bounds and the meshes built from it.
func (d *Data) ClearVoxels() { d.clear(stageVoxels) }

// ClearPreview frees the raw mesh, keeping the meshes built from it.
func (d *Data) ClearPreview() { d.clear(stagePreview) }

// ClearMesh frees the baked mesh.
func (d *Data) ClearMesh() { d.clear(stageMesh) }

// ClearCollision frees the hulls.
func (d *Data) ClearCollision() { d.clear(stageCollision) }

// ClearAll frees every cache.
func (d *Data) ClearAll() {
	for s := stage(0); s < stageCount; s++ {
		d.clear(s)
	}
}

func (d *Data) Settings() Settings { return d.settings }

func (d *Data) Shapes() shape.List { return d.shapes.Clone() }

// Bounds returns the baked grid bounds, or the zero box before BakeBoundingBox.
func (d *Data) Bounds() geom.BoundingBox { return d.bounds }

// Dimensions returns the baked grid size.
func (d *Data) Dimensions() [3]int { return d.dimensions }

// Volume returns the enclosed volume estimate from the last preview bake.
func (d *Data) Volume() float32 { return d.volume }

// Voxels returns the cached field, or nil.
func (d *Data) Voxels() *volume.Volume { return d.voxels }

// MeshPreview returns the raw extracted mesh, or nil when not baked.
func (d *Data) MeshPreview() *mesh.TriangleMesh { return d.preview }

// MeshBaked returns the render mesh, or nil when not baked.
func (d *Data) MeshBaked() *mesh.TriangleMesh { return d.baked }

// Hulls returns the collision meshes, or nil when not baked.
func (d *Data) Hulls() []*mesh.TriangleMesh { return d.hulls }

// Baked reports whether the render mesh and hulls are both cached.
func (d *Data) Baked() bool {
	return d.valid[stageMesh] && d.valid[stageCollision]
}

// run guards a bake against re-entry.
func (d *Data) run(fn func() error) error {
	if !d.baking.CAS(false, true) {
		return ErrBakeInProgress
	}
	defer d.baking.Store(false)
	return fn()
}

// BakeBoundingBox computes the grid bounds and dimensions.
func (d *Data) BakeBoundingBox() error {
	return d.run(d.bakeBoundingBox)
}

// BakeVoxels builds the voxel field, baking the bounds first when needed.
func (d *Data) BakeVoxels() error {
	return d.run(d.bakeVoxels)
}

// BakePreview extracts the raw mesh and volume estimate.
func (d *Data) BakePreview() error {
	return d.run(d.bakePreview)
}

// BakeMesh produces the render mesh.
func (d *Data) BakeMesh() error {
	return d.run(d.bakeMesh)
}

// BakeCollision produces the collision hulls.
func (d *Data) BakeCollision() error {
	return d.run(d.bakeCollision)
}

// BakeAll produces the render mesh and the hulls.
func (d *Data) BakeAll() error {
	return d.run(func() error {
		if err := d.bakeMesh(); err != nil {
			return err
		}
		return d.bakeCollision()
	})
}

// noiseMargin is how far noise can push the surface past the shapes.
func (s VoxelSettings) noiseMargin() float32 {
	return s.StriationAmplitude + s.DensityAmplitude + geom.MaxElement(s.OffsetAmplitude)
}

func (d *Data) bakeBoundingBox() error {
	if d.valid[stageVoxels] || d.bounds != (geom.BoundingBox{}) {
		return nil
	}
	v := d.settings.Voxels

	bounds := d.shapes.Bounds()
	if bounds.IsZero() {
		d.bounds, d.dimensions = geom.BoundingBox{}, [3]int{}
		return nil
	}

	bounds = bounds.Expand(2 * v.noiseMargin())
	bounds = bounds.ExpandVec(v.VoxelSize.Mul(2 * float32(v.Padding)))
	dims := bounds.GridDimensions(v.VoxelSize)

	if !volume.FitsWithin(dims, maxVoxels) {
		return fmt.Errorf("island bounds: %v voxels exceed the limit of %d", dims, maxVoxels)
	}

	d.bounds, d.dimensions = bounds, dims
	d.log.Debug("baked bounds",
		zap.Any("min", bounds.Min),
		zap.Any("max", bounds.Max),
		zap.Int("voxels", dims[0]*dims[1]*dims[2]),
	)
	return nil
}

func (d *Data) bakeVoxels() error {
	if d.valid[stageVoxels] {
		return nil
	}
	if err := d.bakeBoundingBox(); err != nil {
		return err
	}
	if d.bounds.IsZero() {
		d.voxels = nil
		d.valid[stageVoxels] = true
		return nil
	}

	start := time.Now()
	v := d.settings.Voxels
	t := d.settings.Tweaks
	basis := t.basis()
	transform := volume.GridTransform(v.VoxelSize, d.bounds.Min)

	field, err := volume.Build(d.shapes, volume.BuildOptions{
		Dimensions: d.dimensions,
		Transform:  transform,
		EdgeRadius: v.EdgeRadius,
		OffsetNoise: noise.NewPerlin3D(basis, t.Seed+3, noise.Frequency4(v.OffsetFrequency, 1), [3]float64{
			float64(v.OffsetAmplitude[0]), float64(v.OffsetAmplitude[1]), float64(v.OffsetAmplitude[2]),
		}),
		OffsetW:      t.OffsetW,
		DensityNoise: noise.NewPerlin1D(basis, t.Seed, noise.Frequency4(v.DensityFrequency, 1), float64(v.DensityAmplitude)),
		DensityW:     t.DensityW,
		GroupSize:    v.WorkerGroupSize,
	})
	if err != nil {
		return fmt.Errorf("bake voxels: %w", err)
	}

	field, err = field.BlurIterations(v.SmoothIterations, v.SmoothRadius, v.SmoothWeight, v.WorkerGroupSize)
	if err != nil {
		return fmt.Errorf("bake voxels: smoothing: %w", err)
	}

	striation := noise.NewPerlin1D(basis, t.Seed+6, noise.Frequency4(v.StriationFrequency, 1), float64(v.StriationAmplitude))
	if err := field.AddNoise(striation, transform, t.StriationW, v.WorkerGroupSize); err != nil {
		return fmt.Errorf("bake voxels: striation: %w", err)
	}

	field.SetPadding(v.Padding, paddingValue)

	d.voxels = field
	d.valid[stageVoxels] = true
	d.log.Debug("baked voxels",
		zap.Int("voxels", field.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (d *Data) bakePreview() error {
	if d.valid[stagePreview] {
		return nil
	}
	if err := d.bakeVoxels(); err != nil {
		return err
	}
	if d.voxels == nil {
		d.preview, d.volume = &mesh.TriangleMesh{}, 0
		d.valid[stagePreview] = true
		return nil
	}

	start := time.Now()
	preview, enclosed, err := nets.Extract(d.voxels, d.settings.Voxels.VoxelSize, d.bounds.Min, 1)
	if err != nil {
		return fmt.Errorf("bake preview: %w", err)
	}

	d.preview, d.volume = preview, enclosed
	d.valid[stagePreview] = true
	d.log.Debug("baked preview",
		zap.Int("vertices", preview.VertexCount()),
		zap.Int("triangles", preview.TriangleCount()),
		zap.Float32("volume", enclosed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (d *Data) bakeMesh() error {
	if d.valid[stageMesh] {
		return nil
	}
	if err := d.bakePreview(); err != nil {
		return err
	}

	start := time.Now()
	s := d.settings.Mesh
	t := d.settings.Tweaks

	baked := d.preview.Clone()
	baked.Optimize(s.MergeDistance)
	baked.BakeNormalsSmooth()

	var occlusion []float32
	if s.OcclusionEnabled {
		var err error
		occlusion, err = baked.AmbientOcclusion(s.OcclusionSamples, s.OcclusionRadius, t.Seed, 0)
		if err != nil {
			return fmt.Errorf("bake mesh: %w", err)
		}
	}

	masks := noise.NewPerlin1D(t.basis(), t.Seed+9, noise.Frequency4(s.MaskFrequency, 1), 1)
	opts := mesh.MaskOptions{
		OcclusionStrength: s.OcclusionStrength,
		DirtMin:           s.DirtMin,
		DirtMax:           s.DirtMax,
		DirtExponent:      s.DirtExponent,
		SandMin:           s.SandMin,
		SandMax:           s.SandMax,
		SandExponent:      s.SandExponent,
	}
	sample := func(p mgl32.Vec3) float32 { return masks.Sample(p, t.MaskW) }
	if err := baked.BakeMasks(opts, sample, occlusion); err != nil {
		return fmt.Errorf("bake mesh: %w", err)
	}

	d.baked = baked
	d.valid[stageMesh] = true
	d.log.Info("baked mesh",
		zap.Int("vertices", baked.VertexCount()),
		zap.Int("triangles", baked.TriangleCount()),
		zap.Bool("occlusion", s.OcclusionEnabled),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (d *Data) bakeCollision() error {
	if d.valid[stageCollision] {
		return nil
	}
	if err := d.bakePreview(); err != nil {
		return err
	}

	start := time.Now()
	c := d.settings.Collision
	hulls, err := hull.Partition(d.preview, d.shapes, hull.Options{
		EdgeRadius:      d.settings.Voxels.EdgeRadius,
		MergeDistance:   c.MergeDistance,
		DecimationAngle: mgl32.DegToRad(c.DecimationAngle),
		Iterations:      c.Iterations,
		Dropout:         c.Dropout,
		Convex:          c.Convex,
	})
	if err != nil {
		return fmt.Errorf("bake collision: %w", err)
	}

	d.hulls = hulls
	d.valid[stageCollision] = true

	triangles := 0
	for _, h := range hulls {
		triangles += h.TriangleCount()
	}
	d.log.Info("baked collision",
		zap.Int("hulls", len(hulls)),
		zap.Int("triangles", triangles),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
