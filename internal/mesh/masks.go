package mesh

import (
	"errors"
	"math"

	"IslandBuilder/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// MaskOptions shapes the two slope masks baked into the color channels.
type MaskOptions struct {
	// Occlusion is blended from fully lit towards the baked value by this amount
	OcclusionStrength float32

	DirtMin      float32
	DirtMax      float32
	DirtExponent float32

	SandMin      float32
	SandMax      float32
	SandExponent float32
}

// slopeMask remaps how much a normal faces up into a [0, 1] mask.
func slopeMask(upness, lo, hi, exponent float32) float32 {
	v := mgl32.Clamp(geom.Remap(upness, lo, hi, 0, 1), 0, 1)
	v = float32(math.Pow(float64(v), float64(exponent)))
	if math.IsNaN(float64(v)) {
		return 0
	}
	return mgl32.Clamp(v, 0, 1)
}

// BakeMasks writes per-vertex shader attributes:
//
//	Colors = (occlusion, dirt mask, sand mask, noise)
//	UV1    = (x+z, y), a wall projection
//	UV2    = (x, z), a top-down projection
//
// noiseAt may be nil for zero noise. occlusion may be nil for a fully lit mesh.
func (m *TriangleMesh) BakeMasks(opts MaskOptions, noiseAt func(mgl32.Vec3) float32, occlusion []float32) error {
	count := len(m.Positions)
	if len(m.Normals) != count {
		return errors.New("bake masks: mesh needs one normal per vertex")
	}
	if occlusion != nil && len(occlusion) != count {
		return errors.New("bake masks: occlusion does not match vertex count")
	}

	m.Colors = make([]mgl32.Vec4, count)
	m.UV1 = make([]mgl32.Vec2, count)
	m.UV2 = make([]mgl32.Vec2, count)

	for i, p := range m.Positions {
		upness := m.Normals[i].Dot(geom.Up)

		ao := float32(1)
		if occlusion != nil {
			ao = geom.Lerp(1, occlusion[i], opts.OcclusionStrength)
		}

		var n float32
		if noiseAt != nil {
			n = noiseAt(p)
		}

		m.Colors[i] = mgl32.Vec4{
			ao,
			slopeMask(upness, opts.DirtMin, opts.DirtMax, opts.DirtExponent),
			slopeMask(upness, opts.SandMin, opts.SandMax, opts.SandExponent),
			n,
		}
		m.UV1[i] = mgl32.Vec2{p.X() + p.Z(), p.Y()}
		m.UV2[i] = mgl32.Vec2{p.X(), p.Z()}
	}

	return nil
}
