// Package noise provides seeded coherent noise fields sampled at a world position
// plus a fourth "w" coordinate, used to perturb the voxel field and bake mesh masks.
package noise

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

// Basis is a 3D gradient noise generator.
type Basis interface {
	Noise3D(x, y, z float64) float64
}

// BasisKind selects which generator backs a noise field.
type BasisKind string

const (
	// BasisPerlin uses aquilax/go-perlin with a few summed octaves
	BasisPerlin BasisKind = "perlin"
	// BasisImproved uses improved gradient noise over the same octaves
	BasisImproved BasisKind = "improved"
)

// Octave parameters shared by both bases
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

// ParseBasisKind validates a basis name. The empty string selects BasisPerlin.
func ParseBasisKind(name string) (BasisKind, error) {
	switch BasisKind(name) {
	case "", BasisPerlin:
		return BasisPerlin, nil
	case BasisImproved:
		return BasisImproved, nil
	}
	return "", fmt.Errorf("unknown noise basis %q", name)
}

// NewBasis creates a generator of the given kind.
func NewBasis(kind BasisKind, seed uint32) Basis {
	if kind == BasisImproved {
		return newGradientNoise(perlinAlpha, perlinBeta, perlinOctaves, int64(seed))
	}
	return perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, int64(seed))
}

// The w coordinate has no fourth noise dimension to live in, so it shifts the
// sample diagonally through the 3D field.
func sampleBasis(basis Basis, position mgl32.Vec3, w float32, frequency [4]float64) float64 {
	shift := float64(w) * frequency[3]
	return basis.Noise3D(
		float64(position[0])*frequency[0]+shift,
		float64(position[1])*frequency[1]+shift,
		float64(position[2])*frequency[2]+shift,
	)
}

// Perlin1D is a scalar noise field.
type Perlin1D struct {
	Frequency [4]float64
	Amplitude float64

	seed  uint32
	kind  BasisKind
	basis Basis
}

// NewPerlin1D creates a scalar noise field. Frequency holds the x, y, z and w scales.
func NewPerlin1D(kind BasisKind, seed uint32, frequency [4]float64, amplitude float64) *Perlin1D {
	return &Perlin1D{
		Frequency: frequency,
		Amplitude: amplitude,
		seed:      seed,
		kind:      kind,
		basis:     NewBasis(kind, seed),
	}
}

// Seed returns the generator seed.
func (p *Perlin1D) Seed() uint32 {
	return p.seed
}

// SetSeed rebuilds the generator with a new seed.
func (p *Perlin1D) SetSeed(seed uint32) {
	p.seed = seed
	p.basis = NewBasis(p.kind, seed)
}

// Sample returns the noise value at position and w, scaled by the amplitude.
func (p *Perlin1D) Sample(position mgl32.Vec3, w float32) float32 {
	if p == nil || p.Amplitude == 0 {
		return 0
	}
	return float32(sampleBasis(p.basis, position, w, p.Frequency) * p.Amplitude)
}

// Perlin3D is a vector noise field with an independent generator per channel.
type Perlin3D struct {
	Frequency [4]float64
	Amplitude [3]float64

	seed  uint32
	kind  BasisKind
	bases [3]Basis
}

// NewPerlin3D creates a vector noise field. Channels use seed, seed+1 and seed+2.
func NewPerlin3D(kind BasisKind, seed uint32, frequency [4]float64, amplitude [3]float64) *Perlin3D {
	p := &Perlin3D{
		Frequency: frequency,
		Amplitude: amplitude,
		kind:      kind,
	}
	p.SetSeed(seed)
	return p
}

// Seed returns the seed of the first channel.
func (p *Perlin3D) Seed() uint32 {
	return p.seed
}

// SetSeed rebuilds all three channel generators.
func (p *Perlin3D) SetSeed(seed uint32) {
	p.seed = seed
	for channel := range p.bases {
		p.bases[channel] = NewBasis(p.kind, seed+uint32(channel))
	}
}

// Sample returns the per-channel noise at position and w, scaled by the amplitudes.
func (p *Perlin3D) Sample(position mgl32.Vec3, w float32) mgl32.Vec3 {
	var out mgl32.Vec3
	if p == nil {
		return out
	}
	for channel := range p.bases {
		if p.Amplitude[channel] == 0 {
			continue
		}
		out[channel] = float32(sampleBasis(p.bases[channel], position, w, p.Frequency) * p.Amplitude[channel])
	}
	return out
}

// Frequency4 widens an xyz frequency with a w scale.
func Frequency4(xyz mgl32.Vec3, w float64) [4]float64 {
	return [4]float64{float64(xyz[0]), float64(xyz[1]), float64(xyz[2]), w}
}
