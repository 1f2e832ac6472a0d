package noise

import (
	"math"
	"math/rand"
)

// gradientNoise is Ken Perlin's 2002 improved noise (quintic fade, 12 cube-edge
// gradients) summed over octaves the same way go-perlin sums its own: each octave
// scales the position by beta and divides the contribution by alpha.
type gradientNoise struct {
	perm    [512]uint8
	alpha   float64
	beta    float64
	octaves int
}

var edgeGradients = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

func newGradientNoise(alpha, beta float64, octaves int, seed int64) *gradientNoise {
	g := &gradientNoise{alpha: alpha, beta: beta, octaves: octaves}

	order := rand.New(rand.NewSource(seed)).Perm(256)
	for i, p := range order {
		g.perm[i] = uint8(p)
		g.perm[i+256] = uint8(p)
	}
	return g
}

// Noise3D sums the octaves. With one octave the result stays roughly in [-1, 1].
func (g *gradientNoise) Noise3D(x, y, z float64) float64 {
	sum := 0.0
	scale := 1.0
	for i := 0; i < g.octaves; i++ {
		sum += g.lattice(x, y, z) / scale
		scale *= g.alpha
		x, y, z = x*g.beta, y*g.beta, z*g.beta
	}
	return sum
}

// lattice is a single octave. It is zero on every integer point.
func (g *gradientNoise) lattice(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	cx, cy, cz := int(fx)&255, int(fy)&255, int(fz)&255
	x, y, z = x-fx, y-fy, z-fz

	u, v, w := fade(x), fade(y), fade(z)

	hash := func(i, j, k int) int {
		return int(g.perm[int(g.perm[int(g.perm[cx+i])+cy+j])+cz+k])
	}
	corner := func(i, j, k int) float64 {
		gr := edgeGradients[hash(i, j, k)%12]
		return gr[0]*(x-float64(i)) + gr[1]*(y-float64(j)) + gr[2]*(z-float64(k))
	}

	return lerp(w,
		lerp(v,
			lerp(u, corner(0, 0, 0), corner(1, 0, 0)),
			lerp(u, corner(0, 1, 0), corner(1, 1, 0))),
		lerp(v,
			lerp(u, corner(0, 0, 1), corner(1, 0, 1)),
			lerp(u, corner(0, 1, 1), corner(1, 1, 1))))
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}
