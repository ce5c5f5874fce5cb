package scene

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Starfield is a static shell of stars; twinkle happens in the shader from
// the per-star phase attribute.
type Starfield struct {
	Positions []float32 // xyz triplets
	Sizes     []float32
	Colors    []float32 // rgb triplets

	count int
	time  float64
	dirty bool
}

// NewStarfield scatters count stars over a sphere of the given radius.
func NewStarfield(count int, radius float64, seed int64) *Starfield {
	rng := rand.New(rand.NewSource(seed))
	s := &Starfield{
		Positions: make([]float32, count*3),
		Sizes:     make([]float32, count),
		Colors:    make([]float32, count*3),
		count:     count,
		dirty:     true,
	}
	for i := 0; i < count; i++ {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		s.Positions[i*3] = float32(radius * math.Sin(phi) * math.Cos(theta))
		s.Positions[i*3+1] = float32(radius * math.Cos(phi))
		s.Positions[i*3+2] = float32(radius * math.Sin(phi) * math.Sin(theta))
		s.Sizes[i] = float32(0.2 + rng.Float64()*1.2)

		// Mostly white with a scattering of warm and cool stars.
		warm := rng.Float64()
		s.Colors[i*3] = float32(0.8 + 0.2*warm)
		s.Colors[i*3+1] = float32(0.8 + 0.15*rng.Float64())
		s.Colors[i*3+2] = float32(1.0 - 0.25*warm)
	}
	return s
}

func (s *Starfield) Update(time float64) { s.time = time }
func (s *Starfield) Count() int          { return s.count }
func (s *Starfield) Dirty() bool         { return s.dirty }
func (s *Starfield) MarkClean()          { s.dirty = false }

// Nebula is a noise-colored point cloud shell behind the starfield.
type Nebula struct {
	Positions []float32
	Sizes     []float32
	Colors    []float32

	count int
	dirty bool
}

// NewNebula builds a nebula shell. Colors blend purple and teal driven by
// smooth simplex noise so adjacent points form coherent wisps.
func NewNebula(count int, innerRadius, outerRadius float64, seed int64) *Nebula {
	rng := rand.New(rand.NewSource(seed))
	noise := opensimplex.NewNormalized(seed)
	n := &Nebula{
		Positions: make([]float32, count*3),
		Sizes:     make([]float32, count),
		Colors:    make([]float32, count*3),
		count:     count,
		dirty:     true,
	}
	for i := 0; i < count; i++ {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		r := innerRadius + rng.Float64()*(outerRadius-innerRadius)
		x := r * math.Sin(phi) * math.Cos(theta)
		y := r * math.Cos(phi)
		z := r * math.Sin(phi) * math.Sin(theta)
		n.Positions[i*3] = float32(x)
		n.Positions[i*3+1] = float32(y)
		n.Positions[i*3+2] = float32(z)

		density := noise.Eval3(x*0.04, y*0.04, z*0.04)
		n.Sizes[i] = float32(2.0 + density*6.0)

		purple := [3]float32{0.45, 0.15, 0.6}
		teal := [3]float32{0.1, 0.4, 0.55}
		c := lerp3(purple, teal, float32(noise.Eval3(x*0.02+100, y*0.02, z*0.02)))
		fade := float32(0.15 + 0.5*density)
		n.Colors[i*3] = c[0] * fade
		n.Colors[i*3+1] = c[1] * fade
		n.Colors[i*3+2] = c[2] * fade
	}
	return n
}

func (n *Nebula) Update(time float64) {}
func (n *Nebula) Count() int          { return n.count }
func (n *Nebula) Dirty() bool         { return n.dirty }
func (n *Nebula) MarkClean()          { n.dirty = false }
