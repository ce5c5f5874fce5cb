package scene

import (
	"math"
	"math/rand"
)

// ParticleType tags a Hawking radiation particle.
type ParticleType uint8

const (
	ParticleEscaping ParticleType = iota
	ParticleInfalling
)

// HawkingConfig sizes and tunes the radiation particle set.
type HawkingConfig struct {
	Count         int
	HorizonRadius float64
	EscapeRadius  float64
	// EmissionRate scales the stochastic respawn probability; the UI maps
	// its intensity slider here.
	EmissionRate float64
	Seed         int64
}

// DefaultHawkingConfig returns the parameters used by the interactive scene.
func DefaultHawkingConfig() HawkingConfig {
	return HawkingConfig{
		Count:         900,
		HorizonRadius: 2.0,
		EscapeRadius:  20.0,
		EmissionRate:  0.35,
		Seed:          2,
	}
}

// HawkingRadiation is a CPU-integrated particle set. Escaping particles
// drift outward, accelerating with radius; infalling particles spiral in,
// accelerating near the horizon, with an extra inverse-square pull. A
// particle crossing either radial bound becomes eligible for respawn at the
// emission radius, but respawns are rate-limited so a burst of crossings
// doesn't visibly pop.
type HawkingRadiation struct {
	cfg HawkingConfig

	Positions []float32 // xyz triplets, mutated in place each frame
	Sizes     []float32
	Colors    []float32 // rgb triplets
	Types     []ParticleType

	// externalPull holds per-particle acceleration supplied by the physics
	// worker; nil means the built-in inline pull is used.
	externalPull []float32

	rng       *rand.Rand
	lastTime  float64
	spawnFlip bool
	tick      int
	dirty     bool
}

const (
	escapeSpeed  = 1.6
	infallSpeed  = 1.1
	pullStrength = 2.4
	// infalling particles feel the pull more strongly
	infallPullWeight = 2.0
	escapePullWeight = 0.35
)

// NewHawkingRadiation seeds all particles at the emission radius with
// alternating escaping/infalling types.
func NewHawkingRadiation(cfg HawkingConfig) *HawkingRadiation {
	if cfg.Count <= 0 {
		cfg.Count = DefaultHawkingConfig().Count
	}
	h := &HawkingRadiation{
		cfg:       cfg,
		Positions: make([]float32, cfg.Count*3),
		Sizes:     make([]float32, cfg.Count),
		Colors:    make([]float32, cfg.Count*3),
		Types:     make([]ParticleType, cfg.Count),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		dirty:     true,
	}
	for i := 0; i < cfg.Count; i++ {
		h.respawn(i)
		// Scatter initial radii so the first frames aren't a single shell.
		r := cfg.HorizonRadius*1.2 + h.rng.Float64()*(cfg.EscapeRadius-cfg.HorizonRadius*1.2)*0.5
		h.setRadius(i, r)
	}
	return h
}

// respawn places particle i at the emission radius with a fresh direction,
// type and size. Types alternate across consecutive respawns.
func (h *HawkingRadiation) respawn(i int) {
	emission := h.cfg.HorizonRadius * 1.2
	theta := h.rng.Float64() * 2 * math.Pi
	phi := math.Acos(2*h.rng.Float64() - 1)

	h.Positions[i*3] = float32(emission * math.Sin(phi) * math.Cos(theta))
	h.Positions[i*3+1] = float32(emission * math.Cos(phi))
	h.Positions[i*3+2] = float32(emission * math.Sin(phi) * math.Sin(theta))

	if h.spawnFlip {
		h.Types[i] = ParticleInfalling
		h.Colors[i*3], h.Colors[i*3+1], h.Colors[i*3+2] = 0.55, 0.3, 0.9
	} else {
		h.Types[i] = ParticleEscaping
		h.Colors[i*3], h.Colors[i*3+1], h.Colors[i*3+2] = 0.4, 0.8, 1.0
	}
	h.spawnFlip = !h.spawnFlip
	h.Sizes[i] = float32(0.3 + h.rng.Float64()*0.9)
}

// Update integrates every particle by the elapsed time since the previous
// call and marks the position buffer dirty for re-upload.
func (h *HawkingRadiation) Update(time float64) {
	dt := time - h.lastTime
	h.lastTime = time
	if dt <= 0 {
		return
	}
	if dt > 0.1 {
		dt = 0.1
	}
	h.tick++

	horizon := h.cfg.HorizonRadius
	escape := h.cfg.EscapeRadius

	for i := 0; i < h.cfg.Count; i++ {
		x := float64(h.Positions[i*3])
		y := float64(h.Positions[i*3+1])
		z := float64(h.Positions[i*3+2])
		dist := math.Sqrt(x*x + y*y + z*z)
		if dist < 1e-6 {
			h.respawn(i)
			continue
		}
		ux, uy, uz := x/dist, y/dist, z/dist

		var radial float64
		pullWeight := escapePullWeight
		if h.Types[i] == ParticleEscaping {
			// Faster the further out it gets.
			radial = escapeSpeed * (dist / horizon)
		} else {
			// Faster the closer it falls.
			radial = -infallSpeed * (horizon / dist) * 3
			pullWeight = infallPullWeight
		}

		var ax, ay, az float64
		if h.externalPull != nil && i*3+2 < len(h.externalPull) {
			ax = float64(h.externalPull[i*3])
			ay = float64(h.externalPull[i*3+1])
			az = float64(h.externalPull[i*3+2])
		} else {
			pull := pullStrength / (dist * dist)
			ax, ay, az = -ux*pull, -uy*pull, -uz*pull
		}

		x += (ux*radial + ax*pullWeight) * dt
		y += (uy*radial + ay*pullWeight) * dt
		z += (uz*radial + az*pullWeight) * dt

		dist = math.Sqrt(x*x + y*y + z*z)
		if dist > escape || dist < horizon {
			// Eligible for respawn. Stochastic emission keeps resets spread
			// over many frames; every 50th index respawns unconditionally so
			// no particle stalls forever on the boundary.
			if i%50 == 0 || h.rng.Float64() < h.cfg.EmissionRate*dt*10 {
				h.respawn(i)
				continue
			}
			// Hold at the boundary until its respawn comes up.
			bound := escape
			if dist < horizon {
				bound = horizon
			}
			scale := bound / dist
			x, y, z = x*scale, y*scale, z*scale
		}

		h.Positions[i*3] = float32(x)
		h.Positions[i*3+1] = float32(y)
		h.Positions[i*3+2] = float32(z)
	}
	h.dirty = true
}

// SetExternalPull installs physics-worker-computed accelerations (xyz per
// particle). Passing nil reverts to the built-in inline pull.
func (h *HawkingRadiation) SetExternalPull(acc []float32) {
	h.externalPull = acc
}

// SetEmissionRate adjusts the respawn intensity at runtime.
func (h *HawkingRadiation) SetEmissionRate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	h.cfg.EmissionRate = rate
}

func (h *HawkingRadiation) setRadius(i int, r float64) {
	x := float64(h.Positions[i*3])
	y := float64(h.Positions[i*3+1])
	z := float64(h.Positions[i*3+2])
	d := math.Sqrt(x*x + y*y + z*z)
	if d < 1e-9 {
		return
	}
	s := r / d
	h.Positions[i*3] = float32(x * s)
	h.Positions[i*3+1] = float32(y * s)
	h.Positions[i*3+2] = float32(z * s)
}

// Radius returns particle i's distance from the singularity.
func (h *HawkingRadiation) Radius(i int) float64 {
	x := float64(h.Positions[i*3])
	y := float64(h.Positions[i*3+1])
	z := float64(h.Positions[i*3+2])
	return math.Sqrt(x*x + y*y + z*z)
}

// Count returns the particle count.
func (h *HawkingRadiation) Count() int {
	return h.cfg.Count
}

// Dirty reports whether the position buffer changed since the last upload.
func (h *HawkingRadiation) Dirty() bool {
	return h.dirty
}

// MarkClean is called by the device after uploading the position buffer.
func (h *HawkingRadiation) MarkClean() {
	h.dirty = false
}
