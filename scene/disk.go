package scene

import (
	"math"
	"math/rand"

	graphics "github.com/richinsley/gosingularity/graphics"
)

// DiskConfig sizes the accretion disk particle set.
type DiskConfig struct {
	Count       int
	InnerRadius float64
	OuterRadius float64
	Tilt        float64
	BaseSpeed   float64
	Seed        int64
}

// DefaultDiskConfig returns the parameters used by the interactive scene.
func DefaultDiskConfig() DiskConfig {
	return DiskConfig{
		Count:       12000,
		InnerRadius: 2.6,
		OuterRadius: 9.0,
		Tilt:        0.28,
		BaseSpeed:   0.9,
		Seed:        1,
	}
}

// AccretionDisk is a shader-driven particle ring. All per-vertex attributes
// are generated once; the vertex stage recomputes positions from
// angle = time*speed + phase, so there is no CPU integration and no drift no
// matter how large time grows.
type AccretionDisk struct {
	cfg DiskConfig

	Radii  []float32
	Phases []float32
	Speeds []float32
	Sizes  []float32
	Colors []float32 // rgb triplets

	time  float64
	dirty bool
}

// NewAccretionDisk generates the particle attributes. Radius sampling is
// area-uniform biased inward (inner + (outer-inner)*sqrt(rand)) so density
// rises toward the horizon instead of spreading evenly.
func NewAccretionDisk(cfg DiskConfig) *AccretionDisk {
	if cfg.Count <= 0 {
		cfg.Count = DefaultDiskConfig().Count
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	d := &AccretionDisk{
		cfg:    cfg,
		Radii:  make([]float32, cfg.Count),
		Phases: make([]float32, cfg.Count),
		Speeds: make([]float32, cfg.Count),
		Sizes:  make([]float32, cfg.Count),
		Colors: make([]float32, cfg.Count*3),
		dirty:  true,
	}

	span := cfg.OuterRadius - cfg.InnerRadius
	for i := 0; i < cfg.Count; i++ {
		radius := cfg.InnerRadius + span*math.Sqrt(rng.Float64())
		d.Radii[i] = float32(radius)
		d.Phases[i] = float32(rng.Float64() * 2 * math.Pi)
		// Keplerian falloff: angular speed scales with sqrt(inner/r).
		d.Speeds[i] = float32(cfg.BaseSpeed * math.Sqrt(cfg.InnerRadius/radius))
		d.Sizes[i] = float32(0.5 + rng.Float64()*1.5)

		c := diskColor((radius - cfg.InnerRadius) / span)
		d.Colors[i*3] = c[0]
		d.Colors[i*3+1] = c[1]
		d.Colors[i*3+2] = c[2]
	}
	return d
}

var (
	diskWhite  = [3]float32{1.0, 0.98, 0.92}
	diskYellow = [3]float32{1.0, 0.85, 0.4}
	diskOrange = [3]float32{1.0, 0.5, 0.12}
	diskRed    = [3]float32{0.75, 0.14, 0.05}
)

// diskColor maps a normalized radius in [0,1] to the three-band gradient:
// hot white to yellow below 0.4, yellow to orange up to 0.7, orange to red
// beyond.
func diskColor(t float64) [3]float32 {
	switch {
	case t < 0:
		return diskWhite
	case t < 0.4:
		return lerp3(diskWhite, diskYellow, float32(t/0.4))
	case t < 0.7:
		return lerp3(diskYellow, diskOrange, float32((t-0.4)/0.3))
	case t <= 1:
		return lerp3(diskOrange, diskRed, float32((t-0.7)/0.3))
	}
	return diskRed
}

func lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Update advances the disk's clock. Positions live in the vertex shader, so
// only the time uniform changes; the attribute buffers are never re-uploaded.
func (d *AccretionDisk) Update(time float64) {
	d.time = time
}

// Uniforms returns the per-frame uniform values for the disk's shader.
func (d *AccretionDisk) Uniforms() graphics.Uniforms {
	return graphics.Uniforms{
		"iTime":    float32(d.time),
		"diskTilt": float32(d.cfg.Tilt),
	}
}

// Count returns the particle count.
func (d *AccretionDisk) Count() int {
	return d.cfg.Count
}

// Dirty reports whether attribute buffers need (re-)uploading. True exactly
// once, before the first draw.
func (d *AccretionDisk) Dirty() bool {
	return d.dirty
}

// MarkClean is called by the device after uploading attribute buffers.
func (d *AccretionDisk) MarkClean() {
	d.dirty = false
}
