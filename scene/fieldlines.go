package scene

import (
	"math"
)

// FieldLines is a set of dipole-style magnetic field line point strips
// arcing out of the poles. Geometry is static; the shader pulses brightness
// from the per-point phase stored in the size channel's fraction.
type FieldLines struct {
	Positions []float32
	Sizes     []float32
	Colors    []float32

	count int
	time  float64
	dirty bool
}

// NewFieldLines builds lineCount arcs with pointsPerLine samples each,
// following r = L * sin^2(theta), the dipole field line equation.
func NewFieldLines(lineCount, pointsPerLine int, scale float64) *FieldLines {
	count := lineCount * pointsPerLine
	f := &FieldLines{
		Positions: make([]float32, count*3),
		Sizes:     make([]float32, count),
		Colors:    make([]float32, count*3),
		count:     count,
		dirty:     true,
	}
	idx := 0
	for l := 0; l < lineCount; l++ {
		azimuth := float64(l) / float64(lineCount) * 2 * math.Pi
		shell := scale * (1.0 + 0.6*float64(l%3))
		for p := 0; p < pointsPerLine; p++ {
			// theta sweeps pole to pole; radius follows the dipole equation.
			theta := (float64(p)/float64(pointsPerLine-1))*math.Pi*0.8 + math.Pi*0.1
			r := shell * math.Sin(theta) * math.Sin(theta)
			if r < 0.3 {
				r = 0.3
			}
			x := r * math.Sin(theta) * math.Cos(azimuth)
			y := r * math.Cos(theta)
			z := r * math.Sin(theta) * math.Sin(azimuth)
			f.Positions[idx*3] = float32(x)
			f.Positions[idx*3+1] = float32(y)
			f.Positions[idx*3+2] = float32(z)
			f.Sizes[idx] = 0.35
			f.Colors[idx*3] = 0.2
			f.Colors[idx*3+1] = 0.55
			f.Colors[idx*3+2] = 0.95
			idx++
		}
	}
	return f
}

func (f *FieldLines) Update(time float64) { f.time = time }
func (f *FieldLines) Count() int          { return f.count }
func (f *FieldLines) Dirty() bool         { return f.dirty }
func (f *FieldLines) MarkClean()          { f.dirty = false }
