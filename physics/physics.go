// Package physics approximates the gravitational influence of the
// singularity on the radiation particle set and the light deflection used
// by the lensing pass. It is a side-channel to the render loop: the loop
// posts particle positions, keeps rendering with whatever result it already
// has, and applies fresh results on a later frame.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// softening keeps the inverse-square law finite near the origin.
const softening = 0.05

// Accelerations computes the pull toward the origin for each xyz triplet in
// positions. The returned slice parallels the input layout.
func Accelerations(positions []float32, mass float64) []float32 {
	out := make([]float32, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		p := r3.Vec{
			X: float64(positions[i]),
			Y: float64(positions[i+1]),
			Z: float64(positions[i+2]),
		}
		d2 := r3.Norm2(p) + softening*softening
		if d2 <= 0 {
			continue
		}
		// a = -G*M/r^2, directed at the origin.
		a := r3.Scale(-mass/(d2*math.Sqrt(d2)), p)
		out[i] = float32(a.X)
		out[i+1] = float32(a.Y)
		out[i+2] = float32(a.Z)
	}
	return out
}

// DeflectionAngle returns the weak-field light bending angle for a ray
// passing at impact parameter b around a body of Schwarzschild radius rs:
// alpha = 2*rs/b. Rays inside the photon sphere are captured; the returned
// angle saturates there instead of diverging.
func DeflectionAngle(b, rs float64) float64 {
	photonSphere := 1.5 * rs
	if b <= photonSphere {
		b = photonSphere
	}
	return 2 * rs / b
}

// LensBend maps the deflection at impact parameter b to the lensing pass's
// bend uniform, clamped to [0, 1] so the screen-space warp stays stable.
func LensBend(b, rs float64) float32 {
	bend := DeflectionAngle(b, rs)
	if bend > 1 {
		bend = 1
	}
	return float32(bend)
}
