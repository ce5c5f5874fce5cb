package scene

import (
	"math"
	"testing"
)

func TestHawkingParticlesStayWithinBounds(t *testing.T) {
	cfg := DefaultHawkingConfig()
	h := NewHawkingRadiation(cfg)

	const eps = 1e-3
	for frame := 1; frame <= 2000; frame++ {
		h.Update(float64(frame) / 60.0)
		for i := 0; i < h.Count(); i++ {
			r := h.Radius(i)
			if r < cfg.HorizonRadius-eps || r > cfg.EscapeRadius+eps {
				t.Fatalf("frame %d particle %d: radius %v outside [%v, %v]",
					frame, i, r, cfg.HorizonRadius, cfg.EscapeRadius)
			}
		}
	}
}

func TestHawkingTypesAlternateAtCreation(t *testing.T) {
	h := NewHawkingRadiation(DefaultHawkingConfig())
	for i := 1; i < h.Count(); i++ {
		if h.Types[i] == h.Types[i-1] {
			t.Fatalf("particles %d and %d share type %v at creation", i-1, i, h.Types[i])
		}
	}
}

func TestHawkingEscapingMovesOutInfallingMovesIn(t *testing.T) {
	cfg := DefaultHawkingConfig()
	h := NewHawkingRadiation(cfg)

	before := make([]float64, h.Count())
	for i := range before {
		before[i] = h.Radius(i)
	}
	h.Update(1.0 / 60.0)

	var escOut, escTotal, inIn, inTotal int
	for i := 0; i < h.Count(); i++ {
		after := h.Radius(i)
		// Skip particles that respawned this frame.
		if math.Abs(after-cfg.HorizonRadius*1.2) < 1e-9 && math.Abs(before[i]-cfg.HorizonRadius*1.2) > 0.1 {
			continue
		}
		switch h.Types[i] {
		case ParticleEscaping:
			escTotal++
			if after > before[i] {
				escOut++
			}
		case ParticleInfalling:
			inTotal++
			if after < before[i] {
				inIn++
			}
		}
	}
	if escTotal == 0 || inTotal == 0 {
		t.Fatal("no particles of one type")
	}
	if float64(escOut)/float64(escTotal) < 0.9 {
		t.Errorf("only %d/%d escaping particles moved outward", escOut, escTotal)
	}
	if float64(inIn)/float64(inTotal) < 0.9 {
		t.Errorf("only %d/%d infalling particles moved inward", inIn, inTotal)
	}
}

func TestHawkingRespawnAtEmissionRadius(t *testing.T) {
	cfg := DefaultHawkingConfig()
	h := NewHawkingRadiation(cfg)

	// Force particle 0 (guaranteed respawn index) past the escape radius.
	h.Positions[0] = float32(cfg.EscapeRadius * 1.5)
	h.Positions[1] = 0
	h.Positions[2] = 0

	h.Update(1.0 / 60.0)

	r := h.Radius(0)
	want := cfg.HorizonRadius * 1.2
	if math.Abs(r-want) > 0.05 {
		t.Fatalf("respawned radius = %v, want emission radius %v", r, want)
	}
}

func TestHawkingRespawnsAreRateLimited(t *testing.T) {
	cfg := DefaultHawkingConfig()
	cfg.EmissionRate = 0.05
	h := NewHawkingRadiation(cfg)

	// Shove every particle out of bounds simultaneously.
	for i := 0; i < h.Count(); i++ {
		h.setRadius(i, cfg.EscapeRadius*2)
	}
	h.Update(1.0 / 60.0)

	emission := cfg.HorizonRadius * 1.2
	respawned := 0
	for i := 0; i < h.Count(); i++ {
		if math.Abs(h.Radius(i)-emission) < 1e-6 {
			respawned++
		}
	}
	// The guaranteed every-50th-index respawns fire, plus a stochastic
	// trickle; a mass simultaneous reset would be a visible pop.
	if respawned < h.Count()/50 {
		t.Fatalf("respawned = %d, want at least the guaranteed %d", respawned, h.Count()/50)
	}
	if respawned > h.Count()/4 {
		t.Fatalf("respawned = %d of %d in one frame; rate limiting failed", respawned, h.Count())
	}
}

func TestHawkingUpdateMarksBuffersDirty(t *testing.T) {
	h := NewHawkingRadiation(DefaultHawkingConfig())
	h.MarkClean()
	h.Update(1.0 / 60.0)
	if !h.Dirty() {
		t.Fatal("CPU-integrated particles must mark their buffers dirty")
	}
}

func TestHawkingExternalPullOverridesInline(t *testing.T) {
	cfg := DefaultHawkingConfig()
	h := NewHawkingRadiation(cfg)

	// A strong outward external pull should push even infalling particles out.
	acc := make([]float32, h.Count()*3)
	for i := 0; i < h.Count(); i++ {
		r := h.Radius(i)
		acc[i*3] = float32(float64(h.Positions[i*3]) / r * 500)
		acc[i*3+1] = float32(float64(h.Positions[i*3+1]) / r * 500)
		acc[i*3+2] = float32(float64(h.Positions[i*3+2]) / r * 500)
	}
	before := h.Radius(1) // index 1 avoids the guaranteed-respawn slot
	typ := h.Types[1]
	h.SetExternalPull(acc)
	h.Update(1.0 / 60.0)

	if typ == ParticleInfalling {
		after := h.Radius(1)
		if after <= before && math.Abs(after-cfg.HorizonRadius*1.2) > 1e-6 {
			t.Fatalf("external outward pull ignored: %v -> %v", before, after)
		}
	}
}
