package compositor

// Tier is a coarse device performance classification used to select effect
// parameter presets. Selection happens externally (config or runtime probe).
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Params holds per-effect named knobs. Values use the same types as
// graphics.Uniforms.
type Params map[string]interface{}

// tierPresets is the preset table applied by SetQualityTier. The numbers are
// load-bearing for visual parity across machines; don't tune them casually.
var tierPresets = map[Tier]map[string]Params{
	TierLow: {
		EffectBloom: {
			"strength":  float32(0.6),
			"radius":    float32(0.5),
			"threshold": float32(0.3),
		},
		EffectFilmGrain: {
			"intensity": float32(0.02),
		},
		EffectColorCorrection: {
			"noise":               float32(0.01),
			"chromaticAberration": float32(0.001),
		},
	},
	TierMedium: {
		EffectBloom: {
			"strength":  float32(0.8),
			"radius":    float32(0.7),
			"threshold": float32(0.2),
		},
		EffectFilmGrain: {
			"intensity": float32(0.03),
		},
		EffectColorCorrection: {
			"noise":               float32(0.02),
			"chromaticAberration": float32(0.002),
		},
	},
	TierHigh: {
		EffectBloom: {
			"strength":  float32(1.0),
			"radius":    float32(0.75),
			"threshold": float32(0.15),
		},
		EffectFilmGrain: {
			"intensity": float32(0.05),
		},
		EffectColorCorrection: {
			"noise":               float32(0.03),
			"chromaticAberration": float32(0.003),
		},
	},
}

// baseParams are effect knobs independent of the quality tier.
var baseParams = map[string]Params{
	EffectColorCorrection: {
		"brightness": float32(0.0),
		"contrast":   float32(1.05),
		"saturation": float32(1.1),
	},
	EffectSpaceDistortion: {
		"distortionStrength": float32(0.5),
		"mousePosition":      [2]float32{0.5, 0.5},
	},
	EffectLensing: {
		"lensCenter":   [2]float32{0.5, 0.5},
		"lensRadius":   float32(0.18),
		"bendStrength": float32(0.35),
	},
}

// ValidTier reports whether s names a known quality tier.
func ValidTier(s string) bool {
	switch Tier(s) {
	case TierLow, TierMedium, TierHigh:
		return true
	}
	return false
}
