package compositor

import (
	graphics "github.com/richinsley/gosingularity/graphics"
)

// PassKind is the closed set of pass variants in the chain.
type PassKind int

const (
	// KindScene renders the 3D scene; it never reads an input texture.
	KindScene PassKind = iota
	// KindShaderEffect is a fullscreen pass reading the previous output.
	KindShaderEffect
	// KindLensing is the gravitational lensing pass. It behaves like a
	// shader effect but takes over the render-to-screen role of the last
	// enabled effect pass instead of appending after it.
	KindLensing
)

// Canonical pass/effect names. These double as the configuration surface's
// effect identifiers.
const (
	PassScene             = "scene"
	EffectBloom           = "bloom"
	EffectColorCorrection = "colorCorrection"
	EffectFilmGrain       = "filmGrain"
	EffectSpaceDistortion = "spaceDistortion"
	EffectLensing         = "gravitationalLensing"
)

// inputTextureUniform is the uniform slot every non-scene pass reads its
// input texture through.
const inputTextureUniform = "iChannel0"

// EffectNames lists every toggleable effect in chain order (film grain is
// re-ordered to last during rebuild).
func EffectNames() []string {
	return []string{
		EffectBloom,
		EffectColorCorrection,
		EffectFilmGrain,
		EffectSpaceDistortion,
		EffectLensing,
	}
}

// Pass is one stage of the post-processing chain.
type Pass struct {
	Kind PassKind
	Name string

	// Uniforms are written from the effect parameter store each frame and
	// carry the input texture slot for non-scene kinds.
	Uniforms graphics.Uniforms

	// RenderToScreen marks the single pass whose output is the visible
	// surface; rebuildPassList keeps it on exactly the last active pass.
	RenderToScreen bool

	program   graphics.ProgramID
	canRender bool
}

// NeedsInput reports whether the pass consumes the previous pass's output.
func (p *Pass) NeedsInput() bool {
	return p.Kind != KindScene
}

// CanRender reports whether the pass has a working render capability.
func (p *Pass) CanRender() bool {
	return p.canRender
}
