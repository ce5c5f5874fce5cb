package compositor

import (
	"fmt"
	"log"

	graphics "github.com/richinsley/gosingularity/graphics"
	shader "github.com/richinsley/gosingularity/shader"
)

// State is the compositor lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDegraded
	StateLost
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateLost:
		return "lost"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FrameStats summarizes the last Render call for telemetry.
type FrameStats struct {
	Passes  int
	Skipped int
	Direct  bool
}

// snapshot captures the externally observable configuration across a context
// loss so restoration can reproduce it exactly.
type snapshot struct {
	enabled map[string]bool
	params  map[string]Params
	tier    Tier
}

// Compositor owns the ordered pass list and executes the post-processing
// chain once per frame. Enabling effects, resizing and context loss all
// converge on rebuildPassList+validate so Render never has to repair state
// on the hot path.
type Compositor struct {
	device graphics.Device
	scene  graphics.Scene
	camera graphics.Camera
	pool   *RenderTargetPool

	passes  map[string]*Pass
	active  []*Pass
	enabled map[string]bool
	params  map[string]Params
	tier    Tier

	// viewport size in window units; the pool applies the pixel ratio
	width, height int

	state      State
	snap       *snapshot
	directOnly bool
	time       float64
	lastStats  FrameStats
}

// New creates an uninitialized compositor with medium-tier defaults.
func New() *Compositor {
	c := &Compositor{
		passes:  make(map[string]*Pass),
		enabled: make(map[string]bool),
		params:  make(map[string]Params),
		tier:    TierMedium,
		state:   StateUninitialized,
	}
	for name, p := range baseParams {
		c.params[name] = cloneParams(p)
	}
	// Default chain: bloom and grain on; everything else is toggled from
	// the UI layer.
	c.enabled[EffectBloom] = true
	c.enabled[EffectColorCorrection] = false
	c.enabled[EffectFilmGrain] = true
	c.enabled[EffectSpaceDistortion] = false
	c.enabled[EffectLensing] = false
	return c
}

// Init acquires render targets and builds the fixed pass set. On allocation
// failure or a missing drawable surface the compositor enters Degraded and
// keeps serving frames through the direct scene render fallback; the error
// is returned so the caller can decide whether to disable post-processing.
func (c *Compositor) Init(device graphics.Device, scene graphics.Scene, camera graphics.Camera, width, height int) error {
	c.device = device
	c.scene = scene
	c.camera = camera
	c.width, c.height = width, height
	c.pool = NewRenderTargetPool(device)

	c.buildPasses()
	c.applyTier(c.tier)

	if !device.HasSurface() {
		c.state = StateDegraded
		log.Println("compositor: no drawable surface, falling back to direct render")
		return graphics.ErrNoSurface
	}

	if _, _, err := c.pool.Allocate(width, height, device.PixelRatio()); err != nil {
		c.state = StateDegraded
		log.Printf("compositor: %v, falling back to direct render", err)
		return fmt.Errorf("%w: %v", graphics.ErrAllocation, err)
	}

	c.updateResolutionUniforms()
	c.rebuildPassList()
	c.validate()
	c.state = StateReady
	return nil
}

// buildPasses constructs the scene pass and one pass per effect. A failed
// effect compile is logged and the pass marked unrenderable; validate drops
// it from the active list.
func (c *Compositor) buildPasses() {
	c.passes[PassScene] = &Pass{
		Kind:      KindScene,
		Name:      PassScene,
		Uniforms:  graphics.Uniforms{},
		canRender: true,
	}

	for _, name := range EffectNames() {
		kind := KindShaderEffect
		if name == EffectLensing {
			kind = KindLensing
		}
		p := &Pass{
			Kind:     kind,
			Name:     name,
			Uniforms: graphics.Uniforms{inputTextureUniform: graphics.TextureID(0)},
		}
		src := shader.EffectFragmentSource(name)
		prog, err := c.device.CompileEffect(name, src)
		if err != nil {
			log.Printf("compositor: pass %q failed to build, dropping: %v", name, err)
		} else {
			p.program = prog
			p.canRender = true
		}
		c.passes[name] = p
	}
}

// Enable toggles an effect. Unknown names are ignored so configuration from
// newer or older frontends can't crash the pipeline.
func (c *Compositor) Enable(name string, on bool) {
	if !knownEffect(name) {
		return
	}
	c.enabled[name] = on
	c.rebuildPassList()
	c.validate()
}

// SetParameters merges params into an effect's knob store. Unknown effect
// names are ignored.
func (c *Compositor) SetParameters(name string, params Params) {
	if !knownEffect(name) {
		return
	}
	dst := c.params[name]
	if dst == nil {
		dst = Params{}
		c.params[name] = dst
	}
	for k, v := range params {
		dst[k] = v
	}
}

// SetQualityTier applies the preset table for the given tier on top of the
// current parameters. Unknown tiers are ignored.
func (c *Compositor) SetQualityTier(tier Tier) {
	if _, ok := tierPresets[tier]; !ok {
		return
	}
	c.tier = tier
	c.applyTier(tier)
}

func (c *Compositor) applyTier(tier Tier) {
	for name, preset := range tierPresets[tier] {
		c.SetParameters(name, preset)
	}
}

func knownEffect(name string) bool {
	for _, n := range EffectNames() {
		if n == name {
			return true
		}
	}
	return false
}

// rebuildPassList recomputes the ordered active list: scene first, then
// bloom, color correction and space distortion in that order, lensing
// replacing the last enabled effect rather than appending, film grain
// always last. Exactly the final pass gets RenderToScreen.
func (c *Compositor) rebuildPassList() {
	list := make([]*Pass, 0, len(c.passes))
	if sp := c.passes[PassScene]; sp != nil && sp.canRender {
		list = append(list, sp)
	}

	for _, name := range []string{EffectBloom, EffectColorCorrection, EffectSpaceDistortion} {
		if p := c.passes[name]; p != nil && c.enabled[name] && p.canRender {
			list = append(list, p)
		}
	}

	if p := c.passes[EffectLensing]; p != nil && c.enabled[EffectLensing] && p.canRender {
		if len(list) > 1 {
			list[len(list)-1] = p
		} else {
			list = append(list, p)
		}
	}

	if p := c.passes[EffectFilmGrain]; p != nil && c.enabled[EffectFilmGrain] && p.canRender {
		list = append(list, p)
	}

	for _, p := range list {
		p.RenderToScreen = false
	}
	if len(list) > 0 {
		list[len(list)-1].RenderToScreen = true
	}
	c.active = list
}

// validate re-checks every pass in the active list: passes without render
// capability are dropped, non-scene passes get an input-texture slot
// synthesized if missing, and the RenderToScreen flags are normalized.
// Calling it twice without intervening changes yields the identical list.
func (c *Compositor) validate() {
	out := c.active[:0]
	for _, p := range c.active {
		if p == nil || !p.canRender {
			if p != nil {
				log.Printf("compositor: validate dropped pass %q (no render capability)", p.Name)
			}
			continue
		}
		if p.NeedsInput() {
			if p.Uniforms == nil {
				p.Uniforms = graphics.Uniforms{}
			}
			if _, ok := p.Uniforms[inputTextureUniform]; !ok {
				p.Uniforms[inputTextureUniform] = graphics.TextureID(0)
			}
		}
		out = append(out, p)
	}
	c.active = out

	c.directOnly = len(c.active) == 0

	for _, p := range c.active {
		p.RenderToScreen = false
	}
	if len(c.active) > 0 {
		c.active[len(c.active)-1].RenderToScreen = true
	}
}

// Update advances the compositor's per-frame uniforms. mouse is the pointer
// position in normalized [0,1] surface coordinates.
func (c *Compositor) Update(time float64, mouse [2]float32) {
	c.time = time
	c.SetParameters(EffectSpaceDistortion, Params{"mousePosition": mouse})
}

// Render executes the active chain: the scene pass writes into target A,
// every subsequent pass reads the previous output and ping-pongs between A
// and B, and the final pass writes to the screen. Per-pass failures skip
// the pass and keep the last good input; a failing final pass falls back to
// a direct scene render so the frame is never blank. The previously bound
// render target is restored even if a pass panics.
func (c *Compositor) Render() {
	c.lastStats = FrameStats{}
	switch c.state {
	case StateLost, StateUninitialized:
		return
	case StateDegraded:
		c.renderSceneDirect()
		c.lastStats.Direct = true
		return
	}
	if c.directOnly {
		c.renderSceneDirect()
		c.lastStats.Direct = true
		return
	}

	prev := c.device.GetRenderTarget()
	defer c.device.SetRenderTarget(prev)

	a, b := c.pool.Targets()
	if a == nil || b == nil {
		c.renderSceneDirect()
		c.lastStats.Direct = true
		return
	}

	c.writeFrameUniforms()

	var input *graphics.RenderTarget
	for i, pass := range c.active {
		last := i == len(c.active)-1

		if pass.Kind == KindScene {
			target := a
			if pass.RenderToScreen {
				target = nil
			}
			c.device.SetRenderTarget(target)
			c.device.Clear()
			if err := c.device.DrawScene(c.scene, c.camera); err != nil {
				log.Printf("compositor: scene pass failed: %v", err)
				c.lastStats.Skipped++
				if last {
					c.renderSceneDirect()
					c.lastStats.Direct = true
				}
				continue
			}
			c.lastStats.Passes++
			if target != nil {
				input = target
			}
			continue
		}

		if input == nil {
			// No upstream output to read; nothing sensible to composite.
			log.Printf("compositor: skipping pass %q, no input available", pass.Name)
			c.lastStats.Skipped++
			if last {
				c.renderSceneDirect()
				c.lastStats.Direct = true
			}
			continue
		}

		var out *graphics.RenderTarget
		if !pass.RenderToScreen {
			out = b
			if input == b {
				out = a
			}
		}

		pass.Uniforms[inputTextureUniform] = input.Color
		c.device.SetRenderTarget(out)
		c.device.Clear()
		if err := c.device.DrawFullscreen(pass.program, pass.Uniforms); err != nil {
			log.Printf("compositor: pass %q failed, skipping: %v", pass.Name, err)
			c.lastStats.Skipped++
			if last {
				c.renderSceneDirect()
				c.lastStats.Direct = true
			}
			continue
		}
		c.lastStats.Passes++
		if out != nil {
			input = out
		}
	}
}

// writeFrameUniforms copies the effect parameter store plus the per-frame
// globals into every active pass's uniform map.
func (c *Compositor) writeFrameUniforms() {
	pw, ph := c.pool.Size()
	res := [3]float32{float32(pw), float32(ph), 1}
	for _, p := range c.active {
		if p.Kind == KindScene {
			continue
		}
		for k, v := range c.params[p.Name] {
			p.Uniforms[k] = v
		}
		p.Uniforms["iTime"] = float32(c.time)
		p.Uniforms["iResolution"] = res
	}
}

// renderSceneDirect is the last-resort path: draw the scene straight to the
// visible surface so the frame is never left blank.
func (c *Compositor) renderSceneDirect() {
	if c.device == nil || !c.device.HasSurface() {
		return
	}
	prev := c.device.GetRenderTarget()
	defer c.device.SetRenderTarget(prev)
	c.device.SetRenderTarget(nil)
	c.device.Clear()
	if err := c.device.DrawScene(c.scene, c.camera); err != nil {
		log.Printf("compositor: direct scene render failed: %v", err)
	}
}

// Resize reallocates the render targets and refreshes resolution-dependent
// uniforms. Allocation failure degrades the compositor; success from a
// previously degraded state recovers it.
func (c *Compositor) Resize(width, height int) error {
	c.width, c.height = width, height
	if c.state == StateLost || c.state == StateUninitialized {
		return nil
	}
	if err := c.pool.Resize(width, height, c.device.PixelRatio()); err != nil {
		c.state = StateDegraded
		log.Printf("compositor: resize failed: %v", err)
		return fmt.Errorf("%w: %v", graphics.ErrAllocation, err)
	}
	c.updateResolutionUniforms()
	c.rebuildPassList()
	c.validate()
	if c.device.HasSurface() {
		c.state = StateReady
	}
	return nil
}

func (c *Compositor) updateResolutionUniforms() {
	pw, ph := c.pool.Size()
	res := [3]float32{float32(pw), float32(ph), 1}
	for _, p := range c.passes {
		if p.Kind == KindScene {
			continue
		}
		p.Uniforms["iResolution"] = res
	}
}

// OnContextLost snapshots the externally observable configuration, releases
// GPU resources and stops rendering until the context is restored.
func (c *Compositor) OnContextLost() {
	if c.state != StateReady && c.state != StateDegraded {
		return
	}
	c.snap = &snapshot{
		enabled: cloneFlags(c.enabled),
		params:  cloneParamsMap(c.params),
		tier:    c.tier,
	}
	c.pool.Release()
	c.state = StateLost
	log.Println("compositor: context lost, rendering suspended")
}

// OnContextRestored re-initializes the compositor and reapplies the
// snapshot captured at loss time. If re-init fails the compositor stays
// Degraded but keeps serving direct-render frames.
func (c *Compositor) OnContextRestored() {
	if c.state != StateLost {
		return
	}
	snap := c.snap
	c.snap = nil
	c.state = StateUninitialized

	err := c.Init(c.device, c.scene, c.camera, c.width, c.height)

	if snap != nil {
		c.tier = snap.tier
		c.enabled = cloneFlags(snap.enabled)
		c.params = cloneParamsMap(snap.params)
	}
	c.rebuildPassList()
	c.validate()

	if err != nil {
		log.Printf("compositor: restore failed, staying degraded: %v", err)
		c.state = StateDegraded
		return
	}
	if rerr := c.Resize(c.width, c.height); rerr != nil {
		return
	}
	log.Println("compositor: context restored")
}

// Release frees all GPU resources. The compositor returns to Uninitialized.
func (c *Compositor) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
	c.state = StateUninitialized
}

// State returns the lifecycle state.
func (c *Compositor) State() State {
	return c.state
}

// Enabled reports whether an effect is currently enabled.
func (c *Compositor) Enabled(name string) bool {
	return c.enabled[name]
}

// EnabledEffects returns a copy of the effect toggle map.
func (c *Compositor) EnabledEffects() map[string]bool {
	return cloneFlags(c.enabled)
}

// Parameters returns a copy of an effect's knob store, nil for unknown
// effects.
func (c *Compositor) Parameters(name string) Params {
	p, ok := c.params[name]
	if !ok {
		return nil
	}
	return cloneParams(p)
}

// ActivePassNames returns the ordered names of the current active list.
func (c *Compositor) ActivePassNames() []string {
	names := make([]string, len(c.active))
	for i, p := range c.active {
		names[i] = p.Name
	}
	return names
}

// ActivePasses returns the active list itself for inspection.
func (c *Compositor) ActivePasses() []*Pass {
	return c.active
}

// LastFrameStats returns statistics for the most recent Render call.
func (c *Compositor) LastFrameStats() FrameStats {
	return c.lastStats
}

// QualityTier returns the current tier.
func (c *Compositor) QualityTier() Tier {
	return c.tier
}

func cloneFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneParams(in Params) Params {
	out := make(Params, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneParamsMap(in map[string]Params) map[string]Params {
	out := make(map[string]Params, len(in))
	for k, v := range in {
		out[k] = cloneParams(v)
	}
	return out
}
