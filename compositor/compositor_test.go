package compositor

import (
	"reflect"
	"testing"

	graphics "github.com/richinsley/gosingularity/graphics"
)

type stubScene struct{}
type stubCamera struct{}

func newReadyCompositor(t *testing.T, d *fakeDevice) *Compositor {
	t.Helper()
	c := New()
	if err := c.Init(d, stubScene{}, stubCamera{}, 800, 600); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return c
}

func TestInitReachesReady(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	if c.State() != StateReady {
		t.Fatalf("state = %v, want ready", c.State())
	}
	a, b := c.pool.Targets()
	if a == nil || b == nil {
		t.Fatal("render targets not allocated")
	}
	if a.Width != 800 || a.Height != 600 || b.Width != 800 || b.Height != 600 {
		t.Fatalf("target sizes = %dx%d / %dx%d, want 800x600 both",
			a.Width, a.Height, b.Width, b.Height)
	}
}

func TestLowTierPresetScenario(t *testing.T) {
	d := newFakeDevice()
	c := New()
	c.SetQualityTier(TierLow)
	if err := c.Init(d, stubScene{}, stubCamera{}, 800, 600); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	got := c.Parameters(EffectBloom)
	want := Params{
		"strength":  float32(0.6),
		"radius":    float32(0.5),
		"threshold": float32(0.3),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("bloom[%s] = %v, want %v", k, got[k], v)
		}
	}
	if got := c.Parameters(EffectFilmGrain)["intensity"]; got != float32(0.02) {
		t.Errorf("filmGrain intensity = %v, want 0.02", got)
	}
	cc := c.Parameters(EffectColorCorrection)
	if cc["noise"] != float32(0.01) || cc["chromaticAberration"] != float32(0.001) {
		t.Errorf("colorCorrection noise/chroma = %v/%v, want 0.01/0.001",
			cc["noise"], cc["chromaticAberration"])
	}
}

func TestTierPresetTable(t *testing.T) {
	tests := []struct {
		tier      Tier
		strength  float32
		radius    float32
		threshold float32
		grain     float32
	}{
		{TierLow, 0.6, 0.5, 0.3, 0.02},
		{TierMedium, 0.8, 0.7, 0.2, 0.03},
		{TierHigh, 1.0, 0.75, 0.15, 0.05},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			c := New()
			c.SetQualityTier(tt.tier)
			bloom := c.Parameters(EffectBloom)
			if bloom["strength"] != tt.strength || bloom["radius"] != tt.radius || bloom["threshold"] != tt.threshold {
				t.Errorf("bloom = %v, want %v/%v/%v", bloom, tt.strength, tt.radius, tt.threshold)
			}
			if g := c.Parameters(EffectFilmGrain)["intensity"]; g != tt.grain {
				t.Errorf("grain = %v, want %v", g, tt.grain)
			}
		})
	}
}

func TestEnableRebuildScenario(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)

	c.Enable(EffectBloom, false)
	c.Enable(EffectFilmGrain, true)

	got := c.ActivePassNames()
	want := []string{PassScene, EffectFilmGrain}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pass list = %v, want %v", got, want)
	}
	passes := c.ActivePasses()
	if !passes[len(passes)-1].RenderToScreen {
		t.Error("final pass does not render to screen")
	}
}

func TestPassListTermination(t *testing.T) {
	combos := []map[string]bool{
		{},
		{EffectBloom: true},
		{EffectBloom: true, EffectColorCorrection: true},
		{EffectBloom: true, EffectColorCorrection: true, EffectSpaceDistortion: true, EffectFilmGrain: true},
		{EffectLensing: true},
		{EffectBloom: true, EffectLensing: true, EffectFilmGrain: true},
	}
	for i, combo := range combos {
		d := newFakeDevice()
		c := newReadyCompositor(t, d)
		for _, name := range EffectNames() {
			c.Enable(name, combo[name])
		}

		passes := c.ActivePasses()
		if len(passes) == 0 {
			t.Fatalf("combo %d: empty pass list", i)
		}
		screenCount := 0
		for _, p := range passes {
			if p.RenderToScreen {
				screenCount++
			}
		}
		if screenCount != 1 {
			t.Errorf("combo %d: %d passes render to screen, want 1", i, screenCount)
		}
		if !passes[len(passes)-1].RenderToScreen {
			t.Errorf("combo %d: render-to-screen pass is not last", i)
		}
	}
}

func TestLensingReplacesLastEffect(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	for _, name := range EffectNames() {
		c.Enable(name, true)
	}

	got := c.ActivePassNames()
	want := []string{PassScene, EffectBloom, EffectColorCorrection, EffectLensing, EffectFilmGrain}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pass list = %v, want %v", got, want)
	}
}

func TestLensingAloneAppendsAfterScene(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	for _, name := range EffectNames() {
		c.Enable(name, name == EffectLensing)
	}

	got := c.ActivePassNames()
	want := []string{PassScene, EffectLensing}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pass list = %v, want %v", got, want)
	}
}

func TestValidateIdempotence(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	c.Enable(EffectSpaceDistortion, true)

	first := append([]string(nil), c.ActivePassNames()...)
	c.validate()
	second := c.ActivePassNames()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("validate not idempotent: %v then %v", first, second)
	}
	c.validate()
	if !reflect.DeepEqual(second, c.ActivePassNames()) {
		t.Fatal("third validate changed the list")
	}
}

func TestValidateSynthesizesInputSlot(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)

	bloom := c.passes[EffectBloom]
	delete(bloom.Uniforms, "iChannel0")
	c.validate()
	if _, ok := bloom.Uniforms["iChannel0"]; !ok {
		t.Fatal("validate did not synthesize the input texture slot")
	}
}

func TestUnknownEffectIsNoop(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)

	before := c.ActivePassNames()
	c.Enable("motionBlur", true)
	c.SetParameters("motionBlur", Params{"shutter": float32(0.5)})
	if !reflect.DeepEqual(before, c.ActivePassNames()) {
		t.Fatal("unknown effect changed the pass list")
	}
	if c.Parameters("motionBlur") != nil {
		t.Fatal("unknown effect grew a parameter store")
	}
}

func TestRenderPingPong(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	c.Enable(EffectColorCorrection, true)
	// Chain: scene, bloom, colorCorrection, filmGrain.

	c.Render()

	if len(d.draws) != 4 {
		t.Fatalf("draw count = %d, want 4 (%+v)", len(d.draws), d.draws)
	}
	a, b := c.pool.Targets()

	scene := d.draws[0]
	if scene.pass != "scene" || scene.target != a {
		t.Errorf("scene pass drew to %+v, want target A", scene.target)
	}
	bloom := d.draws[1]
	if bloom.pass != EffectBloom || bloom.target != b || bloom.input != a.Color {
		t.Errorf("bloom: target/input = %+v/%v, want B/%v", bloom.target, bloom.input, a.Color)
	}
	cc := d.draws[2]
	if cc.pass != EffectColorCorrection || cc.target != a || cc.input != b.Color {
		t.Errorf("colorCorrection: target/input = %+v/%v, want A/%v", cc.target, cc.input, b.Color)
	}
	grain := d.draws[3]
	if grain.pass != EffectFilmGrain || grain.target != nil || grain.input != a.Color {
		t.Errorf("filmGrain: target/input = %+v/%v, want screen/%v", grain.target, grain.input, a.Color)
	}

	stats := c.LastFrameStats()
	if stats.Passes != 4 || stats.Skipped != 0 || stats.Direct {
		t.Errorf("stats = %+v, want 4 passes, no skips, not direct", stats)
	}
}

func TestRenderRestoresBoundTarget(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)

	ext, err := d.CreateRenderTarget(64, 64, graphics.RenderTargetOptions{})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	d.SetRenderTarget(ext)
	c.Render()
	if d.GetRenderTarget() != ext {
		t.Fatal("render did not restore the previously bound target")
	}
}

func TestRenderSkipsFailingMiddlePass(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	c.Enable(EffectColorCorrection, true)
	d.failDraw(EffectBloom)

	c.Render()

	// Bloom is skipped; colorCorrection must read the scene output (A).
	a, _ := c.pool.Targets()
	var ccInput graphics.TextureID
	for _, r := range d.draws {
		if r.pass == EffectColorCorrection {
			ccInput = r.input
		}
	}
	if ccInput != a.Color {
		t.Errorf("colorCorrection input = %v, want last good input %v", ccInput, a.Color)
	}
	if c.LastFrameStats().Skipped != 1 {
		t.Errorf("skipped = %d, want 1", c.LastFrameStats().Skipped)
	}
	if d.screenDraws() != 1 {
		t.Errorf("screen draws = %d, want 1", d.screenDraws())
	}
}

func TestRenderFailingFinalPassFallsBackToScene(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	d.failDraw(EffectFilmGrain)

	c.Render()

	if d.screenDraws() != 1 {
		t.Fatalf("screen draws = %d, want exactly 1 fallback draw", d.screenDraws())
	}
	last := d.draws[len(d.draws)-1]
	if last.pass != "scene" || last.target != nil {
		t.Fatalf("final draw = %+v, want direct scene render to screen", last)
	}
	if !c.LastFrameStats().Direct {
		t.Error("stats do not record the direct fallback")
	}
}

func TestFallbackWhenNoPassRenderable(t *testing.T) {
	d := newFakeDevice()
	for _, name := range EffectNames() {
		d.compileFail[name] = true
	}
	c := newReadyCompositor(t, d)

	got := c.ActivePassNames()
	if !reflect.DeepEqual(got, []string{PassScene}) {
		t.Fatalf("pass list = %v, want scene only", got)
	}
	c.Render()
	if d.screenDraws() != 1 {
		t.Fatalf("screen draws = %d, want 1 (direct scene render)", d.screenDraws())
	}
}

func TestInitAllocationFailureDegrades(t *testing.T) {
	d := newFakeDevice()
	d.failAlloc = true
	c := New()
	err := c.Init(d, stubScene{}, stubCamera{}, 800, 600)
	if err == nil {
		t.Fatal("Init succeeded despite allocation failure")
	}
	if c.State() != StateDegraded {
		t.Fatalf("state = %v, want degraded", c.State())
	}

	// Degraded still puts something on screen.
	c.Render()
	if d.screenDraws() != 1 {
		t.Fatalf("screen draws = %d, want 1", d.screenDraws())
	}
}

func TestInitWithoutSurfaceDegrades(t *testing.T) {
	d := newFakeDevice()
	d.surface = false
	c := New()
	if err := c.Init(d, stubScene{}, stubCamera{}, 800, 600); err == nil {
		t.Fatal("Init succeeded without a surface")
	}
	if c.State() != StateDegraded {
		t.Fatalf("state = %v, want degraded", c.State())
	}
	// No surface: render must not crash, and must not draw.
	c.Render()
	if len(d.draws) != 0 {
		t.Fatalf("draws = %d, want 0 with no surface", len(d.draws))
	}
}

func TestResizeTargetParity(t *testing.T) {
	d := newFakeDevice()
	d.pixelRatio = 2.0
	c := newReadyCompositor(t, d)

	if err := c.Resize(1024, 768); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	a, b := c.pool.Targets()
	if a.Width != 2048 || a.Height != 1536 {
		t.Errorf("target A = %dx%d, want 2048x1536", a.Width, a.Height)
	}
	if a.Width != b.Width || a.Height != b.Height {
		t.Errorf("target parity violated: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
}

func TestResizeZeroClampsToOne(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)

	if err := c.Resize(0, 0); err != nil {
		t.Fatalf("Resize(0,0) errored: %v", err)
	}
	a, b := c.pool.Targets()
	if a.Width != 1 || a.Height != 1 || b.Width != 1 || b.Height != 1 {
		t.Fatalf("targets = %dx%d / %dx%d, want 1x1 both", a.Width, a.Height, b.Width, b.Height)
	}
	if c.State() != StateReady {
		t.Fatalf("state = %v, want ready", c.State())
	}
}

func TestResizeCapsPixelRatio(t *testing.T) {
	d := newFakeDevice()
	d.pixelRatio = 3.5
	c := newReadyCompositor(t, d)
	if err := c.Resize(100, 100); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	a, _ := c.pool.Targets()
	if a.Width != 200 || a.Height != 200 {
		t.Fatalf("target = %dx%d, want pixel ratio capped at 2 (200x200)", a.Width, a.Height)
	}
}

func TestResizeIdempotent(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	before := d.allocCount
	if err := c.Resize(800, 600); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if d.allocCount != before {
		t.Fatalf("idempotent resize reallocated targets (%d -> %d)", before, d.allocCount)
	}
}

func TestContextLossRoundTrip(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	c.SetQualityTier(TierHigh)
	c.Enable(EffectSpaceDistortion, true)
	c.Enable(EffectBloom, false)
	c.SetParameters(EffectSpaceDistortion, Params{"distortionStrength": float32(0.9)})

	wantFlags := c.EnabledEffects()
	wantParams := make(map[string]Params)
	for _, name := range EffectNames() {
		wantParams[name] = c.Parameters(name)
	}

	c.OnContextLost()
	if c.State() != StateLost {
		t.Fatalf("state = %v, want lost", c.State())
	}

	// Rendering while lost is a no-op.
	drawsBefore := len(d.draws)
	c.Render()
	if len(d.draws) != drawsBefore {
		t.Fatal("render while lost issued draw calls")
	}

	c.OnContextRestored()
	if c.State() != StateReady {
		t.Fatalf("state after restore = %v, want ready", c.State())
	}
	if !reflect.DeepEqual(c.EnabledEffects(), wantFlags) {
		t.Errorf("enabled flags = %v, want %v", c.EnabledEffects(), wantFlags)
	}
	for name, want := range wantParams {
		if got := c.Parameters(name); !reflect.DeepEqual(got, want) {
			t.Errorf("params[%s] = %v, want %v", name, got, want)
		}
	}
	if c.QualityTier() != TierHigh {
		t.Errorf("tier = %v, want high", c.QualityTier())
	}
}

func TestContextLossReleasesTargets(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	a, b := c.pool.Targets()

	c.OnContextLost()
	if !d.released[a.Handle] || !d.released[b.Handle] {
		t.Fatal("context loss did not release both render targets")
	}
}

func TestRestoreFailureStaysDegraded(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)

	c.OnContextLost()
	d.failAlloc = true
	c.OnContextRestored()
	if c.State() != StateDegraded {
		t.Fatalf("state = %v, want degraded after failed restore", c.State())
	}

	// A later successful resize recovers.
	d.failAlloc = false
	if err := c.Resize(800, 600); err != nil {
		t.Fatalf("Resize after recovery: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("state = %v, want ready after successful resize", c.State())
	}
}

func TestSceneFailureWithFinalEffectStillDrawsScreen(t *testing.T) {
	d := newFakeDevice()
	c := newReadyCompositor(t, d)
	d.sceneErr = graphics.ErrContextLost

	c.Render()

	// Every effect is skipped for lack of input, and the final-pass fallback
	// still attempts a direct draw (which also fails here) without crashing.
	if c.LastFrameStats().Passes != 0 {
		t.Errorf("passes = %d, want 0", c.LastFrameStats().Passes)
	}
	if !c.LastFrameStats().Direct {
		t.Error("final-pass skip did not trigger the direct fallback")
	}
}
