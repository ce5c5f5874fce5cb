// Package app wires the window, GL device, scene, compositor, physics
// worker and telemetry into the interactive and record-mode run loops.
package app

import (
	"fmt"
	"log"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/gosingularity/compositor"
	"github.com/richinsley/gosingularity/encoder"
	"github.com/richinsley/gosingularity/gldevice"
	"github.com/richinsley/gosingularity/glfwcontext"
	"github.com/richinsley/gosingularity/options"
	"github.com/richinsley/gosingularity/physics"
	"github.com/richinsley/gosingularity/scene"
	"github.com/richinsley/gosingularity/telemetry"
)

// App owns every subsystem for one visualization session.
type App struct {
	opts   *options.Options
	ctx    *glfwcontext.Context
	device *gldevice.Device
	comp   *compositor.Compositor
	scn    *scene.Scene
	cam    *scene.Camera
	phys   *physics.Controller

	collector *telemetry.Collector
	output    *telemetry.OutputManager

	frame int
}

// New builds the full pipeline from the loaded options. Must run on the
// main thread with GLFW initialized.
func New(opts *options.Options) (*App, error) {
	visible := !opts.Record.Mode
	ctx, err := glfwcontext.New(opts.Screen.Width, opts.Screen.Height, opts.Screen.Title, visible)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}
	ctx.MakeCurrent()

	device, err := gldevice.New(ctx)
	if err != nil {
		ctx.Shutdown()
		return nil, fmt.Errorf("initializing device: %w", err)
	}

	sceneCfg := scene.DefaultConfig()
	sceneCfg.StarCount = opts.Scene.StarCount
	sceneCfg.NebulaCount = opts.Scene.NebulaCount
	sceneCfg.Disk.Count = opts.Scene.DiskParticles
	sceneCfg.Hawking.Count = opts.Scene.HawkingParticles
	scn := scene.New(sceneCfg)

	fbWidth, fbHeight := ctx.GetFramebufferSize()
	cam := scene.NewCamera(float64(fbWidth) / float64(fbHeight))

	comp := compositor.New()
	if err := comp.Init(device, scn, cam, opts.Screen.Width, opts.Screen.Height); err != nil {
		log.Printf("compositor initialized degraded: %v", err)
	}
	comp.SetQualityTier(compositor.Tier(opts.Effects.Quality))
	for name, on := range opts.EnabledEffects() {
		comp.Enable(name, on)
	}
	// Tie the lens warp to the scene geometry: deflection of a ray grazing
	// the outer disk edge around this horizon.
	comp.SetParameters(compositor.EffectLensing, compositor.Params{
		"bendStrength": physics.LensBend(sceneCfg.Disk.OuterRadius, sceneCfg.Hawking.HorizonRadius),
	})

	phys := physics.NewController(opts.Physics.Mass)
	if opts.Physics.Worker {
		phys.Start()
	}

	output, err := telemetry.NewOutputManager(opts.Telemetry.Dir)
	if err != nil {
		phys.Stop()
		device.Shutdown()
		ctx.Shutdown()
		return nil, fmt.Errorf("opening telemetry output: %w", err)
	}

	a := &App{
		opts:      opts,
		ctx:       ctx,
		device:    device,
		comp:      comp,
		scn:       scn,
		cam:       cam,
		phys:      phys,
		collector: telemetry.NewCollector(opts.Telemetry.Window),
		output:    output,
	}

	device.SubscribeContextEvents(comp.OnContextLost, func() {
		comp.OnContextRestored()
	})
	ctx.OnResize(func(width, height int) {
		a.cam.Aspect = float64(width) / float64(max(height, 1))
		if err := a.comp.Resize(width, height); err != nil {
			log.Printf("resize: %v", err)
		}
	})
	a.bindKeys()

	return a, nil
}

func (a *App) bindKeys() {
	toggles := map[glfw.Key]string{
		glfw.KeyB: compositor.EffectBloom,
		glfw.KeyC: compositor.EffectColorCorrection,
		glfw.KeyG: compositor.EffectFilmGrain,
		glfw.KeyD: compositor.EffectSpaceDistortion,
		glfw.KeyL: compositor.EffectLensing,
	}
	for key, effect := range toggles {
		a.ctx.RegisterKeyCallback(key, func() {
			on := !a.comp.Enabled(effect)
			a.comp.Enable(effect, on)
			log.Printf("%s: %v", effect, on)
		})
	}

	tiers := map[glfw.Key]compositor.Tier{
		glfw.Key1: compositor.TierLow,
		glfw.Key2: compositor.TierMedium,
		glfw.Key3: compositor.TierHigh,
	}
	for key, tier := range tiers {
		a.ctx.RegisterKeyCallback(key, func() {
			a.comp.SetQualityTier(tier)
			log.Printf("quality: %s", tier)
		})
	}

	// Debug bindings to exercise the loss/restore path without a real
	// driver reset.
	a.ctx.RegisterKeyCallback(glfw.KeyX, func() {
		a.device.SimulateContextLoss()
		log.Printf("context lost (simulated), state=%s", a.comp.State())
	})
	a.ctx.RegisterKeyCallback(glfw.KeyR, func() {
		a.device.SimulateContextRestore()
		log.Printf("context restored, state=%s", a.comp.State())
	})

	a.ctx.RegisterKeyCallback(glfw.KeyLeft, func() { a.cam.Yaw -= 0.15 })
	a.ctx.RegisterKeyCallback(glfw.KeyRight, func() { a.cam.Yaw += 0.15 })
	a.ctx.RegisterKeyCallback(glfw.KeyUp, func() { a.cam.Pitch = min(a.cam.Pitch+0.08, 1.4) })
	a.ctx.RegisterKeyCallback(glfw.KeyDown, func() { a.cam.Pitch = max(a.cam.Pitch-0.08, -1.4) })
	a.ctx.RegisterKeyCallback(glfw.KeyMinus, func() { a.cam.Distance = min(a.cam.Distance+1.5, 80) })
	a.ctx.RegisterKeyCallback(glfw.KeyEqual, func() { a.cam.Distance = max(a.cam.Distance-1.5, 4) })
}

// step advances every subsystem by one frame at absolute time t.
func (a *App) step(t float64) {
	if acc := a.phys.Latest(); acc != nil {
		a.scn.Hawking.SetExternalPull(acc)
	}
	a.scn.Update(t)
	a.phys.Submit(a.scn.Hawking.Positions)

	a.comp.Update(t, a.normalizedMouse())
	a.comp.Render()
}

func (a *App) normalizedMouse() [2]float32 {
	w, h := a.ctx.GetFramebufferSize()
	if w <= 0 || h <= 0 {
		return [2]float32{0.5, 0.5}
	}
	m := a.ctx.GetMouseInput()
	return [2]float32{m[0] / float32(w), m[1] / float32(h)}
}

func (a *App) recordFrame(frameStart time.Time) {
	stats := a.comp.LastFrameStats()
	a.collector.Record(telemetry.FrameRecord{
		Frame:   a.frame,
		TimeMS:  float64(time.Since(frameStart).Microseconds()) / 1000.0,
		Passes:  stats.Passes,
		Skipped: stats.Skipped,
		Direct:  stats.Direct,
	})
	a.collector.MaybeLog()
	a.frame++
}

// Run drives the interactive loop until the window closes.
func (a *App) Run() error {
	start := a.ctx.Time()
	for !a.ctx.ShouldClose() {
		frameStart := time.Now()
		a.step(a.ctx.Time() - start)
		a.ctx.EndFrame()
		a.recordFrame(frameStart)
	}
	return a.flushTelemetry()
}

// RunRecord renders at a fixed timestep and pipes every frame to FFmpeg.
func (a *App) RunRecord() error {
	rec := a.opts.Record
	// Encode at the framebuffer size, which differs from the requested
	// window size on scaled displays.
	fbWidth, fbHeight := a.ctx.GetFramebufferSize()
	enc, err := encoder.New(fbWidth, fbHeight, rec.FPS, rec.Output, rec.Codec)
	if err != nil {
		return fmt.Errorf("starting encoder: %w", err)
	}

	totalFrames := int(rec.Duration * float64(rec.FPS))
	dt := 1.0 / float64(rec.FPS)
	for i := 0; i < totalFrames && !a.ctx.ShouldClose(); i++ {
		frameStart := time.Now()
		a.step(float64(i) * dt)
		pixels := a.device.ReadPixels(fbWidth, fbHeight, nil)
		if err := enc.SendFrame(&encoder.Frame{Pixels: pixels, PTS: int64(i)}); err != nil {
			log.Printf("encoder failed at frame %d: %v", i, err)
			break
		}
		a.ctx.EndFrame()
		a.recordFrame(frameStart)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing encode: %w", err)
	}
	log.Printf("wrote %d frames to %s", totalFrames, rec.Output)
	return a.flushTelemetry()
}

func (a *App) flushTelemetry() error {
	if err := a.output.WriteFrames(a.collector.Records()); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return a.output.Close()
}

// Shutdown releases every subsystem in reverse construction order.
func (a *App) Shutdown() {
	a.phys.Stop()
	a.comp.Release()
	a.device.Shutdown()
	a.ctx.Shutdown()
}
