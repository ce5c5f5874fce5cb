package graphics

// TextureID identifies a device-owned color texture.
type TextureID uint32

// ProgramID identifies a compiled shader program on the device.
type ProgramID uint32

// Scene and Camera are opaque handles owned by the scene layer. The
// compositor forwards them to the device untouched; only the device
// implementation knows how to draw them.
type Scene interface{}
type Camera interface{}

// Uniforms maps uniform names to values. Supported value types are
// float32, float64, int, [2]float32, [3]float32, [4]float32 and TextureID.
type Uniforms map[string]interface{}

// RenderTargetOptions controls render target allocation.
type RenderTargetOptions struct {
	// HalfFloat requests a 16-bit float color attachment for HDR.
	HalfFloat bool
	// Depth requests a depth renderbuffer attachment.
	Depth bool
	// SampleCount > 1 requests multisampling. Implementations may clamp.
	SampleCount int
}

// RenderTarget is an offscreen color(+depth) buffer.
type RenderTarget struct {
	Width       int
	Height      int
	Color       TextureID
	HasDepth    bool
	SampleCount int

	// Handle is the device-private identifier (e.g. an FBO name).
	Handle uint32
}

// Device is the graphics capability the compositor renders through. A nil
// render target means the visible surface.
type Device interface {
	// HasSurface reports whether a drawable surface exists. Without one the
	// compositor degrades to a no-op for screen passes.
	HasSurface() bool

	// PixelRatio returns the device pixel ratio of the surface.
	PixelRatio() float64

	// CreateRenderTarget allocates an offscreen target. Returns
	// ErrAllocation (possibly wrapped) on failure.
	CreateRenderTarget(width, height int, opts RenderTargetOptions) (*RenderTarget, error)

	// ReleaseRenderTarget frees the target's GPU resources. Releasing nil or
	// an already-released target is a no-op.
	ReleaseRenderTarget(t *RenderTarget)

	// SetRenderTarget binds the draw target; nil binds the visible surface.
	SetRenderTarget(t *RenderTarget)

	// GetRenderTarget returns the currently bound target, nil for the screen.
	GetRenderTarget() *RenderTarget

	// Clear clears the bound target's color and depth.
	Clear()

	// CompileEffect builds a fullscreen-pass program from fragment source.
	CompileEffect(name, fragmentSource string) (ProgramID, error)

	// DrawFullscreen runs a fullscreen pass with the given uniforms into the
	// bound target. Failures are reported synchronously.
	DrawFullscreen(program ProgramID, uniforms Uniforms) error

	// DrawScene renders the 3D scene into the bound target.
	DrawScene(scene Scene, camera Camera) error

	// SubscribeContextEvents registers callbacks invoked on device context
	// loss and restoration. Both callbacks run on the render goroutine.
	SubscribeContextEvents(onLost, onRestored func())
}
