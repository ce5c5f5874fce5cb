package compositor

import (
	"fmt"

	graphics "github.com/richinsley/gosingularity/graphics"
)

// maxPixelRatio caps the device pixel ratio so high-density displays don't
// quadruple the offscreen memory footprint.
const maxPixelRatio = 2.0

// RenderTargetPool owns the two ping-pong offscreen targets the compositor
// chains passes through. Both targets always share identical dimensions.
type RenderTargetPool struct {
	device graphics.Device
	a, b   *graphics.RenderTarget

	// allocated pixel dimensions, after pixel-ratio scaling and clamping
	width, height int
	pixelRatio    float64
}

// NewRenderTargetPool creates an empty pool bound to a device.
func NewRenderTargetPool(device graphics.Device) *RenderTargetPool {
	return &RenderTargetPool{device: device}
}

// clampDimensions applies the minimum-1 clamp and the pixel-ratio cap,
// returning the physical pixel size to allocate.
func clampDimensions(width, height int, pixelRatio float64) (int, int, float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	if pixelRatio > maxPixelRatio {
		pixelRatio = maxPixelRatio
	}
	pw := int(float64(width) * pixelRatio)
	ph := int(float64(height) * pixelRatio)
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}
	return pw, ph, pixelRatio
}

// Allocate creates both targets at viewport size times pixel ratio. Any
// previously held targets are released first. On failure neither target is
// retained.
func (p *RenderTargetPool) Allocate(width, height int, pixelRatio float64) (*graphics.RenderTarget, *graphics.RenderTarget, error) {
	p.Release()

	pw, ph, ratio := clampDimensions(width, height, pixelRatio)
	opts := graphics.RenderTargetOptions{HalfFloat: true, Depth: true, SampleCount: 1}

	a, err := p.device.CreateRenderTarget(pw, ph, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("allocating target A (%dx%d): %w", pw, ph, err)
	}
	b, err := p.device.CreateRenderTarget(pw, ph, opts)
	if err != nil {
		p.device.ReleaseRenderTarget(a)
		return nil, nil, fmt.Errorf("allocating target B (%dx%d): %w", pw, ph, err)
	}

	p.a, p.b = a, b
	p.width, p.height = pw, ph
	p.pixelRatio = ratio
	return a, b, nil
}

// Resize destroys and reallocates both targets. Calling with dimensions that
// resolve to the current allocation is a no-op.
func (p *RenderTargetPool) Resize(width, height int, pixelRatio float64) error {
	pw, ph, _ := clampDimensions(width, height, pixelRatio)
	if p.a != nil && p.b != nil && pw == p.width && ph == p.height {
		return nil
	}
	_, _, err := p.Allocate(width, height, pixelRatio)
	return err
}

// Targets returns the current pair, nil before allocation.
func (p *RenderTargetPool) Targets() (*graphics.RenderTarget, *graphics.RenderTarget) {
	return p.a, p.b
}

// Size returns the allocated pixel dimensions.
func (p *RenderTargetPool) Size() (int, int) {
	return p.width, p.height
}

// Release frees both targets. Safe to call repeatedly.
func (p *RenderTargetPool) Release() {
	if p.a != nil {
		p.device.ReleaseRenderTarget(p.a)
		p.a = nil
	}
	if p.b != nil {
		p.device.ReleaseRenderTarget(p.b)
		p.b = nil
	}
	p.width, p.height = 0, 0
}
