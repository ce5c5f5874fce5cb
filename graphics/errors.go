package graphics

import "errors"

var (
	// ErrAllocation indicates a render target could not be created.
	ErrAllocation = errors.New("graphics: render target allocation failed")

	// ErrNoSurface indicates the device has no drawable surface.
	ErrNoSurface = errors.New("graphics: no drawable surface")

	// ErrContextLost indicates the device context was lost; all GPU handles
	// are invalid until the context is restored.
	ErrContextLost = errors.New("graphics: context lost")

	// ErrPassCompile indicates an effect program failed to compile or link.
	ErrPassCompile = errors.New("graphics: effect program compilation failed")
)
