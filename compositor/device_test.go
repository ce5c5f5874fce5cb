package compositor

import (
	"errors"
	"fmt"

	graphics "github.com/richinsley/gosingularity/graphics"
)

// fakeDevice implements graphics.Device in memory and records every draw so
// the pipeline tests can assert on pass ordering, targets and inputs.
type fakeDevice struct {
	surface    bool
	pixelRatio float64

	bound    *graphics.RenderTarget
	nextID   uint32
	released map[uint32]bool
	alive    map[uint32]bool

	failAlloc      bool
	failAllocAfter int // fail allocations once this many have succeeded; -1 disables
	allocCount     int

	compileFail map[string]bool
	drawFail    map[graphics.ProgramID]error
	sceneErr    error

	programs map[string]graphics.ProgramID
	names    map[graphics.ProgramID]string

	draws []drawRecord
}

type drawRecord struct {
	pass   string                  // program name or "scene"
	target *graphics.RenderTarget // nil means the screen
	input  graphics.TextureID      // 0 for the scene pass
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		surface:        true,
		pixelRatio:     1.0,
		failAllocAfter: -1,
		released:       make(map[uint32]bool),
		alive:          make(map[uint32]bool),
		compileFail:    make(map[string]bool),
		drawFail:       make(map[graphics.ProgramID]error),
		programs:       make(map[string]graphics.ProgramID),
		names:          make(map[graphics.ProgramID]string),
	}
}

func (d *fakeDevice) HasSurface() bool    { return d.surface }
func (d *fakeDevice) PixelRatio() float64 { return d.pixelRatio }

func (d *fakeDevice) CreateRenderTarget(width, height int, opts graphics.RenderTargetOptions) (*graphics.RenderTarget, error) {
	if d.failAlloc || (d.failAllocAfter >= 0 && d.allocCount >= d.failAllocAfter) {
		return nil, graphics.ErrAllocation
	}
	d.allocCount++
	d.nextID++
	t := &graphics.RenderTarget{
		Width:       width,
		Height:      height,
		Color:       graphics.TextureID(d.nextID),
		HasDepth:    opts.Depth,
		SampleCount: opts.SampleCount,
		Handle:      d.nextID,
	}
	d.alive[d.nextID] = true
	return t, nil
}

func (d *fakeDevice) ReleaseRenderTarget(t *graphics.RenderTarget) {
	if t == nil {
		return
	}
	d.released[t.Handle] = true
	delete(d.alive, t.Handle)
}

func (d *fakeDevice) SetRenderTarget(t *graphics.RenderTarget) { d.bound = t }
func (d *fakeDevice) GetRenderTarget() *graphics.RenderTarget  { return d.bound }
func (d *fakeDevice) Clear()                                   {}

func (d *fakeDevice) CompileEffect(name, fragmentSource string) (graphics.ProgramID, error) {
	if d.compileFail[name] {
		return 0, fmt.Errorf("%w: %s", graphics.ErrPassCompile, name)
	}
	if fragmentSource == "" {
		return 0, fmt.Errorf("%w: %s has empty source", graphics.ErrPassCompile, name)
	}
	id := graphics.ProgramID(len(d.programs) + 100)
	d.programs[name] = id
	d.names[id] = name
	return id, nil
}

func (d *fakeDevice) DrawFullscreen(program graphics.ProgramID, uniforms graphics.Uniforms) error {
	if err := d.drawFail[program]; err != nil {
		return err
	}
	input, _ := uniforms["iChannel0"].(graphics.TextureID)
	d.draws = append(d.draws, drawRecord{
		pass:   d.names[program],
		target: d.bound,
		input:  input,
	})
	return nil
}

func (d *fakeDevice) DrawScene(scene graphics.Scene, camera graphics.Camera) error {
	if d.sceneErr != nil {
		return d.sceneErr
	}
	d.draws = append(d.draws, drawRecord{pass: "scene", target: d.bound})
	return nil
}

func (d *fakeDevice) SubscribeContextEvents(onLost, onRestored func()) {}

// screenDraws counts draws that targeted the visible surface.
func (d *fakeDevice) screenDraws() int {
	n := 0
	for _, r := range d.draws {
		if r.target == nil {
			n++
		}
	}
	return n
}

// failDraw makes a named pass's program fail at draw time.
func (d *fakeDevice) failDraw(name string) {
	id, ok := d.programs[name]
	if !ok {
		return
	}
	d.drawFail[id] = errors.New("injected draw failure: " + name)
}
