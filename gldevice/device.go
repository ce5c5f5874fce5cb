// Package gldevice implements graphics.Device on OpenGL 4.1 core. Shader
// sources are authored as GLSL ES 300 and translated to desktop GLSL through
// goshadertranslator, so the same sources serve every backend.
package gldevice

import (
	"context"
	"fmt"
	"log"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"

	"github.com/richinsley/gosingularity/graphics"
	"github.com/richinsley/gosingularity/shader"
)

type program struct {
	handle uint32
	// uniform locations keyed by the pre-translation names
	uniforms map[string]int32
}

// Device renders through a GLFW-backed OpenGL context.
type Device struct {
	ctx        graphics.Context
	translator *gst.ShaderTranslator

	quadVAO  uint32
	quadVBO  uint32
	programs map[graphics.ProgramID]*program
	nextID   graphics.ProgramID

	bound *graphics.RenderTarget

	// depth renderbuffers keyed by FBO handle, freed on release
	depthBuffers map[uint32]uint32

	sceneRes *sceneResources

	onLost     func()
	onRestored func()
	lost       bool
}

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// New initializes OpenGL state for the given context. The context must be
// current on the calling thread.
func New(ctx graphics.Context) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	translator, err := gst.NewShaderTranslator(context.Background())
	if err != nil {
		return nil, fmt.Errorf("creating shader translator: %w", err)
	}

	d := &Device{
		ctx:          ctx,
		translator:   translator,
		programs:     make(map[graphics.ProgramID]*program),
		depthBuffers: make(map[uint32]uint32),
		nextID:       1,
	}

	gl.GenVertexArrays(1, &d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindVertexArray(d.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	if err := d.initSceneResources(); err != nil {
		return nil, err
	}

	gl.ClearColor(0, 0, 0, 1)
	return d, nil
}

// HasSurface reports whether a drawable surface exists.
func (d *Device) HasSurface() bool {
	return d.ctx != nil && !d.lost
}

// PixelRatio returns framebuffer pixels per window unit.
func (d *Device) PixelRatio() float64 {
	if d.ctx == nil {
		return 1.0
	}
	return d.ctx.PixelRatio()
}

// CreateRenderTarget allocates an FBO with a color texture and optionally a
// depth renderbuffer.
func (d *Device) CreateRenderTarget(width, height int, opts graphics.RenderTargetOptions) (*graphics.RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", graphics.ErrAllocation, width, height)
	}

	var internalFormat int32 = gl.RGBA8
	var pixelType uint32 = gl.UNSIGNED_BYTE
	if opts.HalfFloat {
		internalFormat = gl.RGBA16F
		pixelType = gl.HALF_FLOAT
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(width), int32(height), 0, gl.RGBA, pixelType, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)

	var depthRB uint32
	if opts.Depth {
		gl.GenRenderbuffers(1, &depthRB)
		gl.BindRenderbuffer(gl.RENDERBUFFER, depthRB)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, depthRB)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		gl.DeleteTextures(1, &texture)
		if depthRB != 0 {
			gl.DeleteRenderbuffers(1, &depthRB)
		}
		return nil, fmt.Errorf("%w: framebuffer incomplete (status 0x%x)", graphics.ErrAllocation, status)
	}

	t := &graphics.RenderTarget{
		Width:       width,
		Height:      height,
		Color:       graphics.TextureID(texture),
		HasDepth:    opts.Depth,
		SampleCount: 1,
		Handle:      fbo,
	}
	if depthRB != 0 {
		d.depthBuffers[fbo] = depthRB
	}
	return t, nil
}

// ReleaseRenderTarget frees the target's GPU resources.
func (d *Device) ReleaseRenderTarget(t *graphics.RenderTarget) {
	if t == nil || t.Handle == 0 {
		return
	}
	fbo := t.Handle
	tex := uint32(t.Color)
	gl.DeleteFramebuffers(1, &fbo)
	gl.DeleteTextures(1, &tex)
	if rb, ok := d.depthBuffers[t.Handle]; ok && rb != 0 {
		gl.DeleteRenderbuffers(1, &rb)
	}
	delete(d.depthBuffers, t.Handle)
	t.Handle = 0
	t.Color = 0
}

// SetRenderTarget binds the draw target; nil binds the visible surface.
func (d *Device) SetRenderTarget(t *graphics.RenderTarget) {
	d.bound = t
	if t == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		w, h := d.ctx.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.Handle)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
}

// GetRenderTarget returns the currently bound target, nil for the screen.
func (d *Device) GetRenderTarget() *graphics.RenderTarget {
	return d.bound
}

// Clear clears the bound target's color and depth.
func (d *Device) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// CompileEffect translates the GLSL ES fragment source to desktop GLSL and
// links it against the shared fullscreen-quad vertex stage.
func (d *Device) CompileEffect(name, fragmentSource string) (graphics.ProgramID, error) {
	fs, err := d.translator.TranslateShader(fragmentSource, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return 0, fmt.Errorf("%w: translating %s: %v", graphics.ErrPassCompile, name, err)
	}
	vs, err := d.translator.TranslateShader(shader.GenerateVertexShader(), "vertex", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return 0, fmt.Errorf("%w: translating vertex stage: %v", graphics.ErrPassCompile, err)
	}

	handle, err := newProgram(vs.Code, fs.Code)
	if err != nil {
		return 0, fmt.Errorf("%w: linking %s: %v", graphics.ErrPassCompile, name, err)
	}

	p := &program{handle: handle, uniforms: make(map[string]int32)}
	for original, v := range fs.Variables {
		p.uniforms[original] = gl.GetUniformLocation(handle, gl.Str(v.MappedName+"\x00"))
	}

	id := d.nextID
	d.nextID++
	d.programs[id] = p
	return id, nil
}

// DrawFullscreen runs a fullscreen pass with the given uniforms into the
// bound target.
func (d *Device) DrawFullscreen(prog graphics.ProgramID, uniforms graphics.Uniforms) error {
	p, ok := d.programs[prog]
	if !ok {
		return fmt.Errorf("unknown program %d", prog)
	}
	gl.UseProgram(p.handle)
	applyUniforms(p.uniforms, uniforms)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// SubscribeContextEvents registers loss/restore callbacks.
func (d *Device) SubscribeContextEvents(onLost, onRestored func()) {
	d.onLost = onLost
	d.onRestored = onRestored
}

// SimulateContextLoss drops the surface and fires the loss callback. Used
// by the debug key binding; real loss events would arrive the same way.
func (d *Device) SimulateContextLoss() {
	if d.lost {
		return
	}
	d.lost = true
	if d.onLost != nil {
		d.onLost()
	}
}

// SimulateContextRestore reinstates the surface and fires the restore
// callback.
func (d *Device) SimulateContextRestore() {
	if !d.lost {
		return
	}
	d.lost = false
	if d.onRestored != nil {
		d.onRestored()
	}
}

// Shutdown frees device-owned GL objects.
func (d *Device) Shutdown() {
	for _, p := range d.programs {
		gl.DeleteProgram(p.handle)
	}
	d.releaseSceneResources()
	gl.DeleteBuffers(1, &d.quadVBO)
	gl.DeleteVertexArrays(1, &d.quadVAO)
}

func applyUniforms(locations map[string]int32, uniforms graphics.Uniforms) {
	texUnit := 0
	for name, value := range uniforms {
		loc, ok := locations[name]
		if !ok || loc == -1 {
			continue
		}
		switch v := value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case float64:
			gl.Uniform1f(loc, float32(v))
		case int:
			gl.Uniform1i(loc, int32(v))
		case [2]float32:
			gl.Uniform2f(loc, v[0], v[1])
		case [3]float32:
			gl.Uniform3f(loc, v[0], v[1], v[2])
		case [4]float32:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case [16]float32:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case graphics.TextureID:
			gl.ActiveTexture(gl.TEXTURE0 + uint32(texUnit))
			gl.BindTexture(gl.TEXTURE_2D, uint32(v))
			gl.Uniform1i(loc, int32(texUnit))
			texUnit++
		default:
			log.Printf("gldevice: unsupported uniform type for %q", name)
		}
	}
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vertexShader)
	gl.AttachShader(prog, fragmentShader)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("failed to link program: %v", infoLog)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return prog, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(logText))
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return sh, nil
}
