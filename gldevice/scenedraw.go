package gldevice

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"

	"github.com/richinsley/gosingularity/graphics"
	"github.com/richinsley/gosingularity/scene"
	"github.com/richinsley/gosingularity/shader"
)

// pointBuffers holds a point-cloud entity's VAO and attribute VBOs laid out
// for the particle vertex stage: position(0), size(1), color(2).
type pointBuffers struct {
	vao      uint32
	position uint32
	size     uint32
	color    uint32
	count    int32
	dynamic  bool
}

// diskBuffers holds the accretion disk's orbital attributes:
// radius(0), phase(1), speed(2), size(3), color(4).
type diskBuffers struct {
	vao    uint32
	radius uint32
	phase  uint32
	speed  uint32
	size   uint32
	color  uint32
	count  int32
}

type horizonBuffers struct {
	vao     uint32
	vbo     uint32
	ebo     uint32
	indices int32
}

type sceneResources struct {
	diskProg    *program
	pointProg   *program
	horizonProg *program

	disk       *diskBuffers
	hawking    *pointBuffers
	starfield  *pointBuffers
	nebula     *pointBuffers
	fieldLines *pointBuffers
	horizon    *horizonBuffers
}

func (d *Device) initSceneResources() error {
	res := &sceneResources{}
	var err error
	if res.diskProg, err = d.compileScene("disk"); err != nil {
		return err
	}
	if res.pointProg, err = d.compileScene("particles"); err != nil {
		return err
	}
	if res.horizonProg, err = d.compileScene("horizon"); err != nil {
		return err
	}
	d.sceneRes = res
	return nil
}

func (d *Device) compileScene(kind string) (*program, error) {
	vs, err := d.translator.TranslateShader(shader.SceneVertexShader(kind), "vertex", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return nil, fmt.Errorf("translating %s vertex shader: %w", kind, err)
	}
	fs, err := d.translator.TranslateShader(shader.SceneFragmentShader(kind), "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return nil, fmt.Errorf("translating %s fragment shader: %w", kind, err)
	}
	handle, err := newProgram(vs.Code, fs.Code)
	if err != nil {
		return nil, fmt.Errorf("linking %s program: %w", kind, err)
	}
	p := &program{handle: handle, uniforms: make(map[string]int32)}
	for original, v := range vs.Variables {
		p.uniforms[original] = gl.GetUniformLocation(handle, gl.Str(v.MappedName+"\x00"))
	}
	for original, v := range fs.Variables {
		if _, seen := p.uniforms[original]; !seen {
			p.uniforms[original] = gl.GetUniformLocation(handle, gl.Str(v.MappedName+"\x00"))
		}
	}
	return p, nil
}

// DrawScene renders the black hole entity set into the bound target.
func (d *Device) DrawScene(sceneHandle graphics.Scene, cameraHandle graphics.Camera) error {
	s, ok := sceneHandle.(*scene.Scene)
	if !ok {
		return fmt.Errorf("unsupported scene type %T", sceneHandle)
	}
	cam, ok := cameraHandle.(*scene.Camera)
	if !ok {
		return fmt.Errorf("unsupported camera type %T", cameraHandle)
	}

	d.syncSceneBuffers(s)

	vp := cam.ViewProjection()
	res := d.sceneRes

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	// Background shells first, then structure near the hole.
	gl.UseProgram(res.pointProg.handle)
	applyUniforms(res.pointProg.uniforms, graphics.Uniforms{"viewProjection": vp})
	drawPoints(res.nebula)
	drawPoints(res.starfield)
	drawPoints(res.fieldLines)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
	gl.UseProgram(res.horizonProg.handle)
	applyUniforms(res.horizonProg.uniforms, graphics.Uniforms{
		"viewProjection":  vp,
		"cameraDirection": cam.Direction(),
	})
	gl.BindVertexArray(res.horizon.vao)
	gl.DrawElements(gl.TRIANGLES, res.horizon.indices, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.DepthMask(false)

	gl.UseProgram(res.diskProg.handle)
	diskUniforms := s.Disk.Uniforms()
	diskUniforms["viewProjection"] = vp
	applyUniforms(res.diskProg.uniforms, diskUniforms)
	gl.BindVertexArray(res.disk.vao)
	gl.DrawArrays(gl.POINTS, 0, res.disk.count)
	gl.BindVertexArray(0)

	gl.UseProgram(res.pointProg.handle)
	applyUniforms(res.pointProg.uniforms, graphics.Uniforms{"viewProjection": vp})
	drawPoints(res.hawking)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	return nil
}

func drawPoints(b *pointBuffers) {
	if b == nil || b.count == 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.POINTS, 0, b.count)
	gl.BindVertexArray(0)
}

// syncSceneBuffers creates VAOs on first use and re-uploads any entity whose
// CPU-side buffers changed since the last frame.
func (d *Device) syncSceneBuffers(s *scene.Scene) {
	res := d.sceneRes

	if res.disk == nil {
		res.disk = newDiskBuffers(s.Disk)
		s.Disk.MarkClean()
	}
	if res.horizon == nil {
		res.horizon = newHorizonBuffers(s.Horizon)
		s.Horizon.MarkClean()
	}

	res.hawking = syncPoints(res.hawking, s.Hawking.Positions, s.Hawking.Sizes, s.Hawking.Colors, s.Hawking.Dirty(), true)
	s.Hawking.MarkClean()
	res.starfield = syncPoints(res.starfield, s.Starfield.Positions, s.Starfield.Sizes, s.Starfield.Colors, s.Starfield.Dirty(), false)
	s.Starfield.MarkClean()
	res.nebula = syncPoints(res.nebula, s.Nebula.Positions, s.Nebula.Sizes, s.Nebula.Colors, s.Nebula.Dirty(), false)
	s.Nebula.MarkClean()
	res.fieldLines = syncPoints(res.fieldLines, s.FieldLines.Positions, s.FieldLines.Sizes, s.FieldLines.Colors, s.FieldLines.Dirty(), false)
	s.FieldLines.MarkClean()
}

func syncPoints(b *pointBuffers, positions, sizes, colors []float32, dirty, dynamic bool) *pointBuffers {
	if b == nil {
		b = &pointBuffers{count: int32(len(sizes)), dynamic: dynamic}
		usage := uint32(gl.STATIC_DRAW)
		if dynamic {
			usage = gl.DYNAMIC_DRAW
		}
		gl.GenVertexArrays(1, &b.vao)
		gl.BindVertexArray(b.vao)
		b.position = newAttribBuffer(0, 3, positions, usage)
		b.size = newAttribBuffer(1, 1, sizes, usage)
		b.color = newAttribBuffer(2, 3, colors, usage)
		gl.BindVertexArray(0)
		return b
	}
	if dirty && b.dynamic {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.position)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(positions)*4, gl.Ptr(positions))
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	}
	return b
}

func newDiskBuffers(disk *scene.AccretionDisk) *diskBuffers {
	b := &diskBuffers{count: int32(disk.Count())}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	b.radius = newAttribBuffer(0, 1, disk.Radii, gl.STATIC_DRAW)
	b.phase = newAttribBuffer(1, 1, disk.Phases, gl.STATIC_DRAW)
	b.speed = newAttribBuffer(2, 1, disk.Speeds, gl.STATIC_DRAW)
	b.size = newAttribBuffer(3, 1, disk.Sizes, gl.STATIC_DRAW)
	b.color = newAttribBuffer(4, 3, disk.Colors, gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	return b
}

func newHorizonBuffers(mesh *scene.HorizonMesh) *horizonBuffers {
	b := &horizonBuffers{indices: int32(len(mesh.Indices))}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	b.vbo = newAttribBuffer(0, 3, mesh.Vertices, gl.STATIC_DRAW)
	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	return b
}

func newAttribBuffer(location uint32, components int32, data []float32, usage uint32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), usage)
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointer(location, components, gl.FLOAT, false, components*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vbo
}

func (d *Device) releaseSceneResources() {
	res := d.sceneRes
	if res == nil {
		return
	}
	for _, p := range []*program{res.diskProg, res.pointProg, res.horizonProg} {
		if p != nil {
			gl.DeleteProgram(p.handle)
		}
	}
	for _, b := range []*pointBuffers{res.hawking, res.starfield, res.nebula, res.fieldLines} {
		if b == nil {
			continue
		}
		gl.DeleteBuffers(1, &b.position)
		gl.DeleteBuffers(1, &b.size)
		gl.DeleteBuffers(1, &b.color)
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if res.disk != nil {
		gl.DeleteBuffers(1, &res.disk.radius)
		gl.DeleteBuffers(1, &res.disk.phase)
		gl.DeleteBuffers(1, &res.disk.speed)
		gl.DeleteBuffers(1, &res.disk.size)
		gl.DeleteBuffers(1, &res.disk.color)
		gl.DeleteVertexArrays(1, &res.disk.vao)
	}
	if res.horizon != nil {
		gl.DeleteBuffers(1, &res.horizon.vbo)
		gl.DeleteBuffers(1, &res.horizon.ebo)
		gl.DeleteVertexArrays(1, &res.horizon.vao)
	}
	d.sceneRes = nil
}
