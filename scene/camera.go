package scene

import "math"

// Camera is a simple orbiting perspective camera. It satisfies the opaque
// graphics.Camera handle; only the GL device unpacks it.
type Camera struct {
	Distance float64
	Yaw      float64
	Pitch    float64
	FOV      float64 // vertical, radians
	Near     float64
	Far      float64
	Aspect   float64
}

// NewCamera returns the default orbit camera.
func NewCamera(aspect float64) *Camera {
	return &Camera{
		Distance: 18,
		Pitch:    0.35,
		FOV:      55 * math.Pi / 180,
		Near:     0.1,
		Far:      500,
		Aspect:   aspect,
	}
}

// Position returns the eye position in world space.
func (c *Camera) Position() [3]float64 {
	cp := math.Cos(c.Pitch)
	return [3]float64{
		c.Distance * cp * math.Sin(c.Yaw),
		c.Distance * math.Sin(c.Pitch),
		c.Distance * cp * math.Cos(c.Yaw),
	}
}

// Direction returns the normalized view direction (eye toward origin).
func (c *Camera) Direction() [3]float32 {
	p := c.Position()
	l := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	if l == 0 {
		return [3]float32{0, 0, -1}
	}
	return [3]float32{float32(-p[0] / l), float32(-p[1] / l), float32(-p[2] / l)}
}

// ViewProjection returns the column-major combined matrix for the shaders.
func (c *Camera) ViewProjection() [16]float32 {
	view := lookAt(c.Position(), [3]float64{0, 0, 0}, [3]float64{0, 1, 0})
	proj := perspective(c.FOV, c.Aspect, c.Near, c.Far)
	return mul4(proj, view)
}

func lookAt(eye, center, up [3]float64) [16]float64 {
	f := normalize3(sub3(center, eye))
	s := normalize3(cross3(f, up))
	u := cross3(s, f)
	return [16]float64{
		s[0], u[0], -f[0], 0,
		s[1], u[1], -f[1], 0,
		s[2], u[2], -f[2], 0,
		-dot3(s, eye), -dot3(u, eye), dot3(f, eye), 1,
	}
}

func perspective(fovy, aspect, near, far float64) [16]float64 {
	f := 1 / math.Tan(fovy/2)
	nf := 1 / (near - far)
	return [16]float64{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

func mul4(a, b [16]float64) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = float32(sum)
		}
	}
	return out
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize3(v [3]float64) [3]float64 {
	l := math.Sqrt(dot3(v, v))
	if l == 0 {
		return v
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}
