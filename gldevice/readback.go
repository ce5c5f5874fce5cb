package gldevice

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// ReadPixels copies the bound target's color data as tightly packed RGBA
// bytes. buf is reused when it is large enough.
func (d *Device) ReadPixels(width, height int, buf []byte) []byte {
	need := width * height * 4
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	return buf
}
