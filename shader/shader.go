package shader

// ────────────────────────────────── Fullscreen quad ──────────────────────────────────

const vertexShaderSource = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// GenerateVertexShader returns the shared fullscreen-quad vertex shader used
// by every post-processing pass.
func GenerateVertexShader() string {
	return vertexShaderSource
}
