package shader

// Sources for the shader-driven scene geometry. The accretion disk recomputes
// particle positions from time inside the vertex stage so no per-frame CPU
// position uploads are required.

const diskVertexSource = `#version 300 es
layout (location = 0) in float in_radius;
layout (location = 1) in float in_phase;
layout (location = 2) in float in_speed;
layout (location = 3) in float in_size;
layout (location = 4) in vec3 in_color;
uniform mat4 viewProjection;
uniform float iTime;
uniform float diskTilt;
out vec3 v_color;
out float v_radius;

void main() {
    float angle = iTime * in_speed + in_phase;
    vec3 p = vec3(cos(angle) * in_radius, 0.0, sin(angle) * in_radius);
    // Slight vertical turbulence keyed off the orbit, still deterministic.
    p.y = sin(angle * 3.0 + in_radius * 7.0) * 0.05 * in_radius;
    float ct = cos(diskTilt);
    float st = sin(diskTilt);
    p = vec3(p.x, p.y * ct - p.z * st, p.y * st + p.z * ct);
    gl_Position = viewProjection * vec4(p, 1.0);
    gl_PointSize = in_size * (30.0 / max(gl_Position.w, 0.1));
    v_color = in_color;
    v_radius = in_radius;
}
`

const pointFragmentSource = `#version 300 es
precision highp float;
in vec3 v_color;
in float v_radius;
out vec4 out_color;

void main() {
    vec2 d = gl_PointCoord - 0.5;
    float falloff = 1.0 - smoothstep(0.0, 0.5, length(d));
    out_color = vec4(v_color, falloff);
}
`

const particleVertexSource = `#version 300 es
layout (location = 0) in vec3 in_position;
layout (location = 1) in float in_size;
layout (location = 2) in vec3 in_color;
uniform mat4 viewProjection;
out vec3 v_color;
out float v_radius;

void main() {
    gl_Position = viewProjection * vec4(in_position, 1.0);
    gl_PointSize = in_size * (20.0 / max(gl_Position.w, 0.1));
    v_color = in_color;
    v_radius = length(in_position);
}
`

const horizonVertexSource = `#version 300 es
layout (location = 0) in vec3 in_position;
uniform mat4 viewProjection;
uniform float iTime;
out vec3 v_normal;

void main() {
    v_normal = normalize(in_position);
    gl_Position = viewProjection * vec4(in_position, 1.0);
}
`

const horizonFragmentSource = `#version 300 es
precision highp float;
in vec3 v_normal;
uniform vec3 cameraDirection;
out vec4 out_color;

void main() {
    // The horizon itself is pure black; only the rim glows.
    float rim = 1.0 - abs(dot(v_normal, normalize(cameraDirection)));
    vec3 glow = vec3(1.0, 0.55, 0.15) * pow(rim, 4.0);
    out_color = vec4(glow, 1.0);
}
`

// SceneVertexShader returns the vertex source for a named scene entity kind:
// "disk", "particles" or "horizon".
func SceneVertexShader(kind string) string {
	switch kind {
	case "disk":
		return diskVertexSource
	case "horizon":
		return horizonVertexSource
	default:
		return particleVertexSource
	}
}

// SceneFragmentShader returns the fragment source paired with
// SceneVertexShader for the same kind.
func SceneFragmentShader(kind string) string {
	if kind == "horizon" {
		return horizonFragmentSource
	}
	return pointFragmentSource
}
