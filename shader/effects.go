package shader

// Fragment sources for the post-processing chain. All passes read the
// previous pass's output through iChannel0 and are translated from WebGL2
// GLSL to the platform dialect at program creation time.

const bloomFragmentSource = `#version 300 es
precision highp float;
in vec2 frag_uv;
uniform sampler2D iChannel0;
uniform vec3 iResolution;
uniform float strength;
uniform float radius;
uniform float threshold;
out vec4 out_color;

vec3 brightPart(vec3 c) {
    float luma = dot(c, vec3(0.2126, 0.7152, 0.0722));
    return c * smoothstep(threshold, threshold + 0.25, luma);
}

void main() {
    vec3 base = texture(iChannel0, frag_uv).rgb;
    vec2 px = radius / iResolution.xy;
    vec3 glow = vec3(0.0);
    float total = 0.0;
    for (int x = -3; x <= 3; x++) {
        for (int y = -3; y <= 3; y++) {
            vec2 off = vec2(float(x), float(y)) * px * 2.0;
            float w = exp(-float(x * x + y * y) * 0.18);
            glow += brightPart(texture(iChannel0, frag_uv + off).rgb) * w;
            total += w;
        }
    }
    glow /= total;
    out_color = vec4(base + glow * strength, 1.0);
}
`

const colorCorrectionFragmentSource = `#version 300 es
precision highp float;
in vec2 frag_uv;
uniform sampler2D iChannel0;
uniform float iTime;
uniform float brightness;
uniform float contrast;
uniform float saturation;
uniform float noise;
uniform float chromaticAberration;
out vec4 out_color;

float hash(vec2 p) {
    return fract(sin(dot(p, vec2(12.9898, 78.233))) * 43758.5453);
}

void main() {
    vec2 toCenter = frag_uv - 0.5;
    vec3 c;
    c.r = texture(iChannel0, frag_uv - toCenter * chromaticAberration).r;
    c.g = texture(iChannel0, frag_uv).g;
    c.b = texture(iChannel0, frag_uv + toCenter * chromaticAberration).b;

    c = (c - 0.5) * contrast + 0.5 + brightness;
    float luma = dot(c, vec3(0.2126, 0.7152, 0.0722));
    c = mix(vec3(luma), c, saturation);
    c += (hash(frag_uv + fract(iTime)) - 0.5) * noise;
    out_color = vec4(c, 1.0);
}
`

const filmGrainFragmentSource = `#version 300 es
precision highp float;
in vec2 frag_uv;
uniform sampler2D iChannel0;
uniform float iTime;
uniform float intensity;
out vec4 out_color;

float hash(vec2 p) {
    return fract(sin(dot(p, vec2(127.1, 311.7))) * 43758.5453);
}

void main() {
    vec3 c = texture(iChannel0, frag_uv).rgb;
    float g = hash(frag_uv * vec2(1920.0, 1080.0) + fract(iTime) * 43.0) - 0.5;
    // Grain reads stronger in shadow, matching photographic stock.
    float shadow = 1.0 - dot(c, vec3(0.333));
    out_color = vec4(c + g * intensity * (0.5 + shadow), 1.0);
}
`

const spaceDistortionFragmentSource = `#version 300 es
precision highp float;
in vec2 frag_uv;
uniform sampler2D iChannel0;
uniform float iTime;
uniform float distortionStrength;
uniform vec2 mousePosition;
out vec4 out_color;

void main() {
    vec2 toMouse = frag_uv - mousePosition;
    float dist = length(toMouse);
    float ripple = sin(dist * 40.0 - iTime * 4.0) * 0.002;
    vec2 warp = normalize(toMouse + 1e-6) * (ripple + distortionStrength / (dist + 0.2) * 0.01);
    out_color = texture(iChannel0, frag_uv - warp);
}
`

const lensingFragmentSource = `#version 300 es
precision highp float;
in vec2 frag_uv;
uniform sampler2D iChannel0;
uniform vec3 iResolution;
uniform vec2 lensCenter;
uniform float lensRadius;
uniform float bendStrength;
out vec4 out_color;

void main() {
    vec2 aspect = vec2(iResolution.x / iResolution.y, 1.0);
    vec2 toLens = (frag_uv - lensCenter) * aspect;
    float dist = length(toLens);
    // Weak-field deflection approximation: bend falls off as 1/b.
    float bend = bendStrength * lensRadius / max(dist, lensRadius * 0.5);
    vec2 warped = frag_uv - normalize(toLens) / aspect * bend * lensRadius;
    vec3 c = texture(iChannel0, warped).rgb;
    // Photon-ring brightening near the critical radius.
    float ring = smoothstep(lensRadius * 1.3, lensRadius, dist) *
                 smoothstep(lensRadius * 0.7, lensRadius, dist);
    out_color = vec4(c * (1.0 + ring * 0.6), 1.0);
}
`

var effectSources = map[string]string{
	"bloom":                bloomFragmentSource,
	"colorCorrection":      colorCorrectionFragmentSource,
	"filmGrain":            filmGrainFragmentSource,
	"spaceDistortion":      spaceDistortionFragmentSource,
	"gravitationalLensing": lensingFragmentSource,
}

// EffectFragmentSource returns the fragment source for a named effect pass,
// or "" if the effect is unknown.
func EffectFragmentSource(name string) string {
	return effectSources[name]
}
