package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/core"
	"mesh-viewer/gpu"
)

// Device is the OpenGL implementation of gpu.Device.
type Device struct {
	version string
}

// NewDevice loads the GL entry points and sets the fixed pipeline state.
// Must be called after the GLFW window context is made current.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	version := gl.GoStr(gl.GetString(gl.VERSION))
	slog.Debug("OpenGL initialized", "version", version)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	return &Device{version: version}, nil
}

// Version returns the GL_VERSION string of the context.
func (d *Device) Version() string { return d.version }

// ── Shaders ───────────────────────────────────────────────────────────────────

func (d *Device) CompileShader(stage gpu.Stage, src string) (uint32, error) {
	var shaderType uint32
	switch stage {
	case gpu.StageVertex:
		shaderType = gl.VERTEX_SHADER
	case gpu.StageFragment:
		shaderType = gl.FRAGMENT_SHADER
	default:
		return 0, fmt.Errorf("unknown shader stage %d", stage)
	}

	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return shader, nil
}

func (d *Device) DeleteShader(id uint32) {
	gl.DeleteShader(id)
}

func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, error) {
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vertex)
	gl.AttachShader(prog, fragment)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, &gpu.LinkError{Log: strings.TrimRight(log, "\x00")}
	}
	gl.DetachShader(prog, vertex)
	gl.DetachShader(prog, fragment)
	return prog, nil
}

func (d *Device) DeleteProgram(id uint32) {
	gl.DeleteProgram(id)
}

func (d *Device) UseProgram(id uint32) {
	gl.UseProgram(id)
}

// ── Uniforms ──────────────────────────────────────────────────────────────────

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (d *Device) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (d *Device) Uniform3f(loc int32, v mgl32.Vec3) { gl.Uniform3f(loc, v[0], v[1], v[2]) }

func (d *Device) Uniform4f(loc int32, v mgl32.Vec4) { gl.Uniform4f(loc, v[0], v[1], v[2], v[3]) }

// UniformMatrix4f uploads m as is; mgl32 matrices are already column-major.
func (d *Device) UniformMatrix4f(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

// ── Geometry ──────────────────────────────────────────────────────────────────

// CreateGeometry uploads an interleaved vertex buffer and a uint32 index
// buffer into a fresh VAO.
func (d *Device) CreateGeometry(vertices []core.Vertex, indices []uint32) (gpu.Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return gpu.Geometry{}, fmt.Errorf("empty geometry")
	}
	stride := int32(unsafe.Sizeof(core.Vertex{}))

	var g gpu.Geometry
	gl.GenVertexArrays(1, &g.VAO)
	gl.GenBuffers(1, &g.VBO)
	gl.GenBuffers(1, &g.EBO)

	gl.BindVertexArray(g.VAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(stride), gl.Ptr(vertices), gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
		{4, unsafe.Offsetof(v.Tangent)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointerWithOffset(uint32(i), a.size, gl.FLOAT, false, stride, a.offset)
	}

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		d.DeleteGeometry(g)
		return gpu.Geometry{}, fmt.Errorf("buffer upload: gl error 0x%x", code)
	}
	return g, nil
}

func (d *Device) DeleteGeometry(g gpu.Geometry) {
	gl.DeleteVertexArrays(1, &g.VAO)
	gl.DeleteBuffers(1, &g.VBO)
	gl.DeleteBuffers(1, &g.EBO)
}

func (d *Device) DrawElements(g gpu.Geometry, topology gpu.Topology, count int32) {
	mode := uint32(gl.TRIANGLES)
	switch topology {
	case gpu.TriangleStrip:
		mode = gl.TRIANGLE_STRIP
	case gpu.TriangleFan:
		mode = gl.TRIANGLE_FAN
	}
	gl.BindVertexArray(g.VAO)
	gl.DrawElements(mode, count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// ── Frame ─────────────────────────────────────────────────────────────────────

func (d *Device) Clear(color core.Color) {
	gl.ClearColor(color.R, color.G, color.B, color.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

var _ gpu.Device = (*Device)(nil)
