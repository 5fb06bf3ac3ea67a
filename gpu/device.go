// Package gpu holds the GPU-owning objects of the viewer: shader programs,
// geometry buffers and textures. Every object is created against an explicit
// Device, which is the render context handle; nothing here assumes an ambient
// current context.
package gpu

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/core"
)

// Stage identifies a shader stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return "unknown"
}

// Topology is the primitive assembly mode of a geometry buffer.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
	TriangleFan
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case TriangleFan:
		return "triangle-fan"
	}
	return "unknown"
}

// Geometry names the device objects backing one uploaded primitive.
type Geometry struct {
	VAO uint32
	VBO uint32
	EBO uint32
}

// Device is the render context. All calls must come from the goroutine that
// owns the context.
//
// CompileShader reports compiler diagnostics as *CompileError and
// LinkProgram reports linker diagnostics as *LinkError.
type Device interface {
	CompileShader(stage Stage, source string) (uint32, error)
	DeleteShader(id uint32)
	LinkProgram(vertex, fragment uint32) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)

	// UniformLocation returns -1 when name is not an active uniform.
	UniformLocation(program uint32, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform3f(loc int32, v mgl32.Vec3)
	Uniform4f(loc int32, v mgl32.Vec4)
	UniformMatrix4f(loc int32, m mgl32.Mat4)

	CreateGeometry(vertices []core.Vertex, indices []uint32) (Geometry, error)
	DeleteGeometry(g Geometry)
	DrawElements(g Geometry, topology Topology, count int32)

	CreateTexture(img *image.RGBA) (uint32, error)
	DeleteTexture(id uint32)
	BindTexture(unit uint32, id uint32)

	Clear(color core.Color)
	SetViewport(width, height int)
}
