package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Color struct {
	R, G, B, A float32
}

var ColorWhite = Color{1, 1, 1, 1}

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Vertex is the interleaved layout uploaded to vertex buffers.
// Attribute locations: 0 position, 1 normal, 2 uv, 3 color, 4 tangent.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    mgl32.Vec4
	Tangent  mgl32.Vec4
}
