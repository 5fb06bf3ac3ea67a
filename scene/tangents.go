package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/core"
	"mesh-viewer/gpu"
)

// eachTriangle calls fn with the corners of every triangle that indices
// describe under topology. Strip triangles keep a consistent winding.
func eachTriangle(indices []uint32, topology gpu.Topology, fn func(a, b, c uint32)) {
	switch topology {
	case gpu.TriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				fn(indices[i], indices[i+1], indices[i+2])
			} else {
				fn(indices[i+1], indices[i], indices[i+2])
			}
		}
	case gpu.TriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			fn(indices[0], indices[i], indices[i+1])
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			fn(indices[i], indices[i+1], indices[i+2])
		}
	}
}

// uvFrame returns the unnormalized tangent and bitangent of one triangle,
// or ok=false when its UVs span no area.
func uvFrame(v0, v1, v2 *core.Vertex) (t, b mgl32.Vec3, ok bool) {
	e1 := v1.Position.Sub(v0.Position)
	e2 := v2.Position.Sub(v0.Position)
	d1 := v1.UV.Sub(v0.UV)
	d2 := v2.UV.Sub(v0.UV)

	det := d1.X()*d2.Y() - d2.X()*d1.Y()
	if det == 0 {
		return t, b, false
	}
	inv := 1 / det
	t = e1.Mul(d2.Y() * inv).Sub(e2.Mul(d1.Y() * inv))
	b = e2.Mul(d1.X() * inv).Sub(e1.Mul(d2.X() * inv))
	return t, b, true
}

// computeTangents fills Tangent for a primitive that came without one. W is
// the bitangent sign as glTF defines it: bitangent = cross(normal, tangent.xyz) * w.
func computeTangents(verts []core.Vertex, indices []uint32, topology gpu.Topology) {
	type frame struct{ t, b mgl32.Vec3 }
	frames := make([]frame, len(verts))

	n := uint32(len(verts))
	eachTriangle(indices, topology, func(i0, i1, i2 uint32) {
		if i0 >= n || i1 >= n || i2 >= n {
			return // rejected by the geometry upload
		}
		t, b, ok := uvFrame(&verts[i0], &verts[i1], &verts[i2])
		if !ok {
			return
		}
		for _, i := range [3]uint32{i0, i1, i2} {
			frames[i].t = frames[i].t.Add(t)
			frames[i].b = frames[i].b.Add(b)
		}
	})

	for i := range verts {
		verts[i].Tangent = orthoTangent(verts[i].Normal, frames[i].t, frames[i].b)
	}
}

// orthoTangent makes t perpendicular to the normal and packs the handedness
// of b into W. With no usable t, any axis perpendicular to the normal is used.
func orthoTangent(normal, t, b mgl32.Vec3) mgl32.Vec4 {
	t = t.Sub(normal.Mul(normal.Dot(t)))
	if t.LenSqr() < 1e-8 {
		axis := mgl32.Vec3{1, 0, 0}
		if mgl32.Abs(normal.X()) >= 0.9 {
			axis = mgl32.Vec3{0, 1, 0}
		}
		t = axis.Sub(normal.Mul(normal.Dot(axis)))
	}
	t = t.Normalize()

	w := float32(1)
	if normal.Cross(t).Dot(b) < 0 {
		w = -1
	}
	return t.Vec4(w)
}
