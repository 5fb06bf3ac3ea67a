package gpu

import (
	"fmt"

	"mesh-viewer/core"
)

// GeometryBuffer is one primitive's vertex and index storage on the device.
// It is immutable after creation.
type GeometryBuffer struct {
	dev         Device
	geom        Geometry
	topology    Topology
	vertexCount int
	indexCount  int32
	released    bool
}

// NewGeometryBuffer validates the index list against the vertex array and
// uploads both.
func NewGeometryBuffer(dev Device, vertices []core.Vertex, indices []uint32, topology Topology) (*GeometryBuffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("geometry: no vertices")
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("geometry: no indices")
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("geometry: index %d at %d out of range (%d vertices)", idx, i, len(vertices))
		}
	}

	geom, err := dev.CreateGeometry(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("geometry upload: %w", err)
	}
	return &GeometryBuffer{
		dev:         dev,
		geom:        geom,
		topology:    topology,
		vertexCount: len(vertices),
		indexCount:  int32(len(indices)),
	}, nil
}

func (b *GeometryBuffer) Topology() Topology { return b.topology }
func (b *GeometryBuffer) VertexCount() int   { return b.vertexCount }
func (b *GeometryBuffer) IndexCount() int    { return int(b.indexCount) }

// Draw issues one indexed draw call with the currently active program.
func (b *GeometryBuffer) Draw() {
	b.dev.DrawElements(b.geom, b.topology, b.indexCount)
}

// Release frees the device buffers. Later calls are no-ops.
func (b *GeometryBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.dev.DeleteGeometry(b.geom)
}
