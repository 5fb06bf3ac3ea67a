package scene_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-viewer/gpu"
	"mesh-viewer/gpu/gputest"
	"mesh-viewer/scene"
)

func TestLoadModelUploadsEachPrimitiveOnce(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{
		{Name: "pair", Primitives: []*gltf.Primitive{triangle(doc), triangle(doc)}},
		{Name: "single", Primitives: []*gltf.Primitive{triangle(doc)}},
	}
	doc.Nodes = []*gltf.Node{
		{Name: "group", Children: []int{1, 2}},
		{Name: "a", Mesh: gltf.Index(0)},
		{Name: "b", Mesh: gltf.Index(1)},
	}
	doc.Scenes[0].Nodes = []int{0}

	dev := gputest.NewDevice()
	m, err := scene.LoadModel(dev, saveGLB(t, doc), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	assert.Equal(t, 3, m.NodeCount())
	assert.Equal(t, 3, m.PrimitiveCount())
	_, _, geometries, _ := dev.Live()
	assert.Equal(t, 3, geometries)

	p := newProgram(t, dev)
	for frame := 0; frame < 2; frame++ {
		dev.Reset()
		assert.Equal(t, 3, m.Draw(p))
		assert.Len(t, dev.Draws, 3)
	}
	_, _, geometries, _ = dev.Live()
	assert.Equal(t, 3, geometries, "drawing never uploads")
}

func TestDrawComposesParentAndChild(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{triangle(doc)}}}
	q := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	doc.Nodes = []*gltf.Node{
		{
			Name:        "parent",
			Children:    []int{1},
			Translation: [3]float64{1, 2, 3},
			Rotation:    [4]float64{float64(q.V[0]), float64(q.V[1]), float64(q.V[2]), float64(q.W)},
		},
		{Name: "child", Mesh: gltf.Index(0), Translation: [3]float64{1, 0, 0}},
	}
	doc.Scenes[0].Nodes = []int{0}

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	m.Draw(newProgram(t, dev))
	require.Len(t, dev.Draws, 1)

	// The child's origin is (1,0,0) in parent space, rotated onto +Y and
	// then moved by the parent translation.
	got := dev.Draws[0].Model.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 1, got[0], 1e-5)
	assert.InDelta(t, 3, got[1], 1e-5)
	assert.InDelta(t, 3, got[2], 1e-5)

	child := m.Root().Find("child")
	require.NotNil(t, child)
	assert.True(t, child.WorldMatrix().ApproxEqualThreshold(dev.Draws[0].Model, 1e-5))
}

func TestNodeLocalMatrixOrder(t *testing.T) {
	n := scene.NewNode("n")
	n.Matrix = mgl32.Translate3D(0, 0, 5)
	n.Translation = mgl32.Vec3{1, 0, 0}
	n.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	n.Scale = mgl32.Vec3{2, 2, 2}

	// Scale, then rotate, then translate, then the explicit matrix.
	got := n.LocalMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 1, got[0], 1e-5)
	assert.InDelta(t, 0, got[1], 1e-5)
	assert.InDelta(t, 3, got[2], 1e-5)
}

func TestDrawWritesMaterialAndBindsTextures(t *testing.T) {
	doc := triangleDoc()
	mat := addTexturedMaterial(t, doc, pngBytes(t, 4, 4))
	doc.Meshes[0].Primitives[0].Material = gltf.Index(mat)

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	require.Len(t, m.Materials(), 1)
	diffuse := m.Materials()[0].Diffuse
	require.NotNil(t, diffuse)
	assert.Nil(t, m.Materials()[0].Specular)

	p := newProgram(t, dev)
	m.Draw(p)
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, diffuse.ID(), dev.Draws[0].Textures[gpu.UnitDiffuse])

	v, _ := dev.Value(p.ID(), "hasDiffuse")
	assert.Equal(t, int32(1), v)
	v, _ = dev.Value(p.ID(), "hasSpecular")
	assert.Equal(t, int32(0), v)
	v, _ = dev.Value(p.ID(), "diffuse0")
	assert.Equal(t, int32(0), v)
	v, _ = dev.Value(p.ID(), "specular0")
	assert.Equal(t, int32(1), v)
	v, _ = dev.Value(p.ID(), "baseColor")
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, v)
}

func TestNormalTextureGeneratesTangents(t *testing.T) {
	doc := triangleDoc()
	prim := doc.Meshes[0].Primitives[0]
	prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	prim.Material = gltf.Index(addNormalMappedMaterial(t, doc, pngBytes(t, 2, 2), 0.5))

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	mat := m.Materials()[0]
	require.NotNil(t, mat.Normal)
	assert.InDelta(t, 0.5, mat.NormalScale, 1e-6)

	require.Len(t, dev.Uploads, 1)
	for i, v := range dev.Uploads[0] {
		assert.True(t, v.Tangent.ApproxEqual(mgl32.Vec4{1, 0, 0, 1}), "vertex %d: %v", i, v.Tangent)
	}

	p := newProgram(t, dev)
	m.Draw(p)
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, mat.Normal.ID(), dev.Draws[0].Textures[gpu.UnitNormal])

	v, _ := dev.Value(p.ID(), "hasNormal")
	assert.Equal(t, int32(1), v)
	v, _ = dev.Value(p.ID(), "normal0")
	assert.Equal(t, int32(gpu.UnitNormal), v)
	v, _ = dev.Value(p.ID(), "normalScale")
	assert.Equal(t, float32(0.5), v)
}

func TestDrawLeavesCameraUniformsAlone(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, triangleDoc(), t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	p := newProgram(t, dev)
	m.Draw(p)
	require.Len(t, dev.Draws, 1)
	assert.Empty(t, dev.WritesTo("camMatrix"))
	assert.Empty(t, dev.WritesTo("camPos"))

	v, _ := dev.Value(p.ID(), "hasNormal")
	assert.Equal(t, int32(0), v)
}

func TestUndecodableTextureFallsBackToBaseColor(t *testing.T) {
	doc := triangleDoc()
	mat := addTexturedMaterial(t, doc, []byte("not an image"))
	doc.Meshes[0].Primitives[0].Material = gltf.Index(mat)

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	assert.Nil(t, m.Materials()[0].Diffuse)
	assert.Zero(t, m.TextureCount())
}

func TestMaxTextureSizeDownscales(t *testing.T) {
	doc := triangleDoc()
	mat := addTexturedMaterial(t, doc, pngBytes(t, 8, 4))
	doc.Meshes[0].Primitives[0].Material = gltf.Index(mat)

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{MaxTextureSize: 4})
	require.NoError(t, err)
	defer m.Destroy()

	r, ok := dev.TextureSize(m.Materials()[0].Diffuse.ID())
	require.True(t, ok)
	assert.Equal(t, 4, r.Dx())
	assert.Equal(t, 2, r.Dy())
}

func TestMissingIndicesAreSequential(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Mode:       gltf.PrimitiveTriangleStrip,
		Attributes: map[string]int{gltf.POSITION: pos},
	}}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)
	defer m.Destroy()

	m.Draw(newProgram(t, dev))
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, int32(4), dev.Draws[0].Count)
	assert.Equal(t, gpu.TriangleStrip, dev.Draws[0].Topology)
}

func TestDestroyReleasesEverythingOnce(t *testing.T) {
	doc := triangleDoc()
	mat := addTexturedMaterial(t, doc, pngBytes(t, 2, 2))
	doc.Meshes[0].Primitives[0].Material = gltf.Index(mat)

	dev := gputest.NewDevice()
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	require.NoError(t, err)

	m.Destroy()
	m.Destroy()
	requireNoLiveResources(t, dev)
	assert.Zero(t, dev.DoubleFrees)
	assert.Zero(t, m.Draw(newProgram(t, dev)))
}

func TestLoadModelMissingFile(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := scene.LoadModel(dev, filepath.Join(t.TempDir(), "missing.gltf"), scene.LoadOptions{})
	assert.Nil(t, m)

	var ae *scene.AssetLoadError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Path, "missing.gltf")
	requireNoLiveResources(t, dev)
}

func TestLoadModelMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gltf")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset": {"version": `), 0o644))

	dev := gputest.NewDevice()
	m, err := scene.LoadModel(dev, path, scene.LoadOptions{})
	assert.Nil(t, m)
	var ae *scene.AssetLoadError
	assert.True(t, errors.As(err, &ae))
}

func TestLoadModelRejectsNullEntries(t *testing.T) {
	tests := map[string]string{
		"mesh":      `{"asset":{"version":"2.0"},"meshes":[null],"nodes":[{"mesh":0}],"scenes":[{"nodes":[0]}]}`,
		"primitive": `{"asset":{"version":"2.0"},"meshes":[{"primitives":[null]}],"nodes":[{"mesh":0}],"scenes":[{"nodes":[0]}]}`,
		"scene":     `{"asset":{"version":"2.0"},"scene":0,"scenes":[null]}`,
		"node":      `{"asset":{"version":"2.0"},"nodes":[null],"scenes":[{"nodes":[0]}]}`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "null.gltf")
			require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

			dev := gputest.NewDevice()
			m, err := scene.LoadModel(dev, path, scene.LoadOptions{})
			assert.Nil(t, m)
			var ae *scene.AssetLoadError
			require.True(t, errors.As(err, &ae), "got %v", err)
			requireNoLiveResources(t, dev)
		})
	}
}

func TestLoadModelRejectsInvalidAssets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *gltf.Document)
		want   string
	}{
		{
			name: "points",
			mutate: func(doc *gltf.Document) {
				doc.Meshes[0].Primitives[0].Mode = gltf.PrimitivePoints
			},
			want: "unsupported primitive mode",
		},
		{
			name: "lines",
			mutate: func(doc *gltf.Document) {
				doc.Meshes[0].Primitives[0].Mode = gltf.PrimitiveLines
			},
			want: "unsupported primitive mode",
		},
		{
			name: "no position",
			mutate: func(doc *gltf.Document) {
				delete(doc.Meshes[0].Primitives[0].Attributes, gltf.POSITION)
			},
			want: "no POSITION",
		},
		{
			name: "index out of range",
			mutate: func(doc *gltf.Document) {
				idx := modeler.WriteIndices(doc, []uint16{0, 1, 7})
				doc.Meshes[0].Primitives[0].Indices = gltf.Index(idx)
			},
			want: "out of range",
		},
		{
			name: "bad material",
			mutate: func(doc *gltf.Document) {
				doc.Meshes[0].Primitives[0].Material = gltf.Index(4)
			},
			want: "material index 4",
		},
		{
			name: "bad mesh",
			mutate: func(doc *gltf.Document) {
				doc.Nodes[0].Mesh = gltf.Index(9)
			},
			want: "mesh index 9",
		},
		{
			name: "null mesh",
			mutate: func(doc *gltf.Document) {
				doc.Meshes[0] = nil
			},
			want: "mesh index 0",
		},
		{
			name: "null primitive",
			mutate: func(doc *gltf.Document) {
				doc.Meshes[0].Primitives[1] = nil
			},
			want: "primitive 1: missing",
		},
		{
			name: "null scene",
			mutate: func(doc *gltf.Document) {
				doc.Scenes[0] = nil
			},
			want: "scene index 0",
		},
		{
			name: "null node",
			mutate: func(doc *gltf.Document) {
				doc.Nodes = append(doc.Nodes, nil)
			},
			want: "node 1: missing",
		},
		{
			name: "root listed twice",
			mutate: func(doc *gltf.Document) {
				doc.Scenes[0].Nodes = []int{0, 0}
			},
			want: "listed twice",
		},
		{
			name: "cycle",
			mutate: func(doc *gltf.Document) {
				doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "x", Children: []int{2}}, &gltf.Node{Name: "y", Children: []int{1}})
			},
			want: "cyclic",
		},
		{
			name: "two parents",
			mutate: func(doc *gltf.Document) {
				doc.Nodes = append(doc.Nodes, &gltf.Node{Children: []int{0}})
				doc.Scenes[0].Nodes = []int{1}
				doc.Nodes = append(doc.Nodes, &gltf.Node{Children: []int{0}})
			},
			want: "two parents",
		},
		{
			name: "root with parent",
			mutate: func(doc *gltf.Document) {
				doc.Nodes = append(doc.Nodes, &gltf.Node{Children: []int{0}})
				doc.Scenes[0].Nodes = []int{0, 1}
			},
			want: "has parent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := triangleDoc()
			// A second, valid primitive that uploads before the broken one.
			doc.Meshes[0].Primitives = append([]*gltf.Primitive{triangle(doc)}, doc.Meshes[0].Primitives...)
			tt.mutate(doc)

			dev := gputest.NewDevice()
			m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
			assert.Nil(t, m)
			var ae *scene.AssetLoadError
			require.True(t, errors.As(err, &ae), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			requireNoLiveResources(t, dev)
		})
	}
}

func TestLoadFailureMidUploadReleasesPartialResources(t *testing.T) {
	doc := triangleDoc()
	mat := addTexturedMaterial(t, doc, pngBytes(t, 2, 2))
	first := triangle(doc)
	first.Material = gltf.Index(mat)
	doc.Meshes[0].Primitives = append([]*gltf.Primitive{first}, doc.Meshes[0].Primitives...)

	dev := gputest.NewDevice()
	dev.FailGeometryAfter = 1
	m, err := scene.NewModel(dev, doc, t.TempDir(), scene.LoadOptions{})
	assert.Nil(t, m)
	var ae *scene.AssetLoadError
	require.True(t, errors.As(err, &ae))
	requireNoLiveResources(t, dev)
	assert.Zero(t, dev.DoubleFrees)
}
