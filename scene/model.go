package scene

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"mesh-viewer/gpu"
)

// AssetLoadError reports why a model could not be built. No model and no
// device resources survive it.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load asset: %v", e.Err)
	}
	return fmt.Sprintf("load asset %q: %v", e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// LoadOptions tune asset loading.
type LoadOptions struct {
	// MaxTextureSize caps the width and height of uploaded textures.
	// Zero keeps every image at its original size.
	MaxTextureSize int
}

// Model is a loaded scene: a node tree under one synthetic root, plus the
// buffers, textures and materials it owns.
type Model struct {
	dev  gpu.Device
	path string
	root *Node

	buffers   []*gpu.GeometryBuffer
	textures  []*Texture
	materials []*Material
	nodes     int
	destroyed bool
}

// Root returns the synthetic root; its children are the scene's root nodes.
func (m *Model) Root() *Node { return m.root }

// Path returns the file the model was loaded from, if any.
func (m *Model) Path() string { return m.path }

// NodeCount returns the number of asset nodes, excluding the synthetic root.
func (m *Model) NodeCount() int { return m.nodes }

// PrimitiveCount returns the number of uploaded geometry buffers.
func (m *Model) PrimitiveCount() int { return len(m.buffers) }

// TextureCount returns the number of uploaded textures.
func (m *Model) TextureCount() int { return len(m.textures) }

// Materials returns the materials referenced by the model.
func (m *Model) Materials() []*Material { return m.materials }

// Draw activates p and draws every primitive in the tree, depth-first in
// document order. World transforms are recomputed from the node transforms
// on every call. It returns the number of draw calls issued. Camera uniforms
// are left to Camera.Export.
func (m *Model) Draw(p *gpu.ShaderProgram) int {
	if m.destroyed {
		return 0
	}
	p.Activate()
	p.SetInt(gpu.UniformDiffuse0, int32(gpu.UnitDiffuse))
	p.SetInt(gpu.UniformSpecular0, int32(gpu.UnitSpecular))
	p.SetInt(gpu.UniformNormal0, int32(gpu.UnitNormal))

	draws := 0
	m.root.Walk(mgl32.Ident4(), func(n *Node, world mgl32.Mat4) {
		for _, prim := range n.Primitives {
			mat := prim.Material
			p.SetMat4(gpu.UniformModel, world)
			p.SetVec4(gpu.UniformBaseColor, mat.BaseColor.Vec4())
			p.SetBool(gpu.UniformHasDiffuse, mat.Diffuse != nil)
			p.SetBool(gpu.UniformHasSpecular, mat.Specular != nil)
			p.SetBool(gpu.UniformHasNormal, mat.Normal != nil)
			if mat.Diffuse != nil {
				mat.Diffuse.Bind(gpu.UnitDiffuse)
			}
			if mat.Specular != nil {
				mat.Specular.Bind(gpu.UnitSpecular)
			}
			if mat.Normal != nil {
				p.SetFloat(gpu.UniformNormalScale, mat.NormalScale)
				mat.Normal.Bind(gpu.UnitNormal)
			}
			prim.Buffer.Draw()
			draws++
		}
	})
	return draws
}

// Destroy releases every buffer and texture. Later calls are no-ops.
func (m *Model) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	for _, b := range m.buffers {
		b.Release()
	}
	for _, t := range m.textures {
		t.Release()
	}
	m.buffers = nil
	m.textures = nil
}

// LoadModel opens a .gltf or .glb file and uploads its geometry and textures.
func LoadModel(dev gpu.Device, path string, opts LoadOptions) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &AssetLoadError{Path: path, Err: err}
	}
	slog.Debug("gltf parsed", "path", path,
		"nodes", len(doc.Nodes), "meshes", len(doc.Meshes), "materials", len(doc.Materials))
	return newModel(dev, doc, path, filepath.Dir(path), opts)
}

// NewModel builds a model from an already parsed document. Relative image
// URIs are resolved against dir.
func NewModel(dev gpu.Device, doc *gltf.Document, dir string, opts LoadOptions) (*Model, error) {
	return newModel(dev, doc, "", dir, opts)
}
