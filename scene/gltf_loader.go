package scene

import (
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"mesh-viewer/core"
	"mesh-viewer/gpu"
)

// loader converts one glTF document into a Model. Meshes, materials and
// textures are converted on first reference and cached by document index,
// so each is uploaded once however many nodes share it.
type loader struct {
	dev  gpu.Device
	doc  *gltf.Document
	dir  string
	opts LoadOptions

	model     *Model
	meshes    map[int][]*Primitive
	materials map[int]*Material
	textures  map[int]*Texture
	fallback  *Material
}

func newModel(dev gpu.Device, doc *gltf.Document, path, dir string, opts LoadOptions) (*Model, error) {
	if doc == nil {
		return nil, &AssetLoadError{Path: path, Err: fmt.Errorf("nil document")}
	}
	l := &loader{
		dev:       dev,
		doc:       doc,
		dir:       dir,
		opts:      opts,
		model:     &Model{dev: dev, path: path, root: NewNode("root")},
		meshes:    make(map[int][]*Primitive),
		materials: make(map[int]*Material),
		textures:  make(map[int]*Texture),
	}
	if err := l.build(); err != nil {
		// Release whatever made it onto the device before the failure.
		l.model.Destroy()
		return nil, &AssetLoadError{Path: path, Err: err}
	}
	slog.Info("model loaded", "path", path,
		"nodes", l.model.nodes,
		"primitives", len(l.model.buffers),
		"textures", len(l.model.textures),
		"materials", len(l.model.materials))
	return l.model, nil
}

// ── Graph ─────────────────────────────────────────────────────────────────────

func (l *loader) build() error {
	roots, err := l.sceneRoots()
	if err != nil {
		return err
	}
	for _, idx := range roots {
		n, err := l.node(idx)
		if err != nil {
			return err
		}
		l.model.root.AddChild(n)
	}
	return nil
}

// sceneRoots validates the node graph and returns the root nodes of the
// default scene. Every node may have at most one parent, roots may have
// none, and no node may be its own ancestor.
func (l *loader) sceneRoots() ([]int, error) {
	nodes := l.doc.Nodes
	parent := make([]int, len(nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("node %d: missing", i)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			if c == i {
				return nil, fmt.Errorf("node %d: is its own child", i)
			}
			if parent[c] >= 0 {
				return nil, fmt.Errorf("node %d: has two parents (%d and %d)", c, parent[c], i)
			}
			parent[c] = i
		}
	}
	// With one parent per node, a cycle shows up as a parent chain longer
	// than the node count.
	for i := range nodes {
		steps := 0
		for p := parent[i]; p >= 0; p = parent[p] {
			if p == i || steps > len(nodes) {
				return nil, fmt.Errorf("node %d: cyclic hierarchy", i)
			}
			steps++
		}
	}

	if l.doc.Scene != nil || len(l.doc.Scenes) > 0 {
		sceneIdx := 0
		if l.doc.Scene != nil {
			sceneIdx = *l.doc.Scene
		}
		if sceneIdx < 0 || sceneIdx >= len(l.doc.Scenes) || l.doc.Scenes[sceneIdx] == nil {
			return nil, fmt.Errorf("scene index %d out of range", sceneIdx)
		}
		roots := l.doc.Scenes[sceneIdx].Nodes
		seen := make(map[int]bool, len(roots))
		for _, r := range roots {
			if r < 0 || r >= len(nodes) {
				return nil, fmt.Errorf("scene %d: node index %d out of range", sceneIdx, r)
			}
			if parent[r] >= 0 {
				return nil, fmt.Errorf("scene %d: root node %d has parent %d", sceneIdx, r, parent[r])
			}
			if seen[r] {
				return nil, fmt.Errorf("scene %d: root node %d listed twice", sceneIdx, r)
			}
			seen[r] = true
		}
		return roots, nil
	}

	// No scene: every parentless node is a root.
	var roots []int
	for i := range nodes {
		if parent[i] < 0 {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (l *loader) node(idx int) (*Node, error) {
	gn := l.doc.Nodes[idx]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	n := NewNode(name)
	l.model.nodes++

	m := gn.MatrixOrDefault()
	for i := range m {
		n.Matrix[i] = float32(m[i]) // both column-major
	}
	t := gn.TranslationOrDefault()
	n.Translation = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	r := gn.RotationOrDefault() // [x, y, z, w]
	n.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	s := gn.ScaleOrDefault()
	n.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}

	if gn.Mesh != nil {
		prims, err := l.mesh(*gn.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		n.Primitives = prims
	}

	for _, c := range gn.Children {
		child, err := l.node(c)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// ── Meshes ────────────────────────────────────────────────────────────────────

func (l *loader) mesh(idx int) ([]*Primitive, error) {
	if prims, ok := l.meshes[idx]; ok {
		return prims, nil
	}
	if idx < 0 || idx >= len(l.doc.Meshes) || l.doc.Meshes[idx] == nil {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	gm := l.doc.Meshes[idx]
	prims := make([]*Primitive, 0, len(gm.Primitives))
	for pi, gp := range gm.Primitives {
		if gp == nil {
			return nil, fmt.Errorf("mesh %d primitive %d: missing", idx, pi)
		}
		p, err := l.primitive(gp)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", idx, pi, err)
		}
		prims = append(prims, p)
	}
	l.meshes[idx] = prims
	return prims, nil
}

func topologyOf(mode gltf.PrimitiveMode) (gpu.Topology, error) {
	switch mode {
	case gltf.PrimitiveTriangles:
		return gpu.Triangles, nil
	case gltf.PrimitiveTriangleStrip:
		return gpu.TriangleStrip, nil
	case gltf.PrimitiveTriangleFan:
		return gpu.TriangleFan, nil
	}
	return 0, fmt.Errorf("unsupported primitive mode %d", mode)
}

func (l *loader) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(l.doc.Accessors) || l.doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return l.doc.Accessors[idx], nil
}

// primitive reads the vertex attributes of gp, uploads them and resolves
// its material.
func (l *loader) primitive(gp *gltf.Primitive) (*Primitive, error) {
	topology, err := topologyOf(gp.Mode)
	if err != nil {
		return nil, err
	}
	vertices, err := l.vertices(gp.Attributes)
	if err != nil {
		return nil, err
	}

	var indices []uint32
	if gp.Indices != nil {
		acr, err := l.accessor(*gp.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		if indices, err = modeler.ReadIndices(l.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	var mat *Material
	if gp.Material != nil {
		if mat, err = l.material(*gp.Material); err != nil {
			return nil, err
		}
	} else {
		mat = l.defaultMaterial()
	}

	// Normal maps need a tangent frame; generate one when the asset has none.
	_, hasTangents := gp.Attributes[gltf.TANGENT]
	_, hasUVs := gp.Attributes[gltf.TEXCOORD_0]
	if mat.Normal != nil && !hasTangents && hasUVs {
		computeTangents(vertices, indices, topology)
	}

	buf, err := gpu.NewGeometryBuffer(l.dev, vertices, indices, topology)
	if err != nil {
		return nil, err
	}
	l.model.buffers = append(l.model.buffers, buf)
	return &Primitive{Buffer: buf, Material: mat}, nil
}

// vertices interleaves the attributes of one primitive. POSITION is
// required; missing normals point up, missing colors are white.
func (l *loader) vertices(attrs gltf.PrimitiveAttributes) ([]core.Vertex, error) {
	posIdx, ok := attrs[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	acr, err := l.accessor(posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(l.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("positions: empty")
	}

	var (
		normals  [][3]float32
		uvs      [][2]float32
		colors   [][4]uint8
		tangents [][4]float32
	)
	if idx, ok := attrs[gltf.NORMAL]; ok {
		if acr, err = l.accessor(idx); err == nil {
			normals, err = modeler.ReadNormal(l.doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := attrs[gltf.TEXCOORD_0]; ok {
		if acr, err = l.accessor(idx); err == nil {
			uvs, err = modeler.ReadTextureCoord(l.doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}
	if idx, ok := attrs[gltf.COLOR_0]; ok {
		if acr, err = l.accessor(idx); err == nil {
			colors, err = modeler.ReadColor(l.doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("colors: %w", err)
		}
	}
	if idx, ok := attrs[gltf.TANGENT]; ok {
		if acr, err = l.accessor(idx); err == nil {
			tangents, err = modeler.ReadTangent(l.doc, acr, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: p,
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    mgl32.Vec4{1, 1, 1, 1},
			Tangent:  mgl32.Vec4{1, 0, 0, 1},
		}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		if i < len(colors) {
			c := colors[i]
			v.Color = mgl32.Vec4{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
		}
		if i < len(tangents) {
			v.Tangent = tangents[i]
		}
		verts[i] = v
	}
	return verts, nil
}

// ── Materials ─────────────────────────────────────────────────────────────────

func (l *loader) defaultMaterial() *Material {
	if l.fallback == nil {
		l.fallback = DefaultMaterial()
		l.model.materials = append(l.model.materials, l.fallback)
	}
	return l.fallback
}

func (l *loader) material(idx int) (*Material, error) {
	if mat, ok := l.materials[idx]; ok {
		return mat, nil
	}
	if idx < 0 || idx >= len(l.doc.Materials) || l.doc.Materials[idx] == nil {
		return nil, fmt.Errorf("material index %d out of range", idx)
	}
	gm := l.doc.Materials[idx]
	mat := DefaultMaterial()
	mat.Name = gm.Name
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material_%d", idx)
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.BaseColor = core.Color{
			R: float32(cf[0]), G: float32(cf[1]),
			B: float32(cf[2]), A: float32(cf[3]),
		}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())

		var err error
		if pbr.BaseColorTexture != nil {
			if mat.Diffuse, err = l.texture(pbr.BaseColorTexture.Index); err != nil {
				return nil, fmt.Errorf("material %q: %w", mat.Name, err)
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			if mat.Specular, err = l.texture(pbr.MetallicRoughnessTexture.Index); err != nil {
				return nil, fmt.Errorf("material %q: %w", mat.Name, err)
			}
		}
	}
	if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
		var err error
		if mat.Normal, err = l.texture(*nt.Index); err != nil {
			return nil, fmt.Errorf("material %q: normal: %w", mat.Name, err)
		}
		mat.NormalScale = float32(nt.ScaleOrDefault())
	}

	l.materials[idx] = mat
	l.model.materials = append(l.model.materials, mat)
	return mat, nil
}

// ── Textures ──────────────────────────────────────────────────────────────────

// texture uploads glTF texture idx. A bad index is an error; an image that
// cannot be read or decoded is logged and yields nil, so the material
// falls back to its base color.
func (l *loader) texture(idx int) (*Texture, error) {
	if tex, ok := l.textures[idx]; ok {
		return tex, nil
	}
	if idx < 0 || idx >= len(l.doc.Textures) || l.doc.Textures[idx] == nil {
		return nil, fmt.Errorf("texture index %d out of range", idx)
	}
	gt := l.doc.Textures[idx]
	if gt.Source == nil {
		l.textures[idx] = nil
		return nil, nil
	}
	src := *gt.Source
	if src < 0 || src >= len(l.doc.Images) || l.doc.Images[src] == nil {
		return nil, fmt.Errorf("texture %d: image index %d out of range", idx, src)
	}
	gi := l.doc.Images[src]
	name := gi.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", src)
	}

	img, err := l.decodeImage(gi)
	if err != nil {
		slog.Warn("texture skipped", "image", name, "err", err)
		l.textures[idx] = nil
		return nil, nil
	}
	tex, err := NewTexture(l.dev, name, img)
	if err != nil {
		return nil, err
	}
	l.textures[idx] = tex
	l.model.textures = append(l.model.textures, tex)
	return tex, nil
}

func (l *loader) decodeImage(gi *gltf.Image) (*image.RGBA, error) {
	maxSize := l.opts.MaxTextureSize
	switch {
	case gi.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		bv := *gi.BufferView
		if bv < 0 || bv >= len(l.doc.BufferViews) || l.doc.BufferViews[bv] == nil {
			return nil, fmt.Errorf("buffer view %d out of range", bv)
		}
		raw, err := modeler.ReadBufferView(l.doc, l.doc.BufferViews[bv])
		if err != nil {
			return nil, fmt.Errorf("buffer view %d: %w", bv, err)
		}
		return DecodeImage(raw, maxSize)
	case gi.IsEmbeddedResource():
		raw, err := gi.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return DecodeImage(raw, maxSize)
	case gi.URI != "":
		uri, err := url.PathUnescape(gi.URI)
		if err != nil {
			uri = gi.URI
		}
		return LoadImage(filepath.Join(l.dir, filepath.FromSlash(uri)), maxSize)
	}
	return nil, fmt.Errorf("image has no data")
}
