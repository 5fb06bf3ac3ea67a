package scene_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/require"

	"mesh-viewer/gpu"
	"mesh-viewer/gpu/gputest"
)

const sceneVert = `
#version 410 core
layout(location = 0) in vec3 aPos;
uniform mat4 camMatrix;
uniform mat4 model;
uniform float size;
void main() { gl_Position = camMatrix * model * vec4(size * aPos, 1.0); }
`

const sceneFrag = `
#version 410 core
out vec4 FragColor;
uniform vec3 camPos;
uniform vec4 baseColor;
uniform bool hasDiffuse;
uniform bool hasSpecular;
uniform sampler2D diffuse0;
uniform sampler2D specular0;
uniform bool hasNormal;
uniform sampler2D normal0;
uniform float normalScale;
uniform vec4 lightColor;
uniform vec3 lightPos;
uniform vec3 lightDir;
uniform float lightIntensity;
uniform int lightType;
void main() { FragColor = baseColor * lightColor * lightIntensity; }
`

func newProgram(t *testing.T, dev *gputest.Device) *gpu.ShaderProgram {
	t.Helper()
	p, err := gpu.NewShaderProgram(dev, sceneVert, sceneFrag)
	require.NoError(t, err)
	return p
}

// triangleDoc returns a document whose single mesh has one triangle.
func triangleDoc() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{Name: "tri", Primitives: []*gltf.Primitive{triangle(doc)}}}
	doc.Nodes = []*gltf.Node{{Name: "tri", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func triangle(doc *gltf.Document) *gltf.Primitive {
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	return &gltf.Primitive{
		Indices:    gltf.Index(idx),
		Attributes: map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 60), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// addTexturedMaterial embeds data as an image and returns the index of a
// material using it as base color texture.
func addTexturedMaterial(t *testing.T, doc *gltf.Document, data []byte) int {
	t.Helper()
	img, err := modeler.WriteImage(doc, "albedo", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: "textured",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: len(doc.Textures) - 1},
		},
	})
	return len(doc.Materials) - 1
}

// addNormalMappedMaterial embeds data as an image and returns the index of a
// material using it as normal texture.
func addNormalMappedMaterial(t *testing.T, doc *gltf.Document, data []byte, scale float64) int {
	t.Helper()
	img, err := modeler.WriteImage(doc, "normal", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:          "bumpy",
		NormalTexture: &gltf.NormalTexture{Index: gltf.Index(len(doc.Textures) - 1), Scale: &scale},
	})
	return len(doc.Materials) - 1
}

func saveGLB(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func requireNoLiveResources(t *testing.T, dev *gputest.Device) {
	t.Helper()
	_, _, geometries, textures := dev.Live()
	require.Zero(t, geometries, "geometry buffers leaked")
	require.Zero(t, textures, "textures leaked")
}
