package scene

import "mesh-viewer/core"

// Material describes surface appearance for a primitive. Materials are
// shared by pointer between primitives and not modified after load.
type Material struct {
	Name      string
	BaseColor core.Color // multiplied with Diffuse when set

	// Diffuse is sampled from unit 0 as diffuse0 (glTF baseColorTexture).
	Diffuse *Texture
	// Specular is sampled from unit 1 as specular0 (glTF
	// metallicRoughnessTexture: G = roughness, B = metallic).
	Specular *Texture
	// Normal is a tangent-space normal map sampled from unit 2 as normal0.
	Normal *Texture

	Metallic    float32
	Roughness   float32
	NormalScale float32 // scales the XY of sampled normals
}

// DefaultMaterial returns a plain white untextured material. Primitives
// without a material reference use it.
func DefaultMaterial() *Material {
	return &Material{
		Name:        "Default",
		BaseColor:   core.ColorWhite,
		Metallic:    1,
		Roughness:   1,
		NormalScale: 1,
	}
}
