package gpu

// Uniform is one of the uniforms the viewer knows how to feed. Locations are
// resolved once per program at link time, so per-frame writes never hash a
// name.
type Uniform int

const (
	UniformCamMatrix Uniform = iota
	UniformCamPos
	UniformModel
	UniformSize
	UniformColor
	UniformLightColor
	UniformLightPos
	UniformLightDir
	UniformLightIntensity
	UniformLightType
	UniformBaseColor
	UniformHasDiffuse
	UniformHasSpecular
	UniformHasNormal
	UniformDiffuse0
	UniformSpecular0
	UniformNormal0
	UniformNormalScale

	uniformCount
)

// uniformNames lists the GLSL names of each uniform. Shaders written against
// the control panel used imguiColor and imguiLightColor for the same values,
// so those stay recognized as aliases.
var uniformNames = [uniformCount][]string{
	UniformCamMatrix:      {"camMatrix"},
	UniformCamPos:         {"camPos"},
	UniformModel:          {"model"},
	UniformSize:           {"size"},
	UniformColor:          {"color", "imguiColor"},
	UniformLightColor:     {"lightColor", "imguiLightColor"},
	UniformLightPos:       {"lightPos"},
	UniformLightDir:       {"lightDir"},
	UniformLightIntensity: {"lightIntensity"},
	UniformLightType:      {"lightType"},
	UniformBaseColor:      {"baseColor"},
	UniformHasDiffuse:     {"hasDiffuse"},
	UniformHasSpecular:    {"hasSpecular"},
	UniformHasNormal:      {"hasNormal"},
	UniformDiffuse0:       {"diffuse0"},
	UniformSpecular0:      {"specular0"},
	UniformNormal0:        {"normal0"},
	UniformNormalScale:    {"normalScale"},
}

// Names returns the GLSL names u is written under.
func (u Uniform) Names() []string {
	if u < 0 || u >= uniformCount {
		return nil
	}
	return uniformNames[u]
}

func (u Uniform) String() string {
	if names := u.Names(); len(names) > 0 {
		return names[0]
	}
	return "unknown"
}

// Uniforms returns every recognized uniform in declaration order.
func Uniforms() []Uniform {
	all := make([]Uniform, uniformCount)
	for i := range all {
		all[i] = Uniform(i)
	}
	return all
}

// Fixed texture units.
const (
	UnitDiffuse  uint32 = 0
	UnitSpecular uint32 = 1
	UnitNormal   uint32 = 2
)
