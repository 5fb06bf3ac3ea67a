package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/gpu"
)

// LightType selects the lighting model in the fragment shader.
type LightType int32

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	}
	return fmt.Sprintf("LightType(%d)", int32(t))
}

// ParseLightType accepts the names returned by String.
func ParseLightType(s string) (LightType, error) {
	for _, t := range []LightType{LightDirectional, LightPoint, LightSpot} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown light type %q", s)
}

// Light is the single scene light. It is plain data; the control panel
// mutates it and the frame loop exports it.
type Light struct {
	Type      LightType
	Color     mgl32.Vec3
	Intensity float32
	Position  mgl32.Vec3
	Direction mgl32.Vec3
}

// DefaultLight is a white point light at (0.5, 0.5, 0.5).
func DefaultLight() Light {
	return Light{
		Type:      LightPoint,
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1,
		Position:  mgl32.Vec3{0.5, 0.5, 0.5},
		Direction: mgl32.Vec3{0, -1, 0},
	}
}

// Export writes the light to the active program. lightColor is sent as an
// opaque vec4.
func (l Light) Export(p *gpu.ShaderProgram) {
	p.SetVec3(gpu.UniformLightPos, l.Position)
	p.SetVec4(gpu.UniformLightColor, l.Color.Vec4(1))
	p.SetFloat(gpu.UniformLightIntensity, l.Intensity)
	p.SetInt(gpu.UniformLightType, int32(l.Type))
	p.SetVec3(gpu.UniformLightDir, l.Direction)
}
