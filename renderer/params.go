package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/scene"
)

// Ranges of the control surface.
const (
	MinSize        = 0.5
	MaxSize        = 5.0
	MinCameraSpeed = 0.0
	MaxCameraSpeed = 2.0
	MinFOV         = 1.0
	MaxFOV         = 100.0
	MinIntensity   = 0.0
	MaxIntensity   = 1.0
)

// Params is the state the control panel edits between frames. The engine
// reads it every frame and never changes it.
type Params struct {
	ShowModel   bool
	Size        float32    // uniform scale applied after the model transform
	Color       mgl32.Vec3 // tint, exported as color/imguiColor
	CameraSpeed float32
	FOV         float32 // degrees
	Light       scene.Light
}

func DefaultParams() Params {
	return Params{
		ShowModel:   true,
		Size:        1,
		Color:       mgl32.Vec3{1, 1, 1},
		CameraSpeed: 1,
		FOV:         45,
		Light:       scene.DefaultLight(),
	}
}

// Clamp forces every field into its control-surface range.
func (p *Params) Clamp() {
	p.Size = mgl32.Clamp(p.Size, MinSize, MaxSize)
	for i := range p.Color {
		p.Color[i] = mgl32.Clamp(p.Color[i], 0, 1)
	}
	p.CameraSpeed = mgl32.Clamp(p.CameraSpeed, MinCameraSpeed, MaxCameraSpeed)
	p.FOV = mgl32.Clamp(p.FOV, MinFOV, MaxFOV)

	p.Light.Intensity = mgl32.Clamp(p.Light.Intensity, MinIntensity, MaxIntensity)
	for i := range p.Light.Color {
		p.Light.Color[i] = mgl32.Clamp(p.Light.Color[i], 0, 1)
	}
	if p.Light.Type < scene.LightDirectional || p.Light.Type > scene.LightSpot {
		p.Light.Type = scene.LightPoint
	}
}
