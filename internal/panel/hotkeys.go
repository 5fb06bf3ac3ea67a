// Package panel implements the viewer's control panel as keyboard shortcuts
// with a summary in the window title.
package panel

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/core"
	"mesh-viewer/renderer"
	"mesh-viewer/scene"
)

// Window is what the panel needs from the platform window.
type Window interface {
	core.Poller
	SetTitle(title string)
	SetShouldClose(v bool)
}

// Step sizes for one key press.
const (
	SizeStep      = 0.25
	SpeedStep     = 0.1
	FOVStep       = 5.0
	ScrollFOV     = 2.0 // degrees per scroll notch
	IntensityStep = 0.1

	// CoarseFactor multiplies every step while shift is held.
	CoarseFactor = 4
)

// Palettes cycled by C and L.
var (
	ModelColors = []mgl32.Vec3{
		{1, 1, 1},
		{0.85, 0.55, 0.35},
		{0.45, 0.70, 0.95},
		{0.55, 0.85, 0.45},
		{0.90, 0.85, 0.40},
	}
	LightColors = []mgl32.Vec3{
		{1, 1, 1},
		{1.0, 0.85, 0.65}, // warm
		{0.70, 0.80, 1.0}, // cool
	}
)

var trackedKeys = []int{
	core.KeyH, core.KeyMinus, core.KeyEqual, core.KeyComma, core.KeyPeriod,
	core.KeyLeftBracket, core.KeyRightBracket, core.KeyC, core.KeyL,
	core.Key1, core.Key2, core.Key3, core.KeyI, core.KeyK, core.KeyEscape,
}

// Hotkeys edits renderer.Params from key presses:
//
//	H      show or hide the model
//	- =    model size
//	, .    camera speed
//	[ ]    field of view (also the scroll wheel)
//	C      cycle model color
//	L      cycle light color
//	1 2 3  directional, point or spot light
//	I K    light intensity
//	Esc    quit
//
// Holding shift makes the size, speed, FOV and intensity steps coarser.
type Hotkeys struct {
	win   Window
	input *core.InputManager

	title     string
	modelPath string
	summary   string
	shown     string

	colorIdx int
	lightIdx int
}

// NewHotkeys creates a panel that polls win. title prefixes the summary and
// modelPath is shown in it.
func NewHotkeys(win Window, title, modelPath string) *Hotkeys {
	return &Hotkeys{
		win:       win,
		input:     core.NewInputManager(win, trackedKeys...),
		title:     title,
		modelPath: modelPath,
	}
}

// AddScroll feeds wheel movement; wire it to the window scroll callback.
func (h *Hotkeys) AddScroll(yoff float64) { h.input.AddScroll(yoff) }

// WantsPointer is always false; the panel has no pointer widgets, so the
// camera keeps the mouse.
func (h *Hotkeys) WantsPointer() bool { return false }

// Build applies this frame's key presses to p and clamps the result.
func (h *Hotkeys) Build(p *renderer.Params) {
	in := h.input
	in.Update()
	defer in.EndFrame()

	if in.IsKeyPressed(core.KeyEscape) {
		h.win.SetShouldClose(true)
	}
	if in.IsKeyPressed(core.KeyH) {
		p.ShowModel = !p.ShowModel
	}

	scale := float32(1)
	if in.ShiftDown {
		scale = CoarseFactor
	}

	if in.IsKeyPressed(core.KeyMinus) {
		p.Size -= SizeStep * scale
	}
	if in.IsKeyPressed(core.KeyEqual) {
		p.Size += SizeStep * scale
	}
	if in.IsKeyPressed(core.KeyComma) {
		p.CameraSpeed -= SpeedStep * scale
	}
	if in.IsKeyPressed(core.KeyPeriod) {
		p.CameraSpeed += SpeedStep * scale
	}
	if in.IsKeyPressed(core.KeyLeftBracket) {
		p.FOV -= FOVStep * scale
	}
	if in.IsKeyPressed(core.KeyRightBracket) {
		p.FOV += FOVStep * scale
	}
	// Wheel up zooms in.
	p.FOV -= float32(in.ScrollDelta) * ScrollFOV

	if in.IsKeyPressed(core.KeyC) {
		h.colorIdx = (h.colorIdx + 1) % len(ModelColors)
		p.Color = ModelColors[h.colorIdx]
	}
	if in.IsKeyPressed(core.KeyL) {
		h.lightIdx = (h.lightIdx + 1) % len(LightColors)
		p.Light.Color = LightColors[h.lightIdx]
	}

	switch {
	case in.IsKeyPressed(core.Key1):
		p.Light.Type = scene.LightDirectional
	case in.IsKeyPressed(core.Key2):
		p.Light.Type = scene.LightPoint
	case in.IsKeyPressed(core.Key3):
		p.Light.Type = scene.LightSpot
	}
	if in.IsKeyPressed(core.KeyI) {
		p.Light.Intensity += IntensityStep * scale
	}
	if in.IsKeyPressed(core.KeyK) {
		p.Light.Intensity -= IntensityStep * scale
	}

	p.Clamp()
	h.summary = Summary(h.title, h.modelPath, p)
}

// Render pushes the summary to the window title when it changed.
func (h *Hotkeys) Render() {
	if h.summary == h.shown {
		return
	}
	h.win.SetTitle(h.summary)
	h.shown = h.summary
}

// Summary formats the title line for p.
func Summary(title, modelPath string, p *renderer.Params) string {
	model := "hidden"
	if p.ShowModel {
		model = fmt.Sprintf("size %.2f", p.Size)
	}
	parts := []string{
		title,
		modelPath,
		model,
		fmt.Sprintf("speed %.1f", p.CameraSpeed),
		fmt.Sprintf("fov %.0f", p.FOV),
		fmt.Sprintf("%s light %.1f", p.Light.Type, p.Light.Intensity),
	}
	var b strings.Builder
	for _, s := range parts {
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(s)
	}
	return b.String()
}
