package panel_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-viewer/core"
	"mesh-viewer/internal/panel"
	"mesh-viewer/renderer"
	"mesh-viewer/scene"
)

type fakeWindow struct {
	keys   map[int]bool
	titles []string
	close  bool
}

func newFakeWindow() *fakeWindow { return &fakeWindow{keys: make(map[int]bool)} }

func (w *fakeWindow) IsKeyPressed(key int) bool        { return w.keys[key] }
func (w *fakeWindow) IsMouseButtonPressed(int) bool    { return false }
func (w *fakeWindow) GetCursorPos() (float64, float64) { return 0, 0 }
func (w *fakeWindow) SetTitle(title string)            { w.titles = append(w.titles, title) }
func (w *fakeWindow) SetShouldClose(v bool)            { w.close = v }

// press holds key for one frame and releases it for the next.
func press(h *panel.Hotkeys, w *fakeWindow, p *renderer.Params, key int) {
	w.keys[key] = true
	h.Build(p)
	w.keys[key] = false
	h.Build(p)
}

func TestHotkeysEdgeTriggered(t *testing.T) {
	w := newFakeWindow()
	h := panel.NewHotkeys(w, "Mesh Viewer", "")
	p := renderer.DefaultParams()

	w.keys[core.KeyEqual] = true
	for i := 0; i < 5; i++ {
		h.Build(&p)
	}
	assert.InDelta(t, 1+panel.SizeStep, p.Size, 1e-6, "holding a key counts once")

	w.keys[core.KeyEqual] = false
	h.Build(&p)
	press(h, w, &p, core.KeyEqual)
	assert.InDelta(t, 1+2*panel.SizeStep, p.Size, 1e-6)
}

func TestHotkeysEditParams(t *testing.T) {
	w := newFakeWindow()
	h := panel.NewHotkeys(w, "Mesh Viewer", "")
	p := renderer.DefaultParams()

	press(h, w, &p, core.KeyH)
	assert.False(t, p.ShowModel)
	press(h, w, &p, core.KeyH)
	assert.True(t, p.ShowModel)

	press(h, w, &p, core.KeyPeriod)
	assert.InDelta(t, 1.1, p.CameraSpeed, 1e-6)
	press(h, w, &p, core.KeyComma)
	press(h, w, &p, core.KeyComma)
	assert.InDelta(t, 0.9, p.CameraSpeed, 1e-6)

	press(h, w, &p, core.KeyRightBracket)
	assert.InDelta(t, 50, p.FOV, 1e-6)

	press(h, w, &p, core.KeyC)
	assert.Equal(t, panel.ModelColors[1], p.Color)
	press(h, w, &p, core.KeyL)
	assert.Equal(t, panel.LightColors[1], p.Light.Color)

	press(h, w, &p, core.Key1)
	assert.Equal(t, scene.LightDirectional, p.Light.Type)
	press(h, w, &p, core.Key3)
	assert.Equal(t, scene.LightSpot, p.Light.Type)

	press(h, w, &p, core.KeyK)
	assert.InDelta(t, 0.9, p.Light.Intensity, 1e-6)
	assert.False(t, w.close)

	press(h, w, &p, core.KeyEscape)
	assert.True(t, w.close)
}

func TestHotkeysShiftTakesCoarseSteps(t *testing.T) {
	w := newFakeWindow()
	h := panel.NewHotkeys(w, "Mesh Viewer", "")
	p := renderer.DefaultParams()

	w.keys[core.KeyLeftShift] = true
	press(h, w, &p, core.KeyEqual)
	assert.InDelta(t, 1+panel.CoarseFactor*panel.SizeStep, p.Size, 1e-6)
	press(h, w, &p, core.KeyLeftBracket)
	assert.InDelta(t, 45-panel.CoarseFactor*panel.FOVStep, p.FOV, 1e-6)

	w.keys[core.KeyLeftShift] = false
	w.keys[core.KeyRightShift] = true
	press(h, w, &p, core.KeyK)
	assert.InDelta(t, 1-panel.CoarseFactor*panel.IntensityStep, p.Light.Intensity, 1e-6)

	w.keys[core.KeyRightShift] = false
	press(h, w, &p, core.KeyMinus)
	assert.InDelta(t, 1+(panel.CoarseFactor-1)*panel.SizeStep, p.Size, 1e-6)
}

func TestHotkeysClampToRanges(t *testing.T) {
	w := newFakeWindow()
	h := panel.NewHotkeys(w, "Mesh Viewer", "")
	p := renderer.DefaultParams()

	for i := 0; i < 40; i++ {
		press(h, w, &p, core.KeyEqual)
		press(h, w, &p, core.KeyPeriod)
		press(h, w, &p, core.KeyI)
		press(h, w, &p, core.KeyLeftBracket)
	}
	assert.Equal(t, float32(renderer.MaxSize), p.Size)
	assert.Equal(t, float32(renderer.MaxCameraSpeed), p.CameraSpeed)
	assert.Equal(t, float32(renderer.MaxIntensity), p.Light.Intensity)
	assert.Equal(t, float32(renderer.MinFOV), p.FOV)
}

func TestHotkeysScrollZooms(t *testing.T) {
	w := newFakeWindow()
	h := panel.NewHotkeys(w, "Mesh Viewer", "")
	p := renderer.DefaultParams()

	h.AddScroll(2)
	h.Build(&p)
	assert.InDelta(t, 45-2*panel.ScrollFOV, p.FOV, 1e-6)

	// Scroll is consumed by the frame that read it.
	h.Build(&p)
	assert.InDelta(t, 45-2*panel.ScrollFOV, p.FOV, 1e-6)

	h.AddScroll(-1)
	h.Build(&p)
	assert.InDelta(t, 45-panel.ScrollFOV, p.FOV, 1e-6)
}

func TestHotkeysTitleOnlyOnChange(t *testing.T) {
	w := newFakeWindow()
	h := panel.NewHotkeys(w, "Mesh Viewer", "models/duck.glb")
	p := renderer.DefaultParams()

	h.Build(&p)
	h.Render()
	h.Build(&p)
	h.Render()
	require.Len(t, w.titles, 1)
	assert.Equal(t, "Mesh Viewer | models/duck.glb | size 1.00 | speed 1.0 | fov 45 | point light 1.0", w.titles[0])

	w.keys[core.KeyH] = true
	h.Build(&p)
	h.Render()
	require.Len(t, w.titles, 2)
	assert.Contains(t, w.titles[1], "hidden")
}

func TestSummarySkipsEmptyParts(t *testing.T) {
	p := renderer.DefaultParams()
	p.Light.Type = scene.LightDirectional
	p.Color = mgl32.Vec3{0, 0, 0}
	assert.Equal(t, "size 1.00 | speed 1.0 | fov 45 | directional light 1.0", panel.Summary("", "", &p))
}
