// Package renderer drives one frame at a time: clear, camera, scene draw,
// control panel, uniform export and present.
package renderer

import (
	"context"
	"fmt"
	"log/slog"

	"mesh-viewer/core"
	"mesh-viewer/gpu"
	"mesh-viewer/scene"
)

// Surface is the window side of the frame loop.
type Surface interface {
	ShouldClose() bool
	SwapBuffers()
	PollEvents()
}

// ControlPanel edits Params between camera update and uniform export.
type ControlPanel interface {
	// WantsPointer reports that the panel owns the mouse this frame, so
	// camera input is skipped.
	WantsPointer() bool
	Build(p *Params)
	Render()
}

// Config holds the collaborators of an Engine. Model may be nil, in which
// case frames draw nothing but still export uniforms.
type Config struct {
	Device  gpu.Device
	Surface Surface
	Panel   ControlPanel
	Input   scene.InputSource
	Program *gpu.ShaderProgram
	Camera  *scene.Camera
	Model   *scene.Model
	Params  *Params

	ClearColor core.Color
	Near, Far  float32
}

// Stats describe the frames run so far.
type Stats struct {
	Frames    uint64
	DrawCalls int // issued by the last frame
}

// Engine runs the per-frame sequence.
type Engine struct {
	dev     gpu.Device
	surface Surface
	panel   ControlPanel
	input   scene.InputSource
	program *gpu.ShaderProgram
	camera  *scene.Camera
	model   *scene.Model
	params  *Params

	clearColor core.Color
	near, far  float32

	stats Stats
}

// NewEngine checks the collaborators and exports the initial uniforms once.
func NewEngine(cfg Config) (*Engine, error) {
	switch {
	case cfg.Device == nil:
		return nil, fmt.Errorf("engine: no device")
	case cfg.Surface == nil:
		return nil, fmt.Errorf("engine: no surface")
	case cfg.Panel == nil:
		return nil, fmt.Errorf("engine: no control panel")
	case cfg.Input == nil:
		return nil, fmt.Errorf("engine: no input source")
	case cfg.Program == nil:
		return nil, fmt.Errorf("engine: no shader program")
	case cfg.Camera == nil:
		return nil, fmt.Errorf("engine: no camera")
	case cfg.Params == nil:
		return nil, fmt.Errorf("engine: no params")
	}
	if cfg.Near <= 0 {
		cfg.Near = 0.1
	}
	if cfg.Far <= cfg.Near {
		cfg.Far = 100
	}

	e := &Engine{
		dev:        cfg.Device,
		surface:    cfg.Surface,
		panel:      cfg.Panel,
		input:      cfg.Input,
		program:    cfg.Program,
		camera:     cfg.Camera,
		model:      cfg.Model,
		params:     cfg.Params,
		clearColor: cfg.ClearColor,
		near:       cfg.Near,
		far:        cfg.Far,
	}
	e.program.Activate()
	e.exportParams()
	slog.Debug("engine ready", "near", e.near, "far", e.far, "model", e.model != nil)
	return e, nil
}

// Frame runs one iteration of the loop:
//
//	clear → panel pointer check → camera input → camera matrix and export →
//	scene draw → panel build → params export → panel render, swap, poll
//
// Camera input is skipped while the panel wants the pointer, and the scene
// draw while Params.ShowModel is false. Every other step always runs.
func (e *Engine) Frame() {
	// ── Clear ────────────────────────────────────────────────────────────────
	e.dev.Clear(e.clearColor)

	// ── Camera ───────────────────────────────────────────────────────────────
	if !e.panel.WantsPointer() {
		e.camera.Inputs(e.input, e.params.CameraSpeed)
	}
	e.program.Activate()
	e.camera.UpdateMatrix(e.params.FOV, e.near, e.far)
	e.camera.Export(e.program)

	// ── Scene ────────────────────────────────────────────────────────────────
	draws := 0
	if e.params.ShowModel && e.model != nil {
		draws = e.model.Draw(e.program)
	}

	// ── Panel and uniform export ─────────────────────────────────────────────
	e.panel.Build(e.params)
	e.program.Activate()
	e.exportParams()

	// ── Present ──────────────────────────────────────────────────────────────
	e.panel.Render()
	e.surface.SwapBuffers()
	e.surface.PollEvents()

	e.stats.Frames++
	e.stats.DrawCalls = draws
}

// exportParams writes size, tint and light to the active program.
func (e *Engine) exportParams() {
	p := e.params
	e.program.SetFloat(gpu.UniformSize, p.Size)
	e.program.SetVec4(gpu.UniformColor, p.Color.Vec4(1))
	p.Light.Export(e.program)
}

// Run calls Frame until the surface is closed or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for !e.surface.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Frame()
	}
	slog.Info("render loop finished", "frames", e.stats.Frames)
	return nil
}

// Resize updates the viewport and camera aspect for a new framebuffer size.
// Zero sizes, reported while minimized, are ignored.
func (e *Engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.dev.SetViewport(width, height)
	e.camera.SetViewport(width, height)
}

func (e *Engine) Stats() Stats { return e.stats }
