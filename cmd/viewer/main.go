// Command viewer opens a glTF model in a window with a fly camera.
//
//	viewer [model.gltf|model.glb]
//
// Settings come from viewer.toml or viewer.yaml in the working directory or
// ~/.config/mesh-viewer. A model given on the command line replaces
// assets.model.
package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/config"
	"mesh-viewer/core"
	"mesh-viewer/gpu"
	"mesh-viewer/internal/opengl"
	"mesh-viewer/internal/panel"
	"mesh-viewer/platform"
	"mesh-viewer/renderer"
	"mesh-viewer/scene"
)

var (
	//go:embed shaders/default.vert
	defaultVertexShader string
	//go:embed shaders/default.frag
	defaultFragmentShader string
)

func main() {
	if err := run(); err != nil {
		slog.Error("viewer failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.Find()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	if cfgPath != "" {
		slog.Info("config loaded", "path", cfgPath)
	}
	if len(os.Args) > 1 {
		cfg.Assets.Model = os.Args[1]
	}

	// ── Window and device ─────────────────────────────────────────────────────
	windowConfig := platform.DefaultWindowConfig()
	windowConfig.Width = cfg.Window.Width
	windowConfig.Height = cfg.Window.Height
	windowConfig.Title = cfg.Window.Title
	windowConfig.VSync = cfg.Window.VSync
	windowConfig.Resizable = cfg.Window.Resizable

	window, err := platform.NewWindow(windowConfig)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice()
	if err != nil {
		return err
	}
	slog.Info("opengl ready", "version", dev.Version())

	program, err := loadProgram(dev, cfg.Assets)
	if err != nil {
		return err
	}
	defer program.Destroy()

	// ── Scene ─────────────────────────────────────────────────────────────────
	camera := scene.NewCamera(cfg.Window.Width, cfg.Window.Height, mgl32.Vec3(cfg.Camera.Position))
	camera.Sensitivity = cfg.Camera.Sensitivity

	model, err := scene.LoadModel(dev, cfg.Assets.Model, scene.LoadOptions{MaxTextureSize: cfg.Assets.MaxTextureSize})
	if err != nil {
		return err
	}
	defer model.Destroy()

	params := renderer.DefaultParams()
	params.FOV = cfg.Camera.FOV
	params.CameraSpeed = cfg.Camera.Speed
	params.Light = cfg.SceneLight()
	params.Clamp()

	hotkeys := panel.NewHotkeys(window, cfg.Window.Title, cfg.Assets.Model)
	window.SetScrollCallback(func(_, yoff float64) { hotkeys.AddScroll(yoff) })

	cc := cfg.Render.ClearColor
	engine, err := renderer.NewEngine(renderer.Config{
		Device:     dev,
		Surface:    window,
		Panel:      hotkeys,
		Input:      window,
		Program:    program,
		Camera:     camera,
		Model:      model,
		Params:     &params,
		ClearColor: core.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
		Near:       cfg.Camera.Near,
		Far:        cfg.Camera.Far,
	})
	if err != nil {
		return err
	}

	// The framebuffer can differ from the requested size on HiDPI displays.
	engine.Resize(window.GetFramebufferSize())
	window.SetResizeCallback(engine.Resize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("viewer running",
		"model", model.Path(),
		"nodes", model.NodeCount(),
		"primitives", model.PrimitiveCount(),
		"textures", model.TextureCount())

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("viewer closed", "frames", engine.Stats().Frames)
	return nil
}

// loadProgram reads the shader pair named in assets, or uses the built-in
// shaders when neither path is set.
func loadProgram(dev gpu.Device, assets config.Assets) (*gpu.ShaderProgram, error) {
	if assets.VertexShader == "" && assets.FragmentShader == "" {
		return gpu.NewShaderProgram(dev, defaultVertexShader, defaultFragmentShader)
	}
	vs, fs := assets.VertexShader, assets.FragmentShader
	if vs == "" || fs == "" {
		return nil, errors.New("assets: vertex_shader and fragment_shader must be set together")
	}
	return gpu.LoadShaderProgram(dev, vs, fs)
}
