// Package config loads the viewer settings from viewer.toml (or viewer.yaml)
// over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mesh-viewer/scene"
)

// FileName is the config file looked up in the working directory.
const FileName = "viewer.toml"

type Window struct {
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	Title     string `toml:"title" yaml:"title"`
	VSync     bool   `toml:"vsync" yaml:"vsync"`
	Resizable bool   `toml:"resizable" yaml:"resizable"`
}

// Assets names the files loaded at startup. Empty shader paths select the
// shaders built into the binary.
type Assets struct {
	Model          string `toml:"model" yaml:"model"`
	VertexShader   string `toml:"vertex_shader" yaml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader" yaml:"fragment_shader"`
	MaxTextureSize int    `toml:"max_texture_size" yaml:"max_texture_size"`
}

type Camera struct {
	Position    [3]float32 `toml:"position" yaml:"position"`
	FOV         float32    `toml:"fov" yaml:"fov"`
	Near        float32    `toml:"near" yaml:"near"`
	Far         float32    `toml:"far" yaml:"far"`
	Speed       float32    `toml:"speed" yaml:"speed"`
	Sensitivity float32    `toml:"sensitivity" yaml:"sensitivity"`
}

type Light struct {
	Type      string     `toml:"type" yaml:"type"` // directional, point or spot
	Color     [3]float32 `toml:"color" yaml:"color"`
	Intensity float32    `toml:"intensity" yaml:"intensity"`
	Position  [3]float32 `toml:"position" yaml:"position"`
	Direction [3]float32 `toml:"direction" yaml:"direction"`
}

type Render struct {
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`
}

type Log struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn or error
}

// Config is the full set of startup settings.
type Config struct {
	Window Window `toml:"window" yaml:"window"`
	Assets Assets `toml:"assets" yaml:"assets"`
	Camera Camera `toml:"camera" yaml:"camera"`
	Light  Light  `toml:"light" yaml:"light"`
	Render Render `toml:"render" yaml:"render"`
	Log    Log    `toml:"log" yaml:"log"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Window: Window{Width: 800, Height: 800, Title: "Mesh Viewer", VSync: true, Resizable: true},
		Assets: Assets{Model: "models/map/scene.gltf", MaxTextureSize: 4096},
		Camera: Camera{
			Position:    [3]float32{0, 0, 2},
			FOV:         45,
			Near:        0.1,
			Far:         100,
			Speed:       1,
			Sensitivity: 100,
		},
		Light: Light{
			Type:      "point",
			Color:     [3]float32{1, 1, 1},
			Intensity: 1,
			Position:  [3]float32{0.5, 0.5, 0.5},
			Direction: [3]float32{0, -1, 0},
		},
		Render: Render{ClearColor: [4]float32{0.07, 0.13, 0.17, 1}},
		Log:    Log{Level: "info"},
	}
}

// SearchPaths returns where Find looks, in order: the working directory,
// then ~/.config/mesh-viewer.
func SearchPaths() []string {
	paths := []string{FileName, "viewer.yaml"}
	if home, err := homedir.Dir(); err == nil {
		dir := filepath.Join(home, ".config", "mesh-viewer")
		paths = append(paths, filepath.Join(dir, FileName), filepath.Join(dir, "viewer.yaml"))
	}
	return paths
}

// Find returns the first existing file of SearchPaths, or "".
func Find() string {
	for _, p := range SearchPaths() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are returned as they are.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	defer f.Close()

	if cfg, err = Decode(f, formatOf(path)); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Format is the encoding of a config file.
type Format int

const (
	TOML Format = iota
	YAML
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return TOML
}

// Decode reads a config in the given format over the defaults and
// validates it. Unknown keys are rejected.
func Decode(r io.Reader, format Format) (Config, error) {
	cfg := Default()
	switch format {
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		dec := toml.NewDecoder(r).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var sme *toml.StrictMissingError
			if errors.As(err, &sme) {
				return cfg, fmt.Errorf("decode toml: %s", sme.String())
			}
			return cfg, fmt.Errorf("decode toml: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would make startup fail later in a less
// obvious place.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Assets.Model == "" {
		return fmt.Errorf("assets.model is empty")
	}
	if c.Assets.MaxTextureSize < 0 {
		return fmt.Errorf("assets.max_texture_size %d is negative", c.Assets.MaxTextureSize)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera near %g / far %g: need 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	if _, err := scene.ParseLightType(c.Light.Type); err != nil {
		return fmt.Errorf("light.type: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// SceneLight converts the light section.
func (c Config) SceneLight() scene.Light {
	t, err := scene.ParseLightType(c.Light.Type)
	if err != nil {
		t = scene.LightPoint
	}
	return scene.Light{
		Type:      t,
		Color:     c.Light.Color,
		Intensity: c.Light.Intensity,
		Position:  c.Light.Position,
		Direction: c.Light.Direction,
	}
}
