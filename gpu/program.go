package gpu

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderProgram is a linked vertex+fragment program with its uniform
// locations resolved.
type ShaderProgram struct {
	dev       Device
	id        uint32
	locations [uniformCount][]int32
	warned    [uniformCount]bool
	destroyed bool
}

// LoadShaderProgram reads both stage sources from disk and builds the program.
func LoadShaderProgram(dev Device, vertexPath, fragmentPath string) (*ShaderProgram, error) {
	vs, err := os.ReadFile(vertexPath)
	if err != nil {
		return nil, &ShaderSourceError{Path: vertexPath, Err: err}
	}
	fs, err := os.ReadFile(fragmentPath)
	if err != nil {
		return nil, &ShaderSourceError{Path: fragmentPath, Err: err}
	}
	return NewShaderProgram(dev, string(vs), string(fs))
}

// NewShaderProgram compiles and links the two stages. Stage objects are
// deleted before returning, whether or not the link succeeded.
func NewShaderProgram(dev Device, vertexSrc, fragmentSrc string) (*ShaderProgram, error) {
	vert, err := dev.CompileShader(StageVertex, vertexSrc)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	defer dev.DeleteShader(vert)

	frag, err := dev.CompileShader(StageFragment, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("fragment: %w", err)
	}
	defer dev.DeleteShader(frag)

	id, err := dev.LinkProgram(vert, frag)
	if err != nil {
		return nil, err
	}

	p := &ShaderProgram{dev: dev, id: id}
	p.resolveUniforms()
	return p, nil
}

func (p *ShaderProgram) resolveUniforms() {
	var missing []string
	for _, u := range Uniforms() {
		for _, name := range u.Names() {
			loc := p.dev.UniformLocation(p.id, name)
			if loc < 0 {
				missing = append(missing, name)
				continue
			}
			p.locations[u] = append(p.locations[u], loc)
		}
	}
	if len(missing) > 0 {
		slog.Debug("shader program: uniforms not active", "program", p.id, "names", strings.Join(missing, ","))
	}
}

// ID returns the device program handle.
func (p *ShaderProgram) ID() uint32 { return p.id }

// Has reports whether the program declares u under any of its names.
func (p *ShaderProgram) Has(u Uniform) bool {
	return u >= 0 && u < uniformCount && len(p.locations[u]) > 0
}

// Activate makes p the program used by subsequent uniform writes and draws.
// It does nothing once p is destroyed.
func (p *ShaderProgram) Activate() {
	if p.destroyed {
		return
	}
	p.dev.UseProgram(p.id)
}

// lookup returns the active locations of u. Writing a uniform the program
// does not declare does nothing; the first such write is logged. A destroyed
// program has no locations.
func (p *ShaderProgram) lookup(u Uniform) []int32 {
	if p.destroyed || u < 0 || u >= uniformCount {
		return nil
	}
	locs := p.locations[u]
	if len(locs) == 0 && !p.warned[u] {
		p.warned[u] = true
		slog.Warn("uniform not found", "uniform", u.String(), "program", p.id)
	}
	return locs
}

func (p *ShaderProgram) SetInt(u Uniform, v int32) {
	for _, loc := range p.lookup(u) {
		p.dev.Uniform1i(loc, v)
	}
}

func (p *ShaderProgram) SetBool(u Uniform, v bool) {
	if v {
		p.SetInt(u, 1)
	} else {
		p.SetInt(u, 0)
	}
}

func (p *ShaderProgram) SetFloat(u Uniform, v float32) {
	for _, loc := range p.lookup(u) {
		p.dev.Uniform1f(loc, v)
	}
}

func (p *ShaderProgram) SetVec3(u Uniform, v mgl32.Vec3) {
	for _, loc := range p.lookup(u) {
		p.dev.Uniform3f(loc, v)
	}
}

func (p *ShaderProgram) SetVec4(u Uniform, v mgl32.Vec4) {
	for _, loc := range p.lookup(u) {
		p.dev.Uniform4f(loc, v)
	}
}

func (p *ShaderProgram) SetMat4(u Uniform, m mgl32.Mat4) {
	for _, loc := range p.lookup(u) {
		p.dev.UniformMatrix4f(loc, m)
	}
}

// Destroy releases the program. Later calls are no-ops.
func (p *ShaderProgram) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.dev.DeleteProgram(p.id)
}
