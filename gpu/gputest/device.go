// Package gputest provides a recording gpu.Device for tests that run without
// a graphics context.
package gputest

import (
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/core"
	"mesh-viewer/gpu"
)

var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*(?:\[[^\]]*\])?\s*;`)

// Write is one uniform write as seen by the device.
type Write struct {
	Program uint32
	Name    string
	Value   any
}

// Draw is one draw call together with the model matrix current at the time.
type Draw struct {
	Program  uint32
	Geometry gpu.Geometry
	Topology gpu.Topology
	Count    int32
	Model    mgl32.Mat4
	Textures map[uint32]uint32
}

type shader struct {
	stage    gpu.Stage
	uniforms []string
}

type program struct {
	byName map[string]int32
	byLoc  map[int32]string
	values map[string]any
}

// Device records everything the viewer asks of the GPU.
type Device struct {
	// FailLink makes every LinkProgram call fail.
	FailLink bool
	// FailGeometryAfter makes CreateGeometry fail once that many buffers
	// exist. Zero disables.
	FailGeometryAfter int

	// Ops is the ordered list of operation names.
	Ops    []string
	Writes []Write
	Draws  []Draw
	Clears int
	// Uploads holds a copy of the vertices of each CreateGeometry call.
	Uploads [][]core.Vertex

	// InvalidWrites counts uniform writes to a location the current
	// program does not own, or with no program bound.
	InvalidWrites int
	// DoubleFrees counts deletes of handles that are not live.
	DoubleFrees int

	ViewportW, ViewportH int

	next       uint32
	current    uint32
	shaders    map[uint32]*shader
	programs   map[uint32]*program
	geometries map[uint32]gpu.Geometry
	textures   map[uint32]image.Rectangle
	bound      map[uint32]uint32
	created    int
}

func NewDevice() *Device {
	return &Device{
		shaders:    make(map[uint32]*shader),
		programs:   make(map[uint32]*program),
		geometries: make(map[uint32]gpu.Geometry),
		textures:   make(map[uint32]image.Rectangle),
		bound:      make(map[uint32]uint32),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) op(name string) { d.Ops = append(d.Ops, name) }

// CompileShader fails on sources containing #error or lacking a main.
func (d *Device) CompileShader(stage gpu.Stage, source string) (uint32, error) {
	d.op("CompileShader")
	if i := strings.Index(source, "#error"); i >= 0 {
		line := strings.SplitN(source[i:], "\n", 2)[0]
		return 0, &gpu.CompileError{Stage: stage, Log: "ERROR: 0:1: " + line}
	}
	if !strings.Contains(source, "void main") {
		return 0, &gpu.CompileError{Stage: stage, Log: "ERROR: 0:1: missing main"}
	}
	id := d.handle()
	s := &shader{stage: stage}
	for _, m := range uniformDecl.FindAllStringSubmatch(source, -1) {
		s.uniforms = append(s.uniforms, m[1])
	}
	d.shaders[id] = s
	return id, nil
}

func (d *Device) DeleteShader(id uint32) {
	d.op("DeleteShader")
	if _, ok := d.shaders[id]; !ok {
		d.DoubleFrees++
		return
	}
	delete(d.shaders, id)
}

func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, error) {
	d.op("LinkProgram")
	vs, fs := d.shaders[vertex], d.shaders[fragment]
	if vs == nil || fs == nil {
		return 0, &gpu.LinkError{Log: "invalid shader object"}
	}
	if vs.stage != gpu.StageVertex || fs.stage != gpu.StageFragment {
		return 0, &gpu.LinkError{Log: "stage mismatch"}
	}
	if d.FailLink {
		return 0, &gpu.LinkError{Log: "error: varying not written by vertex shader"}
	}
	id := d.handle()
	p := &program{
		byName: make(map[string]int32),
		byLoc:  make(map[int32]string),
		values: make(map[string]any),
	}
	var loc int32
	for _, name := range append(append([]string{}, vs.uniforms...), fs.uniforms...) {
		if _, ok := p.byName[name]; ok {
			continue
		}
		p.byName[name] = loc
		p.byLoc[loc] = name
		loc++
	}
	d.programs[id] = p
	return id, nil
}

func (d *Device) DeleteProgram(id uint32) {
	d.op("DeleteProgram")
	if _, ok := d.programs[id]; !ok {
		d.DoubleFrees++
		return
	}
	delete(d.programs, id)
	if d.current == id {
		d.current = 0
	}
}

func (d *Device) UseProgram(id uint32) {
	d.op("UseProgram")
	d.current = id
}

// CurrentProgram returns the program bound by the last UseProgram.
func (d *Device) CurrentProgram() uint32 { return d.current }

func (d *Device) UniformLocation(prog uint32, name string) int32 {
	p, ok := d.programs[prog]
	if !ok {
		return -1
	}
	if loc, ok := p.byName[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) write(loc int32, v any) {
	if loc < 0 {
		return
	}
	p, ok := d.programs[d.current]
	if !ok {
		d.InvalidWrites++
		return
	}
	name, ok := p.byLoc[loc]
	if !ok {
		d.InvalidWrites++
		return
	}
	d.op("Uniform:" + name)
	p.values[name] = v
	d.Writes = append(d.Writes, Write{Program: d.current, Name: name, Value: v})
}

func (d *Device) Uniform1i(loc int32, v int32)            { d.write(loc, v) }
func (d *Device) Uniform1f(loc int32, v float32)          { d.write(loc, v) }
func (d *Device) Uniform3f(loc int32, v mgl32.Vec3)       { d.write(loc, v) }
func (d *Device) Uniform4f(loc int32, v mgl32.Vec4)       { d.write(loc, v) }
func (d *Device) UniformMatrix4f(loc int32, m mgl32.Mat4) { d.write(loc, m) }

// Value returns the last value written to name in program prog.
func (d *Device) Value(prog uint32, name string) (any, bool) {
	p, ok := d.programs[prog]
	if !ok {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// WritesTo returns the writes made to name, in order.
func (d *Device) WritesTo(name string) []Write {
	var out []Write
	for _, w := range d.Writes {
		if w.Name == name {
			out = append(out, w)
		}
	}
	return out
}

func (d *Device) CreateGeometry(vertices []core.Vertex, indices []uint32) (gpu.Geometry, error) {
	d.op("CreateGeometry")
	if d.FailGeometryAfter > 0 && d.created >= d.FailGeometryAfter {
		return gpu.Geometry{}, fmt.Errorf("out of memory")
	}
	d.created++
	d.Uploads = append(d.Uploads, append([]core.Vertex(nil), vertices...))
	g := gpu.Geometry{VAO: d.handle(), VBO: d.handle(), EBO: d.handle()}
	d.geometries[g.VAO] = g
	return g, nil
}

func (d *Device) DeleteGeometry(g gpu.Geometry) {
	d.op("DeleteGeometry")
	if _, ok := d.geometries[g.VAO]; !ok {
		d.DoubleFrees++
		return
	}
	delete(d.geometries, g.VAO)
}

func (d *Device) DrawElements(g gpu.Geometry, topology gpu.Topology, count int32) {
	d.op("DrawElements")
	draw := Draw{Program: d.current, Geometry: g, Topology: topology, Count: count, Textures: make(map[uint32]uint32)}
	if p, ok := d.programs[d.current]; ok {
		if m, ok := p.values["model"].(mgl32.Mat4); ok {
			draw.Model = m
		}
	}
	for unit, id := range d.bound {
		draw.Textures[unit] = id
	}
	d.Draws = append(d.Draws, draw)
}

func (d *Device) CreateTexture(img *image.RGBA) (uint32, error) {
	d.op("CreateTexture")
	id := d.handle()
	d.textures[id] = img.Bounds()
	return id, nil
}

func (d *Device) DeleteTexture(id uint32) {
	d.op("DeleteTexture")
	if _, ok := d.textures[id]; !ok {
		d.DoubleFrees++
		return
	}
	delete(d.textures, id)
}

func (d *Device) BindTexture(unit uint32, id uint32) {
	d.op("BindTexture")
	d.bound[unit] = id
}

// TextureSize returns the bounds a live texture was uploaded with.
func (d *Device) TextureSize(id uint32) (image.Rectangle, bool) {
	r, ok := d.textures[id]
	return r, ok
}

func (d *Device) Clear(color core.Color) {
	d.op("Clear")
	d.Clears++
}

func (d *Device) SetViewport(width, height int) {
	d.op("SetViewport")
	d.ViewportW, d.ViewportH = width, height
}

// Live reports the number of live shaders, programs, geometries and textures.
func (d *Device) Live() (shaders, programs, geometries, textures int) {
	return len(d.shaders), len(d.programs), len(d.geometries), len(d.textures)
}

// Reset clears the recorded calls but keeps live objects.
func (d *Device) Reset() {
	d.Ops = nil
	d.Writes = nil
	d.Draws = nil
	d.Clears = 0
}

var _ gpu.Device = (*Device)(nil)
