package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/core"
	"mesh-viewer/gpu"
)

const (
	// MaxPitch bounds the camera pitch in degrees so forward never aligns
	// with the world up axis.
	MaxPitch = 85.0

	moveStep     = 0.1
	sprintFactor = 4
)

var worldUp = mgl32.Vec3{0, 1, 0}

// InputSource is what the camera polls each frame. core.Poller plus control
// over the cursor while dragging.
type InputSource interface {
	core.Poller
	SetCursorHidden(hidden bool)
}

// Camera is a yaw/pitch fly camera. Orientation is stored as two angles in
// degrees and the basis is derived from them, so forward, right and up are
// orthonormal after every update.
type Camera struct {
	Position    mgl32.Vec3
	FOV         float32
	Near        float32
	Far         float32
	Sensitivity float32

	yaw   float32
	pitch float32

	forward mgl32.Vec3
	right   mgl32.Vec3
	up      mgl32.Vec3

	width  int
	height int

	view       mgl32.Mat4
	projection mgl32.Mat4
	matrix     mgl32.Mat4

	dragging bool
	lastX    float64
	lastY    float64
}

// NewCamera creates a camera at position looking along -Z.
func NewCamera(width, height int, position mgl32.Vec3) *Camera {
	c := &Camera{
		Position:    position,
		FOV:         45,
		Near:        0.1,
		Far:         100,
		Sensitivity: 100,
		width:       width,
		height:      height,
		view:        mgl32.Ident4(),
		projection:  mgl32.Ident4(),
		matrix:      mgl32.Ident4(),
	}
	c.updateBasis()
	return c
}

// ── Orientation ───────────────────────────────────────────────────────────────

func (c *Camera) Yaw() float32   { return c.yaw }
func (c *Camera) Pitch() float32 { return c.pitch }

// SetOrientation sets yaw and pitch in degrees. Pitch is clamped to ±MaxPitch.
func (c *Camera) SetOrientation(yaw, pitch float32) {
	c.yaw = math32.Mod(yaw, 360)
	c.pitch = mgl32.Clamp(pitch, -MaxPitch, MaxPitch)
	c.updateBasis()
}

// Rotate adds deltas in degrees to yaw and pitch.
func (c *Camera) Rotate(deltaYaw, deltaPitch float32) {
	c.SetOrientation(c.yaw+deltaYaw, c.pitch+deltaPitch)
}

func (c *Camera) updateBasis() {
	yaw := mgl32.DegToRad(c.yaw)
	pitch := mgl32.DegToRad(c.pitch)
	c.forward = mgl32.Vec3{
		math32.Sin(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		-math32.Cos(yaw) * math32.Cos(pitch),
	}.Normalize()
	c.right = c.forward.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.forward).Normalize()
}

func (c *Camera) Forward() mgl32.Vec3 { return c.forward }
func (c *Camera) Right() mgl32.Vec3   { return c.right }
func (c *Camera) Up() mgl32.Vec3      { return c.up }

// ── Input ─────────────────────────────────────────────────────────────────────

// Inputs moves and rotates the camera from the current input state. Each
// held movement key advances the camera by speed*0.1 along its own basis,
// four times that while shift is held. Dragging with the left button turns
// the camera by Sensitivity degrees per viewport width or height.
func (c *Camera) Inputs(in InputSource, speed float32) {
	step := speed * moveStep
	if in.IsKeyPressed(core.KeyLeftShift) {
		step *= sprintFactor
	}

	var move mgl32.Vec3
	if in.IsKeyPressed(core.KeyW) {
		move = move.Add(c.forward)
	}
	if in.IsKeyPressed(core.KeyS) {
		move = move.Sub(c.forward)
	}
	if in.IsKeyPressed(core.KeyD) {
		move = move.Add(c.right)
	}
	if in.IsKeyPressed(core.KeyA) {
		move = move.Sub(c.right)
	}
	if in.IsKeyPressed(core.KeySpace) {
		move = move.Add(c.up)
	}
	if in.IsKeyPressed(core.KeyLeftControl) {
		move = move.Sub(c.up)
	}
	c.Position = c.Position.Add(move.Mul(step))

	if !in.IsMouseButtonPressed(core.MouseLeft) {
		if c.dragging {
			in.SetCursorHidden(false)
			c.dragging = false
		}
		return
	}

	x, y := in.GetCursorPos()
	if !c.dragging {
		// First sample of a drag only anchors the cursor.
		in.SetCursorHidden(true)
		c.dragging = true
		c.lastX, c.lastY = x, y
		return
	}
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y
	if c.width <= 0 || c.height <= 0 || (dx == 0 && dy == 0) {
		return
	}
	c.Rotate(
		c.Sensitivity*float32(dx)/float32(c.width),
		-c.Sensitivity*float32(dy)/float32(c.height),
	)
}

// ── Matrices ──────────────────────────────────────────────────────────────────

// SetViewport updates the aspect ratio after a framebuffer resize. A zero
// height, as reported for a minimized window, is ignored.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
}

// Aspect returns width/height of the viewport.
func (c *Camera) Aspect() float32 {
	if c.height <= 0 {
		return 1
	}
	return float32(c.width) / float32(c.height)
}

// UpdateMatrix recomputes view and projection and stores their product.
func (c *Camera) UpdateMatrix(fovDegrees, near, far float32) {
	c.FOV, c.Near, c.Far = fovDegrees, near, far
	c.view = mgl32.LookAtV(c.Position, c.Position.Add(c.forward), c.up)
	c.projection = mgl32.Perspective(mgl32.DegToRad(fovDegrees), c.Aspect(), near, far)
	c.matrix = c.projection.Mul4(c.view)
}

func (c *Camera) View() mgl32.Mat4       { return c.view }
func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

// Matrix returns projection × view as of the last UpdateMatrix.
func (c *Camera) Matrix() mgl32.Mat4 { return c.matrix }

// Export writes camMatrix and camPos to the active program.
func (c *Camera) Export(p *gpu.ShaderProgram) {
	p.SetMat4(gpu.UniformCamMatrix, c.matrix)
	p.SetVec3(gpu.UniformCamPos, c.Position)
}
