package core

// Poller is the raw per-frame input state of a window.
type Poller interface {
	IsKeyPressed(key int) bool
	IsMouseButtonPressed(button int) bool
	GetCursorPos() (float64, float64)
}

// InputManager tracks key edges and scroll for the control panel.
type InputManager struct {
	ScrollDelta float64

	// Key states
	keys     [512]bool
	keysPrev [512]bool
	tracked  []int

	// ShiftDown reports either shift key held at the last Update.
	ShiftDown bool

	src Poller
}

// NewInputManager creates an input manager that polls src for the given keys.
func NewInputManager(src Poller, keys ...int) *InputManager {
	im := &InputManager{src: src}
	for _, k := range keys {
		if k >= 0 && k < len(im.keys) {
			im.tracked = append(im.tracked, k)
		}
	}
	return im
}

// AddScroll accumulates wheel movement; wire it to the window scroll callback.
func (im *InputManager) AddScroll(yoff float64) {
	im.ScrollDelta += yoff
}

// Update should be called once per frame to poll state
func (im *InputManager) Update() {
	copy(im.keysPrev[:], im.keys[:])

	im.ShiftDown = im.src.IsKeyPressed(KeyLeftShift) || im.src.IsKeyPressed(KeyRightShift)

	for _, k := range im.tracked {
		im.keys[k] = im.src.IsKeyPressed(k)
	}
}

// EndFrame clears per-frame state
func (im *InputManager) EndFrame() {
	im.ScrollDelta = 0
}

// IsKeyPressed reports a key that went down this frame.
func (im *InputManager) IsKeyPressed(key int) bool {
	if key < 0 || key >= len(im.keys) {
		return false
	}
	return im.keys[key] && !im.keysPrev[key]
}
