package core

// Key and mouse button codes. The values are GLFW's, so a platform.Window
// can be queried with them directly.
const (
	MouseLeft   = 0
	MouseRight  = 1
	MouseMiddle = 2
)

const (
	KeySpace        = 32
	KeyComma        = 44
	KeyMinus        = 45
	KeyPeriod       = 46
	Key1            = 49
	Key2            = 50
	Key3            = 51
	KeyEqual        = 61
	KeyA            = 65
	KeyC            = 67
	KeyD            = 68
	KeyH            = 72
	KeyI            = 73
	KeyK            = 75
	KeyL            = 76
	KeyS            = 83
	KeyW            = 87
	KeyLeftBracket  = 91
	KeyRightBracket = 93
	KeyEscape       = 256
	KeyLeftShift    = 340
	KeyLeftControl  = 341
	KeyRightShift   = 344
	KeyRightControl = 345
)
