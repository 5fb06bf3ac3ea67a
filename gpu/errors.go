package gpu

import (
	"fmt"
	"strings"
)

// CompileError carries the compiler's diagnostic text for a rejected stage.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader compile failed: %s", e.Stage, strings.TrimSpace(e.Log))
}

// LinkError carries the linker's diagnostic text.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader link failed: %s", strings.TrimSpace(e.Log))
}

// ShaderSourceError reports a shader source file that could not be read.
type ShaderSourceError struct {
	Path string
	Err  error
}

func (e *ShaderSourceError) Error() string {
	return fmt.Sprintf("read shader %q: %v", e.Path, e.Err)
}

func (e *ShaderSourceError) Unwrap() error { return e.Err }
