package gpu

import (
	"fmt"
	"image"
)

// Texture is an uploaded RGBA8 2D texture.
type Texture struct {
	dev      Device
	id       uint32
	width    int
	height   int
	released bool
}

// NewTexture uploads img with mipmaps and repeat wrapping.
func NewTexture(dev Device, img *image.RGBA) (*Texture, error) {
	if img == nil || len(img.Pix) == 0 {
		return nil, fmt.Errorf("texture: no pixel data")
	}
	id, err := dev.CreateTexture(img)
	if err != nil {
		return nil, fmt.Errorf("texture upload: %w", err)
	}
	b := img.Bounds()
	return &Texture{dev: dev, id: id, width: b.Dx(), height: b.Dy()}, nil
}

func (t *Texture) ID() uint32 { return t.id }

func (t *Texture) Size() (int, int) { return t.width, t.height }

// Bind attaches the texture to a texture unit.
func (t *Texture) Bind(unit uint32) {
	t.dev.BindTexture(unit, t.id)
}

// Release frees the device texture. Later calls are no-ops.
func (t *Texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.dev.DeleteTexture(t.id)
}
