package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"mesh-viewer/gpu"
)

// Texture is a decoded image uploaded to the device.
type Texture struct {
	Name   string
	Width  int
	Height int
	handle *gpu.Texture
}

// NewTexture uploads img under the given name.
func NewTexture(dev gpu.Device, name string, img *image.RGBA) (*Texture, error) {
	h, err := gpu.NewTexture(dev, img)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", name, err)
	}
	w, ht := h.Size()
	return &Texture{Name: name, Width: w, Height: ht, handle: h}, nil
}

// Bind attaches the texture to a texture unit.
func (t *Texture) Bind(unit uint32) {
	t.handle.Bind(unit)
}

// ID returns the device texture handle.
func (t *Texture) ID() uint32 { return t.handle.ID() }

// Release frees the device texture. Later calls are no-ops.
func (t *Texture) Release() {
	t.handle.Release()
}

// Formats decodable by LoadImage and DecodeImage, by file extension as
// reported by filetype.
var supportedImages = map[string]bool{"png": true, "jpg": true, "webp": true, "bmp": true}

// LoadImage reads a PNG, JPEG, WebP or BMP file and converts it to RGBA8.
// Images wider or taller than maxSize are scaled down; maxSize <= 0 keeps
// the original size.
func LoadImage(path string, maxSize int) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	img, err := DecodeImage(data, maxSize)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an encoded image held in memory, as found in GLB
// buffer views and data URIs.
func DecodeImage(data []byte, maxSize int) (*image.RGBA, error) {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && !supportedImages[kind.Extension] {
		return nil, fmt.Errorf("unsupported image type %s", kind.MIME.Value)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	w, h := fitWithin(b.Dx(), b.Dy(), maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst, nil
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, nil
}

// fitWithin scales w×h down so neither side exceeds limit, keeping the
// aspect ratio and at least one pixel per side.
func fitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, maxInt(1, h*limit/w)
	}
	return maxInt(1, w*limit/h), limit
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
