// Package idmap packs a table of per-object parameters into a square texture
// so a shader can fetch parameter i by sampling the pixel at index i.
//
// Pixel i lives at (i mod width, i div width). Each parameter is packed as a
// 32-bit ARGB value: A<<24 | R<<16 | G<<8 | B, channels clamped to [0,1] and
// scaled to 0..255. No colour-space conversion is applied.
package idmap

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/Faultbox/supermesh/pkg/math"
)

// Texture is a packed parameter table.
type Texture struct {
	Width  int
	Pixels []uint32
}

// Width returns ceil(sqrt(n)), the side of the smallest square holding n
// parameters.
func Width(n int) int {
	if n <= 0 {
		return 0
	}
	w := int(math32.Ceil(math32.Sqrt(float32(n))))
	// float32 sqrt is inexact for large n
	for w*w < n {
		w++
	}
	for w > 1 && (w-1)*(w-1) >= n {
		w--
	}
	return w
}

// Encode packs params into a new texture. Unused trailing pixels are zero.
func Encode(params []math.Vec4) *Texture {
	t := &Texture{}
	t.Encode(params)
	return t
}

// Encode re-packs the whole table into t. The pixel buffer is reallocated
// only when the current width is too small; recreated reports that case.
func (t *Texture) Encode(params []math.Vec4) (recreated bool) {
	w := Width(len(params))
	if t.Pixels == nil || t.Width < w {
		t.Width = w
		t.Pixels = make([]uint32, w*w)
		recreated = true
	}

	for i, p := range params {
		t.Pixels[i] = Pack(p)
	}
	clear(t.Pixels[len(params):])
	return recreated
}

// At returns the packed pixel for parameter i, or zero if i is outside the
// texture.
func (t *Texture) At(i int) uint32 {
	if i < 0 || i >= len(t.Pixels) {
		return 0
	}
	return t.Pixels[i]
}

// Image converts the texture to a non-premultiplied RGBA image.
func (t *Texture) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Width))
	for i, p := range t.Pixels {
		x, y := IndexToPixel(i, t.Width)
		img.SetNRGBA(x, y, color.NRGBA{
			R: uint8(p >> 16),
			G: uint8(p >> 8),
			B: uint8(p),
			A: uint8(p >> 24),
		})
	}
	return img
}

// IndexToPixel returns the pixel coordinate of parameter i. A non-positive
// width yields (0, 0).
func IndexToPixel(i, width int) (x, y int) {
	if width <= 0 {
		return 0, 0
	}
	return i % width, i / width
}

// PixelToIndex is the inverse of IndexToPixel.
func PixelToIndex(x, y, width int) int {
	return y*width + x
}

// IndexToUV returns the texture coordinate of the centre of pixel i.
func IndexToUV(i, width int) math.Vec2 {
	if width <= 0 {
		return math.Vec2{}
	}
	x, y := IndexToPixel(i, width)
	w := float32(width)
	return math.Vec2{X: (float32(x) + 0.5) / w, Y: (float32(y) + 0.5) / w}
}

// Pack converts a parameter to its 32-bit ARGB representation.
func Pack(v math.Vec4) uint32 {
	return uint32(channel(v.W))<<24 |
		uint32(channel(v.X))<<16 |
		uint32(channel(v.Y))<<8 |
		uint32(channel(v.Z))
}

// Unpack converts a packed pixel back to a parameter. The result is
// quantized to 1/255 steps.
func Unpack(p uint32) math.Vec4 {
	return math.RGBA(
		float32(uint8(p>>16))/255,
		float32(uint8(p>>8))/255,
		float32(uint8(p))/255,
		float32(uint8(p>>24))/255,
	)
}

func channel(f float32) uint8 {
	if math32.IsNaN(f) {
		return 0
	}
	f = math32.Max(0, math32.Min(1, f))
	return uint8(math32.Round(f * 255))
}
