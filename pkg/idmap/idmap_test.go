package idmap

import (
	"testing"

	"github.com/Faultbox/supermesh/pkg/math"
)

func TestWidth(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{4, 2},
		{5, 3},
		{9, 3},
		{10, 4},
		{16, 4},
		{17, 5},
		{1 << 20, 1 << 10},
		{1<<20 + 1, 1<<10 + 1},
	}

	for _, tc := range tests {
		if got := Width(tc.n); got != tc.want {
			t.Errorf("Width(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestEncode_TenParameters(t *testing.T) {
	params := make([]math.Vec4, 10)
	for i := range params {
		params[i] = math.RGBA(1, 1, 1, 1)
	}

	tex := Encode(params)

	if tex.Width != 4 {
		t.Fatalf("expected width 4, got %d", tex.Width)
	}
	if len(tex.Pixels) != 16 {
		t.Fatalf("expected 16 pixels, got %d", len(tex.Pixels))
	}
	for i := 0; i < 10; i++ {
		if tex.Pixels[i] != 0xFFFFFFFF {
			t.Errorf("pixel %d: expected 0xFFFFFFFF, got %#08x", i, tex.Pixels[i])
		}
	}
	for i := 10; i < 16; i++ {
		if tex.Pixels[i] != 0 {
			t.Errorf("pixel %d: expected zero, got %#08x", i, tex.Pixels[i])
		}
	}
}

func TestTexture_Reuse(t *testing.T) {
	var tex Texture

	if !tex.Encode(make([]math.Vec4, 5)) {
		t.Error("first encode should allocate")
	}
	if tex.Width != 3 {
		t.Errorf("expected width 3, got %d", tex.Width)
	}

	if tex.Encode(make([]math.Vec4, 9)) {
		t.Error("encode within capacity should reuse the buffer")
	}

	// Shrinking keeps the larger texture and clears stale pixels.
	tex.Pixels[8] = 0x12345678
	if tex.Encode(make([]math.Vec4, 2)) {
		t.Error("encode with fewer parameters should reuse the buffer")
	}
	if tex.Width != 3 || tex.Pixels[8] != 0 {
		t.Errorf("expected cleared width-3 texture, got width %d pixel %#x", tex.Width, tex.Pixels[8])
	}

	if !tex.Encode(make([]math.Vec4, 10)) {
		t.Error("growing past width should recreate")
	}
	if tex.Width != 4 {
		t.Errorf("expected width 4, got %d", tex.Width)
	}
}

func TestPixelRoundTrip(t *testing.T) {
	for _, width := range []int{1, 3, 4, 17} {
		for i := 0; i < width*width; i++ {
			x, y := IndexToPixel(i, width)
			if x < 0 || x >= width || y < 0 || y >= width {
				t.Fatalf("width %d index %d: pixel (%d,%d) out of range", width, i, x, y)
			}
			if got := PixelToIndex(x, y, width); got != i {
				t.Errorf("width %d: index %d round-tripped to %d", width, i, got)
			}
		}
	}
}

func TestIndexToUV(t *testing.T) {
	uv := IndexToUV(5, 4)
	if uv.X != 0.375 || uv.Y != 0.375 {
		t.Errorf("expected (0.375, 0.375), got (%v, %v)", uv.X, uv.Y)
	}

	uv = IndexToUV(0, 1)
	if uv.X != 0.5 || uv.Y != 0.5 {
		t.Errorf("expected (0.5, 0.5), got (%v, %v)", uv.X, uv.Y)
	}
}

func TestZeroWidth(t *testing.T) {
	w := Width(0)
	if x, y := IndexToPixel(3, w); x != 0 || y != 0 {
		t.Errorf("IndexToPixel(3, %d) = (%d, %d), want (0, 0)", w, x, y)
	}
	if uv := IndexToUV(3, w); uv != (math.Vec2{}) {
		t.Errorf("IndexToUV(3, %d) = %v, want zero", w, uv)
	}
}

func TestPack(t *testing.T) {
	tests := []struct {
		name string
		in   math.Vec4
		want uint32
	}{
		{"opaque red", math.RGBA(1, 0, 0, 1), 0xFFFF0000},
		{"opaque blue", math.RGBA(0, 0, 1, 1), 0xFF0000FF},
		{"half alpha", math.RGBA(0, 1, 0, 0.5), 0x8000FF00},
		{"clamped", math.RGBA(2, -1, 0, 3), 0xFFFF0000},
		{"zero", math.Vec4{}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Pack(tc.in); got != tc.want {
				t.Errorf("Pack(%v) = %#08x, want %#08x", tc.in, got, tc.want)
			}
		})
	}
}

func TestPackUnpack(t *testing.T) {
	for _, p := range []uint32{0, 0xFFFFFFFF, 0x80402010, 0x01020304} {
		if got := Pack(Unpack(p)); got != p {
			t.Errorf("Pack(Unpack(%#08x)) = %#08x", p, got)
		}
	}
}

func TestTexture_Image(t *testing.T) {
	tex := Encode([]math.Vec4{
		math.RGBA(1, 0, 0, 1),
		math.RGBA(0, 1, 0, 1),
		math.RGBA(0, 0, 1, 0),
	})

	img := tex.Image()
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("expected 2x2 image, got %v", b)
	}

	c := img.NRGBAAt(1, 0)
	if c.R != 0 || c.G != 255 || c.B != 0 || c.A != 255 {
		t.Errorf("pixel (1,0): unexpected %v", c)
	}
	c = img.NRGBAAt(0, 1)
	if c.B != 255 || c.A != 0 {
		t.Errorf("pixel (0,1): unexpected %v", c)
	}
}
