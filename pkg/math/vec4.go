package math

// Vec4 is a 4D vector, used for per-object appearance parameters
// (diffuse RGB plus alpha).
type Vec4 struct {
	X, Y, Z, W float32
}

// RGBA builds a Vec4 from colour channels.
func RGBA(r, g, b, a float32) Vec4 {
	return Vec4{r, g, b, a}
}

// Array returns the components as a fixed-size array.
func (v Vec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}
