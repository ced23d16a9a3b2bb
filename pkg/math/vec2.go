// Package math provides the small vector and bounding-volume types shared by
// the SRC decoder, the identity transform and the exporters.
package math

// Vec2 is a 2D vector. Its memory layout matches a tightly packed
// two-component float32 attribute (8 bytes).
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Array returns the components as a fixed-size array.
func (v Vec2) Array() [2]float32 {
	return [2]float32{v.X, v.Y}
}
