package math

import "github.com/chewxy/math32"

// Box is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBox to start an accumulation.
type Box struct {
	Min, Max Vec3
}

// EmptyBox returns a box that contains nothing and grows on the first Extend.
func EmptyBox() Box {
	inf := math32.Inf(1)
	return Box{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// BoxOf returns the bounds of the given points.
func BoxOf(points []Vec3) Box {
	b := EmptyBox()
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the box grown to include p.
func (b Box) Extend(p Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return Box{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Translate returns the box moved by offset.
func (b Box) Translate(offset Vec3) Box {
	if b.IsEmpty() {
		return b
	}
	return Box{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of the box along each axis.
func (b Box) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}
