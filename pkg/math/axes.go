package math

// RemapAxes converts a vector from the SRC coordinate convention into the
// host convention: (x, y, z) -> (-x, z, -y).
//
// The mapping is a rotation-reflection of order four, not an involution:
// applying it twice yields (x, -y, -z). UnremapAxes is its inverse.
func RemapAxes(v Vec3) Vec3 {
	return Vec3{-v.X, v.Z, -v.Y}
}

// UnremapAxes is the inverse of RemapAxes: (x, y, z) -> (-x, -z, y).
func UnremapAxes(v Vec3) Vec3 {
	return Vec3{-v.X, -v.Z, v.Y}
}

// RemapAxesSlice applies RemapAxes to every element in place.
func RemapAxesSlice(vs []Vec3) {
	for i := range vs {
		vs[i] = RemapAxes(vs[i])
	}
}
