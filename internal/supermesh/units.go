package supermesh

// Unit is the length unit a model was authored in.
type Unit string

const (
	Millimeters Unit = "mm"
	Centimeters Unit = "cm"
	Meters      Unit = "m"
	Kilometers  Unit = "km"
)

// ParseUnit maps a model settings unit string to a Unit. Anything
// unrecognised is millimetres.
func ParseUnit(s string) Unit {
	switch Unit(s) {
	case Centimeters, Meters, Kilometers:
		return Unit(s)
	default:
		return Millimeters
	}
}

// Scale returns the factor converting the unit into centimetre world units.
func (u Unit) Scale() float32 {
	switch u {
	case Centimeters:
		return 1
	case Meters:
		return 100
	case Kilometers:
		return 100000
	default:
		return 0.1
	}
}
