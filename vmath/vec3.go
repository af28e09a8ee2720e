package vmath

// Vec3 is a 3D vector in fixed point
type Vec3 struct {
	X, Y, Z Fixed
}

// Axis is a bitmask selecting vector components
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ

	AxisNone Axis = 0
	AxisAll  Axis = AxisX | AxisY | AxisZ
)

var (
	Zero3  = Vec3{}
	UnitX  = Vec3{One, 0, 0}
	UnitY  = Vec3{0, One, 0}
	UnitZ  = Vec3{0, 0, One}
	Axes3D = [3]Axis{AxisX, AxisY, AxisZ}
)

func V3(x, y, z int) Vec3 { return Vec3{FromInt(x), FromInt(y), FromInt(z)} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Neg() Vec3       { return Vec3{-a.X, -a.Y, -a.Z} }

func (a Vec3) Scale(s Fixed) Vec3 { return Vec3{Mul(a.X, s), Mul(a.Y, s), Mul(a.Z, s)} }

// DivScalar divides every component, zero divisor yields the zero vector
func (a Vec3) DivScalar(s Fixed) Vec3 {
	if s == 0 {
		return Vec3{}
	}
	return Vec3{Div(a.X, s), Div(a.Y, s), Div(a.Z, s)}
}

func (a Vec3) Dot(b Vec3) Fixed { return Mul(a.X, b.X) + Mul(a.Y, b.Y) + Mul(a.Z, b.Z) }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		Mul(a.Y, b.Z) - Mul(a.Z, b.Y),
		Mul(a.Z, b.X) - Mul(a.X, b.Z),
		Mul(a.X, b.Y) - Mul(a.Y, b.X),
	}
}

func (a Vec3) MagSq() Fixed { return a.Dot(a) }
func (a Vec3) Mag() Fixed   { return Sqrt(a.MagSq()) }

func (a Vec3) IsZero() bool { return a.X == 0 && a.Y == 0 && a.Z == 0 }

// Normalize returns the unit vector, zero-safe
// Reports false when the vector is too short to carry a direction
func (a Vec3) Normalize() (Vec3, bool) {
	mag := a.Mag()
	if mag == 0 {
		return Vec3{}, false
	}
	n := Vec3{Div(a.X, mag), Div(a.Y, mag), Div(a.Z, mag)}
	if n.IsZero() {
		return Vec3{}, false
	}
	return n, true
}

// Component returns the value on a single axis
func (a Vec3) Component(axis Axis) Fixed {
	switch axis {
	case AxisX:
		return a.X
	case AxisY:
		return a.Y
	case AxisZ:
		return a.Z
	}
	return 0
}

// SetComponent returns a copy with the given axis replaced
func (a Vec3) SetComponent(axis Axis, v Fixed) Vec3 {
	switch axis {
	case AxisX:
		a.X = v
	case AxisY:
		a.Y = v
	case AxisZ:
		a.Z = v
	}
	return a
}

// Mask zeroes the components not selected by axes
func (a Vec3) Mask(axes Axis) Vec3 {
	if axes&AxisX == 0 {
		a.X = 0
	}
	if axes&AxisY == 0 {
		a.Y = 0
	}
	if axes&AxisZ == 0 {
		a.Z = 0
	}
	return a
}

// ClampMagnitude limits vector magnitude, preserving direction
func (a Vec3) ClampMagnitude(maxMag Fixed) Vec3 {
	if maxMag <= 0 {
		return a
	}
	if a.MagSq() <= Mul(maxMag, maxMag) {
		return a
	}
	n, ok := a.Normalize()
	if !ok {
		return a
	}
	return n.Scale(maxMag)
}

// MinV and MaxV are component-wise
func MinV(a, b Vec3) Vec3 { return Vec3{Min(a.X, b.X), Min(a.Y, b.Y), Min(a.Z, b.Z)} }
func MaxV(a, b Vec3) Vec3 { return Vec3{Max(a.X, b.X), Max(a.Y, b.Y), Max(a.Z, b.Z)} }
