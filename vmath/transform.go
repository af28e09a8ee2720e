package vmath

// Rotation holds per-axis angles, applied X then Y then Z
type Rotation struct {
	X, Y, Z Angle
}

func (r Rotation) IsZero() bool {
	return int32(r.X)&LUTMask == 0 && int32(r.Y)&LUTMask == 0 && int32(r.Z)&LUTMask == 0
}

func (r Rotation) Add(o Rotation) Rotation {
	return Rotation{r.X + o.X, r.Y + o.Y, r.Z + o.Z}
}

// Scale holds per-axis scale factors, One is identity
type Scale struct {
	X, Y, Z Fixed
}

var IdentityScale = Scale{One, One, One}

func (s Scale) Mul(o Scale) Scale {
	return Scale{Mul(s.X, o.X), Mul(s.Y, o.Y), Mul(s.Z, o.Z)}
}

// Apply scales a vector component-wise
func (s Scale) Apply(v Vec3) Vec3 {
	return Vec3{Mul(v.X, s.X), Mul(v.Y, s.Y), Mul(v.Z, s.Z)}
}

// Size is an extent in world units
type Size struct {
	X, Y, Z Fixed
}

// PixelSize converts whole pixel dimensions
func PixelSize(x, y, z int) Size { return Size{FromInt(x), FromInt(y), FromInt(z)} }

func (s Size) Vec() Vec3 { return Vec3{s.X, s.Y, s.Z} }

// Transformation is the spatial state of an entity
type Transformation struct {
	Position Vec3
	Rotation Rotation
	Scale    Scale
}

// IdentityAt returns an unrotated, unscaled transformation at position
func IdentityAt(position Vec3) Transformation {
	return Transformation{Position: position, Scale: IdentityScale}
}

// Rotate applies rotation to a vector around the origin
// Zero angles are skipped so unrotated vectors are returned bit-exact
func Rotate(v Vec3, r Rotation) Vec3 {
	if a := int32(r.X) & LUTMask; a != 0 {
		s, c := Sin(r.X), Cos(r.X)
		v = Vec3{v.X, Mul(v.Y, c) - Mul(v.Z, s), Mul(v.Y, s) + Mul(v.Z, c)}
	}
	if a := int32(r.Y) & LUTMask; a != 0 {
		s, c := Sin(r.Y), Cos(r.Y)
		v = Vec3{Mul(v.X, c) + Mul(v.Z, s), v.Y, Mul(v.Z, c) - Mul(v.X, s)}
	}
	if a := int32(r.Z) & LUTMask; a != 0 {
		s, c := Sin(r.Z), Cos(r.Z)
		v = Vec3{Mul(v.X, c) - Mul(v.Y, s), Mul(v.X, s) + Mul(v.Y, c), v.Z}
	}
	return v
}
