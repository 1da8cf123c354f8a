package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Xform is an affine map applied to points and directions. Improper is set
// when the map reverses handedness (reflections, odd negative scales).
type Xform struct {
	M        sdf.M44
	Improper bool
}

// Translate returns a translation by d.
func Translate(d v3.Vec) Xform {
	return Xform{M: sdf.Translate3d(d)}
}

// about conjugates m so that it acts about centre rather than the origin.
func about(centre v3.Vec, m sdf.M44) sdf.M44 {
	return sdf.Translate3d(centre).Mul(m).Mul(sdf.Translate3d(centre.MulScalar(-1)))
}

// RotateAbout returns a rotation by angle radians about the axis through
// centre (right hand rule).
func RotateAbout(centre, axis v3.Vec, angle float64) Xform {
	return Xform{M: about(centre, sdf.Rotate3d(axis, angle))}
}

// ScaleAbout returns a scale by s about centre.
func ScaleAbout(centre, s v3.Vec) Xform {
	return Xform{
		M:        about(centre, sdf.Scale3d(s)),
		Improper: s.X*s.Y*s.Z < 0,
	}
}

// ReflectFacing mirrors across the plane through centre perpendicular to
// the facing plane's horizontal axis, flipping the view left to right.
func ReflectFacing(f Facing, centre v3.Vec) Xform {
	s := v3.Vec{X: 1, Y: 1, Z: 1}
	h := f.Horizontal()
	switch {
	case h.X != 0:
		s.X = -1
	case h.Y != 0:
		s.Y = -1
	default:
		s.Z = -1
	}
	return Xform{M: about(centre, sdf.Scale3d(s)), Improper: true}
}

// Point maps a position.
func (x Xform) Point(p v3.Vec) v3.Vec {
	return x.M.MulPosition(p)
}

// Dir maps a direction, ignoring translation.
func (x Xform) Dir(d v3.Vec) v3.Vec {
	return x.M.MulPosition(d).Sub(x.M.MulPosition(v3.Vec{}))
}

// UnitDir maps a direction and renormalises it. A direction collapsed by
// a degenerate scale is returned unchanged.
func (x Xform) UnitDir(d v3.Vec) v3.Vec {
	if u, ok := Unit(x.Dir(d)); ok {
		return u
	}
	return d
}
