package geom

import (
	"fmt"
	"math"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is a unit normal and a reference point lying in the plane.
type Plane struct {
	Normal v3.Vec
	Refpt  v3.Vec
}

// Distance returns the signed distance of p from the plane.
func (pl Plane) Distance(p v3.Vec) float64 {
	return p.Sub(pl.Refpt).Dot(pl.Normal)
}

// Project returns the foot of p on the plane.
func (pl Plane) Project(p v3.Vec) v3.Vec {
	return p.Sub(pl.Normal.MulScalar(pl.Distance(p)))
}

// Reflect mirrors p through the plane.
func (pl Plane) Reflect(p v3.Vec) v3.Vec {
	return p.Sub(pl.Normal.MulScalar(2 * pl.Distance(p)))
}

// IntersectSegment intersects the segment p0-p1 with the plane. t is the
// parameter along the segment; ok is false when the segment is parallel
// to the plane or does not reach it.
func (pl Plane) IntersectSegment(p0, p1 v3.Vec) (pt v3.Vec, t float64, ok bool) {
	d0 := pl.Distance(p0)
	d1 := pl.Distance(p1)
	if math.Abs(d0-d1) < Epsilon {
		if math.Abs(d0) < Epsilon {
			return p0, 0, true
		}
		return v3.Vec{}, 0, false
	}
	t = d0 / (d0 - d1)
	if t < -Epsilon || t > 1+Epsilon {
		return v3.Vec{}, t, false
	}
	return Lerp(p0, p1, t), t, true
}

// Planar reports whether every point lies within tol of the plane.
func (pl Plane) Planar(pts []v3.Vec, tol float64) bool {
	for _, p := range pts {
		if math.Abs(pl.Distance(p)) > tol {
			return false
		}
	}
	return true
}

// Facing is one of the six canonical view planes. The viewport reports
// the active one; rotate-90 and reflect use it to pick their axes.
type Facing int

const (
	FacingXY Facing = iota
	FacingYZ
	FacingXZ
	FacingMinusXY
	FacingMinusYZ
	FacingMinusXZ
)

var facingNames = [...]string{"xy", "yz", "xz", "-xy", "-yz", "-xz"}

func (f Facing) String() string {
	if f < 0 || int(f) >= len(facingNames) {
		return fmt.Sprintf("Facing(%d)", int(f))
	}
	return facingNames[f]
}

// ParseFacing accepts the names produced by String, case-insensitively.
func ParseFacing(s string) (Facing, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range facingNames {
		if n == s {
			return Facing(i), nil
		}
	}
	return 0, fmt.Errorf("unknown facing plane %q", s)
}

// UnmarshalText lets a Facing be read from configuration files.
func (f *Facing) UnmarshalText(text []byte) error {
	v, err := ParseFacing(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Normal returns the unit normal pointing towards the viewer.
func (f Facing) Normal() v3.Vec {
	switch f {
	case FacingXY:
		return v3.Vec{X: 0, Y: 0, Z: 1}
	case FacingYZ:
		return v3.Vec{X: 1, Y: 0, Z: 0}
	case FacingXZ:
		return v3.Vec{X: 0, Y: -1, Z: 0}
	case FacingMinusXY:
		return v3.Vec{X: 0, Y: 0, Z: -1}
	case FacingMinusYZ:
		return v3.Vec{X: -1, Y: 0, Z: 0}
	default:
		return v3.Vec{X: 0, Y: 1, Z: 0}
	}
}

// Horizontal returns the in-plane axis running left to right on screen.
func (f Facing) Horizontal() v3.Vec {
	switch f {
	case FacingYZ:
		return v3.Vec{X: 0, Y: 1, Z: 0}
	case FacingMinusYZ:
		return v3.Vec{X: 0, Y: -1, Z: 0}
	case FacingMinusXY, FacingMinusXZ:
		return v3.Vec{X: -1, Y: 0, Z: 0}
	default:
		return v3.Vec{X: 1, Y: 0, Z: 0}
	}
}

// Vertical returns the in-plane axis running bottom to top, so that
// Horizontal x Vertical == Normal.
func (f Facing) Vertical() v3.Vec {
	return f.Normal().Cross(f.Horizontal())
}

// Plane returns the facing plane passing through p.
func (f Facing) Plane(p v3.Vec) Plane {
	return Plane{Normal: f.Normal(), Refpt: p}
}
