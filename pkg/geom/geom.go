// Package geom holds the geometry helpers shared by the topology,
// construction and transform packages. Points and directions are
// sdfx v3.Vec values; affine maps are sdf.M44 matrices.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Epsilon is the floor below which lengths are treated as zero.
const Epsilon = 1.0e-9

// Dist returns the distance between two points.
func Dist(a, b v3.Vec) float64 {
	return a.Sub(b).Length()
}

// Near reports whether two points are within tol of each other.
func Near(a, b v3.Vec, tol float64) bool {
	return Dist(a, b) <= tol
}

// Unit returns v scaled to unit length. ok is false for a zero vector,
// in which case the zero vector is returned.
func Unit(v v3.Vec) (u v3.Vec, ok bool) {
	l := v.Length()
	if l < Epsilon {
		return v3.Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

// Angle returns the unsigned angle between two directions in radians.
func Angle(a, b v3.Vec) float64 {
	return math.Atan2(a.Cross(b).Length(), a.Dot(b))
}

// Lerp interpolates between a and b.
func Lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// Centroid returns the mean of the points, or the zero vector.
func Centroid(pts []v3.Vec) v3.Vec {
	var c v3.Vec
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.MulScalar(1 / float64(len(pts)))
}

// PolygonNormal returns the unit normal of a closed point sequence as the
// area-weighted sum of successive vertex cross products (taken about the
// centroid). ok is false when the polygon has no area.
func PolygonNormal(pts []v3.Vec) (v3.Vec, bool) {
	if len(pts) < 3 {
		return v3.Vec{}, false
	}
	c := Centroid(pts)
	var n v3.Vec
	for i := range pts {
		a := pts[i].Sub(c)
		b := pts[(i+1)%len(pts)].Sub(c)
		n = n.Add(a.Cross(b))
	}
	return Unit(n)
}

// Component returns the coordinate of v along axis 0, 1 or 2.
func Component(v v3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Bounds returns the bounding box of a point set.
func Bounds(pts []v3.Vec) sdf.Box3 {
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb = bb.Extend(sdf.Box3{Min: p, Max: p})
	}
	return bb
}

// LongestAxis returns the index of the largest extent of a box.
func LongestAxis(bb sdf.Box3) int {
	size := bb.Size()
	axis := 0
	for i := 1; i < 3; i++ {
		if Component(size, i) > Component(size, axis) {
			axis = i
		}
	}
	return axis
}

// FootOnLine returns the projection of p onto the line through a with
// unit direction dir.
func FootOnLine(p, a, dir v3.Vec) v3.Vec {
	return a.Add(dir.MulScalar(p.Sub(a).Dot(dir)))
}

// DistToLine returns the distance from p to the line through a with unit
// direction dir.
func DistToLine(p, a, dir v3.Vec) float64 {
	return Dist(p, FootOnLine(p, a, dir))
}
