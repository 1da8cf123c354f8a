package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// RotateVec rotates v about the unit axis by angle radians (right hand rule).
func RotateVec(v, axis v3.Vec, angle float64) v3.Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return v.MulScalar(c).
		Add(axis.Cross(v).MulScalar(s)).
		Add(axis.MulScalar(axis.Dot(v) * (1 - c)))
}

// ArcSweep returns the angle swept going from start to end about centre,
// counter-clockwise about normal unless clockwise is set. Coincident
// endpoints denote a full circle.
func ArcSweep(centre, start, end, normal v3.Vec, clockwise bool) float64 {
	n, ok := Unit(normal)
	if !ok {
		return 0
	}
	u := start.Sub(centre)
	w := end.Sub(centre)
	theta := math.Atan2(n.Dot(u.Cross(w)), u.Dot(w))
	if math.Abs(theta) < 1.0e-12 && Dist(start, end) < Epsilon {
		return 2 * math.Pi
	}
	if theta < 0 {
		theta += 2 * math.Pi
	}
	if clockwise {
		theta = 2*math.Pi - theta
	}
	return theta
}

// ArcPoints samples an arc into steps+1 points, the first and last being
// start and end exactly.
func ArcPoints(centre, start, end, normal v3.Vec, clockwise bool, steps int) []v3.Vec {
	if steps < 1 {
		steps = 1
	}
	n, ok := Unit(normal)
	if !ok {
		return []v3.Vec{start, end}
	}
	sweep := ArcSweep(centre, start, end, n, clockwise)
	if clockwise {
		sweep = -sweep
	}
	u := start.Sub(centre)
	r0 := u.Length()
	r1 := end.Sub(centre).Length()

	pts := make([]v3.Vec, 0, steps+1)
	pts = append(pts, start)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		v := RotateVec(u, n, sweep*t)
		if r0 > Epsilon {
			v = v.MulScalar((r0 + (r1-r0)*t) / r0)
		}
		pts = append(pts, centre.Add(v))
	}
	return append(pts, end)
}

// CircleTangent finds the centre of the circle through p1 and p2 that is
// tangent to dir at p1 and lies in the plane with the given normal.
// ok is false for a degenerate configuration (p2 on the tangent line).
func CircleTangent(p1, dir, p2, normal v3.Vec) (centre v3.Vec, ok bool) {
	perp, ok := Unit(normal.Cross(dir))
	if !ok {
		return v3.Vec{}, false
	}
	d := p1.Sub(p2)
	den := 2 * perp.Dot(d)
	if math.Abs(den) < Epsilon*math.Max(1, d.Length()) {
		return v3.Vec{}, false
	}
	s := -d.Dot(d) / den
	return p1.Add(perp.MulScalar(s)), true
}

// BezierPoint evaluates a cubic Bezier at t.
func BezierPoint(p0, c0, c1, p1 v3.Vec, t float64) v3.Vec {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return p0.MulScalar(a).Add(c0.MulScalar(b)).Add(c1.MulScalar(c)).Add(p1.MulScalar(d))
}

// BezierPoints samples a cubic Bezier into steps+1 points.
func BezierPoints(p0, c0, c1, p1 v3.Vec, steps int) []v3.Vec {
	if steps < 1 {
		steps = 1
	}
	pts := make([]v3.Vec, 0, steps+1)
	pts = append(pts, p0)
	for i := 1; i < steps; i++ {
		pts = append(pts, BezierPoint(p0, c0, c1, p1, float64(i)/float64(steps)))
	}
	return append(pts, p1)
}

// StepsForAngle returns the number of chords needed to keep an arc of the
// given radius and sweep within tol of the true curve.
func StepsForAngle(radius, sweep, tol float64, min, max int) int {
	if tol <= 0 || radius <= tol {
		return clampSteps(min, min, max)
	}
	per := 2 * math.Acos(1-tol/radius)
	return clampSteps(int(math.Ceil(sweep/per)), min, max)
}

// StepsForBezier bounds the flattening error of a cubic by tol using the
// second differences of its control polygon.
func StepsForBezier(p0, c0, c1, p1 v3.Vec, tol float64, min, max int) int {
	if tol <= 0 {
		return clampSteps(min, min, max)
	}
	d2 := math.Max(
		p0.Sub(c0.MulScalar(2)).Add(c1).Length(),
		c0.Sub(c1.MulScalar(2)).Add(p1).Length(),
	)
	return clampSteps(int(math.Ceil(math.Sqrt(3*d2/(4*tol)))), min, max)
}

func clampSteps(n, min, max int) int {
	if min < 1 {
		min = 1
	}
	if n < min {
		n = min
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}
