package geom

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

func assertVec(t *testing.T, want, got v3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-7, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-7, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-7, "z")
}

func TestPolygonNormal(t *testing.T) {
	square := []v3.Vec{vec(0, 0, 0), vec(1, 0, 0), vec(1, 1, 0), vec(0, 1, 0)}
	n, ok := PolygonNormal(square)
	require.True(t, ok)
	assertVec(t, vec(0, 0, 1), n)

	rev := []v3.Vec{square[3], square[2], square[1], square[0]}
	n, ok = PolygonNormal(rev)
	require.True(t, ok)
	assertVec(t, vec(0, 0, -1), n)

	_, ok = PolygonNormal([]v3.Vec{vec(0, 0, 0), vec(1, 0, 0), vec(2, 0, 0)})
	assert.False(t, ok, "collinear points have no normal")
}

func TestPlane(t *testing.T) {
	pl := Plane{Normal: vec(0, 0, 1), Refpt: vec(0, 0, 2)}
	assert.InDelta(t, 3.0, pl.Distance(vec(4, 4, 5)), tol)
	assertVec(t, vec(4, 4, 2), pl.Project(vec(4, 4, 5)))
	assertVec(t, vec(4, 4, -1), pl.Reflect(vec(4, 4, 5)))

	p, tt, ok := pl.IntersectSegment(vec(0, 0, 0), vec(0, 0, 4))
	require.True(t, ok)
	assert.InDelta(t, 0.5, tt, tol)
	assertVec(t, vec(0, 0, 2), p)

	_, _, ok = pl.IntersectSegment(vec(0, 0, 3), vec(0, 0, 4))
	assert.False(t, ok)

	assert.True(t, pl.Planar([]v3.Vec{vec(1, 0, 2), vec(5, 5, 2)}, 1e-6))
	assert.False(t, pl.Planar([]v3.Vec{vec(1, 0, 2), vec(5, 5, 2.1)}, 1e-6))
}

func TestFacingAxes(t *testing.T) {
	for f := FacingXY; f <= FacingMinusXZ; f++ {
		n, h, v := f.Normal(), f.Horizontal(), f.Vertical()
		assert.InDelta(t, 0, n.Dot(h), tol, f.String())
		assertVec(t, n, h.Cross(v))
		parsed, err := ParseFacing(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
	_, err := ParseFacing("diagonal")
	assert.Error(t, err)
}

func TestArcSweepAndPoints(t *testing.T) {
	c := vec(0, 0, 0)
	n := vec(0, 0, 1)
	a := vec(1, 0, 0)
	b := vec(0, 1, 0)

	assert.InDelta(t, math.Pi/2, ArcSweep(c, a, b, n, false), tol)
	assert.InDelta(t, 3*math.Pi/2, ArcSweep(c, a, b, n, true), tol)
	assert.InDelta(t, 2*math.Pi, ArcSweep(c, a, a, n, false), tol)

	pts := ArcPoints(c, a, b, n, false, 4)
	require.Len(t, pts, 5)
	assertVec(t, a, pts[0])
	assertVec(t, b, pts[4])
	mid := pts[2]
	assertVec(t, vec(math.Sqrt2/2, math.Sqrt2/2, 0), mid)
	for _, p := range pts {
		assert.InDelta(t, 1.0, p.Length(), 1e-9)
	}

	cw := ArcPoints(c, a, b, n, true, 4)
	assertVec(t, vec(-math.Sqrt2/2, -math.Sqrt2/2, 0), cw[2])
}

func TestCircleTangent(t *testing.T) {
	// Round a right-angle corner at the origin, backed off by 1 on each leg.
	a := vec(-1, 0, 0)
	b := vec(0, 1, 0)
	dir := vec(1, 0, 0)
	c, ok := CircleTangent(a, dir, b, vec(0, 0, 1))
	require.True(t, ok)
	assertVec(t, vec(-1, 1, 0), c)
	assert.InDelta(t, Dist(c, a), Dist(c, b), tol)

	_, ok = CircleTangent(a, dir, vec(3, 0, 0), vec(0, 0, 1))
	assert.False(t, ok, "second point on the tangent line is degenerate")
}

func TestBezier(t *testing.T) {
	p0, c0, c1, p1 := vec(0, 0, 0), vec(1, 1, 0), vec(2, 1, 0), vec(3, 0, 0)
	assertVec(t, p0, BezierPoint(p0, c0, c1, p1, 0))
	assertVec(t, p1, BezierPoint(p0, c0, c1, p1, 1))
	assertVec(t, vec(1.5, 0.75, 0), BezierPoint(p0, c0, c1, p1, 0.5))
	assert.Len(t, BezierPoints(p0, c0, c1, p1, 8), 9)

	straight := StepsForBezier(p0, vec(1, 0, 0), vec(2, 0, 0), p1, 0.01, 1, 100)
	assert.Equal(t, 1, straight)
	curved := StepsForBezier(p0, c0, c1, p1, 0.01, 1, 100)
	assert.Greater(t, curved, 1)
}

func TestStepsForAngle(t *testing.T) {
	assert.Equal(t, 4, StepsForAngle(0.001, math.Pi, 0.01, 4, 64), "tiny radius uses the minimum")
	fine := StepsForAngle(100, 2*math.Pi, 0.01, 4, 0)
	coarse := StepsForAngle(100, 2*math.Pi, 1, 4, 0)
	assert.Greater(t, fine, coarse)
	assert.Equal(t, 64, StepsForAngle(100, 2*math.Pi, 0.0001, 4, 64))
}

func TestXform(t *testing.T) {
	r := RotateAbout(vec(1, 0, 0), vec(0, 0, 1), math.Pi/2)
	assertVec(t, vec(1, 1, 0), r.Point(vec(2, 0, 0)))
	assertVec(t, vec(0, 1, 0), r.Dir(vec(1, 0, 0)))
	assert.False(t, r.Improper)

	m := ReflectFacing(FacingXY, vec(1, 0, 0))
	assert.True(t, m.Improper)
	assertVec(t, vec(-1, 5, 3), m.Point(vec(3, 5, 3)))

	s := ScaleAbout(vec(1, 1, 1), vec(2, 2, -1))
	assert.True(t, s.Improper)
	assertVec(t, vec(3, 3, 0), s.Point(vec(2, 2, 2)))

	tr := Translate(vec(1, 2, 3))
	assertVec(t, vec(1, 2, 3), tr.Point(vec(0, 0, 0)))
	assertVec(t, vec(1, 0, 0), tr.Dir(vec(1, 0, 0)))
}

func TestBoundsAndLines(t *testing.T) {
	bb := Bounds([]v3.Vec{vec(0, 0, 0), vec(4, -1, 2), vec(1, 3, 1)})
	assertVec(t, vec(0, -1, 0), bb.Min)
	assertVec(t, vec(4, 3, 2), bb.Max)
	assert.Equal(t, 0, LongestAxis(bb))

	a, dir := vec(0, 0, 0), vec(0, 0, 1)
	assertVec(t, vec(0, 0, 5), FootOnLine(vec(3, 4, 5), a, dir))
	assert.InDelta(t, 5.0, DistToLine(vec(3, 4, 5), a, dir), tol)
	assert.InDelta(t, math.Pi/2, Angle(vec(1, 0, 0), vec(0, 2, 0)), tol)
}
