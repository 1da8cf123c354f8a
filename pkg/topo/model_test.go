package topo

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilesp1729/loftycad/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type builder struct {
	m     *Model
	edges map[[2]PointID]EdgeID
}

func newBuilder() *builder {
	return &builder{m: New(), edges: make(map[[2]PointID]EdgeID)}
}

// line returns the straight edge between a and b, creating it once.
func (b *builder) line(p, q PointID) EdgeID {
	key := [2]PointID{min(p, q), max(p, q)}
	if id, ok := b.edges[key]; ok {
		return id
	}
	id := b.m.AddStraight(p, q)
	b.edges[key] = id
	return id
}

// poly builds a face walking the given points in order.
func (b *builder) poly(typ FaceType, pts ...PointID) FaceID {
	var edges []EdgeID
	for i := range pts {
		edges = append(edges, b.line(pts[i], pts[(i+1)%len(pts)]))
	}
	return b.m.NewFace(typ, edges, pts[0])
}

// cube builds a unit cube volume with outward facing faces.
func (b *builder) cube() (VolumeID, []PointID) {
	var p []PointID
	for i := 0; i < 8; i++ {
		p = append(p, b.m.AddPoint(v3.Vec{X: float64(i & 1), Y: float64(i >> 1 & 1), Z: float64(i >> 2 & 1)}))
	}
	faces := []FaceID{
		b.poly(FaceRect, p[0], p[2], p[3], p[1]),
		b.poly(FaceRect, p[4], p[5], p[7], p[6]),
		b.poly(FaceRect, p[0], p[1], p[5], p[4]),
		b.poly(FaceRect, p[2], p[6], p[7], p[3]),
		b.poly(FaceRect, p[0], p[4], p[6], p[2]),
		b.poly(FaceRect, p[1], p[3], p[7], p[5]),
	}
	vid := b.m.NewVolume(faces, OpUnion)
	b.m.AddRoot(VolumeRef(vid))
	return vid, p
}

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

// ---------------------------------------------------------------------------
// Arena
// ---------------------------------------------------------------------------

func TestArenaHandles(t *testing.T) {
	m := New()
	a := m.AddPoint(vec(1, 2, 3))
	b := m.AddPoint(vec(4, 5, 6))
	assert.Equal(t, PointID(1), a)
	assert.Equal(t, PointID(2), b)
	assert.Nil(t, m.Point(0))
	assert.Nil(t, m.Point(99))

	e := m.AddStraight(a, b)
	assert.Equal(t, EdgeStraight, m.Edge(e).Kind())
	assert.NotEqual(t, m.Point(a).UID, m.Point(b).UID)

	m.DeletePoint(a)
	assert.Nil(t, m.Point(a))
	assert.Equal(t, []PointID{b}, m.PointIDs())
	assert.Panics(t, func() { m.Pos(a) })

	c := m.AddPoint(vec(0, 0, 0))
	assert.Equal(t, PointID(3), c, "handles are not reused")
}

func TestEdgeReverseKeepsShape(t *testing.T) {
	m := New()
	c := m.AddPoint(vec(0, 0, 0))
	a := m.AddPoint(vec(1, 0, 0))
	b := m.AddPoint(vec(0, 1, 0))
	id := m.AddArc(a, b, c, vec(0, 0, 1), false, 8)

	before := m.EdgeSamples(id, a)
	m.Edge(id).Reverse()
	after := m.EdgeSamples(id, a)
	require.Len(t, after, len(before))
	for i := range before {
		assert.InDelta(t, 0, before[i].Sub(after[i]).Length(), 1e-9)
	}
	assert.True(t, m.Edge(id).Data.(ArcData).Clockwise)
	assert.Equal(t, b, m.Edge(id).Ends[0])
}

func TestEdgesAtAndPointsOf(t *testing.T) {
	b := newBuilder()
	vid, p := b.cube()

	assert.Len(t, b.m.EdgesAt(p[0]), 3)
	assert.Len(t, b.m.PointsOf(VolumeRef(vid)), 8)
	assert.Len(t, b.m.EdgesOf(VolumeRef(vid)), 12)
	assert.Len(t, b.m.FacesOf(VolumeRef(vid)), 6)

	g := b.m.NewGroup("g", VolumeRef(vid), VolumeRef(vid))
	assert.Len(t, b.m.PointsOf(GroupRef(g)), 8, "aliased members are walked once")
}

func TestReplacePoint(t *testing.T) {
	m := New()
	a := m.AddPoint(vec(0, 0, 0))
	b := m.AddPoint(vec(1, 0, 0))
	b2 := m.AddPoint(vec(1, 0, 0))
	c := m.AddPoint(vec(0, 1, 0))
	e1 := m.AddStraight(a, b)
	e2 := m.AddStraight(b2, c)

	m.ReplacePoint(b2, b)
	assert.Nil(t, m.Point(b2))
	assert.Equal(t, b, m.Edge(e2).Ends[0])
	assert.Equal(t, b, m.Edge(e1).Shared(m.Edge(e2)))
}

func TestDeleteTreeKeepsSharedPoints(t *testing.T) {
	m := New()
	a := m.AddPoint(vec(0, 0, 0))
	b := m.AddPoint(vec(1, 0, 0))
	c := m.AddPoint(vec(0, 1, 0))
	e1 := m.AddStraight(a, b)
	e2 := m.AddStraight(b, c)
	g := m.NewGroup("first", EdgeRef(e1))
	m.AddRoot(GroupRef(g))
	m.AddRoot(EdgeRef(e2))

	m.DeleteTree(GroupRef(g))
	assert.Nil(t, m.Group(g))
	assert.Nil(t, m.Edge(e1))
	assert.Nil(t, m.Point(a))
	assert.NotNil(t, m.Point(b), "b is still used by e2")
	assert.NotNil(t, m.Edge(e2))
	assert.Equal(t, []Ref{EdgeRef(e2)}, m.Roots)
	assert.True(t, m.Dirty)
}

func TestDeleteTreeVolume(t *testing.T) {
	b := newBuilder()
	vid, _ := b.cube()
	b.m.DeleteTree(VolumeRef(vid))
	assert.Equal(t, Stats{}, b.m.Stats())
	assert.Empty(t, b.m.Roots)
}

func TestRoots(t *testing.T) {
	m := New()
	r1, r2, r3 := EdgeRef(1), EdgeRef(2), FaceRef(3)
	m.AddRoot(r1)
	m.AddRoot(r2)
	assert.Equal(t, 0, m.RemoveRoot(r1))
	assert.Equal(t, -1, m.RemoveRoot(r1))
	m.ReplaceRoot(r2, r3)
	assert.Equal(t, []Ref{r3}, m.Roots)
}

func TestVolumeUnlock(t *testing.T) {
	v := &Volume{MaxFaceType: FaceRect}
	assert.True(t, v.CanUnlock(LockPoints))
	v.MaxFaceType = FaceBarrel
	assert.False(t, v.CanUnlock(LockEdges))
	assert.True(t, v.CanUnlock(LockFaces))
}

func TestSetLock(t *testing.T) {
	m := New()
	vid := m.AddVolume(&Volume{MaxFaceType: FaceBarrel})
	require.NoError(t, m.SetLock(vid, LockVolume))
	require.NoError(t, m.SetLock(vid, LockFaces))

	err := m.SetLock(vid, LockEdges)
	assert.True(t, errors.Is(err, errors.ErrCodeLocked))
	assert.Equal(t, LockFaces, m.Volume(vid).Lock)
	assert.False(t, m.Volume(vid).Editable(LockEdges))
	assert.True(t, m.Volume(vid).Editable(LockFaces))

	assert.True(t, errors.Is(m.SetLock(99, LockNone), errors.ErrCodeNotFound))

	for l := LockNone; l <= LockVolume; l++ {
		got, err := ParseLockLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err = ParseLockLevel("everything")
	assert.Error(t, err)
}

func TestNearestPoint(t *testing.T) {
	m := New()
	m.AddPoint(vec(0, 0, 0))
	b := m.AddPoint(vec(1, 0, 0))

	id, ok := m.NearestPoint(vec(0.8, 0.1, 0), 1)
	require.True(t, ok)
	assert.Equal(t, b, id)

	_, ok = m.NearestPoint(vec(5, 5, 5), 1)
	assert.False(t, ok)
}

func TestLoftParams(t *testing.T) {
	p := DefaultLoftParams()
	p.BayTensions = []float64{0.5, 0}
	assert.Equal(t, 0.5, p.BayTension(0))
	assert.Equal(t, DefaultTension, p.BayTension(1))
	assert.Equal(t, DefaultTension, p.BayTension(7))
}
