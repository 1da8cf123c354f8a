package topo

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/gilesp1729/loftycad/pkg/geom"
)

// Point is a position shared by every edge that references it.
type Point struct {
	UID uuid.UUID
	Pos v3.Vec
}

// EdgeKind is derived from an edge's payload.
type EdgeKind int

const (
	EdgeStraight EdgeKind = iota
	EdgeArc
	EdgeBezier
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeStraight:
		return "straight"
	case EdgeArc:
		return "arc"
	case EdgeBezier:
		return "bezier"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// EdgeData is the kind-specific payload of an edge. It is one of
// StraightData, ArcData or BezierData.
type EdgeData interface {
	edgeKind() EdgeKind
}

// StraightData is the payload of a line segment.
type StraightData struct{}

// ArcData is the payload of a circular arc running from Ends[0] to Ends[1]
// about Centre, counter-clockwise about Normal unless Clockwise is set.
// Coincident ends make a full circle.
type ArcData struct {
	Centre    PointID
	Normal    v3.Vec
	Clockwise bool
}

// BezierData is the payload of a cubic Bezier. Ctrl[0] belongs to
// Ends[0] and Ctrl[1] to Ends[1].
type BezierData struct {
	Ctrl [2]PointID
}

func (StraightData) edgeKind() EdgeKind { return EdgeStraight }
func (ArcData) edgeKind() EdgeKind      { return EdgeArc }
func (BezierData) edgeKind() EdgeKind   { return EdgeBezier }

// Edge joins two points. Construction edges are drawing aids that never
// become part of a solid; Corner edges were inserted by a chamfer or round.
type Edge struct {
	UID          uuid.UUID
	Ends         [2]PointID
	Data         EdgeData
	Steps        int
	Construction bool
	Corner       bool
}

// Kind returns the variant of the edge payload.
func (e *Edge) Kind() EdgeKind {
	if e.Data == nil {
		return EdgeStraight
	}
	return e.Data.edgeKind()
}

// Has reports whether p is one of the endpoints.
func (e *Edge) Has(p PointID) bool {
	return e.Ends[0] == p || e.Ends[1] == p
}

// Other returns the endpoint opposite p, or 0 if p is not an endpoint.
func (e *Edge) Other(p PointID) PointID {
	switch p {
	case e.Ends[0]:
		return e.Ends[1]
	case e.Ends[1]:
		return e.Ends[0]
	}
	return 0
}

// Shared returns the endpoint common to e and o, or 0.
func (e *Edge) Shared(o *Edge) PointID {
	for _, p := range e.Ends {
		if o.Has(p) {
			return p
		}
	}
	return 0
}

// Extra returns the points owned by the payload: the arc centre or the
// Bezier control points.
func (e *Edge) Extra() []PointID {
	switch d := e.Data.(type) {
	case ArcData:
		return []PointID{d.Centre}
	case BezierData:
		return []PointID{d.Ctrl[0], d.Ctrl[1]}
	}
	return nil
}

// Points returns the endpoints followed by the payload points.
func (e *Edge) Points() []PointID {
	return append([]PointID{e.Ends[0], e.Ends[1]}, e.Extra()...)
}

// Reverse swaps the direction of the edge without changing its shape.
func (e *Edge) Reverse() {
	e.Ends[0], e.Ends[1] = e.Ends[1], e.Ends[0]
	switch d := e.Data.(type) {
	case ArcData:
		d.Clockwise = !d.Clockwise
		e.Data = d
	case BezierData:
		d.Ctrl[0], d.Ctrl[1] = d.Ctrl[1], d.Ctrl[0]
		e.Data = d
	}
}

// replace re-points every reference to old at p.
func (e *Edge) replace(old, p PointID) {
	for i := range e.Ends {
		if e.Ends[i] == old {
			e.Ends[i] = p
		}
	}
	switch d := e.Data.(type) {
	case ArcData:
		if d.Centre == old {
			d.Centre = p
			e.Data = d
		}
	case BezierData:
		for i := range d.Ctrl {
			if d.Ctrl[i] == old {
				d.Ctrl[i] = p
			}
		}
		e.Data = d
	}
}

// Length returns the length of the sampled edge.
func (m *Model) Length(id EdgeID) float64 {
	e := m.MustEdge(id)
	pts := m.EdgeSamples(id, e.Ends[0])
	var l float64
	for i := 1; i < len(pts); i++ {
		l += geom.Dist(pts[i-1], pts[i])
	}
	return l
}

// EdgeSamples flattens an edge into points running from the endpoint from
// to the other end. Both ends are included.
func (m *Model) EdgeSamples(id EdgeID, from PointID) []v3.Vec {
	e := m.MustEdge(id)
	a, b := m.Pos(e.Ends[0]), m.Pos(e.Ends[1])

	var pts []v3.Vec
	switch d := e.Data.(type) {
	case ArcData:
		pts = geom.ArcPoints(m.Pos(d.Centre), a, b, d.Normal, d.Clockwise, e.Steps)
	case BezierData:
		pts = geom.BezierPoints(a, m.Pos(d.Ctrl[0]), m.Pos(d.Ctrl[1]), b, e.Steps)
	default:
		pts = []v3.Vec{a, b}
	}
	if from == e.Ends[1] && e.Ends[0] != e.Ends[1] {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// Direction returns the unit chord direction of an edge traversed from
// the endpoint from.
func (m *Model) Direction(id EdgeID, from PointID) v3.Vec {
	e := m.MustEdge(id)
	d := m.Pos(e.Other(from)).Sub(m.Pos(from))
	u, _ := geom.Unit(d)
	return u
}
