package xform

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// Apply maps every point r owns through x, each point once. Arc normals and
// face planes are mapped once per edge and face. When x reverses
// handedness, edges are reversed and faces walk the other way round, so
// windings stay consistent with the mirrored geometry.
func (p *Pass) Apply(r topo.Ref, x geom.Xform) {
	switch r.Kind {
	case topo.KindPoint:
		p.movePoint(topo.PointID(r.ID), x)
	case topo.KindEdge:
		p.applyEdge(topo.EdgeID(r.ID), x)
	case topo.KindFace:
		p.applyFace(topo.FaceID(r.ID), x)
	case topo.KindVolume:
		if v := p.m.Volume(topo.VolumeID(r.ID)); v != nil {
			for _, f := range v.Faces {
				p.applyFace(f, x)
			}
		}
	case topo.KindGroup:
		if g := p.m.Group(topo.GroupID(r.ID)); g != nil {
			for _, c := range g.Members {
				p.Apply(c, x)
			}
		}
	}
}

func (p *Pass) movePoint(id topo.PointID, x geom.Xform) {
	if p.moved[id] {
		return
	}
	p.moved[id] = true
	p.m.SetPos(id, x.Point(p.m.Pos(id)))
}

func (p *Pass) applyEdge(id topo.EdgeID, x geom.Xform) {
	if p.edgeDone[id] {
		return
	}
	p.edgeDone[id] = true
	e := p.m.MustEdge(id)
	for _, pt := range e.Points() {
		p.movePoint(pt, x)
	}
	if d, ok := e.Data.(topo.ArcData); ok {
		d.Normal = x.UnitDir(d.Normal)
		e.Data = d
	}
	if x.Improper {
		e.Reverse()
		if d, ok := e.Data.(topo.ArcData); ok {
			d.Normal = d.Normal.MulScalar(-1)
			e.Data = d
		}
	}
}

func (p *Pass) applyFace(id topo.FaceID, x geom.Xform) {
	if p.faceDone[id] {
		return
	}
	p.faceDone[id] = true
	f := p.m.MustFace(id)
	for _, e := range f.Edges {
		p.applyEdge(e, x)
	}
	f.Plane.Normal = x.UnitDir(f.Plane.Normal)
	f.Plane.Refpt = x.Point(f.Plane.Refpt)
	if x.Improper {
		// applyEdge has already reversed every edge once, which turns a
		// single-edge contour round; only the order is left to reverse.
		p.m.ReverseOrder(id)
	}
}

// MoveObj translates r by d.
func (p *Pass) MoveObj(r topo.Ref, d v3.Vec) {
	p.Apply(r, geom.Translate(d))
}

// RotateObjAxis rotates r by angle radians about the axis through centre.
func (p *Pass) RotateObjAxis(r topo.Ref, centre, axis v3.Vec, angle float64) {
	u, ok := geom.Unit(axis)
	if !ok {
		return
	}
	p.Apply(r, geom.RotateAbout(centre, u, angle))
}

// RotateObj90Facing turns r a quarter turn anticlockwise as seen in the
// facing plane.
func (p *Pass) RotateObj90Facing(r topo.Ref, centre v3.Vec) {
	p.RotateObjAxis(r, centre, p.cfg.Facing.Normal(), math.Pi/2)
}

// RotateObjFreeFacing rotates r by deg degrees about the facing plane
// normal through centre.
func (p *Pass) RotateObjFreeFacing(r topo.Ref, centre v3.Vec, deg float64) {
	p.RotateObjAxis(r, centre, p.cfg.Facing.Normal(), deg*math.Pi/180)
}

// ReflectObjFacing mirrors r left to right as seen in the facing plane.
func (p *Pass) ReflectObjFacing(r topo.Ref, centre v3.Vec) {
	p.Apply(r, geom.ReflectFacing(p.cfg.Facing, centre))
}

// ScaleObjFree scales r about centre by s per axis.
func (p *Pass) ScaleObjFree(r topo.Ref, centre, s v3.Vec) {
	p.Apply(r, geom.ScaleAbout(centre, s))
}
