package xform

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/topo"
)

// CopyObj deep clones r displaced by offset and returns the clone. Objects
// already cloned in this pass are reused, so a point shared by two source
// edges is shared by their two clones.
func (p *Pass) CopyObj(r topo.Ref, offset v3.Vec) topo.Ref {
	switch r.Kind {
	case topo.KindPoint:
		return topo.PointRef(p.PointCopy(topo.PointID(r.ID), offset))
	case topo.KindEdge:
		return topo.EdgeRef(p.EdgeCopy(topo.EdgeID(r.ID), offset))
	case topo.KindFace:
		return topo.FaceRef(p.FaceCopy(topo.FaceID(r.ID), offset))
	case topo.KindVolume:
		return topo.VolumeRef(p.VolumeCopy(topo.VolumeID(r.ID), offset))
	case topo.KindGroup:
		return topo.GroupRef(p.GroupCopy(topo.GroupID(r.ID), offset))
	}
	return topo.Ref{}
}

// PointCopy clones a point once per pass.
func (p *Pass) PointCopy(id topo.PointID, offset v3.Vec) topo.PointID {
	if c, ok := p.points[id]; ok {
		return c
	}
	c := p.m.AddPoint(p.m.Pos(id).Add(offset))
	p.points[id] = c
	return c
}

// EdgeCopy clones an edge and its points once per pass.
func (p *Pass) EdgeCopy(id topo.EdgeID, offset v3.Vec) topo.EdgeID {
	if c, ok := p.edges[id]; ok {
		return c
	}
	src := p.m.MustEdge(id)
	e := &topo.Edge{
		Ends: [2]topo.PointID{
			p.PointCopy(src.Ends[0], offset),
			p.PointCopy(src.Ends[1], offset),
		},
		Steps:        src.Steps,
		Construction: src.Construction,
		Corner:       src.Corner,
	}
	switch d := src.Data.(type) {
	case topo.ArcData:
		d.Centre = p.PointCopy(d.Centre, offset)
		e.Data = d
	case topo.BezierData:
		d.Ctrl[0] = p.PointCopy(d.Ctrl[0], offset)
		d.Ctrl[1] = p.PointCopy(d.Ctrl[1], offset)
		e.Data = d
	default:
		e.Data = topo.StraightData{}
	}
	c := p.m.AddEdge(e)
	p.edges[id] = c
	return c
}

// FaceCopy clones a face with its edges once per pass. The clone belongs
// to no volume until VolumeCopy attaches it.
func (p *Pass) FaceCopy(id topo.FaceID, offset v3.Vec) topo.FaceID {
	if c, ok := p.faces[id]; ok {
		return c
	}
	src := p.m.MustFace(id)
	f := &topo.Face{
		Type:     src.Type,
		Edges:    make([]topo.EdgeID, len(src.Edges), cap(src.Edges)),
		Contours: make([]topo.Contour, len(src.Contours), cap(src.Contours)),
		Plane:    src.Plane,
	}
	f.Plane.Refpt = f.Plane.Refpt.Add(offset)
	for i, e := range src.Edges {
		f.Edges[i] = p.EdgeCopy(e, offset)
	}
	for i, c := range src.Contours {
		f.Contours[i] = topo.Contour{Start: c.Start, Initial: p.PointCopy(c.Initial, offset)}
	}
	if src.Text != nil {
		t := *src.Text
		f.Text = &t
	}
	c := p.m.AddFace(f)
	p.faces[id] = c
	return c
}

// VolumeCopy clones a volume with its faces once per pass.
func (p *Pass) VolumeCopy(id topo.VolumeID, offset v3.Vec) topo.VolumeID {
	if c, ok := p.volumes[id]; ok {
		return c
	}
	src := p.m.Volume(id)
	faces := make([]topo.FaceID, len(src.Faces))
	for i, f := range src.Faces {
		faces[i] = p.FaceCopy(f, offset)
	}
	c := p.m.NewVolume(faces, src.Op)
	v := p.m.Volume(c)
	v.Lock = src.Lock
	p.m.UpdateVolume(c)
	p.volumes[id] = c
	return c
}

// GroupCopy clones a group and every member once per pass.
func (p *Pass) GroupCopy(id topo.GroupID, offset v3.Vec) topo.GroupID {
	if c, ok := p.groups[id]; ok {
		return c
	}
	src := p.m.Group(id)
	g := &topo.Group{Title: src.Title, Op: src.Op}
	if src.Loft != nil {
		lp := *src.Loft
		lp.BayTensions = slices.Clone(src.Loft.BayTensions)
		g.Loft = &lp
	}
	c := p.m.AddGroup(g)
	p.groups[id] = c
	for _, r := range src.Members {
		g.Members = append(g.Members, p.CopyObj(r, offset))
	}
	return c
}
