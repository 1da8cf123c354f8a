package xform

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// DecayFactor is the Gaussian fall-off of the halo at distance d from the
// centre of the moved face. Its standard deviation is a third of radius
// and it is zero beyond radius.
func DecayFactor(d, radius float64) float64 {
	if radius <= 0 || d > radius {
		return 0
	}
	sigma := radius / 3
	return math.Exp(-d * d / (2 * sigma * sigma))
}

// CosineFactor is how strongly a neighbour whose normal is n follows a face
// whose normal is faceNormal: fully when coplanar, not at all when
// perpendicular or facing away.
func CosineFactor(n, faceNormal v3.Vec) float64 {
	return math.Max(0, math.Min(1, n.Dot(faceNormal)))
}

// Halo drags the points of the other faces of fid's volume part of the way
// along offset. The moved face itself must already be fully moved in this
// pass; its points are skipped, as is any point moved earlier. Each point's
// decay and cosine factors are computed once and kept for the pass.
func (p *Pass) Halo(fid topo.FaceID, offset v3.Vec, radius float64) {
	f := p.m.MustFace(fid)
	v := p.m.Volume(f.Volume)
	if v == nil || radius <= 0 {
		return
	}

	var pts []v3.Vec
	for _, s := range p.m.FaceWalk(fid) {
		pts = append(pts, p.m.Pos(s.From).Sub(offset))
	}
	centre := geom.Centroid(pts)
	normal := f.Plane.Normal

	for _, other := range v.Faces {
		if other == fid {
			continue
		}
		n := p.m.MustFace(other).Plane.Normal
		for _, id := range p.m.PointsOf(topo.FaceRef(other)) {
			if p.moved[id] {
				continue
			}
			k := p.Decay(id, centre, radius) * p.Cosine(id, n, normal)
			p.moved[id] = true
			if k > 0 {
				p.m.SetPos(id, p.m.Pos(id).Add(offset.MulScalar(k)))
			}
		}
	}
}

// Decay returns the memoised distance decay of a point.
func (p *Pass) Decay(id topo.PointID, centre v3.Vec, radius float64) float64 {
	if d, ok := p.decay[id]; ok {
		return d
	}
	d := DecayFactor(geom.Dist(p.m.Pos(id), centre), radius)
	p.decay[id] = d
	return d
}

// Cosine returns the memoised normal alignment of a point. The first
// neighbour face a point is reached through decides it.
func (p *Pass) Cosine(id topo.PointID, n, faceNormal v3.Vec) float64 {
	if c, ok := p.cosine[id]; ok {
		return c
	}
	c := CosineFactor(n, faceNormal)
	p.cosine[id] = c
	return c
}

// FixCorners re-solves the rounded corners of the faces under r whose
// endpoints moved in this pass while their centre did not. A corner that
// can no longer be rounded becomes a chamfer.
func (p *Pass) FixCorners(r topo.Ref) {
	for _, fid := range p.m.FacesOf(r) {
		walks, err := p.m.ContourWalks(fid)
		if err != nil {
			continue
		}
		normal := p.m.Face(fid).Plane.Normal
		for _, w := range walks {
			for i, s := range w {
				e := p.m.MustEdge(s.Edge)
				d, ok := e.Data.(topo.ArcData)
				if !ok || !e.Corner || p.moved[d.Centre] {
					continue
				}
				if !p.moved[s.From] && !p.moved[s.To] {
					continue
				}
				prev := w[(i+len(w)-1)%len(w)]
				a, b := p.m.Pos(s.From), p.m.Pos(s.To)
				tan, _ := geom.Unit(a.Sub(p.m.Pos(prev.From)))
				c, ok := geom.CircleTangent(a, tan, b, normal)
				if !ok {
					e.Data = topo.StraightData{}
					if !p.m.Referenced(d.Centre) {
						p.m.DeletePoint(d.Centre)
					}
					continue
				}
				p.m.SetPos(d.Centre, c)
				p.moved[d.Centre] = true
				// Keep the short way round from the walk's start to its end.
				turn := a.Sub(c).Cross(b.Sub(c)).Dot(d.Normal)
				cw := turn < 0
				if s.Reversed {
					cw = !cw
				}
				d.Clockwise = cw
				e.Data = d
			}
		}
	}
}
