// Package construct builds faces and volumes from edges and faces:
// faces from closed edge loops, chamfered and rounded corners, extrusions,
// bodies of revolution and lofted volumes.
//
// Every constructor checks its preconditions before touching the model. A
// constructor that returns an error has left the model exactly as it was.
package construct

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// FaceOptions control MakeFace.
type FaceOptions struct {
	// Reverse turns the face over.
	Reverse bool
	// AutoOrient turns the face over when its normal opposes the facing
	// plane normal.
	AutoOrient bool
	// RequireCurved fails instead of falling back to a flat face when a
	// non-planar loop has opposing edges of different kinds.
	RequireCurved bool
}

// MakeFace turns a group of edges forming one closed loop into a face. The
// edges may be in any order and direction; endpoints within the
// configured tolerance are merged. The face replaces the group in the
// object tree and the group is deleted.
func MakeFace(m *topo.Model, cfg config.Config, gid topo.GroupID, opts FaceOptions) (topo.FaceID, error) {
	if m.Group(gid) == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "group %d does not exist", gid)
	}
	if !m.IsEdgeGroup(gid) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "group %d is not an edge group", gid)
	}
	ch, err := planChain(m, m.GroupEdges(gid), cfg.Tolerance, true)
	if err != nil {
		return 0, err
	}

	samples := ch.samples(m)
	typ, ok := m.Classify(ch.edges, samples, cfg.Tolerance)
	if !ok && opts.RequireCurved {
		return 0, errors.New(errors.ErrCodeUnpairable, "opposite edges of group %d are of different kinds", gid)
	}
	normal, ok := geom.PolygonNormal(samples)
	if !ok {
		normal = cfg.Facing.Normal()
	}
	flip := opts.Reverse || (opts.AutoOrient && normal.Dot(cfg.Facing.Normal()) < 0)

	ch.apply(m)
	fid := newFace(m, typ, ch.edges, ch.verts[0], normal)
	if flip {
		m.FlipFace(fid)
	}
	if typ.Curved() {
		m.NormaliseSteps(fid)
	}

	m.ReplaceRoot(topo.GroupRef(gid), topo.FaceRef(fid))
	replaceMember(m, topo.GroupRef(gid), topo.FaceRef(fid))
	m.DeleteGroup(gid)
	m.InvalidateView(topo.FaceRef(fid))

	cfg.Log().Debug("make face", "face", fid, "type", typ, "edges", len(ch.edges), "flipped", flip)
	return fid, nil
}

// newFace stores a single contour face and fits its plane. normal is
// kept if the boundary has no area.
func newFace(m *topo.Model, typ topo.FaceType, edges []topo.EdgeID, initial topo.PointID, normal v3.Vec) topo.FaceID {
	fid := m.AddFace(&topo.Face{
		Type:     typ,
		Edges:    slices.Clone(edges),
		Contours: []topo.Contour{{Start: 0, Initial: initial}},
		Plane:    geom.Plane{Normal: normal},
	})
	m.RecomputePlane(fid)
	return fid
}

// replaceMember swaps old for n in every group listing old.
func replaceMember(m *topo.Model, old, n topo.Ref) {
	for _, gid := range m.GroupIDs() {
		g := m.Group(gid)
		for i, r := range g.Members {
			if r == old {
				g.Members[i] = n
			}
		}
	}
}

// MakeRectFace creates a w by h rectangle in the facing plane with its
// first corner at origin.
func MakeRectFace(m *topo.Model, cfg config.Config, origin v3.Vec, w, h float64) (topo.FaceID, error) {
	if w == 0 || h == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "rectangle %gx%g has no area", w, h)
	}
	hz := cfg.Facing.Horizontal().MulScalar(w)
	vt := cfg.Facing.Vertical().MulScalar(h)
	p := []topo.PointID{
		m.AddPoint(origin),
		m.AddPoint(origin.Add(hz)),
		m.AddPoint(origin.Add(hz).Add(vt)),
		m.AddPoint(origin.Add(vt)),
	}
	edges := make([]topo.EdgeID, 4)
	for i := range p {
		edges[i] = m.AddStraight(p[i], p[(i+1)%4])
	}
	fid := newFace(m, topo.FaceRect, edges, p[0], cfg.Facing.Normal())
	m.AddRoot(topo.FaceRef(fid))
	return fid, nil
}

// MakeCircleFace creates a circle of the given radius in the facing plane.
// The boundary is two half-turn arcs about a shared centre point.
func MakeCircleFace(m *topo.Model, cfg config.Config, centre v3.Vec, radius float64) (topo.FaceID, error) {
	if radius <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "circle radius %g must be positive", radius)
	}
	n := cfg.Facing.Normal()
	r := cfg.Facing.Horizontal().MulScalar(radius)
	c := m.AddPoint(centre)
	a := m.AddPoint(centre.Add(r))
	b := m.AddPoint(centre.Sub(r))
	steps := geom.StepsForAngle(radius, halfTurn, cfg.ChordTolerance, cfg.MinSteps, cfg.MaxSteps)
	edges := []topo.EdgeID{
		m.AddArc(a, b, c, n, false, steps),
		m.AddArc(b, a, c, n, false, steps),
	}
	fid := newFace(m, topo.FaceCircle, edges, a, n)
	m.AddRoot(topo.FaceRef(fid))
	return fid, nil
}
