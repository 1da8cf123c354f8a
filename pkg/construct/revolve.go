package construct

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
	"github.com/gilesp1729/loftycad/pkg/xform"
)

// revolvedType is the type of a face swept round an axis from an edge of
// the given kind.
func revolvedType(k topo.EdgeKind) topo.FaceType {
	switch k {
	case topo.EdgeArc:
		return topo.FaceBarrel
	case topo.EdgeBezier:
		return topo.FaceBezier
	default:
		return topo.FaceCylindrical
	}
}

// scratch collects objects made while building so they can be thrown
// away if the build fails part way.
type scratch struct {
	m    *topo.Model
	refs []topo.Ref
}

func (s *scratch) add(r ...topo.Ref) { s.refs = append(s.refs, r...) }

func (s *scratch) discard() {
	g := s.m.NewGroup("scratch", s.refs...)
	s.m.DeleteTree(topo.GroupRef(g))
}

// MakeBodyOfRevolution sweeps an open or closed profile of edges a full
// turn about the straight path edge. Profile points on the axis are
// shared by both halves; every other point gets two half-turn arcs about
// its foot on the axis. An open profile is closed with circular end caps
// at ends lying off the axis. A negative body is wound inside out and
// subtracts from what it overlaps.
func MakeBodyOfRevolution(m *topo.Model, cfg config.Config, profile topo.GroupID, path topo.EdgeID, negative bool) (topo.VolumeID, error) {
	pe := m.Edge(path)
	if pe == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "path edge %d does not exist", path)
	}
	if pe.Kind() != topo.EdgeStraight {
		return 0, errors.New(errors.ErrCodeEdgeType, "path edge %d is not straight", path)
	}
	a0 := m.Pos(pe.Ends[0])
	dir, ok := geom.Unit(m.Pos(pe.Ends[1]).Sub(a0))
	if !ok {
		return 0, errors.New(errors.ErrCodeDegenerate, "path edge %d has no length", path)
	}
	if !m.IsEdgeGroup(profile) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "profile %d is not an edge group", profile)
	}
	edges := m.GroupEdges(profile)
	if slices.Contains(edges, path) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "path edge %d is part of the profile", path)
	}
	ch, err := planChain(m, edges, cfg.Tolerance, false)
	if err != nil {
		return 0, err
	}

	tol := cfg.Tolerance
	foot := func(p v3.Vec) v3.Vec { return geom.FootOnLine(p, a0, dir) }
	onAxis := make([]bool, len(ch.verts))
	for i, v := range ch.verts {
		onAxis[i] = geom.DistToLine(m.Pos(v), a0, dir) <= tol
	}
	vert := func(i int) int { return i % len(ch.verts) }
	skip := make([]bool, len(ch.edges))
	swept := 0
	for i, id := range ch.edges {
		skip[i] = onAxis[vert(i)] && onAxis[vert(i+1)] && m.MustEdge(id).Kind() == topo.EdgeStraight
		if !skip[i] {
			swept++
		}
	}
	if swept == 0 {
		return 0, errors.New(errors.ErrCodeDegenerate, "profile lies on the axis")
	}

	samples := ch.samples(m)
	maxR := 0.0
	for _, p := range samples {
		maxR = max(maxR, geom.DistToLine(p, a0, dir))
	}
	outline := slices.Clone(samples)
	if !ch.closed {
		outline = append(outline, foot(samples[len(samples)-1]), foot(samples[0]))
	}
	np, ok := geom.PolygonNormal(outline)
	if !ok {
		return 0, errors.New(errors.ErrCodeDegenerate, "profile has no area about the axis")
	}
	centroid := geom.Centroid(samples)
	radial := centroid.Sub(foot(centroid))
	flip := (np.Cross(dir).Dot(radial) < 0) != negative

	// Everything is checked; build.
	ch.apply(m)
	sc := &scratch{m: m}
	pa, pb := xform.NewPass(m, cfg), xform.NewPass(m, cfg)
	ga := pa.GroupCopy(profile, v3.Vec{})
	gb := pb.GroupCopy(profile, v3.Vec{})
	sc.add(topo.GroupRef(ga), topo.GroupRef(gb))
	pb.RotateObjAxis(topo.GroupRef(gb), a0, dir, halfTurn)

	nv := len(ch.verts)
	va, vb := make([]topo.PointID, nv), make([]topo.PointID, nv)
	up, down := make([]topo.EdgeID, nv), make([]topo.EdgeID, nv)
	steps := geom.StepsForAngle(maxR, halfTurn, cfg.ChordTolerance, cfg.MinSteps, cfg.MaxSteps)
	for i, v := range ch.verts {
		va[i], _ = pa.PointCopyOf(v)
		vb[i], _ = pb.PointCopyOf(v)
		if onAxis[i] {
			m.ReplacePoint(vb[i], va[i])
			vb[i] = va[i]
			continue
		}
		c := m.AddPoint(foot(m.Pos(v)))
		up[i] = m.AddArc(va[i], vb[i], c, dir, false, steps)
		down[i] = m.AddArc(vb[i], va[i], c, dir, false, steps)
		sc.add(topo.EdgeRef(up[i]), topo.EdgeRef(down[i]))
	}

	var faces []topo.FaceID
	build := func(typ topo.FaceType, initial topo.PointID, edges ...topo.EdgeID) error {
		edges = slices.DeleteFunc(edges, func(e topo.EdgeID) bool { return e == 0 })
		if _, err := m.WalkLoop(edges, initial); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "revolved face does not close")
		}
		fid := newFace(m, typ, edges, initial, dir)
		sc.add(topo.FaceRef(fid))
		faces = append(faces, fid)
		return nil
	}

	for i, id := range ch.edges {
		if skip[i] {
			continue
		}
		j := vert(i + 1)
		ea, _ := pa.EdgeCopyOf(id)
		eb, _ := pb.EdgeCopyOf(id)
		typ := revolvedType(m.MustEdge(id).Kind())
		if err := build(typ, va[i], ea, up[j], eb, up[i]); err != nil {
			sc.discard()
			return 0, err
		}
		if err := build(typ, vb[i], eb, down[j], ea, down[i]); err != nil {
			sc.discard()
			return 0, err
		}
	}
	for _, fid := range faces {
		if flip {
			m.FlipFace(fid)
		}
		m.NormaliseSteps(fid)
	}

	if !ch.closed {
		for _, k := range []int{0, nv - 1} {
			if onAxis[k] {
				continue
			}
			if err := build(topo.FaceCircle, va[k], up[k], down[k]); err != nil {
				sc.discard()
				return 0, err
			}
			// The cap faces along the axis, away from the profile.
			axial := foot(m.Pos(ch.verts[k])).Sub(foot(centroid)).Dot(dir)
			if (axial < 0) != negative {
				m.FlipFace(faces[len(faces)-1])
			}
		}
	}

	op := topo.OpUnion
	if negative {
		op = topo.OpDifference
	}
	vid := m.NewVolume(faces, op)
	m.AddRoot(topo.VolumeRef(vid))

	// Clone edges lying on the axis bound no face.
	for i, id := range ch.edges {
		if skip[i] {
			ea, _ := pa.EdgeCopyOf(id)
			eb, _ := pb.EdgeCopyOf(id)
			m.DeleteEdge(ea)
			m.DeleteEdge(eb)
		}
	}
	m.DeleteGroup(ga)
	m.DeleteGroup(gb)
	m.InvalidateView(topo.VolumeRef(vid))

	cfg.Log().Debug("revolve", "profile", profile, "volume", vid, "faces", len(faces), "steps", steps, "negative", negative)
	return vid, nil
}
