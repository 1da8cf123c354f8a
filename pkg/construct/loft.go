package construct

import (
	"math"
	"slices"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
	"github.com/gilesp1729/loftycad/pkg/xform"
)

// section is one face of a loft, oriented so its ring runs counter
// clockwise about the direction of the sweep.
type section struct {
	face     topo.FaceID
	ring     []topo.Step
	normal   v3.Vec
	centre   v3.Vec
	key      float64
	tangent  v3.Vec
	reversed bool
}

func reverseRing(w []topo.Step) []topo.Step {
	out := make([]topo.Step, len(w))
	for i, s := range w {
		out[len(w)-1-i] = topo.Step{Edge: s.Edge, From: s.To, To: s.From, Reversed: !s.Reversed}
	}
	return out
}

func rotateRing(w []topo.Step, k int) []topo.Step {
	return append(slices.Clone(w[k:]), w[:k]...)
}

// loftPath is the polyline a loft follows.
type loftPath struct {
	pts []v3.Vec
	cum []float64
}

func newLoftPath(pts []v3.Vec) *loftPath {
	lp := &loftPath{pts: pts, cum: make([]float64, len(pts))}
	for i := 1; i < len(pts); i++ {
		lp.cum[i] = lp.cum[i-1] + geom.Dist(pts[i-1], pts[i])
	}
	return lp
}

// locate returns how far along the path the plane of a section crosses
// it, and the path direction there. When the plane misses the path the
// nearest path vertex is used.
func (lp *loftPath) locate(centre, normal v3.Vec) (float64, v3.Vec) {
	pl := geom.Plane{Normal: normal, Refpt: centre}
	best, key := math.Inf(1), 0.0
	seg := -1
	for i := 0; i+1 < len(lp.pts); i++ {
		pt, t, ok := pl.IntersectSegment(lp.pts[i], lp.pts[i+1])
		if !ok {
			continue
		}
		if d := geom.Dist(pt, centre); d < best {
			best, seg = d, i
			key = lp.cum[i] + t*(lp.cum[i+1]-lp.cum[i])
		}
	}
	if seg < 0 {
		for i, p := range lp.pts {
			if d := geom.Dist(p, centre); d < best {
				best, seg, key = d, i, lp.cum[i]
			}
		}
		seg = min(seg, len(lp.pts)-2)
	}
	tan, _ := geom.Unit(lp.pts[seg+1].Sub(lp.pts[seg]))
	return key, tan
}

// loftInputs sorts the members of a loft group into sections, an optional
// path and volumes left from an earlier loft.
func loftInputs(m *topo.Model, cfg config.Config, gid topo.GroupID) (faces []topo.FaceID, path *loftPath, old []topo.Ref, err error) {
	g := m.Group(gid)
	for _, r := range g.Members {
		switch r.Kind {
		case topo.KindFace:
			faces = append(faces, topo.FaceID(r.ID))
		case topo.KindVolume:
			old = append(old, r)
		case topo.KindEdge, topo.KindGroup:
			if path != nil {
				return nil, nil, nil, errors.New(errors.ErrCodeInvalidInput, "loft group %d has more than one path", gid)
			}
			var pts []v3.Vec
			if r.Kind == topo.KindEdge {
				e := m.MustEdge(topo.EdgeID(r.ID))
				pts = m.EdgeSamples(topo.EdgeID(r.ID), e.Ends[0])
			} else {
				sub := topo.GroupID(r.ID)
				if !m.IsEdgeGroup(sub) {
					return nil, nil, nil, errors.New(errors.ErrCodeInvalidInput, "loft path %s is not an edge group", r)
				}
				ch, err := planChain(m, m.GroupEdges(sub), cfg.Tolerance, false)
				if err != nil {
					return nil, nil, nil, err
				}
				if ch.closed {
					return nil, nil, nil, errors.New(errors.ErrCodeInvalidInput, "loft path %s is closed", r)
				}
				pts = ch.samples(m)
			}
			path = newLoftPath(pts)
		default:
			return nil, nil, nil, errors.New(errors.ErrCodeInvalidInput, "loft group %d cannot hold %s", gid, r)
		}
	}
	if len(faces) < 2 {
		return nil, nil, nil, errors.New(errors.ErrCodeInvalidInput, "loft group %d needs at least two sections", gid)
	}
	return faces, path, old, nil
}

// planSections orders and orients the sections and lines up their rings.
// The model is not touched.
func planSections(m *topo.Model, faces []topo.FaceID, path *loftPath) ([]*section, error) {
	var secs []*section
	var all []v3.Vec
	for _, fid := range faces {
		f := m.MustFace(fid)
		if f.Volume != 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "section %d belongs to volume %d", fid, f.Volume)
		}
		if len(f.Contours) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "section %d has %d contours", fid, len(f.Contours))
		}
		walks, err := m.ContourWalks(fid)
		if err != nil {
			return nil, err
		}
		if len(walks[0]) < 3 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "section %d has fewer than three edges", fid)
		}
		s := &section{face: fid, ring: walks[0], normal: f.Plane.Normal}
		var pts []v3.Vec
		for _, st := range s.ring {
			pts = append(pts, m.Pos(st.From))
		}
		s.centre = geom.Centroid(pts)
		all = append(all, pts...)
		secs = append(secs, s)
	}
	for _, s := range secs[1:] {
		if len(s.ring) != len(secs[0].ring) {
			return nil, errors.New(errors.ErrCodeSectionMismatch,
				"section %d has %d edges, section %d has %d", s.face, len(s.ring), secs[0].face, len(secs[0].ring))
		}
	}

	axis := geom.LongestAxis(geom.Bounds(all))
	for _, s := range secs {
		var forward float64
		if path != nil {
			s.key, s.tangent = path.locate(s.centre, s.normal)
			forward = s.normal.Dot(s.tangent)
		} else {
			s.key = geom.Component(s.centre, axis)
			forward = geom.Component(s.normal, axis)
		}
		if forward < 0 {
			s.reversed = true
			s.ring = reverseRing(s.ring)
			s.normal = s.normal.MulScalar(-1)
		}
	}
	sort.SliceStable(secs, func(i, j int) bool { return secs[i].key < secs[j].key })

	chord := func(s *section, i int) v3.Vec {
		st := s.ring[i%len(s.ring)]
		d, _ := geom.Unit(m.Pos(st.To).Sub(m.Pos(st.From)))
		return d
	}
	for si := 1; si < len(secs); si++ {
		prev, cur := secs[si-1], secs[si]
		n := len(cur.ring)
		best, bestK := math.Inf(1), -1
		for k := 0; k < n; k++ {
			sum := 0.0
			for i := 0; i < n && sum < best; i++ {
				a := m.MustEdge(prev.ring[i].Edge).Kind()
				b := m.MustEdge(cur.ring[(i+k)%n].Edge).Kind()
				if a != b {
					sum = math.Inf(1)
					break
				}
				sum += geom.Angle(chord(prev, i), chord(cur, i+k))
			}
			if sum < best {
				best, bestK = sum, k
			}
		}
		if bestK < 0 {
			return nil, errors.New(errors.ErrCodeNoRotationMatch,
				"edges of section %d cannot be matched to section %d", cur.face, prev.face)
		}
		cur.ring = rotateRing(cur.ring, bestK)
	}
	return secs, nil
}

// MakeLoftedVolume skins the faces of a loft group with Bezier patches.
// The sections are ordered along the group's path, or along the longest
// axis of their bounds when there is none, and each is turned to best
// match its predecessor edge for edge. Sections are cloned, so the group
// keeps its faces and can be lofted again after they are edited; a volume
// from an earlier loft is replaced.
func MakeLoftedVolume(m *topo.Model, cfg config.Config, gid topo.GroupID) (topo.VolumeID, error) {
	g := m.Group(gid)
	if g == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "group %d does not exist", gid)
	}
	faces, path, old, err := loftInputs(m, cfg, gid)
	if err != nil {
		return 0, err
	}
	secs, err := planSections(m, faces, path)
	if err != nil {
		return 0, err
	}
	params := topo.DefaultLoftParams()
	if g.Loft != nil {
		params = *g.Loft
	}

	// Everything is checked; build.
	sc := &scratch{m: m}
	p := xform.NewPass(m, cfg)
	n, last := len(secs[0].ring), len(secs)-1
	clones := make([]topo.FaceID, len(secs))
	rings := make([][]topo.Step, len(secs))
	pos := make([][]v3.Vec, len(secs))
	for si, s := range secs {
		clones[si] = p.FaceCopy(s.face, v3.Vec{})
		sc.add(topo.FaceRef(clones[si]))
		for _, st := range s.ring {
			e, _ := p.EdgeCopyOf(st.Edge)
			from, _ := p.PointCopyOf(st.From)
			to, _ := p.PointCopyOf(st.To)
			rings[si] = append(rings[si], topo.Step{Edge: e, From: from, To: to, Reversed: st.Reversed})
			pos[si] = append(pos[si], m.Pos(from))
		}
	}

	// Band i runs through edge i of every section.
	for i := 0; i < n; i++ {
		steps := 0
		for si := range secs {
			steps = max(steps, m.MustEdge(rings[si][i].Edge).Steps)
		}
		for si := range secs {
			m.MustEdge(rings[si][i].Edge).Steps = steps
		}
	}

	breakAngle := params.AngleBreak * math.Pi / 180
	tangents := func(si, j int) (in, out v3.Vec) {
		switch {
		case params.FollowPath && path != nil:
			return secs[si].tangent, secs[si].tangent
		case si == 0 || si == last:
			return secs[si].normal, secs[si].normal
		}
		din, _ := geom.Unit(pos[si][j].Sub(pos[si-1][j]))
		dout, _ := geom.Unit(pos[si+1][j].Sub(pos[si][j]))
		if geom.Angle(din, dout) > breakAngle {
			return din, dout
		}
		avg, ok := geom.Unit(din.Add(dout))
		if !ok {
			return din, dout
		}
		return avg, avg
	}

	contours := make([][]topo.EdgeID, last)
	for si := 0; si < last; si++ {
		t0, t1 := params.BayTension(si), params.BayTension(si)
		if si == 0 {
			t0 = params.NoseTension
		}
		if si+1 == last {
			t1 = params.TailTension
		}
		steps := 0
		for j := 0; j < n; j++ {
			a, b := pos[si][j], pos[si+1][j]
			l := geom.Dist(a, b) / 3
			_, out := tangents(si, j)
			in, _ := tangents(si+1, j)
			c0, c1 := a.Add(out.MulScalar(t0*l)), b.Sub(in.MulScalar(t1*l))
			steps = max(steps, geom.StepsForBezier(a, c0, c1, b, cfg.ChordTolerance, cfg.MinSteps, cfg.MaxSteps))
			e := m.AddBezier(rings[si][j].From, rings[si+1][j].From, m.AddPoint(c0), m.AddPoint(c1), 0)
			contours[si] = append(contours[si], e)
			sc.add(topo.EdgeRef(e))
		}
		for _, e := range contours[si] {
			m.MustEdge(e).Steps = steps
		}
	}

	var shell []topo.FaceID
	build := func(initial topo.PointID, edges ...topo.EdgeID) (topo.FaceID, error) {
		if _, err := m.WalkLoop(edges, initial); err != nil {
			return 0, errors.Wrap(errors.ErrCodeInternal, err, "lofted face does not close")
		}
		fid := newFace(m, topo.FaceBezier, edges, initial, secs[0].normal)
		sc.add(topo.FaceRef(fid))
		shell = append(shell, fid)
		return fid, nil
	}

	for si := 0; si < last; si++ {
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			fid, err := build(rings[si][i].From,
				rings[si][i].Edge, contours[si][j], rings[si+1][i].Edge, contours[si][i])
			if err != nil {
				sc.discard()
				return 0, err
			}
			m.NormaliseSteps(fid)
		}
	}

	ends := []struct {
		si   int
		join topo.EndJoin
		t    float64
		nose bool
	}{
		{0, params.NoseJoin, params.NoseTension, true},
		{last, params.TailJoin, params.TailTension, false},
	}
	for _, end := range ends {
		s, cf := secs[end.si], clones[end.si]
		if end.join == topo.JoinFace {
			// The cap turns away from the body.
			if end.nose != s.reversed {
				m.FlipFace(cf)
			}
			shell = append(shell, cf)
			continue
		}
		out := s.normal
		if end.nose {
			out = out.MulScalar(-1)
		}
		capFaces, err := symmetricCap(m, cfg, sc, rings[end.si], pos[end.si], s.normal, out, end.t, build)
		if err != nil {
			sc.discard()
			return 0, err
		}
		if end.nose {
			for _, fid := range capFaces {
				m.FlipFace(fid)
			}
		}
	}
	for _, cf := range clones {
		if !slices.Contains(shell, cf) {
			m.DeleteFace(cf)
		}
	}

	// The shell is complete; only now is an earlier loft thrown away.
	for _, r := range old {
		m.DeleteTree(r)
	}
	vid := m.NewVolume(shell, topo.OpUnion)
	g.Members = append(g.Members, topo.VolumeRef(vid))
	m.InvalidateView(topo.VolumeRef(vid))

	cfg.Log().Debug("loft", "group", gid, "volume", vid, "sections", len(secs), "faces", len(shell), "path", path != nil)
	return vid, nil
}

// symmetricCap closes an end ring with ribs joining the pairs of points
// mirrored across the ring's best plane of symmetry. The ribs bulge along
// out. The returned faces run the same way as the ring.
func symmetricCap(m *topo.Model, cfg config.Config, sc *scratch, ring []topo.Step, pos []v3.Vec, normal, out v3.Vec, tension float64,
	build func(topo.PointID, ...topo.EdgeID) (topo.FaceID, error)) ([]topo.FaceID, error) {
	n := len(ring)
	centre := geom.Centroid(pos)
	v := func(x int) int { return ((x % n) + n) % n }

	best, k := math.Inf(1), 0
	for c := 0; c < n; c++ {
		ax, ok := geom.Unit(pos[c].Sub(centre))
		if !ok {
			continue
		}
		mn, ok := geom.Unit(normal.Cross(ax))
		if !ok {
			continue
		}
		mirror := geom.Plane{Normal: mn, Refpt: centre}
		sum := 0.0
		for j := 1; j <= n/2; j++ {
			sum += geom.Dist(mirror.Reflect(pos[v(c+j)]), pos[v(c-j)])
		}
		if sum < best {
			best, k = sum, c
		}
	}

	half := (n - 1) / 2
	ribs := make([]topo.EdgeID, half+1)
	for j := 1; j <= half; j++ {
		r, l := v(k+j), v(k-j)
		a, b := pos[r], pos[l]
		bulge := out.MulScalar(tension * geom.Dist(a, b) / 3)
		c0, c1 := a.Add(bulge), b.Add(bulge)
		steps := geom.StepsForBezier(a, c0, c1, b, cfg.ChordTolerance, cfg.MinSteps, cfg.MaxSteps)
		ribs[j] = m.AddBezier(ring[r].From, ring[l].From, m.AddPoint(c0), m.AddPoint(c1), steps)
		sc.add(topo.EdgeRef(ribs[j]))
	}

	var faces []topo.FaceID
	add := func(initial topo.PointID, edges ...topo.EdgeID) error {
		fid, err := build(initial, edges...)
		if err == nil {
			faces = append(faces, fid)
		}
		return err
	}
	edge := func(x int) topo.EdgeID { return ring[v(x)].Edge }
	point := func(x int) topo.PointID { return ring[v(x)].From }

	if err := add(point(k-1), edge(k-1), edge(k), ribs[1]); err != nil {
		return nil, err
	}
	for j := 1; j < half; j++ {
		if err := add(point(k+j), edge(k+j), ribs[j+1], edge(k-j-1), ribs[j]); err != nil {
			return nil, err
		}
	}
	var err error
	if n%2 == 0 {
		err = add(point(k+half), edge(k+half), edge(k+half+1), ribs[half])
	} else {
		err = add(point(k+half), edge(k+half), ribs[half])
	}
	return faces, err
}
