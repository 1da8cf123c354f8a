package topo

import (
	"fmt"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/geom"
)

// FaceType classifies a face by the homogeneity of its edges and its
// planarity. Types from FaceCylindrical on are curved.
type FaceType int

const (
	FaceFlat FaceType = iota
	FaceRect
	FaceTriangle
	FaceCircle
	FaceCylindrical
	FaceBarrel
	FaceBezier
)

var faceTypeNames = [...]string{"flat", "rect", "triangle", "circle", "cylindrical", "barrel", "bezier"}

func (t FaceType) String() string {
	if t < 0 || int(t) >= len(faceTypeNames) {
		return fmt.Sprintf("FaceType(%d)", int(t))
	}
	return faceTypeNames[t]
}

// Curved reports whether the face is a non-planar surface patch.
func (t FaceType) Curved() bool { return t >= FaceCylindrical }

// Contour is one closed sub-loop of a face. Its edges run from Start to
// the next contour's Start (or the end of the edge list), and the walk
// around it begins at Initial.
type Contour struct {
	Start   int
	Initial PointID
}

// Text records how a lettering face was authored.
type Text struct {
	String string
	Font   string
	Height float64
}

// Face is an ordered loop of edges. The direction each edge is traversed
// in is not stored; it follows from walking the contour from its initial
// point, so an edge can be shared by two faces running opposite ways.
type Face struct {
	UID      uuid.UUID
	Type     FaceType
	Edges    []EdgeID
	Contours []Contour
	Plane    geom.Plane
	Volume   VolumeID
	Text     *Text

	view      [][]v3.Vec
	viewValid bool
}

// Initial returns the point the outer contour walk starts from.
func (f *Face) Initial() PointID {
	if len(f.Contours) == 0 {
		return 0
	}
	return f.Contours[0].Initial
}

// contourRange returns the half-open edge index range of contour i.
func (f *Face) contourRange(i int) (lo, hi int) {
	lo = f.Contours[i].Start
	hi = len(f.Edges)
	if i+1 < len(f.Contours) {
		hi = f.Contours[i+1].Start
	}
	return lo, hi
}

// ContourEdges returns the edges of contour i.
func (f *Face) ContourEdges(i int) []EdgeID {
	lo, hi := f.contourRange(i)
	return f.Edges[lo:hi]
}

// Step is one edge of a face walk.
type Step struct {
	Edge     EdgeID
	From, To PointID
	Reversed bool
}

// WalkLoop walks edges in order starting at start. It fails unless each
// edge continues from the end of the previous one and the last returns to
// start.
func (m *Model) WalkLoop(edges []EdgeID, start PointID) ([]Step, error) {
	if len(edges) == 0 {
		return nil, errors.New(errors.ErrCodeLoopNotClosed, "empty loop")
	}
	steps := make([]Step, 0, len(edges))
	cur := start
	for _, id := range edges {
		e := m.Edge(id)
		if e == nil {
			return nil, errors.New(errors.ErrCodeNotFound, "edge %d does not exist", id)
		}
		switch cur {
		case e.Ends[0]:
			steps = append(steps, Step{Edge: id, From: cur, To: e.Ends[1]})
			cur = e.Ends[1]
		case e.Ends[1]:
			steps = append(steps, Step{Edge: id, From: cur, To: e.Ends[0], Reversed: true})
			cur = e.Ends[0]
		default:
			return nil, errors.New(errors.ErrCodeLoopNotClosed, "edge %d does not continue from point %d", id, cur)
		}
	}
	if cur != start {
		return nil, errors.New(errors.ErrCodeLoopNotClosed, "walk ends at point %d, not %d", cur, start)
	}
	return steps, nil
}

// ContourWalks walks every contour of a face.
func (m *Model) ContourWalks(id FaceID) ([][]Step, error) {
	f := m.Face(id)
	if f == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "face %d does not exist", id)
	}
	if len(f.Contours) == 0 {
		return nil, errors.New(errors.ErrCodeLoopNotClosed, "face %d has no contours", id)
	}
	walks := make([][]Step, len(f.Contours))
	for i, c := range f.Contours {
		w, err := m.WalkLoop(f.ContourEdges(i), c.Initial)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "face %d contour %d", id, i)
		}
		walks[i] = w
	}
	return walks, nil
}

// FaceWalk returns the ordered walk over all contours of a face. A face
// whose edges do not form closed walks is a broken invariant and panics.
func (m *Model) FaceWalk(id FaceID) []Step {
	walks, err := m.ContourWalks(id)
	if err != nil {
		panic(fmt.Sprintf("topo: %v", err))
	}
	var out []Step
	for _, w := range walks {
		out = append(out, w...)
	}
	return out
}

// LoopSamples flattens a walk into a closed polyline. The closing point
// is not repeated.
func (m *Model) LoopSamples(walk []Step) []v3.Vec {
	var pts []v3.Vec
	for _, s := range walk {
		seg := m.EdgeSamples(s.Edge, s.From)
		pts = append(pts, seg[:len(seg)-1]...)
	}
	return pts
}

// ViewContours returns the flattened boundary of each contour, computing
// it if the cached copy was invalidated.
func (m *Model) ViewContours(id FaceID) [][]v3.Vec {
	f := m.MustFace(id)
	if f.viewValid {
		return f.view
	}
	walks, err := m.ContourWalks(id)
	if err != nil {
		panic(fmt.Sprintf("topo: %v", err))
	}
	f.view = nil
	for _, w := range walks {
		f.view = append(f.view, m.LoopSamples(w))
	}
	f.viewValid = true
	return f.view
}

// ViewList returns the flattened boundary of all contours end to end.
func (m *Model) ViewList(id FaceID) []v3.Vec {
	var out []v3.Vec
	for _, c := range m.ViewContours(id) {
		out = append(out, c...)
	}
	return out
}

// InvalidateView drops the cached view lists of every face that r is
// part of or contains, marks the model dirty and returns those faces.
func (m *Model) InvalidateView(r Ref) []FaceID {
	var faces []FaceID
	switch r.Kind {
	case KindPoint, KindEdge:
		edges := map[EdgeID]bool{}
		if r.Kind == KindEdge {
			edges[EdgeID(r.ID)] = true
		} else {
			p := PointID(r.ID)
			for i, e := range m.edges {
				if e != nil && slices.Contains(e.Points(), p) {
					edges[EdgeID(i)] = true
				}
			}
		}
		for i, f := range m.faces {
			if f != nil && slices.ContainsFunc(f.Edges, func(e EdgeID) bool { return edges[e] }) {
				faces = append(faces, FaceID(i))
			}
		}
	default:
		faces = m.FacesOf(r)
	}
	for _, id := range faces {
		m.faces[id].viewValid = false
	}
	m.Dirty = true
	return faces
}

// RecomputePlane refits the face plane to its outer contour. The normal
// is kept when the boundary has no area.
func (m *Model) RecomputePlane(id FaceID) {
	f := m.MustFace(id)
	views := m.ViewContours(id)
	if len(views) > 0 {
		if n, ok := geom.PolygonNormal(views[0]); ok {
			f.Plane.Normal = n
		}
	}
	f.Plane.Refpt = m.Pos(f.Initial())
}

// RecomputeFace refits the plane and, for planar face types, rederives
// the type. Curved types are assigned by their constructors and kept.
func (m *Model) RecomputeFace(id FaceID, tol float64) {
	m.RecomputePlane(id)
	f := m.MustFace(id)
	if f.Type.Curved() {
		return
	}
	t, _ := m.Classify(f.Edges, m.ViewList(id), tol)
	if f.Type == FaceRect && t == FaceFlat && len(f.Edges) == 4 && m.allKind(f.Edges, EdgeStraight) {
		return
	}
	f.Type = t
}

// Classify derives the face type of a loop of edges from its edge kinds
// and flattened boundary. ok is false when a non-planar loop has opposing
// edges of different kinds and so cannot form a curved patch; the type
// returned is then FaceFlat.
func (m *Model) Classify(edges []EdgeID, samples []v3.Vec, tol float64) (FaceType, bool) {
	n, hasNormal := geom.PolygonNormal(samples)
	planar := true
	if hasNormal {
		pl := geom.Plane{Normal: n, Refpt: geom.Centroid(samples)}
		planar = pl.Planar(samples, tol)
	}

	if planar {
		switch {
		case m.sameCentreArcs(edges, tol):
			return FaceCircle, true
		case len(edges) == 3 && m.allKind(edges, EdgeStraight):
			return FaceTriangle, true
		}
		return FaceFlat, true
	}
	if len(edges) != 4 {
		return FaceFlat, true
	}

	k := func(i int) EdgeKind { return m.MustEdge(edges[i]).Kind() }
	if k(0) != k(2) || k(1) != k(3) {
		return FaceFlat, false
	}
	switch {
	case k(0) == EdgeBezier || k(1) == EdgeBezier:
		return FaceBezier, true
	case k(0) == EdgeArc && k(1) == EdgeArc:
		return FaceBarrel, true
	case k(0) == EdgeArc || k(1) == EdgeArc:
		return FaceCylindrical, true
	}
	return FaceBezier, true
}

func (m *Model) allKind(edges []EdgeID, k EdgeKind) bool {
	for _, id := range edges {
		if m.MustEdge(id).Kind() != k {
			return false
		}
	}
	return true
}

func (m *Model) sameCentreArcs(edges []EdgeID, tol float64) bool {
	var c v3.Vec
	for i, id := range edges {
		d, ok := m.MustEdge(id).Data.(ArcData)
		if !ok {
			return false
		}
		p := m.Pos(d.Centre)
		if i == 0 {
			c = p
		} else if !geom.Near(c, p, tol) {
			return false
		}
	}
	return len(edges) > 0
}

// NormaliseSteps gives each pair of opposite edges of a four sided curved
// face the larger of their step counts, so the patch tessellates as a
// regular grid.
func (m *Model) NormaliseSteps(id FaceID) {
	f := m.MustFace(id)
	if len(f.Edges) != 4 {
		return
	}
	for i := 0; i < 2; i++ {
		a, b := m.MustEdge(f.Edges[i]), m.MustEdge(f.Edges[i+2])
		if a.Kind() == EdgeStraight && b.Kind() == EdgeStraight {
			continue
		}
		s := max(a.Steps, b.Steps)
		a.Steps, b.Steps = s, s
	}
}

// ReverseFace reverses the traversal of every contour of a face without
// touching its plane. Contour order and initial points are kept.
func (m *Model) ReverseFace(id FaceID) {
	m.ReverseOrder(id)
	f := m.MustFace(id)
	for i := range f.Contours {
		lo, hi := f.contourRange(i)
		if hi-lo == 1 {
			// A single closed edge carries its own direction.
			m.MustEdge(f.Edges[lo]).Reverse()
		}
	}
}

// ReverseOrder reverses the edge order of every contour of a face without
// touching the edges. Multi-edge contours then walk the other way round;
// a single-edge contour keeps the direction of its edge.
func (m *Model) ReverseOrder(id FaceID) {
	f := m.MustFace(id)
	for i := range f.Contours {
		lo, hi := f.contourRange(i)
		slices.Reverse(f.Edges[lo:hi])
	}
	f.viewValid = false
}

// FlipFace turns a face over: its walk is reversed and its normal negated.
func (m *Model) FlipFace(id FaceID) {
	m.ReverseFace(id)
	f := m.MustFace(id)
	f.Plane.Normal = f.Plane.Normal.MulScalar(-1)
}

// NewFace assembles a single contour face from a walk and stores it. The
// plane is fitted to the walk; typ is taken as given.
func (m *Model) NewFace(typ FaceType, edges []EdgeID, initial PointID) FaceID {
	f := &Face{
		Type:     typ,
		Edges:    slices.Clone(edges),
		Contours: []Contour{{Start: 0, Initial: initial}},
	}
	id := m.AddFace(f)
	m.RecomputePlane(id)
	return id
}
