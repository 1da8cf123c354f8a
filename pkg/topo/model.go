package topo

import (
	"fmt"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
)

// Model is the arena owning every object of a design. Slot 0 of each
// table is reserved so the zero handle means "none"; deleted slots become
// nil and handles are never reused.
type Model struct {
	points  []*Point
	edges   []*Edge
	faces   []*Face
	volumes []*Volume
	groups  []*Group

	// Roots is the object tree: the top-level objects of the design.
	Roots []Ref
	// Dirty is set whenever a cached view list is invalidated. The render
	// collaborator clears it after rebuilding its buffers.
	Dirty bool
}

// New creates an empty model.
func New() *Model {
	return &Model{
		points:  []*Point{nil},
		edges:   []*Edge{nil},
		faces:   []*Face{nil},
		volumes: []*Volume{nil},
		groups:  []*Group{nil},
	}
}

func slot[T any](s []*T, id int32) *T {
	if id <= 0 || int(id) >= len(s) {
		return nil
	}
	return s[id]
}

func live[T any, ID ~int32](s []*T) []ID {
	var ids []ID
	for i := 1; i < len(s); i++ {
		if s[i] != nil {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

// ---------------------------------------------------------------------------
// Points
// ---------------------------------------------------------------------------

// AddPoint creates a point at pos.
func (m *Model) AddPoint(pos v3.Vec) PointID {
	m.points = append(m.points, &Point{UID: uuid.New(), Pos: pos})
	return PointID(len(m.points) - 1)
}

// Point returns the point or nil.
func (m *Model) Point(id PointID) *Point { return slot(m.points, int32(id)) }

// Pos returns the position of a point. A dangling handle is a broken
// invariant and panics.
func (m *Model) Pos(id PointID) v3.Vec {
	p := m.Point(id)
	if p == nil {
		panic(fmt.Sprintf("topo: point %d does not exist", id))
	}
	return p.Pos
}

// SetPos moves a point.
func (m *Model) SetPos(id PointID, pos v3.Vec) {
	if p := m.Point(id); p != nil {
		p.Pos = pos
	}
}

// DeletePoint frees a point slot. Callers are responsible for references.
func (m *Model) DeletePoint(id PointID) {
	if m.Point(id) != nil {
		m.points[id] = nil
	}
}

// PointIDs lists the live points in creation order.
func (m *Model) PointIDs() []PointID { return live[Point, PointID](m.points) }

// NearestPoint returns the live point closest to pos within radius.
func (m *Model) NearestPoint(pos v3.Vec, radius float64) (PointID, bool) {
	best, found := PointID(0), false
	for _, id := range m.PointIDs() {
		if d := m.Pos(id).Sub(pos).Length(); d <= radius {
			radius, best, found = d, id, true
		}
	}
	return best, found
}

// ---------------------------------------------------------------------------
// Edges
// ---------------------------------------------------------------------------

// AddEdge stores e and returns its handle.
func (m *Model) AddEdge(e *Edge) EdgeID {
	if e.UID == uuid.Nil {
		e.UID = uuid.New()
	}
	if e.Data == nil {
		e.Data = StraightData{}
	}
	m.edges = append(m.edges, e)
	return EdgeID(len(m.edges) - 1)
}

// AddStraight creates a line segment from a to b.
func (m *Model) AddStraight(a, b PointID) EdgeID {
	return m.AddEdge(&Edge{Ends: [2]PointID{a, b}, Data: StraightData{}})
}

// AddArc creates an arc from a to b about centre.
func (m *Model) AddArc(a, b, centre PointID, normal v3.Vec, clockwise bool, steps int) EdgeID {
	return m.AddEdge(&Edge{
		Ends:  [2]PointID{a, b},
		Data:  ArcData{Centre: centre, Normal: normal, Clockwise: clockwise},
		Steps: steps,
	})
}

// AddBezier creates a cubic Bezier from a to b.
func (m *Model) AddBezier(a, b, c0, c1 PointID, steps int) EdgeID {
	return m.AddEdge(&Edge{
		Ends:  [2]PointID{a, b},
		Data:  BezierData{Ctrl: [2]PointID{c0, c1}},
		Steps: steps,
	})
}

// Edge returns the edge or nil.
func (m *Model) Edge(id EdgeID) *Edge { return slot(m.edges, int32(id)) }

// MustEdge returns the edge, panicking on a dangling handle.
func (m *Model) MustEdge(id EdgeID) *Edge {
	e := m.Edge(id)
	if e == nil {
		panic(fmt.Sprintf("topo: edge %d does not exist", id))
	}
	return e
}

// DeleteEdge frees an edge slot.
func (m *Model) DeleteEdge(id EdgeID) {
	if m.Edge(id) != nil {
		m.edges[id] = nil
	}
}

// EdgeIDs lists the live edges in creation order.
func (m *Model) EdgeIDs() []EdgeID { return live[Edge, EdgeID](m.edges) }

// EdgesAt returns the edges having p as an endpoint.
func (m *Model) EdgesAt(p PointID) []EdgeID {
	var out []EdgeID
	for i, e := range m.edges {
		if e != nil && e.Has(p) {
			out = append(out, EdgeID(i))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Faces, volumes, groups
// ---------------------------------------------------------------------------

// AddFace stores f and returns its handle.
func (m *Model) AddFace(f *Face) FaceID {
	if f.UID == uuid.Nil {
		f.UID = uuid.New()
	}
	m.faces = append(m.faces, f)
	return FaceID(len(m.faces) - 1)
}

// Face returns the face or nil.
func (m *Model) Face(id FaceID) *Face { return slot(m.faces, int32(id)) }

// MustFace returns the face, panicking on a dangling handle.
func (m *Model) MustFace(id FaceID) *Face {
	f := m.Face(id)
	if f == nil {
		panic(fmt.Sprintf("topo: face %d does not exist", id))
	}
	return f
}

// DeleteFace frees a face slot.
func (m *Model) DeleteFace(id FaceID) {
	if m.Face(id) != nil {
		m.faces[id] = nil
	}
}

// FaceIDs lists the live faces in creation order.
func (m *Model) FaceIDs() []FaceID { return live[Face, FaceID](m.faces) }

// AddVolume stores v and returns its handle.
func (m *Model) AddVolume(v *Volume) VolumeID {
	if v.UID == uuid.Nil {
		v.UID = uuid.New()
	}
	m.volumes = append(m.volumes, v)
	return VolumeID(len(m.volumes) - 1)
}

// Volume returns the volume or nil.
func (m *Model) Volume(id VolumeID) *Volume { return slot(m.volumes, int32(id)) }

// DeleteVolume frees a volume slot.
func (m *Model) DeleteVolume(id VolumeID) {
	if m.Volume(id) != nil {
		m.volumes[id] = nil
	}
}

// VolumeIDs lists the live volumes in creation order.
func (m *Model) VolumeIDs() []VolumeID { return live[Volume, VolumeID](m.volumes) }

// AddGroup stores g and returns its handle.
func (m *Model) AddGroup(g *Group) GroupID {
	if g.UID == uuid.Nil {
		g.UID = uuid.New()
	}
	m.groups = append(m.groups, g)
	return GroupID(len(m.groups) - 1)
}

// Group returns the group or nil.
func (m *Model) Group(id GroupID) *Group { return slot(m.groups, int32(id)) }

// DeleteGroup frees a group slot without touching its members.
func (m *Model) DeleteGroup(id GroupID) {
	if m.Group(id) != nil {
		m.groups[id] = nil
	}
}

// GroupIDs lists the live groups in creation order.
func (m *Model) GroupIDs() []GroupID { return live[Group, GroupID](m.groups) }

// Exists reports whether r refers to a live object.
func (m *Model) Exists(r Ref) bool {
	switch r.Kind {
	case KindPoint:
		return m.Point(PointID(r.ID)) != nil
	case KindEdge:
		return m.Edge(EdgeID(r.ID)) != nil
	case KindFace:
		return m.Face(FaceID(r.ID)) != nil
	case KindVolume:
		return m.Volume(VolumeID(r.ID)) != nil
	case KindGroup:
		return m.Group(GroupID(r.ID)) != nil
	}
	return false
}

// UID returns the stable identity of the object r refers to.
func (m *Model) UID(r Ref) uuid.UUID {
	switch r.Kind {
	case KindPoint:
		if p := m.Point(PointID(r.ID)); p != nil {
			return p.UID
		}
	case KindEdge:
		if e := m.Edge(EdgeID(r.ID)); e != nil {
			return e.UID
		}
	case KindFace:
		if f := m.Face(FaceID(r.ID)); f != nil {
			return f.UID
		}
	case KindVolume:
		if v := m.Volume(VolumeID(r.ID)); v != nil {
			return v.UID
		}
	case KindGroup:
		if g := m.Group(GroupID(r.ID)); g != nil {
			return g.UID
		}
	}
	return uuid.Nil
}

// ---------------------------------------------------------------------------
// Object tree
// ---------------------------------------------------------------------------

// AddRoot appends r to the object tree.
func (m *Model) AddRoot(r Ref) {
	m.Roots = append(m.Roots, r)
}

// RemoveRoot takes r out of the object tree and returns its former index,
// or -1.
func (m *Model) RemoveRoot(r Ref) int {
	i := slices.Index(m.Roots, r)
	if i >= 0 {
		m.Roots = slices.Delete(m.Roots, i, i+1)
	}
	return i
}

// ReplaceRoot puts n in the tree slot held by old, or appends it.
func (m *Model) ReplaceRoot(old, n Ref) {
	if i := slices.Index(m.Roots, old); i >= 0 {
		m.Roots[i] = n
		return
	}
	m.AddRoot(n)
}

// Children returns the objects directly owned by r: edge endpoints and
// payload points, face edges, volume faces or group members.
func (m *Model) Children(r Ref) []Ref {
	var out []Ref
	switch r.Kind {
	case KindEdge:
		if e := m.Edge(EdgeID(r.ID)); e != nil {
			for _, p := range e.Points() {
				out = append(out, PointRef(p))
			}
		}
	case KindFace:
		if f := m.Face(FaceID(r.ID)); f != nil {
			for _, e := range f.Edges {
				out = append(out, EdgeRef(e))
			}
		}
	case KindVolume:
		if v := m.Volume(VolumeID(r.ID)); v != nil {
			for _, f := range v.Faces {
				out = append(out, FaceRef(f))
			}
		}
	case KindGroup:
		if g := m.Group(GroupID(r.ID)); g != nil {
			out = append(out, g.Members...)
		}
	}
	return out
}

// Walk visits r and everything below it depth first. Shared objects are
// visited once. fn returning false prunes the subtree.
func (m *Model) Walk(r Ref, fn func(Ref) bool) {
	seen := make(map[Ref]bool)
	var visit func(Ref)
	visit = func(r Ref) {
		if seen[r] || !m.Exists(r) {
			return
		}
		seen[r] = true
		if !fn(r) {
			return
		}
		for _, c := range m.Children(r) {
			visit(c)
		}
	}
	visit(r)
}

// PointsOf returns every point r transitively owns, each once.
func (m *Model) PointsOf(r Ref) []PointID {
	var out []PointID
	m.Walk(r, func(c Ref) bool {
		if c.Kind == KindPoint {
			out = append(out, PointID(c.ID))
		}
		return true
	})
	return out
}

// EdgesOf returns every edge r transitively owns, each once.
func (m *Model) EdgesOf(r Ref) []EdgeID {
	var out []EdgeID
	m.Walk(r, func(c Ref) bool {
		if c.Kind == KindEdge {
			out = append(out, EdgeID(c.ID))
			return false
		}
		return c.Kind != KindPoint
	})
	return out
}

// FacesOf returns every face r transitively owns, each once.
func (m *Model) FacesOf(r Ref) []FaceID {
	var out []FaceID
	m.Walk(r, func(c Ref) bool {
		if c.Kind == KindFace {
			out = append(out, FaceID(c.ID))
			return false
		}
		return c.Kind == KindVolume || c.Kind == KindGroup
	})
	return out
}

// ReplacePoint re-points every reference to old at p and deletes old.
func (m *Model) ReplacePoint(old, p PointID) {
	if old == p {
		return
	}
	for _, e := range m.edges {
		if e != nil {
			e.replace(old, p)
		}
	}
	for _, f := range m.faces {
		if f == nil {
			continue
		}
		for i := range f.Contours {
			if f.Contours[i].Initial == old {
				f.Contours[i].Initial = p
			}
		}
	}
	for i, r := range m.Roots {
		if r == PointRef(old) {
			m.Roots[i] = PointRef(p)
		}
	}
	m.DeletePoint(old)
}

// DeleteTree deletes r together with everything below it that nothing
// else still references. Points and edges shared with surviving objects
// are kept.
func (m *Model) DeleteTree(r Ref) {
	var edges []EdgeID
	var points []PointID
	var containers []Ref
	m.Walk(r, func(c Ref) bool {
		switch c.Kind {
		case KindPoint:
			points = append(points, PointID(c.ID))
		case KindEdge:
			edges = append(edges, EdgeID(c.ID))
		default:
			containers = append(containers, c)
		}
		return true
	})
	m.RemoveRoot(r)
	m.removeMember(r)

	for _, c := range containers {
		m.RemoveRoot(c)
		switch c.Kind {
		case KindFace:
			m.detachFace(FaceID(c.ID))
			m.DeleteFace(FaceID(c.ID))
		case KindVolume:
			m.DeleteVolume(VolumeID(c.ID))
		case KindGroup:
			m.DeleteGroup(GroupID(c.ID))
		}
	}

	usedEdges := m.referencedEdges()
	for _, e := range edges {
		if !usedEdges[e] {
			m.DeleteEdge(e)
		}
	}
	usedPoints := m.referencedPoints()
	for _, p := range points {
		if !usedPoints[p] {
			m.DeletePoint(p)
		}
	}
	m.Dirty = true
}

// detachFace removes a face from its volume's face list.
func (m *Model) detachFace(id FaceID) {
	f := m.Face(id)
	if f == nil || f.Volume == 0 {
		return
	}
	if v := m.Volume(f.Volume); v != nil {
		v.Faces = slices.DeleteFunc(v.Faces, func(x FaceID) bool { return x == id })
	}
}

// removeMember drops r from every group that lists it.
func (m *Model) removeMember(r Ref) {
	for _, g := range m.groups {
		if g != nil {
			g.Members = slices.DeleteFunc(g.Members, func(x Ref) bool { return x == r })
		}
	}
}

func (m *Model) referencedEdges() map[EdgeID]bool {
	used := make(map[EdgeID]bool)
	for _, f := range m.faces {
		if f != nil {
			for _, e := range f.Edges {
				used[e] = true
			}
		}
	}
	for _, g := range m.groups {
		if g != nil {
			for _, r := range g.Members {
				if r.Kind == KindEdge {
					used[EdgeID(r.ID)] = true
				}
			}
		}
	}
	for _, r := range m.Roots {
		if r.Kind == KindEdge {
			used[EdgeID(r.ID)] = true
		}
	}
	return used
}

func (m *Model) referencedPoints() map[PointID]bool {
	used := make(map[PointID]bool)
	for _, e := range m.edges {
		if e != nil {
			for _, p := range e.Points() {
				used[p] = true
			}
		}
	}
	for _, r := range m.Roots {
		if r.Kind == KindPoint {
			used[PointID(r.ID)] = true
		}
	}
	return used
}

// Referenced reports whether anything still uses the point.
func (m *Model) Referenced(p PointID) bool {
	return m.referencedPoints()[p]
}

// Stats counts live objects by kind.
type Stats struct {
	Points, Edges, Faces, Volumes, Groups int
}

// Stats returns the live object counts.
func (m *Model) Stats() Stats {
	return Stats{
		Points:  len(m.PointIDs()),
		Edges:   len(m.EdgeIDs()),
		Faces:   len(m.FaceIDs()),
		Volumes: len(m.VolumeIDs()),
		Groups:  len(m.GroupIDs()),
	}
}
