package construct

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// chain is a planned walk over a set of loosely connected edges. Nothing
// in the model changes until apply is called.
type chain struct {
	edges  []topo.EdgeID
	verts  []topo.PointID // canonical vertex at the start of each edge, plus the end of an open chain
	from   []topo.PointID // the actual endpoint each edge is entered from
	closed bool
	// merges maps points lying within tolerance of an earlier point to
	// that point.
	merges map[topo.PointID]topo.PointID
}

// planChain orders edges into a single chain, matching endpoints within
// tol. With closed set the chain must return to its start.
func planChain(m *topo.Model, edges []topo.EdgeID, tol float64, closed bool) (*chain, error) {
	if len(edges) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no edges to chain")
	}

	// Canonicalise endpoints: the first point seen at a location wins.
	var canon []topo.PointID
	merges := make(map[topo.PointID]topo.PointID)
	canonOf := func(p topo.PointID) topo.PointID {
		if c, ok := merges[p]; ok {
			return c
		}
		if slices.Contains(canon, p) {
			return p
		}
		pos := m.Pos(p)
		for _, c := range canon {
			if geom.Near(m.Pos(c), pos, tol) {
				merges[p] = c
				return c
			}
		}
		canon = append(canon, p)
		return p
	}

	type end struct{ a, b topo.PointID }
	ends := make([]end, len(edges))
	degree := make(map[topo.PointID]int)
	for i, id := range edges {
		e := m.Edge(id)
		if e == nil {
			return nil, errors.New(errors.ErrCodeNotFound, "edge %d does not exist", id)
		}
		ends[i] = end{canonOf(e.Ends[0]), canonOf(e.Ends[1])}
		degree[ends[i].a]++
		degree[ends[i].b]++
	}

	start := ends[0].a
	var tips []topo.PointID
	for _, c := range canon {
		switch degree[c] {
		case 2:
		case 1:
			tips = append(tips, c)
		default:
			return nil, errors.New(errors.ErrCodeLoopNotClosed, "point %d joins %d edges", c, degree[c])
		}
	}
	switch {
	case closed && len(tips) > 0:
		return nil, errors.New(errors.ErrCodeLoopNotClosed, "loop is open at point %d", tips[0])
	case !closed && len(tips) != 0 && len(tips) != 2:
		return nil, errors.New(errors.ErrCodeLoopNotClosed, "edges do not form a single chain")
	case len(tips) == 2:
		start = tips[0]
	}

	ch := &chain{closed: len(tips) == 0, merges: merges}
	used := make([]bool, len(edges))
	cur := start
	for range edges {
		next := -1
		for i := range edges {
			if !used[i] && (ends[i].a == cur || ends[i].b == cur) {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, errors.New(errors.ErrCodeLoopNotClosed, "edges do not form a single connected chain")
		}
		used[next] = true
		e := m.Edge(edges[next])
		ch.edges = append(ch.edges, edges[next])
		ch.verts = append(ch.verts, cur)
		if ends[next].a == cur {
			ch.from = append(ch.from, e.Ends[0])
			cur = ends[next].b
		} else {
			ch.from = append(ch.from, e.Ends[1])
			cur = ends[next].a
		}
	}
	if ch.closed {
		if cur != start {
			return nil, errors.New(errors.ErrCodeLoopNotClosed, "walk does not return to its start")
		}
	} else {
		ch.verts = append(ch.verts, cur)
	}
	return ch, nil
}

// samples flattens the chain in walk order. A closed chain does not repeat
// its first point.
func (ch *chain) samples(m *topo.Model) []v3.Vec {
	var pts []v3.Vec
	for i, id := range ch.edges {
		seg := m.EdgeSamples(id, ch.from[i])
		if ch.closed || i < len(ch.edges)-1 {
			seg = seg[:len(seg)-1]
		}
		pts = append(pts, seg...)
	}
	return pts
}

// apply merges coincident points so the chain is connected by shared
// points.
func (ch *chain) apply(m *topo.Model) {
	for old, p := range ch.merges {
		if m.Point(old) != nil {
			m.ReplacePoint(old, p)
		}
	}
	for i, id := range ch.edges {
		e := m.MustEdge(id)
		if !e.Has(ch.from[i]) {
			ch.from[i] = ch.verts[i]
		}
	}
	ch.merges = nil
}
