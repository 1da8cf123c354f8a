// Package xform propagates copies and rigid or affine transforms through
// the shared point graph of a model.
//
// Every operation runs inside a Pass. The pass remembers which points
// have already moved and what each source object was copied to, so an
// object reached through several parents is transformed or cloned exactly
// once and sharing is preserved in the copy. The package-level functions
// (Move, Copy, Rotate, ...) wrap a single pass and always leave it clear.
package xform

import (
	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// Pass is the side table for one transform or copy. It must not be used
// from more than one goroutine, and two passes must not touch the same
// points at once.
type Pass struct {
	m   *topo.Model
	cfg config.Config

	moved    map[topo.PointID]bool
	edgeDone map[topo.EdgeID]bool
	faceDone map[topo.FaceID]bool

	points  map[topo.PointID]topo.PointID
	edges   map[topo.EdgeID]topo.EdgeID
	faces   map[topo.FaceID]topo.FaceID
	volumes map[topo.VolumeID]topo.VolumeID
	groups  map[topo.GroupID]topo.GroupID

	decay  map[topo.PointID]float64
	cosine map[topo.PointID]float64
}

// NewPass creates an empty pass over m.
func NewPass(m *topo.Model, cfg config.Config) *Pass {
	return &Pass{
		m:        m,
		cfg:      cfg,
		moved:    make(map[topo.PointID]bool),
		edgeDone: make(map[topo.EdgeID]bool),
		faceDone: make(map[topo.FaceID]bool),
		points:   make(map[topo.PointID]topo.PointID),
		edges:    make(map[topo.EdgeID]topo.EdgeID),
		faces:    make(map[topo.FaceID]topo.FaceID),
		volumes:  make(map[topo.VolumeID]topo.VolumeID),
		groups:   make(map[topo.GroupID]topo.GroupID),
		decay:    make(map[topo.PointID]float64),
		cosine:   make(map[topo.PointID]float64),
	}
}

// Model returns the model the pass works on.
func (p *Pass) Model() *topo.Model { return p.m }

// ClearMoveCopyFlags walks r and forgets everything the pass recorded
// about it and the objects below it.
func (p *Pass) ClearMoveCopyFlags(r topo.Ref) {
	p.m.Walk(r, func(c topo.Ref) bool {
		switch c.Kind {
		case topo.KindPoint:
			id := topo.PointID(c.ID)
			delete(p.moved, id)
			delete(p.points, id)
			delete(p.decay, id)
			delete(p.cosine, id)
		case topo.KindEdge:
			id := topo.EdgeID(c.ID)
			delete(p.edgeDone, id)
			delete(p.edges, id)
		case topo.KindFace:
			id := topo.FaceID(c.ID)
			delete(p.faceDone, id)
			delete(p.faces, id)
		case topo.KindVolume:
			delete(p.volumes, topo.VolumeID(c.ID))
		case topo.KindGroup:
			delete(p.groups, topo.GroupID(c.ID))
		}
		return true
	})
}

// Clean reports whether the pass holds no state at all.
func (p *Pass) Clean() bool {
	return len(p.moved) == 0 && len(p.edgeDone) == 0 && len(p.faceDone) == 0 &&
		len(p.points) == 0 && len(p.edges) == 0 && len(p.faces) == 0 &&
		len(p.volumes) == 0 && len(p.groups) == 0 &&
		len(p.decay) == 0 && len(p.cosine) == 0
}

// Moved reports whether the point has been moved in this pass.
func (p *Pass) Moved(id topo.PointID) bool { return p.moved[id] }

// MarkMoved records a point as moved without moving it.
func (p *Pass) MarkMoved(id topo.PointID) { p.moved[id] = true }

// PointCopyOf returns the clone of a source point made in this pass.
func (p *Pass) PointCopyOf(id topo.PointID) (topo.PointID, bool) {
	c, ok := p.points[id]
	return c, ok
}

// EdgeCopyOf returns the clone of a source edge made in this pass.
func (p *Pass) EdgeCopyOf(id topo.EdgeID) (topo.EdgeID, bool) {
	c, ok := p.edges[id]
	return c, ok
}

// FaceCopyOf returns the clone of a source face made in this pass.
func (p *Pass) FaceCopyOf(id topo.FaceID) (topo.FaceID, bool) {
	c, ok := p.faces[id]
	return c, ok
}
