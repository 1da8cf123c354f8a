package xform

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// run performs op in a fresh pass over r, clearing the pass before and
// after, then refreshes the view lists and planes of every face below the
// objects in refresh.
func run(m *topo.Model, cfg config.Config, r topo.Ref, op func(p *Pass), refresh ...topo.Ref) {
	p := NewPass(m, cfg)
	p.ClearMoveCopyFlags(r)
	defer p.ClearMoveCopyFlags(r)

	op(p)
	if len(refresh) == 0 {
		refresh = []topo.Ref{r}
	}
	for _, rr := range refresh {
		for _, fid := range m.InvalidateView(rr) {
			m.RecomputePlane(fid)
		}
	}
}

func check(m *topo.Model, r topo.Ref) error {
	if !m.Exists(r) {
		return errors.New(errors.ErrCodeNotFound, "%s does not exist", r)
	}
	return nil
}

// Copy clones r displaced by offset and adds the clone to the object tree.
func Copy(m *topo.Model, cfg config.Config, r topo.Ref, offset v3.Vec) (topo.Ref, error) {
	if err := check(m, r); err != nil {
		return topo.Ref{}, err
	}
	var clone topo.Ref
	run(m, cfg, r, func(p *Pass) {
		clone = p.CopyObj(r, offset)
	})
	m.AddRoot(clone)
	m.InvalidateView(clone)
	cfg.Log().Debug("copy", "src", r, "dst", clone)
	return clone, nil
}

// Move translates r by d.
func Move(m *topo.Model, cfg config.Config, r topo.Ref, d v3.Vec) error {
	if err := check(m, r); err != nil {
		return err
	}
	run(m, cfg, r, func(p *Pass) {
		p.MoveObj(r, d)
		p.FixCorners(r)
	})
	cfg.Log().Debug("move", "ref", r, "by", d)
	return nil
}

// Rotate90 turns r a quarter turn about centre in the facing plane.
func Rotate90(m *topo.Model, cfg config.Config, r topo.Ref, centre v3.Vec) error {
	if err := check(m, r); err != nil {
		return err
	}
	run(m, cfg, r, func(p *Pass) { p.RotateObj90Facing(r, centre) })
	return nil
}

// Rotate turns r by deg degrees about centre in the facing plane.
func Rotate(m *topo.Model, cfg config.Config, r topo.Ref, centre v3.Vec, deg float64) error {
	if err := check(m, r); err != nil {
		return err
	}
	run(m, cfg, r, func(p *Pass) { p.RotateObjFreeFacing(r, centre, deg) })
	return nil
}

// RotateAxis turns r by angle radians about an arbitrary axis.
func RotateAxis(m *topo.Model, cfg config.Config, r topo.Ref, centre, axis v3.Vec, angle float64) error {
	if err := check(m, r); err != nil {
		return err
	}
	run(m, cfg, r, func(p *Pass) { p.RotateObjAxis(r, centre, axis, angle) })
	return nil
}

// Reflect mirrors r left to right in the facing plane about centre.
func Reflect(m *topo.Model, cfg config.Config, r topo.Ref, centre v3.Vec) error {
	if err := check(m, r); err != nil {
		return err
	}
	run(m, cfg, r, func(p *Pass) { p.ReflectObjFacing(r, centre) })
	cfg.Log().Debug("reflect", "ref", r, "facing", cfg.Facing)
	return nil
}

// Scale scales r about centre by s per axis. A zero factor is refused.
func Scale(m *topo.Model, cfg config.Config, r topo.Ref, centre, s v3.Vec) error {
	if err := check(m, r); err != nil {
		return err
	}
	if s.X == 0 || s.Y == 0 || s.Z == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale factor %v collapses the object", s)
	}
	run(m, cfg, r, func(p *Pass) { p.ScaleObjFree(r, centre, s) })
	return nil
}

// MoveFace translates one face by d. When the face belongs to a volume,
// its neighbours are dragged along by the halo and any rounded corners are
// re-solved.
func MoveFace(m *topo.Model, cfg config.Config, fid topo.FaceID, d v3.Vec) error {
	f := m.Face(fid)
	if f == nil {
		return errors.New(errors.ErrCodeNotFound, "face %d does not exist", fid)
	}
	scope := topo.FaceRef(fid)
	if f.Volume != 0 {
		if v := m.Volume(f.Volume); v != nil && !v.Editable(topo.LockFaces) {
			return errors.New(errors.ErrCodeLocked, "faces of volume %d are locked at %s", f.Volume, v.Lock)
		}
		scope = topo.VolumeRef(f.Volume)
	}
	run(m, cfg, scope, func(p *Pass) {
		p.MoveObj(topo.FaceRef(fid), d)
		if f.Volume != 0 {
			p.Halo(fid, d, cfg.HaloRadius)
		}
		p.FixCorners(scope)
	})
	cfg.Log().Debug("move face", "face", fid, "by", d, "halo", cfg.HaloRadius)
	return nil
}
