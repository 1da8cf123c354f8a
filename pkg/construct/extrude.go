package construct

import (
	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/topo"
	"github.com/gilesp1729/loftycad/pkg/xform"
)

// sideType is the type of a face swept from an edge of the given kind.
func sideType(k topo.EdgeKind) topo.FaceType {
	switch k {
	case topo.EdgeArc:
		return topo.FaceCylindrical
	case topo.EdgeBezier:
		return topo.FaceBezier
	default:
		return topo.FaceRect
	}
}

// ExtrudeFace sweeps a free standing face height along its normal into a
// volume. A negative height extrudes behind the face. The volume takes the
// face's place in the object tree.
func ExtrudeFace(m *topo.Model, cfg config.Config, fid topo.FaceID, height float64) (topo.VolumeID, error) {
	f := m.Face(fid)
	if f == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "face %d does not exist", fid)
	}
	if f.Volume != 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "face %d already belongs to volume %d", fid, f.Volume)
	}
	if height == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "extrusion height must not be zero")
	}
	walks, err := m.ContourWalks(fid)
	if err != nil {
		return 0, err
	}
	for _, w := range walks {
		// A closed single edge carries its own direction and cannot be
		// walked one way by the cap and the other by the side.
		if len(w) < 2 {
			return 0, errors.New(errors.ErrCodeEdgeType, "face %d has a single edge contour", fid)
		}
	}

	offset := f.Plane.Normal.MulScalar(height)
	p := xform.NewPass(m, cfg)
	top := p.FaceCopy(fid, offset)

	rails := make(map[topo.PointID]topo.EdgeID)
	rail := func(a topo.PointID) topo.EdgeID {
		if e, ok := rails[a]; ok {
			return e
		}
		a2, _ := p.PointCopyOf(a)
		e := m.AddStraight(a, a2)
		rails[a] = e
		return e
	}

	faces := []topo.FaceID{fid, top}
	for _, w := range walks {
		for _, s := range w {
			e2, _ := p.EdgeCopyOf(s.Edge)
			side := m.NewFace(sideType(m.MustEdge(s.Edge).Kind()),
				[]topo.EdgeID{s.Edge, rail(s.To), e2, rail(s.From)}, s.From)
			if height < 0 {
				m.FlipFace(side)
			}
			m.NormaliseSteps(side)
			faces = append(faces, side)
		}
	}
	// The base faces away from the solid.
	if height > 0 {
		m.FlipFace(fid)
	} else {
		m.FlipFace(top)
	}

	vid := m.NewVolume(faces, topo.OpUnion)
	m.ReplaceRoot(topo.FaceRef(fid), topo.VolumeRef(vid))
	m.InvalidateView(topo.VolumeRef(vid))
	cfg.Log().Debug("extrude", "face", fid, "volume", vid, "height", height, "faces", len(faces))
	return vid, nil
}
