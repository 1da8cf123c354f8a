package construct

import (
	"math"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/errors"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

const halfTurn = math.Pi

// CornerOptions control InsertChamferRound.
type CornerOptions struct {
	// Round inserts a tangent arc instead of a straight chamfer.
	Round bool
	// Restricted clamps the size to a third of the shorter edge instead of
	// failing when it does not fit.
	Restricted bool
}

// corner locates the two edges of a face meeting at a point.
type corner struct {
	contour int
	in, out topo.Step
	outIdx  int // index of out in the face edge list
	first   bool
}

func findCorner(m *topo.Model, fid topo.FaceID, p topo.PointID) (corner, error) {
	walks, err := m.ContourWalks(fid)
	if err != nil {
		return corner{}, err
	}
	f := m.MustFace(fid)
	var found []corner
	for ci, w := range walks {
		for i, s := range w {
			if s.From != p {
				continue
			}
			found = append(found, corner{
				contour: ci,
				in:      w[(i+len(w)-1)%len(w)],
				out:     s,
				outIdx:  f.Contours[ci].Start + i,
				first:   i == 0,
			})
		}
	}
	if len(found) != 1 || found[0].in.Edge == found[0].out.Edge {
		return corner{}, errors.New(errors.ErrCodeCornerNotShared, "point %d is not a corner of face %d", p, fid)
	}
	return found[0], nil
}

// InsertChamferRound cuts the corner of a face at point p, replacing it
// with a straight or rounded edge between points size along each of the
// two edges meeting there. Both edges must be straight. The face must not
// belong to a volume. The new edge is returned.
func InsertChamferRound(m *topo.Model, cfg config.Config, fid topo.FaceID, p topo.PointID, size float64, opts CornerOptions) (topo.EdgeID, error) {
	f := m.Face(fid)
	if f == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "face %d does not exist", fid)
	}
	if f.Volume != 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "face %d belongs to volume %d", fid, f.Volume)
	}
	if size <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "corner size %g must be positive", size)
	}
	c, err := findCorner(m, fid, p)
	if err != nil {
		return 0, err
	}
	ein, eout := m.MustEdge(c.in.Edge), m.MustEdge(c.out.Edge)
	if ein.Kind() != topo.EdgeStraight || eout.Kind() != topo.EdgeStraight {
		return 0, errors.New(errors.ErrCodeEdgeType, "corner %d of face %d is not between straight edges", p, fid)
	}
	if n := len(m.EdgesAt(p)); n != 2 {
		return 0, errors.New(errors.ErrCodeCornerNotShared, "corner %d of face %d joins %d edges", p, fid, n)
	}
	if other := faceUsing(m, fid, c.in.Edge, c.out.Edge); other != 0 {
		return 0, errors.New(errors.ErrCodeCornerNotShared, "corner %d of face %d has an edge shared with face %d", p, fid, other)
	}

	at := m.Pos(p)
	prev, next := m.Pos(c.in.From), m.Pos(c.out.To)
	shorter := math.Min(geom.Dist(prev, at), geom.Dist(at, next))
	s := size
	switch {
	case opts.Restricted:
		s = math.Min(s, shorter/3)
	case s > shorter:
		return 0, errors.New(errors.ErrCodeSizeTooLarge, "corner size %g exceeds edge length %g", size, shorter)
	}
	uin, _ := geom.Unit(prev.Sub(at))
	uout, _ := geom.Unit(next.Sub(at))
	a, b := at.Add(uin.MulScalar(s)), at.Add(uout.MulScalar(s))

	pa, pb := m.AddPoint(a), m.AddPoint(b)
	setEnd(ein, p, pa)
	setEnd(eout, p, pb)

	bridge := bridgeEdge(m, cfg, pa, pb, uin.MulScalar(-1), f.Plane.Normal, opts.Round)
	m.MustEdge(bridge).Corner = true

	if c.first {
		// The corner was the start of the walk: close the contour with the
		// bridge and start from its far end.
		_, hi := contourRange(f, c.contour)
		f.Edges = slices.Insert(f.Edges, hi, bridge)
		f.Contours[c.contour].Initial = pb
	} else {
		f.Edges = slices.Insert(f.Edges, c.outIdx, bridge)
	}
	for i := c.contour + 1; i < len(f.Contours); i++ {
		f.Contours[i].Start++
	}
	if f.Type == topo.FaceRect || f.Type == topo.FaceTriangle {
		f.Type = topo.FaceFlat
	}
	if !m.Referenced(p) {
		m.DeletePoint(p)
	}
	m.InvalidateView(topo.FaceRef(fid))
	m.RecomputePlane(fid)

	cfg.Log().Debug("corner", "face", fid, "point", p, "size", s, "round", opts.Round)
	return bridge, nil
}

// faceUsing returns a face other than fid listing any of edges, or 0.
func faceUsing(m *topo.Model, fid topo.FaceID, edges ...topo.EdgeID) topo.FaceID {
	for _, id := range m.FaceIDs() {
		if id == fid {
			continue
		}
		for _, e := range m.MustFace(id).Edges {
			if slices.Contains(edges, e) {
				return id
			}
		}
	}
	return 0
}

func setEnd(e *topo.Edge, old, p topo.PointID) {
	for i := range e.Ends {
		if e.Ends[i] == old {
			e.Ends[i] = p
			return
		}
	}
}

func contourRange(f *topo.Face, i int) (lo, hi int) {
	lo = f.Contours[i].Start
	hi = len(f.Edges)
	if i+1 < len(f.Contours) {
		hi = f.Contours[i+1].Start
	}
	return lo, hi
}

// bridgeEdge joins a to b. A round is an arc leaving a along tan; when no
// such arc exists a straight edge is used.
func bridgeEdge(m *topo.Model, cfg config.Config, a, b topo.PointID, tan, normal v3.Vec, round bool) topo.EdgeID {
	if !round {
		return m.AddStraight(a, b)
	}
	pa, pb := m.Pos(a), m.Pos(b)
	centre, ok := geom.CircleTangent(pa, tan, pb, normal)
	if !ok {
		cfg.Log().Debug("corner cannot be rounded, chamfering", "from", pa, "to", pb)
		return m.AddStraight(a, b)
	}
	cw := pa.Sub(centre).Cross(pb.Sub(centre)).Dot(normal) < 0
	r := geom.Dist(pa, centre)
	sweep := geom.ArcSweep(centre, pa, pb, normal, cw)
	steps := geom.StepsForAngle(r, sweep, cfg.ChordTolerance, cfg.MinSteps, cfg.MaxSteps)
	return m.AddArc(a, b, m.AddPoint(centre), normal, cw, steps)
}

// ChamferAllCorners cuts every corner of a face that lies between two
// straight edges not already cut. Corners that do not fit are skipped. It
// returns the number of corners cut.
func ChamferAllCorners(m *topo.Model, cfg config.Config, fid topo.FaceID, size float64, opts CornerOptions) (int, error) {
	f := m.Face(fid)
	if f == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "face %d does not exist", fid)
	}
	n := 0
	for ci := range f.Contours {
		for i := 0; ; {
			walks, err := m.ContourWalks(fid)
			if err != nil {
				return n, err
			}
			w := walks[ci]
			if i >= len(w) {
				break
			}
			in, out := w[i], w[(i+1)%len(w)]
			if m.MustEdge(in.Edge).Corner || m.MustEdge(out.Edge).Corner {
				i++
				continue
			}
			_, err = InsertChamferRound(m, cfg, fid, in.To, size, opts)
			switch {
			case err == nil:
				n++
				// Skip the edge just inserted.
				i += 2
			case errors.Is(err, errors.ErrCodeEdgeType),
				errors.Is(err, errors.ErrCodeSizeTooLarge),
				errors.Is(err, errors.ErrCodeCornerNotShared):
				i++
			default:
				return n, err
			}
		}
	}
	return n, nil
}
