package topo

import (
	"fmt"
	"math"

	"github.com/gilesp1729/loftycad/pkg/geom"
)

// ValidationSeverity indicates whether a validation finding marks a broken
// model or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // broken invariant
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Ref      Ref                // which object has the problem (zero if model-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Ref.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Ref, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Ref     Ref
	Message string
}

// ValidationResult bundles errors and warnings from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no errors were found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks and returns the findings. An empty
// slice means the model is well formed. The model is not modified.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(m)...)
	errs = append(errs, validateFaceClosure(m)...)
	errs = append(errs, validateBackPointers(m)...)
	errs = append(errs, validateManifold(m)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers. tol is the distance
// below which points coincide and faces count as planar.
func ValidateAll(m *Model, tol float64) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(m) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{Ref: e.Ref, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	result.Warnings = append(result.Warnings, validateGeometry(m, tol)...)
	return result
}

func errorf(r Ref, format string, args ...any) ValidationError {
	return ValidationError{Ref: r, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// validateReferences checks that every handle stored anywhere in the model
// points to a live object.
func validateReferences(m *Model) []ValidationError {
	var errs []ValidationError

	for _, id := range m.EdgeIDs() {
		e := m.Edge(id)
		for _, p := range e.Points() {
			if m.Point(p) == nil {
				errs = append(errs, errorf(EdgeRef(id), "point %d does not exist", p))
			}
		}
	}
	for _, id := range m.FaceIDs() {
		f := m.Face(id)
		for _, e := range f.Edges {
			if m.Edge(e) == nil {
				errs = append(errs, errorf(FaceRef(id), "edge %d does not exist", e))
			}
		}
		if f.Volume != 0 && m.Volume(f.Volume) == nil {
			errs = append(errs, errorf(FaceRef(id), "volume %d does not exist", f.Volume))
		}
	}
	for _, id := range m.VolumeIDs() {
		for _, f := range m.Volume(id).Faces {
			if m.Face(f) == nil {
				errs = append(errs, errorf(VolumeRef(id), "face %d does not exist", f))
			}
		}
	}
	for _, id := range m.GroupIDs() {
		for _, r := range m.Group(id).Members {
			if !m.Exists(r) {
				errs = append(errs, errorf(GroupRef(id), "member %s does not exist", r))
			}
		}
	}
	for _, r := range m.Roots {
		if !m.Exists(r) {
			errs = append(errs, errorf(Ref{}, "root %s does not exist", r))
		}
	}
	return errs
}

// validateFaceClosure checks that each contour of each face is a closed
// walk from its initial point.
func validateFaceClosure(m *Model) []ValidationError {
	var errs []ValidationError
	for _, id := range m.FaceIDs() {
		f := m.Face(id)
		if len(f.Edges) == 0 {
			errs = append(errs, errorf(FaceRef(id), "face has no edges"))
			continue
		}
		if len(f.Contours) == 0 || f.Contours[0].Start != 0 {
			errs = append(errs, errorf(FaceRef(id), "face contours do not start at edge 0"))
			continue
		}
		if _, err := m.ContourWalks(id); err != nil {
			errs = append(errs, errorf(FaceRef(id), "not a closed walk: %v", err))
		}
	}
	return errs
}

// validateBackPointers checks that faces and their volumes agree.
func validateBackPointers(m *Model) []ValidationError {
	var errs []ValidationError
	owner := make(map[FaceID]VolumeID)
	for _, vid := range m.VolumeIDs() {
		for _, fid := range m.Volume(vid).Faces {
			if prev, ok := owner[fid]; ok && prev != vid {
				errs = append(errs, errorf(FaceRef(fid), "face is listed by volumes %d and %d", prev, vid))
			}
			owner[fid] = vid
			if f := m.Face(fid); f != nil && f.Volume != vid {
				errs = append(errs, errorf(FaceRef(fid), "face belongs to volume %d but points at %d", vid, f.Volume))
			}
		}
	}
	for _, fid := range m.FaceIDs() {
		f := m.Face(fid)
		if f.Volume != 0 {
			if _, ok := owner[fid]; !ok {
				errs = append(errs, errorf(FaceRef(fid), "face points at volume %d which does not list it", f.Volume))
			}
		}
	}
	return errs
}

// validateManifold checks that every edge of a volume bounds exactly two
// of its faces, and that the two traverse it in opposite directions.
func validateManifold(m *Model) []ValidationError {
	var errs []ValidationError
	for _, vid := range m.VolumeIDs() {
		type use struct{ forward, backward int }
		uses := make(map[EdgeID]*use)
		var order []EdgeID
		for _, fid := range m.Volume(vid).Faces {
			if m.Face(fid) == nil {
				continue
			}
			walks, err := m.ContourWalks(fid)
			if err != nil {
				continue // reported by validateFaceClosure
			}
			for _, w := range walks {
				for _, s := range w {
					u := uses[s.Edge]
					if u == nil {
						u = &use{}
						uses[s.Edge] = u
						order = append(order, s.Edge)
					}
					if s.Reversed {
						u.backward++
					} else {
						u.forward++
					}
				}
			}
		}
		for _, e := range order {
			u := uses[e]
			switch {
			case u.forward+u.backward != 2:
				errs = append(errs, errorf(VolumeRef(vid), "edge %d is used by %d faces, want 2", e, u.forward+u.backward))
			case u.forward != 1:
				errs = append(errs, ValidationError{
					Ref:      VolumeRef(vid),
					Message:  fmt.Sprintf("edge %d is traversed the same way by both faces", e),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}

// validateGeometry reports zero length edges, coincident distinct points on
// one face and planar face types that are no longer planar.
func validateGeometry(m *Model, tol float64) []ValidationWarning {
	var warns []ValidationWarning

	for _, id := range m.EdgeIDs() {
		e := m.Edge(id)
		if e.Kind() == EdgeStraight && e.Ends[0] != e.Ends[1] &&
			m.Point(e.Ends[0]) != nil && m.Point(e.Ends[1]) != nil &&
			geom.Dist(m.Pos(e.Ends[0]), m.Pos(e.Ends[1])) <= tol {
			warns = append(warns, ValidationWarning{Ref: EdgeRef(id), Message: "zero length edge"})
		}
	}

	for _, id := range m.FaceIDs() {
		walks, err := m.ContourWalks(id)
		if err != nil {
			continue
		}
		var pts []PointID
		for _, w := range walks {
			for _, s := range w {
				pts = append(pts, s.From)
			}
		}
		for i := range pts {
			for j := i + 1; j < len(pts); j++ {
				if pts[i] != pts[j] && geom.Dist(m.Pos(pts[i]), m.Pos(pts[j])) <= tol {
					warns = append(warns, ValidationWarning{
						Ref:     FaceRef(id),
						Message: fmt.Sprintf("points %d and %d coincide", pts[i], pts[j]),
					})
				}
			}
		}

		f := m.Face(id)
		if f.Type.Curved() {
			continue
		}
		view := m.ViewList(id)
		n, ok := geom.PolygonNormal(view)
		if !ok {
			warns = append(warns, ValidationWarning{Ref: FaceRef(id), Message: "face has no area"})
			continue
		}
		pl := geom.Plane{Normal: n, Refpt: geom.Centroid(view)}
		worst := 0.0
		for _, p := range view {
			worst = math.Max(worst, math.Abs(pl.Distance(p)))
		}
		if worst > tol {
			warns = append(warns, ValidationWarning{
				Ref:     FaceRef(id),
				Message: fmt.Sprintf("%s face is not planar (deviation %.3g)", f.Type, worst),
			})
		}
	}
	return warns
}
