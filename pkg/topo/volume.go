package topo

import (
	"slices"

	"github.com/google/uuid"

	"github.com/gilesp1729/loftycad/pkg/errors"
)

// Volume is a closed shell of faces.
type Volume struct {
	UID         uuid.UUID
	Faces       []FaceID
	Op          Op
	MaxFaceType FaceType
	Lock        LockLevel
}

// CanUnlock reports whether the volume may be unlocked down to level.
// Curved volumes cannot expose their generated points and edges.
func (v *Volume) CanUnlock(level LockLevel) bool {
	if v.MaxFaceType.Curved() {
		return level >= LockFaces
	}
	return true
}

// SetLock changes the lock level of a volume. Raising it always succeeds;
// lowering it is refused where CanUnlock says no.
func (m *Model) SetLock(vid VolumeID, level LockLevel) error {
	v := m.Volume(vid)
	if v == nil {
		return errors.New(errors.ErrCodeNotFound, "volume %d does not exist", vid)
	}
	if level < LockNone || level > LockVolume {
		return errors.New(errors.ErrCodeInvalidInput, "lock level %d out of range", int(level))
	}
	if level < v.Lock && !v.CanUnlock(level) {
		return errors.New(errors.ErrCodeLocked, "volume %d with %s faces cannot be unlocked to %s", vid, v.MaxFaceType, level)
	}
	v.Lock = level
	return nil
}

// Editable reports whether components of the volume at level may be
// picked and edited on their own.
func (v *Volume) Editable(level LockLevel) bool {
	return v.Lock <= level
}

// NewVolume creates a volume owning faces and sets their back-pointers.
func (m *Model) NewVolume(faces []FaceID, op Op) VolumeID {
	id := m.AddVolume(&Volume{Op: op})
	for _, f := range faces {
		m.AttachFace(id, f)
	}
	return id
}

// AttachFace appends a face to a volume.
func (m *Model) AttachFace(vid VolumeID, fid FaceID) {
	v := m.Volume(vid)
	f := m.MustFace(fid)
	if v == nil {
		return
	}
	if !slices.Contains(v.Faces, fid) {
		v.Faces = append(v.Faces, fid)
	}
	f.Volume = vid
	if f.Type > v.MaxFaceType {
		v.MaxFaceType = f.Type
	}
}

// UpdateVolume recomputes the cached highest face type.
func (m *Model) UpdateVolume(vid VolumeID) {
	v := m.Volume(vid)
	if v == nil {
		return
	}
	v.MaxFaceType = FaceFlat
	for _, fid := range v.Faces {
		if f := m.Face(fid); f != nil && f.Type > v.MaxFaceType {
			v.MaxFaceType = f.Type
		}
	}
}

// EndJoin selects how a loft closes its first or last section.
type EndJoin int

const (
	// JoinFace uses the end section itself as the cap.
	JoinFace EndJoin = iota
	// JoinSymmetric replaces the end section with rib faces matched across
	// its plane of symmetry.
	JoinSymmetric
)

func (j EndJoin) String() string {
	if j == JoinSymmetric {
		return "symmetric"
	}
	return "face"
}

// LoftParams are the lofting settings stored on a group.
type LoftParams struct {
	// BayTensions holds one tension per gap between adjacent sections.
	// Missing entries use DefaultTension.
	BayTensions []float64
	NoseTension float64
	TailTension float64
	// AngleBreak is the angle in degrees between adjacent section edge
	// directions above which contour tangents are not averaged.
	AngleBreak float64
	FollowPath bool
	NoseJoin   EndJoin
	TailJoin   EndJoin
}

// DefaultTension is the control point offset, as a fraction of a third of
// the bay length, used when no tension is set.
const DefaultTension = 1.0

// DefaultLoftParams returns loft settings for a group that has none.
func DefaultLoftParams() LoftParams {
	return LoftParams{
		NoseTension: DefaultTension,
		TailTension: DefaultTension,
		AngleBreak:  30,
	}
}

// BayTension returns the tension of bay i.
func (p *LoftParams) BayTension(i int) float64 {
	if i >= 0 && i < len(p.BayTensions) && p.BayTensions[i] > 0 {
		return p.BayTensions[i]
	}
	return DefaultTension
}

// Group is a container of heterogeneous objects.
type Group struct {
	UID     uuid.UUID
	Title   string
	Members []Ref
	Op      Op
	Loft    *LoftParams
}

// NewGroup creates a group of members.
func (m *Model) NewGroup(title string, members ...Ref) GroupID {
	return m.AddGroup(&Group{Title: title, Members: slices.Clone(members)})
}

// IsEdgeGroup reports whether every member of the group is an edge.
func (m *Model) IsEdgeGroup(id GroupID) bool {
	g := m.Group(id)
	if g == nil || len(g.Members) == 0 {
		return false
	}
	for _, r := range g.Members {
		if r.Kind != KindEdge {
			return false
		}
	}
	return true
}

// GroupEdges returns the edge members of a group in member order.
func (m *Model) GroupEdges(id GroupID) []EdgeID {
	g := m.Group(id)
	if g == nil {
		return nil
	}
	var out []EdgeID
	for _, r := range g.Members {
		if r.Kind == KindEdge {
			out = append(out, EdgeID(r.ID))
		}
	}
	return out
}
