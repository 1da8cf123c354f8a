package topo

import "fmt"

// Handles into the Model arena. The zero handle means "none".
type (
	PointID  int32
	EdgeID   int32
	FaceID   int32
	VolumeID int32
	GroupID  int32
)

// Kind identifies which arena a Ref points into.
type Kind uint8

const (
	KindPoint Kind = iota + 1
	KindEdge
	KindFace
	KindVolume
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindEdge:
		return "edge"
	case KindFace:
		return "face"
	case KindVolume:
		return "volume"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ref addresses an object of any kind. Group members and the object tree
// roots are Refs.
type Ref struct {
	Kind Kind
	ID   int32
}

func PointRef(id PointID) Ref   { return Ref{Kind: KindPoint, ID: int32(id)} }
func EdgeRef(id EdgeID) Ref     { return Ref{Kind: KindEdge, ID: int32(id)} }
func FaceRef(id FaceID) Ref     { return Ref{Kind: KindFace, ID: int32(id)} }
func VolumeRef(id VolumeID) Ref { return Ref{Kind: KindVolume, ID: int32(id)} }
func GroupRef(id GroupID) Ref   { return Ref{Kind: KindGroup, ID: int32(id)} }

// IsZero reports whether r refers to nothing.
func (r Ref) IsZero() bool { return r.ID == 0 }

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Op is the CSG operator a downstream boolean stage applies to a volume
// or group. Only volumes and groups carry one.
type Op int

const (
	OpNone Op = iota
	OpUnion
	OpIntersection
	OpDifference
)

var opNames = [...]string{"none", "union", "intersection", "difference"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// ParseOp accepts the names produced by String.
func ParseOp(s string) (Op, error) {
	for i, n := range opNames {
		if n == s {
			return Op(i), nil
		}
	}
	return OpNone, fmt.Errorf("unknown CSG operator %q", s)
}

// LockLevel is the finest level at which a volume's components may be
// picked and edited.
type LockLevel int

const (
	LockNone LockLevel = iota
	LockPoints
	LockEdges
	LockFaces
	LockVolume
)

var lockNames = [...]string{"none", "points", "edges", "faces", "volume"}

func (l LockLevel) String() string {
	if l < 0 || int(l) >= len(lockNames) {
		return fmt.Sprintf("LockLevel(%d)", int(l))
	}
	return lockNames[l]
}

// ParseLockLevel accepts the names produced by String.
func ParseLockLevel(s string) (LockLevel, error) {
	for i, n := range lockNames {
		if n == s {
			return LockLevel(i), nil
		}
	}
	return LockNone, fmt.Errorf("unknown lock level %q", s)
}
