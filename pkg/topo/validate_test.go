package topo

import (
	"strings"
	"testing"
)

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(warns []ValidationWarning, substr string) bool {
	for _, w := range warns {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateCube(t *testing.T) {
	b := newBuilder()
	b.cube()

	errs := Validate(b.m)
	if len(errs) != 0 {
		t.Fatalf("expected a valid cube, got %v", errs)
	}
	res := ValidateAll(b.m, 1e-6)
	if !res.OK() || len(res.Warnings) != 0 {
		t.Fatalf("unexpected findings: %+v", res)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *builder, vid VolumeID, p []PointID)
		want   string
	}{
		{
			name: "dangling edge in face",
			mutate: func(b *builder, vid VolumeID, p []PointID) {
				f := b.m.Face(b.m.Volume(vid).Faces[0])
				f.Edges[0] = 999
			},
			want: "edge 999 does not exist",
		},
		{
			name: "open face",
			mutate: func(b *builder, vid VolumeID, p []PointID) {
				f := b.m.Face(b.m.Volume(vid).Faces[0])
				f.Edges[0], f.Edges[1] = f.Edges[1], f.Edges[0]
			},
			want: "not a closed walk",
		},
		{
			name: "missing face",
			mutate: func(b *builder, vid VolumeID, p []PointID) {
				v := b.m.Volume(vid)
				b.m.Face(v.Faces[5]).Volume = 0
				v.Faces = v.Faces[:5]
			},
			want: "used by 1 faces",
		},
		{
			name: "back pointer",
			mutate: func(b *builder, vid VolumeID, p []PointID) {
				b.m.Face(b.m.Volume(vid).Faces[2]).Volume = 0
			},
			want: "points at 0",
		},
		{
			name: "dangling root",
			mutate: func(b *builder, vid VolumeID, p []PointID) {
				b.m.AddRoot(GroupRef(42))
			},
			want: "root group:42 does not exist",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder()
			vid, p := b.cube()
			tt.mutate(b, vid, p)
			errs := Validate(b.m)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, errs)
			}
		})
	}
}

func TestValidateGeometryWarnings(t *testing.T) {
	b := newBuilder()
	_, p := b.cube()

	// Lift one corner of the top face so it is no longer planar.
	b.m.SetPos(p[7], vec(1, 1, 1.5))
	b.m.InvalidateView(PointRef(p[7]))

	res := ValidateAll(b.m, 1e-6)
	if !res.OK() {
		t.Fatalf("moving a point must not break structure: %v", res.Errors)
	}
	if !hasWarning(res.Warnings, "rect face is not planar") {
		t.Errorf("expected planarity warning, got %+v", res.Warnings)
	}

	b.m.SetPos(p[7], vec(1, 1, 0))
	b.m.InvalidateView(PointRef(p[7]))
	res = ValidateAll(b.m, 1e-6)
	if !hasWarning(res.Warnings, "zero length edge") {
		t.Errorf("expected zero length warning, got %+v", res.Warnings)
	}
	if !hasWarning(res.Warnings, "coincide") {
		t.Errorf("expected coincident point warning, got %+v", res.Warnings)
	}
}
