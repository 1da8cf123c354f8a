package engine

import (
	"math"
	"strings"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/gilesp1729/loftycad/pkg/topo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(extrude f 10 :axis a)`,
			expect: `(extrude f 10 "__kw_axis" a)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(make-face g :auto-orient true)`,
			expect: `(make_face g "__kw_auto-orient" true)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec 0 -10 0)`,
			expect: `(vec 0 -10 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func kw(name string) zygo.Sexp { return &zygo.SexpStr{S: kwPrefix + name} }
func str(s string) zygo.Sexp   { return &zygo.SexpStr{S: s} }

func TestParseArgsFlags(t *testing.T) {
	args := []zygo.Sexp{str("g"), kw("reverse"), kw("auto-orient"), str("x"), kw("nose-join"), str("symmetric"), kw("round")}
	pa := parseArgs(args)

	if len(pa.positional) != 1 {
		t.Fatalf("expected 1 positional argument, got %d", len(pa.positional))
	}
	want := []string{"reverse", "round"}
	if strings.Join(pa.flags, ",") != strings.Join(want, ",") {
		t.Errorf("flags = %v, want %v", pa.flags, want)
	}
	for _, name := range want {
		on, err := pa.flag(name)
		if err != nil || !on {
			t.Errorf("flag %s = %v, %v", name, on, err)
		}
	}
	// auto-orient takes the following string as its value.
	if _, err := pa.flag("auto-orient"); err == nil {
		t.Error("expected a string value not to read as a flag")
	}
	j, err := toKeywordString(pa.kw["nose-join"])
	if err != nil || j != "symmetric" {
		t.Errorf("nose-join = %q, %v", j, err)
	}
}

// ---------------------------------------------------------------------------
// Script tests
// ---------------------------------------------------------------------------

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *topo.Model {
	t.Helper()
	m, evalErrs, err := newTestEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	if errs := topo.Validate(m); len(errs) > 0 {
		t.Fatalf("invalid model: %v", errs)
	}
	return m
}

// onlyVolume returns the single volume in m.
func onlyVolume(t *testing.T, m *topo.Model) *topo.Volume {
	t.Helper()
	ids := m.VolumeIDs()
	if len(ids) != 1 {
		t.Fatalf("expected 1 volume, got %d", len(ids))
	}
	return m.Volume(ids[0])
}

func TestExtrudeRect(t *testing.T) {
	m := mustEval(t, `(def box (extrude (rect (vec 0 0 0) 10 20) 5))`)

	v := onlyVolume(t, m)
	if len(v.Faces) != 6 {
		t.Errorf("expected 6 faces, got %d", len(v.Faces))
	}
	if len(m.Roots) != 1 || m.Roots[0].Kind != topo.KindVolume {
		t.Errorf("expected the volume as the only root, got %v", m.Roots)
	}
	if n := m.Stats().Points; n != 8 {
		t.Errorf("expected 8 points, got %d", n)
	}
}

func TestMakeFaceFromLines(t *testing.T) {
	m := mustEval(t, `
(def a (pt (vec 0 0 0)))
(def b (pt (vec 10 0 0)))
(def c (pt (vec 10 10 0)))
(def d (pt (vec 0 10 0)))
(def f (make-face (group "loop" (line c d) (line a b) (line d a) (line b c)) :auto-orient))
`)
	ids := m.FaceIDs()
	if len(ids) != 1 {
		t.Fatalf("expected 1 face, got %d", len(ids))
	}
	f := m.Face(ids[0])
	if f.Type != topo.FaceFlat {
		t.Errorf("expected flat face, got %s", f.Type)
	}
	if f.Plane.Normal.Z < 0.99 {
		t.Errorf("oriented face should point up, got %v", f.Plane.Normal)
	}
	if len(m.GroupIDs()) != 0 {
		t.Error("the edge group should be consumed")
	}
}

func TestChamferAllScript(t *testing.T) {
	m := mustEval(t, `
(def f (rect (vec 0 0 0) 10 10))
(def n (chamfer-all f 1 :round))
(extrude f 3)
`)
	v := onlyVolume(t, m)
	// Four sides, four rounded corners and two caps.
	if len(v.Faces) != 10 {
		t.Errorf("expected 10 faces, got %d", len(v.Faces))
	}
}

func TestRevolveScript(t *testing.T) {
	m := mustEval(t, `
(def axis (line (vec 0 0 0) (vec 0 0 1)))
(def a (pt (vec 1 0 0)))
(def b (pt (vec 2 0 0)))
(def c (pt (vec 2 0 1)))
(def d (pt (vec 1 0 1)))
(revolve (group "profile" (line a b) (line b c) (line c d) (line d a)) axis :negative)
`)
	v := onlyVolume(t, m)
	if len(v.Faces) != 8 {
		t.Errorf("expected 8 faces, got %d", len(v.Faces))
	}
	if v.Op != topo.OpDifference {
		t.Errorf("expected difference, got %s", v.Op)
	}
}

func TestLoftScript(t *testing.T) {
	m := mustEval(t, `
(def g (group "hull" (rect (vec 0 0 0) 4 4) (rect (vec 0 0 10) 4 4) (rect (vec 0 0 5) 6 6)))
(loft g :tensions (list 1 0.5) :angle-break 45)
`)
	v := onlyVolume(t, m)
	// Two bays of four sides plus two caps.
	if len(v.Faces) != 10 {
		t.Errorf("expected 10 faces, got %d", len(v.Faces))
	}
	g := m.Group(m.GroupIDs()[0])
	if g.Loft == nil || g.Loft.AngleBreak != 45 || g.Loft.BayTension(1) != 0.5 {
		t.Errorf("loft settings not stored: %+v", g.Loft)
	}
}

func TestTransformScript(t *testing.T) {
	m := mustEval(t, `
(def box (extrude (rect (vec 0 0 0) 2 2) 2))
(def other (copy box (vec 10 0 0)))
(move other (vec 0 5 0))
(rotate box (vec 1 1 0) 90)
(scale other (vec 10 5 0) 2)
`)
	if n := len(m.VolumeIDs()); n != 2 {
		t.Fatalf("expected 2 volumes, got %d", n)
	}
	if n := m.Stats().Points; n != 16 {
		t.Errorf("copies share no points: expected 16, got %d", n)
	}
	maxX := math.Inf(-1)
	for _, p := range m.PointIDs() {
		maxX = math.Max(maxX, m.Pos(p).X)
	}
	if math.Abs(maxX-14) > 1e-9 {
		t.Errorf("scaled copy should reach x=14, got %g", maxX)
	}
}

func TestFacingAndCSG(t *testing.T) {
	m := mustEval(t, `
(facing :yz)
(def v (extrude (circle (vec 0 0 0) 3) 4))
(csg v :intersection)
`)
	v := onlyVolume(t, m)
	if v.Op != topo.OpIntersection {
		t.Errorf("expected intersection, got %s", v.Op)
	}
	for _, p := range m.PointIDs() {
		if x := m.Pos(p).X; x < -1e-9 || x > 4+1e-9 {
			t.Errorf("yz circle extruded along x should lie in 0..4, got x=%g", x)
		}
	}
}

func TestPointSnap(t *testing.T) {
	m := mustEval(t, `
(line (vec 0 0 0) (vec 5 0 0))
(line (pt (vec 5.2 0.1 0) :snap) (vec 5 5 0))
(line (pt (vec 9 9 0) :snap) (vec 9 0 0))
`)
	if n := m.Stats().Points; n != 5 {
		t.Errorf("expected the near point to be shared: 5 points, got %d", n)
	}
}

func TestLockScript(t *testing.T) {
	m := mustEval(t, `
(def box (extrude (rect (vec 0 0 0) 2 2) 2))
(lock box :volume)
`)
	if v := onlyVolume(t, m); v.Lock != topo.LockVolume {
		t.Errorf("expected volume lock, got %s", v.Lock)
	}

	_, evalErrs, err := newTestEngine().Evaluate(`
(def can (extrude (circle (vec 0 0 0) 2) 2))
(lock can :faces)
(lock can :points)
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 || !strings.Contains(evalErrs[0].Message, "lock") {
		t.Errorf("unlocking a curved volume to points should fail, got %v", evalErrs)
	}

	_, evalErrs, err = newTestEngine().Evaluate(`
(def base (rect (vec 0 0 0) 2 2))
(def box (extrude base 2))
(lock box :volume)
(move-face base (vec 0 0 -1))
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 || !strings.Contains(evalErrs[0].Message, "LOCKED") {
		t.Errorf("moving a face of a locked volume should fail, got %v", evalErrs)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"wrong arity", `(vec 1 2)`, "vec"},
		{"not a face", `(extrude (vec 0 0 0) 1)`, "expected object reference"},
		{"bad facing", `(facing "up")`, "facing"},
		{"bad operator", `(csg (extrude (rect (vec 0 0 0) 1 1) 1) :xor)`, "csg"},
		{"open loop", `(make-face (group "g" (line (vec 0 0 0) (vec 1 0 0)) (line (vec 1 0 0) (vec 1 1 0))))`, "make-face"},
		{"bad join", `(loft (group "g" (rect (vec 0 0 0) 1 1) (rect (vec 0 0 1) 1 1)) :nose-join "flat")`, "invalid join"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, evalErrs, err := newTestEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if m != nil || len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("message %q does not mention %q", evalErrs[0].Message, tt.want)
			}
		})
	}
}
