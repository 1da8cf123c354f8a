package tessellate_test

import (
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/construct"
	"github.com/gilesp1729/loftycad/pkg/tessellate"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// box builds an extruded rectangle and returns its volume.
func box(t *testing.T, m *topo.Model, origin v3.Vec, w, h, d float64) topo.VolumeID {
	t.Helper()
	cfg := config.Default()
	fid, err := construct.MakeRectFace(m, cfg, origin, w, h)
	if err != nil {
		t.Fatalf("MakeRectFace failed: %v", err)
	}
	vid, err := construct.ExtrudeFace(m, cfg, fid, d)
	if err != nil {
		t.Fatalf("ExtrudeFace failed: %v", err)
	}
	return vid
}

func TestEmptyModel(t *testing.T) {
	meshes, err := tessellate.Tessellate(topo.New())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected no meshes, got %d", len(meshes))
	}
}

func TestSingleBox(t *testing.T) {
	m := topo.New()
	box(t, m, v3.Vec{}, 10, 20, 5)

	meshes, err := tessellate.Tessellate(m)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	msh := meshes[0]
	if msh.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if msh.Op != "union" {
		t.Errorf("expected union, got %q", msh.Op)
	}
	// Six quads fanned about their centres.
	if msh.TriangleCount() != 24 {
		t.Errorf("expected 24 triangles, got %d", msh.TriangleCount())
	}
	if a := msh.Area(); math.Abs(a-700) > 1e-6 {
		t.Errorf("expected area 700, got %g", a)
	}
}

func TestWindingFollowsNormals(t *testing.T) {
	m := topo.New()
	box(t, m, v3.Vec{}, 2, 2, 2)

	meshes, err := tessellate.Tessellate(m)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	centre := v3.Vec{X: 1, Y: 1, Z: 1}
	for i, tri := range meshes[0].Triangles() {
		n := tri.Normal()
		mid := tri[0].Add(tri[1]).Add(tri[2]).MulScalar(1.0 / 3)
		if n.Dot(mid.Sub(centre)) <= 0 {
			t.Errorf("triangle %d faces inwards", i)
		}
	}
}

func TestCylinderPatches(t *testing.T) {
	m := topo.New()
	cfg := config.Default()
	fid, err := construct.MakeCircleFace(m, cfg, v3.Vec{}, 2)
	if err != nil {
		t.Fatalf("MakeCircleFace failed: %v", err)
	}
	if _, err := construct.ExtrudeFace(m, cfg, fid, 3); err != nil {
		t.Fatalf("ExtrudeFace failed: %v", err)
	}

	meshes, err := tessellate.Tessellate(m)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	want := 2*math.Pi*2*3 + 2*math.Pi*4
	got := meshes[0].Area()
	if got > want || got < 0.97*want {
		t.Errorf("area %g should be just under %g", got, want)
	}
	for i := 0; i < meshes[0].VertexCount(); i++ {
		n := meshes[0].Normals[3*i : 3*i+3]
		l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if math.Abs(l-1) > 1e-4 {
			t.Fatalf("vertex %d normal has length %g", i, l)
		}
	}
}

func TestGroupsAndFreeFaces(t *testing.T) {
	m := topo.New()
	cfg := config.Default()
	a := box(t, m, v3.Vec{}, 1, 1, 1)
	b := box(t, m, v3.Vec{X: 5}, 1, 1, 1)
	m.RemoveRoot(topo.VolumeRef(a))
	m.RemoveRoot(topo.VolumeRef(b))
	m.Volume(b).Op = topo.OpDifference
	g := m.NewGroup("pair", topo.VolumeRef(a), topo.VolumeRef(b))
	m.Group(g).Op = topo.OpIntersection
	m.AddRoot(topo.GroupRef(g))
	if _, err := construct.MakeRectFace(m, cfg, v3.Vec{Z: 10}, 3, 3); err != nil {
		t.Fatalf("MakeRectFace failed: %v", err)
	}

	meshes, err := tessellate.Tessellate(m)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	if !strings.HasPrefix(meshes[0].Name, "pair/") {
		t.Errorf("group members should be named under the group, got %q", meshes[0].Name)
	}
	if meshes[0].Op != "intersection" {
		t.Errorf("group operator should apply, got %q", meshes[0].Op)
	}
	if meshes[1].Op != "difference" {
		t.Errorf("member difference should stand, got %q", meshes[1].Op)
	}
	if meshes[2].Op != "none" || meshes[2].TriangleCount() != 4 {
		t.Errorf("free face: op %q, %d triangles", meshes[2].Op, meshes[2].TriangleCount())
	}
}
