// Package tessellate walks a model's object tree and produces triangle
// meshes from the faces' flattened boundaries. One mesh is produced per
// root volume or free face.
package tessellate

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/mesh"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// Tessellate walks the object tree and produces one triangle mesh per
// volume or free face. Groups are descended transparently; points and
// edges produce nothing. The model's geometry is not changed, though view
// lists are rebuilt where they were invalidated.
func Tessellate(m *topo.Model) ([]*mesh.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	var meshes []*mesh.Mesh
	for _, root := range m.Roots {
		collected, err := walk(m, root, "")
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", root, err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// walk recursively traverses an object and its children, collecting meshes.
func walk(m *topo.Model, r topo.Ref, prefix string) ([]*mesh.Mesh, error) {
	if !m.Exists(r) {
		return nil, fmt.Errorf("%s does not exist", r)
	}
	switch r.Kind {
	case topo.KindVolume:
		v := m.Volume(topo.VolumeID(r.ID))
		out := &mesh.Mesh{Name: prefix + r.String(), Op: v.Op.String()}
		for _, fid := range v.Faces {
			if err := addFace(out, m, fid); err != nil {
				return nil, err
			}
		}
		return []*mesh.Mesh{out}, nil

	case topo.KindFace:
		out := &mesh.Mesh{Name: prefix + r.String(), Op: topo.OpNone.String()}
		if err := addFace(out, m, topo.FaceID(r.ID)); err != nil {
			return nil, err
		}
		return []*mesh.Mesh{out}, nil

	case topo.KindGroup:
		g := m.Group(topo.GroupID(r.ID))
		name := g.Title
		if name == "" {
			name = r.String()
		}
		var meshes []*mesh.Mesh
		for _, child := range g.Members {
			collected, err := walk(m, child, prefix+name+"/")
			if err != nil {
				return nil, err
			}
			for _, c := range collected {
				// A group operator overrides a member left at the default.
				if g.Op != topo.OpNone && c.Op != topo.OpDifference.String() && c.Op != topo.OpIntersection.String() {
					c.Op = g.Op.String()
				}
			}
			meshes = append(meshes, collected...)
		}
		return meshes, nil
	}
	return nil, nil
}

// addFace triangulates one face into out. A curved four sided patch is
// meshed as a Coons patch over its boundary samples; anything else is
// fanned about the centroid of its outer contour.
func addFace(out *mesh.Mesh, m *topo.Model, fid topo.FaceID) error {
	f := m.Face(fid)
	if f == nil {
		return fmt.Errorf("face %d does not exist", fid)
	}
	walks, err := m.ContourWalks(fid)
	if err != nil {
		return err
	}
	if f.Type.Curved() && len(walks) == 1 && len(walks[0]) == 4 {
		if grid, ok := coons(m, walks[0]); ok {
			addGrid(out, grid, f.Plane.Normal)
			return nil
		}
	}
	contours := m.ViewContours(fid)
	addFan(out, contours[0], f.Plane.Normal)
	return nil
}

// addFan fans a closed polyline about its centroid. The polyline runs
// counterclockwise about n.
func addFan(out *mesh.Mesh, pts []v3.Vec, n v3.Vec) {
	if len(pts) < 3 {
		return
	}
	c := out.AddVertex(geom.Centroid(pts), n)
	first := out.AddVertex(pts[0], n)
	prev := first
	for _, p := range pts[1:] {
		i := out.AddVertex(p, n)
		out.AddTriangle(c, prev, i)
		prev = i
	}
	out.AddTriangle(c, prev, first)
}

// coons builds the bilinearly blended patch bounded by a four edge walk.
// grid[j][i] runs along the first edge with i and along the last edge,
// backwards, with j. Opposite edges must have the same number of samples.
func coons(m *topo.Model, walk []topo.Step) ([][]v3.Vec, bool) {
	var side [4][]v3.Vec
	for k, s := range walk {
		side[k] = m.EdgeSamples(s.Edge, s.From)
	}
	nu, nv := len(side[0]), len(side[1])
	if len(side[2]) != nu || len(side[3]) != nv || nu < 2 || nv < 2 {
		return nil, false
	}
	c0 := side[0]
	c1 := reversed(side[2])
	d0 := reversed(side[3])
	d1 := side[1]
	p00, p10, p11, p01 := c0[0], c0[nu-1], c1[nu-1], c1[0]

	grid := make([][]v3.Vec, nv)
	for j := range grid {
		v := float64(j) / float64(nv-1)
		grid[j] = make([]v3.Vec, nu)
		for i := range grid[j] {
			u := float64(i) / float64(nu-1)
			ruled := c0[i].MulScalar(1 - v).Add(c1[i].MulScalar(v)).
				Add(d0[j].MulScalar(1 - u)).Add(d1[j].MulScalar(u))
			corners := p00.MulScalar((1 - u) * (1 - v)).Add(p10.MulScalar(u * (1 - v))).
				Add(p11.MulScalar(u * v)).Add(p01.MulScalar((1 - u) * v))
			grid[j][i] = ruled.Sub(corners)
		}
	}
	return grid, true
}

func reversed(pts []v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// addGrid emits two triangles per grid cell with normals estimated from
// neighbouring grid points, turned to agree with the face normal n.
func addGrid(out *mesh.Mesh, grid [][]v3.Vec, n v3.Vec) {
	nv, nu := len(grid), len(grid[0])
	idx := make([][]uint32, nv)
	for j := range grid {
		idx[j] = make([]uint32, nu)
		for i := range grid[j] {
			du := grid[j][min(i+1, nu-1)].Sub(grid[j][max(i-1, 0)])
			dv := grid[min(j+1, nv-1)][i].Sub(grid[max(j-1, 0)][i])
			vn, ok := geom.Unit(du.Cross(dv))
			if !ok {
				vn = n
			} else if vn.Dot(n) < 0 {
				vn = vn.MulScalar(-1)
			}
			idx[j][i] = out.AddVertex(grid[j][i], vn)
		}
	}
	for j := 0; j+1 < nv; j++ {
		for i := 0; i+1 < nu; i++ {
			out.AddTriangle(idx[j][i], idx[j][i+1], idx[j+1][i+1])
			out.AddTriangle(idx[j][i], idx[j+1][i+1], idx[j+1][i])
		}
	}
}
