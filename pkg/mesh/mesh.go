// Package mesh holds the triangle meshes produced from a model for
// rendering and export.
package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // which model object this came from
	Op       string    `json:"op"`       // CSG operator of that object
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(p, n v3.Vec) uint32 {
	i := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
	m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	return i
}

// AddTriangle appends a triangle wound counterclockwise about its normal.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

func (m *Mesh) vertex(i uint32) v3.Vec {
	return v3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
}

// Triangles expands the indexed triangles.
func (m *Mesh) Triangles() []sdf.Triangle3 {
	out := make([]sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		out = append(out, sdf.Triangle3{m.vertex(m.Indices[i]), m.vertex(m.Indices[i+1]), m.vertex(m.Indices[i+2])})
	}
	return out
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var a float64
	for _, t := range m.Triangles() {
		a += t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length() / 2
	}
	return a
}

// WriteSTL writes meshes as one ASCII STL solid per mesh.
func WriteSTL(w io.Writer, meshes []*Mesh) error {
	bw := bufio.NewWriter(w)
	for i, m := range meshes {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh%d", i)
		}
		fmt.Fprintf(bw, "solid %s\n", name)
		for _, t := range m.Triangles() {
			n := t.Normal()
			fmt.Fprintf(bw, "  facet normal %g %g %g\n    outer loop\n", n.X, n.Y, n.Z)
			for _, v := range t {
				fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
			}
			fmt.Fprintf(bw, "    endloop\n  endfacet\n")
		}
		fmt.Fprintf(bw, "endsolid %s\n", name)
	}
	return bw.Flush()
}
