// Package topo defines the boundary representation for LoftyCAD.
// Points, edges, faces, volumes and groups live in a Model arena and refer
// to each other by typed handles, so one point can be shared by any number
// of edges without being duplicated.
package topo
