// Package preview runs a script end to end for an interactive viewer:
// source in, coloured meshes and positioned messages out, all in a form
// that marshals straight to JSON.
package preview

import (
	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/engine"
	"github.com/gilesp1729/loftycad/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to solids.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// differenceColor marks solids that cut away from others.
const differenceColor = "#B0B0B0"

// Preview evaluates scripts for a viewer.
type Preview struct {
	cfg    config.Config
	engine *engine.Engine
}

// MeshData is the JSON-serializable mesh format sent to the viewer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Op       string    `json:"op"`
	Color    string    `json:"color"`
}

// ErrorData is a JSON-serializable script error.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// WarningData is a JSON-serializable finding about the built model.
type WarningData struct {
	Object  string `json:"object,omitempty"`
	Message string `json:"message"`
}

// Result is the full result returned to the viewer.
type Result struct {
	Meshes   []MeshData    `json:"meshes"`
	Errors   []ErrorData   `json:"errors"`
	Warnings []WarningData `json:"warnings"`
}

// New creates a Preview building with cfg.
func New(cfg config.Config) *Preview {
	return &Preview{cfg: cfg, engine: engine.NewEngine(cfg)}
}

// Evaluate takes Lisp source and returns mesh data and messages. It never
// fails: every problem is reported in the result.
func (p *Preview) Evaluate(source string) Result {
	result := Result{
		Meshes:   []MeshData{},
		Errors:   []ErrorData{},
		Warnings: []WarningData{},
	}

	res, err := p.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		p.cfg.Log().Error("evaluate", "err", err)
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	for _, w := range res.Warnings {
		wd := WarningData{Message: w.Message}
		if !w.Ref.IsZero() {
			wd.Object = w.Ref.String()
		}
		result.Warnings = append(result.Warnings, wd)
	}

	meshes, err := tessellate.Tessellate(res.Model)
	if err != nil {
		p.cfg.Log().Error("tessellate", "err", err)
		result.Errors = append(result.Errors, ErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	for i, m := range meshes {
		color := colorPalette[i%len(colorPalette)]
		if m.Op == "difference" {
			color = differenceColor
		}
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Op:       m.Op,
			Color:    color,
		})
	}
	return result
}
