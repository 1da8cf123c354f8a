package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gilesp1729/loftycad/pkg/config"
)

func newPreview() *Preview {
	return New(config.Default())
}

// requireClean fails the test on any reported error.
func requireClean(t *testing.T, result Result) {
	t.Helper()
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
}

// TestExamples runs every bundled example end to end: source, engine,
// model, tessellation and coloured meshes.
func TestExamples(t *testing.T) {
	want := map[string]int{
		"box.lofty":  1,
		"vase.lofty": 1,
		// Two hulls, each with its three sections.
		"hull.lofty": 8,
	}
	for name, meshes := range want {
		t.Run(name, func(t *testing.T) {
			source, err := os.ReadFile(filepath.Join("..", "..", "examples", name))
			if err != nil {
				t.Fatalf("failed to read %s: %v", name, err)
			}
			result := newPreview().Evaluate(string(source))
			requireClean(t, result)

			if len(result.Meshes) != meshes {
				t.Fatalf("expected %d meshes, got %d", meshes, len(result.Meshes))
			}
			for _, m := range result.Meshes {
				if len(m.Vertices) == 0 || len(m.Normals) != len(m.Vertices) || len(m.Indices) == 0 {
					t.Errorf("mesh %q: incomplete geometry", m.Name)
				}
				if m.Color == "" {
					t.Errorf("mesh %q: no color assigned", m.Name)
				}
			}
		})
	}
}

// TestEmptySource ensures the pipeline handles empty input gracefully.
func TestEmptySource(t *testing.T) {
	result := newPreview().Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestSyntaxError ensures eval errors are reported, not fatal errors.
func TestSyntaxError(t *testing.T) {
	result := newPreview().Evaluate("(rect (vec 0 0 0) 1 1")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestConstructionError(t *testing.T) {
	result := newPreview().Evaluate(`
(def f (rect (vec 0 0 0) 10 10))
(chamfer f (pt (vec 5 5 0)) 1)
`)
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "chamfer") {
		t.Errorf("error should name the builtin, got %q", result.Errors[0].Message)
	}
}

func TestDifferenceColor(t *testing.T) {
	result := newPreview().Evaluate(`
(extrude (rect (vec 0 0 0) 10 10) 10)
(csg (extrude (circle (vec 5 5 0) 2) 10) :difference)
`)
	requireClean(t, result)
	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	if result.Meshes[0].Color == differenceColor {
		t.Error("union solid should take a palette color")
	}
	if result.Meshes[1].Op != "difference" || result.Meshes[1].Color != differenceColor {
		t.Errorf("cutter: op %q color %q", result.Meshes[1].Op, result.Meshes[1].Color)
	}
}

func TestColorPaletteWrapping(t *testing.T) {
	var src strings.Builder
	for i := 0; i < len(colorPalette)+1; i++ {
		fmt.Fprintf(&src, "(extrude (rect (vec %d 0 0) 1 1) 1)\n", 2*i)
	}
	result := newPreview().Evaluate(src.String())
	requireClean(t, result)

	if len(result.Meshes) != len(colorPalette)+1 {
		t.Fatalf("expected %d meshes, got %d", len(colorPalette)+1, len(result.Meshes))
	}
	if result.Meshes[0].Color != result.Meshes[len(colorPalette)].Color {
		t.Error("palette should wrap around")
	}
}

func TestRapidEvaluation(t *testing.T) {
	// Sequential calls on one Preview exercise the engine's generation
	// counter; none may panic.
	p := newPreview()
	sources := []string{
		`(extrude (rect (vec 0 0 0) 1 1) 1)`,
		`(+ 1 2)`,
		``,
		`(rect (vec 0 0 0) 1`,
		`(revolve (group "p" (line (vec 1 0 0) (vec 2 0 1))) (line (vec 0 0 0) (vec 0 0 1)))`,
	}
	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			_ = p.Evaluate(source)
		}()
	}
}
