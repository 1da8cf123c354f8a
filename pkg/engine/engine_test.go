package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

func newTestEngine() *Engine {
	return NewEngine(config.Default())
}

func TestEvaluateEmptyString(t *testing.T) {
	eng := newTestEngine()

	m, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	if m.Stats() != (topo.Stats{}) {
		t.Errorf("expected empty model, got %+v", m.Stats())
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := newTestEngine()

	m, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if m == nil || len(m.Roots) != 0 {
		t.Fatal("expected empty model")
	}
}

func TestEvaluatePlainLisp(t *testing.T) {
	eng := newTestEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	m, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	if m.Stats() != (topo.Stats{}) {
		t.Errorf("expected no objects from plain arithmetic, got %+v", m.Stats())
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := newTestEngine()

	// Unmatched paren is a parse error.
	m, evalErrs, err := eng.Evaluate("(rect (vec 0 0 0) 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := newTestEngine()

	m, evalErrs, err := eng.Evaluate("(extrude undefined-face 10)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := newTestEngine()

	var first topo.Stats
	for i := 0; i < 5; i++ {
		m, evalErrs, err := eng.Evaluate(`(extrude (rect (vec 0 0 0) 10 20) 5)`)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if i == 0 {
			first = m.Stats()
			continue
		}
		if m.Stats() != first {
			t.Errorf("iteration %d: got %+v, want %+v", i, m.Stats(), first)
		}
	}
}

func TestRunReportsFindings(t *testing.T) {
	eng := newTestEngine()

	res, err := eng.Run(`(extrude (rect (vec 0 0 0) 10 20) 5)`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected eval errors: %v", res.Errors)
	}
	if len(res.Warnings) > 0 {
		t.Errorf("a box should have no findings, got %v", res.Warnings)
	}

	if res.Model.Stats().Volumes != 1 {
		t.Errorf("expected 1 volume, got %+v", res.Model.Stats())
	}
}

func TestConstructionErrorIsEvalError(t *testing.T) {
	eng := newTestEngine()

	m, evalErrs, err := eng.Evaluate(`(extrude (rect (vec 0 0 0) 10 20) 0)`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error")
	}
	if !strings.Contains(evalErrs[0].Message, "extrude") {
		t.Errorf("message should name the builtin, got %q", evalErrs[0].Message)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// The plumbing is tested directly with a channel that never sends;
	// a script that loops forever would also hold the sandbox.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)

	ch := make(chan evalResult, 1)
	ch <- evalResult{model: topo.New()}

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "extrude: height must not be zero",
			wantLine: 0,
			wantMsg:  "height must not be zero",
		},
		{
			name:     "short line format",
			msg:      "line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
