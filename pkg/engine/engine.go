// Package engine provides the Lisp evaluation engine for LoftyCAD scripts.
// It wraps zygomys in a sandboxed environment and builds a topology model
// from user source code by calling the construction and transform
// operations.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/topo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a construction
// that declined.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a finding about the model a script built.
type EvalWarning struct {
	Message string
	Ref     topo.Ref
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Model    *topo.Model
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh model for determinism.
type Engine struct {
	cfg config.Config

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine building with cfg.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate takes Lisp source code and produces a new model.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*topo.Model, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		m, evalErrs, err := e.evaluate(source)
		ch <- evalResult{model: m, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// Run evaluates source and checks the resulting model, reporting
// structural and geometric findings as warnings.
func (e *Engine) Run(source string) (EvalResult, error) {
	m, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Model: m, Errors: evalErrs}
	if m == nil {
		return res, nil
	}
	v := topo.ValidateAll(m, e.cfg.Tolerance)
	for _, ve := range v.Errors {
		res.Warnings = append(res.Warnings, EvalWarning{Message: ve.Message, Ref: ve.Ref})
	}
	for _, w := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, Ref: w.Ref})
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*topo.Model, []EvalError, error) {
	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return topo.New(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	s := &session{m: topo.New(), cfg: e.cfg}
	registerBuiltins(env, s)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	e.cfg.Log().Debug("evaluated", "stats", s.m.Stats(), "roots", len(s.m.Roots))
	return s.m, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
