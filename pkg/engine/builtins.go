package engine

import (
	"fmt"
	"math"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/gilesp1729/loftycad/pkg/config"
	"github.com/gilesp1729/loftycad/pkg/construct"
	"github.com/gilesp1729/loftycad/pkg/geom"
	"github.com/gilesp1729/loftycad/pkg/topo"
	"github.com/gilesp1729/loftycad/pkg/xform"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms LoftyCAD Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: make-face -> make_face
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRef wraps a handle to a model object so it can be passed between
// builtins.
type sexpRef struct {
	ref topo.Ref
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(ref %s)", r.ref)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// sexpVec wraps a position or direction.
type sexpVec struct {
	vec v3.Vec
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
	// flags lists, in order, the keywords given without a value.
	flags []string
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			next := i+1 < len(args)
			if next {
				_, kwNext := isKW(args[i+1])
				next = !kwNext
			}
			if next {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end or before another keyword: a flag.
				result.kw[name] = zygo.SexpNull
				result.flags = append(result.flags, name)
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// need checks the number of positional arguments.
func (pa kwArgs) need(n int, usage string) error {
	if len(pa.positional) < n {
		return fmt.Errorf("expected %s", usage)
	}
	return nil
}

// choice returns the positional argument at i, or failing that the
// first flag, so (facing :yz) and (facing "yz") read the same.
func (pa kwArgs) choice(i int, usage string) (string, error) {
	if i < len(pa.positional) {
		return toKeywordString(pa.positional[i])
	}
	if len(pa.flags) > 0 {
		return pa.flags[0], nil
	}
	return "", fmt.Errorf("expected %s", usage)
}

func (pa kwArgs) float(name string, def float64) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func (pa kwArgs) flag(name string) (bool, error) {
	v, ok := pa.kw[name]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true and false. A bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_xy) and plain strings ("xy").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec extracts a vector from a sexpVec.
func toVec(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec, got %T (%s)", s, s.SexpString(nil))
}

// toRef extracts a model handle from a sexpRef.
func toRef(s zygo.Sexp) (topo.Ref, error) {
	if r, ok := s.(*sexpRef); ok {
		return r.ref, nil
	}
	return topo.Ref{}, fmt.Errorf("expected object reference, got %T (%s)", s, s.SexpString(nil))
}

// toKind extracts a handle of one kind.
func toKind(s zygo.Sexp, k topo.Kind) (int32, error) {
	r, err := toRef(s)
	if err != nil {
		return 0, err
	}
	if r.Kind != k {
		return 0, fmt.Errorf("expected %s, got %s", k, r)
	}
	return r.ID, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func refSexp(r topo.Ref) zygo.Sexp { return &sexpRef{ref: r} }

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// session is the model under construction and the context builtins run
// with. facing changes cfg for the rest of the script.
type session struct {
	m   *topo.Model
	cfg config.Config
}

// point returns the point an argument names, creating one for a vec.
func (s *session) point(arg zygo.Sexp) (topo.PointID, error) {
	if v, ok := arg.(*sexpVec); ok {
		return s.m.AddPoint(v.vec), nil
	}
	id, err := toKind(arg, topo.KindPoint)
	if err != nil {
		return 0, err
	}
	if s.m.Point(topo.PointID(id)) == nil {
		return 0, fmt.Errorf("point %d has been deleted", id)
	}
	return topo.PointID(id), nil
}

func (s *session) points(args []zygo.Sexp) ([]topo.PointID, error) {
	out := make([]topo.PointID, len(args))
	for i, a := range args {
		p, err := s.point(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		out[i] = p
	}
	return out, nil
}

// builtin is a DSL function body. Errors are prefixed with the function
// name by define.
type builtin func(pa kwArgs) (zygo.Sexp, error)

// define registers fn under name. zygomys does not support hyphens in
// identifiers, so make-face is registered as make_face; the preprocessor
// converts the source to match.
func define(env *zygo.Zlisp, name string, fn builtin) {
	env.AddFunction(strings.ReplaceAll(name, "-", "_"), func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		res, err := fn(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		return res, nil
	})
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the modelling builtins into a zygomys
// environment. The builtins operate on the session's model.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	registerDrawing(env, s)
	registerConstruction(env, s)
	registerTransforms(env, s)
}

func registerDrawing(env *zygo.Zlisp, s *session) {
	// (vec 1 2 3)
	define(env, "vec", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 3 {
			return nil, fmt.Errorf("requires exactly 3 arguments, got %d", len(pa.positional))
		}
		var c [3]float64
		for i := range c {
			f, err := toFloat64(pa.positional[i])
			if err != nil {
				return nil, fmt.Errorf("%c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (snap (vec 0.9 2.1 0))
	define(env, "snap", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "a vec"); err != nil {
			return nil, err
		}
		v, err := toVec(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return &sexpVec{vec: s.cfg.Snap(v)}, nil
	})

	// (pt (vec 0 0 0) :snap)
	define(env, "pt", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "a vec"); err != nil {
			return nil, err
		}
		snap, err := pa.flag("snap")
		if err != nil {
			return nil, err
		}
		if v, ok := pa.positional[0].(*sexpVec); ok && snap {
			// Pick an existing point within the snap radius first.
			if p, ok := s.m.NearestPoint(v.vec, s.cfg.SnapTolerance); ok {
				return refSexp(topo.PointRef(p)), nil
			}
		}
		p, err := s.point(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return refSexp(topo.PointRef(p)), nil
	})

	// (facing :yz)
	define(env, "facing", func(pa kwArgs) (zygo.Sexp, error) {
		name, err := pa.choice(0, "a facing plane")
		if err != nil {
			return nil, err
		}
		f, err := geom.ParseFacing(name)
		if err != nil {
			return nil, err
		}
		s.cfg = s.cfg.WithFacing(f)
		return zygo.SexpNull, nil
	})

	// (line a b)
	define(env, "line", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(2, "two points"); err != nil {
			return nil, err
		}
		p, err := s.points(pa.positional[:2])
		if err != nil {
			return nil, err
		}
		e := s.m.AddStraight(p[0], p[1])
		s.m.AddRoot(topo.EdgeRef(e))
		return refSexp(topo.EdgeRef(e)), nil
	})

	// (arc a b centre :cw true :normal (vec 0 0 1))
	define(env, "arc", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(3, "start, end and centre points"); err != nil {
			return nil, err
		}
		p, err := s.points(pa.positional[:3])
		if err != nil {
			return nil, err
		}
		cw, err := pa.flag("cw")
		if err != nil {
			return nil, err
		}
		n := s.cfg.Facing.Normal()
		if v, ok := pa.kw["normal"]; ok {
			if n, err = toVec(v); err != nil {
				return nil, fmt.Errorf("normal: %w", err)
			}
		}
		c, a, b := s.m.Pos(p[2]), s.m.Pos(p[0]), s.m.Pos(p[1])
		r := geom.Dist(a, c)
		if r < s.cfg.Tolerance || math.Abs(geom.Dist(b, c)-r) > s.cfg.Tolerance {
			return nil, fmt.Errorf("ends are not equidistant from the centre")
		}
		steps := geom.StepsForAngle(r, geom.ArcSweep(c, a, b, n, cw), s.cfg.ChordTolerance, s.cfg.MinSteps, s.cfg.MaxSteps)
		e := s.m.AddArc(p[0], p[1], p[2], n, cw, steps)
		s.m.AddRoot(topo.EdgeRef(e))
		return refSexp(topo.EdgeRef(e)), nil
	})

	// (bezier a b c0 c1)
	define(env, "bezier", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(4, "two ends and two control points"); err != nil {
			return nil, err
		}
		p, err := s.points(pa.positional[:4])
		if err != nil {
			return nil, err
		}
		pos := func(i int) v3.Vec { return s.m.Pos(p[i]) }
		steps := geom.StepsForBezier(pos(0), pos(2), pos(3), pos(1), s.cfg.ChordTolerance, s.cfg.MinSteps, s.cfg.MaxSteps)
		e := s.m.AddBezier(p[0], p[1], p[2], p[3], steps)
		s.m.AddRoot(topo.EdgeRef(e))
		return refSexp(topo.EdgeRef(e)), nil
	})

	// (group "title" e1 e2 ...)
	define(env, "group", func(pa kwArgs) (zygo.Sexp, error) {
		args := pa.positional
		title := ""
		if len(args) > 0 {
			if t, err := toString(args[0]); err == nil {
				title, args = t, args[1:]
			}
		}
		var members []topo.Ref
		for i, a := range args {
			r, err := toRef(a)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i+1, err)
			}
			if !s.m.Exists(r) {
				return nil, fmt.Errorf("member %d: %s does not exist", i+1, r)
			}
			members = append(members, r)
		}
		for _, r := range members {
			s.m.RemoveRoot(r)
		}
		g := s.m.NewGroup(title, members...)
		s.m.AddRoot(topo.GroupRef(g))
		return refSexp(topo.GroupRef(g)), nil
	})

	// (delete ref)
	define(env, "delete", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "an object"); err != nil {
			return nil, err
		}
		r, err := toRef(pa.positional[0])
		if err != nil {
			return nil, err
		}
		s.m.DeleteTree(r)
		return zygo.SexpNull, nil
	})

	// (lock vol :faces)
	define(env, "lock", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "a volume and a lock level"); err != nil {
			return nil, err
		}
		r, err := toRef(pa.positional[0])
		if err != nil {
			return nil, err
		}
		if r.Kind != topo.KindVolume {
			return nil, fmt.Errorf("expected volume, got %s", r)
		}
		name, err := pa.choice(1, "a lock level")
		if err != nil {
			return nil, err
		}
		level, err := topo.ParseLockLevel(name)
		if err != nil {
			return nil, err
		}
		return pa.positional[0], s.m.SetLock(topo.VolumeID(r.ID), level)
	})

	// (csg ref :difference)
	define(env, "csg", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "an object and an operator"); err != nil {
			return nil, err
		}
		r, err := toRef(pa.positional[0])
		if err != nil {
			return nil, err
		}
		name, err := pa.choice(1, "an operator")
		if err != nil {
			return nil, err
		}
		op, err := topo.ParseOp(name)
		if err != nil {
			return nil, err
		}
		switch {
		case r.Kind == topo.KindVolume && s.m.Volume(topo.VolumeID(r.ID)) != nil:
			s.m.Volume(topo.VolumeID(r.ID)).Op = op
		case r.Kind == topo.KindGroup && s.m.Group(topo.GroupID(r.ID)) != nil:
			s.m.Group(topo.GroupID(r.ID)).Op = op
		default:
			return nil, fmt.Errorf("%s cannot carry an operator", r)
		}
		return pa.positional[0], nil
	})
}

func registerConstruction(env *zygo.Zlisp, s *session) {
	// (make-face g :reverse true :auto-orient true :require-curved false)
	define(env, "make-face", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "an edge group"); err != nil {
			return nil, err
		}
		g, err := toKind(pa.positional[0], topo.KindGroup)
		if err != nil {
			return nil, err
		}
		var opts construct.FaceOptions
		for name, dst := range map[string]*bool{
			"reverse":        &opts.Reverse,
			"auto-orient":    &opts.AutoOrient,
			"require-curved": &opts.RequireCurved,
		} {
			if *dst, err = pa.flag(name); err != nil {
				return nil, err
			}
		}
		f, err := construct.MakeFace(s.m, s.cfg, topo.GroupID(g), opts)
		if err != nil {
			return nil, err
		}
		return refSexp(topo.FaceRef(f)), nil
	})

	// (rect (vec 0 0 0) 10 20)
	define(env, "rect", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(3, "an origin, a width and a height"); err != nil {
			return nil, err
		}
		o, err := toVec(pa.positional[0])
		if err != nil {
			return nil, err
		}
		w, err := toFloat64(pa.positional[1])
		if err != nil {
			return nil, fmt.Errorf("width: %w", err)
		}
		h, err := toFloat64(pa.positional[2])
		if err != nil {
			return nil, fmt.Errorf("height: %w", err)
		}
		f, err := construct.MakeRectFace(s.m, s.cfg, o, w, h)
		if err != nil {
			return nil, err
		}
		return refSexp(topo.FaceRef(f)), nil
	})

	// (circle (vec 0 0 0) 5)
	define(env, "circle", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(2, "a centre and a radius"); err != nil {
			return nil, err
		}
		c, err := toVec(pa.positional[0])
		if err != nil {
			return nil, err
		}
		r, err := toFloat64(pa.positional[1])
		if err != nil {
			return nil, fmt.Errorf("radius: %w", err)
		}
		f, err := construct.MakeCircleFace(s.m, s.cfg, c, r)
		if err != nil {
			return nil, err
		}
		return refSexp(topo.FaceRef(f)), nil
	})

	// (chamfer face point 2 :restricted true) and (round face point 2)
	corner := func(round bool) builtin {
		return func(pa kwArgs) (zygo.Sexp, error) {
			if err := pa.need(3, "a face, a corner point and a size"); err != nil {
				return nil, err
			}
			f, err := toKind(pa.positional[0], topo.KindFace)
			if err != nil {
				return nil, err
			}
			p, err := toKind(pa.positional[1], topo.KindPoint)
			if err != nil {
				return nil, err
			}
			size, err := toFloat64(pa.positional[2])
			if err != nil {
				return nil, fmt.Errorf("size: %w", err)
			}
			restricted, err := pa.flag("restricted")
			if err != nil {
				return nil, err
			}
			e, err := construct.InsertChamferRound(s.m, s.cfg, topo.FaceID(f), topo.PointID(p), size,
				construct.CornerOptions{Round: round, Restricted: restricted})
			if err != nil {
				return nil, err
			}
			return refSexp(topo.EdgeRef(e)), nil
		}
	}
	define(env, "chamfer", corner(false))
	define(env, "round", corner(true))

	// (chamfer-all face 2 :round true)
	define(env, "chamfer-all", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(2, "a face and a size"); err != nil {
			return nil, err
		}
		f, err := toKind(pa.positional[0], topo.KindFace)
		if err != nil {
			return nil, err
		}
		size, err := toFloat64(pa.positional[1])
		if err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
		var opts construct.CornerOptions
		if opts.Round, err = pa.flag("round"); err != nil {
			return nil, err
		}
		if opts.Restricted, err = pa.flag("restricted"); err != nil {
			return nil, err
		}
		n, err := construct.ChamferAllCorners(s.m, s.cfg, topo.FaceID(f), size, opts)
		if err != nil {
			return nil, err
		}
		return &zygo.SexpInt{Val: int64(n)}, nil
	})

	// (extrude face 10)
	define(env, "extrude", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(2, "a face and a height"); err != nil {
			return nil, err
		}
		f, err := toKind(pa.positional[0], topo.KindFace)
		if err != nil {
			return nil, err
		}
		h, err := toFloat64(pa.positional[1])
		if err != nil {
			return nil, fmt.Errorf("height: %w", err)
		}
		v, err := construct.ExtrudeFace(s.m, s.cfg, topo.FaceID(f), h)
		if err != nil {
			return nil, err
		}
		return refSexp(topo.VolumeRef(v)), nil
	})

	// (revolve profile axis :negative true)
	define(env, "revolve", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(2, "a profile group and an axis edge"); err != nil {
			return nil, err
		}
		g, err := toKind(pa.positional[0], topo.KindGroup)
		if err != nil {
			return nil, err
		}
		e, err := toKind(pa.positional[1], topo.KindEdge)
		if err != nil {
			return nil, err
		}
		neg, err := pa.flag("negative")
		if err != nil {
			return nil, err
		}
		v, err := construct.MakeBodyOfRevolution(s.m, s.cfg, topo.GroupID(g), topo.EdgeID(e), neg)
		if err != nil {
			return nil, err
		}
		return refSexp(topo.VolumeRef(v)), nil
	})

	// (loft g :tensions (list 1 0.5) :nose-tension 1 :tail-tension 1
	//       :angle-break 30 :follow-path true :nose-join "symmetric")
	define(env, "loft", func(pa kwArgs) (zygo.Sexp, error) {
		if err := pa.need(1, "a loft group"); err != nil {
			return nil, err
		}
		gid, err := toKind(pa.positional[0], topo.KindGroup)
		if err != nil {
			return nil, err
		}
		g := s.m.Group(topo.GroupID(gid))
		if g == nil {
			return nil, fmt.Errorf("group %d does not exist", gid)
		}
		lp := topo.DefaultLoftParams()
		if g.Loft != nil {
			lp = *g.Loft
		}
		if lp.NoseTension, err = pa.float("nose-tension", lp.NoseTension); err != nil {
			return nil, err
		}
		if lp.TailTension, err = pa.float("tail-tension", lp.TailTension); err != nil {
			return nil, err
		}
		if lp.AngleBreak, err = pa.float("angle-break", lp.AngleBreak); err != nil {
			return nil, err
		}
		if _, ok := pa.kw["follow-path"]; ok {
			if lp.FollowPath, err = pa.flag("follow-path"); err != nil {
				return nil, err
			}
		}
		if v, ok := pa.kw["tensions"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, fmt.Errorf("tensions: %w", err)
			}
			lp.BayTensions = nil
			for _, item := range items {
				t, err := toFloat64(item)
				if err != nil {
					return nil, fmt.Errorf("tensions: %w", err)
				}
				lp.BayTensions = append(lp.BayTensions, t)
			}
		}
		for name, dst := range map[string]*topo.EndJoin{"nose-join": &lp.NoseJoin, "tail-join": &lp.TailJoin} {
			v, ok := pa.kw[name]
			if !ok {
				continue
			}
			j, err := toKeywordString(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			switch j {
			case "face":
				*dst = topo.JoinFace
			case "symmetric":
				*dst = topo.JoinSymmetric
			default:
				return nil, fmt.Errorf("%s: invalid join %q, expected face or symmetric", name, j)
			}
		}
		g.Loft = &lp
		v, err := construct.MakeLoftedVolume(s.m, s.cfg, topo.GroupID(gid))
		if err != nil {
			return nil, err
		}
		return refSexp(topo.VolumeRef(v)), nil
	})
}

func registerTransforms(env *zygo.Zlisp, s *session) {
	// refVec parses the (ref vec ...) prefix shared by the transforms.
	refVec := func(pa kwArgs, usage string) (topo.Ref, v3.Vec, error) {
		if err := pa.need(2, usage); err != nil {
			return topo.Ref{}, v3.Vec{}, err
		}
		r, err := toRef(pa.positional[0])
		if err != nil {
			return topo.Ref{}, v3.Vec{}, err
		}
		v, err := toVec(pa.positional[1])
		if err != nil {
			return topo.Ref{}, v3.Vec{}, err
		}
		return r, v, nil
	}

	// (move ref (vec 1 0 0))
	define(env, "move", func(pa kwArgs) (zygo.Sexp, error) {
		r, d, err := refVec(pa, "an object and an offset")
		if err != nil {
			return nil, err
		}
		return pa.positional[0], xform.Move(s.m, s.cfg, r, d)
	})

	// (copy ref (vec 1 0 0))
	define(env, "copy", func(pa kwArgs) (zygo.Sexp, error) {
		r, d, err := refVec(pa, "an object and an offset")
		if err != nil {
			return nil, err
		}
		c, err := xform.Copy(s.m, s.cfg, r, d)
		if err != nil {
			return nil, err
		}
		return refSexp(c), nil
	})

	// (move-face face (vec 0 0 5))
	define(env, "move-face", func(pa kwArgs) (zygo.Sexp, error) {
		r, d, err := refVec(pa, "a face and an offset")
		if err != nil {
			return nil, err
		}
		if r.Kind != topo.KindFace {
			return nil, fmt.Errorf("expected face, got %s", r)
		}
		return pa.positional[0], xform.MoveFace(s.m, s.cfg, topo.FaceID(r.ID), d)
	})

	// (rotate90 ref centre)
	define(env, "rotate90", func(pa kwArgs) (zygo.Sexp, error) {
		r, c, err := refVec(pa, "an object and a centre")
		if err != nil {
			return nil, err
		}
		return pa.positional[0], xform.Rotate90(s.m, s.cfg, r, c)
	})

	// (rotate ref centre 30 :axis (vec 0 1 0))
	define(env, "rotate", func(pa kwArgs) (zygo.Sexp, error) {
		r, c, err := refVec(pa, "an object, a centre and an angle")
		if err != nil {
			return nil, err
		}
		if err := pa.need(3, "an object, a centre and an angle"); err != nil {
			return nil, err
		}
		deg, err := toFloat64(pa.positional[2])
		if err != nil {
			return nil, fmt.Errorf("angle: %w", err)
		}
		if v, ok := pa.kw["axis"]; ok {
			axis, err := toVec(v)
			if err != nil {
				return nil, fmt.Errorf("axis: %w", err)
			}
			return pa.positional[0], xform.RotateAxis(s.m, s.cfg, r, c, axis, deg*math.Pi/180)
		}
		return pa.positional[0], xform.Rotate(s.m, s.cfg, r, c, deg)
	})

	// (reflect ref centre)
	define(env, "reflect", func(pa kwArgs) (zygo.Sexp, error) {
		r, c, err := refVec(pa, "an object and a centre")
		if err != nil {
			return nil, err
		}
		return pa.positional[0], xform.Reflect(s.m, s.cfg, r, c)
	})

	// (scale ref centre 2) or (scale ref centre (vec 1 1 -1))
	define(env, "scale", func(pa kwArgs) (zygo.Sexp, error) {
		r, c, err := refVec(pa, "an object, a centre and a factor")
		if err != nil {
			return nil, err
		}
		if err := pa.need(3, "an object, a centre and a factor"); err != nil {
			return nil, err
		}
		f, err := toVec(pa.positional[2])
		if err != nil {
			k, ferr := toFloat64(pa.positional[2])
			if ferr != nil {
				return nil, fmt.Errorf("factor: %w", err)
			}
			f = v3.Vec{X: k, Y: k, Z: k}
		}
		return pa.positional[0], xform.Scale(s.m, s.cfg, r, c, f)
	})
}
