package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/armature/pkg/kernel"
	"github.com/chazu/armature/pkg/kinematics"
	"github.com/chazu/armature/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms mechanism source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: upper-arm -> upper_arm
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

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpShape wraps a kernel solid built by box, cylinder and the shape
// combinators, so it can be consumed by link.
type sexpShape struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpShape) Type() *zygo.RegisteredType          { return nil }

// sexpLinkRef names a link so it can be passed where a link is expected.
type sexpLinkRef struct {
	name string
}

func (l *sexpLinkRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(link %q)", l.name)
}
func (l *sexpLinkRef) Type() *zygo.RegisteredType { return nil }

// sexpJointRef names a declared joint.
type sexpJointRef struct {
	name string
}

func (j *sexpJointRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(joint %q)", j.name)
}
func (j *sexpJointRef) Type() *zygo.RegisteredType { return nil }

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
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// num reads an optional numeric keyword into dst.
func (a kwArgs) num(key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// flag reads an optional boolean keyword into dst.
func (a kwArgs) flag(key string, dst *bool) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// vec reads an optional vec3 keyword. It returns nil when absent.
func (a kwArgs) vec(key string) (*r3.Vec, error) {
	v, ok := a.kw[key]
	if !ok {
		return nil, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &vec, nil
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

// toBool extracts a boolean. A trailing keyword with no value counts as true.
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

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_revolute) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toLinkName accepts a link name string or a value returned by link.
func toLinkName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpLinkRef:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected link name or reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toShape extracts a kernel solid from a sexpShape.
func toShape(s zygo.Sexp) (*sexpShape, error) {
	if sh, ok := s.(*sexpShape); ok {
		return sh, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder accumulates a Mechanism while builtins run.
type builder struct {
	m      *Mechanism
	kernel kernel.Kernel
	joints map[string]bool
	ground map[string]bool
}

func newBuilder(m *Mechanism, k kernel.Kernel) *builder {
	return &builder{
		m:      m,
		kernel: k,
		joints: make(map[string]bool),
		ground: make(map[string]bool),
	}
}

// requireLink fails unless a link with the given name was declared.
func (b *builder) requireLink(fn, role, name string) error {
	if b.m.Scene.Get(kinematics.NodeID(name)) == nil {
		return fmt.Errorf("%s: %s: no link named %q", fn, role, name)
	}
	return nil
}

// registerBuiltins installs the mechanism DSL builtins into a zygomys
// environment. The builtins populate the builder's Mechanism during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 100 20 20)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("box requires exactly 3 dimensions, got %d", len(args))
		}
		var dims [3]float64
		for i := range dims {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("box: dimension %d must be positive, got %g", i+1, f)
			}
			dims[i] = f
		}
		return &sexpShape{
			solid: b.kernel.Box(dims[0], dims[1], dims[2]),
			desc:  fmt.Sprintf("(box %g %g %g)", dims[0], dims[1], dims[2]),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :length 50 :diameter 20 :segments 32)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var length, diameter float64
		segments := 32.0
		for _, err := range []error{
			pa.num("length", &length),
			pa.num("diameter", &diameter),
			pa.num("segments", &segments),
		} {
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
			}
		}
		if length <= 0 || diameter <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: length and diameter must be positive")
		}
		return &sexpShape{
			solid: b.kernel.Cylinder(length, diameter/2, int(segments)),
			desc:  fmt.Sprintf("(cylinder :length %g :diameter %g)", length, diameter),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (union (box ...) (cylinder ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("union requires at least 2 shapes, got %d", len(args))
		}
		first, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("union: shape 1: %w", err)
		}
		solid := first.solid
		for i, arg := range args[1:] {
			sh, err := toShape(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("union: shape %d: %w", i+2, err)
			}
			solid = b.kernel.Union(solid, sh.solid)
		}
		return &sexpShape{solid: solid, desc: fmt.Sprintf("(union %d shapes)", len(args))}, nil
	})

	// -----------------------------------------------------------------------
	// (translate (box ...) (vec3 0 0 10))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a shape and a vec3")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		v, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpShape{
			solid: b.kernel.Translate(sh.solid, v.X, v.Y, v.Z),
			desc:  fmt.Sprintf("(translate %s)", sh.desc),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (rotate (box ...) :axis (vec3 1 0 0) :angle 1.5708)
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a shape")
		}
		sh, err := toShape(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		axis, err := pa.vec("axis")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		if axis == nil {
			axis = &r3.Vec{Z: 1}
		}
		if r3.Norm(*axis) == 0 {
			return zygo.SexpNull, fmt.Errorf("rotate: axis must be non-zero")
		}
		var angle float64
		if err := pa.num("angle", &angle); err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		return &sexpShape{
			solid: b.kernel.RotateAxis(sh.solid, [3]float64{axis.X, axis.Y, axis.Z}, angle),
			desc:  fmt.Sprintf("(rotate %s)", sh.desc),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (link "upper-arm" :parent "base" :at (vec3 0 0 50) :shape (box ...)
	//       :body true :mass 2.5)
	// -----------------------------------------------------------------------
	env.AddFunction("link", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("link requires a name argument")
		}
		linkName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("link: name: %w", err)
		}

		n := scene.NewNode(kinematics.NodeID(linkName), linkName)
		var parent string
		if v, ok := pa.kw["parent"]; ok {
			if parent, err = toLinkName(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("link %q: parent: %w", linkName, err)
			}
			if err := b.requireLink("link "+strconv.Quote(linkName), "parent", parent); err != nil {
				return zygo.SexpNull, err
			}
		}
		at, err := pa.vec("at")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("link %q: %w", linkName, err)
		}
		if at != nil {
			n.Local.Position = *at
		}
		if v, ok := pa.kw["shape"]; ok {
			sh, err := toShape(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("link %q: shape: %w", linkName, err)
			}
			n.Solid = sh.solid
		}

		var hasBody bool
		mass := 1.0
		if err := pa.flag("body", &hasBody); err != nil {
			return zygo.SexpNull, fmt.Errorf("link %q: %w", linkName, err)
		}
		if err := pa.num("mass", &mass); err != nil {
			return zygo.SexpNull, fmt.Errorf("link %q: %w", linkName, err)
		}
		if hasBody {
			n.Body = &scene.RigidBody{Mass: mass}
		}

		if err := b.m.Scene.AddNode(n, kinematics.NodeID(parent)); err != nil {
			return zygo.SexpNull, fmt.Errorf("link %q: %w", linkName, err)
		}
		return &sexpLinkRef{name: linkName}, nil
	})

	// -----------------------------------------------------------------------
	// (joint "shoulder" :type :revolute :parent "base" :child "upper-arm"
	//        :axis (vec3 0 0 1) :origin (vec3 0 0 50)
	//        :lower -1.57 :upper 1.57 :velocity 2 :effort 40 :value 0
	//        :show-axis true :show-limits false)
	// -----------------------------------------------------------------------
	env.AddFunction("joint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("joint requires a name argument")
		}
		jointName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("joint: name: %w", err)
		}
		fn := "joint " + strconv.Quote(jointName)
		if b.joints[jointName] {
			return zygo.SexpNull, fmt.Errorf("%s: already declared", fn)
		}

		cfg := kinematics.JointConfig{
			ID:   kinematics.JointID(jointName),
			Name: jointName,
			Type: kinematics.JointRevolute,
		}
		if v, ok := pa.kw["type"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: type: %w", fn, err)
			}
			if cfg.Type, err = kinematics.ParseJointType(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
		}

		for _, role := range []string{"parent", "child"} {
			v, ok := pa.kw[role]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: :%s is required", fn, role)
			}
			link, err := toLinkName(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fn, role, err)
			}
			if err := b.requireLink(fn, role, link); err != nil {
				return zygo.SexpNull, err
			}
			if role == "parent" {
				cfg.Parent = kinematics.NodeID(link)
			} else {
				cfg.Child = kinematics.NodeID(link)
			}
		}
		if cfg.Parent == cfg.Child {
			return zygo.SexpNull, fmt.Errorf("%s: parent and child are both %q", fn, cfg.Parent)
		}

		if cfg.Axis, err = pa.vec("axis"); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		if cfg.Origin, err = pa.vec("origin"); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}

		_, hasLower := pa.kw["lower"]
		_, hasUpper := pa.kw["upper"]
		if hasLower || hasUpper {
			lim := kinematics.DefaultLimits
			for _, err := range []error{
				pa.num("lower", &lim.Lower),
				pa.num("upper", &lim.Upper),
				pa.num("velocity", &lim.MaxVelocity),
				pa.num("effort", &lim.MaxEffort),
			} {
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
				}
			}
			if !lim.Valid() {
				return zygo.SexpNull, fmt.Errorf("%s: lower %g and upper %g do not form a range", fn, lim.Lower, lim.Upper)
			}
			cfg.Limits = &lim
		}

		for _, err := range []error{
			pa.num("value", &cfg.Value),
			pa.flag("show-axis", &cfg.ShowAxis),
			pa.flag("show-limits", &cfg.ShowLimits),
		} {
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
		}
		if cfg.Limits != nil && !cfg.Limits.Contains(cfg.Value) {
			b.m.Warnings = append(b.m.Warnings, EvalWarning{
				Message: fmt.Sprintf("joint %q: value %g outside [%g, %g], clamped", jointName, cfg.Value, cfg.Limits.Lower, cfg.Limits.Upper),
				Link:    string(cfg.Child),
			})
		}

		b.joints[jointName] = true
		b.m.Joints = append(b.m.Joints, cfg)
		return &sexpJointRef{name: jointName}, nil
	})

	// -----------------------------------------------------------------------
	// (ground "base")
	// -----------------------------------------------------------------------
	env.AddFunction("ground", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("ground requires exactly one link")
		}
		link, err := toLinkName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ground: %w", err)
		}
		if err := b.requireLink("ground", "link", link); err != nil {
			return zygo.SexpNull, err
		}
		if !b.ground[link] {
			b.ground[link] = true
			b.m.Grounded = append(b.m.Grounded, kinematics.NodeID(link))
		}
		return &sexpLinkRef{name: link}, nil
	})

	// -----------------------------------------------------------------------
	// (chain "arm" :root "base" :type :serial)
	// -----------------------------------------------------------------------
	env.AddFunction("chain", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("chain requires a name argument")
		}
		chainName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chain: name: %w", err)
		}
		fn := "chain " + strconv.Quote(chainName)

		v, ok := pa.kw["root"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: :root is required", fn)
		}
		root, err := toLinkName(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: root: %w", fn, err)
		}
		if err := b.requireLink(fn, "root", root); err != nil {
			return zygo.SexpNull, err
		}

		cs := ChainSpec{Name: chainName, Root: kinematics.NodeID(root), Type: kinematics.ChainSerial}
		if v, ok := pa.kw["type"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: type: %w", fn, err)
			}
			if cs.Type, err = kinematics.ParseChainType(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
		}
		b.m.Chains = append(b.m.Chains, cs)
		return zygo.SexpNull, nil
	})
}
