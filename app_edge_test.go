package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := newTestApp(t)
	result := app.Load("")

	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil || result.Joints == nil || result.Chains == nil {
		t.Error("Meshes, Joints and Chains should be non-nil empty slices")
	}
	if result.Grounded == nil || result.Poses == nil {
		t.Error("Grounded and Poses should be non-nil empty slices")
	}
	if result.Errors == nil || result.Warnings == nil {
		t.Error("Errors and Warnings should be non-nil empty slices")
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("empty result serialized with null: %s", data)
	}
}

func TestE2EWhitespaceOnly(t *testing.T) {
	app := newTestApp(t)
	result := app.Load("   \n\t  \n")

	if len(result.Errors) != 0 || len(result.Meshes) != 0 {
		t.Errorf("whitespace source: %d errors, %d meshes", len(result.Errors), len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := newTestApp(t)

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(link \"test\""
	result := app.Load(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
}

// ---------------------------------------------------------------------------
// 3. Joints referencing links that do not exist.
// ---------------------------------------------------------------------------

func TestE2EUndefinedLinkReference(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "unknown child",
			source: `(link "a") (joint "j" :parent "a" :child "ghost")`,
			want:   "ghost",
		},
		{
			name:   "unknown parent link",
			source: `(link "a" :parent "ghost")`,
			want:   "ghost",
		},
		{
			name:   "ground unknown link",
			source: `(link "a") (ground "ghost")`,
			want:   "ghost",
		},
		{
			name:   "self joint",
			source: `(link "a") (joint "j" :parent "a" :child "a")`,
			want:   "j",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			result := app.Load(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected an error")
			}
			if !strings.Contains(result.Errors[0].Message, tt.want) {
				t.Errorf("error %q should mention %q", result.Errors[0].Message, tt.want)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 4. Degenerate shape dimensions.
// ---------------------------------------------------------------------------

func TestE2EZeroAndNegativeDimensions(t *testing.T) {
	sources := []string{
		`(link "a" :shape (box 0 10 10))`,
		`(link "a" :shape (box 0 0 0))`,
		`(link "a" :shape (box 10 -5 10))`,
		`(link "a" :shape (cylinder :length 0 :diameter 10))`,
	}
	for _, src := range sources {
		app := newTestApp(t)
		result := app.Load(src)
		if len(result.Errors) == 0 {
			t.Errorf("%s: expected a dimension error", src)
		}
	}
}

func TestE2ELargeDimensions(t *testing.T) {
	app := newTestApp(t)
	result := mustLoad(t, app, `(link "slab" :shape (box 10000 5000 20))`)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if len(result.Meshes[0].Vertices) == 0 {
		t.Error("large box produced empty geometry")
	}
}

func TestE2EFloatingPointDimensions(t *testing.T) {
	app := newTestApp(t)
	result := mustLoad(t, app, `(link "a" :shape (box 12.5 7.25 3.125))`)
	if len(result.Meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid loads: the editor reloads on every keystroke pause.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 10; i++ {
		result := mustLoad(t, app, sliderSource)
		if len(result.Joints) != 1 {
			t.Fatalf("iteration %d: expected 1 joint, got %d", i, len(result.Joints))
		}
	}
}

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			mustLoad(t, app, sliderSource)
			continue
		}
		if result := app.Load(`(link "broken"`); len(result.Errors) == 0 {
			t.Fatalf("iteration %d: expected error", i)
		}
		// The previous mechanism stays live.
		if res := app.SetJoint("slide", 5); res.Error != "" {
			t.Fatalf("iteration %d: SetJoint after failed load: %s", i, res.Error)
		}
	}
}

// A reload replaces joint state rather than merging it.
func TestE2EReloadReplacesJoints(t *testing.T) {
	app := newTestApp(t)
	mustLoad(t, app, sliderSource)
	app.SetJoint("slide", 50)

	mustLoad(t, app, `
(link "a")
(link "b" :parent "a")
(joint "hinge" :parent "a" :child "b")
`)
	values := app.JointValues()
	if _, ok := values["slide"]; ok {
		t.Error("old joint survived reload")
	}
	if v, ok := values["hinge"]; !ok || v != 0 {
		t.Errorf("hinge = %v, %v; want 0, true", v, ok)
	}
}

// ---------------------------------------------------------------------------
// 6. Comments and arithmetic.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := newTestApp(t)
	result := app.Load(";; just a comment\n; another one\n")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for comments-only source, got %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2ENestedArithmeticDef(t *testing.T) {
	app := newTestApp(t)
	result := mustLoad(t, app, `
(def reach 200)
(def half (/ reach 2))
(link "base")
(link "tip" :parent "base")
(joint "extend" :type :prismatic :parent "base" :child "tip"
       :axis (vec3 0 0 1) :lower 0 :upper (+ half 50) :value (* half 2))
`)
	j := result.Joints[0]
	if j.Limits.Upper != 150 {
		t.Errorf("upper = %g, want 150", j.Limits.Upper)
	}
	// 200 is outside [0, 150] and clamps with a warning.
	if j.Value != 150 {
		t.Errorf("value = %g, want 150", j.Value)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected an out-of-range warning")
	}
}

// ---------------------------------------------------------------------------
// 7. Shape composition.
// ---------------------------------------------------------------------------

func TestE2EComposedShapes(t *testing.T) {
	app := newTestApp(t)
	result := mustLoad(t, app, `
(link "bracket" :shape
  (union (box 40 40 10)
         (translate (rotate (cylinder :length 30 :diameter 10) :axis (vec3 1 0 0) :angle 1.5708)
                    (vec3 0 0 20))))
`)
	if len(result.Meshes) != 1 || len(result.Meshes[0].Indices) == 0 {
		t.Fatalf("expected one non-empty mesh, got %+v", result.Meshes)
	}
}

func TestE2ELinksWithoutShapes(t *testing.T) {
	app := newTestApp(t)
	result := mustLoad(t, app, `
(link "frame")
(link "tool" :parent "frame" :shape (box 10 10 10))
`)
	if len(result.Meshes) != 1 || result.Meshes[0].LinkName != "tool" {
		t.Errorf("expected only the tool mesh, got %d meshes", len(result.Meshes))
	}
	if len(result.Poses) != 2 {
		t.Errorf("shapeless links still have poses, got %d", len(result.Poses))
	}
}

// ---------------------------------------------------------------------------
// 8. Color palette wraps around when there are more links than colors.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := newTestApp(t)

	var b strings.Builder
	n := len(colorPalette) + 2
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "(link \"l%d\" :shape (translate (box 10 10 10) (vec3 %d 0 0)))\n", i, i*20)
	}
	result := mustLoad(t, app, b.String())

	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	for i, m := range result.Meshes {
		want := colorPalette[i%len(colorPalette)]
		if m.Color != want {
			t.Errorf("mesh %d color = %s, want %s", i, m.Color, want)
		}
	}
}
