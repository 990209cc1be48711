// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package membership

import (
	"math"
	"strings"
	"testing"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEval(t *testing.T) {
	for _, c := range []struct {
		def  *PropertyDef
		x    float64
		want float64
	}{
		{True(), -100, 1},
		{False(), 100, 0},
		{Const(0.25), 7, 0.25},

		{Eq(2, 0), 2, 1},
		{Eq(2, 0), 2.1, 0},
		{Eq(2, 1), 1, 0},
		{Eq(2, 1), 1.5, 0.5},
		{Eq(2, 1), 2, 1},
		{Eq(2, 1), 2.75, 0.25},
		{Eq(2, 1), 3.5, 0},
		{Ne(2, 0), 2, 0},
		{Ne(2, 0), 3, 1},
		{Ne(2, 1), 1.5, 0.5},
		{Ne(2, 1), 2.75, 0.75},

		{Gt(0, 0), 0, 0},
		{Ge(0, 0), 0, 1},
		{Lt(0, 0), 0, 0},
		{Le(0, 0), 0, 1},
		{Gt(0, 1), -1, 0},
		{Gt(0, 1), 0, 0.5},
		{Gt(0, 1), 0.5, 0.75},
		{Gt(0, 1), 2, 1},
		{Ge(0, 1), 0.5, 0.75},
		{Lt(0, 1), 0.5, 0.25},
		{Le(0, 1), 0.5, 0.25},
		{Lt(0, 1), -5, 1},

		{Ramp(0, 50), -1, 0},
		{Ramp(0, 50), 25, 0.5},
		{Ramp(0, 50), 51, 1},
		{InvRamp(0, 50), 25, 0.5},
		{InvRamp(0, 50), 60, 0},
		{InvRamp(0, 50), -60, 1},

		{Triangular(0, 0.5, 1), 0.25, 0.5},
		{Triangular(0, 0.5, 1), 0.5, 1},
		{Triangular(0, 0.5, 1), 0.75, 0.5},
		{Triangular(0, 0.5, 1), 2, 0},
		{InvTriangular(0, 0.5, 1), 0.5, 0},
		{InvTriangular(0, 0.5, 1), 0.75, 0.5},
		{InvTriangular(0, 0.5, 1), -1, 1},

		{Trapezoid(0, 1, 2, 3), 0.5, 0.5},
		{Trapezoid(0, 1, 2, 3), 1.5, 1},
		{Trapezoid(0, 1, 2, 3), 2.5, 0.5},
		{Trapezoid(0, 1, 2, 3), 4, 0},
		{InvTrapezoid(0, 1, 2, 3), 1.5, 0},
		{InvTrapezoid(0, 1, 2, 3), 2.25, 0.25},
		{InvTrapezoid(0, 1, 2, 3), 4, 1},
	} {
		if got := c.def.Eval(c.x); !approx(got, c.want) {
			t.Errorf("%s at %v: got %v, want %v", c.def.Decl, c.x, got, c.want)
		}
	}
}

func TestTotal(t *testing.T) {
	defs := []*PropertyDef{
		Eq(0, 1), Ne(0, 1), Gt(0, 1), Lt(0, 1), Ramp(0, 1), InvRamp(0, 1),
		Triangular(0, 0.5, 1), InvTriangular(0, 0.5, 1),
		Trapezoid(0, 0.25, 0.75, 1), InvTrapezoid(0, 0.25, 0.75, 1),
	}
	for _, d := range defs {
		for x := -2.0; x <= 2.0; x += 0.125 {
			v := d.Eval(x)
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Errorf("%s at %v: value %v out of range", d.Decl, x, v)
			}
		}
	}
}

func TestParse(t *testing.T) {
	for _, c := range []struct {
		decl   string
		kind   Kind
		values []float64
	}{
		{"true()", KindTrue, []float64{}},
		{"false()", KindFalse, []float64{}},
		{"const(0.5)", KindConst, []float64{0.5}},
		{"ramp()", KindRamp, []float64{0, 1}},
		{"ramp(x1=0, x2=50)", KindRamp, []float64{0, 50}},
		{"inv_ramp(10)", KindInvRamp, []float64{10, 1}},
		{"triangular(x2=-1)", KindTriangular, []float64{0, -1, 1}},
		{"trapezoid()", KindTrapezoid, []float64{0, 1.0 / 3.0, 2.0 / 3.0, 1}},
		{"inv_trapezoid(1, 2, 3, 4)", KindInvTrapezoid, []float64{1, 2, 3, 4}},
		{"eq(3)", KindEq, []float64{3, 0}},
		{"gt(x0=1/2, dx=0.1)", KindGt, []float64{0.5, 0.1}},
		{"  le(-2, 2 ** -1)  ", KindLe, []float64{-2, 0.5}},
	} {
		d, err := Parse(c.decl)
		if err != nil {
			t.Errorf("%s: %v", c.decl, err)
			continue
		}
		expect.EQ(t, d.Kind, c.kind, c.decl)
		expect.EQ(t, d.Values(), c.values, c.decl)
		expect.EQ(t, d.Decl, strings.TrimSpace(c.decl))
	}
}

func TestParseError(t *testing.T) {
	for _, c := range []struct {
		decl string
		kind errors.Kind
		msg  string
	}{
		{"sigmoid(1)", errors.NotExist, `unknown membership function "sigmoid"`},
		{"ramp", errors.Syntax, "expected a membership function call"},
		{"ramp(1, 2, 3)", errors.Syntax, "ramp takes at most 2 arguments, got 3"},
		{"ramp(x3=1)", errors.Syntax, `ramp has no parameter "x3"`},
		{"ramp(1, x1=2)", errors.Syntax, `parameter "x1" given more than once`},
		{"eq(dx=1)", errors.Syntax, `missing required parameter "x0"`},
		{"const(t=a)", errors.Syntax, "is not a number"},
		{"ramp(x1=(", errors.Syntax, "parse"},
	} {
		_, err := Parse(c.decl)
		if err == nil {
			t.Errorf("%s: expected error", c.decl)
			continue
		}
		expect.True(t, errors.Is(c.kind, err), "%s: %v", c.decl, err)
		expect.HasSubstr(t, err.Error(), c.msg)
	}
}

func TestBody(t *testing.T) {
	d := MustParse("ramp(x1=0, x2=50)")
	assert.EQ(t, d.Body(false), `if x <= 0.0 {
	return 0.0
}
if x <= 50.0 {
	return (x - 0.0) / (50.0 - 0.0)
}
return 1.0`)
	assert.EQ(t, d.Body(true), `if x <= x1 {
	return 0.0
}
if x <= x2 {
	return (x - x1) / (x2 - x1)
}
return 1.0`)
	assert.EQ(t, Gt(0.5, 0).Body(false), "if x > 0.5 {\n\treturn 1.0\n}\nreturn 0.0")
	assert.EQ(t, Le(-1, 0).Body(false), "if x <= (-1.0) {\n\treturn 1.0\n}\nreturn 0.0")
	assert.True(t, strings.HasPrefix(Eq(1, 0.5).Body(false), "x1 := 1.0 - 0.5\n"))
	assert.EQ(t, True().Body(true), "return 1.0")
	assert.EQ(t, Const(0.3).Body(true), "return t")
}

func TestCanonicalDecl(t *testing.T) {
	assert.EQ(t, Ramp(0, 1).Decl, "ramp(x1=0.0, x2=1.0)")
	assert.EQ(t, True().Decl, "true()")
	d := MustParse(Triangular(1, 2, 3).Decl)
	assert.EQ(t, d.Values(), []float64{1, 2, 3})
}
