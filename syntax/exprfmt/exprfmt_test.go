// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package exprfmt

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/syntax"
	"github.com/grailbio/dectree/test/testutil"
	"github.com/grailbio/testutil/assert"
)

var formatTests = []struct {
	src, want string
}{
	// Unary
	{"-(-+(-x))", "--+-x"},
	{"-((a-b)-c)", "-(a - b - c)"},
	{"not x", "not x"},
	{"not -x", "not -x"},
	{"not not x", "not not x"},
	{"-(a*b)", "-(a * b)"},
	{"-x**2", "-x ** 2"},
	{"(-x)**2", "(-x) ** 2"},

	// Binary
	{"a-b-c-d", "a - b - c - d"},
	{"(a-b)-c-d", "a - b - c - d"},
	{"(a-b-c)-d", "a - b - c - d"},
	{"a-(b-c)-d", "a - (b - c) - d"},
	{"a-(b-c-d)", "a - (b - c - d)"},
	{"a-b-(c-d)", "a - b - (c - d)"},
	{"a-(b-(c-d))", "a - (b - (c - d))"},
	{"(a-(b-c))-d", "a - (b - c) - d"},
	{"a - (b - c)", "a - (b - c)"},
	{"a----b", "a - ---b"},
	{"---a-b", "---a - b"},
	{"a*b+c/d", "a * b + c / d"},
	{"a+b*c-d", "a + b * c - d"},
	{"(a+b)*(c-d)", "(a + b) * (c - d)"},
	{"a % (b * c)", "a % (b * c)"},
	{"a ** b ** c", "a ** b ** c"},
	{"(a ** b) ** c", "(a ** b) ** c"},
	{"2 ** (-x)", "2 ** -x"},
	{"2 ** -x ** 2", "2 ** -x ** 2"},
	{"(2 ** -x) * y", "2 ** -x * y"},
	{"2 ** -(x * y)", "2 ** -(x * y)"},

	// Boolean
	{"a and b and c", "a and b and c"},
	{"(a and b) and c", "a and b and c"},
	{"a and (b and c)", "a and (b and c)"},
	{"a and b or c and d", "a and b or c and d"},
	{"a or b and c or d", "a or b and c or d"},
	{"(a or b) and (c or d)", "(a or b) and (c or d)"},
	{"(a or b) and not (c or not d)", "(a or b) and not (c or not d)"},

	// Comparisons
	{"a < 2", "a < 2"},
	{"a >= 2 == b", "a >= 2 == b"},
	{"0 < x <= 1", "0 < x <= 1"},
	{"a is not Null", "a is not Null"},
	{"a in data", "a in data"},
	{"a not in data", "a not in data"},
	{"(a < b) < c", "(a < b) < c"},
	{"(a + 1) * 2 > b", "(a + 1) * 2 > b"},
	{"not a == b", "not a == b"},

	// Mixed
	{"a+sin(x + 2.8)", "a + sin(x + 2.8)"},
	{"a+max(1, sin(x+2.8), x**0.5)", "a + max(1, sin(x + 2.8), x ** 0.5)"},
	{"(a + b).c", "(a + b).c"},
	{"x[i + 1]", "x[i + 1]"},
	{"ramp(x1 = 0, x2 = -1.5)", "ramp(x1=0, x2=-1.5)"},
	{"1.0 - (x)", "1.0 - x"},
}

func TestFormat(t *testing.T) {
	for _, c := range formatTests {
		got, err := Format(c.src)
		if err != nil {
			t.Errorf("%s: %v", c.src, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %q, want %q", c.src, got, c.want)
		}
	}
}

// TestRoundTrip checks that reparsing printed expressions yields the
// same tree. Left-nested boolean operations are excluded: they print
// flattened, which is equivalent but not identical.
func TestRoundTrip(t *testing.T) {
	for _, c := range formatTests {
		if c.src == "(a and b) and c" {
			continue
		}
		e, err := syntax.ParseExpr(c.src)
		assert.NoError(t, err, c.src)
		s, err := Print(e)
		assert.NoError(t, err, c.src)
		f, err := syntax.ParseExpr(s)
		assert.NoError(t, err, s)
		if !e.Equal(f) {
			t.Errorf("%s: printed %q reparses to %v, want %v", c.src, s, f, e)
		}
	}
}

func TestRoundTripFuzz(t *testing.T) {
	fuzz := testutil.NewFuzz(rand.New(rand.NewSource(1)))
	for i := 0; i < 500; i++ {
		e := fuzz.Expr(5)
		s1, err := Print(e)
		assert.NoError(t, err)
		e1, err := syntax.ParseExpr(s1)
		assert.NoError(t, err, "%s", s1)
		s2, err := Print(e1)
		assert.NoError(t, err)
		if s1 != s2 {
			t.Fatalf("printing is not idempotent: %q, then %q", s1, s2)
		}
		e2, err := syntax.ParseExpr(s2)
		assert.NoError(t, err, "%s", s2)
		if !e1.Equal(e2) {
			t.Fatalf("%s: reparse gives a different tree", s2)
		}
	}
}

func TestHooks(t *testing.T) {
	p := &Printer{
		Name: func(ident string) string {
			return "inputs." + ident + "[i]"
		},
		Callee: func(ident string) string {
			return "math." + ident
		},
		Attribute: func(value, attr string) string {
			return value + "." + strings.ToUpper(attr[:1]) + attr[1:]
		},
		Keyword: func(name, value string) string {
			return value
		},
		Power: func(x, y string) string {
			return "math.Pow(" + x + ", " + y + ")"
		},
	}
	for _, c := range []struct {
		src, want string
	}{
		{"sqrt(a * a + b ** 2)", "math.sqrt(inputs.a[i] * inputs.a[i] + math.Pow(inputs.b[i], 2))"},
		{"(a + b) ** (c - 1)", "math.Pow(inputs.a[i] + inputs.b[i], inputs.c[i] - 1)"},
		{"params.glint_x1", "inputs.params[i].Glint_x1"},
		{"f(x, x1=p)", "math.f(inputs.x[i], inputs.p[i])"},
	} {
		e, err := syntax.ParseExpr(c.src)
		assert.NoError(t, err)
		got, err := p.Print(e)
		assert.NoError(t, err)
		assert.EQ(t, got, c.want)
	}
}

func TestSpaceSigns(t *testing.T) {
	p := &Printer{SpaceSigns: true}
	for _, c := range []struct {
		src, want string
	}{
		{"-(-a)", "- -a"},
		{"-(-+(-x))", "- - + -x"},
		{"not -x", "not -x"},
		{"a - -b", "a - -b"},
		{"-x ** 2", "-x ** 2"},
	} {
		e, err := syntax.ParseExpr(c.src)
		assert.NoError(t, err)
		got, err := p.Print(e)
		assert.NoError(t, err)
		assert.EQ(t, got, c.want)
		f, err := syntax.ParseExpr(got)
		assert.NoError(t, err, got)
		assert.True(t, e.Equal(f), "%s: %q reparses to %v", c.src, got, f)
	}
	// Without SpaceSigns, signs are rendered adjacent.
	s, err := Format("-(-a)")
	assert.NoError(t, err)
	assert.EQ(t, s, "--a")
}

func TestUnrecognized(t *testing.T) {
	for _, e := range []*syntax.Expr{
		{Kind: syntax.ExprError},
		syntax.Binop(syntax.Name("a"), "@", syntax.Name("b")),
		syntax.Unop("~", syntax.Name("a")),
		syntax.Boolop("xor", syntax.Name("a"), syntax.Name("b")),
		syntax.Compare(syntax.Name("a"), "<>", syntax.Name("b")),
		syntax.Call(syntax.Name("f"), &syntax.Expr{Kind: syntax.ExprError}),
	} {
		_, err := Print(e)
		if err == nil {
			t.Errorf("%v: expected error", e)
			continue
		}
		if !errors.Is(errors.NotSupported, err) {
			t.Errorf("%v: got %v, want not supported", e, err)
		}
	}
	_, err := Print(&syntax.Expr{Kind: syntax.ExprError})
	assert.HasSubstr(t, err.Error(), "unrecognized expression node: error")
}
