// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compile_test

import (
	"bytes"
	goerrors "errors"
	golog "log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/compile"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/log"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/rules"
	"github.com/grailbio/dectree/test/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func accum(slot int, expr, source string, depth int) compile.Instr {
	return compile.Instr{
		Kind:   compile.InstrAccum,
		Slot:   slot,
		Target: "t" + string(rune('0'+slot)),
		Expr:   expr,
		Source: source,
		Depth:  depth,
	}
}

func output(name, target, expr, source string, depth int) compile.Instr {
	return compile.Instr{
		Kind:   compile.InstrOutput,
		Name:   name,
		Target: target,
		Expr:   expr,
		Source: source,
		Depth:  depth,
	}
}

func TestCompileChain(t *testing.T) {
	p, err := compile.Compile(testutil.Chain())
	assert.NoError(t, err)
	want := []compile.Instr{
		accum(0, "1.0", "", 0),
		accum(1, "min(t0, _Ratio_HIGH(inputs.a))", "if a is HIGH:", 0),
		output("out", "outputs.out", "t1", "out = TRUE", 1),
		accum(1, "min(t0, 1.0 - (t1))", "elif b is HIGH:", 0),
		accum(2, "min(t1, _Ratio_HIGH(inputs.b))", "", 0),
		output("out", "outputs.out", "max(outputs.out, 1.0 - (t2))", "out = FALSE", 1),
		accum(2, "min(t1, 1.0 - (t2))", "else:", 0),
		output("out", "outputs.out", "max(outputs.out, t2)", "out = TRUE", 1),
	}
	if diff := cmp.Diff(want, p.Instrs); diff != "" {
		t.Errorf("instructions differ (-want +got):\n%s", diff)
	}
	expect.EQ(t, p.Slots, 3)
	expect.EQ(t, p.Inputs, []compile.Field{{"a", "Ratio"}, {"b", "Ratio"}})
	expect.EQ(t, p.Outputs, []compile.Field{{"out", "Bool"}})
	expect.EQ(t, len(p.Funcs), 4)
	expect.EQ(t, len(p.Params), 0)
	expect.EQ(t, p.Digest, testutil.Chain().Digest())
}

func TestCompileNested(t *testing.T) {
	def := testutil.Chain()
	def.Rules = testutil.Rules(`if a is HIGH:
    if b is LOW:
        out = TRUE
    elif b is HIGH:
        out = FALSE
elif a is LOW:
    out = FALSE
`)
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	want := []string{
		"t0 = 1.0",
		"t1 = min(t0, _Ratio_HIGH(inputs.a))",
		"t2 = min(t1, _Ratio_LOW(inputs.b))",
		"outputs.out = t2",
		"t2 = min(t1, 1.0 - (t2))",
		"t3 = min(t2, _Ratio_HIGH(inputs.b))",
		"outputs.out = max(outputs.out, 1.0 - (t3))",
		"t1 = min(t0, 1.0 - (t1))",
		"t2 = min(t1, _Ratio_LOW(inputs.a))",
		"outputs.out = max(outputs.out, 1.0 - (t2))",
	}
	if diff := cmp.Diff(want, instrStrings(p)); diff != "" {
		t.Errorf("instructions differ (-want +got):\n%s", diff)
	}
	expect.EQ(t, p.Slots, 4)
}

func instrStrings(p *compile.Program) []string {
	s := make([]string, len(p.Instrs))
	for i, in := range p.Instrs {
		s[i] = in.String()
	}
	return s
}

func TestCompileMultiRule(t *testing.T) {
	def := testutil.Chain()
	def.Rules = testutil.Rules(
		"if a is HIGH:\n    out = TRUE\n",
		"if b is HIGH:\n    out = FALSE\n",
		"if a is LOW:\n    out = TRUE\n",
	)
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	want := []string{
		"t0 = 1.0",
		"t1 = min(t0, _Ratio_HIGH(inputs.a))",
		"outputs.out = t1",
		"t1 = min(t0, _Ratio_HIGH(inputs.b))",
		"outputs.out = max(outputs.out, 1.0 - (t1))",
		"t1 = min(t0, _Ratio_LOW(inputs.a))",
		"outputs.out = max(outputs.out, t1)",
	}
	if diff := cmp.Diff(want, instrStrings(p)); diff != "" {
		t.Errorf("instructions differ (-want +got):\n%s", diff)
	}
}

func TestCompileTopLevelAssign(t *testing.T) {
	// An "if" opens its list, so an unconditional assignment that
	// precedes a branch is written as a rule of its own.
	_, err := rules.Parse("out = FALSE\nif a is HIGH:\n    out = TRUE\n")
	expect.True(t, errors.Is(errors.Syntax, err), "wrong error: %v", err)

	def := testutil.Chain()
	def.Rules = testutil.Rules("out = FALSE\n", "if a is HIGH:\n    out = TRUE\n")
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	expect.EQ(t, instrStrings(p), []string{
		"t0 = 1.0",
		"outputs.out = 1.0 - (t0)",
		"t1 = min(t0, _Ratio_HIGH(inputs.a))",
		"outputs.out = max(outputs.out, t1)",
	})
}

func TestCompileDerived(t *testing.T) {
	p, err := compile.Compile(testutil.Sediment())
	assert.NoError(t, err)
	expect.EQ(t, p.Instrs[1], compile.Instr{
		Kind:   compile.InstrDerived,
		Name:   "ndwi",
		Target: "outputs.ndwi",
		Expr:   "(inputs.b2 - inputs.b1) / (inputs.b2 + inputs.b1)",
		Source: "ndwi = (b2 - b1) / (b2 + b1): Index",
	})
	expect.EQ(t, p.Instrs[2].String(), "t1 = min(t0, _Index_WATER(outputs.ndwi))")
	// The derived output is declared once.
	expect.EQ(t, p.Outputs, []compile.Field{{"sediment", "Bool"}, {"water", "Bool"}, {"ndwi", "Index"}})
	for _, in := range p.Instrs {
		if in.Kind == compile.InstrDerived && in.Name != "ndwi" {
			t.Errorf("unexpected derived instruction %v", in)
		}
	}
}

func TestCompileDerivedCalls(t *testing.T) {
	def := testutil.Sediment()
	def.Derived = []dectree.DerivedDef{
		{Name: "ndwi", Type: "Index", Expr: "sqrt(b1 ** 2 + b2 ** 2) * math.pi - max(b1, -b2)"},
		{Name: "ratio", Type: "float", Expr: "ndwi / 2"},
	}
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	expect.EQ(t, p.Instrs[1].Expr,
		"math.sqrt(inputs.b1 ** 2 + inputs.b2 ** 2) * math.pi - math.max(inputs.b1, -inputs.b2)")
	expect.EQ(t, p.Instrs[2].String(), "outputs.ratio = outputs.ndwi / 2")
	expect.EQ(t, p.Outputs[len(p.Outputs)-1], compile.Field{"ratio", "float"})
}

func TestCompileVectorized(t *testing.T) {
	def := testutil.Sediment()
	def.Options.Vectorize = dectree.VectorizeFunc
	def.Options.Parameterize = true
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	expect.EQ(t, p.Instrs[1].String(),
		"outputs.ndwi[i] = (inputs.b2[i] - inputs.b1[i]) / (inputs.b2[i] + inputs.b1[i])")
	expect.EQ(t, p.Instrs[2].String(),
		"t1 = min(t0, _Index_WATER(outputs.ndwi[i], x0=params.Index_WATER_x0, dx=params.Index_WATER_dx))")
	expect.EQ(t, p.Instrs[4].String(), "outputs.water[i] = t2")

	// Whole-array vectorization addresses variables without an index.
	def.Options.Vectorize = dectree.VectorizeProp
	p, err = compile.Compile(def)
	assert.NoError(t, err)
	expect.EQ(t, p.Instrs[4].String(), "outputs.water = t2")
}

func TestCompileParams(t *testing.T) {
	def := testutil.Chain()
	def.Options.Parameterize = true
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	want := []compile.Param{
		{Name: "Ratio_HIGH_x1", Value: 0, Type: "Ratio", Prop: "HIGH", Param: "x1"},
		{Name: "Ratio_HIGH_x2", Value: 1, Type: "Ratio", Prop: "HIGH", Param: "x2"},
		{Name: "Ratio_LOW_x1", Value: 0, Type: "Ratio", Prop: "LOW", Param: "x1"},
		{Name: "Ratio_LOW_x2", Value: 1, Type: "Ratio", Prop: "LOW", Param: "x2"},
	}
	if diff := cmp.Diff(want, p.Params); diff != "" {
		t.Errorf("params differ (-want +got):\n%s", diff)
	}
	expect.EQ(t, p.Instrs[1].Expr, "min(t0, _Ratio_HIGH(inputs.a, x1=params.Ratio_HIGH_x1, x2=params.Ratio_HIGH_x2))")
}

func TestCompileAlgebra(t *testing.T) {
	def := testutil.Chain()
	assert.NoError(t, def.Options.Set(dectree.KeyAlgebra, "product"))
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	expect.EQ(t, p.Instrs[1].String(), "t1 = (t0) * (_Ratio_HIGH(inputs.a))")
	expect.EQ(t, p.Instrs[5].String(),
		"outputs.out = (outputs.out) + (1.0 - (t2)) - (outputs.out) * (1.0 - (t2))")
}

func TestCompileError(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(def *dectree.Definition)
		kind   errors.Kind
		msg    string
	}{
		{
			"assign ramp",
			func(def *dectree.Definition) {
				def.Outputs = testutil.Vars("out:Ratio")
				def.Rules = testutil.Rules("if a is HIGH:\n    out = HIGH\n")
			},
			errors.Contract, "only properties whose value is true() or false() may be assigned",
		},
		{
			"assign const",
			func(def *dectree.Definition) {
				def.Types = append(def.Types, testutil.Type("Level", "ONE", "const(1.0)"))
				def.Outputs = testutil.Vars("out:Level")
				def.Rules = testutil.Rules("out = ONE")
			},
			errors.Contract, "Level.ONE = const(1.0)",
		},
		{
			"undefined output",
			func(def *dectree.Definition) { def.Rules = testutil.Rules("if a is HIGH:\n    res = TRUE\n") },
			errors.NotExist, `output "res" is undefined`,
		},
		{
			"assign input",
			func(def *dectree.Definition) { def.Rules = testutil.Rules("if a is HIGH:\n    b = HIGH\n") },
			errors.Invalid, `cannot assign input "b"`,
		},
		{
			"undefined property",
			func(def *dectree.Definition) { def.Rules = testutil.Rules("if a is HIGH:\n    out = MAYBE\n") },
			errors.NotExist, `"MAYBE" is not a property of type "Bool" of variable "out"`,
		},
		{
			"undefined variable",
			func(def *dectree.Definition) { def.Rules = testutil.Rules("if c is HIGH:\n    out = TRUE\n") },
			errors.NotExist, `variable "c" is undefined`,
		},
		{
			"builtin type",
			func(def *dectree.Definition) {
				def.Inputs = testutil.Vars("a:float")
				def.Rules = testutil.Rules("if a is HIGH:\n    out = TRUE\n")
			},
			errors.NotExist, `"HIGH" is not a property of type "float" of variable "a"`,
		},
		{
			"unsupported operator",
			func(def *dectree.Definition) { def.Rules = testutil.Rules("if a < HIGH:\n    out = TRUE\n") },
			errors.NotSupported, "are the only supported comparison operators",
		},
		{
			"dangling elif",
			func(def *dectree.Definition) {
				def.Rules = []rules.Rule{{
					&rules.Assign{Var: "out", Prop: "TRUE"},
					&rules.Elif{Cond: "a is HIGH", Body: []rules.Stmt{&rules.Assign{Var: "out", Prop: "FALSE"}}},
				}}
			},
			errors.Syntax, `"elif a is HIGH" does not follow "if" or "elif"`,
		},
		{
			"dangling else",
			func(def *dectree.Definition) {
				def.Rules = []rules.Rule{{&rules.Else{Body: []rules.Stmt{&rules.Assign{Var: "out", Prop: "FALSE"}}}}}
			},
			errors.Syntax, `"else" does not follow "if" or "elif"`,
		},
		{
			"derived undefined",
			func(def *dectree.Definition) {
				def.Derived = []dectree.DerivedDef{{Name: "d", Type: "float", Expr: "a + c"}}
			},
			errors.NotExist, `variable "c" is undefined`,
		},
		{
			"derived condition",
			func(def *dectree.Definition) {
				def.Derived = []dectree.DerivedDef{{Name: "d", Type: "float", Expr: "a > 0.5 and b"}}
			},
			errors.NotSupported, "boolop is not an arithmetic expression",
		},
		{
			"derived string",
			func(def *dectree.Definition) {
				def.Derived = []dectree.DerivedDef{{Name: "d", Type: "float", Expr: `a + "b"`}}
			},
			errors.NotSupported, `"b" is not a number`,
		},
	} {
		def := testutil.Chain()
		test.modify(def)
		_, err := compile.Compile(def)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		expect.True(t, errors.Is(test.kind, err), "%s: wrong kind: %v", test.name, err)
		expect.HasSubstr(t, err.Error(), test.msg)
	}
}

func TestCompileValidate(t *testing.T) {
	def := testutil.Chain()
	def.Types = nil
	_, err := compile.Compile(def)
	expect.True(t, goerrors.Is(err, dectree.ErrNoTypes), "%v", err)

	def = testutil.Chain()
	def.Rules = nil
	_, err = compile.Compile(def)
	expect.True(t, goerrors.Is(err, dectree.ErrNoRules), "%v", err)
	expect.False(t, goerrors.Is(err, dectree.ErrNoTypes), "%v", err)
}

type recorder struct {
	events []string
}

func (r *recorder) DeclareMembershipFunction(typ, prop string, def *membership.PropertyDef) error {
	r.events = append(r.events, "func "+typ+"."+prop+" "+def.Decl)
	return nil
}

func (r *recorder) DeclareInputs(fields []compile.Field) error {
	r.events = append(r.events, "inputs "+fieldNames(fields))
	return nil
}

func (r *recorder) DeclareOutputs(fields []compile.Field) error {
	r.events = append(r.events, "outputs "+fieldNames(fields))
	return nil
}

func (r *recorder) DeclareParams(params []compile.Param) error {
	var names []string
	for _, p := range params {
		names = append(names, p.Name)
	}
	r.events = append(r.events, "params "+strings.Join(names, " "))
	return nil
}

func (r *recorder) Instr(in compile.Instr) error {
	r.events = append(r.events, in.Kind.String()+" "+in.String())
	return nil
}

func fieldNames(fields []compile.Field) string {
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return strings.Join(names, " ")
}

func TestEmit(t *testing.T) {
	def := testutil.Chain()
	def.Rules = testutil.Rules("if a is HIGH:\n    out = TRUE\n")
	p, err := compile.Compile(def)
	assert.NoError(t, err)
	var r recorder
	assert.NoError(t, p.Emit(&r))
	want := []string{
		"func Ratio.HIGH ramp(x1=0.0, x2=1.0)",
		"func Ratio.LOW inv_ramp(x1=0.0, x2=1.0)",
		"func Bool.TRUE true()",
		"func Bool.FALSE false()",
		"inputs a b",
		"outputs out",
		"accum t0 = 1.0",
		"accum t1 = min(t0, _Ratio_HIGH(inputs.a))",
		"output outputs.out = t1",
	}
	if diff := cmp.Diff(want, r.events); diff != "" {
		t.Errorf("events differ (-want +got):\n%s", diff)
	}

	def.Options.Parameterize = true
	p, err = compile.Compile(def)
	assert.NoError(t, err)
	r.events = nil
	assert.NoError(t, p.Emit(&r))
	expect.EQ(t, r.events[6], "params Ratio_HIGH_x1 Ratio_HIGH_x2 Ratio_LOW_x1 Ratio_LOW_x2")
}

func TestCompileLog(t *testing.T) {
	var b bytes.Buffer
	c := &compile.Compiler{Log: log.New(golog.New(&b, "", 0), log.DebugLevel)}
	_, err := c.Compile(testutil.Chain())
	assert.NoError(t, err)
	expect.HasSubstr(t, b.String(), "t1 = min(t0, _Ratio_HIGH(inputs.a))\n")
	expect.HasSubstr(t, b.String(), "    outputs.out = t1\n")
}
