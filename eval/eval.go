// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package eval executes compiled decision trees in process. Each
// instruction of a program is compiled once into an expr-lang
// program; membership functions and the math namespace are bound as
// native functions.
//
// Programs vectorized per element are evaluated one element at a
// time: the element index is dropped from variable references.
package eval

import (
	"fmt"
	"math"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/dectree/compile"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/fuzzy"
	"github.com/grailbio/dectree/syntax"
	"github.com/grailbio/dectree/syntax/exprfmt"
)

var mathFuncs = map[string]func(x ...float64) float64{
	"sqrt":  unary(math.Sqrt),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log2":  unary(math.Log2),
	"log10": unary(math.Log10),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"atan2": binary(math.Atan2),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"abs":   unary(math.Abs),
	"fabs":  unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"trunc": unary(math.Trunc),
	"pow":   binary(math.Pow),
	"hypot": binary(math.Hypot),
	"fmod":  binary(math.Mod),
}

var mathConsts = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

func unary(f func(float64) float64) func(...float64) float64 {
	return func(x ...float64) float64 { return f(x[0]) }
}

func binary(f func(float64, float64) float64) func(...float64) float64 {
	return func(x ...float64) float64 { return f(x[0], x[1]) }
}

var arity = map[string]int{"atan2": 2, "pow": 2, "hypot": 2, "fmod": 2}

// mathPrefix prefixes the names under which math functions are
// bound.
const mathPrefix = "math_"

// An Evaluator evaluates a compiled program. Evaluators are safe for
// concurrent use.
type Evaluator struct {
	program *compile.Program
	code    []*vm.Program
	// defaults holds the declared parameter values.
	defaults map[string]float64
}

// New compiles the instructions of program p.
func New(p *compile.Program) (*Evaluator, error) {
	e := &Evaluator{
		program:  p,
		code:     make([]*vm.Program, len(p.Instrs)),
		defaults: make(map[string]float64),
	}
	for _, param := range p.Params {
		e.defaults[param.Name] = param.Value
	}
	opts := []expr.Option{expr.Env(e.env(nil, nil)), expr.AsFloat64()}
	for _, f := range p.Funcs {
		def := f.Def
		opts = append(opts, expr.Function(fuzzy.FuncName(f.Type, f.Prop), func(args ...any) (any, error) {
			x, err := floats(args)
			if err != nil {
				return nil, err
			}
			if len(x) == 1 {
				return def.Eval(x[0]), nil
			}
			if len(x) != 1+len(def.Params) {
				return nil, fmt.Errorf("%s: got %d parameters, want %d", def.Decl, len(x)-1, len(def.Params))
			}
			return def.Apply(x[0], x[1:]), nil
		}))
	}
	for name, f := range mathFuncs {
		f, n := f, arity[name]
		if n == 0 {
			n = 1
		}
		opts = append(opts, expr.Function(mathPrefix+name, func(args ...any) (any, error) {
			x, err := floats(args)
			if err != nil {
				return nil, err
			}
			if len(x) != n {
				return nil, fmt.Errorf("got %d arguments, want %d", len(x), n)
			}
			return f(x...), nil
		}))
	}
	for i, in := range p.Instrs {
		src, err := translate(in.Expr)
		if err != nil {
			return nil, errors.E("eval", in.String(), err)
		}
		if e.code[i], err = expr.Compile(src, opts...); err != nil {
			return nil, errors.E("eval", in.String(), errors.NotSupported, err)
		}
	}
	return e, nil
}

// env returns the environment of a single evaluation.
func (e *Evaluator) env(inputs, params map[string]float64) map[string]any {
	env := map[string]any{
		compile.InputsVar:  values(inputs),
		compile.OutputsVar: make(map[string]any),
		compile.ParamsVar:  values(params),
	}
	for i := 0; i < e.program.Slots; i++ {
		env[fmt.Sprintf("t%d", i)] = 0.0
	}
	return env
}

func values(m map[string]float64) map[string]any {
	v := make(map[string]any, len(m))
	for k, x := range m {
		v[k] = x
	}
	return v
}

// Run evaluates the program for a single set of inputs and returns
// the values of the outputs. Params overrides the declared values
// of membership function parameters; it may be nil.
func (e *Evaluator) Run(inputs, params map[string]float64) (map[string]float64, error) {
	for _, f := range e.program.Inputs {
		if _, ok := inputs[f.Name]; !ok {
			return nil, errors.E("eval", f.Name, errors.NotExist, errors.New("missing input"))
		}
	}
	if len(inputs) != len(e.program.Inputs) {
		for name := range inputs {
			if !hasField(e.program.Inputs, name) {
				return nil, errors.E("eval", name, errors.Invalid, errors.New("unknown input"))
			}
		}
	}
	p := make(map[string]float64, len(e.defaults))
	for k, v := range e.defaults {
		p[k] = v
	}
	for k, v := range params {
		if _, ok := e.defaults[k]; !ok {
			return nil, errors.E("eval", k, errors.Invalid, errors.New("unknown parameter"))
		}
		p[k] = v
	}
	env := e.env(inputs, p)
	outputs := env[compile.OutputsVar].(map[string]any)
	for _, f := range e.program.Outputs {
		outputs[f.Name] = 0.0
	}
	for i, in := range e.program.Instrs {
		v, err := expr.Run(e.code[i], env)
		if err != nil {
			return nil, errors.E("eval", in.String(), err)
		}
		switch in.Kind {
		case compile.InstrAccum:
			env[in.Target] = v
		default:
			outputs[in.Name] = v
		}
	}
	result := make(map[string]float64, len(outputs))
	for k, v := range outputs {
		result[k] = v.(float64)
	}
	return result, nil
}

// RunArrays evaluates the program for each element of the inputs,
// which must have the same length. Elements are evaluated in
// parallel.
func (e *Evaluator) RunArrays(inputs map[string][]float64, params map[string]float64) (map[string][]float64, error) {
	n := -1
	for name, x := range inputs {
		if n >= 0 && len(x) != n {
			return nil, errors.E("eval", name, errors.Invalid, errors.Errorf("input has %d elements, want %d", len(x), n))
		}
		n = len(x)
	}
	if n < 0 {
		n = 0
	}
	outputs := make(map[string][]float64, len(e.program.Outputs))
	for _, f := range e.program.Outputs {
		outputs[f.Name] = make([]float64, n)
	}
	err := traverse.Each(n, func(i int) error {
		row := make(map[string]float64, len(inputs))
		for name, x := range inputs {
			row[name] = x[i]
		}
		out, err := e.Run(row, params)
		if err != nil {
			return errors.E(fmt.Sprintf("element %d", i), err)
		}
		for name, v := range out {
			outputs[name][i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

func hasField(fields []compile.Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func floats(args []any) ([]float64, error) {
	x := make([]float64, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case float64:
			x[i] = v
		case int:
			x[i] = float64(v)
		default:
			return nil, fmt.Errorf("argument %d: expected a number, got %T", i+1, arg)
		}
	}
	return x, nil
}

// translate renders the program expression src in expr-lang.
func translate(src string) (string, error) {
	e, err := syntax.ParseExpr(src)
	if err != nil {
		return "", err
	}
	e = rewrite(e)
	var errs []error
	p := &exprfmt.Printer{
		Attribute: func(value, attr string) string {
			switch value {
			case compile.MathNamespace:
				if c, ok := mathConsts[attr]; ok {
					return strconv.FormatFloat(c, 'g', -1, 64)
				}
				if attr == "min" || attr == "max" {
					return attr
				}
				if _, ok := mathFuncs[attr]; !ok {
					errs = append(errs, errors.E(errors.NotSupported, errors.Errorf("math.%s is not supported", attr)))
				}
				return mathPrefix + attr
			case compile.InputsVar, compile.OutputsVar, compile.ParamsVar:
				return value + "[" + strconv.Quote(attr) + "]"
			}
			errs = append(errs, errors.E(errors.NotSupported, errors.Errorf("unexpected attribute %s.%s", value, attr)))
			return value + "." + attr
		},
		Keyword: func(name, value string) string {
			return value
		},
		SpaceSigns: true,
	}
	s, err := p.Print(e)
	if err != nil {
		return "", err
	}
	if len(errs) > 0 {
		return "", errs[0]
	}
	return s, nil
}

// rewrite drops element indices and replaces floor division by a
// call of math.floor.
func rewrite(e *syntax.Expr) *syntax.Expr {
	if e == nil {
		return nil
	}
	if e.Kind == syntax.ExprIndex && e.Right.Kind == syntax.ExprName && e.Right.Ident == compile.IndexVar {
		return rewrite(e.Left)
	}
	n := *e
	n.Left = rewrite(e.Left)
	n.Right = rewrite(e.Right)
	n.Args = make([]*syntax.Expr, len(e.Args))
	for i := range e.Args {
		n.Args[i] = rewrite(e.Args[i])
	}
	n.Keywords = make([]*syntax.Keyword, len(e.Keywords))
	for i, kw := range e.Keywords {
		n.Keywords[i] = &syntax.Keyword{Name: kw.Name, Expr: rewrite(kw.Expr)}
	}
	if n.Kind == syntax.ExprBinop && n.Op == "//" {
		n.Op = "/"
		return &syntax.Expr{
			Kind: syntax.ExprCall,
			Left: syntax.Attribute(syntax.Name(compile.MathNamespace), "floor"),
			Args: []*syntax.Expr{&n},
		}
	}
	return &n
}
