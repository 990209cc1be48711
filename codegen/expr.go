// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package codegen

import (
	"strings"
	"unicode"

	"github.com/grailbio/dectree/compile"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/syntax"
	"github.com/grailbio/dectree/syntax/exprfmt"
)

// goMath maps the functions and constants of the math namespace to
// their names in Go's package math.
var goMath = map[string]string{
	"sqrt":  "Sqrt",
	"exp":   "Exp",
	"log":   "Log",
	"log2":  "Log2",
	"log10": "Log10",
	"sin":   "Sin",
	"cos":   "Cos",
	"tan":   "Tan",
	"asin":  "Asin",
	"acos":  "Acos",
	"atan":  "Atan",
	"atan2": "Atan2",
	"sinh":  "Sinh",
	"cosh":  "Cosh",
	"tanh":  "Tanh",
	"abs":   "Abs",
	"fabs":  "Abs",
	"floor": "Floor",
	"ceil":  "Ceil",
	"trunc": "Trunc",
	"pow":   "Pow",
	"hypot": "Hypot",
	"pi":    "Pi",
	"e":     "E",
}

// builtins are the callees that are rendered as they are: Go's
// min and max, and the conversions inserted for float32 code.
var builtins = map[string]bool{
	"min":     true,
	"max":     true,
	"float32": true,
	"float64": true,
}

// exported returns the exported Go name of an identifier in snake
// case: sediment_class becomes SedimentClass.
func exported(id string) string {
	var b strings.Builder
	upper := true
	for _, r := range id {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// exprPrinter renders program expressions as Go expressions.
type exprPrinter struct {
	float32 bool
	// usesMath is set when a rendered expression refers to package
	// math.
	usesMath bool
}

// Print parses the program expression src and renders it in Go.
func (x *exprPrinter) Print(src string) (string, error) {
	e, err := syntax.ParseExpr(src)
	if err != nil {
		return "", err
	}
	e, err = x.rewrite(e)
	if err != nil {
		return "", errors.E(src, err)
	}
	var errs []error
	p := &exprfmt.Printer{
		Callee: func(ident string) string {
			if !builtins[ident] && !strings.HasPrefix(ident, "_") {
				errs = append(errs, errors.E(errors.NotSupported, errors.Errorf("function %q is not supported", ident)))
			}
			return ident
		},
		Attribute: func(value, attr string) string {
			switch value {
			case compile.MathNamespace:
				if builtins[attr] {
					return attr
				}
				name, ok := goMath[attr]
				if !ok {
					errs = append(errs, errors.E(errors.NotSupported, errors.Errorf("math.%s is not supported", attr)))
				}
				x.usesMath = true
				return "math." + name
			case compile.InputsVar, compile.OutputsVar, compile.ParamsVar:
				return value + "." + exported(attr)
			}
			errs = append(errs, errors.E(errors.NotSupported, errors.Errorf("unexpected attribute %s.%s", value, attr)))
			return value + "." + attr
		},
		// Membership function parameters are declared in order.
		Keyword: func(name, value string) string {
			return value
		},
		Power: func(a, b string) string {
			x.usesMath = true
			if x.float32 {
				return "float32(math.Pow(float64(" + a + "), float64(" + b + ")))"
			}
			return "math.Pow(" + a + ", " + b + ")"
		},
		// "--" is Go's decrement operator.
		SpaceSigns: true,
	}
	s, err := p.Print(e)
	if err != nil {
		return "", errors.E(src, err)
	}
	if len(errs) > 0 {
		return "", errors.E(src, errs[0])
	}
	return s, nil
}

// rewrite rejects the operators that have no Go counterpart and
// replaces floor division by a call of math.floor. For float32
// code, calls into the math namespace are wrapped in conversions.
func (x *exprPrinter) rewrite(e *syntax.Expr) (*syntax.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case syntax.ExprBoolop, syntax.ExprCompare:
		return nil, errors.E(errors.NotSupported, errors.Errorf("%s is not an arithmetic expression", e.Kind))
	case syntax.ExprUnop:
		if e.Op == "not" {
			return nil, errors.E(errors.NotSupported, errors.New(`"not" is not an arithmetic operator`))
		}
	case syntax.ExprBinop:
		if e.Op == "%" {
			return nil, errors.E(errors.NotSupported, errors.New(`"%" is not supported`))
		}
	}
	n := *e
	var err error
	if n.Left, err = x.rewrite(e.Left); err != nil {
		return nil, err
	}
	if n.Right, err = x.rewrite(e.Right); err != nil {
		return nil, err
	}
	n.Args = make([]*syntax.Expr, len(e.Args))
	for i := range e.Args {
		if n.Args[i], err = x.rewrite(e.Args[i]); err != nil {
			return nil, err
		}
	}
	n.Keywords = make([]*syntax.Keyword, len(e.Keywords))
	for i, kw := range e.Keywords {
		expr, err := x.rewrite(kw.Expr)
		if err != nil {
			return nil, err
		}
		n.Keywords[i] = &syntax.Keyword{Name: kw.Name, Expr: expr}
	}
	if n.Kind == syntax.ExprBinop && n.Op == "//" {
		n.Op = "/"
		div := n
		return x.mathCall("floor", &div), nil
	}
	if x.float32 && isMathCall(&n) {
		for i, arg := range n.Args {
			n.Args[i] = call("float64", arg)
		}
		return call("float32", &n), nil
	}
	return &n, nil
}

func (x *exprPrinter) mathCall(name string, args ...*syntax.Expr) *syntax.Expr {
	c := &syntax.Expr{
		Kind: syntax.ExprCall,
		Left: syntax.Attribute(syntax.Name(compile.MathNamespace), name),
		Args: args,
	}
	if x.float32 {
		for i, arg := range c.Args {
			c.Args[i] = call("float64", arg)
		}
		return call("float32", c)
	}
	return c
}

func isMathCall(e *syntax.Expr) bool {
	return e.Kind == syntax.ExprCall &&
		e.Left.Kind == syntax.ExprAttribute &&
		e.Left.Left.Kind == syntax.ExprName &&
		e.Left.Left.Ident == compile.MathNamespace
}

func call(fn string, args ...*syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.ExprCall, Left: syntax.Name(fn), Args: args}
}
