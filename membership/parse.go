// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package membership

import (
	"math"
	"strings"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/syntax"
)

// Parse instantiates a membership function from its declaration, a
// factory call such as "ramp(x1=0, x2=50)" or "eq(3, dx=0.5)".
// Arguments may be given positionally or by keyword and must be
// constant numeric expressions. Omitted parameters take their
// defaults.
func Parse(decl string) (*PropertyDef, error) {
	decl = strings.TrimSpace(decl)
	e, err := syntax.ParseExpr(decl)
	if err != nil {
		return nil, errors.E("property", decl, err)
	}
	if e.Kind != syntax.ExprCall || e.Left.Kind != syntax.ExprName {
		return nil, errors.E("property", decl, errors.Syntax,
			errors.New("expected a membership function call, e.g. ramp(x1=0, x2=1)"))
	}
	kind, ok := Lookup(e.Left.Ident)
	if !ok {
		return nil, errors.E("property", decl, errors.NotExist,
			errors.Errorf("unknown membership function %q", e.Left.Ident))
	}
	f := factories[kind]
	if len(e.Args) > len(f.params) {
		return nil, errors.E("property", decl, errors.Syntax,
			errors.Errorf("%s takes at most %d arguments, got %d", f.name, len(f.params), len(e.Args)))
	}
	d := &PropertyDef{Decl: decl, Kind: kind, Params: make([]Param, len(f.params))}
	copy(d.Params, f.params)
	set := make([]bool, len(f.params))
	for i, arg := range e.Args {
		v, err := constValue(arg)
		if err != nil {
			return nil, errors.E("property", decl, errors.Syntax, err)
		}
		d.Params[i].Value = v
		set[i] = true
	}
	for _, kw := range e.Keywords {
		i := index(f.params, kw.Name)
		if i < 0 {
			return nil, errors.E("property", decl, errors.Syntax,
				errors.Errorf("%s has no parameter %q", f.name, kw.Name))
		}
		if set[i] {
			return nil, errors.E("property", decl, errors.Syntax,
				errors.Errorf("parameter %q given more than once", kw.Name))
		}
		v, err := constValue(kw.Expr)
		if err != nil {
			return nil, errors.E("property", decl, errors.Syntax, err)
		}
		d.Params[i].Value = v
		set[i] = true
	}
	for i := 0; i < f.required; i++ {
		if !set[i] {
			return nil, errors.E("property", decl, errors.Syntax,
				errors.Errorf("missing required parameter %q", f.params[i].Name))
		}
	}
	return d, nil
}

// MustParse is like Parse, but panics on error.
func MustParse(decl string) *PropertyDef {
	d, err := Parse(decl)
	if err != nil {
		panic(err)
	}
	return d
}

func index(params []Param, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// constValue folds a constant arithmetic expression, such as
// "-1.5" or "1/3", into a float.
func constValue(e *syntax.Expr) (float64, error) {
	switch e.Kind {
	case syntax.ExprConst:
		switch v := e.Val.(type) {
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		}
	case syntax.ExprUnop:
		x, err := constValue(e.Left)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "-":
			return -x, nil
		case "+":
			return x, nil
		}
	case syntax.ExprBinop:
		x, err := constValue(e.Left)
		if err != nil {
			return 0, err
		}
		y, err := constValue(e.Right)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "+":
			return x + y, nil
		case "-":
			return x - y, nil
		case "*":
			return x * y, nil
		case "/":
			if y == 0 {
				return 0, errors.New("division by zero")
			}
			return x / y, nil
		case "**":
			return math.Pow(x, y), nil
		}
	}
	return 0, errors.Errorf("argument %s is not a number", e)
}
