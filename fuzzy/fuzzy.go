// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package fuzzy compiles rule conditions into arithmetic over
// membership degrees. A condition is a boolean expression over
// comparisons of variables with properties of their types:
//
//	x is HI and not (y == SLOW or z != LOW)
//
// Each comparison becomes a call of the property's membership
// function on the variable; the boolean operators become the
// operators of a pluggable fuzzy Algebra.
package fuzzy

import (
	"strings"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/syntax"
)

// Env resolves the names referenced by conditions.
type Env interface {
	// Var returns the container through which variable name is
	// addressed (e.g., "inputs") and the name of its type.
	Var(name string) (container, typ string, ok bool)
	// Type tells whether typ is a defined type, and returns its
	// property prop, if any.
	Type(typ, prop string) (def *membership.PropertyDef, typeOK, propOK bool)
}

// FuncName returns the name of the membership function of property
// prop of type typ.
func FuncName(typ, prop string) string {
	return "_" + typ + "_" + prop
}

// ParamName returns the qualified name of a membership function
// parameter, as it is declared in the parameters container.
func ParamName(typ, prop, param string) string {
	return typ + "_" + prop + "_" + param
}

// A Compiler compiles conditions.
type Compiler struct {
	Env     Env
	Algebra Algebra
	// Parameterize threads membership function parameters as keyword
	// arguments read from the ParamsName container.
	Parameterize bool
	// ParamsName is the name of the parameters container.
	ParamsName string
	// Index, if not empty, is appended as an index to every
	// variable reference: x becomes inputs.x[i].
	Index string
}

// Compile compiles the condition cond into an arithmetic expression
// of the compiler's algebra.
func (c *Compiler) Compile(cond string) (string, error) {
	e, err := syntax.ParseExpr(cond)
	if err != nil {
		return "", errors.E("compile condition", cond, err)
	}
	s, err := c.CompileExpr(e)
	if err != nil {
		return "", errors.E("compile condition", cond, err)
	}
	return s, nil
}

// CompileExpr compiles a parsed condition.
func (c *Compiler) CompileExpr(e *syntax.Expr) (string, error) {
	switch e.Kind {
	case syntax.ExprCompare:
		return c.compare(e)
	case syntax.ExprUnop:
		if e.Op != "not" {
			return "", errors.E(errors.NotSupported, errors.New(`"not" is the only supported unary operator`))
		}
		x, err := c.CompileExpr(e.Left)
		if err != nil {
			return "", err
		}
		return c.Algebra.Not(x), nil
	case syntax.ExprBoolop:
		op := c.Algebra.And
		switch e.Op {
		case "and":
		case "or":
			op = c.Algebra.Or
		default:
			return "", errors.E(errors.NotSupported, errors.New(`"and" and "or" are the only supported binary operators`))
		}
		var acc string
		for i, arg := range e.Args {
			x, err := c.CompileExpr(arg)
			if err != nil {
				return "", err
			}
			if i == 0 {
				acc = x
			} else {
				acc = op(acc, x)
			}
		}
		return acc, nil
	}
	return "", errors.E(errors.NotSupported, errors.Errorf("unsupported expression: %s", e.Kind))
}

func (c *Compiler) compare(e *syntax.Expr) (string, error) {
	if len(e.Ops) != 1 {
		return "", errors.E(errors.NotSupported, errors.New("chained comparisons are not supported"))
	}
	if e.Left.Kind != syntax.ExprName {
		return "", errors.E(errors.Syntax, errors.New("left side of comparison must be the name of an input or an output"))
	}
	if e.Args[0].Kind != syntax.ExprName {
		return "", errors.E(errors.Syntax, errors.New("right side of comparison must be the name of a property"))
	}
	name, prop := e.Left.Ident, e.Args[0].Ident
	var negate bool
	switch e.Ops[0] {
	case "==", "is":
	case "!=", "is not":
		negate = true
	default:
		return "", errors.E(errors.NotSupported, errors.New(`"==", "!=", "is", and "is not" are the only supported comparison operators`))
	}
	container, typ, ok := c.Env.Var(name)
	if !ok {
		return "", errors.E(errors.NotExist, errors.Errorf("variable %q is undefined", name))
	}
	def, typeOK, propOK := c.Env.Type(typ, prop)
	if !typeOK {
		return "", errors.E(errors.NotExist, errors.Errorf("type %q of variable %q is undefined", typ, name))
	}
	if !propOK {
		return "", errors.E(errors.NotExist, errors.Errorf("%q is not a property of type %q of variable %q", prop, typ, name))
	}
	var b strings.Builder
	b.WriteString(FuncName(typ, prop))
	b.WriteString("(")
	if container != "" {
		b.WriteString(container)
		b.WriteString(".")
	}
	b.WriteString(name)
	if c.Index != "" {
		b.WriteString("[" + c.Index + "]")
	}
	if c.Parameterize {
		for _, p := range def.Params {
			b.WriteString(", ")
			b.WriteString(p.Name)
			b.WriteString("=")
			b.WriteString(c.ParamsName)
			b.WriteString(".")
			b.WriteString(ParamName(typ, prop, p.Name))
		}
	}
	b.WriteString(")")
	if negate {
		return c.Algebra.Not(b.String()), nil
	}
	return b.String(), nil
}
