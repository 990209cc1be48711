// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/syntax"
	"github.com/grailbio/dectree/syntax/exprfmt"
)

// MathNamespace is the namespace into which the functions called by
// derived expressions are rendered.
const MathNamespace = "math"

// derived lowers the derived variable d into a single assignment of
// its rendered expression.
func (l *lowerer) derived(d dectree.DerivedDef) error {
	e, err := syntax.ParseExpr(d.Expr)
	if err != nil {
		return err
	}
	expr, err := l.arith(e)
	if err != nil {
		return errors.E(d.Expr, err)
	}
	l.emit(Instr{
		Kind:   InstrDerived,
		Name:   d.Name,
		Target: l.output(d.Name),
		Expr:   expr,
		Source: d.Name + " = " + d.Expr + ": " + d.Type,
	})
	return nil
}

// arith renders the arithmetic expression e with variables addressed
// through their containers and calls namespaced into MathNamespace.
func (l *lowerer) arith(e *syntax.Expr) (string, error) {
	if err := checkArith(e); err != nil {
		return "", err
	}
	var undefined []string
	p := &exprfmt.Printer{
		Name: func(ident string) string {
			container, _, ok := env{l}.Var(ident)
			if !ok {
				if ident != MathNamespace {
					undefined = append(undefined, ident)
				}
				return ident
			}
			s := container + "." + ident
			if l.index != "" {
				s += "[" + l.index + "]"
			}
			return s
		},
		Callee: func(ident string) string {
			return MathNamespace + "." + ident
		},
	}
	s, err := p.Print(e)
	if err != nil {
		return "", err
	}
	if len(undefined) > 0 {
		return "", errors.E(errors.NotExist, errors.Errorf("variable %q is undefined", undefined[0]))
	}
	return s, nil
}

// checkArith rejects the parts of the expression language that have
// no arithmetic meaning.
func checkArith(e *syntax.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case syntax.ExprBoolop, syntax.ExprCompare:
		return errors.E(errors.NotSupported, errors.Errorf("%s is not an arithmetic expression", e.Kind))
	case syntax.ExprUnop:
		if e.Op == "not" {
			return errors.E(errors.NotSupported, errors.New(`"not" is not an arithmetic operator`))
		}
	case syntax.ExprConst:
		switch e.Val.(type) {
		case int64, float64:
		default:
			return errors.E(errors.NotSupported, errors.Errorf("%s is not a number", syntax.FormatConst(e.Val)))
		}
	}
	if err := checkArith(e.Left); err != nil {
		return err
	}
	if err := checkArith(e.Right); err != nil {
		return err
	}
	for _, arg := range e.Args {
		if err := checkArith(arg); err != nil {
			return err
		}
	}
	for _, kw := range e.Keywords {
		if err := checkArith(kw.Expr); err != nil {
			return err
		}
	}
	return nil
}
