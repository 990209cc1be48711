// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package exprfmt renders expression trees back into source text
// with minimal parenthesization. Rendering of names, callees,
// attributes, keyword arguments and the power operator may be
// customized through hooks, so that the same printer serves both
// re-emitting the rule language and lowering expressions into a
// target language.
package exprfmt

import (
	"strings"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/syntax"
)

// Assoc is the associativity of an operator.
type Assoc int

const (
	// None is the associativity of unary operators.
	None Assoc = iota
	// Left denotes a left-associative operator.
	Left
	// Right denotes a right-associative operator.
	Right
	// NonAssoc denotes comparison operators, which chain rather
	// than associate.
	NonAssoc
)

// OpInfo describes how an operator is displayed and how it binds.
type OpInfo struct {
	Text  string
	Prec  int
	Assoc Assoc
}

var (
	unops = map[string]OpInfo{
		"not": {"not", 500, None},
		"+":   {"+", 800, None},
		"-":   {"-", 800, None},
	}
	binops = map[string]OpInfo{
		"+":  {"+", 600, Left},
		"-":  {"-", 600, Left},
		"*":  {"*", 700, Left},
		"/":  {"/", 700, Left},
		"//": {"//", 700, Left},
		"%":  {"%", 700, Left},
		"**": {"**", 900, Right},
	}
	boolops = map[string]OpInfo{
		"or":  {"or", 300, Left},
		"and": {"and", 400, Left},
	}
	compareOps = map[string]OpInfo{
		"==":     {"==", 550, NonAssoc},
		"!=":     {"!=", 550, NonAssoc},
		"<":      {"<", 550, NonAssoc},
		"<=":     {"<=", 550, NonAssoc},
		">":      {">", 550, NonAssoc},
		">=":     {">=", 550, NonAssoc},
		"is":     {"is", 550, NonAssoc},
		"is not": {"is not", 550, NonAssoc},
		"in":     {"in", 550, NonAssoc},
		"not in": {"not in", 550, NonAssoc},
	}
)

// keywordOps are rendered with a separating space.
var keywordOps = map[string]bool{"not": true}

// Info returns the operator information for the operator of e. It
// returns false for nodes without an operator (names, calls,
// literals, etc.), which never need parentheses.
func Info(e *syntax.Expr) (OpInfo, bool) {
	var (
		info OpInfo
		ok   bool
	)
	switch e.Kind {
	case syntax.ExprUnop:
		info, ok = unops[e.Op]
	case syntax.ExprBinop:
		info, ok = binops[e.Op]
	case syntax.ExprBoolop:
		info, ok = boolops[e.Op]
	case syntax.ExprCompare:
		info, ok = compareOps["=="]
	}
	return info, ok
}

// A Printer renders expressions. The zero Printer renders
// expressions in the rule language itself.
type Printer struct {
	// Name renders a bare name.
	Name func(ident string) string
	// Callee renders the name of a called function. Callees that
	// are not bare names are rendered as ordinary expressions.
	Callee func(ident string) string
	// Attribute renders an attribute access, given the rendered
	// value.
	Attribute func(value, attr string) string
	// Keyword renders a keyword argument, given the rendered value.
	Keyword func(name, value string) string
	// Power, if set, renders the power operator, given its rendered
	// operands. Operands are not parenthesized.
	Power func(x, y string) string
	// SpaceSigns separates a sign from a directly following sign, as
	// in "- -x", for target languages in which "--" is a token.
	SpaceSigns bool
}

// Print renders e with p.
func (p *Printer) Print(e *syntax.Expr) (string, error) {
	var b strings.Builder
	if err := p.print(&b, e); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Print renders e in the rule language.
func Print(e *syntax.Expr) (string, error) {
	return new(Printer).Print(e)
}

// Format parses src and renders it with canonical spacing and
// minimal parenthesization.
func Format(src string) (string, error) {
	e, err := syntax.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return Print(e)
}

func unsupported(e *syntax.Expr, what string) error {
	return errors.E("decompile", e.Kind.String(), errors.NotSupported,
		errors.Errorf("unrecognized %s: %q", what, e.Op))
}

func (p *Printer) print(b *strings.Builder, e *syntax.Expr) error {
	switch e.Kind {
	default:
		return errors.E("decompile", errors.NotSupported,
			errors.Errorf("unrecognized expression node: %s", e.Kind))
	case syntax.ExprName:
		if p.Name != nil {
			b.WriteString(p.Name(e.Ident))
		} else {
			b.WriteString(e.Ident)
		}
	case syntax.ExprConst:
		b.WriteString(syntax.FormatConst(e.Val))
	case syntax.ExprAttribute:
		var value strings.Builder
		if err := p.wrapped(&value, e.Left, hasOp(e.Left)); err != nil {
			return err
		}
		if p.Attribute != nil {
			b.WriteString(p.Attribute(value.String(), e.Ident))
		} else {
			b.WriteString(value.String() + "." + e.Ident)
		}
	case syntax.ExprIndex:
		if err := p.wrapped(b, e.Left, hasOp(e.Left)); err != nil {
			return err
		}
		b.WriteString("[")
		if err := p.print(b, e.Right); err != nil {
			return err
		}
		b.WriteString("]")
	case syntax.ExprCall:
		if e.Left.Kind == syntax.ExprName && p.Callee != nil {
			b.WriteString(p.Callee(e.Left.Ident))
		} else if e.Left.Kind == syntax.ExprName {
			b.WriteString(e.Left.Ident)
		} else if err := p.wrapped(b, e.Left, hasOp(e.Left)); err != nil {
			return err
		}
		b.WriteString("(")
		for i, arg := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := p.print(b, arg); err != nil {
				return err
			}
		}
		for i, kw := range e.Keywords {
			if i > 0 || len(e.Args) > 0 {
				b.WriteString(", ")
			}
			value, err := p.Print(kw.Expr)
			if err != nil {
				return err
			}
			if p.Keyword != nil {
				b.WriteString(p.Keyword(kw.Name, value))
			} else {
				b.WriteString(kw.Name + "=" + value)
			}
		}
		b.WriteString(")")
	case syntax.ExprUnop:
		info, ok := unops[e.Op]
		if !ok {
			return unsupported(e, "unary operator")
		}
		b.WriteString(info.Text)
		if keywordOps[e.Op] || p.SpaceSigns && isSign(e) && isSign(e.Left) {
			b.WriteString(" ")
		}
		wrap := false
		if other, ok := Info(e.Left); ok {
			wrap = other.Prec < info.Prec || other.Prec == info.Prec && other.Assoc != None
		}
		return p.wrapped(b, e.Left, wrap)
	case syntax.ExprBinop:
		info, ok := binops[e.Op]
		if !ok {
			return unsupported(e, "binary operator")
		}
		if e.Op == "**" && p.Power != nil {
			x, err := p.Print(e.Left)
			if err != nil {
				return err
			}
			y, err := p.Print(e.Right)
			if err != nil {
				return err
			}
			b.WriteString(p.Power(x, y))
			return nil
		}
		wrap := false
		if other, ok := Info(e.Left); ok {
			wrap = other.Prec < info.Prec ||
				other.Prec == info.Prec && info.Assoc == Right && other.Assoc != None
		}
		if err := p.wrapped(b, e.Left, wrap); err != nil {
			return err
		}
		b.WriteString(" " + info.Text + " ")
		wrap = false
		if other, ok := Info(e.Right); ok {
			wrap = other.Prec < info.Prec ||
				other.Prec == info.Prec && info.Assoc == Left && other.Assoc != None
		}
		// The exponent of ** may be a signed factor: 2 ** -x.
		if e.Op == "**" && isSign(e.Right) {
			wrap = false
		}
		return p.wrapped(b, e.Right, wrap)
	case syntax.ExprBoolop:
		info, ok := boolops[e.Op]
		if !ok {
			return unsupported(e, "boolean operator")
		}
		for i, value := range e.Args {
			if i > 0 {
				b.WriteString(" " + info.Text + " ")
			}
			wrap := false
			if other, ok := Info(value); ok {
				wrap = i == 0 && other.Prec < info.Prec || i > 0 && other.Prec <= info.Prec
			}
			if err := p.wrapped(b, value, wrap); err != nil {
				return err
			}
		}
	case syntax.ExprCompare:
		info := compareOps["=="]
		operand := func(e *syntax.Expr) error {
			other, ok := Info(e)
			return p.wrapped(b, e, ok && other.Prec <= info.Prec)
		}
		if err := operand(e.Left); err != nil {
			return err
		}
		for i, op := range e.Ops {
			opInfo, ok := compareOps[op]
			if !ok {
				return errors.E("decompile", e.Kind.String(), errors.NotSupported,
					errors.Errorf("unrecognized comparison operator: %q", op))
			}
			b.WriteString(" " + opInfo.Text + " ")
			if err := operand(e.Args[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSign tells whether e is a unary + or -.
func isSign(e *syntax.Expr) bool {
	return e.Kind == syntax.ExprUnop && (e.Op == "-" || e.Op == "+")
}

func hasOp(e *syntax.Expr) bool {
	_, ok := Info(e)
	return ok
}

func (p *Printer) wrapped(b *strings.Builder, e *syntax.Expr, wrap bool) error {
	if wrap {
		b.WriteString("(")
	}
	if err := p.print(b, e); err != nil {
		return err
	}
	if wrap {
		b.WriteString(")")
	}
	return nil
}
