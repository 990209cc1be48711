// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package membership implements the parametric membership functions
// that back type property definitions. A membership function maps a
// scalar domain value to a truth degree in [0, 1]. Every function is
// total over the real line: it saturates at its endpoints and is
// piecewise linear in between.
//
// The set of functions is closed. Each is identified by a Kind and
// carries an ordered list of numeric parameters; the same definition
// can be evaluated natively (Eval, Apply) or rendered as the body of
// a target-language function (Body).
package membership

import (
	"fmt"
	"strings"

	"github.com/grailbio/dectree/syntax"
)

// Kind identifies a membership function.
type Kind int

const (
	// KindTrue is the constant 1.
	KindTrue Kind = iota
	// KindFalse is the constant 0.
	KindFalse
	// KindConst is the constant t.
	KindConst
	// KindEq is x == x0, or a tent of half-width dx around x0.
	KindEq
	// KindNe is the complement of KindEq.
	KindNe
	// KindGt is x > x0, or a rising ramp over [x0-dx, x0+dx].
	KindGt
	// KindGe is x >= x0, or the same rising ramp as KindGt.
	KindGe
	// KindLt is x < x0, or a falling ramp over [x0-dx, x0+dx].
	KindLt
	// KindLe is x <= x0, or the same falling ramp as KindLt.
	KindLe
	// KindRamp rises from 0 at x1 to 1 at x2.
	KindRamp
	// KindInvRamp falls from 1 at x1 to 0 at x2.
	KindInvRamp
	// KindTriangular rises over [x1, x2] and falls over [x2, x3].
	KindTriangular
	// KindInvTriangular is the complement of KindTriangular.
	KindInvTriangular
	// KindTrapezoid rises over [x1, x2], is 1 over [x2, x3], and
	// falls over [x3, x4].
	KindTrapezoid
	// KindInvTrapezoid is the complement of KindTrapezoid.
	KindInvTrapezoid

	maxKind
)

// Param is a named membership function parameter.
type Param struct {
	Name  string
	Value float64
}

type factory struct {
	name   string
	params []Param
	// required is the number of leading parameters without defaults.
	required int
}

var factories = [maxKind]factory{
	KindTrue:          {"true", nil, 0},
	KindFalse:         {"false", nil, 0},
	KindConst:         {"const", []Param{{"t", 0}}, 1},
	KindEq:            {"eq", []Param{{"x0", 0}, {"dx", 0}}, 1},
	KindNe:            {"ne", []Param{{"x0", 0}, {"dx", 0}}, 1},
	KindGt:            {"gt", []Param{{"x0", 0}, {"dx", 0}}, 1},
	KindGe:            {"ge", []Param{{"x0", 0}, {"dx", 0}}, 1},
	KindLt:            {"lt", []Param{{"x0", 0}, {"dx", 0}}, 1},
	KindLe:            {"le", []Param{{"x0", 0}, {"dx", 0}}, 1},
	KindRamp:          {"ramp", []Param{{"x1", 0}, {"x2", 1}}, 0},
	KindInvRamp:       {"inv_ramp", []Param{{"x1", 0}, {"x2", 1}}, 0},
	KindTriangular:    {"triangular", []Param{{"x1", 0}, {"x2", 0.5}, {"x3", 1}}, 0},
	KindInvTriangular: {"inv_triangular", []Param{{"x1", 0}, {"x2", 0.5}, {"x3", 1}}, 0},
	KindTrapezoid:     {"trapezoid", []Param{{"x1", 0}, {"x2", 1.0 / 3.0}, {"x3", 2.0 / 3.0}, {"x4", 1}}, 0},
	KindInvTrapezoid:  {"inv_trapezoid", []Param{{"x1", 0}, {"x2", 1.0 / 3.0}, {"x3", 2.0 / 3.0}, {"x4", 1}}, 0},
}

// String returns the factory name of kind k, as it is spelled in
// property declarations.
func (k Kind) String() string {
	if k < 0 || k >= maxKind {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return factories[k].name
}

// Lookup returns the kind with the given factory name.
func Lookup(name string) (Kind, bool) {
	for k := range factories {
		if factories[k].name == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// PropertyDef is an instantiated membership function.
type PropertyDef struct {
	// Decl is the declaration text from which the property was
	// created, e.g. "ramp(x1=0, x2=50)".
	Decl string
	// Kind is the membership function.
	Kind Kind
	// Params holds the parameter values in declaration order.
	Params []Param
}

func newDef(kind Kind, args ...float64) *PropertyDef {
	f := factories[kind]
	d := &PropertyDef{Kind: kind, Params: make([]Param, len(f.params))}
	copy(d.Params, f.params)
	for i, v := range args {
		d.Params[i].Value = v
	}
	d.Decl = d.canonical()
	return d
}

// canonical renders the declaration of d with keyword arguments.
func (d *PropertyDef) canonical() string {
	args := make([]string, len(d.Params))
	for i, p := range d.Params {
		args[i] = p.Name + "=" + syntax.FormatConst(p.Value)
	}
	return d.Kind.String() + "(" + strings.Join(args, ", ") + ")"
}

// True returns the constant membership function 1.
func True() *PropertyDef { return newDef(KindTrue) }

// False returns the constant membership function 0.
func False() *PropertyDef { return newDef(KindFalse) }

// Const returns the constant membership function t.
func Const(t float64) *PropertyDef { return newDef(KindConst, t) }

// Eq returns the equality membership function for x0, fuzzified
// by dx.
func Eq(x0, dx float64) *PropertyDef { return newDef(KindEq, x0, dx) }

// Ne returns the inequality membership function for x0, fuzzified
// by dx.
func Ne(x0, dx float64) *PropertyDef { return newDef(KindNe, x0, dx) }

// Gt returns the greater-than membership function.
func Gt(x0, dx float64) *PropertyDef { return newDef(KindGt, x0, dx) }

// Ge returns the greater-or-equal membership function.
func Ge(x0, dx float64) *PropertyDef { return newDef(KindGe, x0, dx) }

// Lt returns the less-than membership function.
func Lt(x0, dx float64) *PropertyDef { return newDef(KindLt, x0, dx) }

// Le returns the less-or-equal membership function.
func Le(x0, dx float64) *PropertyDef { return newDef(KindLe, x0, dx) }

// Ramp returns a rising ramp from x1 to x2.
func Ramp(x1, x2 float64) *PropertyDef { return newDef(KindRamp, x1, x2) }

// InvRamp returns a falling ramp from x1 to x2.
func InvRamp(x1, x2 float64) *PropertyDef { return newDef(KindInvRamp, x1, x2) }

// Triangular returns a triangle peaking at x2.
func Triangular(x1, x2, x3 float64) *PropertyDef {
	return newDef(KindTriangular, x1, x2, x3)
}

// InvTriangular returns an inverted triangle with its floor at x2.
func InvTriangular(x1, x2, x3 float64) *PropertyDef {
	return newDef(KindInvTriangular, x1, x2, x3)
}

// Trapezoid returns a trapezoid with plateau [x2, x3].
func Trapezoid(x1, x2, x3, x4 float64) *PropertyDef {
	return newDef(KindTrapezoid, x1, x2, x3, x4)
}

// InvTrapezoid returns an inverted trapezoid with floor [x2, x3].
func InvTrapezoid(x1, x2, x3, x4 float64) *PropertyDef {
	return newDef(KindInvTrapezoid, x1, x2, x3, x4)
}

// Param returns the value of the named parameter.
func (d *PropertyDef) Param(name string) (float64, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Values returns the parameter values in declaration order.
func (d *PropertyDef) Values() []float64 {
	v := make([]float64, len(d.Params))
	for i, p := range d.Params {
		v[i] = p.Value
	}
	return v
}

// Fuzzy tells whether a comparison function was declared with a
// nonzero transition width, and thus uses its ramp shape rather than
// a hard step. The shape is fixed at declaration time, even when
// parameter values are later supplied at runtime.
func (d *PropertyDef) Fuzzy() bool {
	switch d.Kind {
	case KindEq, KindNe, KindGt, KindGe, KindLt, KindLe:
		dx, _ := d.Param("dx")
		return dx != 0
	}
	return false
}

// Eval evaluates the membership function at x with the declared
// parameter values.
func (d *PropertyDef) Eval(x float64) float64 {
	return d.Apply(x, d.Values())
}

// Apply evaluates the membership function at x with parameter values
// p, given in declaration order.
func (d *PropertyDef) Apply(x float64, p []float64) float64 {
	switch d.Kind {
	case KindTrue:
		return 1
	case KindFalse:
		return 0
	case KindConst:
		return p[0]
	case KindEq, KindNe:
		x0, dx := p[0], p[1]
		var v float64
		if !d.Fuzzy() {
			if x == x0 {
				v = 1
			}
		} else {
			v = tent(x, x0-dx, x0, x0+dx)
		}
		if d.Kind == KindNe {
			return 1 - v
		}
		return v
	case KindGt, KindGe, KindLt, KindLe:
		x0, dx := p[0], p[1]
		var v float64
		if !d.Fuzzy() {
			var b bool
			switch d.Kind {
			case KindGt:
				b = x > x0
			case KindGe:
				b = x >= x0
			case KindLt:
				b = x < x0
			case KindLe:
				b = x <= x0
			}
			if b {
				v = 1
			}
			return v
		}
		v = rise(x, x0-dx, x0+dx)
		if d.Kind == KindLt || d.Kind == KindLe {
			return 1 - v
		}
		return v
	case KindRamp:
		return rise(x, p[0], p[1])
	case KindInvRamp:
		return 1 - rise(x, p[0], p[1])
	case KindTriangular:
		return tent(x, p[0], p[1], p[2])
	case KindInvTriangular:
		return 1 - tent(x, p[0], p[1], p[2])
	case KindTrapezoid:
		return plateau(x, p[0], p[1], p[2], p[3])
	case KindInvTrapezoid:
		return 1 - plateau(x, p[0], p[1], p[2], p[3])
	}
	panic("unknown membership kind " + d.Kind.String())
}

// rise is 0 up to x1, 1 from x2, and linear in between.
func rise(x, x1, x2 float64) float64 {
	switch {
	case x <= x1:
		return 0
	case x <= x2:
		return (x - x1) / (x2 - x1)
	default:
		return 1
	}
}

func tent(x, x1, x2, x3 float64) float64 {
	switch {
	case x <= x1:
		return 0
	case x <= x2:
		return (x - x1) / (x2 - x1)
	case x <= x3:
		return 1 - (x-x2)/(x3-x2)
	default:
		return 0
	}
}

func plateau(x, x1, x2, x3, x4 float64) float64 {
	switch {
	case x <= x1:
		return 0
	case x <= x2:
		return (x - x1) / (x2 - x1)
	case x <= x3:
		return 1
	case x <= x4:
		return 1 - (x-x3)/(x4-x3)
	default:
		return 0
	}
}
