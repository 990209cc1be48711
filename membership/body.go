// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package membership

import (
	"strings"

	"github.com/grailbio/dectree/syntax"
)

// Body templates are Go statement lists over the argument x; {name}
// placeholders stand for parameter values.
const (
	constOne  = "return 1.0"
	constZero = "return 0.0"

	rampBody = `if x <= {x1} {
	return 0.0
}
if x <= {x2} {
	return (x - {x1}) / ({x2} - {x1})
}
return 1.0`

	invRampBody = `if x <= {x1} {
	return 1.0
}
if x <= {x2} {
	return 1.0 - (x - {x1}) / ({x2} - {x1})
}
return 0.0`

	triangularBody = `if x <= {x1} {
	return 0.0
}
if x <= {x2} {
	return (x - {x1}) / ({x2} - {x1})
}
if x <= {x3} {
	return 1.0 - (x - {x2}) / ({x3} - {x2})
}
return 0.0`

	invTriangularBody = `if x <= {x1} {
	return 1.0
}
if x <= {x2} {
	return 1.0 - (x - {x1}) / ({x2} - {x1})
}
if x <= {x3} {
	return (x - {x2}) / ({x3} - {x2})
}
return 1.0`

	trapezoidBody = `if x <= {x1} {
	return 0.0
}
if x <= {x2} {
	return (x - {x1}) / ({x2} - {x1})
}
if x <= {x3} {
	return 1.0
}
if x <= {x4} {
	return 1.0 - (x - {x3}) / ({x4} - {x3})
}
return 0.0`

	invTrapezoidBody = `if x <= {x1} {
	return 1.0
}
if x <= {x2} {
	return 1.0 - (x - {x1}) / ({x2} - {x1})
}
if x <= {x3} {
	return 0.0
}
if x <= {x4} {
	return (x - {x3}) / ({x4} - {x3})
}
return 1.0`

	eqFuzzyBody = `x1 := {x0} - {dx}
x2 := {x0}
x3 := {x0} + {dx}
if x <= x1 {
	return 0.0
}
if x <= x2 {
	return (x - x1) / (x2 - x1)
}
if x <= x3 {
	return 1.0 - (x - x2) / (x3 - x2)
}
return 0.0`

	neFuzzyBody = `x1 := {x0} - {dx}
x2 := {x0}
x3 := {x0} + {dx}
if x <= x1 {
	return 1.0
}
if x <= x2 {
	return 1.0 - (x - x1) / (x2 - x1)
}
if x <= x3 {
	return (x - x2) / (x3 - x2)
}
return 1.0`

	greaterFuzzyBody = `x1 := {x0} - {dx}
x2 := {x0} + {dx}
if x <= x1 {
	return 0.0
}
if x <= x2 {
	return (x - x1) / (x2 - x1)
}
return 1.0`

	lessFuzzyBody = `x1 := {x0} - {dx}
x2 := {x0} + {dx}
if x <= x1 {
	return 1.0
}
if x <= x2 {
	return 1.0 - (x - x1) / (x2 - x1)
}
return 0.0`
)

func hardBody(op string) string {
	return "if x " + op + " {x0} {\n\treturn 1.0\n}\nreturn 0.0"
}

// Template returns the body template of d. The template depends on
// the kind and, for comparison functions, on whether d is fuzzy.
func (d *PropertyDef) Template() string {
	switch d.Kind {
	case KindTrue:
		return constOne
	case KindFalse:
		return constZero
	case KindConst:
		return "return {t}"
	case KindEq:
		if d.Fuzzy() {
			return eqFuzzyBody
		}
		return hardBody("==")
	case KindNe:
		if d.Fuzzy() {
			return neFuzzyBody
		}
		return hardBody("!=")
	case KindGt, KindGe:
		if d.Fuzzy() {
			return greaterFuzzyBody
		}
		if d.Kind == KindGt {
			return hardBody(">")
		}
		return hardBody(">=")
	case KindLt, KindLe:
		if d.Fuzzy() {
			return lessFuzzyBody
		}
		if d.Kind == KindLt {
			return hardBody("<")
		}
		return hardBody("<=")
	case KindRamp:
		return rampBody
	case KindInvRamp:
		return invRampBody
	case KindTriangular:
		return triangularBody
	case KindInvTriangular:
		return invTriangularBody
	case KindTrapezoid:
		return trapezoidBody
	case KindInvTrapezoid:
		return invTrapezoidBody
	}
	panic("unknown membership kind " + d.Kind.String())
}

// Body instantiates the body template of d. If parameterized is
// true, placeholders are replaced by the parameter names, which the
// enclosing function is expected to declare as arguments; otherwise
// they are replaced by the declared values.
func (d *PropertyDef) Body(parameterized bool) string {
	pairs := make([]string, 0, 2*len(d.Params))
	for _, p := range d.Params {
		v := syntax.FormatConst(p.Value)
		if parameterized {
			v = p.Name
		} else if p.Value < 0 {
			v = "(" + v + ")"
		}
		pairs = append(pairs, "{"+p.Name+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(d.Template())
}
