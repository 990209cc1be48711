// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fuzzy

import (
	"sort"
	"strings"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/syntax"
)

// Algebra renders the fuzzy logic operators over rendered operands.
// And and Or are a t-norm and its t-conorm; Not is the complement.
type Algebra interface {
	Not(x string) string
	And(x, y string) string
	Or(x, y string) string
}

// TemplateAlgebra is an Algebra defined by text templates. The Not
// template refers to its operand as {x}; the And and Or templates
// refer to theirs as {x} and {y}.
type TemplateAlgebra struct {
	NotTemplate, AndTemplate, OrTemplate string
}

// Default templates.
const (
	DefaultNot = "1.0 - ({x})"
	DefaultAnd = "min({x}, {y})"
	DefaultOr  = "max({x}, {y})"
)

// NewTemplateAlgebra returns a TemplateAlgebra after checking that
// each template names its operands and instantiates to a valid
// expression.
func NewTemplateAlgebra(not, and, or string) (*TemplateAlgebra, error) {
	for _, t := range []struct {
		name, template string
		operands       []string
	}{
		{"not", not, []string{"{x}"}},
		{"and", and, []string{"{x}", "{y}"}},
		{"or", or, []string{"{x}", "{y}"}},
	} {
		for _, op := range t.operands {
			if !strings.Contains(t.template, op) {
				return nil, errors.E("algebra", t.name, errors.Invalid,
					errors.Errorf("template %q does not refer to operand %s", t.template, op))
			}
		}
		sample := strings.NewReplacer("{x}", "x", "{y}", "y").Replace(t.template)
		if _, err := syntax.ParseExpr(sample); err != nil {
			return nil, errors.E("algebra", t.name, errors.Invalid, err)
		}
	}
	return &TemplateAlgebra{NotTemplate: not, AndTemplate: and, OrTemplate: or}, nil
}

// Not implements Algebra.
func (a *TemplateAlgebra) Not(x string) string {
	return strings.NewReplacer("{x}", x).Replace(a.NotTemplate)
}

// And implements Algebra.
func (a *TemplateAlgebra) And(x, y string) string {
	return strings.NewReplacer("{x}", x, "{y}", y).Replace(a.AndTemplate)
}

// Or implements Algebra.
func (a *TemplateAlgebra) Or(x, y string) string {
	return strings.NewReplacer("{x}", x, "{y}", y).Replace(a.OrTemplate)
}

// Default is the min/max algebra with the standard complement.
var Default = &TemplateAlgebra{DefaultNot, DefaultAnd, DefaultOr}

// named holds the predefined algebras: min/max, algebraic product
// with probabilistic sum, and the Lukasiewicz t-norm and t-conorm.
var named = map[string]*TemplateAlgebra{
	"minmax":      Default,
	"product":     {DefaultNot, "({x}) * ({y})", "({x}) + ({y}) - ({x}) * ({y})"},
	"lukasiewicz": {DefaultNot, "max(0.0, {x} + {y} - 1.0)", "min(1.0, {x} + {y})"},
}

// Lookup returns the named algebra, one of those listed by Names.
func Lookup(name string) (*TemplateAlgebra, bool) {
	a, ok := named[name]
	return a, ok
}

// Names returns the names of the predefined algebras.
func Names() []string {
	var names []string
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
