// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"fmt"
	"strings"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/rules"
)

// The following are useful constructors for testing.

// Type returns a type definition. Props alternate between property
// names and membership function declarations.
func Type(name string, props ...string) *dectree.TypeDef {
	if len(props)%2 != 0 {
		panic("testutil.Type: odd number of property arguments")
	}
	t := &dectree.TypeDef{Name: name}
	for i := 0; i < len(props); i += 2 {
		t.Props = append(t.Props, dectree.Prop{Name: props[i], Def: membership.MustParse(props[i+1])})
	}
	return t
}

// Vars returns variable declarations, each of the form "name:type".
func Vars(decls ...string) dectree.VarDefs {
	vars := make(dectree.VarDefs, len(decls))
	for i, decl := range decls {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			panic(fmt.Sprintf("testutil.Vars: invalid declaration %q", decl))
		}
		vars[i] = dectree.VarDef{Name: parts[0], Type: parts[1]}
	}
	return vars
}

// Rules parses each of the provided rule texts.
func Rules(texts ...string) []rules.Rule {
	rs := make([]rules.Rule, len(texts))
	for i, text := range texts {
		rs[i] = rules.MustParse(text)
	}
	return rs
}

// Ratio and Bool are the types used by the fixtures below.
var (
	Ratio = Type("Ratio", "HIGH", "ramp(x1=0.0, x2=1.0)", "LOW", "inv_ramp(x1=0.0, x2=1.0)")
	Bool  = Type("Bool", "TRUE", "true()", "FALSE", "false()")
)

// Chain returns a definition with a single if/elif/else chain over
// the inputs a and b:
//
//	if a is HIGH:
//	    out = TRUE
//	elif b is HIGH:
//	    out = FALSE
//	else:
//	    out = TRUE
//
// With a = 0.8 and b = 0.3, out is 0.8 under the default algebra.
func Chain() *dectree.Definition {
	return &dectree.Definition{
		Types:   dectree.TypeDefs{Ratio, Bool},
		Inputs:  Vars("a:Ratio", "b:Ratio"),
		Outputs: Vars("out:Bool"),
		Rules: Rules(`if a is HIGH:
    out = TRUE
elif b is HIGH:
    out = FALSE
else:
    out = TRUE
`),
		Options: dectree.DefaultOptions(),
	}
}

// Sediment returns a definition modeled on an intertidal flat
// classifier: it has a derived variable, nested branches, and two
// rules that contribute to the same output.
func Sediment() *dectree.Definition {
	return &dectree.Definition{
		Types: dectree.TypeDefs{
			Type("Radiance",
				"LOW", "lt(0.05, dx=0.01)",
				"MEDIUM", "triangular(x1=0.05, x2=0.1, x3=0.15)",
				"HIGH", "gt(0.1, dx=0.02)"),
			Type("Glint", "LOW", "inv_ramp(x1=0.0, x2=0.5)", "HIGH", "ramp(x1=0.5, x2=1.0)"),
			Type("Index", "WATER", "gt(0.2, dx=0.05)", "LAND", "le(0.2, dx=0.05)"),
			Bool,
		},
		Inputs:  Vars("b1:Radiance", "b2:Radiance", "glint:Glint"),
		Outputs: Vars("sediment:Bool", "water:Bool", "ndwi:Index"),
		Derived: []dectree.DerivedDef{
			{Name: "ndwi", Type: "Index", Expr: "(b2 - b1) / (b2 + b1)"},
		},
		Rules: Rules(`if ndwi is WATER:
    if glint is HIGH or b1 is HIGH:
        water = TRUE
        sediment = FALSE
    else:
        water = TRUE
        sediment = TRUE
elif b1 is MEDIUM and not b2 is LOW:
    water = FALSE
    sediment = TRUE
else:
    water = FALSE
`, `if glint is LOW and ndwi is LAND:
    sediment = FALSE
`),
		Options: dectree.DefaultOptions(),
	}
}
