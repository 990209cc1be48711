// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dectree

import (
	goerrors "errors"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/rules"
)

// BuiltinTypes are the scalar types that variables may have without
// a type definition. They have no properties.
var BuiltinTypes = map[string]bool{
	"float":   true,
	"int":     true,
	"boolean": true,
}

// Prop is a named property of a type.
type Prop struct {
	Name string
	Def  *membership.PropertyDef
}

// TypeDef is a type: an ordered set of properties.
type TypeDef struct {
	Name  string
	Props []Prop
}

// Prop returns the named property of type t.
func (t *TypeDef) Prop(name string) (*membership.PropertyDef, bool) {
	for _, p := range t.Props {
		if p.Name == name {
			return p.Def, true
		}
	}
	return nil, false
}

// TypeDefs is an ordered list of type definitions.
type TypeDefs []*TypeDef

// Lookup returns the named type.
func (ts TypeDefs) Lookup(name string) (*TypeDef, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// VarDef declares a variable of a type.
type VarDef struct {
	Name, Type string
}

// VarDefs is an ordered list of variable declarations.
type VarDefs []VarDef

// Lookup returns the type of the named variable.
func (vs VarDefs) Lookup(name string) (string, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v.Type, true
		}
	}
	return "", false
}

// Names returns the variable names in declaration order.
func (vs VarDefs) Names() []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

// DerivedDef is a derived variable: an output computed from an
// arithmetic expression over other variables, before any rule is
// evaluated.
type DerivedDef struct {
	Name, Type string
	Expr       string
}

// Definition is a fuzzy decision tree.
type Definition struct {
	Types   TypeDefs
	Inputs  VarDefs
	Outputs VarDefs
	Derived []DerivedDef
	Rules   []rules.Rule
	Options Options
}

// AllOutputs returns the outputs of the definition followed by the
// derived variables that are not declared as outputs.
func (d *Definition) AllOutputs() VarDefs {
	outputs := append(VarDefs(nil), d.Outputs...)
	for _, v := range d.Derived {
		if _, ok := outputs.Lookup(v.Name); !ok {
			outputs = append(outputs, VarDef{v.Name, v.Type})
		}
	}
	return outputs
}

// Errors returned by Validate for missing sections.
var (
	ErrNoTypes   = goerrors.New("no types defined")
	ErrNoInputs  = goerrors.New("no inputs defined")
	ErrNoOutputs = goerrors.New("no outputs defined")
	ErrNoRules   = goerrors.New("no rules defined")
)

// Validate checks the structure of the definition: every section is
// present, every variable is declared once and has a defined type,
// and the options are valid. Validate does not look into rules or
// expressions.
func (d *Definition) Validate() error {
	switch {
	case len(d.Types) == 0:
		return errors.E("validate", errors.Invalid, ErrNoTypes)
	case len(d.Inputs) == 0:
		return errors.E("validate", errors.Invalid, ErrNoInputs)
	case len(d.Outputs) == 0:
		return errors.E("validate", errors.Invalid, ErrNoOutputs)
	case len(d.Rules) == 0:
		return errors.E("validate", errors.Invalid, ErrNoRules)
	}
	types := make(map[string]bool)
	for _, t := range d.Types {
		if types[t.Name] || BuiltinTypes[t.Name] {
			return errors.E("validate", errors.Invalid, errors.Errorf("type %q is defined more than once", t.Name))
		}
		types[t.Name] = true
		props := make(map[string]bool)
		for _, p := range t.Props {
			if props[p.Name] {
				return errors.E("validate", errors.Invalid,
					errors.Errorf("property %q of type %q is defined more than once", p.Name, t.Name))
			}
			props[p.Name] = true
		}
	}
	vars := make(map[string]bool)
	check := func(role string, name, typ string) error {
		if vars[name] {
			return errors.E("validate", errors.Invalid, errors.Errorf("%s %q is declared more than once", role, name))
		}
		vars[name] = true
		if !types[typ] && !BuiltinTypes[typ] {
			return errors.E("validate", errors.NotExist, errors.Errorf("type %q of variable %q is undefined", typ, name))
		}
		return nil
	}
	for _, v := range d.Inputs {
		if err := check("input", v.Name, v.Type); err != nil {
			return err
		}
	}
	for _, v := range d.Outputs {
		if err := check("output", v.Name, v.Type); err != nil {
			return err
		}
	}
	for _, v := range d.Derived {
		if typ, ok := d.Outputs.Lookup(v.Name); ok {
			if typ != v.Type {
				return errors.E("validate", errors.Invalid,
					errors.Errorf("derived variable %q has type %q but is declared as output of type %q", v.Name, v.Type, typ))
			}
			continue
		}
		if err := check("derived variable", v.Name, v.Type); err != nil {
			return err
		}
	}
	return d.Options.Validate()
}
