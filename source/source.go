// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package source loads decision tree definitions from YAML
// documents of the form:
//
//	types:
//	  Radiance:
//	    LOW: lt(0.05, dx=0.01)
//	    HIGH: gt(0.1, dx=0.02)
//	  Bool:
//	    TRUE: true()
//	    FALSE: false()
//	inputs:
//	  - b1: Radiance
//	  - b2: Radiance
//	outputs:
//	  - sediment: Bool
//	derived:
//	  - ratio = b1 / b2: float
//	rules:
//	  - |
//	    if b1 is HIGH and b2 is LOW:
//	        sediment = TRUE
//	    else:
//	        sediment = FALSE
//	options:
//	  parameterize: true
//
// Types, properties and variables keep their declaration order.
// Rules may be given as indented text or as nested lists.
package source

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/rules"
	"gopkg.in/yaml.v3"
)

type document struct {
	Types   yaml.Node   `yaml:"types"`
	Inputs  yaml.Node   `yaml:"inputs"`
	Outputs yaml.Node   `yaml:"outputs"`
	Derived yaml.Node   `yaml:"derived"`
	Rules   []yaml.Node `yaml:"rules"`
	Options yaml.Node   `yaml:"options"`
}

// loader accumulates the definition and names the source in errors.
type loader struct {
	name string
	def  *dectree.Definition
}

func (l *loader) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return errors.E("load", l.pos(n), errors.Syntax, errors.Errorf(format, args...))
}

func (l *loader) pos(n *yaml.Node) string {
	return fmt.Sprintf("%s:%d:%d", l.name, n.Line, n.Column)
}

// Load reads a definition from r. The name is used in error
// messages. Options not given in the document take their values
// from defaults. Load does not validate the definition; see
// dectree.Definition.Validate.
func Load(r io.Reader, name string, defaults dectree.Options) (*dectree.Definition, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.E("load", name, err)
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.E("load", name, errors.Syntax, err)
	}
	l := &loader{name: name, def: &dectree.Definition{Options: defaults}}
	if err := l.types(&doc.Types); err != nil {
		return nil, err
	}
	if l.def.Inputs, err = l.vars(&doc.Inputs, "inputs"); err != nil {
		return nil, err
	}
	if l.def.Outputs, err = l.vars(&doc.Outputs, "outputs"); err != nil {
		return nil, err
	}
	if err := l.derived(&doc.Derived); err != nil {
		return nil, err
	}
	for i := range doc.Rules {
		if err := l.rule(&doc.Rules[i]); err != nil {
			return nil, err
		}
	}
	if err := l.options(&doc.Options); err != nil {
		return nil, err
	}
	return l.def, nil
}

// LoadFile loads the definition at path, which may be any path
// supported by package github.com/grailbio/base/file.
func LoadFile(ctx context.Context, path string, defaults dectree.Options) (def *dectree.Definition, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E("load", path, err)
	}
	defer file.CloseAndReport(ctx, f, &err)
	return Load(f.Reader(ctx), path, defaults)
}

// pairs returns the key and value nodes of a mapping node. Null
// nodes (absent sections) have no pairs.
func (l *loader) pairs(n *yaml.Node, what string) ([][2]*yaml.Node, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
	case yaml.MappingNode:
		p := make([][2]*yaml.Node, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			p = append(p, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
		}
		return p, nil
	}
	return nil, l.errorf(n, "%s must be a mapping", what)
}

// entries returns the pairs of a list of single-entry mappings. A
// plain mapping is accepted too.
func (l *loader) entries(n *yaml.Node, what string) ([][2]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return l.pairs(n, what)
	}
	var p [][2]*yaml.Node
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, l.errorf(item, "%s entries must be of the form \"name: type\"", what)
		}
		p = append(p, [2]*yaml.Node{item.Content[0], item.Content[1]})
	}
	return p, nil
}

func (l *loader) scalar(n *yaml.Node, what string) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", l.errorf(n, "%s must be a scalar", what)
	}
	return strings.TrimSpace(n.Value), nil
}

func (l *loader) types(n *yaml.Node) error {
	types, err := l.pairs(n, "types")
	if err != nil {
		return err
	}
	for _, t := range types {
		name, err := l.scalar(t[0], "type name")
		if err != nil {
			return err
		}
		td := &dectree.TypeDef{Name: name}
		props, err := l.pairs(t[1], fmt.Sprintf("type %q", name))
		if err != nil {
			return err
		}
		for _, p := range props {
			prop, err := l.scalar(p[0], "property name")
			if err != nil {
				return err
			}
			decl, err := l.scalar(p[1], "property value")
			if err != nil {
				return err
			}
			def, err := membership.Parse(decl)
			if err != nil {
				return errors.E("load", l.pos(p[1]), name+"."+prop, err)
			}
			td.Props = append(td.Props, dectree.Prop{Name: prop, Def: def})
		}
		l.def.Types = append(l.def.Types, td)
	}
	return nil
}

func (l *loader) vars(n *yaml.Node, what string) (dectree.VarDefs, error) {
	entries, err := l.entries(n, what)
	if err != nil {
		return nil, err
	}
	var vars dectree.VarDefs
	for _, e := range entries {
		name, err := l.scalar(e[0], "variable name")
		if err != nil {
			return nil, err
		}
		typ, err := l.scalar(e[1], "variable type")
		if err != nil {
			return nil, err
		}
		vars = append(vars, dectree.VarDef{Name: name, Type: typ})
	}
	return vars, nil
}

func (l *loader) derived(n *yaml.Node) error {
	entries, err := l.entries(n, "derived")
	if err != nil {
		return err
	}
	for _, e := range entries {
		assign, err := l.scalar(e[0], "derived variable")
		if err != nil {
			return err
		}
		typ, err := l.scalar(e[1], "derived variable type")
		if err != nil {
			return err
		}
		parts := strings.SplitN(assign, "=", 2)
		if len(parts) != 2 {
			return l.errorf(e[0], "derived variable %q must be of the form \"name = expression\"", assign)
		}
		l.def.Derived = append(l.def.Derived, dectree.DerivedDef{
			Name: strings.TrimSpace(parts[0]),
			Type: typ,
			Expr: strings.TrimSpace(parts[1]),
		})
	}
	return nil
}

func (l *loader) rule(n *yaml.Node) error {
	var value interface{}
	if err := n.Decode(&value); err != nil {
		return errors.E("load", l.pos(n), errors.Syntax, err)
	}
	r, err := rules.Parse(value)
	if err != nil {
		return errors.E("load", l.pos(n), err)
	}
	l.def.Rules = append(l.def.Rules, r)
	return nil
}

// options applies the options of the document. The algebra option
// is applied first, so that explicit operator patterns override it.
func (l *loader) options(n *yaml.Node) error {
	pairs, err := l.pairs(n, "options")
	if err != nil {
		return err
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i][0].Value == dectree.KeyAlgebra && pairs[j][0].Value != dectree.KeyAlgebra
	})
	for _, p := range pairs {
		key, err := l.scalar(p[0], "option name")
		if err != nil {
			return err
		}
		value, err := l.scalar(p[1], "option value")
		if err != nil {
			return err
		}
		if err := l.def.Options.Set(key, value); err != nil {
			return errors.E("load", l.pos(p[0]), err)
		}
	}
	return nil
}
