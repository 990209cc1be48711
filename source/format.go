// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package source

import (
	"bytes"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"gopkg.in/yaml.v3"
)

// Format renders def as a YAML document that Load accepts. Rules are
// rendered as indented text. Options are written only where they
// differ from defaults; operator patterns are always written
// explicitly, never as an algebra.
func Format(def *dectree.Definition, defaults dectree.Options) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if len(def.Types) > 0 {
		types := &yaml.Node{Kind: yaml.MappingNode}
		for _, t := range def.Types {
			props := &yaml.Node{Kind: yaml.MappingNode}
			for _, p := range t.Props {
				add(props, p.Name, scalar(p.Def.Decl))
			}
			add(types, t.Name, props)
		}
		add(root, "types", types)
	}
	for _, section := range []struct {
		name string
		vars dectree.VarDefs
	}{
		{"inputs", def.Inputs},
		{"outputs", def.Outputs},
	} {
		if len(section.vars) == 0 {
			continue
		}
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, v := range section.vars {
			list.Content = append(list.Content, entry(v.Name, v.Type))
		}
		add(root, section.name, list)
	}
	if len(def.Derived) > 0 {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, d := range def.Derived {
			list.Content = append(list.Content, entry(d.Name+" = "+d.Expr, d.Type))
		}
		add(root, "derived", list)
	}
	if len(def.Rules) > 0 {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, r := range def.Rules {
			list.Content = append(list.Content, &yaml.Node{
				Kind:  yaml.ScalarNode,
				Style: yaml.LiteralStyle,
				Value: r.String(),
			})
		}
		add(root, "rules", list)
	}
	options := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range dectree.OptionKeys() {
		if key == dectree.KeyAlgebra {
			continue
		}
		v, err := def.Options.Get(key)
		if err != nil {
			return nil, errors.E("format", err)
		}
		w, err := defaults.Get(key)
		if err != nil {
			return nil, errors.E("format", err)
		}
		if v != w {
			add(options, key, scalar(v))
		}
	}
	if len(options.Content) > 0 {
		add(root, "options", options)
	}

	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, errors.E("format", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.E("format", err)
	}
	return b.Bytes(), nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func add(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}

func entry(key, value string) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add(m, key, scalar(value))
	return m
}
