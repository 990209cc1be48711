// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/fuzzy"
)

func init() {
	for _, name := range fuzzy.Names() {
		a, _ := fuzzy.Lookup(name)
		Register(Algebra, name, "", `fuzzy operators: not "`+a.NotTemplate+`", and "`+a.AndTemplate+`", or "`+a.OrTemplate+`"`,
			func(cfg Config, arg string) (Config, error) {
				if arg != "" {
					return nil, errors.Errorf("unexpected argument %q", arg)
				}
				return &algebra{cfg, a}, nil
			},
		)
	}
}

// algebra sets the operator templates of the options from a
// predefined algebra. Patterns given explicitly take precedence.
type algebra struct {
	Config
	a *fuzzy.TemplateAlgebra
}

func (c *algebra) Options() (dectree.Options, error) {
	opts, err := c.Config.Options()
	if err != nil {
		return opts, err
	}
	for _, p := range []struct {
		key, template string
		field         *string
	}{
		{dectree.KeyNotPattern, c.a.NotTemplate, &opts.Not},
		{dectree.KeyAndPattern, c.a.AndTemplate, &opts.And},
		{dectree.KeyOrPattern, c.a.OrTemplate, &opts.Or},
	} {
		if c.Value(p.key) == nil {
			*p.field = p.template
		}
	}
	return opts, nil
}
