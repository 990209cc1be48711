// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"bytes"
	"context"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/rules"
	"github.com/grailbio/dectree/source"
	"github.com/grailbio/dectree/syntax"
	"github.com/grailbio/dectree/syntax/exprfmt"
	"github.com/spf13/cobra"
)

func (c *Cmd) fmtCmd() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "fmt [flags] definition...",
		Short: "Format decision tree definitions",
		Long: `Fmt rewrites definitions in canonical form and writes them to
standard output. Rules are written as indented text; conditions and
derived expressions are written with canonical spacing and minimal
parentheses. Options equal to the configured defaults are omitted.

As a self-test, the formatted definition is loaded again and
compared with the original; if they differ, fmt fails. Please
report such cases as bugs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				b, err := c.format(cmd.Context(), path)
				if err != nil {
					return err
				}
				if overwrite {
					if err := c.write(cmd.Context(), path, b); err != nil {
						return err
					}
					continue
				}
				if _, err := c.Stdout.Write(b); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&overwrite, "write", "w", false, "write result to (source) file instead of stdout")
	return cmd
}

// format renders the definition at path in canonical form and
// verifies the result.
func (c *Cmd) format(ctx context.Context, path string) ([]byte, error) {
	defaults, err := c.options()
	if err != nil {
		return nil, err
	}
	def, err := source.LoadFile(ctx, path, defaults)
	if err != nil {
		return nil, err
	}
	orig, err := exprs(def)
	if err != nil {
		return nil, errors.E("fmt", path, err)
	}
	if err := canonicalize(def); err != nil {
		return nil, errors.E("fmt", path, err)
	}
	b, err := source.Format(def, defaults)
	if err != nil {
		return nil, errors.E("fmt", path, err)
	}

	formatted, err := source.Load(bytes.NewReader(b), path, defaults)
	if err != nil {
		return nil, errors.E("fmt", path, errors.Errorf("formatted definition is invalid: %v", err))
	}
	if formatted.Digest() != def.Digest() {
		return nil, errors.E("fmt", path, errors.New("formatted definition differs from the original"))
	}
	got, err := exprs(formatted)
	if err != nil {
		return nil, errors.E("fmt", path, err)
	}
	for i := range orig {
		if !got[i].Equal(orig[i]) {
			return nil, errors.E("fmt", path, errors.Errorf("formatted expression %s differs from %s", got[i], orig[i]))
		}
	}
	return b, nil
}

// exprs returns the parsed conditions and derived expressions of
// def, in a fixed order.
func exprs(def *dectree.Definition) ([]*syntax.Expr, error) {
	var (
		list []*syntax.Expr
		err  error
	)
	add := func(src string) {
		if err != nil {
			return
		}
		var e *syntax.Expr
		if e, err = syntax.ParseExpr(src); err == nil {
			list = append(list, e)
		}
	}
	for _, d := range def.Derived {
		add(d.Expr)
	}
	for _, r := range def.Rules {
		rules.Walk(r, func(s rules.Stmt) {
			switch s := s.(type) {
			case *rules.If:
				add(s.Cond)
			case *rules.Elif:
				add(s.Cond)
			}
		})
	}
	return list, err
}

// canonicalize rewrites the conditions and derived expressions of def
// in canonical form.
func canonicalize(def *dectree.Definition) error {
	var err error
	format := func(src *string) {
		if err != nil {
			return
		}
		var s string
		if s, err = exprfmt.Format(*src); err == nil {
			*src = s
		}
	}
	for i := range def.Derived {
		format(&def.Derived[i].Expr)
	}
	for _, r := range def.Rules {
		rules.Walk(r, func(s rules.Stmt) {
			switch s := s.(type) {
			case *rules.If:
				format(&s.Cond)
			case *rules.Elif:
				format(&s.Cond)
			}
		})
	}
	return err
}
