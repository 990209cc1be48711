// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/compile"
	"github.com/grailbio/dectree/syntax"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func (c *Cmd) describeCmd() *cobra.Command {
	var markdown, program bool
	cmd := &cobra.Command{
		Use:   "describe [flags] definition",
		Short: "Describe a decision tree definition",
		Long: `Describe prints tables of the types, properties, and variables of
a definition and of its effective options. With -program, describe
also prints the compiled instructions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, p, err := c.compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			render := func(t table.Writer) {
				if markdown {
					fmt.Fprintln(c.Stdout, t.RenderMarkdown())
				} else {
					fmt.Fprintln(c.Stdout, t.Render())
				}
				fmt.Fprintln(c.Stdout)
			}
			render(typeTable(def))
			render(varTable(def))
			opts, err := optionTable(def.Options)
			if err != nil {
				return err
			}
			render(opts)
			if program {
				render(programTable(p))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&markdown, "markdown", false, "render the tables as Markdown")
	flags.BoolVar(&program, "program", false, "print the compiled instructions")
	return cmd
}

func newTable(title string, header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row(header))
	return t
}

func typeTable(def *dectree.Definition) table.Writer {
	t := newTable("Types", "Type", "Property", "Membership function", "Parameters")
	for _, typ := range def.Types {
		for _, p := range typ.Props {
			params := make([]string, len(p.Def.Params))
			for i, param := range p.Def.Params {
				params[i] = param.Name + "=" + syntax.FormatConst(param.Value)
			}
			t.AppendRow(table.Row{typ.Name, p.Name, p.Def.Kind, strings.Join(params, ", ")})
		}
		t.AppendSeparator()
	}
	return t
}

func varTable(def *dectree.Definition) table.Writer {
	t := newTable("Variables", "Variable", "Role", "Type", "Expression")
	for _, v := range def.Inputs {
		t.AppendRow(table.Row{v.Name, "input", v.Type, ""})
	}
	derived := make(map[string]string)
	for _, d := range def.Derived {
		derived[d.Name] = d.Expr
	}
	for _, v := range def.AllOutputs() {
		role := "output"
		expr, ok := derived[v.Name]
		if ok {
			role = "derived"
		}
		t.AppendRow(table.Row{v.Name, role, v.Type, expr})
	}
	return t
}

func optionTable(opts dectree.Options) (table.Writer, error) {
	t := newTable("Options", "Option", "Value")
	for _, key := range dectree.OptionKeys() {
		if key == dectree.KeyAlgebra {
			continue
		}
		v, err := opts.Get(key)
		if err != nil {
			return nil, err
		}
		t.AppendRow(table.Row{key, v})
	}
	return t, nil
}

func programTable(p *compile.Program) table.Writer {
	t := newTable(fmt.Sprintf("Program %s", p.Digest.Short()), "#", "Kind", "Target", "Expression", "Source")
	for i, in := range p.Instrs {
		t.AppendRow(table.Row{i, in.Kind, in.Target, in.Expr, indent(in.Source, in.Depth)})
	}
	return t
}

func indent(s string, depth int) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("  ", depth) + s
}

// printValues prints name-value pairs, either as a table or as
// "name = value" lines.
func printValues(w io.Writer, asTable bool, names []string, values []string) {
	if !asTable {
		for i, name := range names {
			fmt.Fprintf(w, "%s = %s\n", name, values[i])
		}
		return
	}
	t := newTable("", "Output", "Value")
	for i, name := range names {
		t.AppendRow(table.Row{name, values[i]})
	}
	fmt.Fprintln(w, t.Render())
}
