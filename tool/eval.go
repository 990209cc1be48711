// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"strconv"
	"strings"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/eval"
	"github.com/spf13/cobra"
)

func (c *Cmd) evalCmd() *cobra.Command {
	var (
		params  []string
		asTable bool
	)
	cmd := &cobra.Command{
		Use:   "eval [flags] definition name=value...",
		Short: "Evaluate a decision tree",
		Long: `Eval compiles a definition and evaluates it for the inputs given as
name=value arguments. Every input must be given. An input value may
be a comma-separated list of numbers, in which case all inputs must
be lists of the same length and each output is a list of values.

Membership function parameters of parameterized definitions may be
overridden with -param Type_PROP_param=value.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := c.compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			e, err := eval.New(p)
			if err != nil {
				return errors.E(args[0], err)
			}
			paramValues, err := parseAssignments(params)
			if err != nil {
				return err
			}
			param := make(map[string]float64, len(paramValues))
			for name, v := range paramValues {
				if len(v) != 1 {
					return errors.E("eval", name, errors.Invalid, errors.New("parameter must be a single number"))
				}
				param[name] = v[0]
			}
			inputs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			vector := false
			for _, v := range inputs {
				vector = vector || len(v) != 1
			}
			names := make([]string, len(p.Outputs))
			values := make([]string, len(p.Outputs))
			if vector {
				outputs, err := e.RunArrays(inputs, param)
				if err != nil {
					return err
				}
				for i, f := range p.Outputs {
					names[i] = f.Name
					values[i] = formatFloats(outputs[f.Name])
				}
			} else {
				scalars := make(map[string]float64, len(inputs))
				for name, v := range inputs {
					scalars[name] = v[0]
				}
				outputs, err := e.Run(scalars, param)
				if err != nil {
					return err
				}
				for i, f := range p.Outputs {
					names[i] = f.Name
					values[i] = formatFloats([]float64{outputs[f.Name]})
				}
			}
			printValues(c.Stdout, asTable, names, values)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&params, "param", nil, "override a membership function parameter (name=value)")
	flags.BoolVar(&asTable, "table", false, "print the outputs as a table")
	return cmd
}

// parseAssignments parses name=value arguments. Values are
// comma-separated lists of numbers.
func parseAssignments(args []string) (map[string][]float64, error) {
	m := make(map[string][]float64, len(args))
	for _, arg := range args {
		i := strings.Index(arg, "=")
		if i <= 0 {
			return nil, errors.E("eval", arg, errors.Invalid, errors.New("expected name=value"))
		}
		name := strings.TrimSpace(arg[:i])
		if _, ok := m[name]; ok {
			return nil, errors.E("eval", name, errors.Invalid, errors.New("value given more than once"))
		}
		var values []float64
		for _, s := range strings.Split(arg[i+1:], ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, errors.E("eval", name, errors.Invalid, err)
			}
			values = append(values, v)
		}
		m[name] = values
	}
	return m, nil
}

func formatFloats(x []float64) string {
	s := make([]string, len(x))
	for i, v := range x {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(s, ",")
}
