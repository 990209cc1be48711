// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/config"
	"github.com/spf13/cobra"
)

func (c *Cmd) configCmd() *cobra.Command {
	var (
		header = `Config writes the current dectree configuration to standard
output.

The configuration is a YAML file with the following toplevel keys:

`
		footer = `
The configuration may be modified and used instead of the default:

	$ dectree config > myconfig
	<edit myconfig>
	$ dectree --config myconfig ...`
		effective bool
	)
	// Construct a help string from the available providers and
	// options.
	b := new(bytes.Buffer)
	b.WriteString(header)
	help := config.Help()
	keys := append([]string(nil), config.AllKeys...)
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, "%s:\n", key)
		for _, u := range help[key] {
			var arg string
			if u.Arg != "" {
				arg = "," + u.Arg
			}
			fmt.Fprintf(b, "\t%s%s\n\t\t%s\n", u.Kind, arg, u.Usage)
		}
	}
	for _, key := range dectree.OptionKeys() {
		if key == dectree.KeyAlgebra {
			continue
		}
		fmt.Fprintf(b, "%s:\n\t%s\n", key, dectree.OptionHelp(key))
	}
	b.WriteString(footer)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration",
		Long:  b.String(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if effective {
				opts, err := c.options()
				if err != nil {
					return err
				}
				t, err := optionTable(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.Stdout, t.Render())
				return nil
			}
			data, err := config.Marshal(c.Config)
			if err != nil {
				return err
			}
			_, err = c.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&effective, "options", false, "print the effective compilation options instead")
	return cmd
}
