// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"encoding/json"
	"fmt"

	"github.com/grailbio/dectree/errors"
	"github.com/spf13/cobra"
)

// checkResult is the outcome of checking a single definition.
type checkResult struct {
	Path string `json:"path"`
	OK   bool   `json:"ok"`
	// Kind is the kind of the error, e.g. "Syntax".
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	Digest string `json:"digest,omitempty"`
	Instrs int    `json:"instrs,omitempty"`
}

func (c *Cmd) checkCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check [flags] definition...",
		Short: "Check decision tree definitions",
		Long: `Check loads and compiles the provided definitions and prints the
errors encountered. If any definition fails to compile, check exits
with code 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				results = make([]checkResult, len(args))
				failed  int
			)
			for i, path := range args {
				r := checkResult{Path: path, OK: true}
				_, p, err := c.compile(cmd.Context(), path)
				if err != nil {
					r.OK = false
					r.Error = err.Error()
					if kind := errors.Recover(err).Kind; kind != errors.Other {
						r.Kind = kind.Name()
					}
					failed++
				} else {
					r.Digest = p.Digest.String()
					r.Instrs = len(p.Instrs)
				}
				results[i] = r
			}
			if asJSON {
				enc := json.NewEncoder(c.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.OK {
						c.Log.Printf("%s: ok (%d instructions)", r.Path, r.Instrs)
						continue
					}
					fmt.Fprintln(c.Stderr, r.Error)
				}
			}
			if failed > 0 {
				return errors.E("check", errors.Errorf("%d of %d definitions failed", failed, len(args)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	return cmd
}
