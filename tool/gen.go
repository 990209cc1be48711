// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/dectree/codegen"
	"github.com/grailbio/dectree/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (c *Cmd) genCmd() *cobra.Command {
	var (
		out, pkg string
		stdout   bool
	)
	cmd := &cobra.Command{
		Use:   "gen [flags] definition...",
		Short: "Generate Go code from decision tree definitions",
		Long: `Gen compiles each definition and writes a Go source file that
implements it. The file for definition path/name.yaml is written
to name.go in the directory given by -out, by default the
definition's own directory. Definitions are compiled in parallel;
if any fails, gen exits with code 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdout && len(args) > 1 {
				return errors.E("gen", errors.Invalid, errors.New("-stdout requires a single definition"))
			}
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.NumCPU())
			srcs := make([][]byte, len(args))
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					src, err := c.gen(ctx, path, pkg)
					if err != nil {
						return err
					}
					if stdout {
						srcs[i] = src
						return nil
					}
					return c.write(ctx, outPath(path, out), src)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, src := range srcs {
				if _, err := c.Stdout.Write(src); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "", "output directory")
	flags.StringVar(&pkg, "package", "", `package name of the generated code (default "rules")`)
	flags.BoolVar(&stdout, "stdout", false, "write the generated code to standard output")
	return cmd
}

// gen compiles the definition at path and renders it.
func (c *Cmd) gen(ctx context.Context, path, pkg string) ([]byte, error) {
	_, p, err := c.compile(ctx, path)
	if err != nil {
		return nil, err
	}
	src, err := codegen.Generate(p, codegen.Options{Package: pkg, Source: filepath.Base(path)})
	if err != nil {
		return nil, errors.E(path, err)
	}
	return src, nil
}

// outPath returns the path of the Go file generated from the
// definition at path.
func outPath(path, dir string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".go"
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, name)
}

// write writes data to the file at path.
func (c *Cmd) write(ctx context.Context, path string, data []byte) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E("write", path, err)
	}
	defer file.CloseAndReport(ctx, f, &err)
	if _, err := f.Writer(ctx).Write(data); err != nil {
		return errors.E("write", path, err)
	}
	c.Log.Printf("wrote %s", path)
	return nil
}
