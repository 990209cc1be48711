// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package tool implements the dectree command.
package tool

import (
	"context"
	"fmt"
	"io"
	golog "log"
	"os"
	"os/signal"

	"github.com/grailbio/base/file"
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/compile"
	"github.com/grailbio/dectree/config"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/log"
	"github.com/grailbio/dectree/source"
	"github.com/spf13/cobra"
)

// Cmd holds the configuration, flag definitions, and runtime objects
// required for tool invocations.
type Cmd struct {
	// Config is the base configuration. It is layered under the
	// configuration file and the command line flags. If nil, an
	// empty config.Base is used.
	Config config.Config
	// DefaultConfigFile is read when no -config flag is given. It
	// need not exist.
	DefaultConfigFile string
	Version           string

	// ConfigFile stores the path of the active configuration file.
	// May be overriden by the -config flag.
	ConfigFile string

	// The standard output and error as defined by this command.
	Stdout, Stderr io.Writer

	Log *log.Logger

	flag    config.Flag
	logFlag string
}

var intro = `The dectree command compiles fuzzy decision trees into Go code.

A decision tree is defined in a YAML document with the sections
types, inputs, outputs, derived, rules, and options. Types name
fuzzy properties and their membership functions; rules assign
properties to outputs under conditions over the inputs:

	if ndwi is WATER and not glint is HIGH:
	    water = TRUE

Compilation options (the fuzzy algebra, vectorization, generated
names) are taken, in order of precedence, from the document's
options section, command line flags, and the configuration file,
by default ` + "`$HOME/.dectree/config.yaml`" + `. The configuration is a
YAML document whose keys are option names, plus the keys logger
and algebra:

	logger: stderr,debug
	algebra: product
	parameterize: true`

// Command returns the root command of the tool. Main executes it with
// the process arguments.
func (c *Cmd) Command() *cobra.Command {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.ConfigFile == "" {
		c.ConfigFile = c.DefaultConfigFile
	}
	root := &cobra.Command{
		Use:           "dectree",
		Short:         "Compile fuzzy decision trees into Go code",
		Long:          intro,
		Version:       c.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
	}
	root.SetOut(c.Stdout)
	root.SetErr(c.Stderr)
	flags := root.PersistentFlags()
	flags.StringVar(&c.ConfigFile, "config", c.ConfigFile, "configuration file")
	flags.StringVar(&c.logFlag, "log", "", "log level: off, error, info, or debug; overrides the configured logger")
	c.flag.Init(flags)

	root.AddCommand(
		c.genCmd(),
		c.checkCmd(),
		c.describeCmd(),
		c.evalCmd(),
		c.fmtCmd(),
		c.configCmd(),
	)
	return root
}

// init layers the configuration: the base config, the configuration
// file, and the flags, in increasing order of precedence.
func (c *Cmd) init(ctx context.Context) error {
	keys := make(config.Keys)
	if c.Config != nil {
		if err := c.Config.Marshal(keys); err != nil {
			return err
		}
	}
	if c.ConfigFile != "" {
		b, err := file.ReadFile(ctx, c.ConfigFile)
		switch {
		case err == nil:
			if err := config.Unmarshal(b, keys); err != nil {
				return errors.E("config", c.ConfigFile, errors.Syntax, err)
			}
		case !exists(c.ConfigFile):
			if c.ConfigFile != c.DefaultConfigFile {
				return errors.E("config", c.ConfigFile, errors.NotExist, err)
			}
		default:
			return errors.E("config", c.ConfigFile, err)
		}
	}
	c.flag.Config = config.Base(keys)
	cfg, err := config.Make(&c.flag)
	if err != nil {
		return err
	}
	c.Config = config.Once(cfg)

	switch c.logFlag {
	case "":
		if c.Log, err = c.Config.Logger(); err != nil {
			return err
		}
	default:
		level, err := log.ParseLevel(c.logFlag)
		if err != nil {
			return err
		}
		c.Log = log.New(golog.New(c.Stderr, "", golog.LstdFlags), level)
	}
	c.Log.Debugf("dectree version %s", c.version())
	return nil
}

// exists tells whether the local file at path exists.
func exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func (c *Cmd) version() string {
	if c.Version == "" {
		return "(devel)"
	}
	return c.Version
}

// Main executes the command named by the process arguments and exits.
// It should be called only once.
func (c *Cmd) Main() {
	root := c.Command()
	// Cancel the context on the first interrupt. The second interrupt
	// results in a hard exit.
	ctx, cancel := context.WithCancel(context.Background())
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		cancel()
		fmt.Fprintln(c.Stderr, "cleaning up...")
		<-sigc
		os.Exit(1)
	}()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(c.Stderr, err)
		os.Exit(1)
	}
}

// options returns the configured compilation defaults.
func (c *Cmd) options() (dectree.Options, error) {
	return c.Config.Options()
}

// load loads and validates the definition at path.
func (c *Cmd) load(ctx context.Context, path string) (*dectree.Definition, error) {
	defaults, err := c.options()
	if err != nil {
		return nil, err
	}
	def, err := source.LoadFile(ctx, path, defaults)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, errors.E(path, err)
	}
	return def, nil
}

// compile loads and compiles the definition at path.
func (c *Cmd) compile(ctx context.Context, path string) (*dectree.Definition, *compile.Program, error) {
	def, err := c.load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	logger := c.Log.Prefix(path + ": ")
	compiler := &compile.Compiler{Log: logger}
	p, err := compiler.Compile(def)
	if err != nil {
		return nil, nil, errors.E(path, err)
	}
	logger.Debugf("compiled %d instructions, digest %s", len(p.Instrs), p.Digest)
	return def, p, nil
}
