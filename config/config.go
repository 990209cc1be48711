// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package config layers the settings of the dectree tool: a YAML
// configuration file, overridden by command line flags, in turn
// overridden by the options section of each definition.
//
// Toplevel keys either name a compilation option of package dectree
// (func_name, and_pattern, vectorize, ...) or are provisioned by a
// registered provider. Provider keys, listed in AllKeys, take a
// string value: the provider name, optionally followed by a comma and
// an argument.
//
//	logger: stderr,debug
//	algebra: product
//	parameterize: true
//
// logs debug messages to standard error, compiles conditions with the
// product algebra, and parameterizes generated code.
package config

import (
	"context"
	"fmt"
	golog "log"
	"os"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/log"
	yaml "gopkg.in/yaml.v2"
)

// Keys provisioned by registered providers.
const (
	Logger  = "logger"
	Algebra = dectree.KeyAlgebra
)

// AllKeys lists the provider keys in provisioning order: the logger
// is configured before the algebra, so that later providers may log.
var AllKeys = []string{
	Logger,
	Algebra,
}

// DefaultPath returns the path of the user's configuration file.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.dectree/config.yaml")
}

// Keys holds the toplevel keys of a configuration document.
type Keys map[string]interface{}

// A Config provides the compilation defaults and the logger of the
// dectree tool. It is safe to call each method multiple times, but
// they should not be called concurrently.
type Config interface {
	// Options returns the configured compilation options.
	Options() (dectree.Options, error)

	// Logger returns the logger of the tool; nil means off.
	Logger() (*log.Logger, error)

	// Value returns the raw value of key, or nil.
	Value(key string) interface{}

	// Marshal writes the configuration's keys into keys.
	Marshal(keys Keys) error

	// Keys returns the keys set in this configuration layer.
	Keys() Keys
}

// Base is the bottom configuration layer: a plain key map with
// default options and an info-level stderr logger.
type Base Keys

// Options returns the default options, overridden by the option
// keys present in the configuration.
func (b Base) Options() (dectree.Options, error) {
	return ApplyOptions(b, dectree.DefaultOptions())
}

// Logger logs to standard error at InfoLevel.
func (b Base) Logger() (*log.Logger, error) {
	return log.New(golog.New(os.Stderr, "", golog.LstdFlags), log.InfoLevel), nil
}

// Keys returns b itself.
func (b Base) Keys() Keys {
	return Keys(b)
}

// Value looks up key in b.
func (b Base) Value(key string) interface{} {
	return b[key]
}

// Marshal copies b into keys.
func (b Base) Marshal(keys Keys) error {
	for k, v := range b {
		keys[k] = v
	}
	return nil
}

// ApplyOptions sets the option keys of cfg on opts. Keys
// provisioned by providers are skipped, as are keys without a value.
func ApplyOptions(cfg Config, opts dectree.Options) (dectree.Options, error) {
	for _, key := range dectree.OptionKeys() {
		if isProvisioned(key) {
			continue
		}
		v := cfg.Value(key)
		if v == nil {
			continue
		}
		// YAML 1.1 reads "vectorize: off" as a boolean.
		if b, ok := v.(bool); ok && key == dectree.KeyVectorize && !b {
			v = dectree.VectorizeOff.String()
		}
		if err := opts.Set(key, fmt.Sprint(v)); err != nil {
			return opts, errors.E("config", err)
		}
	}
	return opts, nil
}

func isProvisioned(key string) bool {
	for _, k := range AllKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Unmarshal decodes the YAML document b into keys.
func Unmarshal(b []byte, keys Keys) error {
	return yaml.Unmarshal(b, keys)
}

// Marshal renders the keys of cfg as a YAML document.
func Marshal(cfg Config) ([]byte, error) {
	keys := make(Keys)
	if err := cfg.Marshal(keys); err != nil {
		return nil, err
	}
	return yaml.Marshal(keys)
}

// Make provisions cfg: each key of AllKeys that has a value is handed
// to its provider, in order, and each provider wraps the configuration
// built so far. Keys that are neither provider keys nor option keys
// are rejected as NotExist.
func Make(cfg Config) (Config, error) {
	for key := range cfg.Keys() {
		if !isProvisioned(key) && dectree.OptionHelp(key) == "" {
			return nil, errors.E("config", key, errors.NotExist, errors.New("unknown key"))
		}
	}
	for _, key := range AllKeys {
		v := cfg.Value(key)
		if v == nil {
			continue
		}
		vstr, ok := v.(string)
		if !ok {
			return nil, errors.E("config", key, errors.Invalid, errors.Errorf("expected string, got %T", v))
		}
		name, arg, _ := strings.Cut(vstr, ",")
		provider, ok := Lookup(key, name)
		if !ok {
			return nil, errors.E("config", key, errors.NotExist, errors.Errorf("provider %s not defined", name))
		}
		var err error
		cfg, err = provider.Configure(cfg, arg)
		if err != nil {
			return nil, errors.E("config", key, errors.Errorf("configuring with provider %s: %v", name, err))
		}
	}
	return cfg, nil
}

// Parse decodes the YAML document b and provisions its keys.
func Parse(b []byte) (Config, error) {
	base := make(Base)
	if err := Unmarshal(b, Keys(base)); err != nil {
		return nil, errors.E("config", errors.Syntax, err)
	}
	return Make(base)
}

// ParseFile reads the configuration at path (any path understood by
// grailbio/base/file) and parses it.
func ParseFile(ctx context.Context, path string) (Config, error) {
	b, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E("config", path, err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, errors.E("config", path, err)
	}
	return cfg, nil
}
