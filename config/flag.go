// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"github.com/grailbio/dectree"
	"github.com/spf13/pflag"
)

// Flag exposes a FlagSet that overrides a set of config keys.
type Flag struct {
	Config

	vals map[string]*string
}

// Init registers a flag on the provided flag set for each key in
// AllKeys and for each option key. Option flags use dashes where the
// keys use underscores, e.g. --and-pattern.
func (f *Flag) Init(flags *pflag.FlagSet) {
	f.vals = make(map[string]*string)
	for _, key := range AllKeys {
		f.vals[key] = flags.String(key, "", "override "+key+" from config")
	}
	for _, key := range dectree.OptionKeys() {
		if _, ok := f.vals[key]; ok {
			continue
		}
		f.vals[key] = flags.String(FlagName(key), "", dectree.OptionHelp(key))
	}
}

// FlagName returns the name of the flag that overrides key.
func FlagName(key string) string {
	b := []byte(key)
	for i := range b {
		if b[i] == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}

// Value returns the flag override value for key key, or else the
// value from the layered configuration.
func (f *Flag) Value(key string) interface{} {
	s := f.vals[key]
	if s != nil && *s != "" {
		return *s
	}
	return f.Config.Value(key)
}

// Options returns the options of the layered configuration,
// overridden by the option flags that were set.
func (f *Flag) Options() (dectree.Options, error) {
	opts, err := f.Config.Options()
	if err != nil {
		return opts, err
	}
	for key, s := range f.vals {
		if *s == "" || isProvisioned(key) {
			continue
		}
		if err := opts.Set(key, *s); err != nil {
			return opts, err
		}
	}
	return opts, nil
}
