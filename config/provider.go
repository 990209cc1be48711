// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"sort"
	"sync"
)

// A Provider provisions a single key of a configuration. The
// provider wraps the configuration it is given, overriding the
// methods that concern its key.
type Provider struct {
	// Configure returns cfg as provisioned with the given argument.
	Configure func(cfg Config, arg string) (Config, error)
	Usage
}

// Usage describes a provider for help output.
type Usage struct {
	// Kind is the provider's name, the first part of the key's value.
	Kind string
	// Arg names the provider's argument, if it takes one.
	Arg string
	// Usage is a one-line description of the provider.
	Usage string
}

var registry struct {
	sync.Mutex
	// byKey holds each key's providers, sorted by kind.
	byKey map[string][]Provider
}

// Register registers a provider of the given kind for key, which
// must be one of AllKeys. Register panics if the kind is registered
// twice for the same key.
func Register(key, kind, arg, usage string, configure func(Config, string) (Config, error)) {
	if !isProvisioned(key) {
		panic(fmt.Sprintf("config: key %s is not provisioned by providers", key))
	}
	registry.Lock()
	defer registry.Unlock()
	if registry.byKey == nil {
		registry.byKey = make(map[string][]Provider)
	}
	list := registry.byKey[key]
	i := sort.Search(len(list), func(i int) bool { return list[i].Kind >= kind })
	if i < len(list) && list[i].Kind == kind {
		panic(fmt.Sprintf("config: provider %s registered twice for key %s", kind, key))
	}
	list = append(list, Provider{})
	copy(list[i+1:], list[i:])
	list[i] = Provider{configure, Usage{kind, arg, usage}}
	registry.byKey[key] = list
}

// Lookup returns the provider of the given kind for key.
func Lookup(key, kind string) (Provider, bool) {
	registry.Lock()
	defer registry.Unlock()
	for _, p := range registry.byKey[key] {
		if p.Kind == kind {
			return p, true
		}
	}
	return Provider{}, false
}

// Help returns the usage of every registered provider, by key.
// Each key's usages are sorted by kind.
func Help() map[string][]Usage {
	registry.Lock()
	defer registry.Unlock()
	help := make(map[string][]Usage, len(registry.byKey))
	for key, list := range registry.byKey {
		for _, p := range list {
			help[key] = append(help[key], p.Usage)
		}
	}
	return help
}
