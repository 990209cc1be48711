// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"github.com/grailbio/base/sync/once"
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/log"
)

// OnceConfig memoizes the first call of the following methods to the
// underlying config: Options and Logger.
type OnceConfig struct {
	Config

	optionsOnce once.Task
	options     dectree.Options

	loggerOnce once.Task
	logger     *log.Logger
}

// Once constructs a new OnceConfig using the provided
// underlying configuration.
func Once(cfg Config) *OnceConfig {
	return &OnceConfig{Config: cfg}
}

// Options returns the result of the first call to the underlying
// configuration's Options.
func (o *OnceConfig) Options() (dectree.Options, error) {
	err := o.optionsOnce.Do(func() (err error) {
		o.options, err = o.Config.Options()
		return
	})
	return o.options, err
}

// Logger returns the result of the first call to the underlying
// configuration's Logger.
func (o *OnceConfig) Logger() (*log.Logger, error) {
	err := o.loggerOnce.Do(func() (err error) {
		o.logger, err = o.Config.Logger()
		return
	})
	return o.logger, err
}
