// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command dectree compiles fuzzy decision trees into Go code. See
// "dectree --help" for details.
package main

import (
	"github.com/grailbio/dectree/config"
	"github.com/grailbio/dectree/tool"
)

// version is set at build time via -ldflags.
var version string

func main() {
	cmd := &tool.Cmd{
		Config:            make(config.Base),
		DefaultConfigFile: config.DefaultPath(),
		Version:           version,
	}
	cmd.Main()
}
