// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"fmt"
	"text/scanner"
)

// posError attaches a position to an error.
type posError struct {
	scanner.Position
	err error
}

func (e posError) Error() string {
	if !e.Position.IsValid() {
		return e.err.Error()
	}
	return e.Position.String() + ": " + e.err.Error()
}

func (e posError) Unwrap() error {
	return e.err
}

// errorf formats, and then returns a posError.
func errorf(pos scanner.Position, format string, args ...interface{}) error {
	return posError{pos, fmt.Errorf(format, args...)}
}
