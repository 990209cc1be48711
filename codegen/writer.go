// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// writer is an indenting writer. Lines are indented with tabs at
// the current level when their first non-empty content is written.
type writer struct {
	buf               bytes.Buffer
	level             int
	isAlreadyIndented bool
}

func (w *writer) writeString(s string) {
	lines := strings.SplitAfter(s, "\n")
	if strings.HasSuffix(s, "\n") {
		// The indentation of the next line is decided when its
		// content is written.
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		isLineEnd := strings.HasSuffix(line, "\n")
		if isLineEnd {
			line = line[:len(line)-1]
		}
		if !w.isAlreadyIndented && len(line) > 0 {
			w.buf.WriteString(strings.Repeat("\t", w.level))
			w.isAlreadyIndented = true
		}
		w.buf.WriteString(line)
		if isLineEnd {
			w.buf.WriteString("\n")
			w.isAlreadyIndented = false
		}
	}
}

// Printf formats according to format and writes the result with
// indentation.
func (w *writer) Printf(format string, args ...interface{}) {
	w.writeString(fmt.Sprintf(format, args...))
}

func (w *writer) indent() {
	w.level++
}

func (w *writer) unindent() {
	if w.level <= 0 {
		panic(w.level)
	}
	w.level--
}
