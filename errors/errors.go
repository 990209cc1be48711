// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors provides the error type used throughout dectree.
// An error carries a kind, an operation, and optional arguments that
// name the offending variable, type, property or source fragment.
// Errors chain: a compiler stage annotates the error of the stage
// below it, and the outermost error reports the kind of the chain.
//
// Errorf and New are provided so that users need import only one
// error package.
package errors

import (
	goerrors "errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Separator is inserted between chained errors while rendering.
var Separator = ":\n\t"

// Kind classifies an error.
type Kind int

const (
	// Other denotes an unclassified error.
	Other Kind = iota
	// NotExist denotes a reference to an undefined variable, type
	// or property.
	NotExist
	// Syntax denotes malformed source text: an expression that does
	// not parse, or an illegal rule part.
	Syntax
	// NotSupported indicates an expression form or operator outside
	// the supported subset.
	NotSupported
	// Contract denotes a semantic contract violation, such as
	// assigning a property that is not true() or false().
	Contract
	// Invalid indicates an invalid definition or argument.
	Invalid
	// Eval denotes an error evaluating a compiled program.
	Eval

	maxKind
)

var kinds = [maxKind]struct{ name, text string }{
	Other:        {"Other", "unknown error"},
	NotExist:     {"NotExist", "undefined"},
	Syntax:       {"Syntax", "syntax error"},
	NotSupported: {"NotSupported", "not supported"},
	Contract:     {"Contract", "contract violation"},
	Invalid:      {"Invalid", "invalid definition"},
	Eval:         {"Eval", "evaluation error"},
}

// String renders a human-readable description of kind k.
func (k Kind) String() string {
	if k < 0 || k >= maxKind {
		return kinds[Other].text
	}
	return kinds[k].text
}

// Name returns the identifier of kind k, e.g. "NotExist", as used
// in machine-readable reports.
func (k Kind) Name() string {
	if k < 0 || k >= maxKind {
		return kinds[Other].name
	}
	return kinds[k].name
}

// ParseKind returns the kind with the given name. Unknown names
// yield Other.
func ParseKind(name string) Kind {
	for k := Other; k < maxKind; k++ {
		if kinds[k].name == name {
			return k
		}
	}
	return Other
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Error is a dectree error. Errors should be constructed by E.
type Error struct {
	// Kind is the error's class.
	Kind Kind
	// Op names the stage that failed, e.g. "parse rule" or "property".
	Op string
	// Arg lists what the stage was working on.
	Arg []string
	// Err is the underlying error, if any.
	Err error
}

// E constructs an error from its arguments, each of which must be
// one of:
//
//	string
//		The first string is the error's Op; later strings are
//		appended to Arg.
//	Kind
//		The error's Kind.
//	error
//		The underlying error.
//
// When no Kind is given, E inherits the kind of an underlying
// *Error, which is then rendered without it. An underlying
// os.IsNotExist error gives kind NotExist.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E: no args")
	}
	e := new(Error)
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			if e.Op == "" {
				e.Op = arg
			} else {
				e.Arg = append(e.Arg, arg)
			}
		case Kind:
			e.Kind = arg
		case *Error:
			inner := *arg
			e.Err = &inner
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			return Errorf("errors.E: bad argument %v of type %T from %s:%d", arg, arg, file, line)
		}
	}
	switch inner := e.Err.(type) {
	case nil:
	case *Error:
		if e.Kind == Other || inner.Kind == e.Kind {
			e.Kind = inner.Kind
			inner.Kind = Other
		}
		// An anonymous link in the chain adds nothing when rendered.
		if inner.Op == "" && inner.Kind == Other {
			e.Err = inner.Err
		}
	default:
		if e.Kind == Other && os.IsNotExist(inner) {
			e.Kind = NotExist
		}
	}
	return e
}

// Error renders e and its chain of underlying errors, separated by
// Separator.
func (e *Error) Error() string {
	return e.ErrorSeparator(Separator)
}

// ErrorSeparator renders e and its chain of underlying errors,
// separated by sep.
func (e *Error) ErrorSeparator(sep string) string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	sepIfAny := func(s string) {
		if b.Len() > 0 {
			b.WriteString(s)
		}
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		for _, arg := range e.Arg {
			b.WriteString(" ")
			b.WriteString(arg)
		}
	}
	if e.Kind != Other {
		sepIfAny(": ")
		b.WriteString(e.Kind.String())
	}
	switch inner := e.Err.(type) {
	case nil:
	case *Error:
		sepIfAny(sep)
		b.WriteString(inner.ErrorSeparator(sep))
	default:
		sepIfAny(": ")
		b.WriteString(inner.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error, so that sentinel errors
// chained through E remain visible to the standard errors.Is.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is an alternate spelling of fmt.Errorf.
var Errorf = fmt.Errorf

// New is an alternate spelling of errors.New.
var New = goerrors.New

// Recover returns err as an *Error, wrapping it if necessary.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return E(err).(*Error)
}

// Is tells whether err has the given kind. Errors of kind Other are
// looked through until a classified error is found.
func Is(kind Kind, err error) bool {
	for err != nil {
		e, ok := err.(*Error)
		if !ok {
			return false
		}
		if e.Kind != Other {
			return e.Kind == kind
		}
		err = e.Err
	}
	return false
}

// Match reports whether err matches the pattern, which is either a
// Kind or an *Error. An *Error pattern matches when each of its
// nonempty fields equals the corresponding field of err; a nested
// pattern is matched against err's underlying error.
func Match(pattern interface{}, err error) bool {
	if err == nil {
		return false
	}
	e := Recover(err)
	switch p := pattern.(type) {
	case Kind:
		return Is(p, e) || (p == Other && e.Kind == Other)
	case *Error:
		if p.Op != "" && p.Op != e.Op {
			return false
		}
		if len(p.Arg) > 0 && strings.Join(p.Arg, " ") != strings.Join(e.Arg, " ") {
			return false
		}
		if p.Kind != Other && p.Kind != e.Kind {
			return false
		}
		switch inner := p.Err.(type) {
		case nil:
			return true
		case *Error:
			return Match(inner, e.Err)
		default:
			return e.Err != nil && e.Err.Error() == inner.Error()
		}
	default:
		return false
	}
}
