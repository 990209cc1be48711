// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package rules implements the decision tree statement language.
// A rule is a list of statements, each an if/elif/else branch with a
// nested body, or an assignment of a property to an output variable:
//
//	if a is HI:
//	    if b is LO:
//	        out = True
//	    else if a is LOW:
//	        out = False
//	else:
//	    out = False
//
// Rules are written either as such indented text, which Reshape turns
// into nested lists, or directly in the nested list form of a YAML
// document, in which each branch is a one-key mapping from its header
// to its body. Parse turns the nested list form into a Rule.
package rules

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Stmt is a rule statement: one of *If, *Elif, *Else, *Assign.
type Stmt interface {
	stmt()
}

// If is a conditional branch. It must be the first statement of its
// list.
type If struct {
	Cond string
	Body []Stmt
}

// Elif is an alternative conditional branch. It must directly follow
// an If or an Elif.
type Elif struct {
	Cond string
	Body []Stmt
}

// Else is the final branch of a chain. It must directly follow an If
// or an Elif and be the last statement of its list.
type Else struct {
	Body []Stmt
}

// Assign assigns the property Prop to the output variable Var.
type Assign struct {
	Var, Prop string
}

func (*If) stmt()     {}
func (*Elif) stmt()   {}
func (*Else) stmt()   {}
func (*Assign) stmt() {}

// Rule is a top-level statement list, i.e., one decision tree.
type Rule []Stmt

// String renders the rule as indented text.
func (r Rule) String() string {
	var b bytes.Buffer
	Format(&b, r, "    ")
	return b.String()
}

// Format writes rule r to w as indented text, using the given
// indentation unit. The output is accepted by Reshape.
func Format(w io.Writer, r Rule, indent string) {
	format(w, r, indent, 0)
}

func format(w io.Writer, body []Stmt, indent string, depth int) {
	prefix := strings.Repeat(indent, depth)
	for _, s := range body {
		switch s := s.(type) {
		case *If:
			fmt.Fprintf(w, "%sif %s:\n", prefix, s.Cond)
			format(w, s.Body, indent, depth+1)
		case *Elif:
			fmt.Fprintf(w, "%selif %s:\n", prefix, s.Cond)
			format(w, s.Body, indent, depth+1)
		case *Else:
			fmt.Fprintf(w, "%selse:\n", prefix)
			format(w, s.Body, indent, depth+1)
		case *Assign:
			fmt.Fprintf(w, "%s%s = %s\n", prefix, s.Var, s.Prop)
		}
	}
}

// Walk calls fn for each statement of body in source order,
// descending into branch bodies after visiting the branch.
func Walk(body []Stmt, fn func(Stmt)) {
	for _, s := range body {
		fn(s)
		switch s := s.(type) {
		case *If:
			Walk(s.Body, fn)
		case *Elif:
			Walk(s.Body, fn)
		case *Else:
			Walk(s.Body, fn)
		}
	}
}
