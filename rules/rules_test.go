// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	yaml "gopkg.in/yaml.v3"
)

const indented = `
  if a is HI:

    if b is LO:
      out = True
    else if a is LOW:
      out = 0.5

  else if c is MID:
    # Note: constant out value!
    out = 0.6

  else:
    out = False
`

const structured = `
  - if a is HI:

    - if b is LO:
      - out = True
    - else if a is LOW:
      - out = 0.5

  - else if c is MID:
    # Note: constant out value!
    - out = 0.6

  - else:
    - out = False
`

var reshaped = []interface{}{
	map[string]interface{}{"if a is HI": []interface{}{
		map[string]interface{}{"if b is LO": []interface{}{"out = True"}},
		map[string]interface{}{"else if a is LOW": []interface{}{"out = 0.5"}},
	}},
	map[string]interface{}{"else if c is MID": []interface{}{"out = 0.6"}},
	map[string]interface{}{"else": []interface{}{"out = False"}},
}

var parsed = Rule{
	&If{Cond: "a is HI", Body: []Stmt{
		&If{Cond: "b is LO", Body: []Stmt{&Assign{Var: "out", Prop: "True"}}},
		&Elif{Cond: "a is LOW", Body: []Stmt{&Assign{Var: "out", Prop: "0.5"}}},
	}},
	&Elif{Cond: "c is MID", Body: []Stmt{&Assign{Var: "out", Prop: "0.6"}}},
	&Else{Body: []Stmt{&Assign{Var: "out", Prop: "False"}}},
}

func TestReshape(t *testing.T) {
	items, err := Reshape(indented)
	assert.NoError(t, err)
	if diff := cmp.Diff(reshaped, items); diff != "" {
		t.Errorf("reshape mismatch (-want +got):\n%s", diff)
	}
	var decoded interface{}
	assert.NoError(t, yaml.Unmarshal([]byte(structured), &decoded))
	if diff := cmp.Diff(decoded, interface{}(items)); diff != "" {
		t.Errorf("reshaped text differs from list form (-yaml +reshaped):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	r, err := Parse(reshaped)
	assert.NoError(t, err)
	if diff := cmp.Diff(parsed, r); diff != "" {
		t.Errorf("parse mismatch (-want +got):\n%s", diff)
	}
	r, err = Parse(indented)
	assert.NoError(t, err)
	if diff := cmp.Diff(parsed, r); diff != "" {
		t.Errorf("parse of text mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLv2Maps(t *testing.T) {
	r, err := Parse([]interface{}{
		map[interface{}]interface{}{"if x is HI": []interface{}{
			"# comment",
			"out = True",
		}},
	})
	assert.NoError(t, err)
	if diff := cmp.Diff(Rule{&If{Cond: "x is HI", Body: []Stmt{&Assign{Var: "out", Prop: "True"}}}}, r); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func branch(header string, body ...interface{}) map[string]interface{} {
	return map[string]interface{}{header: body}
}

func TestParseError(t *testing.T) {
	for _, c := range []struct {
		value interface{}
		msg   string
	}{
		{[]interface{}{"out = True", branch("if a is X", "out = True")},
			`illegal rule part "if a is X": "if" must be the first statement of its list`},
		{[]interface{}{branch("elif a is X", "out = True")},
			`"elif" must follow "if" or "elif"`},
		{[]interface{}{branch("else if a is X", "out = True")},
			`"elif" must follow "if" or "elif"`},
		{[]interface{}{branch("if a is X", "out = True"), "out = False", branch("else", "out = True")},
			`"else" must follow "if" or "elif"`},
		{[]interface{}{branch("if a is X", "out = True"), branch("else", "out = True"), "out = False"},
			`illegal rule part "else": "else" must be the last statement of its list`},
		{[]interface{}{branch("if a is X", "out = True"), branch("else", "out = True"), branch("elif b is Y", "out = True")},
			`"elif" must follow "if" or "elif"`},
		{[]interface{}{branch("while a is X", "out = True")},
			`unknown keyword "while"`},
		{[]interface{}{branch("if", "out = True")},
			`illegal rule part "if": missing condition`},
		{[]interface{}{branch("if a is X", "out = True"), branch("else if", "out = True")},
			`illegal rule part "else if": missing condition`},
		{[]interface{}{branch("if a is X", "out = True"), branch("else a", "out = True")},
			`unexpected text after "else"`},
		{[]interface{}{branch("if a is X")},
			"empty branch body"},
		{[]interface{}{map[string]interface{}{"if a is X": "out = True"}},
			"branch body must be a list of statements"},
		{[]interface{}{"out True"},
			`illegal rule part "out True": assignment must have the form "name = property"`},
		{[]interface{}{"out = a b"},
			`assignment must have the form "name = property"`},
		{[]interface{}{42},
			"unexpected int"},
		{[]interface{}{map[string]interface{}{"if a": []interface{}{"x = y"}, "if b": []interface{}{"x = y"}}},
			"a branch must have exactly one header"},
		{map[string]interface{}{"if a": []interface{}{"x = y"}},
			"rule must be a list of statements"},
		{[]interface{}{"# only a comment"},
			"empty rule"},
	} {
		_, err := Parse(c.value)
		if err == nil {
			t.Errorf("%v: expected error", c.value)
			continue
		}
		expect.True(t, errors.Is(errors.Syntax, err), "%v", err)
		expect.HasSubstr(t, err.Error(), c.msg)
	}
}

func TestReshapeError(t *testing.T) {
	for _, c := range []struct {
		text, msg string
	}{
		{"if a:\n  x = y\n z = w", "line 3: unexpected indentation"},
		{"if a:\nout = T", `line 1: missing body of "if a"`},
		{"if a:\n  out = T\nelse:", `line 3: missing body of "else"`},
		{"  a = b\nc = d", "line 2: inconsistent indentation"},
		{"if a:\n\tx = y", "line 2: tabs are not allowed in indentation"},
		{"\n  # nothing\n\n", "empty rule"},
	} {
		_, err := Reshape(c.text)
		if err == nil {
			t.Errorf("%q: expected error", c.text)
			continue
		}
		expect.True(t, errors.Is(errors.Syntax, err), "%v", err)
		expect.HasSubstr(t, err.Error(), c.msg)
	}
}

func TestFormat(t *testing.T) {
	text := parsed.String()
	assert.EQ(t, text, `if a is HI:
    if b is LO:
        out = True
    elif a is LOW:
        out = 0.5
elif c is MID:
    out = 0.6
else:
    out = False
`)
	r, err := Parse(text)
	assert.NoError(t, err)
	if diff := cmp.Diff(parsed, r); diff != "" {
		t.Errorf("format round trip (-want +got):\n%s", diff)
	}
}

func TestWalk(t *testing.T) {
	var conds, assigns int
	Walk(parsed, func(s Stmt) {
		switch s.(type) {
		case *If, *Elif:
			conds++
		case *Assign:
			assigns++
		}
	})
	expect.EQ(t, conds, 4)
	expect.EQ(t, assigns, 4)
}
