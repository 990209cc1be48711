// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"fmt"
	"strings"

	"github.com/grailbio/dectree/errors"
)

// Reshape turns indented rule text into its nested list form. Each
// line is an item of the list at its indentation depth. A line
// ending in ':' is a branch header: it becomes a one-key mapping
// from the header (without the colon) to the list of the more deeply
// indented lines that follow it. Blank lines and comment lines,
// starting with '#', are dropped.
func Reshape(text string) ([]interface{}, error) {
	var lines []line
	for i, s := range strings.Split(text, "\n") {
		t := strings.TrimSpace(s)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		indent := len(s) - len(strings.TrimLeft(s, " \t"))
		if strings.ContainsRune(s[:indent], '\t') {
			return nil, errors.E("reshape rule", errors.Syntax,
				errors.Errorf("line %d: tabs are not allowed in indentation", i+1))
		}
		lines = append(lines, line{num: i + 1, indent: indent, text: t})
	}
	if len(lines) == 0 {
		return nil, errors.E("reshape rule", errors.Syntax, errors.New("empty rule"))
	}
	items, next, err := reshape(lines, 0, lines[0].indent)
	if err != nil {
		return nil, errors.E("reshape rule", errors.Syntax, err)
	}
	if next < len(lines) {
		return nil, errors.E("reshape rule", errors.Syntax,
			errors.Errorf("line %d: inconsistent indentation", lines[next].num))
	}
	return items, nil
}

type line struct {
	num, indent int
	text        string
}

// reshape builds the list of lines starting at i with the given
// indentation. It returns the list and the index of the first line
// that does not belong to it.
func reshape(lines []line, i, indent int) ([]interface{}, int, error) {
	var items []interface{}
	for i < len(lines) {
		l := lines[i]
		if l.indent < indent {
			break
		}
		if l.indent > indent {
			return nil, 0, errors.Errorf("line %d: unexpected indentation", l.num)
		}
		if !strings.HasSuffix(l.text, ":") {
			items = append(items, l.text)
			i++
			continue
		}
		header := strings.TrimSpace(strings.TrimSuffix(l.text, ":"))
		if i+1 == len(lines) || lines[i+1].indent <= indent {
			return nil, 0, errors.Errorf("line %d: missing body of %q", l.num, header)
		}
		body, next, err := reshape(lines, i+1, lines[i+1].indent)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, map[string]interface{}{header: body})
		i = next
	}
	return items, i, nil
}

// Parse parses a rule from its nested list form, as produced by
// Reshape or decoded from YAML. A string value is taken to be
// indented rule text and is reshaped first.
func Parse(value interface{}) (Rule, error) {
	if text, ok := value.(string); ok {
		items, err := Reshape(text)
		if err != nil {
			return nil, err
		}
		value = items
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, errors.E("parse rule", errors.Syntax,
			errors.Errorf("rule must be a list of statements, got %T", value))
	}
	body, err := parseBody(items)
	if err != nil {
		return nil, errors.E("parse rule", err)
	}
	if len(body) == 0 {
		return nil, errors.E("parse rule", errors.Syntax, errors.New("empty rule"))
	}
	return Rule(body), nil
}

// MustParse is like Parse, but panics on error.
func MustParse(value interface{}) Rule {
	r, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return r
}

func illegal(text interface{}, format string, args ...interface{}) error {
	return errors.E(errors.Syntax,
		errors.Errorf("illegal rule part %q: %s", fmt.Sprint(text), fmt.Sprintf(format, args...)))
}

func parseBody(items []interface{}) ([]Stmt, error) {
	var body []Stmt
	for _, item := range items {
		var prev Stmt
		if len(body) > 0 {
			prev = body[len(body)-1]
		}
		switch item := item.(type) {
		case string:
			text := strings.TrimSpace(item)
			if strings.HasPrefix(text, "#") {
				continue
			}
			fields := strings.Fields(text)
			if len(fields) != 3 || fields[1] != "=" {
				return nil, illegal(item, `assignment must have the form "name = property"`)
			}
			body = append(body, &Assign{Var: fields[0], Prop: fields[2]})
		case map[string]interface{}:
			stmt, err := parseBranch(item, prev, len(body) == 0)
			if err != nil {
				return nil, err
			}
			body = append(body, stmt)
		case map[interface{}]interface{}:
			m := make(map[string]interface{}, len(item))
			for k, v := range item {
				ks, ok := k.(string)
				if !ok {
					return nil, illegal(k, "branch header must be text")
				}
				m[ks] = v
			}
			stmt, err := parseBranch(m, prev, len(body) == 0)
			if err != nil {
				return nil, err
			}
			body = append(body, stmt)
		default:
			return nil, illegal(item, "unexpected %T", item)
		}
	}
	for i, s := range body {
		if _, ok := s.(*Else); ok && i != len(body)-1 {
			return nil, illegal("else", `"else" must be the last statement of its list`)
		}
	}
	return body, nil
}

func parseBranch(m map[string]interface{}, prev Stmt, first bool) (Stmt, error) {
	if len(m) != 1 {
		return nil, illegal(m, "a branch must have exactly one header")
	}
	var (
		header string
		value  interface{}
	)
	for k, v := range m {
		header, value = k, v
	}
	list, ok := value.([]interface{})
	if !ok {
		return nil, illegal(header, "branch body must be a list of statements")
	}
	body, err := parseBody(list)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, illegal(header, "empty branch body")
	}
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return nil, illegal(header, "missing keyword")
	}
	keyword, cond := fields[0], strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), fields[0]))
	if keyword == "else" && len(fields) > 1 && fields[1] == "if" {
		keyword = "elif"
		cond = strings.TrimSpace(strings.TrimPrefix(cond, "if"))
	}
	chained := false
	switch prev.(type) {
	case *If, *Elif:
		chained = true
	}
	switch keyword {
	case "if":
		if !first {
			return nil, illegal(header, `"if" must be the first statement of its list`)
		}
		if cond == "" {
			return nil, illegal(header, "missing condition")
		}
		return &If{Cond: cond, Body: body}, nil
	case "elif":
		if first || !chained {
			return nil, illegal(header, `"elif" must follow "if" or "elif"`)
		}
		if cond == "" {
			return nil, illegal(header, "missing condition")
		}
		return &Elif{Cond: cond, Body: body}, nil
	case "else":
		if cond != "" {
			return nil, illegal(header, `unexpected text after "else"`)
		}
		if first || !chained {
			return nil, illegal(header, `"else" must follow "if" or "elif"`)
		}
		return &Else{Body: body}, nil
	}
	return nil, illegal(header, "unknown keyword %q", keyword)
}
