// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"io"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/grailbio/dectree/errors"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokName
	tokInt
	tokFloat
	tokString
	tokOp
)

type token struct {
	kind tokKind
	text string
	pos  scanner.Position
}

// twoCharOps lists the operators spelled with two runes, keyed by
// their first rune.
var twoCharOps = map[rune][]string{
	'*': {"**"},
	'/': {"//"},
	'=': {"=="},
	'!': {"!="},
	'<': {"<="},
	'>': {">="},
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "is": true, "in": true,
	"if": true, "else": true, "elif": true, "lambda": true,
}

// Parser parses a single expression in the rule expression language,
// in which rule conditions, derived variable definitions, and
// membership function declarations are written.
// Parsing stops at the first error.
type Parser struct {
	// File is prefixed to parser error locations.
	File string
	// Body is the io.Reader that is parsed.
	Body io.Reader

	// Expr contains the parsed expression.
	Expr *Expr

	toks []token
	i    int
}

type bailout struct{ err error }

// Parse parses the parser's body and reports any parsing error.
// The parse result is deposited in x.Expr.
func (x *Parser) Parse() (err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			x.Expr = nil
			err = errors.E("parse", errors.Syntax, b.err)
		}
	}()
	x.lex()
	x.i = 0
	x.Expr = x.orTest()
	if tok := x.peek(); tok.kind != tokEOF {
		x.errorf(tok.pos, "unexpected %s", describe(tok))
	}
	return nil
}

// ParseExpr parses the expression in src.
func ParseExpr(src string) (*Expr, error) {
	p := &Parser{Body: strings.NewReader(src)}
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p.Expr, nil
}

func (x *Parser) errorf(pos scanner.Position, format string, args ...interface{}) {
	panic(bailout{errorf(pos, format, args...)})
}

func (x *Parser) lex() {
	var s scanner.Scanner
	s.Init(x.Body)
	s.Filename = x.File
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	s.Error = func(s *scanner.Scanner, msg string) {
		x.errorf(s.Position, "%s", msg)
	}
	x.toks = x.toks[:0]
	for {
		r := s.Scan()
		tok := token{text: s.TokenText(), pos: s.Position}
		switch r {
		case scanner.EOF:
			tok.kind = tokEOF
			x.toks = append(x.toks, tok)
			return
		case scanner.Ident:
			tok.kind = tokName
		case scanner.Int:
			tok.kind = tokInt
		case scanner.Float:
			tok.kind = tokFloat
		case scanner.String:
			tok.kind = tokString
		default:
			tok.kind = tokOp
			for _, op := range twoCharOps[r] {
				if s.Peek() == rune(op[1]) {
					s.Next()
					tok.text = op
				}
			}
			switch tok.text {
			case "+", "-", "*", "/", "%", "**", "//", "==", "!=", "<", "<=", ">", ">=",
				"(", ")", "[", "]", ",", ".", "=":
			default:
				x.errorf(tok.pos, "invalid character %q", tok.text)
			}
		}
		x.toks = append(x.toks, tok)
	}
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return "end of expression"
	case tokName:
		if keywords[tok.text] {
			return "keyword " + strconv.Quote(tok.text)
		}
		return "name " + strconv.Quote(tok.text)
	case tokOp:
		return strconv.Quote(tok.text)
	default:
		return "literal " + tok.text
	}
}

func (x *Parser) peek() token {
	return x.toks[x.i]
}

func (x *Parser) peekAt(n int) token {
	if x.i+n >= len(x.toks) {
		return x.toks[len(x.toks)-1]
	}
	return x.toks[x.i+n]
}

func (x *Parser) next() token {
	tok := x.toks[x.i]
	if tok.kind != tokEOF {
		x.i++
	}
	return tok
}

// is tells whether the next token is the operator or keyword s.
func (x *Parser) is(s string) bool {
	tok := x.peek()
	return (tok.kind == tokOp || tok.kind == tokName) && tok.text == s
}

func (x *Parser) accept(s string) bool {
	if x.is(s) {
		x.next()
		return true
	}
	return false
}

func (x *Parser) expect(s string) token {
	tok := x.peek()
	if !x.is(s) {
		x.errorf(tok.pos, "expected %q, found %s", s, describe(tok))
	}
	return x.next()
}

// orTest: andTest ("or" andTest)*
func (x *Parser) orTest() *Expr {
	return x.boolop("or", x.andTest)
}

// andTest: notTest ("and" notTest)*
func (x *Parser) andTest() *Expr {
	return x.boolop("and", x.notTest)
}

func (x *Parser) boolop(op string, operand func() *Expr) *Expr {
	pos := x.peek().pos
	e := operand()
	if !x.is(op) {
		return e
	}
	values := []*Expr{e}
	for x.accept(op) {
		values = append(values, operand())
	}
	e = Boolop(op, values...)
	e.Position = pos
	return e
}

// notTest: "not" notTest | comparison
func (x *Parser) notTest() *Expr {
	if x.is("not") {
		pos := x.next().pos
		e := Unop("not", x.notTest())
		e.Position = pos
		return e
	}
	return x.comparison()
}

// compareOp consumes a comparison operator, if present.
func (x *Parser) compareOp() (string, bool) {
	tok := x.peek()
	switch {
	case tok.kind == tokOp:
		switch tok.text {
		case "<", ">", "==", ">=", "<=", "!=":
			x.next()
			return tok.text, true
		}
	case tok.kind == tokName && tok.text == "in":
		x.next()
		return "in", true
	case tok.kind == tokName && tok.text == "is":
		x.next()
		if x.accept("not") {
			return "is not", true
		}
		return "is", true
	case tok.kind == tokName && tok.text == "not":
		if next := x.peekAt(1); next.kind == tokName && next.text == "in" {
			x.next()
			x.next()
			return "not in", true
		}
	}
	return "", false
}

// comparison: arith (compareOp arith)*
func (x *Parser) comparison() *Expr {
	pos := x.peek().pos
	left := x.arith()
	op, ok := x.compareOp()
	if !ok {
		return left
	}
	e := &Expr{Position: pos, Kind: ExprCompare, Left: left}
	for ok {
		e.Ops = append(e.Ops, op)
		e.Args = append(e.Args, x.arith())
		op, ok = x.compareOp()
	}
	return e
}

func (x *Parser) binary(operand func() *Expr, ops ...string) *Expr {
	e := operand()
	for {
		tok := x.peek()
		if tok.kind != tokOp || !contains(ops, tok.text) {
			return e
		}
		x.next()
		pos := e.Position
		e = Binop(e, tok.text, operand())
		e.Position = pos
	}
}

func contains(list []string, s string) bool {
	for _, t := range list {
		if t == s {
			return true
		}
	}
	return false
}

// arith: term (("+"|"-") term)*
func (x *Parser) arith() *Expr {
	return x.binary(x.term, "+", "-")
}

// term: factor (("*"|"/"|"//"|"%") factor)*
func (x *Parser) term() *Expr {
	return x.binary(x.factor, "*", "/", "//", "%")
}

// factor: ("+"|"-") factor | power
func (x *Parser) factor() *Expr {
	if x.is("+") || x.is("-") {
		tok := x.next()
		e := Unop(tok.text, x.factor())
		e.Position = tok.pos
		return e
	}
	return x.power()
}

// power: postfix ["**" factor]
func (x *Parser) power() *Expr {
	e := x.postfix()
	if x.accept("**") {
		pos := e.Position
		e = Binop(e, "**", x.factor())
		e.Position = pos
	}
	return e
}

// postfix: atom ("." NAME | "(" args ")" | "[" orTest "]")*
func (x *Parser) postfix() *Expr {
	e := x.atom()
	for {
		pos := e.Position
		switch {
		case x.accept("."):
			tok := x.next()
			if tok.kind != tokName || keywords[tok.text] {
				x.errorf(tok.pos, "expected attribute name, found %s", describe(tok))
			}
			e = Attribute(e, tok.text)
		case x.accept("("):
			e = x.callArgs(e)
		case x.accept("["):
			e = Index(e, x.orTest())
			x.expect("]")
		default:
			return e
		}
		e.Position = pos
	}
}

func (x *Parser) callArgs(fn *Expr) *Expr {
	e := Call(fn)
	for !x.is(")") {
		if tok, eq := x.peek(), x.peekAt(1); tok.kind == tokName && eq.kind == tokOp && eq.text == "=" {
			x.next()
			x.next()
			for _, kw := range e.Keywords {
				if kw.Name == tok.text {
					x.errorf(tok.pos, "keyword argument repeated: %s", tok.text)
				}
			}
			e.Keywords = append(e.Keywords, &Keyword{tok.text, x.orTest()})
		} else {
			if len(e.Keywords) > 0 {
				x.errorf(tok.pos, "positional argument follows keyword argument")
			}
			e.Args = append(e.Args, x.orTest())
		}
		if !x.accept(",") {
			break
		}
	}
	x.expect(")")
	return e
}

// atom: NAME | INT | FLOAT | STRING | "(" orTest ")"
func (x *Parser) atom() *Expr {
	tok := x.next()
	var e *Expr
	switch tok.kind {
	case tokName:
		switch tok.text {
		case "True":
			e = Const(true)
		case "False":
			e = Const(false)
		case "None":
			e = Const(nil)
		default:
			if keywords[tok.text] {
				x.errorf(tok.pos, "unexpected %s", describe(tok))
			}
			e = Name(tok.text)
		}
	case tokInt:
		v, err := strconv.ParseInt(tok.text, 0, 64)
		if err != nil {
			x.errorf(tok.pos, "invalid integer %s: %v", tok.text, err)
		}
		e = Const(v)
	case tokFloat:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			x.errorf(tok.pos, "invalid number %s: %v", tok.text, err)
		}
		e = Const(v)
	case tokString:
		v, err := strconv.Unquote(tok.text)
		if err != nil {
			x.errorf(tok.pos, "invalid string %s: %v", tok.text, err)
		}
		e = Const(v)
	case tokOp:
		if tok.text != "(" {
			x.errorf(tok.pos, "unexpected %s", describe(tok))
		}
		e = x.orTest()
		x.expect(")")
		return e
	default:
		x.errorf(tok.pos, "unexpected %s", describe(tok))
	}
	e.Position = tok.pos
	return e
}
