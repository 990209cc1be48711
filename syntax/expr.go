// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

// ExprKind is the kind of an expression.
type ExprKind int

const (
	// ExprError indicates an erroneous expression (e.g., through a parse error)
	ExprError ExprKind = iota
	// ExprName is a bare name reference.
	ExprName
	// ExprAttribute is an attribute access: Left.Ident.
	ExprAttribute
	// ExprCall is a function call: Left(Args..., Keywords...).
	ExprCall
	// ExprIndex is a subscript: Left[Right].
	ExprIndex
	// ExprUnop is a unary operation: Op Left.
	ExprUnop
	// ExprBinop is a binary arithmetic operation: Left Op Right.
	ExprBinop
	// ExprBoolop is an n-ary boolean operation ("and" or "or") over Args.
	ExprBoolop
	// ExprCompare is a (possibly chained) comparison:
	// Left Ops[0] Args[0] Ops[1] Args[1] ...
	ExprCompare
	// ExprConst is a literal: a number, string, True, False or None.
	ExprConst

	maxExpr
)

var kindNames = [maxExpr]string{
	ExprError:     "error",
	ExprName:      "name",
	ExprAttribute: "attribute",
	ExprCall:      "call",
	ExprIndex:     "index",
	ExprUnop:      "unop",
	ExprBinop:     "binop",
	ExprBoolop:    "boolop",
	ExprCompare:   "compare",
	ExprConst:     "const",
}

// String returns the name of the expression kind.
func (k ExprKind) String() string {
	if k < 0 || k >= maxExpr {
		return fmt.Sprintf("ExprKind(%d)", int(k))
	}
	return kindNames[k]
}

// Keyword is a keyword argument in a call expression.
type Keyword struct {
	Name string
	*Expr
}

// Equal tests whether k is equivalent to l.
func (k *Keyword) Equal(l *Keyword) bool {
	return k.Name == l.Name && k.Expr.Equal(l.Expr)
}

// An Expr is a node in the expression AST.
type Expr struct {
	// Position contains the source position of the node.
	// It is set by the parser.
	scanner.Position

	// Kind is the expression's op; see above.
	Kind ExprKind

	// Left is the operand of unary operations, the left operand of
	// binary operations and comparisons, the callee of calls and the
	// value of attribute and index expressions.
	Left *Expr
	// Right is the right operand of binary operations and the index
	// of subscripts.
	Right *Expr

	// Op is the operator of ExprUnop, ExprBinop and ExprBoolop.
	Op string

	// Ident is the name in ExprName and the attribute in ExprAttribute.
	Ident string

	// Args holds positional call arguments, the operands of boolean
	// operations and the comparators of comparisons.
	Args []*Expr
	// Keywords holds keyword call arguments.
	Keywords []*Keyword
	// Ops holds the operators of a comparison chain; len(Ops) == len(Args).
	Ops []string

	// Val is the value of a constant: an int64, float64, string, bool,
	// or nil (None).
	Val interface{}
}

// Name returns a name expression.
func Name(ident string) *Expr {
	return &Expr{Kind: ExprName, Ident: ident}
}

// Attribute returns the attribute expression value.attr.
func Attribute(value *Expr, attr string) *Expr {
	return &Expr{Kind: ExprAttribute, Left: value, Ident: attr}
}

// Call returns a call expression with positional arguments.
func Call(fn *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Left: fn, Args: args}
}

// Index returns the subscript expression value[index].
func Index(value, index *Expr) *Expr {
	return &Expr{Kind: ExprIndex, Left: value, Right: index}
}

// Unop returns a unary operation.
func Unop(op string, operand *Expr) *Expr {
	return &Expr{Kind: ExprUnop, Op: op, Left: operand}
}

// Binop returns a binary operation.
func Binop(left *Expr, op string, right *Expr) *Expr {
	return &Expr{Kind: ExprBinop, Left: left, Op: op, Right: right}
}

// Boolop returns an n-ary boolean operation.
func Boolop(op string, values ...*Expr) *Expr {
	return &Expr{Kind: ExprBoolop, Op: op, Args: values}
}

// Compare returns a comparison chain. The arguments alternate
// between operators and comparators.
func Compare(left *Expr, opsAndComparators ...interface{}) *Expr {
	e := &Expr{Kind: ExprCompare, Left: left}
	for i := 0; i+1 < len(opsAndComparators); i += 2 {
		e.Ops = append(e.Ops, opsAndComparators[i].(string))
		e.Args = append(e.Args, opsAndComparators[i+1].(*Expr))
	}
	return e
}

// Const returns a literal expression. Untyped integer values are
// normalized to int64.
func Const(v interface{}) *Expr {
	if i, ok := v.(int); ok {
		v = int64(i)
	}
	return &Expr{Kind: ExprConst, Val: v}
}

// Equal tests whether expression e is structurally equivalent to
// expression f. Source positions are ignored.
func (e *Expr) Equal(f *Expr) bool {
	if e == nil || f == nil {
		return e == f
	}
	if e.Kind == ExprError {
		return false
	}
	if e.Kind != f.Kind {
		return false
	}
	switch e.Kind {
	default:
		panic("unknown expression kind " + e.Kind.String())
	case ExprName:
		return e.Ident == f.Ident
	case ExprAttribute:
		return e.Ident == f.Ident && e.Left.Equal(f.Left)
	case ExprCall:
		if !e.Left.Equal(f.Left) || !equalExprs(e.Args, f.Args) {
			return false
		}
		if len(e.Keywords) != len(f.Keywords) {
			return false
		}
		for i := range e.Keywords {
			if !e.Keywords[i].Equal(f.Keywords[i]) {
				return false
			}
		}
		return true
	case ExprIndex:
		return e.Left.Equal(f.Left) && e.Right.Equal(f.Right)
	case ExprUnop:
		return e.Op == f.Op && e.Left.Equal(f.Left)
	case ExprBinop:
		return e.Op == f.Op && e.Left.Equal(f.Left) && e.Right.Equal(f.Right)
	case ExprBoolop:
		return e.Op == f.Op && equalExprs(e.Args, f.Args)
	case ExprCompare:
		if len(e.Ops) != len(f.Ops) {
			return false
		}
		for i := range e.Ops {
			if e.Ops[i] != f.Ops[i] {
				return false
			}
		}
		return e.Left.Equal(f.Left) && equalExprs(e.Args, f.Args)
	case ExprConst:
		return e.Val == f.Val
	}
}

func equalExprs(e, f []*Expr) bool {
	if len(e) != len(f) {
		return false
	}
	for i := range e {
		if !e[i].Equal(f[i]) {
			return false
		}
	}
	return true
}

// Names returns the bare names referenced by e, in order of first
// appearance. Attribute names and callees are not included; the
// value of an attribute expression is.
func (e *Expr) Names() []string {
	var (
		names []string
		seen  = make(map[string]bool)
		walk  func(*Expr)
	)
	walk = func(e *Expr) {
		if e == nil {
			return
		}
		switch e.Kind {
		case ExprName:
			if !seen[e.Ident] {
				seen[e.Ident] = true
				names = append(names, e.Ident)
			}
		case ExprCall:
			if e.Left.Kind != ExprName {
				walk(e.Left)
			}
			for _, arg := range e.Args {
				walk(arg)
			}
			for _, kw := range e.Keywords {
				walk(kw.Expr)
			}
		default:
			walk(e.Left)
			walk(e.Right)
			for _, arg := range e.Args {
				walk(arg)
			}
		}
	}
	walk(e)
	return names
}

// FormatConst renders a literal value the way the expression
// language spells it. Floats always carry a fractional part or an
// exponent, so that they are not mistaken for integers.
func FormatConst(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

// String renders a tree-formatted version of e.
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	b := new(bytes.Buffer)
	switch e.Kind {
	default:
		panic("unknown expression type " + fmt.Sprint(e.Kind))
	case ExprError:
		b.WriteString("error")
	case ExprName:
		fmt.Fprintf(b, "name(%q)", e.Ident)
	case ExprAttribute:
		fmt.Fprintf(b, "attr(%v, %q)", e.Left, e.Ident)
	case ExprCall:
		args := make([]string, 0, len(e.Args)+len(e.Keywords))
		for _, arg := range e.Args {
			args = append(args, arg.String())
		}
		for _, kw := range e.Keywords {
			args = append(args, kw.Name+"="+kw.Expr.String())
		}
		fmt.Fprintf(b, "call(%v(%v))", e.Left, strings.Join(args, ", "))
	case ExprIndex:
		fmt.Fprintf(b, "index(%v[%v])", e.Left, e.Right)
	case ExprUnop:
		fmt.Fprintf(b, "unop(%q, %v)", e.Op, e.Left)
	case ExprBinop:
		fmt.Fprintf(b, "binop(%v, %q, %v)", e.Left, e.Op, e.Right)
	case ExprBoolop:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = arg.String()
		}
		fmt.Fprintf(b, "boolop(%q, %v)", e.Op, strings.Join(args, ", "))
	case ExprCompare:
		fmt.Fprintf(b, "compare(%v", e.Left)
		for i := range e.Ops {
			fmt.Fprintf(b, ", %q, %v", e.Ops[i], e.Args[i])
		}
		b.WriteString(")")
	case ExprConst:
		fmt.Fprintf(b, "const(%s)", FormatConst(e.Val))
	}
	return b.String()
}
