// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"math"
	"math/rand"
	"time"

	"github.com/grailbio/dectree/syntax"
)

// Fuzz provides a simple deterministic fuzzer for expressions and
// variable values.
type Fuzz struct{ *rand.Rand }

// NewFuzz returns a new fuzzer based on the provided
// random number generator. If r is nil, NewFuzz creates
// one seeded with the current time.
func NewFuzz(r *rand.Rand) *Fuzz {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Fuzz{r}
}

var (
	names   = []string{"a", "b", "glint", "ndwi", "b1", "b2", "x", "y"}
	binops  = []string{"+", "-", "*", "/", "%", "**"}
	cmpops  = []string{"==", "!=", "<", "<=", ">", ">=", "is", "is not"}
	unops   = []string{"-", "+", "not"}
	boolops = []string{"and", "or"}
	funcs   = []string{"min", "max", "sqrt", "exp"}
)

func (f *Fuzz) pick(ss []string) string {
	return ss[f.Intn(len(ss))]
}

// Name returns a random variable name.
func (f *Fuzz) Name() string {
	return f.pick(names)
}

// Value returns a random value in [0, 1].
func (f *Fuzz) Value() float64 {
	return f.Float64()
}

// Const returns a random non-negative numeric literal. Float
// literals are multiples of 1/4, so that they print exactly.
func (f *Fuzz) Const() *syntax.Expr {
	if f.Intn(2) == 0 {
		return syntax.Const(int64(f.Intn(100)))
	}
	return syntax.Const(float64(f.Intn(400)) / 4)
}

// Expr returns a random expression of at most the given depth. The
// probability of a leaf grows with depth.
func (f *Fuzz) Expr(maxdepth int) *syntax.Expr {
	return f.expr(0, maxdepth)
}

func (f *Fuzz) expr(depth, maxdepth int) *syntax.Expr {
	if depth >= maxdepth || f.Float64() > math.Pow(0.7, float64(depth)) {
		if f.Intn(3) == 0 {
			return f.Const()
		}
		return syntax.Name(f.Name())
	}
	sub := func() *syntax.Expr { return f.expr(depth+1, maxdepth) }
	switch f.Intn(6) {
	case 0:
		return syntax.Unop(f.pick(unops), sub())
	case 1:
		return syntax.Boolop(f.pick(boolops), sub(), sub())
	case 2:
		return syntax.Compare(sub(), f.pick(cmpops), sub())
	case 3:
		args := make([]*syntax.Expr, f.Intn(3)+1)
		for i := range args {
			args[i] = sub()
		}
		return syntax.Call(syntax.Name(f.pick(funcs)), args...)
	default:
		return syntax.Binop(sub(), f.pick(binops), sub())
	}
}
