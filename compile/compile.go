// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package compile lowers decision tree definitions into programs: flat
// lists of arithmetic assignments over truth accumulators, inputs,
// outputs and parameters.
//
// Rules are lowered with one truth accumulator per nesting depth. The
// accumulator t0 is 1; a branch at depth d conjoins its condition with
// t[d-1] into t[d], and an assignment inside the branch assigns t[d-1]
// (or its negation) to an output. Branches of the same chain recycle
// the same slots. Outputs that are assigned more than once are merged
// with the algebra's OR in rule order.
package compile

import (
	"fmt"
	"strings"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/fuzzy"
	"github.com/grailbio/dectree/log"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/rules"
)

// A Compiler compiles definitions into programs.
type Compiler struct {
	// Log, if not nil, receives debug traces of the emitted
	// instructions.
	Log *log.Logger
}

// Compile compiles def with a default Compiler.
func Compile(def *dectree.Definition) (*Program, error) {
	return new(Compiler).Compile(def)
}

// Compile validates and compiles def. Compilation stops at the first
// error; no partial program is returned.
func (c *Compiler) Compile(def *dectree.Definition) (*Program, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	algebra, err := def.Options.Algebra()
	if err != nil {
		return nil, errors.E("compile", err)
	}
	l := &lowerer{
		def:      def,
		algebra:  algebra,
		log:      c.Log,
		outputs:  def.AllOutputs(),
		assigned: make(map[string]int),
	}
	if def.Options.Vectorize == dectree.VectorizeFunc {
		l.index = IndexVar
	}
	l.cond = &fuzzy.Compiler{
		Env:          env{l},
		Algebra:      algebra,
		Parameterize: def.Options.Parameterize,
		ParamsName:   ParamsVar,
		Index:        l.index,
	}
	p := &Program{
		Options: def.Options,
		Inputs:  fields(def.Inputs),
		Outputs: fields(l.outputs),
		Digest:  def.Digest(),
	}
	for _, t := range def.Types {
		for _, prop := range t.Props {
			p.Funcs = append(p.Funcs, MembershipFunc{t.Name, prop.Name, prop.Def})
			if !def.Options.Parameterize {
				continue
			}
			for _, param := range prop.Def.Params {
				p.Params = append(p.Params, Param{
					Name:  fuzzy.ParamName(t.Name, prop.Name, param.Name),
					Value: param.Value,
					Type:  t.Name,
					Prop:  prop.Name,
					Param: param.Name,
				})
			}
		}
	}

	l.accum(0, "1.0", "", 0)
	for _, d := range def.Derived {
		if err := l.derived(d); err != nil {
			return nil, errors.E("compile", "derived "+d.Name, err)
		}
	}
	for i, r := range def.Rules {
		if err := l.body(r, 1, 0); err != nil {
			return nil, errors.E("compile", fmt.Sprintf("rule %d", i+1), err)
		}
	}
	p.Instrs = l.instrs
	p.Slots = len(l.slots.names)
	return p, nil
}

func fields(vars dectree.VarDefs) []Field {
	f := make([]Field, len(vars))
	for i, v := range vars {
		f[i] = Field{v.Name, v.Type}
	}
	return f
}

// slotTable names the truth accumulators. It grows as deeper slots
// are referenced; slots are never released.
type slotTable struct {
	names []string
}

func (s *slotTable) at(i int) string {
	for len(s.names) <= i {
		s.names = append(s.names, fmt.Sprintf("t%d", len(s.names)))
	}
	return s.names[i]
}

// lowerer holds the state of a single compilation.
type lowerer struct {
	def     *dectree.Definition
	algebra fuzzy.Algebra
	cond    *fuzzy.Compiler
	log     *log.Logger
	outputs dectree.VarDefs
	index   string

	slots slotTable
	// assigned counts the rule assignments of each output.
	assigned map[string]int
	instrs   []Instr
}

func (l *lowerer) emit(in Instr) {
	if l.log.At(log.DebugLevel) {
		l.log.Debugf("%s%s", strings.Repeat("    ", in.Depth), in)
	}
	l.instrs = append(l.instrs, in)
}

func (l *lowerer) accum(slot int, expr, source string, depth int) {
	l.emit(Instr{
		Kind:   InstrAccum,
		Slot:   slot,
		Target: l.slots.at(slot),
		Expr:   expr,
		Source: source,
		Depth:  depth,
	})
}

// output renders the reference to the output variable name.
func (l *lowerer) output(name string) string {
	if l.index != "" {
		return OutputsVar + "." + name + "[" + l.index + "]"
	}
	return OutputsVar + "." + name
}

// body lowers the statements of a body at the given level and
// source depth. The body executes under the truth held in slot
// level-1. Sibling branches share the slot cursor sub: an If resets
// it to level, an Elif advances it, so that the preceding branch's
// truth is still available to fold out of the chain.
func (l *lowerer) body(stmts []rules.Stmt, level, depth int) error {
	sub := level
	var prev rules.Stmt
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *rules.If:
			sub = level
			cond, err := l.cond.Compile(stmt.Cond)
			if err != nil {
				return err
			}
			l.accum(sub, l.algebra.And(l.slots.at(sub-1), cond), "if "+stmt.Cond+":", depth)
			if err := l.body(stmt.Body, sub+1, depth+1); err != nil {
				return err
			}
		case *rules.Elif:
			if !isBranch(prev) {
				return errors.E(errors.Syntax, errors.Errorf(`"elif %s" does not follow "if" or "elif"`, stmt.Cond))
			}
			sub++
			cond, err := l.cond.Compile(stmt.Cond)
			if err != nil {
				return err
			}
			prior := l.slots.at(sub - 1)
			l.accum(sub-1, l.algebra.And(l.slots.at(sub-2), l.algebra.Not(prior)), "elif "+stmt.Cond+":", depth)
			l.accum(sub, l.algebra.And(prior, cond), "", depth)
			if err := l.body(stmt.Body, sub+1, depth+1); err != nil {
				return err
			}
		case *rules.Else:
			if !isBranch(prev) {
				return errors.E(errors.Syntax, errors.New(`"else" does not follow "if" or "elif"`))
			}
			last := l.slots.at(sub)
			l.accum(sub, l.algebra.And(l.slots.at(sub-1), l.algebra.Not(last)), "else:", depth)
			if err := l.body(stmt.Body, sub+1, depth+1); err != nil {
				return err
			}
		case *rules.Assign:
			if err := l.assign(stmt, level, depth); err != nil {
				return err
			}
		default:
			panic(fmt.Sprintf("unknown statement %T", stmt))
		}
		prev = stmt
	}
	return nil
}

func isBranch(s rules.Stmt) bool {
	switch s.(type) {
	case *rules.If, *rules.Elif:
		return true
	}
	return false
}

func (l *lowerer) assign(stmt *rules.Assign, level, depth int) error {
	typ, ok := l.outputs.Lookup(stmt.Var)
	if !ok {
		if _, ok := l.def.Inputs.Lookup(stmt.Var); ok {
			return errors.E(errors.Invalid, errors.Errorf("cannot assign input %q", stmt.Var))
		}
		return errors.E(errors.NotExist, errors.Errorf("output %q is undefined", stmt.Var))
	}
	def, err := l.prop(stmt.Var, typ, stmt.Prop)
	if err != nil {
		return err
	}
	t := l.slots.at(level - 1)
	var value string
	switch def.Kind {
	case membership.KindTrue:
		value = t
	case membership.KindFalse:
		value = l.algebra.Not(t)
	default:
		return errors.E(errors.Contract, errors.Errorf(
			"cannot assign %s.%s = %s to %q: only properties whose value is true() or false() may be assigned",
			typ, stmt.Prop, def.Decl, stmt.Var))
	}
	target := l.output(stmt.Var)
	l.assigned[stmt.Var]++
	if l.assigned[stmt.Var] > 1 {
		value = l.algebra.Or(target, value)
	}
	l.emit(Instr{
		Kind:   InstrOutput,
		Name:   stmt.Var,
		Target: target,
		Expr:   value,
		Source: stmt.Var + " = " + stmt.Prop,
		Depth:  depth,
	})
	return nil
}

// prop resolves property name of type typ of variable v.
func (l *lowerer) prop(v, typ, name string) (*membership.PropertyDef, error) {
	t, ok := l.def.Types.Lookup(typ)
	if !ok {
		return nil, errors.E(errors.NotExist, errors.Errorf("type %q of variable %q is undefined", typ, v))
	}
	def, ok := t.Prop(name)
	if !ok {
		return nil, errors.E(errors.NotExist, errors.Errorf("%q is not a property of type %q of variable %q", name, typ, v))
	}
	return def, nil
}

// env resolves condition names against the definition. Derived
// variables are addressed through the outputs container.
type env struct {
	l *lowerer
}

func (e env) Var(name string) (container, typ string, ok bool) {
	if typ, ok := e.l.def.Inputs.Lookup(name); ok {
		return InputsVar, typ, true
	}
	if typ, ok := e.l.outputs.Lookup(name); ok {
		return OutputsVar, typ, true
	}
	return "", "", false
}

func (e env) Type(typ, prop string) (*membership.PropertyDef, bool, bool) {
	if dectree.BuiltinTypes[typ] {
		return nil, true, false
	}
	t, ok := e.l.def.Types.Lookup(typ)
	if !ok {
		return nil, false, false
	}
	def, ok := t.Prop(prop)
	return def, true, ok
}
