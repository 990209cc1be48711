// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compile

import (
	"fmt"

	"github.com/grailbio/base/digest"
	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/membership"
)

// Names of the containers through which compiled expressions address
// variables and parameters.
const (
	InputsVar  = "inputs"
	OutputsVar = "outputs"
	ParamsVar  = "params"
	// IndexVar is the element index used by per-element vectorization.
	IndexVar = "i"
)

// InstrKind is the kind of an instruction.
type InstrKind int

const (
	// InstrDerived assigns a derived variable.
	InstrDerived InstrKind = iota
	// InstrAccum assigns a truth accumulator slot.
	InstrAccum
	// InstrOutput assigns (or merges into) an output variable.
	InstrOutput
)

func (k InstrKind) String() string {
	switch k {
	case InstrDerived:
		return "derived"
	case InstrAccum:
		return "accum"
	case InstrOutput:
		return "output"
	}
	return fmt.Sprintf("InstrKind(%d)", int(k))
}

// Instr is a single assignment of a compiled program.
type Instr struct {
	Kind InstrKind
	// Slot is the accumulator slot assigned by InstrAccum.
	Slot int
	// Name is the variable assigned by InstrDerived and InstrOutput.
	Name string
	// Target is the rendered left-hand side, e.g. "t2" or
	// "outputs.x[i]".
	Target string
	// Expr is the right-hand side, in expression syntax.
	Expr string
	// Source is the rule text the instruction was lowered from, if
	// any, and Depth its nesting depth within the rule.
	Source string
	Depth  int
}

// String renders the instruction as an assignment.
func (in Instr) String() string {
	return in.Target + " = " + in.Expr
}

// Field is a variable of a container.
type Field struct {
	Name, Type string
}

// Param is a runtime membership function parameter.
type Param struct {
	// Name is the qualified name of the parameter, as returned by
	// fuzzy.ParamName.
	Name string
	// Value is the declared (default) value.
	Value float64
	// Type, Prop and Param name the parameter's origin.
	Type, Prop, Param string
}

// MembershipFunc is the membership function of a property.
type MembershipFunc struct {
	Type, Prop string
	Def        *membership.PropertyDef
}

// Program is a compiled decision tree: a set of declarations and a
// flat list of assignments that computes the outputs from the inputs.
type Program struct {
	Options dectree.Options
	Funcs   []MembershipFunc
	Inputs  []Field
	Outputs []Field
	// Params is empty unless the program is parameterized.
	Params []Param
	Instrs []Instr
	// Slots is the number of accumulator slots used by Instrs.
	Slots int
	// Digest is the digest of the compiled definition.
	Digest digest.Digest
}

// An Emitter receives the declarations and instructions of a program.
type Emitter interface {
	DeclareMembershipFunction(typ, prop string, def *membership.PropertyDef) error
	DeclareInputs(fields []Field) error
	DeclareOutputs(fields []Field) error
	DeclareParams(params []Param) error
	Instr(in Instr) error
}

// Emit replays the program to e: first the membership functions, then
// the containers, then every instruction in order. Params are
// declared only when the program is parameterized.
func (p *Program) Emit(e Emitter) error {
	for _, f := range p.Funcs {
		if err := e.DeclareMembershipFunction(f.Type, f.Prop, f.Def); err != nil {
			return err
		}
	}
	if err := e.DeclareInputs(p.Inputs); err != nil {
		return err
	}
	if err := e.DeclareOutputs(p.Outputs); err != nil {
		return err
	}
	if p.Options.Parameterize {
		if err := e.DeclareParams(p.Params); err != nil {
			return err
		}
	}
	for _, in := range p.Instrs {
		if err := e.Instr(in); err != nil {
			return err
		}
	}
	return nil
}
