// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package codegen renders compiled decision trees as Go source
// files. A generated file declares the membership functions of the
// definition, structs holding the inputs, outputs and (if the
// program is parameterized) parameters, and a function that
// applies the rules:
//
//	func ApplyRules(inputs *Inputs, outputs *Outputs)
//
// When the program is vectorized per element, the struct fields are
// slices and the rules are applied to each element in turn.
package codegen

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/compile"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/membership"
	"github.com/grailbio/dectree/syntax"
)

// Options configures the generated file.
type Options struct {
	// Package is the name of the generated package.
	Package string
	// Source names the definition in the file header.
	Source string
}

// Generate renders the program p as a formatted Go source file.
func Generate(p *compile.Program, opts Options) ([]byte, error) {
	if p.Options.Vectorize == dectree.VectorizeProp {
		return nil, errors.E("generate", errors.NotSupported,
			errors.New(`vectorize "prop" cannot be expressed in Go; use "func"`))
	}
	if opts.Package == "" {
		opts.Package = "rules"
	}
	g := &generator{
		program: p,
		opts:    opts,
		expr:    exprPrinter{float32: p.Options.FloatType == "float32"},
		float:   p.Options.FloatType,
	}
	if p.Options.Vectorize == dectree.VectorizeFunc {
		g.field = "[]" + g.float
	} else {
		g.field = g.float
	}
	if err := p.Emit(g); err != nil {
		return nil, errors.E("generate", err)
	}
	return g.gofmt()
}

// generator is a compile.Emitter which renders the emitted
// declarations and instructions into separate sections.
type generator struct {
	program *compile.Program
	opts    Options
	expr    exprPrinter
	// float is the floating point type; field the type of struct
	// fields.
	float, field string

	types, funcs, body writer
	// first is the first input field, used to size vectorized
	// outputs.
	first   string
	outputs []string
}

func (g *generator) DeclareMembershipFunction(typ, prop string, def *membership.PropertyDef) error {
	w := &g.funcs
	w.Printf("\n// %s computes the degree to which x is %s.%s: %s.\n", funcName(typ, prop), typ, prop, def.Decl)
	w.Printf("func %s(x ", funcName(typ, prop))
	if g.program.Options.Parameterize && len(def.Params) > 0 {
		w.Printf("%s, ", g.float)
		for i, param := range def.Params {
			if i > 0 {
				w.Printf(", ")
			}
			w.Printf("%s", param.Name)
		}
	}
	w.Printf(" %s) %s {\n", g.float, g.float)
	w.indent()
	w.Printf("%s\n", def.Body(g.program.Options.Parameterize))
	w.unindent()
	w.Printf("}\n")
	return nil
}

func funcName(typ, prop string) string {
	return "_" + typ + "_" + prop
}

// structFields renders the fields of a struct, checking that the
// exported field names are unique.
func (g *generator) structFields(what string, fields []compile.Field) ([]string, error) {
	names := make([]string, len(fields))
	seen := make(map[string]string)
	w := &g.types
	for i, f := range fields {
		name := exported(f.Name)
		if name == "" {
			return nil, errors.E(errors.Invalid, errors.Errorf("%s %q has no Go name", what, f.Name))
		}
		if other, ok := seen[name]; ok {
			return nil, errors.E(errors.Invalid, errors.Errorf("%ss %q and %q are both named %s in Go", what, other, f.Name, name))
		}
		seen[name] = f.Name
		names[i] = name
		w.Printf("%s %s // %s: %s\n", name, g.field, f.Name, f.Type)
	}
	return names, nil
}

func (g *generator) DeclareInputs(fields []compile.Field) error {
	o := g.program.Options
	g.types.Printf("\n// %s holds the inputs of %s.\n", o.InputsName, exported(o.FuncName))
	g.types.Printf("type %s struct {\n", o.InputsName)
	g.types.indent()
	names, err := g.structFields("input", fields)
	if err != nil {
		return err
	}
	g.types.unindent()
	g.types.Printf("}\n")
	if len(names) > 0 {
		g.first = names[0]
	}
	return nil
}

func (g *generator) DeclareOutputs(fields []compile.Field) error {
	o := g.program.Options
	g.types.Printf("\n// %s holds the degrees of truth computed by %s.\n", o.OutputsName, exported(o.FuncName))
	g.types.Printf("type %s struct {\n", o.OutputsName)
	g.types.indent()
	names, err := g.structFields("output", fields)
	if err != nil {
		return err
	}
	g.types.unindent()
	g.types.Printf("}\n")
	g.outputs = names
	return nil
}

func (g *generator) DeclareParams(params []compile.Param) error {
	o := g.program.Options
	w := &g.types
	w.Printf("\n// %s holds the membership function parameters of %s.\n", o.ParamsName, exported(o.FuncName))
	w.Printf("type %s struct {\n", o.ParamsName)
	w.indent()
	seen := make(map[string]string)
	for _, p := range params {
		name := exported(p.Name)
		if other, ok := seen[name]; ok {
			return errors.E(errors.Invalid, errors.Errorf("parameters %q and %q are both named %s in Go", other, p.Name, name))
		}
		seen[name] = p.Name
		w.Printf("%s %s // %s.%s %s\n", name, g.float, p.Type, p.Prop, p.Param)
	}
	w.unindent()
	w.Printf("}\n")

	w.Printf("\n// Default%s returns the parameters as they are declared.\n", o.ParamsName)
	w.Printf("func Default%s() %s {\n", o.ParamsName, o.ParamsName)
	w.indent()
	w.Printf("return %s{\n", o.ParamsName)
	w.indent()
	for _, p := range params {
		w.Printf("%s: %s,\n", exported(p.Name), syntax.FormatConst(p.Value))
	}
	w.unindent()
	w.Printf("}\n")
	w.unindent()
	w.Printf("}\n")
	return nil
}

func (g *generator) Instr(in compile.Instr) error {
	target, err := g.expr.Print(in.Target)
	if err != nil {
		return err
	}
	expr, err := g.expr.Print(in.Expr)
	if err != nil {
		return err
	}
	if in.Source != "" {
		g.body.Printf("// %s%s\n", strings.Repeat("    ", in.Depth), in.Source)
	}
	g.body.Printf("%s = %s\n", target, expr)
	return nil
}

// gofmt assembles the sections into a file and formats it.
func (g *generator) gofmt() ([]byte, error) {
	o := g.program.Options
	var w writer
	w.Printf("// Code generated by dectree. DO NOT EDIT.\n")
	if g.opts.Source != "" {
		w.Printf("// Source: %s\n", g.opts.Source)
	}
	w.Printf("// Digest: %s\n\n", g.program.Digest)
	w.Printf("package %s\n", g.opts.Package)
	if g.expr.usesMath {
		w.Printf("\nimport \"math\"\n")
	}
	w.writeString(g.types.buf.String())
	w.writeString(g.funcs.buf.String())

	fn := exported(o.FuncName)
	vectorized := o.Vectorize == dectree.VectorizeFunc
	w.Printf("\n// %s applies the decision tree to inputs and stores the results in outputs.\n", fn)
	if vectorized {
		w.Printf("// The inputs must have the same length; outputs are resized to it.\n")
	}
	w.Printf("func %s(%s *%s, %s *%s", fn, compile.InputsVar, o.InputsName, compile.OutputsVar, o.OutputsName)
	if o.Parameterize {
		w.Printf(", %s *%s", compile.ParamsVar, o.ParamsName)
	}
	w.Printf(") {\n")
	w.indent()
	if vectorized {
		w.Printf("n := len(%s.%s)\n", compile.InputsVar, g.first)
		for _, name := range g.outputs {
			out := compile.OutputsVar + "." + name
			w.Printf("if len(%s) != n {\n\t%s = make(%s, n)\n}\n", out, out, g.field)
		}
		w.Printf("for %s := 0; %s < n; %s++ {\n", compile.IndexVar, compile.IndexVar, compile.IndexVar)
		w.indent()
	}
	slots := make([]string, g.program.Slots)
	for i := range slots {
		slots[i] = fmt.Sprintf("t%d", i)
	}
	w.Printf("var %s %s\n", strings.Join(slots, ", "), g.float)
	w.writeString(g.body.buf.String())
	if vectorized {
		w.unindent()
		w.Printf("}\n")
	}
	w.unindent()
	w.Printf("}\n")

	src, err := format.Source(w.buf.Bytes())
	if err != nil {
		return nil, errors.E("generate", errors.Invalid, errors.Errorf("generated code is invalid: %v\n%s", err, w.buf.String()))
	}
	return src, nil
}
