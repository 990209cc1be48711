// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dectree

import (
	"fmt"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/fuzzy"
)

// Vectorize selects how generated code addresses variables.
type Vectorize int

const (
	// VectorizeOff addresses scalar variables.
	VectorizeOff Vectorize = iota
	// VectorizeFunc makes variables arrays; the rules are applied to
	// each element in turn.
	VectorizeFunc
	// VectorizeProp makes variables arrays and applies membership
	// functions to whole arrays.
	VectorizeProp
)

var vectorizeNames = [...]string{
	VectorizeOff:  "off",
	VectorizeFunc: "func",
	VectorizeProp: "prop",
}

func (v Vectorize) String() string {
	if v < 0 || int(v) >= len(vectorizeNames) {
		return fmt.Sprintf("Vectorize(%d)", int(v))
	}
	return vectorizeNames[v]
}

// ParseVectorize parses a vectorization mode name.
func ParseVectorize(s string) (Vectorize, error) {
	for i, name := range vectorizeNames {
		if s == name {
			return Vectorize(i), nil
		}
	}
	return 0, errors.E(errors.Invalid, errors.Errorf("invalid vectorize mode %q, want one of off, func, prop", s))
}

// MarshalText implements encoding.TextMarshaler.
func (v Vectorize) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Vectorize) UnmarshalText(b []byte) error {
	w, err := ParseVectorize(string(b))
	if err != nil {
		return err
	}
	*v = w
	return nil
}

// Options control how a definition is compiled.
type Options struct {
	// Not, And, and Or are the fuzzy operator templates; see
	// fuzzy.TemplateAlgebra.
	Not, And, Or string
	// Parameterize makes membership function parameters runtime
	// values instead of constants.
	Parameterize bool
	Vectorize    Vectorize
	// FuncName, InputsName, OutputsName, and ParamsName name the
	// generated function and containers.
	FuncName, InputsName, OutputsName, ParamsName string
	// FloatType is the generated floating point type.
	FloatType string
}

// DefaultOptions returns the default compilation options.
func DefaultOptions() Options {
	return Options{
		Not:         fuzzy.DefaultNot,
		And:         fuzzy.DefaultAnd,
		Or:          fuzzy.DefaultOr,
		FuncName:    "apply_rules",
		InputsName:  "Inputs",
		OutputsName: "Outputs",
		ParamsName:  "Params",
		FloatType:   "float64",
	}
}

// Option keys, as used in source files, configuration, and flags.
const (
	KeyNotPattern   = "not_pattern"
	KeyAndPattern   = "and_pattern"
	KeyOrPattern    = "or_pattern"
	KeyAlgebra      = "algebra"
	KeyParameterize = "parameterize"
	KeyVectorize    = "vectorize"
	KeyFuncName     = "func_name"
	KeyInputsName   = "inputs_name"
	KeyOutputsName  = "outputs_name"
	KeyParamsName   = "params_name"
	KeyFloatType    = "float_type"
)

var optionHelp = map[string]string{
	KeyNotPattern:   `pattern to translate "not x" expressions`,
	KeyAndPattern:   `pattern to translate "x and y" expressions`,
	KeyOrPattern:    `pattern to translate "x or y" expressions`,
	KeyAlgebra:      "predefined algebra setting all three patterns: " + strings.Join(fuzzy.Names(), ", "),
	KeyParameterize: "whether membership function parameters can be changed at runtime",
	KeyVectorize:    `"off", "func" (apply the rules to each array element), or "prop" (apply membership functions to arrays)`,
	KeyFuncName:     "name of the generated function which implements the decision tree",
	KeyInputsName:   "name of the generated type that holds the inputs",
	KeyOutputsName:  "name of the generated type that holds the outputs",
	KeyParamsName:   "name of the generated type that holds the parameters",
	KeyFloatType:    `floating point type, "float64" or "float32"`,
}

// OptionKeys returns the option keys in sorted order.
func OptionKeys() []string {
	keys := make([]string, 0, len(optionHelp))
	for k := range optionHelp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OptionHelp returns a description of the option key.
func OptionHelp(key string) string {
	return optionHelp[key]
}

// Set sets the option named by key from its textual value.
func (o *Options) Set(key, value string) error {
	switch key {
	case KeyNotPattern:
		o.Not = value
	case KeyAndPattern:
		o.And = value
	case KeyOrPattern:
		o.Or = value
	case KeyAlgebra:
		a, ok := fuzzy.Lookup(value)
		if !ok {
			return errors.E("option", key, errors.NotExist,
				errors.Errorf("unknown algebra %q, want one of %s", value, strings.Join(fuzzy.Names(), ", ")))
		}
		o.Not, o.And, o.Or = a.NotTemplate, a.AndTemplate, a.OrTemplate
	case KeyParameterize:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.E("option", key, errors.Invalid, err)
		}
		o.Parameterize = b
	case KeyVectorize:
		v, err := ParseVectorize(value)
		if err != nil {
			return errors.E("option", key, err)
		}
		o.Vectorize = v
	case KeyFuncName:
		o.FuncName = value
	case KeyInputsName:
		o.InputsName = value
	case KeyOutputsName:
		o.OutputsName = value
	case KeyParamsName:
		o.ParamsName = value
	case KeyFloatType:
		o.FloatType = value
	default:
		return errors.E("option", key, errors.NotExist, errors.New("unknown option"))
	}
	return nil
}

// Get returns the textual value of the option named by key, in the
// form accepted by Set. The algebra option has no value of its own:
// Get returns the empty string.
func (o Options) Get(key string) (string, error) {
	switch key {
	case KeyNotPattern:
		return o.Not, nil
	case KeyAndPattern:
		return o.And, nil
	case KeyOrPattern:
		return o.Or, nil
	case KeyAlgebra:
		return "", nil
	case KeyParameterize:
		return strconv.FormatBool(o.Parameterize), nil
	case KeyVectorize:
		return o.Vectorize.String(), nil
	case KeyFuncName:
		return o.FuncName, nil
	case KeyInputsName:
		return o.InputsName, nil
	case KeyOutputsName:
		return o.OutputsName, nil
	case KeyParamsName:
		return o.ParamsName, nil
	case KeyFloatType:
		return o.FloatType, nil
	}
	return "", errors.E("option", key, errors.NotExist, errors.New("unknown option"))
}

// Algebra returns the fuzzy algebra defined by the operator
// templates.
func (o Options) Algebra() (fuzzy.Algebra, error) {
	return fuzzy.NewTemplateAlgebra(o.Not, o.And, o.Or)
}

// Validate checks the options.
func (o Options) Validate() error {
	if _, err := o.Algebra(); err != nil {
		return errors.E("validate options", err)
	}
	for _, name := range []struct{ key, value string }{
		{KeyFuncName, o.FuncName},
		{KeyInputsName, o.InputsName},
		{KeyOutputsName, o.OutputsName},
		{KeyParamsName, o.ParamsName},
	} {
		if !token.IsIdentifier(name.value) {
			return errors.E("validate options", name.key, errors.Invalid,
				errors.Errorf("%q is not a valid identifier", name.value))
		}
	}
	switch o.FloatType {
	case "float64", "float32":
	default:
		return errors.E("validate options", KeyFloatType, errors.Invalid,
			errors.Errorf("unsupported float type %q", o.FloatType))
	}
	if o.Vectorize < VectorizeOff || o.Vectorize > VectorizeProp {
		return errors.E("validate options", KeyVectorize, errors.Invalid, errors.Errorf("invalid mode %d", int(o.Vectorize)))
	}
	return nil
}
