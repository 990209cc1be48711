// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/dectree"
	"github.com/grailbio/dectree/config"
	"github.com/grailbio/dectree/errors"
	"github.com/grailbio/dectree/source"
	"github.com/grailbio/dectree/test/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// run runs the tool with the given arguments and returns its standard
// output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := &Cmd{
		Config: make(config.Base),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	root := c.Command()
	root.SetArgs(append([]string{"--log=off"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// writeSediment writes the sediment definition to dir.
func writeSediment(t *testing.T, dir string) string {
	t.Helper()
	b, err := source.Format(testutil.Sediment(), dectree.DefaultOptions())
	assert.NoError(t, err)
	return writeFile(t, dir, "sediment.yaml", string(b))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGen(t *testing.T) {
	dir := t.TempDir()
	path := writeSediment(t, dir)
	chain, err := source.Format(testutil.Chain(), dectree.DefaultOptions())
	assert.NoError(t, err)
	chainPath := writeFile(t, dir, "chain.yml", string(chain))
	out := t.TempDir()

	_, err = run(t, "gen", "--out", out, "--package", "flats", path, chainPath)
	assert.NoError(t, err)
	for _, name := range []string{"sediment.go", "chain.go"} {
		b, err := ioutil.ReadFile(filepath.Join(out, name))
		assert.NoError(t, err)
		src := string(b)
		expect.HasSubstr(t, src, "package flats\n")
		expect.HasSubstr(t, src, "func ApplyRules(inputs *Inputs, outputs *Outputs) {\n")
	}

	// Without -out, the file is written next to the definition.
	_, err = run(t, "gen", path)
	assert.NoError(t, err)
	b, err := ioutil.ReadFile(filepath.Join(dir, "sediment.go"))
	assert.NoError(t, err)
	expect.HasSubstr(t, string(b), "// Source: sediment.yaml\n")
}

func TestGenFlags(t *testing.T) {
	dir := t.TempDir()
	path := writeSediment(t, dir)
	src, err := run(t, "gen", "--stdout", "--func-name=classify", "--algebra=product", path)
	assert.NoError(t, err)
	expect.HasSubstr(t, src, "func Classify(inputs *Inputs, outputs *Outputs) {\n")
	expect.HasSubstr(t, src, "t1 = t0 * _Index_WATER(outputs.Ndwi)\n")

	cfg := writeFile(t, dir, "config.yaml", "func_name: classify\nparameterize: true\nvectorize: func\n")
	src, err = run(t, "--config", cfg, "gen", "--stdout", "--func-name=classify_flats", path)
	assert.NoError(t, err)
	expect.HasSubstr(t, src, "func ClassifyFlats(inputs *Inputs, outputs *Outputs, params *Params) {\n")
	expect.HasSubstr(t, src, "for i := 0; i < n; i++ {\n")

	_, err = run(t, "gen", "--stdout", path, path)
	expect.True(t, errors.Is(errors.Invalid, err), "wrong error: %v", err)

	_, err = run(t, "gen", "--stdout", "--vectorize=prop", path)
	expect.True(t, errors.Is(errors.NotSupported, err), "wrong error: %v", err)

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "gen", "--stdout", path)
	expect.True(t, errors.Is(errors.NotExist, err), "wrong error: %v", err)
}

const undefined = `
types:
  Ratio:
    HIGH: ramp(x1=0.0, x2=1.0)
  Bool:
    TRUE: true()
inputs:
  - a: Ratio
outputs:
  - out: Bool
rules:
  - |
    if a is LOW:
        out = TRUE
`

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeSediment(t, dir)
	bad := writeFile(t, dir, "bad.yaml", undefined)

	_, err := run(t, "check", good)
	assert.NoError(t, err)

	out, err := run(t, "check", "--json", good, bad)
	expect.HasSubstr(t, err.Error(), "1 of 2 definitions failed")
	var results []checkResult
	assert.NoError(t, json.Unmarshal([]byte(out), &results), "%s", out)
	assert.EQ(t, len(results), 2)
	expect.True(t, results[0].OK, "%s: not ok", results[0].Path)
	expect.EQ(t, results[0].Digest, testutil.Sediment().Digest().String())
	expect.False(t, results[1].OK, "%s: ok", results[1].Path)
	expect.EQ(t, results[1].Kind, "NotExist")
	expect.HasSubstr(t, results[1].Error, "LOW")
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	path := writeSediment(t, dir)
	out, err := run(t, "eval", path, "b1=0.02", "b2=0.1", "glint=0.2")
	assert.NoError(t, err)
	expect.HasSubstr(t, out, "water = 1\n")
	expect.HasSubstr(t, out, "sediment = 1\n")

	out, err = run(t, "eval", path, "b1=0.02,0.2", "b2=0.1,0.05", "glint=0.2,0.5")
	assert.NoError(t, err)
	expect.Regexp(t, out, `water = 1,[0-9.e-]+\n`)

	out, err = run(t, "eval", "--table", path, "b1=0.02", "b2=0.1", "glint=0.2")
	assert.NoError(t, err)
	expect.HasSubstr(t, out, "OUTPUT")

	for _, args := range [][]string{
		{path, "b1=0.02", "b2=0.1", "glint=high"},
		{path, "b1=0.02", "b2=0.1", "glint"},
		{path, "b1=0.02", "b1=0.1", "glint=0.2"},
		{path, "b1=0.02,0.2", "b2=0.1", "glint=0.2,0.5"},
		{"--param", "Glint_HIGH_x1=0.1", path, "b1=0.02", "b2=0.1", "glint=0.2"},
	} {
		_, err = run(t, append([]string{"eval"}, args...)...)
		expect.True(t, errors.Is(errors.Invalid, err), "%v: wrong error: %v", args, err)
	}
	_, err = run(t, "eval", path, "b1=0.02", "b2=0.1")
	expect.True(t, errors.Is(errors.NotExist, err), "wrong error: %v", err)

	// Parameters can be changed when the definition is parameterized.
	out, err = run(t, "eval", "--parameterize=true", "--param", "Glint_LOW_x2=0.1",
		path, "b1=0.02", "b2=0.1", "glint=0.2")
	assert.NoError(t, err)
	expect.HasSubstr(t, out, "water = 1\n")
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	path := writeSediment(t, dir)
	out, err := run(t, "describe", path)
	assert.NoError(t, err)
	for _, want := range []string{"Radiance", "triangular", "x3=0.15", "derived", "(b2 - b1) / (b2 + b1)", "func_name", "apply_rules"} {
		expect.HasSubstr(t, out, want)
	}
	expect.False(t, strings.Contains(out, "t0"), "unexpected program:\n%s", out)

	out, err = run(t, "describe", "--program", "--markdown", path)
	assert.NoError(t, err)
	expect.HasSubstr(t, out, "| t0 |")
	expect.HasSubstr(t, out, "if ndwi is WATER:")
}

const messy = `
types:
  Ratio:
    HIGH: ramp(x1=0, x2=1)
  Bool:
    TRUE: true()
    FALSE: false()
inputs:
  a: Ratio
  b: Ratio
outputs:
  out: Bool
derived:
  ratio = ((a)/(a+b)): Ratio
rules:
  - |
    if (a is HIGH) and not (b is HIGH):
      out = TRUE
    else:
      out = FALSE
options:
  func_name: apply_rules
  parameterize: true
`

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "messy.yaml", messy)
	out, err := run(t, "fmt", path)
	assert.NoError(t, err)
	for _, want := range []string{
		"  - ratio = a / (a + b): Ratio\n",
		"    if a is HIGH and not b is HIGH:\n        out = TRUE\n",
		"  parameterize: true\n",
		"HIGH: ramp(x1=0.0, x2=1.0)\n",
	} {
		expect.HasSubstr(t, out, want)
	}
	expect.False(t, strings.Contains(out, "func_name"), "default option written:\n%s", out)

	// Formatting is idempotent.
	_, err = run(t, "fmt", "-w", path)
	assert.NoError(t, err)
	b, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	expect.EQ(t, string(b), out)
	again, err := run(t, "fmt", path)
	assert.NoError(t, err)
	expect.EQ(t, again, out)
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "algebra: lukasiewicz\nfloat_type: float32\n")
	out, err := run(t, "--config", cfg, "config")
	assert.NoError(t, err)
	expect.HasSubstr(t, out, "algebra: lukasiewicz\n")
	expect.HasSubstr(t, out, "float_type: float32\n")

	out, err = run(t, "--config", cfg, "config", "--options")
	assert.NoError(t, err)
	expect.HasSubstr(t, out, "max(0.0, {x} + {y} - 1.0)")
	expect.HasSubstr(t, out, "float32")

	bad := writeFile(t, dir, "bad.yaml", "colour: red\n")
	_, err = run(t, "--config", bad, "config")
	expect.True(t, errors.Is(errors.NotExist, err), "wrong error: %v", err)

	_, err = run(t, "--log=verbose", "config")
	expect.NotNil(t, err)
}
