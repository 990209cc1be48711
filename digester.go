// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dectree

import (
	"crypto"
	_ "crypto/sha256"
	"fmt"
	"io"

	"github.com/grailbio/base/digest"
	"github.com/grailbio/dectree/rules"
)

// Digester is the digester used to identify decision tree
// definitions.
var Digester = digest.Digester(crypto.SHA256)

// Digest returns a digest of the definition. Definitions that
// compile to the same program under the same options have the same
// digest: the digest covers declarations, rules, and options, but not
// the textual layout of the source.
func (d *Definition) Digest() digest.Digest {
	w := Digester.NewWriter()
	d.writeCanonical(w)
	return w.Digest()
}

func (d *Definition) writeCanonical(w io.Writer) {
	for _, t := range d.Types {
		fmt.Fprintf(w, "type %s\n", t.Name)
		for _, p := range t.Props {
			fmt.Fprintf(w, "\t%s %s %v\n", p.Name, p.Def.Kind, p.Def.Values())
		}
	}
	for _, v := range d.Inputs {
		fmt.Fprintf(w, "input %s %s\n", v.Name, v.Type)
	}
	for _, v := range d.Outputs {
		fmt.Fprintf(w, "output %s %s\n", v.Name, v.Type)
	}
	for _, v := range d.Derived {
		fmt.Fprintf(w, "derived %s %s %s\n", v.Name, v.Type, v.Expr)
	}
	for i, r := range d.Rules {
		fmt.Fprintf(w, "rule %d\n", i)
		rules.Format(w, r, "\t")
	}
	fmt.Fprintf(w, "options %+v\n", d.Options)
}
