// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package dectree defines the data model of fuzzy decision trees.
//
// A decision tree Definition declares types, each an ordered set of
// named properties backed by membership functions; typed input,
// output, and derived variables; and a list of rules written in a
// small if/elif/else language over comparisons of variables with
// properties:
//
//	if glint is HIGH and not water is LAND:
//	    sediment = TRUE
//	else:
//	    sediment = FALSE
//
// Rules are evaluated with fuzzy logic: every comparison yields a
// degree of truth in [0, 1], and outputs take the degree to which the
// rules assign them. Package compile lowers a Definition into a flat
// program of arithmetic assignments, which package codegen renders as
// Go source and package eval executes directly.
package dectree
