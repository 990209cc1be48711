// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package syntax implements the front end of the rule expression
// language, in which decision tree conditions, derived variables and
// membership function declarations are written.
//
// The grammar, from lowest to highest precedence:
//
//	or_test    = and_test { "or" and_test }
//	and_test   = not_test { "and" not_test }
//	not_test   = "not" not_test | comparison
//	comparison = arith { comp_op arith }
//	comp_op    = "<" | ">" | "==" | ">=" | "<=" | "!=" | "in" | "not" "in" | "is" | "is" "not"
//	arith      = term { ("+" | "-") term }
//	term       = factor { ("*" | "/" | "//" | "%") factor }
//	factor     = ("+" | "-") factor | power
//	power      = postfix [ "**" factor ]
//	postfix    = atom { "." NAME | "(" [ args ] ")" | "[" or_test "]" }
//	args       = arg { "," arg } [ "," ]
//	arg        = or_test | NAME "=" or_test
//	atom       = NAME | NUMBER | STRING | "True" | "False" | "None" | "(" or_test ")"
//
// Boolean operations are n-ary: "a and b and c" parses to a single
// node with three operands, while "a and (b and c)" retains its
// nesting. Comparisons may be chained.
package syntax
