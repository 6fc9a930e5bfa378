// SPDX-License-Identifier: MIT
// Package decision — binary branching decisions over a graph domain and a
// recycling pool for them.
//
// A Decision (from, to, op) is applied on the left branch and refuted on the
// right branch:
//
//	Enforce: left = enforce (from,to), right = forbid (from,to)
//	Remove:  left = forbid  (from,to), right = enforce (from,to)
//
// Decisions are short-lived and created once per search node, so a Pool keeps
// released records on a free list instead of allocating a fresh one each time.
package decision

import (
	"fmt"

	"github.com/katalvlaran/hamgraph/gvar"
)

// Operator is the branching operator applied on the left branch.
type Operator uint8

const (
	// Enforce makes the arc mandatory first.
	Enforce Operator = iota
	// Remove forbids the arc first.
	Remove
)

// String implements fmt.Stringer.
func (o Operator) String() string {
	switch o {
	case Enforce:
		return "enforce"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
}

// ParseOperator maps "enforce" / "remove" to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "enforce", "":
		return Enforce, nil
	case "remove":
		return Remove, nil
	default:
		return Enforce, fmt.Errorf("decision: unknown operator %q", s)
	}
}

// Decision is one branching choice on arc (From, To).
type Decision struct {
	From int
	To   int
	Op   Operator
}

// Set overwrites the record in place.
func (d *Decision) Set(from, to int, op Operator) {
	d.From, d.To, d.Op = from, to, op
}

// Apply performs the left branch on g.
func (d *Decision) Apply(g *gvar.Domain) error {
	if d.Op == Remove {
		return g.Forbid(d.From, d.To)
	}
	return g.Enforce(d.From, d.To)
}

// Refute performs the right branch on g.
func (d *Decision) Refute(g *gvar.Domain) error {
	if d.Op == Remove {
		return g.Enforce(d.From, d.To)
	}
	return g.Forbid(d.From, d.To)
}

// String renders "enforce(1,2)".
func (d *Decision) String() string {
	return fmt.Sprintf("%s(%d,%d)", d.Op, d.From, d.To)
}
