// SPDX-License-Identifier: MIT
// Package gvar — types, sentinels and the contradiction error.
//
// A graph variable is bounded by two graphs over the same node set:
//   - the envelope: arcs still possible;
//   - the kernel: arcs already mandatory.
//
// The kernel is always a subgraph of the envelope. Search narrows the gap by
// enforcing arcs (envelope → kernel) or forbidding them (removed from the
// envelope) until both coincide.
package gvar

import (
	"errors"
	"fmt"
)

// Kind selects the arc semantics of a Domain.
type Kind uint8

const (
	// Directed domains keep successor and predecessor sets per node.
	Directed Kind = iota
	// Undirected domains keep one symmetric neighbor set per node; arc (u,v)
	// and arc (v,u) denote the same edge.
	Undirected
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Directed:
		return "directed"
	case Undirected:
		return "undirected"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Layer selects the envelope or the kernel graph.
type Layer uint8

const (
	Envelope Layer = iota
	Kernel
)

// Op names the operation that produced a contradiction.
type Op uint8

const (
	OpEnforce Op = iota
	OpForbid
	OpPropagate
	OpSelect
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpEnforce:
		return "enforce"
	case OpForbid:
		return "forbid"
	case OpPropagate:
		return "propagate"
	case OpSelect:
		return "select"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Arc is an ordered node pair. For undirected domains Arcs reports From < To.
type Arc struct {
	From int
	To   int
}

// Sentinel errors. Construction and range errors are programming errors and
// are never contradictions.
var (
	// ErrContradiction is matched (errors.Is) by every *Contradiction.
	ErrContradiction = errors.New("gvar: contradiction")

	// ErrInvalidOrder indicates a domain with fewer than one node.
	ErrInvalidOrder = errors.New("gvar: node count must be at least 1")

	// ErrNilTrail indicates a Domain built without an undo trail.
	ErrNilTrail = errors.New("gvar: trail is nil")

	// ErrNodeOutOfRange indicates a node index outside [0, n).
	ErrNodeOutOfRange = errors.New("gvar: node out of range")

	// ErrSelfLoop indicates an arc (u,u).
	ErrSelfLoop = errors.New("gvar: self-loops are not allowed")

	// ErrSealed indicates envelope construction after search has started.
	ErrSealed = errors.New("gvar: envelope is sealed")
)

// Contradiction reports that an operation would empty the domain: a kernel
// arc outside the envelope, or a propagator detecting an infeasible state.
// Contradictions are recoverable: the search backtracks.
type Contradiction struct {
	Op     Op
	From   int
	To     int
	Reason string
}

// NewContradiction builds a contradiction for arc (from,to). Use -1 for
// either endpoint when the failure is not tied to an arc.
func NewContradiction(op Op, from, to int, reason string) *Contradiction {
	return &Contradiction{Op: op, From: from, To: to, Reason: reason}
}

// Error implements error.
func (c *Contradiction) Error() string {
	if c.From < 0 && c.To < 0 {
		return fmt.Sprintf("gvar: contradiction on %s: %s", c.Op, c.Reason)
	}
	return fmt.Sprintf("gvar: contradiction on %s(%d,%d): %s", c.Op, c.From, c.To, c.Reason)
}

// Is lets errors.Is(err, ErrContradiction) match.
func (c *Contradiction) Is(target error) bool { return target == ErrContradiction }

// IsContradiction reports whether err is (or wraps) a contradiction.
func IsContradiction(err error) bool { return errors.Is(err, ErrContradiction) }

// Watcher receives arc events synchronously, after the domain changed.
// A non-nil error aborts the triggering operation and is returned to its caller;
// the partial state is undone by backtracking the trail, or immediately when the
// operation ran at the root.
type Watcher interface {
	ArcEnforced(from, to int) error
	ArcForbidden(from, to int) error
}
