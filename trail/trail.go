// SPDX-License-Identifier: MIT
// Package trail — reversible state log shared by graph domains and propagators.
//
// A Trail records, for every mutation performed below the root level, a small
// fixed-shape Record naming the owner that can undo it. Search code opens a
// level with WorldPush before a branch and closes it with WorldPop, which hands
// every record written since the push back to its owner, newest first.
//
// Contracts:
//   - Records written at level 0 are discarded: root modifications are permanent.
//   - Owners must restore exactly the value they overwrote (Record carries it).
//   - A Trail is not safe for concurrent use; one search owns one Trail.
//
// Complexity:
//   - Save: amortized O(1).
//   - WorldPop: O(k) where k is the number of records written in that level.
package trail

import "errors"

// ErrNoWorld is returned by WorldPop when no level is open.
var ErrNoWorld = errors.New("trail: no world to pop")

// Reverter restores the state described by a Record it previously saved.
type Reverter interface {
	Revert(r Record)
}

// Record is one undo entry. Op and A..D are owner-defined.
type Record struct {
	Owner Reverter
	Op    uint8
	A     int
	B     int
	C     int
	D     int
}

// Trail is a stack of undo records partitioned into levels ("worlds").
type Trail struct {
	records []Record
	marks   []int // marks[k] = len(records) when level k+1 was opened
}

// New returns an empty Trail at level 0.
func New() *Trail {
	return &Trail{
		records: make([]Record, 0, 64),
		marks:   make([]int, 0, 16),
	}
}

// Level reports the number of open worlds (0 = root).
func (t *Trail) Level() int { return len(t.marks) }

// Size reports the number of live undo records.
func (t *Trail) Size() int { return len(t.records) }

// Save appends r to the current world. At the root level it is a no-op.
func (t *Trail) Save(r Record) {
	if len(t.marks) == 0 {
		return
	}
	t.records = append(t.records, r)
}

// WorldPush opens a new level and returns its depth (≥ 1).
func (t *Trail) WorldPush() int {
	t.marks = append(t.marks, len(t.records))
	return len(t.marks)
}

// WorldPop reverts every record of the innermost level, newest first,
// and closes that level.
func (t *Trail) WorldPop() error {
	var k = len(t.marks)
	if k == 0 {
		return ErrNoWorld
	}
	var (
		mark = t.marks[k-1]
		i    int
	)
	for i = len(t.records) - 1; i >= mark; i-- {
		t.records[i].Owner.Revert(t.records[i])
		t.records[i] = Record{} // drop the owner reference
	}
	t.records = t.records[:mark]
	t.marks = t.marks[:k-1]
	return nil
}

// Commit closes the innermost level and keeps its changes: its records join
// the enclosing level, or are dropped when that level is the root.
func (t *Trail) Commit() error {
	var k = len(t.marks)
	if k == 0 {
		return ErrNoWorld
	}
	t.marks = t.marks[:k-1]
	if k == 1 {
		var i int
		for i = range t.records {
			t.records[i] = Record{}
		}
		t.records = t.records[:0]
	}
	return nil
}

// WorldPopUntil pops worlds until Level() == level. Levels above the current
// one are ignored.
func (t *Trail) WorldPopUntil(level int) error {
	if level < 0 {
		level = 0
	}
	for len(t.marks) > level {
		if err := t.WorldPop(); err != nil {
			return err
		}
	}
	return nil
}
