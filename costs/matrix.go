// SPDX-License-Identifier: MIT
// Package costs — dense arc-cost matrix shared by strategies, bounds and search.
//
// This file provides the validated cost matrix and small helpers that sum the
// cost of arcs and tours.
//
// Design:
//   - Dense row-major storage: c(u,v) = w[u*n+v].
//   - +Inf marks a missing arc; NaN and negative values are rejected.
//   - The diagonal is ignored (self-loops never occur in a graph domain).
//   - Stable summation: totals are rounded to 1e-9 to avoid cross-platform FP noise.
//
// Complexity:
//   - New: O(n²) time and memory.
//   - At: O(1); TourCost: O(n).
package costs

import (
	"errors"
	"math"
)

// roundScale controls final cost stabilization precision (1e-9).
const roundScale = 1e9

// symTol is the structural tolerance used by Symmetric when tol < 0.
const symTol = 1e-12

// Sentinel errors.
var (
	// ErrNonSquare indicates a ragged or empty cost table.
	ErrNonSquare = errors.New("costs: matrix must be square and non-empty")

	// ErrNaN indicates a NaN entry.
	ErrNaN = errors.New("costs: NaN entry")

	// ErrNegativeWeight indicates a negative off-diagonal entry.
	ErrNegativeWeight = errors.New("costs: negative weight")

	// ErrDimensionMismatch indicates a tour or index incompatible with the matrix.
	ErrDimensionMismatch = errors.New("costs: dimension mismatch")

	// ErrMissingArc indicates a tour using an arc of infinite cost.
	ErrMissingArc = errors.New("costs: tour uses a missing arc")
)

// Matrix is an immutable n×n cost table.
type Matrix struct {
	n int
	w []float64
}

// New validates rows and copies them into a Matrix.
//
// Stages:
//  1. Shape: rows non-empty, every row of length len(rows).
//  2. Values: no NaN anywhere; no negative off-diagonal entry.
func New(rows [][]float64) (Matrix, error) {
	var n = len(rows)
	if n == 0 {
		return Matrix{}, ErrNonSquare
	}
	var (
		w    = make([]float64, n*n)
		i, j int
		x    float64
	)
	for i = 0; i < n; i++ {
		if len(rows[i]) != n {
			return Matrix{}, ErrNonSquare
		}
		for j = 0; j < n; j++ {
			x = rows[i][j]
			if math.IsNaN(x) {
				return Matrix{}, ErrNaN
			}
			if i == j {
				continue // diagonal ignored
			}
			if x < 0 {
				return Matrix{}, ErrNegativeWeight
			}
			w[i*n+j] = x
		}
	}
	return Matrix{n: n, w: w}, nil
}

// MustNew is New that panics on error. Intended for fixtures and examples.
func MustNew(rows [][]float64) Matrix {
	m, err := New(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// N returns the matrix order (0 for the zero Matrix).
func (m Matrix) N() int { return m.n }

// IsZero reports whether m is the zero Matrix (no costs supplied).
func (m Matrix) IsZero() bool { return m.n == 0 }

// At returns c(u,v). Indices are not checked beyond Go's slice bounds.
func (m Matrix) At(u, v int) float64 { return m.w[u*m.n+v] }

// Row returns a read-only view of row u.
func (m Matrix) Row(u int) []float64 { return m.w[u*m.n : (u+1)*m.n] }

// Symmetric reports whether |c(u,v) − c(v,u)| ≤ tol for all u≠v.
// A negative tol selects the default structural tolerance.
func (m Matrix) Symmetric(tol float64) bool {
	if tol < 0 {
		tol = symTol
	}
	var (
		i, j     int
		aij, aji float64
	)
	for i = 0; i < m.n; i++ {
		for j = i + 1; j < m.n; j++ {
			aij, aji = m.w[i*m.n+j], m.w[j*m.n+i]
			if math.IsInf(aij, 1) && math.IsInf(aji, 1) {
				continue
			}
			if math.Abs(aij-aji) > tol {
				return false
			}
		}
	}
	return true
}

// TourCost sums the arcs tour[i]→tour[i+1] of a closed tour (tour[0]==tour[len-1]).
//
// Errors:
//   - ErrDimensionMismatch for a short tour or an index out of range;
//   - ErrMissingArc when an arc has infinite cost.
func (m Matrix) TourCost(tour []int) (float64, error) {
	if len(tour) < 2 {
		return 0, ErrDimensionMismatch
	}
	var (
		sum  float64
		i    int
		u, v int
		x    float64
	)
	for i = 0; i+1 < len(tour); i++ {
		u, v = tour[i], tour[i+1]
		if u < 0 || u >= m.n || v < 0 || v >= m.n {
			return 0, ErrDimensionMismatch
		}
		x = m.w[u*m.n+v]
		if math.IsInf(x, 1) {
			return 0, ErrMissingArc
		}
		sum += x
	}
	return Round(sum), nil
}

// Round stabilizes x to 1e-9.
func Round(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	return math.Round(x*roundScale) / roundScale
}
