// Package frequency builds normalized bigram frequency tables.
//
// A Table is an N×N matrix over an alphabet where cell (i, j) holds the
// empirical probability that symbol j immediately follows symbol i. Tables
// are immutable once built.
package frequency

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
)

// Tolerance is the slack allowed when checking that a table sums to one.
const Tolerance = 1e-9

// Counts holds raw bigram counts and the number of valid pairs they came from.
type Counts struct {
	n     int
	cells []int64
	total int64
}

// Count scans text as overlapping adjacent pairs. Pairs where either symbol
// is outside the alphabet are skipped and do not contribute to the total.
func Count(a *alphabet.Alphabet, text []rune) Counts {
	n := a.Size()
	c := Counts{n: n, cells: make([]int64, n*n)}
	if len(text) < 2 {
		return c
	}
	prev, prevOK := a.Lookup(text[0])
	for _, r := range text[1:] {
		cur, ok := a.Lookup(r)
		if ok && prevOK {
			c.cells[prev*n+cur]++
			c.total++
		}
		prev, prevOK = cur, ok
	}
	return c
}

// Build returns the normalized bigram table of text.
func Build(a *alphabet.Alphabet, text []rune) Table {
	return Count(a, text).Normalize()
}

func (c Counts) Size() int {
	return c.n
}

// Total is the number of valid bigrams counted.
func (c Counts) Total() int64 {
	return c.total
}

// At returns the count for the pair (i, j).
func (c Counts) At(i, j int) int64 {
	return c.cells[i*c.n+j]
}

// Normalize divides every cell by the total. When no valid pair was counted
// the result is the all-zero table.
func (c Counts) Normalize() Table {
	t := Table{n: c.n, cells: make([]float64, len(c.cells))}
	if c.total == 0 {
		return t
	}
	total := float64(c.total)
	for i, v := range c.cells {
		t.cells[i] = float64(v) / total
	}
	return t
}

// SwapSymbols returns the counts the same text would produce if every
// occurrence of symbol i were replaced by j and vice versa: rows i and j are
// exchanged, then columns i and j.
func (c Counts) SwapSymbols(i, j int) Counts {
	out := Counts{n: c.n, cells: make([]int64, len(c.cells)), total: c.total}
	copy(out.cells, c.cells)
	if i == j {
		return out
	}
	n := c.n
	for col := 0; col < n; col++ {
		out.cells[i*n+col], out.cells[j*n+col] = out.cells[j*n+col], out.cells[i*n+col]
	}
	for row := 0; row < n; row++ {
		out.cells[row*n+i], out.cells[row*n+j] = out.cells[row*n+j], out.cells[row*n+i]
	}
	return out
}

// Table is a normalized N×N bigram probability matrix, stored row-major.
type Table struct {
	n     int
	cells []float64
}

// Zero returns the all-zero table of size n.
func Zero(n int) Table {
	return Table{n: n, cells: make([]float64, n*n)}
}

// FromRows builds a table from a square matrix. Cells must be finite and
// non-negative.
func FromRows(rows [][]float64) (Table, error) {
	n := len(rows)
	t := Zero(n)
	for i, row := range rows {
		if len(row) != n {
			return Table{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedTable, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return Table{}, fmt.Errorf("%w: cell (%d,%d) = %v", ErrMalformedTable, i, j, v)
			}
			t.cells[i*n+j] = v
		}
	}
	return t, nil
}

// Size returns N, the number of rows (and columns).
func (t Table) Size() int {
	return t.n
}

func (t Table) At(i, j int) float64 {
	return t.cells[i*t.n+j]
}

// Row returns a copy of row i.
func (t Table) Row(i int) []float64 {
	out := make([]float64, t.n)
	copy(out, t.cells[i*t.n:(i+1)*t.n])
	return out
}

// Sum returns the sum of all cells: ~1 for a trained table, 0 for an empty one.
func (t Table) Sum() float64 {
	var sum float64
	for _, v := range t.cells {
		sum += v
	}
	return sum
}

func (t Table) IsZero() bool {
	for _, v := range t.cells {
		if v != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether t and other have the same size and identical cells.
func (t Table) Equal(other Table) bool {
	if t.n != other.n {
		return false
	}
	for i := range t.cells {
		if t.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}
