package util

import (
	"fmt"
	"strconv"
	"strings"
)

// matrix represents a 2 dimensional matrix.
type matrix struct {
	nRow, nCol int
	data       []int // row-major nRow*nCol array.
}

// matrix returns an n x m matrix.
func newMatrix(n, m int) (x matrix) {
	return matrix{
		nRow: n,
		nCol: m,
		data: make([]int, n*m),
	}
}

func (m matrix) at(i, j int) int { return m.data[i*m.nCol+j] }

func (m matrix) set(i, j, v int) { m.data[i*m.nCol+j] = v }

// String returns a string representation of a matrix.
func (m matrix) String() (r string) {
	maxLength := 0
	for _, d := range m.data {
		if l := len(strconv.Itoa(d)); l > maxLength {
			maxLength = l
		}
	}

	lines := []string{"\n"}
	for i := 0; i < m.nRow; i++ {
		var parts []string
		for j := 0; j < m.nCol; j++ {
			parts = append(parts, fmt.Sprintf("%*s", maxLength, strconv.Itoa(m.at(i, j))))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

// EqualFunc reports whether pattern base p matches text base t.
type EqualFunc func(p, t byte) bool

// ExactEqual is the EqualFunc for plain byte equality.
func ExactEqual(p, t byte) bool { return p == t }

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// computeCell computes the cell (i, j) of an edit distance matrix from its
// upper, left and upper-left neighbors.
func (m matrix) computeCell(i, j int, pattern, text []byte, eq EqualFunc) {
	sub := 1
	if eq(pattern[i-1], text[j-1]) {
		sub = 0
	}
	m.set(i, j, min3(m.at(i-1, j-1)+sub, m.at(i-1, j)+1, m.at(i, j-1)+1))
}

// infixMatrix fills the semi-global edit distance matrix: rows index the
// pattern, columns the text, and the first row is zero so that the pattern
// may start anywhere in the text.
func infixMatrix(pattern, text []byte, eq EqualFunc) matrix {
	m := newMatrix(len(pattern)+1, len(text)+1)
	for i := 1; i <= len(pattern); i++ {
		m.set(i, 0, i)
	}
	for i := 1; i <= len(pattern); i++ {
		for j := 1; j <= len(text); j++ {
			m.computeCell(i, j, pattern, text, eq)
		}
	}
	return m
}

// InfixDistance computes the minimum edit distance between pattern and any
// substring of text. It returns the distance and the smallest end offset
// (exclusive) in text attaining it.
//
// The computation fills the full len(pattern) x len(text) matrix, so it is
// only meant for short windows and for checking faster implementations.
func InfixDistance(pattern, text []byte, eq EqualFunc) (distance, end int) {
	m := infixMatrix(pattern, text, eq)
	row := len(pattern)
	distance, end = m.at(row, 0), 0
	for j := 1; j <= len(text); j++ {
		if d := m.at(row, j); d < distance {
			distance, end = d, j
		}
	}
	return
}

// InfixStart finds where an alignment of pattern that ends exactly at the end
// of text begins. It returns the start offset in text and the edit distance
// of that alignment. When several starts attain the minimum distance, the
// one giving the longest span is returned.
func InfixStart(pattern, text []byte, eq EqualFunc) (start, distance int) {
	// Align the reversed pattern against the reversed text, anchored at the
	// text end and free at the text start.
	n := len(text)
	m := newMatrix(len(pattern)+1, n+1)
	for j := 0; j <= n; j++ {
		m.set(0, j, j)
	}
	for i := 1; i <= len(pattern); i++ {
		m.set(i, 0, i)
		for j := 1; j <= n; j++ {
			sub := 1
			if eq(pattern[len(pattern)-i], text[n-j]) {
				sub = 0
			}
			m.set(i, j, min3(m.at(i-1, j-1)+sub, m.at(i-1, j)+1, m.at(i, j-1)+1))
		}
	}
	row := len(pattern)
	best, span := m.at(row, 0), 0
	for j := 1; j <= n; j++ {
		if d := m.at(row, j); d <= best {
			best, span = d, j
		}
	}
	return n - span, best
}
