package align

import (
	"math"
	"sync"
)

// Scoring holds local alignment parameters. Penalties are positive numbers
// that are subtracted; a gap of length k costs GapOpen + k*GapExtend.
type Scoring struct {
	Match     int
	Mismatch  int
	GapOpen   int
	GapExtend int
}

// DefaultScoring rewards a match with 2 and penalizes a mismatch with 1 and
// a gap of length k with 5+k.
var DefaultScoring = Scoring{Match: 2, Mismatch: 1, GapOpen: 5, GapExtend: 1}

// DefaultMinScore is the minimum local alignment score accepted for a
// pattern of length n when no explicit minimum is configured: half of the
// perfect score.
func DefaultMinScore(n int) int { return n * DefaultScoring.Match / 2 }

// Gotoh is an affine-gap local alignment (Smith-Waterman-Gotoh) matcher. It
// computes scores only, in O(len(pattern)) memory.
type Gotoh struct {
	Scoring Scoring
}

// NewGotoh returns a Gotoh matcher with DefaultScoring.
func NewGotoh() *Gotoh { return &Gotoh{Scoring: DefaultScoring} }

// Name implements Matcher.
func (*Gotoh) Name() string { return "sw" }

// Kind implements Matcher.
func (*Gotoh) Kind() Kind { return LocalScore }

// gotohCell is a cell value together with the read offset where the
// alignment it ends started.
type gotohCell struct {
	score, start int
}

var gotohPool = sync.Pool{New: func() interface{} { return new([]gotohCell) }}

const negInf = math.MinInt32 / 2

// BestMatch returns the best local alignment of p on read. It returns false
// unless the score is positive and at least minScore. Among equal scores the
// alignment ending leftmost on the read wins.
func (g *Gotoh) BestMatch(p *Pattern, read []byte, minScore int) (Result, bool) {
	m := len(p.Seq)
	if m == 0 || len(read) == 0 {
		return Result{}, false
	}
	sc := g.Scoring
	open, extend := sc.GapOpen+sc.GapExtend, sc.GapExtend

	buf := gotohPool.Get().(*[]gotohCell)
	defer gotohPool.Put(buf)
	if cap(*buf) < 2*(m+1) {
		*buf = make([]gotohCell, 2*(m+1))
	}
	// h[i] holds H(i, j-1) before row i of column j is computed and H(i, j)
	// after. e[i] likewise holds the score of alignments ending with a gap in
	// the pattern (read base consumed).
	h, e := (*buf)[:m+1], (*buf)[m+1:2*(m+1)]
	for i := range h {
		h[i] = gotohCell{0, 0}
		e[i] = gotohCell{negInf, 0}
	}

	best := gotohCell{0, 0}
	bestEnd := -1
	for j := 1; j <= len(read); j++ {
		c := read[j-1]
		diag := h[0]
		h[0] = gotohCell{0, j}
		f := gotohCell{negInf, 0}
		for i := 1; i <= m; i++ {
			// E(i,j): gap in the pattern, from the cell to the left.
			if e[i].score-extend >= h[i].score-open {
				e[i].score -= extend
			} else {
				e[i] = gotohCell{h[i].score - open, h[i].start}
			}
			// F(i,j): gap in the read, from the cell above.
			if f.score-extend >= h[i-1].score-open {
				f.score -= extend
			} else {
				f = gotohCell{h[i-1].score - open, h[i-1].start}
			}
			cell := diag
			if p.matches(i-1, c) {
				cell.score += sc.Match
			} else {
				cell.score -= sc.Mismatch
			}
			if e[i].score > cell.score {
				cell = e[i]
			}
			if f.score > cell.score {
				cell = f
			}
			if cell.score <= 0 {
				cell = gotohCell{0, j}
			}
			diag = h[i]
			h[i] = cell
			if cell.score > best.score {
				best, bestEnd = cell, j
			}
		}
	}
	if bestEnd < 0 || best.score < minScore {
		return Result{}, false
	}
	return Result{Start: best.start, End: bestEnd, Score: best.score}, true
}
