// Package strategy composes the exact pattern index and the approximate
// matchers into named classification algorithms.
//
// A Strategy is built once per run from a fixed motif set and is then
// read-only: Classify and ClassifyAll may be called from any number of
// goroutines.
package strategy

import (
	"sort"

	"github.com/grailbio/motifscan/acindex"
	"github.com/grailbio/motifscan/align"
	"github.com/grailbio/motifscan/motif"
)

// Params holds matcher thresholds.
type Params struct {
	// MaxDist is the largest edit distance accepted by edit distance
	// algorithms.
	MaxDist int
	// MinScore is the smallest local alignment score accepted by local
	// alignment algorithms. Values <= 0 select align.DefaultMinScore of the
	// motif length.
	MinScore int
}

// DefaultParams are the thresholds used when none are given.
var DefaultParams = Params{MaxDist: 2}

// Strategy classifies reads against a motif set.
type Strategy struct {
	algo    Algorithm
	motifs  []motif.Motif
	index   *acindex.Index
	matcher align.Matcher
	sel     align.Selection

	// fwd[i] and rev[i] are motif i compiled as given and reverse
	// complemented.
	fwd, rev []*align.Pattern
	// palindrome[i] is true if motif i equals its reverse complement.
	palindrome []bool
	threshold  []int
}

// New builds a strategy. The motifs are borrowed and must not be modified
// while the strategy is in use. Backend substitutions are recorded in
// Selection.
func New(algo Algorithm, motifs []motif.Motif, params Params) (*Strategy, error) {
	s := &Strategy{algo: algo, motifs: motifs, palindrome: make([]bool, len(motifs))}
	for i, m := range motifs {
		s.palindrome[i] = m.Seq == motif.ReverseComplementString(m.Seq)
	}
	if algo.Exact() || algo.TwoStage() {
		var err error
		if s.index, err = acindex.New(motifs); err != nil {
			return nil, err
		}
	}
	if algo.Exact() {
		s.sel = align.Selection{Requested: algo.String(), Actual: algo.String()}
		return s, nil
	}
	var err error
	if s.matcher, s.sel, err = align.Select(algo.backend()); err != nil {
		return nil, err
	}
	s.fwd = make([]*align.Pattern, len(motifs))
	s.rev = make([]*align.Pattern, len(motifs))
	s.threshold = make([]int, len(motifs))
	for i, m := range motifs {
		s.fwd[i], s.rev[i] = align.Compile(m.Seq), align.Compile(motif.ReverseComplementString(m.Seq))
		switch {
		case s.matcher.Kind() == align.EditDistance:
			s.threshold[i] = params.MaxDist
		case params.MinScore > 0:
			s.threshold[i] = params.MinScore
		default:
			s.threshold[i] = align.DefaultMinScore(len(m.Seq))
		}
	}
	return s, nil
}

// Algorithm returns the strategy's algorithm.
func (s *Strategy) Algorithm() Algorithm { return s.algo }

// Name returns the algorithm name.
func (s *Strategy) Name() string { return s.algo.String() }

// Selection tells which matcher backend actually runs.
func (s *Strategy) Selection() align.Selection { return s.sel }

// Kind tells how hit scores compare. Exact hits are distances of 0.
func (s *Strategy) Kind() align.Kind {
	if s.matcher == nil {
		return align.EditDistance
	}
	return s.matcher.Kind()
}

// Motifs returns the motif set.
func (s *Strategy) Motifs() []motif.Motif { return s.motifs }

func (s *Strategy) exactHit(m acindex.Match) motif.Hit {
	p := s.index.Pattern(m.PatternID)
	return motif.Hit{
		Name:     p.Motif.Name,
		Category: p.Motif.Category,
		Strand:   p.Strand,
		Start:    m.Start,
		End:      m.End,
	}
}

// match runs the approximate matcher for motif i in one orientation.
func (s *Strategy) match(i int, strand motif.Strand, seq []byte) (motif.Hit, bool) {
	p := s.fwd[i]
	if strand == motif.Reverse {
		p = s.rev[i]
	}
	res, ok := s.matcher.BestMatch(p, seq, s.threshold[i])
	if !ok {
		return motif.Hit{}, false
	}
	m := s.motifs[i]
	return motif.Hit{
		Name:     m.Name,
		Category: m.Category,
		Strand:   strand,
		Start:    res.Start,
		End:      res.End,
		Score:    res.Score,
	}, true
}

// bestOf returns the better of motif i's forward and reverse placements,
// preferring forward on ties.
func (s *Strategy) bestOf(i int, seq []byte) (motif.Hit, bool) {
	best, ok := s.match(i, motif.Forward, seq)
	if s.palindrome[i] {
		return best, ok
	}
	if h, rok := s.match(i, motif.Reverse, seq); rok && (!ok || s.matcher.Kind().Better(h.Score, best.Score)) {
		best, ok = h, true
	}
	return best, ok
}

// approximate searches every motif in both orientations and returns the best
// hit. Ties go to the earlier motif.
func (s *Strategy) approximate(seq []byte) (best motif.Hit, ok bool) {
	for i := range s.motifs {
		if h, hok := s.bestOf(i, seq); hok && (!ok || s.matcher.Kind().Better(h.Score, best.Score)) {
			best, ok = h, true
		}
	}
	return
}

// Classify returns the best hit in seq, or false if no motif clears the
// threshold.
//
// The exact algorithm returns the first index match (by end position, then
// pattern ID). Approximate algorithms return the lowest distance or highest
// score over every motif and orientation. Two-stage algorithms refine the
// first exact match with the approximate matcher restricted to that motif,
// and fall back to the full approximate search when nothing matches exactly.
func (s *Strategy) Classify(seq []byte) (motif.Hit, bool) {
	switch {
	case s.algo.Exact():
		m, ok := s.index.First(seq)
		if !ok {
			return motif.Hit{}, false
		}
		return s.exactHit(m), true
	case s.algo.TwoStage():
		if m, ok := s.index.First(seq); ok {
			if h, ok := s.bestOf(s.index.Pattern(m.PatternID).MotifIndex, seq); ok {
				return h, true
			}
		}
	}
	return s.approximate(seq)
}

// ClassifyAll returns every motif and orientation found in seq, at most one
// hit per (motif, strand), sorted by start position. A palindromic motif is
// only reported on the forward strand.
//
// Approximate and two-stage algorithms try every motif, so a motif that only
// occurs with edits is reported even when others occur exactly.
func (s *Strategy) ClassifyAll(seq []byte) []motif.Hit {
	if s.algo.Exact() {
		return s.exactAll(seq)
	}
	hits, _, _ := s.sweep(seq, -1)
	return hits
}

// ClassifyRead returns ClassifyAll(seq) and Classify(seq) together, running
// the approximate matcher over each motif once. The best hit, when there is
// one, is always among the hits.
func (s *Strategy) ClassifyRead(seq []byte) (hits []motif.Hit, best motif.Hit, ok bool) {
	if s.algo.Exact() {
		hits = s.exactAll(seq)
		m, found := s.index.First(seq)
		if !found {
			return hits, motif.Hit{}, false
		}
		return hits, s.exactHit(m), true
	}
	prefer := -1
	if s.algo.TwoStage() {
		if m, found := s.index.First(seq); found {
			prefer = s.index.Pattern(m.PatternID).MotifIndex
		}
	}
	return s.sweep(seq, prefer)
}

func (s *Strategy) exactAll(seq []byte) []motif.Hit {
	var hits []motif.Hit
	seen := make(map[int]bool)
	s.index.Scan(seq, func(m acindex.Match) bool {
		p := s.index.Pattern(m.PatternID)
		key := 2 * p.MotifIndex
		if p.Strand == motif.Reverse {
			if s.palindrome[p.MotifIndex] {
				return true
			}
			key++
		}
		if !seen[key] {
			seen[key] = true
			hits = append(hits, s.exactHit(m))
		}
		return true
	})
	sortHits(hits)
	return hits
}

// sweep runs the approximate matcher over every motif in both orientations.
// The best hit is chosen as Classify does: motif prefer's best placement if
// it has one, else the best over all motifs, ties going to the earlier motif
// and to the forward strand.
func (s *Strategy) sweep(seq []byte, prefer int) (hits []motif.Hit, best motif.Hit, ok bool) {
	var (
		preferred motif.Hit
		pok       bool
		kind      = s.matcher.Kind()
	)
	for i := range s.motifs {
		h, hok := s.match(i, motif.Forward, seq)
		if hok {
			hits = append(hits, h)
		}
		if !s.palindrome[i] {
			if rh, rok := s.match(i, motif.Reverse, seq); rok {
				hits = append(hits, rh)
				if !hok || kind.Better(rh.Score, h.Score) {
					h, hok = rh, true
				}
			}
		}
		if !hok {
			continue
		}
		if i == prefer {
			preferred, pok = h, true
		}
		if !ok || kind.Better(h.Score, best.Score) {
			best, ok = h, true
		}
	}
	if pok {
		best = preferred
	}
	sortHits(hits)
	return hits, best, ok
}

// sortHits orders hits by start position, placing hits without a position
// last. The sort is stable so equal starts keep motif order.
func sortHits(hits []motif.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.HasPos() != b.HasPos() {
			return a.HasPos()
		}
		return a.Start < b.Start
	})
}
