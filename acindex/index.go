// Package acindex implements an exact multi-pattern index over a motif set.
//
// Every motif is registered twice, as given and reverse-complemented, and the
// index is compiled into an Aho-Corasick automaton with a dense transition
// table, so scanning costs one table lookup per read base no matter how many
// patterns are indexed. An Index is immutable once built and may be shared by
// any number of goroutines.
package acindex

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/motifscan/motif"
)

// Pattern is one indexed pattern: a motif in a given orientation. Pattern
// IDs are 2*i for motif i forward and 2*i+1 for its reverse complement.
type Pattern struct {
	ID         int
	MotifIndex int
	Motif      motif.Motif
	Strand     motif.Strand
	// Seq is the upper-case pattern as searched, reverse complemented for
	// Reverse patterns.
	Seq string
}

// Match is an exact occurrence of a pattern. Start and End delimit a
// half-open span of the scanned sequence.
type Match struct {
	PatternID  int
	Start, End int
}

// Index is an Aho-Corasick automaton over forward and reverse-complement
// motif patterns.
type Index struct {
	patterns []Pattern
	// symbols maps a byte (either case) to its symbol. Symbol 0 stands for
	// every byte that does not occur in any pattern.
	symbols [256]uint8
	nSym    int
	// delta is the row-major nState*nSym transition table with failure
	// transitions folded in.
	delta []int32
	// out[s] lists, in ascending order, the IDs of the patterns that end at
	// state s.
	out [][]int32
}

// New builds an index over motifs. An empty motif set yields an index that
// never matches. Motifs with empty sequences are rejected.
func New(motifs []motif.Motif) (*Index, error) {
	x := &Index{patterns: make([]Pattern, 0, 2*len(motifs))}
	for i, m := range motifs {
		if m.Seq == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("motif %q has an empty sequence", m.Name))
		}
		fwd := make([]byte, len(m.Seq))
		for j := range fwd {
			fwd[j] = motif.Upper(m.Seq[j])
		}
		rev := make([]byte, len(fwd))
		motif.ReverseComplement(rev, fwd)
		x.patterns = append(x.patterns,
			Pattern{ID: 2 * i, MotifIndex: i, Motif: m, Strand: motif.Forward, Seq: string(fwd)},
			Pattern{ID: 2*i + 1, MotifIndex: i, Motif: m, Strand: motif.Reverse, Seq: string(rev)})
	}

	x.nSym = 1
	for _, p := range x.patterns {
		for j := 0; j < len(p.Seq); j++ {
			c := p.Seq[j]
			if x.symbols[c] != 0 {
				continue
			}
			if x.nSym == 256 {
				return nil, errors.E(errors.Invalid, "pattern alphabet too large")
			}
			x.symbols[c] = uint8(x.nSym)
			if lc := c + 'a' - 'A'; c >= 'A' && c <= 'Z' {
				x.symbols[lc] = uint8(x.nSym)
			}
			x.nSym++
		}
	}
	x.build()
	return x, nil
}

func (x *Index) newState() int32 {
	s := int32(len(x.out))
	for i := 0; i < x.nSym; i++ {
		x.delta = append(x.delta, -1)
	}
	x.out = append(x.out, nil)
	return s
}

func (x *Index) build() {
	x.newState()
	for _, p := range x.patterns {
		var cur int32
		for j := 0; j < len(p.Seq); j++ {
			k := int(cur)*x.nSym + int(x.symbols[p.Seq[j]])
			if x.delta[k] < 0 {
				next := x.newState()
				x.delta[k] = next
			}
			cur = x.delta[k]
		}
		x.out[cur] = append(x.out[cur], int32(p.ID))
	}

	fail := make([]int32, len(x.out))
	queue := make([]int32, 0, len(x.out))
	for c := 0; c < x.nSym; c++ {
		if t := x.delta[c]; t > 0 {
			fail[t] = 0
			queue = append(queue, t)
		} else {
			x.delta[c] = 0
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		row := int(s) * x.nSym
		frow := int(fail[s]) * x.nSym
		for c := 0; c < x.nSym; c++ {
			t := x.delta[row+c]
			if t < 0 {
				x.delta[row+c] = x.delta[frow+c]
				continue
			}
			f := x.delta[frow+c]
			fail[t] = f
			if len(x.out[f]) > 0 {
				x.out[t] = append(x.out[t], x.out[f]...)
			}
			queue = append(queue, t)
		}
	}
	for _, ids := range x.out {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
}

// NumPatterns returns the number of indexed patterns, twice the number of
// motifs.
func (x *Index) NumPatterns() int { return len(x.patterns) }

// Pattern returns the pattern with the given ID.
func (x *Index) Pattern(id int) Pattern { return x.patterns[id] }

// Scan calls fn for every exact pattern occurrence in seq, ordered by end
// position and then by pattern ID. Matching ignores case. Scan stops early
// when fn returns false.
func (x *Index) Scan(seq []byte, fn func(Match) bool) {
	if len(x.patterns) == 0 {
		return
	}
	var state int32
	for i, b := range seq {
		state = x.delta[int(state)*x.nSym+int(x.symbols[b])]
		for _, id := range x.out[state] {
			if !fn(Match{PatternID: int(id), Start: i + 1 - len(x.patterns[id].Seq), End: i + 1}) {
				return
			}
		}
	}
}

// FindAll returns every exact occurrence in seq, in Scan order.
func (x *Index) FindAll(seq []byte) []Match {
	var matches []Match
	x.Scan(seq, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

// First returns the first occurrence in Scan order.
func (x *Index) First(seq []byte) (m Match, ok bool) {
	x.Scan(seq, func(mm Match) bool {
		m, ok = mm, true
		return false
	})
	return
}
