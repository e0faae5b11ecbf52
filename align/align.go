// Package align implements approximate motif matchers: a bit-parallel bounded
// edit distance search (Myers) and an affine-gap local alignment
// (Smith-Waterman-Gotoh). Matchers are stateless and safe for concurrent use;
// the per-motif precomputation lives in an immutable Pattern.
package align

import (
	"github.com/grailbio/motifscan/motif"
)

// Kind tells how a matcher's score is ordered.
type Kind uint8

const (
	// EditDistance scores are distances: lower is better and the threshold
	// is a maximum.
	EditDistance Kind = iota
	// LocalScore scores are alignment scores: higher is better and the
	// threshold is a minimum.
	LocalScore
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == LocalScore {
		return "local-score"
	}
	return "edit-distance"
}

// Better reports whether score a beats score b under k.
func (k Kind) Better(a, b int) bool {
	if k == LocalScore {
		return a > b
	}
	return a < b
}

// Result is the best placement of a pattern on a read. Start and End delimit
// a half-open span of the read.
type Result struct {
	Start, End int
	Score      int
}

// Matcher finds the best placement of a pattern on a read, subject to a
// threshold whose meaning depends on Kind.
type Matcher interface {
	// Name is the name of the algorithm.
	Name() string
	// Kind tells how scores compare.
	Kind() Kind
	// BestMatch returns the best placement of p on read. It returns false
	// if no placement clears threshold.
	BestMatch(p *Pattern, read []byte, threshold int) (Result, bool)
}

const wordSize = 64

// readSymbols maps read bytes to 0..3 for A, C, G, T in either case, and to
// 4 for everything else.
var readSymbols [256]uint8

func init() {
	for i := range readSymbols {
		readSymbols[i] = 4
	}
	for i, c := range "ACGT" {
		readSymbols[c] = uint8(i)
		readSymbols[c+'a'-'A'] = uint8(i)
	}
}

// Pattern is a motif sequence compiled for approximate matching. It is
// immutable and may be shared across goroutines.
type Pattern struct {
	// Seq is the upper-case pattern.
	Seq []byte
	// masks[i] is the IUPAC base set of Seq[i].
	masks []byte
	words int
	// peq[s] is the Myers match vector of read symbol s, one bit per pattern
	// position. peq[4] is all zeros: N and other read bytes never match.
	peq [5][]uint64
}

// Compile prepares seq for matching. seq may contain IUPAC codes, which
// match any base they denote.
func Compile(seq string) *Pattern {
	p := &Pattern{
		Seq:   make([]byte, len(seq)),
		masks: make([]byte, len(seq)),
		words: (len(seq) + wordSize - 1) / wordSize,
	}
	for s := range p.peq {
		p.peq[s] = make([]uint64, p.words)
	}
	for i := 0; i < len(seq); i++ {
		c := motif.Upper(seq[i])
		p.Seq[i] = c
		p.masks[i] = motif.BaseMask(c)
		for s, base := range []byte{motif.MaskA, motif.MaskC, motif.MaskG, motif.MaskT} {
			if p.masks[i]&base != 0 {
				p.peq[s][i/wordSize] |= 1 << uint(i%wordSize)
			}
		}
	}
	return p
}

// Len returns the pattern length.
func (p *Pattern) Len() int { return len(p.Seq) }

// matches reports whether pattern position i matches read byte c.
func (p *Pattern) matches(i int, c byte) bool {
	return p.masks[i]&motif.ReadMask(c) != 0
}

// Equal reports whether pattern base pc matches read base rc under IUPAC
// rules. Read bases other than A, C, G and T never match.
func Equal(pc, rc byte) bool {
	return motif.BaseMask(pc)&motif.ReadMask(rc) != 0
}
