package align

import (
	"sync"

	"github.com/grailbio/motifscan/util"
)

// Myers is a bounded edit distance matcher based on Myers' bit-vector
// algorithm, using Hyyrö's block decomposition for patterns longer than one
// machine word. It searches for the pattern anywhere in the read (infix
// alignment). Cost is O(len(read) * ceil(len(pattern)/64)).
type Myers struct{}

// Name implements Matcher.
func (Myers) Name() string { return "myers" }

// Kind implements Matcher.
func (Myers) Kind() Kind { return EditDistance }

var myersPool = sync.Pool{New: func() interface{} { return new([]uint64) }}

// BestMatch returns the minimum edit distance between p and any substring of
// read, together with the leftmost span attaining it. It returns false when
// that distance exceeds maxDist. It searches p as given; reverse complements
// are the caller's business.
func (Myers) BestMatch(p *Pattern, read []byte, maxDist int) (Result, bool) {
	m := len(p.Seq)
	if m == 0 || maxDist < 0 || m-len(read) > maxDist {
		return Result{}, false
	}
	buf := myersPool.Get().(*[]uint64)
	defer myersPool.Put(buf)
	if cap(*buf) < 2*p.words {
		*buf = make([]uint64, 2*p.words)
	}
	pv, mv := (*buf)[:p.words], (*buf)[p.words:2*p.words]
	for b := range pv {
		pv[b], mv[b] = ^uint64(0), 0
	}

	var (
		lastBlock = p.words - 1
		lastBit   = uint((m - 1) % wordSize)
		score     = m
		best      = maxDist + 1
		bestEnd   = -1
	)
	if score <= maxDist {
		best, bestEnd = score, 0
	}
	for j, c := range read {
		eqs := &p.peq[readSymbols[c]]
		hin := 0
		for b := 0; b <= lastBlock; b++ {
			var hinNeg, hinPos uint64
			if hin < 0 {
				hinNeg = 1
			} else if hin > 0 {
				hinPos = 1
			}
			eq, pvb, mvb := (*eqs)[b], pv[b], mv[b]
			xv := eq | mvb
			eq |= hinNeg
			xh := (((eq & pvb) + pvb) ^ pvb) | eq
			ph := mvb | ^(xh | pvb)
			mh := pvb & xh
			if b == lastBlock {
				score += int((ph>>lastBit)&1) - int((mh>>lastBit)&1)
			} else {
				hin = int(ph>>(wordSize-1)) - int(mh>>(wordSize-1))
			}
			ph = ph<<1 | hinPos
			mh = mh<<1 | hinNeg
			pv[b] = mh | ^(xv | ph)
			mv[b] = ph & xv
		}
		if score < best {
			best, bestEnd = score, j+1
			if best == 0 {
				break
			}
		}
	}
	if bestEnd < 0 {
		return Result{}, false
	}
	lo := bestEnd - m - best
	if lo < 0 {
		lo = 0
	}
	start, _ := util.InfixStart(p.Seq, read[lo:bestEnd], Equal)
	return Result{Start: lo + start, End: bestEnd, Score: best}, true
}
