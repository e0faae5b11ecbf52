// Package trim locates adapters, primers and barcodes near the ends of reads
// and clips them off.
//
// A read is annotated with the best adapter or primer hit whose centre lies
// within EndWindow bases of the 5' end, the best one within EndWindow bases of
// the 3' end, and the best barcode or flank hit in each half of the read. The
// kept interval starts after the 5' hits and ends before the 3' hits. When the
// two cuts cross, the read is left whole.
package trim

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/motifscan/align"
	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/motifscan/strategy"
)

// Opts configures a trimmer.
type Opts struct {
	// Kit selects the motifs to clip. Empty means every motif of the
	// registry.
	Kit string
	// Algorithm is the matching algorithm. It must use edit distance.
	Algorithm strategy.Algorithm
	// MaxEdits is the largest edit distance of an accepted hit.
	MaxEdits int
	// EndWindow bounds how far from a read end an adapter hit may lie.
	EndWindow int
	// Workers is the number of annotating goroutines.
	Workers int
}

// DefaultOpts are the default trimming options.
var DefaultOpts = Opts{
	Algorithm: strategy.ACMyers,
	MaxEdits:  3,
	EndWindow: 300,
	Workers:   runtime.NumCPU(),
}

// Structure elements, in read order.
const (
	elemAdapter        = "sequencing adapter"
	elemBarcode        = "barcode"
	elemInsert         = "insert"
	elemReverseBarcode = "reverse barcode"
	elemReverseAdapter = "reverse adapter"
)

// Result is the annotation of one read.
type Result struct {
	// Seq and Qual are the kept part of the read.
	Seq, Qual []byte
	// Left and Right delimit the kept interval [Left, Right) of the
	// original read of length Len.
	Left, Right, Len int
	// Clipped is set when the read was shortened.
	Clipped bool
	// Unclippable is set when end hits were found but the cuts crossed.
	Unclippable bool
	// Structure lists the elements found, joined by " > ".
	Structure string
	// Notes describe the hits that placed the cuts.
	Notes []string
}

// Annotation returns the text appended to the read name:
//
//   trim=left..right;len=n[;note...]
func (r Result) Annotation() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trim=%d..%d;len=%d", r.Left, r.Right, r.Len)
	for _, n := range r.Notes {
		b.WriteByte(';')
		b.WriteString(n)
	}
	return b.String()
}

// Clip5 is the number of bases removed from the 5' end.
func (r Result) Clip5() int { return r.Left }

// Clip3 is the number of bases removed from the 3' end.
func (r Result) Clip3() int { return r.Len - r.Right }

// Trimmer annotates and clips reads. It is safe for concurrent use.
type Trimmer struct {
	s      *strategy.Strategy
	window int
}

// New builds a trimmer for the given motifs.
func New(motifs []motif.Motif, opts Opts) (*Trimmer, error) {
	if opts.MaxEdits < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("max edits %d must not be negative", opts.MaxEdits))
	}
	if opts.EndWindow <= 0 {
		opts.EndWindow = DefaultOpts.EndWindow
	}
	s, err := strategy.New(opts.Algorithm, motifs, strategy.Params{MaxDist: opts.MaxEdits})
	if err != nil {
		return nil, err
	}
	if s.Kind() != align.EditDistance {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("algorithm %s does not use edit distance", s.Name()))
	}
	return &Trimmer{s: s, window: opts.EndWindow}, nil
}

// Annotate finds the end motifs of a read and returns the clipped read. The
// sequence is upper-cased. Qual may be empty, in which case the clipped
// qualities are all 'I'.
func (t *Trimmer) Annotate(seq, qual []byte) Result {
	s := bytes.ToUpper(seq)
	n := len(s)
	var left, right, bcLeft, bcRight *motif.Hit
	better := func(h, cur *motif.Hit) bool {
		return cur == nil || h.Score < cur.Score
	}
	hits := t.s.ClassifyAll(s)
	for i := range hits {
		h := &hits[i]
		if !h.HasPos() {
			continue
		}
		centre := (h.Start + h.End) / 2
		// Hits centred in the first half belong to the 5' end.
		fivePrime := 2*centre < n
		switch h.Category {
		case motif.Barcode, motif.Flank:
			if fivePrime {
				if better(h, bcLeft) {
					bcLeft = h
				}
			} else if better(h, bcRight) {
				bcRight = h
			}
		default:
			if fivePrime && centre < t.window {
				if better(h, left) {
					left = h
				}
			} else if !fivePrime && n-centre <= t.window && better(h, right) {
				right = h
			}
		}
	}

	r := Result{Left: 0, Right: n, Len: n}
	if left != nil {
		r.Left = left.End
		r.Notes = append(r.Notes, fmt.Sprintf("L:%s:%d-%d:ed=%d", left.Name, left.Start, left.End, left.Score))
	}
	if right != nil {
		r.Right = right.Start
		r.Notes = append(r.Notes, fmt.Sprintf("R:%s:%d-%d:ed=%d", right.Name, right.Start, right.End, right.Score))
	}
	if bcLeft != nil && bcLeft.End > r.Left {
		r.Left = bcLeft.End
		r.Notes = append(r.Notes, fmt.Sprintf("BL:%s:%d-%d", bcLeft.Name, bcLeft.Start, bcLeft.End))
	}
	if bcRight != nil && bcRight.Start < r.Right {
		r.Right = bcRight.Start
		r.Notes = append(r.Notes, fmt.Sprintf("BR:%s:%d-%d", bcRight.Name, bcRight.Start, bcRight.End))
	}
	if r.Left >= r.Right && n > 0 {
		r.Unclippable = true
		r.Left, r.Right = 0, n
	}
	r.Clipped = r.Left > 0 || r.Right < n
	r.Seq = s[r.Left:r.Right]
	if len(qual) == n {
		r.Qual = append([]byte(nil), qual[r.Left:r.Right]...)
	} else {
		r.Qual = bytes.Repeat([]byte{'I'}, len(r.Seq))
	}

	var elems []string
	if left != nil {
		elems = append(elems, elemAdapter)
	}
	if bcLeft != nil {
		elems = append(elems, elemBarcode)
	}
	elems = append(elems, elemInsert)
	if bcRight != nil {
		elems = append(elems, elemReverseBarcode)
	}
	if right != nil {
		elems = append(elems, elemReverseAdapter)
	}
	r.Structure = strings.Join(elems, " > ")
	return r
}
