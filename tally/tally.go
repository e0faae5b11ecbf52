// Package tally aggregates per-read motif hits into run-wide counts.
//
// A Tally is shared by all workers of a run. Each Record call folds one read
// in a single critical section, so concurrent updates from different reads
// interleave freely while each read is counted atomically. Snapshots copy
// the counts under the lock and are then independent of the Tally.
package tally

import (
	"sort"
	"strings"
	"sync"

	"github.com/grailbio/motifscan/motif"
)

// ContextSep separates motif names in a context key.
const ContextSep = ">"

// Tally holds the counts of one run.
type Tally struct {
	motifs []motif.Motif
	// ids maps motif names to their index in motifs. It is read-only.
	ids   map[string]int
	truth *TruthSet

	mu           sync.Mutex
	screened     int64
	unclassified int64
	skipped      int64
	withHit      int64
	decodeErrors int64
	// byMotif is indexed by motif id; byStrand by 2*id+strand.
	byMotif   []int64
	byStrand  []int64
	contexts  map[string]int64
	confusion Confusion
}

// New creates an empty tally over the given motifs. Hits naming other
// motifs only contribute to the read and context counts. Truth may be nil.
func New(motifs []motif.Motif, truth *TruthSet) *Tally {
	t := &Tally{
		motifs:   motifs,
		ids:      make(map[string]int, len(motifs)),
		truth:    truth,
		byMotif:  make([]int64, len(motifs)),
		byStrand: make([]int64, 2*len(motifs)),
		contexts: make(map[string]int64),
	}
	for i, m := range motifs {
		if _, ok := t.ids[m.Name]; !ok {
			t.ids[m.Name] = i
		}
	}
	return t
}

// Motifs returns the motifs that the tally counts.
func (t *Tally) Motifs() []motif.Motif { return t.motifs }

// ContextKey returns the co-occurrence key of a read's hits: the motif
// names ordered by start position, hits without a position last, each name
// kept at its first occurrence, joined with ContextSep.
func ContextKey(hits []motif.Hit) string {
	order := make([]int, len(hits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := hits[order[i]], hits[order[j]]
		if a.HasPos() != b.HasPos() {
			return a.HasPos()
		}
		return a.Start < b.Start
	})
	var (
		names = make([]string, 0, len(hits))
		seen  = make(map[string]bool, len(hits))
	)
	for _, i := range order {
		if name := hits[i].Name; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return strings.Join(names, ContextSep)
}

// Record folds one screened read. Hits are all motif occurrences in the
// read; best is the read's single best hit and may be nil. When the tally
// has a truth set, best is scored against the labels of readID.
func (t *Tally) Record(readID string, hits []motif.Hit, best *motif.Hit) {
	var (
		motifIDs  []int
		strandIDs []int
		context   string
	)
	if len(hits) > 0 {
		for _, h := range hits {
			id, ok := t.ids[h.Name]
			if !ok {
				continue
			}
			motifIDs = appendUnique(motifIDs, id)
			strandIDs = appendUnique(strandIDs, 2*id+int(h.Strand))
		}
		context = ContextKey(hits)
	}
	outcome := t.score(readID, best)

	t.mu.Lock()
	t.screened++
	if len(hits) == 0 {
		t.unclassified++
	} else {
		t.withHit++
		for _, id := range motifIDs {
			t.byMotif[id]++
		}
		for _, id := range strandIDs {
			t.byStrand[id]++
		}
		t.contexts[context]++
	}
	t.confusion.add(outcome)
	t.mu.Unlock()
}

func appendUnique(ids []int, id int) []int {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// score compares the best hit of a read with its truth entry. Reads
// without an entry never count.
func (t *Tally) score(readID string, best *motif.Hit) (c Confusion) {
	truth, ok := t.truth.Lookup(readID)
	if !ok {
		return
	}
	switch {
	case best != nil && truth.Labels[best.Name]:
		c.TP = 1
	case best != nil:
		c.FP = 1
		if len(truth.Labels) > 0 {
			c.FN = 1
		}
	case len(truth.Labels) > 0:
		c.FN = 1
	}
	return
}

// RecordSkipped counts a read dropped by sampling.
func (t *Tally) RecordSkipped() {
	t.mu.Lock()
	t.skipped++
	t.mu.Unlock()
}

// RecordDecodeError counts a malformed input record.
func (t *Tally) RecordDecodeError() {
	t.mu.Lock()
	t.decodeErrors++
	t.mu.Unlock()
}

// Reset clears all counts.
func (t *Tally) Reset() {
	t.mu.Lock()
	t.screened, t.unclassified, t.skipped, t.withHit, t.decodeErrors = 0, 0, 0, 0, 0
	for i := range t.byMotif {
		t.byMotif[i] = 0
	}
	for i := range t.byStrand {
		t.byStrand[i] = 0
	}
	t.contexts = make(map[string]int64)
	t.confusion = Confusion{}
	t.mu.Unlock()
}

// Snapshot returns a copy of the current counts.
func (t *Tally) Snapshot() Snapshot {
	t.mu.Lock()
	var (
		s = Snapshot{
			Screened:     t.screened,
			Unclassified: t.unclassified,
			Skipped:      t.skipped,
			WithHit:      t.withHit,
			DecodeErrors: t.decodeErrors,
			Confusion:    t.confusion,
		}
		byMotif  = append([]int64(nil), t.byMotif...)
		byStrand = append([]int64(nil), t.byStrand...)
		contexts = make([]ContextCount, 0, len(t.contexts))
	)
	for key, n := range t.contexts {
		contexts = append(contexts, ContextCount{Context: key, Count: n})
	}
	t.mu.Unlock()

	for id, n := range byMotif {
		if n > 0 {
			m := t.motifs[id]
			s.Motifs = append(s.Motifs, MotifCount{Name: m.Name, Category: m.Category, Count: n})
		}
	}
	for id, n := range byStrand {
		if n > 0 {
			m := t.motifs[id/2]
			s.Strands = append(s.Strands, StrandCount{Name: m.Name, Category: m.Category, Strand: motif.Strand(id % 2), Count: n})
		}
	}
	s.Contexts = contexts
	s.sort()
	return s
}
