package tally

import (
	"sort"

	"github.com/grailbio/motifscan/motif"
)

// MotifCount is the number of reads containing a motif.
type MotifCount struct {
	Name     string         `json:"name"`
	Category motif.Category `json:"category"`
	Count    int64          `json:"count"`
}

// StrandCount is the number of reads containing a motif in one
// orientation.
type StrandCount struct {
	Name     string         `json:"name"`
	Category motif.Category `json:"category"`
	Strand   motif.Strand   `json:"strand"`
	Count    int64          `json:"count"`
}

// ContextCount is the number of reads sharing a context key.
type ContextCount struct {
	Context string `json:"context"`
	Count   int64  `json:"count"`
}

// Confusion counts best-hit outcomes against a truth set.
type Confusion struct {
	TP int64 `json:"tp"`
	FP int64 `json:"fp"`
	FN int64 `json:"fn"`
}

func (c *Confusion) add(d Confusion) {
	c.TP += d.TP
	c.FP += d.FP
	c.FN += d.FN
}

// Precision is TP/(TP+FP), or 0 without positives.
func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }

// Recall is TP/(TP+FN), or 0 without expected labels.
func (c Confusion) Recall() float64 { return ratio(c.TP, c.TP+c.FN) }

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Snapshot is a point-in-time copy of a Tally. Tables are sorted by
// decreasing count, then by name.
type Snapshot struct {
	// Screened counts reads that went through matching.
	Screened     int64 `json:"screened"`
	Unclassified int64 `json:"unclassified"`
	// Skipped counts reads dropped by sampling.
	Skipped      int64          `json:"skipped"`
	WithHit      int64          `json:"with_hit"`
	DecodeErrors int64          `json:"decode_errors"`
	Motifs       []MotifCount   `json:"motifs"`
	Strands      []StrandCount  `json:"strands"`
	Contexts     []ContextCount `json:"contexts"`
	Confusion    Confusion      `json:"confusion"`
}

func (s *Snapshot) sort() {
	sort.Slice(s.Motifs, func(i, j int) bool {
		a, b := s.Motifs[i], s.Motifs[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	sort.Slice(s.Strands, func(i, j int) bool {
		a, b := s.Strands[i], s.Strands[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Strand < b.Strand
	})
	sort.Slice(s.Contexts, func(i, j int) bool {
		a, b := s.Contexts[i], s.Contexts[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Context < b.Context
	})
}

// Top returns a copy of s with every table cut to at most n rows.
func (s Snapshot) Top(n int) Snapshot {
	if len(s.Motifs) > n {
		s.Motifs = s.Motifs[:n]
	}
	if len(s.Strands) > n {
		s.Strands = s.Strands[:n]
	}
	if len(s.Contexts) > n {
		s.Contexts = s.Contexts[:n]
	}
	return s
}

// Count returns the number of reads containing the named motif.
func (s Snapshot) Count(name string) int64 {
	for _, m := range s.Motifs {
		if m.Name == name {
			return m.Count
		}
	}
	return 0
}

// Total returns the number of reads seen, screened or skipped.
func (s Snapshot) Total() int64 { return s.Screened + s.Skipped }

// HitRate is the fraction of screened reads with at least one hit.
func (s Snapshot) HitRate() float64 { return ratio(s.WithHit, s.Screened) }

// UnclassifiedRate is the fraction of screened reads without hits.
func (s Snapshot) UnclassifiedRate() float64 { return ratio(s.Unclassified, s.Screened) }

// SkipRate is the fraction of all reads dropped by sampling.
func (s Snapshot) SkipRate() float64 { return ratio(s.Skipped, s.Total()) }

func ratio(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
