// Package kitscore ranks library preparation kits by how well their motif
// signatures explain the hits of a run.
package kitscore

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/motifscan/tally"
)

// Weights gives the score contributed by one read hit of a motif, per
// category. More specific categories weigh more.
type Weights [motif.NumCategories]float64

// DefaultWeights rank adapters over primers over barcodes over flanks.
var DefaultWeights = Weights{
	motif.AdapterTop:    4,
	motif.AdapterBottom: 4,
	motif.Primer:        3,
	motif.Barcode:       2,
	motif.Flank:         1,
}

// barcodePrefixes are the barcode naming schemes of the different kit
// families. Longer prefixes come first.
var barcodePrefixes = []string{"BARCODE", "RLB", "16S", "NB", "RB", "BC", "BP"}

// CanonicalBarcode maps a barcode name such as NB01, RB1, BP01 or barcode01
// to the kit-independent form BC01. It returns false if name is not a
// barcode name.
func CanonicalBarcode(name string) (string, bool) {
	upper := strings.ToUpper(name)
	for _, prefix := range barcodePrefixes {
		if !strings.HasPrefix(upper, prefix) {
			continue
		}
		digits := strings.TrimLeft(upper[len(prefix):], "_-")
		if digits == "" {
			return "", false
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			return "", false
		}
		return fmt.Sprintf("BC%02d", n), true
	}
	return "", false
}

// key returns the name under which a motif is counted across kits.
func key(name string, c motif.Category) string {
	if c == motif.Barcode {
		if bc, ok := CanonicalBarcode(name); ok {
			return bc
		}
	}
	return name
}

// Likelihood is the score of one kit.
type Likelihood struct {
	KitID       string  `json:"kit_id"`
	Score       float64 `json:"score"`
	Probability float64 `json:"probability"`
	// MatchedMotifs counts the kit's motifs seen in at least one read.
	MatchedMotifs int `json:"matched_motifs"`
	// TotalHits sums the read counts of the kit's motifs.
	TotalHits int64 `json:"total_hits"`
}

// Score computes kit likelihoods from a tally snapshot. A kit scores the
// weighted read counts of its signature motifs; barcode counts are pooled
// by canonical barcode so that kits using different barcode names share
// them. Probabilities are a softmax over the kits with a nonzero score;
// zero-score kits get probability 0. The result is sorted by decreasing
// probability, then score, then kit ID.
func Score(snap tally.Snapshot, kits []motif.Kit, w Weights) []Likelihood {
	type count struct {
		n        int64
		category motif.Category
	}
	counts := make(map[string]count, len(snap.Motifs))
	for _, m := range snap.Motifs {
		k := key(m.Name, m.Category)
		c := counts[k]
		c.n += m.Count
		c.category = m.Category
		counts[k] = c
	}
	out := make([]Likelihood, len(kits))
	for i, kit := range kits {
		l := Likelihood{KitID: kit.ID}
		seen := make(map[string]bool, len(kit.Motifs))
		for _, name := range kit.Motifs {
			// The signature lists names only; a barcode's count is pooled
			// under its canonical name if the snapshot saw it as a barcode.
			k := name
			if bc, ok := CanonicalBarcode(name); ok {
				if c, ok := counts[bc]; ok && c.category == motif.Barcode {
					k = bc
				}
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			c, ok := counts[k]
			if !ok || c.n == 0 {
				continue
			}
			l.MatchedMotifs++
			l.TotalHits += c.n
			l.Score += w[c.category] * float64(c.n)
		}
		out[i] = l
	}
	softmax(out)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.KitID < b.KitID
	})
	return out
}

// softmax sets the probabilities of the kits with a positive score.
func softmax(ls []Likelihood) {
	max := math.Inf(-1)
	for _, l := range ls {
		if l.Score > 0 && l.Score > max {
			max = l.Score
		}
	}
	if math.IsInf(max, -1) {
		return
	}
	var sum float64
	for i := range ls {
		if ls[i].Score > 0 {
			ls[i].Probability = math.Exp(ls[i].Score - max)
			sum += ls[i].Probability
		}
	}
	for i := range ls {
		ls[i].Probability /= sum
	}
}
