// Package motif defines the reference sequences (adapters, primers, barcodes
// and flanks) that reads are screened against, the hits produced by matching
// them, and the kit signatures that group them into library preparations.
package motif

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// Category classifies a motif by its role in a library preparation.
type Category uint8

const (
	// AdapterTop is the top strand of a sequencing adapter.
	AdapterTop Category = iota
	// AdapterBottom is the bottom strand of a sequencing adapter.
	AdapterBottom
	// Primer is a PCR or RT primer.
	Primer
	// Barcode is a sample barcode.
	Barcode
	// Flank is a short sequence flanking a barcode.
	Flank
	nCategory
)

// NumCategories is the number of distinct categories.
const NumCategories = int(nCategory)

var categoryNames = [...]string{
	AdapterTop:    "adapter_top",
	AdapterBottom: "adapter_bottom",
	Primer:        "primer",
	Barcode:       "barcode",
	Flank:         "flank",
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// IsAdapter reports whether c is either adapter strand.
func (c Category) IsAdapter() bool { return c == AdapterTop || c == AdapterBottom }

// ParseCategory parses the string form of a category. "adapter" is accepted
// as a synonym for adapter_top.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "adapter" {
		return AdapterTop, nil
	}
	for i, name := range categoryNames {
		if s == name {
			return Category(i), nil
		}
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("unknown motif category %q", s))
}

// Strand is the orientation in which a motif was found.
type Strand uint8

const (
	// Forward means the motif was found as given.
	Forward Strand = iota
	// Reverse means the reverse complement of the motif was found.
	Reverse
)

// String implements fmt.Stringer.
func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// MarshalText encodes the strand as "+" or "-".
func (s Strand) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Motif is a named reference sequence. Motifs are immutable once they are
// part of a Registry.
type Motif struct {
	Name     string
	Category Category
	// Seq is the upper-case sequence over the IUPAC nucleotide alphabet.
	Seq string
}

// Hit is an occurrence of a motif in a read.
type Hit struct {
	Name     string
	Category Category
	Strand   Strand
	// Start and End delimit the half-open match span on the read. Both are -1
	// when the matcher could not place the hit.
	Start, End int
	// Score is an edit distance for edit-distance matchers (lower is better)
	// and an alignment score for local alignment (higher is better).
	Score int
}

// HasPos reports whether the hit carries a position.
func (h Hit) HasPos() bool { return h.Start >= 0 && h.End >= h.Start }

// String implements fmt.Stringer.
func (h Hit) String() string {
	if !h.HasPos() {
		return fmt.Sprintf("%s(%s)%s:%d", h.Name, h.Category, h.Strand, h.Score)
	}
	return fmt.Sprintf("%s(%s)%s[%d,%d):%d", h.Name, h.Category, h.Strand, h.Start, h.End, h.Score)
}

// Kit is a library preparation kit and the motifs expected in its reads.
type Kit struct {
	ID          string
	Description string
	Chemistry   string
	Legacy      bool
	// Motifs lists the names of the motifs in the kit signature.
	Motifs []string
}
