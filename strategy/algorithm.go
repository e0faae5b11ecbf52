package strategy

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// Algorithm names a matching strategy.
type Algorithm uint8

const (
	// Aho reports exact matches found by the pattern index.
	Aho Algorithm = iota
	// Myers runs the bounded edit distance matcher on every motif.
	Myers
	// Edlib is Myers through the native edlib backend when available.
	Edlib
	// Parasail runs affine-gap local alignment on every motif, through the
	// native parasail backend when available.
	Parasail
	// ACMyers prefilters with the pattern index and refines with Myers.
	ACMyers
	// ACParasail prefilters with the pattern index and refines with local
	// alignment.
	ACParasail
	nAlgorithm
)

var algorithmNames = [...]string{
	Aho:        "aho",
	Myers:      "myers",
	Edlib:      "edlib",
	Parasail:   "parasail",
	ACMyers:    "ac+myers",
	ACParasail: "ac+parasail",
}

var algorithmAliases = map[string]Algorithm{
	"ac":           Aho,
	"aho-corasick": Aho,
	"sw":           Parasail,
	"ac+sw":        ACParasail,
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	if int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("algorithm(%d)", a)
}

// Exact reports whether a only does exact matching.
func (a Algorithm) Exact() bool { return a == Aho }

// TwoStage reports whether a prefilters with the pattern index.
func (a Algorithm) TwoStage() bool { return a == ACMyers || a == ACParasail }

// backend names the align backend a uses, or "" for exact matching.
func (a Algorithm) backend() string {
	switch a {
	case Myers, ACMyers:
		return "myers"
	case Edlib:
		return "edlib"
	case Parasail, ACParasail:
		return "parasail"
	}
	return ""
}

// ParseAlgorithm parses an algorithm name, ignoring case.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range algorithmNames {
		if s == name {
			return Algorithm(i), nil
		}
	}
	if a, ok := algorithmAliases[s]; ok {
		return a, nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("unknown algorithm %q (valid: %s)", s, strings.Join(algorithmNames[:], ", ")))
}

// All returns every algorithm.
func All() []Algorithm {
	algos := make([]Algorithm, nAlgorithm)
	for i := range algos {
		algos[i] = Algorithm(i)
	}
	return algos
}

// ParseList parses a comma-separated list of algorithms. An empty list
// selects every algorithm. Duplicates are dropped.
func ParseList(s string) ([]Algorithm, error) {
	if strings.TrimSpace(s) == "" {
		return All(), nil
	}
	var (
		algos []Algorithm
		seen  = map[Algorithm]bool{}
	)
	for _, name := range strings.Split(s, ",") {
		a, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		if !seen[a] {
			seen[a] = true
			algos = append(algos, a)
		}
	}
	return algos, nil
}
