// Package sample implements deterministic Bernoulli sampling of reads keyed
// by read name, so that re-running over the same data with the same keep
// fraction selects the same reads regardless of scheduling.
package sample

import (
	farm "github.com/dgryski/go-farm"
	gunsafe "github.com/grailbio/base/unsafe"
)

// Unit maps a read name to a uniform value in [0, 1).
func Unit(name string) float64 {
	// The top 53 bits fill a float64 mantissa exactly.
	return float64(farm.Hash64(gunsafe.StringToBytes(name))>>11) / (1 << 53)
}

// Keep reports whether the read named name is part of a sample that keeps
// the given fraction of reads. Fractions >= 1 keep every read and fractions
// <= 0 keep none.
func Keep(name string, fraction float64) bool {
	if fraction >= 1 {
		return true
	}
	if fraction <= 0 {
		return false
	}
	return Unit(name) < fraction
}
