// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package motif

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Base masks use bit0=A, bit1=C, bit2=G, bit3=T.
const (
	MaskA byte = 1 << iota
	MaskC
	MaskG
	MaskT
)

// iupacMask maps an upper- or lower-case IUPAC code to the set of bases it
// denotes. Bytes outside the alphabet map to 0.
var iupacMask [256]byte

// revCompTable maps an IUPAC code to the upper-case code of its complement.
// Bytes outside the alphabet map to 'N'.
var revCompTable [256]byte

func init() {
	for i := range revCompTable {
		revCompTable[i] = 'N'
	}
	for _, e := range []struct {
		code, comp byte
		mask       byte
	}{
		{'A', 'T', MaskA},
		{'C', 'G', MaskC},
		{'G', 'C', MaskG},
		{'T', 'A', MaskT},
		{'U', 'A', MaskT},
		{'R', 'Y', MaskA | MaskG},
		{'Y', 'R', MaskC | MaskT},
		{'S', 'S', MaskC | MaskG},
		{'W', 'W', MaskA | MaskT},
		{'K', 'M', MaskG | MaskT},
		{'M', 'K', MaskA | MaskC},
		{'B', 'V', MaskC | MaskG | MaskT},
		{'V', 'B', MaskA | MaskC | MaskG},
		{'D', 'H', MaskA | MaskG | MaskT},
		{'H', 'D', MaskA | MaskC | MaskT},
		{'N', 'N', MaskA | MaskC | MaskG | MaskT},
	} {
		lower := e.code + 'a' - 'A'
		iupacMask[e.code], iupacMask[lower] = e.mask, e.mask
		revCompTable[e.code], revCompTable[lower] = e.comp, e.comp
	}
}

// BaseMask returns the IUPAC base set of b, or 0 if b is not a nucleotide
// code.
func BaseMask(b byte) byte { return iupacMask[b] }

// ReadMask returns the base set of a read base. Only A, C, G and T (either
// case) match anything; N and other codes in reads never match.
func ReadMask(b byte) byte {
	m := iupacMask[b]
	if m&(m-1) != 0 {
		return 0
	}
	return m
}

// Upper returns the upper-case form of an ASCII byte.
func Upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// ReverseComplement writes the reverse complement of src into dst, which
// must have the same length. IUPAC codes are complemented; anything else
// becomes 'N'.
func ReverseComplement(dst, src []byte) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("ReverseComplement: len(dst) = %d, len(src) = %d", len(dst), len(src)))
	}
	for idx, invIdx := 0, len(src)-1; invIdx >= 0; idx, invIdx = idx+1, invIdx-1 {
		dst[idx] = revCompTable[src[invIdx]]
	}
}

// ReverseComplementInplace reverse-complements seq in place.
func ReverseComplementInplace(seq []byte) {
	nByte := len(seq)
	nByteDiv2 := nByte >> 1
	for idx, invIdx := 0, nByte-1; idx != nByteDiv2; idx, invIdx = idx+1, invIdx-1 {
		seq[idx], seq[invIdx] = revCompTable[seq[invIdx]], revCompTable[seq[idx]]
	}
	if nByte&1 == 1 {
		seq[nByteDiv2] = revCompTable[seq[nByteDiv2]]
	}
}

// ReverseComplementString returns the reverse complement of s.
func ReverseComplementString(s string) string {
	b := []byte(s)
	ReverseComplementInplace(b)
	return string(b)
}

// Normalize upper-cases seq and checks that it only contains IUPAC
// nucleotide codes.
func Normalize(seq string) (string, error) {
	if seq == "" {
		return "", errors.E(errors.Invalid, "empty motif sequence")
	}
	b := []byte(seq)
	for i, c := range b {
		if iupacMask[c] == 0 {
			return "", errors.E(errors.Invalid, fmt.Sprintf("invalid nucleotide %q at offset %d in %q", c, i, seq))
		}
		b[i] = Upper(c)
	}
	return string(b), nil
}
