package acindex

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func motifs(seqs ...string) []motif.Motif {
	var ms []motif.Motif
	for i, s := range seqs {
		ms = append(ms, motif.Motif{Name: string(rune('a' + i)), Category: motif.Primer, Seq: s})
	}
	return ms
}

// naiveFindAll is the quadratic reference for FindAll.
func naiveFindAll(x *Index, seq string) []Match {
	seq = strings.ToUpper(seq)
	var matches []Match
	for end := 1; end <= len(seq); end++ {
		for id := 0; id < x.NumPatterns(); id++ {
			p := x.Pattern(id).Seq
			if len(p) <= end && seq[end-len(p):end] == p {
				matches = append(matches, Match{PatternID: id, Start: end - len(p), End: end})
			}
		}
	}
	return matches
}

func TestScanExample(t *testing.T) {
	x, err := New([]motif.Motif{{Name: "ADPT", Category: motif.AdapterTop, Seq: "ACGTACGT"}})
	assert.NoError(t, err)
	m, ok := x.First([]byte("TTTTACGTACGTTTTT"))
	require.True(t, ok)
	expect.EQ(t, m, Match{PatternID: 0, Start: 4, End: 12})
	p := x.Pattern(m.PatternID)
	expect.EQ(t, p.Motif.Name, "ADPT")
	expect.EQ(t, p.Strand, motif.Forward)

	// ACGTACGT is its own reverse complement: both orientations match and the
	// forward pattern comes first.
	expect.EQ(t, x.FindAll([]byte("ttttacgtacgttttt")), []Match{
		{PatternID: 0, Start: 4, End: 12},
		{PatternID: 1, Start: 4, End: 12},
	})
}

func TestWholeRead(t *testing.T) {
	ms := motifs("ACGGT", "TTGACCA", "GGGGCCCCAT", "CAGT")
	x, err := New(ms)
	assert.NoError(t, err)
	for i, m := range ms {
		matches := x.FindAll([]byte(m.Seq))
		var whole []Match
		for _, mm := range matches {
			if mm.Start == 0 && mm.End == len(m.Seq) {
				whole = append(whole, mm)
			}
		}
		require.NotEmpty(t, whole)
		expect.EQ(t, whole[0].PatternID, 2*i)
	}
}

func TestReverseComplement(t *testing.T) {
	x, err := New(motifs("AACCG"))
	assert.NoError(t, err)
	m, ok := x.First([]byte("TTCGGTTTT"))
	require.True(t, ok)
	expect.EQ(t, m, Match{PatternID: 1, Start: 1, End: 6})
	expect.EQ(t, x.Pattern(1).Seq, "CGGTT")
	expect.EQ(t, x.Pattern(1).Strand, motif.Reverse)
}

func TestEmpty(t *testing.T) {
	x, err := New(nil)
	assert.NoError(t, err)
	_, ok := x.First([]byte("ACGT"))
	expect.False(t, ok)
	expect.EQ(t, len(x.FindAll([]byte("ACGTACGT"))), 0)

	_, err = New([]motif.Motif{{Name: "x", Seq: ""}})
	expect.NotNil(t, err)
}

func TestOverlappingAndNested(t *testing.T) {
	x, err := New(motifs("ACA", "CAC", "A", "ACACAC"))
	assert.NoError(t, err)
	for _, seq := range []string{"ACACACA", "acacgtgt", "NNNACANNN", "GTGTGT", ""} {
		expect.EQ(t, x.FindAll([]byte(seq)), naiveFindAll(x, seq), "seq %s", seq)
	}
}

func TestStopEarly(t *testing.T) {
	x, err := New(motifs("A"))
	assert.NoError(t, err)
	n := 0
	x.Scan([]byte("AAAAA"), func(Match) bool {
		n++
		return n < 3
	})
	expect.EQ(t, n, 3)
}

func TestRandomAgainstNaive(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	randSeq := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = "ACGTN"[r.Intn(5)]
		}
		return string(b)
	}
	for iter := 0; iter < 50; iter++ {
		var seqs []string
		for i := 0; i < 1+r.Intn(8); i++ {
			seqs = append(seqs, randSeq(1+r.Intn(6)))
		}
		x, err := New(motifs(seqs...))
		assert.NoError(t, err)
		read := randSeq(200)
		expect.EQ(t, x.FindAll([]byte(read)), naiveFindAll(x, read))
	}
}
