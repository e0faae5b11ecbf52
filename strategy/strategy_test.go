package strategy

import (
	"math/rand"
	"testing"

	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

var adpt = []motif.Motif{{Name: "ADPT", Category: motif.AdapterTop, Seq: "ACGTACGT"}}

func mustNew(t *testing.T, algo Algorithm, motifs []motif.Motif, params Params) *Strategy {
	s, err := New(algo, motifs, params)
	assert.NoError(t, err)
	return s
}

func TestExactScenario(t *testing.T) {
	s := mustNew(t, Aho, adpt, DefaultParams)
	h, ok := s.Classify([]byte("TTTTACGTACGTTTTT"))
	require.True(t, ok)
	expect.EQ(t, h, motif.Hit{Name: "ADPT", Category: motif.AdapterTop, Strand: motif.Forward, Start: 4, End: 12, Score: 0})
	expect.EQ(t, s.Selection().Actual, "aho")

	_, ok = s.Classify([]byte("TTTTACGAACGTTTTT"))
	expect.False(t, ok)
}

func TestSubstitutionScenario(t *testing.T) {
	for _, algo := range []Algorithm{Myers, Edlib, ACMyers} {
		s := mustNew(t, algo, adpt, Params{MaxDist: 1})
		h, ok := s.Classify([]byte("TTTTACGAACGTTTTT"))
		require.True(t, ok, "algo %v", algo)
		expect.EQ(t, h.Name, "ADPT")
		expect.EQ(t, h.Score, 1)
		expect.EQ(t, h.Start, 4)
		expect.EQ(t, h.End, 12)

		s = mustNew(t, algo, adpt, Params{MaxDist: 0})
		_, ok = s.Classify([]byte("TTTTACGAACGTTTTT"))
		expect.False(t, ok, "algo %v", algo)
	}
}

func TestLocalAlignment(t *testing.T) {
	for _, algo := range []Algorithm{Parasail, ACParasail} {
		s := mustNew(t, algo, adpt, Params{})
		expect.EQ(t, s.Selection().Actual, "sw")
		h, ok := s.Classify([]byte("TTTTACGAACGTTTTT"))
		require.True(t, ok)
		expect.EQ(t, h.Score, 13)
		_, ok = s.Classify([]byte("TTTTTTTTTTTT"))
		expect.False(t, ok)
	}
}

func TestReverseStrand(t *testing.T) {
	motifs := []motif.Motif{{Name: "P", Category: motif.Primer, Seq: "AACCGGTTAC"}}
	rc := motif.ReverseComplementString(motifs[0].Seq)
	read := []byte("GGGG" + rc + "GGGG")
	for _, algo := range All() {
		s := mustNew(t, algo, motifs, DefaultParams)
		h, ok := s.Classify(read)
		require.True(t, ok, "algo %v", algo)
		expect.EQ(t, h.Strand, motif.Reverse, "algo %v", algo)
		expect.EQ(t, h.Start, 4, "algo %v", algo)
		expect.EQ(t, h.End, 14, "algo %v", algo)
	}
}

func hitNames(hits []motif.Hit) []string {
	var names []string
	for _, h := range hits {
		names = append(names, h.Name+h.Strand.String())
	}
	return names
}

func TestClassifyAll(t *testing.T) {
	motifs := []motif.Motif{
		{Name: "A1", Category: motif.AdapterTop, Seq: "GGGCCCAAATTT"},
		{Name: "B1", Category: motif.Barcode, Seq: "CATCATCATGAG"},
		{Name: "PAL", Category: motif.Flank, Seq: "ACGTACGT"},
	}
	read := []byte("TT" + "CATCATCATGAG" + "TTTT" + "GGGCCCAAATTT" + "TT" + "ACGTACGT" + "GGGCCCAAATTT")
	for _, algo := range []Algorithm{Aho, Myers, Edlib, ACMyers} {
		s := mustNew(t, algo, motifs, Params{MaxDist: 0})
		hits := s.ClassifyAll(read)
		expect.EQ(t, hitNames(hits), []string{"B1+", "A1+", "PAL+"}, "algo %v", algo)
		expect.EQ(t, hits[1].Start, 18, "algo %v", algo)
		expect.EQ(t, hits[1].End, 30, "algo %v", algo)
	}
	// Only perfect local alignments of the 12-mers clear a minimum score of 24.
	for _, algo := range []Algorithm{Parasail, ACParasail} {
		s := mustNew(t, algo, motifs[:2], Params{MinScore: 24})
		expect.EQ(t, hitNames(s.ClassifyAll(read)), []string{"B1+", "A1+"}, "algo %v", algo)
	}
}

func TestClassifyAllWithEdits(t *testing.T) {
	motifs := []motif.Motif{
		{Name: "ADPT", Category: motif.AdapterTop, Seq: "ACGTACGT"},
		{Name: "BC", Category: motif.Barcode, Seq: "GGGCCCAAATTT"},
	}
	// ADPT occurs exactly, BC with one substitution.
	read := []byte("TTACGTACGTTTTTGGGCCAAAATTTTT")
	for _, algo := range []Algorithm{Myers, Edlib, ACMyers} {
		s := mustNew(t, algo, motifs, Params{MaxDist: 2})
		hits := s.ClassifyAll(read)
		require.Equal(t, []string{"ADPT+", "BC+"}, hitNames(hits), "algo %v", algo)
		expect.EQ(t, hits[0].Score, 0, "algo %v", algo)
		expect.EQ(t, hits[1].Score, 1, "algo %v", algo)
	}
}

func TestTwoStageRefinementFails(t *testing.T) {
	motifs := []motif.Motif{
		{Name: "SHORT", Category: motif.Primer, Seq: "ACGTAC"},
		{Name: "LONG", Category: motif.AdapterTop, Seq: "GGGCCCAAATTTGGGCCC"},
	}
	// SHORT occurs exactly but cannot reach the minimum score; LONG has one
	// mismatch.
	read := []byte("TT" + "ACGTAC" + "TTTT" + "GGGCCCAAAATTGGGCCC" + "TT")
	s := mustNew(t, ACParasail, motifs, Params{MinScore: 20})
	h, ok := s.Classify(read)
	require.True(t, ok)
	expect.EQ(t, h.Name, "LONG")
	expect.EQ(t, hitNames(s.ClassifyAll(read)), []string{"LONG+"})

	hits, best, ok := s.ClassifyRead(read)
	require.True(t, ok)
	expect.EQ(t, best, h)
	expect.EQ(t, hitNames(hits), []string{"LONG+"})
}

// TestClassifyRead checks that ClassifyRead agrees with Classify and
// ClassifyAll, and that its best hit is one of its hits.
func TestClassifyRead(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	randSeq := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = "ACGT"[r.Intn(4)]
		}
		return string(b)
	}
	var motifs []motif.Motif
	for i := 0; i < 5; i++ {
		motifs = append(motifs, motif.Motif{Name: string(rune('a' + i)), Category: motif.Primer, Seq: randSeq(6 + r.Intn(14))})
	}
	var reads [][]byte
	for i := 0; i < 200; i++ {
		read := randSeq(r.Intn(30))
		for j := r.Intn(3); j > 0; j-- {
			m := []byte(motifs[r.Intn(len(motifs))].Seq)
			if r.Intn(2) == 0 {
				m[r.Intn(len(m))] = "ACGT"[r.Intn(4)]
			}
			read += string(m) + randSeq(r.Intn(20))
		}
		reads = append(reads, []byte(read))
	}
	for _, algo := range All() {
		s := mustNew(t, algo, motifs, Params{MaxDist: 2})
		for _, read := range reads {
			hits, best, ok := s.ClassifyRead(read)
			want, wantOK := s.Classify(read)
			expect.EQ(t, ok, wantOK, "algo %v read %s", algo, read)
			expect.EQ(t, best, want, "algo %v read %s", algo, read)
			expect.EQ(t, hits, s.ClassifyAll(read), "algo %v read %s", algo, read)
			if !ok {
				continue
			}
			found := false
			for _, h := range hits {
				found = found || h == best
			}
			expect.True(t, found, "algo %v read %s: best %v not in %v", algo, read, best, hits)
		}
	}
}

func TestTwoStageFallback(t *testing.T) {
	// No exact occurrence: two-stage must still find the motif.
	s := mustNew(t, ACMyers, adpt, Params{MaxDist: 1})
	h, ok := s.Classify([]byte("GGGACGTTCGTGGG"))
	require.True(t, ok)
	expect.EQ(t, h.Score, 1)
	hits := s.ClassifyAll([]byte("GGGACGTTCGTGGG"))
	require.Len(t, hits, 1)
	expect.EQ(t, hits[0].Score, 1)
}

func TestEmptyMotifSet(t *testing.T) {
	for _, algo := range All() {
		s := mustNew(t, algo, nil, DefaultParams)
		_, ok := s.Classify([]byte("ACGT"))
		expect.False(t, ok)
		expect.EQ(t, len(s.ClassifyAll([]byte("ACGT"))), 0)
	}
}

// TestTwoStageNeverWorse checks that the two-stage strategy never returns a
// higher edit distance than the approximate-only strategy.
func TestTwoStageNeverWorse(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	randSeq := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = "ACGT"[r.Intn(4)]
		}
		return string(b)
	}
	var motifs []motif.Motif
	for i := 0; i < 6; i++ {
		motifs = append(motifs, motif.Motif{Name: string(rune('a' + i)), Category: motif.Primer, Seq: randSeq(8 + r.Intn(20))})
	}
	approx := mustNew(t, Myers, motifs, Params{MaxDist: 3})
	twoStage := mustNew(t, ACMyers, motifs, Params{MaxDist: 3})
	for iter := 0; iter < 300; iter++ {
		read := randSeq(r.Intn(40))
		if r.Intn(2) == 0 {
			m := motifs[r.Intn(len(motifs))].Seq
			if r.Intn(2) == 0 {
				m = motif.ReverseComplementString(m)
			}
			read += m + randSeq(r.Intn(40))
		}
		a, aok := approx.Classify([]byte(read))
		b, bok := twoStage.Classify([]byte(read))
		expect.EQ(t, aok, bok, "read %s", read)
		if aok && bok {
			expect.True(t, b.Score <= a.Score, "read %s: two-stage %v, approximate %v", read, b, a)
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range All() {
		got, err := ParseAlgorithm(a.String())
		assert.NoError(t, err)
		expect.EQ(t, got, a)
	}
	a, err := ParseAlgorithm("AC+SW")
	assert.NoError(t, err)
	expect.EQ(t, a, ACParasail)
	_, err = ParseAlgorithm("bwa")
	expect.NotNil(t, err)

	list, err := ParseList("aho, myers,aho")
	assert.NoError(t, err)
	expect.EQ(t, list, []Algorithm{Aho, Myers})
	list, err = ParseList("")
	assert.NoError(t, err)
	expect.EQ(t, len(list), 6)
	_, err = ParseList("aho,nope")
	expect.NotNil(t, err)
}

func TestSelection(t *testing.T) {
	s := mustNew(t, Edlib, adpt, DefaultParams)
	expect.True(t, s.Selection().Fallback)
	expect.EQ(t, s.Selection().Actual, "myers")
	expect.EQ(t, s.Name(), "edlib")
}
