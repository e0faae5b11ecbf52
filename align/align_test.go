package align

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/motifscan/util"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randSeq(r *rand.Rand, alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

// mutate applies up to n random edits to s.
func mutate(r *rand.Rand, s string, n int) string {
	b := []byte(s)
	for k := 0; k < n && len(b) > 0; k++ {
		i := r.Intn(len(b))
		switch r.Intn(3) {
		case 0:
			b[i] = "ACGT"[r.Intn(4)]
		case 1:
			b = append(b[:i], b[i+1:]...)
		default:
			b = append(b[:i], append([]byte{"ACGT"[r.Intn(4)]}, b[i:]...)...)
		}
	}
	return string(b)
}

func TestMyersScenarios(t *testing.T) {
	p := Compile("ACGTACGT")
	res, ok := Myers{}.BestMatch(p, []byte("TTTTACGTACGTTTTT"), 0)
	require.True(t, ok)
	expect.EQ(t, res, Result{Start: 4, End: 12, Score: 0})

	res, ok = Myers{}.BestMatch(p, []byte("TTTTACGAACGTTTTT"), 1)
	require.True(t, ok)
	expect.EQ(t, res, Result{Start: 4, End: 12, Score: 1})

	_, ok = Myers{}.BestMatch(p, []byte("TTTTACGAACGTTTTT"), 0)
	expect.False(t, ok)

	_, ok = Myers{}.BestMatch(p, []byte("ACG"), 2)
	expect.False(t, ok)
	_, ok = Myers{}.BestMatch(p, []byte("ACGTACGT"), -1)
	expect.False(t, ok)

	// Lower case reads match.
	res, ok = Myers{}.BestMatch(p, []byte("ttacgtacgt"), 0)
	require.True(t, ok)
	expect.EQ(t, res, Result{Start: 2, End: 10, Score: 0})
}

func TestMyersIUPAC(t *testing.T) {
	p := Compile("ACNTRY")
	res, ok := Myers{}.BestMatch(p, []byte("GGACGTAC"), 0)
	require.True(t, ok)
	expect.EQ(t, res, Result{Start: 2, End: 8, Score: 0})
	// N in the read never matches.
	res, ok = Myers{}.BestMatch(Compile("ACGT"), []byte("ACNT"), 1)
	require.True(t, ok)
	expect.EQ(t, res.Score, 1)
}

// TestMyersAgainstDP checks distances and spans against the full dynamic
// program, for patterns shorter and longer than a machine word.
func TestMyersAgainstDP(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for iter := 0; iter < 400; iter++ {
		var plen int
		switch iter % 3 {
		case 0:
			plen = 1 + r.Intn(20)
		case 1:
			plen = 60 + r.Intn(10)
		default:
			plen = 120 + r.Intn(30)
		}
		pattern := randSeq(r, "ACGTACGTACGTRN", plen)
		read := randSeq(r, "ACGTN", r.Intn(50)) + mutate(r, strings.Replace(pattern, "N", "A", -1), r.Intn(4)) + randSeq(r, "ACGT", r.Intn(50))
		maxDist := r.Intn(8)
		wantDist, wantEnd := util.InfixDistance([]byte(pattern), []byte(read), Equal)

		res, ok := Myers{}.BestMatch(Compile(pattern), []byte(read), maxDist)
		if wantDist > maxDist {
			expect.False(t, ok, "pattern %s read %s", pattern, read)
			continue
		}
		require.True(t, ok, "pattern %s read %s", pattern, read)
		expect.EQ(t, res.Score, wantDist)
		expect.EQ(t, res.End, wantEnd)
		expect.True(t, res.Score <= maxDist)
		_, spanDist := util.InfixStart([]byte(pattern), []byte(read[res.Start:res.End]), Equal)
		expect.EQ(t, spanDist, res.Score)
	}
}

func TestMyersNeverExceedsThreshold(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for iter := 0; iter < 500; iter++ {
		p := Compile(randSeq(r, "ACGT", 1+r.Intn(80)))
		read := []byte(randSeq(r, "ACGTN", r.Intn(200)))
		maxDist := r.Intn(10)
		if res, ok := (Myers{}).BestMatch(p, read, maxDist); ok {
			assert.True(t, res.Score <= maxDist)
			assert.True(t, res.Start >= 0 && res.Start <= res.End && res.End <= len(read))
		}
	}
}

// naiveGotoh is a full-matrix affine-gap local alignment.
func naiveGotoh(sc Scoring, pattern, read string) int {
	m, n := len(pattern), len(read)
	H := make([][]int, m+1)
	E := make([][]int, m+1)
	F := make([][]int, m+1)
	for i := range H {
		H[i], E[i], F[i] = make([]int, n+1), make([]int, n+1), make([]int, n+1)
		for j := range E[i] {
			E[i][j], F[i][j] = negInf, negInf
		}
	}
	best := 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			E[i][j] = max(E[i][j-1]-sc.GapExtend, H[i][j-1]-sc.GapOpen-sc.GapExtend)
			F[i][j] = max(F[i-1][j]-sc.GapExtend, H[i-1][j]-sc.GapOpen-sc.GapExtend)
			s := -sc.Mismatch
			if Equal(pattern[i-1], read[j-1]) {
				s = sc.Match
			}
			H[i][j] = max(0, max(H[i-1][j-1]+s, max(E[i][j], F[i][j])))
			best = max(best, H[i][j])
		}
	}
	return best
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestGotohScenarios(t *testing.T) {
	g := NewGotoh()
	p := Compile("ACGTACGT")
	res, ok := g.BestMatch(p, []byte("TTTTACGTACGTTTTT"), 0)
	require.True(t, ok)
	expect.EQ(t, res, Result{Start: 4, End: 12, Score: 16})

	res, ok = g.BestMatch(p, []byte("TTTTACGAACGTTTTT"), 0)
	require.True(t, ok)
	expect.EQ(t, res, Result{Start: 4, End: 12, Score: 13})

	_, ok = g.BestMatch(p, []byte("TTTTACGAACGTTTTT"), 14)
	expect.False(t, ok)
	_, ok = g.BestMatch(p, []byte("TTTTTTTT"), DefaultMinScore(p.Len()))
	expect.False(t, ok)
	_, ok = g.BestMatch(p, nil, 0)
	expect.False(t, ok)
}

func TestGotohAgainstNaive(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	g := NewGotoh()
	for iter := 0; iter < 300; iter++ {
		pattern := randSeq(r, "ACGT", 1+r.Intn(40))
		read := randSeq(r, "ACGT", r.Intn(30)) + mutate(r, pattern, r.Intn(6)) + randSeq(r, "ACGT", r.Intn(30))
		want := naiveGotoh(DefaultScoring, pattern, read)
		res, ok := g.BestMatch(Compile(pattern), []byte(read), 1)
		if want == 0 {
			expect.False(t, ok)
			continue
		}
		require.True(t, ok)
		expect.EQ(t, res.Score, want, "pattern %s read %s", pattern, read)
		// The reported span must itself align with the reported score.
		expect.EQ(t, naiveGotoh(DefaultScoring, pattern, read[res.Start:res.End]), want)
	}
}

func TestKind(t *testing.T) {
	expect.True(t, EditDistance.Better(1, 2))
	expect.True(t, LocalScore.Better(2, 1))
	expect.EQ(t, Myers{}.Kind(), EditDistance)
	expect.EQ(t, NewGotoh().Kind(), LocalScore)
	expect.EQ(t, DefaultMinScore(10), 10)
}

func TestSelect(t *testing.T) {
	m, sel, err := Select("myers")
	require.NoError(t, err)
	expect.EQ(t, m.Name(), "myers")
	expect.False(t, sel.Fallback)

	m, sel, err = Select("edlib")
	require.NoError(t, err)
	expect.EQ(t, m.Name(), "myers")
	expect.True(t, sel.Fallback)
	expect.EQ(t, sel.Requested, "edlib")
	expect.EQ(t, sel.Actual, "myers")
	expect.True(t, strings.Contains(sel.String(), "fallback from edlib"))

	m, sel, err = Select("parasail")
	require.NoError(t, err)
	expect.EQ(t, m.Kind(), LocalScore)
	expect.EQ(t, sel.Actual, "sw")

	_, _, err = Select("blast")
	expect.NotNil(t, err)
	expect.True(t, len(Backends()) >= 4)
}

func TestSelectRegistered(t *testing.T) {
	Register(Backend{Name: "test-native", New: func() Matcher { return NewGotoh() }})
	m, sel, err := Select("test-native")
	require.NoError(t, err)
	expect.EQ(t, m.Kind(), LocalScore)
	expect.EQ(t, sel, Selection{Requested: "test-native", Actual: "test-native"})

	Register(Backend{Name: "test-dead", Probe: func() error { return errNotLinked }})
	_, _, err = Select("test-dead")
	expect.NotNil(t, err)
}

func TestCompile(t *testing.T) {
	p := Compile("acgtN")
	expect.EQ(t, string(p.Seq), "ACGTN")
	expect.EQ(t, p.Len(), 5)
	expect.True(t, p.matches(4, 'g'))
	expect.False(t, p.matches(0, 'N'))
	expect.EQ(t, p.peq[0][0], uint64(1|1<<4))
	expect.EQ(t, p.peq[4][0], uint64(0))
	expect.EQ(t, Compile(strings.Repeat("A", 65)).words, 2)
	expect.EQ(t, motif.ReadMask('A'), motif.MaskA)
}
