package trim

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/motifscan/encoding/fastq"
	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/motifscan/strategy"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/require"
)

const (
	adapter = "GATCGGAAGAGC"
	barcode = "CCAGGACCAAGG"
)

var testMotifs = []motif.Motif{
	{Name: "A", Category: motif.AdapterTop, Seq: adapter},
	{Name: "B", Category: motif.Barcode, Seq: barcode},
}

func newTrimmer(t *testing.T, opts Opts) *Trimmer {
	tr, err := New(testMotifs, opts)
	assert.NoError(t, err)
	return tr
}

func exactOpts() Opts {
	opts := DefaultOpts
	opts.Algorithm = strategy.Aho
	opts.Workers = 2
	return opts
}

func TestAnnotateBothEnds(t *testing.T) {
	tr := newTrimmer(t, exactOpts())
	insert := strings.Repeat("T", 30)
	read := adapter + barcode + insert + motif.ReverseComplementString(adapter)
	qual := make([]byte, len(read))
	for i := range qual {
		qual[i] = byte('!' + i)
	}
	r := tr.Annotate([]byte(read), qual)
	expect.EQ(t, string(r.Seq), insert)
	expect.EQ(t, r.Qual, qual[24:54])
	expect.EQ(t, r.Left, 24)
	expect.EQ(t, r.Right, 54)
	expect.EQ(t, r.Len, 66)
	expect.EQ(t, r.Clip5(), 24)
	expect.EQ(t, r.Clip3(), 12)
	expect.True(t, r.Clipped)
	expect.False(t, r.Unclippable)
	expect.EQ(t, r.Structure, "sequencing adapter > barcode > insert > reverse adapter")
	expect.EQ(t, r.Annotation(), "trim=24..54;len=66;L:A:0-12:ed=0;R:A:54-66:ed=0;BL:B:12-24")
}

func TestAnnotateNoHits(t *testing.T) {
	tr := newTrimmer(t, exactOpts())
	r := tr.Annotate([]byte(strings.Repeat("t", 40)), nil)
	expect.EQ(t, string(r.Seq), strings.Repeat("T", 40))
	expect.EQ(t, string(r.Qual), strings.Repeat("I", 40))
	expect.False(t, r.Clipped)
	expect.EQ(t, r.Structure, "insert")
	expect.EQ(t, r.Annotation(), "trim=0..40;len=40")

	r = tr.Annotate(nil, nil)
	expect.EQ(t, len(r.Seq), 0)
	expect.False(t, r.Clipped)
	expect.False(t, r.Unclippable)
}

func TestAnnotateUnclippable(t *testing.T) {
	tr := newTrimmer(t, exactOpts())
	// The adapter and its reverse complement overlap by two bases.
	read := adapter[:10] + "GC" + "TCTTCCGATC"
	expect.EQ(t, read[10:], motif.ReverseComplementString(adapter))
	r := tr.Annotate([]byte(read), nil)
	expect.True(t, r.Unclippable)
	expect.False(t, r.Clipped)
	expect.EQ(t, string(r.Seq), read)
	expect.EQ(t, r.Structure, "sequencing adapter > insert > reverse adapter")
}

func TestAnnotateWindow(t *testing.T) {
	flank := strings.Repeat("T", 20)
	read := []byte(flank + adapter + flank)

	// A centred adapter belongs to the 3' end.
	r := newTrimmer(t, exactOpts()).Annotate(read, nil)
	expect.EQ(t, string(r.Seq), flank)
	expect.EQ(t, r.Structure, "insert > reverse adapter")

	opts := exactOpts()
	opts.EndWindow = 5
	r = newTrimmer(t, opts).Annotate(read, nil)
	expect.False(t, r.Clipped)
	expect.EQ(t, r.Structure, "insert")
}

func TestAnnotateEdits(t *testing.T) {
	mutated := []byte(adapter)
	mutated[5] = 'T'
	read := []byte(string(mutated) + strings.Repeat("T", 40))

	opts := exactOpts()
	opts.Algorithm = strategy.Myers
	opts.MaxEdits = 1
	r := newTrimmer(t, opts).Annotate(read, nil)
	expect.EQ(t, r.Left, 12)
	expect.EQ(t, r.Notes, []string{"L:A:0-12:ed=1"})

	opts.MaxEdits = 0
	r = newTrimmer(t, opts).Annotate(read, nil)
	expect.False(t, r.Clipped)
}

func TestNewErrors(t *testing.T) {
	opts := exactOpts()
	opts.MaxEdits = -1
	_, err := New(testMotifs, opts)
	expect.NotNil(t, err)

	opts = exactOpts()
	opts.Algorithm = strategy.Parasail
	_, err = New(testMotifs, opts)
	expect.NotNil(t, err)
}

func TestRun(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	registry, err := motif.NewRegistry(testMotifs, []motif.Kit{{ID: "SQK-T1", Motifs: []string{"A", "B"}}})
	require.NoError(t, err)

	insert := strings.Repeat("T", 30)
	var in strings.Builder
	const n = 4500
	for i := 0; i < n; i++ {
		seq := insert
		if i%3 == 0 {
			seq = adapter + insert
		}
		in.WriteString("@r" + strings.Repeat("x", i%3) + "\n" + seq + "\n+\n" + strings.Repeat("I", len(seq)) + "\n")
	}
	inPath := filepath.Join(dir, "in.fastq")
	assert.NoError(t, ioutil.WriteFile(inPath, []byte(in.String()), 0600))
	outPath := filepath.Join(dir, "out.fastq.gz")

	opts := exactOpts()
	opts.Kit = "T1"
	stats, err := Run(context.Background(), registry, opts, []string{inPath}, outPath)
	assert.NoError(t, err)
	expect.EQ(t, stats.Total, int64(n))
	expect.EQ(t, stats.Clipped, int64(n/3))
	expect.EQ(t, stats.Structures["sequencing adapter > insert"], int64(n/3))
	expect.EQ(t, stats.Structures["insert"], int64(2*n/3))
	expect.EQ(t, stats.Clip5[12], int64(n/3))
	expect.EQ(t, stats.Clip3[0], int64(n))

	data, err := ioutil.ReadFile(outPath)
	assert.NoError(t, err)
	gz, err := pgzip.NewReader(bytes.NewReader(data))
	assert.NoError(t, err)
	sc := fastq.NewScanner(gz, fastq.All)
	var (
		read  fastq.Read
		count int
	)
	for sc.Scan(&read) {
		expect.EQ(t, read.Seq, insert)
		if count%3 == 0 {
			expect.EQ(t, read.ID, "@r trim=12..42;len=42;L:A:0-12:ed=0")
		} else {
			expect.True(t, strings.HasSuffix(read.ID, " trim=0..30;len=30"), read.ID)
		}
		count++
	}
	assert.NoError(t, sc.Err())
	expect.EQ(t, count, n)

	var tsvOut bytes.Buffer
	assert.NoError(t, stats.WriteTSV(&tsvOut))
	expect.HasSubstr(t, tsvOut.String(), "reads\ttotal\t4500\n")
	expect.HasSubstr(t, tsvOut.String(), "structure\tinsert\t3000\nstructure\tsequencing adapter > insert\t1500\n")
	expect.HasSubstr(t, tsvOut.String(), "clip5\t0\t3000\nclip5\t12\t1500\n")
}

func TestRunErrors(t *testing.T) {
	registry, err := motif.NewRegistry(testMotifs, nil)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = Run(ctx, registry, exactOpts(), nil, "out.fastq")
	expect.NotNil(t, err)
	opts := exactOpts()
	opts.Kit = "missing"
	_, err = Run(ctx, registry, opts, []string{"in.fastq"}, "out.fastq")
	expect.NotNil(t, err)
}

func TestAnnotateExactAdapterEditedBarcode(t *testing.T) {
	mutated := []byte(barcode)
	mutated[5] = 'T'
	read := []byte(adapter + string(mutated) + strings.Repeat("T", 40))
	for _, algo := range []strategy.Algorithm{strategy.Myers, strategy.ACMyers} {
		opts := exactOpts()
		opts.Algorithm = algo
		opts.MaxEdits = 1
		r := newTrimmer(t, opts).Annotate(read, nil)
		expect.EQ(t, r.Left, 24, "algo %v", algo)
		expect.EQ(t, r.Structure, "sequencing adapter > barcode > insert", "algo %v", algo)
		expect.EQ(t, r.Notes, []string{"L:A:0-12:ed=0", "BL:B:12-24"}, "algo %v", algo)
		expect.EQ(t, string(r.Seq), strings.Repeat("T", 40), "algo %v", algo)
	}
}
