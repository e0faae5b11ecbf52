package motif_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestReverseComplement(t *testing.T) {
	for _, test := range []struct{ in, want string }{
		{"", ""},
		{"A", "T"},
		{"ACGT", "ACGT"},
		{"AACGTTC", "GAACGTT"},
		{"acgtn", "NACGT"},
		{"RYKMBVDH", "DHBVKMRY"},
		{"AC-T", "ANGT"},
	} {
		expect.EQ(t, motif.ReverseComplementString(test.in), test.want)
		dst := make([]byte, len(test.in))
		motif.ReverseComplement(dst, []byte(test.in))
		expect.EQ(t, string(dst), test.want)
	}
}

func TestMasks(t *testing.T) {
	expect.EQ(t, motif.BaseMask('N'), motif.MaskA|motif.MaskC|motif.MaskG|motif.MaskT)
	expect.EQ(t, motif.BaseMask('r'), motif.MaskA|motif.MaskG)
	expect.EQ(t, motif.ReadMask('g'), motif.MaskG)
	expect.EQ(t, motif.ReadMask('N'), byte(0))
	expect.EQ(t, motif.ReadMask('R'), byte(0))
	expect.EQ(t, motif.BaseMask('X'), byte(0))
}

func TestNormalize(t *testing.T) {
	s, err := motif.Normalize("acgtNv")
	assert.NoError(t, err)
	expect.EQ(t, s, "ACGTNV")
	_, err = motif.Normalize("ACGX")
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = motif.Normalize("")
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestParseCategory(t *testing.T) {
	for _, c := range []motif.Category{motif.AdapterTop, motif.AdapterBottom, motif.Primer, motif.Barcode, motif.Flank} {
		got, err := motif.ParseCategory(c.String())
		assert.NoError(t, err)
		expect.EQ(t, got, c)
	}
	got, err := motif.ParseCategory("Adapter")
	assert.NoError(t, err)
	expect.EQ(t, got, motif.AdapterTop)
	_, err = motif.ParseCategory("linker")
	expect.NotNil(t, err)
}

func TestBuiltin(t *testing.T) {
	r := motif.Builtin()
	require.NotEmpty(t, r.Motifs())
	for _, k := range r.Kits() {
		motifs, err := r.MotifsForKit(k.ID)
		require.NoError(t, err)
		require.Len(t, motifs, len(k.Motifs))
	}
	k, ok := r.Kit("lsk114")
	require.True(t, ok)
	expect.EQ(t, k.ID, "SQK-LSK114")

	_, err := r.MotifsForKit("nope")
	expect.True(t, errors.Is(errors.NotExist, err))

	all, err := r.MotifsForKit("")
	require.NoError(t, err)
	expect.EQ(t, len(all), len(r.Motifs()))
}

func TestNewRegistryErrors(t *testing.T) {
	_, err := motif.NewRegistry([]motif.Motif{{"a", motif.Primer, "ACGT"}, {"a", motif.Primer, "ACGT"}}, nil)
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = motif.NewRegistry([]motif.Motif{{"a", motif.Primer, "ACGT"}},
		[]motif.Kit{{ID: "K", Motifs: []string{"b"}}})
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = motif.NewRegistry([]motif.Motif{{"a", motif.Primer, "AC T"}}, nil)
	expect.NotNil(t, err)
}

const registryYAML = `
motifs:
  - name: ADPT
    category: adapter
    seq: acgtacgt
  - name: BC1
    category: barcode
    seq: TTGGCCAA
kits:
  - id: TEST-1
    description: test kit
    motifs: [ADPT, BC1]
`

func TestLoadRegistry(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tmp, "registry.yaml")
	assert.NoError(t, ioutil.WriteFile(path, []byte(registryYAML), 0600))

	r, err := motif.LoadRegistry(context.Background(), path)
	require.NoError(t, err)
	m, ok := r.Motif("ADPT")
	require.True(t, ok)
	expect.EQ(t, m, motif.Motif{Name: "ADPT", Category: motif.AdapterTop, Seq: "ACGTACGT"})
	motifs, err := r.MotifsForKit("test-1")
	require.NoError(t, err)
	expect.EQ(t, len(motifs), 2)

	_, err = motif.ParseRegistry([]byte("motifs: [{name: x, category: bogus, seq: A}]"))
	expect.NotNil(t, err)
	_, err = motif.LoadRegistry(context.Background(), filepath.Join(tmp, "missing.yaml"))
	expect.NotNil(t, err)
}

func TestHit(t *testing.T) {
	h := motif.Hit{Name: "ADPT", Category: motif.AdapterTop, Strand: motif.Forward, Start: 4, End: 12}
	expect.True(t, h.HasPos())
	expect.EQ(t, h.String(), "ADPT(adapter_top)+[4,12):0")
	h.Start, h.End = -1, -1
	expect.False(t, h.HasPos())
	expect.EQ(t, h.String(), "ADPT(adapter_top)+:0")
}

func TestDigest(t *testing.T) {
	motifs := []motif.Motif{{Name: "a", Category: motif.Primer, Seq: "ACGT"}}
	kits := []motif.Kit{{ID: "K", Motifs: []string{"a"}}}
	r1, err := motif.NewRegistry(motifs, kits)
	require.NoError(t, err)
	r2, err := motif.NewRegistry([]motif.Motif{{Name: "a", Category: motif.Primer, Seq: "acgt"}}, kits)
	require.NoError(t, err)
	expect.EQ(t, len(r1.Digest()), 32)
	expect.EQ(t, r1.Digest(), r2.Digest())

	r3, err := motif.NewRegistry([]motif.Motif{{Name: "a", Category: motif.Barcode, Seq: "ACGT"}}, kits)
	require.NoError(t, err)
	expect.NEQ(t, r1.Digest(), r3.Digest())
	expect.NEQ(t, r1.Digest(), motif.Builtin().Digest())
}
