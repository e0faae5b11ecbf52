package motif

import "sync"

// builtinMotifs are the Oxford Nanopore adapters, primers and native
// barcodes known without a registry file.
var builtinMotifs = []Motif{
	{"LA_top", AdapterTop, "TTTTTTTTCCTGTACTTCGTTCAGTTACGTATTGCT"},
	{"LA_bottom", AdapterBottom, "GCAATACGTAACTGAACGAAGTACAGG"},
	{"NA_top", AdapterTop, "TTTTTTTTCCTGTACTTCGTTCAGTTACGTATTGCT"},
	{"NA_bottom", AdapterBottom, "ACGTAACTGAACGAAGTACAGG"},
	{"RA_top", AdapterTop, "TTTTTTTTCCTGTACTTCGTTCAGTTACGTATTGCT"},
	{"RTP", Primer, "CTTGCCTGTCGCTCTATCTTCAGAGGAG"},
	{"CRTA", Primer, "CTTGCGGGCGGCGGACTCTCCTCTGAAGATAGAGCGACAGGCAAG"},
	{"SSP", Primer, "TTTCTGTTGGTGCTGATATTGCTGGG"},
	{"SSPII", Primer, "TTTCTGTTGGTGCTGATATTGCTTTVVVVTTVVVVTTVVVVTTVVVVTTTGGG"},
	{"VNP", Primer, "ACTTGCCTGTCGCTCTATCTTCTTTTTTTTT"},
	{"cPRM_forward", Primer, "ATCGCCTACCGTGACAAGAAAGTTGTCGGTGTCTTTGTGACTTGCCTGTCGCTCTATCTTC"},
	{"cPRM_reverse", Primer, "ATCGCCTACCGTGACAAGAAAGTTGTCGGTGTCTTTGTGTTTCTGTTGGTGCTGATATTGC"},
	{"NSK007_Y_Top", AdapterTop, "AATGTACTTCGTTCAGTTACGTATTGCT"},
	{"NSK007_Y_Bottom", AdapterBottom, "GCAATACGTAACTGAACGAAGT"},
	{"LSK308_1D2_Top", AdapterTop, "GTCAGAGAGGTTCCAAGTCAGAGAGGTTCCT"},
	{"LSK308_1D2_Bottom", AdapterBottom, "GGCGTCTGCTTGGGTGTTTAACCTTTTTGTCAGAGAGGTTCCAAGTCAGAGAGGTTCCT"},
	{"NB_flank_front", Flank, "AAGGTTAA"},
	{"NB_flank_rear", Flank, "CAGCACCT"},
	{"NB01", Barcode, "CACAAAGACACCGACAACTTTCTT"},
	{"NB02", Barcode, "ACAGACGACTACAAACGGAATCGA"},
	{"NB03", Barcode, "CCTGGTAACTGGGACACAAGACTC"},
}

var builtinKits = []Kit{
	{ID: "SQK-LSK114", Description: "Ligation Sequencing Kit V14", Chemistry: "R10.4.1",
		Motifs: []string{"LA_top", "LA_bottom"}},
	{ID: "SQK-NBD114.24", Description: "Native Barcoding Kit 24 V14", Chemistry: "R10.4.1",
		Motifs: []string{"NA_top", "NA_bottom", "NB_flank_front", "NB_flank_rear", "NB01", "NB02", "NB03"}},
	{ID: "SQK-PCS111", Description: "PCR-cDNA Sequencing Kit", Chemistry: "R9.4.1",
		Motifs: []string{"RA_top", "CRTA", "RTP", "SSP", "VNP"}},
	{ID: "SQK-PCS114", Description: "cDNA-PCR Sequencing V14", Chemistry: "R10.4.1",
		Motifs: []string{"RA_top", "CRTA", "RTP", "SSPII"}},
	{ID: "SQK-PRM", Description: "cDNA primers", Chemistry: "R9.4.1",
		Motifs: []string{"cPRM_forward", "cPRM_reverse"}},
	{ID: "SQK-LSK109", Description: "Ligation Sequencing Kit", Chemistry: "R9.4.1", Legacy: true,
		Motifs: []string{"NSK007_Y_Top", "NSK007_Y_Bottom"}},
	{ID: "SQK-LSK108", Description: "Ligation Sequencing Kit 1D", Chemistry: "R9.4", Legacy: true,
		Motifs: []string{"NSK007_Y_Top", "NSK007_Y_Bottom"}},
	{ID: "SQK-LSK308", Description: "1D^2 Sequencing Kit", Chemistry: "R9.5", Legacy: true,
		Motifs: []string{"LSK308_1D2_Top", "LSK308_1D2_Bottom"}},
}

var (
	builtinOnce     sync.Once
	builtinRegistry *Registry
)

// Builtin returns the registry of built-in motifs and kits.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		var err error
		if builtinRegistry, err = NewRegistry(builtinMotifs, builtinKits); err != nil {
			panic(err)
		}
	})
	return builtinRegistry
}
