package screen

import (
	"encoding/json"
	"io"
	"time"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/motifscan/align"
	"github.com/grailbio/motifscan/encoding/source"
	"github.com/grailbio/motifscan/kitscore"
	"github.com/grailbio/motifscan/tally"
)

// RunSummary is the final report of a screen.
type RunSummary struct {
	RunID     string `json:"run_id"`
	Algorithm string `json:"algorithm"`
	// Selection tells which matcher backend actually ran.
	Selection align.Selection `json:"selection"`
	// Registry is the digest of the motif registry used.
	Registry     string                `json:"registry"`
	Kit          string                `json:"kit,omitempty"`
	Fraction     float64               `json:"fraction"`
	Workers      int                   `json:"workers"`
	Sources      []source.Summary      `json:"sources"`
	SourceErrors []SourceError         `json:"source_errors,omitempty"`
	Snapshot     tally.Snapshot        `json:"tally"`
	HasTruth     bool                  `json:"has_truth"`
	Kits         []kitscore.Likelihood `json:"kits"`
	Elapsed      time.Duration         `json:"elapsed_ns"`
	// ReadsPerSecond counts screened and skipped reads.
	ReadsPerSecond float64 `json:"reads_per_second"`
	// Incomplete is set when the run was stopped or cancelled before every
	// source was read.
	Incomplete bool `json:"incomplete"`
}

// WriteJSON writes the summary as one indented JSON document.
func (s *RunSummary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteTSV writes the summary as a flat table with the columns
//
//   section name category strand count value
//
// Section "run" holds scalar results, "source" one row per input, "motif",
// "strand" and "context" the tally tables, and "kit" the kit ranking with
// the total hits as count and the probability as value.
func (s *RunSummary) WriteTSV(w io.Writer) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("section\tname\tcategory\tstrand\tcount\tvalue")
	if err := tw.EndLine(); err != nil {
		return err
	}
	row := func(section, name, category, strand string, count int64, value float64) error {
		tw.WriteString(section)
		tw.WriteString(name)
		tw.WriteString(category)
		tw.WriteString(strand)
		tw.WriteInt64(count)
		tw.WriteFloat64(value, 'g', 6)
		return tw.EndLine()
	}
	snap := s.Snapshot
	conf := snap.Confusion
	incomplete := int64(0)
	if s.Incomplete {
		incomplete = 1
	}
	rows := []struct {
		name  string
		count int64
		value float64
	}{
		{"screened", snap.Screened, 0},
		{"with_hit", snap.WithHit, snap.HitRate()},
		{"unclassified", snap.Unclassified, snap.UnclassifiedRate()},
		{"skipped", snap.Skipped, snap.SkipRate()},
		{"decode_errors", snap.DecodeErrors, 0},
		{"elapsed_seconds", 0, s.Elapsed.Seconds()},
		{"reads_per_second", 0, s.ReadsPerSecond},
		{"incomplete", incomplete, 0},
	}
	if s.HasTruth {
		rows = append(rows, []struct {
			name  string
			count int64
			value float64
		}{
			{"tp", conf.TP, 0},
			{"fp", conf.FP, 0},
			{"fn", conf.FN, 0},
			{"precision", 0, conf.Precision()},
			{"recall", 0, conf.Recall()},
			{"f1", 0, conf.F1()},
		}...)
	}
	for _, r := range rows {
		if err := row("run", r.name, "", "", r.count, r.value); err != nil {
			return err
		}
	}
	for _, src := range s.Sources {
		if err := row("source", src.Path, src.Format.String(), "", src.Records, float64(src.DecodeErrors)); err != nil {
			return err
		}
	}
	for _, m := range snap.Motifs {
		if err := row("motif", m.Name, m.Category.String(), "", m.Count, ratio(m.Count, snap.Screened)); err != nil {
			return err
		}
	}
	for _, m := range snap.Strands {
		if err := row("strand", m.Name, m.Category.String(), m.Strand.String(), m.Count, ratio(m.Count, snap.Screened)); err != nil {
			return err
		}
	}
	for _, c := range snap.Contexts {
		if err := row("context", c.Context, "", "", c.Count, ratio(c.Count, snap.Screened)); err != nil {
			return err
		}
	}
	for _, k := range s.Kits {
		if err := row("kit", k.KitID, "", "", k.TotalHits, k.Probability); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func ratio(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
