package tally

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/motifscan/motif"
)

// Truth is the expected labelling of one read.
type Truth struct {
	// Labels are the motif names expected in the read. An empty set means
	// the read should be unclassified.
	Labels map[string]bool
	// Category is the category of the expected labels when the truth file
	// names one.
	Category    motif.Category
	HasCategory bool
}

// TruthSet maps read IDs to their expected labels. It is read-only once
// loaded.
type TruthSet struct {
	reads map[string]Truth
}

// NewTruthSet builds a truth set from read ID to label list.
func NewTruthSet(labels map[string][]string) *TruthSet {
	t := &TruthSet{reads: make(map[string]Truth, len(labels))}
	for id, names := range labels {
		truth := Truth{Labels: make(map[string]bool, len(names))}
		for _, name := range names {
			truth.Labels[name] = true
		}
		t.reads[id] = truth
	}
	return t
}

// Lookup returns the expected labels of the read.
func (t *TruthSet) Lookup(readID string) (Truth, bool) {
	if t == nil {
		return Truth{}, false
	}
	truth, ok := t.reads[readID]
	return truth, ok
}

// Len returns the number of reads in the set.
func (t *TruthSet) Len() int {
	if t == nil {
		return 0
	}
	return len(t.reads)
}

// truthRow is one line of a truth set file.
type truthRow struct {
	ReadID string `tsv:"read_id"`
	Labels string `tsv:"labels"`
	Kind   string `tsv:"kind"`
}

// ReadTruthSet parses a truth set TSV. The header row must name the columns
// read_id, labels and kind; labels are separated by ';' and kind may be
// empty. Any malformed row is an errors.Invalid error.
func ReadTruthSet(r io.Reader) (*TruthSet, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	t := &TruthSet{reads: make(map[string]Truth)}
	for line := 2; ; line++ {
		var row truthRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "truth set", err)
		}
		id := strings.TrimSpace(row.ReadID)
		if id == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("truth set line %d: empty read_id", line))
		}
		truth := Truth{Labels: make(map[string]bool)}
		for _, label := range strings.Split(row.Labels, ";") {
			if label = strings.TrimSpace(label); label != "" {
				truth.Labels[label] = true
			}
		}
		if kind := strings.TrimSpace(row.Kind); kind != "" {
			c, err := motif.ParseCategory(kind)
			if err != nil {
				return nil, errors.E(err, fmt.Sprintf("truth set line %d", line))
			}
			truth.Category, truth.HasCategory = c, true
		}
		t.reads[id] = truth
	}
	return t, nil
}

// LoadTruthSet reads a truth set TSV from path.
func LoadTruthSet(ctx context.Context, path string) (*TruthSet, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	t, err := ReadTruthSet(in.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, path)
	}
	return t, nil
}
