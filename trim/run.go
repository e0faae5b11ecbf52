package trim

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/motifscan/encoding/fastq"
	"github.com/grailbio/motifscan/encoding/source"
	"github.com/grailbio/motifscan/motif"
	"github.com/klauspost/pgzip"
)

// batchSize is the number of reads annotated in parallel between writes.
const batchSize = 2000

// Stats summarizes a trimming run.
type Stats struct {
	Total        int64 `json:"total"`
	Clipped      int64 `json:"clipped"`
	Unclippable  int64 `json:"unclippable"`
	DecodeErrors int64 `json:"decode_errors"`
	// Structures counts reads by Result.Structure.
	Structures map[string]int64 `json:"structures"`
	// Clip5 and Clip3 are histograms of the bases removed from each end.
	Clip5 map[int]int64 `json:"clip5"`
	Clip3 map[int]int64 `json:"clip3"`
}

func newStats() Stats {
	return Stats{
		Structures: make(map[string]int64),
		Clip5:      make(map[int]int64),
		Clip3:      make(map[int]int64),
	}
}

func (s *Stats) add(r *Result) {
	s.Total++
	if r.Clipped {
		s.Clipped++
	}
	if r.Unclippable {
		s.Unclippable++
	}
	s.Structures[r.Structure]++
	s.Clip5[r.Clip5()]++
	s.Clip3[r.Clip3()]++
}

// WriteTSV writes the statistics as rows of section, key and count.
// Structures are ordered by decreasing count, histograms by clip length.
func (s *Stats) WriteTSV(w io.Writer) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("section\tkey\tcount")
	if err := tw.EndLine(); err != nil {
		return err
	}
	row := func(section, key string, n int64) error {
		tw.WriteString(section)
		tw.WriteString(key)
		tw.WriteInt64(n)
		return tw.EndLine()
	}
	for _, kv := range []struct {
		key string
		n   int64
	}{
		{"total", s.Total},
		{"clipped", s.Clipped},
		{"unclippable", s.Unclippable},
		{"decode_errors", s.DecodeErrors},
	} {
		if err := row("reads", kv.key, kv.n); err != nil {
			return err
		}
	}
	structures := make([]string, 0, len(s.Structures))
	for k := range s.Structures {
		structures = append(structures, k)
	}
	sort.Slice(structures, func(i, j int) bool {
		a, b := structures[i], structures[j]
		if s.Structures[a] != s.Structures[b] {
			return s.Structures[a] > s.Structures[b]
		}
		return a < b
	})
	for _, k := range structures {
		if err := row("structure", k, s.Structures[k]); err != nil {
			return err
		}
	}
	for _, h := range []struct {
		section string
		hist    map[int]int64
	}{{"clip5", s.Clip5}, {"clip3", s.Clip3}} {
		lens := make([]int, 0, len(h.hist))
		for n := range h.hist {
			lens = append(lens, n)
		}
		sort.Ints(lens)
		for _, n := range lens {
			if err := row(h.section, fmt.Sprint(n), h.hist[n]); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

// Run trims every read of inputs and writes them, in input order, as FASTQ to
// output. The output is gzip compressed when its name ends in ".gz". Each
// read name is followed by a space and Result.Annotation.
func Run(ctx context.Context, registry *motif.Registry, opts Opts, inputs []string, output string) (stats Stats, err error) {
	if len(inputs) == 0 {
		return stats, errors.E(errors.Invalid, "no read sources given")
	}
	motifs, err := registry.MotifsForKit(opts.Kit)
	if err != nil {
		return stats, err
	}
	t, err := New(motifs, opts)
	if err != nil {
		return stats, err
	}
	for _, path := range inputs {
		if _, err := source.DetectFormat(ctx, path); err != nil {
			return stats, err
		}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out, err := file.Create(ctx, output)
	if err != nil {
		return stats, err
	}
	defer file.CloseAndReport(ctx, out, &err)
	var (
		w  io.Writer = out.Writer(ctx)
		gz *pgzip.Writer
	)
	if strings.HasSuffix(output, ".gz") {
		gz = pgzip.NewWriter(w)
		w = gz
	}
	fw := fastq.NewWriter(w)

	stats = newStats()
	for _, path := range inputs {
		if err = t.trimFile(ctx, path, workers, fw, &stats); err != nil {
			return stats, err
		}
		log.Printf("trim: %s: %d reads so far, %d clipped", path, stats.Total, stats.Clipped)
	}
	if err = fw.Flush(); err != nil {
		return stats, err
	}
	if gz != nil {
		err = gz.Close()
	}
	return stats, err
}

func (t *Trimmer) trimFile(ctx context.Context, path string, workers int, w *fastq.Writer, stats *Stats) error {
	in, err := source.Open(ctx, path)
	if err != nil {
		return err
	}
	defer in.Close(ctx) // nolint: errcheck
	var (
		batch   = make([]source.Read, 0, batchSize)
		results = make([]Result, batchSize)
		eof     bool
	)
	for !eof {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = batch[:0]
		for len(batch) < batchSize {
			var read source.Read
			err := in.Next(&read)
			if err == io.EOF {
				eof = true
				break
			}
			if source.IsDecodeError(err) {
				log.Debug.Printf("trim: skipping record: %v", err)
				stats.DecodeErrors++
				continue
			}
			if err != nil {
				return err
			}
			batch = append(batch, read)
		}
		_ = traverse.Each(workers, func(shard int) error {
			for i := shard; i < len(batch); i += workers {
				results[i] = t.Annotate(batch[i].Seq, batch[i].Qual)
			}
			return nil
		})
		for i := range batch {
			r := &results[i]
			stats.add(r)
			err := w.Write(&fastq.Read{
				ID:   batch[i].ID + " " + r.Annotation(),
				Seq:  string(r.Seq),
				Qual: string(r.Qual),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
