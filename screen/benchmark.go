package screen

import (
	"context"
	"io"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/motifscan/strategy"
)

// BenchmarkResult is the outcome of screening one file with one algorithm.
type BenchmarkResult struct {
	Path      string
	Algorithm string
	// Backend is the matcher that actually ran.
	Backend        string
	Reads          int64
	TP, FP, FN     int64
	Precision      float64
	Recall         float64
	F1             float64
	Elapsed        time.Duration
	ReadsPerSecond float64
	Incomplete     bool
}

// Benchmark screens every source separately with every algorithm, using the
// remaining settings of opts, and reports accuracy against opts.Truth and
// throughput. Rows are ordered by source, then by algorithm.
func Benchmark(ctx context.Context, registry *motif.Registry, opts Opts, algos []strategy.Algorithm) ([]BenchmarkResult, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.E(errors.Invalid, "no read sources given")
	}
	if len(algos) == 0 {
		algos = strategy.All()
	}
	var results []BenchmarkResult
	for _, path := range opts.Sources {
		for _, algo := range algos {
			o := opts
			o.Sources = []string{path}
			o.Algorithm = algo
			summary, err := Run(ctx, registry, o)
			if err != nil {
				return nil, errors.E(err, path, algo.String())
			}
			conf := summary.Snapshot.Confusion
			res := BenchmarkResult{
				Path:           path,
				Algorithm:      algo.String(),
				Backend:        summary.Selection.Actual,
				Reads:          summary.Snapshot.Total(),
				TP:             conf.TP,
				FP:             conf.FP,
				FN:             conf.FN,
				Precision:      conf.Precision(),
				Recall:         conf.Recall(),
				F1:             conf.F1(),
				Elapsed:        summary.Elapsed,
				ReadsPerSecond: summary.ReadsPerSecond,
				Incomplete:     summary.Incomplete,
			}
			log.Printf("benchmark: %s %s: %d reads, tp %d fp %d fn %d, %.0f reads/s",
				path, res.Algorithm, res.Reads, res.TP, res.FP, res.FN, res.ReadsPerSecond)
			results = append(results, res)
			if summary.Incomplete {
				return results, nil
			}
		}
	}
	return results, nil
}

// WriteBenchmarkTSV writes benchmark results with a header row.
func WriteBenchmarkTSV(w io.Writer, results []BenchmarkResult) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("file\talgorithm\tbackend\treads\ttp\tfp\tfn\tprecision\trecall\tf1\telapsed_seconds\treads_per_second")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, r := range results {
		tw.WriteString(r.Path)
		tw.WriteString(r.Algorithm)
		tw.WriteString(r.Backend)
		tw.WriteInt64(r.Reads)
		tw.WriteInt64(r.TP)
		tw.WriteInt64(r.FP)
		tw.WriteInt64(r.FN)
		tw.WriteFloat64(r.Precision, 'f', 4)
		tw.WriteFloat64(r.Recall, 'f', 4)
		tw.WriteFloat64(r.F1, 'f', 4)
		tw.WriteFloat64(r.Elapsed.Seconds(), 'f', 3)
		tw.WriteFloat64(r.ReadsPerSecond, 'f', 1)
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
