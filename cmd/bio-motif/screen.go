package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/motifscan/screen"
	"github.com/grailbio/motifscan/strategy"
	"github.com/grailbio/motifscan/tally"
	"v.io/x/lib/cmdline"
)

// screenFlags are the flags shared by screen and benchmark.
type screenFlags struct {
	workers  *int
	fraction *float64
	maxDist  *int
	minScore *int
	kit      *string
	truth    *string
	registry *string
}

func addScreenFlags(cmd *cmdline.Command) screenFlags {
	return screenFlags{
		workers:  cmd.Flags.Int("workers", screen.DefaultOpts.Workers, "Number of classification goroutines"),
		fraction: cmd.Flags.Float64("fraction", screen.DefaultOpts.Fraction, "Fraction of reads to classify, in [0, 1]. Reads are chosen by a hash of their name"),
		maxDist:  cmd.Flags.Int("max-dist", strategy.DefaultParams.MaxDist, "Largest edit distance accepted by edit distance algorithms"),
		minScore: cmd.Flags.Int("min-score", 0, "Smallest local alignment score accepted by local alignment algorithms; 0 picks a default from the motif length"),
		kit:      cmd.Flags.String("kit", "", "Restrict the motif set to this kit's signature"),
		truth:    cmd.Flags.String("truth", "", "TSV truth set with columns read_id, labels (';'-separated motif names) and optional kind"),
		registry: cmd.Flags.String("registry", "", "YAML motif registry; the built-in registry is used if empty"),
	}
}

func (f screenFlags) opts() screen.Opts {
	opts := screen.DefaultOpts
	opts.Workers = *f.workers
	opts.Fraction = *f.fraction
	opts.Params = strategy.Params{MaxDist: *f.maxDist, MinScore: *f.minScore}
	opts.Kit = *f.kit
	return opts
}

func newCmdScreen() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "screen",
		Short:    "Tally motif hits in read files and rank the kits that could have produced them",
		ArgsName: "path...",
		Long: `
Screen reads every FASTQ (plain or gzip), SAM or BAM file given, classifies
each sampled read against the motif set and prints the motif, strand and
context tables and the kit ranking. An interrupt stops the screen early; the
partial results are still reported and marked incomplete.`,
	}
	flags := addScreenFlags(cmd)
	algoFlag := cmd.Flags.String("algo", screen.DefaultOpts.Algorithm.String(), "Matching algorithm: aho, myers, edlib, parasail, ac+myers or ac+parasail")
	tsvFlag := cmd.Flags.String("tsv", "", "Write the summary as TSV to this path ('-' for stdout)")
	jsonFlag := cmd.Flags.String("json", "", "Write the summary as JSON to this path ('-' for stdout)")
	progressFlag := cmd.Flags.Duration("progress", screen.DefaultOpts.ProgressInterval, "Interval between progress reports; 0 disables them")
	topFlag := cmd.Flags.Int("top", screen.DefaultOpts.TopN, "Number of rows shown per table")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return env.UsageErrorf("screen takes at least one read file")
		}
		ctx, cancel := runContext()
		defer cancel()
		registry, err := loadRegistry(ctx, *flags.registry)
		if err != nil {
			return err
		}
		opts := flags.opts()
		opts.Sources = argv
		opts.ProgressInterval = *progressFlag
		opts.TopN = *topFlag
		if opts.Algorithm, err = strategy.ParseAlgorithm(*algoFlag); err != nil {
			return err
		}
		if *flags.truth != "" {
			if opts.Truth, err = tally.LoadTruthSet(ctx, *flags.truth); err != nil {
				return err
			}
		}
		summary, err := screen.Run(ctx, registry, opts)
		if err != nil {
			return err
		}
		printSummary(env.Stdout, summary, *topFlag)
		if *tsvFlag != "" {
			if err := writeFile(ctx, *tsvFlag, env.Stdout, summary.WriteTSV); err != nil {
				return err
			}
		}
		if *jsonFlag != "" {
			if err := writeFile(ctx, *jsonFlag, env.Stdout, summary.WriteJSON); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func printSummary(w io.Writer, s *screen.RunSummary, top int) {
	head := color.New(color.FgHiGreen, color.Bold)
	warn := color.New(color.FgHiMagenta)
	snap := s.Snapshot.Top(top)

	head.Fprintf(w, "Screened %d reads with %s in %v (%.0f reads/s)\n",
		snap.Screened, s.Selection, s.Elapsed.Round(time.Millisecond), s.ReadsPerSecond)
	if s.Incomplete {
		warn.Fprintln(w, "Screen stopped early; results are partial")
	}
	fmt.Fprintf(w, "with hits %.2f%%, unclassified %.2f%%, skipped %d, decode errors %d\n",
		100*snap.HitRate(), 100*snap.UnclassifiedRate(), snap.Skipped, snap.DecodeErrors)
	for _, e := range s.SourceErrors {
		warn.Fprintf(w, "%s: %s\n", e.Path, e.Error)
	}
	if s.HasTruth {
		c := snap.Confusion
		fmt.Fprintf(w, "truth: tp %d fp %d fn %d precision %.4f recall %.4f f1 %.4f\n",
			c.TP, c.FP, c.FN, c.Precision(), c.Recall(), c.F1())
	}
	if len(snap.Motifs) > 0 {
		head.Fprintln(w, "\nMotifs")
		for _, m := range snap.Motifs {
			fmt.Fprintf(w, "  %-24s %-14s %d\n", m.Name, m.Category, m.Count)
		}
	}
	if len(snap.Contexts) > 0 {
		head.Fprintln(w, "\nContexts")
		for _, c := range snap.Contexts {
			fmt.Fprintf(w, "  %-48s %d\n", c.Context, c.Count)
		}
	}
	if len(s.Kits) > 0 && s.Kits[0].Probability > 0 {
		head.Fprintln(w, "\nKits")
		for i, k := range s.Kits {
			if i == top || k.Probability == 0 {
				break
			}
			fmt.Fprintf(w, "  %-16s p=%.4f score=%.0f motifs=%d hits=%d\n",
				k.KitID, k.Probability, k.Score, k.MatchedMotifs, k.TotalHits)
		}
	}
}

func newCmdBenchmark() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "benchmark",
		Short:    "Compare the accuracy and throughput of the matching algorithms",
		ArgsName: "path...",
		Long: `
Benchmark screens each file once per algorithm and writes one TSV row per
(file, algorithm) with the true positive, false positive and false negative
counts against the truth set, precision, recall, F1, elapsed time, reads per
second and the matcher backend that actually ran.`,
	}
	flags := addScreenFlags(cmd)
	algosFlag := cmd.Flags.String("algos", "", "Comma-separated algorithms to compare; empty means all")
	outFlag := cmd.Flags.String("out", "-", "Output TSV path; '-' means stdout")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return env.UsageErrorf("benchmark takes at least one read file")
		}
		ctx, cancel := runContext()
		defer cancel()
		registry, err := loadRegistry(ctx, *flags.registry)
		if err != nil {
			return err
		}
		algos, err := strategy.ParseList(*algosFlag)
		if err != nil {
			return err
		}
		opts := flags.opts()
		opts.Sources = argv
		opts.ProgressInterval = 0
		if *flags.truth == "" {
			log.Printf("benchmark: no truth set given; accuracy columns will be zero")
		} else if opts.Truth, err = tally.LoadTruthSet(ctx, *flags.truth); err != nil {
			return err
		}
		results, err := screen.Benchmark(ctx, registry, opts, algos)
		if err != nil {
			return err
		}
		return writeFile(ctx, *outFlag, env.Stdout, func(w io.Writer) error {
			return screen.WriteBenchmarkTSV(w, results)
		})
	})
	return cmd
}
