package main

import (
	"github.com/fatih/color"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/motifscan/strategy"
	"github.com/grailbio/motifscan/trim"
	"v.io/x/lib/cmdline"
)

func newCmdTrim() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "trim",
		Short:    "Clip adapters, primers and barcodes off read ends",
		ArgsName: "path...",
		Long: `
Trim finds the kit's adapters and primers near each read end and its barcodes
and flanks in each half of the read, clips them, and writes every read as
FASTQ with the kept interval appended to its name, e.g.

  @read7 trim=31..1742;len=1790;L:LA_top:2-31:ed=1

Reads whose 5' and 3' cuts cross are written whole.`,
	}
	registryFlag := cmd.Flags.String("registry", "", "YAML motif registry; the built-in registry is used if empty")
	kitFlag := cmd.Flags.String("kit", "", "Kit whose motifs are clipped (required)")
	outFlag := cmd.Flags.String("output", "", "Output FASTQ path; gzip compressed if it ends in .gz (required)")
	statsFlag := cmd.Flags.String("stats", "", "Write trimming statistics as TSV to this path ('-' for stdout)")
	algoFlag := cmd.Flags.String("algo", trim.DefaultOpts.Algorithm.String(), "Matching algorithm; one of the edit distance algorithms")
	maxEditsFlag := cmd.Flags.Int("max-edits", trim.DefaultOpts.MaxEdits, "Largest edit distance of a clipped motif")
	windowFlag := cmd.Flags.Int("end-window", trim.DefaultOpts.EndWindow, "Distance from a read end within which adapters are clipped")
	workersFlag := cmd.Flags.Int("workers", trim.DefaultOpts.Workers, "Number of annotating goroutines")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return env.UsageErrorf("trim takes at least one read file")
		}
		if *kitFlag == "" || *outFlag == "" {
			return env.UsageErrorf("trim requires -kit and -output")
		}
		ctx, cancel := runContext()
		defer cancel()
		registry, err := loadRegistry(ctx, *registryFlag)
		if err != nil {
			return err
		}
		opts := trim.Opts{
			Kit:       *kitFlag,
			MaxEdits:  *maxEditsFlag,
			EndWindow: *windowFlag,
			Workers:   *workersFlag,
		}
		if opts.Algorithm, err = strategy.ParseAlgorithm(*algoFlag); err != nil {
			return err
		}
		stats, err := trim.Run(ctx, registry, opts, argv, *outFlag)
		if err != nil {
			return err
		}
		pct := 0.0
		if stats.Total > 0 {
			pct = 100 * float64(stats.Clipped) / float64(stats.Total)
		}
		color.New(color.FgHiGreen).Fprintf(env.Stdout, "Clipped %d of %d reads (%.2f%%)\n", stats.Clipped, stats.Total, pct)
		color.New(color.FgHiMagenta).Fprintf(env.Stdout, "Unclippable: %d, malformed records skipped: %d\n", stats.Unclippable, stats.DecodeErrors)
		if *statsFlag != "" {
			return writeFile(ctx, *statsFlag, env.Stdout, stats.WriteTSV)
		}
		return nil
	})
	return cmd
}
