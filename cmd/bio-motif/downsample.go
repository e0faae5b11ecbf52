package main

import (
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/motifscan/encoding/fastq"
	"v.io/x/lib/cmdline"
)

func newCmdDownsample() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "downsample",
		Short:    "Sample reads from a FASTQ file or pair",
		ArgsName: "r1 [r2]",
		Long: `
Downsample keeps each read (or read pair) with the given probability. Reads
are chosen by a hash of their name, so the same reads are kept on every run
and both mates of a pair are kept together.`,
	}
	rateFlag := cmd.Flags.Float64("rate", 0, "Probability of keeping each read")
	countFlag := cmd.Flags.Int64("count", 0, "Approximate number of reads to keep; overrides -rate")
	out1Flag := cmd.Flags.String("out1", "", "Output path for R1 reads (required)")
	out2Flag := cmd.Flags.String("out2", "", "Output path for R2 reads; required with two inputs")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) (err error) {
		if len(argv) < 1 || len(argv) > 2 {
			return env.UsageErrorf("downsample takes one or two FASTQ files, but got %v", argv)
		}
		if *out1Flag == "" || (len(argv) == 2 && *out2Flag == "") {
			return env.UsageErrorf("downsample requires -out1, and -out2 for pairs")
		}
		ctx, cancel := runContext()
		defer cancel()
		r1Path, r2Path := argv[0], ""
		out1, err := file.Create(ctx, *out1Flag)
		if err != nil {
			return err
		}
		defer file.CloseAndReport(ctx, out1, &err)
		var w2 io.Writer
		if len(argv) == 2 {
			r2Path = argv[1]
			var out2 file.File
			if out2, err = file.Create(ctx, *out2Flag); err != nil {
				return err
			}
			defer file.CloseAndReport(ctx, out2, &err)
			w2 = out2.Writer(ctx)
		}
		if *countFlag > 0 {
			return fastq.DownsampleToCount(ctx, *countFlag, r1Path, r2Path, out1.Writer(ctx), w2)
		}
		return fastq.Downsample(ctx, *rateFlag, r1Path, r2Path, out1.Writer(ctx), w2)
	})
	return cmd
}
