package main

import (
	"context"
	"fmt"
	"hash"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/motifscan/encoding/source"
	"v.io/x/lib/cmdline"
)

func newCmdCount() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "count",
		Short:    "Count the records of read files",
		ArgsName: "path...",
		Long: `
Count prints, for every file, its detected format, the number of reads, the
number of malformed records that were skipped, the number of secondary or
supplementary alignments that were filtered out and a checksum of the reads.
The checksum sums a seahash of each read's name, sequence and qualities, so it
does not depend on record order or on the file format.`,
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return env.UsageErrorf("count takes at least one read file")
		}
		ctx, cancel := runContext()
		defer cancel()
		return count(ctx, env.Stdout, argv)
	})
	return cmd
}

// readChecksum folds the hash of one read into sum.
func readChecksum(sum uint64, h hash.Hash64, r *source.Read) uint64 {
	h.Reset()
	h.Write(gunsafe.StringToBytes(r.ID))
	h.Write([]byte{0})
	h.Write(r.Seq)
	h.Write([]byte{0})
	h.Write(r.Qual)
	return sum + h.Sum64()
}

func count(ctx context.Context, w io.Writer, paths []string) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("path\tformat\trecords\tdecode_errors\tfiltered\tchecksum")
	if err := tw.EndLine(); err != nil {
		return err
	}
	h := seahash.New()
	for _, path := range paths {
		var sum uint64
		s, err := source.ForEach(ctx, path, func(r *source.Read) error {
			sum = readChecksum(sum, h, r)
			return nil
		})
		if err != nil {
			return errors.E(err, path)
		}
		tw.WriteString(s.Path)
		tw.WriteString(s.Format.String())
		tw.WriteInt64(s.Records)
		tw.WriteInt64(s.DecodeErrors)
		tw.WriteInt64(s.Filtered)
		tw.WriteString(fmt.Sprintf("%016x", sum))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
