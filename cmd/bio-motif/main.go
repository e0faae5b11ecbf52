// bio-motif screens sequencing reads for library preparation motifs
// (adapters, primers, barcodes and flanks), estimates which kit produced
// them, benchmarks the matching algorithms against a truth set, and trims
// the motifs off read ends.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/motifscan/motif"
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-motif",
		Short:    "Screen reads for library preparation motifs",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdScreen(),
			newCmdBenchmark(),
			newCmdTrim(),
			newCmdListKits(),
			newCmdDescribeKit(),
			newCmdCount(),
			newCmdDownsample(),
		},
	}
}

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}

// runContext returns a context that is cancelled on SIGINT or SIGTERM.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(vcontext.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadRegistry reads the YAML registry at path, or returns the built-in
// registry if path is empty.
func loadRegistry(ctx context.Context, path string) (*motif.Registry, error) {
	if path == "" {
		return motif.Builtin(), nil
	}
	return motif.LoadRegistry(ctx, path)
}

// writeFile creates path and fills it with write. "-" means w.
func writeFile(ctx context.Context, path string, w io.Writer, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(w)
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return write(out.Writer(ctx))
}
