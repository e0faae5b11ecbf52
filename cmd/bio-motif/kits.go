package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/motifscan/motif"
	"v.io/x/lib/cmdline"
)

func newCmdListKits() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "list-kits",
		Short: "List the kits of the motif registry",
	}
	registryFlag := cmd.Flags.String("registry", "", "YAML motif registry; the built-in registry is used if empty")
	csvFlag := cmd.Flags.Bool("csv", false, "Write CSV instead of a table")
	legacyFlag := cmd.Flags.Bool("legacy", true, "Include legacy kits")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return env.UsageErrorf("list-kits takes no arguments")
		}
		ctx, cancel := runContext()
		defer cancel()
		registry, err := loadRegistry(ctx, *registryFlag)
		if err != nil {
			return err
		}
		var kits []motif.Kit
		for _, k := range registry.Kits() {
			if k.Legacy && !*legacyFlag {
				continue
			}
			kits = append(kits, k)
		}
		if *csvFlag {
			return writeKitsCSV(env.Stdout, kits)
		}
		return writeKitsTable(env.Stdout, kits)
	})
	return cmd
}

func writeKitsCSV(w io.Writer, kits []motif.Kit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "description", "chemistry", "legacy", "motifs"}); err != nil {
		return err
	}
	for _, k := range kits {
		row := []string{k.ID, k.Description, k.Chemistry, strconv.FormatBool(k.Legacy), strings.Join(k.Motifs, ";")}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeKitsTable(w io.Writer, kits []motif.Kit) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCHEMISTRY\tLEGACY\tMOTIFS\tDESCRIPTION")
	for _, k := range kits {
		legacy := ""
		if k.Legacy {
			legacy = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", k.ID, k.Chemistry, legacy, len(k.Motifs), k.Description)
	}
	return tw.Flush()
}

func newCmdDescribeKit() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "describe-kit",
		Short:    "Show the signature motifs of a kit",
		ArgsName: "kit",
	}
	registryFlag := cmd.Flags.String("registry", "", "YAML motif registry; the built-in registry is used if empty")
	csvFlag := cmd.Flags.Bool("csv", false, "Write CSV instead of a table")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("describe-kit takes one kit ID, but got %v", argv)
		}
		ctx, cancel := runContext()
		defer cancel()
		registry, err := loadRegistry(ctx, *registryFlag)
		if err != nil {
			return err
		}
		kit, ok := registry.Kit(argv[0])
		if !ok {
			return errors.E(errors.NotExist, fmt.Sprintf("unknown kit %q", argv[0]))
		}
		motifs, err := registry.MotifsForKit(kit.ID)
		if err != nil {
			return err
		}
		if *csvFlag {
			return writeMotifsCSV(env.Stdout, motifs)
		}
		color.New(color.FgHiGreen, color.Bold).Fprintf(env.Stdout, "%s: %s (%s)\n", kit.ID, kit.Description, kit.Chemistry)
		return writeMotifsTable(env.Stdout, motifs)
	})
	return cmd
}

func writeMotifsCSV(w io.Writer, motifs []motif.Motif) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "category", "seq"}); err != nil {
		return err
	}
	for _, m := range motifs {
		if err := cw.Write([]string{m.Name, m.Category.String(), m.Seq}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMotifsTable(w io.Writer, motifs []motif.Motif) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tLENGTH\tSEQUENCE")
	for _, m := range motifs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Name, m.Category, len(m.Seq), m.Seq)
	}
	return tw.Flush()
}
