package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/strata/internal/input"
	"github.com/spf13/cobra"
)

// exportedWorldFile is the name of the world file written by export.
const exportedWorldFile = "world.yml"

var exportPrefix string

var exportCmd = &cobra.Command{
	Use:   "export <world.yml> <dir>",
	Short: "Rewrite a world file and its data files into a directory",
	Long: `Parse a world file and write it back out in normalised form: one YAML world
file plus CSV files for the geometry, the simulation parameters and the
prior, written at full precision. Sections absent from the input are not
written.

Examples:
  strata export world.yml out/
  strata export world.yml out/ --prefix run1_`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "prefix for every written CSV file")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	src, dir := args[0], args[1]

	f, err := input.Load(src)
	if err != nil {
		return err
	}
	spec, err := input.ParseSpec(f)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	op := a.start("export")
	specDoc, err := input.WriteSpec(dir, exportPrefix, spec)
	if err != nil {
		op.EndWithError(ctx, err)
		return err
	}
	docs := []input.Document{specDoc}

	if f.IsSet(input.KeySimCtrlPoints) {
		params, err := input.ParseSimulationParams(f)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		doc, err := input.WriteParams(dir, exportPrefix, params)
		if err != nil {
			op.EndWithError(ctx, err)
			return err
		}
		docs = append(docs, doc)
	}
	// The prior's control point masks replace the full masks written with
	// the geometry.
	if f.IsSet(input.KeyCtrlPointMins) {
		wp, err := input.ParsePrior(f)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		doc, err := input.WritePrior(dir, exportPrefix, wp)
		if err != nil {
			op.EndWithError(ctx, err)
			return err
		}
		docs = append(docs, doc)
	}
	a.logWarnings(ctx, f)

	out := filepath.Join(dir, exportedWorldFile)
	if err := input.Save(out, docs...); err != nil {
		op.EndWithError(ctx, err)
		return err
	}
	op.End(ctx, "file", src, "output", out)

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return nil
}
