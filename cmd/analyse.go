package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/conneroisu/strata/internal/analyse"
	"github.com/conneroisu/strata/internal/input"
	"github.com/conneroisu/strata/internal/layers"
	"github.com/spf13/cobra"
)

// marginalsFile is the default analyse output inside the output directory.
const marginalsFile = "marginals.npz"

var (
	analyseSamples    string
	analyseThreads    int
	analyseVoxelFlags *voxelFlags
)

var analyseCmd = &cobra.Command{
	Use:   "analyse <world.yml>",
	Short: "Average voxel volumes over a sample file",
	Long: `Reconstruct the world parameters of every sample in a chain output file
using the prior of the world file, voxelise each one and write the mean of
every volume to a NumPy .npz archive.

Sample files hold one sample per line: the parameter vector followed by
energy, sigma, beta, accepted and swap type columns.

Examples:
  strata analyse world.yml --samples chain.csv
  strata analyse world.yml -s chain.csv -j 8 -x 64 -y 64 -z 40`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyse,
}

func init() {
	rootCmd.AddCommand(analyseCmd)

	analyseVoxelFlags = addVoxelFlags(analyseCmd)
	analyseCmd.Flags().StringVarP(&analyseSamples, "samples", "s", "", "sample file to average over")
	analyseCmd.Flags().IntVarP(&analyseThreads, "threads", "j", 0, "worker count (default from config)")
	_ = analyseCmd.MarkFlagRequired("samples")
}

func runAnalyse(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	vs, err := analyseVoxelFlags.spec(a.cfg)
	if err != nil {
		return err
	}
	threads := a.cfg.Analyse.Threads
	if cmd.Flags().Changed("threads") {
		threads = analyseThreads
	}
	if threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", threads)
	}
	output := analyseVoxelFlags.output
	if output == "" {
		output = filepath.Join(a.cfg.Output.Dir, marginalsFile)
	}

	w, err := a.loadWorld(ctx, args[0])
	if err != nil {
		return err
	}
	wp, err := input.ParsePrior(w.file)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	a.logWarnings(ctx, w.file)

	samples, err := analyse.ReadSampleFile(analyseSamples)
	if err != nil {
		return err
	}
	q, err := layers.GridQuery(w.interps, w.spec, vs)
	if err != nil {
		return err
	}

	op := a.start("analyse")
	vols, err := analyse.Marginalise(ctx, samples, wp, w.interps, q, threads)
	if err != nil {
		op.EndWithError(ctx, err)
		return err
	}
	if err := writeDump(output, vols.Dump(w.spec, vs)); err != nil {
		op.EndWithError(ctx, err)
		return err
	}
	op.End(ctx, "samples", len(samples), "threads", threads, "output", output)

	fmt.Fprintf(cmd.OutOrStdout(), "Averaged %d samples into %s\n", len(samples), output)
	return nil
}
